package corpus

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"testing/fstest"
	"time"

	"github.com/louisbranch/llmrag/internal/services/rag/vectordb"
)

const manifestYAML = `course: LLM-RAG Online Course
phases:
  - name: phase1_fundamentals_of_llm
    lessons:
      - title: Tokenizers
        text: Tokenizers split text into subword units.
      - title: Attention
        file: lessons/attention.md
  - name: phase2_rag_knowledge_and_practice
    lessons:
      - title: Retrieval
        text: Retrieval finds documents similar to the query.
`

func TestLoadFSResolvesLessonFiles(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{
		"course/course.yaml":          {Data: []byte(manifestYAML)},
		"course/lessons/attention.md": {Data: []byte("Attention weighs tokens.")},
	}
	manifest, err := LoadFS(fsys, "course/course.yaml")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if manifest.Course != "LLM-RAG Online Course" {
		t.Fatalf("course = %q", manifest.Course)
	}
	if got := manifest.LessonCount(); got != 3 {
		t.Fatalf("LessonCount() = %d, want 3", got)
	}
	if got := manifest.Phases[0].Lessons[1].Text; got != "Attention weighs tokens." {
		t.Fatalf("lesson text = %q", got)
	}
}

func TestLoadReadsFromDisk(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "lessons"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "course.yaml"), []byte(manifestYAML), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "lessons", "attention.md"), []byte("from disk"), 0o644); err != nil {
		t.Fatalf("write lesson: %v", err)
	}
	manifest, err := Load(filepath.Join(dir, "course.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := manifest.Phases[0].Lessons[1].Text; got != "from disk" {
		t.Fatalf("lesson text = %q", got)
	}
}

func TestLoadFSErrors(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"missing file":  "course: c\nphases:\n  - name: p\n    lessons:\n      - title: t\n        file: nope.md\n",
		"bad yaml":      "course: [",
		"no course":     "phases:\n  - name: p\n",
		"no phases":     "course: c\n",
		"no phase name": "course: c\nphases:\n  - lessons: []\n",
		"no title":      "course: c\nphases:\n  - name: p\n    lessons:\n      - text: x\n",
		"text and file": "course: c\nphases:\n  - name: p\n    lessons:\n      - title: t\n        text: x\n        file: y\n",
		"neither":       "course: c\nphases:\n  - name: p\n    lessons:\n      - title: t\n",
	}
	for name, data := range tests {
		fsys := fstest.MapFS{"m.yaml": {Data: []byte(data)}}
		if _, err := LoadFS(fsys, "m.yaml"); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
	if _, err := LoadFS(fstest.MapFS{}, "m.yaml"); err == nil {
		t.Fatal("expected error for missing manifest")
	}
}

type recordingPutter struct {
	mu       sync.Mutex
	sources  []string
	ids      map[string]string
	inFlight atomic.Int32
	peak     atomic.Int32
	failOn   string
}

func (a *recordingPutter) PutDocument(ctx context.Context, docID, text, source string) (vectordb.Document, error) {
	current := a.inFlight.Add(1)
	defer a.inFlight.Add(-1)
	for {
		peak := a.peak.Load()
		if current <= peak || a.peak.CompareAndSwap(peak, current) {
			break
		}
	}
	time.Sleep(time.Millisecond)
	if source == a.failOn {
		return vectordb.Document{}, errors.New("store offline")
	}
	a.mu.Lock()
	a.sources = append(a.sources, source)
	if a.ids == nil {
		a.ids = make(map[string]string)
	}
	a.ids[source] = docID
	a.mu.Unlock()
	return vectordb.Document{ID: docID, Text: text, Source: source}, nil
}

func testManifest(lessons int) Manifest {
	phase := Phase{Name: "p"}
	for i := 0; i < lessons; i++ {
		phase.Lessons = append(phase.Lessons, Lesson{Title: string(rune('a' + i)), Text: "text"})
	}
	return Manifest{Course: "c", Phases: []Phase{phase}}
}

func TestIngestAddsEveryLessonWithBoundedConcurrency(t *testing.T) {
	t.Parallel()

	putter := &recordingPutter{}
	indexed, err := Ingest(context.Background(), putter, testManifest(8), 2)
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if indexed != 8 {
		t.Fatalf("indexed = %d, want 8", indexed)
	}
	if peak := putter.peak.Load(); peak > 2 {
		t.Fatalf("peak concurrency = %d, want <= 2", peak)
	}
	sort.Strings(putter.sources)
	if putter.sources[0] != "p/a" || putter.sources[7] != "p/h" {
		t.Fatalf("sources = %v", putter.sources)
	}
	manifest := testManifest(8)
	if got, want := putter.ids["p/c"], LessonID(manifest.Phases[0], manifest.Phases[0].Lessons[2]); got != want {
		t.Fatalf("id for p/c = %q, want %q", got, want)
	}
}

func TestLessonIDIsStablePerSource(t *testing.T) {
	t.Parallel()

	phase := Phase{Name: "p"}
	a := LessonID(phase, Lesson{Title: "a", Text: "one"})
	if again := LessonID(phase, Lesson{Title: "a", Text: "changed"}); again != a {
		t.Fatalf("LessonID changed with text: %q != %q", again, a)
	}
	if other := LessonID(phase, Lesson{Title: "b"}); other == a {
		t.Fatalf("distinct lessons share id %q", a)
	}
	if other := LessonID(Phase{Name: "q"}, Lesson{Title: "a"}); other == a {
		t.Fatalf("same title in another phase shares id %q", a)
	}
}

type fakeLookup struct {
	stored map[string]bool
	err    error
}

func (f fakeLookup) HasDocument(_ context.Context, docID string) (bool, error) {
	return f.stored[docID], f.err
}

func TestPendingKeepsOnlyMissingLessons(t *testing.T) {
	t.Parallel()

	manifest := Manifest{Course: "c", Phases: []Phase{
		{Name: "p1", Lessons: []Lesson{{Title: "a", Text: "x"}, {Title: "b", Text: "y"}}},
		{Name: "p2", Lessons: []Lesson{{Title: "c", Text: "z"}}},
	}}
	stored := map[string]bool{
		LessonID(manifest.Phases[0], manifest.Phases[0].Lessons[0]): true,
		LessonID(manifest.Phases[1], manifest.Phases[1].Lessons[0]): true,
	}
	pending, err := Pending(context.Background(), fakeLookup{stored: stored}, manifest)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if pending.Course != "c" || len(pending.Phases) != 1 {
		t.Fatalf("pending = %+v", pending)
	}
	if got := pending.Phases[0]; got.Name != "p1" || len(got.Lessons) != 1 || got.Lessons[0].Title != "b" {
		t.Fatalf("pending phase = %+v", got)
	}
	if pending.LessonCount() != 1 {
		t.Fatalf("LessonCount = %d, want 1", pending.LessonCount())
	}
}

func TestPendingErrors(t *testing.T) {
	t.Parallel()

	if _, err := Pending(context.Background(), nil, testManifest(1)); err == nil {
		t.Fatal("expected error for nil lookup")
	}
	if _, err := Pending(context.Background(), fakeLookup{err: errors.New("db locked")}, testManifest(1)); err == nil {
		t.Fatal("expected lookup error")
	}
}

func TestIngestReturnsFirstError(t *testing.T) {
	t.Parallel()

	putter := &recordingPutter{failOn: "p/a"}
	indexed, err := Ingest(context.Background(), putter, testManifest(3), 1)
	if err == nil || !strings.Contains(err.Error(), "ingest p/a") {
		t.Fatalf("err = %v, want ingest p/a failure", err)
	}
	if indexed != 0 {
		t.Fatalf("indexed = %d, want 0", indexed)
	}
}

func TestIngestRequiresPutter(t *testing.T) {
	t.Parallel()

	if _, err := Ingest(context.Background(), nil, testManifest(1), 1); err == nil {
		t.Fatal("expected error for nil putter")
	}
}
