// Package corpus loads the course manifest and indexes its lessons.
package corpus

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"golang.org/x/sync/semaphore"
	"gopkg.in/yaml.v3"

	"github.com/louisbranch/llmrag/internal/platform/id"
	"github.com/louisbranch/llmrag/internal/services/rag/vectordb"
)

// Manifest describes the course material to index.
type Manifest struct {
	Course string  `yaml:"course"`
	Phases []Phase `yaml:"phases"`
}

// Phase groups lessons under a course phase directory name.
type Phase struct {
	Name    string   `yaml:"name"`
	Lessons []Lesson `yaml:"lessons"`
}

// Lesson is one indexable unit. Exactly one of Text or File is set in the
// manifest; Load replaces File with its contents.
type Lesson struct {
	Title string `yaml:"title"`
	Text  string `yaml:"text"`
	File  string `yaml:"file"`
}

// Source identifies a lesson within the course, e.g. "phase1/Tokenizers".
func Source(phase Phase, lesson Lesson) string {
	return phase.Name + "/" + lesson.Title
}

// LessonID returns the stable document id for a lesson, so re-indexing a
// lesson replaces its earlier copy.
func LessonID(phase Phase, lesson Lesson) string {
	return id.FromName("llmrag:lesson:" + Source(phase, lesson))
}

// Load reads a manifest from disk. Lesson files resolve relative to the
// manifest's directory.
func Load(manifestPath string) (Manifest, error) {
	dir, name := filepath.Split(manifestPath)
	if dir == "" {
		dir = "."
	}
	return LoadFS(os.DirFS(dir), name)
}

// LoadFS reads a manifest named name from fsys.
func LoadFS(fsys fs.FS, name string) (Manifest, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return Manifest{}, fmt.Errorf("read manifest: %w", err)
	}
	var manifest Manifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return Manifest{}, fmt.Errorf("parse manifest %s: %w", name, err)
	}
	if err := manifest.Validate(); err != nil {
		return Manifest{}, err
	}

	base := path.Dir(name)
	for pi := range manifest.Phases {
		lessons := manifest.Phases[pi].Lessons
		for li := range lessons {
			if lessons[li].File == "" {
				continue
			}
			lessonPath := path.Join(base, filepath.ToSlash(lessons[li].File))
			content, err := fs.ReadFile(fsys, lessonPath)
			if err != nil {
				return Manifest{}, fmt.Errorf("read lesson %q: %w", lessons[li].Title, err)
			}
			lessons[li].Text = string(content)
		}
	}
	return manifest, nil
}

// Validate checks the manifest shape.
func (m Manifest) Validate() error {
	if strings.TrimSpace(m.Course) == "" {
		return errors.New("manifest course is required")
	}
	if len(m.Phases) == 0 {
		return errors.New("manifest has no phases")
	}
	for pi, phase := range m.Phases {
		if strings.TrimSpace(phase.Name) == "" {
			return fmt.Errorf("phase %d: name is required", pi)
		}
		for li, lesson := range phase.Lessons {
			if strings.TrimSpace(lesson.Title) == "" {
				return fmt.Errorf("phase %s lesson %d: title is required", phase.Name, li)
			}
			hasText := strings.TrimSpace(lesson.Text) != ""
			hasFile := strings.TrimSpace(lesson.File) != ""
			if hasText == hasFile {
				return fmt.Errorf("phase %s lesson %s: exactly one of text or file is required", phase.Name, lesson.Title)
			}
		}
	}
	return nil
}

// LessonCount returns the number of lessons across every phase.
func (m Manifest) LessonCount() int {
	total := 0
	for _, phase := range m.Phases {
		total += len(phase.Lessons)
	}
	return total
}

// DocumentPutter indexes one document under a caller-chosen id.
type DocumentPutter interface {
	PutDocument(ctx context.Context, docID, text, source string) (vectordb.Document, error)
}

// DocumentLookup reports whether a document id is already indexed.
type DocumentLookup interface {
	HasDocument(ctx context.Context, docID string) (bool, error)
}

// Pending returns a copy of manifest holding only the lessons not yet
// indexed. Phases left without lessons are dropped.
func Pending(ctx context.Context, lookup DocumentLookup, manifest Manifest) (Manifest, error) {
	if lookup == nil {
		return Manifest{}, errors.New("document lookup is required")
	}
	pending := Manifest{Course: manifest.Course}
	for _, phase := range manifest.Phases {
		missing := Phase{Name: phase.Name}
		for _, lesson := range phase.Lessons {
			has, err := lookup.HasDocument(ctx, LessonID(phase, lesson))
			if err != nil {
				return Manifest{}, fmt.Errorf("check lesson %s: %w", Source(phase, lesson), err)
			}
			if !has {
				missing.Lessons = append(missing.Lessons, lesson)
			}
		}
		if len(missing.Lessons) > 0 {
			pending.Phases = append(pending.Phases, missing)
		}
	}
	return pending, nil
}

// Ingest stores every lesson of manifest under its LessonID with at most
// concurrency calls in flight. It returns how many lessons were indexed and
// the first error encountered; remaining lessons are skipped after a failure.
// Re-running Ingest replaces lessons instead of duplicating them.
func Ingest(ctx context.Context, putter DocumentPutter, manifest Manifest, concurrency int) (int, error) {
	if putter == nil {
		return 0, errors.New("document putter is required")
	}
	if concurrency <= 0 {
		concurrency = runtime.NumCPU()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		indexed  int
		firstErr error
	)
	sem := semaphore.NewWeighted(int64(concurrency))

	for _, phase := range manifest.Phases {
		for _, lesson := range phase.Lessons {
			if err := sem.Acquire(ctx, 1); err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = fmt.Errorf("ingest canceled: %w", err)
				}
				mu.Unlock()
				wg.Wait()
				return indexed, firstErr
			}
			if ctx.Err() != nil {
				sem.Release(1)
				wg.Wait()
				mu.Lock()
				defer mu.Unlock()
				if firstErr == nil {
					firstErr = fmt.Errorf("ingest canceled: %w", ctx.Err())
				}
				return indexed, firstErr
			}
			wg.Add(1)
			go func(docID, source, text string) {
				defer wg.Done()
				defer sem.Release(1)

				_, err := putter.PutDocument(ctx, docID, text, source)
				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					if firstErr == nil {
						firstErr = fmt.Errorf("ingest %s: %w", source, err)
						cancel()
					}
					return
				}
				indexed++
			}(LessonID(phase, lesson), Source(phase, lesson), lesson.Text)
		}
	}
	wg.Wait()
	return indexed, firstErr
}
