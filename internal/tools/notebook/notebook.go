// Package notebook converts markdown lesson drafts into Jupyter notebooks.
package notebook

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// DefaultPhases are the course phase directories converted by default.
var DefaultPhases = []string{"phase1_fundamentals_of_llm", "phase2_rag_knowledge_and_practice"}

// Cell types written into notebooks.
const (
	CellMarkdown = "markdown"
	CellCode     = "code"
)

var fenceSplitter = regexp.MustCompile("\n```python\n|\n```\n")

// Cell is one nbformat v4 cell.
type Cell struct {
	CellType       string         `json:"cell_type"`
	ID             string         `json:"id"`
	Metadata       map[string]any `json:"metadata"`
	Source         string         `json:"source"`
	ExecutionCount *int           `json:"execution_count,omitempty"`
	Outputs        []any          `json:"outputs,omitempty"`
}

// Notebook is an nbformat v4.5 document.
type Notebook struct {
	Cells         []Cell         `json:"cells"`
	Metadata      map[string]any `json:"metadata"`
	NBFormat      int            `json:"nbformat"`
	NBFormatMinor int            `json:"nbformat_minor"`
}

// Convert splits markdown on python code fences. Even segments become
// markdown cells and odd segments become code cells.
func Convert(markdown string) Notebook {
	segments := fenceSplitter.Split(markdown, -1)
	nb := Notebook{
		Cells:         make([]Cell, 0, len(segments)),
		Metadata:      map[string]any{},
		NBFormat:      4,
		NBFormatMinor: 5,
	}
	for i, segment := range segments {
		cell := Cell{
			ID:       fmt.Sprintf("cell-%d", i),
			Metadata: map[string]any{},
			Source:   strings.TrimSpace(segment),
		}
		if i%2 == 0 {
			cell.CellType = CellMarkdown
		} else {
			cell.CellType = CellCode
			// Code cells always carry outputs, even when empty.
			cell.Outputs = []any{}
		}
		nb.Cells = append(nb.Cells, cell)
	}
	return nb
}

// MarshalJSON keeps code cell fields present when empty, as nbformat requires.
func (c Cell) MarshalJSON() ([]byte, error) {
	type markdownCell struct {
		CellType string         `json:"cell_type"`
		ID       string         `json:"id"`
		Metadata map[string]any `json:"metadata"`
		Source   string         `json:"source"`
	}
	type codeCell struct {
		CellType       string         `json:"cell_type"`
		ID             string         `json:"id"`
		Metadata       map[string]any `json:"metadata"`
		Source         string         `json:"source"`
		ExecutionCount *int           `json:"execution_count"`
		Outputs        []any          `json:"outputs"`
	}
	if c.CellType == CellCode {
		outputs := c.Outputs
		if outputs == nil {
			outputs = []any{}
		}
		return json.Marshal(codeCell{c.CellType, c.ID, c.Metadata, c.Source, c.ExecutionCount, outputs})
	}
	return json.Marshal(markdownCell{c.CellType, c.ID, c.Metadata, c.Source})
}

// Encode renders nb as indented nbformat JSON.
func Encode(nb Notebook) ([]byte, error) {
	data, err := json.MarshalIndent(nb, "", " ")
	if err != nil {
		return nil, fmt.Errorf("encode notebook: %w", err)
	}
	return append(data, '\n'), nil
}

// ConvertFile reads markdown from in and writes the notebook to out. in and
// out may be the same path.
func ConvertFile(in, out string) error {
	content, err := os.ReadFile(in)
	if err != nil {
		return fmt.Errorf("read %s: %w", in, err)
	}
	data, err := Encode(Convert(string(content)))
	if err != nil {
		return err
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}
	return nil
}

// Result reports the outcome for one converted file.
type Result struct {
	Path string
	Err  error
}

// ConvertDir rewrites every .ipynb file in each phase directory under root
// in place. A failing file is reported in its Result and does not stop the
// batch; the error return is reserved for unreadable phase directories.
func ConvertDir(root string, phases []string) ([]Result, error) {
	if len(phases) == 0 {
		phases = DefaultPhases
	}
	var results []Result
	for _, phase := range phases {
		dir := filepath.Join(root, phase)
		entries, err := os.ReadDir(dir)
		if err != nil {
			return results, fmt.Errorf("read phase %s: %w", phase, err)
		}
		names := make([]string, 0, len(entries))
		for _, entry := range entries {
			if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".ipynb") {
				continue
			}
			names = append(names, entry.Name())
		}
		sort.Strings(names)
		for _, name := range names {
			path := filepath.Join(dir, name)
			results = append(results, Result{Path: path, Err: ConvertFile(path, path)})
		}
	}
	return results, nil
}
