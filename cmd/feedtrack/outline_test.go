package main

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nao1215/feedtrack/internal/outline"
)

func TestOutlineCmd(t *testing.T) {
	h := newHarness(t, "")
	thesis := h.file("thesis.yaml", headings)
	unsorted := h.file("unsorted.json", `[
		{"title": "Later", "font_size": 20, "start_page": 5},
		{"title": "Earlier", "font_size": 20, "start_page": 2}
	]`)

	t.Run("text tree", func(t *testing.T) {
		out := h.mustRun("outline", thesis)
		for _, want := range []string{"Introduction", "Background", "Methodology"} {
			if !strings.Contains(out, want) {
				t.Errorf("expected %q in output:\n%s", want, out)
			}
		}
		if strings.Index(out, "Background") < strings.Index(out, "Introduction") {
			t.Errorf("expected Background below Introduction:\n%s", out)
		}
	})

	t.Run("json tree", func(t *testing.T) {
		out := h.mustRun("outline", "--format", "json", thesis)
		var root struct {
			Children []struct {
				Children []json.RawMessage `json:"children"`
			} `json:"children"`
		}
		if err := json.Unmarshal([]byte(out), &root); err != nil {
			t.Fatalf("output is not JSON: %v\n%s", err, out)
		}
		if len(root.Children) != 2 || len(root.Children[0].Children) != 1 {
			t.Errorf("unexpected tree shape:\n%s", out)
		}
	})

	t.Run("markdown to file", func(t *testing.T) {
		dest := filepath.Join(h.dir, "report", "outline.md")
		h.mustRun("outline", "--format", "markdown", "-o", dest, thesis)
		content, err := os.ReadFile(dest)
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(string(content), "Methodology") {
			t.Errorf("unexpected markdown:\n%s", content)
		}
	})

	t.Run("best effort accepts unsorted headings", func(t *testing.T) {
		if _, err := h.run("outline", unsorted); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("strict rejects unsorted headings", func(t *testing.T) {
		out, err := h.run("outline", "--strict", unsorted, thesis)
		if !errors.Is(err, outline.ErrPageOutOfOrder) {
			t.Errorf("expected ErrPageOutOfOrder, got %v", err)
		}
		if !strings.Contains(out, "Methodology") {
			t.Error("valid documents are still written")
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, err := h.run("outline", filepath.Join(h.dir, "missing.yaml")); err == nil {
			t.Error("expected error")
		}
	})
}
