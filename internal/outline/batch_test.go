package outline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

// TestBuildAll tests concurrent outline building.
func TestBuildAll(t *testing.T) {
	t.Parallel()

	t.Run("keeps document order", func(t *testing.T) {
		t.Parallel()

		docs := make([]Document, 20)
		for i := range docs {
			docs[i] = Document{
				Name:         fmt.Sprintf("doc-%02d", i),
				Observations: []Observation{{FontSize: 12, Title: fmt.Sprintf("S%d", i), StartPage: 1}},
				EndPage:      i + 1,
			}
		}

		results, err := BuildAll(context.Background(), docs, 4, false)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for i, r := range results {
			if r.Name != docs[i].Name {
				t.Errorf("result %d: expected %s, got %s", i, docs[i].Name, r.Name)
			}
			if r.Root == nil || r.Root.Section.EndPage != i+1 {
				t.Errorf("result %d: unexpected root %v", i, r.Root)
			}
		}
	})

	t.Run("strict failures do not stop other documents", func(t *testing.T) {
		t.Parallel()

		docs := []Document{
			{Name: "good", Observations: paperObservations(), EndPage: 20},
			{Name: "bad", Observations: paperObservations(), EndPage: 3},
		}

		results, err := BuildAll(context.Background(), docs, 0, true)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if results[0].Err != nil || results[0].Root == nil {
			t.Errorf("expected good document to build, got %v", results[0].Err)
		}
		if !errors.Is(results[1].Err, ErrEndBeforeStart) {
			t.Errorf("expected ErrEndBeforeStart, got %v", results[1].Err)
		}
		if !strings.Contains(results[1].Err.Error(), "bad") {
			t.Errorf("expected error to name the document, got %v", results[1].Err)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := BuildAll(ctx, []Document{{Name: "a", EndPage: 1}}, 1, false)
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})
}

// TestDecode tests reading heading streams.
func TestDecode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		endPage  int
		headings int
	}{
		{
			name: "yaml document",
			input: `end_page: 20
headings:
  - {font_size: 20, title: Intro, start_page: 1}
  - {font_size: 14, title: Background, start_page: 2}
`,
			endPage:  20,
			headings: 2,
		},
		{
			name:     "json list",
			input:    `[{"font_size": 20, "title": "Intro", "start_page": 1}, {"font_size": 20, "title": "End", "start_page": 7}]`,
			endPage:  7,
			headings: 2,
		},
		{
			name:     "empty input",
			input:    "",
			endPage:  0,
			headings: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			file, err := Decode(strings.NewReader(tt.input))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if file.EndPage != tt.endPage {
				t.Errorf("expected end page %d, got %d", tt.endPage, file.EndPage)
			}
			if len(file.Headings) != tt.headings {
				t.Errorf("expected %d headings, got %d", tt.headings, len(file.Headings))
			}
		})
	}

	t.Run("malformed input", func(t *testing.T) {
		t.Parallel()

		if _, err := Decode(strings.NewReader("headings: [")); err == nil {
			t.Error("expected error")
		}
	})
}
