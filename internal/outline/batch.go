package outline

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Document is one input to BuildAll.
type Document struct {
	// Name identifies the document in results, typically its file name.
	Name string

	// Observations are the headings in scan order.
	Observations []Observation

	// EndPage is the last page of the document.
	EndPage int
}

// Result is the outcome of building one Document.
type Result struct {
	Name string
	Root *Node
	Err  error
}

// BuildAll builds the outlines of docs concurrently, running at most limit
// builds at a time. Results keep the order of docs. When strict is set,
// documents failing validation get a Result with Err set; other documents
// are still built. The returned error is only set when ctx is cancelled.
func BuildAll(ctx context.Context, docs []Document, limit int, strict bool) ([]Result, error) {
	if limit <= 0 {
		limit = 1
	}

	results := make([]Result, len(docs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, doc := range docs {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			// Each goroutine owns results[i]; no locking needed.
			results[i].Name = doc.Name
			if strict {
				root, err := BuildStrict(doc.Observations, doc.EndPage)
				if err != nil {
					results[i].Err = fmt.Errorf("failed to build outline of %s: %w", doc.Name, err)
					return nil
				}
				results[i].Root = root
				return nil
			}
			results[i].Root = Build(doc.Observations, doc.EndPage)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}
