package locator

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nao1215/feedtrack/internal/model"
	"github.com/nao1215/feedtrack/internal/outline"
)

// PageRange is the span of pages that addresses one criterion.
type PageRange struct {
	// CriterionID is the criterion the range answers.
	CriterionID int64 `json:"FeedbackCriteriaID" mapstructure:"FeedbackCriteriaID"`
	// StartPage is the first page, inclusive.
	StartPage int `json:"StartPage" mapstructure:"StartPage"`
	// EndPage is the last page, inclusive.
	EndPage int `json:"EndPage" mapstructure:"EndPage"`
	// Section is the title of the deepest outline section containing StartPage.
	// It is filled in by Locator, not by the PageLocator.
	Section string `json:"Section,omitempty" mapstructure:"-"`
}

// LocateRequest is what a PageLocator receives.
type LocateRequest struct {
	// TaskTitle gives the model context about the document.
	TaskTitle string
	// Outline is the document outline in pre-order.
	Outline []outline.FlatSection
	// Criteria are the unmet criteria to locate.
	Criteria []model.CriterionRef
	// Document is the raw document, when the collaborator needs it.
	Document []byte
}

// PageLocator proposes page ranges for criteria.
type PageLocator interface {
	LocatePages(ctx context.Context, req LocateRequest) ([]PageRange, error)
}

// PageLocatorFunc adapts a function to PageLocator.
type PageLocatorFunc func(ctx context.Context, req LocateRequest) ([]PageRange, error)

// LocatePages calls f.
func (f PageLocatorFunc) LocatePages(ctx context.Context, req LocateRequest) ([]PageRange, error) {
	return f(ctx, req)
}

// Locator validates what a PageLocator proposes.
type Locator struct {
	// Client proposes the ranges.
	Client PageLocator
	// Logger receives a warning for every dropped range. Nil discards.
	Logger *slog.Logger
}

// Input is the optional context passed to Locate.
type Input struct {
	TaskTitle string
	Document  []byte
}

// Locate returns a page range for every unmet criterion the client could
// place. Criteria that are met or overridden are never sent; when none are
// unmet the client is not called and the result is empty.
//
// Ranges naming an unknown criterion, running backwards or leaving the
// root's span are dropped. For a criterion answered twice the first valid
// range wins. The result follows the order of criteria.
func (l *Locator) Locate(ctx context.Context, root *outline.Node, criteria []model.FeedbackCriterion, in Input) ([]PageRange, error) {
	if root == nil {
		return nil, fmt.Errorf("%w: outline is required", model.ErrValidationFailed)
	}

	unmet := model.Unmet(criteria)
	if len(unmet) == 0 {
		return []PageRange{}, nil
	}

	refs := make([]model.CriterionRef, 0, len(unmet))
	for i := range unmet {
		refs = append(refs, unmet[i].Ref())
	}

	proposed, err := l.Client.LocatePages(ctx, LocateRequest{
		TaskTitle: in.TaskTitle,
		Outline:   root.Flatten(),
		Criteria:  refs,
		Document:  in.Document,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to locate pages: %w", err)
	}

	return l.filter(root, refs, proposed), nil
}

func (l *Locator) filter(root *outline.Node, refs []model.CriterionRef, proposed []PageRange) []PageRange {
	requested := make(map[int64]bool, len(refs))
	for _, r := range refs {
		requested[r.ID] = true
	}

	accepted := make(map[int64]PageRange, len(proposed))
	for _, p := range proposed {
		if reason := l.reject(root, requested, accepted, p); reason != "" {
			l.warn("dropped page range", "criterion_id", p.CriterionID,
				"start_page", p.StartPage, "end_page", p.EndPage, "reason", reason)
			continue
		}
		if n := root.Deepest(p.StartPage); n != nil {
			p.Section = n.Section.Name
		}
		accepted[p.CriterionID] = p
	}

	out := make([]PageRange, 0, len(accepted))
	for _, r := range refs {
		if p, ok := accepted[r.ID]; ok {
			out = append(out, p)
		}
	}
	return out
}

func (l *Locator) reject(root *outline.Node, requested map[int64]bool, accepted map[int64]PageRange, p PageRange) string {
	switch {
	case !requested[p.CriterionID]:
		return "unknown criterion"
	case p.StartPage > p.EndPage:
		return "start after end"
	case !root.Section.Contains(p.StartPage) || !root.Section.Contains(p.EndPage):
		return "outside document"
	}
	if _, ok := accepted[p.CriterionID]; ok {
		return "duplicate criterion"
	}
	return ""
}

func (l *Locator) warn(msg string, args ...any) {
	if l.Logger != nil {
		l.Logger.Warn(msg, args...)
	}
}
