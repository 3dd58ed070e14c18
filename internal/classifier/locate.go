package classifier

import (
	"context"

	"github.com/nao1215/feedtrack/internal/locator"
	"github.com/nao1215/feedtrack/internal/model"
	"github.com/nao1215/feedtrack/internal/outline"
)

const locateSystemPrompt = `You map supervisor feedback onto a document.
You receive the document outline with page ranges and a list of feedback criteria.
For every criterion return the page range of the document it refers to, using its FeedbackCriteriaID.
StartPage and EndPage are inclusive and must lie within the outline.`

var locateItemSchema = map[string]any{
	"type":                 "object",
	"additionalProperties": false,
	"required":             []string{"FeedbackCriteriaID", "StartPage", "EndPage"},
	"properties": map[string]any{
		"FeedbackCriteriaID": map[string]any{"type": "integer"},
		"StartPage":          map[string]any{"type": "integer"},
		"EndPage":            map[string]any{"type": "integer"},
	},
}

type locateContext struct {
	TaskTitle string                `json:"TaskTitle"`
	Outline   []outline.FlatSection `json:"Outline"`
	Criteria  []model.CriterionRef  `json:"FeedbackCriteria"`
}

// LocatePages asks the model where in the document each criterion applies.
func (c *Client) LocatePages(ctx context.Context, req locator.LocateRequest) ([]locator.PageRange, error) {
	user := []part{textPart(mustJSON(locateContext{
		TaskTitle: req.TaskTitle,
		Outline:   req.Outline,
		Criteria:  req.Criteria,
	}))}
	if len(req.Document) > 0 {
		user = append(user, pdfPart("document.pdf", req.Document))
	}

	content, err := c.complete(ctx, locateSystemPrompt, user, resultsSchema("page_ranges", locateItemSchema))
	if err != nil {
		return nil, err
	}

	items, err := parseItems(content)
	if err != nil {
		c.logger.WarnContext(ctx, "discarding malformed locate output", "error", err)
		return []locator.PageRange{}, nil
	}

	var ranges []locator.PageRange
	if err := decodeItems(items, &ranges); err != nil {
		c.logger.WarnContext(ctx, "discarding undecodable locate output", "error", err)
		return []locator.PageRange{}, nil
	}
	return ranges, nil
}

var _ locator.PageLocator = (*Client)(nil)
