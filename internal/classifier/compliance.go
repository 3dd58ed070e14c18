package classifier

import (
	"context"
	"strings"

	"github.com/nao1215/feedtrack/internal/compliance"
	"github.com/nao1215/feedtrack/internal/model"
)

const complianceSystemPrompt = `You review revisions of student work against supervisor feedback.
You receive the previously submitted document, the revised document and a list of feedback criteria.
For every criterion decide whether the revision addresses it.
Answer with exactly one result per criterion, using its FeedbackCriteriaID.
Status is "met" or "unmet". ChangeObserved briefly describes the relevant change, or is empty.`

var complianceItemSchema = map[string]any{
	"type":                 "object",
	"additionalProperties": false,
	"required":             []string{"FeedbackCriteriaID", "Status", "ChangeObserved"},
	"properties": map[string]any{
		"FeedbackCriteriaID": map[string]any{"type": "integer"},
		"Status":             map[string]any{"type": "string", "enum": []string{"met", "unmet"}},
		"ChangeObserved":     map[string]any{"type": "string"},
	},
}

type complianceItem struct {
	FeedbackCriteriaID int64  `mapstructure:"FeedbackCriteriaID"`
	Status             string `mapstructure:"Status"`
	ChangeObserved     string `mapstructure:"ChangeObserved"`
}

type complianceContext struct {
	TaskTitle       string               `json:"TaskTitle"`
	TaskDescription string               `json:"TaskDescription"`
	Criteria        []model.CriterionRef `json:"FeedbackCriteria"`
}

// Classify asks the model which criteria the current revision meets.
func (c *Client) Classify(ctx context.Context, req compliance.Request) ([]model.ComplianceResult, error) {
	user := []part{
		textPart(mustJSON(complianceContext{
			TaskTitle:       req.TaskTitle,
			TaskDescription: req.TaskDescription,
			Criteria:        req.Criteria,
		})),
		pdfPart("previous.pdf", req.Previous),
		pdfPart("current.pdf", req.Current),
	}

	content, err := c.complete(ctx, complianceSystemPrompt, user, resultsSchema("compliance_results", complianceItemSchema))
	if err != nil {
		return nil, err
	}

	items, err := parseItems(content)
	if err != nil {
		c.logger.WarnContext(ctx, "discarding malformed compliance output", "error", err)
		return []model.ComplianceResult{}, nil
	}

	var decoded []complianceItem
	if err := decodeItems(items, &decoded); err != nil {
		c.logger.WarnContext(ctx, "discarding undecodable compliance output", "error", err)
		return []model.ComplianceResult{}, nil
	}

	results := make([]model.ComplianceResult, 0, len(decoded))
	for _, d := range decoded {
		results = append(results, model.ComplianceResult{
			CriterionID:    d.FeedbackCriteriaID,
			Status:         model.CriterionStatus(strings.ToLower(strings.TrimSpace(d.Status))),
			ChangeObserved: strings.TrimSpace(d.ChangeObserved),
		})
	}
	return results, nil
}

var _ compliance.Classifier = (*Client)(nil)
