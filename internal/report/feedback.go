package report

import (
	"time"

	"github.com/nao1215/feedtrack/internal/locator"
	"github.com/nao1215/feedtrack/internal/model"
)

// Feedback is everything a feedback report shows about one task.
type Feedback struct {
	// Task is the task the criteria belong to.
	Task *model.Task `json:"task"`

	// Criteria are listed in the order given, normally by ID.
	Criteria []model.FeedbackCriterion `json:"criteria"`

	// Ranges optionally point each criterion at pages of the staged document.
	Ranges []locator.PageRange `json:"page_ranges,omitempty"`

	// GeneratedAt is when the report was produced.
	GeneratedAt time.Time `json:"generated_at"`
}

// NewFeedback creates a Feedback stamped with the given time.
func NewFeedback(task *model.Task, criteria []model.FeedbackCriterion, now time.Time) *Feedback {
	return &Feedback{Task: task, Criteria: criteria, GeneratedAt: now}
}

// Summary counts criteria per status.
type Summary struct {
	Unmet      int `json:"unmet"`
	Met        int `json:"met"`
	Overridden int `json:"overridden"`
}

// Total returns the number of criteria.
func (s Summary) Total() int {
	return s.Unmet + s.Met + s.Overridden
}

// Resolved returns the number of criteria that no longer need work.
func (s Summary) Resolved() int {
	return s.Met + s.Overridden
}

// Summary counts the criteria of f.
func (f *Feedback) Summary() Summary {
	var s Summary
	for _, c := range f.Criteria {
		switch c.Status {
		case model.CriterionMet:
			s.Met++
		case model.CriterionOverridden:
			s.Overridden++
		default:
			s.Unmet++
		}
	}
	return s
}

// RangeFor returns the located page range of a criterion, if any.
func (f *Feedback) RangeFor(criterionID int64) (locator.PageRange, bool) {
	for _, r := range f.Ranges {
		if r.CriterionID == criterionID {
			return r, true
		}
	}
	return locator.PageRange{}, false
}
