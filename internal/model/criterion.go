package model

import (
	"fmt"
	"time"
)

// CriterionStatus is the compliance state of a feedback criterion.
type CriterionStatus string

const (
	// CriterionUnmet is a requirement the submitted deliverable does not satisfy yet.
	CriterionUnmet CriterionStatus = "unmet"

	// CriterionMet is a requirement satisfied according to the compliance
	// evaluator or the supervisor.
	CriterionMet CriterionStatus = "met"

	// CriterionOverridden is a requirement closed out without being met,
	// either by a later submission or by a manual toggle. The row is kept as
	// an audit trail.
	CriterionOverridden CriterionStatus = "overridden"
)

// Valid reports whether s is a known criterion status.
func (s CriterionStatus) Valid() bool {
	switch s {
	case CriterionUnmet, CriterionMet, CriterionOverridden:
		return true
	default:
		return false
	}
}

// Toggled returns the status after a manual override toggle.
// Only unmet and overridden criteria can be toggled; met criteria are
// rejected with ErrPreconditionFailed.
func (s CriterionStatus) Toggled() (CriterionStatus, error) {
	switch s {
	case CriterionUnmet:
		return CriterionOverridden, nil
	case CriterionOverridden:
		return CriterionUnmet, nil
	default:
		return s, fmt.Errorf("%w: cannot toggle override of a %s criterion", ErrPreconditionFailed, s)
	}
}

// FeedbackCriterion is a single supervisor-authored compliance requirement.
type FeedbackCriterion struct {
	// ID is the primary key of the criterion.
	ID int64

	// TaskID is the owning task. Criteria are deleted with their task.
	TaskID int64

	// Description is the requirement text shown to the student and the classifier.
	Description string

	// Status is the compliance state.
	Status CriterionStatus

	// ChangeObserved describes what changed between deliverable versions,
	// as reported by the classifier or the supervisor. Nil when unknown.
	ChangeObserved *string

	// ProvidedBy is the supervisor who authored the criterion.
	ProvidedBy int64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Ref returns the ID and description pair sent to classifiers.
func (c *FeedbackCriterion) Ref() CriterionRef {
	return CriterionRef{ID: c.ID, Description: c.Description}
}

// CriterionRef is the minimal view of a criterion handed to external collaborators.
type CriterionRef struct {
	ID          int64  `json:"FeedbackCriteriaID"`
	Description string `json:"Description"`
}

// CriterionPatch is a field-level update of one criterion.
// Nil fields are left untouched.
type CriterionPatch struct {
	ID             int64
	Description    *string
	Status         *CriterionStatus
	ChangeObserved *string
}

// ComplianceResult is the classifier's verdict on one criterion.
type ComplianceResult struct {
	CriterionID    int64
	Status         CriterionStatus
	ChangeObserved string
}

// Patch converts the result into a criterion update.
func (r ComplianceResult) Patch() CriterionPatch {
	status := r.Status
	patch := CriterionPatch{ID: r.CriterionID, Status: &status}
	if r.ChangeObserved != "" {
		observed := r.ChangeObserved
		patch.ChangeObserved = &observed
	}
	return patch
}

// Unmet filters criteria down to those with status unmet, preserving order.
func Unmet(criteria []FeedbackCriterion) []FeedbackCriterion {
	unmet := make([]FeedbackCriterion, 0, len(criteria))
	for _, c := range criteria {
		if c.Status == CriterionUnmet {
			unmet = append(unmet, c)
		}
	}
	return unmet
}
