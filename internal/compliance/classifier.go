package compliance

import (
	"context"
	"errors"

	"github.com/nao1215/feedtrack/internal/model"
)

var (
	// ErrClassifierUnavailable is returned when every classifier attempt failed,
	// or when the classifier rejected the request outright.
	ErrClassifierUnavailable = errors.New("classifier unavailable")

	// ErrClassifierRejected marks a failure that retrying cannot fix, such as
	// a refused API key or a malformed request. Classifiers wrap it.
	ErrClassifierRejected = errors.New("classifier rejected the request")
)

// Request is the input of a compliance classification.
type Request struct {
	// TaskTitle and TaskDescription give the classifier context.
	TaskTitle       string
	TaskDescription string

	// Criteria are the unmet criteria to judge.
	Criteria []model.CriterionRef

	// Previous is the submitted deliverable the feedback was written against.
	Previous []byte

	// Current is the staged revision.
	Current []byte
}

// Classifier judges whether a revision satisfies feedback criteria.
// It returns one result per requested criterion with status met or unmet.
// Malformed collaborator output should be returned as an empty result, not
// an error; the Evaluator turns the mismatch into ErrContractViolation.
// Errors wrapping ErrClassifierRejected are not retried.
type Classifier interface {
	Classify(ctx context.Context, req Request) ([]model.ComplianceResult, error)
}

// ClassifierFunc adapts a function to Classifier.
type ClassifierFunc func(ctx context.Context, req Request) ([]model.ComplianceResult, error)

// Classify implements Classifier.
func (f ClassifierFunc) Classify(ctx context.Context, req Request) ([]model.ComplianceResult, error) {
	return f(ctx, req)
}
