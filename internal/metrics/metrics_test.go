package metrics

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/nao1215/feedtrack/internal/model"
)

func TestOutcome(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		want string
	}{
		{nil, "ok"},
		{fmt.Errorf("task 1: %w", model.ErrNotFound), "not_found"},
		{model.ErrPreconditionFailed, "precondition_failed"},
		{model.ErrValidationFailed, "validation_failed"},
		{model.ErrContractViolation, "contract_violation"},
		{model.ErrLockedTask, "locked"},
		{context.DeadlineExceeded, "timeout"},
		{context.Canceled, "canceled"},
		{errors.New("disk full"), "error"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			t.Parallel()
			if got := Outcome(tt.err); got != tt.want {
				t.Errorf("Outcome() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestMetrics(t *testing.T) {
	t.Parallel()

	m := New()
	m.ObserveSubmit(nil)
	m.ObserveSubmit(model.ErrLockedTask)
	m.ObserveSubmit(nil)
	m.ObserveUpload(model.ErrValidationFailed)
	m.ObserveCriteria("create", 3)
	m.ObserveCriteria("delete", 0)
	m.ObserveEvaluation(model.ErrContractViolation)
	m.ObserveClassifier("classify", time.Now(), nil)

	if got := testutil.ToFloat64(m.submissions.WithLabelValues("ok")); got != 2 {
		t.Errorf("expected 2 successful submissions, got %v", got)
	}
	if got := testutil.ToFloat64(m.submissions.WithLabelValues("locked")); got != 1 {
		t.Errorf("expected 1 locked submission, got %v", got)
	}
	if got := testutil.ToFloat64(m.uploads.WithLabelValues("validation_failed")); got != 1 {
		t.Errorf("expected 1 rejected upload, got %v", got)
	}
	if got := testutil.ToFloat64(m.criteriaChanges.WithLabelValues("create")); got != 3 {
		t.Errorf("expected 3 created criteria, got %v", got)
	}
	if got := testutil.CollectAndCount(m.criteriaChanges); got != 1 {
		t.Errorf("expected zero-count ops to be skipped, got %d series", got)
	}
	if got := testutil.ToFloat64(m.evaluations.WithLabelValues("contract_violation")); got != 1 {
		t.Errorf("expected 1 failed evaluation, got %v", got)
	}
	if got := testutil.CollectAndCount(m.classifierDuration); got != 1 {
		t.Errorf("expected 1 histogram series, got %d", got)
	}
}

func TestNilMetrics(t *testing.T) {
	t.Parallel()

	var m *Metrics
	m.ObserveSubmit(nil)
	m.ObserveUpload(nil)
	m.ObserveCriteria("create", 1)
	m.ObserveEvaluation(nil)
	m.ObserveClassifier("classify", time.Now(), nil)
}

func TestHandler(t *testing.T) {
	t.Parallel()

	m := New()
	m.ObserveSubmit(nil)

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read body: %v", err)
	}
	if !strings.Contains(string(body), `feedtrack_submissions_total{result="ok"} 1`) {
		t.Errorf("unexpected exposition:\n%s", body)
	}
}
