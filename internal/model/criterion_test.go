package model

import (
	"errors"
	"testing"
)

func TestCriterionStatusValid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status CriterionStatus
		want   bool
	}{
		{CriterionUnmet, true},
		{CriterionMet, true},
		{CriterionOverridden, true},
		{CriterionStatus(""), false},
		{CriterionStatus("MET"), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			t.Parallel()
			if got := tt.status.Valid(); got != tt.want {
				t.Errorf("Valid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCriterionStatusToggled(t *testing.T) {
	t.Parallel()

	t.Run("unmet becomes overridden", func(t *testing.T) {
		t.Parallel()
		got, err := CriterionUnmet.Toggled()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != CriterionOverridden {
			t.Errorf("expected overridden, got %s", got)
		}
	})

	t.Run("overridden becomes unmet", func(t *testing.T) {
		t.Parallel()
		got, err := CriterionOverridden.Toggled()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != CriterionUnmet {
			t.Errorf("expected unmet, got %s", got)
		}
	})

	t.Run("toggling twice is the identity", func(t *testing.T) {
		t.Parallel()
		for _, start := range []CriterionStatus{CriterionUnmet, CriterionOverridden} {
			once, err := start.Toggled()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			twice, err := once.Toggled()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if twice != start {
				t.Errorf("toggle(toggle(%s)) = %s", start, twice)
			}
		}
	})

	t.Run("met is rejected", func(t *testing.T) {
		t.Parallel()
		got, err := CriterionMet.Toggled()
		if !errors.Is(err, ErrPreconditionFailed) {
			t.Errorf("expected ErrPreconditionFailed, got %v", err)
		}
		if got != CriterionMet {
			t.Errorf("status should be unchanged, got %s", got)
		}
	})
}

func TestUnmet(t *testing.T) {
	t.Parallel()

	criteria := []FeedbackCriterion{
		{ID: 1, Status: CriterionUnmet},
		{ID: 2, Status: CriterionMet},
		{ID: 3, Status: CriterionOverridden},
		{ID: 4, Status: CriterionUnmet},
	}

	got := Unmet(criteria)
	if len(got) != 2 || got[0].ID != 1 || got[1].ID != 4 {
		t.Errorf("unexpected unmet criteria: %+v", got)
	}
}

func TestComplianceResultPatch(t *testing.T) {
	t.Parallel()

	t.Run("carries status and observation", func(t *testing.T) {
		t.Parallel()
		patch := ComplianceResult{CriterionID: 7, Status: CriterionMet, ChangeObserved: "added figure 3"}.Patch()
		if patch.ID != 7 || patch.Status == nil || *patch.Status != CriterionMet {
			t.Fatalf("unexpected patch: %+v", patch)
		}
		if patch.ChangeObserved == nil || *patch.ChangeObserved != "added figure 3" {
			t.Errorf("unexpected change observed: %v", patch.ChangeObserved)
		}
		if patch.Description != nil {
			t.Error("description must not be patched")
		}
	})

	t.Run("empty observation is left untouched", func(t *testing.T) {
		t.Parallel()
		patch := ComplianceResult{CriterionID: 7, Status: CriterionUnmet}.Patch()
		if patch.ChangeObserved != nil {
			t.Errorf("expected nil change observed, got %q", *patch.ChangeObserved)
		}
	})
}

func TestActorScopes(t *testing.T) {
	t.Parallel()

	task := &Task{ID: 1, OwnerID: 10, SupervisorID: 20}

	tests := []struct {
		name         string
		actor        Actor
		owns         bool
		supervises   bool
		participates bool
	}{
		{"owner", User(10), true, false, true},
		{"supervisor", User(20), false, true, true},
		{"stranger", User(30), false, false, false},
		{"system", SystemActor(), true, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.actor.Owns(task); got != tt.owns {
				t.Errorf("Owns() = %v, want %v", got, tt.owns)
			}
			if got := tt.actor.Supervises(task); got != tt.supervises {
				t.Errorf("Supervises() = %v, want %v", got, tt.supervises)
			}
			if got := tt.actor.Participates(task); got != tt.participates {
				t.Errorf("Participates() = %v, want %v", got, tt.participates)
			}
		})
	}
}

func TestChecksum(t *testing.T) {
	t.Parallel()

	a := Checksum([]byte("%PDF-1.7 a"))
	b := Checksum([]byte("%PDF-1.7 b"))
	if len(a) != 64 {
		t.Errorf("expected 64 hex characters, got %d", len(a))
	}
	if a == b {
		t.Error("different content must produce different checksums")
	}
	if a != Checksum([]byte("%PDF-1.7 a")) {
		t.Error("checksum must be deterministic")
	}
}
