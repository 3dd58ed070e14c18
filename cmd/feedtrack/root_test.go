package main

import (
	"errors"
	"fmt"
	"testing"

	"github.com/nao1215/feedtrack/internal/compliance"
	"github.com/nao1215/feedtrack/internal/model"
)

// TestNewRootCmd tests the root command creation.
func TestNewRootCmd(t *testing.T) {
	t.Parallel()

	cmd := NewRootCmd()

	t.Run("has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "feedtrack" {
			t.Errorf("expected use 'feedtrack', got %q", cmd.Use)
		}
	})

	t.Run("has descriptions and version", func(t *testing.T) {
		t.Parallel()
		if cmd.Short == "" || cmd.Long == "" {
			t.Error("expected non-empty descriptions")
		}
		if cmd.Version == "" {
			t.Error("expected non-empty version")
		}
	})

	t.Run("has persistent flags", func(t *testing.T) {
		t.Parallel()
		for name, shorthand := range map[string]string{
			"verbose":     "v",
			"json-logs":   "",
			"config":      "c",
			"db-dir":      "",
			"user":        "u",
			"system":      "",
			"pushgateway": "",
		} {
			flag := cmd.PersistentFlags().Lookup(name)
			if flag == nil {
				t.Errorf("expected %s flag", name)
				continue
			}
			if flag.Shorthand != shorthand {
				t.Errorf("%s: expected shorthand %q, got %q", name, shorthand, flag.Shorthand)
			}
		}
	})

	t.Run("has subcommands", func(t *testing.T) {
		t.Parallel()
		want := []string{"init", "outline", "task", "upload", "unstage", "submit",
			"download", "criteria", "evaluate", "locate", "report", "version"}

		names := make(map[string]bool)
		for _, sub := range cmd.Commands() {
			names[sub.Name()] = true
		}
		for _, name := range want {
			if !names[name] {
				t.Errorf("expected %s subcommand", name)
			}
		}
	})
}

func TestExitCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", fmt.Errorf("task 1: %w", model.ErrNotFound), 3},
		{"precondition", model.ErrPreconditionFailed, 4},
		{"locked", model.ErrLockedTask, 4},
		{"validation", model.ErrValidationFailed, 5},
		{"invalid id", errInvalidID, 5},
		{"contract", model.ErrContractViolation, 6},
		{"classifier down", fmt.Errorf("evaluate: %w", compliance.ErrClassifierUnavailable), 6},
		{"other", errors.New("boom"), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := exitCode(tt.err); got != tt.want {
				t.Errorf("exitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestParseID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"7", 7, false},
		{"0", 0, true},
		{"-3", 0, true},
		{"seven", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			got, err := parseID(tt.in)
			if tt.wantErr {
				if !errors.Is(err, errInvalidID) {
					t.Errorf("expected errInvalidID, got %v", err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("parseID(%q) = %d, %v; want %d", tt.in, got, err, tt.want)
			}
		})
	}
}
