package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nao1215/feedtrack/internal/config"
)

func TestNewInitCmd(t *testing.T) {
	t.Parallel()

	cmd := NewInitCmd()

	if cmd.Use != "init" {
		t.Errorf("expected use 'init', got %q", cmd.Use)
	}
	flag := cmd.Flags().Lookup("output")
	if flag == nil {
		t.Fatal("expected output flag")
	}
	if !strings.HasSuffix(flag.DefValue, config.DefaultConfigFile) {
		t.Errorf("expected default ending in %q, got %q", config.DefaultConfigFile, flag.DefValue)
	}
	if force := cmd.Flags().Lookup("force"); force == nil || force.Shorthand != "f" {
		t.Error("expected force flag with shorthand 'f'")
	}
}

func TestRunInitCmd(t *testing.T) {
	t.Parallel()

	t.Run("creates a loadable config file", func(t *testing.T) {
		t.Parallel()
		outputPath := filepath.Join(t.TempDir(), "nested", "config.yaml")

		cmd := NewInitCmd()
		cmd.SetOut(&strings.Builder{})
		cmd.SetArgs([]string{"-o", outputPath})
		if err := cmd.Execute(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		cfg, err := config.Load(outputPath, func(string) (string, bool) { return "", false })
		if err != nil {
			t.Fatalf("generated file does not load: %v", err)
		}
		if cfg.Classifier.Model != config.DefaultClassifierModel {
			t.Errorf("expected model %q, got %q", config.DefaultClassifierModel, cfg.Classifier.Model)
		}
		if cfg.Redis.Enabled() {
			t.Error("expected redis to be disabled by the template")
		}
	})

	t.Run("refuses to overwrite without force", func(t *testing.T) {
		t.Parallel()
		outputPath := filepath.Join(t.TempDir(), "config.yaml")
		if err := os.WriteFile(outputPath, []byte("verbose: true\n"), 0600); err != nil {
			t.Fatal(err)
		}

		cmd := NewInitCmd()
		cmd.SetOut(&strings.Builder{})
		cmd.SetArgs([]string{"-o", outputPath})
		if err := cmd.Execute(); err == nil {
			t.Fatal("expected error for existing file")
		}

		content, err := os.ReadFile(outputPath)
		if err != nil {
			t.Fatal(err)
		}
		if string(content) != "verbose: true\n" {
			t.Error("existing file was modified")
		}
	})

	t.Run("overwrites with force", func(t *testing.T) {
		t.Parallel()
		outputPath := filepath.Join(t.TempDir(), "config.yaml")
		if err := os.WriteFile(outputPath, []byte("old"), 0600); err != nil {
			t.Fatal(err)
		}

		cmd := NewInitCmd()
		cmd.SetOut(&strings.Builder{})
		cmd.SetArgs([]string{"-o", outputPath, "-f"})
		if err := cmd.Execute(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		content, err := os.ReadFile(outputPath)
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(string(content), "accepted_signatures") {
			t.Error("expected template content")
		}
	})
}
