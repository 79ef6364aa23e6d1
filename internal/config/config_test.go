package config

import (
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		t.Setenv("ASSISTANT_TIMEOUT", "")
		t.Setenv("RECURRING_BATCH_SIZE", "")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Port != "8080" {
			t.Errorf("expected default port 8080, got %s", cfg.Port)
		}
		if cfg.AssistantTimeout != 30*time.Second {
			t.Errorf("expected assistant timeout 30s, got %v", cfg.AssistantTimeout)
		}
		if cfg.GeminiModel != "gemini-2.5-flash" {
			t.Errorf("expected default gemini model, got %s", cfg.GeminiModel)
		}
		if cfg.RecurringBatchSize != 100 {
			t.Errorf("expected batch size 100, got %d", cfg.RecurringBatchSize)
		}
	})

	t.Run("overrides", func(t *testing.T) {
		t.Setenv("PORT", "9000")
		t.Setenv("ASSISTANT_TIMEOUT", "5s")
		t.Setenv("ENV", "production")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Port != "9000" {
			t.Errorf("expected port 9000, got %s", cfg.Port)
		}
		if cfg.AssistantTimeout != 5*time.Second {
			t.Errorf("expected 5s, got %v", cfg.AssistantTimeout)
		}
		if !cfg.IsProduction() {
			t.Error("expected production config")
		}
	})

	t.Run("pipeline_keys", func(t *testing.T) {
		t.Setenv("PIPELINE_API_KEY", " current-key, ,previous-key ")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(cfg.PipelineAPIKeys) != 2 || cfg.PipelineAPIKeys[0] != "current-key" || cfg.PipelineAPIKeys[1] != "previous-key" {
			t.Errorf("unexpected pipeline keys %q", cfg.PipelineAPIKeys)
		}
	})

	t.Run("invalid_timeout", func(t *testing.T) {
		t.Setenv("ASSISTANT_TIMEOUT", "soon")
		if _, err := Load(); err == nil {
			t.Fatal("expected error for invalid duration")
		}
	})

	t.Run("negative_timeout", func(t *testing.T) {
		t.Setenv("RECEIPT_TIMEOUT", "-1s")
		if _, err := Load(); err == nil {
			t.Fatal("expected error for negative duration")
		}
	})

	t.Run("invalid_batch_size", func(t *testing.T) {
		t.Setenv("RECURRING_BATCH_SIZE", "0")
		if _, err := Load(); err == nil {
			t.Fatal("expected error for zero batch size")
		}
	})
}
