package infra

import (
	"testing"
	"time"
)

func TestLoadConfigRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	if _, err := LoadConfig(); err == nil {
		t.Fatalf("expected error when DATABASE_URL is missing")
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/credits")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if cfg.Port != "8080" {
		t.Fatalf("port = %q, want 8080", cfg.Port)
	}
	if cfg.DailyCreditQuota != 8 {
		t.Fatalf("daily quota = %d, want 8", cfg.DailyCreditQuota)
	}
	if cfg.VoiceSessionCost != 5 {
		t.Fatalf("voice session cost = %d, want 5", cfg.VoiceSessionCost)
	}
	if cfg.ChatCreditCost != 1 {
		t.Fatalf("chat credit cost = %d, want 1", cfg.ChatCreditCost)
	}
	if cfg.ResetInterval != time.Hour {
		t.Fatalf("reset interval = %s, want 1h", cfg.ResetInterval)
	}
	if cfg.GroqModel != "llama-3.1-8b-instant" {
		t.Fatalf("groq model = %q", cfg.GroqModel)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/credits")
	t.Setenv("VOICE_SESSION_COST", "10")
	t.Setenv("DAILY_CREDIT_QUOTA", "30")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.VoiceSessionCost != 10 {
		t.Fatalf("voice session cost = %d, want 10", cfg.VoiceSessionCost)
	}
	if cfg.DailyCreditQuota != 30 {
		t.Fatalf("daily quota = %d, want 30", cfg.DailyCreditQuota)
	}
}

func TestLoadConfigRejectsNegativeCosts(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/credits")
	t.Setenv("VOICE_SESSION_COST", "-1")

	if _, err := LoadConfig(); err == nil {
		t.Fatalf("expected error for negative voice session cost")
	}
}
