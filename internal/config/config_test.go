package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Host: got %q, want %q", cfg.Server.Host, "0.0.0.0")
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Port: got %d, want 8080", cfg.Server.Port)
	}
	if cfg.Server.RequiredSpamScore != 5.0 {
		t.Errorf("RequiredSpamScore: got %v, want 5.0", cfg.Server.RequiredSpamScore)
	}
	if cfg.Webhook.Driver != "discord" {
		t.Errorf("Driver: got %q, want %q", cfg.Webhook.Driver, "discord")
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Level: got %q, want %q", cfg.Logging.Level, "info")
	}
	if cfg.Addr() != "0.0.0.0:8080" {
		t.Errorf("Addr: got %q, want %q", cfg.Addr(), "0.0.0.0:8080")
	}
}

func TestLoadGeneratesPassphrase(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !cfg.PassphraseGenerated() {
		t.Error("expected generated passphrase when none configured")
	}
	if len(cfg.Server.Passphrase) != passphraseLength {
		t.Errorf("passphrase length: got %d, want %d", len(cfg.Server.Passphrase), passphraseLength)
	}
	for _, r := range cfg.Server.Passphrase {
		if !strings.ContainsRune(passphraseAlphabet, r) {
			t.Errorf("passphrase contains unexpected character %q", r)
		}
	}

	other, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if other.Server.Passphrase == cfg.Server.Passphrase {
		t.Error("two generated passphrases should differ")
	}
}

func TestLoadPassphraseFromEnv(t *testing.T) {
	t.Setenv("S2D_PASSPHRASE", "hunter2-but-longer")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Passphrase != "hunter2-but-longer" {
		t.Errorf("Passphrase: got %q, want %q", cfg.Server.Passphrase, "hunter2-but-longer")
	}
	if cfg.PassphraseGenerated() {
		t.Error("passphrase from env must not be reported as generated")
	}
}

func TestLoadFromFile(t *testing.T) {
	content := `
server:
  host: 127.0.0.1
  port: 9090
  passphrase: file-secret
  required_spam_score: 7.5
webhook:
  driver: stdout
  url:
    a@example.com: https://discord.com/api/webhooks/1/tokenA
    b@example.com: https://discord.com/api/webhooks/2/tokenB
  username: Relay
  title: Incoming mail
logging:
  level: debug
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("Host: got %q, want %q", cfg.Server.Host, "127.0.0.1")
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Port: got %d, want 9090", cfg.Server.Port)
	}
	if cfg.Server.Passphrase != "file-secret" {
		t.Errorf("Passphrase: got %q, want %q", cfg.Server.Passphrase, "file-secret")
	}
	if cfg.Server.RequiredSpamScore != 7.5 {
		t.Errorf("RequiredSpamScore: got %v, want 7.5", cfg.Server.RequiredSpamScore)
	}
	if cfg.Webhook.Driver != "stdout" {
		t.Errorf("Driver: got %q, want %q", cfg.Webhook.Driver, "stdout")
	}
	if cfg.Webhook.Username != "Relay" {
		t.Errorf("Username: got %q, want %q", cfg.Webhook.Username, "Relay")
	}

	// Unset label fields keep their defaults.
	if cfg.Webhook.Subject != "Subject" {
		t.Errorf("Subject label: got %q, want default %q", cfg.Webhook.Subject, "Subject")
	}

	endpoint, ok := cfg.Endpoint("a@example.com")
	if !ok {
		t.Fatal("Endpoint(a@example.com): not found")
	}
	if endpoint != "https://discord.com/api/webhooks/1/tokenA" {
		t.Errorf("Endpoint: got %q, want %q", endpoint, "https://discord.com/api/webhooks/1/tokenA")
	}
	if _, ok := cfg.Endpoint("unknown@example.com"); ok {
		t.Error("Endpoint(unknown): expected not found")
	}
}

func TestLoadFromFileEnvOverride(t *testing.T) {
	t.Setenv("S2D_PORT", "7070")
	t.Setenv("S2D_LOG_LEVEL", "WARN")

	content := "server:\n  port: 9090\n  passphrase: file-secret\n"
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 7070 {
		t.Errorf("Port: got %d, want env override 7070", cfg.Server.Port)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("Level: got %q, want %q", cfg.Logging.Level, "warn")
	}
}

func TestLoadFromFileErrors(t *testing.T) {
	if _, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file, got nil")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("server: [not a mapping"), 0o600); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	if _, err := LoadFromFile(path); err == nil {
		t.Error("expected error for malformed YAML, got nil")
	}
}
