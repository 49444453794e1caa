// Package config provides YAML configuration loading with environment
// variable overrides for the relay. The loaded Config is immutable and
// shared read-only across all concurrent requests.
package config

import (
	"crypto/rand"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// passphraseLength is the length of a generated passphrase.
const passphraseLength = 32

// passphraseAlphabet is the character set for generated passphrases.
const passphraseAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// Config holds the complete application configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Webhook WebhookConfig `yaml:"webhook"`
	Logging LoggingConfig `yaml:"logging"`

	// generated records whether the passphrase was produced at load
	// time instead of being supplied by the operator.
	generated bool
}

// ServerConfig holds the HTTP listener and request-gating settings.
type ServerConfig struct {
	Host       string `yaml:"host"`
	Port       int    `yaml:"port"`
	Passphrase string `yaml:"passphrase"`

	// RequiredSpamScore is the threshold at or above which an inbound
	// message is flagged as likely spam on the notification card.
	RequiredSpamScore float64 `yaml:"required_spam_score"`
}

// WebhookConfig holds the recipient map, the notifier driver, and the
// display labels used to render outbound notifications.
type WebhookConfig struct {
	// Driver selects the outbound notifier: "discord" or "stdout".
	Driver string `yaml:"driver"`

	// URL maps a recipient address to its webhook endpoint URL.
	URL map[string]string `yaml:"url"`

	Username  string `yaml:"username"`
	AvatarURL string `yaml:"avatar_url"`
	Title     string `yaml:"title"`

	// Labels for the notification card fields.
	From        string `yaml:"from"`
	To          string `yaml:"to"`
	Subject     string `yaml:"subject"`
	Text        string `yaml:"text"`
	Attachments string `yaml:"attachments"`

	// Spam verdict rendering.
	MightBeASpam    string `yaml:"might_be_a_spam"`
	MightNotBeASpam string `yaml:"might_not_be_a_spam"`
	SpamScore       string `yaml:"spam_score"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Load loads configuration from environment variables with sensible
// defaults. Environment variables always take precedence.
func Load() (*Config, error) {
	cfg := &Config{}
	cfg.applyDefaults()
	cfg.applyEnvVars()
	if err := cfg.ensurePassphrase(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromFile loads configuration from a YAML file as the base layer,
// then overrides with environment variables. Returns an error if the
// specified file path does not exist.
func LoadFromFile(path string) (*Config, error) {
	cfg := &Config{}
	cfg.applyDefaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Environment variables always override YAML values
	cfg.applyEnvVars()

	if err := cfg.ensurePassphrase(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Addr returns the listen address in host:port form.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

// Endpoint returns the webhook endpoint for a recipient address and
// whether one is configured.
func (c *Config) Endpoint(recipient string) (string, bool) {
	url, ok := c.Webhook.URL[recipient]
	return url, ok
}

// PassphraseGenerated reports whether the passphrase was generated at
// load time rather than supplied by the operator.
func (c *Config) PassphraseGenerated() bool {
	return c.generated
}

// applyDefaults sets sensible default values for all configuration fields.
func (c *Config) applyDefaults() {
	c.Server.Host = "0.0.0.0"
	c.Server.Port = 8080
	c.Server.RequiredSpamScore = 5.0

	c.Webhook.Driver = "discord"
	c.Webhook.Username = "Mail Transfer"
	c.Webhook.Title = "Mail received"
	c.Webhook.From = "From"
	c.Webhook.To = "To"
	c.Webhook.Subject = "Subject"
	c.Webhook.Text = "Body"
	c.Webhook.Attachments = "Attachments"
	c.Webhook.MightBeASpam = "This message is likely spam."
	c.Webhook.MightNotBeASpam = "This message is unlikely to be spam."
	c.Webhook.SpamScore = "Spam score"

	c.Logging.Level = "info"
}

// applyEnvVars overrides configuration with environment variable values.
// Only non-empty environment variables override existing values.
func (c *Config) applyEnvVars() {
	if v := os.Getenv("S2D_HOST"); v != "" {
		c.Server.Host = v
	}
	if v := os.Getenv("S2D_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
	if v := os.Getenv("S2D_PASSPHRASE"); v != "" {
		c.Server.Passphrase = v
	}
	if v := os.Getenv("S2D_REQUIRED_SPAM_SCORE"); v != "" {
		if score, err := strconv.ParseFloat(v, 64); err == nil {
			c.Server.RequiredSpamScore = score
		}
	}

	if v := os.Getenv("S2D_WEBHOOK_DRIVER"); v != "" {
		c.Webhook.Driver = strings.ToLower(v)
	}
	if v := os.Getenv("S2D_WEBHOOK_USERNAME"); v != "" {
		c.Webhook.Username = v
	}
	if v := os.Getenv("S2D_WEBHOOK_AVATAR_URL"); v != "" {
		c.Webhook.AvatarURL = v
	}
	if v := os.Getenv("S2D_WEBHOOK_TITLE"); v != "" {
		c.Webhook.Title = v
	}

	if v := os.Getenv("S2D_LOG_LEVEL"); v != "" {
		c.Logging.Level = strings.ToLower(v)
	}
}

// ensurePassphrase generates a random passphrase when none was supplied
// so the endpoint is never reachable without a shared secret.
func (c *Config) ensurePassphrase() error {
	if c.Server.Passphrase != "" {
		return nil
	}
	passphrase, err := randomPassphrase(passphraseLength)
	if err != nil {
		return fmt.Errorf("failed to generate passphrase: %w", err)
	}
	c.Server.Passphrase = passphrase
	c.generated = true
	return nil
}

// randomPassphrase returns an alphanumeric string of length n drawn
// from crypto/rand.
func randomPassphrase(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	out := make([]byte, n)
	for i, b := range buf {
		out[i] = passphraseAlphabet[int(b)%len(passphraseAlphabet)]
	}
	return string(out), nil
}
