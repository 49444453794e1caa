// Package discord implements a Notifier that executes Discord-shaped
// webhooks.
package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/jizi-network/s2d/internal/mail"
	"github.com/jizi-network/s2d/internal/notifier"
)

// requestTimeout bounds one outbound webhook execution.
const requestTimeout = 30 * time.Second

// message is the webhook execution payload.
type message struct {
	Username  string  `json:"username,omitempty"`
	AvatarURL string  `json:"avatar_url,omitempty"`
	Embeds    []embed `json:"embeds"`
}

// embed is one card on the message.
type embed struct {
	Title  string       `json:"title,omitempty"`
	Fields []embedField `json:"fields,omitempty"`
}

// embedField is one labeled value on an embed.
type embedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

// Notifier delivers notifications by executing Discord webhooks.
type Notifier struct {
	client *resty.Client
}

// New creates a Discord webhook notifier.
func New() *Notifier {
	return &Notifier{
		client: resty.New().SetTimeout(requestTimeout),
	}
}

// NewWithClient creates a Notifier with a custom resty client, used for
// testing.
func NewWithClient(client *resty.Client) *Notifier {
	return &Notifier{client: client}
}

// Notify executes the webhook at the endpoint URL. The request body is
// multipart/form-data: a payload_json part with the message, plus one
// files[i] part per attachment carrying its original filename. All
// attachments are sent to every endpoint.
func (n *Notifier) Notify(ctx context.Context, endpoint string, note *mail.Notification) error {
	if err := validateEndpoint(endpoint); err != nil {
		return err
	}

	payload, err := json.Marshal(buildMessage(note))
	if err != nil {
		return fmt.Errorf("failed to encode webhook payload: %w", err)
	}

	req := n.client.R().
		SetContext(ctx).
		SetMultipartField("payload_json", "", "application/json", strings.NewReader(string(payload)))

	for i, file := range note.Files {
		req.SetMultipartField(
			fmt.Sprintf("files[%d]", i),
			file.Filename,
			"application/octet-stream",
			bytes.NewReader(file.Content),
		)
	}

	resp, err := req.Post(endpoint)
	if err != nil {
		return fmt.Errorf("failed to execute webhook: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("failed to execute webhook: endpoint returned %s", resp.Status())
	}

	slog.Debug("webhook executed",
		"status", resp.StatusCode(),
		"files", len(note.Files),
	)
	return nil
}

// Name returns the backend name.
func (n *Notifier) Name() string {
	return "discord"
}

// buildMessage converts a notification into the webhook wire shape.
func buildMessage(note *mail.Notification) message {
	fields := make([]embedField, 0, len(note.Fields))
	for _, f := range note.Fields {
		fields = append(fields, embedField{
			Name:   f.Label,
			Value:  f.Value,
			Inline: f.Inline,
		})
	}
	return message{
		Username:  note.Username,
		AvatarURL: note.AvatarURL,
		Embeds: []embed{{
			Title:  note.Title,
			Fields: fields,
		}},
	}
}

// validateEndpoint checks that the endpoint is an absolute http(s) URL
// before any request is attempted.
func validateEndpoint(endpoint string) error {
	u, err := url.Parse(endpoint)
	if err != nil {
		return fmt.Errorf("%w: %v", notifier.ErrInvalidEndpoint, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %q", notifier.ErrInvalidEndpoint, endpoint)
	}
	return nil
}
