package server

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/jizi-network/s2d/internal/config"
	"github.com/jizi-network/s2d/internal/mail"
	"github.com/jizi-network/s2d/internal/notifier"
	"github.com/jizi-network/s2d/internal/parser"
)

// Handler serves the inbound transfer endpoint: it guards on the shared
// passphrase, decodes the multipart form, resolves the envelope and
// dispatches one notification per recipient.
type Handler struct {
	cfg      *config.Config
	notifier notifier.Notifier
}

// NewHandler creates a Handler backed by the given configuration and
// delivery backend.
func NewHandler(cfg *config.Config, n notifier.Notifier) *Handler {
	return &Handler{cfg: cfg, notifier: n}
}

// Router returns the HTTP routes served by this handler.
func (h *Handler) Router() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /transfer", h.handleTransfer)
	return mux
}

// handleTransfer relays one inbound mail notification. Recipients are
// dispatched sequentially in envelope order; the first failure aborts
// the whole request and deliveries already made are not rolled back.
func (h *Handler) handleTransfer(w http.ResponseWriter, r *http.Request) {
	// The passphrase gate runs before any body consumption.
	if r.URL.Query().Get("passphrase") != h.cfg.Server.Passphrase {
		badRequest(w, "invalid passphrase")
		return
	}

	slog.Debug("reading transfer request", "remote", r.RemoteAddr)

	reader, err := r.MultipartReader()
	if err != nil {
		badRequest(w, "invalid multipart body")
		return
	}
	form, err := parser.ReadForm(reader)
	if err != nil {
		badRequest(w, err.Error())
		return
	}

	raw, ok := form.Field("envelope")
	if !ok {
		badRequest(w, `missing field "envelope"`)
		return
	}
	envelope, err := mail.ParseEnvelope(raw)
	if err != nil {
		badRequest(w, "failed to parse envelope")
		return
	}

	note, err := h.buildNotification(form)
	if err != nil {
		badRequest(w, err.Error())
		return
	}

	for _, recipient := range envelope.To {
		endpoint, ok := h.cfg.Endpoint(recipient)
		if !ok {
			slog.Debug("recipient has no configured endpoint", "recipient", recipient)
			badRequest(w, "missing to")
			return
		}
		if err := h.notifier.Notify(r.Context(), endpoint, note); err != nil {
			slog.Warn("notification delivery failed",
				"recipient", recipient,
				"error", err,
			)
			if errors.Is(err, notifier.ErrInvalidEndpoint) {
				badRequest(w, "invalid webhook")
			} else {
				badRequest(w, "failed to execute webhook")
			}
			return
		}
		slog.Info("notification delivered",
			"recipient", recipient,
			"from", envelope.From,
			"attachments", len(note.Files),
		)
	}

	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "OK")
}

// buildNotification renders the outbound notification from the form
// fields and the configured labels. The display fields are required;
// an absent key is a malformed-input fault, not a panic.
func (h *Handler) buildNotification(form *mail.Form) (*mail.Notification, error) {
	labels := &h.cfg.Webhook

	note := &mail.Notification{
		Username:  labels.Username,
		AvatarURL: labels.AvatarURL,
		Title:     labels.Title,
		Files:     form.Attachments,
	}

	for _, display := range []struct {
		field  string
		label  string
		inline bool
	}{
		{"from", labels.From, true},
		{"to", labels.To, true},
		{"subject", labels.Subject, true},
		{"text", labels.Text, false},
	} {
		value, ok := form.Field(display.field)
		if !ok {
			return nil, fmt.Errorf("missing field %q", display.field)
		}
		note.Fields = append(note.Fields, mail.NotificationField{
			Label:  display.label,
			Value:  value,
			Inline: display.inline,
		})
	}

	if len(form.Attachments) > 0 {
		note.Fields = append(note.Fields, mail.NotificationField{
			Label:  labels.Attachments,
			Value:  strconv.Itoa(len(form.Attachments)),
			Inline: true,
		})
	}

	if verdict, ok := h.spamVerdict(form); ok {
		note.Fields = append(note.Fields, mail.NotificationField{
			Label: labels.SpamScore,
			Value: verdict,
		})
	}

	return note, nil
}

// spamVerdict renders the spam judgement when the upstream supplied a
// spam score. The score is advisory: an absent or unparseable value
// just omits the field.
func (h *Handler) spamVerdict(form *mail.Form) (string, bool) {
	raw, ok := form.Field("spam_score")
	if !ok {
		return "", false
	}
	score, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		slog.Debug("ignoring unparseable spam score", "value", raw)
		return "", false
	}
	if score >= h.cfg.Server.RequiredSpamScore {
		return h.cfg.Webhook.MightBeASpam, true
	}
	return h.cfg.Webhook.MightNotBeASpam, true
}

// badRequest writes a plain-text 400 with a short reason. Faults are
// request-scoped; nothing beyond the reason string is exposed.
func badRequest(w http.ResponseWriter, reason string) {
	slog.Debug("bad request", "reason", reason)
	http.Error(w, reason, http.StatusBadRequest)
}
