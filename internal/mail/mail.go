// Package mail defines the data model shared between the inbound form
// decoder and the outbound notifiers.
package mail

import (
	"encoding/json"
	"fmt"
)

// Form is the decoded inbound multipart request: named text fields plus
// binary file attachments. It lives for the duration of one request.
type Form struct {
	// Fields maps field name to its UTF-8 text value. Duplicate names
	// are resolved last-write-wins during decoding.
	Fields map[string]string

	// Attachments holds the binary parts in arrival order. Duplicate
	// filenames are preserved as separate entries.
	Attachments []Attachment
}

// Field returns the named text field and whether it was present.
func (f *Form) Field(name string) (string, bool) {
	v, ok := f.Fields[name]
	return v, ok
}

// Attachment is one binary file carried by the inbound form.
type Attachment struct {
	Filename string
	Content  []byte
}

// Envelope is the authoritative recipient/sender list embedded as a
// JSON text field in the inbound payload. It is independent of the
// display "to"/"from" fields.
type Envelope struct {
	To   []string
	From string
}

// envelopeWire uses pointer fields so that a missing key is
// distinguishable from an empty value.
type envelopeWire struct {
	To   *[]string `json:"to"`
	From *string   `json:"from"`
}

// ParseEnvelope decodes the envelope JSON. Both the "to" and "from"
// keys must be present; "to" may be an empty list.
func ParseEnvelope(raw string) (Envelope, error) {
	var wire envelopeWire
	if err := json.Unmarshal([]byte(raw), &wire); err != nil {
		return Envelope{}, fmt.Errorf("failed to parse envelope: %w", err)
	}
	if wire.To == nil || wire.From == nil {
		return Envelope{}, fmt.Errorf("failed to parse envelope: missing to or from")
	}
	return Envelope{To: *wire.To, From: *wire.From}, nil
}

// Notification is the outbound message delivered to a chat webhook
// endpoint: author identity, a titled card of labeled fields, and the
// full attachment set. One is built per inbound request and delivered
// to every resolved recipient.
type Notification struct {
	Username  string
	AvatarURL string
	Title     string
	Fields    []NotificationField
	Files     []Attachment
}

// NotificationField is one labeled value on the notification card.
type NotificationField struct {
	Label  string
	Value  string
	Inline bool
}
