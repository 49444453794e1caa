// Package stdout implements a Notifier that prints notifications to
// standard output instead of delivering them. It is intended for dry
// runs and local testing.
package stdout

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jizi-network/s2d/internal/mail"
)

// Notifier prints notifications to a writer in a human-readable format.
type Notifier struct {
	writer io.Writer
}

// New creates a stdout Notifier that writes to os.Stdout.
func New() *Notifier {
	return &Notifier{writer: os.Stdout}
}

// NewWithWriter creates a stdout Notifier that writes to the given
// writer. This is useful for testing.
func NewWithWriter(w io.Writer) *Notifier {
	return &Notifier{writer: w}
}

// Notify prints the notification and the endpoint it would have been
// delivered to. It never fails the request.
func (n *Notifier) Notify(_ context.Context, endpoint string, note *mail.Notification) error {
	var b strings.Builder

	b.WriteString("========================================\n")
	b.WriteString(fmt.Sprintf("Endpoint: %s\n", endpoint))
	b.WriteString(fmt.Sprintf("Username: %s\n", note.Username))
	b.WriteString(fmt.Sprintf("Title: %s\n", note.Title))

	for _, f := range note.Fields {
		b.WriteString(fmt.Sprintf("%s: %s\n", f.Label, f.Value))
	}

	if len(note.Files) > 0 {
		files := make([]string, 0, len(note.Files))
		for _, file := range note.Files {
			files = append(files, fmt.Sprintf("%s (%d B)", file.Filename, len(file.Content)))
		}
		b.WriteString(fmt.Sprintf("Files: %s\n", strings.Join(files, ", ")))
	}

	b.WriteString("========================================\n")

	fmt.Fprint(n.writer, b.String())
	return nil
}

// Name returns the backend name.
func (n *Notifier) Name() string {
	return "stdout"
}
