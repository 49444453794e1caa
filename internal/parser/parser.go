// Package parser decodes a streaming multipart/form-data body into the
// inbound form model: text fields keyed by name plus binary attachments
// keyed by filename.
package parser

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"unicode/utf8"

	"github.com/jizi-network/s2d/internal/mail"
)

// Client-facing decode failures. The handler writes the error text as
// the plain-text 400 body, so these stay short and stable.
var (
	ErrMissingFilename = errors.New("missing filename")
	ErrMissingName     = errors.New("missing name")
	ErrReadChunk       = errors.New("failed to read chunk")
	ErrReadData        = errors.New("failed to read data")
)

// ReadForm consumes the multipart stream to completion and returns the
// decoded form. The stream is drained part by part; the first fault
// aborts decoding and fails the whole request.
//
// A part whose declared Content-Type is application/octet-stream is an
// attachment and must carry a filename. Every other part (no declared
// type, a non-binary type, or an unparseable type) is a text field and
// must carry a field name and valid UTF-8 content. A field name seen
// twice resolves last-write-wins; attachments keep arrival order and
// duplicate filenames.
func ReadForm(reader *multipart.Reader) (*mail.Form, error) {
	form := &mail.Form{
		Fields: make(map[string]string),
	}

	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrReadChunk, err)
		}

		if isBinary(part.Header.Get("Content-Type")) {
			filename := part.FileName()
			if filename == "" {
				return nil, ErrMissingFilename
			}
			content, err := io.ReadAll(part)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrReadChunk, err)
			}
			slog.Debug("decoded attachment part",
				"filename", filename,
				"size", len(content),
			)
			form.Attachments = append(form.Attachments, mail.Attachment{
				Filename: filename,
				Content:  content,
			})
			continue
		}

		name := part.FormName()
		if name == "" {
			return nil, ErrMissingName
		}
		content, err := io.ReadAll(part)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrReadChunk, err)
		}
		if !utf8.Valid(content) {
			return nil, fmt.Errorf("%w: field %q is not valid UTF-8", ErrReadData, name)
		}
		form.Fields[name] = string(content)
	}

	return form, nil
}

// isBinary reports whether the declared content type marks the part as
// an opaque binary stream. An unparseable type is treated the same as
// an absent one.
func isBinary(contentType string) bool {
	if contentType == "" {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "application/octet-stream"
}
