// Copyright (c) 2026 John Earle
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package mailparse decodes raw MIME messages into EmailContent. Parsing is
// a pure function of the input bytes: the same blob always yields the same
// content.
package mailparse

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/emersion/go-message"
	"github.com/emersion/go-message/mail"

	"github.com/bcem/triage/internal/models"

	// Register decoders for non-UTF-8 charsets (windows-1252, iso-8859-*, ...).
	_ "github.com/emersion/go-message/charset"
)

// ParseError reports a malformed MIME message. Non-retryable.
type ParseError struct {
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse email: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("parse email: %s", e.Reason)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Parse decodes a raw RFC 5322 message. The first text/plain part becomes
// TextBody and the first text/html part becomes HTMLBody; an email with no
// parseable body at all is valid and yields both bodies empty. Attachments
// (including inline parts that carry a filename, which many clients use for
// embedded images) are enumerated with their bytes retained for the
// optional upload step.
func Parse(raw []byte) (models.EmailContent, error) {
	mr, err := mail.CreateReader(bytes.NewReader(raw))
	if err != nil && !message.IsUnknownCharset(err) {
		return models.EmailContent{}, &ParseError{Reason: "read message", Err: err}
	}

	var content models.EmailContent
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil && !message.IsUnknownCharset(err) {
			return models.EmailContent{}, &ParseError{Reason: "read part", Err: err}
		}

		switch h := part.Header.(type) {
		case *mail.InlineHeader:
			if filename := inlineFilename(h); filename != "" {
				att, err := readAttachment(part.Body, filename, h)
				if err != nil {
					return models.EmailContent{}, err
				}
				content.Attachments = append(content.Attachments, att)
				continue
			}

			ctype, _, _ := h.ContentType()
			switch {
			case ctype == "text/plain" && content.TextBody == "":
				body, err := io.ReadAll(part.Body)
				if err != nil {
					return models.EmailContent{}, &ParseError{Reason: "read text body", Err: err}
				}
				content.TextBody = string(body)
			case ctype == "text/html" && content.HTMLBody == "":
				body, err := io.ReadAll(part.Body)
				if err != nil {
					return models.EmailContent{}, &ParseError{Reason: "read html body", Err: err}
				}
				content.HTMLBody = string(body)
			}

		case *mail.AttachmentHeader:
			filename, _ := h.Filename()
			att, err := readAttachment(part.Body, filename, h)
			if err != nil {
				return models.EmailContent{}, err
			}
			content.Attachments = append(content.Attachments, att)
		}
	}

	return content, nil
}

// headerWithType is implemented by both inline and attachment part headers.
type headerWithType interface {
	ContentType() (string, map[string]string, error)
}

func readAttachment(body io.Reader, filename string, h headerWithType) (models.Attachment, error) {
	ctype, _, _ := h.ContentType()
	if ctype == "" {
		ctype = "application/octet-stream"
	}

	data, err := io.ReadAll(body)
	if err != nil {
		return models.Attachment{}, &ParseError{Reason: "read attachment " + filename, Err: err}
	}

	return models.Attachment{
		Filename:    filename,
		ContentType: ctype,
		Size:        len(data),
		Content:     data,
	}, nil
}

// inlineFilename returns the filename of an inline part, if any. Embedded
// images are commonly delivered inline with a filename and no attachment
// disposition; only image and application types are treated as files.
func inlineFilename(h *mail.InlineHeader) string {
	ctype, params, _ := h.ContentType()
	if !strings.HasPrefix(ctype, "image/") && !strings.HasPrefix(ctype, "application/") {
		return ""
	}
	if _, dparams, err := h.ContentDisposition(); err == nil {
		if name := dparams["filename"]; name != "" {
			return name
		}
	}
	return params["name"]
}
