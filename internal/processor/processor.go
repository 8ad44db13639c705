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

// Package processor runs the per-email pipeline: parse the notification,
// fetch the raw blob, parse the MIME content, compose the prompt, and
// invoke the agent. The first failure at any stage short-circuits the rest
// and becomes a failed ProcessingResult; no error escapes Process.
package processor

import (
	"context"
	"log/slog"

	"github.com/aws/aws-lambda-go/events"

	"github.com/bcem/triage/internal/mailparse"
	"github.com/bcem/triage/internal/models"
	"github.com/bcem/triage/internal/notification"
)

// skippedEmptyBody is returned as the agent response when an email has no
// body at all: there is nothing to triage, and that is not an error.
const skippedEmptyBody = "[Skipped] Email body is empty"

// Fetcher retrieves a raw email blob by storage reference.
type Fetcher interface {
	Fetch(ctx context.Context, bucket, key string) ([]byte, error)
}

// Composer renders the agent prompt for one email.
type Composer interface {
	Compose(ctx context.Context, meta models.EmailMetadata, content models.EmailContent) string
}

// Invoker sends a prompt to the agent and waits for its response.
type Invoker interface {
	Invoke(ctx context.Context, prompt, sessionID string) (*models.AgentResult, error)
}

// Uploader optionally stores attachment bytes and sets public URLs.
type Uploader interface {
	Enabled() bool
	Upload(ctx context.Context, messageID string, attachments []models.Attachment)
}

// Processor composes the pipeline stages for one email.
type Processor struct {
	fetcher  Fetcher
	composer Composer
	invoker  Invoker
	uploader Uploader
}

// New creates a processor. uploader may be nil when the attachment upload
// path is disabled.
func New(fetcher Fetcher, composer Composer, invoker Invoker, uploader Uploader) *Processor {
	return &Processor{
		fetcher:  fetcher,
		composer: composer,
		invoker:  invoker,
		uploader: uploader,
	}
}

// Process handles a single queue record end to end. Every outcome, success
// or failure, is returned as data; the caller acknowledges the record
// either way.
func (p *Processor) Process(ctx context.Context, record events.SQSMessage) models.ProcessingResult {
	messageID := record.MessageId
	if messageID == "" {
		messageID = "UNKNOWN"
	}

	meta, err := notification.Parse(record)
	if err != nil {
		return models.Failed(messageID, err)
	}
	slog.Info("notification parsed",
		"message_id", meta.MessageID,
		"from", meta.FromAddress,
		"subject", meta.Subject,
	)

	raw, err := p.fetcher.Fetch(ctx, meta.Location.Bucket, meta.Location.Key)
	if err != nil {
		return models.Failed(messageID, err)
	}

	content, err := mailparse.Parse(raw)
	if err != nil {
		return models.Failed(messageID, err)
	}
	slog.Info("email parsed",
		"message_id", meta.MessageID,
		"text_chars", len(content.TextBody),
		"html_chars", len(content.HTMLBody),
		"attachments", len(content.Attachments),
	)

	if !content.HasContent() {
		slog.Warn("email body is empty, skipping agent invocation",
			"message_id", meta.MessageID,
		)
		return models.Succeeded(messageID, &models.AgentResult{Response: skippedEmptyBody})
	}

	if p.uploader != nil && p.uploader.Enabled() {
		p.uploader.Upload(ctx, meta.MessageID, content.Attachments)
	}

	prompt := p.composer.Compose(ctx, meta, content)

	result, err := p.invoker.Invoke(ctx, prompt, "")
	if err != nil {
		return models.Failed(messageID, err)
	}

	return models.Succeeded(messageID, result)
}
