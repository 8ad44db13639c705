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

// Package handler is the queue-facing shell of the pipeline. It processes
// every record in a delivered batch and always acknowledges all of them:
// reporting a record as failed would make SQS redeliver it, and a malformed
// email redelivers identically forever while re-invoking the agent each
// time. Failures are logged for operator review instead.
package handler

import (
	"context"
	"log/slog"

	"github.com/aws/aws-lambda-go/events"

	"github.com/bcem/triage/internal/models"
)

// Processor handles one queue record.
type Processor interface {
	Process(ctx context.Context, record events.SQSMessage) models.ProcessingResult
}

// Handler iterates SQS batches over a Processor.
type Handler struct {
	processor Processor
}

// New creates a batch handler.
func New(p Processor) *Handler {
	return &Handler{processor: p}
}

// Handle processes the records of one batch in delivery order and returns
// an acknowledgment with zero failed items, regardless of per-item
// outcomes. It never returns an error: an error from a Lambda SQS handler
// redelivers the whole batch.
func (h *Handler) Handle(ctx context.Context, event events.SQSEvent) (events.SQSEventResponse, error) {
	slog.Info("batch received", "records", len(event.Records))

	succeeded := 0
	for _, record := range event.Records {
		result := h.processor.Process(ctx, record)

		if result.Success {
			succeeded++
			attrs := []any{"message_id", result.MessageID}
			if result.Agent != nil {
				attrs = append(attrs,
					"elapsed_ms", result.Agent.Elapsed.Milliseconds(),
					"agent_response", result.Agent.Response,
				)
			}
			slog.Info("email processed", attrs...)
		} else {
			slog.Warn("email processing failed",
				"message_id", result.MessageID,
				"error", result.ErrorMessage,
			)
		}
	}

	slog.Info("batch complete",
		"records", len(event.Records),
		"succeeded", succeeded,
		"failed", len(event.Records)-succeeded,
	)

	return events.SQSEventResponse{BatchItemFailures: []events.SQSBatchItemFailure{}}, nil
}
