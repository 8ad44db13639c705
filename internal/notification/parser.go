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

// Package notification parses queue records announcing a stored email into
// EmailMetadata. Two delivery formats exist: SES publishing straight to SQS,
// and SES publishing to SNS which then fans out to SQS. The format is
// detected explicitly and normalised before any business logic runs.
package notification

import (
	"encoding/json"
	"fmt"

	"github.com/aws/aws-lambda-go/events"

	"github.com/bcem/triage/internal/models"
)

// format identifies the shape of a queue record body.
type format int

const (
	formatSES format = iota // SES notification directly in the SQS body
	formatSNS               // SES notification wrapped in an SNS envelope
)

// ParseError reports a notification that could not be understood. It is
// non-retryable: a record that fails to parse once will fail identically
// on every delivery.
type ParseError struct {
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse notification: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("parse notification: %s", e.Reason)
}

func (e *ParseError) Unwrap() error { return e.Err }

// snsEnvelope holds the fields needed to detect and unwrap SNS delivery.
type snsEnvelope struct {
	Type    string `json:"Type"`
	Message string `json:"Message"`
}

// sesNotification mirrors the relevant fields of an SES receipt notification.
type sesNotification struct {
	Mail *struct {
		Timestamp     string `json:"timestamp"`
		ReturnPath    string `json:"returnPath"`
		CommonHeaders struct {
			From    stringList `json:"from"`
			To      stringList `json:"to"`
			Subject string     `json:"subject"`
		} `json:"commonHeaders"`
	} `json:"mail"`
	Receipt *struct {
		Action struct {
			BucketName string `json:"bucketName"`
			ObjectKey  string `json:"objectKey"`
		} `json:"action"`
	} `json:"receipt"`
}

// stringList decodes a JSON field that some SES payloads emit as a single
// string and others as a list of strings.
type stringList []string

func (s *stringList) UnmarshalJSON(data []byte) error {
	var many []string
	if err := json.Unmarshal(data, &many); err == nil {
		*s = many
		return nil
	}
	var one string
	if err := json.Unmarshal(data, &one); err != nil {
		return err
	}
	if one != "" {
		*s = []string{one}
	}
	return nil
}

// detectFormat classifies a record body without fully decoding it.
func detectFormat(body []byte) format {
	var env snsEnvelope
	if err := json.Unmarshal(body, &env); err == nil &&
		env.Type == "Notification" && env.Message != "" {
		return formatSNS
	}
	return formatSES
}

// Parse extracts EmailMetadata from a queue record. The returned metadata
// is immutable for the rest of the pipeline run.
func Parse(record events.SQSMessage) (models.EmailMetadata, error) {
	body := []byte(record.Body)

	if detectFormat(body) == formatSNS {
		var env snsEnvelope
		if err := json.Unmarshal(body, &env); err != nil {
			return models.EmailMetadata{}, &ParseError{Reason: "decode SNS envelope", Err: err}
		}
		body = []byte(env.Message)
	}

	var n sesNotification
	if err := json.Unmarshal(body, &n); err != nil {
		return models.EmailMetadata{}, &ParseError{Reason: "decode SES notification", Err: err}
	}
	if n.Mail == nil || n.Receipt == nil {
		return models.EmailMetadata{}, &ParseError{Reason: "notification missing mail or receipt"}
	}

	bucket := n.Receipt.Action.BucketName
	key := n.Receipt.Action.ObjectKey
	if bucket == "" || key == "" {
		return models.EmailMetadata{}, &ParseError{Reason: "notification missing storage location"}
	}

	from := n.Mail.ReturnPath
	if len(n.Mail.CommonHeaders.From) > 0 {
		from = n.Mail.CommonHeaders.From[0]
	}
	if from == "" {
		from = "Unknown"
	}

	subject := n.Mail.CommonHeaders.Subject
	if subject == "" {
		subject = "No Subject"
	}

	return models.EmailMetadata{
		MessageID:   record.MessageId,
		FromAddress: from,
		ToAddresses: n.Mail.CommonHeaders.To,
		Subject:     subject,
		ReceivedAt:  n.Mail.Timestamp,
		Location: models.StorageLocation{
			Bucket: bucket,
			Key:    key,
		},
	}, nil
}
