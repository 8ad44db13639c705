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

package notification

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/aws/aws-lambda-go/events"
)

const sesBody = `{
	"mail": {
		"timestamp": "2026-08-12T09:30:00.000Z",
		"returnPath": "bounce@example.com",
		"commonHeaders": {
			"from": ["Alice <alice@example.com>"],
			"to": ["triage@example.com"],
			"subject": "Printer on fire"
		}
	},
	"receipt": {
		"action": {
			"type": "S3",
			"bucketName": "inbound-mail",
			"objectKey": "emails/abc123"
		}
	}
}`

func wrapSNS(t *testing.T, inner string) string {
	t.Helper()
	env := map[string]string{
		"Type":    "Notification",
		"Message": inner,
	}
	data, err := json.Marshal(env)
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	return string(data)
}

// TestParse_DirectSES verifies extraction from an SES-to-SQS record.
func TestParse_DirectSES(t *testing.T) {
	meta, err := Parse(events.SQSMessage{MessageId: "msg-1", Body: sesBody})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if meta.MessageID != "msg-1" {
		t.Errorf("MessageID = %q, want %q", meta.MessageID, "msg-1")
	}
	if meta.FromAddress != "Alice <alice@example.com>" {
		t.Errorf("FromAddress = %q", meta.FromAddress)
	}
	if len(meta.ToAddresses) != 1 || meta.ToAddresses[0] != "triage@example.com" {
		t.Errorf("ToAddresses = %v", meta.ToAddresses)
	}
	if meta.Subject != "Printer on fire" {
		t.Errorf("Subject = %q", meta.Subject)
	}
	if meta.ReceivedAt != "2026-08-12T09:30:00.000Z" {
		t.Errorf("ReceivedAt = %q", meta.ReceivedAt)
	}
	if meta.Location.Bucket != "inbound-mail" || meta.Location.Key != "emails/abc123" {
		t.Errorf("Location = %+v", meta.Location)
	}
}

// TestParse_SNSWrapped verifies that SNS envelopes are detected and unwrapped
// to the same metadata as direct delivery.
func TestParse_SNSWrapped(t *testing.T) {
	direct, err := Parse(events.SQSMessage{MessageId: "msg-1", Body: sesBody})
	if err != nil {
		t.Fatalf("direct parse: %v", err)
	}

	wrapped, err := Parse(events.SQSMessage{MessageId: "msg-1", Body: wrapSNS(t, sesBody)})
	if err != nil {
		t.Fatalf("wrapped parse: %v", err)
	}

	if wrapped.FromAddress != direct.FromAddress ||
		wrapped.Subject != direct.Subject ||
		wrapped.Location != direct.Location {
		t.Errorf("wrapped = %+v, want %+v", wrapped, direct)
	}
}

// TestParse_StringOrList verifies tolerance for SES emitting address headers
// as a single string instead of a list.
func TestParse_StringOrList(t *testing.T) {
	body := `{
		"mail": {
			"commonHeaders": {"from": "solo@example.com", "to": "triage@example.com", "subject": "hi"}
		},
		"receipt": {"action": {"bucketName": "b", "objectKey": "k"}}
	}`

	meta, err := Parse(events.SQSMessage{MessageId: "m", Body: body})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if meta.FromAddress != "solo@example.com" {
		t.Errorf("FromAddress = %q", meta.FromAddress)
	}
	if len(meta.ToAddresses) != 1 || meta.ToAddresses[0] != "triage@example.com" {
		t.Errorf("ToAddresses = %v", meta.ToAddresses)
	}
}

// TestParse_Fallbacks verifies the sender and subject defaults.
func TestParse_Fallbacks(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantFrom string
		wantSubj string
	}{
		{
			name: "return path when from header absent",
			body: `{
				"mail": {"returnPath": "bounce@example.com", "commonHeaders": {}},
				"receipt": {"action": {"bucketName": "b", "objectKey": "k"}}
			}`,
			wantFrom: "bounce@example.com",
			wantSubj: "No Subject",
		},
		{
			name: "unknown sender and no subject",
			body: `{
				"mail": {"commonHeaders": {}},
				"receipt": {"action": {"bucketName": "b", "objectKey": "k"}}
			}`,
			wantFrom: "Unknown",
			wantSubj: "No Subject",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			meta, err := Parse(events.SQSMessage{MessageId: "m", Body: tt.body})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if meta.FromAddress != tt.wantFrom {
				t.Errorf("FromAddress = %q, want %q", meta.FromAddress, tt.wantFrom)
			}
			if meta.Subject != tt.wantSubj {
				t.Errorf("Subject = %q, want %q", meta.Subject, tt.wantSubj)
			}
		})
	}
}

// TestParse_Invalid verifies that malformed records fail with a ParseError
// rather than a panic or a zero-value success.
func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not JSON", "this is not json"},
		{"empty body", ""},
		{"missing mail", `{"receipt": {"action": {"bucketName": "b", "objectKey": "k"}}}`},
		{"missing receipt", `{"mail": {"commonHeaders": {}}}`},
		{"missing bucket", `{"mail": {"commonHeaders": {}}, "receipt": {"action": {"objectKey": "k"}}}`},
		{"missing key", `{"mail": {"commonHeaders": {}}, "receipt": {"action": {"bucketName": "b"}}}`},
		{"sns wrapping garbage", `{"Type": "Notification", "Message": "not json either"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(events.SQSMessage{MessageId: "m", Body: tt.body})
			if err == nil {
				t.Fatal("expected error, got none")
			}
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Errorf("error type = %T, want *ParseError", err)
			}
		})
	}
}

// TestParse_Deterministic verifies that reparsing the same record gives the
// same outcome, valid or not.
func TestParse_Deterministic(t *testing.T) {
	record := events.SQSMessage{MessageId: "m", Body: sesBody}

	first, err1 := Parse(record)
	second, err2 := Parse(record)
	if err1 != nil || err2 != nil {
		t.Fatalf("unexpected errors: %v, %v", err1, err2)
	}
	if first.FromAddress != second.FromAddress || first.Location != second.Location {
		t.Errorf("results differ: %+v vs %+v", first, second)
	}

	bad := events.SQSMessage{MessageId: "m", Body: "garbage"}
	_, err1 = Parse(bad)
	_, err2 = Parse(bad)
	if err1 == nil || err2 == nil {
		t.Fatal("expected both parses to fail")
	}
	if err1.Error() != err2.Error() {
		t.Errorf("errors differ: %q vs %q", err1, err2)
	}
}
