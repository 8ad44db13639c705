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

package models

import (
	"errors"
	"testing"
)

// TestBodyForAgent verifies the body selection priority: text, then HTML.
func TestBodyForAgent(t *testing.T) {
	tests := []struct {
		name    string
		content EmailContent
		want    string
	}{
		{"text only", EmailContent{TextBody: "plain"}, "plain"},
		{"html only", EmailContent{HTMLBody: "<p>hi</p>"}, "<p>hi</p>"},
		{"text wins over html", EmailContent{TextBody: "plain", HTMLBody: "<p>hi</p>"}, "plain"},
		{"neither", EmailContent{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.content.BodyForAgent(); got != tt.want {
				t.Errorf("BodyForAgent() = %q, want %q", got, tt.want)
			}
		})
	}
}

// TestShouldAcknowledge verifies that every result, failed or not, asks for
// its queue message to be acknowledged.
func TestShouldAcknowledge(t *testing.T) {
	failed := Failed("msg-1", errors.New("boom"))
	if !failed.ShouldAcknowledge() {
		t.Error("failed result must still be acknowledged")
	}

	ok := Succeeded("msg-2", &AgentResult{Response: "done"})
	if !ok.ShouldAcknowledge() {
		t.Error("successful result must be acknowledged")
	}
}

// TestResultConstructors verifies the success/error field pairing.
func TestResultConstructors(t *testing.T) {
	failed := Failed("msg-1", errors.New("boom"))
	if failed.Success {
		t.Error("Failed() produced Success = true")
	}
	if failed.ErrorMessage != "boom" {
		t.Errorf("ErrorMessage = %q, want %q", failed.ErrorMessage, "boom")
	}
	if failed.Agent != nil {
		t.Error("failed result must not carry an agent result")
	}

	ok := Succeeded("msg-2", &AgentResult{Response: "issue created"})
	if !ok.Success {
		t.Error("Succeeded() produced Success = false")
	}
	if ok.ErrorMessage != "" {
		t.Errorf("ErrorMessage = %q, want empty", ok.ErrorMessage)
	}
	if ok.Agent == nil || ok.Agent.Response != "issue created" {
		t.Errorf("Agent = %+v", ok.Agent)
	}
}
