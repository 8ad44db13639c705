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

import "time"

// AgentResult is the outcome of one agent invocation.
type AgentResult struct {
	Response  string // raw response text; may embed a created-issue URL
	SessionID string
	Elapsed   time.Duration
}

// ProcessingResult is the unit returned per email. Errors never propagate
// past the processor; they are converted into a failed result instead.
type ProcessingResult struct {
	Success      bool
	MessageID    string
	ErrorMessage string       // set iff Success is false
	Agent        *AgentResult // set iff Success is true
}

// ShouldAcknowledge reports whether the triggering queue message should be
// acknowledged. Always true: a failed email is logged for operator review,
// never redelivered. Redelivering would loop poison messages forever and
// re-invoke a non-idempotent agent.
func (r ProcessingResult) ShouldAcknowledge() bool {
	return true
}

// Failed builds a failed result for the given message.
func Failed(messageID string, err error) ProcessingResult {
	return ProcessingResult{
		Success:      false,
		MessageID:    messageID,
		ErrorMessage: err.Error(),
	}
}

// Succeeded builds a successful result carrying the agent outcome.
func Succeeded(messageID string, agent *AgentResult) ProcessingResult {
	return ProcessingResult{
		Success:   true,
		MessageID: messageID,
		Agent:     agent,
	}
}
