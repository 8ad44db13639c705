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

package agent

import (
	"fmt"
	"time"
)

// The invoker maps every failure into one of the error types below. None of
// them is retryable at this layer.

// ConfigError reports a missing or invalid invocation target. It is raised
// before any network call and will recur on every invocation until an
// operator fixes the configuration.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("agent configuration error: %s", e.Reason)
}

// NotFoundError reports that the configured agent runtime does not exist or
// is not in a ready state.
type NotFoundError struct {
	ARN     string
	Message string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("agent runtime not found: %s: %s", e.ARN, e.Message)
}

// ThrottledError reports rate limiting by the agent service. The invoker
// does not retry; the caller decides what to do with the failure.
type ThrottledError struct {
	Message string
}

func (e *ThrottledError) Error() string {
	return fmt.Sprintf("agent invocation throttled: %s", e.Message)
}

// ValidationError reports a request that violates the agent runtime's
// contract (empty prompt, short session id, oversized payload).
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("agent request validation failed: %s", e.Message)
}

// TimeoutError reports that the read deadline elapsed with no complete
// response.
type TimeoutError struct {
	Elapsed time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("agent invocation timed out after %s", e.Elapsed.Round(time.Millisecond))
}

// InvocationError is the catch-all for transport and service failures,
// carrying the underlying code for operator triage.
type InvocationError struct {
	Code string
	Err  error
}

func (e *InvocationError) Error() string {
	return fmt.Sprintf("agent invocation failed (code %s): %v", e.Code, e.Err)
}

func (e *InvocationError) Unwrap() error { return e.Err }
