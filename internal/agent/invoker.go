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

// Package agent invokes the Bedrock AgentCore runtime that turns an email
// prompt into a tracking issue. Every call is made exactly once: the agent
// creates external side effects (issues), so a retry risks duplicates far
// more than it risks losing a legitimate request.
package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentcore"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentcore/types"
	"github.com/aws/smithy-go"
	"github.com/google/uuid"

	"github.com/bcem/triage/internal/models"
)

const (
	// minSessionIDLength is imposed by the agent runtime for conversation
	// continuity.
	minSessionIDLength = 33

	// DefaultReadTimeout bounds how long a synchronous invocation waits for
	// the complete response. The agent may reason for minutes.
	DefaultReadTimeout = 120 * time.Second

	defaultQualifier = "DEFAULT"
)

// RuntimeAPI is the slice of the AgentCore client the invoker needs.
type RuntimeAPI interface {
	InvokeAgentRuntime(ctx context.Context, in *bedrockagentcore.InvokeAgentRuntimeInput, optFns ...func(*bedrockagentcore.Options)) (*bedrockagentcore.InvokeAgentRuntimeOutput, error)
}

// Config carries the invoker's settings.
type Config struct {
	// RuntimeARN identifies the agent runtime. Required; when empty every
	// invocation fails with a ConfigError before any network call.
	RuntimeARN  string
	Qualifier   string
	ReadTimeout time.Duration
}

// Invoker sends composed prompts to the agent runtime.
type Invoker struct {
	api RuntimeAPI
	cfg Config
}

// NewInvoker creates an invoker over the given runtime API. The client must
// be configured with retries disabled.
func NewInvoker(api RuntimeAPI, cfg Config) *Invoker {
	if cfg.Qualifier == "" {
		cfg.Qualifier = defaultQualifier
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = DefaultReadTimeout
	}
	return &Invoker{api: api, cfg: cfg}
}

// payload is the request envelope the agent runtime expects.
type payload struct {
	Prompt string `json:"prompt"`
}

// Invoke sends the prompt and waits for the complete response, draining the
// possibly-chunked body into the result text. sessionID may be empty, in
// which case a fresh one is generated.
func (i *Invoker) Invoke(ctx context.Context, prompt, sessionID string) (*models.AgentResult, error) {
	start := time.Now()

	in, sessionID, err := i.buildInput(prompt, sessionID)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, i.cfg.ReadTimeout)
	defer cancel()

	slog.Info("invoking agent",
		"prompt_chars", len(prompt),
		"session_id", sessionID,
	)

	out, err := i.api.InvokeAgentRuntime(ctx, in)
	if err != nil {
		return nil, i.mapError(ctx, err, time.Since(start))
	}
	defer out.Response.Close()

	body, err := io.ReadAll(out.Response)
	if err != nil {
		return nil, i.mapError(ctx, err, time.Since(start))
	}

	result := &models.AgentResult{
		Response:  decodeResponse(body),
		SessionID: sessionID,
		Elapsed:   time.Since(start),
	}

	slog.Info("agent invocation complete",
		"session_id", sessionID,
		"response_chars", len(result.Response),
		"elapsed_ms", result.Elapsed.Milliseconds(),
	)
	return result, nil
}

// InvokeAsync sends the same request but returns as soon as the runtime has
// accepted it, without waiting for the response body. It returns the session
// id so a later call can continue the conversation.
func (i *Invoker) InvokeAsync(ctx context.Context, prompt, sessionID string) (string, error) {
	start := time.Now()

	in, sessionID, err := i.buildInput(prompt, sessionID)
	if err != nil {
		return "", err
	}

	out, err := i.api.InvokeAgentRuntime(ctx, in)
	if err != nil {
		return "", i.mapError(ctx, err, time.Since(start))
	}
	// Deliberately not drained: the agent continues on its own.
	out.Response.Close()

	slog.Info("agent invocation accepted", "session_id", sessionID)
	return sessionID, nil
}

// buildInput validates the request and constructs the runtime envelope
// shared by both invocation modes.
func (i *Invoker) buildInput(prompt, sessionID string) (*bedrockagentcore.InvokeAgentRuntimeInput, string, error) {
	if i.cfg.RuntimeARN == "" {
		return nil, "", &ConfigError{Reason: "AGENT_RUNTIME_ARN is not set"}
	}
	if prompt == "" {
		return nil, "", &ValidationError{Message: "prompt must not be empty"}
	}
	if sessionID == "" {
		sessionID = NewSessionID()
	} else if len(sessionID) < minSessionIDLength {
		return nil, "", &ValidationError{
			Message: fmt.Sprintf("session id must be at least %d characters, got %d", minSessionIDLength, len(sessionID)),
		}
	}

	body, err := json.Marshal(payload{Prompt: prompt})
	if err != nil {
		return nil, "", &ValidationError{Message: fmt.Sprintf("encode payload: %v", err)}
	}

	return &bedrockagentcore.InvokeAgentRuntimeInput{
		AgentRuntimeArn:  aws.String(i.cfg.RuntimeARN),
		RuntimeSessionId: aws.String(sessionID),
		Qualifier:        aws.String(i.cfg.Qualifier),
		Payload:          body,
	}, sessionID, nil
}

// NewSessionID generates a 44-character session identifier, comfortably
// above the runtime's 33-character minimum.
func NewSessionID() string {
	return "session-" + uuid.NewString()
}

// decodeResponse extracts the agent's text from the drained body. The
// runtime normally returns JSON with a "response" or "output" field; a body
// that fails to decode is returned verbatim rather than discarded.
func decodeResponse(body []byte) string {
	if len(body) == 0 {
		return ""
	}

	var decoded map[string]any
	if err := json.Unmarshal(body, &decoded); err != nil {
		return string(body)
	}
	if s, ok := decoded["response"].(string); ok {
		return s
	}
	if s, ok := decoded["output"].(string); ok {
		return s
	}
	return string(body)
}

// mapError converts transport and service failures into the closed error
// taxonomy.
func (i *Invoker) mapError(ctx context.Context, err error, elapsed time.Duration) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &TimeoutError{Elapsed: elapsed}
	}

	var notFound *types.ResourceNotFoundException
	if errors.As(err, &notFound) {
		return &NotFoundError{ARN: i.cfg.RuntimeARN, Message: aws.ToString(notFound.Message)}
	}

	var throttled *types.ThrottlingException
	if errors.As(err, &throttled) {
		return &ThrottledError{Message: aws.ToString(throttled.Message)}
	}

	var invalid *types.ValidationException
	if errors.As(err, &invalid) {
		return &ValidationError{Message: aws.ToString(invalid.Message)}
	}

	var ae smithy.APIError
	if errors.As(err, &ae) {
		return &InvocationError{Code: ae.ErrorCode(), Err: err}
	}
	return &InvocationError{Code: "transport", Err: err}
}
