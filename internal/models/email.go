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

// Package models defines the data structures shared across the triage
// pipeline. All values are created fresh per invocation, flow through the
// pipeline by value, and are discarded after being logged.
package models

// StorageLocation identifies the raw email blob in object storage.
type StorageLocation struct {
	Bucket string
	Key    string
}

// EmailMetadata is extracted once from the inbound notification and is
// never re-derived later in the pipeline.
type EmailMetadata struct {
	MessageID   string
	FromAddress string
	ToAddresses []string
	Subject     string
	ReceivedAt  string // RFC 3339 timestamp as delivered by the notification
	Location    StorageLocation
}

// Attachment describes a file attached to an email. Content is retained
// only until the optional upload step runs; URL is set by that step.
type Attachment struct {
	Filename    string
	ContentType string
	Size        int
	Content     []byte
	URL         string
}

// EmailContent is the result of parsing the raw MIME blob.
type EmailContent struct {
	TextBody    string
	HTMLBody    string
	Attachments []Attachment
}

// BodyForAgent returns the best available body for the agent prompt.
// Priority: plain text, then HTML, then empty string.
func (c EmailContent) BodyForAgent() string {
	if c.TextBody != "" {
		return c.TextBody
	}
	return c.HTMLBody
}

// HasContent reports whether the email has any body at all.
func (c EmailContent) HasContent() bool {
	return c.TextBody != "" || c.HTMLBody != ""
}
