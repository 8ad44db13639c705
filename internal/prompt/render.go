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

package prompt

import (
	"fmt"
	"strings"

	"github.com/bcem/triage/internal/models"
)

// Values holds the fields substituted into a template.
type Values struct {
	FromAddress string
	Subject     string
	Timestamp   string
	Body        string
	Attachments string
	Repository  string
}

// Render substitutes the literal placeholders in a template. Substitution is
// a single pass, so placeholder-like text inside email content is never
// re-expanded. Placeholders left unresolved indicate a template-authoring
// error and are passed through untouched; templates are validated out of
// band, not per message.
func Render(template string, v Values) string {
	r := strings.NewReplacer(
		"{from_address}", v.FromAddress,
		"{subject}", v.Subject,
		"{timestamp}", v.Timestamp,
		"{body}", v.Body,
		"{attachments}", v.Attachments,
		"{repository}", v.Repository,
	)
	return r.Replace(template)
}

// formatAttachments renders the attachment block for the prompt: one bullet
// per attachment with its public URL when the upload step produced one, or
// "None" when the email had no attachments.
func formatAttachments(attachments []models.Attachment) string {
	if len(attachments) == 0 {
		return "None"
	}

	var b strings.Builder
	for _, att := range attachments {
		url := att.URL
		if url == "" {
			url = "no URL"
		}
		fmt.Fprintf(&b, "- %s (%s, %d bytes): %s\n", att.Filename, att.ContentType, att.Size, url)
	}
	return strings.TrimRight(b.String(), "\n")
}
