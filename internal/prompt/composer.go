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

// Package prompt renders the agent instruction from a template. Templates
// resolve through three layers: an in-process cache, an S3 override keyed by
// deployment environment (so prompts can be tuned without a redeploy), and
// the default packaged into the binary. Override failures fall back
// silently — an unreachable override is not an error for the pipeline.
package prompt

import (
	"context"
	_ "embed"
	"io"
	"log/slog"
	"path"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/bcem/triage/internal/models"
)

//go:embed templates/github_issue.txt
var defaultTemplate string

// DefaultCacheTTL bounds how long a resolved template is reused before the
// override location is consulted again.
const DefaultCacheTTL = 5 * time.Minute

// GetObjectAPI is the slice of the S3 client the composer needs.
type GetObjectAPI interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Config carries the composer's settings.
type Config struct {
	// OverrideBucket and KeyPrefix locate remote template overrides. When
	// the bucket is empty the override layer is disabled entirely.
	OverrideBucket string
	KeyPrefix      string
	// Environment selects the override variant (prompts/<env>/<name>).
	Environment string
	// Repository is the target repository rendered into the prompt.
	Repository string
	CacheTTL   time.Duration
}

// Composer loads and renders the agent prompt template.
type Composer struct {
	api GetObjectAPI
	cfg Config
	now func() time.Time

	mu      sync.RWMutex
	cached  string
	expires time.Time
}

// NewComposer creates a composer. api may be nil when no override bucket is
// configured.
func NewComposer(api GetObjectAPI, cfg Config) *Composer {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = DefaultCacheTTL
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "prompts/"
	}
	return &Composer{api: api, cfg: cfg, now: time.Now}
}

// Compose renders the prompt for one email. It never fails: template
// resolution degrades to the packaged default, and rendering is a pure
// placeholder substitution.
func (c *Composer) Compose(ctx context.Context, meta models.EmailMetadata, content models.EmailContent) string {
	return Render(c.template(ctx), Values{
		FromAddress: meta.FromAddress,
		Subject:     meta.Subject,
		Timestamp:   meta.ReceivedAt,
		Body:        content.BodyForAgent(),
		Attachments: formatAttachments(content.Attachments),
		Repository:  c.cfg.Repository,
	})
}

// template resolves the template text: cache, then S3 override, then the
// packaged default. The cache holds a single immutable value with an expiry
// and is replaced wholesale on refresh, so concurrent readers never observe
// a partial write.
func (c *Composer) template(ctx context.Context) string {
	c.mu.RLock()
	if c.cached != "" && c.now().Before(c.expires) {
		tpl := c.cached
		c.mu.RUnlock()
		return tpl
	}
	c.mu.RUnlock()

	tpl := defaultTemplate
	if c.api != nil && c.cfg.OverrideBucket != "" {
		if override, ok := c.fetchOverride(ctx); ok {
			tpl = override
		}
	}

	c.mu.Lock()
	c.cached = tpl
	c.expires = c.now().Add(c.cfg.CacheTTL)
	c.mu.Unlock()

	return tpl
}

// fetchOverride loads the override template from S3. Any failure is logged
// and reported as absent, never surfaced to the caller.
func (c *Composer) fetchOverride(ctx context.Context) (string, bool) {
	key := path.Join(c.cfg.KeyPrefix, c.cfg.Environment, "github_issue.txt")

	out, err := c.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.cfg.OverrideBucket),
		Key:    aws.String(key),
	})
	if err != nil {
		slog.Info("prompt override not available, using packaged template",
			"bucket", c.cfg.OverrideBucket,
			"key", key,
			"error", err,
		)
		return "", false
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		slog.Warn("failed to read prompt override", "key", key, "error", err)
		return "", false
	}

	slog.Info("loaded prompt override", "key", key, "chars", len(data))
	return string(data), true
}
