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

// Package attachments uploads email attachments to S3 and returns public
// CDN URLs for embedding in the agent prompt. The whole step is optional:
// it runs only when both the bucket and the CDN domain are configured, and
// individual upload failures never fail the email.
package attachments

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/bcem/triage/internal/models"
)

// DefaultMaxSize is the per-file upload cap.
const DefaultMaxSize = 20 << 20 // 20 MiB

const uploadTimeout = 60 * time.Second

// unsafeChars matches filename characters that are stripped before the file
// becomes part of an object key and a public URL.
var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

// PutObjectAPI is the slice of the S3 client the uploader needs.
type PutObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Config carries the uploader's settings.
type Config struct {
	Bucket      string
	CDNDomain   string
	Environment string
	MaxSize     int
}

// Uploader stores attachment bytes under a per-message prefix.
type Uploader struct {
	api PutObjectAPI
	cfg Config
}

// NewUploader creates an uploader. api may be nil when uploads are disabled.
func NewUploader(api PutObjectAPI, cfg Config) *Uploader {
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = DefaultMaxSize
	}
	return &Uploader{api: api, cfg: cfg}
}

// Enabled reports whether the upload path is configured.
func (u *Uploader) Enabled() bool {
	return u.api != nil && u.cfg.Bucket != "" && u.cfg.CDNDomain != ""
}

// Upload stores each attachment and sets its public URL in place. Content
// bytes are released after a successful upload. Oversized files and failed
// uploads are skipped with a log entry.
func (u *Uploader) Upload(ctx context.Context, messageID string, attachments []models.Attachment) {
	if !u.Enabled() || len(attachments) == 0 {
		return
	}

	uploaded := 0
	for i := range attachments {
		att := &attachments[i]
		if len(att.Content) == 0 {
			continue
		}
		if att.Size > u.cfg.MaxSize {
			slog.Warn("attachment exceeds size cap, skipping upload",
				"filename", att.Filename,
				"size", att.Size,
				"max", u.cfg.MaxSize,
			)
			continue
		}

		key := u.objectKey(messageID, att.Filename)
		if err := u.put(ctx, key, att); err != nil {
			slog.Warn("attachment upload failed",
				"filename", att.Filename,
				"key", key,
				"error", err,
			)
			continue
		}

		att.URL = fmt.Sprintf("https://%s/%s", u.cfg.CDNDomain, key)
		att.Content = nil
		uploaded++
	}

	slog.Info("attachment uploads complete",
		"message_id", messageID,
		"uploaded", uploaded,
		"total", len(attachments),
	)
}

func (u *Uploader) put(ctx context.Context, key string, att *models.Attachment) error {
	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	_, err := u.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.cfg.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(att.Content),
		ContentType: aws.String(att.ContentType),
	})
	return err
}

func (u *Uploader) objectKey(messageID, filename string) string {
	name := unsafeChars.ReplaceAllString(filename, "_")
	if name == "" {
		name = "attachment"
	}
	return fmt.Sprintf("attachments/%s/%s/%s", u.cfg.Environment, messageID, name)
}
