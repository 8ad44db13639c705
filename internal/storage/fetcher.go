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

// Package storage retrieves raw email blobs from S3. Fetches are made
// exactly once: the client is built without retries, and a failed attempt
// is terminal for the invocation.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// DefaultReadTimeout bounds a single object read.
const DefaultReadTimeout = 60 * time.Second

// GetObjectAPI is the slice of the S3 client the fetcher needs.
type GetObjectAPI interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// NotFoundError reports a missing object or bucket.
type NotFoundError struct {
	Bucket string
	Key    string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("storage: object not found: s3://%s/%s", e.Bucket, e.Key)
}

// AccessDeniedError reports a permission failure on the object.
type AccessDeniedError struct {
	Bucket string
	Key    string
}

func (e *AccessDeniedError) Error() string {
	return fmt.Sprintf("storage: access denied: s3://%s/%s", e.Bucket, e.Key)
}

// Fetcher retrieves raw email objects by bucket/key reference.
type Fetcher struct {
	api         GetObjectAPI
	readTimeout time.Duration
}

// NewFetcher creates a fetcher over the given S3 API. The client passed in
// must be configured with retries disabled; the fetcher only adds the read
// deadline.
func NewFetcher(api GetObjectAPI, readTimeout time.Duration) *Fetcher {
	if readTimeout <= 0 {
		readTimeout = DefaultReadTimeout
	}
	return &Fetcher{api: api, readTimeout: readTimeout}
}

// Fetch returns the raw bytes of the object at bucket/key.
func (f *Fetcher) Fetch(ctx context.Context, bucket, key string) ([]byte, error) {
	if bucket == "" || key == "" {
		return nil, fmt.Errorf("storage: bucket and key are required")
	}

	ctx, cancel := context.WithTimeout(ctx, f.readTimeout)
	defer cancel()

	out, err := f.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, classify(bucket, key, err)
	}
	defer out.Body.Close()

	raw, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("storage: read s3://%s/%s: %w", bucket, key, err)
	}

	slog.Info("fetched email from storage",
		"bucket", bucket,
		"key", key,
		"bytes", len(raw),
	)
	return raw, nil
}

// classify maps S3 errors into the fetcher's closed error set.
func classify(bucket, key string, err error) error {
	var noKey *types.NoSuchKey
	var noBucket *types.NoSuchBucket
	if errors.As(err, &noKey) || errors.As(err, &noBucket) {
		return &NotFoundError{Bucket: bucket, Key: key}
	}

	var ae smithy.APIError
	if errors.As(err, &ae) && ae.ErrorCode() == "AccessDenied" {
		return &AccessDeniedError{Bucket: bucket, Key: key}
	}

	return fmt.Errorf("storage: fetch s3://%s/%s: %w", bucket, key, err)
}
