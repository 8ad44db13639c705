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

// Email Triage Processor
//
// Lambda entry point for the email triage pipeline. It:
//  1. Loads configuration from config.yaml and environment variables
//  2. Builds AWS clients with retries disabled and strict timeouts
//  3. Wires the fetcher, prompt composer, attachment uploader and agent
//     invoker into the per-email processor
//  4. Hands SQS batches to the handler, which acknowledges every record
package main

import (
	"context"
	"log/slog"
	"net"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentcore"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/bcem/triage/internal/agent"
	"github.com/bcem/triage/internal/attachments"
	"github.com/bcem/triage/internal/config"
	"github.com/bcem/triage/internal/handler"
	"github.com/bcem/triage/internal/processor"
	"github.com/bcem/triage/internal/prompt"
	"github.com/bcem/triage/internal/storage"
)

const connectTimeout = 10 * time.Second

func main() {
	// Structured JSON logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	slog.Info("starting email triage processor")

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("configuration loaded",
		"environment", cfg.Environment,
		"repository", cfg.TargetRepository,
		"agent_configured", cfg.AgentRuntimeARN != "",
		"attachments_configured", cfg.AttachmentsBucket != "" && cfg.CDNDomain != "",
	)

	ctx := context.Background()

	// One HTTP client with a bounded connect phase, shared by every AWS
	// client. Retries are disabled everywhere: a failed email is logged and
	// acknowledged, never replayed against the agent.
	httpClient := awshttp.NewBuildableClient().WithDialerOptions(func(d *net.Dialer) {
		d.Timeout = connectTimeout
	})

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithHTTPClient(httpClient),
		awsconfig.WithRetryer(func() aws.Retryer { return aws.NopRetryer{} }),
	)
	if err != nil {
		slog.Error("failed to load AWS configuration", "error", err)
		os.Exit(1)
	}

	s3Client := s3.NewFromConfig(awsCfg)
	agentClient := bedrockagentcore.NewFromConfig(awsCfg)

	fetcher := storage.NewFetcher(s3Client, storage.DefaultReadTimeout)

	composer := prompt.NewComposer(s3Client, prompt.Config{
		OverrideBucket: cfg.PromptBucket,
		KeyPrefix:      cfg.PromptKeyPrefix,
		Environment:    cfg.Environment,
		Repository:     cfg.TargetRepository,
		CacheTTL:       cfg.PromptCacheTTL,
	})

	uploader := attachments.NewUploader(s3Client, attachments.Config{
		Bucket:      cfg.AttachmentsBucket,
		CDNDomain:   cfg.CDNDomain,
		Environment: cfg.Environment,
		MaxSize:     cfg.AttachmentMaxMB << 20,
	})

	invoker := agent.NewInvoker(agentClient, agent.Config{
		RuntimeARN:  cfg.AgentRuntimeARN,
		Qualifier:   cfg.AgentQualifier,
		ReadTimeout: cfg.AgentReadTimeout,
	})

	p := processor.New(fetcher, composer, invoker, uploader)
	h := handler.New(p)

	lambda.Start(h.Handle)
}
