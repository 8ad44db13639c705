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

// Package config loads configuration from config.yaml and environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the email processor.
type Config struct {
	// Agent runtime
	AgentRuntimeARN  string
	AgentQualifier   string
	AgentReadTimeout time.Duration

	// Prompt composition
	TargetRepository string
	PromptBucket     string
	PromptKeyPrefix  string
	PromptCacheTTL   time.Duration

	// Attachment uploads (optional; both bucket and CDN domain required)
	AttachmentsBucket string
	CDNDomain         string
	AttachmentMaxMB   int

	Environment string
}

// rawConfig mirrors the YAML structure for unmarshalling.
type rawConfig struct {
	Agent struct {
		RuntimeARN string `yaml:"runtime_arn"`
		Qualifier  string `yaml:"qualifier"`
	} `yaml:"agent"`
	Prompt struct {
		Repository string `yaml:"repository"`
		Bucket     string `yaml:"bucket"`
		KeyPrefix  string `yaml:"key_prefix"`
	} `yaml:"prompt"`
	Attachments struct {
		Bucket    string `yaml:"bucket"`
		CDNDomain string `yaml:"cdn_domain"`
	} `yaml:"attachments"`
	Environment string `yaml:"environment"`
}

// Load reads configuration from config.yaml (with env var expansion) and
// environment variables for non-YAML settings. The YAML file is optional:
// in Lambda everything usually arrives through the environment. A missing
// agent runtime ARN is deliberately not an error here — the processor must
// keep draining its queue, so each invocation reports the problem instead.
func Load() (*Config, error) {
	var raw rawConfig

	configPath := envOrDefault("CONFIG_PATH", "config.yaml")
	data, err := os.ReadFile(configPath)
	if err == nil {
		// Expand ${VAR} references in the YAML
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
			return nil, fmt.Errorf("parse config YAML: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config file %s: %w", configPath, err)
	}

	cfg := &Config{
		AgentRuntimeARN:  firstNonEmpty(raw.Agent.RuntimeARN, os.Getenv("AGENT_RUNTIME_ARN")),
		AgentQualifier:   firstNonEmpty(raw.Agent.Qualifier, envOrDefault("AGENT_QUALIFIER", "DEFAULT")),
		AgentReadTimeout: envOrDefaultDuration("AGENT_READ_TIMEOUT", 120*time.Second),

		TargetRepository: firstNonEmpty(raw.Prompt.Repository, envOrDefault("TARGET_REPOSITORY", "bcem/triage-inbox")),
		PromptBucket:     firstNonEmpty(raw.Prompt.Bucket, os.Getenv("PROMPT_BUCKET")),
		PromptKeyPrefix:  firstNonEmpty(raw.Prompt.KeyPrefix, envOrDefault("PROMPT_KEY_PREFIX", "prompts/")),
		PromptCacheTTL:   envOrDefaultDuration("PROMPT_CACHE_TTL", 5*time.Minute),

		AttachmentsBucket: firstNonEmpty(raw.Attachments.Bucket, os.Getenv("ATTACHMENTS_BUCKET")),
		CDNDomain:         firstNonEmpty(raw.Attachments.CDNDomain, os.Getenv("CDN_DOMAIN")),
		AttachmentMaxMB:   envOrDefaultInt("ATTACHMENT_MAX_MB", 20),

		Environment: firstNonEmpty(raw.Environment, envOrDefault("ENVIRONMENT", "dev")),
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envOrDefaultInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envOrDefaultDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
