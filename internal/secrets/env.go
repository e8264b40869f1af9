// Copyright 2025 Tom Barlow
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

package secrets

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
)

const (
	// EnvBackendPriority is the highest priority so the environment overrides stored values.
	EnvBackendPriority = 100

	// EnvSecretPrefix prefixes normalized secret environment variables.
	EnvSecretPrefix = "CONDUCTOR_SLACK_SECRET_"
)

// EnvBackend resolves secrets from environment variables. It is read-only.
//
// A key is looked up as CONDUCTOR_SLACK_SECRET_<KEY> with slashes turned into
// underscores and letters upper-cased, then under its alias if one is registered.
type EnvBackend struct {
	aliases map[string]string
}

// NewEnvBackend creates an environment backend. aliases maps secret keys to
// conventional variable names, e.g. "credentials/slackApi/botToken" -> "SLACK_BOT_TOKEN".
func NewEnvBackend(aliases map[string]string) *EnvBackend {
	a := make(map[string]string, len(aliases))
	for k, v := range aliases {
		a[k] = v
	}
	return &EnvBackend{aliases: a}
}

// Name returns "env".
func (e *EnvBackend) Name() string {
	return "env"
}

// Get retrieves a secret from the environment.
func (e *EnvBackend) Get(ctx context.Context, key string) (string, error) {
	if value := os.Getenv(EnvVarName(key)); value != "" {
		return value, nil
	}
	if alias, ok := e.aliases[key]; ok {
		if value := os.Getenv(alias); value != "" {
			return value, nil
		}
	}
	return "", fmt.Errorf("%w: environment variable not set", ErrSecretNotFound)
}

// Set returns ErrReadOnlyBackend.
func (e *EnvBackend) Set(ctx context.Context, key string, value string) error {
	return ErrReadOnlyBackend
}

// Delete returns ErrReadOnlyBackend.
func (e *EnvBackend) Delete(ctx context.Context, key string) error {
	return ErrReadOnlyBackend
}

// List returns the aliased keys that currently resolve. Prefixed variables
// cannot be mapped back to keys because normalization drops case.
func (e *EnvBackend) List(ctx context.Context) ([]string, error) {
	var keys []string
	for key := range e.aliases {
		if _, err := e.Get(ctx, key); err == nil {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// Available always returns true.
func (e *EnvBackend) Available() bool {
	return true
}

// Priority returns EnvBackendPriority.
func (e *EnvBackend) Priority() int {
	return EnvBackendPriority
}

// ReadOnly returns true.
func (e *EnvBackend) ReadOnly() bool {
	return true
}

// EnvVarName converts a secret key to its environment variable name.
// Example: "credentials/slackApi/botToken" -> "CONDUCTOR_SLACK_SECRET_CREDENTIALS_SLACKAPI_BOTTOKEN"
func EnvVarName(key string) string {
	return EnvSecretPrefix + strings.ToUpper(strings.ReplaceAll(key, "/", "_"))
}
