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
	"errors"
	"fmt"
	"sort"
)

// Resolver queries a chain of backends in priority order.
type Resolver struct {
	backends []SecretBackend
}

// NewResolver creates a resolver over the available backends, highest priority first.
func NewResolver(backends ...SecretBackend) *Resolver {
	available := make([]SecretBackend, 0, len(backends))
	for _, b := range backends {
		if b.Available() {
			available = append(available, b)
		}
	}

	sort.SliceStable(available, func(i, j int) bool {
		return available[i].Priority() > available[j].Priority()
	})

	return &Resolver{backends: available}
}

// Get returns the first value found for key.
func (r *Resolver) Get(ctx context.Context, key string) (string, error) {
	value, _, err := r.Lookup(ctx, key)
	return value, err
}

// Lookup is like Get and also reports which backend served the value.
func (r *Resolver) Lookup(ctx context.Context, key string) (string, string, error) {
	if len(r.backends) == 0 {
		return "", "", fmt.Errorf("%w: no available backends", ErrBackendUnavailable)
	}

	var lastErr error
	for _, backend := range r.backends {
		value, err := backend.Get(ctx, key)
		if err == nil {
			return value, backend.Name(), nil
		}
		if !errors.Is(err, ErrSecretNotFound) {
			lastErr = err
		}
	}

	if lastErr != nil {
		return "", "", fmt.Errorf("failed to get secret %q: %w", key, lastErr)
	}
	return "", "", fmt.Errorf("%w: %q", ErrSecretNotFound, key)
}

// Set stores a secret in the named backend, or in the highest-priority
// writable backend when backendName is empty.
func (r *Resolver) Set(ctx context.Context, key, value, backendName string) error {
	targets, err := r.writable(backendName)
	if err != nil {
		return err
	}

	for _, backend := range targets {
		err := backend.Set(ctx, key, value)
		if errors.Is(err, ErrReadOnlyBackend) && backendName == "" {
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to set secret in %s: %w", backend.Name(), err)
		}
		return nil
	}
	return fmt.Errorf("no writable backend available")
}

// Delete removes a secret from the named backend, or from every writable backend holding it.
func (r *Resolver) Delete(ctx context.Context, key, backendName string) error {
	targets, err := r.writable(backendName)
	if err != nil {
		return err
	}

	deleted := false
	for _, backend := range targets {
		err := backend.Delete(ctx, key)
		if backendName == "" && (errors.Is(err, ErrSecretNotFound) || errors.Is(err, ErrReadOnlyBackend)) {
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to delete secret from %s: %w", backend.Name(), err)
		}
		deleted = true
	}

	if !deleted {
		return fmt.Errorf("%w: %q", ErrSecretNotFound, key)
	}
	return nil
}

// List returns every resolvable key with the backend that wins for it, sorted by key.
func (r *Resolver) List(ctx context.Context) ([]SecretMetadata, error) {
	if len(r.backends) == 0 {
		return nil, fmt.Errorf("%w: no available backends", ErrBackendUnavailable)
	}

	seen := make(map[string]SecretMetadata)
	for _, backend := range r.backends {
		keys, err := backend.List(ctx)
		if err != nil {
			continue
		}
		for _, key := range keys {
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = SecretMetadata{Key: key, Backend: backend.Name(), ReadOnly: isReadOnly(backend)}
		}
	}

	result := make([]SecretMetadata, 0, len(seen))
	for _, meta := range seen {
		result = append(result, meta)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Key < result[j].Key })
	return result, nil
}

// Backends returns the available backends in priority order.
func (r *Resolver) Backends() []SecretBackend {
	return r.backends
}

// writable returns the backends a write may target.
func (r *Resolver) writable(backendName string) ([]SecretBackend, error) {
	if len(r.backends) == 0 {
		return nil, fmt.Errorf("%w: no available backends", ErrBackendUnavailable)
	}

	if backendName != "" {
		for _, backend := range r.backends {
			if backend.Name() == backendName {
				return []SecretBackend{backend}, nil
			}
		}
		return nil, fmt.Errorf("backend %q not found or unavailable", backendName)
	}

	var targets []SecretBackend
	for _, backend := range r.backends {
		if !isReadOnly(backend) {
			targets = append(targets, backend)
		}
	}
	if len(targets) == 0 {
		return nil, fmt.Errorf("no writable backend available")
	}
	return targets, nil
}
