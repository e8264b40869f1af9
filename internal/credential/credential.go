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

// Package credential declares credential types: the fields they store, how they
// authenticate a request and how they are tested.
package credential

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/tombee/conductor-slack/internal/expression"
	"github.com/tombee/conductor-slack/internal/node"
	"github.com/tombee/conductor-slack/internal/operation/transport"
)

var (
	// ErrUnknownType is returned for a credential type that is not registered.
	ErrUnknownType = errors.New("unknown credential type")

	// ErrMissingField is returned when stored credential data lacks a field.
	ErrMissingField = errors.New("credential field is missing")
)

// Data holds the stored fields of one credential, keyed by property name.
type Data map[string]string

// Type is a credential type.
type Type interface {
	// Name returns the type identifier referenced by nodes (e.g. "slackApi").
	Name() string

	// Describe returns the static declaration.
	Describe() Description

	// Authenticate injects the credential into req.
	Authenticate(data Data, req *transport.Request) error

	// TestRequest builds the unauthenticated request used to verify a credential.
	TestRequest() *transport.Request
}

// Description is the declarative form of a credential type.
type Description struct {
	Name             string          `json:"name" yaml:"name"`
	DisplayName      string          `json:"displayName" yaml:"displayName"`
	DocumentationURL string          `json:"documentationUrl,omitempty" yaml:"documentationUrl,omitempty"`
	Properties       []node.Property `json:"properties" yaml:"properties"`
	Authenticate     GenericAuth     `json:"authenticate" yaml:"authenticate"`
	Test             TestRequestSpec `json:"test" yaml:"test"`
}

// TestRequestSpec declares the credential test request.
type TestRequestSpec struct {
	BaseURL string `json:"baseURL" yaml:"baseURL"`
	URL     string `json:"url" yaml:"url"`
	Method  string `json:"method" yaml:"method"`
}

// GenericAuth adds templated headers to a request.
// Header values are expressions evaluated against {credentials: data}.
type GenericAuth struct {
	Headers map[string]string `json:"headers" yaml:"headers"`
}

// Apply renders the headers with data and sets them on req.
func (g GenericAuth) Apply(eval *expression.Evaluator, data Data, fields []string, req *transport.Request) error {
	for _, f := range fields {
		if strings.TrimSpace(data[f]) == "" {
			return fmt.Errorf("%w: %s", ErrMissingField, f)
		}
	}

	creds := make(map[string]any, len(data))
	for k, v := range data {
		creds[k] = v
	}
	env := map[string]any{"credentials": creds}

	keys := make([]string, 0, len(g.Headers))
	for k := range g.Headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		v, err := eval.Resolve(g.Headers[k], env)
		if err != nil {
			return fmt.Errorf("rendering header %s: %w", k, err)
		}
		req.SetHeader(k, fmt.Sprint(v))
	}
	return nil
}

// Registry holds the available credential types.
type Registry struct {
	types map[string]Type
}

// NewRegistry creates a registry with the given types.
func NewRegistry(types ...Type) *Registry {
	r := &Registry{types: make(map[string]Type, len(types))}
	for _, t := range types {
		r.types[t.Name()] = t
	}
	return r
}

// Get returns the named type.
func (r *Registry) Get(name string) (Type, error) {
	t, ok := r.types[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, name)
	}
	return t, nil
}

// Names returns the registered type names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.types))
	for n := range r.types {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// SecretKey is the secrets key under which a credential field is stored.
func SecretKey(typeName, field string) string {
	return "credentials/" + typeName + "/" + field
}

// Fields returns the property names of a credential type.
func Fields(t Type) []string {
	props := t.Describe().Properties
	fields := make([]string, 0, len(props))
	for _, p := range props {
		fields = append(fields, p.Name)
	}
	return fields
}
