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

// Package node defines the contract between the host and a node: items flowing
// through a batch, the declarative node description, and the execution context
// a node uses to read parameters and send authenticated requests.
package node

import (
	"context"
	"log/slog"

	"github.com/tombee/conductor-slack/internal/operation/transport"
)

// MainOutput is the name of the single default output.
const MainOutput = "main"

// PairedItem links an output item to the input item it was produced from.
type PairedItem struct {
	Item int `json:"item" yaml:"item"`
}

// Item is one unit of data flowing through a node.
type Item struct {
	JSON       any         `json:"json" yaml:"json"`
	PairedItem *PairedItem `json:"pairedItem,omitempty" yaml:"pairedItem,omitempty"`
}

// NewItem returns an item paired with the input at index.
func NewItem(data any, index int) Item {
	return Item{JSON: data, PairedItem: &PairedItem{Item: index}}
}

// ErrorItem returns the item emitted for a failed input when continue-on-fail is set.
func ErrorItem(err error, index int) Item {
	return NewItem(map[string]any{"error": err.Error()}, index)
}

// IsErrorItem reports whether item is an error item produced by ErrorItem.
func IsErrorItem(item Item) bool {
	m, ok := item.JSON.(map[string]any)
	if !ok || len(m) != 1 {
		return false
	}
	_, ok = m["error"].(string)
	return ok
}

// Node is an executable node type.
type Node interface {
	// Description returns the static node description.
	Description() Description

	// Execute processes the whole input batch and returns one item list per output.
	Execute(ctx context.Context, ef ExecuteFunctions) ([][]Item, error)
}

// Requester sends requests on behalf of a node, authenticated with the named credential type.
type Requester interface {
	RequestWithAuthentication(ctx context.Context, credentialType string, req *transport.Request) (*transport.Response, error)
}

// ExecuteFunctions is what the host exposes to a running node.
type ExecuteFunctions interface {
	Requester

	// InputData returns the input items of the batch.
	InputData() []Item

	// Parameter returns the resolved value of a parameter for the item at index.
	Parameter(name string, index int) (any, error)

	// ContinueOnFail reports whether per-item errors should be emitted as items.
	ContinueOnFail() bool

	// Logger returns the logger scoped to this execution.
	Logger() *slog.Logger
}
