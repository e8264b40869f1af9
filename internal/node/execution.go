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

package node

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/tombee/conductor-slack/internal/expression"
	"github.com/tombee/conductor-slack/internal/operation/transport"
)

// Settings are the per-node execution settings chosen by the workflow author.
type Settings struct {
	ContinueOnFail bool `json:"continueOnFail" yaml:"continueOnFail"`
}

// Execution is the host-side ExecuteFunctions for one node run.
type Execution struct {
	description Description
	params      map[string]any
	items       []Item
	settings    Settings
	requester   Requester
	logger      *slog.Logger
	evaluator   *expression.Evaluator
}

// ExecutionConfig configures an Execution.
type ExecutionConfig struct {
	Description Description
	Parameters  map[string]any
	Items       []Item
	Settings    Settings
	Requester   Requester
	Logger      *slog.Logger
}

// NewExecution creates the execution context for one run.
func NewExecution(cfg ExecutionConfig) *Execution {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	params := cfg.Parameters
	if params == nil {
		params = map[string]any{}
	}
	return &Execution{
		description: cfg.Description,
		params:      params,
		items:       cfg.Items,
		settings:    cfg.Settings,
		requester:   cfg.Requester,
		logger:      logger,
		evaluator:   expression.New(),
	}
}

// InputData returns the input items.
func (e *Execution) InputData() []Item {
	return e.items
}

// ContinueOnFail reports whether per-item errors become error items.
func (e *Execution) ContinueOnFail() bool {
	return e.settings.ContinueOnFail
}

// Logger returns the execution logger.
func (e *Execution) Logger() *slog.Logger {
	return e.logger
}

// RequestWithAuthentication forwards to the host requester.
func (e *Execution) RequestWithAuthentication(ctx context.Context, credentialType string, req *transport.Request) (*transport.Response, error) {
	if e.requester == nil {
		return nil, fmt.Errorf("no requester configured for credential type %q", credentialType)
	}
	return e.requester.RequestWithAuthentication(ctx, credentialType, req)
}

// Parameter resolves a parameter for the item at index: the configured value or
// the declared default, with expressions evaluated against that item.
// A required parameter that resolves to nothing is a ParameterError.
func (e *Execution) Parameter(name string, index int) (any, error) {
	prop, declared := e.description.Property(name)

	value, ok := e.params[name]
	if !ok && declared {
		value = prop.Default
	}

	resolved, err := e.evaluator.Resolve(value, e.env(index))
	if err != nil {
		return nil, &ParameterError{Parameter: name, Index: index, Message: "expression failed", Cause: err}
	}

	if declared && prop.Required && isEmpty(resolved) {
		return nil, &ParameterError{Parameter: name, Index: index, Message: "required parameter is missing"}
	}
	return resolved, nil
}

// env builds the expression environment for the item at index.
// Indexes outside the batch see an empty item.
func (e *Execution) env(index int) map[string]any {
	var payload any
	item := map[string]any{"json": nil}
	if index >= 0 && index < len(e.items) {
		payload = e.items[index].JSON
		item["json"] = payload
		if p := e.items[index].PairedItem; p != nil {
			item["pairedItem"] = map[string]any{"item": p.Item}
		}
	}
	return expression.Env(payload, index, item)
}

func isEmpty(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && s == ""
}

// StringParameter resolves a parameter as a string. Numbers and booleans are formatted.
func StringParameter(ef ExecuteFunctions, name string, index int) (string, error) {
	v, err := ef.Parameter(name, index)
	if err != nil {
		return "", err
	}
	switch t := v.(type) {
	case nil:
		return "", nil
	case string:
		return t, nil
	case bool:
		return strconv.FormatBool(t), nil
	case int:
		return strconv.Itoa(t), nil
	case int64:
		return strconv.FormatInt(t, 10), nil
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), nil
	case json.Number:
		return t.String(), nil
	default:
		return "", &ParameterError{Parameter: name, Index: index, Message: fmt.Sprintf("expected string, got %T", v)}
	}
}

// NumberParameter resolves a parameter as a number. Numeric strings are accepted.
func NumberParameter(ef ExecuteFunctions, name string, index int) (float64, error) {
	v, err := ef.Parameter(name, index)
	if err != nil {
		return 0, err
	}
	switch t := v.(type) {
	case int:
		return float64(t), nil
	case int64:
		return float64(t), nil
	case float64:
		return t, nil
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return 0, &ParameterError{Parameter: name, Index: index, Message: "invalid number", Cause: err}
		}
		return f, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, &ParameterError{Parameter: name, Index: index, Message: "invalid number", Cause: err}
		}
		return f, nil
	default:
		return 0, &ParameterError{Parameter: name, Index: index, Message: fmt.Sprintf("expected number, got %T", v)}
	}
}
