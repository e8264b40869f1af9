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

package run

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/tombee/conductor-slack/internal/node"
)

// Batch is a node run described in a file.
//
//	parameters:
//	  resource: message
//	  operation: create
//	  channel: C0123456789
//	  text: "={{ json.greeting }}"
//	items:
//	  - json: {greeting: hello}
//	continueOnFail: true
type Batch struct {
	Parameters     map[string]any `yaml:"parameters" json:"parameters"`
	Items          []node.Item    `yaml:"items" json:"items"`
	ContinueOnFail bool           `yaml:"continueOnFail" json:"continueOnFail"`
}

// LoadBatch reads a batch file. JSON files are valid YAML.
func LoadBatch(path string) (*Batch, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read batch file: %w", err)
	}

	var b Batch
	if err := yaml.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("failed to parse batch file %s: %w", path, err)
	}
	if b.Parameters == nil {
		b.Parameters = make(map[string]any)
	}
	return &b, nil
}

// LoadItems reads a JSON array from path; each element becomes one input item.
func LoadItems(path string) ([]node.Item, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read input file: %w", err)
	}

	var payloads []any
	if err := json.Unmarshal(data, &payloads); err != nil {
		return nil, fmt.Errorf("input file %s must hold a JSON array: %w", path, err)
	}

	items := make([]node.Item, len(payloads))
	for i, p := range payloads {
		items[i] = node.Item{JSON: p}
	}
	return items, nil
}

// parseParams parses key=value pairs. Values stay strings; the node converts
// numeric parameters itself.
func parseParams(pairs []string) (map[string]any, error) {
	params := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid parameter %q (expected key=value)", pair)
		}
		params[key] = value
	}
	return params, nil
}
