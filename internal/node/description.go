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

// Property types.
const (
	TypeString     = "string"
	TypeNumber     = "number"
	TypeBoolean    = "boolean"
	TypeOptionList = "options"
)

// Description declares a node type: identity, credentials and parameters.
type Description struct {
	DisplayName string            `json:"displayName" yaml:"displayName"`
	Name        string            `json:"name" yaml:"name"`
	Icon        string            `json:"icon,omitempty" yaml:"icon,omitempty"`
	Group       []string          `json:"group" yaml:"group"`
	Version     int               `json:"version" yaml:"version"`
	Description string            `json:"description" yaml:"description"`
	Defaults    map[string]any    `json:"defaults,omitempty" yaml:"defaults,omitempty"`
	Inputs      []string          `json:"inputs" yaml:"inputs"`
	Outputs     []string          `json:"outputs" yaml:"outputs"`
	Credentials []CredentialUsage `json:"credentials,omitempty" yaml:"credentials,omitempty"`
	Properties  []Property        `json:"properties" yaml:"properties"`
}

// CredentialUsage names a credential type a node accepts.
type CredentialUsage struct {
	Name     string `json:"name" yaml:"name"`
	Required bool   `json:"required" yaml:"required"`
}

// Property declares one parameter.
type Property struct {
	DisplayName      string          `json:"displayName" yaml:"displayName"`
	Name             string          `json:"name" yaml:"name"`
	Type             string          `json:"type" yaml:"type"`
	Default          any             `json:"default" yaml:"default"`
	Required         bool            `json:"required,omitempty" yaml:"required,omitempty"`
	NoDataExpression bool            `json:"noDataExpression,omitempty" yaml:"noDataExpression,omitempty"`
	Description      string          `json:"description,omitempty" yaml:"description,omitempty"`
	Options          []Option        `json:"options,omitempty" yaml:"options,omitempty"`
	TypeOptions      *TypeOptions    `json:"typeOptions,omitempty" yaml:"typeOptions,omitempty"`
	DisplayOptions   *DisplayOptions `json:"displayOptions,omitempty" yaml:"displayOptions,omitempty"`
}

// Option is one choice of an options property.
type Option struct {
	Name        string `json:"name" yaml:"name"`
	Value       string `json:"value" yaml:"value"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Action      string `json:"action,omitempty" yaml:"action,omitempty"`
}

// TypeOptions refines how a property is edited.
type TypeOptions struct {
	MinValue *float64 `json:"minValue,omitempty" yaml:"minValue,omitempty"`
	MaxValue *float64 `json:"maxValue,omitempty" yaml:"maxValue,omitempty"`
	Password bool     `json:"password,omitempty" yaml:"password,omitempty"`
}

// DisplayOptions controls when a property is shown, keyed by other parameter names.
type DisplayOptions struct {
	Show map[string][]string `json:"show,omitempty" yaml:"show,omitempty"`
}

// Visible reports whether the property is shown for the given parameter values.
func (p Property) Visible(values map[string]string) bool {
	if p.DisplayOptions == nil {
		return true
	}
	for name, allowed := range p.DisplayOptions.Show {
		v, ok := values[name]
		if !ok {
			return false
		}
		found := false
		for _, a := range allowed {
			if a == v {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// Property returns the first property declared with name.
// Names may repeat when declarations differ only in display options.
func (d Description) Property(name string) (Property, bool) {
	for _, p := range d.Properties {
		if p.Name == name {
			return p, true
		}
	}
	return Property{}, false
}

// Float returns a pointer to v, for TypeOptions bounds.
func Float(v float64) *float64 {
	return &v
}
