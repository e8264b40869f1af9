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

// Package describe implements the describe command.
package describe

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/tombee/conductor-slack/internal/commands/shared"
	"github.com/tombee/conductor-slack/internal/credential"
	"github.com/tombee/conductor-slack/internal/integration/slack"
	"github.com/tombee/conductor-slack/internal/node"
)

// Document is the describe output.
type Document struct {
	Node        node.Description         `json:"node" yaml:"node"`
	Credentials []credential.Description `json:"credentials" yaml:"credentials"`
}

// NewCommand creates the describe command.
func NewCommand() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "describe",
		Short: "Print the Slack node and credential descriptions",
		Long: `Describe prints the declarative description of the Slack node (resources,
operations, parameters and when each is shown) and of the slackApi credential.

Examples:
  conductor-slack describe
  conductor-slack describe --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if shared.GetJSON() {
				format = "json"
			}
			return render(cmd.OutOrStdout(), format, build())
		},
	}

	cmd.Flags().StringVar(&format, "format", "yaml", "Output format (yaml, json)")

	return cmd
}

func build() Document {
	return Document{
		Node:        slack.New(slack.Config{}).Description(),
		Credentials: []credential.Description{credential.NewSlackAPI("").Describe()},
	}
}

func render(w io.Writer, format string, doc Document) error {
	switch format {
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("failed to encode description: %w", err)
		}
		return enc.Close()
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	default:
		return shared.NewInvalidInputError(fmt.Sprintf("unknown format %q (want yaml or json)", format), nil)
	}
}
