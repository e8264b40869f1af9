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

// Package run implements the run command.
package run

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"

	"github.com/spf13/cobra"

	"github.com/tombee/conductor-slack/internal/commands/shared"
	"github.com/tombee/conductor-slack/internal/node"
)

// NewCommand creates the run command
func NewCommand() *cobra.Command {
	var (
		batchFile      string
		params         []string
		inputFile      string
		continueOnFail bool
		failOnAPIError bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the Slack node over a batch of items",
		Annotations: map[string]string{
			"group": "execution",
		},
		Long: `Run executes the Slack node once over a batch of input items and prints
the output items as JSON.

Parameters come from the batch file and are overridden by --param. Items come
from the batch file or --input; with neither, the node runs over one empty item.
Values starting with "=" are expressions: {{ json.field }} reads the current
item, {{ index }} its position.

Slack answers most failures with HTTP 200 and an "ok": false body. Those bodies
are emitted as output items unless --fail-on-api-error (or
slack.fail_on_api_error) is set.

The bot token is read from the secret store (see 'conductor-slack credentials')
or from SLACK_BOT_TOKEN.

Examples:
  conductor-slack run -f post.yaml
  conductor-slack run --param resource=message --param operation=getMany \
    --param channel=C0123456789 --param limit=10
  conductor-slack run -f post.yaml --input items.json --continue-on-fail`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			batch := &Batch{Parameters: make(map[string]any)}
			if batchFile != "" {
				b, err := LoadBatch(batchFile)
				if err != nil {
					return shared.NewInvalidInputError("invalid batch", err)
				}
				batch = b
			}

			overrides, err := parseParams(params)
			if err != nil {
				return shared.NewInvalidInputError("invalid --param", err)
			}
			maps.Copy(batch.Parameters, overrides)

			if inputFile != "" {
				items, err := LoadItems(inputFile)
				if err != nil {
					return shared.NewInvalidInputError("invalid --input", err)
				}
				batch.Items = items
			}
			if len(batch.Items) == 0 {
				batch.Items = []node.Item{{JSON: map[string]any{}}}
			}
			if continueOnFail {
				batch.ContinueOnFail = true
			}

			return runBatch(cmd, batch, failOnAPIError)
		},
	}

	cmd.Flags().StringVarP(&batchFile, "file", "f", "", "Batch file (YAML or JSON)")
	cmd.Flags().StringArrayVarP(&params, "param", "p", nil, "Node parameter in key=value format (repeatable)")
	cmd.Flags().StringVarP(&inputFile, "input", "i", "", "JSON file holding an array of input items")
	cmd.Flags().BoolVar(&continueOnFail, "continue-on-fail", false, "Emit an error item for failed items instead of stopping")
	cmd.Flags().BoolVar(&failOnAPIError, "fail-on-api-error", false, `Treat "ok": false responses as item failures`)

	return cmd
}

func runBatch(cmd *cobra.Command, batch *Batch, failOnAPIError bool) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	rt, err := shared.NewRuntime(ctx,
		shared.WithLogOutput(cmd.ErrOrStderr()),
		shared.WithSpanOutput(cmd.ErrOrStderr()),
		shared.WithFailOnAPIError(failOnAPIError),
	)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := rt.Close(context.WithoutCancel(ctx)); cerr != nil {
			rt.Logger.Warn("failed to flush telemetry", "error", cerr)
		}
	}()

	result, err := rt.Host.Execute(ctx, rt.Node, batch.Parameters, batch.Items, node.Settings{
		ContinueOnFail: batch.ContinueOnFail,
	})
	if err != nil {
		return shared.NewExecutionError("slack node failed", err)
	}

	items := []node.Item{}
	if len(result.Outputs) > 0 && result.Outputs[0] != nil {
		items = result.Outputs[0]
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(items); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
