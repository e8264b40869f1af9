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

package cli

import (
	"github.com/spf13/cobra"

	"github.com/tombee/conductor-slack/internal/commands/shared"
)

// SetVersion sets the version information (called from main)
func SetVersion(v, c, b string) {
	shared.SetVersion(v, c, b)
}

// NewRootCommand creates the root Cobra command
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "conductor-slack",
		Short: "Run the Slack node against the Slack Web API",
		Long: `conductor-slack runs a workflow node that talks to the Slack Web API.

It posts, reads, updates and deletes messages and creates, reads, lists and
archives channels, one Slack call per input item, authenticated with a stored
bot token.

Run 'conductor-slack credentials set' to store a bot token.
Run 'conductor-slack describe' to see every parameter.`,
		SilenceUsage:  true, // Don't show usage on errors
		SilenceErrors: true, // We handle errors ourselves for proper exit codes
	}

	verbose, json, config := shared.RegisterFlagPointers()

	cmd.PersistentFlags().BoolVarP(verbose, "verbose", "v", false, "Enable debug logging")
	cmd.PersistentFlags().BoolVar(json, "json", false, "Log and print in JSON format")
	cmd.PersistentFlags().StringVar(config, "config", "", "Path to config file (default: ~/.config/conductor-slack/config.yaml)")

	return cmd
}

// GetVersion returns version information
func GetVersion() (string, string, string) {
	return shared.GetVersion()
}

// HandleExitError handles exit errors with proper exit codes
func HandleExitError(err error) {
	shared.HandleExitError(err)
}
