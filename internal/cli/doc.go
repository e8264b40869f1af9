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

/*
Package cli provides the root command for conductor-slack.

# Command Tree

	conductor-slack
	├── run           Run the Slack node over a batch of items
	├── describe      Print node and credential descriptions
	├── credentials   Store, delete, list and test the bot token
	├── version       Show version
	└── help          Show help (--json for machine-readable output)

# Usage

From main.go:

	cli.SetVersion(version, commit, date)
	rootCmd := cli.NewRootCommand()
	// ... add commands ...
	if err := rootCmd.Execute(); err != nil {
	    cli.HandleExitError(err)
	}

# Global Flags

	--verbose, -v    Enable debug logging
	--json           Log and print in JSON format
	--config         Path to config file

# Exit Codes

  - 0: Success
  - 1: Node run failed
  - 2: Invalid batch, parameter or configuration
  - 3: Credential missing or rejected
*/
package cli
