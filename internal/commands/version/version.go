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

package version

import (
	"encoding/json"
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/tombee/conductor-slack/internal/commands/shared"
	"github.com/tombee/conductor-slack/internal/credential"
	"github.com/tombee/conductor-slack/internal/integration/slack"
)

// VersionInfo contains build metadata and the node and credential types this
// binary provides.
type VersionInfo struct {
	Version     string   `json:"version"`
	Commit      string   `json:"commit"`
	BuildDate   string   `json:"build_date"`
	GoVersion   string   `json:"go_version"`
	Node        string   `json:"node"`
	NodeVersion int      `json:"node_version"`
	Credentials []string `json:"credentials"`
}

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long: `Display version, commit hash and build date for conductor-slack, along
with the node and credential types it provides.`,
		Args: cobra.NoArgs,
		RunE: runVersion,
	}

	return cmd
}

func collect() VersionInfo {
	v, c, b := shared.GetVersion()
	desc := slack.New(slack.Config{}).Description()

	return VersionInfo{
		Version:     v,
		Commit:      c,
		BuildDate:   b,
		GoVersion:   runtime.Version(),
		Node:        desc.Name,
		NodeVersion: desc.Version,
		Credentials: credential.NewRegistry(credential.NewSlackAPI("")).Names(),
	}
}

func runVersion(cmd *cobra.Command, args []string) error {
	info := collect()

	if shared.GetJSON() {
		data, err := json.MarshalIndent(info, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal version info: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Printf("conductor-slack version %s\n", info.Version)
	cmd.Printf("  commit:      %s\n", info.Commit)
	cmd.Printf("  build date:  %s\n", info.BuildDate)
	cmd.Printf("  go:          %s\n", info.GoVersion)
	cmd.Printf("  node:        %s v%d\n", info.Node, info.NodeVersion)
	for _, name := range info.Credentials {
		cmd.Printf("  credential:  %s\n", name)
	}

	return nil
}
