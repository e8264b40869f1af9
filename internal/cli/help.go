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
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/tombee/conductor-slack/internal/commands/shared"
)

// CommandInfo describes a command in machine-readable help.
type CommandInfo struct {
	Name        string     `json:"name"`
	Short       string     `json:"short"`
	Long        string     `json:"long,omitempty"`
	Usage       string     `json:"usage"`
	Group       string     `json:"group,omitempty"`
	Flags       []FlagInfo `json:"flags,omitempty"`
	Subcommands []string   `json:"subcommands,omitempty"`
}

// FlagInfo describes a flag in machine-readable help.
type FlagInfo struct {
	Name      string `json:"name"`
	Shorthand string `json:"shorthand,omitempty"`
	Type      string `json:"type"`
	Usage     string `json:"usage"`
	Default   string `json:"default,omitempty"`
}

// HelpResponse is the JSON help output.
type HelpResponse struct {
	Commands    []CommandInfo `json:"commands,omitempty"`
	Command     *CommandInfo  `json:"command,omitempty"`
	GlobalFlags []FlagInfo    `json:"global_flags"`
}

// NewHelpCommand creates a help command that also renders JSON.
func NewHelpCommand(rootCmd *cobra.Command) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "help [command]",
		Short: "Help about any command",
		Long: `Help provides detailed information about commands and their usage.

Use --json for machine-readable output.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			useJSON := shared.GetJSON() || jsonOutput

			if len(args) == 0 {
				if !useJSON {
					return rootCmd.Help()
				}
				resp := HelpResponse{Commands: []CommandInfo{}, GlobalFlags: flagInfo(rootCmd.PersistentFlags())}
				for _, c := range rootCmd.Commands() {
					if !c.Hidden {
						resp.Commands = append(resp.Commands, commandInfo(c))
					}
				}
				return writeHelp(cmd.OutOrStdout(), resp)
			}

			target, _, err := rootCmd.Find(args)
			if err != nil || target == rootCmd {
				return fmt.Errorf("command %q not found", args[0])
			}
			if !useJSON {
				return target.Help()
			}

			info := commandInfo(target)
			return writeHelp(cmd.OutOrStdout(), HelpResponse{
				Command:     &info,
				GlobalFlags: flagInfo(rootCmd.PersistentFlags()),
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")

	return cmd
}

func writeHelp(w io.Writer, resp HelpResponse) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(resp)
}

func commandInfo(cmd *cobra.Command) CommandInfo {
	info := CommandInfo{
		Name:  cmd.Name(),
		Short: cmd.Short,
		Long:  cmd.Long,
		Usage: cmd.UseLine(),
		Group: cmd.Annotations["group"],
		Flags: flagInfo(cmd.LocalNonPersistentFlags()),
	}
	for _, sub := range cmd.Commands() {
		if !sub.Hidden {
			info.Subcommands = append(info.Subcommands, sub.Name())
		}
	}
	return info
}

func flagInfo(fs *pflag.FlagSet) []FlagInfo {
	flags := []FlagInfo{}
	fs.VisitAll(func(f *pflag.Flag) {
		if f.Hidden || f.Name == "help" {
			return
		}
		flags = append(flags, FlagInfo{
			Name:      f.Name,
			Shorthand: f.Shorthand,
			Type:      f.Value.Type(),
			Usage:     f.Usage,
			Default:   f.DefValue,
		})
	})
	return flags
}
