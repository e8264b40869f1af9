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

// Package credentials implements the credentials command.
package credentials

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/tombee/conductor-slack/internal/commands/shared"
	"github.com/tombee/conductor-slack/internal/credential"
	"github.com/tombee/conductor-slack/internal/log"
	"github.com/tombee/conductor-slack/internal/secrets"
)

// NewCommand creates the credentials command.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "credentials",
		Short: "Manage the Slack credential",
		Long: `Manage stored credentials.

Credential fields are stored under credentials/<type>/<field> in the secret
store. Backends are tried in priority order:
  1. Environment variables (read-only): CONDUCTOR_SLACK_SECRET_CREDENTIALS_SLACKAPI_BOTTOKEN
     or SLACK_BOT_TOKEN
  2. System keychain (macOS Keychain, Linux Secret Service, Windows Credential Manager)

Commands:
  set       Store a credential
  delete    Remove a stored credential
  list      List stored credential fields
  test      Verify a credential against Slack

The credential type defaults to slackApi.`,
	}

	cmd.AddCommand(newSetCommand())
	cmd.AddCommand(newDeleteCommand())
	cmd.AddCommand(newListCommand())
	cmd.AddCommand(newTestCommand())

	return cmd
}

func newSetCommand() *cobra.Command {
	var backend string

	cmd := &cobra.Command{
		Use:   "set [type]",
		Short: "Store a credential",
		Long: `Store every field of a credential type.

Values are read from an interactive prompt with hidden input, or one per line
from standard input:

  conductor-slack credentials set
  echo "xoxb-..." | conductor-slack credentials set slackApi --backend keychain`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			typ, resolver, err := setup(args)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			in := newReader(cmd)
			stored := make(map[string]string)
			for _, field := range credential.Fields(typ) {
				value, err := in.read(fmt.Sprintf("%s %s (hidden): ", typ.Name(), field))
				if err != nil {
					return fmt.Errorf("failed to read %s: %w", field, err)
				}
				if value == "" {
					return shared.NewInvalidInputError(fmt.Sprintf("%s cannot be empty", field), nil)
				}

				key := credential.SecretKey(typ.Name(), field)
				if err := resolver.Set(ctx, key, value, backend); err != nil {
					if errors.Is(err, secrets.ErrBackendUnavailable) {
						return fmt.Errorf("backend unavailable: %w\n\nTry:\n  1. Use --backend to specify a different backend\n  2. Set environment variable: export %s=<value>", err, secrets.EnvVarName(key))
					}
					return fmt.Errorf("failed to store %s: %w", key, err)
				}
				stored[field] = value
			}

			cmd.Printf("Credential %s stored in %s backend\n", typ.Name(), backendUsed(resolver, backend))
			for _, field := range credential.Fields(typ) {
				cmd.Printf("  %s: %s\n", field, log.SanitizeAPIKey(stored[field]))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&backend, "backend", "", "Target backend (keychain)")

	return cmd
}

func newDeleteCommand() *cobra.Command {
	var backend string

	cmd := &cobra.Command{
		Use:   "delete [type]",
		Short: "Remove a stored credential",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			typ, resolver, err := setup(args)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			for _, field := range credential.Fields(typ) {
				key := credential.SecretKey(typ.Name(), field)
				if err := resolver.Delete(ctx, key, backend); err != nil {
					if errors.Is(err, secrets.ErrSecretNotFound) {
						return shared.NewCredentialError(fmt.Sprintf("credential %s is not stored", typ.Name()), err)
					}
					if errors.Is(err, secrets.ErrReadOnlyBackend) {
						return errors.New("cannot delete from read-only backend (environment variables)")
					}
					return fmt.Errorf("failed to delete %s: %w", key, err)
				}
			}

			cmd.Printf("Credential %s deleted\n", typ.Name())
			return nil
		},
	}

	cmd.Flags().StringVar(&backend, "backend", "", "Target backend (keychain)")

	return cmd
}

func newListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored credential fields",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := shared.LoadConfig()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			metadata, err := shared.NewSecretResolver(cfg).List(ctx)
			if err != nil {
				return fmt.Errorf("failed to list credentials: %w", err)
			}

			if shared.GetJSON() {
				return writeJSON(cmd.OutOrStdout(), metadata)
			}

			if len(metadata) == 0 {
				cmd.Println("No credentials found")
				return nil
			}

			cmd.Printf("%-45s %-10s %s\n", "KEY", "BACKEND", "READ-ONLY")
			cmd.Println(strings.Repeat("-", 70))
			for _, meta := range metadata {
				readOnly := "no"
				if meta.ReadOnly {
					readOnly = "yes"
				}
				cmd.Printf("%-45s %-10s %s\n", meta.Key, meta.Backend, readOnly)
			}
			return nil
		},
	}
}

func newTestCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "test [type]",
		Short: "Verify a credential against Slack",
		Long: `Test sends the credential's test request (auth.test for slackApi) and
prints what Slack reports about the token.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			rt, err := shared.NewRuntime(ctx, shared.WithLogOutput(cmd.ErrOrStderr()), shared.WithSpanOutput(cmd.ErrOrStderr()))
			if err != nil {
				return err
			}
			defer func() {
				if cerr := rt.Close(context.WithoutCancel(ctx)); cerr != nil {
					rt.Logger.Warn("failed to flush telemetry", "error", cerr)
				}
			}()

			name := typeName(args)
			info, err := rt.Host.TestCredential(ctx, name)
			if err != nil {
				return shared.NewCredentialError(fmt.Sprintf("credential %s test failed", name), err)
			}
			return writeJSON(cmd.OutOrStdout(), info)
		},
	}
}

func typeName(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return credential.SlackAPIName
}

func setup(args []string) (credential.Type, *secrets.Resolver, error) {
	cfg, err := shared.LoadConfig()
	if err != nil {
		return nil, nil, err
	}

	typ, err := shared.NewCredentialRegistry(cfg).Get(typeName(args))
	if err != nil {
		return nil, nil, shared.NewInvalidInputError("unknown credential type", err)
	}
	return typ, shared.NewSecretResolver(cfg), nil
}

// backendUsed names the backend a write went to.
func backendUsed(resolver *secrets.Resolver, requested string) string {
	if requested != "" {
		return requested
	}
	for _, b := range resolver.Backends() {
		if ro, ok := b.(secrets.ReadOnlyBackend); !ok || !ro.ReadOnly() {
			return b.Name()
		}
	}
	return "unknown"
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// valueReader reads secret values from a terminal without echo, or one per
// line from anything else.
type valueReader struct {
	prompt io.Writer
	fd     int
	tty    bool
	lines  *bufio.Reader
}

func newReader(cmd *cobra.Command) *valueReader {
	in := cmd.InOrStdin()
	r := &valueReader{prompt: cmd.ErrOrStderr(), lines: bufio.NewReader(in)}
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		r.fd = int(f.Fd())
		r.tty = true
	}
	return r
}

func (r *valueReader) read(prompt string) (string, error) {
	if r.tty {
		fmt.Fprint(r.prompt, prompt)
		b, err := term.ReadPassword(r.fd)
		fmt.Fprintln(r.prompt)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(b)), nil
	}

	line, err := r.lines.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
