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
Package secrets stores and resolves credential fields.

Secrets are addressed by slash-separated keys such as
"credentials/slackApi/botToken" and resolved through a priority-ordered chain
of backends:

	env      - environment variables (CONDUCTOR_SLACK_SECRET_*, plus aliases like SLACK_BOT_TOKEN)
	keychain - OS keychain (macOS Keychain, Linux Secret Service, Windows Credential Manager)

The env backend is read-only and always wins, so a token exported in the
shell overrides one saved in the keychain.

# Usage

	resolver := secrets.NewResolver(
	    secrets.NewEnvBackend(aliases),
	    secrets.NewKeychainBackend(""),
	)

	token, err := resolver.Get(ctx, "credentials/slackApi/botToken")
	if errors.Is(err, secrets.ErrSecretNotFound) {
	    // prompt the user to run "conductor-slack credentials set"
	}

Values are never logged.
*/
package secrets
