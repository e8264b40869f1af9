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

package describe

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/tombee/conductor-slack/internal/commands/shared"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestDescribe_YAML(t *testing.T) {
	out, err := execute(t)
	require.NoError(t, err)

	var doc struct {
		Node struct {
			Name       string `yaml:"name"`
			Properties []struct {
				Name string `yaml:"name"`
			} `yaml:"properties"`
		} `yaml:"node"`
		Credentials []struct {
			Name string `yaml:"name"`
			Test struct {
				URL    string `yaml:"url"`
				Method string `yaml:"method"`
			} `yaml:"test"`
		} `yaml:"credentials"`
	}
	require.NoError(t, yaml.Unmarshal([]byte(out), &doc))

	assert.Equal(t, "slack", doc.Node.Name)
	require.NotEmpty(t, doc.Node.Properties)
	assert.Equal(t, "resource", doc.Node.Properties[0].Name)

	require.Len(t, doc.Credentials, 1)
	assert.Equal(t, "slackApi", doc.Credentials[0].Name)
	assert.Equal(t, "POST", doc.Credentials[0].Test.Method)
}

func TestDescribe_JSON(t *testing.T) {
	out, err := execute(t, "--format", "json")
	require.NoError(t, err)

	var doc Document
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Equal(t, "Slack", doc.Node.DisplayName)
	assert.Equal(t, []string{"main"}, doc.Node.Outputs)
	assert.Equal(t, "Slack API", doc.Credentials[0].DisplayName)
}

func TestDescribe_UnknownFormat(t *testing.T) {
	_, err := execute(t, "--format", "toml")
	require.Error(t, err)
	assert.Equal(t, shared.ExitInvalidInput, shared.ExitCode(err))
}
