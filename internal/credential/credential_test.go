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

package credential

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tombee/conductor-slack/internal/operation/transport"
)

func TestSlackAPI_Authenticate(t *testing.T) {
	tests := []struct {
		name       string
		data       Data
		wantHeader string
		wantErr    error
	}{
		{
			name:       "bearer header",
			data:       Data{SlackBotTokenField: "xoxb-123"},
			wantHeader: "Bearer xoxb-123",
		},
		{
			name:    "missing token",
			data:    Data{},
			wantErr: ErrMissingField,
		},
		{
			name:    "blank token",
			data:    Data{SlackBotTokenField: "  "},
			wantErr: ErrMissingField,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := &transport.Request{Method: "GET", URL: "https://slack.com/api/conversations.list"}
			err := NewSlackAPI("").Authenticate(tt.data, req)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, req.Headers["Authorization"])
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantHeader, req.Headers["Authorization"])
		})
	}
}

func TestSlackAPI_TestRequest(t *testing.T) {
	req := NewSlackAPI("").TestRequest()
	assert.Equal(t, "POST", req.Method)
	assert.Equal(t, "https://slack.com/api/auth.test", req.URL)

	req = NewSlackAPI("http://127.0.0.1:9999/api/").TestRequest()
	assert.Equal(t, "http://127.0.0.1:9999/api/auth.test", req.URL)
}

func TestSlackAPI_Describe(t *testing.T) {
	d := NewSlackAPI("").Describe()
	assert.Equal(t, "slackApi", d.Name)
	assert.Equal(t, "Slack API", d.DisplayName)
	assert.Equal(t, "https://api.slack.com/", d.DocumentationURL)
	require.Len(t, d.Properties, 1)
	assert.Equal(t, "botToken", d.Properties[0].Name)
	require.NotNil(t, d.Properties[0].TypeOptions)
	assert.True(t, d.Properties[0].TypeOptions.Password)
	assert.Equal(t, []string{"botToken"}, Fields(NewSlackAPI("")))
}

func TestRegistry(t *testing.T) {
	r := NewRegistry(NewSlackAPI(""))

	typ, err := r.Get("slackApi")
	require.NoError(t, err)
	assert.Equal(t, "slackApi", typ.Name())

	_, err = r.Get("githubApi")
	assert.ErrorIs(t, err, ErrUnknownType)

	assert.Equal(t, []string{"slackApi"}, r.Names())
	assert.Equal(t, "credentials/slackApi/botToken", SecretKey("slackApi", "botToken"))
}
