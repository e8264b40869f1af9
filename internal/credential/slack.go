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
	"net/http"
	"strings"

	"github.com/tombee/conductor-slack/internal/expression"
	"github.com/tombee/conductor-slack/internal/node"
	"github.com/tombee/conductor-slack/internal/operation/transport"
)

const (
	// SlackAPIName is the credential type name used by the Slack node.
	SlackAPIName = "slackApi"

	// SlackBotTokenField is the stored field holding the bot token.
	SlackBotTokenField = "botToken"

	// DefaultSlackBaseURL is the Slack Web API root.
	DefaultSlackBaseURL = "https://slack.com/api"
)

// SlackAPI is the slackApi credential: a bot token sent as a bearer header.
type SlackAPI struct {
	baseURL string
	eval    *expression.Evaluator
}

// NewSlackAPI creates the slackApi credential type. An empty baseURL selects the public API.
func NewSlackAPI(baseURL string) *SlackAPI {
	if baseURL == "" {
		baseURL = DefaultSlackBaseURL
	}
	return &SlackAPI{
		baseURL: strings.TrimRight(baseURL, "/"),
		eval:    expression.New(),
	}
}

// Name returns "slackApi".
func (s *SlackAPI) Name() string {
	return SlackAPIName
}

// Describe returns the slackApi declaration.
func (s *SlackAPI) Describe() Description {
	return Description{
		Name:             SlackAPIName,
		DisplayName:      "Slack API",
		DocumentationURL: "https://api.slack.com/",
		Properties: []node.Property{
			{
				DisplayName: "Bot User OAuth Token",
				Name:        SlackBotTokenField,
				Type:        node.TypeString,
				TypeOptions: &node.TypeOptions{Password: true},
				Default:     "",
				Description: "Bot User OAuth Token (starts with xoxb-)",
			},
		},
		Authenticate: GenericAuth{
			Headers: map[string]string{
				"Authorization": "=Bearer {{ credentials.botToken }}",
			},
		},
		Test: TestRequestSpec{
			BaseURL: s.baseURL,
			URL:     "/auth.test",
			Method:  http.MethodPost,
		},
	}
}

// Authenticate sets the bearer header.
func (s *SlackAPI) Authenticate(data Data, req *transport.Request) error {
	return s.Describe().Authenticate.Apply(s.eval, data, []string{SlackBotTokenField}, req)
}

// TestRequest returns POST {baseURL}/auth.test.
func (s *SlackAPI) TestRequest() *transport.Request {
	test := s.Describe().Test
	return &transport.Request{
		Method: test.Method,
		URL:    test.BaseURL + test.URL,
	}
}
