package slack

import (
	"encoding/json"
	"fmt"

	slackgo "github.com/slack-go/slack"

	"github.com/tombee/conductor-slack/internal/operation/transport"
)

// CheckAuthTest verifies an auth.test response and returns the identity it reports.
func CheckAuthTest(resp *transport.Response) (any, error) {
	if err := ParseError(resp); err != nil {
		return nil, err
	}

	var auth slackgo.AuthTestResponse
	if err := json.Unmarshal(resp.Body, &auth); err != nil {
		return nil, &SlackError{
			ErrorCode:  "parse_error",
			Message:    fmt.Sprintf("failed to parse auth.test response: %v", err),
			StatusCode: resp.StatusCode,
			Cause:      err,
		}
	}
	if auth.UserID == "" && auth.TeamID == "" {
		return nil, &SlackError{ErrorCode: "invalid_auth", Message: "auth.test returned no identity", StatusCode: resp.StatusCode}
	}
	return &auth, nil
}
