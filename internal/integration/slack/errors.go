package slack

import (
	"encoding/json"
	"fmt"

	slackgo "github.com/slack-go/slack"

	"github.com/tombee/conductor-slack/internal/operation/transport"
)

// SlackError is a Slack Web API error: an explicit "ok": false body or an unreadable one.
type SlackError struct {
	ErrorCode  string
	Message    string
	StatusCode int
	Cause      error
}

// Error implements the error interface.
func (e *SlackError) Error() string {
	msg := fmt.Sprintf("Slack API error: %s", e.ErrorCode)

	if suggestion := getErrorSuggestion(e.ErrorCode); suggestion != "" {
		msg += fmt.Sprintf(" - %s", suggestion)
	}

	if e.Message != "" && e.Message != e.ErrorCode {
		msg += fmt.Sprintf(" (%s)", e.Message)
	}

	return msg
}

// Unwrap returns the underlying slack-go error response or decode error.
func (e *SlackError) Unwrap() error {
	return e.Cause
}

// envelope is the part of every Web API response that signals failure.
// OK is a pointer so bodies without the field pass through.
type envelope struct {
	OK       *bool                    `json:"ok"`
	Error    string                   `json:"error"`
	Metadata slackgo.ResponseMetadata `json:"response_metadata"`
}

// decodeResponse decodes a successful transport response. An "ok": false body
// decodes like any other object.
func decodeResponse(resp *transport.Response) (any, error) {
	if len(resp.Body) == 0 {
		return map[string]any{}, nil
	}

	var data any
	if err := json.Unmarshal(resp.Body, &data); err != nil {
		return nil, &SlackError{
			ErrorCode:  "parse_error",
			Message:    fmt.Sprintf("failed to parse response: %v", err),
			StatusCode: resp.StatusCode,
			Cause:      err,
		}
	}
	return data, nil
}

// ParseError returns a SlackError when the body carries "ok": false.
func ParseError(resp *transport.Response) error {
	var env envelope
	if err := json.Unmarshal(resp.Body, &env); err != nil {
		// Non-object bodies carry no envelope
		return nil
	}

	if env.OK == nil || *env.OK {
		return nil
	}

	code := env.Error
	if code == "" {
		code = "unknown_error"
	}
	return &SlackError{
		ErrorCode:  code,
		Message:    code,
		StatusCode: resp.StatusCode,
		Cause:      slackgo.SlackErrorResponse{Err: code, ResponseMetadata: env.Metadata},
	}
}

// getErrorSuggestion returns a helpful suggestion for common Slack errors.
func getErrorSuggestion(errorCode string) string {
	suggestions := map[string]string{
		"channel_not_found":    "Channel does not exist or bot is not a member",
		"not_in_channel":       "Bot is not in the specified channel. Invite the bot first",
		"invalid_auth":         "Token is invalid or has been revoked",
		"not_authed":           "No authentication token provided",
		"token_revoked":        "Token has been revoked. Generate a new token",
		"token_expired":        "Token has expired. Refresh or generate a new token",
		"account_inactive":     "Authentication token is for a deleted user or workspace",
		"missing_scope":        "Token does not have the required scope. Check bot permissions",
		"ratelimited":          "Too many requests. Slow down API calls",
		"cant_update_message":  "Cannot update message. It may be too old or you lack permissions",
		"message_not_found":    "Message does not exist or has been deleted",
		"cant_delete_message":  "Cannot delete message. Check permissions",
		"edit_window_closed":   "The message can no longer be edited",
		"name_taken":           "Channel name is already in use",
		"no_channel":           "Channel parameter is required",
		"invalid_name":         "Channel name is invalid. Must be lowercase, no spaces",
		"invalid_limit":        "Limit must be between 1 and 1000",
		"is_archived":          "Channel is archived. Unarchive it first",
		"already_archived":     "Channel is already archived",
		"cant_archive_general": "The general channel cannot be archived",
		"no_text":              "Message text is required",
		"msg_too_long":         "Message text is too long",
		"parse_error":          "Response was not valid JSON",
	}

	return suggestions[errorCode]
}
