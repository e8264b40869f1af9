package slack

import (
	"github.com/tombee/conductor-slack/internal/credential"
	"github.com/tombee/conductor-slack/internal/node"
)

// Parameter names.
const (
	ParamResource    = "resource"
	ParamOperation   = "operation"
	ParamChannel     = "channel"
	ParamText        = "text"
	ParamTS          = "ts"
	ParamChannelID   = "channelId"
	ParamChannelName = "channelName"
	ParamLimit       = "limit"
)

// DefaultLimit is the page size for getMany operations.
const DefaultLimit = 100

func show(resources []string, operations []string) *node.DisplayOptions {
	s := map[string][]string{}
	if len(resources) > 0 {
		s[ParamResource] = resources
	}
	if len(operations) > 0 {
		s[ParamOperation] = operations
	}
	return &node.DisplayOptions{Show: s}
}

// Description returns the Slack node declaration.
func (n *Node) Description() node.Description {
	return node.Description{
		DisplayName: "Slack",
		Name:        "slack",
		Icon:        "file:slack.svg",
		Group:       []string{"communication"},
		Version:     1,
		Description: "Consume Slack API",
		Defaults:    map[string]any{"name": "Slack"},
		Inputs:      []string{node.MainOutput},
		Outputs:     []string{node.MainOutput},
		Credentials: []node.CredentialUsage{{Name: credential.SlackAPIName, Required: true}},
		Properties: []node.Property{
			{
				DisplayName:      "Resource",
				Name:             ParamResource,
				Type:             node.TypeOptionList,
				NoDataExpression: true,
				Options: []node.Option{
					{Name: "Channel", Value: string(ResourceChannel)},
					{Name: "Message", Value: string(ResourceMessage)},
					{Name: "User", Value: string(ResourceUser)},
				},
				Default: string(ResourceMessage),
			},
			{
				DisplayName:      "Operation",
				Name:             ParamOperation,
				Type:             node.TypeOptionList,
				NoDataExpression: true,
				DisplayOptions:   show([]string{string(ResourceMessage)}, nil),
				Options: []node.Option{
					{Name: "Create", Value: string(OperationCreate), Description: "Send a message to a channel", Action: "Send a message"},
					{Name: "Delete", Value: string(OperationDelete), Description: "Delete a message", Action: "Delete a message"},
					{Name: "Get", Value: string(OperationGet), Description: "Get a message", Action: "Get a message"},
					{Name: "Get Many", Value: string(OperationGetMany), Description: "Get many messages from a channel", Action: "Get many messages"},
					{Name: "Update", Value: string(OperationUpdate), Description: "Update a message", Action: "Update a message"},
				},
				Default: string(OperationCreate),
			},
			{
				DisplayName:      "Operation",
				Name:             ParamOperation,
				Type:             node.TypeOptionList,
				NoDataExpression: true,
				DisplayOptions:   show([]string{string(ResourceChannel)}, nil),
				Options: []node.Option{
					{Name: "Create", Value: string(OperationCreate), Description: "Create a new channel", Action: "Create a channel"},
					{Name: "Get", Value: string(OperationGet), Description: "Get information about a channel", Action: "Get a channel"},
					{Name: "Get Many", Value: string(OperationGetMany), Description: "Get many channels", Action: "Get many channels"},
					{Name: "Update", Value: string(OperationUpdate), Description: "Update a channel", Action: "Update a channel"},
					{Name: "Archive", Value: string(OperationDelete), Description: "Archive a channel", Action: "Archive a channel"},
				},
				Default: string(OperationCreate),
			},
			{
				DisplayName:    "Channel",
				Name:           ParamChannel,
				Type:           node.TypeString,
				Required:       true,
				DisplayOptions: show([]string{string(ResourceMessage)}, []string{"create", "get", "getMany", "update", "delete"}),
				Default:        "",
				Description:    "The channel to send the message to",
			},
			{
				DisplayName:    "Text",
				Name:           ParamText,
				Type:           node.TypeString,
				Required:       true,
				DisplayOptions: show([]string{string(ResourceMessage)}, []string{"create", "update"}),
				Default:        "",
				Description:    "The message text",
			},
			{
				DisplayName:    "Message Timestamp",
				Name:           ParamTS,
				Type:           node.TypeString,
				Required:       true,
				DisplayOptions: show([]string{string(ResourceMessage)}, []string{"delete", "get", "update"}),
				Default:        "",
				Description:    "The timestamp of the message",
			},
			{
				DisplayName:    "Channel ID",
				Name:           ParamChannelID,
				Type:           node.TypeString,
				Required:       true,
				DisplayOptions: show([]string{string(ResourceChannel)}, []string{"get", "update", "delete"}),
				Default:        "",
				Description:    "The ID of the channel",
			},
			{
				DisplayName:    "Channel Name",
				Name:           ParamChannelName,
				Type:           node.TypeString,
				Required:       true,
				DisplayOptions: show([]string{string(ResourceChannel)}, []string{"create"}),
				Default:        "",
				Description:    "The name of the channel to create",
			},
			{
				DisplayName:    "Limit",
				Name:           ParamLimit,
				Type:           node.TypeNumber,
				TypeOptions:    &node.TypeOptions{MinValue: node.Float(1), MaxValue: node.Float(1000)},
				DisplayOptions: show(nil, []string{"getMany"}),
				Default:        DefaultLimit,
				Description:    "Max number of results to return",
			},
		},
	}
}
