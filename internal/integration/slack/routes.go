package slack

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/tombee/conductor-slack/internal/jq"
)

// ErrUnsupportedOperation is returned for a resource/operation pair with no route.
var ErrUnsupportedOperation = errors.New("unsupported operation")

// Resource selects the Slack object a node run works on.
type Resource string

const (
	ResourceChannel Resource = "channel"
	ResourceMessage Resource = "message"
	ResourceUser    Resource = "user"
)

// Operation selects what is done to the resource.
type Operation string

const (
	OperationCreate  Operation = "create"
	OperationGet     Operation = "get"
	OperationGetMany Operation = "getMany"
	OperationUpdate  Operation = "update"
	OperationDelete  Operation = "delete"
)

// routeKey identifies a route.
type routeKey struct {
	resource  Resource
	operation Operation
}

func (k routeKey) String() string {
	return string(k.resource) + "." + string(k.operation)
}

// field maps a node parameter onto a query or body key.
type field struct {
	key    string
	param  string
	number bool
}

// route is one Slack Web API call.
type route struct {
	method    string
	apiMethod string
	query     []field
	fixed     map[string]string
	body      []field
	unwrap    *jq.Query
}

var (
	unwrapFirstMessage = jq.MustCompile(`if ((.messages // []) | length) > 0 then .messages[0] else . end`)
	unwrapMessages     = jq.MustCompile(`.messages // []`)
	unwrapChannel      = jq.MustCompile(`.channel`)
	unwrapChannels     = jq.MustCompile(`.channels // []`)
)

// routes is the dispatch table. channel.update is declared in the description
// but has no Slack call behind it.
var routes = map[routeKey]route{
	{ResourceMessage, OperationCreate}: {
		method:    http.MethodPost,
		apiMethod: "chat.postMessage",
		body:      []field{{key: "channel", param: "channel"}, {key: "text", param: "text"}},
	},
	{ResourceMessage, OperationGet}: {
		method:    http.MethodGet,
		apiMethod: "conversations.history",
		query:     []field{{key: "channel", param: "channel"}, {key: "latest", param: "ts"}},
		fixed:     map[string]string{"limit": "1", "inclusive": "true"},
		unwrap:    unwrapFirstMessage,
	},
	{ResourceMessage, OperationGetMany}: {
		method:    http.MethodGet,
		apiMethod: "conversations.history",
		query:     []field{{key: "channel", param: "channel"}, {key: "limit", param: "limit", number: true}},
		unwrap:    unwrapMessages,
	},
	{ResourceMessage, OperationUpdate}: {
		method:    http.MethodPost,
		apiMethod: "chat.update",
		body:      []field{{key: "channel", param: "channel"}, {key: "ts", param: "ts"}, {key: "text", param: "text"}},
	},
	{ResourceMessage, OperationDelete}: {
		method:    http.MethodPost,
		apiMethod: "chat.delete",
		body:      []field{{key: "channel", param: "channel"}, {key: "ts", param: "ts"}},
	},
	{ResourceChannel, OperationCreate}: {
		method:    http.MethodPost,
		apiMethod: "conversations.create",
		body:      []field{{key: "name", param: "channelName"}},
	},
	{ResourceChannel, OperationGet}: {
		method:    http.MethodGet,
		apiMethod: "conversations.info",
		query:     []field{{key: "channel", param: "channelId"}},
		unwrap:    unwrapChannel,
	},
	{ResourceChannel, OperationGetMany}: {
		method:    http.MethodGet,
		apiMethod: "conversations.list",
		query:     []field{{key: "limit", param: "limit", number: true}},
		unwrap:    unwrapChannels,
	},
	{ResourceChannel, OperationDelete}: {
		method:    http.MethodPost,
		apiMethod: "conversations.archive",
		body:      []field{{key: "channel", param: "channelId"}},
	},
}

// lookupRoute returns the route for a resource/operation pair.
func lookupRoute(resource Resource, operation Operation) (route, error) {
	r, ok := routes[routeKey{resource, operation}]
	if !ok {
		return route{}, fmt.Errorf("%w: %s.%s", ErrUnsupportedOperation, resource, operation)
	}
	return r, nil
}
