// Package slack implements the Slack node: it maps a resource and operation
// onto one Slack Web API call per input item and reshapes the responses into
// output items.
package slack

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tombee/conductor-slack/internal/credential"
	"github.com/tombee/conductor-slack/internal/jq"
	"github.com/tombee/conductor-slack/internal/node"
)

const tracerName = "github.com/tombee/conductor-slack/internal/integration/slack"

// Config configures the Slack node.
type Config struct {
	// BaseURL is the Web API root. Defaults to https://slack.com/api.
	BaseURL string

	// Tracer records one span per item. Defaults to the global tracer provider.
	Tracer trace.Tracer

	// FailOnAPIError turns an "ok": false body into a SlackError. When unset
	// such bodies are reshaped and emitted like any other response.
	FailOnAPIError bool
}

// Node is the Slack node.
type Node struct {
	baseURL        string
	jq             *jq.Executor
	tracer         trace.Tracer
	failOnAPIError bool
}

var _ node.Node = (*Node)(nil)

// New creates the Slack node.
func New(cfg Config) *Node {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = credential.DefaultSlackBaseURL
	}
	tracer := cfg.Tracer
	if tracer == nil {
		tracer = otel.Tracer(tracerName)
	}
	return &Node{
		baseURL:        strings.TrimRight(baseURL, "/"),
		jq:             jq.NewExecutor(0, jq.NoInputLimit),
		tracer:         tracer,
		failOnAPIError: cfg.FailOnAPIError,
	}
}

// Execute runs the selected operation once per input item, in order.
//
// resource and operation are read from item 0 and apply to the whole batch; a
// pair without a route fails before any item is processed. A failing item
// either becomes an {"error": ...} item (continue on fail) or aborts the batch.
func (n *Node) Execute(ctx context.Context, ef node.ExecuteFunctions) ([][]node.Item, error) {
	resource, err := node.StringParameter(ef, ParamResource, 0)
	if err != nil {
		return nil, err
	}
	operation, err := node.StringParameter(ef, ParamOperation, 0)
	if err != nil {
		return nil, err
	}

	key := routeKey{Resource(resource), Operation(operation)}
	rt, err := lookupRoute(key.resource, key.operation)
	if err != nil {
		return nil, err
	}

	items := ef.InputData()
	logger := ef.Logger().With("resource", resource, "operation", operation)
	logger.Debug("executing slack node", "items", len(items))

	out := make([]node.Item, 0, len(items))
	for i := range items {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		results, err := n.executeItem(ctx, ef, key, rt, i)
		if err != nil {
			if ef.ContinueOnFail() {
				logger.Warn("item failed, continuing", "item", i, "error", err)
				out = append(out, node.ErrorItem(err, i))
				continue
			}
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		out = append(out, results...)
	}

	logger.Debug("slack node finished", "outputs", len(out))
	return [][]node.Item{out}, nil
}

// executeItem performs the call for one input item and returns its output items.
func (n *Node) executeItem(ctx context.Context, ef node.ExecuteFunctions, key routeKey, rt route, index int) ([]node.Item, error) {
	ctx, span := n.tracer.Start(ctx, "slack."+key.String(),
		trace.WithAttributes(
			attribute.String("slack.resource", string(key.resource)),
			attribute.String("slack.operation", string(key.operation)),
			attribute.String("slack.api_method", rt.apiMethod),
			attribute.Int("item.index", index),
		),
	)
	defer span.End()

	items, err := n.call(ctx, ef, key, rt, index)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("item.outputs", len(items)))
	span.SetStatus(codes.Ok, "")
	return items, nil
}

func (n *Node) call(ctx context.Context, ef node.ExecuteFunctions, key routeKey, rt route, index int) ([]node.Item, error) {
	req, err := n.buildRequest(ef, key, rt, index)
	if err != nil {
		return nil, err
	}

	resp, err := ef.RequestWithAuthentication(ctx, credential.SlackAPIName, req)
	if err != nil {
		return nil, err
	}

	data, err := decodeResponse(resp)
	if err != nil {
		return nil, err
	}
	if n.failOnAPIError {
		if err := ParseError(resp); err != nil {
			return nil, err
		}
	}

	result, err := n.jq.Run(ctx, rt.unwrap, data)
	if err != nil {
		return nil, fmt.Errorf("reshaping %s response: %w", rt.apiMethod, err)
	}

	return toItems(result, index), nil
}

// toItems fans a list out into one item per element; anything else is a single item.
func toItems(result any, index int) []node.Item {
	list, ok := result.([]any)
	if !ok {
		return []node.Item{node.NewItem(result, index)}
	}
	items := make([]node.Item, 0, len(list))
	for _, v := range list {
		items = append(items, node.NewItem(v, index))
	}
	return items
}
