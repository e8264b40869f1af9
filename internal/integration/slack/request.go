package slack

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/tombee/conductor-slack/internal/node"
	"github.com/tombee/conductor-slack/internal/operation/transport"
)

// buildRequest resolves the route's parameters for item index and builds the request.
// Every parameter is resolved before anything is sent, so a missing one fails the item early.
func (n *Node) buildRequest(ef node.ExecuteFunctions, key routeKey, rt route, index int) (*transport.Request, error) {
	req := &transport.Request{
		Method:   rt.method,
		URL:      n.baseURL + "/" + rt.apiMethod,
		Metadata: map[string]interface{}{transport.MetadataOperation: key.String()},
	}

	if len(rt.query) > 0 || len(rt.fixed) > 0 {
		q := url.Values{}
		for _, f := range rt.query {
			v, err := resolveField(ef, f, index)
			if err != nil {
				return nil, err
			}
			q.Set(f.key, fmt.Sprint(v))
		}
		for k, v := range rt.fixed {
			q.Set(k, v)
		}
		req.URL += "?" + q.Encode()
	}

	if len(rt.body) > 0 {
		body := make(map[string]any, len(rt.body))
		for _, f := range rt.body {
			v, err := resolveField(ef, f, index)
			if err != nil {
				return nil, err
			}
			body[f.key] = v
		}
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}
		req.Body = data
		req.SetHeader("Content-Type", "application/json")
	}

	return req, nil
}

// resolveField reads one parameter. Numbers are rendered without a trailing fraction.
func resolveField(ef node.ExecuteFunctions, f field, index int) (any, error) {
	if f.number {
		v, err := node.NumberParameter(ef, f.param, index)
		if err != nil {
			return nil, err
		}
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	}
	return node.StringParameter(ef, f.param, index)
}
