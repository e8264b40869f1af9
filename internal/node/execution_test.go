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

package node

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tombee/conductor-slack/internal/operation/transport"
)

func testDescription() Description {
	return Description{
		Name: "test",
		Properties: []Property{
			{Name: "channel", Type: TypeString, Default: "", Required: true},
			{Name: "text", Type: TypeString, Default: ""},
			{Name: "limit", Type: TypeNumber, Default: 100},
		},
	}
}

func TestExecution_Parameter(t *testing.T) {
	items := []Item{
		{JSON: map[string]any{"channel": "C1", "n": 5}},
		{JSON: map[string]any{"channel": "C2", "n": "7"}},
	}

	tests := []struct {
		name    string
		params  map[string]any
		param   string
		index   int
		want    any
		wantErr bool
	}{
		{name: "literal", params: map[string]any{"channel": "C9"}, param: "channel", index: 1, want: "C9"},
		{name: "expression per item", params: map[string]any{"channel": "={{ json.channel }}"}, param: "channel", index: 1, want: "C2"},
		{name: "default", params: nil, param: "limit", index: 0, want: 100},
		{name: "undeclared missing", params: nil, param: "other", index: 0, want: nil},
		{name: "optional empty", params: nil, param: "text", index: 0, want: ""},
		{name: "required missing", params: nil, param: "channel", index: 0, wantErr: true},
		{name: "required empty string", params: map[string]any{"channel": ""}, param: "channel", index: 0, wantErr: true},
		{name: "required expression resolves to nil", params: map[string]any{"channel": "={{ json.missing }}"}, param: "channel", index: 0, wantErr: true},
		{name: "bad expression", params: map[string]any{"text": "={{ json. }}"}, param: "text", index: 0, wantErr: true},
		{name: "index outside batch sees empty item", params: map[string]any{"text": "=x{{ json }}"}, param: "text", index: 5, want: "x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ex := NewExecution(ExecutionConfig{Description: testDescription(), Parameters: tt.params, Items: items})
			got, err := ex.Parameter(tt.param, tt.index)
			if tt.wantErr {
				var pe *ParameterError
				require.ErrorAs(t, err, &pe)
				assert.Equal(t, tt.param, pe.Parameter)
				assert.Equal(t, tt.index, pe.Index)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStringParameter(t *testing.T) {
	ex := NewExecution(ExecutionConfig{
		Description: testDescription(),
		Parameters: map[string]any{
			"text":  "={{ json.n }}",
			"limit": map[string]any{"a": 1},
		},
		Items: []Item{{JSON: map[string]any{"n": 1.5}}},
	})

	s, err := StringParameter(ex, "text", 0)
	require.NoError(t, err)
	assert.Equal(t, "1.5", s)

	_, err = StringParameter(ex, "limit", 0)
	var pe *ParameterError
	require.ErrorAs(t, err, &pe)
	assert.Contains(t, pe.Error(), "expected string")
}

func TestNumberParameter(t *testing.T) {
	items := []Item{
		{JSON: map[string]any{"n": 5}},
		{JSON: map[string]any{"n": " 7 "}},
		{JSON: map[string]any{"n": "seven"}},
	}
	ex := NewExecution(ExecutionConfig{
		Description: testDescription(),
		Parameters:  map[string]any{"limit": "={{ json.n }}"},
		Items:       items,
	})

	n, err := NumberParameter(ex, "limit", 0)
	require.NoError(t, err)
	assert.Equal(t, 5.0, n)

	n, err = NumberParameter(ex, "limit", 1)
	require.NoError(t, err)
	assert.Equal(t, 7.0, n)

	_, err = NumberParameter(ex, "limit", 2)
	var pe *ParameterError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, 2, pe.Index)

	def := NewExecution(ExecutionConfig{Description: testDescription()})
	n, err = NumberParameter(def, "limit", 0)
	require.NoError(t, err)
	assert.Equal(t, 100.0, n)
}

type stubRequester struct {
	credentialType string
}

func (s *stubRequester) RequestWithAuthentication(_ context.Context, credentialType string, _ *transport.Request) (*transport.Response, error) {
	s.credentialType = credentialType
	return &transport.Response{StatusCode: 200}, nil
}

func TestExecution_RequestWithAuthentication(t *testing.T) {
	req := &transport.Request{Method: "GET", URL: "https://example.com"}

	ex := NewExecution(ExecutionConfig{})
	_, err := ex.RequestWithAuthentication(context.Background(), "slackApi", req)
	require.Error(t, err)

	stub := &stubRequester{}
	ex = NewExecution(ExecutionConfig{Requester: stub, Settings: Settings{ContinueOnFail: true}})
	resp, err := ex.RequestWithAuthentication(context.Background(), "slackApi", req)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "slackApi", stub.credentialType)
	assert.True(t, ex.ContinueOnFail())
	assert.NotNil(t, ex.Logger())
}

func TestItems(t *testing.T) {
	item := NewItem(map[string]any{"ok": true}, 3)
	require.NotNil(t, item.PairedItem)
	assert.Equal(t, 3, item.PairedItem.Item)

	errItem := ErrorItem(errors.New("boom"), 1)
	assert.Equal(t, map[string]any{"error": "boom"}, errItem.JSON)
	assert.Equal(t, 1, errItem.PairedItem.Item)
}

func TestProperty_Visible(t *testing.T) {
	p := Property{
		Name: "ts",
		DisplayOptions: &DisplayOptions{Show: map[string][]string{
			"resource":  {"message"},
			"operation": {"get", "update", "delete"},
		}},
	}
	assert.True(t, p.Visible(map[string]string{"resource": "message", "operation": "get"}))
	assert.False(t, p.Visible(map[string]string{"resource": "message", "operation": "create"}))
	assert.False(t, p.Visible(map[string]string{"operation": "get"}))
	assert.True(t, Property{Name: "x"}.Visible(nil))
}

func TestIsErrorItem(t *testing.T) {
	assert.True(t, IsErrorItem(ErrorItem(errors.New("x"), 0)))
	assert.False(t, IsErrorItem(NewItem(map[string]any{"error": "x", "ok": false}, 0)))
	assert.False(t, IsErrorItem(NewItem("error", 0)))
	assert.False(t, IsErrorItem(NewItem(nil, 0)))
}
