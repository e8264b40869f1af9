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

package shared

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExitCode(t *testing.T) {
	cause := errors.New("boom")

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"plain error", cause, ExitExecutionFailed},
		{"execution", NewExecutionError("run failed", cause), ExitExecutionFailed},
		{"invalid input", NewInvalidInputError("bad param", cause), ExitInvalidInput},
		{"credential", NewCredentialError("no token", cause), ExitCredentialError},
		{"wrapped", fmt.Errorf("outer: %w", NewCredentialError("no token", nil)), ExitCredentialError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExitCode(tt.err))
		})
	}
}

func TestExitError(t *testing.T) {
	cause := errors.New("boom")

	err := NewInvalidInputError("bad param", cause)
	assert.Equal(t, "bad param: boom", err.Error())
	assert.ErrorIs(t, err, cause)

	assert.Equal(t, "bad param", NewInvalidInputError("bad param", nil).Error())
}

func TestPrintError(t *testing.T) {
	var buf bytes.Buffer
	printError(&buf, NewExecutionError("slack node failed", errors.New("item 1: channel_not_found")))
	assert.Equal(t, "Error: slack node failed: item 1: channel_not_found\n", buf.String())
}
