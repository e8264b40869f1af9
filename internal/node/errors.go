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
	"fmt"
)

// ParameterError is returned when a parameter is missing or has the wrong type.
type ParameterError struct {
	Parameter string
	Index     int
	Message   string
	Cause     error
}

// Error implements the error interface.
func (e *ParameterError) Error() string {
	msg := fmt.Sprintf("parameter %q (item %d): %s", e.Parameter, e.Index, e.Message)
	if e.Cause != nil {
		msg += fmt.Sprintf(": %v", e.Cause)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *ParameterError) Unwrap() error {
	return e.Cause
}
