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
	"errors"
	"fmt"
	"io"
	"os"
)

// Exit codes.
const (
	ExitSuccess         = 0
	ExitExecutionFailed = 1
	ExitInvalidInput    = 2
	ExitCredentialError = 3
)

// ExitError is an error that carries a process exit code.
type ExitError struct {
	Code    int
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *ExitError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause.
func (e *ExitError) Unwrap() error {
	return e.Cause
}

// NewExecutionError reports a failed node run.
func NewExecutionError(msg string, cause error) *ExitError {
	return &ExitError{
		Code:    ExitExecutionFailed,
		Message: msg,
		Cause:   cause,
	}
}

// NewInvalidInputError reports an unusable batch file, parameter or config.
func NewInvalidInputError(msg string, cause error) *ExitError {
	return &ExitError{
		Code:    ExitInvalidInput,
		Message: msg,
		Cause:   cause,
	}
}

// NewCredentialError reports a missing or rejected credential.
func NewCredentialError(msg string, cause error) *ExitError {
	return &ExitError{
		Code:    ExitCredentialError,
		Message: msg,
		Cause:   cause,
	}
}

// ExitCode returns the exit code for err.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitExecutionFailed
}

// HandleExitError prints err and exits with its code.
func HandleExitError(err error) {
	if err == nil {
		return
	}
	printError(os.Stderr, err)
	os.Exit(ExitCode(err))
}

func printError(w io.Writer, err error) {
	if msg := err.Error(); msg != "" {
		fmt.Fprintln(w, "Error:", msg)
	}
}
