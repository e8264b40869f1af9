// Package jq runs jq selectors against decoded JSON responses.
package jq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/itchyny/gojq"
)

const (
	// DefaultTimeout is the default execution time for jq expressions (1 second)
	DefaultTimeout = 1 * time.Second

	// DefaultMaxInputSize is the default maximum input size (10MB)
	DefaultMaxInputSize = 10 * 1024 * 1024

	// NoInputLimit disables the input size check.
	NoInputLimit = -1
)

// Query is a compiled jq expression.
type Query struct {
	expression string
	code       *gojq.Code
}

// Compile parses and compiles a jq expression.
func Compile(expression string) (*Query, error) {
	query, err := gojq.Parse(expression)
	if err != nil {
		return nil, fmt.Errorf("invalid jq expression %q: %w", expression, err)
	}

	code, err := gojq.Compile(query)
	if err != nil {
		return nil, fmt.Errorf("jq compilation failed for %q: %w", expression, err)
	}

	return &Query{expression: expression, code: code}, nil
}

// MustCompile is like Compile but panics on error. Used for package-level selectors.
func MustCompile(expression string) *Query {
	q, err := Compile(expression)
	if err != nil {
		panic(err)
	}
	return q
}

// String returns the source expression.
func (q *Query) String() string {
	return q.expression
}

// run collects every output of the query.
// Zero outputs yield nil, one output is returned as-is, several are returned as a slice.
func (q *Query) run(ctx context.Context, data any) (any, error) {
	iter := q.code.RunWithContext(ctx, data)

	var results []any
	for {
		v, ok := iter.Next()
		if !ok {
			break
		}
		if err, isErr := v.(error); isErr {
			return nil, err
		}
		results = append(results, v)
	}

	switch len(results) {
	case 0:
		return nil, nil
	case 1:
		return results[0], nil
	default:
		return results, nil
	}
}

// Executor handles jq evaluation with timeout and size limits.
type Executor struct {
	timeout      time.Duration
	maxInputSize int64
}

// NewExecutor creates a new jq executor. Zero values select the defaults and
// a negative maxInputSize disables the size check.
func NewExecutor(timeout time.Duration, maxInputSize int64) *Executor {
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	if maxInputSize == 0 {
		maxInputSize = DefaultMaxInputSize
	}

	return &Executor{
		timeout:      timeout,
		maxInputSize: maxInputSize,
	}
}

// Run evaluates a compiled query against data. A nil query returns data unchanged.
func (e *Executor) Run(ctx context.Context, q *Query, data any) (any, error) {
	if q == nil {
		return data, nil
	}

	if err := e.validateInputSize(data); err != nil {
		return nil, err
	}

	execCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	result, err := q.run(execCtx, data)
	if err != nil {
		if execCtx.Err() != nil && ctx.Err() == nil {
			return nil, fmt.Errorf("jq %q: execution timeout after %v", q.expression, e.timeout)
		}
		return nil, fmt.Errorf("jq %q: %w", q.expression, err)
	}
	return result, nil
}

// validateInputSize checks if the data size is within limits.
func (e *Executor) validateInputSize(data any) error {
	if e.maxInputSize < 0 {
		return nil
	}

	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal data: %w", err)
	}

	if int64(len(jsonData)) > e.maxInputSize {
		return fmt.Errorf("data size (%d bytes) exceeds maximum (%d bytes)", len(jsonData), e.maxInputSize)
	}

	return nil
}
