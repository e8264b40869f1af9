package expression

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Prefix marks a parameter value as an expression.
const Prefix = "="

// segmentPattern matches {{ ... }} segments, non-greedy so adjacent segments stay separate.
var segmentPattern = regexp.MustCompile(`(?s)\{\{(.*?)\}\}`)

// Error describes a failed expression.
type Error struct {
	Expression string
	Cause      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("expression %q: %v", e.Expression, e.Cause)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Evaluator evaluates parameter expressions.
// It caches compiled programs, so one Evaluator can serve a whole batch.
type Evaluator struct {
	cache map[string]*vm.Program
	mu    sync.RWMutex
}

// New creates a new expression evaluator.
func New() *Evaluator {
	return &Evaluator{
		cache: make(map[string]*vm.Program),
	}
}

// IsExpression reports whether value is an expression string.
func IsExpression(value any) bool {
	s, ok := value.(string)
	return ok && strings.HasPrefix(s, Prefix)
}

// Env builds the evaluation environment for one input item.
func Env(payload any, index int, item map[string]any) map[string]any {
	return map[string]any{
		"json":  payload,
		"index": index,
		"item":  item,
	}
}

// Resolve returns value unchanged unless it is an expression, in which case
// it is evaluated against env.
func (e *Evaluator) Resolve(value any, env map[string]any) (any, error) {
	if !IsExpression(value) {
		return value, nil
	}
	body := strings.TrimPrefix(value.(string), Prefix)

	matches := segmentPattern.FindAllStringSubmatchIndex(body, -1)
	if len(matches) == 0 {
		return body, nil
	}

	// ={{ expr }} keeps the typed result.
	if len(matches) == 1 && matches[0][0] == 0 && matches[0][1] == len(body) {
		return e.Evaluate(body[matches[0][2]:matches[0][3]], env)
	}

	var sb strings.Builder
	last := 0
	for _, m := range matches {
		sb.WriteString(body[last:m[0]])
		result, err := e.Evaluate(body[m[2]:m[3]], env)
		if err != nil {
			return nil, err
		}
		sb.WriteString(stringify(result))
		last = m[1]
	}
	sb.WriteString(body[last:])
	return sb.String(), nil
}

// Evaluate runs a single expression against env.
func (e *Evaluator) Evaluate(expression string, env map[string]any) (any, error) {
	expression = strings.TrimSpace(expression)
	if expression == "" {
		return nil, &Error{Expression: expression, Cause: fmt.Errorf("empty expression")}
	}

	program, err := e.compile(expression)
	if err != nil {
		return nil, &Error{Expression: expression, Cause: err}
	}

	result, err := expr.Run(program, env)
	if err != nil {
		return nil, &Error{Expression: expression, Cause: err}
	}
	return result, nil
}

// compile compiles an expression and caches the result.
func (e *Evaluator) compile(expression string) (*vm.Program, error) {
	e.mu.RLock()
	if prog, ok := e.cache[expression]; ok {
		e.mu.RUnlock()
		return prog, nil
	}
	e.mu.RUnlock()

	prog, err := expr.Compile(expression,
		// The environment differs per item and is only known at run time
		expr.AllowUndefinedVariables(),
	)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	e.cache[expression] = prog
	e.mu.Unlock()

	return prog, nil
}

// CacheSize returns the number of cached expressions.
func (e *Evaluator) CacheSize() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.cache)
}

// stringify renders an interpolated result.
func stringify(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case map[string]any, []any:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(b)
	default:
		return fmt.Sprint(v)
	}
}
