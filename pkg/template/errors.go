package template

import (
	"errors"
	"fmt"
)

// ErrEmptyExpression is returned for "${}".
var ErrEmptyExpression = errors.New("empty expression")

// ErrUnterminated is returned when "${" has no closing brace.
var ErrUnterminated = errors.New("unterminated expression")

// RenderError reports an expression that failed to compile or evaluate.
type RenderError struct {
	// Template is the template string that contained the expression.
	Template string
	Err      error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render %q: %v", e.Template, e.Err)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}
