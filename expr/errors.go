package expr

import "fmt"

// ConstructionError reports a malformed node detected eagerly at build
// time: an unknown cast target, an unknown fill strategy or peak kind,
// or invalid window parameters. A factory that returns a
// ConstructionError never returns a node.
type ConstructionError struct {
	Op      string // factory name, e.g. "Cast", "FillMissing"
	Message string
	Cause   error
}

func (e *ConstructionError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *ConstructionError) Unwrap() error { return e.Cause }

// Is matches on operation and message so sentinel comparison works
// with errors.Is.
func (e *ConstructionError) Is(target error) bool {
	if ce, ok := target.(*ConstructionError); ok {
		return e.Op == ce.Op && e.Message == ce.Message
	}
	return false
}

// NewConstructionError creates a construction-time error for the given
// factory.
func NewConstructionError(op, message string) *ConstructionError {
	return &ConstructionError{Op: op, Message: message}
}

// EvaluationError reports a failure detected only once a tree is bound
// to real data: a missing column, or an operand type the operation does
// not support. It surfaces whole to the evaluation caller; no partial
// results are produced.
type EvaluationError struct {
	Op      string // operation being evaluated, e.g. "and", "cast"
	Column  string // column name when the failure concerns one
	Message string
	Cause   error
}

func (e *EvaluationError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("%s: column %q: %s", e.Op, e.Column, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *EvaluationError) Unwrap() error { return e.Cause }

func (e *EvaluationError) Is(target error) bool {
	if ee, ok := target.(*EvaluationError); ok {
		return e.Op == ee.Op && e.Column == ee.Column && e.Message == ee.Message
	}
	return false
}

// NewEvaluationError creates an evaluation-time error.
func NewEvaluationError(op, message string) *EvaluationError {
	return &EvaluationError{Op: op, Message: message}
}

// NewColumnNotFoundError reports a column reference that the bound
// dataset cannot resolve.
func NewColumnNotFoundError(column string) *EvaluationError {
	return &EvaluationError{Op: "column", Column: column, Message: "column not found"}
}

// NewTypeMismatchError reports operands of a type the operation does
// not accept, e.g. a logical combinator over non-boolean inputs.
func NewTypeMismatchError(op, message string) *EvaluationError {
	return &EvaluationError{Op: op, Message: message}
}
