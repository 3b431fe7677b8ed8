package expr_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/arbordata/arbor/expr"
	"github.com/stretchr/testify/assert"
)

func TestConstructionError(t *testing.T) {
	err := expr.NewConstructionError("Cast", `unknown cast target type "blob"`)

	assert.Equal(t, `Cast: unknown cast target type "blob"`, err.Error())
	assert.True(t, errors.Is(err, expr.NewConstructionError("Cast", `unknown cast target type "blob"`)))
	assert.False(t, errors.Is(err, expr.NewConstructionError("Cast", "other")))
}

func TestEvaluationError(t *testing.T) {
	err := expr.NewColumnNotFoundError("salary")

	assert.Equal(t, `column: column "salary": column not found`, err.Error())
	assert.True(t, errors.Is(err, expr.NewColumnNotFoundError("salary")))
	assert.False(t, errors.Is(err, expr.NewColumnNotFoundError("age")))
}

func TestErrorWrapping(t *testing.T) {
	cause := expr.NewTypeMismatchError("and", "operands must be boolean")
	wrapped := fmt.Errorf("evaluating predicate: %w", cause)

	var ee *expr.EvaluationError
	assert.True(t, errors.As(wrapped, &ee))
	assert.Equal(t, "and", ee.Op)
}
