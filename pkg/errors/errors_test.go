package errors

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewModelError(t *testing.T) {
	tests := []struct {
		name    string
		op      string
		kind    string
		err     error
		wantMsg string
	}{
		{
			name:    "with original error",
			op:      "Fit",
			kind:    "invalid input",
			err:     fmt.Errorf("test error"),
			wantMsg: "invopt: Fit: invalid input: test error",
		},
		{
			name:    "without original error",
			op:      "Predict",
			kind:    "not fitted",
			err:     nil,
			wantMsg: "invopt: Predict: not fitted",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewModelError(tt.op, tt.kind, tt.err)

			// 基本的なエラーメッセージの確認
			assert.Equal(t, tt.wantMsg, err.Error())

			// スタックトレースの存在確認
			formatted := fmt.Sprintf("%+v", err)
			assert.True(t, strings.Contains(formatted, "errors_test.go"),
				"expected stack trace to contain test file name")

			var modelErr *ModelError
			assert.True(t, As(err, &modelErr))
		})
	}
}

func TestNewDimensionError(t *testing.T) {
	err := NewDimensionError("forward.Solve", 9, 11, 1)

	want := "invopt: forward.Solve: dimension mismatch on axis 1 (features). Expected 9, got 11"
	assert.Equal(t, want, err.Error())

	var dimErr *DimensionError
	require.True(t, As(err, &dimErr))
	assert.Equal(t, 9, dimErr.Expected)
	assert.Equal(t, 11, dimErr.Got)
}

func TestEmptyDatasetError(t *testing.T) {
	err := NewEmptyDatasetError("Evaluate")

	assert.True(t, Is(err, ErrEmptyDataset))
	assert.False(t, Is(err, ErrEmptyData))
	assert.Contains(t, err.Error(), "Evaluate: empty dataset")
}

func TestSolverError(t *testing.T) {
	theta := []float64{1, 2, 3}
	err := NewSolverError("forward.SolveBranch", Unbounded, "", 4, theta, nil)

	// 呼び出し元のスライスを変更してもエラー内のスナップショットは変わらない
	theta[0] = 100

	var se *SolverError
	require.True(t, As(err, &se))
	assert.Equal(t, Unbounded, se.Kind)
	assert.Equal(t, 4, se.Sample)
	assert.Equal(t, []float64{1, 2, 3}, se.Theta)
	assert.Equal(t, "invopt: forward.SolveBranch: solver unbounded at sample 4", err.Error())

	assert.True(t, IsUnbounded(err))
	assert.False(t, IsInfeasible(err))

	wrapped := Wrap(err, "fit")
	assert.True(t, IsUnbounded(wrapped))
}

func TestSolverErrorStatusAndCause(t *testing.T) {
	cause := New("linesearch failed")
	err := NewSolverError("inverse.LBFGS", NotConverged, "Failure", -1, nil, cause)

	assert.Equal(t, "invopt: inverse.LBFGS: solver not_converged (status: Failure): linesearch failed", err.Error())
	assert.True(t, Is(err, cause))
	assert.True(t, IsSolverError(err, NotConverged))
}

func TestSolverErrorKindString(t *testing.T) {
	assert.Equal(t, "infeasible", Infeasible.String())
	assert.Equal(t, "unbounded", Unbounded.String())
	assert.Equal(t, "not_converged", NotConverged.String())
	assert.Equal(t, "unknown", SolverErrorKind(42).String())
}

func TestWarnRouting(t *testing.T) {
	var got []error
	SetWarningHandler(func(w error) { got = append(got, w) })
	defer SetWarningHandler(nil)

	Warn(NewConvergenceWarning("L-BFGS", 10, ""))
	require.Len(t, got, 1)
	assert.Contains(t, got[0].Error(), "failed to converge after 10 iterations")

	var hooked []error
	SetZerologWarnFunc(func(w error) { hooked = append(hooked, w) })
	defer SetZerologWarnFunc(nil)

	Warn(NewDataConversionWarning("float64", "int", "rounded relaxation artifact"))
	assert.Len(t, got, 1, "legacy handler must not run when the zerolog hook is set")
	require.Len(t, hooked, 1)
	assert.Contains(t, hooked[0].Error(), "rounded relaxation artifact")
}

func TestCheckNumericalStability(t *testing.T) {
	assert.NoError(t, CheckNumericalStability("theta", []float64{1, -2, 0}, 0))

	err := CheckScalar("objective", nan(), 3)
	require.Error(t, err)
	var nie *NumericalInstabilityError
	require.True(t, As(err, &nie))
	assert.Equal(t, 3, nie.Iteration)
	assert.Equal(t, "objective", nie.Operation)
}
