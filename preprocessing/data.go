// Package preprocessing turns raw signal-response tables into the datasets
// consumed by the learner: CSV loading, seeded train/test splitting, signal
// scaling and context construction.
package preprocessing

import (
	"encoding/csv"
	"io"
	"math"
	"math/rand/v2"
	"os"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/invopt/core/problem"
	"github.com/YuminosukeSato/invopt/pkg/errors"
)

// ContextFunc builds the context of one sample from its signal row.
type ContextFunc func(w []float64) (problem.Context, error)

// LoadCSV reads a headerless numeric table from path. See ReadCSV.
func LoadCSV(path string) (S, X *mat.Dense, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "open %s", path)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = errors.Wrapf(cerr, "close %s", path)
		}
	}()
	return ReadCSV(f)
}

// ReadCSV parses a headerless numeric table whose first two columns are the
// responses and the rest the signal. The file stores the binary response
// first; the returned X has the continuous response in column 0 and the
// binary one in column 1. Lines starting with '#' are skipped.
func ReadCSV(r io.Reader) (S, X *mat.Dense, err error) {
	reader := csv.NewReader(r)
	reader.Comment = '#'
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, errors.Wrap(err, "read csv")
	}
	if len(records) == 0 {
		return nil, nil, errors.NewModelError("preprocessing.ReadCSV", "empty data", errors.ErrEmptyData)
	}
	cols := len(records[0])
	if cols < 3 {
		return nil, nil, errors.NewValueError("preprocessing.ReadCSV",
			"need two response columns and at least one signal column")
	}

	n, m := len(records), cols-2
	S = mat.NewDense(n, m, nil)
	X = mat.NewDense(n, 2, nil)
	for i, rec := range records {
		if len(rec) != cols {
			return nil, nil, errors.NewDimensionError("preprocessing.ReadCSV", cols, len(rec), 1)
		}
		for j, field := range rec {
			v, perr := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if perr != nil {
				return nil, nil, errors.Wrapf(perr, "row %d column %d", i, j)
			}
			switch j {
			case 0:
				X.Set(i, 1, v)
			case 1:
				X.Set(i, 0, v)
			default:
				S.Set(i, j-2, v)
			}
		}
	}
	return S, X, nil
}

// Split draws round(N·(1−testFraction)) training rows without replacement
// using rng. Rows keep their original order inside each part. Python-style
// round half to even is used for the training size.
func Split(S, X *mat.Dense, testFraction float64, rng *rand.Rand) (STrain, XTrain, STest, XTest *mat.Dense, err error) {
	n, m := S.Dims()
	nx, k := X.Dims()
	if nx != n {
		return nil, nil, nil, nil, errors.NewDimensionError("preprocessing.Split", n, nx, 0)
	}
	if testFraction < 0 || testFraction >= 1 || math.IsNaN(testFraction) {
		return nil, nil, nil, nil, errors.NewValidationError("testFraction", "must be in [0, 1)", testFraction)
	}
	if rng == nil {
		return nil, nil, nil, nil, errors.NewValidationError("rng", "must not be nil", nil)
	}

	nTrain := int(math.RoundToEven(float64(n) * (1 - testFraction)))
	if nTrain == 0 {
		return nil, nil, nil, nil, errors.NewEmptyDatasetError("preprocessing.Split")
	}

	train := make([]bool, n)
	for _, idx := range rng.Perm(n)[:nTrain] {
		train[idx] = true
	}

	nTest := n - nTrain
	STrain, XTrain = mat.NewDense(nTrain, m, nil), mat.NewDense(nTrain, k, nil)
	if nTest > 0 {
		STest, XTest = mat.NewDense(nTest, m, nil), mat.NewDense(nTest, k, nil)
	}

	var a, b int
	for i := 0; i < n; i++ {
		if train[i] {
			STrain.SetRow(a, S.RawRowView(i))
			XTrain.SetRow(a, X.RawRowView(i))
			a++
		} else {
			STest.SetRow(b, S.RawRowView(i))
			XTest.SetRow(b, X.RawRowView(i))
			b++
		}
	}
	return STrain, XTrain, STest, XTest, nil
}

// BuildDataset pairs each signal row of S with the decision in the same row
// of X (continuous response in column 0, discrete in column 1). A nil S or X
// yields an empty dataset.
func BuildDataset(S, X *mat.Dense, newContext ContextFunc) (problem.Dataset, error) {
	if S == nil || X == nil {
		return problem.Dataset{}, nil
	}
	if newContext == nil {
		return nil, errors.NewValidationError("newContext", "must not be nil", nil)
	}
	n, m := S.Dims()
	nx, k := X.Dims()
	if nx != n {
		return nil, errors.NewDimensionError("preprocessing.BuildDataset", n, nx, 0)
	}
	if k != 2 {
		return nil, errors.NewDimensionError("preprocessing.BuildDataset", 2, k, 1)
	}

	dataset := make(problem.Dataset, n)
	w := make([]float64, m)
	for i := 0; i < n; i++ {
		mat.Row(w, i, S)
		ctx, err := newContext(w)
		if err != nil {
			return nil, errors.Wrapf(err, "sample %d", i)
		}
		dec, err := problem.NewDecision(X.At(i, 0), X.At(i, 1))
		if err != nil {
			return nil, errors.Wrapf(err, "sample %d", i)
		}
		dataset[i] = problem.Sample{Context: ctx, Decision: dec}
	}
	return dataset, nil
}
