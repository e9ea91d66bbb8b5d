package problem

import (
	"github.com/YuminosukeSato/invopt/pkg/errors"
)

// Sample pairs a context with the decision observed for it.
type Sample struct {
	Context  Context
	Decision Decision
}

// Dataset is an ordered sequence of samples. The learner treats it as a
// multiset; the index pairing of context and decision is what matters.
type Dataset []Sample

// Len returns the number of samples.
func (d Dataset) Len() int { return len(d) }

// SignalDim returns u of the first sample, or 0 for an empty dataset.
func (d Dataset) SignalDim() int {
	if len(d) == 0 {
		return 0
	}
	return d[0].Context.SignalDim()
}

// Validate checks that the dataset is non-empty and that every signal has the
// same dimension.
func (d Dataset) Validate(op string) error {
	if len(d) == 0 {
		return errors.NewEmptyDatasetError(op)
	}
	u := d.SignalDim()
	for i, s := range d {
		if s.Context.SignalDim() != u {
			return errors.Wrapf(errors.NewDimensionError(op, u, s.Context.SignalDim(), 1), "sample %d", i)
		}
	}
	return nil
}

// Zip builds a dataset from parallel slices of contexts and decisions.
func Zip(contexts []Context, decisions []Decision) (Dataset, error) {
	if len(contexts) != len(decisions) {
		return nil, errors.NewDimensionError("problem.Zip", len(contexts), len(decisions), 0)
	}
	ds := make(Dataset, len(contexts))
	for i := range contexts {
		ds[i] = Sample{Context: contexts[i], Decision: decisions[i]}
	}
	return ds, nil
}
