package parallel

import (
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParallelizeCoversEveryIndexOnce(t *testing.T) {
	for _, items := range []int{0, 1, 7, 1000} {
		hits := make([]int32, items)
		Parallelize(items, func(start, end int) {
			for i := start; i < end; i++ {
				atomic.AddInt32(&hits[i], 1)
			}
		})
		for i, h := range hits {
			assert.Equal(t, int32(1), h, "items=%d index=%d", items, i)
		}
	}
}

func TestParallelizeWithThresholdRunsInline(t *testing.T) {
	var calls int
	ParallelizeWithThreshold(10, 100, func(start, end int) {
		calls++
		assert.Equal(t, 0, start)
		assert.Equal(t, 10, end)
	})
	assert.Equal(t, 1, calls)
}

func TestWorkers(t *testing.T) {
	assert.Equal(t, 1, Workers(1))
	assert.GreaterOrEqual(t, Workers(1<<20), 1)
}

func TestForEach(t *testing.T) {
	boom := errors.New("boom")
	for _, sequential := range []bool{true, false} {
		var sum atomic.Int64
		errs := ForEach(20, sequential, func(i int) error {
			sum.Add(int64(i))
			return nil
		})
		assert.Nil(t, errs)
		assert.Equal(t, int64(190), sum.Load())

		errs = ForEach(5, sequential, func(i int) error {
			if i == 3 {
				return boom
			}
			return nil
		})
		require.Len(t, errs, 5)
		assert.ErrorIs(t, errs[3], boom)
		assert.NoError(t, errs[0])
	}
}
