package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegressionMetrics(t *testing.T) {
	tests := []struct {
		name    string
		fn      func(a, b []float64) (float64, error)
		yTrue   []float64
		yPred   []float64
		want    float64
		wantErr bool
	}{
		{"MSE perfect", MSE, []float64{1, 2, 3}, []float64{1, 2, 3}, 0, false},
		{"MSE simple", MSE, []float64{1, 2, 3, 4}, []float64{1.5, 2.5, 2.5, 3.5}, 0.25, false},
		{"MSE larger errors", MSE, []float64{10, 20, 30}, []float64{12, 18, 33}, 17.0 / 3.0, false},
		{"MSE empty", MSE, nil, nil, 0, true},
		{"RMSE simple", RMSE, []float64{0, 0, 0, 0}, []float64{1, 1, 1, 1}, 1, false},
		{"RMSE mismatch", RMSE, []float64{1, 2, 3}, []float64{1, 2}, 0, true},
		{"MAE simple", MAE, []float64{1, 2, 3, 4}, []float64{1.5, 2.5, 2.5, 3.5}, 0.5, false},
		{"MAE negative differences", MAE, []float64{1, 2, 3, 4}, []float64{2, 1, 4, 3}, 1, false},
		{"R2 perfect", R2Score, []float64{1, 2, 3, 4, 5}, []float64{1, 2, 3, 4, 5}, 1, false},
		{"R2 worse than mean", R2Score, []float64{1, 2, 3, 4}, []float64{4, 3, 2, 1}, -3, false},
		{"R2 no variance", R2Score, []float64{3, 3, 3}, []float64{2, 3, 4}, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.fn(tt.yTrue, tt.yPred)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-10)
		})
	}
}

func BenchmarkMSE(b *testing.B) {
	size := 10000
	yTrue := make([]float64, size)
	yPred := make([]float64, size)
	for i := 0; i < size; i++ {
		yTrue[i] = float64(i)
		yPred[i] = float64(i) + 0.1*float64(i%10)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = MSE(yTrue, yPred)
	}
}
