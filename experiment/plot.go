package experiment

import (
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/YuminosukeSato/invopt/pkg/errors"
)

// SavePlot draws one box per method of metric across repetitions and saves
// it to path. The image format follows the file extension (png, svg, pdf...).
func SavePlot(results []RunResult, metric Metric, path string) error {
	methods := Methods(results)
	if len(methods) == 0 {
		return errors.NewValueError("experiment.SavePlot", "no results")
	}

	p := plot.New()
	p.Title.Text = "Decision error per method (" + string(metric) + ")"
	p.Y.Label.Text = "mean L1 distance"

	width := vg.Points(20)
	for i, method := range methods {
		values, err := Collect(results, method, metric)
		if err != nil {
			return err
		}
		box, err := plotter.NewBoxPlot(width, float64(i), plotter.Values(values))
		if err != nil {
			return errors.Wrapf(err, "box plot %s", method)
		}
		p.Add(box)
	}
	p.NominalX(methods...)
	p.Add(plotter.NewGrid())

	if err := p.Save(6*vg.Inch, 4*vg.Inch, path); err != nil {
		return errors.Wrapf(err, "save plot %s", path)
	}
	return nil
}
