// Package charts renders feature-importance tables as exportable PNGs.
package charts

import (
	"bytes"
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/dropout-studio/dropout-studio-go/ml"
)

// TopFeatures is how many features a chart shows, largest first
const TopFeatures = 15

// ImportanceFilename is the download name for an algorithm's chart
func ImportanceFilename(algorithm string) string {
	return algorithm + "_feature_importance.png"
}

// RenderImportancePNG draws a bar chart of the top importance rows.
// The table is expected sorted descending, as the trainer produces it.
func RenderImportancePNG(algorithm string, table []ml.FeatureWeight) ([]byte, error) {
	if len(table) == 0 {
		return nil, fmt.Errorf("no importance table for %s", algorithm)
	}
	if len(table) > TopFeatures {
		table = table[:TopFeatures]
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s feature importance (top %d)", algorithm, len(table))
	p.Y.Label.Text = "importance"
	p.X.Tick.Label.Rotation = -0.6
	p.X.Tick.Label.XAlign = -0.9

	values := make(plotter.Values, len(table))
	names := make([]string, len(table))
	for i, row := range table {
		values[i] = row.Importance
		names[i] = row.Feature
	}

	bars, err := plotter.NewBarChart(values, vg.Points(18))
	if err != nil {
		return nil, fmt.Errorf("failed to build bar chart: %w", err)
	}
	bars.LineStyle.Width = 0
	p.Add(bars)
	p.NominalX(names...)

	writer, err := p.WriterTo(9*vg.Inch, 4.5*vg.Inch, "png")
	if err != nil {
		return nil, fmt.Errorf("failed to render chart: %w", err)
	}

	var buf bytes.Buffer
	if _, err := writer.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to encode chart PNG: %w", err)
	}
	return buf.Bytes(), nil
}
