package ml

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// GaussianNB is a Gaussian naive Bayes classifier: per-class feature
// means and variances with log-likelihood scoring. Deterministic.
type GaussianNB struct {
	Priors       []float64   `json:"priors,omitempty"`
	Means        [][]float64 `json:"means,omitempty"`
	Variances    [][]float64 `json:"variances,omitempty"`
	ClassList    []int       `json:"classes,omitempty"`
	FeatureCount int         `json:"feature_count"`
}

// Variance floor keeps degenerate features from collapsing likelihoods
const varianceFloor = 1e-9

// NewGaussianNB creates an untrained classifier
func NewGaussianNB() *GaussianNB {
	return &GaussianNB{}
}

func (g *GaussianNB) Name() string { return "Naive Bayes" }

func (g *GaussianNB) Capabilities() Capability {
	return CapProbability
}

func (g *GaussianNB) Classes() []int { return g.ClassList }

// Fit estimates per-class priors and per-feature Gaussian parameters
func (g *GaussianNB) Fit(X [][]float64, y []int) error {
	if err := validateFit(X, y); err != nil {
		return fmt.Errorf("naive bayes: %w", err)
	}

	g.ClassList = distinctClasses(y)
	g.FeatureCount = len(X[0])
	g.Priors = make([]float64, len(g.ClassList))
	g.Means = make([][]float64, len(g.ClassList))
	g.Variances = make([][]float64, len(g.ClassList))

	idx := classIndex(g.ClassList)
	grouped := make([][][]float64, len(g.ClassList))
	for i, row := range X {
		c := idx[y[i]]
		grouped[c] = append(grouped[c], row)
	}

	column := make([]float64, 0, len(X))
	for c, rows := range grouped {
		g.Priors[c] = float64(len(rows)) / float64(len(X))
		g.Means[c] = make([]float64, g.FeatureCount)
		g.Variances[c] = make([]float64, g.FeatureCount)

		for j := 0; j < g.FeatureCount; j++ {
			column = column[:0]
			for _, row := range rows {
				column = append(column, row[j])
			}
			mean, variance := stat.MeanVariance(column, nil)
			if math.IsNaN(variance) || variance < varianceFloor {
				variance = varianceFloor
			}
			g.Means[c][j] = mean
			g.Variances[c][j] = variance
		}
	}
	return nil
}

// Predict returns the class with the highest posterior per row
func (g *GaussianNB) Predict(X [][]float64) ([]int, error) {
	probas, err := g.PredictProba(X)
	if err != nil {
		return nil, err
	}
	labels := make([]int, len(probas))
	for i, p := range probas {
		labels[i] = g.ClassList[argmax(p)]
	}
	return labels, nil
}

// PredictProba returns posteriors from the Gaussian log-likelihoods,
// normalized with the log-sum-exp trick.
func (g *GaussianNB) PredictProba(X [][]float64) ([][]float64, error) {
	if len(g.Means) == 0 {
		return nil, fmt.Errorf("naive bayes: not fitted")
	}

	out := make([][]float64, len(X))
	for i, row := range X {
		if len(row) != g.FeatureCount {
			return nil, fmt.Errorf("naive bayes: row %d has %d features, fitted on %d", i, len(row), g.FeatureCount)
		}

		logPosteriors := make([]float64, len(g.ClassList))
		for c := range g.ClassList {
			score := math.Log(g.Priors[c])
			for j, v := range row {
				variance := g.Variances[c][j]
				diff := v - g.Means[c][j]
				score += -0.5*math.Log(2*math.Pi*variance) - diff*diff/(2*variance)
			}
			logPosteriors[c] = score
		}

		maxLog := logPosteriors[argmax(logPosteriors)]
		proba := make([]float64, len(g.ClassList))
		total := 0.0
		for c, lp := range logPosteriors {
			proba[c] = math.Exp(lp - maxLog)
			total += proba[c]
		}
		for c := range proba {
			proba[c] /= total
		}
		out[i] = proba
	}
	return out, nil
}

func (g *GaussianNB) FeatureImportances() []float64 { return nil }

func (g *GaussianNB) Coefficients() [][]float64 { return nil }
