package ml

import (
	"fmt"
	"math/rand"
)

// SVC is a linear support vector classifier trained with Pegasos-style
// stochastic subgradient descent on the hinge loss, with Platt scaling
// fitted on the training decision values so probabilities are available.
// Binary targets fit one margin; multi-class targets fit one-vs-rest.
type SVC struct {
	Epochs int     `json:"epochs"`
	Lambda float64 `json:"lambda"`
	Seed   int64   `json:"seed"`

	Weights      [][]float64 `json:"weights,omitempty"`
	Intercepts   []float64   `json:"intercepts,omitempty"`
	PlattSlopes  []float64   `json:"platt_slopes,omitempty"`
	PlattOffsets []float64   `json:"platt_offsets,omitempty"`
	ClassList    []int       `json:"classes,omitempty"`
	FeatureCount int         `json:"feature_count"`
}

// NewSVC creates an untrained classifier
func NewSVC(seed int64) *SVC {
	return &SVC{
		Epochs: 50,
		Lambda: 0.01,
		Seed:   seed,
	}
}

func (s *SVC) Name() string { return "SVM" }

func (s *SVC) Capabilities() Capability {
	return CapProbability | CapLinearCoefficients
}

func (s *SVC) Classes() []int { return s.ClassList }

// Fit trains the margins and calibrates their probabilities
func (s *SVC) Fit(X [][]float64, y []int) error {
	if err := validateFit(X, y); err != nil {
		return fmt.Errorf("svm: %w", err)
	}

	s.ClassList = distinctClasses(y)
	s.FeatureCount = len(X[0])

	targets := s.ClassList
	if len(s.ClassList) == 2 {
		targets = s.ClassList[1:]
	}

	rng := rand.New(rand.NewSource(s.Seed))
	s.Weights = make([][]float64, len(targets))
	s.Intercepts = make([]float64, len(targets))
	s.PlattSlopes = make([]float64, len(targets))
	s.PlattOffsets = make([]float64, len(targets))

	for t, class := range targets {
		signs := make([]float64, len(y))
		positives := 0
		for i, label := range y {
			if label == class {
				signs[i] = 1
				positives++
			} else {
				signs[i] = -1
			}
		}

		s.Weights[t], s.Intercepts[t] = s.fitMargin(X, signs, rng)

		decisions := make([]float64, len(X))
		for i, row := range X {
			decisions[i] = dot(s.Weights[t], row) + s.Intercepts[t]
		}
		s.PlattSlopes[t], s.PlattOffsets[t] = fitPlatt(decisions, signs, positives)
	}
	return nil
}

// fitMargin runs the Pegasos subgradient loop for one binary margin
func (s *SVC) fitMargin(X [][]float64, signs []float64, rng *rand.Rand) ([]float64, float64) {
	n := len(X)
	weights := make([]float64, s.FeatureCount)
	intercept := 0.0

	step := 0
	for epoch := 0; epoch < s.Epochs; epoch++ {
		for k := 0; k < n; k++ {
			step++
			i := rng.Intn(n)
			eta := 1 / (s.Lambda * float64(step))

			decay := 1 - eta*s.Lambda
			margin := signs[i] * (dot(weights, X[i]) + intercept)
			if margin < 1 {
				for j := range weights {
					weights[j] = decay*weights[j] + eta*signs[i]*X[i][j]
				}
				intercept += eta * signs[i]
			} else {
				for j := range weights {
					weights[j] *= decay
				}
			}
		}
	}
	return weights, intercept
}

// fitPlatt fits the sigmoid p = 1/(1+exp(slope*f+offset)) mapping decision
// values to probabilities, by gradient descent on the cross entropy with
// Platt's prior-smoothed targets.
func fitPlatt(decisions, signs []float64, positives int) (float64, float64) {
	n := len(decisions)
	negatives := n - positives

	targetPos := (float64(positives) + 1) / (float64(positives) + 2)
	targetNeg := 1 / (float64(negatives) + 2)

	targets := make([]float64, n)
	for i, sign := range signs {
		if sign > 0 {
			targets[i] = targetPos
		} else {
			targets[i] = targetNeg
		}
	}

	slope, offset := -1.0, 0.0
	rate := 0.01
	for iter := 0; iter < 300; iter++ {
		gradSlope, gradOffset := 0.0, 0.0
		for i, f := range decisions {
			p := sigmoid(-(slope*f + offset))
			diff := p - targets[i]
			gradSlope += -diff * f
			gradOffset += -diff
		}
		slope -= rate * gradSlope / float64(n)
		offset -= rate * gradOffset / float64(n)
	}
	return slope, offset
}

// plattProbability applies the fitted calibration to one decision value
func plattProbability(decision, slope, offset float64) float64 {
	return sigmoid(-(slope*decision + offset))
}

// Predict returns the most probable class per row
func (s *SVC) Predict(X [][]float64) ([]int, error) {
	probas, err := s.PredictProba(X)
	if err != nil {
		return nil, err
	}
	labels := make([]int, len(probas))
	for i, p := range probas {
		labels[i] = s.ClassList[argmax(p)]
	}
	return labels, nil
}

// PredictProba returns calibrated class probabilities per row
func (s *SVC) PredictProba(X [][]float64) ([][]float64, error) {
	if len(s.Weights) == 0 {
		return nil, fmt.Errorf("svm: not fitted")
	}

	out := make([][]float64, len(X))
	for i, row := range X {
		if len(row) != s.FeatureCount {
			return nil, fmt.Errorf("svm: row %d has %d features, fitted on %d", i, len(row), s.FeatureCount)
		}
		proba := make([]float64, len(s.ClassList))
		if len(s.ClassList) == 2 {
			decision := dot(s.Weights[0], row) + s.Intercepts[0]
			p := plattProbability(decision, s.PlattSlopes[0], s.PlattOffsets[0])
			proba[0] = 1 - p
			proba[1] = p
		} else {
			total := 0.0
			for c := range s.Weights {
				decision := dot(s.Weights[c], row) + s.Intercepts[c]
				proba[c] = plattProbability(decision, s.PlattSlopes[c], s.PlattOffsets[c])
				total += proba[c]
			}
			if total > 0 {
				for c := range proba {
					proba[c] /= total
				}
			}
		}
		out[i] = proba
	}
	return out, nil
}

func (s *SVC) FeatureImportances() []float64 { return nil }

// Coefficients returns the fitted margin weight vectors
func (s *SVC) Coefficients() [][]float64 {
	return s.Weights
}
