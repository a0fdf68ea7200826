package ml

import (
	"fmt"
	"math"
	"sort"
)

// boostStump is one regression stump in a boosting stage: rows route on
// Feature <= Threshold to an additive log-odds update.
type boostStump struct {
	Feature    int     `json:"feature"`
	Threshold  float64 `json:"threshold"`
	LeftValue  float64 `json:"left_value"`
	RightValue float64 `json:"right_value"`
	Gain       float64 `json:"gain"`
}

// binaryBooster is a stagewise logit model: an initial log-odds score
// plus a sequence of shrunk regression stumps fitted to residuals.
type binaryBooster struct {
	BaseScore float64      `json:"base_score"`
	Stumps    []*boostStump `json:"stumps"`
}

// GradientBoosting is a gradient-boosted stump classifier. Binary targets
// use a single booster on the positive class; multi-class targets train
// one-vs-rest boosters and normalize the sigmoid scores.
type GradientBoosting struct {
	NumStages    int     `json:"num_stages"`
	LearningRate float64 `json:"learning_rate"`

	Boosters     []*binaryBooster `json:"boosters,omitempty"`
	ClassList    []int            `json:"classes,omitempty"`
	FeatureCount int              `json:"feature_count"`
}

// NewGradientBoosting creates an untrained booster with standard settings
func NewGradientBoosting() *GradientBoosting {
	return &GradientBoosting{
		NumStages:    100,
		LearningRate: 0.1,
	}
}

func (g *GradientBoosting) Name() string { return "Gradient Boosting" }

func (g *GradientBoosting) Capabilities() Capability {
	return CapProbability | CapNativeImportance
}

func (g *GradientBoosting) Classes() []int { return g.ClassList }

// Fit trains the boosters
func (g *GradientBoosting) Fit(X [][]float64, y []int) error {
	if err := validateFit(X, y); err != nil {
		return fmt.Errorf("gradient boosting: %w", err)
	}

	g.ClassList = distinctClasses(y)
	g.FeatureCount = len(X[0])

	if len(g.ClassList) < 2 {
		// Single-class target: constant booster predicting that class
		g.Boosters = []*binaryBooster{{BaseScore: 10}}
		return nil
	}

	// Binary: one booster on the positive class; multi-class: one per class
	targets := g.ClassList[1:]
	if len(g.ClassList) > 2 {
		targets = g.ClassList
	}

	g.Boosters = make([]*binaryBooster, len(targets))
	for b, class := range targets {
		binary := make([]float64, len(y))
		for i, label := range y {
			if label == class {
				binary[i] = 1
			}
		}
		g.Boosters[b] = g.fitBooster(X, binary)
	}
	return nil
}

// fitBooster runs the stagewise residual-fitting loop for one binary target
func (g *GradientBoosting) fitBooster(X [][]float64, y []float64) *binaryBooster {
	n := len(y)

	positives := 0.0
	for _, v := range y {
		positives += v
	}
	prior := clampProbability(positives / float64(n))

	booster := &binaryBooster{
		BaseScore: math.Log(prior / (1 - prior)),
	}

	scores := make([]float64, n)
	for i := range scores {
		scores[i] = booster.BaseScore
	}

	residuals := make([]float64, n)
	hessians := make([]float64, n)
	for stage := 0; stage < g.NumStages; stage++ {
		for i := range y {
			p := sigmoid(scores[i])
			residuals[i] = y[i] - p
			hessians[i] = p * (1 - p)
		}

		stump := fitStump(X, residuals, hessians)
		if stump == nil {
			break
		}
		booster.Stumps = append(booster.Stumps, stump)

		for i, row := range X {
			scores[i] += g.LearningRate * stump.apply(row)
		}
	}
	return booster
}

// fitStump finds the single split minimizing residual SSE, with Newton-step
// leaf values. Returns nil when no split improves on the root.
func fitStump(X [][]float64, residuals, hessians []float64) *boostStump {
	n := len(residuals)
	features := len(X[0])

	totalSum, totalSq, totalHess := 0.0, 0.0, 0.0
	for i, r := range residuals {
		totalSum += r
		totalSq += r * r
		totalHess += hessians[i]
	}
	rootSSE := totalSq - totalSum*totalSum/float64(n)

	var best *boostStump
	bestSSE := rootSSE

	order := make([]int, n)
	for f := 0; f < features; f++ {
		for i := range order {
			order[i] = i
		}
		sort.Slice(order, func(a, b int) bool {
			return X[order[a]][f] < X[order[b]][f]
		})

		leftSum, leftSq, leftHess := 0.0, 0.0, 0.0
		for pos := 0; pos < n-1; pos++ {
			i := order[pos]
			leftSum += residuals[i]
			leftSq += residuals[i] * residuals[i]
			leftHess += hessians[i]

			cur, next := X[i][f], X[order[pos+1]][f]
			if cur == next {
				continue
			}

			nLeft := float64(pos + 1)
			nRight := float64(n - pos - 1)
			rightSum := totalSum - leftSum
			rightSq := totalSq - leftSq

			sse := (leftSq - leftSum*leftSum/nLeft) + (rightSq - rightSum*rightSum/nRight)
			if sse < bestSSE-1e-12 {
				bestSSE = sse
				best = &boostStump{
					Feature:    f,
					Threshold:  (cur + next) / 2,
					LeftValue:  newtonStep(leftSum, leftHess),
					RightValue: newtonStep(rightSum, totalHess-leftHess),
					Gain:       rootSSE - sse,
				}
			}
		}
	}
	return best
}

// newtonStep computes the leaf log-odds update sum(residual)/sum(p(1-p))
func newtonStep(gradSum, hessSum float64) float64 {
	if hessSum < 1e-9 {
		hessSum = 1e-9
	}
	step := gradSum / hessSum
	// Clamp extreme updates on near-pure leaves
	if step > 4 {
		step = 4
	} else if step < -4 {
		step = -4
	}
	return step
}

// apply returns the stump's additive update for one row
func (s *boostStump) apply(row []float64) float64 {
	if row[s.Feature] <= s.Threshold {
		return s.LeftValue
	}
	return s.RightValue
}

// score computes the raw log-odds for one row
func (b *binaryBooster) score(row []float64, learningRate float64) float64 {
	score := b.BaseScore
	for _, stump := range b.Stumps {
		score += learningRate * stump.apply(row)
	}
	return score
}

// Predict returns the class with the highest probability per row
func (g *GradientBoosting) Predict(X [][]float64) ([]int, error) {
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

// PredictProba returns class probabilities per row
func (g *GradientBoosting) PredictProba(X [][]float64) ([][]float64, error) {
	if len(g.Boosters) == 0 {
		return nil, fmt.Errorf("gradient boosting: not fitted")
	}

	out := make([][]float64, len(X))
	for i, row := range X {
		if len(row) != g.FeatureCount && g.FeatureCount > 0 {
			return nil, fmt.Errorf("gradient boosting: row %d has %d features, fitted on %d", i, len(row), g.FeatureCount)
		}
		proba := make([]float64, len(g.ClassList))
		switch {
		case len(g.ClassList) < 2:
			proba[0] = 1
		case len(g.ClassList) == 2:
			p := sigmoid(g.Boosters[0].score(row, g.LearningRate))
			proba[0] = 1 - p
			proba[1] = p
		default:
			total := 0.0
			for c, booster := range g.Boosters {
				proba[c] = sigmoid(booster.score(row, g.LearningRate))
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

// FeatureImportances sums stump gains per feature across all boosters
func (g *GradientBoosting) FeatureImportances() []float64 {
	if len(g.Boosters) == 0 {
		return nil
	}
	importances := make([]float64, g.FeatureCount)
	total := 0.0
	for _, booster := range g.Boosters {
		for _, stump := range booster.Stumps {
			importances[stump.Feature] += stump.Gain
			total += stump.Gain
		}
	}
	if total > 0 {
		for j := range importances {
			importances[j] /= total
		}
	}
	return importances
}

func (g *GradientBoosting) Coefficients() [][]float64 { return nil }

// sigmoid is the logistic function
func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

// clampProbability keeps p away from 0 and 1 for log-odds math
func clampProbability(p float64) float64 {
	const eps = 1e-6
	if p < eps {
		return eps
	}
	if p > 1-eps {
		return 1 - eps
	}
	return p
}
