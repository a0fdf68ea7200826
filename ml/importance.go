package ml

import (
	"math"
	"sort"

	"github.com/dropout-studio/dropout-studio-go/utils"
)

// FeatureWeight is one row of an importance table
type FeatureWeight struct {
	Feature    string  `json:"feature"`
	Importance float64 `json:"importance"`
}

// ExtractImportance builds the sorted importance table for a fitted
// learner. Tree-family learners report native importances; linear
// learners report absolute coefficient magnitudes, averaged across
// classes when more than one vector was fitted. Learners with neither
// surface yield nil. When scores and feature names disagree in length,
// both are truncated to the shorter side and a warning is logged.
func ExtractImportance(algorithm string, learner Learner, featureNames []string) []FeatureWeight {
	caps := learner.Capabilities()

	var scores []float64
	switch {
	case caps.Has(CapNativeImportance):
		scores = learner.FeatureImportances()
	case caps.Has(CapLinearCoefficients):
		scores = coefficientMagnitudes(learner.Coefficients())
	}
	if len(scores) == 0 {
		return nil
	}

	if len(scores) != len(featureNames) {
		utils.GetLogger().Warn("Importance scores and feature names differ in length, truncating",
			utils.Component("importance"),
			utils.String("algorithm", algorithm),
			utils.Int("scores", len(scores)),
			utils.Int("features", len(featureNames)))
		n := len(scores)
		if len(featureNames) < n {
			n = len(featureNames)
		}
		scores = scores[:n]
		featureNames = featureNames[:n]
	}

	table := make([]FeatureWeight, len(scores))
	for i, score := range scores {
		table[i] = FeatureWeight{Feature: featureNames[i], Importance: score}
	}
	sort.SliceStable(table, func(a, b int) bool {
		return table[a].Importance > table[b].Importance
	})
	return table
}

// coefficientMagnitudes reduces weight vectors to per-feature |coef|,
// averaging across vectors for multi-class fits.
func coefficientMagnitudes(coefs [][]float64) []float64 {
	if len(coefs) == 0 {
		return nil
	}
	if len(coefs) == 1 {
		magnitudes := make([]float64, len(coefs[0]))
		for j, v := range coefs[0] {
			magnitudes[j] = math.Abs(v)
		}
		return magnitudes
	}

	magnitudes := make([]float64, len(coefs[0]))
	for _, vector := range coefs {
		for j, v := range vector {
			magnitudes[j] += math.Abs(v)
		}
	}
	for j := range magnitudes {
		magnitudes[j] /= float64(len(coefs))
	}
	return magnitudes
}
