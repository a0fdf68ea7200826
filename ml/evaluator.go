package ml

import (
	"fmt"
	"sort"
)

// Accuracy is the exact-match fraction of predicted vs actual labels
func Accuracy(actual, predicted []int) (float64, error) {
	if len(actual) == 0 {
		return 0, fmt.Errorf("no labels to score")
	}
	if len(actual) != len(predicted) {
		return 0, fmt.Errorf("actual (%d) and predicted (%d) differ in length", len(actual), len(predicted))
	}
	correct := 0
	for i, a := range actual {
		if a == predicted[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(actual)), nil
}

// ConfusionMatrix counts actual-vs-predicted label pairs. Its dimension
// is the set of labels observed in either vector, sorted ascending.
type ConfusionMatrix struct {
	Labels     []int    `json:"labels"`
	LabelNames []string `json:"label_names"`
	Counts     [][]int  `json:"counts"` // Counts[actual][predicted]
}

// NewConfusionMatrix builds the matrix and decodes label display names
func NewConfusionMatrix(actual, predicted []int, codec *LabelCodec) (*ConfusionMatrix, error) {
	if len(actual) != len(predicted) {
		return nil, fmt.Errorf("actual (%d) and predicted (%d) differ in length", len(actual), len(predicted))
	}

	seen := make(map[int]bool)
	var labels []int
	for _, v := range actual {
		if !seen[v] {
			seen[v] = true
			labels = append(labels, v)
		}
	}
	for _, v := range predicted {
		if !seen[v] {
			seen[v] = true
			labels = append(labels, v)
		}
	}
	sort.Ints(labels)

	idx := make(map[int]int, len(labels))
	names := make([]string, len(labels))
	for i, label := range labels {
		idx[label] = i
		names[i] = codec.Decode(label)
	}

	counts := make([][]int, len(labels))
	for i := range counts {
		counts[i] = make([]int, len(labels))
	}
	for i, a := range actual {
		counts[idx[a]][idx[predicted[i]]]++
	}

	return &ConfusionMatrix{
		Labels:     labels,
		LabelNames: names,
		Counts:     counts,
	}, nil
}
