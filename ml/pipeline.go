package ml

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Pipeline couples the fitted column transformer with a fitted learner,
// plus the label codec needed to decode predictions. It is the unit that
// gets persisted when a model is saved.
type Pipeline struct {
	Algorithm   string
	Transformer *ColumnTransformer
	Learner     Learner
	Codec       LabelCodec
}

// NewPipeline builds an unfitted pipeline for a catalog algorithm
func NewPipeline(algorithm string, schema FeatureSchema, seed int64) (*Pipeline, error) {
	learner, err := NewLearner(algorithm, seed)
	if err != nil {
		return nil, err
	}
	return &Pipeline{
		Algorithm:   algorithm,
		Transformer: NewColumnTransformer(schema),
		Learner:     learner,
	}, nil
}

// Fit fits the transformer on the feature table and the learner on the
// transformed design matrix.
func (p *Pipeline) Fit(ft *FeatureTable, y []int) error {
	if err := p.Transformer.Fit(ft); err != nil {
		return fmt.Errorf("%s: %w", p.Algorithm, err)
	}
	design, err := p.Transformer.Transform(ft.Numeric, ft.Categorical)
	if err != nil {
		return fmt.Errorf("%s: %w", p.Algorithm, err)
	}
	if err := p.Learner.Fit(design, y); err != nil {
		return err
	}
	return nil
}

// Predict classifies sentinel-filled feature rows
func (p *Pipeline) Predict(numeric [][]float64, categorical [][]string) ([]int, error) {
	design, err := p.Transformer.Transform(numeric, categorical)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", p.Algorithm, err)
	}
	return p.Learner.Predict(design)
}

// PredictProba returns class probabilities for sentinel-filled rows,
// columns ordered as the learner's Classes.
func (p *Pipeline) PredictProba(numeric [][]float64, categorical [][]string) ([][]float64, error) {
	if !p.SupportsProbability() {
		return nil, fmt.Errorf("%s does not support probability estimation", p.Algorithm)
	}
	design, err := p.Transformer.Transform(numeric, categorical)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", p.Algorithm, err)
	}
	return p.Learner.PredictProba(design)
}

// PredictRecord classifies one record map, returning the encoded label
func (p *Pipeline) PredictRecord(record map[string]any) (int, error) {
	numeric, categorical := FeatureRow(&p.Transformer.Schema, record)
	labels, err := p.Predict([][]float64{numeric}, [][]string{categorical})
	if err != nil {
		return 0, err
	}
	return labels[0], nil
}

// PredictProbaRecord returns the class probabilities for one record map
func (p *Pipeline) PredictProbaRecord(record map[string]any) ([]float64, error) {
	numeric, categorical := FeatureRow(&p.Transformer.Schema, record)
	probas, err := p.PredictProba([][]float64{numeric}, [][]string{categorical})
	if err != nil {
		return nil, err
	}
	return probas[0], nil
}

// SupportsProbability reports whether the learner is probability-capable
func (p *Pipeline) SupportsProbability() bool {
	return p.Learner.Capabilities().Has(CapProbability)
}

// FeatureNames returns the transformed feature names for importance tables
func (p *Pipeline) FeatureNames() []string {
	return p.Transformer.FeatureNames()
}

// pipelineArtifact is the on-disk JSON form of a fitted pipeline
type pipelineArtifact struct {
	Version     string             `json:"version"`
	Algorithm   string             `json:"algorithm"`
	Transformer *ColumnTransformer `json:"transformer"`
	Codec       LabelCodec         `json:"codec"`
	Learner     json.RawMessage    `json:"learner"`
	SavedAt     time.Time          `json:"saved_at"`
}

const artifactVersion = "1"

// Save writes the fitted pipeline as a JSON artifact
func (p *Pipeline) Save(path string) error {
	learnerJSON, err := json.Marshal(p.Learner)
	if err != nil {
		return fmt.Errorf("failed to serialize learner: %w", err)
	}

	artifact := pipelineArtifact{
		Version:     artifactVersion,
		Algorithm:   p.Algorithm,
		Transformer: p.Transformer,
		Codec:       p.Codec,
		Learner:     learnerJSON,
		SavedAt:     time.Now().UTC(),
	}

	data, err := json.MarshalIndent(artifact, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize pipeline: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create model directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write model artifact: %w", err)
	}
	return nil
}

// LoadPipeline reads a JSON artifact back into a usable pipeline
func LoadPipeline(path string) (*Pipeline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model artifact: %w", err)
	}

	var artifact pipelineArtifact
	if err := json.Unmarshal(data, &artifact); err != nil {
		return nil, fmt.Errorf("failed to parse model artifact: %w", err)
	}
	if artifact.Version != artifactVersion {
		return nil, fmt.Errorf("unsupported artifact version %q", artifact.Version)
	}

	learner, err := NewLearner(artifact.Algorithm, 0)
	if err != nil {
		return nil, fmt.Errorf("artifact names %w", err)
	}
	if err := json.Unmarshal(artifact.Learner, learner); err != nil {
		return nil, fmt.Errorf("failed to restore %s state: %w", artifact.Algorithm, err)
	}

	return &Pipeline{
		Algorithm:   artifact.Algorithm,
		Transformer: artifact.Transformer,
		Learner:     learner,
		Codec:       artifact.Codec,
	}, nil
}
