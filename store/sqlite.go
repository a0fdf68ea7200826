// Package store persists saved-model metadata in SQLite. Model weights
// live in JSON artifacts on disk; the registry records where they are and
// how well they scored.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/dropout-studio/dropout-studio-go/utils"
)

// SavedModel is one registry row describing a persisted pipeline
type SavedModel struct {
	ID             string    `json:"id"`
	Algorithm      string    `json:"algorithm"`
	Accuracy       float64   `json:"accuracy"`
	ArtifactPath   string    `json:"artifact_path"`
	FeatureColumns []string  `json:"feature_columns"`
	LabelNames     []string  `json:"label_names"`
	CreatedAt      time.Time `json:"created_at"`
}

// ModelRegistry is the SQLite-backed saved-model catalog
type ModelRegistry struct {
	db *sql.DB
}

const registrySchema = `
CREATE TABLE IF NOT EXISTS saved_models (
	id              TEXT PRIMARY KEY,
	algorithm       TEXT NOT NULL,
	accuracy        REAL NOT NULL,
	artifact_path   TEXT NOT NULL,
	feature_columns TEXT NOT NULL,
	label_names     TEXT NOT NULL,
	created_at      TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_saved_models_created ON saved_models(created_at DESC);
`

// NewModelRegistry opens (creating if needed) the registry database
func NewModelRegistry(databasePath string) (*ModelRegistry, error) {
	if dir := filepath.Dir(databasePath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", databasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply %s: %w", pragma, err)
		}
	}

	if _, err := db.Exec(registrySchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	utils.GetLogger().Info("Model registry opened",
		utils.Component("store"),
		utils.String("path", databasePath))

	return &ModelRegistry{db: db}, nil
}

// Save inserts a registry row, assigning an ID when absent
func (r *ModelRegistry) Save(ctx context.Context, model *SavedModel) error {
	if model.ID == "" {
		model.ID = uuid.New().String()
	}
	if model.CreatedAt.IsZero() {
		model.CreatedAt = time.Now().UTC()
	}

	features, err := json.Marshal(model.FeatureColumns)
	if err != nil {
		return fmt.Errorf("failed to encode feature columns: %w", err)
	}
	labels, err := json.Marshal(model.LabelNames)
	if err != nil {
		return fmt.Errorf("failed to encode label names: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO saved_models (id, algorithm, accuracy, artifact_path, feature_columns, label_names, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		model.ID, model.Algorithm, model.Accuracy, model.ArtifactPath,
		string(features), string(labels), model.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert saved model: %w", err)
	}
	return nil
}

// Get returns one saved model by ID
func (r *ModelRegistry) Get(ctx context.Context, id string) (*SavedModel, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, algorithm, accuracy, artifact_path, feature_columns, label_names, created_at
		 FROM saved_models WHERE id = ?`, id)

	model, err := scanSavedModel(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("saved model not found: %s", id)
	}
	return model, err
}

// List returns all saved models, newest first
func (r *ModelRegistry) List(ctx context.Context) ([]*SavedModel, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, algorithm, accuracy, artifact_path, feature_columns, label_names, created_at
		 FROM saved_models ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query saved models: %w", err)
	}
	defer rows.Close()

	var models []*SavedModel
	for rows.Next() {
		model, err := scanSavedModel(rows)
		if err != nil {
			return nil, err
		}
		models = append(models, model)
	}
	return models, rows.Err()
}

// Close releases the database handle
func (r *ModelRegistry) Close() error {
	return r.db.Close()
}

// scanner covers both sql.Row and sql.Rows
type scanner interface {
	Scan(dest ...any) error
}

// scanSavedModel decodes one registry row
func scanSavedModel(s scanner) (*SavedModel, error) {
	var model SavedModel
	var features, labels string

	err := s.Scan(&model.ID, &model.Algorithm, &model.Accuracy, &model.ArtifactPath,
		&features, &labels, &model.CreatedAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(features), &model.FeatureColumns); err != nil {
		return nil, fmt.Errorf("corrupt feature columns for %s: %w", model.ID, err)
	}
	if err := json.Unmarshal([]byte(labels), &model.LabelNames); err != nil {
		return nil, fmt.Errorf("corrupt label names for %s: %w", model.ID, err)
	}
	return &model, nil
}
