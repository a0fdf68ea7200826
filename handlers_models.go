package main

import (
	"net/http"
	"path/filepath"

	"github.com/dropout-studio/dropout-studio-go/store"
	"github.com/dropout-studio/dropout-studio-go/utils"
)

// handleSaveBestModel persists the session's highest-accuracy pipeline:
// a JSON artifact under the fixed configured name plus a registry row.
func (s *Server) handleSaveBestModel(w http.ResponseWriter, r *http.Request) {
	result, ok := s.sessions.Result(sessionID(r))
	if !ok {
		writeConflictResponse(w, "No models trained in this session yet")
		return
	}

	best := result.Best()
	if best == nil {
		writeConflictResponse(w, "No algorithm trained successfully")
		return
	}

	storage := s.config.GetConfig().Storage
	artifactPath := filepath.Join(storage.ModelsDir, storage.BestModelFile)
	if err := best.Pipeline.Save(artifactPath); err != nil {
		writeInternalServerErrorResponse(w, "Failed to save model artifact: "+err.Error())
		return
	}

	featureColumns := append([]string{}, result.Schema.NumericColumns...)
	featureColumns = append(featureColumns, result.Schema.CategoricalColumns...)

	labelNames := make([]string, 0)
	if best.Confusion != nil {
		labelNames = best.Confusion.LabelNames
	}

	saved := &store.SavedModel{
		Algorithm:      best.Algorithm,
		Accuracy:       best.Accuracy,
		ArtifactPath:   artifactPath,
		FeatureColumns: featureColumns,
		LabelNames:     labelNames,
	}
	if err := s.registry.Save(r.Context(), saved); err != nil {
		writeInternalServerErrorResponse(w, "Failed to record saved model: "+err.Error())
		return
	}

	utils.GetLogger().Info("Best model saved",
		utils.Component("handlers"),
		utils.String("algorithm", best.Algorithm),
		utils.Float("accuracy", best.Accuracy),
		utils.String("artifact", artifactPath))

	writeJSONResponse(w, http.StatusOK, map[string]any{
		"model_id":      saved.ID,
		"algorithm":     best.Algorithm,
		"accuracy":      best.Accuracy,
		"artifact_path": artifactPath,
	})
}

// handleListModels lists the saved-model registry, newest first
func (s *Server) handleListModels(w http.ResponseWriter, r *http.Request) {
	models, err := s.registry.List(r.Context())
	if err != nil {
		writeInternalServerErrorResponse(w, "Failed to list saved models: "+err.Error())
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{
		"models": models,
		"count":  len(models),
	})
}
