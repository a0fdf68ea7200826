package main

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/dropout-studio/dropout-studio-go/charts"
	"github.com/dropout-studio/dropout-studio-go/ml"
)

// handleResults reports the session's comparison table: one accuracy and
// confusion matrix per trained algorithm.
func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	result, ok := s.sessions.Result(sessionID(r))
	if !ok {
		writeJSONResponse(w, http.StatusOK, map[string]any{
			"trained": false,
			"models":  []any{},
			"message": "No models trained in this session yet",
		})
		return
	}

	models := make([]map[string]any, len(result.Models))
	for i, model := range result.Models {
		models[i] = map[string]any{
			"algorithm":      model.Algorithm,
			"accuracy":       model.Accuracy,
			"confusion":      model.Confusion,
			"has_importance": model.Importance != nil,
		}
	}

	response := map[string]any{
		"trained":    true,
		"models":     models,
		"warnings":   result.Warnings,
		"test_rows":  len(result.TestLabels),
		"trained_at": result.TrainedAt,
	}
	if best := result.Best(); best != nil {
		response["best"] = map[string]any{
			"algorithm": best.Algorithm,
			"accuracy":  best.Accuracy,
		}
	}
	writeJSONResponse(w, http.StatusOK, response)
}

// trainedModel finds the named algorithm in this session's results,
// writing the appropriate error response when absent.
func (s *Server) trainedModel(w http.ResponseWriter, r *http.Request) *ml.TrainedModel {
	algorithm := mux.Vars(r)["algorithm"]

	result, ok := s.sessions.Result(sessionID(r))
	if !ok {
		writeConflictResponse(w, "No models trained in this session yet")
		return nil
	}

	model := result.Model(algorithm)
	if model == nil {
		writeNotFoundResponse(w, "Algorithm not trained: "+algorithm)
		return nil
	}
	return model
}

// handleImportance returns the top feature-importance rows as JSON
func (s *Server) handleImportance(w http.ResponseWriter, r *http.Request) {
	model := s.trainedModel(w, r)
	if model == nil {
		return
	}
	if model.Importance == nil {
		writeNotFoundResponse(w, model.Algorithm+" has no feature importance table")
		return
	}

	table := model.Importance
	if len(table) > charts.TopFeatures {
		table = table[:charts.TopFeatures]
	}

	writeJSONResponse(w, http.StatusOK, map[string]any{
		"algorithm":  model.Algorithm,
		"importance": table,
		"total_rows": len(model.Importance),
	})
}

// handleImportanceChart renders the importance table as a downloadable PNG
func (s *Server) handleImportanceChart(w http.ResponseWriter, r *http.Request) {
	model := s.trainedModel(w, r)
	if model == nil {
		return
	}
	if model.Importance == nil {
		writeNotFoundResponse(w, model.Algorithm+" has no feature importance table")
		return
	}

	png, err := charts.RenderImportancePNG(model.Algorithm, model.Importance)
	if err != nil {
		writeInternalServerErrorResponse(w, "Failed to render chart: "+err.Error())
		return
	}

	filename := charts.ImportanceFilename(model.Algorithm)
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}
