package main

import (
	"encoding/json"
	"net/http"

	"github.com/dropout-studio/dropout-studio-go/utils"
)

// Risk tier boundaries on the positive-class probability
const (
	highRiskAbove   = 0.7
	mediumRiskAbove = 0.3
)

// riskTier maps a positive-class probability to its banner
func riskTier(probability float64) string {
	switch {
	case probability > highRiskAbove:
		return "high"
	case probability > mediumRiskAbove:
		return "medium"
	default:
		return "low"
	}
}

// handlePredictForm returns per-feature form defaults for this session's
// trained schema: numeric medians and first-category choices.
func (s *Server) handlePredictForm(w http.ResponseWriter, r *http.Request) {
	result, ok := s.sessions.Result(sessionID(r))
	if !ok {
		writeConflictResponse(w, "Train at least one model before predicting")
		return
	}

	algorithms := make([]string, len(result.Models))
	for i, model := range result.Models {
		algorithms[i] = model.Algorithm
	}

	writeJSONResponse(w, http.StatusOK, map[string]any{
		"fields":     result.FormDefaults,
		"algorithms": algorithms,
	})
}

// PredictRequest runs one record through a chosen trained pipeline
type PredictRequest struct {
	Algorithm string         `json:"algorithm"`
	Record    map[string]any `json:"record"`
}

// handlePredict classifies a single record and, when the pipeline
// supports probability, adds the positive-class probability and risk tier.
func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	var request PredictRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeBadRequestResponse(w, "Invalid JSON body: "+err.Error())
		return
	}

	result, ok := s.sessions.Result(sessionID(r))
	if !ok {
		writeConflictResponse(w, "Train at least one model before predicting")
		return
	}

	model := result.Model(request.Algorithm)
	if model == nil {
		writeBadRequestResponse(w, "Algorithm not trained: "+request.Algorithm)
		return
	}
	if request.Record == nil {
		writeBadRequestResponse(w, "Missing record to classify")
		return
	}

	predicted, err := model.Pipeline.PredictRecord(request.Record)
	if err != nil {
		writeInternalServerErrorResponse(w, "Prediction failed: "+err.Error())
		return
	}

	response := map[string]any{
		"algorithm":       model.Algorithm,
		"predicted_class": predicted,
		"predicted_label": result.Codec.Decode(predicted),
	}

	// Probability is additive: pipelines without it still predict
	if model.Pipeline.SupportsProbability() {
		proba, err := model.Pipeline.PredictProbaRecord(request.Record)
		if err != nil {
			utils.GetLogger().Warn("Probability estimation failed",
				utils.Component("handlers"),
				utils.String("algorithm", model.Algorithm),
				utils.Error(err))
		} else if len(proba) >= 2 {
			positive := proba[1]
			response["probability_pct"] = positive * 100
			response["risk"] = riskTier(positive)
		}
	}

	writeJSONResponse(w, http.StatusOK, response)
}
