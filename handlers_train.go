package main

import (
	"encoding/json"
	"net/http"

	"github.com/dropout-studio/dropout-studio-go/ml"
	"github.com/dropout-studio/dropout-studio-go/utils"
)

// TrainRequest selects the dataset, target and modeling options
type TrainRequest struct {
	DatasetID  string   `json:"dataset_id"`
	Target     string   `json:"target"`
	Algorithms []string `json:"algorithms"`
	TestSize   int      `json:"test_size"`
	Seed       *int64   `json:"seed"`
}

// handleTrain resolves the dataset and runs the selected algorithms,
// replacing this session's previous results wholesale.
func (s *Server) handleTrain(w http.ResponseWriter, r *http.Request) {
	var request TrainRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeBadRequestResponse(w, "Invalid JSON body: "+err.Error())
		return
	}

	entry, ok := s.datasets.Get(request.DatasetID)
	if !ok {
		writeNotFoundResponse(w, "Dataset not found: "+request.DatasetID)
		return
	}

	// Fill unset options from the configured training defaults
	defaults := s.config.GetConfig().Training
	opts := ml.TrainOptions{
		Algorithms: request.Algorithms,
		TestSize:   request.TestSize,
	}
	if len(opts.Algorithms) == 0 {
		opts.Algorithms = defaults.DefaultAlgorithms
	}
	if opts.TestSize == 0 {
		opts.TestSize = defaults.DefaultTestSize
	}
	if request.Seed != nil {
		opts.Seed = *request.Seed
	} else {
		opts.Seed = defaults.DefaultSeed
	}

	resolved, err := ml.Resolve(entry.Dataset, request.Target)
	if err != nil {
		writeBadRequestResponse(w, err.Error())
		return
	}

	result, err := ml.Train(resolved, opts)
	if err != nil {
		writeBadRequestResponse(w, err.Error())
		return
	}

	s.sessions.SetResult(sessionID(r), result)

	utils.GetLogger().Info("Training run completed",
		utils.Component("handlers"),
		utils.String("dataset_id", entry.ID),
		utils.String("target", request.Target),
		utils.Int("trained", len(result.Models)),
		utils.Int("failed", len(result.Warnings)))

	models := make([]map[string]any, len(result.Models))
	for i, model := range result.Models {
		models[i] = map[string]any{
			"algorithm":      model.Algorithm,
			"accuracy":       model.Accuracy,
			"has_importance": model.Importance != nil,
		}
	}

	writeJSONResponse(w, http.StatusOK, map[string]any{
		"trained":    len(result.Models),
		"models":     models,
		"warnings":   result.Warnings,
		"test_rows":  len(result.TestLabels),
		"target":     request.Target,
		"test_size":  opts.TestSize,
		"seed":       opts.Seed,
		"trained_at": result.TrainedAt,
	})
}
