package main

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/dropout-studio/dropout-studio-go/dataset"
	"github.com/dropout-studio/dropout-studio-go/ml"
	"github.com/dropout-studio/dropout-studio-go/utils"
)

const serverVersion = "v0.1.0"

// handleHealth reports service liveness
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSONResponse(w, http.StatusOK, map[string]any{
		"status":  "healthy",
		"service": "dropout-studio",
		"version": serverVersion,
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

// datasetSummary is the API view of a cached dataset
type datasetSummary struct {
	ID              string                   `json:"id"`
	Filename        string                   `json:"filename"`
	Source          string                   `json:"source"`
	Rows            int                      `json:"rows"`
	Columns         []dataset.ColumnMetadata `json:"columns"`
	SuggestedTarget string                   `json:"suggested_target"`
	UploadedAt      time.Time                `json:"uploaded_at"`
	Cached          bool                     `json:"cached"`
}

func summarize(entry *dataset.Entry, cached bool) datasetSummary {
	return datasetSummary{
		ID:              entry.ID,
		Filename:        entry.Filename,
		Source:          entry.Dataset.Source,
		Rows:            entry.Dataset.RowCount,
		Columns:         entry.Dataset.Columns,
		SuggestedTarget: ml.SuggestTarget(entry.Dataset.ColumnNames()),
		UploadedAt:      entry.UploadedAt,
		Cached:          cached,
	}
}

// handleUploadDataset ingests a multipart CSV/Excel upload
func (s *Server) handleUploadDataset(w http.ResponseWriter, r *http.Request) {
	maxUpload := s.config.GetConfig().Server.MaxUploadSize
	r.Body = http.MaxBytesReader(w, r.Body, maxUpload)

	if err := r.ParseMultipartForm(maxUpload); err != nil {
		writeBadRequestResponse(w, "Invalid multipart form: "+err.Error())
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeBadRequestResponse(w, "Missing file field in upload")
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		writeInternalServerErrorResponse(w, "Failed to read upload: "+err.Error())
		return
	}

	entry, cached, err := s.datasets.LoadOrParse(header.Filename, content)
	if err != nil {
		writeBadRequestResponse(w, "Failed to parse dataset: "+err.Error())
		return
	}

	utils.GetLogger().Info("Dataset uploaded",
		utils.Component("handlers"),
		utils.String("dataset_id", entry.ID),
		utils.String("filename", header.Filename),
		utils.Int("rows", entry.Dataset.RowCount))

	writeJSONResponse(w, http.StatusOK, summarize(entry, cached))
}

// handleDemoDataset generates (or reuses) a synthetic demo dataset
func (s *Server) handleDemoDataset(w http.ResponseWriter, r *http.Request) {
	request := struct {
		Seed *int64 `json:"seed"`
	}{}
	if r.Body != nil {
		// Empty body means default seed
		if err := json.NewDecoder(r.Body).Decode(&request); err != nil && err != io.EOF {
			writeBadRequestResponse(w, "Invalid JSON body: "+err.Error())
			return
		}
	}

	seed := s.config.GetConfig().Training.DefaultSeed
	if request.Seed != nil {
		seed = *request.Seed
	}

	entry := s.datasets.PutDemo(seed)
	writeJSONResponse(w, http.StatusOK, summarize(entry, false))
}

// handleListDatasets lists cached datasets, newest first
func (s *Server) handleListDatasets(w http.ResponseWriter, r *http.Request) {
	entries := s.datasets.List()
	summaries := make([]datasetSummary, len(entries))
	for i, entry := range entries {
		summaries[i] = summarize(entry, true)
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{
		"datasets": summaries,
		"count":    len(summaries),
	})
}

// handlePreviewDataset returns the first rows of a cached dataset
func (s *Server) handlePreviewDataset(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	entry, ok := s.datasets.Get(id)
	if !ok {
		writeNotFoundResponse(w, "Dataset not found: "+id)
		return
	}

	limit := parseLimit(r, 10)
	ds := entry.Dataset
	if limit > ds.RowCount {
		limit = ds.RowCount
	}

	writeJSONResponse(w, http.StatusOK, map[string]any{
		"id":        entry.ID,
		"columns":   ds.ColumnNames(),
		"rows":      ds.Rows[:limit],
		"row_count": ds.RowCount,
	})
}
