package main

import (
	"github.com/dropout-studio/dropout-studio-go/frontend"
)

// setupRoutes sets up the HTTP routes with API versioning
func (s *Server) setupRoutes() {
	s.router.Use(s.loggingMiddleware)
	s.router.Use(s.errorRecoveryMiddleware)
	s.router.Use(s.sessionMiddleware)

	// Health check (no version)
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")

	v1 := s.router.PathPrefix("/api/v1").Subrouter()
	v1.Use(s.versionMiddleware("v1"))

	// Dataset ingestion
	v1.HandleFunc("/datasets/upload", s.handleUploadDataset).Methods("POST")
	v1.HandleFunc("/datasets/demo", s.handleDemoDataset).Methods("POST")
	v1.HandleFunc("/datasets", s.handleListDatasets).Methods("GET")
	v1.HandleFunc("/datasets/{id}/preview", s.handlePreviewDataset).Methods("GET")

	// Training and results
	v1.HandleFunc("/train", s.handleTrain).Methods("POST")
	v1.HandleFunc("/results", s.handleResults).Methods("GET")
	v1.HandleFunc("/results/{algorithm}/importance", s.handleImportance).Methods("GET")
	v1.HandleFunc("/results/{algorithm}/importance.png", s.handleImportanceChart).Methods("GET")

	// Saved models
	v1.HandleFunc("/models/best", s.handleSaveBestModel).Methods("POST")
	v1.HandleFunc("/models", s.handleListModels).Methods("GET")

	// Single prediction
	v1.HandleFunc("/predict/form", s.handlePredictForm).Methods("GET")
	v1.HandleFunc("/predict", s.handlePredict).Methods("POST")

	// Embedded UI for everything else
	s.router.PathPrefix("/").Handler(frontend.Handler())
}
