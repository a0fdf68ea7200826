package main

import (
	"context"
	"fmt"
	"time"

	"github.com/gorilla/mux"

	"github.com/dropout-studio/dropout-studio-go/dataset"
	"github.com/dropout-studio/dropout-studio-go/session"
	"github.com/dropout-studio/dropout-studio-go/store"
	"github.com/dropout-studio/dropout-studio-go/utils"
)

// Server wires the HTTP surface to the dataset cache, session store and
// saved-model registry
type Server struct {
	router   *mux.Router
	config   *utils.ConfigManager
	datasets *dataset.Cache
	sessions *session.Store
	registry *store.ModelRegistry
}

// NewServer builds a fully wired server from the given configuration
func NewServer(configManager *utils.ConfigManager) (*Server, error) {
	config := configManager.GetConfig()

	registry, err := store.NewModelRegistry(config.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open model registry: %w", err)
	}

	s := &Server{
		router:   mux.NewRouter(),
		config:   configManager,
		datasets: dataset.NewCache(),
		sessions: session.NewStore(time.Duration(config.Sessions.TTLMinutes) * time.Minute),
		registry: registry,
	}
	s.setupRoutes()

	if err := s.sessions.StartJanitor(config.Sessions.SweepSchedule); err != nil {
		registry.Close()
		return nil, err
	}

	return s, nil
}

// Shutdown releases background work and storage handles
func (s *Server) Shutdown(ctx context.Context) error {
	logger := utils.GetLogger()

	done := make(chan struct{})
	go func() {
		defer close(done)

		s.sessions.StopJanitor()

		if err := s.registry.Close(); err != nil {
			logger.Error("Error closing model registry", err, utils.Component("server"))
		}
	}()

	select {
	case <-done:
		logger.Info("Graceful shutdown completed", utils.Component("server"))
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
