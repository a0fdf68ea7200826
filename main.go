// Entry point for the Dropout Studio server
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/cors"

	"github.com/dropout-studio/dropout-studio-go/utils"
)

func main() {
	args := os.Args[1:]

	configPath := filepath.Join(".", "config.yaml")
	if len(args) > 0 {
		switch args[0] {
		case "-h", "--help", "help":
			printHelp()
			return
		case "--version", "-v":
			fmt.Println("dropout-studio version:", serverVersion)
			return
		case "--config":
			if len(args) < 2 {
				fmt.Fprintln(os.Stderr, "Error: --config requires a file path")
				os.Exit(1)
			}
			configPath = args[1]
		default:
			fmt.Fprintln(os.Stderr, "Unknown argument. Use --help for usage.")
			os.Exit(1)
		}
	}

	configManager := utils.GetConfigManager()
	if _, err := os.Stat(configPath); err == nil {
		if err := configManager.LoadFromFile(configPath); err != nil {
			fmt.Fprintf(os.Stderr, "Error reading %s: %v\n", configPath, err)
			os.Exit(1)
		}
	}
	configManager.LoadFromEnvironment()

	if err := utils.InitLogger(configManager.GetConfig().Logging); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
	}

	runServer(configManager)
}

func runServer(configManager *utils.ConfigManager) {
	logger := utils.GetLogger()
	config := configManager.GetConfig()

	server, err := NewServer(configManager)
	if err != nil {
		logger.Error("Failed to build server", err, utils.Component("main"))
		os.Exit(1)
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	addr := fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      c.Handler(server.router),
		ReadTimeout:  time.Duration(config.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(config.Server.WriteTimeout) * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Starting server",
			utils.Component("main"),
			utils.String("addr", addr),
			utils.String("version", serverVersion))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed", err, utils.Component("main"))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...", utils.Component("main"))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("HTTP server forced to shutdown", err, utils.Component("main"))
	}
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", err, utils.Component("main"))
	}

	logger.Info("Server exited", utils.Component("main"))
}

func printHelp() {
	fmt.Println("Usage:")
	fmt.Println("  (no arguments)          Start the server with ./config.yaml when present")
	fmt.Println("  --config <path>         Start the server with the given config file")
	fmt.Println("  -v, --version           Show version")
	fmt.Println("  -h, --help              Show this help message")
}
