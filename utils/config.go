package utils

import (
	"fmt"
	"os"
	"strconv"
	"sync"

	"gopkg.in/yaml.v3"
)

// Config represents the main application configuration
type Config struct {
	Server   ServerConfig   `yaml:"server" json:"server"`
	Logging  LoggingConfig  `yaml:"logging" json:"logging"`
	Storage  StorageConfig  `yaml:"storage" json:"storage"`
	Sessions SessionsConfig `yaml:"sessions" json:"sessions"`
	Training TrainingConfig `yaml:"training" json:"training"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Host          string `yaml:"host" json:"host"`
	Port          int    `yaml:"port" json:"port"`
	ReadTimeout   int    `yaml:"read_timeout" json:"read_timeout"`   // seconds
	WriteTimeout  int    `yaml:"write_timeout" json:"write_timeout"` // seconds
	MaxUploadSize int64  `yaml:"max_upload_size" json:"max_upload_size"` // bytes
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level"`   // debug, info, warn, error
	Format string `yaml:"format" json:"format"` // json, text
}

// StorageConfig holds persistence-related configuration
type StorageConfig struct {
	DatabasePath  string `yaml:"database_path" json:"database_path"`
	ModelsDir     string `yaml:"models_dir" json:"models_dir"`
	BestModelFile string `yaml:"best_model_file" json:"best_model_file"`
}

// SessionsConfig holds session lifecycle configuration
type SessionsConfig struct {
	TTLMinutes    int    `yaml:"ttl_minutes" json:"ttl_minutes"`
	SweepSchedule string `yaml:"sweep_schedule" json:"sweep_schedule"` // cron expression
}

// TrainingConfig holds default modeling options
type TrainingConfig struct {
	DefaultTestSize   int      `yaml:"default_test_size" json:"default_test_size"` // percent, 10-50
	DefaultSeed       int64    `yaml:"default_seed" json:"default_seed"`
	DefaultAlgorithms []string `yaml:"default_algorithms" json:"default_algorithms"`
}

// ConfigManager manages application configuration
type ConfigManager struct {
	config *Config
	mutex  sync.RWMutex
}

// NewConfigManager creates a new configuration manager with defaults
func NewConfigManager() *ConfigManager {
	return &ConfigManager{
		config: getDefaultConfig(),
	}
}

// getDefaultConfig returns the built-in defaults
func getDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:          "0.0.0.0",
			Port:          8080,
			ReadTimeout:   60,
			WriteTimeout:  120,
			MaxUploadSize: 32 << 20,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Storage: StorageConfig{
			DatabasePath:  "./data/dropout_studio.db",
			ModelsDir:     "./data/models",
			BestModelFile: "best_dropout_model.json",
		},
		Sessions: SessionsConfig{
			TTLMinutes:    60,
			SweepSchedule: "@every 5m",
		},
		Training: TrainingConfig{
			DefaultTestSize:   25,
			DefaultSeed:       42,
			DefaultAlgorithms: []string{"Logistic Regression", "Random Forest"},
		},
	}
}

// LoadFromFile loads configuration from a YAML file, merging over defaults
func (cm *ConfigManager) LoadFromFile(configPath string) error {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	data, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	newConfig := getDefaultConfig()
	if err := yaml.Unmarshal(data, newConfig); err != nil {
		return fmt.Errorf("failed to parse YAML config: %w", err)
	}

	if err := validateConfig(newConfig); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	cm.config = newConfig
	return nil
}

// LoadFromEnvironment overrides configuration from environment variables
func (cm *ConfigManager) LoadFromEnvironment() {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	if host := os.Getenv("DROPOUT_HOST"); host != "" {
		cm.config.Server.Host = host
	}
	if port := os.Getenv("DROPOUT_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cm.config.Server.Port = p
		}
	}
	if logLevel := os.Getenv("DROPOUT_LOG_LEVEL"); logLevel != "" {
		cm.config.Logging.Level = logLevel
	}
	if dbPath := os.Getenv("DROPOUT_DB_PATH"); dbPath != "" {
		cm.config.Storage.DatabasePath = dbPath
	}
	if modelsDir := os.Getenv("DROPOUT_MODELS_DIR"); modelsDir != "" {
		cm.config.Storage.ModelsDir = modelsDir
	}
}

// SaveToFile saves the current configuration to a YAML file
func (cm *ConfigManager) SaveToFile(configPath string) error {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()

	data, err := yaml.Marshal(cm.config)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GetConfig returns a copy of the current configuration
func (cm *ConfigManager) GetConfig() *Config {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()

	configCopy := *cm.config
	return &configCopy
}

// validateConfig checks configuration invariants
func validateConfig(config *Config) error {
	if config.Server.Port < 1 || config.Server.Port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535, got %d", config.Server.Port)
	}
	if config.Training.DefaultTestSize < 10 || config.Training.DefaultTestSize > 50 {
		return fmt.Errorf("default test size must be between 10 and 50, got %d", config.Training.DefaultTestSize)
	}
	if config.Training.DefaultSeed < 0 || config.Training.DefaultSeed > 9999 {
		return fmt.Errorf("default seed must be between 0 and 9999, got %d", config.Training.DefaultSeed)
	}
	if config.Sessions.TTLMinutes <= 0 {
		return fmt.Errorf("session TTL must be positive, got %d", config.Sessions.TTLMinutes)
	}
	if config.Storage.BestModelFile == "" {
		return fmt.Errorf("best model filename cannot be empty")
	}
	return nil
}

// Global configuration manager
var globalConfigManager *ConfigManager
var configOnce sync.Once

// GetConfigManager returns the global configuration manager
func GetConfigManager() *ConfigManager {
	configOnce.Do(func() {
		globalConfigManager = NewConfigManager()
	})
	return globalConfigManager
}
