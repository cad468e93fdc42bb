package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	ServerAddress string `yaml:"server_address"`
	Environment   string `yaml:"environment"`
	EnableCORS    bool   `yaml:"enable_cors"`
	AllowedOrigin string `yaml:"allowed_origin"`

	// Collaborator endpoints
	TransformServiceURL string        `yaml:"transform_service_url"`
	TransformTimeout    time.Duration `yaml:"transform_timeout"`
	ArchiveServerURL    string        `yaml:"archive_server_url"`
	ArchiveTimeout      time.Duration `yaml:"archive_timeout"`

	// Pipeline catalog
	PipelineCatalogPath  string `yaml:"pipeline_catalog_path"`
	WatchPipelineCatalog bool   `yaml:"watch_pipeline_catalog"`

	// Buffer list management
	MaxOpenBuffers int `yaml:"max_open_buffers"`

	// Logging and metrics
	LogLevel         string `yaml:"log_level"`
	MetricsNamespace string `yaml:"metrics_namespace"`
}

// LoadConfig loads configuration from environment variables, optionally
// overlaid by a YAML file pointed at by LOOM_CONFIG_FILE
func LoadConfig() (*Config, error) {
	cfg := &Config{
		ServerAddress: getEnv("SERVER_ADDRESS", ":8080"),
		Environment:   getEnv("ENVIRONMENT", "development"),
		EnableCORS:    getEnvBool("ENABLE_CORS", true),
		AllowedOrigin: getEnv("ALLOWED_ORIGIN", "http://localhost:3000"),

		TransformServiceURL: getEnv("TRANSFORM_SERVICE_URL", "http://localhost:8091"),
		TransformTimeout:    getEnvDuration("TRANSFORM_TIMEOUT", 120*time.Second),
		ArchiveServerURL:    getEnv("ARCHIVE_SERVER_URL", "http://localhost:8092"),
		ArchiveTimeout:      getEnvDuration("ARCHIVE_TIMEOUT", 30*time.Second),

		PipelineCatalogPath:  getEnv("PIPELINE_CATALOG_PATH", ""),
		WatchPipelineCatalog: getEnvBool("WATCH_PIPELINE_CATALOG", true),

		MaxOpenBuffers: getEnvInt("MAX_OPEN_BUFFERS", 0),

		LogLevel:         getEnv("LOG_LEVEL", "info"),
		MetricsNamespace: getEnv("METRICS_NAMESPACE", "loom"),
	}

	if path := os.Getenv("LOOM_CONFIG_FILE"); path != "" {
		if err := cfg.overlayFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// overlayFile applies YAML file values over the environment-derived config
func (c *Config) overlayFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return nil
}

// Validate checks if all required configuration is present
func (c *Config) Validate() error {
	if c.TransformServiceURL == "" {
		return fmt.Errorf("TRANSFORM_SERVICE_URL is required")
	}
	if c.ArchiveServerURL == "" {
		return fmt.Errorf("ARCHIVE_SERVER_URL is required")
	}
	if c.MaxOpenBuffers < 0 {
		return fmt.Errorf("MAX_OPEN_BUFFERS cannot be negative")
	}
	return nil
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration gets a duration environment variable with a default value
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
