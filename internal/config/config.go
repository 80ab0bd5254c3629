/*
 * Copyright 2025 Cong Wang
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package config

import (
	"flag"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Registry client types
const (
	RegistryTypeHTTP  = "http"
	RegistryTypeLocal = "local"
	RegistryTypeMock  = "mock"
)

// Storage types
const (
	StorageTypeMemory   = "memory"
	StorageTypeDatabase = "database"
)

// Config holds the application configuration
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Service  ServiceConfig  `yaml:"service"`
	Swagger  SwaggerConfig  `yaml:"swagger"`
	Registry RegistryConfig `yaml:"registry"`
	Storage  StorageConfig  `yaml:"storage"`
	Auth     AuthConfig     `yaml:"auth"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Address        string        `yaml:"address"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	IdleTimeout    time.Duration `yaml:"idle_timeout"`
	MaxRequestSize int64         `yaml:"max_request_size"` // management API body limit in bytes
}

// ServiceConfig identifies the microservice whose schemas are published
type ServiceConfig struct {
	AppName     string `yaml:"app_name"`
	ServiceName string `yaml:"service_name"`
	Version     string `yaml:"version"`
	Environment string `yaml:"environment"`
}

// SwaggerConfig controls how documentation becomes swagger schemas
type SwaggerConfig struct {
	// EnableJavaChassisAdapter selects the adapter mapper and synchronous
	// registration. When false the native mapper and async registration are used.
	EnableJavaChassisAdapter bool   `yaml:"enable_java_chassis_adapter"`
	Group                    string `yaml:"group"`
	OpenAPIFile              string `yaml:"openapi_file"`
	IncludeManagementAPI     bool   `yaml:"include_management_api"`
}

// RegistryConfig holds remote registry client configuration
type RegistryConfig struct {
	Type      string              `yaml:"type"`
	Address   string              `yaml:"address"`
	Project   string              `yaml:"project"`
	Domain    string              `yaml:"domain"`
	Timeout   time.Duration       `yaml:"timeout"`
	AuthToken string              `yaml:"auth_token"`
	Local     LocalRegistryConfig `yaml:"local"`
}

// LocalRegistryConfig configures the file-backed registry client
type LocalRegistryConfig struct {
	BasePath   string `yaml:"base_path"`
	CreateDirs bool   `yaml:"create_dirs"`
}

// StorageConfig holds registration history storage configuration
type StorageConfig struct {
	Type     string          `yaml:"type"`
	Database *DatabaseConfig `yaml:"database,omitempty"`
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Driver           string        `yaml:"driver"`
	ConnectionString string        `yaml:"connection_string"`
	MaxConnections   int           `yaml:"max_connections"`
	MaxIdleTime      time.Duration `yaml:"max_idle_time"`
}

// AuthConfig holds authentication configuration
type AuthConfig struct {
	AdminKeyFile      string `yaml:"admin_key_file"`       // Path to admin API key file
	AdminAPIKeyHeader string `yaml:"admin_api_key_header"` // Header for admin API key
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig holds metrics configuration
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Load loads configuration from the process command line, YAML file and environment
func Load() (*Config, error) {
	return LoadArgs(os.Args[1:])
}

// LoadArgs loads configuration using the given command line arguments.
// Command line flags take precedence over environment variables.
// Environment variables take precedence over YAML file values.
func LoadArgs(args []string) (*Config, error) {
	fs := flag.NewFlagSet("swagger-adapter", flag.ContinueOnError)
	configFile := fs.String("config", "", "Path to configuration file (YAML)")
	adminKeyFile := fs.String("admin-key-file", "", "Path to admin API key file")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg := DefaultConfig()

	if err := loadFromYAML(cfg, *configFile); err != nil {
		return nil, fmt.Errorf("failed to load YAML config: %w", err)
	}

	loadFromEnv(cfg)

	if *adminKeyFile != "" {
		cfg.Auth.AdminKeyFile = *adminKeyFile
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Address:        ":8080",
			ReadTimeout:    30 * time.Second,
			WriteTimeout:   30 * time.Second,
			IdleTimeout:    120 * time.Second,
			MaxRequestSize: 1 << 20,
		},
		Service: ServiceConfig{
			AppName:     "default",
			ServiceName: "swagger-adapter",
			Version:     "0.0.1",
			Environment: "development",
		},
		Swagger: SwaggerConfig{
			EnableJavaChassisAdapter: true,
			Group:                    "default",
			IncludeManagementAPI:     true,
		},
		Registry: RegistryConfig{
			Type:    RegistryTypeHTTP,
			Address: "http://127.0.0.1:30100",
			Project: "default",
			Domain:  "default",
			Timeout: 10 * time.Second,
			Local: LocalRegistryConfig{
				BasePath:   "./schemas",
				CreateDirs: true,
			},
		},
		Storage: StorageConfig{
			Type: StorageTypeMemory,
		},
		Auth: AuthConfig{
			AdminKeyFile:      "",
			AdminAPIKeyHeader: "X-Admin-Key",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// loadFromYAML loads configuration from a YAML file
func loadFromYAML(cfg *Config, configFile string) error {
	// Only load config file if explicitly provided via command line
	if configFile == "" {
		return nil
	}

	data, err := os.ReadFile(configFile)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", configFile, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse YAML config file %s: %w", configFile, err)
	}

	return nil
}

// loadFromEnv overrides configuration with environment variables
func loadFromEnv(cfg *Config) {
	// Server configuration
	if val := getEnv("SWAGGER_SERVER_ADDRESS", ""); val != "" {
		cfg.Server.Address = val
	}
	if val := getDurationEnv("SWAGGER_READ_TIMEOUT", 0); val != 0 {
		cfg.Server.ReadTimeout = val
	}
	if val := getDurationEnv("SWAGGER_WRITE_TIMEOUT", 0); val != 0 {
		cfg.Server.WriteTimeout = val
	}
	if val := getDurationEnv("SWAGGER_IDLE_TIMEOUT", 0); val != 0 {
		cfg.Server.IdleTimeout = val
	}

	if val := getInt64Env("SWAGGER_MAX_REQUEST_SIZE", 0); val > 0 {
		cfg.Server.MaxRequestSize = val
	}

	// Service identity
	if val := getEnv("SWAGGER_APP_NAME", ""); val != "" {
		cfg.Service.AppName = val
	}
	if val := getEnv("SWAGGER_SERVICE_NAME", ""); val != "" {
		cfg.Service.ServiceName = val
	}
	if val := getEnv("SWAGGER_SERVICE_VERSION", ""); val != "" {
		cfg.Service.Version = val
	}
	if val := getEnv("SWAGGER_ENVIRONMENT", ""); val != "" {
		cfg.Service.Environment = val
	}

	// Swagger configuration
	cfg.Swagger.EnableJavaChassisAdapter = getBoolEnv("SWAGGER_ENABLE_JAVA_CHASSIS_ADAPTER", cfg.Swagger.EnableJavaChassisAdapter)
	cfg.Swagger.IncludeManagementAPI = getBoolEnv("SWAGGER_INCLUDE_MANAGEMENT_API", cfg.Swagger.IncludeManagementAPI)
	if val := getEnv("SWAGGER_GROUP", ""); val != "" {
		cfg.Swagger.Group = val
	}
	if val := getEnv("SWAGGER_OPENAPI_FILE", ""); val != "" {
		cfg.Swagger.OpenAPIFile = val
	}

	// Registry configuration
	if val := getEnv("SWAGGER_REGISTRY_TYPE", ""); val != "" {
		cfg.Registry.Type = val
	}
	if val := getEnv("SWAGGER_REGISTRY_ADDRESS", ""); val != "" {
		cfg.Registry.Address = val
	}
	if val := getEnv("SWAGGER_REGISTRY_PROJECT", ""); val != "" {
		cfg.Registry.Project = val
	}
	if val := getEnv("SWAGGER_REGISTRY_DOMAIN", ""); val != "" {
		cfg.Registry.Domain = val
	}
	if val := getDurationEnv("SWAGGER_REGISTRY_TIMEOUT", 0); val != 0 {
		cfg.Registry.Timeout = val
	}
	if val := getEnv("SWAGGER_REGISTRY_AUTH_TOKEN", ""); val != "" {
		cfg.Registry.AuthToken = val
	}
	if val := getEnv("SWAGGER_REGISTRY_PATH", ""); val != "" {
		cfg.Registry.Local.BasePath = val
	}

	// Storage configuration
	if val := getEnv("SWAGGER_STORAGE_TYPE", ""); val != "" {
		cfg.Storage.Type = val
	}
	if val := getEnv("SWAGGER_DATABASE_URL", ""); val != "" {
		if cfg.Storage.Database == nil {
			cfg.Storage.Database = &DatabaseConfig{Driver: "postgres", MaxConnections: 10}
		}
		cfg.Storage.Database.ConnectionString = val
	}

	// Auth configuration
	if val := getEnv("SWAGGER_ADMIN_KEY_FILE", ""); val != "" {
		cfg.Auth.AdminKeyFile = val
	}
	if val := getEnv("SWAGGER_ADMIN_API_KEY_HEADER", ""); val != "" {
		cfg.Auth.AdminAPIKeyHeader = val
	}

	// Logging configuration
	if val := getEnv("SWAGGER_LOG_LEVEL", ""); val != "" {
		cfg.Logging.Level = val
	}
	if val := getEnv("SWAGGER_LOG_FORMAT", ""); val != "" {
		cfg.Logging.Format = val
	}

	cfg.Metrics.Enabled = getBoolEnv("SWAGGER_METRICS_ENABLED", cfg.Metrics.Enabled)
}

// validate validates the configuration
func (c *Config) validate() error {
	if strings.TrimSpace(c.Service.AppName) == "" {
		return fmt.Errorf("service app_name is required")
	}
	if strings.TrimSpace(c.Service.ServiceName) == "" {
		return fmt.Errorf("service service_name is required")
	}
	if c.Server.MaxRequestSize <= 0 {
		return fmt.Errorf("server max_request_size must be positive")
	}
	if c.Swagger.Group == "" {
		return fmt.Errorf("swagger group is required")
	}

	switch c.Registry.Type {
	case RegistryTypeHTTP:
		u, err := url.Parse(c.Registry.Address)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("invalid registry address: %s", c.Registry.Address)
		}
		if c.Registry.Timeout <= 0 {
			return fmt.Errorf("registry timeout must be positive")
		}
	case RegistryTypeLocal:
		if c.Registry.Local.BasePath == "" {
			return fmt.Errorf("local registry base_path is required")
		}
	case RegistryTypeMock:
	default:
		return fmt.Errorf("unsupported registry type: %s", c.Registry.Type)
	}

	switch c.Storage.Type {
	case StorageTypeMemory:
	case StorageTypeDatabase:
		if c.Storage.Database == nil || c.Storage.Database.ConnectionString == "" {
			return fmt.Errorf("database connection_string is required for database storage")
		}
	default:
		return fmt.Errorf("unsupported storage type: %s", c.Storage.Type)
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unsupported log level: %s", c.Logging.Level)
	}

	// Validate admin key file if specified
	if c.Auth.AdminKeyFile != "" {
		if _, err := os.Stat(c.Auth.AdminKeyFile); err != nil {
			return fmt.Errorf("admin key file not found: %s", c.Auth.AdminKeyFile)
		}
	}

	return nil
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getInt64Env(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseInt(value, 10, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
