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
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if !cfg.Swagger.EnableJavaChassisAdapter {
		t.Error("Expected java chassis adapter mode to be enabled by default")
	}
	if cfg.Swagger.Group != "default" {
		t.Errorf("Expected default group 'default', got %s", cfg.Swagger.Group)
	}
	if cfg.Registry.Type != RegistryTypeHTTP {
		t.Errorf("Expected registry type %s, got %s", RegistryTypeHTTP, cfg.Registry.Type)
	}
	if err := cfg.validate(); err != nil {
		t.Errorf("Expected default config to be valid, got %v", err)
	}
}

func TestLoadArgs_YAMLAndEnv(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "config.yaml")
	content := `
service:
  app_name: springmvc
  service_name: hello
swagger:
  enable_java_chassis_adapter: false
  group: public
registry:
  type: local
  local:
    base_path: ` + tempDir + `
  timeout: 3s
logging:
  level: debug
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	t.Setenv("SWAGGER_SERVICE_NAME", "hello-env")
	t.Setenv("SWAGGER_METRICS_ENABLED", "true")

	cfg, err := LoadArgs([]string{"-config", configPath})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if cfg.Service.AppName != "springmvc" {
		t.Errorf("Expected app name 'springmvc', got %s", cfg.Service.AppName)
	}
	if cfg.Service.ServiceName != "hello-env" {
		t.Errorf("Expected env override 'hello-env', got %s", cfg.Service.ServiceName)
	}
	if cfg.Swagger.EnableJavaChassisAdapter {
		t.Error("Expected adapter mode disabled from YAML")
	}
	if cfg.Swagger.Group != "public" {
		t.Errorf("Expected group 'public', got %s", cfg.Swagger.Group)
	}
	if cfg.Registry.Timeout != 3*time.Second {
		t.Errorf("Expected registry timeout 3s, got %v", cfg.Registry.Timeout)
	}
	if !cfg.Metrics.Enabled {
		t.Error("Expected metrics enabled from env")
	}
	// Values absent from the file keep their defaults
	if cfg.Server.Address != ":8080" {
		t.Errorf("Expected default address ':8080', got %s", cfg.Server.Address)
	}
}

func TestLoadArgs_AdapterFlagFromEnv(t *testing.T) {
	t.Setenv("SWAGGER_ENABLE_JAVA_CHASSIS_ADAPTER", "false")

	cfg, err := LoadArgs(nil)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if cfg.Swagger.EnableJavaChassisAdapter {
		t.Error("Expected adapter mode disabled from env")
	}
}

func TestLoadArgs_MissingFile(t *testing.T) {
	if _, err := LoadArgs([]string{"-config", "/non/existent/config.yaml"}); err == nil {
		t.Error("Expected error for missing config file")
	}
}

func TestConfigValidation(t *testing.T) {
	tempDir := t.TempDir()
	validKeysFile := filepath.Join(tempDir, "valid_keys.txt")
	if err := os.WriteFile(validKeysFile, []byte("admin-key-1\nadmin-key-2"), 0600); err != nil {
		t.Fatalf("Failed to write valid keys file: %v", err)
	}

	tests := []struct {
		name        string
		modify      func(*Config)
		expectError bool
		errorMsg    string
	}{
		{
			name:   "defaults",
			modify: func(c *Config) {},
		},
		{
			name:        "missing app name",
			modify:      func(c *Config) { c.Service.AppName = "" },
			expectError: true,
			errorMsg:    "service app_name is required",
		},
		{
			name:        "bad registry address",
			modify:      func(c *Config) { c.Registry.Address = "not a url" },
			expectError: true,
			errorMsg:    "invalid registry address: not a url",
		},
		{
			name:        "unsupported registry type",
			modify:      func(c *Config) { c.Registry.Type = "zookeeper" },
			expectError: true,
			errorMsg:    "unsupported registry type: zookeeper",
		},
		{
			name:   "mock registry",
			modify: func(c *Config) { c.Registry.Type = RegistryTypeMock },
		},
		{
			name:        "database storage without connection",
			modify:      func(c *Config) { c.Storage.Type = StorageTypeDatabase },
			expectError: true,
			errorMsg:    "database connection_string is required for database storage",
		},
		{
			name:   "valid admin key file",
			modify: func(c *Config) { c.Auth.AdminKeyFile = validKeysFile },
		},
		{
			name:        "non-existent admin key file",
			modify:      func(c *Config) { c.Auth.AdminKeyFile = "/non/existent/file.txt" },
			expectError: true,
			errorMsg:    "admin key file not found: /non/existent/file.txt",
		},
		{
			name:        "zero request size",
			modify:      func(c *Config) { c.Server.MaxRequestSize = 0 },
			expectError: true,
			errorMsg:    "server max_request_size must be positive",
		},
		{
			name:        "bad log level",
			modify:      func(c *Config) { c.Logging.Level = "verbose" },
			expectError: true,
			errorMsg:    "unsupported log level: verbose",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.validate()

			if tt.expectError && err == nil {
				t.Error("Expected error but got none")
			}

			if !tt.expectError && err != nil {
				t.Errorf("Unexpected error: %v", err)
			}

			if tt.expectError && tt.errorMsg != "" && err != nil {
				if err.Error() != tt.errorMsg {
					t.Errorf("Expected error message '%s', got '%s'", tt.errorMsg, err.Error())
				}
			}
		})
	}
}
