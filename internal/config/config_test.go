package config

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func testConfigPath(t *testing.T) string {
	t.Helper()

	// Get the project root by going up from internal/config
	projectRoot, err := filepath.Abs("../../")
	if err != nil {
		t.Fatalf("failed to get project root: %v", err)
	}

	return filepath.Join(projectRoot, "etc") + string(filepath.Separator)
}

func TestReadConfig(t *testing.T) {
	cfg, err := ReadConfig(testConfigPath(t))
	if err != nil {
		t.Fatalf("ReadConfig() error = %v", err)
	}

	// Test basic config fields
	if cfg.Title == "" {
		t.Error("Config.Title should not be empty")
	}

	if cfg.Webserver.Port == 0 {
		t.Error("Webserver.Port should not be 0")
	}

	if cfg.Webserver.URL == "" {
		t.Error("Webserver.URL should not be empty")
	}

	if cfg.DB.GormEngine != GormEngineSQLite {
		t.Errorf("DB.GormEngine = %q, want %q", cfg.DB.GormEngine, GormEngineSQLite)
	}

	if cfg.Auth.TokenTTL != 7*24*time.Hour {
		t.Errorf("Auth.TokenTTL = %v, want 168h", cfg.Auth.TokenTTL)
	}

	if len(cfg.Webserver.AllowedOrigins) == 0 {
		t.Error("Webserver.AllowedOrigins should not be empty")
	}

	if cfg.Log.AppName == "" {
		t.Error("Log.AppName should not be empty")
	}

	if cfg.Jobs.EventCleanup != "0 0 * * *" {
		t.Errorf("Jobs.EventCleanup = %q", cfg.Jobs.EventCleanup)
	}
}

func TestReadConfigMissingFile(t *testing.T) {
	if _, err := ReadConfig(t.TempDir() + string(filepath.Separator)); err == nil {
		t.Fatal("ReadConfig() expected error for missing main.toml")
	}
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr error
	}{
		{
			name: "valid config",
			config: Config{
				Webserver: Webserver{Port: 8080, URL: "http://localhost:8080"},
				Auth:      Auth{JWTSecret: "secret"},
			},
		},
		{
			name: "missing port",
			config: Config{
				Webserver: Webserver{Port: 0, URL: "http://localhost:8080"},
				Auth:      Auth{JWTSecret: "secret"},
			},
			wantErr: ErrWebServerPortCanNotBeZero,
		},
		{
			name: "missing URL",
			config: Config{
				Webserver: Webserver{Port: 8080, URL: ""},
				Auth:      Auth{JWTSecret: "secret"},
			},
			wantErr: ErrEmptyURL,
		},
		{
			name: "missing jwt secret in production",
			config: Config{
				Webserver: Webserver{Port: 8080, URL: "http://localhost:8080"},
			},
			wantErr: ErrEmptyJWTSecret,
		},
		{
			name: "missing jwt secret in dev mode",
			config: Config{
				DevMode:   true,
				Webserver: Webserver{Port: 8080, URL: "http://localhost:8080"},
			},
		},
		{
			name: "unknown gorm engine",
			config: Config{
				Webserver: Webserver{Port: 8080, URL: "http://localhost:8080"},
				Auth:      Auth{JWTSecret: "secret"},
				DB:        DB{GormEngine: "oracle"},
			},
			wantErr: ErrUnknownGormEngine,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validate(&tt.config)
			if tt.wantErr == nil && err != nil {
				t.Fatalf("validate() unexpected error = %v", err)
			}

			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateDefaults(t *testing.T) {
	cfg := Config{
		Webserver: Webserver{Port: 8080, URL: "http://localhost:8080"},
		Auth:      Auth{JWTSecret: "secret"},
	}

	if err := validate(&cfg); err != nil {
		t.Fatalf("validate() error = %v", err)
	}

	if cfg.Webserver.ShutDownTime != 5 {
		t.Errorf("ShutDownTime = %d, want 5", cfg.Webserver.ShutDownTime)
	}

	if cfg.Webserver.BackendURL != cfg.Webserver.URL {
		t.Errorf("BackendURL = %q, want %q", cfg.Webserver.BackendURL, cfg.Webserver.URL)
	}

	if cfg.DB.GormEngine != GormEngineMySQL {
		t.Errorf("GormEngine = %q, want %q", cfg.DB.GormEngine, GormEngineMySQL)
	}

	if cfg.Auth.OTPTTL != 5*time.Minute || cfg.Auth.ResetTTL != 15*time.Minute {
		t.Errorf("unexpected auth ttl defaults: %v %v", cfg.Auth.OTPTTL, cfg.Auth.ResetTTL)
	}

	if cfg.PhonePe.Environment != PhonePeSandbox {
		t.Errorf("PhonePe.Environment = %q", cfg.PhonePe.Environment)
	}
}

func TestReadConfigWithJSONOverride(t *testing.T) {
	// Set JSON override environment variable
	jsonOverride := `{"Title":"Test Override","Webserver":{"Port":9090}}`
	t.Setenv(EnvConfigJSON, jsonOverride)

	cfg, err := ReadConfig(testConfigPath(t))
	if err != nil {
		t.Fatalf("ReadConfig() error = %v", err)
	}

	if cfg.Title != "Test Override" {
		t.Errorf("Title = %v, want %v", cfg.Title, "Test Override")
	}

	if cfg.Webserver.Port != 9090 {
		t.Errorf("Webserver.Port = %v, want %v", cfg.Webserver.Port, 9090)
	}

	// keys absent from the override keep their file value
	if cfg.Webserver.URL == "" {
		t.Error("Webserver.URL should survive the override")
	}
}

func TestReadConfigWithBrokenJSONOverride(t *testing.T) {
	t.Setenv(EnvConfigJSON, `{"Title":`)

	if _, err := ReadConfig(testConfigPath(t)); err == nil {
		t.Fatal("ReadConfig() expected error for broken json override")
	}
}

func TestReadConfigWithEnvOverride(t *testing.T) {
	t.Setenv("DHENU_TITLE", "From Env")

	cfg, err := ReadConfig(testConfigPath(t))
	if err != nil {
		t.Fatalf("ReadConfig() error = %v", err)
	}

	if cfg.Title != "From Env" {
		t.Errorf("Title = %v, want %v", cfg.Title, "From Env")
	}
}

func TestDumpConfig(t *testing.T) {
	cfg := Config{
		Title:   "Test",
		DevMode: true,
		Webserver: Webserver{
			Port: 8080,
			URL:  "http://localhost:8080",
		},
	}

	tomlStr, err := DumpConfig(&cfg)
	if err != nil {
		t.Fatalf("DumpConfig() error = %v", err)
	}

	if tomlStr == "" {
		t.Error("DumpConfig() returned empty string")
	}

	// Check if output contains expected values
	if !strings.Contains(tomlStr, "Test") {
		t.Error("DumpConfig() output should contain Title")
	}
}

func TestDumpConfigJSON(t *testing.T) {
	cfg := Config{
		Title:   "Test",
		DevMode: true,
		Webserver: Webserver{
			Port: 8080,
			URL:  "http://localhost:8080",
		},
	}

	jsonStr, err := DumpConfigJSON(&cfg)
	if err != nil {
		t.Fatalf("DumpConfigJSON() error = %v", err)
	}

	if !strings.Contains(jsonStr, `"Title": "Test"`) {
		t.Errorf("DumpConfigJSON() output should contain Title, got %s", jsonStr)
	}
}
