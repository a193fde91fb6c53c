package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"tutorly/pkg/logger"
)

func isolateEnv(t *testing.T) {
	t.Helper()
	t.Setenv(EnvFile, filepath.Join(t.TempDir(), "missing.env"))
}

func TestParse_Defaults(t *testing.T) {
	isolateEnv(t)
	t.Setenv(EnvTimeZone, "UTC")

	cfg, err := Parse("portal")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Port != DefaultPort || cfg.WizardStore != WizardStoreMemory {
		t.Errorf("unexpected defaults: port=%s store=%s", cfg.Port, cfg.WizardStore)
	}
	if cfg.DefaultSessionDurationMin != 60 || !cfg.ExcludeClassTimes {
		t.Errorf("unexpected booking defaults %+v", cfg)
	}
	if cfg.Location != time.UTC {
		t.Errorf("expected UTC location, got %v", cfg.Location)
	}
	if cfg.Log == nil || cfg.Client == nil || cfg.Client.Sessions == nil {
		t.Error("expected logger and tutoring API client to be built")
	}
}

func TestParse_EnvironmentOverrides(t *testing.T) {
	isolateEnv(t)
	t.Setenv(EnvTimeZone, "UTC")
	t.Setenv(EnvAPIBaseURL, "https://api.example.test/")
	t.Setenv(EnvDefaultSessionDurationMin, "90")
	t.Setenv(EnvExcludeClassTimes, "false")
	t.Setenv(EnvWizardStore, "MONGO")
	t.Setenv(EnvRateLimitWindow, "30s")

	cfg, err := Parse("portal")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.APIBaseURL != "https://api.example.test" {
		t.Errorf("expected trailing slash trimmed, got %s", cfg.APIBaseURL)
	}
	if cfg.DefaultSessionDurationMin != 90 || cfg.ExcludeClassTimes {
		t.Errorf("unexpected booking settings %d %v", cfg.DefaultSessionDurationMin, cfg.ExcludeClassTimes)
	}
	if cfg.WizardStore != WizardStoreMongo || cfg.RateLimitWindow != 30*time.Second {
		t.Errorf("unexpected store settings %s %s", cfg.WizardStore, cfg.RateLimitWindow)
	}
}

func TestParse_EnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "portal.env")
	if err := os.WriteFile(path, []byte("PORT=9100\nTIME_ZONE=UTC\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv(EnvFile, path)
	// Registered for restore, then unset so the file values apply.
	t.Setenv(EnvPort, "")
	t.Setenv(EnvTimeZone, "")
	os.Unsetenv(EnvPort)
	os.Unsetenv(EnvTimeZone)

	cfg, err := Parse("portal")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "9100" {
		t.Errorf("expected port from env file, got %s", cfg.Port)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Port:                      "8090",
			APIBaseURL:                "http://localhost:5000",
			APITimeout:                time.Second,
			APIMaxConcurrentCalls:     4,
			DefaultSessionDurationMin: 60,
			WizardStore:               WizardStoreMemory,
			WizardTTL:                 time.Hour,
			SlotTokenKey:              DefaultSlotTokenKey,
			RateLimitRequests:         10,
			RateLimitWindow:           time.Minute,
			RequestTimeout:            time.Second,
			IdempotencyTTL:            time.Minute,
			MaxRequestSize:            1024,
			ReadTimeout:               time.Second,
			WriteTimeout:              time.Second,
			IdleTimeout:               time.Second,
			ShutdownTimeout:           time.Second,
		}
	}

	tests := []struct {
		name    string
		mutate  func(cfg *Config)
		wantErr string
	}{
		{"valid", func(cfg *Config) {}, ""},
		{"bad port", func(cfg *Config) { cfg.Port = "99999" }, "Port"},
		{"relative api url", func(cfg *Config) { cfg.APIBaseURL = "/api" }, "APIBaseURL"},
		{"unsupported duration", func(cfg *Config) { cfg.DefaultSessionDurationMin = 45 }, "DefaultSessionDurationMin"},
		{"unknown store", func(cfg *Config) { cfg.WizardStore = "redis" }, "WizardStore"},
		{"mongo without uri", func(cfg *Config) { cfg.WizardStore = WizardStoreMongo }, "MongoURI"},
		{"short slot key", func(cfg *Config) { cfg.SlotTokenKey = "c2hvcnQ=" }, "SlotTokenKey"},
		{"zero rate limit", func(cfg *Config) { cfg.RateLimitRequests = 0 }, "RateLimitRequests"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error mentioning %s, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestLogConfiguration_WarnsOnDefaultSlotTokenKey(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		wantWarn bool
	}{
		{name: "default key", key: DefaultSlotTokenKey, wantWarn: true},
		{name: "configured key", key: "MDEyMzQ1Njc4OWFiY2RlZg==", wantWarn: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			cfg := &Config{
				SlotTokenKey: tt.key,
				Location:     time.UTC,
				Log:          logger.New(logger.Config{Output: &buf, Format: logger.JSON}),
			}

			cfg.LogConfiguration()

			warned := strings.Contains(buf.String(), `"level":"WARN"`) &&
				strings.Contains(buf.String(), EnvSlotTokenKey)
			if warned != tt.wantWarn {
				t.Errorf("expected warning %v, log was %s", tt.wantWarn, buf.String())
			}
			if cfg.UsesDefaultSlotTokenKey() != tt.wantWarn {
				t.Errorf("UsesDefaultSlotTokenKey() = %v", cfg.UsesDefaultSlotTokenKey())
			}
		})
	}
}

func TestRedactMongoURI(t *testing.T) {
	got := redactMongoURI("mongodb://admin:secret@db:27017")
	if got != "mongodb://***:***@db:27017" {
		t.Errorf("unexpected redaction %s", got)
	}
}

func TestNormalizePaginationLimit(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{0, 10},
		{-3, 10},
		{25, 25},
		{500, DefaultPaginationLimit},
	}
	for _, tt := range tests {
		if got := NormalizePaginationLimit(tt.in); got != tt.want {
			t.Errorf("NormalizePaginationLimit(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
