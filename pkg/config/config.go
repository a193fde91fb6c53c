package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"tutorly/pkg/client"
	"tutorly/pkg/logger"
	"tutorly/pkg/model"
)

type Config struct {
	APIBaseURL            string
	APITimeout            time.Duration
	APIMaxConcurrentCalls int

	Port      string
	LogLevel  string
	LogFormat string

	TimeZone                  string
	Location                  *time.Location
	DefaultSessionDurationMin int
	ExcludeClassTimes         bool

	WizardStore string
	WizardTTL   time.Duration

	MongoURI          string
	MongoDatabaseName string
	MongoConnTimeout  time.Duration

	SlotTokenKey string

	RateLimitRequests int
	RateLimitWindow   time.Duration

	RequestTimeout time.Duration
	IdempotencyTTL time.Duration
	MaxRequestSize int

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	Log    *logger.Logger
	Client *client.Client
}

// Load reads the configuration for serviceName and exits the process if it is invalid.
func Load(serviceName string) *Config {
	cfg, err := Parse(serviceName)
	if err != nil {
		logger.New(logger.Config{Service: serviceName}).Fatal(err.Error())
	}
	cfg.LogConfiguration()
	return cfg
}

// Parse reads the optional env file followed by the process environment.
// Variables already present in the environment win over the file.
func Parse(serviceName string) (*Config, error) {
	if err := loadEnvFile(getEnvStr(EnvFile, DefaultEnvFile)); err != nil {
		return nil, err
	}

	cfg := &Config{
		APIBaseURL:            strings.TrimRight(getEnvStr(EnvAPIBaseURL, DefaultAPIBaseURL), "/"),
		APITimeout:            getEnvDuration(EnvAPITimeout, DefaultAPITimeout),
		APIMaxConcurrentCalls: getEnvNum(EnvAPIMaxConcurrentCalls, DefaultAPIMaxConcurrentCalls),

		Port:      getEnvStr(EnvPort, DefaultPort),
		LogLevel:  getEnvStr(EnvLogLevel, DefaultLogLevel),
		LogFormat: getEnvStr(EnvLogFormat, DefaultLogFormat),

		TimeZone:                  getEnvStr(EnvTimeZone, DefaultTimeZone),
		DefaultSessionDurationMin: getEnvNum(EnvDefaultSessionDurationMin, DefaultDefaultSessionDurationMin),
		ExcludeClassTimes:         getEnvBool(EnvExcludeClassTimes, DefaultExcludeClassTimes),

		WizardStore: strings.ToLower(getEnvStr(EnvWizardStore, DefaultWizardStore)),
		WizardTTL:   getEnvDuration(EnvWizardTTL, DefaultWizardTTL),

		MongoURI:          getEnvStr(EnvMongoURI, DefaultMongoURI),
		MongoDatabaseName: getEnvStr(EnvMongoDatabaseName, DefaultMongoDatabaseName),
		MongoConnTimeout:  getEnvDuration(EnvMongoConnTimeout, DefaultMongoConnTimeout),

		SlotTokenKey: getEnvStr(EnvSlotTokenKey, DefaultSlotTokenKey),

		RateLimitRequests: getEnvNum(EnvRateLimitRequests, DefaultRateLimitRequests),
		RateLimitWindow:   getEnvDuration(EnvRateLimitWindow, DefaultRateLimitWindow),

		RequestTimeout: getEnvDuration(EnvRequestTimeout, DefaultRequestTimeout),
		IdempotencyTTL: getEnvDuration(EnvIdempotencyTTL, DefaultIdempotencyTTL),
		MaxRequestSize: getEnvNum(EnvMaxRequestSize, DefaultMaxRequestSize),

		ReadTimeout:     getEnvDuration(EnvReadTimeout, DefaultReadTimeout),
		WriteTimeout:    getEnvDuration(EnvWriteTimeout, DefaultWriteTimeout),
		IdleTimeout:     getEnvDuration(EnvIdleTimeout, DefaultIdleTimeout),
		ShutdownTimeout: getEnvDuration(EnvShutdownTimeout, DefaultShutdownTimeout),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	loc, err := time.LoadLocation(cfg.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("TimeZone %q could not be loaded: %w", cfg.TimeZone, err)
	}
	cfg.Location = loc

	cfg.Log = logger.New(logger.Config{
		Level:     cfg.LogLevel,
		Format:    cfg.LogFormat,
		AddSource: true,
		Service:   serviceName,
	})
	cfg.Client = client.NewClient(client.Options{
		BaseURL:            cfg.APIBaseURL,
		Timeout:            cfg.APITimeout,
		MaxConcurrentCalls: cfg.APIMaxConcurrentCalls,
		Log:                cfg.Log,
	})
	return cfg, nil
}

func (cfg *Config) SetMongo() {
	cfg.Client.SetMongo(cfg.Log, cfg.MongoURI, cfg.MongoConnTimeout)
}

func (cfg *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("Port must be between 1 and 65535, got: %s", cfg.Port))
	}

	if u, err := url.Parse(cfg.APIBaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errors = append(errors, fmt.Sprintf("APIBaseURL must be an absolute http(s) URL, got: %s", cfg.APIBaseURL))
	}
	if cfg.APITimeout <= 0 {
		errors = append(errors, fmt.Sprintf("APITimeout must be positive, got: %s", cfg.APITimeout))
	}
	if cfg.APIMaxConcurrentCalls <= 0 {
		errors = append(errors, fmt.Sprintf("APIMaxConcurrentCalls must be positive, got: %d", cfg.APIMaxConcurrentCalls))
	}

	if !model.IsSupportedDuration(cfg.DefaultSessionDurationMin) {
		errors = append(errors, fmt.Sprintf("DefaultSessionDurationMin must be one of %v, got: %d", model.SessionDurations, cfg.DefaultSessionDurationMin))
	}

	switch cfg.WizardStore {
	case WizardStoreMemory:
	case WizardStoreMongo:
		if cfg.MongoURI == "" {
			errors = append(errors, "MongoURI cannot be empty when WizardStore is mongo")
		} else if !regexp.MustCompile(`^mongodb(\+srv)?://`).MatchString(cfg.MongoURI) {
			errors = append(errors, fmt.Sprintf("MongoURI must start with 'mongodb://' or 'mongodb+srv://', got: %s", redactMongoURI(cfg.MongoURI)))
		}
		if cfg.MongoDatabaseName == "" {
			errors = append(errors, "MongoDatabaseName cannot be empty")
		}
		if cfg.MongoConnTimeout <= 0 {
			errors = append(errors, fmt.Sprintf("MongoConnTimeout must be positive, got: %s", cfg.MongoConnTimeout))
		}
	default:
		errors = append(errors, fmt.Sprintf("WizardStore must be %q or %q, got: %s", WizardStoreMemory, WizardStoreMongo, cfg.WizardStore))
	}
	if cfg.WizardTTL <= 0 {
		errors = append(errors, fmt.Sprintf("WizardTTL must be positive, got: %s", cfg.WizardTTL))
	}

	if key, err := base64.StdEncoding.DecodeString(cfg.SlotTokenKey); err != nil || (len(key) != 16 && len(key) != 24 && len(key) != 32) {
		errors = append(errors, "SlotTokenKey must be a base64 encoded 16, 24 or 32 byte key")
	}

	if cfg.RateLimitRequests <= 0 {
		errors = append(errors, fmt.Sprintf("RateLimitRequests must be positive, got: %d", cfg.RateLimitRequests))
	}
	if cfg.RateLimitWindow <= 0 {
		errors = append(errors, fmt.Sprintf("RateLimitWindow must be positive, got: %s", cfg.RateLimitWindow))
	}
	if cfg.RequestTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("RequestTimeout must be positive, got: %s", cfg.RequestTimeout))
	}
	if cfg.IdempotencyTTL <= 0 {
		errors = append(errors, fmt.Sprintf("IdempotencyTTL must be positive, got: %s", cfg.IdempotencyTTL))
	}
	if cfg.MaxRequestSize <= 0 {
		errors = append(errors, fmt.Sprintf("MaxRequestSize must be positive, got: %d", cfg.MaxRequestSize))
	}
	if cfg.ReadTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("ReadTimeout must be positive, got: %s", cfg.ReadTimeout))
	}
	if cfg.WriteTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("WriteTimeout must be positive, got: %s", cfg.WriteTimeout))
	}
	if cfg.IdleTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("IdleTimeout must be positive, got: %s", cfg.IdleTimeout))
	}
	if cfg.ShutdownTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("ShutdownTimeout must be positive, got: %s", cfg.ShutdownTimeout))
	}

	if len(errors) > 0 {
		errMsg := "Configuration validation failed:\n"
		for i, err := range errors {
			errMsg += fmt.Sprintf("  %d. %s\n", i+1, err)
		}
		return fmt.Errorf("%s", errMsg)
	}

	return nil
}

func (cfg *Config) LogConfiguration() {
	cfg.Log.Info("Configuration loaded successfully",
		"api_base_url", cfg.APIBaseURL,
		"api_timeout", cfg.APITimeout,
		"api_max_concurrent_calls", cfg.APIMaxConcurrentCalls,
		"port", cfg.Port,
		"time_zone", cfg.Location.String(),
		"default_session_duration_min", cfg.DefaultSessionDurationMin,
		"exclude_class_times", cfg.ExcludeClassTimes,
		"wizard_store", cfg.WizardStore,
		"wizard_ttl", cfg.WizardTTL,
		"mongo_uri", redactMongoURI(cfg.MongoURI),
		"mongo_database", cfg.MongoDatabaseName,
		"slot_token_key_default", cfg.UsesDefaultSlotTokenKey(),
		"rate_limit_requests", cfg.RateLimitRequests,
		"rate_limit_window", cfg.RateLimitWindow,
		"request_timeout", cfg.RequestTimeout,
		"idempotency_ttl", cfg.IdempotencyTTL,
		"max_request_size", cfg.MaxRequestSize,
		"read_timeout", cfg.ReadTimeout,
		"write_timeout", cfg.WriteTimeout,
		"idle_timeout", cfg.IdleTimeout,
		"shutdown_timeout", cfg.ShutdownTimeout,
	)

	if cfg.UsesDefaultSlotTokenKey() {
		cfg.Log.Warn("Slot token key not set, using the built-in development key; slot ids can be forged",
			"env", EnvSlotTokenKey,
		)
	}
}

// UsesDefaultSlotTokenKey reports whether slot ids are sealed with the
// publicly known development key.
func (cfg *Config) UsesDefaultSlotTokenKey() bool {
	return cfg.SlotTokenKey == DefaultSlotTokenKey
}

func (cfg *Config) GracefulShutdown() {
	if cfg.Client == nil {
		return
	}
	cfg.Client.GracefulShutdown(cfg.Log)
}

func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

func redactMongoURI(uri string) string {
	credentialRegex := regexp.MustCompile(`(mongodb(\+srv)?://)[^:]+:[^@]+@`)
	return credentialRegex.ReplaceAllString(uri, "${1}***:***@")
}

func getEnvStr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvNum(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func NormalizePaginationLimit(limit int) int {
	if limit <= 0 {
		limit = 10
	} else if limit > DefaultPaginationLimit {
		limit = DefaultPaginationLimit
	}
	return limit
}

func NormalizeOffset(offset int64) int64 {
	return max(0, offset)
}
