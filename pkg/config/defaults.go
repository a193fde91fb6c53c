package config

import "time"

const (
	DefaultEnvFile = ".env"

	DefaultAPIBaseURL            = "http://localhost:5000"
	DefaultAPITimeout            = 10 * time.Second
	DefaultAPIMaxConcurrentCalls = 40

	DefaultPort      = "8090"
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	DefaultTimeZone                  = "Local"
	DefaultDefaultSessionDurationMin = 60
	DefaultExcludeClassTimes         = true

	WizardStoreMemory  = "memory"
	WizardStoreMongo   = "mongo"
	DefaultWizardStore = WizardStoreMemory
	DefaultWizardTTL   = 2 * time.Hour

	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "tutorly"
	DefaultMongoConnTimeout  = 10 * time.Second

	// Development key only; production deployments set SLOT_TOKEN_KEY.
	DefaultSlotTokenKey = "lfQVRuulcL2iOhOJ2r8BYTweoSKwVAJnIF9U+AL+M60="

	DefaultRateLimitRequests = 60
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultPaginationLimit = 50
)
