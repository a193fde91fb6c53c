package config

const (
	EnvFile = "ENV_FILE"

	EnvAPIBaseURL            = "API_BASE_URL"
	EnvAPITimeout            = "API_TIMEOUT"
	EnvAPIMaxConcurrentCalls = "API_MAX_CONCURRENT_CALLS"

	EnvPort      = "PORT"
	EnvLogLevel  = "LOG_LEVEL"
	EnvLogFormat = "LOG_FORMAT"

	EnvTimeZone                  = "TIME_ZONE"
	EnvDefaultSessionDurationMin = "DEFAULT_SESSION_DURATION_MIN"
	EnvExcludeClassTimes         = "EXCLUDE_CLASS_TIMES"

	EnvWizardStore = "WIZARD_STORE"
	EnvWizardTTL   = "WIZARD_TTL"

	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"

	EnvSlotTokenKey = "SLOT_TOKEN_KEY"

	EnvRateLimitRequests = "RATE_LIMIT_REQUESTS"
	EnvRateLimitWindow   = "RATE_LIMIT_WINDOW"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvIdempotencyTTL = "IDEMPOTENCY_TTL"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"
)
