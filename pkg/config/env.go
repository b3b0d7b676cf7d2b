package config

// EnvPrefix scopes envconfig processing; every field carries an explicit
// SOUNDLEAF_* tag so the prefix only matters for untagged additions.
const EnvPrefix = "soundleaf"

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

// Environment variable names shared with tests and tooling.
const (
	EnvAppEnv   = "SOUNDLEAF_APP_ENV"
	EnvPort     = "SOUNDLEAF_APP_PORT"
	EnvLogLevel = "SOUNDLEAF_LOG_LEVEL"

	EnvDBDSN     = "SOUNDLEAF_DB_DSN"
	EnvDBHost    = "SOUNDLEAF_DB_HOST"
	EnvDBPort    = "SOUNDLEAF_DB_PORT"
	EnvDBUser    = "SOUNDLEAF_DB_USER"
	EnvDBPass    = "SOUNDLEAF_DB_PASSWORD"
	EnvDBName    = "SOUNDLEAF_DB_NAME"
	EnvDBSSLMode = "SOUNDLEAF_DB_SSLMODE"

	EnvRedisURL = "SOUNDLEAF_REDIS_URL"

	EnvJWTSecret  = "SOUNDLEAF_JWT_SECRET"
	EnvJWTIssuer  = "SOUNDLEAF_JWT_ISSUER"
	EnvJWTExpMins = "SOUNDLEAF_JWT_EXPIRATION_MINUTES"

	EnvStorageEndpoint  = "SOUNDLEAF_STORAGE_ENDPOINT"
	EnvStorageAccessKey = "SOUNDLEAF_STORAGE_ACCESS_KEY"
	EnvStorageSecretKey = "SOUNDLEAF_STORAGE_SECRET_KEY"
	EnvStorageBucket    = "SOUNDLEAF_STORAGE_BUCKET_NAME"

	EnvSquareAccessToken   = "SOUNDLEAF_SQUARE_ACCESS_TOKEN"
	EnvSquareWebhookSecret = "SOUNDLEAF_SQUARE_WEBHOOK_SECRET"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
