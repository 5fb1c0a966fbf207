package config

// EnvPrefix is the envconfig prefix shared by every variable.
const EnvPrefix = "FERMELINK"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv   = "FERMELINK_APP_ENV"
	EnvPort     = "FERMELINK_APP_PORT"
	EnvLogLevel = "FERMELINK_LOG_LEVEL"

	EnvDBDSN      = "FERMELINK_DB_DSN"
	EnvDBHost     = "FERMELINK_DB_HOST"
	EnvDBPort     = "FERMELINK_DB_PORT"
	EnvDBUser     = "FERMELINK_DB_USER"
	EnvDBPassword = "FERMELINK_DB_PASSWORD"
	EnvDBName     = "FERMELINK_DB_NAME"

	EnvRedisURL = "FERMELINK_REDIS_URL"

	EnvJWTSecret              = "FERMELINK_JWT_SECRET"
	EnvJWTIssuer              = "FERMELINK_JWT_ISSUER"
	EnvJWTExpMins             = "FERMELINK_JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenTTLMinutes = "FERMELINK_REFRESH_TOKEN_TTL_MINUTES"

	EnvGCPProjectID = "FERMELINK_GCP_PROJECT_ID"

	EnvPubSubEventsTopic      = "FERMELINK_PUBSUB_EVENTS_TOPIC"
	EnvPubSubNotificationsSub = "FERMELINK_PUBSUB_NOTIFICATIONS_SUBSCRIPTION"

	EnvSquareAccessToken = "FERMELINK_SQUARE_ACCESS_TOKEN"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
