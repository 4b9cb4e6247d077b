package config

const EnvPrefix = "PHOTOCARD"

const (
	AppEnvDev  = "dev"
	AppEnvTest = "test"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv             = "PHOTOCARD_APP_ENV"
	EnvPort               = "PHOTOCARD_APP_PORT"
	EnvFrontendURL        = "PHOTOCARD_FRONTEND_URL"
	EnvDataDir            = "PHOTOCARD_DATA_DIR"
	EnvStrictReads        = "PHOTOCARD_STORAGE_STRICT_READS"
	EnvRedisURL           = "PHOTOCARD_REDIS_URL"
	EnvJWTSecret          = "PHOTOCARD_JWT_SECRET"
	EnvJWTIssuer          = "PHOTOCARD_JWT_ISSUER"
	EnvJWTExpMins         = "PHOTOCARD_JWT_EXPIRATION_MINUTES"
	EnvGoogleClientID     = "PHOTOCARD_GOOGLE_CLIENT_ID"
	EnvGoogleClientSecret = "PHOTOCARD_GOOGLE_CLIENT_SECRET"
	EnvOrdersEnforceTotal = "PHOTOCARD_ORDERS_ENFORCE_TOTAL"
)

const (
	defaultFrontendOrigin = "http://localhost:3000"
	insecureJWTSecret     = "your-secret-key-change-in-production"
)
