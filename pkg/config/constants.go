package config

const (
	EnvPrefix = "ERP"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"

	ApprovalPolicyAllow  = "allow"
	ApprovalPolicyReject = "reject"

	defaultSQLiteDSN = "file:erp.db?_foreign_keys=on"
)

const (
	EnvAppEnv     = "ERP_APP_ENV"
	EnvPort       = "ERP_APP_PORT"
	EnvLogLevel   = "ERP_LOG_LEVEL"
	EnvUseSQLite  = "ERP_USE_SQLITE"
	EnvDBDSN      = "ERP_DB_DSN"
	EnvDBDriver   = "ERP_DB_DRIVER"
	EnvDBHost     = "ERP_DB_HOST"
	EnvDBUser     = "ERP_DB_USER"
	EnvDBPassword = "ERP_DB_PASSWORD"
	EnvDBName     = "ERP_DB_NAME"

	EnvRedisURL = "ERP_REDIS_URL"

	EnvJWTSecret              = "ERP_JWT_SECRET"
	EnvJWTIssuer              = "ERP_JWT_ISSUER"
	EnvJWTExpMins             = "ERP_JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenTTLMinutes = "ERP_REFRESH_TOKEN_TTL_MINUTES"

	EnvApprovalDuplicatePolicy = "ERP_APPROVAL_DUPLICATE_POLICY"
	EnvRetentionQueryDays      = "ERP_RETENTION_QUERY_DAYS"

	EnvSeedAdminUsername = "ERP_SEED_ADMIN_USERNAME"
	EnvSeedAdminPassword = "ERP_SEED_ADMIN_PASSWORD"

	EnvGCPProjectID        = "ERP_GCP_PROJECT_ID"
	EnvPubSubActivityTopic = "ERP_PUBSUB_ACTIVITY_TOPIC"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
