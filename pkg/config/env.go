package config

const (
	EnvPrefix = "SOUQ"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

const (
	EnvAppEnv   = "SOUQ_APP_ENV"
	EnvPort     = "SOUQ_APP_PORT"
	EnvLogLevel = "SOUQ_LOG_LEVEL"

	EnvDBDSN     = "SOUQ_DB_DSN"
	EnvDBDriver  = "SOUQ_DB_DRIVER"
	EnvDBHost    = "SOUQ_DB_HOST"
	EnvDBUser    = "SOUQ_DB_USER"
	EnvDBName    = "SOUQ_DB_NAME"
	EnvUseSQLite = "SOUQ_USE_SQLITE"

	EnvRedisURL = "SOUQ_REDIS_URL"

	EnvJWTSecret  = "SOUQ_JWT_SECRET"
	EnvJWTIssuer  = "SOUQ_JWT_ISSUER"
	EnvJWTExpMins = "SOUQ_JWT_EXPIRATION_MINUTES"

	EnvLedgerCurrency  = "SOUQ_LEDGER_CURRENCY"
	EnvAdminWalletID   = "SOUQ_ADMIN_WALLET_ID"
	EnvVendorShareRate = "SOUQ_VENDOR_SHARE_RATE"
	EnvCommissionRate  = "SOUQ_COMMISSION_RATE"

	EnvShippingBaseURL = "SOUQ_SHIPPING_BASE_URL"
	EnvCronInterval    = "SOUQ_CRON_INTERVAL"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
