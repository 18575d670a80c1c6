package config

const (
	EnvPrefix = "TNA"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"
	DefaultSQLiteDSN = "file:tna.db?cache=shared&_fk=1"

	EnvAppEnv              = "TNA_APP_ENV"
	EnvPort                = "TNA_APP_PORT"
	EnvLogLevel            = "TNA_LOG_LEVEL"
	EnvLogFormat           = "TNA_LOG_FORMAT"
	EnvDBDSN               = "TNA_DB_DSN"
	EnvDBDriver            = "TNA_DB_DRIVER"
	EnvDBHost              = "TNA_DB_HOST"
	EnvDBPort              = "TNA_DB_PORT"
	EnvDBUser              = "TNA_DB_USER"
	EnvDBPassword          = "TNA_DB_PASSWORD"
	EnvDBName              = "TNA_DB_NAME"
	EnvRedisURL            = "TNA_REDIS_URL"
	EnvUseSQLite           = "TNA_USE_SQLITE"
	EnvEnforceShipmentGate = "TNA_ENFORCE_SHIPMENT_GATE"
	EnvDashboardCacheTTL   = "TNA_DASHBOARD_CACHE_TTL"
	EnvCronInterval        = "TNA_CRON_INTERVAL"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
