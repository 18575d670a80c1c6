package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	FeatureFlags FeatureFlagsConfig
	Dashboard    DashboardConfig
	Cron         CronConfig
	Metrics      MetricsConfig
	CORS         CORSConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(cfg.FeatureFlags.UseSQLite); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"TNA_APP_ENV" required:"true"`
	Port         string `envconfig:"TNA_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"TNA_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"TNA_LOG_FORMAT" default:"json"`
	LogWarnStack bool   `envconfig:"TNA_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd) || strings.EqualFold(a.Env, "production")
}

type ServiceConfig struct {
	Kind string `envconfig:"TNA_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"TNA_DB_DSN"`
	Driver string `envconfig:"TNA_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"TNA_DB_HOST"`
	LegacyPort     int    `envconfig:"TNA_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"TNA_DB_USER"`
	LegacyPassword string `envconfig:"TNA_DB_PASSWORD"`
	LegacyName     string `envconfig:"TNA_DB_NAME"`
	LegacySSLMode  string `envconfig:"TNA_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"TNA_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"TNA_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"TNA_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"TNA_DB_CONN_MAX_IDLE_TIME" default:"10m"`
	SlowQuery       time.Duration `envconfig:"TNA_DB_SLOW_QUERY" default:"250ms"`
}

// IsSQLite reports whether the configured driver targets sqlite.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(db.Driver, DBDriverSQLite)
}

type RedisConfig struct {
	URL          string        `envconfig:"TNA_REDIS_URL"`
	Address      string        `envconfig:"TNA_REDIS_ADDR"`
	Password     string        `envconfig:"TNA_REDIS_PASSWORD"`
	DB           int           `envconfig:"TNA_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"TNA_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"TNA_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"TNA_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"TNA_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"TNA_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether any redis endpoint was configured.
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

type FeatureFlagsConfig struct {
	UseSQLite           bool `envconfig:"TNA_USE_SQLITE" default:"false"`
	AutoMigrate         bool `envconfig:"TNA_AUTO_MIGRATE" default:"false"`
	EnforceShipmentGate bool `envconfig:"TNA_ENFORCE_SHIPMENT_GATE" default:"true"`
}

type DashboardConfig struct {
	CacheTTL time.Duration `envconfig:"TNA_DASHBOARD_CACHE_TTL" default:"30s"`
}

type CronConfig struct {
	Interval time.Duration `envconfig:"TNA_CRON_INTERVAL" default:"15m"`
	LockKey  string        `envconfig:"TNA_CRON_LOCK_KEY" default:"tna:cron:lock"`
	LockTTL  time.Duration `envconfig:"TNA_CRON_LOCK_TTL" default:"14m"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"TNA_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
	MaxAge         int      `envconfig:"TNA_CORS_MAX_AGE" default:"300"`
}

type MetricsConfig struct {
	Enabled bool   `envconfig:"TNA_METRICS_ENABLED" default:"true"`
	Path    string `envconfig:"TNA_METRICS_PATH" default:"/metrics"`
}

func (db *DBConfig) ensureDSN(useSQLite bool) error {
	if useSQLite {
		db.Driver = DBDriverSQLite
		if db.DSN == "" {
			db.DSN = DefaultSQLiteDSN
		}
		return nil
	}
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
