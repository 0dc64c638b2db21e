package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "GATEHOUSE"

	AppEnvDev  = "dev"
	AppEnvProd = "production"

	EnvAppEnv       = "GATEHOUSE_APP_ENV"
	EnvPort         = "GATEHOUSE_APP_PORT"
	EnvDBDSN        = "GATEHOUSE_DB_DSN"
	EnvDBHost       = "GATEHOUSE_DB_HOST"
	EnvDBUser       = "GATEHOUSE_DB_USER"
	EnvDBName       = "GATEHOUSE_DB_NAME"
	EnvLocalDBPath  = "GATEHOUSE_LOCAL_DB_PATH"
	EnvSyncBaseURL  = "GATEHOUSE_SYNC_BASE_URL"
	EnvSyncInterval = "GATEHOUSE_SYNC_INTERVAL"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	DB           DBConfig
	LocalDB      LocalDBConfig
	Sync         SyncConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

// LoadServer validates the central service configuration, which additionally
// needs a reachable authority database.
func LoadServer() (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"GATEHOUSE_APP_ENV" required:"true"`
	Port         string `envconfig:"GATEHOUSE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"GATEHOUSE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"GATEHOUSE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// DBConfig points at the Postgres authority that holds the reconciled
// visitor and visit records.
type DBConfig struct {
	DSN string `envconfig:"GATEHOUSE_DB_DSN"`

	LegacyHost     string `envconfig:"GATEHOUSE_DB_HOST"`
	LegacyPort     int    `envconfig:"GATEHOUSE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"GATEHOUSE_DB_USER"`
	LegacyPassword string `envconfig:"GATEHOUSE_DB_PASSWORD"`
	LegacyName     string `envconfig:"GATEHOUSE_DB_NAME"`
	LegacySSLMode  string `envconfig:"GATEHOUSE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"GATEHOUSE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"GATEHOUSE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"GATEHOUSE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"GATEHOUSE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// LocalDBConfig points at the per-device SQLite file the agent records into.
type LocalDBConfig struct {
	Path string `envconfig:"GATEHOUSE_LOCAL_DB_PATH" default:"gatehouse.db"`
}

// SyncConfig drives the agent's reconciliation loop.
type SyncConfig struct {
	BaseURL  string        `envconfig:"GATEHOUSE_SYNC_BASE_URL" default:"http://localhost:3000"`
	Interval time.Duration `envconfig:"GATEHOUSE_SYNC_INTERVAL" default:"5m"`
	Timeout  time.Duration `envconfig:"GATEHOUSE_SYNC_TIMEOUT" default:"30s"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"GATEHOUSE_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
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
