package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const EnvPrefix = "DMPILOT"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "DMPILOT_DB_DSN"
	EnvDBHost = "DMPILOT_DB_HOST"
	EnvDBUser = "DMPILOT_DB_USER"
	EnvDBName = "DMPILOT_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App       AppConfig
	Service   ServiceConfig
	DB        DBConfig
	Redis     RedisConfig
	Stripe    StripeConfig
	OpenAI    OpenAIConfig
	Instagram InstagramConfig
	Resend    ResendConfig
	Quota     QuotaConfig
	Cron      CronConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"DMPILOT_APP_ENV" required:"true"`
	Port         string `envconfig:"DMPILOT_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"DMPILOT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"DMPILOT_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"DMPILOT_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"DMPILOT_DB_DSN"`
	Driver string `envconfig:"DMPILOT_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"DMPILOT_DB_HOST"`
	LegacyPort     int    `envconfig:"DMPILOT_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"DMPILOT_DB_USER"`
	LegacyPassword string `envconfig:"DMPILOT_DB_PASSWORD"`
	LegacyName     string `envconfig:"DMPILOT_DB_NAME"`
	LegacySSLMode  string `envconfig:"DMPILOT_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"DMPILOT_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"DMPILOT_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"DMPILOT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"DMPILOT_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	AutoMigrate bool `envconfig:"DMPILOT_AUTO_MIGRATE" default:"false"`
}

type RedisConfig struct {
	URL          string        `envconfig:"DMPILOT_REDIS_URL" required:"true"`
	Address      string        `envconfig:"DMPILOT_REDIS_ADDR"`
	Password     string        `envconfig:"DMPILOT_REDIS_PASSWORD"`
	DB           int           `envconfig:"DMPILOT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"DMPILOT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"DMPILOT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"DMPILOT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"DMPILOT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"DMPILOT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type StripeConfig struct {
	APIKey string `envconfig:"DMPILOT_STRIPE_API_KEY"`
	Secret string `envconfig:"DMPILOT_STRIPE_SECRET"`
	Env    string `envconfig:"DMPILOT_STRIPE_ENV" default:"test"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

type OpenAIConfig struct {
	APIKey      string        `envconfig:"DMPILOT_OPENAI_API_KEY"`
	Model       string        `envconfig:"DMPILOT_OPENAI_MODEL" default:"gpt-4o-mini"`
	MaxTokens   int           `envconfig:"DMPILOT_OPENAI_MAX_TOKENS" default:"500"`
	Temperature float64       `envconfig:"DMPILOT_OPENAI_TEMPERATURE" default:"0.8"`
	Timeout     time.Duration `envconfig:"DMPILOT_OPENAI_TIMEOUT" default:"30s"`
}

type InstagramConfig struct {
	AccessToken string `envconfig:"DMPILOT_INSTAGRAM_ACCESS_TOKEN"`
	VerifyToken string `envconfig:"DMPILOT_INSTAGRAM_VERIFY_TOKEN"`
	GraphURL    string `envconfig:"DMPILOT_INSTAGRAM_GRAPH_URL" default:"https://graph.instagram.com/v21.0"`
}

type ResendConfig struct {
	APIKey      string `envconfig:"DMPILOT_RESEND_API_KEY"`
	DefaultFrom string `envconfig:"DMPILOT_RESEND_FROM_EMAIL" default:"notifications@dmpilot.app"`
}

type QuotaConfig struct {
	DefaultLimit         int  `envconfig:"DMPILOT_QUOTA_DEFAULT_LIMIT" default:"500"`
	NotificationsEnabled bool `envconfig:"DMPILOT_QUOTA_NOTIFICATIONS_ENABLED" default:"true"`
}

type CronConfig struct {
	Interval          time.Duration `envconfig:"DMPILOT_CRON_INTERVAL" default:"1h"`
	TrialReminderDays int           `envconfig:"DMPILOT_CRON_TRIAL_REMINDER_DAYS" default:"3"`
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
