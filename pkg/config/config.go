package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	// EnvPrefix namespaces every environment variable consumed by the service.
	EnvPrefix = "MURAL"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "MURAL_DB_DSN"
	EnvDBHost = "MURAL_DB_HOST"
	EnvDBUser = "MURAL_DB_USER"
	EnvDBName = "MURAL_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App           AppConfig
	Service       ServiceConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	GuestCart     GuestCartConfig
	GCP           GCPConfig
	PubSub        PubSubConfig
	Outbox        OutboxConfig
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
	Env          string `envconfig:"MURAL_APP_ENV" required:"true"`
	Port         string `envconfig:"MURAL_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"MURAL_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"MURAL_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"MURAL_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"MURAL_DB_DSN"`
	Driver string `envconfig:"MURAL_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"MURAL_DB_HOST"`
	LegacyPort     int    `envconfig:"MURAL_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"MURAL_DB_USER"`
	LegacyPassword string `envconfig:"MURAL_DB_PASSWORD"`
	LegacyName     string `envconfig:"MURAL_DB_NAME"`
	LegacySSLMode  string `envconfig:"MURAL_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"MURAL_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"MURAL_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"MURAL_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"MURAL_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"MURAL_REDIS_URL" required:"true"`
	Address      string        `envconfig:"MURAL_REDIS_ADDR"`
	Password     string        `envconfig:"MURAL_REDIS_PASSWORD"`
	DB           int           `envconfig:"MURAL_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"MURAL_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"MURAL_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"MURAL_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"MURAL_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"MURAL_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"MURAL_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"MURAL_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"MURAL_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"MURAL_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"MURAL_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"MURAL_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"MURAL_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"MURAL_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"MURAL_ARGON_KEY_LEN" default:"32"`
	MinLength        int `envconfig:"MURAL_PASSWORD_MIN_LENGTH" default:"8"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"MURAL_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"MURAL_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"MURAL_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"MURAL_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"MURAL_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"MURAL_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"MURAL_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"MURAL_AUTO_MIGRATE" default:"false"`
}

// GuestCartConfig controls the lifetime of anonymous carts held in Redis.
type GuestCartConfig struct {
	TTL time.Duration `envconfig:"MURAL_GUEST_CART_TTL" default:"720h"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"MURAL_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"MURAL_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"MURAL_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	DomainTopic        string `envconfig:"MURAL_PUBSUB_DOMAIN_TOPIC" default:"mural-domain-events"`
	DomainSubscription string `envconfig:"MURAL_PUBSUB_DOMAIN_SUBSCRIPTION" required:"true"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"MURAL_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"MURAL_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"MURAL_OUTBOX_MAX_ATTEMPTS" default:"10"`
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
