package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix namespaces every environment variable this service reads.
const EnvPrefix = "ONECLICK"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	Uploads       UploadsConfig
	Outbox        OutboxConfig
	PubSub        PubSubConfig
	GCP           GCPConfig
	FeatureFlags  FeatureFlagsConfig
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
	Env          string `envconfig:"ONECLICK_APP_ENV" required:"true"`
	Port         string `envconfig:"ONECLICK_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"ONECLICK_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"ONECLICK_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN string `envconfig:"ONECLICK_DB_DSN"`

	Host     string `envconfig:"ONECLICK_DB_HOST"`
	Port     int    `envconfig:"ONECLICK_DB_PORT" default:"5432"`
	User     string `envconfig:"ONECLICK_DB_USER"`
	Password string `envconfig:"ONECLICK_DB_PASSWORD"`
	Name     string `envconfig:"ONECLICK_DB_NAME"`
	SSLMode  string `envconfig:"ONECLICK_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"ONECLICK_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"ONECLICK_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"ONECLICK_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"ONECLICK_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"ONECLICK_REDIS_URL"`
	Address      string        `envconfig:"ONECLICK_REDIS_ADDR"`
	Password     string        `envconfig:"ONECLICK_REDIS_PASSWORD"`
	DB           int           `envconfig:"ONECLICK_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"ONECLICK_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"ONECLICK_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"ONECLICK_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"ONECLICK_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"ONECLICK_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"ONECLICK_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"ONECLICK_JWT_ISSUER" default:"oneclick"`
	ExpirationMinutes int    `envconfig:"ONECLICK_JWT_EXPIRATION_MINUTES" default:"60"`
}

// AccessTokenTTL returns the configured access token lifetime.
func (j JWTConfig) AccessTokenTTL() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return time.Hour
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"ONECLICK_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"ONECLICK_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"ONECLICK_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"ONECLICK_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"ONECLICK_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"ONECLICK_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"ONECLICK_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"ONECLICK_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"ONECLICK_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"ONECLICK_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"ONECLICK_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type UploadsConfig struct {
	// Dir is the root directory product images are written to. Files land
	// under Dir/<category>/<filename> and are served back at /uploads/.
	Dir          string `envconfig:"ONECLICK_UPLOADS_DIR" default:"uploads"`
	MaxFiles     int    `envconfig:"ONECLICK_UPLOADS_MAX_FILES" default:"5"`
	MaxUploadMB  int    `envconfig:"ONECLICK_UPLOADS_MAX_MB" default:"20"`
	PublicPrefix string `envconfig:"ONECLICK_UPLOADS_PUBLIC_PREFIX" default:"/uploads"`
}

// MaxUploadBytes returns the multipart memory cap in bytes.
func (u UploadsConfig) MaxUploadBytes() int64 {
	return int64(u.MaxUploadMB) << 20
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"ONECLICK_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"ONECLICK_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"ONECLICK_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type PubSubConfig struct {
	EventsTopic string `envconfig:"ONECLICK_PUBSUB_EVENTS_TOPIC" default:"oneclick-domain-events"`
}

type GCPConfig struct {
	ProjectID string `envconfig:"ONECLICK_GCP_PROJECT_ID"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"ONECLICK_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	for envVar, value := range map[string]string{
		"ONECLICK_DB_HOST": db.Host,
		"ONECLICK_DB_USER": db.User,
		"ONECLICK_DB_NAME": db.Name,
	} {
		if value == "" {
			missing = append(missing, envVar)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("either ONECLICK_DB_DSN or %s are required", strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}
	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
