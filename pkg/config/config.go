package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	// EnvPrefix namespaces every Zerofy environment variable.
	EnvPrefix = "zerofy"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "ZEROFY_DB_DSN"
	EnvDBHost = "ZEROFY_DB_HOST"
	EnvDBUser = "ZEROFY_DB_USER"
	EnvDBName = "ZEROFY_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Wildberries   WildberriesConfig
	Cache         CacheConfig
	Worker        WorkerConfig
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
	Env          string `envconfig:"ZEROFY_APP_ENV" required:"true"`
	Port         string `envconfig:"ZEROFY_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"ZEROFY_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"ZEROFY_LOG_WARN_STACK" default:"false"`

	CORSOrigins []string `envconfig:"ZEROFY_CORS_ORIGINS" default:"http://localhost:3000,https://app.zerofy.ru"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"ZEROFY_DB_DSN"`
	Driver string `envconfig:"ZEROFY_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"ZEROFY_DB_HOST"`
	LegacyPort     int    `envconfig:"ZEROFY_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"ZEROFY_DB_USER"`
	LegacyPassword string `envconfig:"ZEROFY_DB_PASSWORD"`
	LegacyName     string `envconfig:"ZEROFY_DB_NAME"`
	LegacySSLMode  string `envconfig:"ZEROFY_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"ZEROFY_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"ZEROFY_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"ZEROFY_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"ZEROFY_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"ZEROFY_REDIS_URL" required:"true"`
	Address      string        `envconfig:"ZEROFY_REDIS_ADDR"`
	Password     string        `envconfig:"ZEROFY_REDIS_PASSWORD"`
	DB           int           `envconfig:"ZEROFY_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"ZEROFY_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"ZEROFY_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"ZEROFY_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"ZEROFY_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"ZEROFY_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"ZEROFY_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"ZEROFY_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"ZEROFY_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"ZEROFY_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"ZEROFY_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"ZEROFY_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"ZEROFY_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"ZEROFY_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"ZEROFY_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"ZEROFY_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"ZEROFY_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"ZEROFY_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"ZEROFY_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"ZEROFY_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"ZEROFY_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"ZEROFY_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"ZEROFY_AUTO_MIGRATE" default:"false"`
}

type WildberriesConfig struct {
	StatisticsBaseURL  string        `envconfig:"ZEROFY_WB_STATISTICS_BASE_URL" default:"https://statistics-api.wildberries.ru"`
	SuppliersBaseURL   string        `envconfig:"ZEROFY_WB_SUPPLIERS_BASE_URL" default:"https://suppliers-api.wildberries.ru"`
	AdvertBaseURL      string        `envconfig:"ZEROFY_WB_ADVERT_BASE_URL" default:"https://advert-api.wildberries.ru"`
	Retries            int           `envconfig:"ZEROFY_WB_RETRIES" default:"5"`
	BaseDelay          time.Duration `envconfig:"ZEROFY_WB_BASE_DELAY" default:"2s"`
	RequestTimeout     time.Duration `envconfig:"ZEROFY_WB_REQUEST_TIMEOUT" default:"30s"`
	InterPeriodDelay   time.Duration `envconfig:"ZEROFY_WB_INTER_PERIOD_DELAY" default:"1s"`
}

// CacheConfig holds the dataset TTLs. The aggregation result cache is not
// configurable; it uses a fixed short TTL inside internal/analytics.
type CacheConfig struct {
	ReportTTL    time.Duration `envconfig:"ZEROFY_CACHE_REPORT_TTL" default:"30m"`
	WarehouseTTL time.Duration `envconfig:"ZEROFY_CACHE_WAREHOUSE_TTL" default:"1h"`
}

type WorkerConfig struct {
	RefreshInterval time.Duration `envconfig:"ZEROFY_WORKER_REFRESH_INTERVAL" default:"30m"`
	LockTTL         time.Duration `envconfig:"ZEROFY_WORKER_LOCK_TTL" default:"25m"`
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
