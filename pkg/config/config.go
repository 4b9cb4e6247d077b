package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	Storage       StorageConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	Google        GoogleOAuthConfig
	Orders        OrdersConfig
	Admin         AdminConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch strings.ToLower(c.App.Env) {
	case AppEnvDev, AppEnvTest, AppEnvProd:
	default:
		return fmt.Errorf("%s must be one of %s, %s, %s", EnvAppEnv, AppEnvDev, AppEnvTest, AppEnvProd)
	}
	if strings.TrimSpace(c.Storage.DataDir) == "" {
		return fmt.Errorf("%s is required", EnvDataDir)
	}
	if c.App.IsProd() && c.JWT.Secret == insecureJWTSecret {
		return fmt.Errorf("%s must be changed in production", EnvJWTSecret)
	}
	if c.JWT.ExpirationMinutes <= 0 {
		return fmt.Errorf("%s must be positive", EnvJWTExpMins)
	}
	if _, err := url.Parse(c.App.FrontendURL); err != nil {
		return fmt.Errorf("%s: %w", EnvFrontendURL, err)
	}
	return nil
}

type AppConfig struct {
	Env             string        `envconfig:"PHOTOCARD_APP_ENV" default:"dev"`
	Port            string        `envconfig:"PHOTOCARD_APP_PORT" default:"3001"`
	LogLevel        string        `envconfig:"PHOTOCARD_LOG_LEVEL" default:"info"`
	LogWarnStack    bool          `envconfig:"PHOTOCARD_LOG_WARN_STACK" default:"false"`
	FrontendURL     string        `envconfig:"PHOTOCARD_FRONTEND_URL" default:"http://localhost:3000"`
	ShutdownTimeout time.Duration `envconfig:"PHOTOCARD_SHUTDOWN_TIMEOUT" default:"10s"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// AllowedOrigins lists the browser origins permitted by CORS.
func (a AppConfig) AllowedOrigins() []string {
	origins := []string{defaultFrontendOrigin}
	if front := strings.TrimRight(strings.TrimSpace(a.FrontendURL), "/"); front != "" && front != defaultFrontendOrigin {
		origins = append([]string{front}, origins...)
	}
	return origins
}

type StorageConfig struct {
	DataDir     string `envconfig:"PHOTOCARD_DATA_DIR" default:"./data"`
	Seed        bool   `envconfig:"PHOTOCARD_STORAGE_SEED" default:"true"`
	StrictReads bool   `envconfig:"PHOTOCARD_STORAGE_STRICT_READS" default:"false"`
}

// RedisConfig is optional. With neither URL nor Address set, sessions,
// idempotent checkout and auth rate limiting are disabled.
type RedisConfig struct {
	URL          string        `envconfig:"PHOTOCARD_REDIS_URL"`
	Address      string        `envconfig:"PHOTOCARD_REDIS_ADDR"`
	Password     string        `envconfig:"PHOTOCARD_REDIS_PASSWORD"`
	DB           int           `envconfig:"PHOTOCARD_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"PHOTOCARD_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"PHOTOCARD_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"PHOTOCARD_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"PHOTOCARD_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"PHOTOCARD_REDIS_WRITE_TIMEOUT" default:"5s"`
}

func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

type JWTConfig struct {
	Secret                 string `envconfig:"PHOTOCARD_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"PHOTOCARD_JWT_ISSUER" default:"photocard-store"`
	ExpirationMinutes      int    `envconfig:"PHOTOCARD_JWT_EXPIRATION_MINUTES" default:"1440"`
	RefreshTokenTTLMinutes int    `envconfig:"PHOTOCARD_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

func (j JWTConfig) AccessTokenTTL() time.Duration {
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type PasswordConfig struct {
	MinLength        int `envconfig:"PHOTOCARD_PASSWORD_MIN_LENGTH" default:"6"`
	ArgonMemoryKB    int `envconfig:"PHOTOCARD_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"PHOTOCARD_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"PHOTOCARD_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"PHOTOCARD_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"PHOTOCARD_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"PHOTOCARD_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"PHOTOCARD_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"PHOTOCARD_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"PHOTOCARD_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"PHOTOCARD_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"PHOTOCARD_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type GoogleOAuthConfig struct {
	ClientID     string `envconfig:"PHOTOCARD_GOOGLE_CLIENT_ID"`
	ClientSecret string `envconfig:"PHOTOCARD_GOOGLE_CLIENT_SECRET"`
	CallbackURL  string `envconfig:"PHOTOCARD_GOOGLE_CALLBACK_URL" default:"http://localhost:3001/auth/google/callback"`
}

func (g GoogleOAuthConfig) Enabled() bool {
	return g.ClientID != "" && g.ClientSecret != ""
}

type OrdersConfig struct {
	EnforceTotal   bool          `envconfig:"PHOTOCARD_ORDERS_ENFORCE_TOTAL" default:"false"`
	IdempotencyTTL time.Duration `envconfig:"PHOTOCARD_ORDERS_IDEMPOTENCY_TTL" default:"168h"`
}

type AdminConfig struct {
	BootstrapKey string `envconfig:"PHOTOCARD_ADMIN_BOOTSTRAP_KEY"`
}
