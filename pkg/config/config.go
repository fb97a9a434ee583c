// Package config loads service configuration from VIETCART_-prefixed
// environment variables.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "VIETCART"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "VIETCART_DB_DSN"
	EnvDBHost = "VIETCART_DB_HOST"
	EnvDBUser = "VIETCART_DB_USER"
	EnvDBName = "VIETCART_DB_NAME"
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
	VNPay         VNPayConfig
	Checkout      CheckoutConfig
	Cron          CronConfig
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
	Env          string `envconfig:"VIETCART_APP_ENV" required:"true"`
	Port         string `envconfig:"VIETCART_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"VIETCART_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"VIETCART_LOG_WARN_STACK" default:"false"`

	// AdminToken guards the back-office routes. Empty disables them.
	AdminToken string `envconfig:"VIETCART_ADMIN_TOKEN"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"VIETCART_DB_DSN"`
	Driver string `envconfig:"VIETCART_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"VIETCART_DB_HOST"`
	LegacyPort     int    `envconfig:"VIETCART_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"VIETCART_DB_USER"`
	LegacyPassword string `envconfig:"VIETCART_DB_PASSWORD"`
	LegacyName     string `envconfig:"VIETCART_DB_NAME"`
	LegacySSLMode  string `envconfig:"VIETCART_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"VIETCART_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"VIETCART_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"VIETCART_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"VIETCART_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"VIETCART_REDIS_URL" required:"true"`
	PoolSize     int           `envconfig:"VIETCART_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"VIETCART_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"VIETCART_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"VIETCART_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"VIETCART_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"VIETCART_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"VIETCART_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"VIETCART_JWT_EXPIRATION_MINUTES" default:"15"`
	RefreshTokenTTLMinutes int    `envconfig:"VIETCART_REFRESH_TOKEN_TTL_MINUTES" default:"30"`
	RememberMeTTLMinutes   int    `envconfig:"VIETCART_REMEMBER_ME_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the idle session TTL; rememberMe selects the long
// variant.
func (j JWTConfig) RefreshTokenTTL(rememberMe bool) time.Duration {
	minutes := j.RefreshTokenTTLMinutes
	if rememberMe {
		minutes = j.RememberMeTTLMinutes
	}
	if minutes <= 0 {
		return 0
	}
	return time.Duration(minutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"VIETCART_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"VIETCART_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"VIETCART_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"VIETCART_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"VIETCART_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"VIETCART_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"VIETCART_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"VIETCART_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"VIETCART_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"VIETCART_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"VIETCART_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"VIETCART_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"VIETCART_AUTO_MIGRATE" default:"false"`
}

// VNPayConfig carries the merchant credentials and endpoints for the payment
// gateway. HashSecret signs the canonical parameter string (HMAC-SHA512).
type VNPayConfig struct {
	TmnCode      string        `envconfig:"VIETCART_VNPAY_TMN_CODE"`
	HashSecret   string        `envconfig:"VIETCART_VNPAY_HASH_SECRET"`
	PayURL       string        `envconfig:"VIETCART_VNPAY_PAY_URL" default:"https://sandbox.vnpayment.vn/paymentv2/vpcpay.html"`
	ReturnURL    string        `envconfig:"VIETCART_VNPAY_RETURN_URL"`
	ExpireWindow time.Duration `envconfig:"VIETCART_VNPAY_EXPIRE_WINDOW" default:"15m"`
}

type CheckoutConfig struct {
	SessionTTL       time.Duration `envconfig:"VIETCART_CHECKOUT_SESSION_TTL" default:"30m"`
	GatewayExtension time.Duration `envconfig:"VIETCART_CHECKOUT_GATEWAY_EXTENSION" default:"30m"`
	IdempotencyTTL   time.Duration `envconfig:"VIETCART_CHECKOUT_IDEMPOTENCY_TTL" default:"24h"`
}

type CronConfig struct {
	PendingPaymentInterval    time.Duration `envconfig:"VIETCART_CRON_PENDING_PAYMENT_INTERVAL" default:"5m"`
	PendingPaymentMaxAttempts int           `envconfig:"VIETCART_CRON_PENDING_PAYMENT_MAX_ATTEMPTS" default:"10"`
	CartAbandonInterval       time.Duration `envconfig:"VIETCART_CRON_CART_ABANDON_INTERVAL" default:"1h"`
	CartAbandonAfter          time.Duration `envconfig:"VIETCART_CRON_CART_ABANDON_AFTER" default:"168h"`
	MetricsPort               string        `envconfig:"VIETCART_CRON_METRICS_PORT" default:"9091"`
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
