package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/resona/rental-api/internal/domain/pricing"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	Storage   StorageConfig
	Redis     RedisConfig
	CORS      CORSConfig
	RateLimit RateLimitConfig
	Email     EmailConfig
	Pricing   pricing.Config
	Company   CompanyConfig
	Admin     AdminConfig
}

type AppConfig struct {
	Name     string
	Env      string
	Port     string
	Debug    bool
	LogLevel string
}

type DatabaseConfig struct {
	Driver   string // postgres or sqlite
	Path     string // sqlite file, ":memory:" for a throwaway database
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	SSLMode  string
	Timezone string
}

type JWTConfig struct {
	Secret             string
	ExpiryHours        time.Duration
	RefreshExpiryHours time.Duration
}

// StorageConfig points at the S3-compatible bucket generated quote documents
// are archived in. An empty endpoint disables archiving.
type StorageConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// RedisConfig configures the product cache and the token blacklist. An empty
// host disables both.
type RedisConfig struct {
	Host       string
	Port       string
	Password   string
	DB         int
	ProductTTL time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
}

// RateLimitConfig limits public quote submissions per client IP
type RateLimitConfig struct {
	Requests int
	Duration int
}

// EmailConfig configures the SMTP server order confirmations are sent
// through. An empty host disables sending.
type EmailConfig struct {
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	FromName     string
	FromEmail    string
}

// CompanyConfig is the identity printed on quote documents
type CompanyConfig struct {
	Name    string
	TaxID   string
	Address string
	Phone   string
	Email   string
	Website string
}

// AdminConfig is the back-office account created on first start
type AdminConfig struct {
	Email     string
	Password  string
	FirstName string
}

// Load reads configuration from .env (if present) and the environment
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Debug(".env file not found, using environment variables")
	}
	viper.AutomaticEnv()

	setDefaults()

	cfg := &Config{
		App: AppConfig{
			Name:     viper.GetString("APP_NAME"),
			Env:      viper.GetString("APP_ENV"),
			Port:     viper.GetString("APP_PORT"),
			Debug:    viper.GetBool("APP_DEBUG"),
			LogLevel: viper.GetString("APP_LOG_LEVEL"),
		},
		Database: DatabaseConfig{
			Driver:   viper.GetString("DB_DRIVER"),
			Path:     viper.GetString("DB_PATH"),
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			Name:     viper.GetString("DB_NAME"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASSWORD"),
			SSLMode:  viper.GetString("DB_SSL_MODE"),
			Timezone: viper.GetString("DB_TIMEZONE"),
		},
		JWT: JWTConfig{
			Secret:             viper.GetString("JWT_SECRET"),
			ExpiryHours:        time.Duration(viper.GetInt("JWT_EXPIRY_HOURS")) * time.Hour,
			RefreshExpiryHours: time.Duration(viper.GetInt("JWT_REFRESH_EXPIRY_HOURS")) * time.Hour,
		},
		Storage: StorageConfig{
			Endpoint:  viper.GetString("MINIO_ENDPOINT"),
			AccessKey: viper.GetString("MINIO_ACCESS_KEY"),
			SecretKey: viper.GetString("MINIO_SECRET_KEY"),
			Bucket:    viper.GetString("MINIO_BUCKET"),
			UseSSL:    viper.GetBool("MINIO_USE_SSL"),
		},
		Redis: RedisConfig{
			Host:       viper.GetString("REDIS_HOST"),
			Port:       viper.GetString("REDIS_PORT"),
			Password:   viper.GetString("REDIS_PASSWORD"),
			DB:         viper.GetInt("REDIS_DB"),
			ProductTTL: time.Duration(viper.GetInt("REDIS_PRODUCT_TTL_SECONDS")) * time.Second,
		},
		CORS: CORSConfig{
			AllowedOrigins: splitList(viper.GetString("CORS_ALLOWED_ORIGINS")),
			AllowedMethods: splitList(viper.GetString("CORS_ALLOWED_METHODS")),
			AllowedHeaders: splitList(viper.GetString("CORS_ALLOWED_HEADERS")),
		},
		RateLimit: RateLimitConfig{
			Requests: viper.GetInt("RATE_LIMIT_REQUESTS"),
			Duration: viper.GetInt("RATE_LIMIT_DURATION"),
		},
		Email: EmailConfig{
			SMTPHost:     viper.GetString("SMTP_HOST"),
			SMTPPort:     viper.GetInt("SMTP_PORT"),
			SMTPUsername: viper.GetString("SMTP_USERNAME"),
			SMTPPassword: viper.GetString("SMTP_PASSWORD"),
			FromName:     viper.GetString("SMTP_FROM_NAME"),
			FromEmail:    viper.GetString("SMTP_FROM_EMAIL"),
		},
		Pricing: LoadPricing(),
		Company: CompanyConfig{
			Name:    viper.GetString("COMPANY_NAME"),
			TaxID:   viper.GetString("COMPANY_TAX_ID"),
			Address: viper.GetString("COMPANY_ADDRESS"),
			Phone:   viper.GetString("COMPANY_PHONE"),
			Email:   viper.GetString("COMPANY_EMAIL"),
			Website: viper.GetString("COMPANY_WEBSITE"),
		},
		Admin: AdminConfig{
			Email:     viper.GetString("ADMIN_EMAIL"),
			Password:  viper.GetString("ADMIN_PASSWORD"),
			FirstName: viper.GetString("ADMIN_FIRST_NAME"),
		},
	}

	return cfg
}

// LoadPricing reads the pricing engine settings from the environment. Invalid
// settings are logged and replaced with the defaults.
func LoadPricing() pricing.Config {
	viper.AutomaticEnv()

	def := pricing.DefaultConfig()
	viper.SetDefault("PRICING_VAT_RATE", def.VATRate)
	viper.SetDefault("PRICING_DEPRECIATION_RATE", def.DepreciationRate)
	viper.SetDefault("PRICING_LOGISTICS_SHARE", def.LogisticsShare)
	viper.SetDefault("PRICING_LOW_MARGIN_PERCENT", def.LowMarginPercent)
	viper.SetDefault("PRICING_CUSTOM_PRICE_TOLERANCE", def.CustomPriceTolerance)
	viper.SetDefault("PRICING_BOOKING_SHARE", def.BookingShare)
	viper.SetDefault("PRICING_MONTH_BEFORE_SHARE", def.MonthBeforeShare)
	viper.SetDefault("PRICING_EVENT_DAY_SHARE", def.EventDayShare)
	viper.SetDefault("PRICING_DEPOSIT_RATE", def.DepositRate)

	cfg := pricing.Config{
		VATRate:              viper.GetFloat64("PRICING_VAT_RATE"),
		DepreciationRate:     viper.GetFloat64("PRICING_DEPRECIATION_RATE"),
		LogisticsShare:       viper.GetFloat64("PRICING_LOGISTICS_SHARE"),
		LowMarginPercent:     viper.GetFloat64("PRICING_LOW_MARGIN_PERCENT"),
		CustomPriceTolerance: viper.GetFloat64("PRICING_CUSTOM_PRICE_TOLERANCE"),
		BookingShare:         viper.GetFloat64("PRICING_BOOKING_SHARE"),
		MonthBeforeShare:     viper.GetFloat64("PRICING_MONTH_BEFORE_SHARE"),
		EventDayShare:        viper.GetFloat64("PRICING_EVENT_DAY_SHARE"),
		DepositRate:          viper.GetFloat64("PRICING_DEPOSIT_RATE"),
	}
	if err := cfg.Validate(); err != nil {
		log.WithError(err).Warn("invalid pricing configuration, using defaults")
		return def
	}
	return cfg
}

func setDefaults() {
	viper.SetDefault("APP_NAME", "rental-api")
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("APP_DEBUG", true)
	viper.SetDefault("APP_LOG_LEVEL", "info")
	viper.SetDefault("DB_DRIVER", "postgres")
	viper.SetDefault("DB_PATH", "rental.db")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_NAME", "rental")
	viper.SetDefault("DB_USER", "postgres")
	viper.SetDefault("DB_PASSWORD", "postgres")
	viper.SetDefault("DB_SSL_MODE", "disable")
	viper.SetDefault("DB_TIMEZONE", "Europe/Madrid")
	viper.SetDefault("JWT_SECRET", "change-this-secret-in-production")
	viper.SetDefault("JWT_EXPIRY_HOURS", 24)
	viper.SetDefault("JWT_REFRESH_EXPIRY_HOURS", 168)
	viper.SetDefault("MINIO_BUCKET", "quotes")
	viper.SetDefault("MINIO_USE_SSL", false)
	viper.SetDefault("REDIS_PORT", "6379")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("REDIS_PRODUCT_TTL_SECONDS", 300)
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")
	viper.SetDefault("CORS_ALLOWED_METHODS", "GET,POST,PUT,PATCH,DELETE,OPTIONS")
	viper.SetDefault("CORS_ALLOWED_HEADERS", "")
	viper.SetDefault("RATE_LIMIT_REQUESTS", 10)
	viper.SetDefault("RATE_LIMIT_DURATION", 60)
	viper.SetDefault("SMTP_PORT", 587)
	viper.SetDefault("SMTP_FROM_NAME", "Resona Eventos")
	viper.SetDefault("SMTP_FROM_EMAIL", "noreply@resona.com")
	viper.SetDefault("COMPANY_NAME", "Resona Eventos")
	viper.SetDefault("ADMIN_FIRST_NAME", "Admin")
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (c *DatabaseConfig) DSN() string {
	return "host=" + c.Host +
		" user=" + c.User +
		" password=" + c.Password +
		" dbname=" + c.Name +
		" port=" + c.Port +
		" sslmode=" + c.SSLMode +
		" TimeZone=" + c.Timezone
}

// Addr returns host:port for the redis client
func (c *RedisConfig) Addr() string {
	return c.Host + ":" + c.Port
}

// IsProduction reports whether the app runs in production
func (c *AppConfig) IsProduction() bool {
	return c.Env == "production"
}
