package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"

	"parkshare/pkg/models"
)

type Config struct {
	ServiceName string
	LoggerLevel string

	HTTPPort int

	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string

	// PostgresFallbackURL is tried when the primary database is unreachable.
	PostgresFallbackURL string
	MemoryFallback      bool
	MigrationsPath      string

	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	RabbitMQURL string

	TelegramBotToken string

	GeocoderURL         string
	GeocoderUserAgent   string
	GeocoderTimeout     time.Duration
	GeocoderCountryHint string
	GeocodeCacheTTL     time.Duration

	RatePerMinute        int64
	PenaltyPerPeriod     int64
	PenaltyPeriodMinutes int
	BillNoShow           bool
	MinDurationMinutes   int

	SweepInterval time.Duration
	BcryptCost    int
}

func Load() Config {
	_ = godotenv.Load(".env")

	cfg := Config{}

	cfg.ServiceName = cast.ToString(getOrReturnDefault("SERVICE_NAME", "parkshare"))
	cfg.LoggerLevel = cast.ToString(getOrReturnDefault("LOGGER_LEVEL", "debug"))
	cfg.HTTPPort = cast.ToInt(getOrReturnDefault("HTTP_PORT", 8080))

	cfg.PostgresHost = cast.ToString(getOrReturnDefault("POSTGRES_HOST", "localhost"))
	cfg.PostgresPort = cast.ToString(getOrReturnDefault("POSTGRES_PORT", "5432"))
	cfg.PostgresUser = cast.ToString(getOrReturnDefault("POSTGRES_USER", "postgres"))
	cfg.PostgresPassword = cast.ToString(getOrReturnDefault("POSTGRES_PASSWORD", "1234"))
	cfg.PostgresDB = cast.ToString(getOrReturnDefault("POSTGRES_DB", "parkshare"))
	cfg.PostgresFallbackURL = cast.ToString(getOrReturnDefault("POSTGRES_FALLBACK_URL", ""))
	cfg.MemoryFallback = cast.ToBool(getOrReturnDefault("STORAGE_MEMORY_FALLBACK", true))
	cfg.MigrationsPath = cast.ToString(getOrReturnDefault("MIGRATIONS_PATH", ""))

	cfg.RedisHost = cast.ToString(getOrReturnDefault("REDIS_HOST", ""))
	cfg.RedisPort = cast.ToString(getOrReturnDefault("REDIS_PORT", "6379"))
	cfg.RedisPassword = cast.ToString(getOrReturnDefault("REDIS_PASSWORD", ""))
	cfg.RedisDB = cast.ToInt(getOrReturnDefault("REDIS_DB", 0))

	cfg.RabbitMQURL = cast.ToString(getOrReturnDefault("RABBITMQ_URL", ""))

	cfg.TelegramBotToken = cast.ToString(getOrReturnDefault("TELEGRAM_BOT_TOKEN", ""))

	cfg.GeocoderURL = cast.ToString(getOrReturnDefault("GEOCODER_URL", "https://nominatim.openstreetmap.org/search"))
	cfg.GeocoderUserAgent = cast.ToString(getOrReturnDefault("GEOCODER_USER_AGENT", "parkshare/1.0"))
	cfg.GeocoderTimeout = cast.ToDuration(getOrReturnDefault("GEOCODER_TIMEOUT", "5s"))
	cfg.GeocoderCountryHint = cast.ToString(getOrReturnDefault("GEOCODER_COUNTRY_HINT", "Colombia"))
	cfg.GeocodeCacheTTL = cast.ToDuration(getOrReturnDefault("GEOCODE_CACHE_TTL", "720h"))

	cfg.RatePerMinute = cast.ToInt64(getOrReturnDefault("RATE_PER_MINUTE", 100))
	cfg.PenaltyPerPeriod = cast.ToInt64(getOrReturnDefault("PENALTY_PER_PERIOD", 500))
	cfg.PenaltyPeriodMinutes = cast.ToInt(getOrReturnDefault("PENALTY_PERIOD_MINUTES", 5))
	cfg.BillNoShow = cast.ToBool(getOrReturnDefault("BILL_NO_SHOW", true))
	cfg.MinDurationMinutes = cast.ToInt(getOrReturnDefault("MIN_DURATION_MINUTES", 10))

	cfg.SweepInterval = cast.ToDuration(getOrReturnDefault("SWEEP_INTERVAL", "30s"))
	cfg.BcryptCost = cast.ToInt(getOrReturnDefault("BCRYPT_COST", 10))

	return cfg
}

// PostgresURL is the DSN of the primary database.
func (c Config) PostgresURL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.PostgresUser,
		c.PostgresPassword,
		c.PostgresHost,
		c.PostgresPort,
		c.PostgresDB,
	)
}

func (c Config) Billing() models.Billing {
	return models.Billing{
		RatePerMinute:        c.RatePerMinute,
		PenaltyPerPeriod:     c.PenaltyPerPeriod,
		PenaltyPeriodMinutes: c.PenaltyPeriodMinutes,
		NoShowBilling:        c.BillNoShow,
	}
}

func getOrReturnDefault(key string, defaultValue interface{}) interface{} {
	value := os.Getenv(key)
	if value != "" {
		return value
	}
	return defaultValue
}
