package config

import (
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// Config holds application configuration (env + Viper).
type Config struct {
	Env                 string
	Port                string
	SessionSecret       string
	DatabaseURL         string // postgres DSN, or sqlite:<path> for local runs
	RedisURL            string // optional; sessions and pending quotes stay in memory without it
	FrontendURLEndsWith string
	DevPassword         string
	AllowCrossSiteDev   bool
	HealthAdminKey      string
	LogLevel            zerolog.Level
	QuoteTTL            time.Duration
	LoginRatePerMinute  int
}

func (c *Config) IsProduction() bool { return c.Env == "production" }

// Load loads config from env and optional .env file.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig()

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("PORT", "8080")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("DATABASE_URL", "sqlite:myinvestments.db")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("QUOTE_TTL", "15m")
	v.SetDefault("LOGIN_RATE_PER_MINUTE", 30)

	level, err := zerolog.ParseLevel(strings.ToLower(v.GetString("LOG_LEVEL")))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	ttl := v.GetDuration("QUOTE_TTL")
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}

	return &Config{
		Env:                 v.GetString("APP_ENV"),
		Port:                v.GetString("PORT"),
		SessionSecret:       v.GetString("SESSION_SECRET"),
		DatabaseURL:         v.GetString("DATABASE_URL"),
		RedisURL:            v.GetString("REDIS_URL"),
		FrontendURLEndsWith: v.GetString("FRONTEND_URL_ENDS_WITH"),
		DevPassword:         v.GetString("DEV_PASSWORD"),
		AllowCrossSiteDev:   strings.EqualFold(v.GetString("ALLOW_CROSS_SITE_DEV"), "true"),
		HealthAdminKey:      v.GetString("HEALTH_ADMIN_KEY"),
		LogLevel:            level,
		QuoteTTL:            ttl,
		LoginRatePerMinute:  v.GetInt("LOGIN_RATE_PER_MINUTE"),
	}, nil
}

// ApplyLogLevel sets the global zerolog level.
func (c *Config) ApplyLogLevel() {
	zerolog.SetGlobalLevel(c.LogLevel)
}
