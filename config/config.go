package config

import (
	"log"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string `mapstructure:"APP_PORT"`
	DatabaseURL       string `mapstructure:"DATABASE_URL"`
	Env               string `mapstructure:"ENV"`
	JWTSecret         string `mapstructure:"JWT_SECRET"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`

	// Redis configuration.
	RedisAddr           string `mapstructure:"REDIS_ADDR"`
	RedisPassword       string `mapstructure:"REDIS_PASSWORD"`
	RedisSessionDB      int    `mapstructure:"REDIS_SESSION_DB"`
	RedisFlightCacheDB  int    `mapstructure:"REDIS_FLIGHT_CACHE_DB"`
	RedisSweeperQueueDB int    `mapstructure:"REDIS_SWEEPER_QUEUE_DB"`

	// Dialog engine tuning.
	SessionTTLMin     int `mapstructure:"SESSION_TTL_MIN"`
	SweepIdleMin      int `mapstructure:"SWEEP_IDLE_MIN"`
	ClassifyTimeoutMS int `mapstructure:"CLASSIFY_TIMEOUT_MS"`

	// Upstream collaborators.
	GeminiAPIKey             string `mapstructure:"GEMINI_API_KEY"`
	GoogleServiceAccountFile string `mapstructure:"GOOGLE_SERVICE_ACCOUNT_FILE"`
	StripeKey                string `mapstructure:"STRIPE_KEY"`
	FlightSearchURL          string `mapstructure:"FLIGHT_SEARCH_URL"`
	FlightSearchTimeoutMS    int    `mapstructure:"FLIGHT_SEARCH_TIMEOUT_MS"`
}

var AppConfig Config

func LoadConfig() {
	// Look for a config file named "config.yaml" in the current and "config" directory.
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	// Automatically use environment variables where available.
	viper.AutomaticEnv()

	// Set default values.
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("MAX_REQUESTS_PER_MIN", 100)
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_SESSION_DB", 0)
	viper.SetDefault("REDIS_FLIGHT_CACHE_DB", 1)
	viper.SetDefault("REDIS_SWEEPER_QUEUE_DB", 2)
	viper.SetDefault("SESSION_TTL_MIN", 60)
	viper.SetDefault("SWEEP_IDLE_MIN", 30)
	viper.SetDefault("CLASSIFY_TIMEOUT_MS", 2500)
	viper.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	viper.SetDefault("GEMINI_API_KEY", "")
	viper.SetDefault("GOOGLE_SERVICE_ACCOUNT_FILE", "")
	viper.SetDefault("STRIPE_KEY", "")
	viper.SetDefault("FLIGHT_SEARCH_URL", "")
	viper.SetDefault("FLIGHT_SEARCH_TIMEOUT_MS", 4000)

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}
