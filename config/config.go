package config

import (
	"log"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string `mapstructure:"APP_PORT"`
	Env               string `mapstructure:"ENV"`
	JWTSecret         string `mapstructure:"JWT_SECRET"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`

	// MongoDB configuration.
	DatabaseURL   string `mapstructure:"DATABASE_URL"`
	MongoDatabase string `mapstructure:"MONGO_DATABASE"`

	// Redis configuration.
	RedisAddr      string `mapstructure:"REDIS_ADDR"`
	RedisPassword  string `mapstructure:"REDIS_PASSWORD"`
	RedisContextDB int    `mapstructure:"REDIS_CONTEXT_DB"`

	// Conversation engine tuning.
	DefaultLocale           string `mapstructure:"DEFAULT_LOCALE"`
	SettleWindowMS          int    `mapstructure:"SETTLE_WINDOW_MS"`
	DuplicateWindowMS       int    `mapstructure:"DUPLICATE_WINDOW_MS"`
	RestartBackoffMS        int    `mapstructure:"RESTART_BACKOFF_MS"`
	ContextTTLMinutes       int    `mapstructure:"CONTEXT_TTL_MINUTES"`
	SessionTokenTTLMinutes  int    `mapstructure:"SESSION_TOKEN_TTL_MINUTES"`
	ClearSlotsOnNewLocation bool   `mapstructure:"CLEAR_SLOTS_ON_NEW_LOCATION"`

	// External search target.
	SearchBaseURL string `mapstructure:"SEARCH_BASE_URL"`
	AffiliateID   string `mapstructure:"AFFILIATE_ID"`

	// Google Cloud Speech credentials.
	GoogleServiceAccountFile string `mapstructure:"GOOGLE_SERVICE_ACCOUNT_FILE"`
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
	viper.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	viper.SetDefault("MONGO_DATABASE", "concierge")
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_CONTEXT_DB", 0)
	viper.SetDefault("DEFAULT_LOCALE", "en")
	viper.SetDefault("SETTLE_WINDOW_MS", 500)
	viper.SetDefault("DUPLICATE_WINDOW_MS", 1500)
	viper.SetDefault("RESTART_BACKOFF_MS", 600)
	viper.SetDefault("CONTEXT_TTL_MINUTES", 30)
	viper.SetDefault("SESSION_TOKEN_TTL_MINUTES", 120)
	viper.SetDefault("CLEAR_SLOTS_ON_NEW_LOCATION", false)
	viper.SetDefault("SEARCH_BASE_URL", "https://www.booking.com/searchresults.html")
	viper.SetDefault("AFFILIATE_ID", "")
	viper.SetDefault("GOOGLE_SERVICE_ACCOUNT_FILE", "")

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
