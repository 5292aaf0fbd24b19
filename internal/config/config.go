/**
 * @description
 * This package handles the configuration management for the service. It uses
 * the Viper library to read configuration from environment variables, with an
 * optional .env file for local development.
 *
 * @dependencies
 * - github.com/spf13/viper: A popular library for Go application configuration.
 */

package config

import (
	"log"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all the configuration variables for the savings service.
// These values are loaded from environment variables.
type Config struct {
	ServerPort                  string `mapstructure:"SERVER_PORT"`
	DatabaseURL                 string `mapstructure:"DATABASE_URL"`
	RedisURL                    string `mapstructure:"REDIS_URL"`
	RedisRateLimitPrefix        string `mapstructure:"REDIS_RATE_LIMIT_PREFIX"`
	RabbitMQURL                 string `mapstructure:"RABBITMQ_URL"`
	JWTSecret                   string `mapstructure:"JWT_SECRET"`
	InterpreterURL              string `mapstructure:"INTERPRETER_URL"`
	InterpreterAPIKey           string `mapstructure:"INTERPRETER_API_KEY"`
	SchedulerCronSpec           string `mapstructure:"SCHEDULER_CRON_SPEC"`
	ExecutionBatchLimit         int    `mapstructure:"EXECUTION_BATCH_LIMIT"`
	ProjectionMaxOccurrences    int    `mapstructure:"PROJECTION_MAX_OCCURRENCES"`
	WalletCacheTTLSeconds       int    `mapstructure:"WALLET_CACHE_TTL_SECONDS"`
	InterpretRateLimitPerMinute int    `mapstructure:"INTERPRET_RATE_LIMIT_PER_MINUTE"`
	ConfirmRateLimitPerMinute   int    `mapstructure:"CONFIRM_RATE_LIMIT_PER_MINUTE"`
	CancelRateLimitPerMinute    int    `mapstructure:"CANCEL_RATE_LIMIT_PER_MINUTE"`
	ListRateLimitPerMinute      int    `mapstructure:"LIST_RATE_LIMIT_PER_MINUTE"`
	CORSAllowedOrigins          string `mapstructure:"CORS_ALLOWED_ORIGINS"`
}

// LoadConfig reads configuration from environment variables from the given path.
// It uses Viper to automatically bind environment variables to the Config struct.
func LoadConfig(path string) (config Config, err error) {
	// Tell viper the path to look for the optional .env file.
	viper.AddConfigPath(path)
	viper.SetConfigName(".env")
	viper.SetConfigType("env")

	// Enable automatic binding of environment variables.
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set default values
	viper.SetDefault("SERVER_PORT", "8084")
	viper.SetDefault("REDIS_RATE_LIMIT_PREFIX", "savings:rate_limit")
	viper.SetDefault("SCHEDULER_CRON_SPEC", "* * * * *")
	viper.SetDefault("EXECUTION_BATCH_LIMIT", 100)
	viper.SetDefault("PROJECTION_MAX_OCCURRENCES", 24)
	viper.SetDefault("WALLET_CACHE_TTL_SECONDS", 60)
	viper.SetDefault("INTERPRET_RATE_LIMIT_PER_MINUTE", 5)
	viper.SetDefault("CONFIRM_RATE_LIMIT_PER_MINUTE", 5)
	viper.SetDefault("CANCEL_RATE_LIMIT_PER_MINUTE", 5)
	viper.SetDefault("LIST_RATE_LIMIT_PER_MINUTE", 10)
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "*")

	// Bind environment variables explicitly to ensure they appear in Unmarshal
	_ = viper.BindEnv("SERVER_PORT")
	_ = viper.BindEnv("PORT")
	_ = viper.BindEnv("DATABASE_URL")
	_ = viper.BindEnv("REDIS_URL")
	_ = viper.BindEnv("REDIS_RATE_LIMIT_PREFIX")
	_ = viper.BindEnv("RABBITMQ_URL")
	_ = viper.BindEnv("JWT_SECRET")
	_ = viper.BindEnv("INTERPRETER_URL")
	_ = viper.BindEnv("INTERPRETER_API_KEY")
	_ = viper.BindEnv("SCHEDULER_CRON_SPEC")
	_ = viper.BindEnv("EXECUTION_BATCH_LIMIT")
	_ = viper.BindEnv("PROJECTION_MAX_OCCURRENCES")
	_ = viper.BindEnv("WALLET_CACHE_TTL_SECONDS")
	_ = viper.BindEnv("INTERPRET_RATE_LIMIT_PER_MINUTE")
	_ = viper.BindEnv("CONFIRM_RATE_LIMIT_PER_MINUTE")
	_ = viper.BindEnv("CANCEL_RATE_LIMIT_PER_MINUTE")
	_ = viper.BindEnv("LIST_RATE_LIMIT_PER_MINUTE")
	_ = viper.BindEnv("CORS_ALLOWED_ORIGINS")

	// Attempt to read the config file. It's okay if it doesn't exist.
	if err = viper.ReadInConfig(); err != nil {
		// If the config file is not found, we can ignore the error.
		// For other errors, we should return them.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Printf("level=warn component=config msg=\"failed to read config file; using environment values\" err=%v", err)
		}
	}

	// Unmarshal the configuration into the Config struct.
	err = viper.Unmarshal(&config)
	if err != nil {
		return
	}

	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		config.ServerPort = port
	}
	config.RedisURL = strings.TrimSpace(config.RedisURL)
	config.RedisRateLimitPrefix = strings.TrimSpace(config.RedisRateLimitPrefix)
	if config.RedisRateLimitPrefix == "" {
		config.RedisRateLimitPrefix = "savings:rate_limit"
	}
	if strings.TrimSpace(config.SchedulerCronSpec) == "" {
		config.SchedulerCronSpec = "* * * * *"
	}

	if config.ExecutionBatchLimit <= 0 {
		log.Printf("level=warn component=config msg=\"non-positive execution batch limit configured; using default\" limit=%d", config.ExecutionBatchLimit)
		config.ExecutionBatchLimit = 100
	}
	if config.ProjectionMaxOccurrences <= 0 {
		log.Printf("level=warn component=config msg=\"non-positive projection cap configured; using default\" cap=%d", config.ProjectionMaxOccurrences)
		config.ProjectionMaxOccurrences = 24
	}
	if config.WalletCacheTTLSeconds < 0 {
		config.WalletCacheTTLSeconds = 0
	}
	if config.InterpretRateLimitPerMinute <= 0 {
		config.InterpretRateLimitPerMinute = 5
	}
	if config.ConfirmRateLimitPerMinute <= 0 {
		config.ConfirmRateLimitPerMinute = 5
	}
	if config.CancelRateLimitPerMinute <= 0 {
		config.CancelRateLimitPerMinute = 5
	}
	if config.ListRateLimitPerMinute <= 0 {
		config.ListRateLimitPerMinute = 10
	}

	return
}
