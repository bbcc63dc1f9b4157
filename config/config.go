package config

import (
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	Server       Server
	Database     Database
	Redis        Redis
	RabbitMQ     RabbitMQ
	Admin        Admin
	Log          Log
	GeminiApiKey string
}

type Server struct {
	Port         string
	CookieSecure bool
}

type Database struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// Redis is optional. An empty Addr keeps rank recomputation locks in process.
// LockTTL is the rank lock lease, renewed while held; LockWait bounds acquisition.
type Redis struct {
	Addr     string
	Password string
	DB       int
	LockTTL  time.Duration
	LockWait time.Duration
}

// RabbitMQ is optional. An empty URL disables event publishing.
type RabbitMQ struct {
	URL      string
	Exchange string
}

// Admin is the account seeded on first start.
type Admin struct {
	Email    string
	Password string
	Name     string
}

type Log struct {
	Level  string
	Pretty bool
}

func NewConfig() (*Config, error) {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")

	viper.AutomaticEnv()

	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("COOKIE_SECURE", true)
	viper.SetDefault("DATABASE_HOST", "localhost")
	viper.SetDefault("DATABASE_PORT", "5432")
	viper.SetDefault("DATABASE_SSLMODE", "disable")
	viper.SetDefault("REDIS_LOCK_TTL", "10s")
	viper.SetDefault("REDIS_LOCK_WAIT", "15s")
	viper.SetDefault("RABBITMQ_EXCHANGE", "vertical_studies")
	viper.SetDefault("ADMIN_NAME", "Administrator")
	viper.SetDefault("LOG_LEVEL", "info")

	if err := viper.ReadInConfig(); err != nil {
		log.Warn().Err(err).Msg("Error reading config file")
	}

	var config Config

	config.Server.Port = viper.GetString("SERVER_PORT")
	config.Server.CookieSecure = viper.GetBool("COOKIE_SECURE")
	config.Database.Host = viper.GetString("DATABASE_HOST")
	config.Database.Port = viper.GetString("DATABASE_PORT")
	config.Database.User = viper.GetString("DATABASE_USER")
	config.Database.Password = viper.GetString("DATABASE_PASSWORD")
	config.Database.Name = viper.GetString("DATABASE_NAME")
	config.Database.SSLMode = viper.GetString("DATABASE_SSLMODE")

	config.Redis.Addr = viper.GetString("REDIS_ADDR")
	config.Redis.Password = viper.GetString("REDIS_PASSWORD")
	config.Redis.DB = viper.GetInt("REDIS_DB")
	config.Redis.LockTTL = viper.GetDuration("REDIS_LOCK_TTL")
	config.Redis.LockWait = viper.GetDuration("REDIS_LOCK_WAIT")

	config.RabbitMQ.URL = viper.GetString("RABBITMQ_URL")
	config.RabbitMQ.Exchange = viper.GetString("RABBITMQ_EXCHANGE")

	config.Admin.Email = viper.GetString("ADMIN_EMAIL")
	config.Admin.Password = viper.GetString("ADMIN_PASSWORD")
	config.Admin.Name = viper.GetString("ADMIN_NAME")

	config.Log.Level = viper.GetString("LOG_LEVEL")
	config.Log.Pretty = viper.GetBool("LOG_PRETTY")

	config.GeminiApiKey = viper.GetString("GEMINI_API_KEY")

	log.Info().
		Str("port", config.Server.Port).
		Str("dbHost", config.Database.Host).
		Str("dbName", config.Database.Name).
		Bool("redis", config.Redis.Addr != "").
		Bool("rabbitmq", config.RabbitMQ.URL != "").
		Bool("gemini", config.GeminiApiKey != "").
		Msg("Config loaded")
	return &config, nil
}
