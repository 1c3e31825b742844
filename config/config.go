package config

import (
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	Server    Server
	Database  Database
	Redis     Redis
	Auth      Auth
	Log       Log
	RateLimit RateLimit
}

type Server struct {
	Port string
	Mode string // gin mode: debug, release, test
}

type Database struct {
	Driver   string // postgres or sqlite
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
	Path     string // sqlite file path
}

type Redis struct {
	Addr     string
	Password string
	DB       int
}

type Auth struct {
	JWTSecret string
	Issuer    string
}

type Log struct {
	Level  string
	Pretty bool
}

type RateLimit struct {
	SubmitLimit  int
	SubmitWindow time.Duration
}

// NewConfig reads .env from the working directory (if present) and the
// environment. Environment variables win over the file.
func NewConfig() (*Config, error) {
	return Load(viper.GetViper())
}

// Load builds a Config from v. Command flags bound to v take precedence.
func Load(v *viper.Viper) (*Config, error) {
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("SERVER_MODE", "release")
	v.SetDefault("DATABASE_DRIVER", "postgres")
	v.SetDefault("DATABASE_PORT", "5432")
	v.SetDefault("DATABASE_SSLMODE", "disable")
	v.SetDefault("DATABASE_PATH", "examhall.db")
	v.SetDefault("AUTH_ISSUER", "examhall")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("SUBMIT_RATE_LIMIT", 5)
	v.SetDefault("SUBMIT_RATE_WINDOW", time.Minute)

	if err := v.ReadInConfig(); err != nil {
		log.Warn().Err(err).Msg("Error reading config file")
	}

	var config Config

	config.Server.Port = v.GetString("SERVER_PORT")
	config.Server.Mode = v.GetString("SERVER_MODE")
	config.Database.Driver = v.GetString("DATABASE_DRIVER")
	config.Database.Host = v.GetString("DATABASE_HOST")
	config.Database.Port = v.GetString("DATABASE_PORT")
	config.Database.User = v.GetString("DATABASE_USER")
	config.Database.Password = v.GetString("DATABASE_PASSWORD")
	config.Database.Name = v.GetString("DATABASE_NAME")
	config.Database.SSLMode = v.GetString("DATABASE_SSLMODE")
	config.Database.Path = v.GetString("DATABASE_PATH")

	config.Redis.Addr = v.GetString("REDIS_ADDR")
	config.Redis.Password = v.GetString("REDIS_PASSWORD")
	config.Redis.DB = v.GetInt("REDIS_DB")

	config.Auth.JWTSecret = v.GetString("JWT_SECRET")
	config.Auth.Issuer = v.GetString("AUTH_ISSUER")

	config.Log.Level = v.GetString("LOG_LEVEL")
	config.Log.Pretty = v.GetBool("LOG_PRETTY")

	config.RateLimit.SubmitLimit = v.GetInt("SUBMIT_RATE_LIMIT")
	config.RateLimit.SubmitWindow = v.GetDuration("SUBMIT_RATE_WINDOW")

	log.Info().
		Str("port", config.Server.Port).
		Str("db_driver", config.Database.Driver).
		Str("db_host", config.Database.Host).
		Bool("redis", config.Redis.Addr != "").
		Msg("Config loaded")
	return &config, nil
}
