package config

import (
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	Server   Server
	Database Database
	Redis    Redis
	Auth     Auth
	Gemini   Gemini
	Log      Log

	SweepInterval time.Duration
}

type Server struct {
	Port        string
	GinMode     string
	CorsOrigins []string
}

type Database struct {
	Driver   string
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
	Path     string
}

// Redis is optional. An empty Addr disables the leaderboard cache.
type Redis struct {
	Addr     string
	Password string
	DB       int
}

type Auth struct {
	JWTSecret string
	TokenTTL  time.Duration
}

// Gemini is optional. An empty APIKey disables solution explanations.
type Gemini struct {
	APIKey string
	Model  string
}

type Log struct {
	Level  string
	Format string
}

func NewConfig() (*Config, error) {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")

	viper.AutomaticEnv()

	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("GIN_MODE", "debug")
	viper.SetDefault("CORS_ORIGINS", "*")
	viper.SetDefault("DATABASE_DRIVER", "postgres")
	viper.SetDefault("DATABASE_SSLMODE", "disable")
	viper.SetDefault("DATABASE_PATH", "mocktest.db")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("JWT_TTL", "24h")
	viper.SetDefault("SWEEP_INTERVAL", "5s")
	viper.SetDefault("GEMINI_MODEL", "gemini-1.5-flash")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("LOG_FORMAT", "console")

	if err := viper.ReadInConfig(); err != nil {
		log.Warn().Err(err).Msg("Error reading config file")
	}

	var config Config

	config.Server.Port = viper.GetString("SERVER_PORT")
	config.Server.GinMode = viper.GetString("GIN_MODE")
	config.Server.CorsOrigins = splitList(viper.GetString("CORS_ORIGINS"))

	config.Database.Driver = strings.ToLower(viper.GetString("DATABASE_DRIVER"))
	config.Database.Host = viper.GetString("DATABASE_HOST")
	config.Database.Port = viper.GetString("DATABASE_PORT")
	config.Database.User = viper.GetString("DATABASE_USER")
	config.Database.Password = viper.GetString("DATABASE_PASSWORD")
	config.Database.Name = viper.GetString("DATABASE_NAME")
	config.Database.SSLMode = viper.GetString("DATABASE_SSLMODE")
	config.Database.Path = viper.GetString("DATABASE_PATH")

	config.Redis.Addr = viper.GetString("REDIS_ADDR")
	config.Redis.Password = viper.GetString("REDIS_PASSWORD")
	config.Redis.DB = viper.GetInt("REDIS_DB")

	config.Auth.JWTSecret = viper.GetString("JWT_SECRET")
	config.Auth.TokenTTL = viper.GetDuration("JWT_TTL")

	config.Gemini.APIKey = viper.GetString("GEMINI_API_KEY")
	config.Gemini.Model = viper.GetString("GEMINI_MODEL")

	config.Log.Level = viper.GetString("LOG_LEVEL")
	config.Log.Format = viper.GetString("LOG_FORMAT")

	config.SweepInterval = viper.GetDuration("SWEEP_INTERVAL")

	if config.Auth.JWTSecret == "" {
		log.Warn().Msg("JWT_SECRET is empty, tokens are signed with an insecure development key")
		config.Auth.JWTSecret = "mocktest-dev-secret"
	}
	if config.SweepInterval <= 0 {
		config.SweepInterval = 5 * time.Second
	}

	log.Info().
		Str("port", config.Server.Port).
		Str("db_driver", config.Database.Driver).
		Bool("redis", config.Redis.Addr != "").
		Bool("gemini", config.Gemini.APIKey != "").
		Dur("sweep_interval", config.SweepInterval).
		Msg("Config loaded")
	return &config, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
