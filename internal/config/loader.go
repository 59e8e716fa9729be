package config

import (
	"errors"
	"strings"
	"time"

	"github.com/rpattn/staffing/internal/db"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Config is the full service configuration.
type Config struct {
	Database  db.Config       `mapstructure:"database"`
	Server    ServerConfig    `mapstructure:"server"`
	Upload    UploadConfig    `mapstructure:"upload"`
	CORS      CORSConfig      `mapstructure:"cors"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Import    ImportConfig    `mapstructure:"import"`
	Log       LogConfig       `mapstructure:"log"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type UploadConfig struct {
	MaxBytes int64 `mapstructure:"max_bytes"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// RateLimitConfig uses the "<limit>-<period>" notation, e.g. "30-M".
type RateLimitConfig struct {
	Imports string `mapstructure:"imports"`
}

type AuthConfig struct {
	UserHeader string `mapstructure:"user_header"`
}

type ImportConfig struct {
	MaxIdentifierAttempts int `mapstructure:"max_id_attempts"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Default returns the configuration used when no file or env override is present.
func Default() Config {
	return Config{
		Database: db.DefaultConfig(),
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Upload:    UploadConfig{MaxBytes: 5 << 20},
		CORS:      CORSConfig{AllowedOrigins: []string{"http://localhost:3000"}},
		RateLimit: RateLimitConfig{Imports: "30-M"},
		Auth:      AuthConfig{UserHeader: "X-User-ID"},
		Import:    ImportConfig{MaxIdentifierAttempts: 5},
		Log:       LogConfig{Level: "info", Format: "text"},
	}
}

func setDefaults(v *viper.Viper, cfg Config) {
	v.SetDefault("database.host", cfg.Database.Host)
	v.SetDefault("database.port", cfg.Database.Port)
	v.SetDefault("database.user", cfg.Database.User)
	v.SetDefault("database.password", cfg.Database.Password)
	v.SetDefault("database.dbname", cfg.Database.DBName)
	v.SetDefault("database.sslmode", cfg.Database.SSLMode)
	v.SetDefault("database.max_conns", cfg.Database.MaxConns)
	v.SetDefault("server.addr", cfg.Server.Addr)
	v.SetDefault("server.read_timeout", cfg.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", cfg.Server.WriteTimeout)
	v.SetDefault("server.idle_timeout", cfg.Server.IdleTimeout)
	v.SetDefault("server.shutdown_timeout", cfg.Server.ShutdownTimeout)
	v.SetDefault("upload.max_bytes", cfg.Upload.MaxBytes)
	v.SetDefault("cors.allowed_origins", cfg.CORS.AllowedOrigins)
	v.SetDefault("ratelimit.imports", cfg.RateLimit.Imports)
	v.SetDefault("auth.user_header", cfg.Auth.UserHeader)
	v.SetDefault("import.max_id_attempts", cfg.Import.MaxIdentifierAttempts)
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.format", cfg.Log.Format)
}

// Load reads config.yaml from configPath (when present) and applies
// STAFFING_* environment overrides, e.g. STAFFING_DATABASE_HOST.
func Load(configPath string, log logrus.FieldLogger) (Config, error) {
	cfg := Default()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if configPath != "" {
		v.AddConfigPath(configPath)
	}
	v.SetEnvPrefix("STAFFING")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v, cfg)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, err
		}
		log.Info("no config.yaml found, using defaults and env vars")
	} else {
		log.WithField("file", v.ConfigFileUsed()).Info("loaded config")
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	// env values arrive as one comma separated string
	if len(cfg.CORS.AllowedOrigins) == 1 && strings.Contains(cfg.CORS.AllowedOrigins[0], ",") {
		cfg.CORS.AllowedOrigins = strings.Split(cfg.CORS.AllowedOrigins[0], ",")
	}

	return cfg, nil
}
