package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type HTTPConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

type AppConfig struct {
	ServiceName string     `mapstructure:"service_name"`
	Env         string     `mapstructure:"env"`
	LogLevel    string     `mapstructure:"log_level"`
	MetricsPath string     `mapstructure:"metrics_path"`
	CORSOrigin  string     `mapstructure:"cors_origin"`
	HTTP        HTTPConfig `mapstructure:"http"`
}

type DBConfig struct {
	Host     string
	Port     int
	Name     string
	User     string
	Password string
	SSLMode  string
}

type RateLimitRedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

type RateLimitConfig struct {
	LoginLimit int
	Window     time.Duration
	Redis      RateLimitRedisConfig
}

type Config struct {
	App             AppConfig
	AccessSecret    string
	RefreshSecret   string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	DB              DBConfig
	RateLimit       RateLimitConfig
}

// Load reads the optional .env file, the optional yaml config and the
// environment. Missing signing secrets are a startup error, not something
// to discover on the first request.
func Load() (*Config, error) {
	_ = godotenv.Load()

	appCfg, err := loadApp(os.Getenv("EXPENSE_CONFIG"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		App:             *appCfg,
		AccessSecret:    envString("EXPENSE_JWT_SECRET", ""),
		RefreshSecret:   envString("EXPENSE_JWT_REFRESH_SECRET", ""),
		AccessTokenTTL:  envDuration("EXPENSE_ACCESS_TOKEN_TTL", 15*time.Minute),
		RefreshTokenTTL: envDuration("EXPENSE_REFRESH_TOKEN_TTL", 7*24*time.Hour),
		DB: DBConfig{
			Host:     envString("POSTGRES_HOST", "localhost"),
			Port:     envInt("POSTGRES_PORT", 5432),
			Name:     envString("POSTGRES_DB", "expensetracker"),
			User:     envString("POSTGRES_USER", "expense"),
			Password: envString("POSTGRES_PASSWORD", "expense"),
			SSLMode:  envString("POSTGRES_SSLMODE", "disable"),
		},
		RateLimit: RateLimitConfig{
			LoginLimit: envInt("EXPENSE_LOGIN_RATE_LIMIT", 10),
			Window:     envDuration("EXPENSE_LOGIN_RATE_WINDOW", 1*time.Minute),
			Redis: RateLimitRedisConfig{
				Addr:     envString("EXPENSE_RATE_LIMIT_REDIS_ADDR", ""),
				Password: envString("EXPENSE_RATE_LIMIT_REDIS_PASSWORD", ""),
				DB:       envInt("EXPENSE_RATE_LIMIT_REDIS_DB", 0),
				Prefix:   envString("EXPENSE_RATE_LIMIT_REDIS_PREFIX", "expense:auth:rl:"),
			},
		},
	}

	if cfg.AccessSecret == "" {
		return nil, fmt.Errorf("EXPENSE_JWT_SECRET must be set")
	}
	if cfg.RefreshSecret == "" {
		return nil, fmt.Errorf("EXPENSE_JWT_REFRESH_SECRET must be set")
	}
	if cfg.AccessSecret == cfg.RefreshSecret {
		return nil, fmt.Errorf("EXPENSE_JWT_SECRET and EXPENSE_JWT_REFRESH_SECRET must differ")
	}

	return cfg, nil
}

func loadApp(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetEnvPrefix("EXPENSE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("service_name", "expensetracker-api")
	v.SetDefault("env", "dev")
	v.SetDefault("log_level", "info")
	v.SetDefault("metrics_path", "/metrics")
	v.SetDefault("cors_origin", "http://localhost:3000")
	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("http.port", 4000)
	v.SetDefault("http.read_timeout", "5s")
	v.SetDefault("http.write_timeout", "10s")
	v.SetDefault("http.idle_timeout", "60s")
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
