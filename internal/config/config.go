package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	App struct {
		Port    string `mapstructure:"port"`
		Env     string `mapstructure:"env"`
		BaseURL string `mapstructure:"base_url"`
	} `mapstructure:"app"`
	Log struct {
		Level string `mapstructure:"level"`
	} `mapstructure:"log"`
	Database struct {
		URL string `mapstructure:"url"`
	} `mapstructure:"database"`
	Redis struct {
		URL string `mapstructure:"url"`
	} `mapstructure:"redis"`
	AMQP struct {
		URL string `mapstructure:"url"`
	} `mapstructure:"amqp"`
	Auth struct {
		JWTSecret string `mapstructure:"jwt_secret"`
	} `mapstructure:"auth"`
	Paystack struct {
		SecretKey string        `mapstructure:"secret_key"`
		PublicKey string        `mapstructure:"public_key"`
		BaseURL   string        `mapstructure:"base_url"`
		Timeout   time.Duration `mapstructure:"timeout"`
	} `mapstructure:"paystack"`
	Sweep struct {
		Interval time.Duration `mapstructure:"interval"`
	} `mapstructure:"sweep"`
	SMTP struct {
		Host     string `mapstructure:"host"`
		Port     int    `mapstructure:"port"`
		Username string `mapstructure:"username"`
		Password string `mapstructure:"password"`
		From     string `mapstructure:"from"`
	} `mapstructure:"smtp"`
}

// Environment variable for each key; the flat names match the deployment's .env file.
var envBindings = map[string]string{
	"app.port":            "PORT",
	"app.env":             "APP_ENV",
	"app.base_url":        "APP_BASE_URL",
	"log.level":           "LOG_LEVEL",
	"database.url":        "DATABASE_URL",
	"redis.url":           "REDIS_URL",
	"amqp.url":            "AMQP_URL",
	"auth.jwt_secret":     "JWT_SECRET",
	"paystack.secret_key": "PAYSTACK_SECRET_KEY",
	"paystack.public_key": "PAYSTACK_PUBLIC_KEY",
	"paystack.base_url":   "PAYSTACK_BASE_URL",
	"paystack.timeout":    "PAYSTACK_TIMEOUT",
	"sweep.interval":      "SWEEP_INTERVAL",
	"smtp.host":           "SMTP_HOST",
	"smtp.port":           "SMTP_PORT",
	"smtp.username":       "SMTP_USERNAME",
	"smtp.password":       "SMTP_PASSWORD",
	"smtp.from":           "SMTP_FROM",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.port", "8080")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.base_url", "http://localhost:8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("paystack.base_url", "https://api.paystack.co")
	v.SetDefault("paystack.timeout", 10*time.Second)
	v.SetDefault("sweep.interval", 24*time.Hour)
	v.SetDefault("smtp.port", 587)
}

// LoadConfig reads configuration from the environment. A .env file at envPath is
// loaded first outside production; a missing file is not an error.
func LoadConfig(envPath string) (*Config, error) {
	if os.Getenv("APP_ENV") != "production" && envPath != "" {
		if err := godotenv.Load(envPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}

	v := viper.New()
	setDefaults(v)
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, err
		}
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}

// Validate checks the settings the HTTP server cannot start without.
func (c *Config) Validate() error {
	var errs []error
	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.IsProduction() && c.Database.URL == "" {
		errs = append(errs, errors.New("DATABASE_URL is required in production"))
	}
	return errors.Join(errs...)
}
