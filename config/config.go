// Package config loads application configuration from the environment and an
// optional config file using Viper.
package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	RabbitMQ RabbitMQConfig `mapstructure:"rabbitmq"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	OTP      OTPConfig      `mapstructure:"otp"`
	Login    LoginConfig    `mapstructure:"login"`
	Reset    ResetConfig    `mapstructure:"reset"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

type RabbitMQConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
}

type JWTConfig struct {
	Secret          string `mapstructure:"secret"`
	ExpirationHours int    `mapstructure:"expiration_hours"`
}

type OTPConfig struct {
	ExpireMinutes    int `mapstructure:"expire_minutes"`
	MaxAttempts      int `mapstructure:"max_attempts"`
	MinResendSeconds int `mapstructure:"min_resend_seconds"`
}

type LoginConfig struct {
	// RatePerMinute limits login attempts per identifier+IP pair.
	RatePerMinute int `mapstructure:"rate_per_minute"`
	Burst         int `mapstructure:"burst"`
}

type ResetConfig struct {
	TokenExpire time.Duration `mapstructure:"token_expire"`
}

// LoadConfig reads an optional config file, then overlays environment
// variables prefixed with SAFELIVE_ (e.g. SAFELIVE_DATABASE_HOST).
func LoadConfig(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server.port", "8080")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.user", "safelive")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "safelive")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("rabbitmq.host", "localhost")
	v.SetDefault("rabbitmq.port", "5672")
	v.SetDefault("rabbitmq.user", "guest")
	v.SetDefault("rabbitmq.password", "guest")
	// Registering the key lets AutomaticEnv feed it into Unmarshal.
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.expiration_hours", 24)
	v.SetDefault("otp.expire_minutes", 5)
	v.SetDefault("otp.max_attempts", 5)
	v.SetDefault("otp.min_resend_seconds", 45)
	v.SetDefault("login.rate_per_minute", 10)
	v.SetDefault("login.burst", 5)
	v.SetDefault("reset.token_expire", 30*time.Minute)

	v.SetEnvPrefix("SAFELIVE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.JWT.Secret == "" {
		return nil, errors.New("jwt secret is required (SAFELIVE_JWT_SECRET)")
	}

	return &cfg, nil
}
