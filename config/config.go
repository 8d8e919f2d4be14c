// Package config loads the gateway's service-level configuration: ports,
// broker credentials, external URLs, and security secrets. It is
// deliberately separate from risklimits, which governs trading behavior
// rather than process wiring.
package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the gateway process's full runtime configuration.
type Config struct {
	HTTPPort               int    `mapstructure:"http_port"`
	PortfolioServiceURL    string `mapstructure:"portfolio_service_url"`
	RedisAddr              string `mapstructure:"redis_addr"`
	RedisPassword          string `mapstructure:"redis_password"`
	AuditNDJSONPath        string `mapstructure:"audit_ndjson_path"`
	AuditSQLitePath        string `mapstructure:"audit_sqlite_path"`
	JWTSecret              string `mapstructure:"jwt_secret"`
	KillSwitchTOTPSecret   string `mapstructure:"kill_switch_totp_secret"`
	PaperBrokerSlippageBps int    `mapstructure:"paper_broker_slippage_bps"`
	LogLevel               string `mapstructure:"log_level"`
}

// Default returns conservative, locally-runnable defaults.
func Default() Config {
	return Config{
		HTTPPort:               8080,
		PortfolioServiceURL:    "http://localhost:9090",
		RedisAddr:              "localhost:6379",
		AuditNDJSONPath:        "audit.ndjson",
		AuditSQLitePath:        "audit.db",
		PaperBrokerSlippageBps: 5,
		LogLevel:               "info",
	}
}

// Load reads gateway configuration from an optional config file (via
// viper) with TRADECORE_ prefixed environment variable overrides, falling
// back to Default() for anything unset. A local .env file, if present, is
// loaded first.
func Load(configPath string) (Config, error) {
	_ = godotenv.Load()

	d := Default()

	v := viper.New()
	v.SetEnvPrefix("TRADECORE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("http_port", d.HTTPPort)
	v.SetDefault("portfolio_service_url", d.PortfolioServiceURL)
	v.SetDefault("redis_addr", d.RedisAddr)
	v.SetDefault("redis_password", d.RedisPassword)
	v.SetDefault("audit_ndjson_path", d.AuditNDJSONPath)
	v.SetDefault("audit_sqlite_path", d.AuditSQLitePath)
	v.SetDefault("jwt_secret", d.JWTSecret)
	v.SetDefault("kill_switch_totp_secret", d.KillSwitchTOTPSecret)
	v.SetDefault("paper_broker_slippage_bps", d.PaperBrokerSlippageBps)
	v.SetDefault("log_level", d.LogLevel)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("config: reading %s failed: %w", configPath, err)
		}
	}

	var out Config
	if err := v.Unmarshal(&out); err != nil {
		return Config{}, fmt.Errorf("config: unmarshal failed: %w", err)
	}
	if out.JWTSecret == "" {
		return Config{}, fmt.Errorf("config: jwt_secret must be set (TRADECORE_JWT_SECRET)")
	}
	if out.KillSwitchTOTPSecret == "" {
		return Config{}, fmt.Errorf("config: kill_switch_totp_secret must be set (TRADECORE_KILL_SWITCH_TOTP_SECRET)")
	}
	return out, nil
}
