// Package risklimits defines the immutable, process-wide risk limit
// configuration consumed by every risk checker.
package risklimits

import (
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// RiskLimits is the centralized, read-only risk limit configuration.
// Every field maps 1:1 to spec.md §3's RiskLimits entity.
type RiskLimits struct {
	MaxPositionSizeUSD            float64 `mapstructure:"max_position_size_usd"`
	MaxTotalExposureUSD           float64 `mapstructure:"max_total_exposure_usd"`
	MaxSingleAssetExposurePct     float64 `mapstructure:"max_single_asset_exposure_pct"`
	MaxDailyLossUSD               float64 `mapstructure:"max_daily_loss_usd"`
	MaxDailyLossPct               float64 `mapstructure:"max_daily_loss_pct"`
	MaxOrderNotionalUSD           float64 `mapstructure:"max_order_notional_usd"`
	MinOrderNotionalUSD           float64 `mapstructure:"min_order_notional_usd"`
	MaxOrdersPerStrategyPerMinute int     `mapstructure:"max_orders_per_strategy_per_minute"`
	MaxOrdersPerStrategyPerHour   int     `mapstructure:"max_orders_per_strategy_per_hour"`
	MaxSlippageBps                int     `mapstructure:"max_slippage_bps"`
}

// Default mirrors the reference implementation's defaults. In production
// these should be loaded with Load below.
func Default() RiskLimits {
	return RiskLimits{
		MaxPositionSizeUSD:            1_000_000.0,
		MaxTotalExposureUSD:           10_000_000.0,
		MaxSingleAssetExposurePct:     0.20,
		MaxDailyLossUSD:               100_000.0,
		MaxDailyLossPct:               0.05,
		MaxOrderNotionalUSD:           500_000.0,
		MinOrderNotionalUSD:           1_000.0,
		MaxOrdersPerStrategyPerMinute: 10,
		MaxOrdersPerStrategyPerHour:   100,
		MaxSlippageBps:                50,
	}
}

// Load reads risk limits from an optional YAML/TOML/JSON file (via viper)
// with RISK_ prefixed environment variable overrides, falling back to
// Default() for anything unset. A local .env file, if present, is loaded
// first so RISK_* overrides can live outside the process environment.
func Load(configPath string) (RiskLimits, error) {
	_ = godotenv.Load()

	limits := Default()

	v := viper.New()
	v.SetEnvPrefix("RISK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v, limits)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return RiskLimits{}, err
		}
	}

	var out RiskLimits
	if err := v.Unmarshal(&out); err != nil {
		return RiskLimits{}, err
	}
	return out, nil
}

func setDefaults(v *viper.Viper, d RiskLimits) {
	v.SetDefault("max_position_size_usd", d.MaxPositionSizeUSD)
	v.SetDefault("max_total_exposure_usd", d.MaxTotalExposureUSD)
	v.SetDefault("max_single_asset_exposure_pct", d.MaxSingleAssetExposurePct)
	v.SetDefault("max_daily_loss_usd", d.MaxDailyLossUSD)
	v.SetDefault("max_daily_loss_pct", d.MaxDailyLossPct)
	v.SetDefault("max_order_notional_usd", d.MaxOrderNotionalUSD)
	v.SetDefault("min_order_notional_usd", d.MinOrderNotionalUSD)
	v.SetDefault("max_orders_per_strategy_per_minute", d.MaxOrdersPerStrategyPerMinute)
	v.SetDefault("max_orders_per_strategy_per_hour", d.MaxOrdersPerStrategyPerHour)
	v.SetDefault("max_slippage_bps", d.MaxSlippageBps)
}
