// Package config loads service configuration from an optional .env file, a
// YAML file and environment overrides, in that order.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"

	"equity_valuation/pkg/core/assumption"
	"equity_valuation/pkg/core/ingest"
	"equity_valuation/pkg/core/valuation"
)

// DefaultPath is read when Load is given an empty path.
const DefaultPath = "config/valuation.yaml"

// Config holds application configuration
type Config struct {
	Server   ServerConfig                `yaml:"server" json:"server"`
	Market   valuation.MarketAssumptions `yaml:"market" json:"market"`
	Defaults Defaults                    `yaml:"defaults" json:"defaults"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port     int    `yaml:"port" json:"port"`
	LogLevel string `yaml:"log_level" json:"log_level"`
}

// Defaults are the valuation assumptions applied when provider data is silent.
type Defaults struct {
	TaxRate            float64 `yaml:"tax_rate" json:"tax_rate"`
	GrowthRate         float64 `yaml:"growth_rate" json:"growth_rate"`
	TerminalGrowthRate float64 `yaml:"terminal_growth_rate" json:"terminal_growth_rate"`
}

// Assumptions returns the growth defaults in the form the assumption set takes.
func (d Defaults) Assumptions() assumption.Defaults {
	return assumption.Defaults{GrowthRate: d.GrowthRate, TerminalGrowthRate: d.TerminalGrowthRate}
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{Port: 8080, LogLevel: "info"},
		Market: valuation.DefaultMarket,
		Defaults: Defaults{
			TaxRate:            ingest.DefaultTaxRate,
			GrowthRate:         assumption.BaseDefaults.GrowthRate,
			TerminalGrowthRate: assumption.BaseDefaults.TerminalGrowthRate,
		},
	}
}

// Load reads configuration. A missing YAML file is not an error; the
// built-in defaults apply.
func Load(path string) (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	if path == "" {
		path = DefaultPath
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	cfg.Server.Port = getEnvAsInt("VALUATION_PORT", cfg.Server.Port)
	cfg.Server.LogLevel = getEnv("VALUATION_LOG_LEVEL", cfg.Server.LogLevel)
	cfg.Market.RiskFreeRate = getEnvAsFloat("RISK_FREE_RATE", cfg.Market.RiskFreeRate)
	cfg.Market.MarketReturn = getEnvAsFloat("MARKET_RETURN", cfg.Market.MarketReturn)
	cfg.Defaults.TaxRate = getEnvAsFloat("DEFAULT_TAX_RATE", cfg.Defaults.TaxRate)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the estimators cannot use.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("invalid port %d", c.Server.Port)
	}
	if c.Market.MarketReturn < c.Market.RiskFreeRate {
		return fmt.Errorf("market return %g is below the risk-free rate %g", c.Market.MarketReturn, c.Market.RiskFreeRate)
	}
	if c.Defaults.TaxRate < 0 || c.Defaults.TaxRate > 1 {
		return fmt.Errorf("default tax rate %g is outside [0, 1]", c.Defaults.TaxRate)
	}
	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}
