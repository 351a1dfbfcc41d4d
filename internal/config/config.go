package config

import (
	"os"
	"strconv"
)

// Config carries the environment-driven settings of the compliance core
type Config struct {
	Environment string
	LogLevel    string

	Risk struct {
		MaxTradeNotional    float64
		MaxGrossLeverage    float64
		MaxAssetClassWeight float64
		MaxPostTradeVaR95   float64
		MaxDrawdownPct      float64
	}

	Audit struct {
		LogDir           string
		SecondaryDSN     string
		SecondaryEnabled bool
	}

	Monitoring struct {
		PrometheusPort int
		HealthPort     int
		APIPort        int
	}

	Notifications struct {
		TelegramToken  string
		TelegramChatID string
	}
}

// Load reads configuration from the environment, applying defaults for
// anything unset.
func Load() *Config {
	cfg := &Config{
		Environment: getEnv("ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
	}

	cfg.Risk.MaxTradeNotional = getEnvFloat("RISK_MAX_TRADE_NOTIONAL", 10_000_000)
	cfg.Risk.MaxGrossLeverage = getEnvFloat("RISK_MAX_GROSS_LEVERAGE", 4.0)
	cfg.Risk.MaxAssetClassWeight = getEnvFloat("RISK_MAX_ASSET_CLASS_WEIGHT", 0.40)
	cfg.Risk.MaxPostTradeVaR95 = getEnvFloat("RISK_MAX_POST_TRADE_VAR_95", 0.05)
	cfg.Risk.MaxDrawdownPct = getEnvFloat("RISK_MAX_DRAWDOWN_PCT", 0.10)

	cfg.Audit.LogDir = getEnv("AUDIT_LOG_DIR", "audit_logs")
	cfg.Audit.SecondaryDSN = getEnv("AUDIT_SECONDARY_DSN", "audit_events.db")
	cfg.Audit.SecondaryEnabled = getEnvBool("AUDIT_SECONDARY_ENABLED", false)

	cfg.Monitoring.PrometheusPort = getEnvInt("PROMETHEUS_PORT", 8080)
	cfg.Monitoring.HealthPort = getEnvInt("HEALTH_PORT", 8081)
	cfg.Monitoring.APIPort = getEnvInt("COMPLIANCE_API_PORT", 8082)

	cfg.Notifications.TelegramToken = getEnv("TELEGRAM_TOKEN", "")
	cfg.Notifications.TelegramChatID = getEnv("TELEGRAM_CHAT_ID", "")

	return cfg
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			return parsed
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseFloat(val, 64); err == nil {
			return parsed
		}
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return defaultVal
}
