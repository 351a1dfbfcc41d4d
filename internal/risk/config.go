package risk

// Config holds the pre-trade risk limit thresholds. It is created once
// at startup and read-only thereafter.
type Config struct {
	// MaxTradeNotional is the fat-finger ceiling on a single trade's face value
	MaxTradeNotional float64 `json:"max_trade_notional"`

	// MaxGrossLeverage caps the sum of absolute position weights over NAV
	MaxGrossLeverage float64 `json:"max_gross_leverage"`

	// MaxAssetClassWeight caps any single asset class's share of NAV
	MaxAssetClassWeight float64 `json:"max_asset_class_weight"`

	// MaxPostTradeVaR95 caps 95%-confidence VaR after the proposed trade
	MaxPostTradeVaR95 float64 `json:"max_post_trade_var_95"`

	// MaxDrawdownPct is the drawdown beyond which all new risk is blocked
	MaxDrawdownPct float64 `json:"max_drawdown_pct"`
}

// DefaultConfig returns the default pre-trade risk limits
func DefaultConfig() *Config {
	return &Config{
		MaxTradeNotional:    10_000_000, // $10M single trade ceiling
		MaxGrossLeverage:    4.0,        // 4x gross
		MaxAssetClassWeight: 0.40,       // 40% of NAV per asset class
		MaxPostTradeVaR95:   0.05,       // 5% of NAV
		MaxDrawdownPct:      0.10,       // 10% peak-to-trough
	}
}
