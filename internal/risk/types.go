package risk

// CheckResult is the outcome of one risk rule: the observed value, the
// threshold it was held against, and a human-readable message.
type CheckResult struct {
	Name    string  `json:"name"`
	Passed  bool    `json:"passed"`
	Value   float64 `json:"value"`
	Limit   float64 `json:"limit"`
	Message string  `json:"message"`
}

// PortfolioState is the snapshot of current portfolio risk the caller
// supplies to ValidateTrade. Zero values stand in for missing data.
type PortfolioState struct {
	// GrossLeverage is the sum of absolute position weights over NAV
	GrossLeverage float64 `json:"gross_leverage"`

	// AssetClassWeights maps asset class name to its fraction of NAV
	AssetClassWeights map[string]float64 `json:"asset_class_weights"`

	// VaR95 is the current 95%-confidence Value at Risk, as a fraction of NAV
	VaR95 float64 `json:"var_95"`

	// DrawdownPct is the current peak-to-trough drawdown
	DrawdownPct float64 `json:"drawdown_pct"`
}

// ValidationResult is the full structured verdict of one pre-trade
// validation. All five checks always appear in Checks so the caller can
// audit the complete decision context; HardBlocks holds the failures and
// Warnings the passing checks running close to their limits.
type ValidationResult struct {
	Approved   bool          `json:"approved"`
	Checks     []CheckResult `json:"checks"`
	Warnings   []CheckResult `json:"warnings"`
	HardBlocks []CheckResult `json:"hard_blocks"`
}
