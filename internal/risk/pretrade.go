package risk

import (
	"fmt"
	"math"

	"github.com/quantdesk/portfolio-compliance/internal/monitoring"
)

// Check names as they appear in CheckResult.Name and in audit metadata
const (
	CheckFatFinger          = "fat_finger"
	CheckLeverage           = "leverage"
	CheckConcentration      = "concentration"
	CheckVaRImpact          = "var_impact"
	CheckDrawdownProtection = "drawdown_protection"
)

// warningUtilization is the value/limit ratio above which a passing
// check is flagged as running close to its limit.
const warningUtilization = 0.80

// Controls evaluates proposed trades against the configured limit
// battery. It is stateless and performs no I/O: every call takes the
// full portfolio snapshot it needs and returns a complete verdict.
type Controls struct {
	config *Config
}

// NewControls creates pre-trade risk controls with the given limits,
// falling back to defaults when nil.
func NewControls(config *Config) *Controls {
	if config == nil {
		config = DefaultConfig()
	}
	return &Controls{config: config}
}

// Config returns the limit set in force
func (c *Controls) Config() *Config {
	return c.config
}

// ValidateTrade runs the five limit checks against a proposed trade and
// the supplied portfolio snapshot. Every check always executes, with no
// short-circuiting, so the caller sees the complete picture even when
// the trade is blocked. A single failing check vetoes the trade.
func (c *Controls) ValidateTrade(notional float64, assetClass string, state PortfolioState, proposedWeight, proposedVaRImpact float64) *ValidationResult {
	checks := []CheckResult{
		c.checkFatFinger(notional),
		c.checkLeverage(state, proposedWeight),
		c.checkConcentration(assetClass, state, proposedWeight),
		c.checkVaRImpact(state, proposedVaRImpact),
		c.checkDrawdown(state),
	}

	result := &ValidationResult{Checks: checks}
	for _, check := range checks {
		if !check.Passed {
			result.HardBlocks = append(result.HardBlocks, check)
			monitoring.RecordRiskCheckFailure(check.Name)
			continue
		}
		if check.Limit > 0 && check.Value/check.Limit > warningUtilization {
			result.Warnings = append(result.Warnings, check)
		}
	}

	result.Approved = len(result.HardBlocks) == 0
	monitoring.RecordTradeValidation(result.Approved)

	return result
}

// checkFatFinger rejects non-positive or oversized notionals before any
// portfolio math happens.
func (c *Controls) checkFatFinger(notional float64) CheckResult {
	check := CheckResult{
		Name:  CheckFatFinger,
		Value: notional,
		Limit: c.config.MaxTradeNotional,
	}

	switch {
	case notional <= 0:
		check.Message = fmt.Sprintf("trade notional %.2f must be positive", notional)
	case notional > c.config.MaxTradeNotional:
		check.Message = fmt.Sprintf("trade notional %.2f exceeds maximum %.2f", notional, c.config.MaxTradeNotional)
	default:
		check.Passed = true
		check.Message = fmt.Sprintf("trade notional %.2f within maximum %.2f", notional, c.config.MaxTradeNotional)
	}

	return check
}

func (c *Controls) checkLeverage(state PortfolioState, proposedWeight float64) CheckResult {
	postTrade := state.GrossLeverage + math.Abs(proposedWeight)
	check := CheckResult{
		Name:   CheckLeverage,
		Passed: postTrade < c.config.MaxGrossLeverage,
		Value:  postTrade,
		Limit:  c.config.MaxGrossLeverage,
	}

	if check.Passed {
		check.Message = fmt.Sprintf("post-trade gross leverage %.4f below cap %.4f", postTrade, c.config.MaxGrossLeverage)
	} else {
		check.Message = fmt.Sprintf("post-trade gross leverage %.4f breaches cap %.4f", postTrade, c.config.MaxGrossLeverage)
	}

	return check
}

func (c *Controls) checkConcentration(assetClass string, state PortfolioState, proposedWeight float64) CheckResult {
	currentWeight := math.Abs(state.AssetClassWeights[assetClass])
	postTrade := currentWeight + math.Abs(proposedWeight)
	check := CheckResult{
		Name:   CheckConcentration,
		Passed: postTrade < c.config.MaxAssetClassWeight,
		Value:  postTrade,
		Limit:  c.config.MaxAssetClassWeight,
	}

	if check.Passed {
		check.Message = fmt.Sprintf("post-trade %s weight %.4f below cap %.4f", assetClass, postTrade, c.config.MaxAssetClassWeight)
	} else {
		check.Message = fmt.Sprintf("post-trade %s weight %.4f breaches cap %.4f", assetClass, postTrade, c.config.MaxAssetClassWeight)
	}

	return check
}

func (c *Controls) checkVaRImpact(state PortfolioState, proposedVaRImpact float64) CheckResult {
	postTrade := math.Abs(state.VaR95) + math.Abs(proposedVaRImpact)
	check := CheckResult{
		Name:   CheckVaRImpact,
		Passed: postTrade < c.config.MaxPostTradeVaR95,
		Value:  postTrade,
		Limit:  c.config.MaxPostTradeVaR95,
	}

	if check.Passed {
		check.Message = fmt.Sprintf("post-trade VaR(95) %.4f below cap %.4f", postTrade, c.config.MaxPostTradeVaR95)
	} else {
		check.Message = fmt.Sprintf("post-trade VaR(95) %.4f breaches cap %.4f", postTrade, c.config.MaxPostTradeVaR95)
	}

	return check
}

// checkDrawdown ignores the proposed trade entirely: once the portfolio
// is in excessive drawdown, every new risk-adding trade is blocked
// regardless of its own merits.
func (c *Controls) checkDrawdown(state PortfolioState) CheckResult {
	drawdown := math.Abs(state.DrawdownPct)
	check := CheckResult{
		Name:   CheckDrawdownProtection,
		Passed: drawdown < c.config.MaxDrawdownPct,
		Value:  drawdown,
		Limit:  c.config.MaxDrawdownPct,
	}

	if check.Passed {
		check.Message = fmt.Sprintf("drawdown %.4f below tolerance %.4f", drawdown, c.config.MaxDrawdownPct)
	} else {
		check.Message = fmt.Sprintf("drawdown %.4f breaches tolerance %.4f, all new risk blocked", drawdown, c.config.MaxDrawdownPct)
	}

	return check
}
