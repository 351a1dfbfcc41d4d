package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *Config {
	return &Config{
		MaxTradeNotional:    10_000_000,
		MaxGrossLeverage:    4.0,
		MaxAssetClassWeight: 0.40,
		MaxPostTradeVaR95:   0.05,
		MaxDrawdownPct:      0.10,
	}
}

func healthyState() PortfolioState {
	return PortfolioState{
		GrossLeverage:     1.5,
		AssetClassWeights: map[string]float64{"fx": 0.10, "rates": 0.15},
		VaR95:             0.01,
		DrawdownPct:       0.02,
	}
}

func findCheck(t *testing.T, checks []CheckResult, name string) CheckResult {
	t.Helper()
	for _, c := range checks {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("check %q not found", name)
	return CheckResult{}
}

func TestValidateTrade_ApprovesHealthyTrade(t *testing.T) {
	controls := NewControls(testConfig())

	result := controls.ValidateTrade(500_000, "fx", healthyState(), 0.05, 0.005)

	assert.True(t, result.Approved)
	assert.Empty(t, result.HardBlocks)
	assert.Len(t, result.Checks, 5, "all five checks always run")
}

func TestValidateTrade_ZeroNotionalAlwaysRejected(t *testing.T) {
	controls := NewControls(testConfig())

	result := controls.ValidateTrade(0, "fx", healthyState(), 0, 0)

	assert.False(t, result.Approved)
	require.NotEmpty(t, result.HardBlocks)
	fatFinger := findCheck(t, result.HardBlocks, CheckFatFinger)
	assert.False(t, fatFinger.Passed)
}

func TestValidateTrade_FatFinger(t *testing.T) {
	controls := NewControls(testConfig())

	tests := []struct {
		name     string
		notional float64
		passed   bool
	}{
		{"negative notional", -1_000, false},
		{"zero notional", 0, false},
		{"at maximum", 10_000_000, true},
		{"just over maximum", 10_000_001, false},
		{"normal trade", 250_000, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := controls.ValidateTrade(tt.notional, "fx", healthyState(), 0, 0)
			check := findCheck(t, result.Checks, CheckFatFinger)
			assert.Equal(t, tt.passed, check.Passed)
		})
	}
}

// TestValidateTrade_LeverageStrictBound verifies the strict inequality:
// 3.9 + 0.05 = 3.95 passes against 4.0, while exactly 4.0 fails.
func TestValidateTrade_LeverageStrictBound(t *testing.T) {
	controls := NewControls(testConfig())

	state := healthyState()
	state.GrossLeverage = 3.9

	result := controls.ValidateTrade(100_000, "fx", state, 0.05, 0)
	leverage := findCheck(t, result.Checks, CheckLeverage)
	assert.True(t, leverage.Passed)
	assert.InDelta(t, 3.95, leverage.Value, 1e-9)

	state.GrossLeverage = 3.95
	result = controls.ValidateTrade(100_000, "fx", state, 0.05, 0)
	leverage = findCheck(t, result.Checks, CheckLeverage)
	assert.False(t, leverage.Passed, "post-trade leverage equal to the cap is not strictly less")
	assert.False(t, result.Approved)
}

func TestValidateTrade_ConcentrationUsesAbsoluteWeights(t *testing.T) {
	controls := NewControls(testConfig())

	state := healthyState()
	state.AssetClassWeights["fx"] = -0.30 // short exposure still concentrates

	result := controls.ValidateTrade(100_000, "fx", state, -0.15, 0)
	concentration := findCheck(t, result.Checks, CheckConcentration)

	assert.False(t, concentration.Passed)
	assert.InDelta(t, 0.45, concentration.Value, 1e-9)
}

func TestValidateTrade_UnknownAssetClassDefaultsToZeroWeight(t *testing.T) {
	controls := NewControls(testConfig())

	result := controls.ValidateTrade(100_000, "commodities", healthyState(), 0.10, 0)
	concentration := findCheck(t, result.Checks, CheckConcentration)

	assert.True(t, concentration.Passed)
	assert.InDelta(t, 0.10, concentration.Value, 1e-9)
}

func TestValidateTrade_VaRImpact(t *testing.T) {
	controls := NewControls(testConfig())

	state := healthyState()
	state.VaR95 = 0.04

	result := controls.ValidateTrade(100_000, "fx", state, 0, 0.02)
	varCheck := findCheck(t, result.Checks, CheckVaRImpact)

	assert.False(t, varCheck.Passed)
	assert.InDelta(t, 0.06, varCheck.Value, 1e-9)
	assert.False(t, result.Approved)
}

// TestValidateTrade_DrawdownBlocksEverything verifies the drawdown check
// ignores the proposed trade entirely
func TestValidateTrade_DrawdownBlocksEverything(t *testing.T) {
	controls := NewControls(testConfig())

	state := healthyState()
	state.DrawdownPct = 0.12

	// Even a tiny, otherwise harmless trade is blocked.
	result := controls.ValidateTrade(1_000, "fx", state, 0.0001, 0.0001)

	assert.False(t, result.Approved)
	drawdown := findCheck(t, result.HardBlocks, CheckDrawdownProtection)
	assert.False(t, drawdown.Passed)
	assert.InDelta(t, 0.12, drawdown.Value, 1e-9)
}

func TestValidateTrade_NoShortCircuit(t *testing.T) {
	controls := NewControls(testConfig())

	// Fail everything at once; the caller still sees all five results.
	state := PortfolioState{
		GrossLeverage:     5.0,
		AssetClassWeights: map[string]float64{"fx": 0.50},
		VaR95:             0.10,
		DrawdownPct:       0.20,
	}

	result := controls.ValidateTrade(-1, "fx", state, 0.10, 0.01)

	assert.False(t, result.Approved)
	assert.Len(t, result.Checks, 5)
	assert.Len(t, result.HardBlocks, 5)
}

func TestValidateTrade_WarningsNearLimit(t *testing.T) {
	controls := NewControls(testConfig())

	state := healthyState()
	state.GrossLeverage = 3.3 // post-trade 3.35 of 4.0 = 84% utilization

	result := controls.ValidateTrade(100_000, "fx", state, 0.05, 0)

	assert.True(t, result.Approved, "warnings never block")
	warning := findCheck(t, result.Warnings, CheckLeverage)
	assert.True(t, warning.Passed)
}

func TestValidateTrade_NoWarningsBelowThreshold(t *testing.T) {
	controls := NewControls(testConfig())

	result := controls.ValidateTrade(100_000, "fx", healthyState(), 0.01, 0.001)

	assert.True(t, result.Approved)
	assert.Empty(t, result.Warnings)
}

func TestNewControls_NilConfigUsesDefaults(t *testing.T) {
	controls := NewControls(nil)
	assert.Equal(t, DefaultConfig(), controls.Config())
}

func TestValidateTrade_EmptyPortfolioState(t *testing.T) {
	controls := NewControls(testConfig())

	// Missing portfolio data defaults to zero, so a sane trade passes.
	result := controls.ValidateTrade(100_000, "fx", PortfolioState{}, 0.05, 0.005)

	assert.True(t, result.Approved)
}
