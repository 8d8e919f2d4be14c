package signal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConstraints() Constraints {
	return Constraints{MaxSlippageBps: 25}
}

func TestNew_AcceptsValidSignalAndUppercasesSymbol(t *testing.T) {
	sig, err := New("alpha", "aapl", Buy, 0.8, 50000, Intraday, validConstraints())
	require.NoError(t, err)
	assert.Equal(t, "AAPL", sig.Symbol)
	assert.Equal(t, Buy, sig.Side)
}

func TestNew_RejectsBlankStrategyID(t *testing.T) {
	_, err := New("  ", "AAPL", Buy, 0.5, 1000, Intraday, validConstraints())
	assert.Error(t, err)
}

func TestNew_RejectsInvalidSymbol(t *testing.T) {
	_, err := New("alpha", "AA PL!", Buy, 0.5, 1000, Intraday, validConstraints())
	assert.Error(t, err)
}

func TestNew_RejectsInvalidSide(t *testing.T) {
	_, err := New("alpha", "AAPL", Side("HOLD"), 0.5, 1000, Intraday, validConstraints())
	assert.Error(t, err)
}

func TestNew_RejectsConfidenceOutOfRange(t *testing.T) {
	_, err := New("alpha", "AAPL", Buy, 1.5, 1000, Intraday, validConstraints())
	assert.Error(t, err)
}

func TestNew_RejectsNonPositiveTargetExposure(t *testing.T) {
	_, err := New("alpha", "AAPL", Buy, 0.5, 0, Intraday, validConstraints())
	assert.Error(t, err)
}

func TestNew_RejectsInvalidTimeHorizon(t *testing.T) {
	_, err := New("alpha", "AAPL", Buy, 0.5, 1000, TimeHorizon("EOD"), validConstraints())
	assert.Error(t, err)
}

func TestNew_RejectsSlippageOutOfRange(t *testing.T) {
	_, err := New("alpha", "AAPL", Buy, 0.5, 1000, Intraday, Constraints{MaxSlippageBps: 5000})
	assert.Error(t, err)
}

func TestNew_RejectsNonPositiveMaxNotional(t *testing.T) {
	bad := -1.0
	_, err := New("alpha", "AAPL", Buy, 0.5, 1000, Intraday, Constraints{MaxNotional: &bad})
	assert.Error(t, err)
}

func TestOrderNotional_UsesTargetExposureWhenNoCap(t *testing.T) {
	sig, err := New("alpha", "AAPL", Buy, 0.5, 50000, Intraday, validConstraints())
	require.NoError(t, err)
	assert.Equal(t, 50000.0, sig.OrderNotional())
}

func TestOrderNotional_ClampsToMaxNotionalWhenLower(t *testing.T) {
	cap := 20000.0
	sig, err := New("alpha", "AAPL", Buy, 0.5, 50000, Intraday, Constraints{MaxSlippageBps: 10, MaxNotional: &cap})
	require.NoError(t, err)
	assert.Equal(t, 20000.0, sig.OrderNotional())
}

func TestOrderNotional_IgnoresMaxNotionalWhenHigherThanExposure(t *testing.T) {
	cap := 100000.0
	sig, err := New("alpha", "AAPL", Buy, 0.5, 50000, Intraday, Constraints{MaxSlippageBps: 10, MaxNotional: &cap})
	require.NoError(t, err)
	assert.Equal(t, 50000.0, sig.OrderNotional())
}
