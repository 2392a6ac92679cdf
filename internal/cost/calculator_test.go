package cost

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/places-collector/internal/model"
)

func TestCall(t *testing.T) {
	t.Parallel()
	calc := NewCalculator(DefaultRates())

	assert.InDelta(t, 0.032, calc.Call(model.SourceGoogle), 1e-9)
	assert.Zero(t, calc.Call(model.SourceOSM))
	assert.Zero(t, calc.Call("unknown"))
	assert.Zero(t, NewCalculator(Rates{}).Call(model.SourceGoogle))
}

func TestEstimate(t *testing.T) {
	t.Parallel()
	calc := NewCalculator(DefaultRates())

	est := calc.Estimate(100, 7, []string{model.SourceOSM, model.SourceGoogle})
	assert.Equal(t, 100, est.Points)
	assert.Equal(t, 7, est.Queries)
	assert.Equal(t, 1400, est.TotalCalls)
	assert.InDelta(t, 22.4, est.TotalCost, 1e-9)

	require.Len(t, est.Lines, 2)
	assert.Equal(t, model.SourceGoogle, est.Lines[0].Source)
	assert.Equal(t, 700, est.Lines[0].Calls)
	assert.InDelta(t, 22.4, est.Lines[0].Cost, 1e-9)
	assert.Equal(t, model.SourceOSM, est.Lines[1].Source)
	assert.Zero(t, est.Lines[1].Cost)
}

func TestEstimate_NoProviders(t *testing.T) {
	t.Parallel()

	est := NewCalculator(DefaultRates()).Estimate(50, 7, nil)
	assert.Zero(t, est.TotalCalls)
	assert.Zero(t, est.TotalCost)
	assert.Empty(t, est.Lines)
}
