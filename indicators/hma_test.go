package indicators

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHMAPeriods(t *testing.T) {
	h := NewHMA(4)
	assert.Equal(t, "HMA(4)", h.Name())
	assert.Equal(t, 8, h.fast.period)
	assert.Equal(t, 16, h.slow.period)
	assert.Equal(t, 4, h.smooth.period)
	assert.Equal(t, 19, h.Warmup())
}

func TestHMAPanicsOnSmallPeriod(t *testing.T) {
	assert.Panics(t, func() { NewHMA(1) })
}

func TestHMATracksLinearInput(t *testing.T) {
	h := NewHMA(2)
	var v float64
	for i := 1; i <= 5; i++ {
		v = h.Next(float64(i))
	}
	require.True(t, h.Ready())
	assert.InDelta(t, 5.0, v, 1e-9)
}

func TestHMAMatchesComposition(t *testing.T) {
	h := NewHMA(3)
	fast, slow, smooth := NewWMA(4), NewWMA(9), NewWMA(3)

	for i := 0; i < 40; i++ {
		x := 100 + 3*math.Sin(float64(i)/4)
		h.Update(x)

		fast.Update(x)
		slow.Update(x)
		if slow.Ready() {
			smooth.Update(2*fast.Value() - slow.Value())
		}
		if smooth.Ready() {
			require.True(t, h.Ready())
			assert.InDelta(t, smooth.Value(), h.Value(), 1e-12)
		}
	}
}

func TestHMAReadinessIsMonotonic(t *testing.T) {
	for _, period := range []int{2, 3, 4, 6} {
		h := NewHMA(period)
		wasReady := false
		for i := 0; i < 3*h.Warmup(); i++ {
			h.Update(50 + float64(i%7))
			if h.Ready() {
				assert.GreaterOrEqual(t, h.SlowSamples(), period*period)
				assert.GreaterOrEqual(t, i+1, h.Warmup())
				wasReady = true
			} else {
				assert.False(t, wasReady, "ready flag flipped back for period %d", period)
				assert.Less(t, i+1, h.Warmup())
			}
		}
		assert.True(t, wasReady)
	}
}

func TestHMAReset(t *testing.T) {
	h := NewHMA(2)
	for i := 0; i < 10; i++ {
		h.Update(float64(i))
	}
	require.True(t, h.Ready())
	h.Reset()
	assert.False(t, h.Ready())
	assert.Equal(t, 0, h.SlowSamples())
}
