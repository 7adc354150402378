package rainbow

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTheoreticalProbability(t *testing.T) {
	tests := []struct {
		name                  string
		chains, length, table int
		domain                float64
		want                  float64
	}{
		{"K1024 L32 single table", 1024, 32, 1, 65536, 0.08931354910243883},
		{"K16 L8 single table", 16, 8, 1, 65536, 0.0017019104348392918},
		{"K16 L8 four tables", 16, 8, 4, 65536, 0.006790282454526397},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TheoreticalProbability(tt.chains, tt.length, tt.domain, tt.table)
			assert.InDelta(t, tt.want, got, 1e-12)
		})
	}
}

func TestTheoreticalProbability_OversizedChainsSkipped(t *testing.T) {
	// With iL >= N for every i nothing is counted.
	assert.Zero(t, TheoreticalProbability(4, 256, 256, 1))
	// A chain length of one has no inner positions.
	assert.Zero(t, TheoreticalProbability(16, 1, 65536, 3))
}

func TestTheoreticalProbability_MoreTablesHelp(t *testing.T) {
	one := TheoreticalProbability(256, 32, 65536, 1)
	four := TheoreticalProbability(256, 32, 65536, 4)
	assert.Greater(t, four, one)
	assert.InDelta(t, 1-math.Pow(1-one, 4), four, 1e-15)
}

func TestMeanVariance(t *testing.T) {
	data := []float64{1, 2, 3, 4, 5}
	assert.Equal(t, 3.0, Mean(data))
	assert.Equal(t, 2.5, SampleVariance(data))

	lower, upper := ConfidenceInterval(3, 2.5, 5, DefaultCriticalValue)
	margin := DefaultCriticalValue * math.Sqrt(2.5/5)
	assert.InDelta(t, 3-margin, lower, 1e-12)
	assert.InDelta(t, 3+margin, upper, 1e-12)
	assert.InDelta(t, 3.0, (lower+upper)/2, 1e-12)
}

func TestMeanVariance_Degenerate(t *testing.T) {
	assert.Zero(t, Mean(nil))
	assert.Zero(t, SampleVariance([]float64{7}))

	lower, upper := ConfidenceInterval(4, 1, 0, DefaultCriticalValue)
	assert.Equal(t, 4.0, lower)
	assert.Equal(t, 4.0, upper)
}

func TestCriticalValue(t *testing.T) {
	assert.InDelta(t, DefaultCriticalValue, CriticalValue(0.95), 1e-3)
	assert.InDelta(t, 2.5758, CriticalValue(0.99), 1e-4)
	assert.InDelta(t, 0, CriticalValue(0), 1e-12)
}

func TestSummarizeCosts_Small(t *testing.T) {
	assert.Equal(t, CostStats{}, SummarizeCosts(nil, DefaultCriticalValue))
	assert.Equal(t, CostStats{Mean: 6, Lower: 6, Upper: 6}, SummarizeCosts([]float64{6}, DefaultCriticalValue))
}

func TestSummarizeCosts(t *testing.T) {
	cs := SummarizeCosts([]float64{2, 4, 4, 4, 5, 5, 7, 9}, 2)
	assert.Equal(t, 5.0, cs.Mean)
	assert.InDelta(t, 32.0/7, cs.Variance, 1e-12)
	assert.InDelta(t, cs.Upper-cs.Mean, cs.Mean-cs.Lower, 1e-12)
	assert.InDelta(t, 2*math.Sqrt(32.0/7/8), cs.Upper-cs.Mean, 1e-12)
}

func TestStats_CountsEvents(t *testing.T) {
	em := NewEventManager()
	st := NewStats()
	st.Register(em)

	em.Emit(EventRunStarted, TrialResult{})
	for i := 0; i < 5; i++ {
		r := TrialResult{Index: i}
		em.Emit(EventTrialFinished, r)
		if i%2 == 0 {
			em.Emit(EventPreimageFound, r)
		}
	}
	em.Emit(EventRunEnded, TrialResult{})

	assert.Equal(t, int64(5), st.Finished())
	assert.Equal(t, int64(3), st.Found())
	assert.GreaterOrEqual(t, int64(st.Elapsed()), int64(0))
}
