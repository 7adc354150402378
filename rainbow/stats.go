package rainbow

import (
	"math"
	"sync/atomic"
	"time"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// TheoreticalProbability returns the probability that a random target is
// covered by at least one of tables tables of chains chains of length
// chainLength over a domain of domain values.
//
// For a single table it evaluates
//
//	p = 1/N * sum_{i=1..K} sum_{j=0..L-2} (1 - iL/N)^(j+1)
//
// skipping every i with iL >= N; t tables give 1 - (1-p)^t.
func TheoreticalProbability(chains, chainLength int, domain float64, tables int) float64 {
	l := float64(chainLength)
	var s float64
	for i := 1; i <= chains; i++ {
		cover := float64(i) * l / domain
		if cover >= 1 {
			continue
		}
		for j := 0; j < chainLength-1; j++ {
			s += math.Pow(1-cover, float64(j+1))
		}
	}
	p := s / domain
	if tables > 1 {
		return 1 - math.Pow(1-p, float64(tables))
	}
	return p
}

// Mean returns the arithmetic mean of data, or 0 for no data.
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return stat.Mean(data, nil)
}

// SampleVariance returns the Bessel-corrected variance of data.
// Fewer than two values have no variance and yield 0.
func SampleVariance(data []float64) float64 {
	if len(data) < 2 {
		return 0
	}
	_, variance := stat.MeanVariance(data, nil)
	return variance
}

// CriticalValue returns the two-sided standard normal quantile for the
// given confidence level, e.g. about 1.96 for 0.95.
func CriticalValue(confidence float64) float64 {
	return distuv.UnitNormal.Quantile(1 - (1-confidence)/2)
}

// ConfidenceInterval returns mean -/+ critical * sqrt(variance / n).
func ConfidenceInterval(mean, variance float64, n int, critical float64) (float64, float64) {
	if n <= 0 {
		return mean, mean
	}
	margin := critical * stat.StdErr(math.Sqrt(variance), float64(n))
	return mean - margin, mean + margin
}

// CostStats summarises the per-trial search cost.
type CostStats struct {
	Mean     float64 `json:"mean"`
	Variance float64 `json:"variance"`
	Lower    float64 `json:"ci_lower"`
	Upper    float64 `json:"ci_upper"`
}

// SummarizeCosts computes mean, sample variance and confidence interval.
func SummarizeCosts(data []float64, critical float64) CostStats {
	var cs CostStats
	switch len(data) {
	case 0:
	case 1:
		cs.Mean = data[0]
	default:
		cs.Mean, cs.Variance = stat.MeanVariance(data, nil)
	}
	cs.Lower, cs.Upper = ConfidenceInterval(cs.Mean, cs.Variance, len(data), critical)
	return cs
}

// Stats counts harness progress from its events.
type Stats struct {
	startTime time.Time
	endTime   time.Time
	finished  int64
	found     int64
}

func NewStats() *Stats {
	return &Stats{
		startTime: time.Now(),
		endTime:   time.Now(),
	}
}

func (st *Stats) Register(em *EventManager) {
	em.Subscribe(EventRunStarted, CallbackFunc(st.logStart))
	em.Subscribe(EventRunEnded, CallbackFunc(st.logEnd))
	em.Subscribe(EventTrialFinished, CallbackFunc(st.countFinished))
	em.Subscribe(EventPreimageFound, CallbackFunc(st.countFound))
}

func (st *Stats) logStart(TrialResult) {
	st.startTime = time.Now()
}

func (st *Stats) logEnd(TrialResult) {
	st.endTime = time.Now()
}

func (st *Stats) countFinished(TrialResult) {
	atomic.AddInt64(&st.finished, 1)
}

func (st *Stats) countFound(TrialResult) {
	atomic.AddInt64(&st.found, 1)
}

// Finished returns the number of completed trials.
func (st *Stats) Finished() int64 {
	return atomic.LoadInt64(&st.finished)
}

// Found returns the number of trials with a verified preimage.
func (st *Stats) Found() int64 {
	return atomic.LoadInt64(&st.found)
}

// Elapsed returns the duration between the run's start and end events.
func (st *Stats) Elapsed() time.Duration {
	return st.endTime.Sub(st.startTime)
}
