package rainbow

import (
	"bytes"
	"context"
	"errors"
	"math/rand"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func harnessConfig() Config {
	return Config{
		Params: Params{
			Chains:       256,
			ChainLength:  32,
			Tables:       4,
			TruncateBits: 16,
			Algorithm:    DefaultAlgorithm,
		},
		Trials:  40,
		Workers: 4,
	}.WithDefaults()
}

func newTestHarness(t *testing.T, config Config, seed int64) *Harness {
	t.Helper()
	set, err := BuildTableSet(config.Params, config.Workers, rand.New(rand.NewSource(seed)))
	require.NoError(t, err)
	h, err := NewHarness(config, set)
	require.NoError(t, err)
	h.SetRandom(rand.New(rand.NewSource(seed + 1)))
	return h
}

func TestHarness_Run(t *testing.T) {
	config := harnessConfig()
	h := newTestHarness(t, config, 31)

	var finished, found int64
	h.Events().Subscribe(EventTrialFinished, CallbackFunc(func(TrialResult) {
		atomic.AddInt64(&finished, 1)
	}))
	h.Events().Subscribe(EventPreimageFound, CallbackFunc(func(r TrialResult) {
		assert.True(t, r.Found())
		atomic.AddInt64(&found, 1)
	}))

	report, err := h.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Results, config.Trials)

	d, err := config.Params.Digest()
	require.NoError(t, err)

	successes := 0
	for i, res := range report.Results {
		assert.Equal(t, i, res.Index)
		assert.Len(t, res.Message, TargetMessageSize)
		assert.Equal(t, d.Sum(res.Message), res.Target)
		assert.Positive(t, res.Cost)
		if res.Found() {
			successes++
			assert.Equal(t, res.Target, d.Sum(res.Preimage))
		}
	}

	s := report.Summary
	assert.Equal(t, config.Params, s.Params)
	assert.Equal(t, config.Trials, s.Trials)
	assert.Equal(t, successes, s.Successes)
	assert.Positive(t, s.Successes)
	assert.InDelta(t, float64(successes)/float64(config.Trials), s.SuccessRate, 1e-12)
	assert.InDelta(t, TheoreticalProbability(256, 32, 65536, 4), s.TheoreticalProbability, 1e-12)
	assert.InDelta(t, Mean(report.Costs()), s.Cost.Mean, 1e-9)
	assert.LessOrEqual(t, s.Cost.Lower, s.Cost.Mean)
	assert.GreaterOrEqual(t, s.Cost.Upper, s.Cost.Mean)

	require.NotNil(t, s.LastHit)
	for _, res := range report.Results[s.LastHit.Index+1:] {
		assert.False(t, res.Found())
	}
	assert.True(t, s.LastHit.Found())

	assert.Equal(t, int64(config.Trials), atomic.LoadInt64(&finished))
	assert.Equal(t, int64(successes), atomic.LoadInt64(&found))
}

func TestHarness_SingleWorkerMatchesMessages(t *testing.T) {
	config := harnessConfig()
	config.Workers = 1
	config.Trials = 10
	h := newTestHarness(t, config, 32)

	report, err := h.Run(context.Background())
	require.NoError(t, err)

	// With a single worker trials draw their messages in index order.
	rnd := rand.New(rand.NewSource(33))
	for _, res := range report.Results {
		want := make([]byte, TargetMessageSize)
		rnd.Read(want)
		assert.True(t, bytes.Equal(want, res.Message))
	}
}

func TestHarness_Cancelled(t *testing.T) {
	h := newTestHarness(t, harnessConfig(), 34)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := h.Run(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.False(t, IsFatal(err))
}

func TestNewHarness_Mismatch(t *testing.T) {
	config := harnessConfig()
	other := config.Params
	other.Chains = 16
	set, err := BuildTableSet(other, 1, rand.New(rand.NewSource(35)))
	require.NoError(t, err)

	_, err = NewHarness(config, set)
	var mismatch *ConfigMismatchError
	require.True(t, errors.As(err, &mismatch))
	assert.True(t, IsFatal(err))
}

func TestNewHarness_InvalidConfig(t *testing.T) {
	config := harnessConfig()
	set, err := BuildTableSet(config.Params, 1, rand.New(rand.NewSource(36)))
	require.NoError(t, err)

	config.Trials = 0
	_, err = NewHarness(config, set)
	var cfgErr *ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "trials", cfgErr.Field)
}

func TestHarness_FailingRandomSource(t *testing.T) {
	h := newTestHarness(t, harnessConfig(), 37)
	h.SetRandom(bytes.NewReader(make([]byte, TargetMessageSize*2)))

	_, err := h.Run(context.Background())
	assert.Error(t, err)
}

func TestHarness_ProgressLoggingDisabled(t *testing.T) {
	config := harnessConfig()
	config.Trials = 5
	for _, interval := range []time.Duration{0, -time.Second} {
		h := newTestHarness(t, config, 38)
		h.SetProgressInterval(interval)

		report, err := h.Run(context.Background())
		require.NoError(t, err)
		assert.Len(t, report.Results, config.Trials)
	}
}

func TestHarness_ProgressLogging(t *testing.T) {
	config := harnessConfig()
	config.Trials = 5
	h := newTestHarness(t, config, 39)
	h.SetProgressInterval(time.Millisecond)

	_, err := h.Run(context.Background())
	assert.NoError(t, err)
}
