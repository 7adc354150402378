package rainbow

import (
	"bytes"
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// TargetMessageSize is the length of the random messages whose truncated
// hashes serve as targets.
const TargetMessageSize = 32

// DefaultProgressInterval is how often a running harness logs its progress.
const DefaultProgressInterval = 20 * time.Second

// TrialResult is the outcome of inverting one random target.
// Preimage is nil when the search was exhausted.
type TrialResult struct {
	Index    int    `json:"trial"`
	Message  []byte `json:"message"`
	Target   []byte `json:"target"`
	Preimage []byte `json:"preimage,omitempty"`
	Cost     int    `json:"cost"`
}

// Found reports whether the trial produced a verified preimage.
func (r TrialResult) Found() bool {
	return r.Preimage != nil
}

// Summary is the aggregate outcome of a harness run.
type Summary struct {
	Params                 Params        `json:"params"`
	Trials                 int           `json:"trials"`
	Successes              int           `json:"successes"`
	SuccessRate            float64       `json:"success_rate"`
	TheoreticalProbability float64       `json:"theoretical_probability"`
	Cost                   CostStats     `json:"cost"`
	LastHit                *TrialResult  `json:"last_hit,omitempty"`
	Elapsed                time.Duration `json:"elapsed_ns"`
}

// A Report holds the summary and the per-trial results, indexed by trial.
type Report struct {
	Summary Summary
	Results []TrialResult
}

// Costs returns the per-trial costs in trial order.
func (r *Report) Costs() []float64 {
	costs := make([]float64, len(r.Results))
	for i, res := range r.Results {
		costs[i] = float64(res.Cost)
	}
	return costs
}

// A Harness runs many independent trials against one table set.
type Harness struct {
	config           Config
	finder           *Finder
	events           *EventManager
	stats            *Stats
	progressInterval time.Duration

	rndM sync.Mutex
	rnd  io.Reader
}

// NewHarness creates a harness for set. The table set must have been built
// for exactly the parameters in config.
func NewHarness(config Config, set *TableSet) (*Harness, error) {
	err := config.Check()
	if err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if set.Params != config.Params {
		return nil, &ConfigMismatchError{Requested: config.Params, Stored: set.Params}
	}

	finder, err := NewFinder(set)
	if err != nil {
		return nil, fmt.Errorf("unable to create finder: %w", err)
	}

	h := &Harness{
		config:           config,
		finder:           finder,
		events:           NewEventManager(),
		stats:            NewStats(),
		progressInterval: DefaultProgressInterval,
		rnd:              rand.Reader,
	}
	h.stats.Register(h.events)
	return h, nil
}

// Events returns the event manager. Subscribe before calling Run.
func (h *Harness) Events() *EventManager {
	return h.events
}

// SetRandom replaces the source of target messages. Reads are serialised.
func (h *Harness) SetRandom(rnd io.Reader) {
	h.rndM.Lock()
	defer h.rndM.Unlock()
	h.rnd = rnd
}

// SetProgressInterval changes how often progress is logged.
// A non-positive interval disables progress logging.
func (h *Harness) SetProgressInterval(d time.Duration) {
	h.progressInterval = d
}

// Run executes all trials on a pool of config.Workers goroutines.
// Trials complete in any order, results are recorded by trial index.
// Only a cancelled context or a failing random source makes Run fail.
func (h *Harness) Run(ctx context.Context) (*Report, error) {
	log.WithFields(log.Fields{
		"params":  h.config.Params.String(),
		"trials":  h.config.Trials,
		"workers": h.config.Workers,
	}).Info("Starting attack...")

	results := make([]TrialResult, h.config.Trials)
	h.events.Emit(EventRunStarted, TrialResult{})

	done := make(chan struct{})
	if h.progressInterval > 0 {
		go h.logProgress(done)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(h.config.Workers)
	for i := 0; i < h.config.Trials; i++ {
		i := i
		g.Go(func() error {
			res, err := h.trial(gctx, i)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	err := g.Wait()
	close(done)
	h.events.Emit(EventRunEnded, TrialResult{})
	if err != nil {
		return nil, fmt.Errorf("attack aborted: %w", err)
	}

	report := &Report{Results: results}
	report.Summary = h.summarize(results)
	return report, nil
}

func (h *Harness) trial(ctx context.Context, i int) (TrialResult, error) {
	if err := ctx.Err(); err != nil {
		return TrialResult{}, err
	}
	msg, err := h.draw()
	if err != nil {
		return TrialResult{}, err
	}

	d := h.finder.Digest()
	target := d.Sum(msg)
	res := h.finder.Find(ctx, target)
	if err := ctx.Err(); err != nil {
		return TrialResult{}, err
	}

	tr := TrialResult{Index: i, Message: msg, Target: target, Cost: res.Cost}
	if res.Found() && bytes.Equal(d.Sum(res.Preimage), target) {
		tr.Preimage = res.Preimage
	}

	trialsRun.Inc()
	searchCost.Observe(float64(tr.Cost))
	h.events.Emit(EventTrialFinished, tr)
	if tr.Found() {
		preimagesFound.Inc()
		h.events.Emit(EventPreimageFound, tr)
		log.WithFields(log.Fields{
			"trial":    i,
			"target":   fmt.Sprintf("%x", target),
			"preimage": fmt.Sprintf("%x", tr.Preimage),
			"cost":     tr.Cost,
		}).Debug("found preimage")
	}
	return tr, nil
}

func (h *Harness) draw() ([]byte, error) {
	msg := make([]byte, TargetMessageSize)
	h.rndM.Lock()
	defer h.rndM.Unlock()
	if _, err := io.ReadFull(h.rnd, msg); err != nil {
		return nil, fmt.Errorf("unable to draw target message: %w", err)
	}
	return msg, nil
}

func (h *Harness) logProgress(done <-chan struct{}) {
	infoTicker := time.NewTicker(h.progressInterval)
	defer infoTicker.Stop()

	for {
		select {
		case <-done:
			return
		case <-infoTicker.C:
			log.WithFields(log.Fields{
				"finished trials": h.stats.Finished(),
				"total trials":    h.config.Trials,
				"preimages found": h.stats.Found(),
			}).Info("Periodic info on attack status")
		}
	}
}

func (h *Harness) summarize(results []TrialResult) Summary {
	p := h.config.Params
	s := Summary{
		Params:                 p,
		Trials:                 len(results),
		TheoreticalProbability: TheoreticalProbability(p.Chains, p.ChainLength, p.DomainSize(), p.Tables),
		Elapsed:                h.stats.Elapsed(),
	}

	costs := make([]float64, len(results))
	for i := range results {
		costs[i] = float64(results[i].Cost)
		if results[i].Found() {
			s.Successes++
			s.LastHit = &results[i]
		}
	}
	if s.Trials > 0 {
		s.SuccessRate = float64(s.Successes) / float64(s.Trials)
	}
	s.Cost = SummarizeCosts(costs, h.config.CriticalValue)

	log.WithFields(log.Fields{
		"successes":    s.Successes,
		"success rate": fmt.Sprintf("%.2f%%", s.SuccessRate*100),
		"theoretical":  fmt.Sprintf("%.2f%%", s.TheoreticalProbability*100),
		"mean cost":    s.Cost.Mean,
	}).Info("Attack finished. Summary of results.")
	return s
}
