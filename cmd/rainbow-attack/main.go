package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	flag "github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	_ "rainbow-attack/plugins/fastdigest"
	rainbowLib "rainbow-attack/rainbow"
	"rainbow-attack/report"
)

type Config struct {
	// Path to output directory.
	OutputDirectoryPath string `yaml:"output_directory_path"`

	// Address to serve prometheus metrics on, if set.
	MetricsAddress *string `yaml:"metrics_address"`

	// Whether to render charts next to the CSV output.
	Plot bool `yaml:"plot"`

	// Settings for the attack.
	Attack rainbowLib.Config `yaml:"attack"`

	// Table shapes to run one after another. Empty means only the shape
	// given in the attack settings.
	Sweep []rainbowLib.Params `yaml:"sweep"`
}

func main() {
	var debug bool
	var configFilePath string
	var help bool
	var mode string
	var trials, workers int

	flag.BoolVar(&debug, "debug", false, "whether to enable debug logging")
	flag.StringVar(&configFilePath, "config", "dist/config_rainbow.yaml", "path to the configuration file")
	flag.BoolVar(&help, "help", false, "Print usage.")
	flag.StringVar(&mode, "mode", "", "override the table mode (build|load)")
	flag.IntVar(&trials, "trials", 0, "override the number of trials")
	flag.IntVar(&workers, "workers", 0, "override the number of concurrent trials")
	flag.Parse()

	if help {
		flag.PrintDefaults()
		os.Exit(0)
	}

	// Set up logging
	formatter := new(log.TextFormatter)
	formatter.FullTimestamp = true
	log.SetFormatter(formatter)
	if debug {
		log.SetLevel(log.DebugLevel)
	} else {
		log.SetLevel(log.InfoLevel)
	}

	config, err := parseConfig(configFilePath)
	if err != nil {
		log.Fatal(err)
	}
	if flag.CommandLine.Changed("mode") {
		config.Attack.Mode = rainbowLib.Mode(mode)
	}
	if flag.CommandLine.Changed("trials") {
		config.Attack.Trials = trials
	}
	if flag.CommandLine.Changed("workers") {
		config.Attack.Workers = workers
	}

	log.WithField("algorithms", strings.Join(rainbowLib.Algorithms(), ",")).Debug("registered hash algorithms")

	runs, err := planRuns(config.Attack, config.Sweep)
	if err != nil {
		log.WithError(err).Fatal("invalid attack configuration")
	}

	// Create the directory for output data, if it does not exist
	err = os.MkdirAll(config.OutputDirectoryPath, 0o777)
	if err != nil {
		log.Fatal(fmt.Errorf("unable to create output directory: %w", err))
	}

	if config.MetricsAddress != nil {
		go serveMetrics(*config.MetricsAddress)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	beforeString := time.Now().UTC().Format("2006-01-02_15-04-05_UTC")

	var labels []string
	var empirical, theoretical []float64
	for _, attack := range runs {
		summary, err := runAttack(ctx, config, attack, beforeString)
		if err != nil {
			if rainbowLib.IsFatal(err) {
				log.WithError(err).Fatal("invalid attack configuration")
			}
			log.Fatal(err)
		}
		labels = append(labels, fmt.Sprintf("%d/%d/%d", attack.Chains, attack.ChainLength, attack.Tables))
		empirical = append(empirical, summary.SuccessRate)
		theoretical = append(theoretical, summary.TheoreticalProbability)
	}

	if config.Plot && len(runs) > 1 {
		err = report.SuccessCurve("Success rate per table shape (K/L/t)", labels, empirical, theoretical,
			path.Join(config.OutputDirectoryPath, fmt.Sprintf("success_%s.png", beforeString)))
		if err != nil {
			log.WithError(err).Warn("unable to plot success rates")
		}
	}
	log.Info("wrote results")
}

// runAttack obtains the tables for one shape, runs all trials against them
// and writes the results.
func runAttack(ctx context.Context, config *Config, attack rainbowLib.Config, ts string) (*rainbowLib.Summary, error) {
	set, err := tables(attack)
	if err != nil {
		return nil, err
	}

	h, err := rainbowLib.NewHarness(attack, set)
	if err != nil {
		return nil, fmt.Errorf("unable to set up harness: %w", err)
	}
	log.Info("created harness")

	rep, err := h.Run(ctx)
	if err != nil {
		return nil, err
	}
	logSummary(rep.Summary)

	// Write output
	p := attack.Params
	base := path.Join(config.OutputDirectoryPath, fmt.Sprintf("%%s_%s_%d_%d_%d.%%s", ts, p.Chains, p.ChainLength, p.Tables))
	log.Debug("writing per-trial costs")
	err = rainbowLib.WriteCosts(rep.Results, fmt.Sprintf(base, "costs", "csv"))
	if err != nil {
		return nil, err
	}
	log.Debug("writing summary")
	err = rainbowLib.SummaryToFile(rep.Summary, fmt.Sprintf(base, "summary", "json"))
	if err != nil {
		return nil, err
	}
	if config.Plot {
		err = report.CostHistogram(fmt.Sprintf("Search cost, %s", p), rep.Costs(), report.DefaultBins, fmt.Sprintf(base, "costs", "png"))
		if err != nil {
			log.WithError(err).Warn("unable to plot costs")
		}
	}
	return &rep.Summary, nil
}

// tables builds and persists a fresh table set, or loads a persisted one.
func tables(attack rainbowLib.Config) (*rainbowLib.TableSet, error) {
	switch attack.Mode {
	case rainbowLib.ModeLoad:
		return rainbowLib.LoadTableSet(attack.TableFilePath, attack.Params)
	default:
		before := time.Now()
		set, err := rainbowLib.BuildTableSet(attack.Params, attack.Workers, nil)
		if err != nil {
			return nil, fmt.Errorf("unable to build tables: %w", err)
		}
		log.WithField("took", time.Since(before)).Info("precomputed tables")

		if err = os.MkdirAll(path.Dir(attack.TableFilePath), 0o777); err != nil {
			return nil, fmt.Errorf("unable to create table directory: %w", err)
		}
		if err = rainbowLib.SaveTableSet(set, attack.TableFilePath); err != nil {
			return nil, fmt.Errorf("unable to save tables: %w", err)
		}
		return set, nil
	}
}

// planRuns expands the sweep and validates every resulting configuration, so
// a bad shape is reported before any table is built.
func planRuns(base rainbowLib.Config, sweep []rainbowLib.Params) ([]rainbowLib.Config, error) {
	runs := expandSweep(base, sweep)
	for i, c := range runs {
		if err := c.Check(); err != nil {
			return nil, fmt.Errorf("run %d (%s): %w", i+1, c.Params, err)
		}
	}
	return runs, nil
}

// expandSweep returns one attack configuration per table shape. Shapes leave
// hash settings they do not name to the base configuration, and get a table
// file of their own next to the configured one.
func expandSweep(base rainbowLib.Config, sweep []rainbowLib.Params) []rainbowLib.Config {
	if len(sweep) == 0 {
		return []rainbowLib.Config{base.WithDefaults()}
	}

	dir, ext := ".", ""
	if base.TableFilePath != "" {
		dir = path.Dir(base.TableFilePath)
		if strings.HasSuffix(base.TableFilePath, ".zst") {
			ext = ".zst"
		}
	}

	runs := make([]rainbowLib.Config, 0, len(sweep))
	for _, shape := range sweep {
		if shape.Algorithm == "" {
			shape.Algorithm = base.Algorithm
		}
		if shape.TruncateBits == 0 {
			shape.TruncateBits = base.TruncateBits
		}
		c := base
		c.Params = shape
		c = c.WithDefaults()
		c.TableFilePath = path.Join(dir, c.Params.TableFileName()+ext)
		runs = append(runs, c)
	}
	return runs
}

func logSummary(s rainbowLib.Summary) {
	log.WithFields(log.Fields{
		"params":       s.Params.String(),
		"trials":       s.Trials,
		"successes":    s.Successes,
		"success rate": s.SuccessRate,
		"theoretical":  s.TheoreticalProbability,
		"elapsed":      s.Elapsed,
	}).Info("Results")
	log.WithFields(log.Fields{
		"mean":     s.Cost.Mean,
		"variance": s.Cost.Variance,
		"ci_lower": s.Cost.Lower,
		"ci_upper": s.Cost.Upper,
	}).Info("Search cost")

	if hit := s.LastHit; hit != nil {
		log.WithFields(log.Fields{
			"trial":    hit.Index + 1,
			"message":  fmt.Sprintf("%x", hit.Message),
			"preimage": fmt.Sprintf("%x", hit.Preimage),
			"hash":     fmt.Sprintf("%x", hit.Target),
			"cost":     hit.Cost,
		}).Info("Last successful attack")
	} else {
		log.Warn("no target was inverted")
	}
}

func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	log.WithField("address", addr).Info("serving metrics")
	err := http.ListenAndServe(addr, mux)
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.WithError(err).Warn("metrics endpoint stopped")
	}
}

func parseConfig(configFilePath string) (*Config, error) {
	f, err := os.Open(configFilePath)
	if err != nil {
		return nil, fmt.Errorf("unable to open: %w", err)
	}
	defer f.Close()

	var config Config
	err = yaml.NewDecoder(f).Decode(&config)
	if err != nil {
		return nil, fmt.Errorf("unable to unmarshal: %w", err)
	}

	return &config, nil
}
