// Package main implements the brute-force binary, which measures how many
// candidates a naive second preimage or collision search over a truncated
// hash needs.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	log "github.com/sirupsen/logrus"
	flag "github.com/spf13/pflag"

	"rainbow-attack/bruteforce"
	"rainbow-attack/common"
	_ "rainbow-attack/plugins/fastdigest"
	rainbowLib "rainbow-attack/rainbow"
)

// Default truncation widths. Both need about 2^16 candidates on average.
const (
	defaultPreimageBits  = 16
	defaultCollisionBits = 32
)

func main() {
	var attack, strategyName, algorithm, prefix, messageHex, outFile string
	var bits, repetitions, maxIterations int
	var critical float64
	var debug, help bool

	flag.StringVar(&attack, "attack", "preimage", "attack to run (preimage|collision)")
	flag.StringVar(&strategyName, "strategy", bruteforce.AppendDigits.String(), "message perturbation (append-digits|replace-byte)")
	flag.StringVar(&algorithm, "algorithm", rainbowLib.DefaultAlgorithm, "hash algorithm")
	flag.IntVar(&bits, "bits", 0, "truncated hash width in bits (default 16 for preimage, 32 for collision)")
	flag.IntVarP(&repetitions, "repetitions", "n", 100, "number of independent searches")
	flag.IntVar(&maxIterations, "max-iterations", 0, "give up a search after this many candidates, 0 for no limit")
	flag.StringVar(&prefix, "prefix", "", "text every message starts with, followed by 32 random bytes")
	flag.StringVar(&messageHex, "message", "", "fixed hex message instead of a random one per search")
	flag.Float64Var(&critical, "critical-value", rainbowLib.DefaultCriticalValue, "critical value of the iteration confidence interval")
	flag.StringVarP(&outFile, "out", "o", "", "CSV file for per-search iteration counts (default data_<attack>_<strategy>.csv)")
	flag.BoolVar(&debug, "debug", false, "whether to enable debug logging")
	flag.BoolVar(&help, "help", false, "Print usage.")
	flag.Parse()

	if help {
		flag.PrintDefaults()
		os.Exit(0)
	}

	formatter := new(log.TextFormatter)
	formatter.FullTimestamp = true
	log.SetFormatter(formatter)
	if debug {
		log.SetLevel(log.DebugLevel)
	}

	strategy, err := bruteforce.ParseStrategy(strategyName)
	if err != nil {
		log.Fatal(err)
	}
	if attack != "preimage" && attack != "collision" {
		log.Fatalf("unknown attack %q", attack)
	}
	if bits == 0 {
		bits = defaultPreimageBits
		if attack == "collision" {
			bits = defaultCollisionBits
		}
	}
	d, err := rainbowLib.NewDigest(algorithm, bits)
	if err != nil {
		log.Fatal(err)
	}
	if outFile == "" {
		outFile = fmt.Sprintf("data_%s_%s.csv", attack, strategy)
	}

	var fixed []byte
	if messageHex != "" {
		fixed, err = common.ParseHexValue(messageHex)
		if err != nil {
			log.Fatal(err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	attacker := bruteforce.NewAttacker(d, strategy, nil)
	attacker.MaxIterations = maxIterations

	log.WithFields(log.Fields{
		"attack":      attack,
		"strategy":    strategy,
		"hash":        fmt.Sprintf("%s/%d", d.Name(), d.Bits()),
		"repetitions": repetitions,
	}).Info("Starting brute-force search")

	counts := make([]int, 0, repetitions)
	for i := 0; i < repetitions; i++ {
		msg := fixed
		if msg == nil {
			msg, err = randomMessage(prefix)
			if err != nil {
				log.Fatal(err)
			}
		}

		iterations, err := runOnce(ctx, attacker, attack, msg)
		if err != nil {
			log.WithError(err).WithField("repetition", i+1).Warn("search aborted")
			if ctx.Err() != nil {
				break
			}
			continue
		}
		counts = append(counts, iterations)
	}

	values := make([]float64, len(counts))
	for i, c := range counts {
		values[i] = float64(c)
	}
	stats := rainbowLib.SummarizeCosts(values, critical)
	log.WithFields(log.Fields{
		"searches": len(counts),
		"mean":     stats.Mean,
		"variance": stats.Variance,
		"ci_lower": stats.Lower,
		"ci_upper": stats.Upper,
	}).Info("Iterations needed")

	err = bruteforce.WriteIterations(counts, outFile)
	if err != nil {
		log.Fatal(err)
	}
	log.WithField("path", outFile).Info("wrote results")
}

func runOnce(ctx context.Context, a *bruteforce.Attacker, attack string, msg []byte) (int, error) {
	if attack == "collision" {
		res, err := a.Collision(ctx, msg)
		if err != nil {
			return res.Iterations, err
		}
		log.WithFields(log.Fields{
			"first":      fmt.Sprintf("%x", res.First),
			"second":     fmt.Sprintf("%x", res.Second),
			"iterations": res.Iterations,
		}).Debug("Collision")
		return res.Iterations, nil
	}

	res, err := a.Preimage(ctx, msg)
	if err != nil {
		return res.Iterations, err
	}
	log.WithFields(log.Fields{
		"message":    fmt.Sprintf("%x", msg),
		"preimage":   fmt.Sprintf("%x", res.Message),
		"iterations": res.Iterations,
	}).Debug("Preimage")
	return res.Iterations, nil
}

func randomMessage(prefix string) ([]byte, error) {
	suffix, err := common.RandomBytes(32)
	if err != nil {
		return nil, err
	}
	return append([]byte(prefix), suffix...), nil
}
