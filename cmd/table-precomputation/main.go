// Package main implements the table-precomputation binary, which builds a
// rainbow table set ahead of time so attacks can run in load mode.
package main

import (
	"fmt"
	"os"
	"runtime"
	"time"

	log "github.com/sirupsen/logrus"
	flag "github.com/spf13/pflag"

	_ "rainbow-attack/plugins/fastdigest"
	rainbowLib "rainbow-attack/rainbow"
)

func main() {
	var p rainbowLib.Params
	var workers int
	var outFile string
	var debug, help bool

	flag.IntVarP(&p.Chains, "chains", "k", 1024, "number of chains per table")
	flag.IntVarP(&p.ChainLength, "chain-length", "l", 32, "number of steps per chain")
	flag.IntVarP(&p.Tables, "tables", "t", 1, "number of independently salted tables")
	flag.IntVar(&p.TruncateBits, "truncate-bits", 16, "truncated hash width in bits")
	flag.StringVar(&p.Algorithm, "algorithm", rainbowLib.DefaultAlgorithm, "hash algorithm")
	flag.IntVar(&workers, "workers", runtime.NumCPU(), "number of tables built concurrently")
	flag.StringVarP(&outFile, "out", "o", "", "output file, a .zst suffix compresses it (default rainbow_table_<K>_<L>_<t>.bin)")
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

	if outFile == "" {
		outFile = p.TableFileName()
	}

	log.WithFields(log.Fields{
		"params": p.String(),
		"hashes": p.Chains * p.ChainLength * p.Tables,
		"out":    outFile,
	}).Info("Generating tables")

	before := time.Now()
	set, err := rainbowLib.BuildTableSet(p, workers, nil)
	if err != nil {
		log.Fatal(fmt.Errorf("unable to build tables: %w", err))
	}
	log.WithField("took", time.Since(before)).Info("precomputed tables")

	err = rainbowLib.SaveTableSet(set, outFile)
	if err != nil {
		log.Fatal(err)
	}
}
