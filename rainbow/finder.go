package rainbow

import (
	"context"
	"fmt"
)

// A Finder searches all tables of a table set for one target at a time.
// It is safe for concurrent use, the table set is never modified.
type Finder struct {
	digest *Digest
	set    *TableSet
}

// NewFinder creates a Finder over set.
func NewFinder(set *TableSet) (*Finder, error) {
	if set == nil || len(set.Tables) == 0 {
		return nil, fmt.Errorf("empty table set")
	}
	d, err := set.Params.Digest()
	if err != nil {
		return nil, err
	}
	return &Finder{digest: d, set: set}, nil
}

// Digest returns the truncated hash the tables were built with.
func (f *Finder) Digest() *Digest {
	return f.digest
}

// Find searches every table concurrently and returns as soon as one of them
// yields a verified preimage. The remaining searches are cancelled through
// their context but not awaited; they may run to completion in the
// background and their results are dropped.
//
// If no table covers the target, the result carries no preimage and the cost
// of whichever search reported last, so the cost is not deterministic.
func (f *Finder) Find(ctx context.Context, target []byte) SearchResult {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Buffered so abandoned searches never block on send.
	results := make(chan SearchResult, len(f.set.Tables))
	for _, table := range f.set.Tables {
		go func(t *Table) {
			results <- Search(ctx, f.digest, t, f.set.Params.ChainLength, target)
		}(table)
	}

	var last SearchResult
	for range f.set.Tables {
		res := <-results
		if res.Found() {
			return res
		}
		last = res
	}
	return last
}
