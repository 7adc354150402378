package rainbow

import (
	"bytes"
	"context"

	log "github.com/sirupsen/logrus"
)

// SearchResult is the outcome of looking up one target.
// Preimage is nil when no table covers the target.
type SearchResult struct {
	// Number of binary search probes spent, including the probe that
	// matched. Counting only non-matching probes gives up to one less per
	// table. Diagnostic only.
	Cost int

	// Message whose truncated hash equals the target.
	Preimage []byte
}

// Found reports whether the search produced a preimage.
func (r SearchResult) Found() bool {
	return r.Preimage != nil
}

// Search looks for a preimage of target in a single table of chains of
// length chainLength.
//
// The target is assumed to sit at position L-j of some chain, for j = 0..L-1.
// Each hypothesis is checked by binary searching the chain ends for the
// target walked forward j steps. The first end that matches is replayed from
// its start; if the replay does not reproduce the target the match was a
// false positive and the table is given up on.
//
// Search stops early, without a preimage, once ctx is done.
func Search(ctx context.Context, d *Digest, table *Table, chainLength int, target []byte) SearchResult {
	var res SearchResult
	y := target
	for j := 0; j < chainLength; j++ {
		if ctx.Err() != nil {
			return res
		}

		idx, probes := table.find(y)
		res.Cost += probes
		if idx >= 0 {
			res.Preimage = table.replay(d, table.Chains[idx].Start, chainLength-j, target)
			if res.Preimage == nil {
				falsePositives.Inc()
				log.WithFields(log.Fields{"position": j, "chain": idx}).Debug("false positive chain match")
			}
			return res
		}

		y = table.step(d, y)
	}
	return res
}

// replay walks up to steps values from start and returns the message that
// hashes to target, or nil.
func (t *Table) replay(d *Digest, start []byte, steps int, target []byte) []byte {
	x := start
	for m := 0; m < steps; m++ {
		msg := Reduce(t.Salt, x)
		x = d.Sum(msg)
		if bytes.Equal(x, target) {
			return msg
		}
	}
	return nil
}
