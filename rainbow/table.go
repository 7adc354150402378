package rainbow

import (
	"bytes"
	"crypto/rand"
	"fmt"
	"io"
	"sort"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Salt and value together form a 128-bit message, salts never drop below
// minSaltSize bytes for wide truncations.
const (
	messageSize = 16
	minSaltSize = 8
)

// Reduce maps a chain value back into the message domain by prefixing the
// table salt. Chains that meet at any position stay merged afterwards.
func Reduce(salt, value []byte) []byte {
	msg := make([]byte, 0, len(salt)+len(value))
	msg = append(msg, salt...)
	return append(msg, value...)
}

// SaltSize returns the salt width in bytes for a digest of the given width.
func SaltSize(digestSize int) int {
	if n := messageSize - digestSize; n > minSaltSize {
		return n
	}
	return minSaltSize
}

// A Chain is stored by its first and last value only.
type Chain struct {
	Start []byte
	End   []byte
}

// A Table is a salt and its chains, sorted by end value.
type Table struct {
	Salt   []byte
	Chains []Chain
}

// A TableSet holds the independently salted tables of one attack
// configuration. It is read-only once built or loaded.
type TableSet struct {
	Params Params
	Tables []*Table
}

// step computes the chain value following x.
func (t *Table) step(d *Digest, x []byte) []byte {
	return d.Sum(Reduce(t.Salt, x))
}

// Walk applies steps hash/reduce rounds to x and returns the result.
func (t *Table) Walk(d *Digest, x []byte, steps int) []byte {
	for i := 0; i < steps; i++ {
		x = t.step(d, x)
	}
	return x
}

// Len returns the number of chains in the table.
func (t *Table) Len() int {
	return len(t.Chains)
}

// Sorted reports whether the chains are in non-decreasing end order.
func (t *Table) Sorted() bool {
	return sort.SliceIsSorted(t.Chains, func(i, j int) bool {
		return bytes.Compare(t.Chains[i].End, t.Chains[j].End) < 0
	})
}

// find binary searches the chain ends for y and returns the index of a
// matching chain, or -1, along with the number of probes it took.
// With duplicate ends any one of them may be returned.
func (t *Table) find(y []byte) (int, int) {
	probes := 0
	low, high := 0, len(t.Chains)-1
	for low <= high {
		mid := int(uint(low+high) >> 1)
		probes++
		switch c := bytes.Compare(t.Chains[mid].End, y); {
		case c < 0:
			low = mid + 1
		case c > 0:
			high = mid - 1
		default:
			return mid, probes
		}
	}
	return -1, probes
}

// BuildTable draws a fresh salt and chains random chain starts, walks each
// of them chainLength steps and returns the chains sorted by end value.
// A nil rnd uses crypto/rand.
func BuildTable(d *Digest, chains, chainLength int, rnd io.Reader) (*Table, error) {
	if chains <= 0 {
		return nil, configErrorf("chains", "must be positive, got %d", chains)
	}
	if chainLength <= 0 {
		return nil, configErrorf("chain_length", "must be positive, got %d", chainLength)
	}
	t, err := drawTable(d, chains, rnd)
	if err != nil {
		return nil, err
	}
	t.walkChains(d, chainLength)
	return t, nil
}

// drawTable consumes all randomness a table needs: one salt and the starts.
func drawTable(d *Digest, chains int, rnd io.Reader) (*Table, error) {
	if rnd == nil {
		rnd = rand.Reader
	}
	t := &Table{
		Salt:   make([]byte, SaltSize(d.Size())),
		Chains: make([]Chain, chains),
	}
	if _, err := io.ReadFull(rnd, t.Salt); err != nil {
		return nil, fmt.Errorf("unable to draw salt: %w", err)
	}
	for i := range t.Chains {
		start := make([]byte, d.Size())
		if _, err := io.ReadFull(rnd, start); err != nil {
			return nil, fmt.Errorf("unable to draw chain start: %w", err)
		}
		t.Chains[i].Start = start
	}
	return t, nil
}

func (t *Table) walkChains(d *Digest, chainLength int) {
	for i := range t.Chains {
		t.Chains[i].End = t.Walk(d, t.Chains[i].Start, chainLength)
	}
	sort.SliceStable(t.Chains, func(i, j int) bool {
		return bytes.Compare(t.Chains[i].End, t.Chains[j].End) < 0
	})
}

// BuildTableSet builds p.Tables tables with up to workers tables computed
// concurrently. Randomness is drawn sequentially, so a deterministic rnd
// yields a deterministic table set.
func BuildTableSet(p Params, workers int, rnd io.Reader) (*TableSet, error) {
	if err := p.check(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	d, err := p.Digest()
	if err != nil {
		return nil, err
	}
	if workers <= 0 {
		workers = 1
	}

	set := &TableSet{Params: p, Tables: make([]*Table, p.Tables)}
	for i := range set.Tables {
		set.Tables[i], err = drawTable(d, p.Chains, rnd)
		if err != nil {
			return nil, err
		}
	}

	var g errgroup.Group
	g.SetLimit(workers)
	for i, t := range set.Tables {
		i, t := i, t
		g.Go(func() error {
			t.walkChains(d, p.ChainLength)
			tablesBuilt.Inc()
			log.WithFields(log.Fields{"table": i, "chains": t.Len()}).Debug("built table")
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	log.WithField("params", p.String()).Info("tables built")
	return set, nil
}
