package bruteforce

import (
	"bytes"
	"context"
	crand "crypto/rand"
	"encoding/binary"
	"errors"
	"math/rand"

	log "github.com/sirupsen/logrus"

	rainbowLib "rainbow-attack/rainbow"
)

// ErrIterationLimit is returned when an attack gives up before succeeding.
var ErrIterationLimit = errors.New("iteration limit reached")

// CollisionTable maps hash values to the first message that produced them.
// Inserting a hash that is already present keeps the first message.
type CollisionTable struct {
	first map[string][]byte
	seen  map[string]struct{}
}

func NewCollisionTable() *CollisionTable {
	return &CollisionTable{
		first: make(map[string][]byte),
		seen:  make(map[string]struct{}),
	}
}

// Insert records msg under hash. It returns the message stored for hash and
// whether msg was the one stored.
func (ct *CollisionTable) Insert(hash, msg []byte) ([]byte, bool) {
	ct.seen[string(msg)] = struct{}{}
	if prev, ok := ct.first[string(hash)]; ok {
		return prev, false
	}
	ct.first[string(hash)] = msg
	return msg, true
}

// Lookup returns the message stored for hash.
func (ct *CollisionTable) Lookup(hash []byte) ([]byte, bool) {
	msg, ok := ct.first[string(hash)]
	return msg, ok
}

// Seen reports whether msg was ever inserted.
func (ct *CollisionTable) Seen(msg []byte) bool {
	_, ok := ct.seen[string(msg)]
	return ok
}

// Len returns the number of distinct hash values recorded.
func (ct *CollisionTable) Len() int {
	return len(ct.first)
}

// An Attacker runs brute-force searches against a truncated hash.
// It is not safe for concurrent use.
type Attacker struct {
	digest   *rainbowLib.Digest
	strategy Strategy
	rnd      *rand.Rand

	// Give up after this many candidates. Zero means no limit.
	MaxIterations int
}

// NewAttacker creates an attacker. A nil rnd is seeded from crypto/rand.
func NewAttacker(d *rainbowLib.Digest, s Strategy, rnd *rand.Rand) *Attacker {
	if rnd == nil {
		var seed [8]byte
		_, _ = crand.Read(seed[:])
		rnd = rand.New(rand.NewSource(int64(binary.LittleEndian.Uint64(seed[:]))))
	}
	return &Attacker{digest: d, strategy: s, rnd: rnd}
}

// PreimageResult is a found second preimage.
type PreimageResult struct {
	Iterations int
	Message    []byte
}

// Preimage searches for a message other than msg with the same truncated
// hash.
func (a *Attacker) Preimage(ctx context.Context, msg []byte) (PreimageResult, error) {
	target := a.digest.Sum(msg)
	used := make(map[string]struct{})

	m := a.strategy.Next(msg, a.rnd)
	used[string(m)] = struct{}{}
	for iter := 0; ; iter++ {
		if !bytes.Equal(m, msg) && bytes.Equal(a.digest.Sum(m), target) {
			log.WithFields(log.Fields{"iterations": iter, "strategy": a.strategy}).Debug("found preimage")
			return PreimageResult{Iterations: iter, Message: m}, nil
		}
		if err := a.stop(ctx, iter); err != nil {
			return PreimageResult{Iterations: iter}, err
		}

		if a.strategy.restarts() {
			m = msg
		}
		for {
			if _, ok := used[string(m)]; !ok {
				break
			}
			m = a.strategy.Next(m, a.rnd)
		}
		used[string(m)] = struct{}{}
	}
}

// CollisionResult is a pair of distinct messages with equal truncated hash.
type CollisionResult struct {
	Iterations int
	First      []byte
	Second     []byte
}

// Collision searches for two distinct messages derived from msg whose
// truncated hashes agree.
func (a *Attacker) Collision(ctx context.Context, msg []byte) (CollisionResult, error) {
	table := NewCollisionTable()
	m := a.strategy.Next(msg, a.rnd)
	h := a.digest.Sum(m)

	for iter := 0; ; {
		table.Insert(h, m)
		if err := a.stop(ctx, iter); err != nil {
			return CollisionResult{Iterations: iter}, err
		}

		if a.strategy.restarts() {
			m = msg
		}
		for table.Seen(m) {
			m = a.strategy.Next(m, a.rnd)
		}
		h = a.digest.Sum(m)
		iter++

		if prev, ok := table.Lookup(h); ok && !bytes.Equal(prev, m) {
			log.WithFields(log.Fields{"iterations": iter, "hashes": table.Len()}).Debug("found collision")
			return CollisionResult{Iterations: iter, First: prev, Second: m}, nil
		}
	}
}

func (a *Attacker) stop(ctx context.Context, iter int) error {
	if a.MaxIterations > 0 && iter >= a.MaxIterations {
		return ErrIterationLimit
	}
	return ctx.Err()
}
