// Package bruteforce implements the table-free preimage and collision
// searches used to demonstrate small truncated hashes.
package bruteforce

import (
	"fmt"
	"math/big"
	"math/rand"
)

// A Strategy derives the next candidate message from the current one.
type Strategy int

const (
	// AppendDigits appends the decimal form of a random integer of 1 to 32
	// bytes. Candidates are always derived from the original message.
	AppendDigits Strategy = iota
	// ReplaceByte overwrites one random byte. Candidates walk away from the
	// original message one byte at a time.
	ReplaceByte
)

func (s Strategy) String() string {
	switch s {
	case AppendDigits:
		return "append-digits"
	case ReplaceByte:
		return "replace-byte"
	default:
		return fmt.Sprintf("Strategy(%d)", int(s))
	}
}

// ParseStrategy returns the strategy with the given String() name.
func ParseStrategy(name string) (Strategy, error) {
	for _, s := range []Strategy{AppendDigits, ReplaceByte} {
		if s.String() == name {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown strategy %q", name)
}

// Next returns a new candidate derived from msg. msg is not modified.
func (s Strategy) Next(msg []byte, rnd *rand.Rand) []byte {
	switch s {
	case ReplaceByte:
		next := append([]byte(nil), msg...)
		if len(next) == 0 {
			return []byte{byte(rnd.Intn(256))}
		}
		next[rnd.Intn(len(next))] = byte(rnd.Intn(256))
		return next
	default:
		suffix := make([]byte, 1+rnd.Intn(32))
		rnd.Read(suffix)
		digits := new(big.Int).SetBytes(suffix).String()
		next := make([]byte, 0, len(msg)+len(digits))
		next = append(next, msg...)
		return append(next, digits...)
	}
}

// restarts reports whether every candidate is derived from the original
// message rather than from the previous candidate.
func (s Strategy) restarts() bool {
	return s == AppendDigits
}
