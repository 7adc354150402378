package rainbow

import (
	"fmt"
	"sort"
	"sync"

	"github.com/minio/sha256-simd"
	"golang.org/x/crypto/ripemd160" //nolint:staticcheck // RIPEMD-160 is the attacked hash
)

// DefaultAlgorithm is the hash used when the configuration names none.
const DefaultAlgorithm = "ripemd160"

var (
	driversM sync.RWMutex
	drivers  = make(map[string]Driver)

	// ErrDigestDoesNotExist is the error returned by NewDigest when a
	// hash algorithm with that name was never registered.
	ErrDigestDoesNotExist = fmt.Errorf("hash algorithm with that name does not exist")
)

// A Driver provides a full-width one-way hash function.
type Driver interface {
	// Size returns the width of the digest in bits.
	Size() int

	// Sum returns the full digest of msg.
	// It must be safe for concurrent use.
	Sum(msg []byte) []byte
}

// RegisterDigest makes a Driver available by the provided name.
//
// If called twice with the same name, the name is blank, or if the provided
// Driver is nil, this function panics.
func RegisterDigest(name string, d Driver) {
	if name == "" {
		panic("digest: could not register a Driver with an empty name")
	}
	if d == nil {
		panic("digest: could not register a nil Driver")
	}

	driversM.Lock()
	defer driversM.Unlock()

	if _, dup := drivers[name]; dup {
		panic("digest: RegisterDigest called twice for " + name)
	}

	drivers[name] = d
}

// Algorithms returns the sorted names of all registered hash algorithms.
func Algorithms() []string {
	driversM.RLock()
	defer driversM.RUnlock()

	names := make([]string, 0, len(drivers))
	for name := range drivers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// A Digest is a registered hash function truncated to a fixed output width.
// It is immutable and safe for concurrent use.
type Digest struct {
	name   string
	driver Driver
	bits   int
}

// NewDigest looks up the named algorithm and truncates it to truncateBits.
// The width must be a positive multiple of 8 that evenly divides the
// algorithm's digest width.
func NewDigest(name string, truncateBits int) (*Digest, error) {
	driversM.RLock()
	d, ok := drivers[name]
	driversM.RUnlock()
	if !ok {
		return nil, &ConfigurationError{Field: "hash_algorithm", Msg: name, Err: ErrDigestDoesNotExist}
	}

	size := d.Size()
	switch {
	case truncateBits <= 0:
		return nil, configErrorf("truncate_bits", "must be positive, got %d", truncateBits)
	case truncateBits%8 != 0:
		return nil, configErrorf("truncate_bits", "%d is not a whole number of bytes", truncateBits)
	case truncateBits > size:
		return nil, configErrorf("truncate_bits", "%d exceeds the %d-bit %s digest", truncateBits, size, name)
	case size%truncateBits != 0:
		return nil, configErrorf("truncate_bits", "%d does not divide the %d-bit %s digest", truncateBits, size, name)
	}

	return &Digest{name: name, driver: d, bits: truncateBits}, nil
}

// Sum hashes msg and keeps the leading Bits() bits.
func (d *Digest) Sum(msg []byte) []byte {
	n := d.bits / 8
	return d.driver.Sum(msg)[:n:n]
}

// Name returns the algorithm name the digest was created with.
func (d *Digest) Name() string { return d.name }

// Bits returns the truncated output width in bits.
func (d *Digest) Bits() int { return d.bits }

// Size returns the truncated output width in bytes.
func (d *Digest) Size() int { return d.bits / 8 }

type ripemd160Driver struct{}

func (ripemd160Driver) Size() int { return ripemd160.Size * 8 }

func (ripemd160Driver) Sum(msg []byte) []byte {
	h := ripemd160.New()
	h.Write(msg)
	return h.Sum(nil)
}

type sha256Driver struct{}

func (sha256Driver) Size() int { return sha256.Size * 8 }

func (sha256Driver) Sum(msg []byte) []byte {
	sum := sha256.Sum256(msg)
	return sum[:]
}

func init() {
	RegisterDigest("ripemd160", ripemd160Driver{})
	RegisterDigest("sha256", sha256Driver{})
}
