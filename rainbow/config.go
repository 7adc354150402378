package rainbow

import (
	"fmt"
	"runtime"
)

// Mode selects where the table set of an attack comes from.
type Mode string

const (
	// ModeBuild precomputes fresh tables and persists them.
	ModeBuild Mode = "build"
	// ModeLoad reuses tables persisted by an earlier run.
	ModeLoad Mode = "load"
)

// DefaultCriticalValue is the two-sided 95% normal quantile used for the
// confidence interval of the search cost.
const DefaultCriticalValue = 1.96

// Params describe the shape of a table set.
type Params struct {
	// Number of chains per table (K).
	Chains int `yaml:"chains" json:"chains"`

	// Number of hash/reduce steps per chain (L).
	ChainLength int `yaml:"chain_length" json:"chain_length"`

	// Number of independently salted tables (t).
	Tables int `yaml:"tables" json:"tables"`

	// Output width of the truncated hash in bits.
	TruncateBits int `yaml:"truncate_bits" json:"truncate_bits"`

	// Name of a registered hash algorithm.
	Algorithm string `yaml:"hash_algorithm" json:"hash_algorithm"`
}

func (p Params) check() error {
	if p.Chains <= 0 {
		return configErrorf("chains", "must be positive, got %d", p.Chains)
	}
	if p.ChainLength <= 0 {
		return configErrorf("chain_length", "must be positive, got %d", p.ChainLength)
	}
	if p.Tables <= 0 {
		return configErrorf("tables", "must be positive, got %d", p.Tables)
	}
	_, err := NewDigest(p.Algorithm, p.TruncateBits)
	return err
}

// Digest returns the truncated hash the tables are built with.
func (p Params) Digest() (*Digest, error) {
	return NewDigest(p.Algorithm, p.TruncateBits)
}

// DomainSize returns the number of distinct truncated hash values, 2^bits.
func (p Params) DomainSize() float64 {
	size := 1.0
	for i := 0; i < p.TruncateBits; i++ {
		size *= 2
	}
	return size
}

// TableFileName returns the default file name for a persisted table set.
func (p Params) TableFileName() string {
	return fmt.Sprintf("rainbow_table_%d_%d_%d.bin", p.Chains, p.ChainLength, p.Tables)
}

func (p Params) String() string {
	return fmt.Sprintf("K=%d L=%d t=%d %s/%d", p.Chains, p.ChainLength, p.Tables, p.Algorithm, p.TruncateBits)
}

func (p Params) withDefaults() Params {
	if p.Algorithm == "" {
		p.Algorithm = DefaultAlgorithm
	}
	if p.TruncateBits == 0 {
		p.TruncateBits = 16
	}
	return p
}

// Config configures one attack run.
type Config struct {
	Params `yaml:",inline"`

	// Number of random targets to invert (N).
	Trials int `yaml:"trials"`

	// Number of trials searched concurrently. Zero means one per CPU.
	Workers int `yaml:"workers"`

	// Whether to build new tables or load persisted ones.
	Mode Mode `yaml:"mode"`

	// Path of the persisted table set. Defaults to Params.TableFileName().
	TableFilePath string `yaml:"table_file_path"`

	// Critical value of the cost confidence interval.
	CriticalValue float64 `yaml:"critical_value"`
}

// WithDefaults fills in every optional field that was left empty.
func (c Config) WithDefaults() Config {
	c.Params = c.Params.withDefaults()
	if c.Workers == 0 {
		c.Workers = runtime.NumCPU()
	}
	if c.Mode == "" {
		c.Mode = ModeBuild
	}
	if c.TableFilePath == "" {
		c.TableFilePath = c.Params.TableFileName()
	}
	if c.CriticalValue == 0 {
		c.CriticalValue = DefaultCriticalValue
	}
	return c
}

// Check validates a configuration that already has its defaults applied.
func (c Config) Check() error {
	if err := c.Params.check(); err != nil {
		return err
	}
	if c.Trials <= 0 {
		return configErrorf("trials", "must be positive, got %d", c.Trials)
	}
	if c.Workers <= 0 {
		return configErrorf("workers", "must be positive, got %d", c.Workers)
	}
	if c.Mode != ModeBuild && c.Mode != ModeLoad {
		return configErrorf("mode", "unknown mode %q", c.Mode)
	}
	if c.CriticalValue < 0 {
		return configErrorf("critical_value", "must not be negative, got %g", c.CriticalValue)
	}
	return nil
}
