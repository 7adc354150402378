package rainbow

import (
	"errors"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestConfig_WithDefaults(t *testing.T) {
	c := Config{Params: Params{Chains: 1024, ChainLength: 32, Tables: 1}, Trials: 100}.WithDefaults()

	assert.Equal(t, DefaultAlgorithm, c.Algorithm)
	assert.Equal(t, 16, c.TruncateBits)
	assert.Equal(t, runtime.NumCPU(), c.Workers)
	assert.Equal(t, ModeBuild, c.Mode)
	assert.Equal(t, "rainbow_table_1024_32_1.bin", c.TableFilePath)
	assert.Equal(t, DefaultCriticalValue, c.CriticalValue)
	assert.NoError(t, c.Check())
}

func TestConfig_Check(t *testing.T) {
	valid := Config{Params: Params{Chains: 16, ChainLength: 8, Tables: 2}, Trials: 10}.WithDefaults()
	require.NoError(t, valid.Check())

	tests := []struct {
		name   string
		modify func(*Config)
		field  string
	}{
		{"no chains", func(c *Config) { c.Chains = 0 }, "chains"},
		{"negative chain length", func(c *Config) { c.ChainLength = -1 }, "chain_length"},
		{"no tables", func(c *Config) { c.Tables = 0 }, "tables"},
		{"no trials", func(c *Config) { c.Trials = 0 }, "trials"},
		{"no workers", func(c *Config) { c.Workers = 0 }, "workers"},
		{"unknown mode", func(c *Config) { c.Mode = "replay" }, "mode"},
		{"odd truncation", func(c *Config) { c.TruncateBits = 12 }, "truncate_bits"},
		{"unknown algorithm", func(c *Config) { c.Algorithm = "md4" }, "hash_algorithm"},
		{"negative critical value", func(c *Config) { c.CriticalValue = -1 }, "critical_value"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid
			tt.modify(&c)
			err := c.Check()
			var cfgErr *ConfigurationError
			require.True(t, errors.As(err, &cfgErr))
			assert.Equal(t, tt.field, cfgErr.Field)
			assert.True(t, IsFatal(err))
		})
	}
}

func TestConfig_YAML(t *testing.T) {
	raw := `
chains: 1024
chain_length: 32
tables: 4
truncate_bits: 16
hash_algorithm: sha256
trials: 500
workers: 8
mode: load
table_file_path: /tmp/tables.bin.zst
critical_value: 1.95
`
	var c Config
	require.NoError(t, yaml.Unmarshal([]byte(raw), &c))

	assert.Equal(t, Params{Chains: 1024, ChainLength: 32, Tables: 4, TruncateBits: 16, Algorithm: "sha256"}, c.Params)
	assert.Equal(t, 500, c.Trials)
	assert.Equal(t, 8, c.Workers)
	assert.Equal(t, ModeLoad, c.Mode)
	assert.Equal(t, "/tmp/tables.bin.zst", c.TableFilePath)
	assert.Equal(t, 1.95, c.CriticalValue)
	assert.NoError(t, c.WithDefaults().Check())
}

func TestParams_DomainSizeAndString(t *testing.T) {
	p := Params{Chains: 16, ChainLength: 8, Tables: 4, TruncateBits: 24, Algorithm: "sha256"}
	assert.Equal(t, float64(1<<24), p.DomainSize())
	assert.Equal(t, "K=16 L=8 t=4 sha256/24", p.String())
}

func TestConfigurationError_Unwrap(t *testing.T) {
	_, err := NewDigest("md4", 16)
	assert.True(t, errors.Is(err, ErrDigestDoesNotExist))
	assert.Contains(t, err.Error(), "hash_algorithm")
}
