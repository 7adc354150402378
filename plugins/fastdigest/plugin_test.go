package fastdigest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	rainbowLib "rainbow-attack/rainbow"
)

func TestRegistered(t *testing.T) {
	names := rainbowLib.Algorithms()
	assert.Contains(t, names, blake3Name)
	assert.Contains(t, names, xxh3Name)
}

func TestTruncation(t *testing.T) {
	for _, name := range []string{blake3Name, xxh3Name} {
		d, err := rainbowLib.NewDigest(name, 32)
		require.NoError(t, err, name)

		sum := d.Sum([]byte("rainbow"))
		assert.Len(t, sum, 4, name)
		assert.Equal(t, sum, d.Sum([]byte("rainbow")), name)
	}
}

func TestXXH3RejectsWideTruncation(t *testing.T) {
	_, err := rainbowLib.NewDigest(xxh3Name, 256)
	var cfgErr *rainbowLib.ConfigurationError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestTablesWithBlake3(t *testing.T) {
	p := rainbowLib.Params{Chains: 8, ChainLength: 4, Tables: 2, TruncateBits: 16, Algorithm: blake3Name}
	set, err := rainbowLib.BuildTableSet(p, 2, nil)
	require.NoError(t, err)
	require.Len(t, set.Tables, 2)
	for _, table := range set.Tables {
		assert.True(t, table.Sorted())
	}
}
