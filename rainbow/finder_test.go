package rainbow

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// coveredValues returns every value x1..xL on any chain of the set.
func coveredValues(t *testing.T, set *TableSet) map[string]struct{} {
	t.Helper()
	d, err := set.Params.Digest()
	require.NoError(t, err)

	covered := make(map[string]struct{})
	for _, table := range set.Tables {
		for _, c := range table.Chains {
			for _, v := range chainValues(d, table, c.Start, set.Params.ChainLength) {
				covered[string(v)] = struct{}{}
			}
		}
	}
	return covered
}

func TestFinder_UncoveredTarget(t *testing.T) {
	p := testParams()
	set, err := BuildTableSet(p, 2, rand.New(rand.NewSource(11)))
	require.NoError(t, err)
	finder, err := NewFinder(set)
	require.NoError(t, err)

	covered := coveredValues(t, set)
	var target []byte
	for i := 0; i < 1<<16; i++ {
		candidate := []byte{byte(i >> 8), byte(i)}
		if _, ok := covered[string(candidate)]; !ok {
			target = candidate
			break
		}
	}
	require.NotNil(t, target)

	res := finder.Find(context.Background(), target)
	assert.False(t, res.Found())
	for _, table := range set.Tables {
		assert.False(t, Search(context.Background(), finder.Digest(), table, p.ChainLength, target).Found())
	}
}

func TestFinder_CoveredTarget(t *testing.T) {
	p := testParams()
	set, err := BuildTableSet(p, 2, rand.New(rand.NewSource(12)))
	require.NoError(t, err)
	finder, err := NewFinder(set)
	require.NoError(t, err)
	d := finder.Digest()

	found := 0
	for _, table := range set.Tables {
		for _, c := range table.Chains {
			target := c.End
			res := finder.Find(context.Background(), target)
			if res.Found() {
				found++
				assert.Equal(t, target, d.Sum(res.Preimage))
			}
		}
	}
	// An end always resolves in its own table, whatever the other tables
	// report.
	assert.Equal(t, p.Tables*p.Chains, found)
}

func TestFinder_ConcurrentUse(t *testing.T) {
	p := testParams()
	set, err := BuildTableSet(p, 2, rand.New(rand.NewSource(13)))
	require.NoError(t, err)
	finder, err := NewFinder(set)
	require.NoError(t, err)

	done := make(chan SearchResult)
	for _, table := range set.Tables {
		go func(target []byte) {
			done <- finder.Find(context.Background(), target)
		}(table.Chains[0].End)
	}
	for range set.Tables {
		res := <-done
		if res.Found() {
			assert.Len(t, res.Preimage, SaltSize(2)+2)
		}
	}
}

func TestNewFinder_EmptySet(t *testing.T) {
	_, err := NewFinder(&TableSet{Params: testParams()})
	assert.Error(t, err)
	_, err = NewFinder(nil)
	assert.Error(t, err)
}
