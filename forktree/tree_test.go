package forktree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mezonai/lightsync/types"
)

// testChain has two branches off B: A-B-C and A-B-D-E, plus an unrelated X.
func testChain() (map[string]types.Hash, IsDescendentOf) {
	hashes := map[string]types.Hash{}
	for i, name := range []string{"A", "B", "C", "D", "E", "X"} {
		hashes[name] = types.Hash{byte(i + 1)}
	}
	parent := map[types.Hash]types.Hash{
		hashes["B"]: hashes["A"],
		hashes["C"]: hashes["B"],
		hashes["D"]: hashes["B"],
		hashes["E"]: hashes["D"],
	}
	isDescendentOf := func(base, block types.Hash) (bool, error) {
		for cur, ok := parent[block]; ok; cur, ok = parent[cur] {
			if cur == base {
				return true, nil
			}
		}
		return false, nil
	}
	return hashes, isDescendentOf
}

func TestImportBuildsBranches(t *testing.T) {
	h, isDesc := testChain()
	tree := New[string]()

	root, err := tree.Import(h["A"], 1, "a", isDesc)
	require.NoError(t, err)
	assert.True(t, root)

	for _, step := range []struct {
		name   string
		number types.BlockNumber
	}{{"B", 2}, {"C", 3}, {"D", 3}, {"E", 4}} {
		root, err := tree.Import(h[step.name], step.number, step.name, isDesc)
		require.NoError(t, err)
		assert.False(t, root, step.name)
	}

	root, err = tree.Import(h["X"], 2, "x", isDesc)
	require.NoError(t, err)
	assert.True(t, root)

	assert.Equal(t, 6, tree.Len())
	require.Len(t, tree.Roots, 2)
	b := tree.Roots[0].Children[0]
	assert.Equal(t, "B", b.Data)
	assert.Len(t, b.Children, 2)
	assert.Equal(t, "E", tree.Find(h["E"]).Data)
	assert.Nil(t, tree.Find(types.Hash{0xee}))
}

func TestImportRejectsDuplicatesAndReverts(t *testing.T) {
	h, isDesc := testChain()
	tree := New[int]()

	_, err := tree.Import(h["A"], 1, 1, isDesc)
	require.NoError(t, err)
	_, err = tree.Import(h["A"], 1, 1, isDesc)
	assert.ErrorIs(t, err, ErrDuplicate)

	tree.SetBestFinalized(5)
	_, err = tree.Import(h["B"], 5, 2, isDesc)
	assert.ErrorIs(t, err, ErrRevert)
}

func TestCloneIsIndependent(t *testing.T) {
	h, isDesc := testChain()
	tree := New[[]byte]()
	_, err := tree.Import(h["A"], 1, []byte{1}, isDesc)
	require.NoError(t, err)
	_, err = tree.Import(h["B"], 2, []byte{2}, isDesc)
	require.NoError(t, err)
	tree.SetBestFinalized(0)

	clone := tree.Clone(func(b []byte) []byte { return append([]byte(nil), b...) })
	clone.Roots[0].Children[0].Data[0] = 0xff
	_, err = clone.Import(h["C"], 3, []byte{3}, isDesc)
	require.NoError(t, err)
	*clone.BestFinalizedNumber = 9

	assert.Equal(t, byte(2), tree.Roots[0].Children[0].Data[0])
	assert.Equal(t, 2, tree.Len())
	assert.Equal(t, types.BlockNumber(0), *tree.BestFinalizedNumber)
	assert.Equal(t, 3, clone.Len())
}
