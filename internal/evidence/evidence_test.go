package evidence

import (
	"testing"

	"github.com/cbrueffer/gridss/internal/kmer"
	"github.com/cbrueffer/gridss/internal/pathnode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testK = 4

func mustEncode(t *testing.T, seq string) pathnode.Kmer {
	t.Helper()
	km, err := kmer.Encode([]byte(seq), testK)
	require.NoError(t, err)
	return km
}

func TestRegisterAndSupport(t *testing.T) {
	a := pathnode.NewArena()
	km1 := mustEncode(t, "AAAA")
	km2 := mustEncode(t, "AAAC")
	n, err := a.Alloc([]pathnode.Kmer{km1, km2}, []int{1, 1}, 100, 100, false, nil)
	require.NoError(t, err)

	tr := New()
	e := &KmerEvidence{
		ID: 1,
		Nodes: []SupportNode{
			{Kmer: km1, Start: 100, End: 100, Weight: 1},
			{Kmer: km2, Start: 101, End: 101, Weight: 1},
		},
	}
	tr.Register(e)
	assert.Equal(t, 1, tr.Size())

	contig := pathnode.Contig{pathnode.WholeNode(n)}
	support := tr.Support(contig)
	require.Len(t, support, 1)
	assert.Same(t, e, support[ID(1)])
}

func TestUnregisterRemovesFromCellIndex(t *testing.T) {
	tr := New()
	km1 := mustEncode(t, "AAAA")
	e := &KmerEvidence{ID: 7, Nodes: []SupportNode{{Kmer: km1, Start: 5, End: 5, Weight: 2}}}
	tr.Register(e)
	tr.Unregister(e)

	assert.Equal(t, 0, tr.Size())
	assert.Nil(t, tr.Get(7))
	// A second Unregister is a no-op, not a panic.
	tr.Unregister(e)
}

func TestUntrackReturnsAndClears(t *testing.T) {
	a := pathnode.NewArena()
	km1 := mustEncode(t, "AAAA")
	n, err := a.Alloc([]pathnode.Kmer{km1}, []int{1}, 0, 0, false, nil)
	require.NoError(t, err)

	tr := New()
	e := &KmerEvidence{ID: 2, Nodes: []SupportNode{{Kmer: km1, Start: 0, End: 0, Weight: 1}}}
	tr.Register(e)

	contig := pathnode.Contig{pathnode.WholeNode(n)}
	untracked := tr.Untrack(contig)
	require.Len(t, untracked, 1)
	assert.Equal(t, 0, tr.Size())

	assert.Empty(t, tr.Support(contig))
}

func TestMatchesExpected(t *testing.T) {
	a := pathnode.NewArena()
	km1 := mustEncode(t, "AAAA")
	n, err := a.Alloc([]pathnode.Kmer{km1}, []int{1}, 50, 50, false, nil)
	require.NoError(t, err)
	sub := pathnode.WholeNode(n)

	tr := New()
	assert.False(t, tr.MatchesExpected(sub))

	tr.Register(&KmerEvidence{ID: 1, Nodes: []SupportNode{{Kmer: km1, Start: 50, End: 50, Weight: 1}}})
	assert.True(t, tr.MatchesExpected(sub))
}

func TestRegisterWithWiderIntervalSupportsEveryCoveredPosition(t *testing.T) {
	a := pathnode.NewArena()
	km1 := mustEncode(t, "AAAA")
	n, err := a.Alloc([]pathnode.Kmer{km1}, []int{1}, 50, 50, false, nil)
	require.NoError(t, err)
	sub := pathnode.WholeNode(n)

	tr := New()
	e := &KmerEvidence{ID: 3, Nodes: []SupportNode{{Kmer: km1, Start: 48, End: 52, Weight: 1}}}
	tr.Register(e)

	// The node's own cell sits at exact position 50, strictly inside the
	// evidence's wider [48,52] interval: overlap matching must still find
	// it even though 50 != 48 and 50 != 52.
	assert.True(t, tr.MatchesExpected(sub))

	contig := pathnode.Contig{sub}
	support := tr.Support(contig)
	require.Len(t, support, 1)
	assert.Same(t, e, support[ID(3)])

	untracked := tr.Untrack(contig)
	require.Len(t, untracked, 1)
	assert.Equal(t, 0, tr.Size())
}
