package visualize

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cbrueffer/gridss/internal/kmer"
	"github.com/cbrueffer/gridss/internal/pathnode"
)

const testK = 4

func node(t *testing.T, a *pathnode.Arena, seq string, firstStart int, isRef bool) *pathnode.Node {
	t.Helper()
	km, err := kmer.Encode([]byte(seq), testK)
	require.NoError(t, err)
	n, err := a.Alloc([]pathnode.Kmer{km}, []int{3}, firstStart, firstStart, isRef, nil)
	require.NoError(t, err)
	return n
}

func TestExportContigGraphWritesFile(t *testing.T) {
	dir := t.TempDir()
	a := pathnode.NewArena()
	n1 := node(t, a, "AAAA", 0, false)
	n2 := node(t, a, "AAAC", 1, false)
	n1.AddNext(n2.Handle())
	n2.AddPrev(n1.Handle())
	contig := pathnode.Contig{pathnode.WholeNode(n1), pathnode.WholeNode(n2)}

	require.NoError(t, ExportContigGraph(dir, "asm-1", contig))
	_, err := os.Stat(filepath.Join(dir, "asm-1_contig.dot"))
	assert.NoError(t, err)
}

func TestExportFullGraphCompressed(t *testing.T) {
	dir := t.TempDir()
	a := pathnode.NewArena()
	n1 := node(t, a, "AAAA", 0, true)

	require.NoError(t, ExportFullGraph(dir, "asm-2", []*pathnode.Node{n1}, true))
	_, err := os.Stat(filepath.Join(dir, "asm-2_full.dot.zst"))
	assert.NoError(t, err)
}

func TestExportMemoizationCSV(t *testing.T) {
	dir := t.TempDir()
	rows := []MemoRow{
		{Handle: 0, FirstStart: 0, Anchored: 5, Unanchored: 5},
		{Handle: 1, FirstStart: 1, Anchored: 9, Unanchored: 4},
	}
	require.NoError(t, ExportMemoizationCSV(dir, "asm-3", rows, false))
	data, err := os.ReadFile(filepath.Join(dir, "asm-3_memo.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "handle,first_start,anchored_score,unanchored_score")
	assert.Contains(t, string(data), "1,1,9,4")
}
