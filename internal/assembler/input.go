package assembler

import (
	"github.com/cbrueffer/gridss/internal/evidence"
	"github.com/cbrueffer/gridss/internal/pathnode"
)

// InputItem is one unit pulled from the upstream producer: a fully
// constructed path node (weights and adjacency to earlier-loaded nodes
// already resolved) plus whatever new evidence it introduces.
type InputItem struct {
	Node     *pathnode.Node
	Evidence []*evidence.KmerEvidence
}

// NodeSource is the upstream producer's contract: a lazy, single-pass
// pull of InputItems strictly non-decreasing in Node.FirstStart().
type NodeSource interface {
	Next() (InputItem, bool)
}

// FuncNodeSource adapts a pull closure to NodeSource.
type FuncNodeSource func() (InputItem, bool)

// Next implements NodeSource.
func (f FuncNodeSource) Next() (InputItem, bool) { return f() }
