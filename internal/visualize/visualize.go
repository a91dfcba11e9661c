// Package visualize writes the optional diagnostic side-outputs: the
// assembled subgraph and full graph snapshot as DOT files
// (awalterschulze/gographviz, grounded on GraphvizDBGArr's node/edge
// loop in the de Bruijn graph pack example), and per-called-contig
// memoization state as an optionally zstd-compressed CSV. None of this
// ever feeds back into assembly results - every exported function
// returns only an error for the caller to log and discard.
package visualize

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/awalterschulze/gographviz"
	"github.com/klauspost/compress/zstd"

	"github.com/cbrueffer/gridss/internal/pathnode"
)

func nodeAttrs(n *pathnode.Node) map[string]string {
	attrs := map[string]string{
		"shape": "record",
		"label": fmt.Sprintf("\"%d..%d|w=%d\"", n.FirstStart(), n.LastEnd(), n.WeightSum(0, n.Length()-1)),
	}
	if n.IsReference() {
		attrs["color"] = "blue"
	} else {
		attrs["color"] = "black"
	}
	return attrs
}

func nodeID(n *pathnode.Node) string {
	return "n" + strconv.FormatUint(uint64(n.Handle()), 10)
}

// ExportContigGraph writes the called contig's subnode chain as a DOT
// file under dir: one DOT node per subnode's node and an edge between
// consecutive subnodes. Neighbours outside the contig are not included,
// and the file is never compressed.
func ExportContigGraph(dir, assemblyID string, contig pathnode.Contig) error {
	g := gographviz.NewGraph()
	g.SetName("G")
	g.SetDir(true)
	g.SetStrict(false)

	var prev *pathnode.Node
	for _, sub := range contig {
		n := sub.Node()
		if err := g.AddNode("G", nodeID(n), nodeAttrs(n)); err != nil {
			return err
		}
		if prev != nil {
			if err := g.AddEdge(nodeID(prev), nodeID(n), true, map[string]string{"color": "red"}); err != nil {
				return err
			}
		}
		prev = n
	}
	return writeDOT(dir, assemblyID+"_contig.dot", g.String(), false)
}

// ExportFullGraph writes every live node nodes currently holds, plus
// their adjacency, as a DOT file under dir.
func ExportFullGraph(dir, assemblyID string, nodes []*pathnode.Node, compress bool) error {
	g := gographviz.NewGraph()
	g.SetName("G")
	g.SetDir(true)
	g.SetStrict(false)

	for _, n := range nodes {
		if err := g.AddNode("G", nodeID(n), nodeAttrs(n)); err != nil {
			return err
		}
	}
	for _, n := range nodes {
		for _, h := range n.Next() {
			g.AddEdge(nodeID(n), "n"+strconv.FormatUint(uint64(h), 10), true, nil)
		}
	}
	return writeDOT(dir, assemblyID+"_full.dot", g.String(), compress)
}

func writeDOT(dir, name, content string, compress bool) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	path := filepath.Join(dir, name)
	if compress {
		path += ".zst"
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	var w io.Writer = f
	if compress {
		zw, err := zstd.NewWriter(f, zstd.WithEncoderConcurrency(1), zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return err
		}
		defer zw.Close()
		w = zw
	}
	_, err = io.WriteString(w, content)
	return err
}

// MemoRow is one row of exported memoization state: a node's best
// score for each track at the moment its contig was called.
type MemoRow struct {
	Handle     uint32
	FirstStart int
	Anchored   int
	Unanchored int
}

// ExportMemoizationCSV writes rows as CSV under dir, optionally
// zstd-compressed.
func ExportMemoizationCSV(dir, assemblyID string, rows []MemoRow, compress bool) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	path := filepath.Join(dir, assemblyID+"_memo.csv")
	if compress {
		path += ".zst"
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	var w io.Writer = f
	if compress {
		zw, err := zstd.NewWriter(f, zstd.WithEncoderConcurrency(1), zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return err
		}
		defer zw.Close()
		w = zw
	}

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"handle", "first_start", "anchored_score", "unanchored_score"}); err != nil {
		return err
	}
	for _, r := range rows {
		record := []string{
			strconv.FormatUint(uint64(r.Handle), 10),
			strconv.Itoa(r.FirstStart),
			strconv.Itoa(r.Anchored),
			strconv.Itoa(r.Unanchored),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
