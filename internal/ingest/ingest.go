// Package ingest adapts a newline-delimited JSON description of path
// nodes and their supporting evidence into an assembler.NodeSource,
// following the same encoding/json-decode-into-a-struct style the
// teacher repository uses for its own FASTA/JSON input (internal/defrag
// io.go's Output/Solution types).
package ingest

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/cbrueffer/gridss/internal/evidence"
	"github.com/cbrueffer/gridss/internal/kmer"
	"github.com/cbrueffer/gridss/internal/pathnode"
)

// SupportNodeRecord is the wire form of evidence.SupportNode: Kmer is a
// plain ACGT string rather than a packed Kmer so hand-authored fixtures
// stay readable. Start and End bound the closed position interval the
// evidence's cell covers; a single-position cell sets Start==End.
type SupportNodeRecord struct {
	Kmer   string `json:"kmer"`
	Start  int    `json:"start"`
	End    int    `json:"end"`
	Weight int    `json:"weight"`
}

// EvidenceRecord is the wire form of evidence.KmerEvidence.
type EvidenceRecord struct {
	ID            uint64              `json:"id"`
	Nodes         []SupportNodeRecord `json:"nodes"`
	BreakendStart int                 `json:"breakend_start"`
	BreakendEnd   int                 `json:"breakend_end"`
	Quality       int                 `json:"quality"`
}

// NodeRecord is the wire form of one path node. Prev/Next reference
// earlier records in the same stream by their 0-based sequence index,
// since the upstream producer only ever links to already-admitted
// nodes.
type NodeRecord struct {
	Kmers          []string `json:"kmers"`
	Weights        []int    `json:"weights"`
	FirstStart     int      `json:"first_start"`
	FirstEnd       int      `json:"first_end"`
	IsReference    bool     `json:"is_reference"`
	CollapsedKmers []string `json:"collapsed_kmers,omitempty"`
	Prev           []int    `json:"prev,omitempty"`
	Next           []int    `json:"next,omitempty"`
}

// LineRecord is one decoded unit of the stream: a node plus whatever
// evidence it introduces.
type LineRecord struct {
	Node     NodeRecord       `json:"node"`
	Evidence []EvidenceRecord `json:"evidence,omitempty"`
}

// JSONSource decodes a stream of LineRecords into assembler.InputItems,
// resolving Prev/Next sequence indices into live arena handles as it
// goes.
type JSONSource struct {
	dec     *json.Decoder
	arena   *pathnode.Arena
	k       int
	handles []pathnode.Handle
}

// NewJSONSource returns a JSONSource reading from r, allocating nodes
// from arena at k-mer width k.
func NewJSONSource(r io.Reader, arena *pathnode.Arena, k int) *JSONSource {
	return &JSONSource{dec: json.NewDecoder(r), arena: arena, k: k}
}

// Node and Evidence mirror assembler.InputItem's shape without importing
// internal/assembler, avoiding a package cycle (assembler doesn't need
// to know about ingest, but cmd wires both together).
type Node = pathnode.Node

// Item is the decoded result of one Next call.
type Item struct {
	Node     *pathnode.Node
	Evidence []*evidence.KmerEvidence
}

// Next decodes and resolves the next record, or returns false at EOF or
// on a decode/resolution error (logged by the caller via the returned
// error from NextErr).
func (s *JSONSource) Next() (Item, bool) {
	item, _, ok := s.NextErr()
	return item, ok
}

// NextErr is the error-returning form of Next, for callers (cmd) that
// want to distinguish EOF from a malformed record.
func (s *JSONSource) NextErr() (Item, error, bool) {
	var rec LineRecord
	if err := s.dec.Decode(&rec); err != nil {
		if err == io.EOF {
			return Item{}, nil, false
		}
		return Item{}, fmt.Errorf("ingest: decode: %w", err), false
	}

	kmers := make([]pathnode.Kmer, len(rec.Node.Kmers))
	for i, seq := range rec.Node.Kmers {
		km, err := kmer.Encode([]byte(seq), s.k)
		if err != nil {
			return Item{}, fmt.Errorf("ingest: node kmer %d: %w", i, err), false
		}
		kmers[i] = km
	}
	collapsed := make([]pathnode.Kmer, len(rec.Node.CollapsedKmers))
	for i, seq := range rec.Node.CollapsedKmers {
		km, err := kmer.Encode([]byte(seq), s.k)
		if err != nil {
			return Item{}, fmt.Errorf("ingest: collapsed kmer %d: %w", i, err), false
		}
		collapsed[i] = km
	}

	n, err := s.arena.Alloc(kmers, rec.Node.Weights, rec.Node.FirstStart, rec.Node.FirstEnd, rec.Node.IsReference, collapsed)
	if err != nil {
		return Item{}, fmt.Errorf("ingest: alloc: %w", err), false
	}

	for _, idx := range rec.Node.Prev {
		if idx < 0 || idx >= len(s.handles) {
			return Item{}, fmt.Errorf("ingest: prev index %d out of range", idx), false
		}
		ph := s.handles[idx]
		if pn := s.arena.Get(ph); pn != nil {
			pn.AddNext(n.Handle())
			n.AddPrev(ph)
		}
	}
	for _, idx := range rec.Node.Next {
		if idx < 0 || idx >= len(s.handles) {
			return Item{}, fmt.Errorf("ingest: next index %d out of range", idx), false
		}
		nh := s.handles[idx]
		if nn := s.arena.Get(nh); nn != nil {
			nn.AddPrev(n.Handle())
			n.AddNext(nh)
		}
	}
	s.handles = append(s.handles, n.Handle())

	evs := make([]*evidence.KmerEvidence, len(rec.Evidence))
	for i, er := range rec.Evidence {
		nodes := make([]evidence.SupportNode, len(er.Nodes))
		for j, snr := range er.Nodes {
			km, err := kmer.Encode([]byte(snr.Kmer), s.k)
			if err != nil {
				return Item{}, fmt.Errorf("ingest: evidence kmer %d.%d: %w", i, j, err), false
			}
			nodes[j] = evidence.SupportNode{Kmer: km, Start: snr.Start, End: snr.End, Weight: snr.Weight}
		}
		evs[i] = &evidence.KmerEvidence{
			ID:            evidence.ID(er.ID),
			Nodes:         nodes,
			BreakendStart: er.BreakendStart,
			BreakendEnd:   er.BreakendEnd,
			Quality:       er.Quality,
		}
	}

	return Item{Node: n, Evidence: evs}, nil, true
}
