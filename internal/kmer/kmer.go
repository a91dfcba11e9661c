// Package kmer implements fixed-width, bit-packed nucleotide k-mer encoding.
//
// A Kmer is a uint64 holding up to 32 bases, two bits per base. Equality and
// hashing are bitwise, so a Kmer is safe to use directly as a map key.
package kmer

import "fmt"

// Kmer is a bit-packed nucleotide sequence of fixed length K (<=32, so it
// fits in 64 bits at 2 bits/base). The most recently appended base occupies
// the low two bits.
type Kmer uint64

// Base is one of the four canonical nucleotides, 2-bit encoded.
type Base byte

const (
	A Base = 0
	C Base = 1
	G Base = 2
	T Base = 3
)

var baseToByte = [4]byte{'A', 'C', 'G', 'T'}

var byteToBase = func() [256]int8 {
	var t [256]int8
	for i := range t {
		t[i] = -1
	}
	t['A'], t['a'] = int8(A), int8(A)
	t['C'], t['c'] = int8(C), int8(C)
	t['G'], t['g'] = int8(G), int8(G)
	t['T'], t['t'] = int8(T), int8(T)
	return t
}()

// mask returns the bitmask covering the low 2*k bits.
func mask(k int) uint64 {
	if k >= 32 {
		return ^uint64(0)
	}
	return (uint64(1) << uint(2*k)) - 1
}

// Encode packs the given base sequence (length k, k<=32) into a Kmer.
// It returns an error if seq contains anything other than ACGT/acgt or has
// the wrong length.
func Encode(seq []byte, k int) (Kmer, error) {
	if k <= 0 || k > 32 {
		return 0, fmt.Errorf("kmer: k must be in [1,32], got %d", k)
	}
	if len(seq) != k {
		return 0, fmt.Errorf("kmer: sequence length %d does not match k=%d", len(seq), k)
	}
	var v uint64
	for _, b := range seq {
		base := byteToBase[b]
		if base < 0 {
			return 0, fmt.Errorf("kmer: invalid base %q", b)
		}
		v = (v << 2) | uint64(base)
	}
	return Kmer(v), nil
}

// Decode unpacks a Kmer of length k back into its base sequence.
func Decode(km Kmer, k int) []byte {
	seq := make([]byte, k)
	v := uint64(km)
	for i := k - 1; i >= 0; i-- {
		seq[i] = baseToByte[v&3]
		v >>= 2
	}
	return seq
}

// Append shifts km left by one base, drops the now out-of-range high bits
// (per k) and inserts next as the new low base. This is the "one-base
// extension" operation adjacency between path nodes is defined in terms of.
func Append(km Kmer, k int, next Base) Kmer {
	v := (uint64(km) << 2) | uint64(next&3)
	return Kmer(v & mask(k))
}

// Prepend shifts km right by one base (dropping the low base) and inserts
// prev as the new high base.
func Prepend(km Kmer, k int, prev Base) Kmer {
	v := uint64(km) >> 2
	v |= uint64(prev&3) << uint(2*(k-1))
	return Kmer(v & mask(k))
}

// LastBase returns the 2-bit base occupying the low (most recently
// appended) position of km.
func LastBase(km Kmer) Base {
	return Base(uint64(km) & 3)
}

// FirstBase returns the 2-bit base occupying the high position of a k-mer
// of length k.
func FirstBase(km Kmer, k int) Base {
	return Base((uint64(km) >> uint(2*(k-1))) & 3)
}

// IsOneBaseExtension reports whether next is reachable from prev by
// dropping prev's first base and appending one new base at the end - the
// adjacency condition used to link path nodes (§3 of the design doc).
func IsOneBaseExtension(prev, next Kmer, k int) bool {
	prevSuffix := uint64(prev) & mask(k-1)
	nextPrefix := uint64(next) >> 2
	return prevSuffix == nextPrefix
}

// String renders the Kmer as an ACGT string of length k.
func String(km Kmer, k int) string {
	return string(Decode(km, k))
}
