package fmindex

import (
	"github.com/kelpbio/bwago/alphabet"
	"github.com/kelpbio/bwago/encoding/fasta"
	"github.com/pkg/errors"
)

// Contig describes one reference sequence within the concatenated text: its
// name, its length in bases, and the byte offset in the encoded text at
// which its first base lies.
type Contig struct {
	Name   string
	Length uint64
	Offset uint64
}

// Reference is the concatenated, alphabet-encoded reference text together
// with the contig directory needed to map text positions back to
// (contig, offset) pairs.
type Reference struct {
	Text    []alphabet.Symbol
	Contigs []Contig
}

// BuildReference concatenates the contigs of fa into a single encoded text,
// separating (and terminating) them with the sentinel symbol, per §3 of the
// specification: exactly len(contigs) sentinels appear, one following each
// contig, and T[n-1] == 0.
func BuildReference(fa fasta.Fasta) (*Reference, error) {
	contigs := fa.Contigs()
	if len(contigs) == 0 {
		return nil, errors.New("reference contains no contigs")
	}
	ref := &Reference{Contigs: make([]Contig, 0, len(contigs))}
	var offset uint64
	for _, c := range contigs {
		if len(c.Seq) == 0 {
			return nil, errors.Errorf("contig %q is empty", c.Name)
		}
		ref.Contigs = append(ref.Contigs, Contig{Name: c.Name, Length: uint64(len(c.Seq)), Offset: offset})
		for i := 0; i < len(c.Seq); i++ {
			ref.Text = append(ref.Text, alphabet.Encode(c.Seq[i]))
		}
		ref.Text = append(ref.Text, alphabet.Sentinel)
		offset += uint64(len(c.Seq)) + 1
	}
	return ref, nil
}

// Locate maps a 0-based text position to the contig that contains it and the
// 0-based offset within that contig. It returns an error if p lies on a
// sentinel or past the end of the text (a candidate spanning a sentinel is
// rejected the same way, per §4.9).
func (r *Reference) Locate(p uint64) (contig Contig, offset uint64, err error) {
	// Binary search the contig directory for the entry whose [Offset,
	// Offset+Length) interval contains p.
	lo, hi := 0, len(r.Contigs)
	for lo < hi {
		mid := (lo + hi) / 2
		if r.Contigs[mid].Offset <= p {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	idx := lo - 1
	if idx < 0 || idx >= len(r.Contigs) {
		return Contig{}, 0, errors.Errorf("position %d not found in contig directory", p)
	}
	c := r.Contigs[idx]
	if p < c.Offset || p >= c.Offset+c.Length {
		return Contig{}, 0, errors.Errorf("position %d falls on a contig separator", p)
	}
	return c, p - c.Offset, nil
}
