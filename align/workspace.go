package align

import (
	"github.com/kelpbio/bwago/alphabet"
	"github.com/kelpbio/bwago/swalign"
)

// Workspace bundles per-worker scratch state: the Smith-Waterman DP
// workspace and the forward and reverse-complement query encodings. Exactly
// one Workspace is owned by each alignment worker goroutine and is reused,
// never reallocated, across the reads that worker processes. Seed, chain and
// candidate slices are not part of it; AlignRead allocates those per read.
type Workspace struct {
	SW *swalign.Workspace

	fwdQuery []alphabet.Symbol
	rcQuery  []alphabet.Symbol
}

// NewWorkspace returns a freshly allocated, empty Workspace.
func NewWorkspace() *Workspace {
	return &Workspace{SW: swalign.NewWorkspace()}
}

// encode fills in the forward and reverse-complement encodings of seq,
// reusing the Workspace's scratch slices where their capacity allows.
func (w *Workspace) encode(seq []byte) (fwd, rc []alphabet.Symbol) {
	n := len(seq)
	if cap(w.fwdQuery) < n {
		w.fwdQuery = make([]alphabet.Symbol, n)
	} else {
		w.fwdQuery = w.fwdQuery[:n]
	}
	if cap(w.rcQuery) < n {
		w.rcQuery = make([]alphabet.Symbol, n)
	} else {
		w.rcQuery = w.rcQuery[:n]
	}
	for i, b := range seq {
		s := alphabet.Encode(b)
		w.fwdQuery[i] = s
		w.rcQuery[n-1-i] = alphabet.Complement(s)
	}
	return w.fwdQuery, w.rcQuery
}
