// Package seed implements SMEM (Super-Maximal Exact Match) discovery over a
// built FM-index, per spec §4.5. It is grounded on the same backward-search
// primitives fmindex exposes (ExtendBySymbol, BackwardSearch), generalized
// to bidirectional extension the way bwa-mem's FMD-index walk does, but
// using two independent single-direction indexes (forward + reverse-text)
// rather than one true bidirectional BWT — a simplification the
// specification explicitly leaves open (§9, "the precise SMEM-extension
// policy ... should be documented per implementation").
package seed

import (
	"github.com/kelpbio/bwago/alphabet"
	"github.com/kelpbio/bwago/fmindex"
	"github.com/kelpbio/bwago/region"
	"github.com/pkg/errors"
)

// DefaultMinSeedLen is the minimum SMEM length that is emitted as a seed.
const DefaultMinSeedLen = 19

// DefaultMaxOcc is the SA-interval-width cap beyond which a seed is
// discarded as uninformative (too repetitive to anchor a chain).
const DefaultMaxOcc = 500

// Options configures Find.
type Options struct {
	MinSeedLen int
	MaxOcc     int
}

// DefaultOptions returns the spec's default seeding parameters.
func DefaultOptions() Options {
	return Options{MinSeedLen: DefaultMinSeedLen, MaxOcc: DefaultMaxOcc}
}

// BiIndex bundles the forward FM-index (built over the reference text, used
// to extend matches leftward and to recover final positions) with an
// auxiliary index over the reversed text (used to extend matches
// rightward, since backward search only ever shrinks a match's left
// boundary for a fixed right boundary). Build once per loaded reference and
// share across all alignment workers, exactly like the forward FMIndex
// itself (spec §5, "shared state").
type BiIndex struct {
	Fwd *fmindex.FMIndex
	Rev *fmindex.FMIndex
}

// NewBiIndex derives the reverse-text auxiliary index from fwd's text and
// block/sample parameters.
func NewBiIndex(fwd *fmindex.FMIndex) (*BiIndex, error) {
	revText := fmindex.ReverseText(fwd.Text)
	rev, err := fmindex.BuildTextOnly(revText, fmindex.Options{
		BlockSize:    fwd.BlockSize,
		SASampleRate: fwd.SASampleRate,
	})
	if err != nil {
		return nil, errors.Wrap(err, "building reverse-text auxiliary index")
	}
	return &BiIndex{Fwd: fwd, Rev: rev}, nil
}

// Find runs SMEM discovery over query (already alphabet-encoded) and tags
// every emitted region.AlnReg with direction (forward=true means query is
// the read's forward-strand encoding, false means query is its reverse
// complement — the caller decides which strand it's searching and passes
// the matching bool through unchanged).
func Find(bi *BiIndex, query []alphabet.Symbol, forward bool, opts Options) []region.AlnReg {
	if opts.MinSeedLen <= 0 {
		opts.MinSeedLen = DefaultMinSeedLen
	}
	if opts.MaxOcc <= 0 {
		opts.MaxOcc = DefaultMaxOcc
	}
	m := len(query)
	var out []region.AlnReg
	n := bi.Fwd.Len()

	for p := 0; p < m; {
		b := extendRight(bi, query, p, n)
		a := extendLeft(bi, query, p, b, n)

		if b-a < opts.MinSeedLen {
			p++
			continue
		}
		l, r, ok := bi.Fwd.BackwardSearch(query[a:b])
		if ok && r-l <= opts.MaxOcc {
			positions := bi.Fwd.SAIntervalPositions(l, r)
			for _, rb := range positions {
				out = append(out, region.AlnReg{
					QB:      a,
					QE:      b,
					RB:      rb,
					RE:      rb + (b - a),
					Weight:  b - a,
					Forward: forward,
				})
			}
		}
		// Advance past the MEM just considered, per §4.5, to avoid
		// re-discovering a match strictly contained in it.
		if b > p {
			p = b
		} else {
			p++
		}
	}
	return out
}

// extendRight returns the largest b such that query[p:b) occurs in the
// reference text, by growing the match one character at a time using the
// reverse-text index: matching query[p:b) against the forward reference is
// equivalent to matching reverse(query[p:b)) against the reversed
// reference, and feeding characters query[p], query[p+1], ... in that order
// to backward search over the reverse text builds up exactly
// reverse(query[p:b)) one prepended character at a time.
func extendRight(bi *BiIndex, query []alphabet.Symbol, p, n int) int {
	l, r := 0, n
	b := p
	for b < len(query) {
		nl, nr, ok := bi.Rev.ExtendBySymbol(l, r, query[b])
		if !ok {
			break
		}
		l, r = nl, nr
		b++
	}
	return b
}

// extendLeft returns the smallest a <= p such that query[a:b) occurs in the
// reference text, by growing the match leftward from b one character at a
// time using the forward index's ordinary backward search.
func extendLeft(bi *BiIndex, query []alphabet.Symbol, p, b, n int) int {
	l, r := 0, n
	a := b
	for a > 0 {
		nl, nr, ok := bi.Fwd.ExtendBySymbol(l, r, query[a-1])
		if !ok {
			break
		}
		l, r = nl, nr
		a--
	}
	if a > p {
		// extendRight always matches at least query[p:p+1), so a should
		// never end up past p; this defends against that invariant being
		// violated rather than silently producing an inverted interval.
		a = p
	}
	return a
}
