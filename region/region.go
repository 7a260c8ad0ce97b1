// Package region defines the AlnReg type shared by the seeding, chaining,
// extension, and driver packages: the one record that accumulates state as
// a candidate alignment moves through the pipeline described in spec §3
// ("Lifecycle") and §4.5-4.9. Keeping it in its own package (rather than in
// seed or chain) avoids an import cycle between the packages that produce
// seeds and the packages that later extend and rank them.
package region

import "github.com/biogo/hts/sam"

// AlnReg is an alignment region: a query/reference interval pair tracked
// from SMEM seeding through chaining and Smith-Waterman extension. Fields
// are filled in progressively:
//   - seeding sets QB, QE, RB, RE, Weight, Forward;
//   - chaining groups seeds into a Chain (below) and does not mutate them;
//   - extension (swalign) produces a new AlnReg with Score, Cigar, NM set
//     and QB/QE/RB/RE rewritten to the traced alignment's actual span.
type AlnReg struct {
	// QB, QE is the half-open query interval, in the coordinate system of
	// whichever strand direction covers (forward query bases, or reverse-
	// complemented query bases — never mixed within one AlnReg).
	QB, QE int

	// RB, RE is the half-open reference interval in the concatenated,
	// encoded text's coordinate system (absolute text positions).
	RB, RE int

	// Weight is the seed's contribution to chain scoring: QE-QB for a raw
	// seed, undefined (unused) after extension.
	Weight int

	// Forward is true if this region was found by searching the read's
	// forward-strand sequence, false if found via its reverse complement.
	Forward bool

	// Score is the Smith-Waterman alignment score. Zero until extension.
	Score int

	// Cigar is the traced alignment's CIGAR, set by extension.
	Cigar sam.Cigar

	// NM is the edit distance (mismatches + inserted + deleted bases) along
	// the traced alignment, set by extension.
	NM int
}

// QLen returns the length of the query interval.
func (a AlnReg) QLen() int { return a.QE - a.QB }

// RLen returns the length of the reference interval.
func (a AlnReg) RLen() int { return a.RE - a.RB }

// Chain is an ordered, colinear cluster of seeds produced by C6, carrying
// its own DP score and the query-coverage interval used by the chain
// filter (C7) and by downstream overlap/dedup logic.
type Chain struct {
	Seeds []AlnReg

	// Score is the chain's DP score: sum of seed weights minus accumulated
	// diagonal-skew gap penalties (spec §4.6).
	Score int

	// QB, QE is the chain's query-coverage interval: the min QB and max QE
	// across its seeds.
	QB, QE int

	// RB, RE is the chain's reference-coverage interval: the min RB and
	// max RE across its seeds.
	RB, RE int

	// Forward records the strand direction shared by every seed in the
	// chain.
	Forward bool
}

// QCovLen returns the chain's query-coverage interval length.
func (c Chain) QCovLen() int { return c.QE - c.QB }

// Overlap returns the number of bases common to the half-open intervals
// [aB,aE) and [bB,bE).
func Overlap(aB, aE, bB, bE int) int {
	lo := aB
	if bB > lo {
		lo = bB
	}
	hi := aE
	if bE < hi {
		hi = bE
	}
	if hi <= lo {
		return 0
	}
	return hi - lo
}
