package chain

import "github.com/kelpbio/bwago/region"

// DefaultOverlapRatio is the query-coverage overlap fraction, relative to
// the weaker chain's own coverage, above which it is dropped as redundant
// (spec §4.7).
const DefaultOverlapRatio = 0.5

// Filter removes a chain X iff there exists a chain Y with score(Y) >=
// score(X) and |qcov(X) ∩ qcov(Y)| >= overlapRatio * |qcov(X)|, processed
// in descending score order (spec §4.7). chains must already be sorted by
// score descending, as Build returns them.
func Filter(chains []region.Chain, overlapRatio float64) []region.Chain {
	if overlapRatio <= 0 {
		overlapRatio = DefaultOverlapRatio
	}
	kept := make([]region.Chain, 0, len(chains))
	for _, x := range chains {
		redundant := false
		xCov := x.QCovLen()
		for _, y := range kept {
			if y.Score < x.Score {
				continue
			}
			ov := region.Overlap(x.QB, x.QE, y.QB, y.QE)
			if xCov > 0 && float64(ov) >= overlapRatio*float64(xCov) {
				redundant = true
				break
			}
		}
		if !redundant {
			kept = append(kept, x)
		}
	}
	return kept
}
