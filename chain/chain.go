// Package chain clusters colinear seeds into chains (spec §4.6) and filters
// redundant chains (spec §4.7). Grounded on the same "flat array + index-
// based predecessor links, no ownership cycles" representation the spec's
// design notes (§9, "Chain DP representation") call for, in the style of
// grailbio/bio's interval/DP-table packages (index-based links rather than
// pointer-chasing trees).
package chain

import (
	"sort"

	"github.com/kelpbio/bwago/region"
)

// DefaultMaxChainGap is the maximum allowed diagonal skew between two
// successive seeds for them to be considered compatible (spec §4.6).
const DefaultMaxChainGap = 100

// DefaultPeelRatio is the minimum fraction of the best chain's score a
// subsequent, non-overlapping chain must reach to still be extracted (spec
// §4.6, greedy peel).
const DefaultPeelRatio = 0.3

// DefaultGapOpen and DefaultGapExtend price the accumulated diagonal skew
// between successive seeds in a chain, set independently of the
// Smith-Waterman gap penalties applied during extension (the defaults share
// the same values, 6 and 1) — this is a coarse chain-level estimate, not the
// final score.
const (
	DefaultGapOpen   = 6
	DefaultGapExtend = 1
)

// Options configures Build.
type Options struct {
	MaxChainGap int
	PeelRatio   float64
	GapOpen     int
	GapExtend   int
}

// DefaultOptions returns the spec's default chaining parameters.
func DefaultOptions() Options {
	return Options{
		MaxChainGap: DefaultMaxChainGap,
		PeelRatio:   DefaultPeelRatio,
		GapOpen:     DefaultGapOpen,
		GapExtend:   DefaultGapExtend,
	}
}

// compatible reports whether seed j (later on the query) can follow seed i
// (earlier on the query) in a chain, per spec §4.6.
func compatible(i, j region.AlnReg, maxGap int) bool {
	if j.QB < i.QB || j.RB < i.RB {
		return false
	}
	skew := (j.RB - i.RB) - (j.QB - i.QB)
	if skew < 0 {
		skew = -skew
	}
	return skew <= maxGap
}

// skewPenalty prices the diagonal skew accumulated between seeds i and j as
// an affine gap: gap_open + k*gap_extend, k = |skew|.
func skewPenalty(i, j region.AlnReg, opts Options) int {
	skew := (j.RB - i.RB) - (j.QB - i.QB)
	if skew < 0 {
		skew = -skew
	}
	if skew == 0 {
		return 0
	}
	return opts.GapOpen + skew*opts.GapExtend
}

// Build clusters seeds of a single direction into an ordered list of
// chains, highest score first, via the DP-plus-greedy-peel procedure of
// spec §4.6. seeds is consumed destructively (sorted in place); callers
// that need the original order should pass a copy.
func Build(seeds []region.AlnReg, opts Options) []region.Chain {
	if opts.MaxChainGap <= 0 {
		opts.MaxChainGap = DefaultMaxChainGap
	}
	if opts.PeelRatio <= 0 {
		opts.PeelRatio = DefaultPeelRatio
	}
	if opts.GapOpen <= 0 {
		opts.GapOpen = DefaultGapOpen
	}
	if opts.GapExtend <= 0 {
		opts.GapExtend = DefaultGapExtend
	}
	n := len(seeds)
	if n == 0 {
		return nil
	}
	sort.Slice(seeds, func(a, b int) bool {
		if seeds[a].QB != seeds[b].QB {
			return seeds[a].QB < seeds[b].QB
		}
		return seeds[a].RB < seeds[b].RB
	})

	used := make([]bool, n)
	var chains []region.Chain
	var bestChainScore int

	for {
		best, pred := runDP(seeds, used, opts)
		bestIdx, bestScore := -1, 0
		for i, s := range best {
			if !used[i] && s > bestScore {
				bestScore, bestIdx = s, i
			}
		}
		if bestIdx < 0 {
			break
		}
		if len(chains) > 0 && float64(bestScore) < opts.PeelRatio*float64(bestChainScore) {
			break
		}

		var idxs []int
		for i := bestIdx; i != -1; i = pred[i] {
			idxs = append(idxs, i)
		}
		// idxs is in reverse (tail to head); the loop below undoes that
		// while also marking every member seed used.
		c := region.Chain{Forward: seeds[idxs[len(idxs)-1]].Forward, Score: bestScore}
		for k := len(idxs) - 1; k >= 0; k-- {
			i := idxs[k]
			used[i] = true
			c.Seeds = append(c.Seeds, seeds[i])
		}
		c.QB, c.QE = c.Seeds[0].QB, c.Seeds[0].QE
		c.RB, c.RE = c.Seeds[0].RB, c.Seeds[0].RE
		for _, s := range c.Seeds[1:] {
			if s.QB < c.QB {
				c.QB = s.QB
			}
			if s.QE > c.QE {
				c.QE = s.QE
			}
			if s.RB < c.RB {
				c.RB = s.RB
			}
			if s.RE > c.RE {
				c.RE = s.RE
			}
		}
		if len(chains) == 0 {
			bestChainScore = bestScore
		}
		chains = append(chains, c)
	}

	sort.SliceStable(chains, func(a, b int) bool { return chains[a].Score > chains[b].Score })
	return chains
}

// runDP computes, over the not-yet-used seeds, best[i] = the highest-
// scoring chain ending at seed i, and pred[i] = its predecessor index (or
// -1). Seeds already marked used are skipped entirely (score 0, no
// predecessor), implementing the "greedy peel: mark its seeds used, rerun
// DP ignoring used seeds" step of spec §4.6.
func runDP(seeds []region.AlnReg, used []bool, opts Options) (best []int, pred []int) {
	n := len(seeds)
	best = make([]int, n)
	pred = make([]int, n)
	for i := range pred {
		pred[i] = -1
	}
	for i := 0; i < n; i++ {
		if used[i] {
			continue
		}
		best[i] = seeds[i].Weight
		for j := 0; j < i; j++ {
			if used[j] {
				continue
			}
			if seeds[i].Forward != seeds[j].Forward {
				continue
			}
			if !compatible(seeds[j], seeds[i], opts.MaxChainGap) {
				continue
			}
			cand := best[j] + seeds[i].Weight - skewPenalty(seeds[j], seeds[i], opts)
			if cand > best[i] {
				best[i] = cand
				pred[i] = j
			}
		}
	}
	return best, pred
}
