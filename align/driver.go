// Package align implements the per-read alignment driver (spec §4.9): runs
// SMEM seeding, chaining, chain filtering, and banded Smith-Waterman
// extension over both strands of a read, then deduplicates, ranks, and
// assigns MAPQ to the surviving candidates.
package align

import (
	"sort"

	"github.com/biogo/hts/sam"
	"github.com/kelpbio/bwago/alphabet"
	"github.com/kelpbio/bwago/chain"
	"github.com/kelpbio/bwago/fmindex"
	"github.com/kelpbio/bwago/region"
	"github.com/kelpbio/bwago/seed"
	"github.com/kelpbio/bwago/swalign"
)

// DefaultPad is the amount of reference sequence padded on each side of a
// chain's reference span before Smith-Waterman extension, per spec §4.8
// ("a reference window ... derived from a chain's [rb, re) expanded by
// padding L on each side, clamped to contig bounds").
const DefaultPad = 50

// DefaultMaxSecondary is the maximum number of secondary alignments
// reported per read (spec §4.9).
const DefaultMaxSecondary = 10

// Options configures AlignRead.
type Options struct {
	Seed         seed.Options
	Chain        chain.Options
	OverlapRatio float64
	SW           swalign.Params
	Pad          int
	MaxSecondary int
}

// DefaultOptions returns every stage's spec-default parameters.
func DefaultOptions() Options {
	return Options{
		Seed:         seed.DefaultOptions(),
		Chain:        chain.DefaultOptions(),
		OverlapRatio: chain.DefaultOverlapRatio,
		SW:           swalign.DefaultParams(),
		Pad:          DefaultPad,
		MaxSecondary: DefaultMaxSecondary,
	}
}

// Alignment is one reported alignment for a read: either the primary or one
// of its secondaries.
type Alignment struct {
	Contig    string
	Pos       uint64 // 0-based offset within Contig
	Reverse   bool
	Secondary bool
	MAPQ      int
	Score     int
	NM        int
	Cigar     sam.Cigar
}

// Outcome is the full result of aligning one read.
type Outcome struct {
	ReadName string
	Mapped   bool
	// Alignments[0] is the primary alignment when Mapped is true; the rest
	// are secondaries, already sorted best-first.
	Alignments []Alignment
	// SecondScore is s2 from spec §4.9 step 5: the best non-duplicate
	// secondary score, or the SW score floor if none exists. Every emitted
	// record's XS:i tag carries this same value, per §4.10.
	SecondScore int
}

// AlignRead runs the full per-read pipeline (spec §4.9) and returns its
// outcome. ws is the calling worker's reusable scratch; bi and ref are
// shared, read-only across all workers.
func AlignRead(bi *seed.BiIndex, ref *fmindex.Reference, ws *Workspace, name string, seq []byte, opts Options) Outcome {
	if len(seq) == 0 {
		return Outcome{ReadName: name, Mapped: false}
	}
	fwdQ, rcQ := ws.encode(seq)

	var candidates []region.AlnReg
	candidates = append(candidates, searchStrand(bi, ref, ws, fwdQ, true, opts)...)
	candidates = append(candidates, searchStrand(bi, ref, ws, rcQ, false, opts)...)

	candidates = dedupCandidates(candidates)
	if len(candidates) == 0 {
		return Outcome{ReadName: name, Mapped: false}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.NM != b.NM {
			return a.NM < b.NM
		}
		if a.RB != b.RB {
			return a.RB < b.RB
		}
		return a.Forward && !b.Forward
	})

	maxSecondary := opts.MaxSecondary
	if maxSecondary <= 0 {
		maxSecondary = DefaultMaxSecondary
	}
	if len(candidates) > 1+maxSecondary {
		candidates = candidates[:1+maxSecondary]
	}

	s1 := candidates[0].Score
	s2 := opts.SW.ScoreFloor
	if len(candidates) > 1 {
		s2 = candidates[1].Score
	}
	q := mapq(s1, s2, len(candidates) == 1)

	out := Outcome{ReadName: name, Mapped: true, SecondScore: s2}
	for i, c := range candidates {
		contig, pos, err := ref.Locate(uint64(c.RB))
		if err != nil {
			// A candidate whose start position falls on a sentinel
			// (Locate finds no contig for it) is dropped rather than
			// reported with a bogus position.
			continue
		}
		out.Alignments = append(out.Alignments, Alignment{
			Contig:    contig.Name,
			Pos:       pos,
			Reverse:   !c.Forward,
			Secondary: i > 0,
			MAPQ:      q,
			Score:     c.Score,
			NM:        c.NM,
			Cigar:     c.Cigar,
		})
	}
	if len(out.Alignments) == 0 {
		return Outcome{ReadName: name, Mapped: false}
	}
	return out
}

// searchStrand runs seeding, chaining, chain filtering, and extension for a
// single strand's encoded query (spec §4.9 step 1), returning one candidate
// AlnReg per surviving chain that extends above the score floor.
func searchStrand(bi *seed.BiIndex, ref *fmindex.Reference, ws *Workspace, query []alphabet.Symbol, forward bool, opts Options) []region.AlnReg {
	seeds := seed.Find(bi, query, forward, opts.Seed)
	if len(seeds) == 0 {
		return nil
	}
	chains := chain.Build(seeds, opts.Chain)
	chains = chain.Filter(chains, opts.OverlapRatio)

	var out []region.AlnReg
	for _, c := range chains {
		cand, ok := extendChain(bi.Fwd, ref, ws, query, forward, c, opts)
		if ok {
			out = append(out, cand)
		}
	}
	return out
}

// extendChain builds a padded, contig-clamped reference window around a
// chain's reference span and runs banded Smith-Waterman extension over it,
// per spec §4.8-§4.9.
func extendChain(fwd *fmindex.FMIndex, ref *fmindex.Reference, ws *Workspace, query []alphabet.Symbol, forward bool, c region.Chain, opts Options) (region.AlnReg, bool) {
	pad := opts.Pad
	if pad <= 0 {
		pad = DefaultPad
	}
	contig, _, err := ref.Locate(uint64(c.RB))
	if err != nil {
		return region.AlnReg{}, false
	}
	lo := int(contig.Offset)
	hi := int(contig.Offset + contig.Length)
	winStart := c.RB - pad
	if winStart < lo {
		winStart = lo
	}
	winEnd := c.RE + pad
	if winEnd > hi {
		winEnd = hi
	}
	if winEnd <= winStart {
		return region.AlnReg{}, false
	}
	window := fwd.Text[winStart:winEnd]

	res, ok := swalign.Extend(ws.SW, query, window, opts.SW)
	if !ok {
		return region.AlnReg{}, false
	}
	return region.AlnReg{
		QB:      res.QueryStart,
		QE:      res.QueryEnd,
		RB:      winStart + res.RefStart,
		RE:      winStart + res.RefEnd,
		Forward: forward,
		Score:   res.Score,
		Cigar:   res.Cigar,
		NM:      res.NM,
	}, true
}
