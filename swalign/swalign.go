// Package swalign implements banded affine-gap local Smith-Waterman
// extension (spec §4.8): three DP matrices (H, E, F) scored over a
// diagonal band, traceback to a CIGAR and edit distance, and a reusable
// scratch buffer so a worker's per-read extensions don't reallocate.
//
// The flat row-major scoring array and explicit traceback-direction
// bookkeeping are grounded on grailbio/bio's util.matrix /
// util.Levenshtein (util/distance.go): a plain []int row-major buffer
// addressed by a helper, with a small enum of traversal directions
// (diagonal/up/left) recorded per cell and walked backward to recover an
// edit script. This package generalizes that to a banded, affine-gap,
// local (rather than full, linear-gap, global) DP.
package swalign

import (
	"github.com/biogo/hts/sam"
	"github.com/kelpbio/bwago/alphabet"
)

// negInf stands in for -infinity for DP cells outside the band; it is far
// enough from zero that no valid path can ever make it competitive, but
// finite so ordinary integer arithmetic doesn't overflow.
const negInf = -(1 << 30)

// Params holds the scoring and banding configuration for Extend.
type Params struct {
	Match      int
	Mismatch   int
	GapOpen    int
	GapExtend  int
	Band       int
	BandMax    int
	ScoreFloor int
}

// DefaultParams returns the spec's default scoring parameters. Band is not
// given a specific numeric default in the running text of the
// specification (only the re-extension ceiling BandMax=512 is named); 100
// is chosen here as generous enough for short-read indel sizes while
// keeping the DP cheap, and is a documented implementation choice (see
// DESIGN.md).
func DefaultParams() Params {
	return Params{
		Match:      1,
		Mismatch:   4,
		GapOpen:    6,
		GapExtend:  1,
		Band:       100,
		BandMax:    512,
		ScoreFloor: 30,
	}
}

// Result is the outcome of one banded extension.
type Result struct {
	Score      int
	Cigar      sam.Cigar
	NM         int
	QueryStart int // 0-based offset into query at which the alignment begins
	QueryEnd   int // 0-based, exclusive
	RefStart   int // 0-based offset into the reference window
	RefEnd     int // 0-based, exclusive
}

const (
	dirNone byte = iota
	dirZero      // this H cell took the "local restart" branch (score 0)
	dirDiag
	dirUp   // from H/F at (i-1, j): consumes query only (insertion)
	dirLeft // from H/E at (i, j-1): consumes reference only (deletion)
)

// Workspace holds the DP scratch reused across Extend calls by one
// alignment worker, per spec §9 "per-worker scratch reuse": slices are
// grown, never reallocated once large enough.
type Workspace struct {
	h, e, f []int
	trace   []byte
	rows    int // current capacity: number of query rows (m+1)
	width   int // current capacity: 2*band+1
}

// NewWorkspace returns an empty, lazily-sized Workspace.
func NewWorkspace() *Workspace { return &Workspace{} }

func (w *Workspace) ensure(rows, band int) {
	width := 2*band + 1
	need := rows * width
	if cap(w.h) < need {
		w.h = make([]int, need)
		w.e = make([]int, need)
		w.f = make([]int, need)
		w.trace = make([]byte, need)
	} else {
		w.h = w.h[:need]
		w.e = w.e[:need]
		w.f = w.f[:need]
		w.trace = w.trace[:need]
	}
	w.rows = rows
	w.width = width
}

// idx maps (row i, band offset c) to a flat index. offset c corresponds to
// absolute column j = i - band + c; the key banded-DP identity this
// package relies on is that moving diagonally (i-1,j-1) keeps c the same,
// moving "up" (i-1,j) increases c by one, and moving "left" (i,j-1)
// decreases c by one — see Extend's recurrence.
func (w *Workspace) idx(i, c int) int { return i*w.width + c }

// score returns the substitution score between query symbol a and
// reference symbol b, where either alphabet.N disables scoring (§4.8: "N
// disables scoring").
func score(a, b alphabet.Symbol, match, mismatch int) int {
	if a == alphabet.N || b == alphabet.N {
		return 0
	}
	if a == b {
		return match
	}
	return -mismatch
}

// Extend computes the optimal local banded affine-gap alignment of query
// against ref (both already alphabet-encoded symbol slices), per spec §4.8.
// ok is false if the best score found is below params.ScoreFloor. If the
// best-scoring cell lies on the edge of the band and the query was not
// fully consumed, Extend automatically retries with a doubled band (up to
// BandMax) before giving up, per §4.8's "driver may re-extend with 2W up to
// a hard cap W_max" allowance.
func Extend(ws *Workspace, query, ref []alphabet.Symbol, p Params) (Result, bool) {
	band := p.Band
	if band <= 0 {
		band = DefaultParams().Band
	}
	bandMax := p.BandMax
	if bandMax <= 0 {
		bandMax = DefaultParams().BandMax
	}
	for {
		res, ok, clipped := extendBanded(ws, query, ref, p, band)
		if !clipped || band >= bandMax {
			return res, ok
		}
		band *= 2
		if band > bandMax {
			band = bandMax
		}
	}
}

func extendBanded(ws *Workspace, query, ref []alphabet.Symbol, p Params, band int) (res Result, ok bool, clipped bool) {
	m, n := len(query), len(ref)
	ws.ensure(m+1, band)

	for i := range ws.h {
		ws.h[i], ws.e[i], ws.f[i] = negInf, negInf, negInf
		ws.trace[i] = dirNone
	}

	bestH, bestI, bestJ := 0, 0, 0
	for i := 0; i <= m; i++ {
		loJ, hiJ := i-band, i+band
		if loJ < 0 {
			loJ = 0
		}
		if hiJ > n {
			hiJ = n
		}
		for j := loJ; j <= hiJ; j++ {
			c := j - i + band
			if c < 0 || c >= ws.width {
				continue
			}
			idx := ws.idx(i, c)

			// E[i,j]: gap in the query (reference advances alone),
			// consumes reference only -> CIGAR 'D'.
			eVal := negInf
			if j > 0 && c-1 >= 0 {
				left := ws.idx(i, c-1)
				if ws.h[left] > negInf {
					if v := ws.h[left] - p.GapOpen - p.GapExtend; v > eVal {
						eVal = v
					}
				}
				if ws.e[left] > negInf {
					if v := ws.e[left] - p.GapExtend; v > eVal {
						eVal = v
					}
				}
			}
			ws.e[idx] = eVal

			// F[i,j]: gap in the reference (query advances alone),
			// consumes query only -> CIGAR 'I'.
			fVal := negInf
			if i > 0 && c+1 < ws.width {
				up := ws.idx(i-1, c+1)
				if ws.h[up] > negInf {
					if v := ws.h[up] - p.GapOpen - p.GapExtend; v > fVal {
						fVal = v
					}
				}
				if ws.f[up] > negInf {
					if v := ws.f[up] - p.GapExtend; v > fVal {
						fVal = v
					}
				}
			}
			ws.f[idx] = fVal

			hVal, dir := 0, dirZero
			if i > 0 && j > 0 {
				diag := ws.idx(i-1, c)
				if ws.h[diag] > negInf {
					s := score(query[i-1], ref[j-1], p.Match, p.Mismatch)
					if v := ws.h[diag] + s; v > hVal {
						hVal, dir = v, dirDiag
					}
				}
			}
			// Ties break diagonal > up > left, so check up (F) before left
			// (E): an up/left tie then leaves dir on dirUp rather than
			// overwriting it with dirLeft.
			if fVal > hVal {
				hVal, dir = fVal, dirUp
			}
			if eVal > hVal {
				hVal, dir = eVal, dirLeft
			}
			ws.h[idx] = hVal
			ws.trace[idx] = dir

			if hVal > bestH {
				bestH, bestI, bestJ = hVal, i, j
			}
		}
	}

	if bestH < p.ScoreFloor {
		return Result{}, false, false
	}

	cigar, nm, qStart, rStart := traceback(ws, query, ref, band, bestI, bestJ)
	res = Result{
		Score:      bestH,
		Cigar:      cigar,
		NM:         nm,
		QueryStart: qStart,
		QueryEnd:   bestI,
		RefStart:   rStart,
		RefEnd:     bestJ,
	}

	// The alignment is "clipped" by the band if the best cell's diagonal
	// offset sits on the band edge and the query was not fully consumed:
	// widening the band might let it extend further.
	edgeC := bestJ - bestI + band
	onEdge := edgeC <= 0 || edgeC >= ws.width-1
	clipped = onEdge && bestI < m
	return res, true, clipped
}

// traceback walks the stored direction codes backward from (i,j),
// coalescing runs of the same CIGAR operation, and returns the CIGAR (with
// leading/trailing soft clips for unaligned query), NM, and the query/ref
// offsets at which the traced alignment begins.
func traceback(ws *Workspace, query, ref []alphabet.Symbol, band, endI, endJ int) (sam.Cigar, int, int, int) {
	type op struct {
		t byte // 'M', 'I', 'D'
		n int
	}
	var ops []op
	nm := 0
	i, j := endI, endJ

	push := func(t byte) {
		if len(ops) > 0 && ops[len(ops)-1].t == t {
			ops[len(ops)-1].n++
		} else {
			ops = append(ops, op{t: t, n: 1})
		}
	}

loop:
	for i > 0 || j > 0 {
		c := j - i + band
		if c < 0 || c >= ws.width {
			break
		}
		switch ws.trace[ws.idx(i, c)] {
		case dirZero, dirNone:
			break loop
		case dirDiag:
			if query[i-1] != ref[j-1] {
				nm++
			}
			push('M')
			i--
			j--
		case dirUp:
			push('I')
			nm++
			i--
		case dirLeft:
			push('D')
			nm++
			j--
		}
	}
	// ops was built traversing backward; reverse it.
	for l, r := 0, len(ops)-1; l < r; l, r = l+1, r-1 {
		ops[l], ops[r] = ops[r], ops[l]
	}

	cigar := make(sam.Cigar, 0, len(ops)+2)
	if i > 0 {
		cigar = append(cigar, sam.NewCigarOp(sam.CigarSoftClipped, i))
	}
	for _, o := range ops {
		var t sam.CigarOpType
		switch o.t {
		case 'M':
			t = sam.CigarMatch
		case 'I':
			t = sam.CigarInsertion
		case 'D':
			t = sam.CigarDeletion
		}
		cigar = append(cigar, sam.NewCigarOp(t, o.n))
	}
	if trailing := len(query) - endI; trailing > 0 {
		cigar = append(cigar, sam.NewCigarOp(sam.CigarSoftClipped, trailing))
	}
	return cigar, nm, i, j
}
