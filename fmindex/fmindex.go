// Package fmindex implements the compressed self-index over a concatenated
// reference text: suffix array construction, BWT derivation, the C-table and
// blocked Occ samples, backward search, and suffix-array position recovery.
// It is grounded on grailbio/bio's magic-prefixed, length-prefixed binary
// persistence style (see encoding/bam's .gbai format and
// encoding/pam/pamutil's ShardIndexMagic constant), adapted here to the
// wire layout fixed by this project's index file format.
package fmindex

import (
	"github.com/kelpbio/bwago/alphabet"
	"github.com/pkg/errors"
)

// DefaultBlockSize is the default Occ sampling interval B, a power of two.
const DefaultBlockSize = 64

// DefaultSASampleRate is the default suffix-array sampling rate s (1 means
// the full array is stored).
const DefaultSASampleRate = 1

// Metadata carries optional build provenance. A nil Metadata means the
// snapshot was built without it and is recorded as "no provenance" on disk
// (a single zero presence byte).
type Metadata struct {
	ReferencePath string
	CommandLine   string
	Timestamp     string
}

// FMIndex is the built, immutable index over a reference's concatenated,
// alphabet-encoded text. After construction or Load, every field is
// read-only and safe to share across alignment workers without locking.
type FMIndex struct {
	BlockSize    uint32
	SASampleRate uint32

	C   [alphabet.Size]uint64
	BWT []alphabet.Symbol

	// OccSamples is flattened: OccSamples[blockIdx*alphabet.Size+c] holds
	// Occ(c, blockIdx*BlockSize).
	OccSamples []uint64

	// SASamples[i/SASampleRate] holds SA[i] for every i with i%SASampleRate
	// == 0.
	SASamples []uint32

	Contigs []Contig
	Text    []alphabet.Symbol

	Meta *Metadata
}

// Options configures Build.
type Options struct {
	BlockSize    uint32
	SASampleRate uint32
	Meta         *Metadata
}

// DefaultOptions returns the default block size and SA sample rate.
func DefaultOptions() Options {
	return Options{BlockSize: DefaultBlockSize, SASampleRate: DefaultSASampleRate}
}

// Build constructs an FM-index over ref's concatenated text.
func Build(ref *Reference, opts Options) (*FMIndex, error) {
	f, err := buildFromText(ref.Text, opts)
	if err != nil {
		return nil, err
	}
	f.Contigs = ref.Contigs
	return f, nil
}

// BuildTextOnly builds an FM-index over a raw encoded text with no contig
// directory. It backs the seed package's auxiliary reverse-text index (see
// seed.NewBiIndex): that index is only ever queried through BackwardSearch
// and ExtendBySymbol to test interval width during SMEM extension, never
// through SAIntervalPositions or Locate, so it has no use for a contig
// directory.
func BuildTextOnly(text []alphabet.Symbol, opts Options) (*FMIndex, error) {
	return buildFromText(text, opts)
}

func buildFromText(text []alphabet.Symbol, opts Options) (*FMIndex, error) {
	if opts.BlockSize == 0 {
		opts.BlockSize = DefaultBlockSize
	}
	if opts.SASampleRate == 0 {
		opts.SASampleRate = DefaultSASampleRate
	}
	if opts.BlockSize&(opts.BlockSize-1) != 0 {
		return nil, errors.Errorf("block size %d is not a power of two", opts.BlockSize)
	}
	n := len(text)
	if n == 0 {
		return nil, errors.New("cannot build an FM-index over an empty text")
	}
	if text[n-1] != alphabet.Sentinel {
		return nil, errors.New("encoded text must end in the sentinel symbol")
	}

	sa := BuildSuffixArray(text)
	bwt := BuildBWT(text, sa)
	c := buildCTable(bwt)
	occ := buildOccSamples(bwt, opts.BlockSize)
	saSamples := buildSASamples(sa, opts.SASampleRate)

	return &FMIndex{
		BlockSize:    opts.BlockSize,
		SASampleRate: opts.SASampleRate,
		C:            c,
		BWT:          bwt,
		OccSamples:   occ,
		SASamples:    saSamples,
		Text:         text,
		Meta:         opts.Meta,
	}, nil
}

// ReverseText returns a new slice holding text[:n-1] (the text without its
// final terminal sentinel) reversed, with a single terminal sentinel
// appended. Used to build the auxiliary reverse-text index that makes
// right-extension during SMEM search (seed.NewBiIndex) a sequence of
// ordinary backward-search steps, the same way left-extension is on the
// forward index. The interior sentinels that separated contigs in text end
// up reversed along with everything else, which is harmless: this index is
// never used for position recovery or contig attribution, only to bound SA
// interval widths during extension.
func ReverseText(text []alphabet.Symbol) []alphabet.Symbol {
	n := len(text)
	out := make([]alphabet.Symbol, n)
	out[n-1] = alphabet.Sentinel
	for i := 0; i < n-1; i++ {
		out[n-2-i] = text[i]
	}
	return out
}

// Len returns n, the length of the encoded text (including all sentinels).
func (f *FMIndex) Len() int { return len(f.BWT) }

func buildCTable(bwt []alphabet.Symbol) [alphabet.Size]uint64 {
	var freq [alphabet.Size]uint64
	for _, s := range bwt {
		freq[s]++
	}
	var c [alphabet.Size]uint64
	var cum uint64
	for s := 0; s < alphabet.Size; s++ {
		c[s] = cum
		cum += freq[s]
	}
	return c
}

func buildOccSamples(bwt []alphabet.Symbol, blockSize uint32) []uint64 {
	n := len(bwt)
	b := int(blockSize)
	numBlocks := n/b + 1
	samples := make([]uint64, numBlocks*alphabet.Size)
	var running [alphabet.Size]uint64
	for i := 0; i <= n; i++ {
		if i%b == 0 {
			blockIdx := i / b
			copy(samples[blockIdx*alphabet.Size:(blockIdx+1)*alphabet.Size], running[:])
		}
		if i < n {
			running[bwt[i]]++
		}
	}
	return samples
}

func buildSASamples(sa []int32, rate uint32) []uint32 {
	n := len(sa)
	s := int(rate)
	numSamples := (n + s - 1) / s
	samples := make([]uint32, numSamples)
	for i := 0; i < n; i += s {
		samples[i/s] = uint32(sa[i])
	}
	return samples
}

// occ returns Occ(c, k): the number of occurrences of c in BWT[0..k). It
// reads the nearest block sample at or below k and scans at most BlockSize
// symbols forward.
func (f *FMIndex) occ(c alphabet.Symbol, k int) uint64 {
	if k <= 0 {
		return 0
	}
	b := int(f.BlockSize)
	blockIdx := k / b
	blockStart := blockIdx * b
	count := f.OccSamples[blockIdx*alphabet.Size+int(c)]
	for i := blockStart; i < k; i++ {
		if f.BWT[i] == c {
			count++
		}
	}
	return count
}

// Occ returns Occ(c, k): the number of occurrences of c in BWT[0..k). It is
// the exported form of occ, for callers (tests, other packages) that need
// direct rank queries without going through backward search.
func (f *FMIndex) Occ(c alphabet.Symbol, k int) uint64 { return f.occ(c, k) }

// ExtendBySymbol performs one backward-search step, narrowing the SA
// interval [l, r) by prepending symbol c to the matched pattern. It returns
// ok=false if the resulting interval is empty.
func (f *FMIndex) ExtendBySymbol(l, r int, c alphabet.Symbol) (nl, nr int, ok bool) {
	cl := f.C[c] + f.occ(c, l)
	cr := f.C[c] + f.occ(c, r)
	if cl >= cr {
		return 0, 0, false
	}
	return int(cl), int(cr), true
}

// BackwardSearch returns the SA interval [l, r) of all occurrences of
// pattern, or ok=false if pattern does not occur in the reference.
func (f *FMIndex) BackwardSearch(pattern []alphabet.Symbol) (l, r int, ok bool) {
	l, r = 0, f.Len()
	for i := len(pattern) - 1; i >= 0; i-- {
		l, r, ok = f.ExtendBySymbol(l, r, pattern[i])
		if !ok {
			return 0, 0, false
		}
	}
	return l, r, true
}

// saValue resolves SA[i] to a text position, LF-walking from i until a
// sampled row is reached if the SA isn't fully materialized.
func (f *FMIndex) saValue(i int) int {
	n := f.Len()
	s := int(f.SASampleRate)
	steps := 0
	for i%s != 0 {
		c := f.BWT[i]
		i = int(f.C[c]) + int(f.occ(c, i))
		steps++
	}
	pos := int64(f.SASamples[i/s]) + int64(steps)
	return int(pos % int64(n))
}

// SAIntervalPositions expands the SA interval [l, r) into the r-l distinct
// text positions it represents.
func (f *FMIndex) SAIntervalPositions(l, r int) []int {
	positions := make([]int, 0, r-l)
	for i := l; i < r; i++ {
		positions = append(positions, f.saValue(i))
	}
	return positions
}

// SAIntervalPositionsUpTo is SAIntervalPositions, but stops once cap
// positions have been produced: only the first cap rows of [l, r) are
// expanded.
func (f *FMIndex) SAIntervalPositionsUpTo(l, r, cap int) []int {
	if r-l > cap {
		r = l + cap
	}
	return f.SAIntervalPositions(l, r)
}
