// Package alphabet implements the fixed 6-symbol integer alphabet used
// throughout bwago's index and alignment core: $=0, A=1, C=2, G=3, T=4, N=5.
// '$' is the sentinel used to terminate the concatenated reference text and
// to separate contigs within it.
//
// The lookup-table technique used by Encode/Decode/ReverseComplement mirrors
// the byte-table approach grailbio/bio's biosimd package uses for
// reverse-complementing raw ASCII sequence (see biosimd.ReverseComp8Inplace);
// here it is specialized to the aligner's small integer alphabet rather than
// vectorized ASCII.
package alphabet

// Symbol is one of the six alphabet codes.
type Symbol byte

const (
	Sentinel Symbol = 0
	A        Symbol = 1
	C        Symbol = 2
	G        Symbol = 3
	T        Symbol = 4
	N        Symbol = 5

	// Size is the number of symbols in the alphabet, i.e. sigma.
	Size = 6
)

// encodeTable maps every possible input byte (case-folded A/C/G/T/U and
// everything else) to its Symbol. Built once at init time so Encode is a
// single array lookup.
var encodeTable [256]Symbol

func init() {
	for i := range encodeTable {
		encodeTable[i] = N
	}
	set := func(b byte, s Symbol) {
		encodeTable[b] = s
		encodeTable[lower(b)] = s
	}
	set('A', A)
	set('C', C)
	set('G', G)
	set('T', T)
	set('U', T)
}

func lower(b byte) byte {
	if b >= 'A' && b <= 'Z' {
		return b + ('a' - 'A')
	}
	return b
}

// decodeTable maps a Symbol back to its canonical uppercase byte.
var decodeTable = [Size]byte{'$', 'A', 'C', 'G', 'T', 'N'}

// complementTable maps a Symbol to the Symbol of its Watson-Crick
// complement; N and the sentinel complement to themselves.
var complementTable = [Size]Symbol{Sentinel, T, G, C, A, N}

// Normalize upper-cases an ASCII base letter and folds U to T; any byte that
// is not A/C/G/T/U (case-insensitive) normalizes to 'N'.
func Normalize(b byte) byte {
	return decodeTable[encodeTable[b]]
}

// Encode maps an input byte to its alphabet Symbol (1..5). It never returns
// Sentinel: that code is reserved for contig separators and the text
// terminator, which the caller inserts explicitly.
func Encode(b byte) Symbol {
	s := encodeTable[b]
	if s == Sentinel {
		return N
	}
	return s
}

// Decode maps a Symbol back to its canonical ASCII byte.
func Decode(s Symbol) byte {
	return decodeTable[s&7]
}

// NormalizeSeq rewrites seq in place to its normalized ASCII form (see
// Normalize), leaving the slice the same length.
func NormalizeSeq(seq []byte) {
	for i, b := range seq {
		seq[i] = decodeTable[encodeTable[b]]
	}
}

// EncodeSeq returns the alphabet-encoded form of an ASCII base sequence. The
// sentinel symbol is never produced.
func EncodeSeq(seq []byte) []Symbol {
	out := make([]Symbol, len(seq))
	for i, b := range seq {
		out[i] = Encode(b)
	}
	return out
}

// DecodeSeq returns the ASCII form of an alphabet-encoded sequence.
func DecodeSeq(seq []Symbol) []byte {
	out := make([]byte, len(seq))
	for i, s := range seq {
		out[i] = Decode(s)
	}
	return out
}

// Complement returns the Watson-Crick complement of a single symbol; N and
// the sentinel complement to themselves.
func Complement(s Symbol) Symbol {
	return complementTable[s&7]
}

// ReverseComplement returns the reverse complement of an alphabet-encoded
// sequence, allocating a new slice.
func ReverseComplement(seq []Symbol) []Symbol {
	n := len(seq)
	out := make([]Symbol, n)
	for i, s := range seq {
		out[n-1-i] = Complement(s)
	}
	return out
}

// ReverseComplementASCII returns the reverse complement of an ASCII base
// sequence (any of A/C/G/T/U/N, case-insensitive); non-ACGTUN bytes map to
// 'N'.
func ReverseComplementASCII(seq []byte) []byte {
	n := len(seq)
	out := make([]byte, n)
	for i := 0; i < n; i++ {
		out[n-1-i] = Decode(Complement(Encode(seq[i])))
	}
	return out
}
