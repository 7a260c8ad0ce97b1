package fmindex

import (
	"sort"

	"github.com/kelpbio/bwago/alphabet"
)

// BuildSuffixArray computes the suffix array of text by prefix doubling:
// rank[i] starts as the symbol at i, and at each step k = 1, 2, 4, ... the
// suffixes are sorted by the pair (rank[i], rank[i+k] or -1 past the end)
// and re-ranked, until ranks are fully distinct. This is O(n log^2 n),
// acceptable for references up to low tens of megabases; SA-IS is a valid
// drop-in replacement as long as it produces the identical array.
//
// The terminal sentinel (alphabet.Sentinel, the smallest symbol) guarantees
// SA[0] is the position of the last '$', and the distinct tails following
// every other in-text sentinel give those suffixes distinct ranks as soon as
// k >= 1, so no special-casing is needed for the multi-sentinel case.
func BuildSuffixArray(text []alphabet.Symbol) []int32 {
	n := len(text)
	sa := make([]int32, n)
	rank := make([]int32, n)
	next := make([]int32, n)
	for i := 0; i < n; i++ {
		sa[i] = int32(i)
		rank[i] = int32(text[i])
	}
	rankAt := func(i, k int) int32 {
		if i+k < n {
			return rank[i+k]
		}
		return -1
	}
	less := func(a, b int32, k int) bool {
		if rank[a] != rank[b] {
			return rank[a] < rank[b]
		}
		return rankAt(int(a), k) < rankAt(int(b), k)
	}
	for k := 1; ; k *= 2 {
		kk := k
		sort.Slice(sa, func(i, j int) bool { return less(sa[i], sa[j], kk) })
		next[sa[0]] = 0
		distinct := true
		for i := 1; i < n; i++ {
			next[sa[i]] = next[sa[i-1]]
			if less(sa[i-1], sa[i], kk) {
				next[sa[i]]++
			} else {
				distinct = false
			}
		}
		copy(rank, next)
		if distinct || k >= n {
			break
		}
	}
	return sa
}
