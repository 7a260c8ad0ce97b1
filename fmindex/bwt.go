package fmindex

import "github.com/kelpbio/bwago/alphabet"

// BuildBWT derives the Burrows-Wheeler transform column from the text and
// its suffix array: BWT[i] = T[(SA[i] - 1) mod n]. A straight linear pass.
func BuildBWT(text []alphabet.Symbol, sa []int32) []alphabet.Symbol {
	n := len(text)
	bwt := make([]alphabet.Symbol, n)
	for i, s := range sa {
		pos := int(s) - 1
		if pos < 0 {
			pos += n
		}
		bwt[i] = text[pos]
	}
	return bwt
}
