package align

import (
	"encoding/binary"

	farm "github.com/dgryski/go-farm"
	"github.com/kelpbio/bwago/region"
)

// dedupPosTol is the position tolerance (bp) within which two candidates on
// the same strand are considered the same underlying alignment (spec
// §4.9.2).
const dedupPosTol = 8

// dedupBucketKey hashes a coarse (direction, position-bucket) pair into a
// bucket id, the same "hash a coarse key down to a shard/bucket" technique
// fusion/kmer_index.go uses farm.Hash64WithSeed for (there, sharding a kmer
// across a fixed hash table; here, grouping candidates that are cheap to
// compare directly instead of doing an O(n^2) scan across every surviving
// candidate of a read). Candidates whose reference positions round to
// adjacent buckets near a bucket boundary are still caught because bucket
// width is set to exactly dedupPosTol.
func dedupBucketKey(forward bool, refPos int) uint64 {
	var buf [9]byte
	if forward {
		buf[0] = 1
	}
	binary.LittleEndian.PutUint64(buf[1:], uint64(refPos/dedupPosTol))
	return farm.Hash64WithSeed(buf[:], 0)
}

// isDuplicate reports whether a and b refer to the same underlying
// alignment per spec §4.9.2: reference positions differ by <= 8bp and their
// query coverage differs by <= 8bp on each end.
func isDuplicate(a, b region.AlnReg) bool {
	if a.Forward != b.Forward {
		return false
	}
	dpos := a.RB - b.RB
	if dpos < 0 {
		dpos = -dpos
	}
	if dpos > dedupPosTol {
		return false
	}
	dqb := a.QB - b.QB
	if dqb < 0 {
		dqb = -dqb
	}
	dqe := a.QE - b.QE
	if dqe < 0 {
		dqe = -dqe
	}
	return dqb <= dedupPosTol && dqe <= dedupPosTol
}

// dedupCandidates removes duplicate candidates, keeping the higher-scoring
// member of each duplicate group. Candidates are first grouped by a coarse
// hash bucket (direction + position/dedupPosTol) so that only candidates
// near each other in reference space are ever compared, rather than every
// pair in the full candidate list.
func dedupCandidates(cands []region.AlnReg) []region.AlnReg {
	buckets := make(map[uint64][]int, len(cands))
	keyOf := make([]uint64, len(cands))
	for i, c := range cands {
		// Compare against this bucket and its immediate neighbors so a
		// candidate sitting just across a bucket boundary from its
		// duplicate is still found.
		key := dedupBucketKey(c.Forward, c.RB)
		keyOf[i] = key
		buckets[key] = append(buckets[key], i)
	}

	dropped := make([]bool, len(cands))
	for i := range cands {
		if dropped[i] {
			continue
		}
		neighborKeys := []uint64{
			keyOf[i],
			dedupBucketKey(cands[i].Forward, cands[i].RB-dedupPosTol),
			dedupBucketKey(cands[i].Forward, cands[i].RB+dedupPosTol),
		}
	scan:
		for _, nk := range neighborKeys {
			for _, j := range buckets[nk] {
				if j <= i || dropped[j] {
					continue
				}
				if !isDuplicate(cands[i], cands[j]) {
					continue
				}
				if cands[i].Score >= cands[j].Score {
					dropped[j] = true
				} else {
					dropped[i] = true
					break scan
				}
			}
		}
	}

	out := make([]region.AlnReg, 0, len(cands))
	for i, c := range cands {
		if !dropped[i] {
			out = append(out, c)
		}
	}
	return out
}
