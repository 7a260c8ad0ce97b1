package align

import (
	"github.com/grailbio/base/traverse"
	"github.com/kelpbio/bwago/fmindex"
	"github.com/kelpbio/bwago/seed"
)

// Read is one query sequence to align: a name, its bases, and (optionally)
// its Phred+33 quality string (empty if the source had none).
type Read struct {
	Name string
	Seq  []byte
	Qual []byte
}

// AlignBatch aligns every read in batch, using up to parallelism concurrent
// workers, and returns one Outcome per read in batch's original order.
// Sharding work round-robin across a fixed number of jobs (rather than one
// traverse.Each task per read) follows pileup/snp/pileup.go's worker model:
// each job owns exactly one Workspace, reused across every read that job
// processes, instead of allocating DP/seed/chain scratch per read.
func AlignBatch(bi *seed.BiIndex, ref *fmindex.Reference, batch []Read, opts Options, parallelism int) []Outcome {
	if parallelism <= 0 {
		parallelism = 1
	}
	if parallelism > len(batch) {
		parallelism = len(batch)
	}
	out := make([]Outcome, len(batch))
	if parallelism == 0 {
		return out
	}
	traverse.Each(parallelism, func(jobIdx int) error { // nolint: errcheck
		ws := NewWorkspace()
		for i := jobIdx; i < len(batch); i += parallelism {
			out[i] = AlignRead(bi, ref, ws, batch[i].Name, batch[i].Seq, opts)
		}
		return nil
	})
	return out
}
