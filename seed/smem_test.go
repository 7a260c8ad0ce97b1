package seed

import (
	"testing"

	"github.com/kelpbio/bwago/alphabet"
	"github.com/kelpbio/bwago/fmindex"
)

func encode(s string) []alphabet.Symbol { return alphabet.EncodeSeq([]byte(s)) }

func buildToyBiIndex(t *testing.T) *BiIndex {
	t.Helper()
	ref := &fmindex.Reference{}
	contigs := []struct{ name, seq string }{
		{"chr1", "ACGTACGTACGTACGT"},
		{"chr2", "AAAACCCCGGGGTTTT"},
		{"chr3", "GATTACAGATTACAGA"},
	}
	var offset uint64
	for _, c := range contigs {
		ref.Contigs = append(ref.Contigs, fmindex.Contig{Name: c.name, Length: uint64(len(c.seq)), Offset: offset})
		ref.Text = append(ref.Text, encode(c.seq)...)
		ref.Text = append(ref.Text, alphabet.Sentinel)
		offset += uint64(len(c.seq)) + 1
	}
	fwd, err := fmindex.Build(ref, fmindex.DefaultOptions())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	bi, err := NewBiIndex(fwd)
	if err != nil {
		t.Fatalf("NewBiIndex: %v", err)
	}
	return bi
}

func TestFindEmitsExactSubstrings(t *testing.T) {
	bi := buildToyBiIndex(t)
	query := encode("GATTACAGATTACAGA")
	seeds := Find(bi, query, true, Options{MinSeedLen: 8, MaxOcc: 500})
	if len(seeds) == 0 {
		t.Fatal("expected at least one seed")
	}
	for _, s := range seeds {
		if s.QE-s.QB < 8 {
			t.Errorf("seed shorter than MinSeedLen: %+v", s)
		}
		qsub := query[s.QB:s.QE]
		rsub := bi.Fwd.Text[s.RB:s.RE]
		if len(qsub) != len(rsub) {
			t.Fatalf("query/ref span length mismatch: %+v", s)
		}
		for i := range qsub {
			if qsub[i] != rsub[i] {
				t.Fatalf("seed %+v is not an exact substring: query=%v ref=%v", s, qsub, rsub)
			}
		}
		if !s.Forward {
			t.Errorf("expected Forward=true for all seeds in this call")
		}
	}
}

func TestFindRespectsMinSeedLen(t *testing.T) {
	bi := buildToyBiIndex(t)
	// A short, highly repetitive query: any exact match is too short to
	// pass a strict MinSeedLen.
	query := encode("AAAA")
	seeds := Find(bi, query, true, Options{MinSeedLen: 19, MaxOcc: 500})
	if len(seeds) != 0 {
		t.Errorf("expected no seeds with MinSeedLen=19 over a 4bp query, got %d", len(seeds))
	}
}

func TestFindDiscardsOverOccurringSeeds(t *testing.T) {
	bi := buildToyBiIndex(t)
	query := encode("AAA")
	seeds := Find(bi, query, true, Options{MinSeedLen: 2, MaxOcc: 1})
	// With MaxOcc=1, a seed with more than one occurrence must be discarded
	// entirely: "AAA" occurs twice inside chr2's AAAA run, so its SA
	// interval has width 2 and nothing should survive.
	if len(seeds) != 0 {
		t.Errorf("expected MaxOcc=1 to discard the repetitive AAA seed entirely, got %d seeds", len(seeds))
	}
}

func TestFindNoMatchReturnsEmpty(t *testing.T) {
	bi := buildToyBiIndex(t)
	query := encode("TTTTTTTTTTTTTTTT")
	// chr2 ends in "TTTT" (4bp) so a 16-mer of all T's cannot occur; with a
	// MinSeedLen above the longest run of T's nothing should be emitted.
	seeds := Find(bi, query, true, Options{MinSeedLen: 8, MaxOcc: 500})
	for _, s := range seeds {
		if s.QE-s.QB >= 8 {
			t.Errorf("unexpected long seed in all-T query: %+v", s)
		}
	}
}

func TestFindOnReverseComplementQuery(t *testing.T) {
	bi := buildToyBiIndex(t)
	// The read "TCTGTAATCTGTAATC" is revcomp("GATTACAGATTACAGA"); as in the
	// align driver, the reverse-strand search is given the read's reverse
	// complement, which matches chr3.
	query := alphabet.ReverseComplement(encode("TCTGTAATCTGTAATC"))
	seeds := Find(bi, query, false, Options{MinSeedLen: 8, MaxOcc: 500})
	if len(seeds) == 0 {
		t.Fatal("expected at least one seed for the revcomp query")
	}
	for _, s := range seeds {
		if s.Forward {
			t.Errorf("expected Forward=false, got true for %+v", s)
		}
	}
}
