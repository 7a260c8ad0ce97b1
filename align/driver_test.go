package align

import (
	"testing"

	"github.com/kelpbio/bwago/alphabet"
	"github.com/kelpbio/bwago/chain"
	"github.com/kelpbio/bwago/fmindex"
	"github.com/kelpbio/bwago/seed"
	"github.com/kelpbio/bwago/swalign"
)

func encode(s string) []byte { return []byte(s) }

// buildToyReferenceAndIndex builds the spec §8 toy reference: three 16bp
// contigs chr1/chr2/chr3.
func buildToyReferenceAndIndex(t *testing.T) (*fmindex.Reference, *seed.BiIndex) {
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
		ref.Text = append(ref.Text, alphabet.EncodeSeq([]byte(c.seq))...)
		ref.Text = append(ref.Text, alphabet.Sentinel)
		offset += uint64(len(c.seq)) + 1
	}
	fwd, err := fmindex.Build(ref, fmindex.DefaultOptions())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	bi, err := seed.NewBiIndex(fwd)
	if err != nil {
		t.Fatalf("NewBiIndex: %v", err)
	}
	return ref, bi
}

// toyOptions mirrors spec §8's "Concrete end-to-end scenarios" parameter
// overrides: match=+1, mismatch=-4, gap_open=-6, gap_extend=-1, band=16,
// min_seed_len=8.
func toyOptions() Options {
	opts := DefaultOptions()
	opts.Seed = seed.Options{MinSeedLen: 8, MaxOcc: 500}
	opts.Chain = chain.DefaultOptions()
	opts.SW = swalign.Params{Match: 1, Mismatch: 4, GapOpen: 6, GapExtend: 1, Band: 16, BandMax: 512, ScoreFloor: 10}
	return opts
}

func TestExactMatchAlignsToChr1(t *testing.T) {
	ref, bi := buildToyReferenceAndIndex(t)
	ws := NewWorkspace()
	out := AlignRead(bi, ref, ws, "r1", encode("ACGTACGTACGTACGT"), toyOptions())
	if !out.Mapped {
		t.Fatal("expected read to map")
	}
	p := out.Alignments[0]
	if p.Contig != "chr1" || p.Pos != 0 {
		t.Errorf("primary = %+v, want chr1:0", p)
	}
	if p.Reverse {
		t.Error("expected forward strand")
	}
	if p.NM != 0 {
		t.Errorf("NM = %d, want 0", p.NM)
	}
	if p.MAPQ != 60 {
		t.Errorf("MAPQ = %d, want 60 (sole candidate)", p.MAPQ)
	}
}

func TestSingleMismatchStillMaps(t *testing.T) {
	ref, bi := buildToyReferenceAndIndex(t)
	ws := NewWorkspace()
	out := AlignRead(bi, ref, ws, "r2", encode("ACGTACGTACGTACGA"), toyOptions())
	if !out.Mapped {
		t.Fatal("expected read to map despite one mismatch")
	}
	p := out.Alignments[0]
	if p.Contig != "chr1" {
		t.Errorf("contig = %q, want chr1", p.Contig)
	}
	if p.NM != 1 {
		t.Errorf("NM = %d, want 1", p.NM)
	}
}

func TestReverseComplementRead(t *testing.T) {
	ref, bi := buildToyReferenceAndIndex(t)
	ws := NewWorkspace()
	// revcomp("GATTACAGATTACAGA") = "TCTGTAATCTGTAATC"
	out := AlignRead(bi, ref, ws, "r5", encode("TCTGTAATCTGTAATC"), toyOptions())
	if !out.Mapped {
		t.Fatal("expected revcomp read to map")
	}
	p := out.Alignments[0]
	if p.Contig != "chr3" {
		t.Errorf("contig = %q, want chr3", p.Contig)
	}
	if !p.Reverse {
		t.Error("expected Reverse=true")
	}
	if p.NM != 0 {
		t.Errorf("NM = %d, want 0", p.NM)
	}
}

func TestUnrelatedReadIsUnmapped(t *testing.T) {
	ref, bi := buildToyReferenceAndIndex(t)
	ws := NewWorkspace()
	out := AlignRead(bi, ref, ws, "r6", encode("TTTTTTTTTTTTTTTT"), toyOptions())
	if out.Mapped {
		t.Errorf("expected unmapped, got %+v", out.Alignments)
	}
}

func TestEmptyReadIsUnmapped(t *testing.T) {
	ref, bi := buildToyReferenceAndIndex(t)
	ws := NewWorkspace()
	out := AlignRead(bi, ref, ws, "r0", nil, toyOptions())
	if out.Mapped {
		t.Error("expected empty read to be unmapped")
	}
}

func TestDeletionVariantCigarContainsD(t *testing.T) {
	ref, bi := buildToyReferenceAndIndex(t)
	ws := NewWorkspace()
	out := AlignRead(bi, ref, ws, "r3", encode("AGTACGTACGTACGT"), toyOptions())
	if !out.Mapped {
		t.Fatal("expected deletion-variant read to map")
	}
	hasD := false
	for _, op := range out.Alignments[0].Cigar {
		if op.Type().String() == "D" {
			hasD = true
		}
	}
	if !hasD {
		t.Errorf("expected a D op in cigar %v", out.Alignments[0].Cigar)
	}
}

func TestInsertionVariantCigarContainsI(t *testing.T) {
	ref, bi := buildToyReferenceAndIndex(t)
	ws := NewWorkspace()
	// spec §8 scenario 4: ACGTACGTAACGTACGT has one extra "A" inserted
	// after the first 9 bases of chr1, so it should still map at chr1:0
	// with a 1I in its CIGAR and NM=1.
	out := AlignRead(bi, ref, ws, "r4", encode("ACGTACGTAACGTACGT"), toyOptions())
	if !out.Mapped {
		t.Fatal("expected insertion-variant read to map")
	}
	p := out.Alignments[0]
	if p.Contig != "chr1" || p.Pos != 0 {
		t.Errorf("primary = %+v, want chr1:0", p)
	}
	hasI := false
	for _, op := range p.Cigar {
		if op.Type().String() == "I" {
			hasI = true
		}
	}
	if !hasI {
		t.Errorf("expected an I op in cigar %v", p.Cigar)
	}
	if p.NM != 1 {
		t.Errorf("NM = %d, want 1", p.NM)
	}
}
