// Package samrecord formats align.Outcome results as SAM text (spec
// §4.10): a header (@HD/@SQ/@PG) followed by one tab-delimited record per
// reported alignment. Record construction and CIGAR/FLAG formatting are
// delegated to github.com/biogo/hts/sam's Record/Header/Aux types — the
// same sam.NewReference/sam.NewHeader/sam.NewRecord/sam.NewAux calls the
// teacher's own encoding/bam and markduplicates packages use to build
// records before marshaling them, adapted here from BAM binary output to
// direct SAM text output since this repository never produces BAM.
package samrecord

import (
	"bufio"
	"fmt"
	"io"

	"github.com/biogo/hts/sam"
	"github.com/kelpbio/bwago/align"
	"github.com/kelpbio/bwago/alphabet"
	"github.com/kelpbio/bwago/fmindex"
	"github.com/pkg/errors"
)

var (
	asTag = sam.Tag{'A', 'S'}
	xsTag = sam.Tag{'X', 'S'}
	nmTag = sam.Tag{'N', 'M'}
)

// Header bundles the sam.Header reference directory built from a loaded
// index's contig list with the original, file-ordered contig slice (header
// line emission must preserve file order, per spec §4.10, which
// sam.Header's internal map-backed lookup does not guarantee).
type Header struct {
	contigs []fmindex.Contig
	refs    map[string]*sam.Reference
}

// NewHeader registers every contig as a sam.Reference, the same
// RefByName-style directory bamprovider/util.go builds from a loaded
// sam.Header.
func NewHeader(contigs []fmindex.Contig) (*Header, error) {
	refs := make(map[string]*sam.Reference, len(contigs))
	for _, c := range contigs {
		ref, err := sam.NewReference(c.Name, "", "", int(c.Length), nil, nil)
		if err != nil {
			return nil, errors.Wrapf(err, "registering contig %q", c.Name)
		}
		refs[c.Name] = ref
	}
	return &Header{contigs: contigs, refs: refs}, nil
}

// WriteText writes the @HD/@SQ/@PG header lines, per spec §4.10: "@HD
// VN:1.6 SO:unsorted, one @SQ SN:<name> LN:<len> per contig, one @PG
// ID:<progname> VN:<version> CL:<commandline>".
func (h *Header) WriteText(w io.Writer, progName, progVersion, commandLine string) error {
	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintf(bw, "@HD\tVN:1.6\tSO:unsorted\n"); err != nil {
		return errors.Wrap(err, "writing @HD line")
	}
	for _, c := range h.contigs {
		if _, err := fmt.Fprintf(bw, "@SQ\tSN:%s\tLN:%d\n", c.Name, c.Length); err != nil {
			return errors.Wrapf(err, "writing @SQ line for %q", c.Name)
		}
	}
	if _, err := fmt.Fprintf(bw, "@PG\tID:%s\tVN:%s\tCL:%s\n", progName, progVersion, commandLine); err != nil {
		return errors.Wrap(err, "writing @PG line")
	}
	return bw.Flush()
}

// WriteOutcome writes every alignment in out as one SAM record (or, when
// out is unmapped, a single unmapped record per spec §4.9 step 7), in
// out.Alignments order (primary first).
func (h *Header) WriteOutcome(w io.Writer, out align.Outcome, seq, qual string) error {
	if !out.Mapped {
		return h.writeUnmapped(w, out.ReadName, seq, qual)
	}
	for _, a := range out.Alignments {
		if err := h.writeAlignment(w, out.ReadName, a, out.SecondScore, seq, qual); err != nil {
			return err
		}
	}
	return nil
}

func (h *Header) writeUnmapped(w io.Writer, name, seq, qual string) error {
	rec, err := sam.NewRecord(name, nil, nil, -1, -1, 0, 0, nil, []byte(seq), []byte(qual), nil)
	if err != nil {
		return errors.Wrap(err, "building unmapped record")
	}
	rec.Flags = sam.Unmapped
	return writeRecord(w, rec)
}

func (h *Header) writeAlignment(w io.Writer, name string, a align.Alignment, s2 int, seq, qual string) error {
	ref, ok := h.refs[a.Contig]
	if !ok {
		return errors.Errorf("record %q: contig %q is not in the header", name, a.Contig)
	}
	outSeq, outQual := []byte(seq), []byte(qual)
	if a.Reverse {
		outSeq = alphabet.ReverseComplementASCII(outSeq)
		outQual = reverseBytes(outQual)
	}
	rec, err := sam.NewRecord(name, ref, nil, int(a.Pos), -1, 0, byte(a.MAPQ), a.Cigar, outSeq, outQual, nil)
	if err != nil {
		return errors.Wrapf(err, "building record for %q", name)
	}
	if a.Reverse {
		rec.Flags |= sam.Reverse
	}
	if a.Secondary {
		rec.Flags |= sam.Secondary
	}
	asAux, err := sam.NewAux(asTag, a.Score)
	if err != nil {
		return errors.Wrap(err, "building AS tag")
	}
	xsAux, err := sam.NewAux(xsTag, s2)
	if err != nil {
		return errors.Wrap(err, "building XS tag")
	}
	nmAux, err := sam.NewAux(nmTag, a.NM)
	if err != nil {
		return errors.Wrap(err, "building NM tag")
	}
	rec.AuxFields = append(rec.AuxFields, asAux, xsAux, nmAux)
	return writeRecord(w, rec)
}

func writeRecord(w io.Writer, rec *sam.Record) error {
	b, err := rec.MarshalSAM(sam.FlagDecimal)
	if err != nil {
		return errors.Wrap(err, "marshaling SAM record")
	}
	if _, err := w.Write(b); err != nil {
		return errors.Wrap(err, "writing SAM record")
	}
	_, err = io.WriteString(w, "\n")
	return err
}

func reverseBytes(b []byte) []byte {
	out := make([]byte, len(b))
	n := len(b)
	for i, v := range b {
		out[n-1-i] = v
	}
	return out
}
