// Package fasta contains code for parsing FASTA files.  FASTA files consist
// of a number of named sequences that may be interrupted by newlines.  For
// example:
//
// >chr7
// ACGTAC
// GAGGAC
// GCG
// >chr8
// ACGT
//
// Note: Sequence names are defined to be the stretch of characters excluding
// spaces immediately after '>'.  Any text appearing after a space is ignored.
// For example, '>chr1 A viral sequence' becomes 'chr1'.
package fasta

import (
	"bufio"
	"io"
	"strings"

	"github.com/kelpbio/bwago/alphabet"
	"github.com/klauspost/compress/gzip"
	"github.com/pkg/errors"
)

const (
	mib            = 1024 * 1024
	bufferInitSize = 300 * mib
)

// Contig is a single named sequence read from a FASTA file.
type Contig struct {
	Name string
	Seq  string
}

// Fasta represents FASTA-formatted data, consisting of a set of named
// sequences, in the order they appeared in the file.
type Fasta interface {
	// Get returns a substring of the given sequence name at the given
	// coordinates, which are treated as a 0-based half-open interval
	// [start, end). Get is thread-safe.
	Get(seqName string, start, end uint64) (string, error)

	// Len returns the length of the given sequence.
	Len(seqName string) (uint64, error)

	// SeqNames returns the names of all sequences, in the order of appearance
	// in the FASTA file.
	SeqNames() []string

	// Contigs returns every sequence, in file order. Callers that need to
	// build a concatenated reference text (e.g. the index builder) should use
	// this rather than repeated Get calls.
	Contigs() []Contig
}

type opts struct {
	Clean bool
}

// Opt is an optional argument to New.
type Opt func(*opts)

// OptClean specifies that returned FASTA sequences should be normalized to
// upper-case A/C/G/T/N in place, the way alphabet.NormalizeSeq does for the
// index builder.
func OptClean(o *opts) { o.Clean = true }

func makeOpts(userOpts ...Opt) opts {
	var parsedOpts opts
	for _, userOpt := range userOpts {
		userOpt(&parsedOpts)
	}
	return parsedOpts
}

type fasta struct {
	seqs     map[string]string
	seqNames []string
}

// maybeGunzip wraps r in a gzip.Reader if the stream starts with the gzip
// magic bytes, so callers can feed New a plain or .gz FASTA file
// transparently.
func maybeGunzip(r io.Reader) (io.Reader, error) {
	br := bufio.NewReader(r)
	magic, err := br.Peek(2)
	if err != nil && err != io.EOF {
		return nil, errors.Wrap(err, "peeking FASTA stream")
	}
	if len(magic) == 2 && magic[0] == 0x1f && magic[1] == 0x8b {
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, errors.Wrap(err, "opening gzipped FASTA stream")
		}
		return gz, nil
	}
	return br, nil
}

// New creates a new Fasta that holds all the FASTA data from the given
// reader in memory. The reader may be plain text or gzip-compressed.
func New(r io.Reader, userOpts ...Opt) (Fasta, error) {
	parsedOpts := makeOpts(userOpts...)
	gr, err := maybeGunzip(r)
	if err != nil {
		return nil, err
	}
	f := &fasta{seqs: make(map[string]string)}
	scanner := bufio.NewScanner(gr)
	scanner.Buffer(nil, bufferInitSize)
	var seqName string
	var seq strings.Builder
	haveSeq := false
	flush := func() error {
		if !haveSeq {
			return nil
		}
		if seqName == "" {
			return errors.Errorf("malformed FASTA file: sequence data before first '>' header")
		}
		if _, dup := f.seqs[seqName]; dup {
			return errors.Errorf("malformed FASTA file: duplicate sequence name %q", seqName)
		}
		f.seqs[seqName] = seq.String()
		f.seqNames = append(f.seqNames, seqName)
		seq.Reset()
		return nil
	}
	for scanner.Scan() {
		line := strings.TrimSuffix(scanner.Text(), "\r")
		if len(line) == 0 {
			continue
		}
		if line[0] == '>' {
			if err := flush(); err != nil {
				return nil, err
			}
			seqName = strings.Split(line[1:], " ")[0]
			haveSeq = true
		} else {
			seq.WriteString(line)
			haveSeq = true
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "couldn't read FASTA data")
	}
	if err := flush(); err != nil {
		return nil, err
	}
	if parsedOpts.Clean {
		for name, s := range f.seqs {
			b := []byte(s)
			alphabet.NormalizeSeq(b)
			f.seqs[name] = string(b)
		}
	}
	return f, nil
}

// Get implements Fasta.Get.
func (f *fasta) Get(seqName string, start, end uint64) (string, error) {
	s, ok := f.seqs[seqName]
	if !ok {
		return "", errors.Errorf("sequence not found: %s", seqName)
	}
	if end <= start {
		return "", errors.Errorf("start must be less than end")
	}
	if end > uint64(len(s)) {
		return "", errors.Errorf("invalid query range %d-%d for sequence %s with length %d",
			start, end, seqName, len(s))
	}
	return s[start:end], nil
}

// Len implements Fasta.Len.
func (f *fasta) Len(seqName string) (uint64, error) {
	s, ok := f.seqs[seqName]
	if !ok {
		return 0, errors.Errorf("sequence not found: %s", seqName)
	}
	return uint64(len(s)), nil
}

// SeqNames implements Fasta.SeqNames.
func (f *fasta) SeqNames() []string {
	return f.seqNames
}

// Contigs implements Fasta.Contigs.
func (f *fasta) Contigs() []Contig {
	contigs := make([]Contig, len(f.seqNames))
	for i, name := range f.seqNames {
		contigs[i] = Contig{Name: name, Seq: f.seqs[name]}
	}
	return contigs
}
