// bwago-index builds a bwago FM-index snapshot (.fm) from a reference FASTA
// file. See doc.go-style usage below; this follows the teacher's
// cmd/bio-bam-gindex/main.go structure (flag parsing, grail.Init, a single
// library call) scaled up to bwago-index's extra positional argument and
// tunables.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/grailbio/base/file"
	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"
	"github.com/kelpbio/bwago/encoding/fasta"
	"github.com/kelpbio/bwago/fmindex"
)

var (
	outPrefix = flag.String("o", "", "Output index path prefix; writes <prefix>.fm (required)")
	blockSize = flag.Uint("block-size", fmindex.DefaultBlockSize, "Occ sampling block size B (must be a power of two)")
	saRate    = flag.Uint("sa-rate", fmindex.DefaultSASampleRate, "Suffix array sampling rate s (1 = store the full array)")
)

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s [OPTIONS] <reference.fa>\n", os.Args[0])
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	shutdown := grail.Init()
	defer shutdown()

	if flag.NArg() != 1 {
		log.Fatalf("exactly one positional argument (reference.fa) required; got %q", strings.Join(flag.Args(), " "))
	}
	if *outPrefix == "" {
		log.Fatalf("-o <prefix> is required")
	}
	refPath := flag.Arg(0)

	ctx := vcontext.Background()
	in, err := file.Open(ctx, refPath)
	if err != nil {
		log.Fatalf("opening %s: %v", refPath, err)
	}
	fa, err := fasta.New(in.Reader(ctx), fasta.OptClean)
	if err != nil {
		log.Fatalf("parsing %s: %v", refPath, err)
	}
	if err := in.Close(ctx); err != nil {
		log.Fatalf("closing %s: %v", refPath, err)
	}

	ref, err := fmindex.BuildReference(fa)
	if err != nil {
		log.Fatalf("building reference text: %v", err)
	}
	log.Printf("bwago-index: %d contigs, %d bases total", len(ref.Contigs), len(ref.Text))

	opts := fmindex.Options{
		BlockSize:    uint32(*blockSize),
		SASampleRate: uint32(*saRate),
		Meta: &fmindex.Metadata{
			ReferencePath: refPath,
			CommandLine:   strings.Join(os.Args, " "),
			Timestamp:     time.Now().UTC().Format(time.RFC3339),
		},
	}
	idx, err := fmindex.Build(ref, opts)
	if err != nil {
		log.Fatalf("building FM-index: %v", err)
	}

	outPath := *outPrefix + ".fm"
	out, err := file.Create(ctx, outPath)
	if err != nil {
		log.Fatalf("creating %s: %v", outPath, err)
	}
	if err := idx.Save(out.Writer(ctx)); err != nil {
		log.Fatalf("writing %s: %v", outPath, err)
	}
	if err := out.Close(ctx); err != nil {
		log.Fatalf("closing %s: %v", outPath, err)
	}
	log.Printf("bwago-index: wrote %s", outPath)
}
