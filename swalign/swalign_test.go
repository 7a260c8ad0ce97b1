package swalign

import (
	"testing"

	"github.com/kelpbio/bwago/alphabet"
)

func enc(s string) []alphabet.Symbol { return alphabet.EncodeSeq([]byte(s)) }

func cigarString(t *testing.T, r Result) string {
	t.Helper()
	return r.Cigar.String()
}

// shortQueryParams is DefaultParams with a lower score floor: the default
// floor of 30 is above the best score any 15-17bp query below can reach.
func shortQueryParams() Params {
	p := DefaultParams()
	p.ScoreFloor = 5
	return p
}

func TestExtendExactMatch(t *testing.T) {
	ws := NewWorkspace()
	q := enc("ACGTACGTACGTACGT")
	r := enc("ACGTACGTACGTACGT")
	res, ok := Extend(ws, q, r, shortQueryParams())
	if !ok {
		t.Fatal("expected an alignment above the score floor")
	}
	if res.NM != 0 {
		t.Errorf("NM = %d, want 0", res.NM)
	}
	if res.Score != len(q) {
		t.Errorf("score = %d, want %d (match=1 x 16 bases)", res.Score, len(q))
	}
	want := "16M"
	if got := cigarString(t, res); got != want {
		t.Errorf("cigar = %q, want %q", got, want)
	}
}

func TestExtendSingleMismatch(t *testing.T) {
	ws := NewWorkspace()
	q := enc("ACGTACGTACGTACGA")
	r := enc("ACGTACGTACGTACGT")
	res, ok := Extend(ws, q, r, shortQueryParams())
	if !ok {
		t.Fatal("expected an alignment above the score floor")
	}
	if res.NM != 1 {
		t.Errorf("NM = %d, want 1", res.NM)
	}
}

func TestExtendDeletion(t *testing.T) {
	ws := NewWorkspace()
	// query is missing one reference base relative to r.
	q := enc("AGTACGTACGTACGT")
	r := enc("ACGTACGTACGTACGT")
	res, ok := Extend(ws, q, r, shortQueryParams())
	if !ok {
		t.Fatal("expected an alignment above the score floor")
	}
	hasD := false
	for _, op := range res.Cigar {
		if op.Type().String() == "D" {
			hasD = true
		}
	}
	if !hasD {
		t.Errorf("expected a D operation in cigar %v", res.Cigar)
	}
}

func TestExtendInsertion(t *testing.T) {
	ws := NewWorkspace()
	q := enc("ACGTACGTAACGTACGT")
	r := enc("ACGTACGTACGTACGT")
	res, ok := Extend(ws, q, r, shortQueryParams())
	if !ok {
		t.Fatal("expected an alignment above the score floor")
	}
	hasI := false
	for _, op := range res.Cigar {
		if op.Type().String() == "I" {
			hasI = true
		}
	}
	if !hasI {
		t.Errorf("expected an I operation in cigar %v", res.Cigar)
	}
}

func TestExtendBelowScoreFloorFails(t *testing.T) {
	ws := NewWorkspace()
	q := enc("TTTTTTTTTTTTTTTT")
	r := enc("ACGTACGTACGTACGT")
	p := DefaultParams()
	p.ScoreFloor = 30
	_, ok := Extend(ws, q, r, p)
	if ok {
		t.Error("expected no alignment above the score floor for a fully mismatching pair")
	}
}

func TestCigarConsumesWholeQuery(t *testing.T) {
	ws := NewWorkspace()
	q := enc("ACGTACGTAACGTACGT")
	r := enc("ACGTACGTACGTACGT")
	res, ok := Extend(ws, q, r, shortQueryParams())
	if !ok {
		t.Fatal("expected ok")
	}
	var queryLen int
	for _, op := range res.Cigar {
		switch op.Type().String() {
		case "M", "I", "S":
			queryLen += op.Len()
		}
	}
	if queryLen != len(q) {
		t.Errorf("cigar query-consuming length = %d, want %d (cigar=%v)", queryLen, len(q), res.Cigar)
	}
}

func TestWorkspaceReusedAcrossCalls(t *testing.T) {
	ws := NewWorkspace()
	q1 := enc("ACGTACGTACGTACGT")
	r1 := enc("ACGTACGTACGTACGT")
	if _, ok := Extend(ws, q1, r1, shortQueryParams()); !ok {
		t.Fatal("first Extend failed")
	}
	q2 := enc("GATTACAGATTACAGA")
	r2 := enc("GATTACAGATTACAGA")
	res2, ok := Extend(ws, q2, r2, shortQueryParams())
	if !ok {
		t.Fatal("second Extend (reused workspace) failed")
	}
	if res2.NM != 0 {
		t.Errorf("NM = %d, want 0", res2.NM)
	}
}
