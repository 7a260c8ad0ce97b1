package alphabet

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   byte
		want byte
	}{
		{'a', 'A'}, {'A', 'A'},
		{'c', 'C'}, {'g', 'G'},
		{'t', 'T'}, {'u', 'T'}, {'U', 'T'},
		{'n', 'N'}, {'x', 'N'}, {'-', 'N'},
	}
	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	for _, s := range []Symbol{A, C, G, T, N} {
		if got := Encode(Decode(s)); got != s {
			t.Errorf("Encode(Decode(%d)) = %d, want %d", s, got, s)
		}
	}
}

func TestEncodeNeverSentinel(t *testing.T) {
	for b := 0; b < 256; b++ {
		if Encode(byte(b)) == Sentinel {
			t.Fatalf("Encode(%d) returned Sentinel", b)
		}
	}
}

func TestComplement(t *testing.T) {
	tests := []struct {
		in, want Symbol
	}{
		{A, T}, {T, A}, {C, G}, {G, C}, {N, N}, {Sentinel, Sentinel},
	}
	for _, tt := range tests {
		if got := Complement(tt.in); got != tt.want {
			t.Errorf("Complement(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestReverseComplementInvolution(t *testing.T) {
	seqs := [][]byte{
		[]byte("ACGTACGTACGT"),
		[]byte("GATTACAGATTACAGA"),
		[]byte("N"),
		[]byte(""),
		[]byte("ACGTN"),
	}
	for _, s := range seqs {
		enc := EncodeSeq(s)
		rc := ReverseComplement(ReverseComplement(enc))
		got := DecodeSeq(rc)
		if string(got) != string(DecodeSeq(enc)) {
			t.Errorf("revcomp(revcomp(%s)) = %s", s, got)
		}
	}
}

func TestReverseComplementASCII(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"ACGT", "ACGT"},
		{"GATTACAGATTACAGA", "TCTGTAATCTGTAATC"},
		{"acgt", "ACGT"},
		{"ACGTN", "NACGT"},
	}
	for _, tt := range tests {
		if got := string(ReverseComplementASCII([]byte(tt.in))); got != tt.want {
			t.Errorf("ReverseComplementASCII(%s) = %s, want %s", tt.in, got, tt.want)
		}
	}
}
