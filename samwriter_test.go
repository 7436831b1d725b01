//----------------------------------------------------------------------------------------
// Tests for SAM header and record formatting.
//----------------------------------------------------------------------------------------

package fmsa

import (
	"bytes"
	"strings"
	"testing"

	"github.com/biogo/hts/sam"
)

func testContigs() []Contig {
	return []Contig{
		{Name: "chr1", Len: 16, Off: 0},
		{Name: "chr2", Len: 16, Off: 17},
	}
}

func newTestWriter(t *testing.T) (*SamWriter, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	w, err := NewSamWriter(&buf, testContigs(), "fmsa align -i toy.fm toy.fq")
	if err != nil {
		t.Fatal(err)
	}
	return w, &buf
}

func match16M() Cigar {
	return Cigar{sam.NewCigarOp(sam.CigarMatch, 16)}
}

func TestSamHeader(t *testing.T) {
	w, buf := newTestWriter(t)
	read := &ReadRec{Name: "r", Seq: []byte("ACGTACGTACGTACGT"), Qual: bytes.Repeat([]byte{'I'}, 16)}
	a := &Alignment{Read: read, Cands: []AlnReg{{Cigar: match16M(), Score: 16}}, MapQ: 60}
	if err := w.WriteAlignment(a); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(buf.String(), "\n")
	if lines[0] != "@HD\tVN:1.6\tSO:unsorted" {
		t.Errorf("HD line = %q", lines[0])
	}
	var sq, pg int
	for _, l := range lines {
		if strings.HasPrefix(l, "@SQ\tSN:chr1\tLN:16") || strings.HasPrefix(l, "@SQ\tSN:chr2\tLN:16") {
			sq++
		}
		if strings.HasPrefix(l, "@PG\tID:fmsa") {
			pg++
		}
	}
	if sq != 2 {
		t.Errorf("got %d @SQ lines, want 2\n%s", sq, buf.String())
	}
	if pg != 1 {
		t.Errorf("got %d @PG lines, want 1\n%s", pg, buf.String())
	}
}

func TestSamPrimaryRecord(t *testing.T) {
	w, buf := newTestWriter(t)
	read := &ReadRec{Name: "r1", Seq: []byte("ACGTACGTACGTACGT"), Qual: bytes.Repeat([]byte{'I'}, 16)}
	a := &Alignment{
		Read:  read,
		Cands: []AlnReg{{Contig: 0, Pos: 4, Cigar: match16M(), Score: 16, NM: 0}},
		MapQ:  60,
	}
	if err := w.WriteAlignment(a); err != nil {
		t.Fatal(err)
	}
	rec := lastLine(buf)
	fields := strings.Split(rec, "\t")
	if len(fields) < 11 {
		t.Fatalf("record has %d fields: %q", len(fields), rec)
	}
	want := []string{"r1", "0", "chr1", "5", "60", "16M", "*", "0", "0", "ACGTACGTACGTACGT", strings.Repeat("I", 16)}
	for i, f := range want {
		if fields[i] != f {
			t.Errorf("field %d = %q, want %q", i, fields[i], f)
		}
	}
	for _, tag := range []string{"AS:i:16", "XS:i:0", "NM:i:0"} {
		if !strings.Contains(rec, tag) {
			t.Errorf("record lacks %s: %q", tag, rec)
		}
	}
}

func TestSamReverseRecord(t *testing.T) {
	w, buf := newTestWriter(t)
	read := &ReadRec{Name: "r2", Seq: []byte("TCTGTAATCTGTAATC"), Qual: []byte("ABCDEFGHIJKLMNOP")}
	a := &Alignment{
		Read:  read,
		Cands: []AlnReg{{Contig: 1, Pos: 0, IsRev: true, Cigar: match16M(), Score: 16}},
		MapQ:  60,
	}
	if err := w.WriteAlignment(a); err != nil {
		t.Fatal(err)
	}
	fields := strings.Split(lastLine(buf), "\t")
	if fields[1] != "16" {
		t.Errorf("flag = %s, want 16", fields[1])
	}
	if fields[9] != string(ReverseComplement(read.Seq)) {
		t.Errorf("seq = %s, want the reverse complement", fields[9])
	}
	if fields[10] != "PONMLKJIHGFEDCBA" {
		t.Errorf("qual = %s, want reversed", fields[10])
	}
}

func TestSamSecondaryRecord(t *testing.T) {
	w, buf := newTestWriter(t)
	read := &ReadRec{Name: "r3", Seq: []byte("ACGTACGTACGTACGT"), Qual: bytes.Repeat([]byte{'I'}, 16)}
	a := &Alignment{
		Read: read,
		Cands: []AlnReg{
			{Contig: 0, Pos: 0, Cigar: match16M(), Score: 16},
			{Contig: 1, Pos: 0, Cigar: match16M(), Score: 16},
		},
		MapQ:     0,
		SubScore: 16,
	}
	if err := w.WriteAlignment(a); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	recs := lines[len(lines)-2:]
	if fields := strings.Split(recs[0], "\t"); fields[1] != "0" || fields[4] != "0" {
		t.Errorf("primary = %q", recs[0])
	}
	sec := strings.Split(recs[1], "\t")
	if sec[1] != "256" {
		t.Errorf("secondary flag = %s, want 256", sec[1])
	}
	if sec[4] != "0" {
		t.Errorf("secondary mapq = %s, want 0", sec[4])
	}
	if !strings.Contains(recs[1], "XS:i:16") {
		t.Errorf("secondary lacks XS tag: %q", recs[1])
	}
}

func TestSamUnmappedRecord(t *testing.T) {
	w, buf := newTestWriter(t)
	read := &ReadRec{Name: "r4", Seq: []byte("TTTT"), Qual: []byte("IIII")}
	if err := w.WriteAlignment(&Alignment{Read: read}); err != nil {
		t.Fatal(err)
	}
	fields := strings.Split(lastLine(buf), "\t")
	want := []string{"r4", "4", "*", "0", "0", "*", "*", "0", "0", "TTTT", "IIII"}
	for i, f := range want {
		if fields[i] != f {
			t.Errorf("field %d = %q, want %q", i, fields[i], f)
		}
	}
}

func lastLine(buf *bytes.Buffer) string {
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	return lines[len(lines)-1]
}
