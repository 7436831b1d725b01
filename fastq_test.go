//----------------------------------------------------------------------------------------
// Tests for the FASTQ scanner.
//----------------------------------------------------------------------------------------

package fmsa

import (
	"io"
	"strings"
	"testing"
)

func TestFastqScannerBasic(t *testing.T) {
	in := "@r1 some description\nACGT\n+\nIIII\n@r2\nGATTACA\n+r2\nJJJJJJJ\n"
	sc := NewFastqScanner(strings.NewReader(in))

	r1, err := sc.Next()
	if err != nil {
		t.Fatal(err)
	}
	if r1.Name != "r1" || string(r1.Seq) != "ACGT" || string(r1.Qual) != "IIII" {
		t.Errorf("r1 = %+v", r1)
	}

	r2, err := sc.Next()
	if err != nil {
		t.Fatal(err)
	}
	if r2.Name != "r2" || string(r2.Seq) != "GATTACA" {
		t.Errorf("r2 = %+v", r2)
	}

	if _, err := sc.Next(); err != io.EOF {
		t.Errorf("expected EOF, got %v", err)
	}
}

func TestFastqScannerCRLF(t *testing.T) {
	in := "@r1\r\nACGT\r\n+\r\nIIII\r\n"
	sc := NewFastqScanner(strings.NewReader(in))
	r, err := sc.Next()
	if err != nil {
		t.Fatal(err)
	}
	if string(r.Seq) != "ACGT" || string(r.Qual) != "IIII" {
		t.Errorf("record = %+v", r)
	}
}

func TestFastqScannerTrailingBlankLines(t *testing.T) {
	in := "@r1\nACGT\n+\nIIII\n\n\n"
	sc := NewFastqScanner(strings.NewReader(in))
	if _, err := sc.Next(); err != nil {
		t.Fatal(err)
	}
	if _, err := sc.Next(); err != io.EOF {
		t.Errorf("expected EOF, got %v", err)
	}
}

func TestFastqScannerBadHeader(t *testing.T) {
	sc := NewFastqScanner(strings.NewReader("r1\nACGT\n+\nIIII\n"))
	if _, err := sc.Next(); err == nil || err == io.EOF {
		t.Errorf("expected a header error, got %v", err)
	}
}

func TestFastqScannerLengthMismatch(t *testing.T) {
	sc := NewFastqScanner(strings.NewReader("@r1\nACGT\n+\nII\n"))
	if _, err := sc.Next(); err == nil || err == io.EOF {
		t.Errorf("expected a length error, got %v", err)
	}
}

func TestFastqScannerMissingPlus(t *testing.T) {
	sc := NewFastqScanner(strings.NewReader("@r1\nACGT\nIIII\n@r2\n"))
	if _, err := sc.Next(); err == nil || err == io.EOF {
		t.Errorf("expected a '+' line error, got %v", err)
	}
}
