//----------------------------------------------------------------------------------------
// Tests for SMEM seed search.
//----------------------------------------------------------------------------------------

package fmsa

import (
	"bytes"
	"testing"
)

func TestSMEMsAreExactMatches(t *testing.T) {
	I := buildTestIndex(t, map[string]string{"c1": "GATTACAGATTACAGA", "c2": "ACGTACGTACGTACGT"}, 4, 1)
	reads := []string{
		"GATTACAGATTACAGA",
		"ACGTACGTACGTACGT",
		"GATTACAGACGTACGT",
		"TTACAGATTAC",
	}
	for _, raw := range reads {
		read := EncodeSeq([]byte(raw))
		mems := I.SearchSMEMs(read, 4, 500, nil)
		if len(mems) == 0 {
			t.Fatalf("read %s: no SMEMs", raw)
		}
		var seeds []AlnReg
		var pos_buf []uint32
		seeds, _ = I.ExpandSMEMs(mems, false, seeds, pos_buf)
		for _, mem := range mems {
			if mem.QE-mem.QB < 4 {
				t.Errorf("read %s: SMEM [%d,%d) shorter than the minimum", raw, mem.QB, mem.QE)
			}
		}
		for _, s := range seeds {
			if !bytes.Equal(I.Seq[s.RB:s.RE], read[s.QB:s.QE]) {
				t.Errorf("read %s: seed [%d,%d)@%d is not an exact match", raw, s.QB, s.QE, s.RB)
			}
		}
	}
}

func TestSMEMsRespectMinLength(t *testing.T) {
	I := buildTestIndex(t, map[string]string{"c": "ACGTACGT"}, 4, 1)
	read := EncodeSeq([]byte("CGTA"))
	if mems := I.SearchSMEMs(read, 5, 500, nil); len(mems) != 0 {
		t.Errorf("got %d SMEMs below the length threshold", len(mems))
	}
	if mems := I.SearchSMEMs(read, 4, 500, nil); len(mems) != 1 {
		t.Errorf("got %d SMEMs, want 1", len(mems))
	}
}

func TestSMEMOccurrenceCap(t *testing.T) {
	// AC repeated: every short pattern occurs many times.
	I := buildTestIndex(t, map[string]string{"c": "ACACACACACACACACACAC"}, 4, 1)
	read := EncodeSeq([]byte("ACAC"))
	if mems := I.SearchSMEMs(read, 2, 2, nil); len(mems) != 0 {
		t.Errorf("occurrence cap did not discard a repetitive seed: %v", mems)
	}
	if mems := I.SearchSMEMs(read, 2, 500, nil); len(mems) == 0 {
		t.Error("seed missing with a generous occurrence cap")
	}
}

func TestSMEMsSkipN(t *testing.T) {
	I := buildTestIndex(t, map[string]string{"c": "GATTACAGATTACAGA"}, 4, 1)
	read := EncodeSeq([]byte("GATTNACAG"))
	mems := I.SearchSMEMs(read, 4, 500, nil)
	for _, mem := range mems {
		for _, c := range read[mem.QB:mem.QE] {
			if c == SymN {
				t.Fatalf("SMEM [%d,%d) spans an N symbol", mem.QB, mem.QE)
			}
		}
	}
}

func TestSMEMMaximality(t *testing.T) {
	I := buildTestIndex(t, map[string]string{"c": "ACGTACGTACGTACGTACGTACGTACGT"}, 4, 1)
	read := EncodeSeq([]byte("ACGTACGTACGT"))
	mems := I.SearchSMEMs(read, 4, 500, nil)
	found := false
	for _, mem := range mems {
		if mem.QE-mem.QB >= len(read) {
			found = true
		}
	}
	if !found {
		t.Errorf("full-length match not found: %v", mems)
	}
}

func TestExpandSMEMsSkipsContigBoundary(t *testing.T) {
	// The pattern sits at the end of c1 and the start of c2; no occurrence
	// may span the sentinel between them.
	I := buildTestIndex(t, map[string]string{"c1": "AAAAGATT", "c2": "ACAGGGGG"}, 4, 1)
	read := EncodeSeq([]byte("GATTACAG"))
	mems := I.SearchSMEMs(read, 4, 500, nil)
	var seeds []AlnReg
	seeds, _ = I.ExpandSMEMs(mems, false, seeds, nil)
	for _, s := range seeds {
		c := I.Contigs[s.Contig]
		if s.RB < c.Off || s.RE > c.Off+c.Len {
			t.Errorf("seed [%d,%d) crosses contig %s bounds", s.RB, s.RE, c.Name)
		}
	}
}
