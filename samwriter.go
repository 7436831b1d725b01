//----------------------------------------------------------------------------------------
// FMSA: samwriter.go
// Emitting the SAM header and per-read alignment records through the hts SAM
// text writer: one primary record per read, secondary records flagged 0x100,
// reverse-strand records with reverse-complemented sequence, and AS/XS/NM
// auxiliary tags.
//----------------------------------------------------------------------------------------

package fmsa

import (
	"fmt"
	"io"

	"github.com/biogo/hts/sam"
)

const (
	ProgName    = "fmsa"
	ProgVersion = "0.2.0"
)

var (
	asTag = sam.NewTag("AS")
	xsTag = sam.NewTag("XS")
	nmTag = sam.NewTag("NM")
)

//----------------------------------------------------------------------------------------
// SamWriter owns the header references and the underlying text writer. It is
// driven by a single goroutine.
//----------------------------------------------------------------------------------------
type SamWriter struct {
	out  *sam.Writer
	refs []*sam.Reference
}

//----------------------------------------------------------------------------------------
// NewSamWriter writes the @HD/@SQ/@PG header for the given contig directory
// and returns a writer for the records.
//----------------------------------------------------------------------------------------
func NewSamWriter(w io.Writer, contigs []Contig, cmd_line string) (*SamWriter, error) {
	refs := make([]*sam.Reference, len(contigs))
	for i := range contigs {
		ref, err := sam.NewReference(contigs[i].Name, "", "", int(contigs[i].Len), nil, nil)
		if err != nil {
			return nil, fmt.Errorf("sam reference %s: %w", contigs[i].Name, err)
		}
		refs[i] = ref
	}
	h, err := sam.NewHeader([]byte("@HD\tVN:1.6\tSO:unsorted"), refs)
	if err != nil {
		return nil, fmt.Errorf("sam header: %w", err)
	}
	if err := h.AddProgram(sam.NewProgram(ProgName, ProgName, cmd_line, "", ProgVersion)); err != nil {
		return nil, fmt.Errorf("sam header: %w", err)
	}
	out, err := sam.NewWriter(w, h, sam.FlagDecimal)
	if err != nil {
		return nil, fmt.Errorf("sam writer: %w", err)
	}
	return &SamWriter{out: out, refs: refs}, nil
}

//----------------------------------------------------------------------------------------
// WriteAlignment emits every record of one aligned read: the primary first,
// then the capped secondaries.
//----------------------------------------------------------------------------------------
func (sw *SamWriter) WriteAlignment(a *Alignment) error {
	if len(a.Cands) == 0 {
		return sw.writeUnmapped(a.Read)
	}
	primary_score := a.Cands[0].Score
	for k := range a.Cands {
		reg := &a.Cands[k]
		mapq, xs := 0, primary_score
		if k == 0 {
			mapq, xs = a.MapQ, a.SubScore
		}
		if err := sw.writeRecord(a.Read, reg, k > 0, mapq, xs); err != nil {
			return err
		}
	}
	return nil
}

func (sw *SamWriter) writeRecord(read *ReadRec, reg *AlnReg, secondary bool, mapq, xs int) error {
	seq := read.Seq
	qual := phredQual(read.Qual, false)
	if reg.IsRev {
		seq = ReverseComplement(read.Seq)
		qual = phredQual(read.Qual, true)
	}

	rec, err := sam.NewRecord(read.Name, sw.refs[reg.Contig], nil,
		int(reg.Pos), -1, 0, byte(mapq), reg.Cigar, seq, qual, nil)
	if err != nil {
		return fmt.Errorf("sam record %s: %w", read.Name, err)
	}
	if reg.IsRev {
		rec.Flags |= sam.Reverse
	}
	if secondary {
		rec.Flags |= sam.Secondary
	}
	for _, t := range []struct {
		tag sam.Tag
		val int
	}{{asTag, reg.Score}, {xsTag, xs}, {nmTag, reg.NM}} {
		aux, err := sam.NewAux(t.tag, t.val)
		if err != nil {
			return fmt.Errorf("sam record %s: %w", read.Name, err)
		}
		rec.AuxFields = append(rec.AuxFields, aux)
	}
	return sw.out.Write(rec)
}

func (sw *SamWriter) writeUnmapped(read *ReadRec) error {
	rec, err := sam.NewRecord(read.Name, nil, nil, -1, -1, 0, 0, nil,
		read.Seq, phredQual(read.Qual, false), nil)
	if err != nil {
		return fmt.Errorf("sam record %s: %w", read.Name, err)
	}
	rec.Flags |= sam.Unmapped
	return sw.out.Write(rec)
}

// phredQual converts ASCII-33 qualities to raw scores, reversed for
// reverse-strand records.
func phredQual(qual []byte, reverse bool) []byte {
	out := make([]byte, len(qual))
	for i, q := range qual {
		v := byte(0)
		if q >= 33 {
			v = q - 33
		}
		if reverse {
			out[len(qual)-1-i] = v
		} else {
			out[i] = v
		}
	}
	return out
}
