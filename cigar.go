//----------------------------------------------------------------------------------------
// FMSA: cigar.go
// CIGAR construction and span arithmetic on top of the hts SAM model.
//----------------------------------------------------------------------------------------

package fmsa

import (
	"github.com/biogo/hts/sam"
)

// Cigar is the alignment operation list written into SAM records.
type Cigar = sam.Cigar

//----------------------------------------------------------------------------------------
// cigarFromOps coalesces a traceback op string ('M', 'I', 'D' bytes, already in
// query order) into a Cigar, adding soft clips for unaligned query ends.
//----------------------------------------------------------------------------------------
func cigarFromOps(ops []byte, lead_clip, tail_clip int) Cigar {
	var cigar Cigar
	if lead_clip > 0 {
		cigar = append(cigar, sam.NewCigarOp(sam.CigarSoftClipped, lead_clip))
	}
	for i := 0; i < len(ops); {
		j := i
		for j < len(ops) && ops[j] == ops[i] {
			j++
		}
		var t sam.CigarOpType
		switch ops[i] {
		case 'M':
			t = sam.CigarMatch
		case 'I':
			t = sam.CigarInsertion
		default:
			t = sam.CigarDeletion
		}
		cigar = append(cigar, sam.NewCigarOp(t, j-i))
		i = j
	}
	if tail_clip > 0 {
		cigar = append(cigar, sam.NewCigarOp(sam.CigarSoftClipped, tail_clip))
	}
	return cigar
}

// CigarQuerySpan sums the lengths of operations that consume query bases.
func CigarQuerySpan(cigar Cigar) int {
	span := 0
	for _, co := range cigar {
		switch co.Type() {
		case sam.CigarMatch, sam.CigarInsertion, sam.CigarSoftClipped, sam.CigarEqual, sam.CigarMismatch:
			span += co.Len()
		}
	}
	return span
}

// CigarRefSpan sums the lengths of operations that consume reference bases.
func CigarRefSpan(cigar Cigar) int {
	span := 0
	for _, co := range cigar {
		switch co.Type() {
		case sam.CigarMatch, sam.CigarDeletion, sam.CigarEqual, sam.CigarMismatch, sam.CigarSkipped:
			span += co.Len()
		}
	}
	return span
}
