//----------------------------------------------------------------------------------------
// FMSA: alphabet.go
// Encoding DNA sequences into the fixed 6-symbol integer alphabet used by the index
// and the alignment kernels, and computing reverse complements.
// Symbols: $=0, A=1, C=2, G=3, T=4, N=5.
//----------------------------------------------------------------------------------------

package fmsa

// Alphabet symbols. The sentinel separates contigs in the concatenated
// reference text and terminates it; it never appears in reads.
const (
	SymSentinel = byte(0)
	SymA        = byte(1)
	SymC        = byte(2)
	SymG        = byte(3)
	SymT        = byte(4)
	SymN        = byte(5)

	AlphabetSize = 6
)

//----------------------------------------------------------------------------------------
// NormalizeBase maps a raw byte to one of 'A', 'C', 'G', 'T', 'N'.
// Lower case is folded, U maps to T, everything else maps to N.
//----------------------------------------------------------------------------------------
func NormalizeBase(b byte) byte {
	if 'a' <= b && b <= 'z' {
		b -= 'a' - 'A'
	}
	switch b {
	case 'A', 'C', 'G', 'T', 'N':
		return b
	case 'U':
		return 'T'
	}
	return 'N'
}

//----------------------------------------------------------------------------------------
// EncodeBase maps a raw base byte to its alphabet code in 1..5.
//----------------------------------------------------------------------------------------
func EncodeBase(b byte) byte {
	switch NormalizeBase(b) {
	case 'A':
		return SymA
	case 'C':
		return SymC
	case 'G':
		return SymG
	case 'T':
		return SymT
	}
	return SymN
}

//----------------------------------------------------------------------------------------
// DecodeBase maps an alphabet code back to a base byte.
//----------------------------------------------------------------------------------------
func DecodeBase(c byte) byte {
	switch c {
	case SymSentinel:
		return '$'
	case SymA:
		return 'A'
	case SymC:
		return 'C'
	case SymG:
		return 'G'
	case SymT:
		return 'T'
	}
	return 'N'
}

//----------------------------------------------------------------------------------------
// EncodeSeq encodes a raw sequence into a fresh slice of alphabet codes.
//----------------------------------------------------------------------------------------
func EncodeSeq(seq []byte) []byte {
	enc := make([]byte, len(seq))
	for i, b := range seq {
		enc[i] = EncodeBase(b)
	}
	return enc
}

//----------------------------------------------------------------------------------------
// DecodeSeq decodes alphabet codes back into base bytes.
//----------------------------------------------------------------------------------------
func DecodeSeq(enc []byte) []byte {
	seq := make([]byte, len(enc))
	for i, c := range enc {
		seq[i] = DecodeBase(c)
	}
	return seq
}

//----------------------------------------------------------------------------------------
// ReverseComplement returns the reverse complement of a raw read.
//----------------------------------------------------------------------------------------
func ReverseComplement(read []byte) []byte {
	l := len(read)
	rev_read := make([]byte, l)
	for idx, elem := range read {
		switch NormalizeBase(elem) {
		case 'A':
			rev_read[l-1-idx] = 'T'
		case 'T':
			rev_read[l-1-idx] = 'A'
		case 'C':
			rev_read[l-1-idx] = 'G'
		case 'G':
			rev_read[l-1-idx] = 'C'
		default:
			rev_read[l-1-idx] = 'N'
		}
	}
	return rev_read
}

//----------------------------------------------------------------------------------------
// RevCompEncoded writes the reverse complement of an encoded sequence into dst,
// growing it as needed, and returns it. Complementing in code space is 5-c for
// the four standard bases; N stays N.
//----------------------------------------------------------------------------------------
func RevCompEncoded(enc, dst []byte) []byte {
	l := len(enc)
	if cap(dst) < l {
		dst = make([]byte, l)
	}
	dst = dst[:l]
	for i, c := range enc {
		if c >= SymA && c <= SymT {
			dst[l-1-i] = SymT + SymA - c
		} else {
			dst[l-1-i] = SymN
		}
	}
	return dst
}
