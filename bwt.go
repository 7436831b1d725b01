//----------------------------------------------------------------------------------------
// FMSA: bwt.go
// Deriving the Burrows-Wheeler transform from the text and its suffix array.
//----------------------------------------------------------------------------------------

package fmsa

// BuildBWT returns the BWT column of text: bwt[i] = text[(sa[i]-1) mod n].
func BuildBWT(text []byte, sa []uint32) []byte {
	n := uint32(len(text))
	bwt := make([]byte, n)
	for i := uint32(0); i < n; i++ {
		bwt[i] = text[(sa[i]+n-1)%n]
	}
	return bwt
}
