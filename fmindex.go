//----------------------------------------------------------------------------------------
// FMSA: fmindex.go
// Constructing and querying the FM-index of the concatenated reference text:
// count table, blocked occurrence samples, backward search, suffix-array
// position recovery, and the contig directory mapping text positions back to
// reference coordinates.
//----------------------------------------------------------------------------------------

package fmsa

import (
	"fmt"
	"log"
	"time"
)

const (
	// DefaultOccBlock is the Occ sampling block size (power of two).
	DefaultOccBlock = 64
	// DefaultSARate stores the full suffix array.
	DefaultSARate = 1
)

//----------------------------------------------------------------------------------------
// Contig describes one reference sequence inside the concatenated text.
// Off is the text position of its first base; contigs are separated by one
// sentinel symbol and a final sentinel terminates the text.
//----------------------------------------------------------------------------------------
type Contig struct {
	Name string
	Len  uint32
	Off  uint32
}

// IndexMeta is optional build provenance stored in the snapshot.
type IndexMeta struct {
	RefFile   string
	CmdLine   string
	Timestamp string
}

//----------------------------------------------------------------------------------------
// FMIndex bundles the structures needed for backward search over the encoded
// reference text. It is immutable after construction and is shared read-only
// by all alignment workers.
//----------------------------------------------------------------------------------------
type FMIndex struct {
	Sigma uint8    // alphabet size
	Block uint32   // Occ sampling block size
	C     []uint32 // C[c] = number of BWT symbols < c
	BWT   []byte
	Occ   []uint32 // ceil(n/Block) blocks, Sigma counters each, row-major
	SSA   []uint32 // SA[i] for rows i with i % SARate == 0
	SARate uint32
	Contigs []Contig
	Seq     []byte // encoded text, sentinel-terminated

	HasMeta bool
	Meta    IndexMeta
}

//----------------------------------------------------------------------------------------
// NewFMIndex builds the index over an encoded, sentinel-terminated text.
// block must be a power of two; sa_rate 1 stores the full suffix array.
//----------------------------------------------------------------------------------------
func NewFMIndex(seq []byte, contigs []Contig, block, sa_rate uint32) *FMIndex {
	n := len(seq)
	if n == 0 || seq[n-1] != SymSentinel {
		log.Panicf("fm index: text of length %d is not sentinel-terminated", n)
	}
	if block == 0 || block&(block-1) != 0 {
		log.Panicf("fm index: occ block size %d is not a power of two", block)
	}
	if sa_rate == 0 {
		sa_rate = DefaultSARate
	}

	I := new(FMIndex)
	I.Sigma = AlphabetSize
	I.Block = block
	I.SARate = sa_rate
	I.Contigs = contigs
	I.Seq = seq

	log.Println("Building suffix array...")
	start_time := time.Now()
	sa := BuildSuffixArray(seq)
	log.Printf("Finish building suffix array.\t%s", time.Since(start_time))

	log.Println("Building bwt and fm-index...")
	start_time = time.Now()
	I.BWT = BuildBWT(seq, sa)

	freq := make([]uint32, AlphabetSize)
	for _, c := range I.BWT {
		freq[c]++
	}
	I.C = make([]uint32, AlphabetSize)
	for c := 1; c < AlphabetSize; c++ {
		I.C[c] = I.C[c-1] + freq[c-1]
	}

	num_blocks := (n + int(block) - 1) / int(block)
	I.Occ = make([]uint32, num_blocks*AlphabetSize)
	running := make([]uint32, AlphabetSize)
	for b := 0; b < num_blocks; b++ {
		copy(I.Occ[b*AlphabetSize:(b+1)*AlphabetSize], running)
		lo, hi := b*int(block), (b+1)*int(block)
		if hi > n {
			hi = n
		}
		for _, c := range I.BWT[lo:hi] {
			running[c]++
		}
	}

	I.SSA = make([]uint32, 0, (n+int(sa_rate)-1)/int(sa_rate))
	for i := 0; i < n; i += int(sa_rate) {
		I.SSA = append(I.SSA, sa[i])
	}
	log.Printf("Finish building bwt and fm-index.\t%s", time.Since(start_time))
	return I
}

// Len returns the length of the indexed text.
func (I *FMIndex) Len() int {
	return len(I.BWT)
}

//----------------------------------------------------------------------------------------
// OccCount returns the number of occurrences of symbol c in BWT[0:k).
// It reads the nearest block sample at or below k and scans at most Block
// symbols of the BWT.
//----------------------------------------------------------------------------------------
func (I *FMIndex) OccCount(c byte, k int) uint32 {
	if k <= 0 {
		return 0
	}
	n := len(I.BWT)
	if k > n {
		log.Panicf("fm index: occ position %d out of range [0,%d]", k, n)
	}
	sigma := int(I.Sigma)
	num_blocks := len(I.Occ) / sigma
	b := k / int(I.Block)
	if b >= num_blocks {
		b = num_blocks - 1
	}
	count := I.Occ[b*sigma+int(c)]
	for j := b * int(I.Block); j < k; j++ {
		if I.BWT[j] == c {
			count++
		}
	}
	return count
}

//----------------------------------------------------------------------------------------
// ExtendBySymbol performs one backward-search step: it narrows the SA interval
// [l, r) of some pattern P to the interval of cP. The third result is false
// when the extended interval is empty.
//----------------------------------------------------------------------------------------
func (I *FMIndex) ExtendBySymbol(l, r int, c byte) (int, int, bool) {
	base := int(I.C[c])
	l1 := base + int(I.OccCount(c, l))
	r1 := base + int(I.OccCount(c, r))
	if l1 >= r1 {
		return l1, r1, false
	}
	return l1, r1, true
}

//----------------------------------------------------------------------------------------
// BackwardSearch returns the half-open SA interval of all occurrences of an
// encoded pattern, processing its symbols right to left. ok is false when the
// pattern does not occur.
//----------------------------------------------------------------------------------------
func (I *FMIndex) BackwardSearch(pattern []byte) (l, r int, ok bool) {
	l, r = 0, len(I.BWT)
	if len(pattern) == 0 {
		return l, r, false
	}
	for i := len(pattern) - 1; i >= 0; i-- {
		l, r, ok = I.ExtendBySymbol(l, r, pattern[i])
		if !ok {
			return l, r, false
		}
	}
	return l, r, true
}

// lfStep maps SA row i to the row of the preceding text position.
func (I *FMIndex) lfStep(i int) int {
	c := I.BWT[i]
	return int(I.C[c]) + int(I.OccCount(c, i))
}

//----------------------------------------------------------------------------------------
// saValue recovers the text position SA[i]. Rows divisible by SARate are
// sampled; other rows LF-walk to the nearest sampled row in k steps and the
// position is (SA[i*] + k) mod n.
//----------------------------------------------------------------------------------------
func (I *FMIndex) saValue(i int) uint32 {
	n := len(I.BWT)
	steps := uint32(0)
	for i%int(I.SARate) != 0 {
		i = I.lfStep(i)
		steps++
		if int(steps) > n {
			log.Panicf("fm index: sa lookup did not reach a sampled row after %d steps", steps)
		}
	}
	pos := I.SSA[i/int(I.SARate)] + steps
	if pos >= uint32(n) {
		pos -= uint32(n)
	}
	return pos
}

//----------------------------------------------------------------------------------------
// SAIntervalPositions appends the text positions of SA rows [l, r) to out and
// returns it. Exactly r-l distinct positions are produced.
//----------------------------------------------------------------------------------------
func (I *FMIndex) SAIntervalPositions(l, r int, out []uint32) []uint32 {
	if l < 0 || r > len(I.BWT) || l > r {
		log.Panicf("fm index: sa interval [%d,%d) out of range [0,%d)", l, r, len(I.BWT))
	}
	for i := l; i < r; i++ {
		out = append(out, I.saValue(i))
	}
	return out
}

//----------------------------------------------------------------------------------------
// MapTextPos maps a text position to (contig index, contig offset) by binary
// search over the contig directory. ok is false on sentinel positions.
//----------------------------------------------------------------------------------------
func (I *FMIndex) MapTextPos(pos uint32) (int, uint32, bool) {
	lo, hi := 0, len(I.Contigs)
	for lo < hi {
		mid := (lo + hi) / 2
		c := &I.Contigs[mid]
		switch {
		case pos < c.Off:
			hi = mid
		case pos >= c.Off+c.Len:
			lo = mid + 1
		default:
			return mid, pos - c.Off, true
		}
	}
	return -1, 0, false
}

// ContigByName returns the directory entry with the given name.
func (I *FMIndex) ContigByName(name string) (int, bool) {
	for i := range I.Contigs {
		if I.Contigs[i].Name == name {
			return i, true
		}
	}
	return -1, false
}

// String summarizes the index for log output.
func (I *FMIndex) String() string {
	return fmt.Sprintf("fm index: %d contigs, text length %d, occ block %d, sa rate %d",
		len(I.Contigs), len(I.BWT), I.Block, I.SARate)
}
