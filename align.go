//----------------------------------------------------------------------------------------
// FMSA: align.go
// Aligning reads to the reference: SMEM seeding on the forward and
// reverse-complement queries, chaining, banded extension, candidate
// deduplication and ranking, MAPQ estimation, and the parallel worker pool
// that drives all of it over a FASTQ stream.
//----------------------------------------------------------------------------------------

package fmsa

import (
	"fmt"
	"io"
	"math"
	"sort"
	"sync"
)

//----------------------------------------------------------------------------------------
// AlignOpt carries every alignment parameter. The zero value is unusable;
// start from DefaultAlignOpt.
//----------------------------------------------------------------------------------------
type AlignOpt struct {
	Match        int
	Mismatch     int
	GapOpen      int
	GapExt       int
	BandWidth    int
	MaxBandWidth int
	EndBonus     int
	MinSeedLen   int
	MaxOcc       int
	MaxChainGap  int
	PeelRatio    float64
	OverlapRatio float64
	ScoreFloor   int
	MaxSecondary int
	Threads      int
	Ordered      bool
	Debug        bool
}

// DefaultAlignOpt returns the standard parameter set.
func DefaultAlignOpt() *AlignOpt {
	return &AlignOpt{
		Match:        1,
		Mismatch:     4,
		GapOpen:      6,
		GapExt:       1,
		BandWidth:    16,
		MaxBandWidth: 512,
		EndBonus:     6,
		MinSeedLen:   19,
		MaxOcc:       500,
		MaxChainGap:  100,
		PeelRatio:    0.3,
		OverlapRatio: 0.5,
		ScoreFloor:   30,
		MaxSecondary: 10,
		Threads:      1,
	}
}

// Validate rejects parameter combinations the pipeline cannot run with.
func (opt *AlignOpt) Validate() error {
	switch {
	case opt.Match <= 0:
		return fmt.Errorf("match score must be positive, got %d", opt.Match)
	case opt.Mismatch < 0 || opt.GapOpen < 0 || opt.GapExt < 0:
		return fmt.Errorf("penalties must be non-negative")
	case opt.BandWidth <= 0:
		return fmt.Errorf("band width must be positive, got %d", opt.BandWidth)
	case opt.MinSeedLen <= 0:
		return fmt.Errorf("minimum seed length must be positive, got %d", opt.MinSeedLen)
	case opt.Threads <= 0:
		return fmt.Errorf("threads must be positive, got %d", opt.Threads)
	}
	return nil
}

//----------------------------------------------------------------------------------------
// Workspace is the per-worker scratch: encoded queries, seed, chain and
// candidate lists, and the DP buffers. Slices are truncated, not reallocated,
// between reads.
//----------------------------------------------------------------------------------------
type Workspace struct {
	enc     []byte
	rc      []byte
	mems    []Smem
	seeds   []AlnReg
	chains  []SeedChain
	cands   []AlnReg
	pos_buf []uint32
	sw      SWBuffer
}

// NewWorkspace allocates an empty workspace.
func NewWorkspace() *Workspace {
	return new(Workspace)
}

//----------------------------------------------------------------------------------------
// Alignment is the finished result for one read: ranked candidates (primary
// first, empty when unmapped), the primary MAPQ and the best competing score.
//----------------------------------------------------------------------------------------
type Alignment struct {
	Read     *ReadRec
	Cands    []AlnReg
	MapQ     int
	SubScore int
}

//----------------------------------------------------------------------------------------
// Aligner runs the pipeline against one immutable index.
//----------------------------------------------------------------------------------------
type Aligner struct {
	FM  *FMIndex
	Opt *AlignOpt
}

// NewAligner pairs an index with a parameter set.
func NewAligner(fm *FMIndex, opt *AlignOpt) *Aligner {
	return &Aligner{FM: fm, Opt: opt}
}

//----------------------------------------------------------------------------------------
// AlignRead aligns one read and returns its ranked candidates. The workspace
// is reused across calls; the returned Alignment owns its own memory.
//----------------------------------------------------------------------------------------
func (al *Aligner) AlignRead(read *ReadRec, ws *Workspace) *Alignment {
	a := &Alignment{Read: read}
	if len(read.Seq) == 0 {
		return a
	}

	ws.enc = encodeInto(ws.enc, read.Seq)
	ws.rc = RevCompEncoded(ws.enc, ws.rc)
	ws.cands = ws.cands[:0]
	ws.cands = al.collectCandidates(ws.enc, false, ws, ws.cands)
	ws.cands = al.collectCandidates(ws.rc, true, ws, ws.cands)
	if len(ws.cands) == 0 {
		return a
	}

	rankCandidates(ws.cands)
	cands := dedupCandidates(ws.cands)
	keep := 1 + al.Opt.MaxSecondary
	if len(cands) > keep {
		cands = cands[:keep]
	}

	a.Cands = append(make([]AlnReg, 0, len(cands)), cands...)
	s1 := a.Cands[0].Score
	if len(a.Cands) == 1 {
		a.MapQ = 60
	} else {
		a.SubScore = a.Cands[1].Score
		mapq := int(math.Round(40 * float64(s1-a.SubScore) / float64(s1)))
		if mapq < 0 {
			mapq = 0
		}
		if mapq > 60 {
			mapq = 60
		}
		a.MapQ = mapq
	}
	return a
}

func encodeInto(dst, seq []byte) []byte {
	if cap(dst) < len(seq) {
		dst = make([]byte, len(seq))
	}
	dst = dst[:len(seq)]
	for i, b := range seq {
		dst[i] = EncodeBase(b)
	}
	return dst
}

//----------------------------------------------------------------------------------------
// collectCandidates runs seeding, chaining, filtering and extension for one
// query direction and appends the surviving candidates.
//----------------------------------------------------------------------------------------
func (al *Aligner) collectCandidates(q []byte, is_rev bool, ws *Workspace, cands []AlnReg) []AlnReg {
	ws.mems = ws.mems[:0]
	ws.seeds = ws.seeds[:0]
	ws.chains = ws.chains[:0]

	ws.mems = al.FM.SearchSMEMs(q, al.Opt.MinSeedLen, al.Opt.MaxOcc, ws.mems)
	if len(ws.mems) == 0 {
		return cands
	}
	ws.seeds, ws.pos_buf = al.FM.ExpandSMEMs(ws.mems, is_rev, ws.seeds, ws.pos_buf)
	ws.chains = BuildChains(ws.seeds, al.Opt, ws.chains)
	ws.chains = FilterChains(ws.chains, al.Opt.OverlapRatio)

	for ci := range ws.chains {
		cands = al.extendChain(q, &ws.chains[ci], is_rev, ws, cands)
	}
	return cands
}

//----------------------------------------------------------------------------------------
// extendChain runs the banded extension of one chain against its reference
// window and appends the candidate when it clears the score floor. When the
// traced path touches the band edge the extension is retried with a doubled
// band up to MaxBandWidth.
//----------------------------------------------------------------------------------------
func (al *Aligner) extendChain(q []byte, chain *SeedChain, is_rev bool, ws *Workspace, cands []AlnReg) []AlnReg {
	opt := al.Opt
	contig := &al.FM.Contigs[chain.Contig]
	m := len(q)

	var res SWResult
	var win_lo int
	for w := opt.BandWidth; ; w *= 2 {
		win_lo = int(chain.RBeg) - chain.QBeg - w
		if win_lo < int(contig.Off) {
			win_lo = int(contig.Off)
		}
		win_hi := int(chain.REnd) + (m - chain.QEnd) + w
		if win_hi > int(contig.Off+contig.Len) {
			win_hi = int(contig.Off + contig.Len)
		}
		if win_hi <= win_lo {
			return cands
		}
		params := SWParams{
			Match:     opt.Match,
			Mismatch:  opt.Mismatch,
			GapOpen:   opt.GapOpen,
			GapExt:    opt.GapExt,
			BandWidth: w,
			EndBonus:  opt.EndBonus,
		}
		res = BandedSWClip(q, al.FM.Seq[win_lo:win_hi], &params, &ws.sw)
		if !res.BandLimited || w*2 > opt.MaxBandWidth {
			break
		}
	}
	if res.Score < opt.ScoreFloor || len(res.Cigar) == 0 {
		return cands
	}

	pos_text := uint32(win_lo + res.RBeg)
	cands = append(cands, AlnReg{
		QB:     res.QBeg,
		QE:     res.QEnd,
		RB:     pos_text,
		RE:     uint32(win_lo + res.REnd),
		Contig: chain.Contig,
		Pos:    pos_text - contig.Off,
		Width:  chain.Score,
		IsRev:  is_rev,
		Score:  res.Score,
		NM:     res.NM,
		Cigar:  res.Cigar,
		Order:  len(cands),
	})
	return cands
}

//----------------------------------------------------------------------------------------
// rankCandidates orders candidates by score descending, then edit distance,
// then reference position, forward strand before reverse, and finally by the
// order the candidates were produced.
//----------------------------------------------------------------------------------------
func rankCandidates(cands []AlnReg) {
	sort.SliceStable(cands, func(a, b int) bool {
		ca, cb := &cands[a], &cands[b]
		if ca.Score != cb.Score {
			return ca.Score > cb.Score
		}
		if ca.NM != cb.NM {
			return ca.NM < cb.NM
		}
		if ca.Contig != cb.Contig {
			return ca.Contig < cb.Contig
		}
		if ca.Pos != cb.Pos {
			return ca.Pos < cb.Pos
		}
		if ca.IsRev != cb.IsRev {
			return !ca.IsRev
		}
		return ca.Order < cb.Order
	})
}

// dupWobble is the coordinate slack within which two candidates describe the
// same locus.
const dupWobble = 8

//----------------------------------------------------------------------------------------
// dedupCandidates collapses candidates whose reference positions and query
// coverage agree within dupWobble. The input must already be ranked, so the
// survivor of each group is the best one.
//----------------------------------------------------------------------------------------
func dedupCandidates(cands []AlnReg) []AlnReg {
	kept := cands[:0]
	for i := range cands {
		dup := false
		for k := range kept {
			if sameLocus(&kept[k], &cands[i]) {
				dup = true
				break
			}
		}
		if !dup {
			kept = append(kept, cands[i])
		}
	}
	return kept
}

func sameLocus(a, b *AlnReg) bool {
	if a.Contig != b.Contig {
		return false
	}
	return absDiff(int(a.Pos), int(b.Pos)) <= dupWobble &&
		absDiff(a.QB, b.QB) <= dupWobble &&
		absDiff(a.QE, b.QE) <= dupWobble
}

func absDiff(a, b int) int {
	if a > b {
		return a - b
	}
	return b - a
}

//----------------------------------------------------------------------------------------
// AlignReads drives the worker pool over a FASTQ stream and writes records
// through sw. The producer blocks on a queue bounded at four reads per worker;
// closing stop halts dispatch while in-flight reads drain. With Ordered set,
// records come out in input order; otherwise they are written as soon as each
// read finishes.
//----------------------------------------------------------------------------------------
func (al *Aligner) AlignReads(r io.Reader, sw *SamWriter, stop <-chan struct{}) error {
	threads := al.Opt.Threads
	if threads < 1 {
		threads = 1
	}
	read_data := make(chan *ReadRec, 4*threads)
	results := make(chan *Alignment, 4*threads)
	read_err := make(chan error, 1)

	go func() {
		defer close(read_data)
		scanner := NewFastqScanner(r)
		for idx := 0; ; idx++ {
			rec, err := scanner.Next()
			if err == io.EOF {
				return
			}
			if err != nil {
				read_err <- err
				return
			}
			rec.Idx = idx
			select {
			case read_data <- rec:
			case <-stop:
				return
			}
		}
	}()

	var wg sync.WaitGroup
	for t := 0; t < threads; t++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ws := NewWorkspace()
			for rec := range read_data {
				results <- al.AlignRead(rec, ws)
			}
		}()
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	var werr error
	if al.Opt.Ordered {
		pending := make(map[int]*Alignment)
		next := 0
		for a := range results {
			pending[a.Read.Idx] = a
			for {
				b, ok := pending[next]
				if !ok {
					break
				}
				delete(pending, next)
				next++
				if werr == nil {
					werr = sw.WriteAlignment(b)
				}
			}
		}
	} else {
		for a := range results {
			if werr == nil {
				werr = sw.WriteAlignment(a)
			}
		}
	}
	if werr != nil {
		return fmt.Errorf("write alignment: %w", werr)
	}
	select {
	case err := <-read_err:
		return err
	default:
	}
	return nil
}
