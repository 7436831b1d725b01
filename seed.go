//----------------------------------------------------------------------------------------
// FMSA: seed.go
// Searching for SMEM seeds between reads and the reference using the FM-index.
// At each pivot the match is first extended right as far as any exact
// occurrence remains, then extended left one symbol at a time with single
// backward-search steps; one maximal match per pivot is kept.
//----------------------------------------------------------------------------------------

package fmsa

//----------------------------------------------------------------------------------------
// Smem is a maximal exact match of read[QB:QE) with SA interval [L, R).
//----------------------------------------------------------------------------------------
type Smem struct {
	QB, QE int
	L, R   int
}

// Width returns the number of reference occurrences of the match.
func (s Smem) Width() int {
	return s.R - s.L
}

//----------------------------------------------------------------------------------------
// AlnReg is one alignment region: a seed occurrence before extension, the
// extended candidate afterwards. Query interval [QB, QE), text interval
// [RB, RE), Pos is the 0-based position inside contig Contig.
//----------------------------------------------------------------------------------------
type AlnReg struct {
	QB, QE int
	RB, RE uint32
	Contig int
	Pos    uint32
	Width  int
	IsRev  bool
	Score  int
	NM     int
	Cigar  Cigar
	Order  int // production order of the seed, or of the candidate after extension; the final tie-break
}

//----------------------------------------------------------------------------------------
// SearchSMEMs appends the SMEMs of an encoded read to mems and returns it.
// Matches shorter than min_slen or with more than max_occ occurrences are
// discarded; the N symbol never participates in a match.
//----------------------------------------------------------------------------------------
func (I *FMIndex) SearchSMEMs(read []byte, min_slen, max_occ int, mems []Smem) []Smem {
	m := len(read)
	prev_qb, prev_qe := -1, -1
	for p := 0; p < m; {
		if read[p] == SymN {
			p++
			continue
		}

		// Extend right: the longest exact match starting at p. Each growth
		// re-runs backward search on read[p:b); backward search consumes the
		// pattern right to left, so the interval cannot be carried over.
		best_b := -1
		var best_l, best_r int
		for b := p + 1; b <= m; b++ {
			if read[b-1] == SymN {
				break
			}
			l, r, ok := I.BackwardSearch(read[p:b])
			if !ok {
				break
			}
			best_b, best_l, best_r = b, l, r
		}
		if best_b < 0 {
			p++
			continue
		}

		// Extend left from the widest right extension, one backward step per
		// symbol, while any occurrence survives.
		a := p
		l, r := best_l, best_r
		for a > 0 && read[a-1] != SymN {
			l1, r1, ok := I.ExtendBySymbol(l, r, read[a-1])
			if !ok {
				break
			}
			a--
			l, r = l1, r1
		}

		if best_b-a >= min_slen && r-l <= max_occ {
			// Suppress a match contained in the previously emitted one.
			if !(a >= prev_qb && best_b <= prev_qe) {
				mems = append(mems, Smem{QB: a, QE: best_b, L: l, R: r})
				prev_qb, prev_qe = a, best_b
			}
		}
		if best_b > p {
			p = best_b
		} else {
			p++
		}
	}
	return mems
}

//----------------------------------------------------------------------------------------
// ExpandSMEMs turns SMEMs into per-occurrence seed regions, dropping
// occurrences that cross a contig boundary. pos_buf is scratch for the
// SA-interval expansion.
//----------------------------------------------------------------------------------------
func (I *FMIndex) ExpandSMEMs(mems []Smem, is_rev bool, seeds []AlnReg, pos_buf []uint32) ([]AlnReg, []uint32) {
	for _, mem := range mems {
		pos_buf = pos_buf[:0]
		pos_buf = I.SAIntervalPositions(mem.L, mem.R, pos_buf)
		seed_len := uint32(mem.QE - mem.QB)
		for _, pos := range pos_buf {
			ci, off, ok := I.MapTextPos(pos)
			if !ok {
				continue
			}
			if off+seed_len > I.Contigs[ci].Len {
				continue
			}
			seeds = append(seeds, AlnReg{
				QB:     mem.QB,
				QE:     mem.QE,
				RB:     pos,
				RE:     pos + seed_len,
				Contig: ci,
				Pos:    off,
				Width:  mem.QE - mem.QB,
				IsRev:  is_rev,
				Order:  len(seeds),
			})
		}
	}
	return seeds, pos_buf
}
