//----------------------------------------------------------------------------------------
// FMSA: swalign.go
// Banded affine-gap Smith-Waterman over encoded sequences. The H/E/F matrices
// are stored band-compressed (cell (i,j) lives at offset j-i+W of row i), the
// traceback is greedy with ties broken diagonal > insertion > deletion, and a
// query-end bonus lets alignments that reach the end of the read win over
// slightly higher-scoring clipped ones. The scratch lives in a reusable
// SWBuffer owned by each alignment worker.
//----------------------------------------------------------------------------------------

package fmsa

import (
	"log"
)

const negInf = int32(-(1 << 29))

//----------------------------------------------------------------------------------------
// SWParams carries the scoring configuration of one extension call.
//----------------------------------------------------------------------------------------
type SWParams struct {
	Match     int // match bonus, added
	Mismatch  int // mismatch penalty, subtracted
	GapOpen   int // gap open penalty, subtracted once per gap
	GapExt    int // gap extension penalty, subtracted per gap symbol
	BandWidth int
	EndBonus  int // score slack for preferring alignments that reach a query end
}

//----------------------------------------------------------------------------------------
// SWResult is the outcome of one banded extension. Intervals are half-open
// offsets within the query and reference slices that were aligned.
//----------------------------------------------------------------------------------------
type SWResult struct {
	Score       int
	QBeg, QEnd  int
	RBeg, REnd  int
	Cigar       Cigar
	NM          int
	BandLimited bool // the traced path touched the band edge
}

//----------------------------------------------------------------------------------------
// SWBuffer is per-worker scratch for the DP matrices, the traceback op string
// and the reversed sequences of the head-repair pass. It is cleared, not
// reallocated, between extensions.
//----------------------------------------------------------------------------------------
type SWBuffer struct {
	h, e, f []int32
	ops     []byte
	rq, rr  []byte
}

func (buf *SWBuffer) resize(size int) {
	if cap(buf.h) < size {
		buf.h = make([]int32, size)
		buf.e = make([]int32, size)
		buf.f = make([]int32, size)
	}
	buf.h = buf.h[:size]
	buf.e = buf.e[:size]
	buf.f = buf.f[:size]
}

func subScore(a, b byte, p *SWParams) int32 {
	if a == SymN || b == SymN {
		return 0
	}
	if a == b {
		return int32(p.Match)
	}
	return int32(-p.Mismatch)
}

//----------------------------------------------------------------------------------------
// BandedSW aligns an encoded query against an encoded reference window,
// restricting the DP to cells with |i-j| <= BandWidth. The traceback starts at
// the final query row when its best score is within EndBonus of the global
// maximum, so reads whose last bases mismatch are still aligned end to end.
//----------------------------------------------------------------------------------------
func BandedSW(query, ref []byte, p *SWParams, buf *SWBuffer) SWResult {
	m, n := len(query), len(ref)
	if m == 0 || n == 0 {
		return SWResult{}
	}
	w := p.BandWidth
	if w < 1 {
		w = 1
	}
	width := 2*w + 1
	buf.resize((m + 1) * width)
	h, e, f := buf.h, buf.e, buf.f

	open_ext := int32(p.GapOpen + p.GapExt)
	ext := int32(p.GapExt)

	// Row 0: fresh local alignments may start before any query base.
	for off := 0; off < width; off++ {
		j := off - w
		if j >= 0 && j <= n {
			h[off] = 0
		} else {
			h[off] = negInf
		}
		e[off] = negInf
		f[off] = negInf
	}

	var best_score, best_end int32
	best_i, best_j, best_end_j := 0, 0, -1

	for i := 1; i <= m; i++ {
		row := i * width
		prow := row - width
		for off := 0; off < width; off++ {
			h[row+off] = negInf
			e[row+off] = negInf
			f[row+off] = negInf
		}
		if i-w <= 0 {
			h[row+(0-i+w)] = 0 // alignment may also start before any reference base
		}
		j_lo, j_hi := i-w, i+w
		if j_lo < 1 {
			j_lo = 1
		}
		if j_hi > n {
			j_hi = n
		}
		qc := query[i-1]
		for j := j_lo; j <= j_hi; j++ {
			off := j - i + w
			idx := row + off

			ev := negInf
			if off+1 < width {
				up := prow + off + 1
				ev = h[up] - open_ext
				if x := e[up] - ext; x > ev {
					ev = x
				}
			}
			e[idx] = ev

			fv := negInf
			if off > 0 {
				left := idx - 1
				fv = h[left] - open_ext
				if x := f[left] - ext; x > fv {
					fv = x
				}
			}
			f[idx] = fv

			val := h[prow+off] + subScore(qc, ref[j-1], p)
			if ev > val {
				val = ev
			}
			if fv > val {
				val = fv
			}
			if val < 0 {
				val = 0
			}
			h[idx] = val

			if val > best_score {
				best_score, best_i, best_j = val, i, j
			}
			if i == m && val > best_end {
				best_end, best_end_j = val, j
			}
		}
	}

	start_i, start_j, score := best_i, best_j, best_score
	if best_end > 0 && best_end+int32(p.EndBonus) >= best_score {
		start_i, start_j, score = m, best_end_j, best_end
	}
	if score <= 0 {
		return SWResult{}
	}

	return traceback(query, ref, p, buf, w, start_i, start_j, int(score))
}

func traceback(query, ref []byte, p *SWParams, buf *SWBuffer, w, start_i, start_j, score int) SWResult {
	h, e, f := buf.h, buf.e, buf.f
	width := 2*w + 1
	ops := buf.ops[:0]
	limited := false

	i, j := start_i, start_j
	for i > 0 && j > 0 {
		off := j - i + w
		idx := i*width + off
		hv := h[idx]
		if hv <= 0 {
			break
		}
		if i-j == w || j-i == w {
			limited = true
		}
		diag := h[idx-width]
		switch {
		case diag > negInf && hv == diag+subScore(query[i-1], ref[j-1], p):
			ops = append(ops, 'M')
			i--
			j--
		case hv == e[idx]:
			ops = append(ops, 'I')
			i--
		case hv == f[idx]:
			ops = append(ops, 'D')
			j--
		default:
			log.Panicf("banded sw: traceback stuck at cell (%d,%d) score %d", i, j, hv)
		}
	}
	buf.ops = ops

	// Ops were collected end to start.
	for a, b := 0, len(ops)-1; a < b; a, b = a+1, b-1 {
		ops[a], ops[b] = ops[b], ops[a]
	}

	res := SWResult{
		Score:       score,
		QBeg:        i,
		QEnd:        start_i,
		RBeg:        j,
		REnd:        start_j,
		BandLimited: limited,
	}

	// Terminal gaps make no sense in a reported alignment: leading and
	// trailing insertions become part of the soft clips, terminal deletions
	// shrink the reference interval.
	for len(ops) > 0 && ops[0] != 'M' {
		if ops[0] == 'I' {
			res.QBeg++
		} else {
			res.RBeg++
		}
		ops = ops[1:]
	}
	for len(ops) > 0 && ops[len(ops)-1] != 'M' {
		if ops[len(ops)-1] == 'I' {
			res.QEnd--
		} else {
			res.REnd--
		}
		ops = ops[:len(ops)-1]
	}
	if len(ops) == 0 {
		return SWResult{}
	}
	qi, rj := res.QBeg, res.RBeg
	for _, op := range ops {
		switch op {
		case 'M':
			if query[qi] != ref[rj] {
				res.NM++
			}
			qi++
			rj++
		case 'I':
			res.NM++
			qi++
		default:
			res.NM++
			rj++
		}
	}
	res.Cigar = cigarFromOps(ops, res.QBeg, len(query)-res.QEnd)
	return res
}

//----------------------------------------------------------------------------------------
// BandedSWClip is BandedSW with a head-repair pass: when the forward alignment
// soft-clips the start of the query, the sequences are reversed and realigned
// so the end bonus applies to the clipped side; the repaired alignment wins
// when its score is within EndBonus of the clipped one.
//----------------------------------------------------------------------------------------
func BandedSWClip(query, ref []byte, p *SWParams, buf *SWBuffer) SWResult {
	res := BandedSW(query, ref, p, buf)
	if res.Score <= 0 || res.QBeg == 0 {
		return res
	}

	m, n := len(query), len(ref)
	buf.rq = reverseInto(buf.rq, query)
	buf.rr = reverseInto(buf.rr, ref)
	rev := BandedSW(buf.rq, buf.rr, p, buf)
	if rev.Score <= 0 || rev.QEnd != m || rev.Score+p.EndBonus < res.Score {
		return res
	}

	out := SWResult{
		Score:       rev.Score,
		QBeg:        m - rev.QEnd,
		QEnd:        m - rev.QBeg,
		RBeg:        n - rev.REnd,
		REnd:        n - rev.RBeg,
		NM:          rev.NM,
		BandLimited: rev.BandLimited,
	}
	out.Cigar = make(Cigar, len(rev.Cigar))
	for k, co := range rev.Cigar {
		out.Cigar[len(rev.Cigar)-1-k] = co
	}
	return out
}

func reverseInto(dst, src []byte) []byte {
	l := len(src)
	if cap(dst) < l {
		dst = make([]byte, l)
	}
	dst = dst[:l]
	for i, b := range src {
		dst[l-1-i] = b
	}
	return dst
}
