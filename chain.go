//----------------------------------------------------------------------------------------
// FMSA: chain.go
// Clustering colinear seeds into chains with dynamic programming, peeling off
// multiple chains greedily, and filtering weak or redundant chains before the
// banded extension stage.
//----------------------------------------------------------------------------------------

package fmsa

import (
	"sort"
)

// maxChainsPerRead bounds the greedy peel so degenerate seed sets cannot blow
// up the extension stage.
const maxChainsPerRead = 32

//----------------------------------------------------------------------------------------
// SeedChain is an ordered run of colinear seeds on one contig, with its DP
// score and its query-coverage interval [QBeg, QEnd).
//----------------------------------------------------------------------------------------
type SeedChain struct {
	Seeds  []int // indexes into the seed slice the chain was built from
	Score  int
	Contig int
	QBeg   int
	QEnd   int
	RBeg   uint32
	REnd   uint32
}

//----------------------------------------------------------------------------------------
// BuildChains clusters seeds of one read direction into chains. Seeds are
// sorted by (contig, qb, rb); two seeds chain when both coordinates are
// non-decreasing and the diagonal skew between them stays within
// max_chain_gap. The chain score is the sum of seed weights minus
// gap_open + skew*gap_ext per skewed junction. Chains are peeled greedily,
// best first, until the next score drops below peel_ratio of the best.
// chains is appended to and returned so callers can reuse its backing array.
//----------------------------------------------------------------------------------------
func BuildChains(seeds []AlnReg, opt *AlignOpt, chains []SeedChain) []SeedChain {
	n := len(seeds)
	if n == 0 {
		return chains
	}
	sort.Slice(seeds, func(a, b int) bool {
		sa, sb := &seeds[a], &seeds[b]
		if sa.Contig != sb.Contig {
			return sa.Contig < sb.Contig
		}
		if sa.QB != sb.QB {
			return sa.QB < sb.QB
		}
		if sa.RB != sb.RB {
			return sa.RB < sb.RB
		}
		return sa.Order < sb.Order
	})

	dp := make([]int, n)
	prev := make([]int, n)
	used := make([]bool, n)

	best_first := 0
	for len(chains) < maxChainsPerRead {
		best_i := -1
		for i := 0; i < n; i++ {
			if used[i] {
				continue
			}
			si := &seeds[i]
			dp[i] = si.Width
			prev[i] = -1
			for j := 0; j < i; j++ {
				if used[j] {
					continue
				}
				sj := &seeds[j]
				if sj.Contig != si.Contig {
					continue
				}
				if si.QB < sj.QB || si.RB < sj.RB {
					continue
				}
				skew := (int(si.RB) - int(sj.RB)) - (si.QB - sj.QB)
				if skew < 0 {
					skew = -skew
				}
				if skew > opt.MaxChainGap {
					continue
				}
				pen := 0
				if skew > 0 {
					pen = opt.GapOpen + skew*opt.GapExt
				}
				cand := dp[j] + si.Width - pen
				if cand > dp[i] {
					dp[i] = cand
					prev[i] = j
				}
			}
			if best_i < 0 || dp[i] > dp[best_i] {
				best_i = i
			}
		}
		if best_i < 0 {
			break
		}
		if len(chains) == 0 {
			best_first = dp[best_i]
		} else if float64(dp[best_i]) < opt.PeelRatio*float64(best_first) {
			break
		}

		chain := SeedChain{Score: dp[best_i], Contig: seeds[best_i].Contig}
		for i := best_i; i >= 0; i = prev[i] {
			chain.Seeds = append(chain.Seeds, i)
			used[i] = true
		}
		// Traceback collected the seeds last-to-first.
		for a, b := 0, len(chain.Seeds)-1; a < b; a, b = a+1, b-1 {
			chain.Seeds[a], chain.Seeds[b] = chain.Seeds[b], chain.Seeds[a]
		}
		first, last := &seeds[chain.Seeds[0]], &seeds[chain.Seeds[len(chain.Seeds)-1]]
		chain.QBeg, chain.QEnd = first.QB, last.QE
		chain.RBeg, chain.REnd = first.RB, last.RE
		for _, si := range chain.Seeds {
			s := &seeds[si]
			if s.QE > chain.QEnd {
				chain.QEnd = s.QE
			}
			if s.RE > chain.REnd {
				chain.REnd = s.RE
			}
		}
		chains = append(chains, chain)
	}
	return chains
}

//----------------------------------------------------------------------------------------
// FilterChains removes a chain when a chain of equal or higher score covers at
// least overlap_ratio of its query interval. Chains are processed in
// descending score order; the survivors come back in that order.
//----------------------------------------------------------------------------------------
func FilterChains(chains []SeedChain, overlap_ratio float64) []SeedChain {
	if len(chains) < 2 {
		return chains
	}
	sort.SliceStable(chains, func(a, b int) bool {
		return chains[a].Score > chains[b].Score
	})
	kept := chains[:1]
	for i := 1; i < len(chains); i++ {
		x := &chains[i]
		x_len := x.QEnd - x.QBeg
		redundant := false
		for k := range kept {
			y := &kept[k]
			if y.Score < x.Score {
				continue
			}
			lo, hi := x.QBeg, x.QEnd
			if y.QBeg > lo {
				lo = y.QBeg
			}
			if y.QEnd < hi {
				hi = y.QEnd
			}
			if hi > lo && float64(hi-lo) >= overlap_ratio*float64(x_len) {
				redundant = true
				break
			}
		}
		if !redundant {
			kept = append(kept, *x)
		}
	}
	return kept
}
