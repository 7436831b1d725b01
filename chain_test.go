//----------------------------------------------------------------------------------------
// Tests for seed chaining and chain filtering.
//----------------------------------------------------------------------------------------

package fmsa

import (
	"testing"
)

func testChainOpt() *AlignOpt {
	opt := DefaultAlignOpt()
	opt.MaxChainGap = 10
	return opt
}

func seedAt(qb, qe int, rb uint32) AlnReg {
	return AlnReg{QB: qb, QE: qe, RB: rb, RE: rb + uint32(qe-qb), Width: qe - qb}
}

func TestChainSimpleDiagonal(t *testing.T) {
	seeds := []AlnReg{
		seedAt(0, 4, 0),
		seedAt(4, 8, 4),
	}
	chains := BuildChains(seeds, testChainOpt(), nil)
	if len(chains) != 1 {
		t.Fatalf("got %d chains, want 1", len(chains))
	}
	c := chains[0]
	if len(c.Seeds) != 2 || c.Score != 8 {
		t.Errorf("chain = %+v, want 2 seeds scoring 8", c)
	}
	if c.QBeg != 0 || c.QEnd != 8 || c.RBeg != 0 || c.REnd != 8 {
		t.Errorf("chain bounds = q[%d,%d) r[%d,%d)", c.QBeg, c.QEnd, c.RBeg, c.REnd)
	}
}

func TestChainSkewPenalty(t *testing.T) {
	opt := testChainOpt()
	seeds := []AlnReg{
		seedAt(0, 4, 0),
		seedAt(4, 8, 6), // skew 2
	}
	chains := BuildChains(seeds, opt, nil)
	if len(chains) == 0 {
		t.Fatal("no chains")
	}
	want := 8 - (opt.GapOpen + 2*opt.GapExt)
	if chains[0].Score != want && chains[0].Score != 4 {
		t.Errorf("chain score = %d, want %d (joined) or 4 (split)", chains[0].Score, want)
	}
}

func TestChainRejectsFarSeeds(t *testing.T) {
	seeds := []AlnReg{
		seedAt(0, 4, 0),
		seedAt(4, 8, 100), // skew way over MaxChainGap
	}
	chains := BuildChains(seeds, testChainOpt(), nil)
	for _, c := range chains {
		if len(c.Seeds) > 1 {
			t.Errorf("far seeds were chained together: %+v", c)
		}
	}
}

func TestChainGreedyPeel(t *testing.T) {
	// Two disjoint diagonals of equal strength.
	seeds := []AlnReg{
		seedAt(0, 4, 0),
		seedAt(4, 8, 4),
		seedAt(0, 4, 100),
		seedAt(4, 8, 104),
	}
	chains := BuildChains(seeds, testChainOpt(), nil)
	if len(chains) != 2 {
		t.Fatalf("got %d chains, want 2", len(chains))
	}
	if chains[0].Score != 8 || chains[1].Score != 8 {
		t.Errorf("chain scores = %d, %d", chains[0].Score, chains[1].Score)
	}
}

func TestChainPeelRatioCutoff(t *testing.T) {
	opt := testChainOpt()
	opt.PeelRatio = 0.9
	seeds := []AlnReg{
		seedAt(0, 10, 0),
		seedAt(2, 6, 200), // score 4 < 0.9 * 10
	}
	chains := BuildChains(seeds, opt, nil)
	if len(chains) != 1 {
		t.Errorf("got %d chains, want 1 after the peel cutoff", len(chains))
	}
}

func TestChainContigSeparation(t *testing.T) {
	seeds := []AlnReg{
		seedAt(0, 4, 0),
		{QB: 4, QE: 8, RB: 4, RE: 8, Width: 4, Contig: 1},
	}
	chains := BuildChains(seeds, testChainOpt(), nil)
	for _, c := range chains {
		if len(c.Seeds) > 1 {
			t.Errorf("seeds on different contigs were chained: %+v", c)
		}
	}
}

func TestFilterChainsDropsRedundant(t *testing.T) {
	chains := []SeedChain{
		{Score: 20, QBeg: 0, QEnd: 16},
		{Score: 12, QBeg: 0, QEnd: 12}, // fully covered by the stronger chain
		{Score: 10, QBeg: 20, QEnd: 30},
	}
	kept := FilterChains(chains, 0.5)
	if len(kept) != 2 {
		t.Fatalf("kept %d chains, want 2", len(kept))
	}
	if kept[0].Score != 20 || kept[1].Score != 10 {
		t.Errorf("kept scores = %d, %d", kept[0].Score, kept[1].Score)
	}
}

func TestFilterChainsKeepsPartialOverlap(t *testing.T) {
	chains := []SeedChain{
		{Score: 20, QBeg: 0, QEnd: 16},
		{Score: 12, QBeg: 13, QEnd: 30}, // only 3 of 17 covered
	}
	kept := FilterChains(chains, 0.5)
	if len(kept) != 2 {
		t.Errorf("kept %d chains, want 2", len(kept))
	}
}
