package chain

import (
	"testing"

	"github.com/kelpbio/bwago/region"
)

func seedAt(qb, qe, rb int) region.AlnReg {
	return region.AlnReg{QB: qb, QE: qe, RB: rb, RE: rb + (qe - qb), Weight: qe - qb, Forward: true}
}

func TestBuildChainsColinearSeeds(t *testing.T) {
	seeds := []region.AlnReg{
		seedAt(0, 20, 100),
		seedAt(25, 45, 125),
		seedAt(50, 70, 150),
	}
	chains := Build(seeds, DefaultOptions())
	if len(chains) != 1 {
		t.Fatalf("expected a single chain from 3 perfectly colinear seeds, got %d", len(chains))
	}
	if len(chains[0].Seeds) != 3 {
		t.Errorf("expected chain to contain all 3 seeds, got %d", len(chains[0].Seeds))
	}
	if chains[0].QB != 0 || chains[0].QE != 70 {
		t.Errorf("chain query coverage = [%d,%d), want [0,70)", chains[0].QB, chains[0].QE)
	}
}

func TestBuildSeparatesIncompatibleSeeds(t *testing.T) {
	// Second seed's reference position does not track its query position
	// (skew far beyond MaxChainGap), and it is also on a totally different
	// diagonal, so it should not join the first chain.
	seeds := []region.AlnReg{
		seedAt(0, 20, 1000),
		seedAt(25, 45, 5000),
	}
	chains := Build(seeds, Options{MaxChainGap: 100, PeelRatio: 0.01, GapOpen: 6, GapExtend: 1})
	if len(chains) != 2 {
		t.Fatalf("expected 2 separate chains, got %d: %+v", len(chains), chains)
	}
}

func TestBuildRejectsOppositeOrderSeeds(t *testing.T) {
	// j must have both qb_j >= qb_i and rb_j >= rb_i; here the reference
	// order is inverted relative to the query order, so they cannot chain.
	seeds := []region.AlnReg{
		seedAt(0, 20, 200),
		seedAt(25, 45, 100),
	}
	chains := Build(seeds, DefaultOptions())
	if len(chains) != 2 {
		t.Fatalf("expected 2 separate chains for inverted order, got %d", len(chains))
	}
}

func TestFilterDropsOverlappingWeakerChain(t *testing.T) {
	strong := region.Chain{QB: 0, QE: 100, Score: 100}
	weak := region.Chain{QB: 10, QE: 90, Score: 50}
	kept := Filter([]region.Chain{strong, weak}, 0.5)
	if len(kept) != 1 || kept[0].Score != 100 {
		t.Fatalf("expected only the strong chain to survive, got %+v", kept)
	}
}

func TestFilterKeepsDisjointChains(t *testing.T) {
	a := region.Chain{QB: 0, QE: 50, Score: 100}
	b := region.Chain{QB: 60, QE: 110, Score: 90}
	kept := Filter([]region.Chain{a, b}, 0.5)
	if len(kept) != 2 {
		t.Fatalf("expected both disjoint chains to survive, got %d", len(kept))
	}
}
