package nfa

import (
	"testing"
)

// fanNfa builds a 5-state automaton: initial state 0, states 1..4 each
// reachable directly from 0, state 4 accepting.
func fanNfa(t *testing.T) *Nfa {
	t.Helper()
	n := New()
	n.SetInitial(0)
	n.AddTransition(0, 1, 'a')
	n.AddTransition(0, 2, 'b')
	n.AddTransition(0, 3, 'c')
	n.AddTransition(0, 4, 'd')
	n.AddTransition(1, 4, 'x')
	n.AddTransition(2, 4, 'y')
	n.AddFinal(4)
	return n
}

// A 20% prune of a 5-state automaton where state 3 is never visited by
// training traffic must remove exactly state 3.
func TestPruneRemovesColdestState(t *testing.T) {
	n := fanNfa(t)
	labels := map[State]uint64{0: 100, 1: 80, 2: 70, 3: 0, 4: 90}

	predicted, err := Prune(n, labels, 0.2, -1)
	if err != nil {
		t.Fatalf("Prune failed: %v", err)
	}

	if n.StateCount() != 4 {
		t.Fatalf("Expected 4 states after prune, got %d", n.StateCount())
	}
	if n.IsState(3) {
		t.Error("Expected state 3 to be removed")
	}
	for _, s := range []State{0, 1, 2, 4} {
		if !n.IsState(s) {
			t.Errorf("State %d should have survived", s)
		}
	}
	if predicted != 0 {
		t.Errorf("Removing a never-visited state should predict zero error, got %g", predicted)
	}
	if err := n.CheckConsistency(); err != nil {
		t.Errorf("Pruned automaton is inconsistent: %v", err)
	}
}

func TestPruneRespectsErrorBudget(t *testing.T) {
	n := fanNfa(t)
	// Every candidate carries half the traffic mass; any removal would
	// exceed a 10% budget.
	labels := map[State]uint64{0: 100, 1: 50, 2: 50, 3: 50, 4: 50}

	predicted, err := Prune(n, labels, 0.8, 0.1)
	if err != nil {
		t.Fatalf("Prune failed: %v", err)
	}
	if n.StateCount() != 5 {
		t.Errorf("Expected no removals under the budget, got %d states", n.StateCount())
	}
	if predicted != 0 {
		t.Errorf("Expected zero predicted error, got %g", predicted)
	}
}

func TestPruneInvalidRatio(t *testing.T) {
	n := fanNfa(t)
	labels := map[State]uint64{}
	for _, pct := range []float64{-0.5, 0, 1, 1.5} {
		if _, err := Prune(n.Clone(), labels, pct, -1); err == nil {
			t.Errorf("Expected an error for ratio %g", pct)
		}
	}
}

// branchNfa builds an automaton with independent two-state signature chains
// hanging off a self-looping initial state, each ending in its own accepting
// state. Pruning one chain orphans only that chain's accepting leaf.
func branchNfa(t *testing.T, branches int) *Nfa {
	t.Helper()
	n := New()
	n.SetInitial(0)
	addSelfLoop(n, 0)
	for i := 0; i < branches; i++ {
		mid := State(10 + i)
		leaf := State(100 + i)
		n.AddTransition(0, mid, byte('a'+i))
		n.AddTransition(mid, leaf, 'x')
		n.AddFinal(leaf)
	}
	if err := n.Build(); err != nil {
		t.Fatalf("Failed to build automaton: %v", err)
	}
	return n
}

// A candidate whose removal would disconnect every accepting state is
// skipped rather than leaving a useless automaton behind.
func TestPruneKeepsAnAcceptingStateReachable(t *testing.T) {
	base := substringNfa(t, "longsignature")
	labels := map[State]uint64{0: 1000}
	for i, rev := 1, base.ReversedStateMap(); i < len(rev); i++ {
		labels[rev[i]] = uint64(i)
	}

	n := base.Clone()
	if _, err := Prune(n, labels, 0.5, -1); err != nil {
		t.Fatalf("Prune failed: %v", err)
	}
	// Every interior state sits on the only path to the single accepting
	// state, so nothing is removable.
	if n.StateCount() != base.StateCount() {
		t.Errorf("Expected no removals on a single chain, got %d/%d states",
			n.StateCount(), base.StateCount())
	}
	if err := n.CheckConsistency(); err != nil {
		t.Errorf("Automaton is inconsistent: %v", err)
	}
}

// Increasing the reduction ratio never increases the resulting state count,
// and the predicted error is non-decreasing.
func TestPruneMonotonicity(t *testing.T) {
	base := branchNfa(t, 8)
	labels := map[State]uint64{0: 1000}
	for i, rev := 1, base.ReversedStateMap(); i < len(rev); i++ {
		labels[rev[i]] = uint64((i * 37) % 100)
	}

	prevCount := base.StateCount() + 1
	prevErr := -1.0
	for _, pct := range []float64{0.1, 0.2, 0.4, 0.6, 0.8} {
		n := base.Clone()
		predicted, err := Prune(n, labels, pct, -1)
		if err != nil {
			t.Fatalf("Prune(pct=%g) failed: %v", pct, err)
		}
		if n.StateCount() > prevCount {
			t.Errorf("State count grew from %d to %d at pct=%g", prevCount, n.StateCount(), pct)
		}
		if predicted < prevErr {
			t.Errorf("Predicted error dropped from %g to %g at pct=%g", prevErr, predicted, pct)
		}
		if err := n.CheckConsistency(); err != nil {
			t.Errorf("Inconsistent automaton at pct=%g: %v", pct, err)
		}
		prevCount = n.StateCount()
		prevErr = predicted
	}
}

func TestMergeAndPruneConsistency(t *testing.T) {
	base := substringNfa(t, "malware")
	labels := map[State]uint64{0: 500}
	for i, rev := 1, base.ReversedStateMap(); i < len(rev); i++ {
		labels[rev[i]] = uint64((i * 13) % 50)
	}

	for _, pct := range []float64{0.2, 0.5, 0.7} {
		n := base.Clone()
		if _, err := MergeAndPrune(n, labels, pct); err != nil {
			t.Fatalf("MergeAndPrune(pct=%g) failed: %v", pct, err)
		}
		if err := n.CheckConsistency(); err != nil {
			t.Errorf("Dangling transitions after merge at pct=%g: %v", pct, err)
		}
		if n.StateCount() > base.StateCount() {
			t.Errorf("Merge grew the automaton at pct=%g", pct)
		}
	}
}

// Merging redirects paths instead of cutting them, so everything the
// original accepted stays accepted.
func TestMergeAndPrunePreservesAcceptance(t *testing.T) {
	base := substringNfa(t, "worm")
	labels := map[State]uint64{0: 200}
	for i, rev := 1, base.ReversedStateMap(); i < len(rev); i++ {
		labels[rev[i]] = uint64(i * 11)
	}

	n := base.Clone()
	if _, err := MergeAndPrune(n, labels, 0.5); err != nil {
		t.Fatalf("MergeAndPrune failed: %v", err)
	}
	if err := n.Build(); err != nil {
		t.Fatalf("Failed to build merged automaton: %v", err)
	}

	corpus := []string{"worm", "xwormx", "wormworm", "wor", "", "mrow"}
	for _, p := range corpus {
		if mustAccept(t, base, []byte(p)) && !mustAccept(t, n, []byte(p)) {
			t.Errorf("Merged automaton rejects %q which the original accepts", p)
		}
	}
}

func TestMergeAndPruneReversedStateMap(t *testing.T) {
	base := substringNfa(t, "virus")
	labels := map[State]uint64{0: 100}
	for i, rev := 1, base.ReversedStateMap(); i < len(rev); i++ {
		labels[rev[i]] = uint64(i)
	}

	n := base.Clone()
	if _, err := MergeAndPrune(n, labels, 0.4); err != nil {
		t.Fatalf("MergeAndPrune failed: %v", err)
	}
	if err := n.Build(); err != nil {
		t.Fatalf("Failed to build merged automaton: %v", err)
	}

	// Every dense id must resolve to a surviving external id.
	for _, ext := range n.ReversedStateMap() {
		if !n.IsState(ext) {
			t.Errorf("Reversed state map references removed state %d", ext)
		}
	}
}
