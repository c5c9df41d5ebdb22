package nfa

import (
	"testing"
)

func TestLabelStates(t *testing.T) {
	n := substringNfa(t, "ab")
	freq := make([]uint64, n.StateCount())
	rev := n.ReversedStateMap()
	dense := make(map[State]int, len(rev))
	for i, ext := range rev {
		dense[ext] = i
	}

	payloads := []string{"ab", "zz", "aab"}
	for _, p := range payloads {
		if err := LabelStates(n, []byte(p), freq); err != nil {
			t.Fatalf("LabelStates(%q) failed: %v", p, err)
		}
	}

	// The initial state has a full self-loop, so it is visited by every
	// payload and additionally bumped once per payload.
	if got := freq[dense[0]]; got != 6 {
		t.Errorf("freq[initial] = %d, want 6", got)
	}
	// State 1 is entered by "ab" and "aab"; the double 'a' in "aab"
	// counts once.
	if got := freq[dense[1]]; got != 2 {
		t.Errorf("freq[1] = %d, want 2", got)
	}
	// State 2 is reached by "ab" and "aab".
	if got := freq[dense[2]]; got != 2 {
		t.Errorf("freq[2] = %d, want 2", got)
	}
}

func TestLabelStatesRequiresBuild(t *testing.T) {
	n := New()
	n.SetInitial(0)
	n.AddFinal(0)
	if err := LabelStates(n, []byte("x"), make([]uint64, 1)); err != ErrNotBuilt {
		t.Fatalf("Expected ErrNotBuilt, got %v", err)
	}
}

func TestLabelMap(t *testing.T) {
	n := New()
	n.SetInitial(5)
	n.AddTransition(5, 9, 'a')
	n.AddFinal(9)
	if err := n.Build(); err != nil {
		t.Fatalf("Failed to build automaton: %v", err)
	}

	labels := n.LabelMap([]uint64{3, 7})
	if labels[5] != 3 || labels[9] != 7 {
		t.Errorf("Unexpected label map: %v", labels)
	}
}
