package nfa

import (
	"fmt"
	"sort"
)

// Reduction strategies. Both mutate the automaton in place, bounded by a
// target reduction ratio pct of the original state count, and return a
// predicted error: the cumulative visit-frequency mass of the states
// excluded, normalized by the per-payload total carried by the initial
// state's label (capped at 1). The estimate is monotonically non-decreasing
// in the number of states removed and deterministic for a fixed automaton
// and label map. The initial state and the accepting states are never
// reduction candidates.

// reductionCandidates returns the removable states ranked least valuable
// first: ascending frequency, ties broken by greater depth, then by smaller
// external id.
func reductionCandidates(n *Nfa, labels map[State]uint64) []State {
	depth := n.StateDepth()
	candidates := make([]State, 0, len(n.trans))
	for s := range n.trans {
		if s == n.initial {
			continue
		}
		if _, final := n.finals[s]; final {
			continue
		}
		candidates = append(candidates, s)
	}
	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if labels[a] != labels[b] {
			return labels[a] < labels[b]
		}
		if depth[a] != depth[b] {
			return depth[a] > depth[b]
		}
		return a < b
	})
	return candidates
}

func checkRatio(pct float64) error {
	if pct <= 0 || pct >= 1 {
		return fmt.Errorf("invalid reduction ratio: %g, should be in range (0,1)", pct)
	}
	return nil
}

// predictedError converts excluded frequency mass into an error estimate.
func predictedError(mass, denom uint64) float64 {
	if denom == 0 {
		denom = 1
	}
	e := float64(mass) / float64(denom)
	if e > 1 {
		return 1
	}
	return e
}

// Prune removes low-frequency states outright, one at a time, until
// pct*state_count states are gone or removing the next candidate would push
// the predicted error past the budget eps, whichever comes first. An eps
// outside (0,1) disables the budget. Every edge incident to a removed state
// is rewritten and states left unreachable are dropped as well; a candidate
// whose removal would leave no reachable accepting state is skipped. The
// automaton must be rebuilt before simulation.
func Prune(n *Nfa, labels map[State]uint64, pct, eps float64) (float64, error) {
	if err := checkRatio(pct); err != nil {
		return 0, err
	}
	budget := eps > 0 && eps < 1

	denom := labels[n.initial]
	target := int(pct * float64(n.StateCount()))
	candidates := reductionCandidates(n, labels)

	var mass uint64
	removed := 0
	for _, s := range candidates {
		if removed >= target {
			break
		}
		if budget && predictedError(mass+labels[s], denom) > eps {
			break
		}
		// Removing s may orphan a whole subtree; that is the intended
		// under-approximation, but the automaton must keep at least one
		// reachable accepting state.
		if !n.hasReachableFinalWithout(s) {
			continue
		}
		mass += labels[s]
		n.removeState(s)
		removed++
	}
	n.removeUnreachable()
	return predictedError(mass, denom), nil
}

// MergeAndPrune folds low-frequency states into a surviving neighbor instead
// of deleting them: the merged-away state's outgoing edges are copied onto
// its most-frequent predecessor (ties broken by smaller external id) and all
// edges into it are redirected there, preserving more of the matching
// behavior per state removed. Bounded by pct like Prune; candidates with no
// surviving predecessor are skipped.
func MergeAndPrune(n *Nfa, labels map[State]uint64, pct float64) (float64, error) {
	if err := checkRatio(pct); err != nil {
		return 0, err
	}

	denom := labels[n.initial]
	target := int(pct * float64(n.StateCount()))
	candidates := reductionCandidates(n, labels)

	var mass uint64
	removed := 0
	for _, q := range candidates {
		if removed >= target {
			break
		}
		if !n.IsState(q) {
			continue
		}
		p, ok := mergeTarget(n, q, labels)
		if !ok {
			continue
		}
		n.mergeStates(p, q)
		mass += labels[q]
		removed++
	}
	n.removeUnreachable()
	return predictedError(mass, denom), nil
}

// mergeTarget selects the surviving counterpart for q: the predecessor with
// the highest label frequency, ties broken by smaller external id.
func mergeTarget(n *Nfa, q State, labels map[State]uint64) (State, bool) {
	var best State
	found := false
	for p := range n.predecessors()[q] {
		if p == q {
			continue
		}
		if !found || labels[p] > labels[best] || (labels[p] == labels[best] && p < best) {
			best = p
			found = true
		}
	}
	return best, found
}

// mergeStates redirects every edge of q onto p and deletes q.
func (n *Nfa) mergeStates(p, q State) {
	// Outgoing edges of q become outgoing edges of p; q's self-loops
	// become self-loops on p.
	for symbol, targets := range n.trans[q] {
		for dst := range targets {
			if dst == q {
				dst = p
			}
			n.AddTransition(p, dst, symbol)
		}
	}
	// Incoming edges of q are redirected onto p.
	for src, symbols := range n.trans {
		if src == q {
			continue
		}
		for _, targets := range symbols {
			if _, ok := targets[q]; ok {
				delete(targets, q)
				targets[p] = struct{}{}
			}
		}
	}
	if _, final := n.finals[q]; final {
		delete(n.finals, q)
		n.finals[p] = struct{}{}
	}
	delete(n.trans, q)
	n.built = false
}
