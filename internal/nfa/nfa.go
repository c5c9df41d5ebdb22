package nfa

import (
	"errors"
	"fmt"
	"sort"
)

// State is an external state identifier, as used in the textual description.
// Build assigns each declared state a dense internal index used during
// simulation; ReversedStateMap converts back.
type State uint64

// ErrNotBuilt is returned when simulation is attempted before Build.
var ErrNotBuilt = errors.New("nfa: automaton not built")

// Nfa is a non-deterministic finite automaton over byte payloads. The sparse
// transition relation is keyed by external state ids and may be mutated by
// the reduction operations; Build derives the dense lookup table used by
// Parse and Accepts and must be re-run after any mutation.
type Nfa struct {
	hasInitial bool
	initial    State
	finals     map[State]struct{}
	trans      map[State]map[byte]map[State]struct{}

	built    bool
	stateMap map[State]uint32
	revMap   []State
	table    [][]uint32
	finalSet *bitset
}

// New returns an empty automaton.
func New() *Nfa {
	return &Nfa{
		finals: make(map[State]struct{}),
		trans:  make(map[State]map[byte]map[State]struct{}),
	}
}

func (n *Nfa) addState(s State) {
	if _, ok := n.trans[s]; !ok {
		n.trans[s] = make(map[byte]map[State]struct{})
	}
}

// SetInitial declares s as the single initial state.
func (n *Nfa) SetInitial(s State) {
	n.addState(s)
	n.initial = s
	n.hasInitial = true
	n.built = false
}

// AddFinal declares s as an accepting state.
func (n *Nfa) AddFinal(s State) {
	n.addState(s)
	n.finals[s] = struct{}{}
	n.built = false
}

// AddTransition adds the edge src --symbol--> dst, declaring both endpoints.
func (n *Nfa) AddTransition(src, dst State, symbol byte) {
	n.addState(src)
	n.addState(dst)
	targets, ok := n.trans[src][symbol]
	if !ok {
		targets = make(map[State]struct{})
		n.trans[src][symbol] = targets
	}
	targets[dst] = struct{}{}
	n.built = false
}

// Initial returns the initial state id.
func (n *Nfa) Initial() State {
	return n.initial
}

// IsState reports whether s is a declared state.
func (n *Nfa) IsState(s State) bool {
	_, ok := n.trans[s]
	return ok
}

// IsFinal reports whether s is an accepting state.
func (n *Nfa) IsFinal(s State) bool {
	_, ok := n.finals[s]
	return ok
}

// StateCount returns the number of declared states.
func (n *Nfa) StateCount() int {
	return len(n.trans)
}

// Built reports whether the dense lookup table is current.
func (n *Nfa) Built() bool {
	return n.built
}

// states returns all declared state ids in ascending order.
func (n *Nfa) states() []State {
	ids := make([]State, 0, len(n.trans))
	for s := range n.trans {
		ids = append(ids, s)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Build finalizes the dense simulation table from the sparse edge list.
// It fails if the description is structurally invalid: no initial state, an
// empty accepting set, or a transition referencing an undeclared state.
// Calling Build twice without intervening mutation is a no-op in behavior.
func (n *Nfa) Build() error {
	if !n.hasInitial {
		return errors.New("nfa: initial state not set")
	}
	if len(n.finals) == 0 {
		return errors.New("nfa: no accepting states")
	}
	for s := range n.finals {
		if !n.IsState(s) {
			return fmt.Errorf("nfa: accepting state %d is not declared", s)
		}
	}

	ids := n.states()
	stateMap := make(map[State]uint32, len(ids))
	for i, s := range ids {
		stateMap[s] = uint32(i)
	}

	table := make([][]uint32, len(ids)*256)
	for _, src := range ids {
		base := int(stateMap[src]) << 8
		for symbol, targets := range n.trans[src] {
			cell := make([]uint32, 0, len(targets))
			for dst := range targets {
				di, ok := stateMap[dst]
				if !ok {
					return fmt.Errorf(
						"nfa: transition %d --0x%02x--> %d references an undeclared state",
						src, symbol, dst)
				}
				cell = append(cell, di)
			}
			sort.Slice(cell, func(i, j int) bool { return cell[i] < cell[j] })
			table[base|int(symbol)] = cell
		}
	}

	finalSet := newBitset(len(ids))
	for s := range n.finals {
		finalSet.set(stateMap[s])
	}

	n.stateMap = stateMap
	n.revMap = ids
	n.table = table
	n.finalSet = finalSet
	n.built = true
	return nil
}

// ReversedStateMap maps dense internal indices back to the external ids used
// in the textual description. Valid until the next mutation.
func (n *Nfa) ReversedStateMap() []State {
	out := make([]State, len(n.revMap))
	copy(out, n.revMap)
	return out
}

// run simulates the automaton over payload. visit, when non-nil, is invoked
// with the dense index of every state the moment it enters the active set;
// the initial state is active by definition and not reported. The returned
// bitset is the active set after the whole payload is consumed.
func (n *Nfa) run(payload []byte, visit func(uint32)) *bitset {
	cur := newBitset(len(n.revMap))
	next := newBitset(len(n.revMap))
	cur.set(n.stateMap[n.initial])

	for _, b := range payload {
		next.clear()
		cur.forEach(func(s uint32) {
			for _, t := range n.table[int(s)<<8|int(b)] {
				if !next.get(t) {
					next.set(t)
					if visit != nil {
						visit(t)
					}
				}
			}
		})
		cur, next = next, cur
	}
	return cur
}

// Parse feeds every byte of payload through the transition relation and
// invokes visit once for each state that becomes active at each step,
// identified by its dense index.
func (n *Nfa) Parse(payload []byte, visit func(uint32)) error {
	if !n.built {
		return ErrNotBuilt
	}
	n.run(payload, visit)
	return nil
}

// Accepts reports whether the active set after consuming the whole payload
// intersects the accepting-state set.
func (n *Nfa) Accepts(payload []byte) (bool, error) {
	if !n.built {
		return false, ErrNotBuilt
	}
	return n.run(payload, nil).intersects(n.finalSet), nil
}

// StateDepth returns, for every reachable state, the length of the shortest
// transition path from the initial state, keyed by external id. Unreachable
// states are absent from the result.
func (n *Nfa) StateDepth() map[State]int {
	depth := make(map[State]int, len(n.trans))
	if !n.hasInitial {
		return depth
	}
	queue := []State{n.initial}
	depth[n.initial] = 0
	for len(queue) > 0 {
		s := queue[0]
		queue = queue[1:]
		for _, targets := range n.trans[s] {
			for t := range targets {
				if _, seen := depth[t]; !seen {
					depth[t] = depth[s] + 1
					queue = append(queue, t)
				}
			}
		}
	}
	return depth
}

// predecessors returns, for every state, the set of states with an edge into
// it.
func (n *Nfa) predecessors() map[State]map[State]struct{} {
	pred := make(map[State]map[State]struct{}, len(n.trans))
	for s := range n.trans {
		pred[s] = make(map[State]struct{})
	}
	for src, symbols := range n.trans {
		for _, targets := range symbols {
			for dst := range targets {
				pred[dst][src] = struct{}{}
			}
		}
	}
	return pred
}

// removeState deletes s and rewrites every edge incident to it.
func (n *Nfa) removeState(s State) {
	delete(n.trans, s)
	delete(n.finals, s)
	for _, symbols := range n.trans {
		for symbol, targets := range symbols {
			delete(targets, s)
			if len(targets) == 0 {
				delete(symbols, symbol)
			}
		}
	}
	n.built = false
}

// removeUnreachable drops every state with no transition path from the
// initial state. Surviving states keep their external ids.
func (n *Nfa) removeUnreachable() {
	reachable := n.StateDepth()
	for s := range n.trans {
		if _, ok := reachable[s]; !ok {
			delete(n.trans, s)
			delete(n.finals, s)
		}
	}
	n.built = false
}

// hasReachableFinalWithout reports whether at least one accepting state
// would remain reachable from the initial state if s were removed.
func (n *Nfa) hasReachableFinalWithout(s State) bool {
	if n.initial == s {
		return false
	}
	visited := map[State]struct{}{n.initial: {}}
	queue := []State{n.initial}
	for len(queue) > 0 {
		q := queue[0]
		queue = queue[1:]
		if _, final := n.finals[q]; final {
			return true
		}
		for _, targets := range n.trans[q] {
			for t := range targets {
				if t == s {
					continue
				}
				if _, seen := visited[t]; !seen {
					visited[t] = struct{}{}
					queue = append(queue, t)
				}
			}
		}
	}
	return false
}

// Clone returns a deep copy of the automaton. The copy is not built.
func (n *Nfa) Clone() *Nfa {
	c := New()
	c.hasInitial = n.hasInitial
	c.initial = n.initial
	for s := range n.finals {
		c.finals[s] = struct{}{}
	}
	for src, symbols := range n.trans {
		cs := make(map[byte]map[State]struct{}, len(symbols))
		for symbol, targets := range symbols {
			ct := make(map[State]struct{}, len(targets))
			for dst := range targets {
				ct[dst] = struct{}{}
			}
			cs[symbol] = ct
		}
		c.trans[src] = cs
	}
	return c
}

// CheckConsistency verifies the structural invariants: an initial state is
// set, the accepting set is non-empty and declared, every transition
// endpoint is a declared state, and every state is reachable from the
// initial state.
func (n *Nfa) CheckConsistency() error {
	if !n.hasInitial {
		return errors.New("nfa: initial state not set")
	}
	if !n.IsState(n.initial) {
		return fmt.Errorf("nfa: initial state %d is not declared", n.initial)
	}
	if len(n.finals) == 0 {
		return errors.New("nfa: no accepting states")
	}
	for s := range n.finals {
		if !n.IsState(s) {
			return fmt.Errorf("nfa: accepting state %d is not declared", s)
		}
	}
	for src, symbols := range n.trans {
		for symbol, targets := range symbols {
			for dst := range targets {
				if !n.IsState(dst) {
					return fmt.Errorf(
						"nfa: dangling transition %d --0x%02x--> %d",
						src, symbol, dst)
				}
			}
		}
	}
	reachable := n.StateDepth()
	for s := range n.trans {
		if _, ok := reachable[s]; !ok {
			return fmt.Errorf("nfa: state %d is unreachable", s)
		}
	}
	return nil
}
