package nfa

import (
	"NFAForge/internal/capture"
	"fmt"
)

// LabelStates replays a single payload and folds the visited states into the
// dense-indexed frequency vector. Multiple visits within one payload count
// once; the initial state is additionally counted once per payload
// unconditionally, so its frequency tracks the payload total.
func LabelStates(n *Nfa, payload []byte, freq []uint64) error {
	if !n.built {
		return ErrNotBuilt
	}
	visited := make([]bool, len(n.revMap))
	n.run(payload, func(s uint32) {
		visited[s] = true
	})
	for i, v := range visited {
		if v {
			freq[i]++
		}
	}
	freq[n.stateMap[n.initial]]++
	return nil
}

// LabelPcap replays every payload of a capture file through the automaton and
// returns the per-state visit frequencies (dense-indexed) along with the
// number of payloads processed. The automaton is not mutated.
func LabelPcap(n *Nfa, path string) ([]uint64, uint64, error) {
	if !n.built {
		return nil, 0, ErrNotBuilt
	}
	reader, err := capture.NewReader(path)
	if err != nil {
		return nil, 0, err
	}
	defer reader.Close()

	freq := make([]uint64, n.StateCount())
	var total uint64
	err = reader.ForEachPayload(func(payload []byte) error {
		total++
		return LabelStates(n, payload, freq)
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to label states from '%s': %w", path, err)
	}
	return freq, total, nil
}

// LabelMap converts a dense frequency vector into a label map keyed by
// external state id, the form consumed by the reduction operations.
func (n *Nfa) LabelMap(freq []uint64) map[State]uint64 {
	labels := make(map[State]uint64, len(freq))
	for i, f := range freq {
		labels[n.revMap[i]] = f
	}
	return labels
}
