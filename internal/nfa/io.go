package nfa

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
)

// The .fa text format is line oriented:
//
//	<initial state id>
//	<src> <dst> <symbol>     (one line per transition, symbol decimal or 0x hex)
//	<final state id>         (a bare id switches to the final-state section)
//	...
//
// Blank lines and "#" comments are ignored. Writing a reduced automaton and
// reading it back reproduces an automaton with identical behavior.

// ReadFA parses an automaton description.
func ReadFA(r io.Reader) (*Nfa, error) {
	n := New()
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	// 0 = expecting initial state, 1 = transitions, 2 = final states.
	section := 0
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		switch {
		case section == 0 && len(fields) == 1:
			s, err := parseState(fields[0])
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			n.SetInitial(s)
			section = 1
		case section == 1 && len(fields) == 3:
			src, err := parseState(fields[0])
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			dst, err := parseState(fields[1])
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			symbol, err := strconv.ParseUint(fields[2], 0, 64)
			if err != nil || symbol > 255 {
				return nil, fmt.Errorf("line %d: invalid symbol '%s'", lineNo, fields[2])
			}
			n.AddTransition(src, dst, byte(symbol))
		case section >= 1 && len(fields) == 1:
			s, err := parseState(fields[0])
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			n.AddFinal(s)
			section = 2
		default:
			return nil, fmt.Errorf("line %d: invalid syntax: %q", lineNo, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read automaton: %w", err)
	}
	if section == 0 {
		return nil, fmt.Errorf("empty automaton description")
	}
	return n, nil
}

// LoadFA reads an automaton description from a file.
func LoadFA(path string) (*Nfa, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open automaton file '%s': %w", path, err)
	}
	defer f.Close()
	n, err := ReadFA(f)
	if err != nil {
		return nil, fmt.Errorf("invalid automaton file '%s': %w", path, err)
	}
	return n, nil
}

// WriteFA writes the automaton description. Output is deterministic:
// transitions are ordered by (source, symbol, target), final states
// ascending.
func (n *Nfa) WriteFA(w io.Writer) error {
	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintf(bw, "%d\n", n.initial); err != nil {
		return err
	}
	for _, src := range n.states() {
		symbols := make([]int, 0, len(n.trans[src]))
		for symbol := range n.trans[src] {
			symbols = append(symbols, int(symbol))
		}
		sort.Ints(symbols)
		for _, symbol := range symbols {
			targets := make([]State, 0, len(n.trans[src][byte(symbol)]))
			for dst := range n.trans[src][byte(symbol)] {
				targets = append(targets, dst)
			}
			sort.Slice(targets, func(i, j int) bool { return targets[i] < targets[j] })
			for _, dst := range targets {
				if _, err := fmt.Fprintf(bw, "%d %d 0x%02x\n", src, dst, symbol); err != nil {
					return err
				}
			}
		}
	}
	finals := make([]State, 0, len(n.finals))
	for s := range n.finals {
		finals = append(finals, s)
	}
	sort.Slice(finals, func(i, j int) bool { return finals[i] < finals[j] })
	for _, s := range finals {
		if _, err := fmt.Fprintf(bw, "%d\n", s); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// SaveFA writes the automaton description to a file.
func (n *Nfa) SaveFA(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("cannot open output file '%s': %w", path, err)
	}
	if err := n.WriteFA(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to write automaton file '%s': %w", path, err)
	}
	return f.Close()
}

func parseState(s string) (State, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid state id '%s'", s)
	}
	return State(v), nil
}

// ReadLabels parses a state label file: one "<state id> <value>" pair per
// line, "#" comments and blank lines ignored. Any additional columns (the
// depth diagnostic written by WriteLabels) are ignored. Referencing a state
// not present in the automaton is an error.
func ReadLabels(r io.Reader, n *Nfa) (map[State]uint64, error) {
	labels := make(map[State]uint64)
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		if len(fields) < 2 {
			return nil, fmt.Errorf("line %d: invalid state label syntax: %q", lineNo, line)
		}
		s, err := parseState(fields[0])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		if !n.IsState(s) {
			return nil, fmt.Errorf("line %d: invalid NFA state: %d", lineNo, s)
		}
		v, err := strconv.ParseUint(fields[1], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid label value '%s'", lineNo, fields[1])
		}
		labels[s] = v
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read labels: %w", err)
	}
	return labels, nil
}

// LoadLabels reads a state label file for the given automaton.
func LoadLabels(path string, n *Nfa) (map[State]uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open label file '%s': %w", path, err)
	}
	defer f.Close()
	labels, err := ReadLabels(f, n)
	if err != nil {
		return nil, fmt.Errorf("invalid label file '%s': %w", path, err)
	}
	return labels, nil
}

// WriteLabels writes per-state frequencies indexed by dense state id, with
// the state depth as a third diagnostic column. The automaton must be built.
func (n *Nfa) WriteLabels(w io.Writer, freq []uint64, total uint64) error {
	if !n.built {
		return ErrNotBuilt
	}
	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintf(bw, "# Total packets : %d\n", total); err != nil {
		return err
	}
	depth := n.StateDepth()
	for i, ext := range n.revMap {
		if _, err := fmt.Fprintf(bw, "%d %d %d\n", ext, freq[i], depth[ext]); err != nil {
			return err
		}
	}
	return bw.Flush()
}
