package nfa

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
)

func TestReadFA(t *testing.T) {
	input := `
# signature automaton
0
0 0 0x61
0 1 0x62   # edge into the chain
1 2 99
2
`
	n, err := ReadFA(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadFA failed: %v", err)
	}
	if n.StateCount() != 3 {
		t.Errorf("Expected 3 states, got %d", n.StateCount())
	}
	if n.Initial() != 0 {
		t.Errorf("Expected initial state 0, got %d", n.Initial())
	}
	if !n.IsFinal(2) {
		t.Error("Expected state 2 to be accepting")
	}
	if err := n.Build(); err != nil {
		t.Fatalf("Failed to build parsed automaton: %v", err)
	}
	// 0x62 'b' then 99 'c' reaches the accepting state.
	if !mustAccept(t, n, []byte("bc")) {
		t.Error("Parsed automaton should accept \"bc\"")
	}
}

func TestReadFAErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty description", "# nothing here\n"},
		{"garbage initial line", "not-a-state\n"},
		{"bad transition symbol", "0\n0 1 0x1ff\n1\n"},
		{"too many fields", "0\n0 1 0x61 junk\n1\n"},
		{"bad state id", "0\n0 x 0x61\n1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ReadFA(strings.NewReader(tt.input)); err == nil {
				t.Error("Expected a parse error")
			}
		})
	}
}

// Writing an automaton and reading it back must preserve the state count,
// the accepting set, and the acceptance behavior on a payload corpus.
func TestFARoundTrip(t *testing.T) {
	n := substringNfa(t, "attack")

	var buf bytes.Buffer
	if err := n.WriteFA(&buf); err != nil {
		t.Fatalf("WriteFA failed: %v", err)
	}
	back, err := ReadFA(&buf)
	if err != nil {
		t.Fatalf("ReadFA failed: %v", err)
	}
	if err := back.Build(); err != nil {
		t.Fatalf("Failed to build re-read automaton: %v", err)
	}

	if back.StateCount() != n.StateCount() {
		t.Errorf("State count changed: %d -> %d", n.StateCount(), back.StateCount())
	}
	for s := range n.finals {
		if !back.IsFinal(s) {
			t.Errorf("Accepting state %d lost in round trip", s)
		}
	}

	corpus := []string{"attack", "xxattackxx", "atta", "", "kcatta", "attac", "attattack"}
	for _, p := range corpus {
		if got, want := mustAccept(t, back, []byte(p)), mustAccept(t, n, []byte(p)); got != want {
			t.Errorf("Accepts(%q) = %v after round trip, want %v", p, got, want)
		}
	}
}

func TestLoadFAFromFile(t *testing.T) {
	n := substringNfa(t, "ab")
	path := filepath.Join(t.TempDir(), "test.fa")
	if err := n.SaveFA(path); err != nil {
		t.Fatalf("SaveFA failed: %v", err)
	}

	back, err := LoadFA(path)
	if err != nil {
		t.Fatalf("LoadFA failed: %v", err)
	}
	if back.StateCount() != n.StateCount() {
		t.Errorf("State count changed: %d -> %d", n.StateCount(), back.StateCount())
	}
}

func TestReadLabels(t *testing.T) {
	n := substringNfa(t, "ab")
	input := `
# Total packets : 100
0 100 0
1 40 1   # depth column is ignored on read
2 7 2
`
	labels, err := ReadLabels(strings.NewReader(input), n)
	if err != nil {
		t.Fatalf("ReadLabels failed: %v", err)
	}
	want := map[State]uint64{0: 100, 1: 40, 2: 7}
	for s, v := range want {
		if labels[s] != v {
			t.Errorf("labels[%d] = %d, want %d", s, labels[s], v)
		}
	}
}

func TestReadLabelsErrors(t *testing.T) {
	n := substringNfa(t, "ab")
	tests := []struct {
		name  string
		input string
	}{
		{"unknown state", "7 100\n"},
		{"missing value", "0\n"},
		{"bad value", "0 many\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ReadLabels(strings.NewReader(tt.input), n); err == nil {
				t.Error("Expected a parse error")
			}
		})
	}
}

func TestWriteLabels(t *testing.T) {
	n := substringNfa(t, "a")
	freq := []uint64{10, 4}

	var buf bytes.Buffer
	if err := n.WriteLabels(&buf, freq, 10); err != nil {
		t.Fatalf("WriteLabels failed: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "# Total packets : 10") {
		t.Errorf("Missing total header in output:\n%s", out)
	}
	// Round-trip through the reader.
	labels, err := ReadLabels(strings.NewReader(out), n)
	if err != nil {
		t.Fatalf("ReadLabels failed on written output: %v", err)
	}
	if labels[0] != 10 || labels[1] != 4 {
		t.Errorf("Unexpected labels after round trip: %v", labels)
	}
}
