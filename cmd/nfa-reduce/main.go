package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"NFAForge/internal/nfa"
)

const usage = `NFA reduction
Usage: nfa-reduce [OPTIONS] NFA FILE

Reduces an automaton against a state label file, or with -f computes the
state labels from a capture file.

options:
  -o FILE   : output file (default reduced-nfa.fa, labels.txt with -f)
  -f        : compute packet frequency of NFA states; FILE is a pcap file
  -t TYPE   : reduction type, prune or merge (default prune)
  -p N      : reduction ratio, in range (0,1)
  -e N      : error budget for prune, in range (0,1)
`

func main() {
	var (
		freqMode = flag.Bool("f", false, "compute packet frequency of NFA states")
		output   = flag.String("o", "", "output file path")
		redType  = flag.String("t", "prune", "reduction type: prune or merge")
		pct      = flag.Float64("p", -1, "reduction ratio")
		eps      = flag.Float64("e", -1, "error budget for prune")
	)
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	if flag.NArg() != 2 {
		flag.Usage()
		os.Exit(1)
	}
	nfaPath, filePath := flag.Arg(0), flag.Arg(1)

	automaton, err := nfa.LoadFA(nfaPath)
	if err != nil {
		log.Fatalf("Failed to load automaton: %v", err)
	}
	if err := automaton.Build(); err != nil {
		log.Fatalf("Failed to build automaton: %v", err)
	}
	log.Printf("Loaded automaton with %d states from %s", automaton.StateCount(), nfaPath)

	if *freqMode {
		computeFrequencies(automaton, filePath, orDefault(*output, "labels.txt"))
		return
	}
	reduce(automaton, filePath, *redType, *pct, *eps, orDefault(*output, "reduced-nfa.fa"))
}

// computeFrequencies labels the automaton states against a capture file and
// writes the label file.
func computeFrequencies(automaton *nfa.Nfa, pcapPath, outPath string) {
	freq, total, err := nfa.LabelPcap(automaton, pcapPath)
	if err != nil {
		log.Fatalf("Failed to compute state frequencies: %v", err)
	}
	log.Printf("Processed %d payloads from %s", total, pcapPath)

	out, err := os.Create(outPath)
	if err != nil {
		log.Fatalf("Cannot open output file: %v", err)
	}
	if err := automaton.WriteLabels(out, freq, total); err != nil {
		out.Close()
		log.Fatalf("Failed to write labels: %v", err)
	}
	if err := out.Close(); err != nil {
		log.Fatalf("Failed to write labels: %v", err)
	}
	log.Printf("State labels written to %s", outPath)
}

// reduce shrinks the automaton under the given strategy and writes the
// reduced description. The output file is touched only after the in-memory
// reduction succeeds.
func reduce(automaton *nfa.Nfa, labelPath, redType string, pct, eps float64, outPath string) {
	labels, err := nfa.LoadLabels(labelPath, automaton)
	if err != nil {
		log.Fatalf("Failed to load labels: %v", err)
	}

	oldCount := automaton.StateCount()
	var predicted float64
	switch redType {
	case "prune":
		predicted, err = nfa.Prune(automaton, labels, pct, eps)
	case "merge":
		predicted, err = nfa.MergeAndPrune(automaton, labels, pct)
	default:
		log.Fatalf("Invalid reduction type: '%s'", redType)
	}
	if err != nil {
		log.Fatalf("Reduction failed: %v", err)
	}
	if err := automaton.CheckConsistency(); err != nil {
		log.Fatalf("Reduced automaton is inconsistent: %v", err)
	}

	newCount := automaton.StateCount()
	log.Printf("Reduction: %d/%d states (%.0f%%)",
		newCount, oldCount, 100*float64(newCount)/float64(oldCount))
	log.Printf("Predicted error: %g", predicted)

	if err := automaton.SaveFA(outPath); err != nil {
		log.Fatalf("Failed to save reduced automaton: %v", err)
	}
	log.Printf("Reduced automaton written to %s", outPath)
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
