package main

import (
	"NFAForge/internal/capture"
	"NFAForge/internal/nfa"
	"fmt"
	"log"
	"os"
)

// Standalone capture inspector: runs a signature automaton over every
// payload in a pcap file and reports match statistics. Useful for sanity
// checking an automaton against a trace before a full reduction sweep.
func main() {
	if len(os.Args) < 3 {
		fmt.Println("Usage: pcap-analyzer <nfa_file> <pcap_file>")
		os.Exit(1)
	}
	nfaPath, pcapPath := os.Args[1], os.Args[2]

	n, err := nfa.LoadFA(nfaPath)
	if err != nil {
		log.Fatalf("Failed to load automaton: %v", err)
	}
	if err := n.Build(); err != nil {
		log.Fatalf("Failed to build automaton: %v", err)
	}
	log.Printf("Automaton loaded: %d states", n.StateCount())

	reader, err := capture.NewReader(pcapPath)
	if err != nil {
		log.Fatalf("Failed to open pcap file: %v", err)
	}
	defer reader.Close()
	log.Printf("Reading packets from '%s'...", pcapPath)

	var payloads, matches, payloadBytes uint64
	err = reader.ForEachPayload(func(payload []byte) error {
		payloads++
		payloadBytes += uint64(len(payload))
		accepted, err := n.Accepts(payload)
		if err != nil {
			return err
		}
		if accepted {
			matches++
		}
		return nil
	})
	if err != nil {
		log.Fatalf("Failed to process pcap file: %v", err)
	}

	fmt.Printf("Payloads:       %d\n", payloads)
	fmt.Printf("Matches:        %d\n", matches)
	if payloads > 0 {
		fmt.Printf("Match ratio:    %.4f\n", float64(matches)/float64(payloads))
		fmt.Printf("Avg payload:    %.1f bytes\n", float64(payloadBytes)/float64(payloads))
	}
}
