package eval

import (
	"fmt"
	"sync"

	"NFAForge/internal/capture"
	"NFAForge/internal/model"
	"NFAForge/internal/nfa"
)

// Evaluator replays held-out capture files through a target automaton and
// its reduced counterpart and measures the classification divergence. The
// files are partitioned across a fixed pool of workers; each worker owns a
// private ErrorStats per file, so no counters are shared during replay. Both
// automata are read-only for the whole run and are shared across workers.
type Evaluator struct {
	target  *nfa.Nfa
	reduced *nfa.Nfa
	files   []string
	workers int

	mu      sync.Mutex
	results map[string]*model.ErrorStats
}

// New creates an evaluator. Both automata must be built.
func New(target, reduced *nfa.Nfa, files []string, workers int) (*Evaluator, error) {
	if !target.Built() || !reduced.Built() {
		return nil, nfa.ErrNotBuilt
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no test capture files given")
	}
	if workers < 1 {
		workers = 1
	}
	return &Evaluator{
		target:  target,
		reduced: reduced,
		files:   files,
		workers: workers,
		results: make(map[string]*model.ErrorStats),
	}, nil
}

// Start runs the evaluation to completion. Workers pull the next unassigned
// file when they finish one; a capture file that cannot be processed is
// fatal to the whole run.
func (e *Evaluator) Start() error {
	fileChan := make(chan string, len(e.files))
	for _, f := range e.files {
		fileChan <- f
	}
	close(fileChan)

	workers := e.workers
	if workers > len(e.files) {
		workers = len(e.files)
	}

	errChan := make(chan error, workers)
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for file := range fileChan {
				stats, err := e.evalFile(file)
				if err != nil {
					errChan <- err
					return
				}
				e.mu.Lock()
				e.results[file] = stats
				e.mu.Unlock()
			}
		}()
	}
	wg.Wait()
	close(errChan)
	return <-errChan
}

// Result returns the per-file statistics accumulated by Start. Callers
// combine them via ErrorStats.Aggregate.
func (e *Evaluator) Result() map[string]*model.ErrorStats {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make(map[string]*model.ErrorStats, len(e.results))
	for k, v := range e.results {
		out[k] = v
	}
	return out
}

func (e *Evaluator) evalFile(path string) (*model.ErrorStats, error) {
	reader, err := capture.NewReader(path)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	stats := &model.ErrorStats{}
	err = reader.ForEachPayload(func(payload []byte) error {
		acceptTarget, err := e.target.Accepts(payload)
		if err != nil {
			return err
		}
		acceptReduced, err := e.reduced.Accepts(payload)
		if err != nil {
			return err
		}
		stats.Total++
		if acceptTarget {
			stats.AcceptedTarget++
		}
		if acceptReduced {
			stats.AcceptedReduced++
		}
		if acceptTarget == acceptReduced {
			stats.CorrectlyClassified++
		} else {
			stats.WronglyClassified++
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("evaluation failed on '%s': %w", path, err)
	}
	return stats, nil
}
