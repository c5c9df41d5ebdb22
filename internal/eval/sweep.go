package eval

import (
	"fmt"
	"log"

	"NFAForge/internal/config"
	"NFAForge/internal/model"
	"NFAForge/internal/nfa"
)

// Sweep drives the reduction/evaluation loop: for every iteration and
// threshold it derives a reduced automaton from the target, replays the
// held-out captures through both, and emits one SweepResult row to every
// configured sink.
//
// Iteration 0 prunes with the threshold as the error budget; since the
// threshold does not change what prune removes below the budget, only the
// first threshold is computed, matching the reduction driver's behavior.
// Iteration k >= 1 runs k merge-and-prune rounds of ratio pct/k each,
// relabeling the shrunken automaton against the training capture between
// rounds.
type Sweep struct {
	cfg    config.EvalConfig
	target *nfa.Nfa
	labels map[nfa.State]uint64
	sinks  []model.ResultWriter
}

// NewSweep labels the target automaton against the training capture and
// prepares the sweep. The target must be built.
func NewSweep(cfg config.EvalConfig, target *nfa.Nfa, sinks []model.ResultWriter) (*Sweep, error) {
	freq, total, err := nfa.LabelPcap(target, cfg.TrainPcap)
	if err != nil {
		return nil, err
	}
	log.Printf("Labeled %d states over %d training payloads", target.StateCount(), total)
	return &Sweep{
		cfg:    cfg,
		target: target,
		labels: target.LabelMap(freq),
		sinks:  sinks,
	}, nil
}

// Run executes the full sweep. The first failure aborts the run.
func (s *Sweep) Run() error {
	for iter := 0; iter < s.cfg.Iterations; iter++ {
		for t := 0; t < s.cfg.Thresholds.Count; t++ {
			threshold := s.cfg.Thresholds.Start + float64(t)*s.cfg.Thresholds.Step

			reduced, predicted, err := s.reduce(iter, threshold)
			if err != nil {
				return err
			}

			aggr, err := s.evaluate(reduced)
			if err != nil {
				return err
			}

			result := model.SweepResult{
				Iteration:           iter,
				Threshold:           threshold,
				PredictedError:      predicted,
				AcceptDivergence:    aggr.AcceptDivergence(),
				ClassificationError: aggr.ClassificationError(),
				ClassificationRatio: aggr.ClassificationRatio(),
				TargetStates:        s.target.StateCount(),
				ReducedStates:       reduced.StateCount(),
			}
			for _, sink := range s.sinks {
				if err := sink.Write(result); err != nil {
					return fmt.Errorf("failed to write sweep result: %w", err)
				}
			}

			// Prune ignores thresholds below the budget, so iteration 0
			// has a single data point.
			if iter == 0 {
				break
			}
		}
	}
	return nil
}

// reduce derives one reduced automaton from the target.
func (s *Sweep) reduce(iter int, threshold float64) (*nfa.Nfa, float64, error) {
	reduced := s.target.Clone()

	var predicted float64
	if iter == 0 {
		est, err := nfa.Prune(reduced, s.labels, s.cfg.Ratio, threshold)
		if err != nil {
			return nil, 0, err
		}
		predicted = est
	} else {
		labels := s.labels
		perRound := s.cfg.Ratio / float64(iter)
		for round := 0; round < iter; round++ {
			est, err := nfa.MergeAndPrune(reduced, labels, perRound)
			if err != nil {
				return nil, 0, err
			}
			predicted += est
			if round+1 == iter {
				break
			}
			// Relabel the intermediate automaton for the next round.
			if err := reduced.Build(); err != nil {
				return nil, 0, fmt.Errorf("reduced automaton is invalid after merge: %w", err)
			}
			freq, _, err := nfa.LabelPcap(reduced, s.cfg.TrainPcap)
			if err != nil {
				return nil, 0, err
			}
			labels = reduced.LabelMap(freq)
		}
		if predicted > 1 {
			predicted = 1
		}
	}

	if err := reduced.CheckConsistency(); err != nil {
		return nil, 0, fmt.Errorf("reduced automaton is inconsistent: %w", err)
	}
	if err := reduced.Build(); err != nil {
		return nil, 0, fmt.Errorf("failed to build reduced automaton: %w", err)
	}
	log.Printf("Reduction: %d/%d states (%.0f%%)",
		reduced.StateCount(), s.target.StateCount(),
		100*float64(reduced.StateCount())/float64(s.target.StateCount()))
	return reduced, predicted, nil
}

// evaluate runs the parallel target-vs-reduced comparison and aggregates the
// per-file statistics.
func (s *Sweep) evaluate(reduced *nfa.Nfa) (*model.ErrorStats, error) {
	ev, err := New(s.target, reduced, s.cfg.TestPcaps, s.cfg.NumWorkers)
	if err != nil {
		return nil, err
	}
	if err := ev.Start(); err != nil {
		return nil, err
	}
	aggr := &model.ErrorStats{}
	for _, stats := range ev.Result() {
		aggr.Aggregate(stats)
	}
	return aggr, nil
}
