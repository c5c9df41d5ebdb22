package model

// ErrorStats accumulates the classification counters for one evaluation unit
// (typically one held-out capture file replayed by one worker).
type ErrorStats struct {
	// Total is the number of payloads examined.
	Total uint64
	// AcceptedTarget counts payloads accepted by the original automaton.
	AcceptedTarget uint64
	// AcceptedReduced counts payloads accepted by the reduced automaton.
	AcceptedReduced uint64
	// WronglyClassified counts payloads where the two automata disagree.
	WronglyClassified uint64
	// CorrectlyClassified counts payloads where the two automata agree.
	CorrectlyClassified uint64
}

// Aggregate adds the counters of another ErrorStats into this one.
// The sum is field-wise, so aggregation order does not matter.
func (s *ErrorStats) Aggregate(o *ErrorStats) {
	s.Total += o.Total
	s.AcceptedTarget += o.AcceptedTarget
	s.AcceptedReduced += o.AcceptedReduced
	s.WronglyClassified += o.WronglyClassified
	s.CorrectlyClassified += o.CorrectlyClassified
}

// AcceptDivergence is the proxy for false negatives introduced by reduction:
// the surplus of reduced-automaton acceptances over target acceptances,
// normalized by the payload total.
func (s *ErrorStats) AcceptDivergence() float64 {
	if s.Total == 0 {
		return 0
	}
	return (float64(s.AcceptedReduced) - float64(s.AcceptedTarget)) / float64(s.Total)
}

// ClassificationError is the fraction of payloads the two automata disagree on.
func (s *ErrorStats) ClassificationError() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.WronglyClassified) / float64(s.Total)
}

// ClassificationRatio is the fraction of classified payloads the two automata
// agree on.
func (s *ErrorStats) ClassificationRatio() float64 {
	classified := s.CorrectlyClassified + s.WronglyClassified
	if classified == 0 {
		return 0
	}
	return float64(s.CorrectlyClassified) / float64(classified)
}

// SweepResult is one row of the reduction/evaluation sweep: a reduction
// configuration plus the divergence measured against held-out traffic.
type SweepResult struct {
	Iteration           int     `json:"iteration"`
	Threshold           float64 `json:"threshold"`
	PredictedError      float64 `json:"predicted_error"`
	AcceptDivergence    float64 `json:"accept_divergence"`
	ClassificationError float64 `json:"classification_error"`
	ClassificationRatio float64 `json:"classification_ratio"`
	TargetStates        int     `json:"target_states"`
	ReducedStates       int     `json:"reduced_states"`
}
