package model

// ResultWriter defines a generic interface for delivering sweep results to a
// sink: a terminal table, a persistent store, a message bus, or an in-memory
// view served over HTTP.
type ResultWriter interface {
	// Write delivers a single sweep result row.
	Write(result SweepResult) error

	// Close releases any resources held by the writer. Writers backed by
	// in-memory sinks may treat this as a no-op.
	Close() error
}
