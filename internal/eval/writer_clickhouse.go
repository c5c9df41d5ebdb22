package eval

import (
	"context"
	"fmt"
	"log"
	"time"

	"NFAForge/internal/config"
	"NFAForge/internal/model"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
)

const createSweepResultsTableStatement = `
CREATE TABLE IF NOT EXISTS nfa_sweep_results (
    Timestamp           DateTime,
    Iteration           UInt32,
    Threshold           Float64,
    PredictedError      Float64,
    AcceptDivergence    Float64,
    ClassificationError Float64,
    ClassificationRatio Float64,
    TargetStates        UInt64,
    ReducedStates       UInt64
) ENGINE = MergeTree()
PARTITION BY toYYYYMM(Timestamp)
ORDER BY (Timestamp, Iteration);
`

// ClickHouseWriter implements the model.ResultWriter interface for ClickHouse.
type ClickHouseWriter struct {
	conn driver.Conn
}

// NewClickHouseWriter connects to ClickHouse and ensures the results table
// exists.
func NewClickHouseWriter(cfg config.ClickHouseConfig) (*ClickHouseWriter, error) {
	conn, err := connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to clickhouse: %w", err)
	}

	if err := conn.Exec(context.Background(), createSweepResultsTableStatement); err != nil {
		return nil, fmt.Errorf("failed to create nfa_sweep_results table: %w", err)
	}
	log.Println("Successfully connected to ClickHouse and ensured nfa_sweep_results table exists.")

	return &ClickHouseWriter{conn: conn}, nil
}

func connect(cfg config.ClickHouseConfig) (driver.Conn, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{addr},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
	})
	if err != nil {
		return nil, err
	}

	if err := conn.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ping clickhouse: %w", err)
	}

	return conn, nil
}

// Write inserts one sweep result row.
func (w *ClickHouseWriter) Write(result model.SweepResult) error {
	batch, err := w.conn.PrepareBatch(context.Background(), "INSERT INTO nfa_sweep_results")
	if err != nil {
		return fmt.Errorf("failed to prepare batch: %w", err)
	}
	err = batch.Append(
		time.Now(),
		uint32(result.Iteration),
		result.Threshold,
		result.PredictedError,
		result.AcceptDivergence,
		result.ClassificationError,
		result.ClassificationRatio,
		uint64(result.TargetStates),
		uint64(result.ReducedStates),
	)
	if err != nil {
		return fmt.Errorf("failed to append sweep result to batch: %w", err)
	}
	return batch.Send()
}

// Close closes the ClickHouse connection.
func (w *ClickHouseWriter) Close() error {
	return w.conn.Close()
}
