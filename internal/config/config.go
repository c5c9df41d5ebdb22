package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ThresholdsDef defines the error-budget range swept per iteration.
type ThresholdsDef struct {
	Start float64 `yaml:"start"`
	Step  float64 `yaml:"step"`
	Count int     `yaml:"count"`
}

// ClickHouseConfig holds the connection parameters for a ClickHouse sink.
type ClickHouseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// WriterDef declares one optional result sink.
type WriterDef struct {
	Type       string           `yaml:"type"`
	Enabled    bool             `yaml:"enabled"`
	ClickHouse ClickHouseConfig `yaml:"clickhouse"`
}

// NATSConfig configures streaming of sweep results to a NATS subject.
type NATSConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
	Subject string `yaml:"subject"`
}

// APIConfig configures the HTTP inspection server for sweep runs.
type APIConfig struct {
	Enabled    bool   `yaml:"enabled"`
	ListenAddr string `yaml:"listen_addr"`
}

// EvalConfig holds the configuration of the evaluation sweep.
type EvalConfig struct {
	NFAPath    string        `yaml:"nfa_path"`
	TrainPcap  string        `yaml:"train_pcap"`
	TestPcaps  []string      `yaml:"test_pcaps"`
	NumWorkers int           `yaml:"num_workers"`
	Ratio      float64       `yaml:"ratio"`
	Iterations int           `yaml:"iterations"`
	Thresholds ThresholdsDef `yaml:"thresholds"`
	Writers    []WriterDef   `yaml:"writers"`
	NATS       NATSConfig    `yaml:"nats"`
	API        APIConfig     `yaml:"api"`
}

// Config is the top-level configuration struct for the entire application.
type Config struct {
	Eval EvalConfig `yaml:"eval"`
}

// LoadConfig reads the configuration from a YAML file and returns a Config struct.
func LoadConfig(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	err = yaml.Unmarshal(data, &cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal config YAML: %w", err)
	}

	if err := cfg.Eval.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the evaluation configuration up front so a bad run fails
// before any reduction work starts.
func (c *EvalConfig) Validate() error {
	if c.NFAPath == "" {
		return fmt.Errorf("nfa_path must be set")
	}
	if c.TrainPcap == "" {
		return fmt.Errorf("train_pcap must be set")
	}
	if len(c.TestPcaps) == 0 {
		return fmt.Errorf("test_pcaps must list at least one capture file")
	}
	if c.NumWorkers < 1 {
		return fmt.Errorf("num_workers must be at least 1, got %d", c.NumWorkers)
	}
	if c.Ratio <= 0 || c.Ratio >= 1 {
		return fmt.Errorf("ratio must be in range (0,1), got %g", c.Ratio)
	}
	if c.Iterations < 1 {
		return fmt.Errorf("iterations must be at least 1, got %d", c.Iterations)
	}
	if c.Thresholds.Count < 1 {
		return fmt.Errorf("thresholds.count must be at least 1, got %d", c.Thresholds.Count)
	}
	return nil
}
