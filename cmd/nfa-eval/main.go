package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"NFAForge/internal/api"
	"NFAForge/internal/config"
	"NFAForge/internal/eval"
	"NFAForge/internal/model"
	"NFAForge/internal/nfa"
	"NFAForge/internal/report"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to configuration file")
	flag.Parse()

	log.Println("Starting nfa-eval...")

	// 1. Load configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	log.Println("Configuration loaded successfully.")

	// 2. Load and build the target automaton
	target, err := nfa.LoadFA(cfg.Eval.NFAPath)
	if err != nil {
		log.Fatalf("Failed to load automaton: %v", err)
	}
	if err := target.Build(); err != nil {
		log.Fatalf("Failed to build automaton: %v", err)
	}
	log.Printf("Loaded target automaton with %d states", target.StateCount())

	// 3. Assemble the result sinks
	sinks, store, cleanup := buildSinks(cfg)
	defer cleanup()

	var server *api.Server
	if store != nil {
		server = api.NewServer(cfg.Eval.API.ListenAddr, store)
		server.Start()
	}

	// 4. Run the sweep
	sweep, err := eval.NewSweep(cfg.Eval, target, sinks)
	if err != nil {
		log.Fatalf("Failed to prepare sweep: %v", err)
	}
	if err := sweep.Run(); err != nil {
		log.Fatalf("Sweep failed: %v", err)
	}
	log.Println("Sweep complete.")

	// 5. With the API enabled, keep serving results until interrupted
	if server != nil {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			log.Printf("API server shutdown error: %v", err)
		}
	}
}

// buildSinks constructs every enabled result sink. The text table on stdout
// is always present.
func buildSinks(cfg *config.Config) ([]model.ResultWriter, *api.Store, func()) {
	text, err := eval.NewTextWriter(os.Stdout)
	if err != nil {
		log.Fatalf("Failed to create text writer: %v", err)
	}
	sinks := []model.ResultWriter{text}

	for _, def := range cfg.Eval.Writers {
		if !def.Enabled {
			continue
		}
		switch def.Type {
		case "clickhouse":
			ch, err := eval.NewClickHouseWriter(def.ClickHouse)
			if err != nil {
				log.Fatalf("Failed to create ClickHouse writer: %v", err)
			}
			sinks = append(sinks, ch)
		default:
			log.Fatalf("Unknown writer type: '%s'", def.Type)
		}
	}

	if cfg.Eval.NATS.Enabled {
		pub, err := report.NewPublisher(cfg.Eval.NATS)
		if err != nil {
			log.Fatalf("Failed to create NATS publisher: %v", err)
		}
		sinks = append(sinks, pub)
	}

	var store *api.Store
	if cfg.Eval.API.Enabled {
		store = api.NewStore()
		sinks = append(sinks, store)
	}

	cleanup := func() {
		for _, sink := range sinks {
			if err := sink.Close(); err != nil {
				log.Printf("Failed to close result sink: %v", err)
			}
		}
	}
	return sinks, store, cleanup
}
