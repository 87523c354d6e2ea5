package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/untoldecay/mcp-tasks/internal/config"
	"github.com/untoldecay/mcp-tasks/internal/engine"
	"github.com/untoldecay/mcp-tasks/internal/store"
)

// wireEngine loads config/store/engine for projectDir, operating directly
// against the record files (no daemon process involved).
func wireEngine() (*engine.Engine, *store.Store, error) {
	cfg, err := config.Load(projectDir)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}
	s := store.New(cfg)
	if err := s.Load(); err != nil {
		return nil, nil, fmt.Errorf("loading store: %w", err)
	}
	logger := log.New(os.Stderr, "", log.LstdFlags)
	return engine.New(cfg, s, logger), s, nil
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

func printJSON(v any) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fatalf("marshaling output: %v", err)
	}
	fmt.Println(string(b))
}
