// Command mcp-tasks-server is the long-running task-management server: it
// reads newline-delimited tool invocations from stdin, dispatches them
// against a single project's store, and writes one reply per line to
// stdout.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/untoldecay/mcp-tasks/internal/config"
	"github.com/untoldecay/mcp-tasks/internal/dispatch"
	"github.com/untoldecay/mcp-tasks/internal/engine"
	"github.com/untoldecay/mcp-tasks/internal/logging"
	"github.com/untoldecay/mcp-tasks/internal/store"
)

type invocation struct {
	Tool          string         `json:"tool"`
	Params        map[string]any `json:"params"`
	ClientVersion string         `json:"client_version"`
}

func main() {
	var (
		dir   = flag.String("dir", ".", "project directory")
		watch = flag.Bool("watch", false, "reload the store on external record-file changes")
	)
	flag.Parse()

	if err := run(*dir, *watch); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(dir string, watch bool) error {
	cfg, err := config.Load(dir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger, err := logging.New(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("setting up logging: %w", err)
	}

	s := store.New(cfg)
	if err := s.Load(); err != nil {
		return fmt.Errorf("loading store: %w", err)
	}

	if watch {
		stop := make(chan struct{})
		defer close(stop)
		go func() {
			if err := s.Watch(stop); err != nil {
				logger.Printf("watch: %v", err)
			}
		}()
	}

	e := engine.New(cfg, s, logger)
	d := dispatch.New()
	dispatch.RegisterEngineTools(d, e, s)

	logger.Printf("mcp-tasks-server starting in %s (git=%v branch-mgmt=%v worktree-mgmt=%v)",
		cfg.BaseDir, cfg.UseGit, cfg.BranchManagement, cfg.WorktreeManagement)

	return serve(d, os.Stdin, os.Stdout, logger)
}

func serve(d *dispatch.Dispatcher, in *os.File, out *os.File, logger *log.Logger) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	enc := json.NewEncoder(out)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var inv invocation
		if err := json.Unmarshal(line, &inv); err != nil {
			logger.Printf("malformed invocation: %v", err)
			continue
		}
		logging.Debugf(logger, "dispatching %s %v", inv.Tool, inv.Params)
		reply := d.Invoke(context.Background(), inv.Tool, inv.Params, inv.ClientVersion)
		if err := enc.Encode(reply); err != nil {
			return fmt.Errorf("writing reply: %w", err)
		}
	}
	return scanner.Err()
}
