package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/milk9111/jointsync/config"
	"github.com/milk9111/jointsync/ecs/constraint"
	"github.com/milk9111/jointsync/proc"
	"github.com/milk9111/jointsync/scene"
	"github.com/milk9111/jointsync/sim"
	"go.uber.org/zap"
)

const usage = `usage: jointctl <command> [flags]

commands:
  run    step a scene headless and print its constraints
  edit   open the scene in $EDITOR and hot-reload it into a running simulation
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	var run func(config.Config, []string) error
	switch os.Args[1] {
	case "run":
		run = runCmd
	case "edit":
		run = editCmd
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	if err := run(cfg, os.Args[2:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newLogger(cfg config.Config) (*zap.Logger, error) {
	logger, err := config.NewLogger(cfg)
	if err != nil {
		return nil, err
	}
	return logger.Named("jointctl"), nil
}

func runCmd(cfg config.Config, args []string) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	ticks := fs.Int("ticks", 600, "number of ticks to simulate")
	scenePath := fs.String("scene", cfg.ScenePath, "scene file")
	_ = fs.Parse(args)
	cfg.ScenePath = *scenePath

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync()

	s, err := sim.New(cfg, logger)
	if s == nil {
		return err
	}
	for i := 0; i < *ticks; i++ {
		s.Tick()
	}
	printSummary(s)
	if s.Faults.Total() > 0 {
		return fmt.Errorf("%d constraint faults", s.Faults.Total())
	}
	return err
}

func editCmd(cfg config.Config, args []string) error {
	fs := flag.NewFlagSet("edit", flag.ExitOnError)
	scenePath := fs.String("scene", cfg.ScenePath, "scene file")
	_ = fs.Parse(args)
	cfg.ScenePath = *scenePath

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync()

	s, err := sim.New(cfg, logger)
	if s == nil {
		return err
	}

	watcher, err := scene.NewWatcher(filepath.Dir(cfg.ScenePath))
	if err != nil {
		return fmt.Errorf("watch scene: %w", err)
	}
	defer watcher.Close()

	editor := strings.Fields(cfg.Editor)
	if len(editor) == 0 {
		return errors.New("no editor configured")
	}
	cmd := exec.Command(editor[0], append(editor[1:], cfg.ScenePath)...)
	cmd.Stdin, cmd.Stdout, cmd.Stderr = os.Stdin, os.Stdout, os.Stderr
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start editor: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	exited := make(chan error, 1)
	go func() {
		exited <- proc.WaitExit(ctx, cmd)
	}()

	ticker := time.NewTicker(time.Duration(cfg.TimeStep() * float64(time.Second)))
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.Tick()
		case path, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if err := s.HandleChange(path); err != nil {
				logger.Warn("reload failed", zap.String("path", path), zap.Error(err))
			}
		case err, ok := <-watcher.Errors:
			if ok {
				logger.Warn("watch error", zap.Error(err))
			}
		case err := <-exited:
			printSummary(s)
			if errors.Is(err, context.Canceled) {
				_ = cmd.Process.Kill()
				return nil
			}
			return err
		}
	}
}

func printSummary(s *sim.Sim) {
	fmt.Printf("ticks: %d  live: %d  deferred: %d  faults: %d\n",
		s.Ticks(), s.Physics.Processor().Len(), s.Physics.Processor().Deferred(), s.Faults.Total())
	for _, name := range s.Index.ConstraintNames() {
		e, _ := s.Index.Constraint(name)
		c, ok := constraint.Lookup(s.World, e)
		if !ok {
			continue
		}
		params := constraint.Params(c)
		parts := make([]string, 0, len(params))
		for _, p := range constraint.ParamNames(c) {
			parts = append(parts, fmt.Sprintf("%s=%g", p, params[p]))
		}
		fmt.Printf("  %s %s attached=%v %s\n", name, constraint.KindOf(c), c.Attached(), strings.Join(parts, " "))
	}
}
