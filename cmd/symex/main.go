// Command symex is the CLI harness around the engine: it runs registered
// targets in batch (reading an optional symex.yaml), and can replay a
// previously saved counterexample deterministically. Subcommands are
// dispatched off os.Args directly, the same style the teacher's cmd/funxy
// main.go uses instead of the flag package for its top-level verbs.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/crosshair-go/symex/internal/config"
	"github.com/crosshair-go/symex/internal/diagnostics"
	"github.com/crosshair-go/symex/internal/engine"
	"github.com/crosshair-go/symex/internal/registry"
	"github.com/crosshair-go/symex/internal/typerepo"
)

func usage() {
	fmt.Fprintf(os.Stderr, `usage:
  %s analyze [-config symex.yaml] [-save-dir DIR] [target...]
  %s replay <target> <message.json>
  %s list
`, os.Args[0], os.Args[0], os.Args[0])
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	r := registry.New()
	registerBuiltinTargets(r)

	switch os.Args[1] {
	case "list":
		for _, name := range r.Names() {
			fmt.Println(name)
		}
	case "analyze":
		if err := runAnalyze(r, os.Args[2:]); err != nil {
			fmt.Fprintln(os.Stderr, "symex:", err)
			os.Exit(1)
		}
	case "replay":
		if err := runReplay(r, os.Args[2:]); err != nil {
			fmt.Fprintln(os.Stderr, "symex:", err)
			os.Exit(1)
		}
	case "-help", "--help", "help":
		usage()
	default:
		usage()
		os.Exit(2)
	}
}

func newEngine() *engine.Engine {
	return engine.New(counterClassRegistry{counterType: typerepo.PType{Name: "sample.Counter"}})
}

func optionsFromFile(fc *config.FileConfig) (engine.AnalysisOptions, error) {
	perPath, perCondition, deadline, err := fc.Durations()
	if err != nil {
		return engine.AnalysisOptions{}, err
	}
	opts := engine.AnalysisOptions{PerPathTimeout: perPath, PerConditionTimeout: perCondition}
	if deadline > 0 {
		opts.Deadline = time.Now().Add(deadline)
	}
	return opts, nil
}

// runAnalyze runs every requested target (or every registered target, if
// none are named) and prints a report, saving any failing message to
// -save-dir as JSON so it can be fed back into `symex replay` later.
func runAnalyze(r *registry.Registry, args []string) error {
	var configPath, saveDir string
	var targets []string
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "-config":
			i++
			if i >= len(args) {
				return fmt.Errorf("-config requires a path")
			}
			configPath = args[i]
		case "-save-dir":
			i++
			if i >= len(args) {
				return fmt.Errorf("-save-dir requires a path")
			}
			saveDir = args[i]
		default:
			targets = append(targets, args[i])
		}
	}

	opts := engine.AnalysisOptions{}
	if configPath != "" {
		fc, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if len(targets) == 0 {
			targets = fc.Targets
		}
		opts, err = optionsFromFile(fc)
		if err != nil {
			return err
		}
	}
	if len(targets) == 0 {
		targets = r.Names()
	}

	e := newEngine()
	rep := newReporter(os.Stdout)
	results := make(map[string][]*diagnostics.Message, len(targets))

	for _, name := range targets {
		t, ok := r.Lookup(name)
		if !ok {
			return fmt.Errorf("no such target %q (see `symex list`)", name)
		}
		var msgs []*diagnostics.Message
		var err error
		if t.Class {
			byMethod, cerr := e.AnalyzeClass(context.Background(), r, name, name, t.ClassBodies, opts)
			err = cerr
			for m, mm := range byMethod {
				full := name + "." + m
				rep.Report(full, mm)
				results[full] = mm
				if err := saveFailing(saveDir, full, mm); err != nil {
					return err
				}
			}
			if err != nil {
				return err
			}
			continue
		}
		msgs, err = e.AnalyzeFunction(context.Background(), r, name, name, t.Body, opts)
		if err != nil {
			return err
		}
		rep.Report(name, msgs)
		results[name] = msgs
		if err := saveFailing(saveDir, name, msgs); err != nil {
			return err
		}
	}

	rep.Summary(results)
	return nil
}

func saveFailing(dir, target string, msgs []*diagnostics.Message) error {
	if dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	for _, m := range msgs {
		if m.ExecutionLog == nil {
			continue
		}
		data, err := json.MarshalIndent(m, "", "  ")
		if err != nil {
			return err
		}
		safe := strings.ReplaceAll(target, "/", "_")
		path := filepath.Join(dir, fmt.Sprintf("%s-%s.json", safe, m.ID))
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return err
		}
	}
	return nil
}

// runReplay reproduces the decision sequence recorded in a saved message
// against the same target, and reports whether it reached the same verdict.
func runReplay(r *registry.Registry, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("replay requires <target> <message.json>")
	}
	target, path := args[0], args[1]

	t, ok := r.Lookup(target)
	if !ok {
		return fmt.Errorf("no such target %q (see `symex list`)", target)
	}
	if t.Class {
		return fmt.Errorf("replay a specific method, e.g. %s.Method", target)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var msg diagnostics.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}

	e := newEngine()
	result, err := e.Replay(context.Background(), r, target, target, t.Body, &msg, engine.AnalysisOptions{})
	if err != nil {
		return err
	}
	fmt.Printf("replay of %s: %s\n", target, result.Status)
	for _, m := range result.Messages {
		fmt.Printf("  [%s] %s\n", m.Kind, m.Text)
	}
	return nil
}
