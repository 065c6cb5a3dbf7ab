// Command vrpsolve solves a single instance file and prints the routes.
//
//	vrpsolve -instance depots/a.yaml -init savings -strategy vnd
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/copyleftdev/vrpls/internal/instance"
	"github.com/copyleftdev/vrpls/internal/logging"
	"github.com/copyleftdev/vrpls/internal/optimization"
	"github.com/copyleftdev/vrpls/internal/optimization/catalog"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

type output struct {
	Name         string                    `json:"name"`
	Initializer  string                    `json:"initializer"`
	Strategy     string                    `json:"strategy"`
	InitialCost  float64                   `json:"initial_cost"`
	Cost         float64                   `json:"cost"`
	Steps        int                       `json:"steps"`
	Improvements int                       `json:"improvements"`
	Routes       [][]int                   `json:"routes"`
	History      []optimization.Evaluation `json:"history,omitempty"`
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("vrpsolve", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		path     = fs.String("instance", "", "instance file (.json, .yaml or .yml)")
		initName = fs.String("init", catalog.DefaultInitializer, "initializer: "+strings.Join(catalog.Initializers(), ", "))
		strategy = fs.String("strategy", catalog.DefaultStrategy, "strategy: "+strings.Join(catalog.Strategies(), ", "))
		level    = fs.String("log-level", "warn", "log level (debug logs every step)")
		asJSON   = fs.Bool("json", false, "print the result as JSON")
		history  = fs.Bool("history", false, "include the cost of every step")
	)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if *path == "" {
		fmt.Fprintln(stderr, "vrpsolve: -instance is required")
		fs.Usage()
		return 2
	}

	logger, err := logging.NewLogger(&logging.Config{Level: *level, Format: "console", Output: "stderr"})
	if err != nil {
		fmt.Fprintf(stderr, "vrpsolve: %v\n", err)
		return 2
	}
	defer func() { _ = logger.Sync() }()

	out, err := solve(*path, *initName, *strategy, logger)
	if err != nil {
		fmt.Fprintf(stderr, "vrpsolve: %v\n", err)
		var ce *optimization.ConstructionError
		if errors.As(err, &ce) && len(ce.Unassigned) > 0 {
			fmt.Fprintf(stderr, "unassigned customers: %v\n", ce.Unassigned)
		}
		return 1
	}
	if !*history {
		out.History = nil
	}

	if *asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			fmt.Fprintf(stderr, "vrpsolve: %v\n", err)
			return 1
		}
		return 0
	}
	printText(stdout, out)
	return 0
}

func solve(path, initName, strategyName string, logger *zap.Logger) (*output, error) {
	p, err := instance.LoadFile(path)
	if err != nil {
		return nil, err
	}

	rec := optimization.NewRecorder()
	solver, err := catalog.NewSolver(initName, strategyName,
		optimization.WithLogger(logger.With(zap.String("instance", p.Name))),
		optimization.WithHook(rec.Hook()),
	)
	if err != nil {
		return nil, err
	}

	res, err := solver.Run(p)
	if err != nil {
		return nil, err
	}

	out := &output{
		Name:         p.Name,
		Initializer:  initName,
		Strategy:     strategyName,
		InitialCost:  res.InitialCost,
		Cost:         res.Cost,
		Steps:        res.Steps,
		Improvements: res.Improvements,
		Routes:       make([][]int, len(res.Solution.Routes)),
		History:      rec.Evaluations(),
	}
	for i, r := range res.Solution.Routes {
		out.Routes[i] = append([]int{}, r.Visits...)
	}
	return out, nil
}

func printText(w io.Writer, out *output) {
	fmt.Fprintf(w, "instance:     %s\n", out.Name)
	fmt.Fprintf(w, "components:   %s + %s\n", out.Initializer, out.Strategy)
	fmt.Fprintf(w, "initial cost: %.4f\n", out.InitialCost)
	fmt.Fprintf(w, "final cost:   %.4f (%d steps, %d improvements)\n", out.Cost, out.Steps, out.Improvements)
	for i, visits := range out.Routes {
		if len(visits) == 0 {
			fmt.Fprintf(w, "route %d: <empty>\n", i)
			continue
		}
		parts := make([]string, len(visits))
		for k, id := range visits {
			parts[k] = fmt.Sprint(id)
		}
		fmt.Fprintf(w, "route %d: %s\n", i, strings.Join(parts, " -> "))
	}
	for _, e := range out.History {
		fmt.Fprintf(w, "step %d: %.4f\n", e.Iteration, e.Cost)
	}
}
