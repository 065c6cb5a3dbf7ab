// Package catalog maps configuration names to initializers and strategies.
package catalog

import (
	"errors"
	"fmt"
	"sort"

	"github.com/copyleftdev/vrpls/internal/optimization"
	"github.com/copyleftdev/vrpls/internal/optimization/initializers"
	"github.com/copyleftdev/vrpls/internal/optimization/strategies"
)

// ErrUnknown is returned for a name that is not registered.
var ErrUnknown = errors.New("unknown name")

const (
	// DefaultInitializer is used when no initializer is configured.
	DefaultInitializer = "savings"
	// DefaultStrategy is used when no strategy is configured.
	DefaultStrategy = "vnd"
)

var initializerFactories = map[string]func() optimization.Initializer{
	"nearest-neighbor": func() optimization.Initializer { return initializers.NewNearestNeighbor() },
	"savings":          func() optimization.Initializer { return initializers.NewSavings() },
}

var strategyFactories = map[string]func() optimization.Strategy{
	"two-opt":  func() optimization.Strategy { return strategies.NewTwoOpt() },
	"relocate": func() optimization.Strategy { return strategies.NewRelocate() },
	"exchange": func() optimization.Strategy { return strategies.NewExchange() },
	"vnd":      func() optimization.Strategy { return strategies.NewVND() },
}

// Initializer returns a new initializer registered under name.
// An empty name selects DefaultInitializer.
func Initializer(name string) (optimization.Initializer, error) {
	if name == "" {
		name = DefaultInitializer
	}
	f, ok := initializerFactories[name]
	if !ok {
		return nil, fmt.Errorf("initializer %q: %w (known: %v)", name, ErrUnknown, Initializers())
	}
	return f(), nil
}

// Strategy returns a new strategy registered under name.
// An empty name selects DefaultStrategy.
func Strategy(name string) (optimization.Strategy, error) {
	if name == "" {
		name = DefaultStrategy
	}
	f, ok := strategyFactories[name]
	if !ok {
		return nil, fmt.Errorf("strategy %q: %w (known: %v)", name, ErrUnknown, Strategies())
	}
	return f(), nil
}

// Initializers lists the registered initializer names in order.
func Initializers() []string {
	return sortedKeys(initializerFactories)
}

// Strategies lists the registered strategy names in order.
func Strategies() []string {
	return sortedKeys(strategyFactories)
}

// NewSolver builds a solver from registered names.
func NewSolver(initName, strategyName string, opts ...optimization.Option) (*optimization.Solver, error) {
	init, err := Initializer(initName)
	if err != nil {
		return nil, err
	}
	strategy, err := Strategy(strategyName)
	if err != nil {
		return nil, err
	}
	return optimization.NewSolver(init, strategy, opts...), nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
