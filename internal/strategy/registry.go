package strategy

import (
	"sort"
	"sync"

	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
)

// Factory builds a strategy from a parameter combination.
type Factory func(params types.StrategyParams) (Strategy, error)

// Registry maps strategy types to factories.
type Registry interface {
	Register(strategyType types.StrategyType, factory Factory) error
	New(strategyType types.StrategyType, params types.StrategyParams) (Strategy, error)
	List() []types.StrategyType
}

// RegistryV1 is the default Registry implementation.
type RegistryV1 struct {
	factories map[types.StrategyType]Factory
	mu        sync.RWMutex
}

// NewRegistry creates an empty registry.
func NewRegistry() Registry {
	return &RegistryV1{
		factories: make(map[types.StrategyType]Factory),
		mu:        sync.RWMutex{},
	}
}

// DefaultRegistry returns a registry with every built-in variant.
func DefaultRegistry() Registry {
	r := NewRegistry()
	_ = r.Register(types.StrategyGoldenCross, NewGoldenCross)
	_ = r.Register(types.StrategyTrendBreakout, NewTrendBreakout)
	_ = r.Register(types.StrategyTrendRSI, NewTrendRSI)
	_ = r.Register(types.StrategyBreakout, NewBreakout)

	return r
}

// Register adds a factory. Registering the same type twice is an error.
func (r *RegistryV1) Register(strategyType types.StrategyType, factory Factory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[strategyType]; exists {
		return errors.Newf(errors.ErrCodeStrategyConfigError, "strategy %s already registered", strategyType)
	}

	r.factories[strategyType] = factory

	return nil
}

// New builds a strategy of the given type.
func (r *RegistryV1) New(strategyType types.StrategyType, params types.StrategyParams) (Strategy, error) {
	r.mu.RLock()
	factory, exists := r.factories[strategyType]
	r.mu.RUnlock()

	if !exists {
		return nil, errors.Newf(errors.ErrCodeUnsupportedStrategy, "unsupported strategy type %q", strategyType)
	}

	return factory(params)
}

// List returns the registered types, sorted.
func (r *RegistryV1) List() []types.StrategyType {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]types.StrategyType, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}

	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })

	return names
}
