// Package contracts manages the factories for the native contracts the
// runtime can deploy. Contract packages register a factory at init time;
// the engine looks one up by type name when asked to deploy.
package contracts

import (
	"fmt"
	"sync"

	"github.com/govm-net/greeter/core"
	"golang.org/x/text/cases"
)

// Handler executes one exported contract function. params is the
// JSON-encoded parameter struct of the function, or nil when the function
// takes no input.
type Handler func(ctx core.Context, params []byte) (any, error)

// Contract is a deployable native contract.
type Contract interface {
	// Initialize runs once at deployment, before any other call
	Initialize(ctx core.Context, args []byte) error
	// Handlers returns the dispatch table of exported functions
	Handlers() map[string]Handler
}

// Factory creates a fresh contract instance.
type Factory func() Contract

var (
	mu        sync.RWMutex
	factories = make(map[string]Factory)
	names     = make(map[string]string) // folded name -> registered name
)

// foldName normalizes a contract type name for lookup. Unicode case
// folding, so "helloworld" and "HelloWorld" resolve to the same factory.
func foldName(name string) string {
	return cases.Fold().String(name)
}

// Register adds a contract factory under the given type name.
func Register(name string, factory Factory) error {
	mu.Lock()
	defer mu.Unlock()

	key := foldName(name)
	if _, exists := factories[key]; exists {
		return fmt.Errorf("contract %s already registered", name)
	}
	factories[key] = factory
	names[key] = name
	return nil
}

// Get returns the factory registered under name.
func Get(name string) (Factory, error) {
	mu.RLock()
	defer mu.RUnlock()

	factory, exists := factories[foldName(name)]
	if !exists {
		return nil, fmt.Errorf("%w: %s", core.ErrContractNotFound, name)
	}
	return factory, nil
}

// CanonicalName returns the name a contract type was registered under.
func CanonicalName(name string) (string, error) {
	mu.RLock()
	defer mu.RUnlock()

	registered, exists := names[foldName(name)]
	if !exists {
		return "", fmt.Errorf("%w: %s", core.ErrContractNotFound, name)
	}
	return registered, nil
}

// Registered returns the registered contract type names.
func Registered() []string {
	mu.RLock()
	defer mu.RUnlock()

	out := make([]string, 0, len(names))
	for _, name := range names {
		out = append(out, name)
	}
	return out
}
