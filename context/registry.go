// Package context manages the available BlockchainContext implementations.
// Implementations register a constructor at init time; the engine picks one
// by type name.
package context

import (
	"fmt"
	"sync"

	"github.com/govm-net/greeter/types"
)

// ContextType names a BlockchainContext implementation.
type ContextType string

const (
	// MemoryContextType is the in-memory context implementation
	MemoryContextType ContextType = "memory"
	// DBContextType is the SQLite-backed context implementation
	DBContextType ContextType = "db"
)

// Constructor creates a new BlockchainContext instance from a params bag.
type Constructor func(params map[string]any) types.BlockchainContext

var (
	mu           sync.RWMutex
	constructors = make(map[ContextType]Constructor)
	defaultType  = MemoryContextType
)

// Register adds a BlockchainContext implementation to the registry.
func Register(ct ContextType, constructor Constructor) error {
	mu.Lock()
	defer mu.Unlock()

	if _, exists := constructors[ct]; exists {
		return fmt.Errorf("context type %s already registered", ct)
	}
	constructors[ct] = constructor
	return nil
}

// SetDefault sets the context type used when Get is called with an empty
// type name.
func SetDefault(ct ContextType) error {
	mu.Lock()
	defer mu.Unlock()

	if _, exists := constructors[ct]; !exists {
		return fmt.Errorf("context type %s not registered", ct)
	}
	defaultType = ct
	return nil
}

// DefaultContextType returns the current default context type.
func DefaultContextType() ContextType {
	mu.RLock()
	defer mu.RUnlock()
	return defaultType
}

// Get returns a new instance of the given context type. An empty type name
// selects the default.
func Get(ct ContextType, params map[string]any) (types.BlockchainContext, error) {
	if ct == "" {
		ct = DefaultContextType()
	}

	mu.RLock()
	constructor, exists := constructors[ct]
	mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("context type %s not found", ct)
	}
	return constructor(params), nil
}

// ListRegistered returns all registered context types.
func ListRegistered() []ContextType {
	mu.RLock()
	defer mu.RUnlock()

	out := make([]ContextType, 0, len(constructors))
	for ct := range constructors {
		out = append(out, ct)
	}
	return out
}
