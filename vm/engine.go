// Package vm implements the local chain execution engine. It deploys
// contracts, serializes transactions against them, and dispatches calls
// into contract handlers.
package vm

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	gocontext "context"

	"github.com/govm-net/greeter/api"
	chainctx "github.com/govm-net/greeter/context"
	"github.com/govm-net/greeter/contracts"
	"github.com/govm-net/greeter/core"
	"github.com/govm-net/greeter/repository"
	"github.com/govm-net/greeter/types"
	"golang.org/x/text/cases"
)

// Config holds the engine configuration.
type Config struct {
	// ContextType selects the blockchain context implementation
	// ("memory" or "db"); empty selects the registry default.
	ContextType chainctx.ContextType

	// ContextParams is passed to the context constructor.
	ContextParams map[string]any

	// RepoDir is the directory for deployment artifacts. Empty disables
	// artifact recording.
	RepoDir string

	// WasmDir is the directory WASM contract modules are stored in.
	// Empty disables the WASM backend.
	WasmDir string
}

type deployedContract struct {
	name     string
	handlers map[string]contracts.Handler
}

// Engine implements api.VM against a BlockchainContext. A single mutex
// serializes all deployments and calls, mirroring how a chain serializes
// transactions against a contract.
type Engine struct {
	mu sync.Mutex

	config *Config
	bc     types.BlockchainContext
	repo   *repository.Manager
	wasm   *wasmBackend

	native map[types.Address]*deployedContract
	nonce  uint64
}

var _ api.VM = (*Engine)(nil)

// NewEngine creates an engine from config.
func NewEngine(config *Config) (*Engine, error) {
	if config == nil {
		config = &Config{}
	}

	bc, err := chainctx.Get(config.ContextType, config.ContextParams)
	if err != nil {
		return nil, core.NewEnvironmentError("create blockchain context", err)
	}

	engine := &Engine{
		config: config,
		bc:     bc,
		native: make(map[types.Address]*deployedContract),
	}

	if config.RepoDir != "" {
		repo, err := repository.NewManager(config.RepoDir)
		if err != nil {
			return nil, core.NewEnvironmentError("create artifact repository", err)
		}
		engine.repo = repo
	}

	if config.WasmDir != "" {
		wasm, err := newWasmBackend(config.WasmDir)
		if err != nil {
			return nil, core.NewEnvironmentError("create wasm backend", err)
		}
		engine.wasm = wasm
	}

	return engine, nil
}

// GetContext returns the engine's blockchain context.
func (e *Engine) GetContext() types.BlockchainContext {
	return e.bc
}

// Close releases the engine's resources.
func (e *Engine) Close() error {
	if closer, ok := e.bc.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// Deploy implements api.VM. The new instance gets a default state object
// whose ID is derived from the contract address, then the contract's
// Initialize runs as the first transaction against it.
func (e *Engine) Deploy(ctx gocontext.Context, name string, sender types.Address, initArgs []byte) (types.Address, error) {
	if err := ctx.Err(); err != nil {
		return types.Address{}, err
	}

	factory, err := contracts.Get(name)
	if err != nil {
		return types.Address{}, err
	}
	canonical, err := contracts.CanonicalName(name)
	if err != nil {
		return types.Address{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.nonce++
	seed := fmt.Sprintf("%s|%d|%d", canonical, e.nonce, time.Now().UnixNano())
	addr := api.DefaultAddressGenerator([]byte(seed), sender)

	instance := factory()
	deployed := &deployedContract{
		name:     canonical,
		handlers: foldHandlers(instance.Handlers()),
	}

	if _, err := e.bc.CreateObjectWithID(addr, core.DefaultObjectID(addr)); err != nil {
		return types.Address{}, core.NewEnvironmentError("create default object", err)
	}

	txHash := e.transactionHash(sender, addr, "Initialize")
	if err := e.bc.SetTransactionInfo(txHash, sender, addr, 0); err != nil {
		return types.Address{}, core.NewEnvironmentError("record transaction", err)
	}

	execCtx := newExecContext(e.bc, addr, sender)
	if err := instance.Initialize(execCtx, initArgs); err != nil {
		return types.Address{}, fmt.Errorf("failed to initialize contract: %w", err)
	}

	e.native[addr] = deployed

	if err := e.recordDeployment(canonical, repository.KindNative, addr, []byte(canonical)); err != nil {
		return types.Address{}, err
	}

	slog.Info("contract deployed", "name", canonical, "address", addr, "sender", sender)
	return addr, nil
}

// Execute implements api.VM. Contract-level errors, including validation
// failures, are returned as-is; environment failures come wrapped in
// *core.EnvironmentError.
func (e *Engine) Execute(ctx gocontext.Context, contract, sender types.Address, function string, params []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	deployed, exists := e.native[contract]
	if !exists {
		if e.wasm != nil && e.wasm.has(contract) {
			return e.executeWasmLocked(ctx, contract, sender, function, params)
		}
		return nil, fmt.Errorf("%w: %s", core.ErrContractNotFound, contract)
	}

	handler, exists := deployed.handlers[foldFunction(function)]
	if !exists {
		return nil, fmt.Errorf("%w: %s.%s", core.ErrFunctionNotFound, deployed.name, function)
	}

	txHash := e.transactionHash(sender, contract, function)
	if err := e.bc.SetTransactionInfo(txHash, sender, contract, 0); err != nil {
		return nil, core.NewEnvironmentError("record transaction", err)
	}

	execCtx := newExecContext(e.bc, contract, sender)
	result, err := handler(execCtx, params)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, nil
	}

	out, err := json.Marshal(result)
	if err != nil {
		return nil, core.NewEnvironmentError("encode result", err)
	}
	return out, nil
}

// Restore reloads previously recorded deployments from the artifact
// repository so a fresh process can call contracts deployed by an earlier
// run. WASM deployments need no restoration; module presence on disk is
// enough.
func (e *Engine) Restore(ctx gocontext.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if e.repo == nil {
		return nil
	}

	list, err := e.repo.List()
	if err != nil {
		return core.NewEnvironmentError("list deployments", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	for _, d := range list {
		if d.Kind != repository.KindNative {
			continue
		}
		addr, err := core.AddressFromString(d.Address)
		if err != nil {
			return core.NewEnvironmentError("parse deployment address", err)
		}
		if _, exists := e.native[addr]; exists {
			continue
		}
		factory, err := contracts.Get(d.Name)
		if err != nil {
			return err
		}
		e.native[addr] = &deployedContract{
			name:     d.Name,
			handlers: foldHandlers(factory().Handlers()),
		}
	}
	return nil
}

func (e *Engine) transactionHash(sender, contract types.Address, function string) core.Hash {
	e.nonce++
	seed := fmt.Sprintf("%s|%s|%s|%d|%d", sender, contract, function, e.nonce, time.Now().UnixNano())
	return core.GetHash([]byte(seed))
}

func (e *Engine) recordDeployment(name, kind string, addr types.Address, code []byte) error {
	if e.repo == nil {
		return nil
	}
	err := e.repo.Register(&repository.Deployment{
		Address:  addr.String(),
		Name:     name,
		Kind:     kind,
		CodeHash: core.GetHash(code).String(),
	})
	if err != nil {
		return core.NewEnvironmentError("record deployment", err)
	}
	return nil
}

// foldHandlers rebuilds a dispatch table with case-folded function names.
func foldHandlers(handlers map[string]contracts.Handler) map[string]contracts.Handler {
	folded := make(map[string]contracts.Handler, len(handlers))
	for name, handler := range handlers {
		folded[foldFunction(name)] = handler
	}
	return folded
}

// foldFunction lets callers use "getGreeting" and "GetGreeting"
// interchangeably.
func foldFunction(name string) string {
	return cases.Fold().String(name)
}
