package vm

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	chainctx "github.com/govm-net/greeter/context"
	_ "github.com/govm-net/greeter/context/db"
	_ "github.com/govm-net/greeter/context/memory"
	"github.com/govm-net/greeter/contracts/helloworld"
	"github.com/govm-net/greeter/core"
	"github.com/govm-net/greeter/types"
)

var testSender = types.Address{1}

// TestEngineDeployAndExecute tests deploying a contract and executing its
// functions against the in-memory context.
func TestEngineDeployAndExecute(t *testing.T) {
	engine, err := NewEngine(&Config{ContextType: chainctx.MemoryContextType})
	if err != nil {
		t.Fatalf("Failed to create engine: %v", err)
	}
	defer engine.Close()

	contractAddr, err := engine.Deploy(context.Background(), helloworld.ContractName, testSender, nil)
	if err != nil {
		t.Fatalf("Failed to deploy contract: %v", err)
	}

	result, err := engine.Execute(context.Background(), contractAddr, testSender, "GetGreeting", nil)
	if err != nil {
		t.Fatalf("Failed to execute GetGreeting: %v", err)
	}

	var greeting string
	if err := json.Unmarshal(result, &greeting); err != nil {
		t.Fatalf("Failed to decode result: %v", err)
	}
	expectedGreeting := "Hello, World!"
	if greeting != expectedGreeting {
		t.Errorf("Expected greeting '%s', but got '%s'", expectedGreeting, greeting)
	}
}

// TestEngineUnknownContract verifies the error paths for missing contracts
// and functions.
func TestEngineUnknownContract(t *testing.T) {
	engine, err := NewEngine(&Config{ContextType: chainctx.MemoryContextType})
	if err != nil {
		t.Fatalf("Failed to create engine: %v", err)
	}
	defer engine.Close()

	_, err = engine.Deploy(context.Background(), "NoSuchContract", testSender, nil)
	if !errors.Is(err, core.ErrContractNotFound) {
		t.Errorf("Expected ErrContractNotFound, got %v", err)
	}

	_, err = engine.Execute(context.Background(), types.Address{9, 9}, testSender, "GetGreeting", nil)
	if !errors.Is(err, core.ErrContractNotFound) {
		t.Errorf("Expected ErrContractNotFound, got %v", err)
	}

	contractAddr, err := engine.Deploy(context.Background(), helloworld.ContractName, testSender, nil)
	if err != nil {
		t.Fatalf("Failed to deploy contract: %v", err)
	}
	_, err = engine.Execute(context.Background(), contractAddr, testSender, "NoSuchFunction", nil)
	if !errors.Is(err, core.ErrFunctionNotFound) {
		t.Errorf("Expected ErrFunctionNotFound, got %v", err)
	}
}

// TestEngineFunctionNameFolding verifies callers can use either casing of
// a function name.
func TestEngineFunctionNameFolding(t *testing.T) {
	engine, err := NewEngine(&Config{ContextType: chainctx.MemoryContextType})
	if err != nil {
		t.Fatalf("Failed to create engine: %v", err)
	}
	defer engine.Close()

	contractAddr, err := engine.Deploy(context.Background(), "helloworld", testSender, nil)
	if err != nil {
		t.Fatalf("Failed to deploy contract by folded name: %v", err)
	}

	for _, name := range []string{"GetGreeting", "getGreeting", "GETGREETING"} {
		if _, err := engine.Execute(context.Background(), contractAddr, testSender, name, nil); err != nil {
			t.Errorf("Execute(%q) failed: %v", name, err)
		}
	}
}

// TestEngineWithDBContext runs a deploy and a write-then-read round trip
// against the SQLite-backed context.
func TestEngineWithDBContext(t *testing.T) {
	engine, err := NewEngine(&Config{
		ContextType:   chainctx.DBContextType,
		ContextParams: map[string]any{"db_path": filepath.Join(t.TempDir(), "chain.db")},
		RepoDir:       t.TempDir(),
	})
	if err != nil {
		t.Fatalf("Failed to create engine: %v", err)
	}
	defer engine.Close()

	contractAddr, err := engine.Deploy(context.Background(), helloworld.ContractName, testSender, nil)
	if err != nil {
		t.Fatalf("Failed to deploy contract: %v", err)
	}

	params, _ := json.Marshal(helloworld.SetGreetingParams{Greeting: "Hello, SQLite!"})
	if _, err := engine.Execute(context.Background(), contractAddr, testSender, "SetGreeting", params); err != nil {
		t.Fatalf("Failed to execute SetGreeting: %v", err)
	}

	result, err := engine.Execute(context.Background(), contractAddr, testSender, "GetGreeting", nil)
	if err != nil {
		t.Fatalf("Failed to execute GetGreeting: %v", err)
	}
	var greeting string
	if err := json.Unmarshal(result, &greeting); err != nil {
		t.Fatalf("Failed to decode result: %v", err)
	}
	if greeting != "Hello, SQLite!" {
		t.Errorf("Expected greeting 'Hello, SQLite!', but got '%s'", greeting)
	}
}

// TestEngineRestore verifies a fresh engine can serve calls to a contract
// recorded by an earlier engine sharing the same repository and database.
func TestEngineRestore(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "chain.db")
	repoDir := t.TempDir()

	first, err := NewEngine(&Config{
		ContextType:   chainctx.DBContextType,
		ContextParams: map[string]any{"db_path": dbPath},
		RepoDir:       repoDir,
	})
	if err != nil {
		t.Fatalf("Failed to create engine: %v", err)
	}
	contractAddr, err := first.Deploy(context.Background(), helloworld.ContractName, testSender, nil)
	if err != nil {
		t.Fatalf("Failed to deploy contract: %v", err)
	}
	first.Close()

	second, err := NewEngine(&Config{
		ContextType:   chainctx.DBContextType,
		ContextParams: map[string]any{"db_path": dbPath},
		RepoDir:       repoDir,
	})
	if err != nil {
		t.Fatalf("Failed to create second engine: %v", err)
	}
	defer second.Close()

	if err := second.Restore(context.Background()); err != nil {
		t.Fatalf("Failed to restore deployments: %v", err)
	}

	result, err := second.Execute(context.Background(), contractAddr, testSender, "GetGreeting", nil)
	if err != nil {
		t.Fatalf("Failed to execute after restore: %v", err)
	}
	var greeting string
	if err := json.Unmarshal(result, &greeting); err != nil {
		t.Fatalf("Failed to decode result: %v", err)
	}
	if greeting != helloworld.InitialGreeting {
		t.Errorf("Expected greeting '%s', but got '%s'", helloworld.InitialGreeting, greeting)
	}
}

// TestDeployWasmRejectsInvalidModules checks the WASM deployment
// validation path.
func TestDeployWasmRejectsInvalidModules(t *testing.T) {
	engine, err := NewEngine(&Config{
		ContextType: chainctx.MemoryContextType,
		WasmDir:     t.TempDir(),
	})
	if err != nil {
		t.Fatalf("Failed to create engine: %v", err)
	}
	defer engine.Close()

	if _, err := engine.DeployWasm(context.Background(), nil, testSender); err == nil {
		t.Error("Expected error for empty wasm code")
	}

	_, err = engine.DeployWasm(context.Background(), []byte("not a wasm module"), testSender)
	if err == nil {
		t.Fatal("Expected error for invalid wasm code")
	}
	var envErr *core.EnvironmentError
	if !errors.As(err, &envErr) {
		t.Errorf("Expected EnvironmentError, got %v", err)
	}
}
