package helloworld

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/govm-net/greeter/context/memory"
	"github.com/govm-net/greeter/core"
	"github.com/govm-net/greeter/types"
	"github.com/govm-net/greeter/vm"
)

var (
	deployer = mustAddress("0000000000000000000000000000000000000001")
	addr1    = mustAddress("0000000000000000000000000000000000000002")
)

func mustAddress(s string) types.Address {
	addr, err := core.AddressFromString(s)
	if err != nil {
		panic(err)
	}
	return addr
}

func deployHelloWorld(t *testing.T) (*vm.Engine, types.Address) {
	t.Helper()

	engine, err := vm.NewEngine(&vm.Config{
		ContextType: "memory",
		RepoDir:     t.TempDir(),
	})
	require.NoError(t, err)
	t.Cleanup(func() { engine.Close() })

	contract, err := engine.Deploy(context.Background(), ContractName, deployer, nil)
	require.NoError(t, err)
	return engine, contract
}

func getGreeting(t *testing.T, engine *vm.Engine, contract types.Address, sender types.Address) string {
	t.Helper()

	result, err := engine.Execute(context.Background(), contract, sender, "getGreeting", nil)
	require.NoError(t, err)

	var greeting string
	require.NoError(t, json.Unmarshal(result, &greeting))
	return greeting
}

func setGreeting(engine *vm.Engine, contract types.Address, sender types.Address, greeting string) error {
	params, err := json.Marshal(SetGreetingParams{Greeting: greeting})
	if err != nil {
		return err
	}
	_, err = engine.Execute(context.Background(), contract, sender, "setGreeting", params)
	return err
}

// TestHelloWorld deploys one instance and runs the scenarios in order
// against it; later scenarios observe the mutations of earlier ones.
func TestHelloWorld(t *testing.T) {
	engine, contract := deployHelloWorld(t)

	t.Run("should return the initial greeting", func(t *testing.T) {
		assert.Equal(t, InitialGreeting, getGreeting(t, engine, contract, deployer))
	})

	t.Run("should update the greeting", func(t *testing.T) {
		require.NoError(t, setGreeting(engine, contract, deployer, "Hello, Ethereum!"))
		assert.Equal(t, "Hello, Ethereum!", getGreeting(t, engine, contract, deployer))
	})

	t.Run("should reject an empty greeting", func(t *testing.T) {
		before := getGreeting(t, engine, contract, deployer)

		err := setGreeting(engine, contract, deployer, "")
		require.Error(t, err)

		var vErr *core.ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Equal(t, "Greeting cannot be empty", vErr.Error())

		// Stored value must be unchanged
		assert.Equal(t, before, getGreeting(t, engine, contract, deployer))
	})

	t.Run("should allow any sender to update the greeting", func(t *testing.T) {
		require.NoError(t, setGreeting(engine, contract, addr1, "Hello from addr1!"))
		assert.Equal(t, "Hello from addr1!", getGreeting(t, engine, contract, deployer))
	})
}

func TestSetGreetingKeepsStateOnValidationError(t *testing.T) {
	engine, contract := deployHelloWorld(t)

	err := setGreeting(engine, contract, deployer, "")
	var vErr *core.ValidationError
	require.ErrorAs(t, err, &vErr)

	assert.Equal(t, InitialGreeting, getGreeting(t, engine, contract, deployer))
}

func TestGreetingVisibleToAllCallers(t *testing.T) {
	engine, contract := deployHelloWorld(t)

	require.NoError(t, setGreeting(engine, contract, addr1, "Hej!"))
	assert.Equal(t, "Hej!", getGreeting(t, engine, contract, deployer))
	assert.Equal(t, "Hej!", getGreeting(t, engine, contract, addr1))
}
