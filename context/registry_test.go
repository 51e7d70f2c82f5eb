package context

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/govm-net/greeter/types"
)

func stubConstructor(params map[string]any) types.BlockchainContext {
	return nil
}

func TestRegisterAndGet(t *testing.T) {
	const stub ContextType = "stub"
	require.NoError(t, Register(stub, stubConstructor))
	assert.Error(t, Register(stub, stubConstructor), "duplicate registration must fail")

	_, err := Get(stub, nil)
	assert.NoError(t, err)

	_, err = Get("unknown", nil)
	assert.Error(t, err)

	assert.Contains(t, ListRegistered(), stub)
}

func TestDefaultContextType(t *testing.T) {
	assert.Equal(t, MemoryContextType, DefaultContextType())

	assert.Error(t, SetDefault("unregistered"), "default must already be registered")

	const other ContextType = "stub-default"
	require.NoError(t, Register(other, stubConstructor))
	require.NoError(t, SetDefault(other))
	assert.Equal(t, other, DefaultContextType())

	// Restore so other tests keep seeing the shipped default. The memory
	// implementation registers itself from its own package, so re-register
	// a stand-in here.
	if _, err := Get(MemoryContextType, nil); err != nil {
		require.NoError(t, Register(MemoryContextType, stubConstructor))
	}
	require.NoError(t, SetDefault(MemoryContextType))
}
