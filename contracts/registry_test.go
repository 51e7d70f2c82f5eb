package contracts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/govm-net/greeter/core"
)

type fakeContract struct{}

func (*fakeContract) Initialize(ctx core.Context, args []byte) error { return nil }
func (*fakeContract) Handlers() map[string]Handler                   { return nil }

func newFake() Contract { return &fakeContract{} }

func TestRegisterAndGet(t *testing.T) {
	require.NoError(t, Register("TestFake", newFake))

	factory, err := Get("TestFake")
	require.NoError(t, err)
	assert.NotNil(t, factory())

	// Lookup is case-folded.
	_, err = Get("testfake")
	assert.NoError(t, err)
	_, err = Get("TESTFAKE")
	assert.NoError(t, err)

	name, err := CanonicalName("testfake")
	require.NoError(t, err)
	assert.Equal(t, "TestFake", name)

	assert.Contains(t, Registered(), "TestFake")
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	require.NoError(t, Register("TestDup", newFake))
	assert.Error(t, Register("TestDup", newFake))
	assert.Error(t, Register("testdup", newFake), "folded duplicates collide too")
}

func TestGetUnknown(t *testing.T) {
	_, err := Get("NoSuchContract")
	assert.ErrorIs(t, err, core.ErrContractNotFound)

	_, err = CanonicalName("NoSuchContract")
	assert.ErrorIs(t, err, core.ErrContractNotFound)
}
