package core

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddressFromString(t *testing.T) {
	addr := Address{0xab, 0xcd}
	hexStr := addr.String()
	require.Len(t, hexStr, 40)

	parsed, err := AddressFromString(hexStr)
	require.NoError(t, err)
	assert.Equal(t, addr, parsed)

	parsed, err = AddressFromString("0x" + hexStr)
	require.NoError(t, err)
	assert.Equal(t, addr, parsed)

	_, err = AddressFromString("abcd")
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = AddressFromString("zz" + hexStr[2:])
	assert.Error(t, err)
}

func TestObjectIDFromString(t *testing.T) {
	id := ObjectID{0x01, 0x02}
	parsed, err := ObjectIDFromString(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, parsed)

	parsed, err = ObjectIDFromString("0x" + id.String())
	require.NoError(t, err)
	assert.Equal(t, id, parsed)
}

func TestDefaultObjectID(t *testing.T) {
	contract := Address{0xc0, 0xff, 0xee}
	id := DefaultObjectID(contract)
	assert.Equal(t, contract[:], id[:len(contract)])
	for _, b := range id[len(contract):] {
		assert.Zero(t, b)
	}

	assert.NotEqual(t, id, DefaultObjectID(Address{0x01}))
}

func TestGetHash(t *testing.T) {
	h1 := GetHash([]byte("hello"))
	h2 := GetHash([]byte("hello"))
	assert.Equal(t, h1, h2)
	assert.NotEqual(t, h1, GetHash([]byte("world")))
	assert.NotEqual(t, ZeroHash, h1)
}

func TestValidationError(t *testing.T) {
	err := NewValidationError("Greeting cannot be empty")
	assert.Equal(t, "Greeting cannot be empty", err.Error())

	var vErr *ValidationError
	assert.ErrorAs(t, fmt.Errorf("call failed: %w", err), &vErr)
	assert.Equal(t, "Greeting cannot be empty", vErr.Msg)
}

func TestEnvironmentError(t *testing.T) {
	cause := errors.New("disk full")
	err := NewEnvironmentError("write manifest", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "write manifest")

	var envErr *EnvironmentError
	require.ErrorAs(t, fmt.Errorf("deploy: %w", err), &envErr)
	assert.Equal(t, "write manifest", envErr.Op)
}
