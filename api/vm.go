// Package api defines the interface between callers and the contract
// execution engine. It is not imported by contract code.
package api

import (
	"context"
	"crypto/sha256"

	"github.com/govm-net/greeter/types"
)

// VM deploys contracts into the local chain environment and executes
// functions on deployed instances. Every call blocks until the environment
// has confirmed the operation; cancellation is controlled through ctx.
type VM interface {
	// Deploy instantiates a registered native contract type and returns
	// the address of the live instance
	Deploy(ctx context.Context, name string, sender types.Address, initArgs []byte) (types.Address, error)

	// Execute runs a function on a deployed contract and returns the
	// JSON-encoded result
	Execute(ctx context.Context, contract, sender types.Address, function string, params []byte) ([]byte, error)
}

// AddressGenerator derives a contract address from deployment inputs.
type AddressGenerator func(seed []byte, sender types.Address) types.Address

// DefaultAddressGenerator hashes the deployment seed and sender and takes
// the first 20 bytes.
var DefaultAddressGenerator AddressGenerator = func(seed []byte, sender types.Address) types.Address {
	h := sha256.New()
	h.Write(seed)
	h.Write(sender[:])
	sum := h.Sum(nil)

	var addr types.Address
	copy(addr[:], sum[:len(addr)])
	return addr
}
