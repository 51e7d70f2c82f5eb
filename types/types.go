// Package types contains shared type definitions used by both the host
// runtime and deployed contracts, including the WASM host-call boundary.
package types

import "github.com/govm-net/greeter/core"

// Aliases of the core value types, so host packages can use either import.
type (
	Address  = core.Address
	ObjectID = core.ObjectID
	Hash     = core.Hash
)

// BlockchainContext is the host-side view of chain state. An implementation
// serializes all mutating calls against the objects it stores; the engine
// issues one transaction at a time.
type BlockchainContext interface {
	// Block and transaction bookkeeping
	SetBlockInfo(height uint64, time int64, hash Hash) error
	SetTransactionInfo(hash Hash, from, to Address, value uint64) error
	BlockHeight() uint64
	BlockTime() int64
	ContractAddress() Address
	TransactionHash() Hash

	// Account operations
	Sender() Address
	Balance(addr Address) uint64
	Transfer(contract Address, from, to Address, amount uint64) error

	// Object storage
	CreateObject(contract Address) (VMObject, error)
	CreateObjectWithID(contract Address, id ObjectID) (VMObject, error)
	GetObject(contract Address, id ObjectID) (VMObject, error)
	GetObjectWithOwner(contract, owner Address) (VMObject, error)
	DeleteObject(contract Address, id ObjectID) error

	// Log records a contract event
	Log(contract Address, eventName string, keyValues ...any)
}

// VMObject is the host-side view of a state object. Field values are opaque
// byte slices; the execution context encodes contract values as JSON.
type VMObject interface {
	ID() ObjectID
	Owner() Address
	Contract() Address
	SetOwner(contract, sender, addr Address) error

	Get(contract Address, field string) ([]byte, error)
	Set(contract, sender Address, field string, value []byte) error
}
