// Package core provides the fundamental interfaces and types for contracts
// that run on the local chain runtime. Contract code only needs the
// definitions in this package.
package core

import "errors"

// Common errors that can be returned by contracts and the runtime
var (
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrUnauthorized     = errors.New("unauthorized operation")
	ErrContractNotFound = errors.New("contract not found")
	ErrFunctionNotFound = errors.New("function not found")
	ErrObjectNotFound   = errors.New("object not found")
)

// Context is the interface through which a contract interacts with the
// chain environment it runs in.
type Context interface {
	// Block information
	BlockHeight() uint64
	BlockTime() int64
	ContractAddress() Address

	// Account operations
	Sender() Address
	Balance(addr Address) uint64
	Transfer(to Address, amount uint64) error

	// Object storage. The zero ObjectID refers to the contract's
	// default state object.
	CreateObject() (Object, error)
	GetObject(id ObjectID) (Object, error)
	GetObjectWithOwner(owner Address) (Object, error)
	DeleteObject(id ObjectID) error

	// Log records a contract event
	Log(eventName string, keyValues ...any)
}

// Object manages a single chain state object.
type Object interface {
	ID() ObjectID
	Owner() Address
	Contract() Address
	SetOwner(addr Address) error

	// Field operations
	Get(field string, value any) error
	Set(field string, value any) error
}

// Request panics when a condition does not hold. Contracts use it to abort
// execution on violated invariants.
func Request(condition any) {
	switch v := condition.(type) {
	case bool:
		if !v {
			panic("request failed")
		}
	case error:
		if v != nil {
			panic(v)
		}
	}
}
