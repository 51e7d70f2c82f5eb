// Package memory provides a map-backed BlockchainContext. State lives for
// the lifetime of the process; every run starts from an empty chain.
package memory

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/govm-net/greeter/context"
	"github.com/govm-net/greeter/core"
	"github.com/govm-net/greeter/types"
)

type memoryContext struct {
	// Block information
	blockHeight uint64
	blockTime   int64

	// Account balances
	balances map[types.Address]uint64

	// Object storage
	objects        map[core.ObjectID]map[string][]byte
	objectOwner    map[core.ObjectID]core.Address
	objectContract map[core.ObjectID]core.Address

	// Current transaction
	contractAddr types.Address
	sender       types.Address
	txHash       core.Hash
	nonce        uint64
	mu           sync.Mutex
}

func init() {
	context.Register(context.MemoryContextType, NewContext)
}

// NewContext creates a new in-memory blockchain context. The params bag is
// unused by this implementation.
func NewContext(params map[string]any) types.BlockchainContext {
	return &memoryContext{
		balances:       make(map[types.Address]uint64),
		objects:        make(map[core.ObjectID]map[string][]byte),
		objectOwner:    make(map[core.ObjectID]core.Address),
		objectContract: make(map[core.ObjectID]core.Address),
	}
}

func (ctx *memoryContext) SetBlockInfo(height uint64, time int64, hash core.Hash) error {
	ctx.mu.Lock()
	defer ctx.mu.Unlock()
	ctx.blockHeight = height
	ctx.blockTime = time
	return nil
}

func (ctx *memoryContext) SetTransactionInfo(hash core.Hash, from, to types.Address, value uint64) error {
	ctx.mu.Lock()
	defer ctx.mu.Unlock()
	ctx.txHash = hash
	ctx.sender = from
	ctx.contractAddr = to
	return nil
}

// BlockHeight implements types.BlockchainContext
func (ctx *memoryContext) BlockHeight() uint64 {
	return ctx.blockHeight
}

// BlockTime implements types.BlockchainContext
func (ctx *memoryContext) BlockTime() int64 {
	return ctx.blockTime
}

// ContractAddress implements types.BlockchainContext
func (ctx *memoryContext) ContractAddress() types.Address {
	return ctx.contractAddr
}

// TransactionHash implements types.BlockchainContext
func (ctx *memoryContext) TransactionHash() core.Hash {
	return ctx.txHash
}

// Sender implements types.BlockchainContext
func (ctx *memoryContext) Sender() types.Address {
	return ctx.sender
}

// Balance implements types.BlockchainContext
func (ctx *memoryContext) Balance(addr types.Address) uint64 {
	ctx.mu.Lock()
	defer ctx.mu.Unlock()
	return ctx.balances[addr]
}

// SetBalance seeds an account balance. Test and local-run helper.
func (ctx *memoryContext) SetBalance(addr types.Address, amount uint64) {
	ctx.mu.Lock()
	defer ctx.mu.Unlock()
	ctx.balances[addr] = amount
}

// Transfer implements types.BlockchainContext
func (ctx *memoryContext) Transfer(contract types.Address, from, to types.Address, amount uint64) error {
	ctx.mu.Lock()
	defer ctx.mu.Unlock()

	if ctx.balances[from] < amount {
		return errors.New("insufficient balance")
	}
	ctx.balances[from] -= amount
	ctx.balances[to] += amount
	return nil
}

// CreateObject implements types.BlockchainContext
func (ctx *memoryContext) CreateObject(contract types.Address) (types.VMObject, error) {
	ctx.mu.Lock()
	defer ctx.mu.Unlock()
	return ctx.createObjectLocked(contract, ctx.generateObjectID(contract))
}

// CreateObjectWithID implements types.BlockchainContext
func (ctx *memoryContext) CreateObjectWithID(contract types.Address, id types.ObjectID) (types.VMObject, error) {
	ctx.mu.Lock()
	defer ctx.mu.Unlock()
	if _, exists := ctx.objects[id]; exists {
		return nil, fmt.Errorf("object already exists: %s", id)
	}
	return ctx.createObjectLocked(contract, id)
}

func (ctx *memoryContext) createObjectLocked(contract types.Address, id core.ObjectID) (types.VMObject, error) {
	ctx.objects[id] = make(map[string][]byte)
	// Objects created by a contract are owned by that contract until
	// ownership is handed over explicitly.
	ctx.objectOwner[id] = contract
	ctx.objectContract[id] = contract

	return &vmObject{ctx: ctx, id: id}, nil
}

func (ctx *memoryContext) generateObjectID(contract types.Address) core.ObjectID {
	ctx.nonce++
	seed := fmt.Sprintf("%s-%s-%s-%d", contract, ctx.sender, ctx.txHash, ctx.nonce)
	return core.ObjectID(core.GetHash([]byte(seed)))
}

// GetObject implements types.BlockchainContext
func (ctx *memoryContext) GetObject(contract types.Address, id core.ObjectID) (types.VMObject, error) {
	ctx.mu.Lock()
	defer ctx.mu.Unlock()
	if _, exists := ctx.objects[id]; !exists {
		return nil, core.ErrObjectNotFound
	}
	return &vmObject{ctx: ctx, id: id}, nil
}

// GetObjectWithOwner implements types.BlockchainContext
func (ctx *memoryContext) GetObjectWithOwner(contract, owner types.Address) (types.VMObject, error) {
	ctx.mu.Lock()
	defer ctx.mu.Unlock()
	for id, objOwner := range ctx.objectOwner {
		if objOwner == owner {
			return &vmObject{ctx: ctx, id: id}, nil
		}
	}
	return nil, core.ErrObjectNotFound
}

// DeleteObject implements types.BlockchainContext
func (ctx *memoryContext) DeleteObject(contract types.Address, id core.ObjectID) error {
	ctx.mu.Lock()
	defer ctx.mu.Unlock()
	delete(ctx.objects, id)
	delete(ctx.objectOwner, id)
	delete(ctx.objectContract, id)
	return nil
}

// Log implements types.BlockchainContext
func (ctx *memoryContext) Log(contract types.Address, eventName string, keyValues ...any) {
	params := []any{
		"contract", contract,
		"event", eventName,
	}
	params = append(params, keyValues...)
	slog.Info("contract event", params...)
}

// vmObject implements types.VMObject over the parent context maps.
type vmObject struct {
	ctx *memoryContext
	id  core.ObjectID
}

// ID implements types.VMObject
func (o *vmObject) ID() core.ObjectID {
	return o.id
}

// Owner implements types.VMObject
func (o *vmObject) Owner() types.Address {
	o.ctx.mu.Lock()
	defer o.ctx.mu.Unlock()
	return o.ctx.objectOwner[o.id]
}

// Contract implements types.VMObject
func (o *vmObject) Contract() types.Address {
	o.ctx.mu.Lock()
	defer o.ctx.mu.Unlock()
	return o.ctx.objectContract[o.id]
}

// SetOwner implements types.VMObject
func (o *vmObject) SetOwner(contract, sender, addr types.Address) error {
	o.ctx.mu.Lock()
	defer o.ctx.mu.Unlock()
	if contract != o.ctx.objectContract[o.id] {
		return fmt.Errorf("invalid contract")
	}
	owner := o.ctx.objectOwner[o.id]
	if sender != owner && contract != owner {
		return core.ErrUnauthorized
	}
	o.ctx.objectOwner[o.id] = addr
	return nil
}

// Get implements types.VMObject
func (o *vmObject) Get(contract types.Address, field string) ([]byte, error) {
	o.ctx.mu.Lock()
	defer o.ctx.mu.Unlock()
	if contract != o.ctx.objectContract[o.id] {
		return nil, fmt.Errorf("invalid contract")
	}
	value, exists := o.ctx.objects[o.id][field]
	if !exists {
		return nil, fmt.Errorf("field %s does not exist", field)
	}
	return value, nil
}

// Set implements types.VMObject
func (o *vmObject) Set(contract, sender types.Address, field string, value []byte) error {
	o.ctx.mu.Lock()
	defer o.ctx.mu.Unlock()
	if contract != o.ctx.objectContract[o.id] {
		return fmt.Errorf("invalid contract")
	}
	owner := o.ctx.objectOwner[o.id]
	if sender != owner && contract != owner {
		return core.ErrUnauthorized
	}
	o.ctx.objects[o.id][field] = value
	return nil
}
