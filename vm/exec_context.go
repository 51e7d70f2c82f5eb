package vm

import (
	"encoding/json"
	"fmt"

	"github.com/govm-net/greeter/core"
	"github.com/govm-net/greeter/types"
)

// execContext adapts a types.BlockchainContext into the core.Context a
// contract sees, bound to one (contract, sender) pair for the duration of
// a single call.
type execContext struct {
	bc       types.BlockchainContext
	contract types.Address
	sender   types.Address
}

func newExecContext(bc types.BlockchainContext, contract, sender types.Address) *execContext {
	return &execContext{
		bc:       bc,
		contract: contract,
		sender:   sender,
	}
}

// BlockHeight implements core.Context
func (ctx *execContext) BlockHeight() uint64 {
	return ctx.bc.BlockHeight()
}

// BlockTime implements core.Context
func (ctx *execContext) BlockTime() int64 {
	return ctx.bc.BlockTime()
}

// ContractAddress implements core.Context
func (ctx *execContext) ContractAddress() core.Address {
	return ctx.contract
}

// Sender implements core.Context
func (ctx *execContext) Sender() core.Address {
	return ctx.sender
}

// Balance implements core.Context
func (ctx *execContext) Balance(addr core.Address) uint64 {
	return ctx.bc.Balance(addr)
}

// Transfer implements core.Context
func (ctx *execContext) Transfer(to core.Address, amount uint64) error {
	return ctx.bc.Transfer(ctx.contract, ctx.contract, to, amount)
}

// CreateObject implements core.Context
func (ctx *execContext) CreateObject() (core.Object, error) {
	obj, err := ctx.bc.CreateObject(ctx.contract)
	if err != nil {
		return nil, err
	}
	return &stateObject{ctx: ctx, obj: obj}, nil
}

// resolveID maps the zero ObjectID to the contract's default state object.
func (ctx *execContext) resolveID(id core.ObjectID) core.ObjectID {
	if id == core.ZeroObjectID {
		return core.DefaultObjectID(ctx.contract)
	}
	return id
}

// GetObject implements core.Context
func (ctx *execContext) GetObject(id core.ObjectID) (core.Object, error) {
	obj, err := ctx.bc.GetObject(ctx.contract, ctx.resolveID(id))
	if err != nil {
		return nil, err
	}
	return &stateObject{ctx: ctx, obj: obj}, nil
}

// GetObjectWithOwner implements core.Context
func (ctx *execContext) GetObjectWithOwner(owner core.Address) (core.Object, error) {
	obj, err := ctx.bc.GetObjectWithOwner(ctx.contract, owner)
	if err != nil {
		return nil, err
	}
	return &stateObject{ctx: ctx, obj: obj}, nil
}

// DeleteObject implements core.Context
func (ctx *execContext) DeleteObject(id core.ObjectID) error {
	return ctx.bc.DeleteObject(ctx.contract, ctx.resolveID(id))
}

// Log implements core.Context
func (ctx *execContext) Log(eventName string, keyValues ...any) {
	ctx.bc.Log(ctx.contract, eventName, keyValues...)
}

// stateObject exposes a host-side VMObject to contract code. Field values
// are JSON-encoded on the way in and decoded on the way out.
type stateObject struct {
	ctx *execContext
	obj types.VMObject
}

// ID implements core.Object
func (o *stateObject) ID() core.ObjectID {
	return o.obj.ID()
}

// Owner implements core.Object
func (o *stateObject) Owner() core.Address {
	return o.obj.Owner()
}

// Contract implements core.Object
func (o *stateObject) Contract() core.Address {
	return o.obj.Contract()
}

// SetOwner implements core.Object
func (o *stateObject) SetOwner(addr core.Address) error {
	return o.obj.SetOwner(o.ctx.contract, o.ctx.sender, addr)
}

// Get implements core.Object
func (o *stateObject) Get(field string, value any) error {
	data, err := o.obj.Get(o.ctx.contract, field)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, value); err != nil {
		return fmt.Errorf("failed to decode field %s: %w", field, err)
	}
	return nil
}

// Set implements core.Object
func (o *stateObject) Set(field string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode field %s: %w", field, err)
	}
	return o.obj.Set(o.ctx.contract, o.ctx.sender, field, data)
}
