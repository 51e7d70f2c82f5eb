package vm

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	gocontext "context"

	vmapi "github.com/govm-net/greeter/api"
	"github.com/govm-net/greeter/core"
	"github.com/govm-net/greeter/repository"
	"github.com/govm-net/greeter/types"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
)

// wasmBackend stores and runs WASM contract modules through wazero.
// Modules must export allocate, deallocate, get_buffer_address and the
// handle_contract_call entry point.
type wasmBackend struct {
	dir string
}

func newWasmBackend(dir string) (*wasmBackend, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create contract directory: %w", err)
	}
	return &wasmBackend{dir: dir}, nil
}

func (b *wasmBackend) modulePath(contract types.Address) string {
	return filepath.Join(b.dir, fmt.Sprintf("%x.wasm", contract))
}

func (b *wasmBackend) has(contract types.Address) bool {
	_, err := os.Stat(b.modulePath(contract))
	return err == nil
}

// DeployWasm deploys a WASM contract module. The module is compiled once
// up front so invalid code is rejected at deployment rather than on the
// first call.
func (e *Engine) DeployWasm(ctx gocontext.Context, wasmCode []byte, sender types.Address) (types.Address, error) {
	if err := ctx.Err(); err != nil {
		return types.Address{}, err
	}
	if e.wasm == nil {
		return types.Address{}, errors.New("wasm backend not configured")
	}
	if len(wasmCode) == 0 {
		return types.Address{}, errors.New("contract code cannot be empty")
	}

	runtime := wazero.NewRuntime(ctx)
	defer runtime.Close(ctx)
	if _, err := runtime.CompileModule(ctx, wasmCode); err != nil {
		return types.Address{}, core.NewEnvironmentError("compile wasm module", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	addr := vmapi.DefaultAddressGenerator(wasmCode, sender)
	if err := os.WriteFile(e.wasm.modulePath(addr), wasmCode, 0644); err != nil {
		return types.Address{}, core.NewEnvironmentError("store wasm module", err)
	}

	if _, err := e.bc.CreateObjectWithID(addr, core.DefaultObjectID(addr)); err != nil {
		return types.Address{}, core.NewEnvironmentError("create default object", err)
	}

	if err := e.recordDeployment(fmt.Sprintf("wasm:%x", addr[:4]), repository.KindWasm, addr, wasmCode); err != nil {
		return types.Address{}, err
	}
	return addr, nil
}

// executeWasmLocked runs a function on a deployed WASM contract. The engine
// mutex is held by the caller.
func (e *Engine) executeWasmLocked(ctx gocontext.Context, contract, sender types.Address, function string, params []byte) ([]byte, error) {
	wasmCode, err := os.ReadFile(e.wasm.modulePath(contract))
	if err != nil {
		return nil, core.NewEnvironmentError("read wasm module", err)
	}

	txHash := e.transactionHash(sender, contract, function)
	if err := e.bc.SetTransactionInfo(txHash, sender, contract, 0); err != nil {
		return nil, core.NewEnvironmentError("record transaction", err)
	}

	runtime := wazero.NewRuntime(ctx)
	defer runtime.Close(ctx)

	module, err := e.instantiateWasm(ctx, runtime, wasmCode, contract, sender)
	if err != nil {
		return nil, core.NewEnvironmentError("instantiate wasm module", err)
	}

	raw, err := e.callWasmFunction(ctx, module, contract, sender, function, params)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, nil
	}

	var result types.ExecutionResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, core.NewEnvironmentError("decode execution result", err)
	}
	if !result.Success {
		return nil, fmt.Errorf("execution failed: %s", result.Error)
	}
	if result.Data == nil {
		return nil, nil
	}
	return json.Marshal(result.Data)
}

// instantiateWasm builds the host env module and instantiates the contract.
func (e *Engine) instantiateWasm(ctx gocontext.Context, runtime wazero.Runtime, wasmCode []byte, contract, sender types.Address) (api.Module, error) {
	compiled, err := runtime.CompileModule(ctx, wasmCode)
	if err != nil {
		return nil, fmt.Errorf("failed to compile wasm module: %w", err)
	}

	builder := runtime.NewHostModuleBuilder("env")

	builder.NewFunctionBuilder().
		WithParameterNames("funcID", "argPtr", "argLen", "bufferPtr").
		WithResultNames("result").
		WithFunc(func(_ gocontext.Context, m api.Module, funcID, argPtr, argLen, bufferPtr uint32) int32 {
			mem := m.Memory()
			if mem == nil {
				return -1
			}
			argData, ok := mem.Read(argPtr, argLen)
			if !ok {
				return -1
			}
			return e.handleHostSet(contract, sender, types.WasmFunctionID(funcID), argData)
		}).
		Export("call_host_set")

	builder.NewFunctionBuilder().
		WithParameterNames("funcID", "argPtr", "argLen", "bufferPtr").
		WithResultNames("result").
		WithFunc(func(_ gocontext.Context, m api.Module, funcID, argPtr, argLen, bufferPtr uint32) int32 {
			mem := m.Memory()
			if mem == nil {
				return -1
			}
			argData, ok := mem.Read(argPtr, argLen)
			if !ok {
				return -1
			}

			data, code := e.handleHostGetBuffer(contract, sender, types.WasmFunctionID(funcID), argData)
			if code < 0 {
				return code
			}
			if len(data) > int(types.HostBufferSize) {
				return -1
			}
			if !mem.Write(bufferPtr, data) {
				return -1
			}
			return int32(len(data))
		}).
		Export("call_host_get_buffer")

	builder.NewFunctionBuilder().
		WithResultNames("height").
		WithFunc(func(_ gocontext.Context, _ api.Module) uint64 {
			return e.bc.BlockHeight()
		}).
		Export("get_block_height")

	builder.NewFunctionBuilder().
		WithResultNames("time").
		WithFunc(func(_ gocontext.Context, _ api.Module) int64 {
			return e.bc.BlockTime()
		}).
		Export("get_block_time")

	if _, err := builder.Instantiate(ctx); err != nil {
		return nil, fmt.Errorf("failed to instantiate env module: %w", err)
	}

	wasi_snapshot_preview1.MustInstantiate(ctx, runtime)

	config := wazero.NewModuleConfig().
		WithName("contract").
		WithStartFunctions("_initialize")
	module, err := runtime.InstantiateModule(ctx, compiled, config)
	if err != nil {
		return nil, fmt.Errorf("failed to instantiate module: %w", err)
	}
	return module, nil
}

// handleHostSet serves host calls that mutate chain state.
func (e *Engine) handleHostSet(contract, sender types.Address, funcID types.WasmFunctionID, argData []byte) int32 {
	switch funcID {
	case types.FuncSetObjectField:
		var params types.SetObjectFieldParams
		if err := json.Unmarshal(argData, &params); err != nil {
			return -1
		}
		if params.ID == (types.ObjectID{}) {
			params.ID = core.DefaultObjectID(contract)
		}
		obj, err := e.bc.GetObject(contract, params.ID)
		if err != nil {
			return -1
		}
		value, err := json.Marshal(params.Value)
		if err != nil {
			return -1
		}
		if err := obj.Set(contract, sender, params.Field, value); err != nil {
			return -1
		}
		return 0

	case types.FuncLog:
		var params types.LogParams
		if err := json.Unmarshal(argData, &params); err != nil {
			return -1
		}
		e.bc.Log(contract, params.Event, params.KeyValues...)
		return 0

	default:
		return -1
	}
}

// handleHostGetBuffer serves host calls that return data through the
// shared host buffer.
func (e *Engine) handleHostGetBuffer(contract, sender types.Address, funcID types.WasmFunctionID, argData []byte) ([]byte, int32) {
	switch funcID {
	case types.FuncGetSender:
		return sender[:], 0

	case types.FuncGetContractAddress:
		return contract[:], 0

	case types.FuncGetObjectField:
		var params types.GetObjectFieldParams
		if err := json.Unmarshal(argData, &params); err != nil {
			return nil, -1
		}
		if params.ID == (types.ObjectID{}) {
			params.ID = core.DefaultObjectID(contract)
		}
		obj, err := e.bc.GetObject(contract, params.ID)
		if err != nil {
			return nil, -1
		}
		data, err := obj.Get(contract, params.Field)
		if err != nil {
			return nil, -1
		}
		return data, 0

	default:
		return nil, -1
	}
}

// callWasmFunction drives the exported handle_contract_call entry point.
func (e *Engine) callWasmFunction(ctx gocontext.Context, module api.Module, contract, sender types.Address, function string, params []byte) ([]byte, error) {
	allocate := module.ExportedFunction("allocate")
	if allocate == nil {
		return nil, errors.New("allocate function not found")
	}
	processDataFunc := module.ExportedFunction("handle_contract_call")
	if processDataFunc == nil {
		return nil, errors.New("handle_contract_call not found")
	}

	input := types.HandleContractCallParams{
		Contract: contract,
		Sender:   sender,
		Function: function,
		Args:     params,
	}
	inputBytes, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize call params: %w", err)
	}

	result, err := allocate.Call(ctx, uint64(len(inputBytes)))
	if err != nil {
		return nil, fmt.Errorf("failed to allocate memory: %w", err)
	}
	inputAddr := uint32(result[0])

	if !module.Memory().Write(inputAddr, inputBytes) {
		return nil, errors.New("failed to write to module memory")
	}

	result, err = processDataFunc.Call(ctx, uint64(inputAddr), uint64(len(inputBytes)))
	if err != nil {
		return nil, fmt.Errorf("failed to execute %s: %w", function, err)
	}

	var out []byte
	resultLen := int32(result[0])
	if resultLen > 0 {
		getBufferAddress := module.ExportedFunction("get_buffer_address")
		if getBufferAddress == nil {
			return nil, errors.New("get_buffer_address function not found")
		}
		result, err = getBufferAddress.Call(ctx)
		if err != nil {
			return nil, fmt.Errorf("get_buffer_address failed: %w", err)
		}
		bufferPtr := uint32(result[0])

		data, ok := module.Memory().Read(bufferPtr, uint32(resultLen))
		if !ok {
			return nil, fmt.Errorf("failed to read module memory at %d, len %d", bufferPtr, resultLen)
		}
		out = data
	}

	deallocate := module.ExportedFunction("deallocate")
	if deallocate == nil {
		return nil, errors.New("deallocate function not found")
	}
	if _, err := deallocate.Call(ctx, uint64(inputAddr), uint64(len(inputBytes))); err != nil {
		return nil, fmt.Errorf("failed to free memory: %w", err)
	}

	if resultLen < 0 {
		return nil, fmt.Errorf("execution of %s failed", function)
	}
	return out, nil
}
