package types

// WasmFunctionID identifies a host function in host-contract communication.
// The same constants must be used on both sides of the boundary; a mismatch
// results in undefined behavior.
type WasmFunctionID int32

const (
	// FuncGetSender returns the sender of the current transaction
	FuncGetSender WasmFunctionID = iota + 1
	// FuncGetContractAddress returns the address of the current contract
	FuncGetContractAddress
	// FuncGetObjectField retrieves a field from a state object
	FuncGetObjectField
	// FuncSetObjectField updates a field in a state object
	FuncSetObjectField
	// FuncLog records a contract event
	FuncLog
)

// HostBufferSize is the size of the buffer used for data exchange between
// the host and a WASM contract.
const HostBufferSize int32 = 2048

// GetObjectFieldParams is the argument payload for FuncGetObjectField.
type GetObjectFieldParams struct {
	Contract Address  `json:"contract,omitempty"`
	ID       ObjectID `json:"id,omitempty"`
	Field    string   `json:"field,omitempty"`
}

// SetObjectFieldParams is the argument payload for FuncSetObjectField.
type SetObjectFieldParams struct {
	Contract Address  `json:"contract,omitempty"`
	Sender   Address  `json:"sender,omitempty"`
	ID       ObjectID `json:"id,omitempty"`
	Field    string   `json:"field,omitempty"`
	Value    any      `json:"value,omitempty"`
}

// LogParams is the argument payload for FuncLog.
type LogParams struct {
	Contract  Address `json:"contract,omitempty"`
	Event     string  `json:"event,omitempty"`
	KeyValues []any   `json:"key_values,omitempty"`
}

// HandleContractCallParams is the input of the exported
// handle_contract_call entry point of a WASM contract.
type HandleContractCallParams struct {
	Contract Address `json:"contract,omitempty"`
	Sender   Address `json:"sender,omitempty"`
	Function string  `json:"function,omitempty"`
	Args     []byte  `json:"args,omitempty"`
}

// ExecutionResult is the output of handle_contract_call.
type ExecutionResult struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}
