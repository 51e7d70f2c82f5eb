package helloworld

import (
	"encoding/json"
	"fmt"

	"github.com/govm-net/greeter/contracts"
	"github.com/govm-net/greeter/core"
)

type SetGreetingParams struct {
	Greeting string `json:"greeting,omitempty"`
}

func handleGetGreeting(ctx core.Context, params []byte) (any, error) {
	result, err := GetGreeting(ctx)
	if err != nil {
		return nil, err
	}
	return result, nil
}

func handleSetGreeting(ctx core.Context, params []byte) (any, error) {
	var args SetGreetingParams
	if len(params) > 0 {
		if err := json.Unmarshal(params, &args); err != nil {
			return nil, fmt.Errorf("failed to unmarshal params: %w", err)
		}
	}

	if err := SetGreeting(ctx, args.Greeting); err != nil {
		return nil, err
	}
	return nil, nil
}

// Handlers implements contracts.Contract
func (c *HelloWorld) Handlers() map[string]contracts.Handler {
	return map[string]contracts.Handler{
		"GetGreeting": handleGetGreeting,
		"SetGreeting": handleSetGreeting,
	}
}
