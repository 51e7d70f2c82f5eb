// Package helloworld implements the HelloWorld greeting contract. It stores
// a single greeting string in the contract's default state object and
// exposes a getter and a validated setter.
package helloworld

import (
	"github.com/govm-net/greeter/contracts"
	"github.com/govm-net/greeter/core"
)

const (
	// ContractName is the type name the contract registers under
	ContractName = "HelloWorld"

	// InitialGreeting is the value stored at deployment
	InitialGreeting = "Hello, World!"

	greetingField = "greeting"
)

func init() {
	contracts.Register(ContractName, func() contracts.Contract {
		return &HelloWorld{}
	})
}

// HelloWorld binds the contract functions into the runtime's dispatch shape.
type HelloWorld struct{}

// Initialize implements contracts.Contract
func (c *HelloWorld) Initialize(ctx core.Context, args []byte) error {
	return Initialize(ctx)
}

// Initialize stores the initial greeting and records the deployment event.
func Initialize(ctx core.Context) error {
	obj, err := ctx.GetObject(core.ZeroObjectID)
	if err != nil {
		return err
	}
	if err := obj.Set(greetingField, InitialGreeting); err != nil {
		return err
	}

	ctx.Log("GreetingInitialized", "greeting", InitialGreeting, "creator", ctx.Sender())
	return nil
}

// GetGreeting returns the currently stored greeting.
func GetGreeting(ctx core.Context) (string, error) {
	obj, err := ctx.GetObject(core.ZeroObjectID)
	if err != nil {
		return "", err
	}

	var greeting string
	if err := obj.Get(greetingField, &greeting); err != nil {
		return "", err
	}
	return greeting, nil
}

// SetGreeting replaces the stored greeting. Empty greetings are rejected;
// any sender may update the value.
func SetGreeting(ctx core.Context, greeting string) error {
	if len(greeting) == 0 {
		return core.NewValidationError("Greeting cannot be empty")
	}

	obj, err := ctx.GetObject(core.ZeroObjectID)
	if err != nil {
		return err
	}
	if err := obj.Set(greetingField, greeting); err != nil {
		return err
	}

	ctx.Log("GreetingChanged", "greeting", greeting, "sender", ctx.Sender())
	return nil
}
