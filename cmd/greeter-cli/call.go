package main

import (
	"fmt"

	"github.com/spf13/cobra"

	chainctx "github.com/govm-net/greeter/context"
	"github.com/govm-net/greeter/core"
	"github.com/govm-net/greeter/vm"
)

var (
	callContext  string
	callDBPath   string
	callRepoDir  string
	callContract string
	callFunction string
	callArgs     string
	callSender   string
)

var callCmd = &cobra.Command{
	Use:   "call",
	Short: "Call a function on a deployed contract",
	Long: `Call a function on a contract deployed to the local chain environment.
Example: greeter-cli call -c <address> -f getGreeting --db ./chain.db`,
	RunE: func(cmd *cobra.Command, args []string) error {
		contract, err := core.AddressFromString(callContract)
		if err != nil {
			return fmt.Errorf("invalid contract address %q: %w", callContract, err)
		}
		sender, err := core.AddressFromString(callSender)
		if err != nil {
			return fmt.Errorf("invalid sender address %q: %w", callSender, err)
		}

		engine, err := vm.NewEngine(&vm.Config{
			ContextType:   chainctx.ContextType(callContext),
			ContextParams: map[string]any{"db_path": callDBPath},
			RepoDir:       callRepoDir,
		})
		if err != nil {
			return fmt.Errorf("failed to create engine: %w", err)
		}
		defer engine.Close()

		if err := engine.Restore(cmd.Context()); err != nil {
			return fmt.Errorf("failed to restore deployments: %w", err)
		}

		var params []byte
		if callArgs != "" {
			params = []byte(callArgs)
		}

		result, err := engine.Execute(cmd.Context(), contract, sender, callFunction, params)
		if err != nil {
			return fmt.Errorf("failed to execute contract: %w", err)
		}
		if len(result) > 0 {
			fmt.Printf("%s\n", result)
		}
		return nil
	},
}

func init() {
	callCmd.Flags().StringVar(&callContext, "context", "db", "Blockchain context type (memory or db)")
	callCmd.Flags().StringVar(&callDBPath, "db", "./chain.db", "Database file for the db context")
	callCmd.Flags().StringVar(&callRepoDir, "repo", "./deployments", "Deployment artifact directory")
	callCmd.Flags().StringVarP(&callContract, "contract", "c", "", "Contract address (required)")
	callCmd.Flags().StringVarP(&callFunction, "function", "f", "", "Function name (required)")
	callCmd.Flags().StringVarP(&callArgs, "args", "a", "", "JSON-encoded function parameters")
	callCmd.Flags().StringVarP(&callSender, "sender", "s", defaultDeployer, "Sender address (hex)")
	callCmd.MarkFlagRequired("contract")
	callCmd.MarkFlagRequired("function")
}
