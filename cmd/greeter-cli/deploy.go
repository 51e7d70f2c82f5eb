package main

import (
	"fmt"

	"github.com/spf13/cobra"

	chainctx "github.com/govm-net/greeter/context"
	"github.com/govm-net/greeter/contracts/helloworld"
	"github.com/govm-net/greeter/core"
	"github.com/govm-net/greeter/vm"
)

var (
	contextType string
	dbPath      string
	repoDir     string
	deployer    string
)

// defaultDeployer is the sender used when --sender is not given.
const defaultDeployer = "0000000000000000000000000000000000000001"

var deployCmd = &cobra.Command{
	Use:   "deploy",
	Short: "Deploy the HelloWorld contract",
	Long: `Deploy the HelloWorld greeting contract to the local chain environment.
Example: greeter-cli deploy --db ./chain.db --repo ./deployments`,
	RunE: func(cmd *cobra.Command, args []string) error {
		sender, err := core.AddressFromString(deployer)
		if err != nil {
			return fmt.Errorf("invalid sender address %q: %w", deployer, err)
		}

		engine, err := vm.NewEngine(&vm.Config{
			ContextType:   chainctx.ContextType(contextType),
			ContextParams: map[string]any{"db_path": dbPath},
			RepoDir:       repoDir,
		})
		if err != nil {
			return fmt.Errorf("failed to create engine: %w", err)
		}
		defer engine.Close()

		address, err := engine.Deploy(cmd.Context(), helloworld.ContractName, sender, nil)
		if err != nil {
			return fmt.Errorf("failed to deploy contract: %w", err)
		}

		fmt.Printf("HelloWorld deployed to: %s\n", address)
		return nil
	},
}

func init() {
	deployCmd.Flags().StringVar(&contextType, "context", "db", "Blockchain context type (memory or db)")
	deployCmd.Flags().StringVar(&dbPath, "db", "./chain.db", "Database file for the db context")
	deployCmd.Flags().StringVar(&repoDir, "repo", "./deployments", "Deployment artifact directory")
	deployCmd.Flags().StringVar(&deployer, "sender", defaultDeployer, "Deployer address (hex)")
}
