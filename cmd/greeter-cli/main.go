package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	// Register the deployable contract types and chain contexts.
	_ "github.com/govm-net/greeter/context/db"
	_ "github.com/govm-net/greeter/context/memory"
	_ "github.com/govm-net/greeter/contracts/helloworld"
)

var rootCmd = &cobra.Command{
	Use:   "greeter-cli",
	Short: "Greeting contract scaffold command line tool",
	Long: `Command line tool for deploying and calling the HelloWorld greeting
contract on a local chain environment.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(deployCmd)
	rootCmd.AddCommand(callCmd)
	rootCmd.AddCommand(deploymentsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
