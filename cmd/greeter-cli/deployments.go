package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/govm-net/greeter/repository"
)

var listRepoDir string

var deploymentsCmd = &cobra.Command{
	Use:   "deployments",
	Short: "List recorded deployments",
	RunE: func(cmd *cobra.Command, args []string) error {
		manager, err := repository.NewManager(listRepoDir)
		if err != nil {
			return err
		}

		list, err := manager.List()
		if err != nil {
			return err
		}
		if len(list) == 0 {
			fmt.Println("no deployments recorded")
			return nil
		}

		for _, d := range list {
			fmt.Printf("%s\t%s\t%s\t%s\n", d.Address, d.Name, d.Kind, d.DeployTime.Format("2006-01-02 15:04:05"))
		}
		return nil
	},
}

func init() {
	deploymentsCmd.Flags().StringVar(&listRepoDir, "repo", "./deployments", "Deployment artifact directory")
}
