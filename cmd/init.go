package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/conneroisu/templink/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default .templink.yml configuration file",
	RunE:  runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	if err := config.WriteDefault(".templink.yml"); err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), "wrote .templink.yml")

	return nil
}
