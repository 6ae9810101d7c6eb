package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

const ToolName = "pgstayctl"

func main() {
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:           ToolName,
		Short:         "Operator tooling for the PG stay service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		MigrateCmd(),
		TokenCmd(),
		BillsCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
