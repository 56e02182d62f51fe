package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kyodo/backend/internal/common/config"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var envFile string

	rootCmd := &cobra.Command{
		Use:           "kyodo",
		Short:         "Group membership service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file read before KYODO_* variables are resolved")

	load := func() (config.Config, error) {
		return config.Load(envFile)
	}

	rootCmd.AddCommand(newServeCmd(load), newMigrateCmd(load))
	return rootCmd
}
