package cmd

import (
	"github.com/spf13/cobra"

	"github.com/testcentral/outpost/internal/config"
)

const envPrefix = "OUTPOST"

func NewRootCommand() *cobra.Command {
	cfg := config.NewConfigurationWithOptionsAndDefaults()

	root := &cobra.Command{
		Use:           "outpost",
		Short:         "Test Central outpost: runs test suites on request",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(NewRunCommand(cfg))
	root.AddCommand(NewLoginCommand(cfg))

	return root
}
