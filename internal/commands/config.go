package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"rupeetrack/internal/cli"
)

func newConfigCommand(envFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the validated effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cli.LoadEnvFile(*envFile); err != nil {
				return err
			}
			cfg, err := cli.LoadAndValidateConfig()
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), cfg.String())
			return err
		},
	}
}
