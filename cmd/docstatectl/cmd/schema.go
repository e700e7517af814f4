package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (a *app) newSchemaCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Create the documents table and its indexes if they do not exist",
		Args:  cobra.NoArgs,
		RunE: a.runE(func(cmd *cobra.Command, _ []string) error {
			if err := a.handle.EnsureSchema(cmd.Context()); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "schema ready")

			return nil
		}),
	}
}
