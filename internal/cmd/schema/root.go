package schema

import (
	"github.com/spf13/cobra"
)

func NewCommand() *cobra.Command {
	var cmd = &cobra.Command{
		Use:   "schema",
		Short: "Utilities to assist with choosing output columns",
	}

	cmd.AddCommand(newGenerateCommand())

	return cmd
}
