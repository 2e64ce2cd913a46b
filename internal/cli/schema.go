package cli

import (
	"github.com/spf13/cobra"

	"github.com/raysh454/trimetric/internal/schema"
)

func newSchemaCommand(rt *env) *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Show the scoring schema",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			return rt.printer().schema(schema.Default())
		},
	}
}
