package cli

import (
	"github.com/spf13/cobra"

	"github.com/raysh454/trimetric/internal/model"
)

func newFirmCommand(rt *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "firm",
		Short: "Onboard and list firms",
	}
	cmd.AddCommand(newFirmCreateCommand(rt), newFirmListCommand(rt))
	return cmd
}

func newFirmCreateCommand(rt *env) *cobra.Command {
	var (
		in  model.NewFirm
		pti float64
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a firm with an all-zero evaluation",
		Example: `  trimetric firm create --name "Acme Funding"
  trimetric firm create --name "Acme Funding" --slug acme --pti 72.5`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("pti") {
				in.PTIScore = &pti
			}
			svc, err := rt.service(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = svc.Close() }()

			firm, err := svc.CreateFirm(cmd.Context(), in)
			if err != nil {
				return err
			}
			return rt.printer().firm(firm)
		},
	}
	cmd.Flags().StringVar(&in.Name, "name", "", "display name")
	cmd.Flags().StringVar(&in.Slug, "slug", "", "url identifier (derived from the name when empty)")
	cmd.Flags().Float64Var(&pti, "pti", 0, "PTI score shown next to the evaluation")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newFirmListCommand(rt *env) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List firms",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := rt.service(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = svc.Close() }()

			firms, err := svc.ListFirms(cmd.Context())
			if err != nil {
				return err
			}
			return rt.printer().firms(firms)
		},
	}
}
