package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/raysh454/trimetric/internal/editor"
	"github.com/raysh454/trimetric/internal/model"
	"github.com/raysh454/trimetric/internal/schema"
)

func newScoreCommand(rt *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "score",
		Short: "View and edit a firm's evaluation",
	}
	cmd.AddCommand(
		newScoreShowCommand(rt),
		newScoreSetCommand(rt),
		newScoreHistoryCommand(rt),
		newScoreCheckCommand(rt),
		newScorePTICommand(rt),
	)
	return cmd
}

func newScoreShowCommand(rt *env) *cobra.Command {
	return &cobra.Command{
		Use:   "show <firm>",
		Short: "Show every factor with category, pillar and firm totals",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := rt.service(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = svc.Close() }()

			b, err := svc.Summary(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return rt.printer().breakdown(b)
		},
	}
}

func newScoreSetCommand(rt *env) *cobra.Command {
	return &cobra.Command{
		Use:   "set <firm> <pillar/category/factor> <value>",
		Short: "Commit one factor score",
		Long: `Commit one factor score through the factor editor.

The value must be a number between 0 and the factor's maximum; anything else is
rejected before a request is made.`,
		Example: "  trimetric score set acme credibility/physical_legal_presence/registered_company 1",
		Args:    cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, err := parseRef(args[1])
			if err != nil {
				return err
			}
			svc, err := rt.service(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = svc.Close() }()

			sch := schema.Default()
			view := editor.NewView(args[0], sch, svc, rt.logger)
			if err := view.Load(cmd.Context()); err != nil {
				return err
			}
			if err := view.Begin(ref); err != nil {
				return err
			}
			if err := view.SetBuffer(args[2]); err != nil {
				return err
			}
			doc, err := view.Commit(cmd.Context())
			if err != nil {
				return err
			}
			return rt.printer().committed(sch, ref, doc)
		},
	}
}

func newScoreHistoryCommand(rt *env) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history <firm>",
		Short: "List committed factor changes, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := rt.service(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = svc.Close() }()

			events, err := svc.History(cmd.Context(), args[0], limit)
			if err != nil {
				return err
			}
			return rt.printer().history(events)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of events")
	return cmd
}

func newScoreCheckCommand(rt *env) *cobra.Command {
	return &cobra.Command{
		Use:   "check <firm>",
		Short: "Report stored values the schema does not allow",
		Long: `Report stored values the schema does not allow: missing factors, values
outside [0, max], non-finite values and factors the schema does not know.

Nothing is changed. The command fails when any issue is found.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := rt.service(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = svc.Close() }()

			issues, err := svc.Integrity(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := rt.printer().issues(issues); err != nil {
				return err
			}
			if len(issues) > 0 {
				return fmt.Errorf("%d integrity issues found", len(issues))
			}
			return nil
		},
	}
}

func newScorePTICommand(rt *env) *cobra.Command {
	return &cobra.Command{
		Use:   "pti <firm> <value|none>",
		Short: "Set or clear the displayed PTI score",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var pti *float64
			if args[1] != "none" {
				v, err := strconv.ParseFloat(args[1], 64)
				if err != nil {
					return fmt.Errorf("invalid PTI score %q", args[1])
				}
				pti = &v
			}
			svc, err := rt.service(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = svc.Close() }()

			doc, err := svc.SetPTIScore(cmd.Context(), args[0], pti)
			if err != nil {
				return err
			}
			p := rt.printer()
			if p.format == jsonOut {
				return p.json(doc)
			}
			return p.linef("%s PTI score: %s", doc.FirmName, optional(doc.PTIScore))
		},
	}
}

// parseRef splits "pillar/category/factor".
func parseRef(s string) (model.FactorRef, error) {
	parts := strings.Split(s, "/")
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return model.FactorRef{}, fmt.Errorf("factor must be pillar/category/factor, got %q", s)
	}
	return model.FactorRef{PillarID: parts[0], CategoryID: parts[1], FactorKey: parts[2]}, nil
}
