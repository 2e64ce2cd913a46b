package cli

import (
	"github.com/spf13/cobra"

	"github.com/raysh454/trimetric/internal/store"
)

func newMigrateCommand(rt *env) *cobra.Command {
	var target int
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back database migrations",
		Long: `Move the database schema to a migration version.

By default every pending migration is applied. --target-version 0 rolls
everything back; a positive value migrates up or down to exactly that version.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			storeCfg, err := rt.cfg.StoreConfig()
			if err != nil {
				return err
			}
			db, err := store.Connect(cmd.Context(), storeCfg, rt.logger)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			if err := store.Migrate(cmd.Context(), db, storeCfg.Backend, target, rt.logger); err != nil {
				return err
			}
			version, dirty, err := store.MigrationVersion(db, storeCfg.Backend)
			if err != nil {
				return err
			}
			p := rt.printer()
			if p.format == jsonOut {
				return p.json(map[string]any{"backend": storeCfg.Backend, "version": version, "dirty": dirty})
			}
			return p.linef("%s database at migration version %d", storeCfg.Backend, version)
		},
	}
	cmd.Flags().IntVar(&target, "target-version", -1, "migration version to reach (-1 for latest)")
	return cmd
}
