// Package cli is the trimetric command tree.
package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/raysh454/trimetric/internal/app"
	"github.com/raysh454/trimetric/internal/logging"
)

// All linker flags will be set at build time.
var (
	version = "dev"
	commit  = "none"
)

// env is what every command gets after configuration is resolved.
type env struct {
	out    io.Writer
	errOut io.Writer
	v      *viper.Viper

	configFile string
	cfg        *app.Config
	logger     logging.Logger
}

// NewRootCommand builds the command tree writing results to out and
// diagnostics to errOut.
func NewRootCommand(out, errOut io.Writer) *cobra.Command {
	rt := &env{out: out, errOut: errOut, v: viper.New()}
	d := app.DefaultConfig()

	root := &cobra.Command{
		Use:   "trimetric",
		Short: "Score prop-trading firms against the TriMetric trust model.",
		Long: `TriMetric rates prop-trading firms on three pillars. Each pillar holds
categories of factors, each factor scored between 0 and its maximum.

Commands run against the local database unless --server points at a running API.`,
		Version:            fmt.Sprintf("%s (%s)", version, commit),
		SilenceErrors:      true,
		SilenceUsage:       true,
		DisableSuggestions: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return rt.setup(cmd)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			rt.flush()
		},
		Run: func(cmd *cobra.Command, _ []string) {
			_ = cmd.Help()
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)

	pf := root.PersistentFlags()
	pf.StringVar(&rt.configFile, "config", "", "config file (default .trimetric.yaml in . or $HOME)")
	pf.String("server", d.Server, "base URL of a running trimetric API; empty uses the local database")
	pf.Duration("timeout", d.Timeout, "request timeout against --server")
	pf.StringP("output", "o", d.Output, "output format: table or json (default depends on terminal)")
	pf.String("db-backend", d.DBBackend, "database backend: sqlite, postgres or mysql")
	pf.String("db-dsn", d.DBDSN, "sqlite path or database connection string")
	pf.Uint64("ping-retries", d.PingRetries, "connection attempts while waiting for the database")
	pf.String("log-level", d.LogLevel, "log level: debug, info, warn or error")
	pf.String("log-backend", d.LogBackend, "log backend: zap or stdout")
	_ = rt.v.BindPFlags(pf)

	root.AddCommand(
		newServeCommand(rt),
		newMigrateCommand(rt),
		newSchemaCommand(rt),
		newFirmCommand(rt),
		newScoreCommand(rt),
	)
	return root
}

// setup resolves configuration and the logger. serve logs to stdout; every
// other command keeps stdout for results.
func (rt *env) setup(cmd *cobra.Command) error {
	cfg, err := app.LoadConfig(rt.v, rt.configFile)
	if err != nil {
		return err
	}
	rt.cfg = cfg

	output := "stderr"
	if cmd.Name() == "serve" {
		output = "stdout"
	}
	logger, err := logging.NewWithOutput(cfg.LogBackend, cfg.LogLevel, "trimetric", output)
	if err != nil {
		return err
	}
	rt.logger = logger
	return nil
}

func (rt *env) printer() *printer {
	return newPrinter(rt.out, rt.cfg.Output)
}

func (rt *env) flush() {
	if s, ok := rt.logger.(interface{ Sync() error }); ok {
		_ = s.Sync()
	}
}
