// Command tabload loads rows into an existing table after checking them
// against the table's own schema.
//
//	tabload schema <database> <table>          show columns and their categories
//	tabload load   <database> <table> <file>   load a CSV, TSV or JSON file
//	tabload manual <database> <table>          enter rows one field at a time
//	tabload serve                              run the HTTP API
//
// Settings come from the environment (and a .env file); see internal/config.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/tabload/internal/audit"
	"github.com/JonMunkholm/tabload/internal/config"
	"github.com/JonMunkholm/tabload/internal/core"
	"github.com/JonMunkholm/tabload/internal/database"
	"github.com/JonMunkholm/tabload/internal/logging"
	"github.com/JonMunkholm/tabload/internal/metrics"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// run executes the command line and returns the process exit code.
func run(args []string, in io.Reader, out, errOut io.Writer) int {
	root := newRootCmd(in, out, errOut)
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		printError(errOut, err)
		return 1
	}
	return 0
}

// printError shows the mapped operator message when there is one, followed
// by the technical error.
func printError(w io.Writer, err error) {
	if !core.IsUserFacing(err) {
		fmt.Fprintf(w, "error: %v\n", err)
		return
	}
	ue := core.NewUserError(err)
	fmt.Fprintf(w, "error: %s (%s)\n  %s\n  %v\n", ue.User.Message, ue.User.Code, ue.User.Action, ue.Technical)
}

// app carries what every subcommand needs once configuration is loaded.
type app struct {
	in     io.Reader
	out    io.Writer
	errOut io.Writer

	envFile   string
	driver    string
	dsn       string
	reportDir string
	logLevel  string

	cfg *config.Config
	log *slog.Logger
}

func newRootCmd(in io.Reader, out, errOut io.Writer) *cobra.Command {
	a := &app{in: in, out: out, errOut: errOut}

	root := &cobra.Command{
		Use:           "tabload",
		Short:         "Schema-checked row loader for SQL Server, PostgreSQL, MySQL and SQLite",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(errOut)

	pf := root.PersistentFlags()
	pf.StringVar(&a.envFile, "env-file", ".env", "dotenv file to load before reading the environment")
	pf.StringVar(&a.driver, "driver", "", "database driver: sqlserver, postgres, mysql or sqlite (overrides DB_DRIVER)")
	pf.StringVar(&a.dsn, "dsn", "", "connection string (overrides DATABASE_URL)")
	pf.StringVar(&a.reportDir, "report-dir", "", "directory for run artifacts (overrides REPORT_DIR)")
	pf.StringVar(&a.logLevel, "log-level", "", "debug, info, warn or error (overrides LOG_LEVEL)")

	root.AddCommand(
		newSchemaCmd(a),
		newLoadCmd(a),
		newManualCmd(a),
		newServeCmd(a),
	)
	return root
}

// setup applies flag overrides, loads configuration and configures logging.
func (a *app) setup(cmd *cobra.Command) error {
	if err := config.LoadEnvFiles(a.envFile); err != nil {
		return err
	}

	overrides := map[string]string{
		"driver":     "DB_DRIVER",
		"dsn":        "DATABASE_URL",
		"report-dir": "REPORT_DIR",
		"log-level":  "LOG_LEVEL",
	}
	for flag, env := range overrides {
		if f := cmd.Flags().Lookup(flag); f != nil && f.Changed {
			if err := os.Setenv(env, f.Value.String()); err != nil {
				return err
			}
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	a.cfg = cfg

	// The server logs to stdout; CLI runs keep stdout for the operator.
	logOut := a.errOut
	if cmd.Name() == "serve" {
		logOut = a.out
	}
	a.log = logging.Setup(logOut, cfg.Logging.Level, cfg.Logging.Format)
	a.log.Debug("configuration loaded", "config", cfg.String())
	return nil
}

func (a *app) open(ctx context.Context) (core.Conn, error) {
	return database.Open(ctx, database.Options{
		Driver:         a.cfg.Database.Driver,
		DSN:            a.cfg.Database.URL,
		ConnectTimeout: a.cfg.Database.ConnectTimeout,
		Logger:         a.log,
	})
}

func (a *app) ingestOptions(obs core.OutcomeObserver) core.Options {
	return core.Options{
		ManagedColumn: a.cfg.Ingest.ManagedColumn,
		ManagedOrigin: a.cfg.Ingest.ManagedOrigin,
		Logger:        a.log,
		Observer:      obs,
	}
}

// newRunMetrics returns a registry for one CLI run.
func (a *app) newRunMetrics() *metrics.Metrics {
	m, err := metrics.New(false)
	if err != nil {
		a.log.Warn("metrics disabled", "error", err)
		return nil
	}
	return m
}

// pushMetrics sends run metrics to the Pushgateway when one is configured.
func (a *app) pushMetrics(ctx context.Context, m *metrics.Metrics) {
	if m == nil || a.cfg.Metrics.PushgatewayURL == "" {
		return
	}
	if err := m.Push(ctx, a.cfg.Metrics.PushgatewayURL, a.cfg.Metrics.Job); err != nil {
		a.log.Warn("metrics push failed", "error", err)
	}
}

// finishRun writes the run artifacts and prints the summary.
func (a *app) finishRun(rep *core.BatchReport) error {
	arts, err := audit.NewWriter(a.cfg.Ingest.ReportDir).Write(rep)
	fmt.Fprintln(a.out)
	fmt.Fprint(a.out, audit.Summary(rep))
	for _, p := range arts.Paths() {
		fmt.Fprintf(a.out, "  wrote %s\n", p)
	}
	return err
}
