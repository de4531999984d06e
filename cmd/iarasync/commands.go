package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"iara.com/iarasync/config"
	"iara.com/iarasync/core"
	iara "iara.com/iarasync/iara/core"
	"iara.com/iarasync/logging"
)

type app struct {
	configFile string
	config     *config.Config
}

func newApp() *app {
	return &app{}
}

func (a *app) Execute(ctx context.Context, args []string) error {
	root := a.rootCommand()
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

func (a *app) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:     "iarasync",
		Short:   "Reconcile the origin schema into the target schema",
		Version: fmt.Sprintf("%s (%s)", version, commit),
		Long: `iarasync reads every origin entity in full, transforms it and upserts it
into the target store, one transaction per entity stage.

Connection parameters come from the environment (DB_HOST, DB_PORT, DB_USER,
DB_PASSWORD) or from the SSM parameter "databases".`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "config file (default is ./iarasync.yaml)")
	flags.String("source", "", "logical name of the origin store")
	flags.String("target", "", "logical name of the target store")
	flags.String("provider", "", "credential provider: env, ssm")
	flags.String("dialect", "", "store dialect: postgres, mysql")
	flags.String("log-level", "", "log level: trace, debug, info, warn, error")
	flags.String("log-format", "", "log format: auto, json, console")

	root.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		return a.setup(cmd)
	}

	root.AddCommand(a.syncCommand(), a.checkCommand(), a.versionCommand())
	return root
}

// setup binds every flag to its config key and configures logging.
func (a *app) setup(cmd *cobra.Command) error {
	v, err := config.NewViper(a.configFile)
	if err != nil {
		return err
	}

	bind := func(fs *pflag.FlagSet, names ...string) error {
		for _, name := range names {
			if f := fs.Lookup(name); f != nil {
				if err := v.BindPFlag(strings.ReplaceAll(name, "-", "_"), f); err != nil {
					return err
				}
			}
		}
		return nil
	}
	if err := bind(cmd.Flags(), "source", "target", "provider", "dialect", "log-level", "log-format",
		"dry-run", "gender-ids", "audit", "pushgateway"); err != nil {
		return err
	}
	if f := cmd.Flags().Lookup("xlsx"); f != nil {
		if err := v.BindPFlag("report.xlsx", f); err != nil {
			return err
		}
	}

	cfg, err := config.FromViper(v)
	if err != nil {
		return err
	}
	a.config = cfg

	logging.Configure(&logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, Output: "stderr"})
	return nil
}

func (a *app) syncCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Run every entity stage in dependency order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			runner, err := iara.NewRunner(ctx, a.config)
			if err != nil {
				return err
			}

			report, err := runner.Run(ctx)
			return printReport(cmd.OutOrStdout(), report, err)
		},
	}

	flags := cmd.Flags()
	flags.Bool("dry-run", false, "roll every stage back instead of committing")
	flags.String("gender-ids", "", "gender id policy: fixed, enumeration")
	flags.Bool("audit", false, "record the run in iara_sync_run")
	flags.String("pushgateway", "", "push run metrics to this Prometheus pushgateway")
	flags.String("xlsx", "", "write the run workbook to this file or directory")
	return cmd
}

// reportedError is a run failure already printed in the run summary.
type reportedError struct {
	error
}

func (e reportedError) Unwrap() error { return e.error }

func printReport(w io.Writer, report *core.RunReport, err error) error {
	if report == nil {
		return err
	}
	fmt.Fprintln(w, iara.Summary(report))
	if err != nil {
		return reportedError{err}
	}
	return nil
}

// exitMessage is what main writes to stderr for err, empty when the
// summary already carried it.
func exitMessage(err error) string {
	var reported reportedError
	if errors.As(err, &reported) {
		return ""
	}
	return err.Error()
}

func (a *app) checkCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Resolve and ping both stores",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			runner, err := iara.NewRunner(cmd.Context(), a.config)
			if err != nil {
				return err
			}
			if err := runner.Check(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s and %s are reachable\n", a.config.Source, a.config.Target)
			return nil
		},
	}
}

func (a *app) versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		// no config needed
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "iarasync %s (%s)\n", version, commit)
		},
	}
}
