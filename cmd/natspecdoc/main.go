// Package main provides the CLI entry point for natspecdoc, a tool that
// renders Markdown interface references from the NatSpec comments of
// Solidity contracts.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"go.jacobcolvin.com/natspecdoc/docgen"
	"go.jacobcolvin.com/natspecdoc/log"
	"go.jacobcolvin.com/natspecdoc/version"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := newRootCmd(isTerminal(os.Stderr)).ExecuteContext(ctx)

	stop()

	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func newRootCmd(tty bool) *cobra.Command {
	cfg := docgen.NewConfig()
	logCfg := log.NewConfig()

	rootCmd := &cobra.Command{
		Use:   "natspecdoc [flags] [manifest.yaml]",
		Short: "Generate Markdown interface docs from NatSpec comments",
		Long: `natspecdoc renders the /// @notice, @dev, @param and @return comments of
externally visible Solidity functions into Markdown reference documents.

Each unit in the manifest pairs a flattened contract with its syntax tree and
compiled ABI. Functions are matched to the ABI by signature, and every
documentation problem is reported. The command exits non-zero if any were
found, after all units have been written.`,
		Version:       version.String(),
		Args:          cobra.MaximumNArgs(1),
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				cfg.Manifest = args[0]
			}

			logger, err := newLogger(cmd, logCfg, tty)
			if err != nil {
				return err
			}

			return run(cmd.Context(), cfg, logger)
		},
	}

	cfg.RegisterFlags(rootCmd.Flags())
	logCfg.RegisterFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(newSchemaCmd())

	err := cfg.RegisterCompletions(rootCmd)
	if err == nil {
		err = logCfg.RegisterCompletions(rootCmd)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "register completions: %v\n", err)
	}

	return rootCmd
}

func newSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON Schema of the manifest file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return writeSchema(cmd.OutOrStdout())
		},
	}
}

func writeSchema(w io.Writer) error {
	schema, err := docgen.ManifestSchema()
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %w", docgen.ErrWriteOutput, err)
	}

	out = append(out, '\n')

	_, err = w.Write(out)
	if err != nil {
		return fmt.Errorf("%w: %w", docgen.ErrWriteOutput, err)
	}

	return nil
}

// newLogger builds the run logger. Without an explicit --log-format, output
// that is not a terminal gets logfmt instead of the colored text format.
func newLogger(cmd *cobra.Command, cfg *log.Config, tty bool) (*slog.Logger, error) {
	format := cfg.Format

	if f := cmd.Flag(cfg.Flags.Format); f != nil && !f.Changed && !tty {
		format = string(log.FormatLogfmt)
	}

	handler, err := log.NewHandlerFromStrings(cmd.ErrOrStderr(), cfg.Level, format)
	if err != nil {
		return nil, err
	}

	return slog.New(handler).With(slog.String("run", uuid.NewString())), nil
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

func run(ctx context.Context, cfg *docgen.Config, logger *slog.Logger) error {
	m, err := docgen.LoadManifest(cfg.Manifest)
	if err != nil {
		return err
	}

	report := docgen.NewReport(logger)

	results, err := cfg.NewGenerator(m, logger).Run(ctx, m.Units, report)
	if err != nil {
		return err
	}

	var stale []string

	for _, res := range results {
		if res.Stale {
			stale = append(stale, res.Output)
		}
	}

	violations := len(report.Violations())

	logger.Info("finished",
		slog.Int("units", len(results)),
		slog.Int("violations", violations),
		slog.Int("stale", len(stale)),
	)

	var errs []error

	if report.Failed() {
		errs = append(errs, fmt.Errorf("%w: %d found", docgen.ErrViolations, violations))
	}

	if len(stale) > 0 {
		errs = append(errs, fmt.Errorf("%w: %q", docgen.ErrStale, stale))
	}

	return errors.Join(errs...)
}
