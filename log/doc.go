// Package log builds the [log/slog] handlers used by natspecdoc.
//
// Three formats are supported: [FormatJSON] and [FormatLogfmt] use the
// standard library handlers, [FormatText] uses a charm.land/log handler
// for interactive terminals. [Config] wires the level and format to CLI
// flags via [github.com/spf13/pflag], with shell completion support via
// [github.com/spf13/cobra]:
//
//	cfg := log.NewConfig()
//	cfg.RegisterFlags(rootCmd.PersistentFlags())
//	cfg.RegisterCompletions(rootCmd)
//
//	handler, err := cfg.NewHandler(os.Stderr)
//	slog.SetDefault(slog.New(handler))
package log
