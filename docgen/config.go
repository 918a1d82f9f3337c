package docgen

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"go.jacobcolvin.com/natspecdoc/natspec"
)

// Flags holds CLI flag names for documentation generation, allowing callers
// to customize flag names while keeping sensible defaults.
type Flags struct {
	Manifest  string
	Check     string
	Directive string
	Flatten   string
	Parse     string
}

// Config holds CLI flag values for documentation generation.
//
// Create instances with [NewConfig] and register CLI flags with
// [Config.RegisterFlags]. Use [Config.NewGenerator] to create a [Generator].
type Config struct {
	Flags      Flags
	Manifest   string
	Directives []string
	Flatten    []string
	Parse      []string
	Check      bool
}

// NewConfig returns a new [Config] with default flag names.
func NewConfig() *Config {
	f := Flags{
		Manifest:  "manifest",
		Check:     "check",
		Directive: "directive",
		Flatten:   "flatten",
		Parse:     "parse",
	}

	return &Config{Flags: f}
}

// RegisterFlags adds documentation generation flags to the given
// [*pflag.FlagSet].
func (c *Config) RegisterFlags(flags *pflag.FlagSet) {
	flags.StringVarP(&c.Manifest, c.Flags.Manifest, "m", DefaultManifest,
		"manifest file listing the units to document")
	flags.BoolVar(&c.Check, c.Flags.Check, false,
		"fail if any output is out of date instead of writing it")
	flags.StringSliceVar(&c.Directives, c.Flags.Directive, nil,
		"tooling directive skipped above @notice lines (repeatable, overrides the manifest)")
	flags.StringArrayVar(&c.Flatten, c.Flags.Flatten, nil,
		"flatten command, one argument per flag, {contract} is replaced by the unit contract (overrides the manifest)")
	flags.StringArrayVar(&c.Parse, c.Flags.Parse, nil,
		"parse command, one argument per flag, {source} is replaced by a file holding the flattened source (overrides the manifest)")
}

// RegisterCompletions registers shell completions for documentation
// generation flags on cmd.
func (c *Config) RegisterCompletions(cmd *cobra.Command) error {
	err := cmd.RegisterFlagCompletionFunc(c.Flags.Manifest,
		cobra.FixedCompletions([]string{"yaml", "yml"}, cobra.ShellCompDirectiveFilterFileExt))
	if err != nil {
		return fmt.Errorf("registering %s completion: %w", c.Flags.Manifest, err)
	}

	noFileComp := func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	for _, flag := range []string{c.Flags.Directive, c.Flags.Flatten, c.Flags.Parse} {
		regErr := cmd.RegisterFlagCompletionFunc(flag, noFileComp)
		if regErr != nil {
			return fmt.Errorf("registering %s completion: %w", flag, regErr)
		}
	}

	return nil
}

// NewGenerator creates a [Generator] for the units of m. Flag values take
// precedence over the manifest; extra options are applied last.
func (c *Config) NewGenerator(m *Manifest, logger *slog.Logger, extra ...Option) *Generator {
	opts := []Option{
		WithCheck(c.Check),
		WithWorkDir(m.Dir),
	}

	if logger != nil {
		opts = append(opts, WithLogger(logger))
	}

	directives := m.Directives
	if len(c.Directives) > 0 {
		directives = c.Directives
	}

	if len(directives) > 0 {
		opts = append(opts, WithScanner(natspec.NewScanner(natspec.WithDirectives(directives...))))
	}

	flatten := m.Flatten
	if len(c.Flatten) > 0 {
		flatten = c.Flatten
	}

	if len(flatten) > 0 {
		opts = append(opts, WithFlattenCommand(flatten...))
	}

	parse := m.Parse
	if len(c.Parse) > 0 {
		parse = c.Parse
	}

	if len(parse) > 0 {
		opts = append(opts, WithParseCommand(parse...))
	}

	return NewGenerator(append(opts, extra...)...)
}
