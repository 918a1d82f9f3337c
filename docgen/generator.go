package docgen

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"go.jacobcolvin.com/natspecdoc/abi"
	"go.jacobcolvin.com/natspecdoc/natspec"
	"go.jacobcolvin.com/natspecdoc/solast"
)

// Sentinel errors returned by the generator.
var (
	ErrReadInput   = errors.New("read input")
	ErrWriteOutput = errors.New("write output")
	ErrInvalidUnit = errors.New("invalid unit")
	ErrCommand     = errors.New("external command")
	ErrViolations  = errors.New("documentation violations")
	ErrStale       = errors.New("documentation out of date")
)

// Placeholders substituted in external command arguments.
const (
	PlaceholderContract = "{contract}"
	PlaceholderSource   = "{source}"
)

// Unit is one interface to document: a contract, its compiled artifact, a
// Markdown template and the output path.
type Unit struct {
	Name     string `json:"name"               yaml:"name"               jsonschema:"unit name used in logs"`
	Contract string `json:"contract,omitempty" yaml:"contract,omitempty" jsonschema:"contract path handed to the flatten command"`
	Source   string `json:"source,omitempty"   yaml:"source,omitempty"   jsonschema:"already flattened source file"`
	AST      string `json:"ast,omitempty"      yaml:"ast,omitempty"      jsonschema:"syntax tree JSON of the flattened source"`
	Artifact string `json:"artifact"           yaml:"artifact"           jsonschema:"compiler artifact or bare ABI JSON"`
	Template string `json:"template"           yaml:"template"           jsonschema:"Markdown printed before the methods"`
	Output   string `json:"output"             yaml:"output"             jsonschema:"generated Markdown file"`
}

// Result describes one generated document.
type Result struct {
	Unit     string
	Output   string
	Document string
	Methods  int
	// Stale is set in check mode when Output differs from Document.
	Stale bool
}

// Runner executes an external command and returns its standard output.
type Runner interface {
	Run(ctx context.Context, dir string, args []string, stdin []byte) ([]byte, error)
}

// ExecRunner runs commands with [os/exec].
type ExecRunner struct{}

// Run implements [Runner].
func (ExecRunner) Run(ctx context.Context, dir string, args []string, stdin []byte) ([]byte, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("%w: empty command", ErrCommand)
	}

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Dir = dir
	cmd.Stdin = bytes.NewReader(stdin)

	var stdout, stderr bytes.Buffer

	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return nil, fmt.Errorf("%w: %s: %w", ErrCommand, args[0], err)
		}

		return nil, fmt.Errorf("%w: %s: %w: %s", ErrCommand, args[0], err, msg)
	}

	return stdout.Bytes(), nil
}

// Generator renders interface documentation for [Unit]s.
type Generator struct {
	scanner *natspec.Scanner
	runner  Runner
	logger  *slog.Logger
	dir     string
	flatten []string
	parse   []string
	check   bool
}

// Option configures a [Generator].
type Option func(*Generator)

// WithScanner sets the comment scanner.
func WithScanner(s *natspec.Scanner) Option {
	return func(g *Generator) {
		g.scanner = s
	}
}

// WithRunner sets the runner used for the flatten and parse commands.
func WithRunner(r Runner) Option {
	return func(g *Generator) {
		g.runner = r
	}
}

// WithLogger sets the logger for progress messages.
func WithLogger(l *slog.Logger) Option {
	return func(g *Generator) {
		g.logger = l
	}
}

// WithWorkDir sets the directory external commands run in.
func WithWorkDir(dir string) Option {
	return func(g *Generator) {
		g.dir = dir
	}
}

// WithFlattenCommand sets the command printing the flattened source of a
// unit's contract. Arguments may contain [PlaceholderContract].
func WithFlattenCommand(args ...string) Option {
	return func(g *Generator) {
		g.flatten = args
	}
}

// WithParseCommand sets the command printing the syntax tree JSON of a
// flattened source. The source is written to its standard input, and
// [PlaceholderSource] expands to a temporary file holding it.
func WithParseCommand(args ...string) Option {
	return func(g *Generator) {
		g.parse = args
	}
}

// WithCheck makes the generator compare against existing outputs instead
// of writing them.
func WithCheck(check bool) Option {
	return func(g *Generator) {
		g.check = check
	}
}

// NewGenerator creates a [Generator] with the given options.
func NewGenerator(opts ...Option) *Generator {
	g := &Generator{
		scanner: natspec.NewScanner(),
		runner:  ExecRunner{},
		logger:  slog.New(slog.DiscardHandler),
	}

	for _, opt := range opts {
		opt(g)
	}

	return g
}

// Run generates every unit in order. Documentation violations accumulate
// in report; any other error stops the run immediately.
func (g *Generator) Run(ctx context.Context, units []Unit, report *Report) ([]Result, error) {
	results := make([]Result, 0, len(units))

	for _, u := range units {
		res, err := g.Generate(ctx, u, report)
		if err != nil {
			return results, fmt.Errorf("unit %s: %w", u.Name, err)
		}

		results = append(results, *res)
	}

	return results, nil
}

// Generate renders a single unit and writes (or, in check mode, compares)
// its output.
func (g *Generator) Generate(ctx context.Context, u Unit, report *Report) (*Result, error) {
	logger := g.logger.With(slog.String("unit", u.Name))
	logger.Info("generating documentation")

	src, err := g.source(ctx, u)
	if err != nil {
		return nil, err
	}

	tree, err := g.tree(ctx, u, src)
	if err != nil {
		return nil, err
	}

	artifact, err := readFile(u.Artifact)
	if err != nil {
		return nil, err
	}

	iface, err := abi.Parse(artifact)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", u.Artifact, err)
	}

	template, err := readFile(u.Template)
	if err != nil {
		return nil, err
	}

	fns, err := tree.Functions()
	if err != nil {
		return nil, err
	}

	entries, err := iface.Signatures()
	if err != nil {
		return nil, err
	}

	scoped := report.Scope(u.Name)
	cands := Candidates(g.scanner, SplitLines(string(src)), fns)

	methods, err := Match(entries, cands, scoped)
	if err != nil {
		return nil, err
	}

	section, err := Render(methods, scoped)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Unit:     u.Name,
		Output:   u.Output,
		Document: Document(string(template), section),
		Methods:  len(methods),
	}

	logger.Debug("matched interface",
		slog.Any("contracts", tree.Contracts()),
		slog.Int("candidates", len(cands)),
		slog.Int("entries", len(entries)),
		slog.Int("methods", len(methods)),
	)

	if g.check {
		res.Stale, err = isStale(res.Output, res.Document)
		if err != nil {
			return nil, err
		}

		if res.Stale {
			logger.Warn("documentation out of date", slog.String("output", res.Output))
		}

		return res, nil
	}

	err = writeFile(res.Output, res.Document)
	if err != nil {
		return nil, err
	}

	return res, nil
}

// source returns the flattened source text of u: the source file when one
// is given, otherwise the output of the flatten command.
func (g *Generator) source(ctx context.Context, u Unit) ([]byte, error) {
	if u.Source != "" {
		return readFile(u.Source)
	}

	if len(g.flatten) == 0 || u.Contract == "" {
		return nil, fmt.Errorf("%w: %s needs a source file or a contract and a flatten command", ErrInvalidUnit, u.Name)
	}

	args := expand(g.flatten, map[string]string{PlaceholderContract: u.Contract})

	return g.runner.Run(ctx, g.dir, args, nil)
}

// tree returns the parsed syntax tree of src: the AST file when one is
// given, otherwise the output of the parse command.
func (g *Generator) tree(ctx context.Context, u Unit, src []byte) (*solast.Tree, error) {
	var (
		data []byte
		err  error
	)

	switch {
	case u.AST != "":
		data, err = readFile(u.AST)
	case len(g.parse) > 0:
		data, err = g.runParse(ctx, src)
	default:
		return nil, fmt.Errorf("%w: %s needs an ast file or a parse command", ErrInvalidUnit, u.Name)
	}

	if err != nil {
		return nil, err
	}

	tree, err := solast.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", u.Name, err)
	}

	return tree, nil
}

func (g *Generator) runParse(ctx context.Context, src []byte) ([]byte, error) {
	f, err := os.CreateTemp("", "natspecdoc-*.sol")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCommand, err)
	}

	defer os.Remove(f.Name())

	_, err = f.Write(src)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}

	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCommand, err)
	}

	args := expand(g.parse, map[string]string{PlaceholderSource: f.Name()})

	return g.runner.Run(ctx, g.dir, args, src)
}

func expand(args []string, values map[string]string) []string {
	out := make([]string, len(args))

	for i, arg := range args {
		for k, v := range values {
			arg = strings.ReplaceAll(arg, k, v)
		}

		out[i] = arg
	}

	return out
}

// SplitLines splits source text into lines, dropping carriage returns.
func SplitLines(src string) []string {
	lines := strings.Split(src, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}

	return lines
}

func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReadInput, err)
	}

	return data, nil
}

func writeFile(path, content string) error {
	err := os.MkdirAll(filepath.Dir(path), 0o755)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWriteOutput, err)
	}

	err = os.WriteFile(path, []byte(content), 0o644)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWriteOutput, err)
	}

	return nil
}

func isStale(path, content string) (bool, error) {
	existing, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return true, nil
	}

	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrReadInput, err)
	}

	return string(existing) != content, nil
}
