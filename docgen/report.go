package docgen

import (
	"log/slog"
	"slices"
)

// ViolationKind classifies a documentation-quality problem.
type ViolationKind string

const (
	// ViolationMissingNotice is a method without a @notice tag.
	ViolationMissingNotice ViolationKind = "missing-notice"
	// ViolationUnmatchedParam is a parameter whose @param tag at the same
	// position does not name it.
	ViolationUnmatchedParam ViolationKind = "unmatched-param"
	// ViolationUnmatchedReturn is the @return counterpart of
	// [ViolationUnmatchedParam].
	ViolationUnmatchedReturn ViolationKind = "unmatched-return"
	// ViolationUndocumented is an ABI function with no declaration in the
	// parsed source, so nothing can be rendered for it.
	ViolationUndocumented ViolationKind = "undocumented"
)

// Violation is one documentation-quality problem. Violations never stop
// rendering; they only fail the run once every unit has been processed.
type Violation struct {
	Unit     string
	Function string
	Param    string
	Kind     ViolationKind
}

func (v Violation) message() string {
	switch v.Kind {
	case ViolationMissingNotice:
		return "missing natspec @notice"
	case ViolationUnmatchedParam, ViolationUnmatchedReturn:
		return "no matching natspec comment"
	case ViolationUndocumented:
		return "interface function has no documented source"
	}

	return string(v.Kind)
}

// Report accumulates [Violation]s across a run. It has no reset: each run
// starts from a fresh [NewReport].
//
// [Report.Scope] returns a view that stamps violations with a unit name
// while sharing the same underlying list.
type Report struct {
	logger     *slog.Logger
	violations *[]Violation
	unit       string
}

// NewReport creates an empty [Report] that logs every violation at warn
// level to logger. A nil logger discards the messages.
func NewReport(logger *slog.Logger) *Report {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Report{logger: logger, violations: new([]Violation)}
}

// Scope returns a view of r for the named unit.
func (r *Report) Scope(unit string) *Report {
	return &Report{
		logger:     r.logger.With(slog.String("unit", unit)),
		violations: r.violations,
		unit:       unit,
	}
}

// Add records a violation for function and, when not empty, param.
func (r *Report) Add(kind ViolationKind, function, param string) {
	v := Violation{Unit: r.unit, Function: function, Param: param, Kind: kind}
	*r.violations = append(*r.violations, v)

	attrs := []any{slog.String("kind", string(kind)), slog.String("function", function)}
	if param != "" {
		attrs = append(attrs, slog.String("param", param))
	}

	r.logger.Warn(v.message(), attrs...)
}

// Violations returns a copy of every recorded violation, in order.
func (r *Report) Violations() []Violation {
	return slices.Clone(*r.violations)
}

// Failed reports whether any violation has been recorded.
func (r *Report) Failed() bool {
	return len(*r.violations) > 0
}
