package natspec

import (
	"slices"
	"strings"
)

// Markers recognized by the [Scanner]. Tag markers carry surrounding spaces
// so that words like "@parameter" or "foo@param" are not mistaken for tags.
const (
	Leader       = "///"
	NoticeMarker = " @notice "
	DevMarker    = " @dev "
	ParamMarker  = " @param "
	ReturnMarker = " @return "
)

// DefaultDirectives are the tooling directives skipped while searching for
// the @notice line.
var DefaultDirectives = []string{"slither-disable"}

var tagMarkers = []string{NoticeMarker, DevMarker, ParamMarker, ReturnMarker}

// Scanner recovers [Record]s from the comment block above a function.
//
// Create instances with [NewScanner].
type Scanner struct {
	directives []string
}

// Option configures a [Scanner].
type Option func(*Scanner)

// WithDirectives replaces the tooling directives that are skipped as noise.
func WithDirectives(directives ...string) Option {
	return func(s *Scanner) {
		s.directives = slices.DeleteFunc(slices.Clone(directives), func(d string) bool {
			return strings.TrimSpace(d) == ""
		})
	}
}

// NewScanner creates a [Scanner] with the given options.
func NewScanner(opts ...Option) *Scanner {
	s := &Scanner{directives: DefaultDirectives}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Scan returns the documentation for the function declared on line anchor
// (0-based) of lines. At most params @param and returns @return tags are
// collected. When no @notice line is found the zero [Record] is returned.
func (s *Scanner) Scan(lines []string, anchor, params, returns int) Record {
	var rec Record

	notice, ok := s.findNotice(lines, anchor)
	if !ok {
		return rec
	}

	rec.Notice = collect(lines, notice, NoticeMarker)

	if dev, ok := findTag(lines, notice+1, DevMarker); ok {
		rec.Dev = collect(lines, dev, DevMarker)
	}

	rec.Params = collectEntries(lines, notice+1, ParamMarker, params)
	rec.Returns = collectEntries(lines, notice+1, ReturnMarker, returns)

	return rec
}

// findNotice walks upward from the line above anchor over comment lines and
// tooling directives until it reaches a @notice line. Running off the start
// of lines, or stopping on anything else, means there is no documentation.
func (s *Scanner) findNotice(lines []string, anchor int) (int, bool) {
	i := min(anchor, len(lines)) - 1

	for ; i >= 0; i-- {
		line := lines[i]

		if IsComment(line) && strings.Contains(line, NoticeMarker) {
			return i, true
		}

		if IsComment(line) || s.isDirective(line) {
			continue
		}

		break
	}

	return -1, false
}

func (s *Scanner) isDirective(line string) bool {
	if !strings.Contains(line, "//") {
		return false
	}

	for _, d := range s.directives {
		if strings.Contains(line, d) {
			return true
		}
	}

	return false
}

// IsComment reports whether line is a NatSpec comment line.
func IsComment(line string) bool {
	return strings.Contains(line, Leader)
}

// IsContinuation reports whether line continues the text of the preceding
// tag: a comment line that does not start a tag of its own.
func IsContinuation(line string) bool {
	if !IsComment(line) {
		return false
	}

	for _, m := range tagMarkers {
		if strings.Contains(line, m) {
			return false
		}
	}

	return true
}

// findTag returns the first line at or after start carrying marker, without
// leaving the comment block.
func findTag(lines []string, start int, marker string) (int, bool) {
	for i := start; i < len(lines) && IsComment(lines[i]); i++ {
		if strings.Contains(lines[i], marker) {
			return i, true
		}
	}

	return -1, false
}

// collect returns the text after marker on line idx, followed by the text of
// every continuation line after it.
func collect(lines []string, idx int, marker string) string {
	_, text, _ := strings.Cut(lines[idx], marker)

	// A second tag on the same line ends this one.
	for _, m := range tagMarkers {
		if i := strings.Index(text, m); i >= 0 {
			text = text[:i]
		}
	}

	var sb strings.Builder

	sb.WriteString(text)

	for j := idx + 1; j < len(lines) && IsContinuation(lines[j]); j++ {
		_, cont, _ := strings.Cut(lines[j], Leader)
		sb.WriteString(cont)
	}

	return sb.String()
}

func collectEntries(lines []string, start int, marker string, limit int) []Entry {
	var entries []Entry

	for i := start; i < len(lines) && IsComment(lines[i]) && len(entries) < limit; i++ {
		if strings.Contains(lines[i], marker) {
			entries = append(entries, ParseEntry(collect(lines, i, marker)))
		}
	}

	return entries
}
