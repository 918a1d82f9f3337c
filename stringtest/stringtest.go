package stringtest

import "strings"

// Input dedents a raw string literal so that fixtures can be indented along
// with the test code. One leading and one trailing newline are removed, the
// common indentation of all non-blank lines is stripped, and whitespace-only
// lines become empty.
//
// Example:
//
//	src := stringtest.Input(`
//		/// @notice Transfers tokens
//		function transfer(address to) external;
//	`)
func Input(s string) string {
	s = strings.TrimPrefix(s, "\n")

	// The last line is either empty or the indentation before a closing
	// backtick.
	if i := strings.LastIndexByte(s, '\n'); i >= 0 && strings.TrimSpace(s[i+1:]) == "" {
		s = s[:i]
	}

	lines := strings.Split(s, "\n")

	indent := -1

	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}

		n := len(line) - len(strings.TrimLeft(line, " \t"))
		if indent < 0 || n < indent {
			indent = n
		}
	}

	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			lines[i] = ""

			continue
		}

		if indent > 0 {
			lines[i] = line[indent:]
		}
	}

	return strings.Join(lines, "\n")
}

// Lines dedents s with [Input] and splits it into lines, the way source
// text is handed to line-oriented scanners.
func Lines(s string) []string {
	return strings.Split(Input(s), "\n")
}

// JoinLF joins multiple strings with LF line endings.
// Use this to construct expected output with explicit line endings.
//
// Example:
//
//	want := stringtest.JoinLF(
//		"line1",
//		"line2",
//	) // -> "line1\nline2"
func JoinLF(ss ...string) string {
	return strings.Join(ss, "\n")
}
