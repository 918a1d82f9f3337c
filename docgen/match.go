package docgen

import (
	"fmt"
	"log/slog"
	"slices"

	"go.jacobcolvin.com/natspecdoc/abi"
	"go.jacobcolvin.com/natspecdoc/natspec"
	"go.jacobcolvin.com/natspecdoc/signature"
)

// Candidate is a parsed function together with the documentation scanned
// from the comment block above it.
type Candidate struct {
	Function signature.Function
	Doc      natspec.Record
}

// Candidates scans the documentation of every function in fns out of the
// source lines.
func Candidates(scanner *natspec.Scanner, lines []string, fns []signature.Function) []Candidate {
	cands := make([]Candidate, 0, len(fns))

	for _, fn := range fns {
		cands = append(cands, Candidate{
			Function: fn,
			Doc:      scanner.Scan(lines, fn.Line, len(fn.Params), len(fn.Returns)),
		})
	}

	return cands
}

// Match selects one candidate for every ABI signature in entries, in entry
// order. Candidates not named by the ABI are dropped. An entry without any
// candidate is recorded in report as [ViolationUndocumented]; an entry with
// several is resolved by [SelectBest].
//
// Entries are compared against the candidates' minimal signatures, or
// their encoded signatures when the entry is [abi.Signature.Encoded].
func Match(entries []abi.Signature, cands []Candidate, report *Report) ([]Candidate, error) {
	minimal, err := candidateKeys(cands, signature.Function.Minimal)
	if err != nil {
		return nil, err
	}

	var encoded []string

	if slices.ContainsFunc(entries, func(e abi.Signature) bool { return e.Encoded }) {
		encoded, err = candidateKeys(cands, signature.Function.Encoded)
		if err != nil {
			return nil, err
		}
	}

	matched := make([]Candidate, 0, len(entries))

	for _, entry := range entries {
		keys := minimal
		if entry.Encoded {
			keys = encoded
		}

		var found []Candidate

		for i, key := range keys {
			if key == entry.Text {
				found = append(found, cands[i])
			}
		}

		switch len(found) {
		case 0:
			report.Add(ViolationUndocumented, entry.Text, "")
		case 1:
			matched = append(matched, found[0])
		default:
			best := SelectBest(found)
			report.logger.Debug("resolved duplicate declarations",
				slog.String("function", entry.Text),
				slog.Int("candidates", len(found)),
				slog.String("contract", best.Function.Contract),
			)

			matched = append(matched, best)
		}
	}

	return matched, nil
}

func candidateKeys(cands []Candidate, key func(signature.Function) (string, error)) ([]string, error) {
	keys := make([]string, len(cands))

	for i, c := range cands {
		k, err := key(c.Function)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", c.Function.Contract, err)
		}

		keys[i] = k
	}

	return keys, nil
}

// SelectBest returns the candidate with the most complete documentation,
// measured by [natspec.Record.Weight]. Ties keep the earliest candidate.
// cands must not be empty.
func SelectBest(cands []Candidate) Candidate {
	best := cands[0]
	weight := best.Doc.Weight()

	for _, c := range cands[1:] {
		if w := c.Doc.Weight(); w > weight {
			best, weight = c, w
		}
	}

	return best
}
