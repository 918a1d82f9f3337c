package docgen

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"go.jacobcolvin.com/natspecdoc/natspec"
	"go.jacobcolvin.com/natspecdoc/signature"
)

const (
	sectionHeading = "## Interface Methods"
	tableHeader    = "|Name|Type|Description|\n|---|---|---|"
)

type renderedMethod struct {
	display string
	Candidate
}

// Render formats methods as the "Interface Methods" section, ordered by
// display signature. Missing notices and parameter descriptions that do not
// name their parameter are recorded in report. An empty method list renders
// as the empty string.
func Render(methods []Candidate, report *Report) (string, error) {
	if len(methods) == 0 {
		return "", nil
	}

	sorted := make([]renderedMethod, 0, len(methods))

	for _, m := range methods {
		display, err := m.Function.Display()
		if err != nil {
			return "", fmt.Errorf("%s: %w", m.Function.Contract, err)
		}

		sorted = append(sorted, renderedMethod{display: display, Candidate: m})
	}

	slices.SortStableFunc(sorted, func(a, b renderedMethod) int {
		return cmp.Compare(a.display, b.display)
	})

	for _, m := range sorted {
		if m.Doc.Notice == "" {
			report.Add(ViolationMissingNotice, m.Function.Name, "")
		}
	}

	var sb strings.Builder

	sb.WriteString("\n" + sectionHeading + "\n")

	for _, m := range sorted {
		err := writeMethod(&sb, m, report)
		if err != nil {
			return "", err
		}
	}

	return sb.String(), nil
}

func writeMethod(sb *strings.Builder, m renderedMethod, report *Report) error {
	fmt.Fprintf(sb, "\n### ▸ `%s`\n\n", m.display)
	sb.WriteString(m.Doc.Notice + "\n")

	if m.Doc.Dev != "" {
		sb.WriteString("\n*Note: " + m.Doc.Dev + "*")
	}

	sb.WriteString("\n")

	if len(m.Function.Params) > 0 {
		table, err := paramTable(m.Function, m.Function.Params, m.Doc.Params, ViolationUnmatchedParam, report)
		if err != nil {
			return err
		}

		sb.WriteString("\n**Parameters**\n" + table)
	}

	sb.WriteString("\n")

	if len(m.Function.Returns) > 0 {
		table, err := paramTable(m.Function, m.Function.Returns, m.Doc.Returns, ViolationUnmatchedReturn, report)
		if err != nil {
			return err
		}

		sb.WriteString("\n**Return Parameters**\n" + table)
	}

	sb.WriteString("\n")

	return nil
}

// paramTable renders one row per declared parameter. The tag at the same
// position supplies the description only when it names the parameter.
func paramTable(
	fn signature.Function,
	params []signature.Param,
	entries []natspec.Entry,
	kind ViolationKind,
	report *Report,
) (string, error) {
	rows := make([]string, 0, len(params)+1)
	rows = append(rows, "\n"+tableHeader)

	for i, p := range params {
		name := signature.ParamName(p)

		typ, err := signature.TypeString(p.Type)
		if err != nil {
			return "", fmt.Errorf("%s: %s %q: %w", fn.Contract, fn.Name, name, err)
		}

		var description string

		if i < len(entries) && entries[i].Describes(name) {
			description = entries[i].Text
		} else {
			report.Add(kind, fn.Name, name)
		}

		rows = append(rows, "|"+name+"|"+typ+"|"+description)
	}

	return strings.Join(rows, "\n"), nil
}

// Document joins the template and the rendered section into the final
// document text.
func Document(template, section string) string {
	return strings.TrimSpace("\n  " + template + "\n  " + section + "\n  ")
}
