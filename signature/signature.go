package signature

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnsupportedType indicates a parameter type that cannot be rendered.
// A wrong signature would silently break matching, so callers treat it as
// fatal.
var ErrUnsupportedType = errors.New("unsupported parameter type")

// Kind classifies a [TypeName].
type Kind int

const (
	// KindUnsupported is any type shape the canonicalizer does not render,
	// such as mappings or function types.
	KindUnsupported Kind = iota
	// KindElementary is a built-in type like uint256 or address.
	KindElementary
	// KindUserDefined is a struct, enum, contract or user-defined value type.
	KindUserDefined
	// KindArray is a fixed or dynamic array of another [TypeName].
	KindArray
)

// TypeName describes the shape of a parameter type.
type TypeName struct {
	// Base is the element type of an array.
	Base *TypeName
	// Name is the declared name of an elementary type.
	Name string
	// NamePath is the path of a user-defined type as written in source.
	NamePath string
	// Qualified is the fully qualified path of a user-defined type, e.g.
	// "ColonyDataTypes.Payment". Empty means NamePath is already qualified.
	Qualified string
	// Encoding is the ABI encoding of a user-defined type: "uint8" for
	// enums, "address" for contracts, the underlying type of a value type
	// and "(t1,t2)" for structs. Empty when unknown.
	Encoding string
	// Length is the array length as written; empty for dynamic arrays.
	Length string
	// Size is the evaluated length when Length is a constant expression
	// rather than a decimal literal.
	Size string
	// Node is the parser node type, kept for error messages.
	Node string
	Kind Kind
}

// Param is a function parameter or return parameter.
type Param struct {
	Name    string
	Storage string
	Type    TypeName
}

// Function is a parsed function declaration.
type Function struct {
	Contract   string
	Name       string
	Visibility string
	Params     []Param
	Returns    []Param
	// Line is the 0-based index of the line the declaration begins on.
	Line int
}

// Minimal returns the minimal-form signature of fn, see [Minimal].
func (fn Function) Minimal() (string, error) {
	return Minimal(fn.Name, fn.Params)
}

// Encoded returns the encoded-form signature of fn, see [Encoded].
func (fn Function) Encoded() (string, error) {
	return Encoded(fn.Name, fn.Params)
}

// Display returns the display-form signature of fn, see [Display].
func (fn Function) Display() (string, error) {
	return Display(fn)
}

// elementaryAliases maps shorthand elementary types to their canonical ABI
// spelling.
var elementaryAliases = map[string]string{
	"uint":            "uint256",
	"int":             "int256",
	"byte":            "bytes1",
	"fixed":           "fixed128x18",
	"ufixed":          "ufixed128x18",
	"address payable": "address",
}

// Minimal renders name and the ordered parameter types as "name(t1,t2)".
// Parameter names, storage locations and return types are omitted, which
// is how overloads are distinguished at the ABI.
func Minimal(name string, params []Param) (string, error) {
	return join(name, params, false)
}

// Encoded renders name and the ABI encodings of the parameter types, the
// text a function selector is hashed from. It is the only form that can be
// compared against an ABI lacking internal type names.
func Encoded(name string, params []Param) (string, error) {
	return join(name, params, true)
}

func join(name string, params []Param, encoded bool) (string, error) {
	types := make([]string, 0, len(params))

	for _, p := range params {
		t, err := canonicalType(p.Type, encoded)
		if err != nil {
			return "", fmt.Errorf("%s: parameter %q: %w", name, p.Name, err)
		}

		types = append(types, t)
	}

	return name + "(" + strings.Join(types, ",") + ")", nil
}

// EncodedType returns the ABI encoding of t.
func EncodedType(t TypeName) (string, error) {
	return canonicalType(t, true)
}

// Display renders fn as "name(type storage param, ...)" followed by
// ":type name, ..." when the function declares return parameters.
func Display(fn Function) (string, error) {
	params := make([]string, 0, len(fn.Params))

	for _, p := range fn.Params {
		s, err := displayParam(p)
		if err != nil {
			return "", fmt.Errorf("%s: parameter %q: %w", fn.Name, p.Name, err)
		}

		params = append(params, s)
	}

	sig := fn.Name + "(" + strings.Join(params, ", ") + ")"
	if len(fn.Returns) == 0 {
		return sig, nil
	}

	returns := make([]string, 0, len(fn.Returns))

	for _, p := range fn.Returns {
		t, err := TypeString(p.Type)
		if err != nil {
			return "", fmt.Errorf("%s: return %q: %w", fn.Name, p.Name, err)
		}

		returns = append(returns, t+" "+ParamName(p))
	}

	return sig + ":" + strings.Join(returns, ", "), nil
}

// TypeString renders t the way it was declared: the elementary name, the
// user-defined path, or "base[length]" for arrays.
func TypeString(t TypeName) (string, error) {
	switch t.Kind {
	case KindElementary:
		return t.Name, nil
	case KindUserDefined:
		return t.NamePath, nil
	case KindArray:
		if t.Base == nil {
			return "", fmt.Errorf("%w: array without base type", ErrUnsupportedType)
		}

		base, err := TypeString(*t.Base)
		if err != nil {
			return "", err
		}

		return base + "[" + t.Length + "]", nil
	}

	return "", unsupported(t)
}

// ParamName returns the declared name of p, falling back to its type text
// for unnamed parameters.
func ParamName(p Param) string {
	if p.Name != "" {
		return p.Name
	}

	t, err := TypeString(p.Type)
	if err != nil {
		return ""
	}

	return t
}

func displayParam(p Param) (string, error) {
	var s string

	switch p.Type.Kind {
	case KindElementary:
		s = p.Type.Name + storageSuffix(p.Storage)
	case KindUserDefined:
		s = p.Type.NamePath
	case KindArray:
		t, err := TypeString(p.Type)
		if err != nil {
			return "", err
		}

		s = t + storageSuffix(p.Storage)
	default:
		return "", unsupported(p.Type)
	}

	if p.Name == "" {
		return s, nil
	}

	return s + " " + p.Name, nil
}

func canonicalType(t TypeName, encoded bool) (string, error) {
	switch t.Kind {
	case KindElementary:
		if alias, ok := elementaryAliases[t.Name]; ok {
			return alias, nil
		}

		return t.Name, nil
	case KindUserDefined:
		if encoded {
			if t.Encoding == "" {
				return "", fmt.Errorf("%w: unknown encoding of %s", ErrUnsupportedType, t.NamePath)
			}

			return t.Encoding, nil
		}

		if t.Qualified != "" {
			return t.Qualified, nil
		}

		return t.NamePath, nil
	case KindArray:
		if t.Base == nil {
			return "", fmt.Errorf("%w: array without base type", ErrUnsupportedType)
		}

		base, err := canonicalType(*t.Base, encoded)
		if err != nil {
			return "", err
		}

		length := t.Length
		if t.Size != "" {
			length = t.Size
		}

		return base + "[" + length + "]", nil
	}

	return "", unsupported(t)
}

func storageSuffix(storage string) string {
	if storage == "" {
		return ""
	}

	return " " + storage
}

func unsupported(t TypeName) error {
	if t.Node == "" {
		return ErrUnsupportedType
	}

	return fmt.Errorf("%w: %s", ErrUnsupportedType, t.Node)
}
