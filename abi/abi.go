// Package abi reads the compiled interface descriptor (ABI) of a contract
// and exposes its externally callable functions.
package abi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.jacobcolvin.com/natspecdoc/signature"
)

// ErrInvalidABI indicates an artifact that does not contain a usable ABI.
var ErrInvalidABI = errors.New("invalid abi")

// Argument is one input or output of an ABI item.
type Argument struct {
	Name         string     `json:"name"`
	Type         string     `json:"type"`
	InternalType string     `json:"internalType,omitempty"`
	Components   []Argument `json:"components,omitempty"`
}

// Item is one entry of an ABI: a function, event, error, constructor,
// fallback or receive.
type Item struct {
	Type            string     `json:"type"`
	Name            string     `json:"name,omitempty"`
	StateMutability string     `json:"stateMutability,omitempty"`
	Inputs          []Argument `json:"inputs,omitempty"`
	Outputs         []Argument `json:"outputs,omitempty"`
}

// ABI is a parsed interface descriptor.
type ABI struct {
	Items []Item
}

// Parse decodes either a compiler artifact with an "abi" field (Hardhat,
// Foundry) or a bare ABI array.
func Parse(data []byte) (*ABI, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrInvalidABI)
	}

	var items []Item

	if data[0] == '[' {
		err := json.Unmarshal(data, &items)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidABI, err)
		}

		return &ABI{Items: items}, nil
	}

	var artifact struct {
		ABI *[]Item `json:"abi"`
	}

	err := json.Unmarshal(data, &artifact)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidABI, err)
	}

	if artifact.ABI == nil {
		return nil, fmt.Errorf("%w: artifact has no abi field", ErrInvalidABI)
	}

	return &ABI{Items: *artifact.ABI}, nil
}

// Functions returns the named function items, in ABI order.
func (a *ABI) Functions() []Item {
	var fns []Item

	for _, it := range a.Items {
		if it.Type == "function" && it.Name != "" {
			fns = append(fns, it)
		}
	}

	return fns
}

// Signature is the key an ABI function is matched by.
type Signature struct {
	// Text is the minimal form, or the encoded form when Encoded is set.
	Text string
	// Encoded is set when an input has no internal type name. Struct, enum
	// and contract types are then only known by their encoding (a tuple,
	// uint8 or address), so declarations must be compared the same way.
	Encoded bool
}

// Signatures returns the matching key of every function, in ABI order.
func (a *ABI) Signatures() ([]Signature, error) {
	fns := a.Functions()
	sigs := make([]Signature, 0, len(fns))

	for _, fn := range fns {
		sig, err := fn.Key()
		if err != nil {
			return nil, err
		}

		sigs = append(sigs, sig)
	}

	return sigs, nil
}

// Key returns the matching key of it: its minimal form when every input
// records an internal type name, otherwise its encoded form.
func (it Item) Key() (Signature, error) {
	for _, in := range it.Inputs {
		if in.InternalType == "" {
			sig, err := it.Encoded()
			if err != nil {
				return Signature{}, err
			}

			return Signature{Text: sig, Encoded: true}, nil
		}
	}

	sig, err := it.Signature()
	if err != nil {
		return Signature{}, err
	}

	return Signature{Text: sig}, nil
}

// Signature returns the minimal-form signature of it, rendered with the
// same rules as parsed functions so the two compare as strings.
func (it Item) Signature() (string, error) {
	params := make([]signature.Param, 0, len(it.Inputs))

	for _, in := range it.Inputs {
		params = append(params, signature.Param{Name: in.Name, Type: in.TypeName()})
	}

	return signature.Minimal(it.Name, params)
}

// Encoded returns the encoded-form signature of it, with tuples expanded
// from their components: "pay((address,uint256)[],uint8)".
func (it Item) Encoded() (string, error) {
	types := make([]string, 0, len(it.Inputs))

	for _, in := range it.Inputs {
		t, err := in.Encoding()
		if err != nil {
			return "", fmt.Errorf("%s: %w", it.Name, err)
		}

		types = append(types, t)
	}

	return it.Name + "(" + strings.Join(types, ",") + ")", nil
}

// Encoding returns the ABI type of arg with tuples expanded.
func (arg Argument) Encoding() (string, error) {
	suffix, ok := strings.CutPrefix(arg.Type, "tuple")
	if !ok {
		return arg.Type, nil
	}

	if len(arg.Components) == 0 {
		return "", fmt.Errorf("%w: tuple %q has no components", ErrInvalidABI, arg.Name)
	}

	members := make([]string, 0, len(arg.Components))

	for _, c := range arg.Components {
		m, err := c.Encoding()
		if err != nil {
			return "", err
		}

		members = append(members, m)
	}

	return "(" + strings.Join(members, ",") + ")" + suffix, nil
}

// TypeName converts the argument to a [signature.TypeName]. The internal
// type recorded by the compiler ("struct Lib.S[]", "enum E", "contract C")
// recovers the source-level path of user-defined types; without it the ABI
// type itself is used, and only [Item.Encoded] is meaningful.
func (arg Argument) TypeName() signature.TypeName {
	internal := arg.InternalType
	if internal == "" {
		internal = arg.Type
	}

	return parseInternalType(internal)
}

func parseInternalType(s string) signature.TypeName {
	if i := strings.LastIndexByte(s, '['); i >= 0 && strings.HasSuffix(s, "]") {
		base := parseInternalType(s[:i])

		return signature.TypeName{
			Kind:   signature.KindArray,
			Base:   &base,
			Length: s[i+1 : len(s)-1],
		}
	}

	for _, prefix := range []string{"struct ", "enum ", "contract "} {
		if path, ok := strings.CutPrefix(s, prefix); ok {
			return signature.TypeName{Kind: signature.KindUserDefined, NamePath: path}
		}
	}

	// User-defined value types carry their bare (possibly qualified) name.
	if strings.Contains(s, ".") || startsUpper(s) {
		return signature.TypeName{Kind: signature.KindUserDefined, NamePath: s}
	}

	return signature.TypeName{Kind: signature.KindElementary, Name: s}
}

func startsUpper(s string) bool {
	return s != "" && s[0] >= 'A' && s[0] <= 'Z'
}
