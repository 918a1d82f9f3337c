// Package solast reads the syntax tree of a flattened Solidity source, as
// printed by @solidity-parser/parser with locations enabled, and extracts
// the externally visible function declarations.
package solast

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"go.jacobcolvin.com/natspecdoc/signature"
)

// ErrInvalidTree indicates input that is not a usable syntax tree.
var ErrInvalidTree = errors.New("invalid syntax tree")

// Node types used by the parser.
const (
	typeSourceUnit     = "SourceUnit"
	typeContract       = "ContractDefinition"
	typeFunction       = "FunctionDefinition"
	typeStruct         = "StructDefinition"
	typeEnum           = "EnumDefinition"
	typeValueType      = "TypeDefinition"
	typeStateVariables = "StateVariableDeclaration"
	typeFileConstant   = "FileLevelConstant"
	typeElementary     = "ElementaryTypeName"
	typeUserDefined    = "UserDefinedTypeName"
	typeArray          = "ArrayTypeName"
	typeNumberLiteral  = "NumberLiteral"
	typeIdentifier     = "Identifier"
	typeMemberAccess   = "MemberAccess"
	typeTuple          = "TupleExpression"
	typeBinaryOp       = "BinaryOperation"
	visibilityExternal = "external"
	visibilityPublic   = "public"
)

type position struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

type location struct {
	Start position `json:"start"`
	End   position `json:"end"`
}

// node is the union of the parser node fields this package reads. Only the
// fields below are decoded, so function bodies are skipped.
type node struct {
	Loc              *location `json:"loc"`
	TypeName         *node     `json:"typeName"`
	BaseTypeName     *node     `json:"baseTypeName"`
	BaseName         *node     `json:"baseName"`
	Length           *node     `json:"length"`
	Definition       *node     `json:"definition"`
	InitialValue     *node     `json:"initialValue"`
	Expression       *node     `json:"expression"`
	Left             *node     `json:"left"`
	Right            *node     `json:"right"`
	StorageLocation  *string   `json:"storageLocation"`
	Subdenomination  *string   `json:"subdenomination"`
	Type             string    `json:"type"`
	Name             string    `json:"name"`
	Kind             string    `json:"kind"`
	NamePath         string    `json:"namePath"`
	Number           string    `json:"number"`
	Visibility       string    `json:"visibility"`
	Operator         string    `json:"operator"`
	MemberName       string    `json:"memberName"`
	Children         []node    `json:"children"`
	SubNodes         []node    `json:"subNodes"`
	BaseContracts    []node    `json:"baseContracts"`
	Parameters       []node    `json:"parameters"`
	ReturnParameters []node    `json:"returnParameters"`
	Members          []node    `json:"members"`
	Variables        []node    `json:"variables"`
	Components       []node    `json:"components"`
	IsConstructor    bool      `json:"isConstructor"`
	IsFallback       bool      `json:"isFallback"`
	IsReceiveEther   bool      `json:"isReceiveEther"`
	IsDeclaredConst  bool      `json:"isDeclaredConst"`
	IsArray          bool      `json:"isArray"`
}

// fileScope is the key of file-level declarations in per-contract maps.
const fileScope = ""

// Tree is a parsed source unit.
//
// A Tree caches resolved type encodings and is not safe for concurrent use.
type Tree struct {
	root node
	// types maps a scope (a contract name, or [fileScope]) to the structs,
	// enums and value types it declares. Contracts are file-level types.
	types map[string]map[string]*node
	// constants maps a scope to its constants and their initializers.
	constants map[string]map[string]*node
	// bases maps a contract name to its direct base contracts.
	bases map[string][]string
	// contracts lists contract names in source order.
	contracts []string
	// encodings caches the ABI encoding of qualified type paths.
	encodings map[string]string
	resolving map[string]bool
}

// Parse decodes a syntax tree from its JSON form.
func Parse(data []byte) (*Tree, error) {
	t := &Tree{
		types:     map[string]map[string]*node{fileScope: {}},
		constants: map[string]map[string]*node{fileScope: {}},
		bases:     map[string][]string{},
		encodings: map[string]string{},
		resolving: map[string]bool{},
	}

	err := json.Unmarshal(data, &t.root)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidTree, err)
	}

	if t.root.Type != typeSourceUnit {
		return nil, fmt.Errorf("%w: root node is %q, want %s", ErrInvalidTree, t.root.Type, typeSourceUnit)
	}

	for i := range t.root.Children {
		child := &t.root.Children[i]

		switch child.Type {
		case typeContract:
			t.contracts = append(t.contracts, child.Name)
			t.types[fileScope][child.Name] = child
			t.types[child.Name] = map[string]*node{}
			t.constants[child.Name] = map[string]*node{}

			for j := range child.SubNodes {
				t.declare(child.Name, &child.SubNodes[j])
			}

			for _, base := range child.BaseContracts {
				if base.BaseName != nil {
					t.bases[child.Name] = append(t.bases[child.Name], base.BaseName.NamePath)
				}
			}

		case typeFileConstant:
			if child.InitialValue != nil {
				t.constants[fileScope][child.Name] = child.InitialValue
			}

		default:
			t.declare(fileScope, child)
		}
	}

	return t, nil
}

// declare records the type or constant declared by n in scope.
func (t *Tree) declare(scope string, n *node) {
	switch n.Type {
	case typeStruct, typeEnum, typeValueType:
		t.types[scope][n.Name] = n

	case typeStateVariables:
		for i := range n.Variables {
			v := &n.Variables[i]
			if v.IsDeclaredConst && v.Expression != nil {
				t.constants[scope][v.Name] = v.Expression
			}
		}
	}
}

// Contracts returns the names of all contract, interface and library
// definitions, in source order.
func (t *Tree) Contracts() []string {
	return t.contracts
}

// Functions returns every named external or public function of every
// contract definition, in source order. Constructors, fallback and receive
// functions are skipped.
func (t *Tree) Functions() ([]signature.Function, error) {
	var fns []signature.Function

	for _, child := range t.root.Children {
		if child.Type != typeContract {
			continue
		}

		for _, sub := range child.SubNodes {
			if !isExternalFunction(sub) {
				continue
			}

			fn, err := t.function(child.Name, sub)
			if err != nil {
				return nil, err
			}

			fns = append(fns, fn)
		}
	}

	return fns, nil
}

func isExternalFunction(n node) bool {
	if n.Type != typeFunction || n.Name == "" {
		return false
	}

	if n.IsConstructor || n.IsFallback || n.IsReceiveEther {
		return false
	}

	return n.Visibility == visibilityExternal || n.Visibility == visibilityPublic
}

func (t *Tree) function(contract string, n node) (signature.Function, error) {
	if n.Loc == nil || n.Loc.Start.Line < 1 {
		return signature.Function{}, fmt.Errorf("%w: %s.%s has no source location", ErrInvalidTree, contract, n.Name)
	}

	return signature.Function{
		Contract:   contract,
		Name:       n.Name,
		Visibility: n.Visibility,
		Params:     t.params(contract, n.Parameters),
		Returns:    t.params(contract, n.ReturnParameters),
		Line:       n.Loc.Start.Line - 1,
	}, nil
}

func (t *Tree) params(contract string, nodes []node) []signature.Param {
	if len(nodes) == 0 {
		return nil
	}

	params := make([]signature.Param, 0, len(nodes))

	for _, p := range nodes {
		var storage string
		if p.StorageLocation != nil {
			storage = *p.StorageLocation
		}

		params = append(params, signature.Param{
			Name:    p.Name,
			Storage: storage,
			Type:    t.typeName(contract, p.TypeName),
		})
	}

	return params
}

// typeName converts a parser type node. Shapes the canonicalizer cannot
// render become [signature.KindUnsupported] and fail later, with the node
// type in the error.
func (t *Tree) typeName(contract string, n *node) signature.TypeName {
	if n == nil {
		return signature.TypeName{Kind: signature.KindUnsupported, Node: "missing type"}
	}

	switch n.Type {
	case typeElementary:
		return signature.TypeName{Kind: signature.KindElementary, Name: n.Name, Node: n.Type}

	case typeUserDefined:
		return signature.TypeName{
			Kind:      signature.KindUserDefined,
			NamePath:  n.NamePath,
			Qualified: t.qualify(contract, n.NamePath),
			Encoding:  t.encoding(contract, n.NamePath),
			Node:      n.Type,
		}

	case typeArray:
		base := t.typeName(contract, n.BaseTypeName)

		length, size, ok := t.arrayLength(contract, n.Length)
		if !ok {
			return signature.TypeName{
				Kind: signature.KindUnsupported,
				Node: fmt.Sprintf("%s with non-constant length %q", n.Type, length),
			}
		}

		return signature.TypeName{
			Kind:   signature.KindArray,
			Base:   &base,
			Length: length,
			Size:   size,
			Node:   n.Type,
		}
	}

	return signature.TypeName{Kind: signature.KindUnsupported, Node: n.Type}
}

// arrayLength returns the length of an array type as written and, when that
// is not a decimal literal, its evaluated size. Dynamic arrays have neither.
func (t *Tree) arrayLength(contract string, n *node) (string, string, bool) {
	if n == nil {
		return "", "", true
	}

	var text string

	switch n.Type {
	case typeNumberLiteral:
		text = n.Number
	case typeIdentifier:
		text = n.Name
	case typeMemberAccess:
		if n.Expression != nil && n.Expression.Type == typeIdentifier {
			text = n.Expression.Name + "." + n.MemberName
		}
	}

	v, ok := t.evaluate(contract, n, 0)
	if !ok || v.Sign() <= 0 {
		return text, "", false
	}

	size := v.String()

	switch text {
	case size:
		return text, "", true
	case "":
		return size, "", true
	}

	return text, size, true
}

// maxDepth bounds constant evaluation, which also breaks reference cycles.
const maxDepth = 32

// evaluate computes an integer constant expression: literals, references to
// constants, parentheses and arithmetic.
func (t *Tree) evaluate(contract string, n *node, depth int) (*big.Int, bool) {
	if n == nil || depth > maxDepth {
		return nil, false
	}

	switch n.Type {
	case typeNumberLiteral:
		if n.Subdenomination != nil {
			return nil, false
		}

		return parseNumber(n.Number)

	case typeIdentifier:
		scope, expr, ok := t.constant(contract, n.Name)
		if !ok {
			return nil, false
		}

		return t.evaluate(scope, expr, depth+1)

	case typeMemberAccess:
		if n.Expression == nil || n.Expression.Type != typeIdentifier {
			return nil, false
		}

		scope := n.Expression.Name

		expr, ok := t.constants[scope][n.MemberName]
		if !ok {
			return nil, false
		}

		return t.evaluate(scope, expr, depth+1)

	case typeTuple:
		if n.IsArray || len(n.Components) != 1 {
			return nil, false
		}

		return t.evaluate(contract, &n.Components[0], depth+1)

	case typeBinaryOp:
		l, ok := t.evaluate(contract, n.Left, depth+1)
		if !ok {
			return nil, false
		}

		r, ok := t.evaluate(contract, n.Right, depth+1)
		if !ok {
			return nil, false
		}

		return arithmetic(n.Operator, l, r)
	}

	return nil, false
}

func arithmetic(op string, l, r *big.Int) (*big.Int, bool) {
	v := new(big.Int)

	switch op {
	case "+":
		return v.Add(l, r), true
	case "-":
		return v.Sub(l, r), true
	case "*":
		return v.Mul(l, r), true
	case "/", "%":
		if r.Sign() == 0 {
			return nil, false
		}

		if op == "/" {
			return v.Quo(l, r), true
		}

		return v.Rem(l, r), true
	case "**":
		if r.Sign() < 0 || r.BitLen() > 16 {
			return nil, false
		}

		return v.Exp(l, r, nil), true
	}

	return nil, false
}

// parseNumber parses a decimal, hex or scientific integer literal.
func parseNumber(s string) (*big.Int, bool) {
	s = strings.ReplaceAll(s, "_", "")

	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		if mantissa, exp, ok := strings.Cut(strings.ToLower(s), "e"); ok {
			m, ok := new(big.Int).SetString(mantissa, 10)
			if !ok {
				return nil, false
			}

			e, ok := new(big.Int).SetString(exp, 10)
			if !ok || e.Sign() < 0 || e.BitLen() > 16 {
				return nil, false
			}

			return m.Mul(m, new(big.Int).Exp(big.NewInt(10), e, nil)), true
		}
	}

	return new(big.Int).SetString(s, 0)
}

// constant finds the initializer of the constant called name as seen from
// contract, and the scope it is declared in.
func (t *Tree) constant(contract, name string) (string, *node, bool) {
	scope, ok := t.inHierarchy(contract, func(c string) bool {
		_, ok := t.constants[c][name]

		return ok
	})
	if !ok {
		scope = fileScope
	}

	expr, ok := t.constants[scope][name]

	return scope, expr, ok
}

// lookupType finds the declaration a user-defined type path refers to from
// contract. The enclosing contract wins, then its bases (depth first, in
// declaration order), then file-level declarations, then a unique declaring
// contract anywhere in the unit.
func (t *Tree) lookupType(contract, path string) (string, *node) {
	if scope, name, ok := strings.Cut(path, "."); ok {
		return scope, t.types[scope][name]
	}

	if scope, ok := t.inHierarchy(contract, func(c string) bool {
		return t.types[c][path] != nil
	}); ok {
		return scope, t.types[scope][path]
	}

	if decl := t.types[fileScope][path]; decl != nil {
		return fileScope, decl
	}

	var owner string

	for _, c := range t.contracts {
		if t.types[c][path] != nil {
			if owner != "" {
				return fileScope, nil
			}

			owner = c
		}
	}

	return owner, t.types[owner][path]
}

// qualify resolves a user-defined type path to the form the compiler uses
// in the ABI: types declared inside a contract are prefixed with the
// contract name.
func (t *Tree) qualify(contract, path string) string {
	if path == "" || strings.Contains(path, ".") {
		return ""
	}

	owner, decl := t.lookupType(contract, path)
	if decl == nil || owner == fileScope {
		return ""
	}

	return owner + "." + path
}

// encoding returns the ABI encoding of a user-defined type, or the empty
// string when it cannot be resolved.
func (t *Tree) encoding(contract, path string) string {
	owner, decl := t.lookupType(contract, path)
	if decl == nil {
		return ""
	}

	key := owner + "." + decl.Name
	if enc, ok := t.encodings[key]; ok {
		return enc
	}

	// Recursive structs have no static encoding.
	if t.resolving[key] {
		return ""
	}

	t.resolving[key] = true
	defer delete(t.resolving, key)

	var enc string

	switch decl.Type {
	case typeContract:
		enc = "address"

	case typeEnum:
		enc = "uint8"

	case typeValueType:
		enc = t.encodeType(owner, decl.Definition)

	case typeStruct:
		members := make([]string, 0, len(decl.Members))

		for i := range decl.Members {
			m := t.encodeType(owner, decl.Members[i].TypeName)
			if m == "" {
				return ""
			}

			members = append(members, m)
		}

		enc = "(" + strings.Join(members, ",") + ")"
	}

	t.encodings[key] = enc

	return enc
}

func (t *Tree) encodeType(contract string, n *node) string {
	enc, err := signature.EncodedType(t.typeName(contract, n))
	if err != nil {
		return ""
	}

	return enc
}

// inHierarchy walks contract and its bases depth first and returns the
// first contract for which match reports true.
func (t *Tree) inHierarchy(contract string, match func(string) bool) (string, bool) {
	return t.walkBases(contract, match, map[string]bool{})
}

func (t *Tree) walkBases(contract string, match func(string) bool, seen map[string]bool) (string, bool) {
	if contract == fileScope || seen[contract] {
		return "", false
	}

	seen[contract] = true

	if match(contract) {
		return contract, true
	}

	for _, base := range t.bases[contract] {
		if owner, ok := t.walkBases(base, match, seen); ok {
			return owner, true
		}
	}

	return "", false
}
