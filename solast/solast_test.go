package solast_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.jacobcolvin.com/natspecdoc/signature"
	"go.jacobcolvin.com/natspecdoc/solast"
)

func loadFixture(t *testing.T) *solast.Tree {
	t.Helper()

	data, err := os.ReadFile(filepath.Join("..", "docgen", "testdata", "itoken", "IToken.ast.json"))
	require.NoError(t, err)

	tree, err := solast.Parse(data)
	require.NoError(t, err)

	return tree
}

func TestFunctions(t *testing.T) {
	t.Parallel()

	tree := loadFixture(t)

	assert.Equal(t, []string{"ColonyDataTypes", "IBasicToken", "IToken", "TokenMath"}, tree.Contracts())

	fns, err := tree.Functions()
	require.NoError(t, err)

	type summary struct {
		contract string
		display  string
		minimal  string
		line     int
	}

	got := make([]summary, 0, len(fns))

	for _, fn := range fns {
		display, err := fn.Display()
		require.NoError(t, err)

		minimal, err := fn.Minimal()
		require.NoError(t, err)

		got = append(got, summary{contract: fn.Contract, display: display, minimal: minimal, line: fn.Line})
	}

	want := []summary{
		{"IBasicToken", "transfer(address to, uint256 amount):bool success", "transfer(address,uint256)", 17},
		{"IToken", "transfer(address to, uint256 amount):bool success", "transfer(address,uint256)", 27},
		{"IToken", "pay(Payment[] memory payments, ColonyRole role)", "pay(ColonyDataTypes.Payment[],ColonyDataTypes.ColonyRole)", 33},
		{"IToken", "balanceOf(address owner):uint256 uint256", "balanceOf(address)", 38},
		{"IToken", "burn(uint256 amount)", "burn(uint256)", 40},
	}
	assert.Equal(t, want, got)
}

func TestParse(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		check   func(*testing.T, []signature.Function)
		input   string
		wantErr error
	}{
		"not json": {
			input:   "{",
			wantErr: solast.ErrInvalidTree,
		},
		"wrong root": {
			input:   `{"type": "ContractDefinition"}`,
			wantErr: solast.ErrInvalidTree,
		},
		"missing location": {
			input: `{"type": "SourceUnit", "children": [
				{"type": "ContractDefinition", "name": "C", "subNodes": [
					{"type": "FunctionDefinition", "name": "f", "visibility": "external", "parameters": []}
				]}
			]}`,
			wantErr: solast.ErrInvalidTree,
		},
		"skips special and private functions": {
			input: `{"type": "SourceUnit", "children": [
				{"type": "ContractDefinition", "name": "C", "subNodes": [
					{"type": "FunctionDefinition", "name": null, "visibility": "public", "isConstructor": true, "loc": {"start": {"line": 1}}},
					{"type": "FunctionDefinition", "name": "", "visibility": "external", "isFallback": true, "loc": {"start": {"line": 2}}},
					{"type": "FunctionDefinition", "name": "", "visibility": "external", "isReceiveEther": true, "loc": {"start": {"line": 3}}},
					{"type": "FunctionDefinition", "name": "hidden", "visibility": "private", "loc": {"start": {"line": 4}}},
					{"type": "FunctionDefinition", "name": "helper", "visibility": "internal", "loc": {"start": {"line": 5}}},
					{"type": "FunctionDefinition", "name": "open", "visibility": "public", "parameters": [], "returnParameters": null, "loc": {"start": {"line": 6}}},
					{"type": "ModifierDefinition", "name": "auth", "loc": {"start": {"line": 7}}}
				]}
			]}`,
			check: func(t *testing.T, fns []signature.Function) {
				t.Helper()

				require.Len(t, fns, 1)
				assert.Equal(t, "open", fns[0].Name)
				assert.Equal(t, 5, fns[0].Line)
				assert.Nil(t, fns[0].Returns)
			},
		},
		"unsupported parameter types are kept for the canonicalizer": {
			input: `{"type": "SourceUnit", "children": [
				{"type": "ContractDefinition", "name": "C", "subNodes": [
					{"type": "FunctionDefinition", "name": "f", "visibility": "external", "loc": {"start": {"line": 1}},
					 "parameters": [{"type": "VariableDeclaration", "name": "cb", "typeName": {"type": "FunctionTypeName"}}]}
				]}
			]}`,
			check: func(t *testing.T, fns []signature.Function) {
				t.Helper()

				require.Len(t, fns, 1)

				_, err := fns[0].Minimal()
				require.ErrorIs(t, err, signature.ErrUnsupportedType)
				assert.Contains(t, err.Error(), "FunctionTypeName")
			},
		},
		"array lengths": {
			input: `{"type": "SourceUnit", "children": [
				{"type": "ContractDefinition", "name": "C", "subNodes": [
					{"type": "FunctionDefinition", "name": "f", "visibility": "external", "loc": {"start": {"line": 3}},
					 "parameters": [
						{"type": "VariableDeclaration", "name": "a", "storageLocation": "memory",
						 "typeName": {"type": "ArrayTypeName", "baseTypeName": {"type": "ElementaryTypeName", "name": "uint"},
						              "length": {"type": "NumberLiteral", "number": "4"}}},
						{"type": "VariableDeclaration", "name": "b", "storageLocation": "calldata",
						 "typeName": {"type": "ArrayTypeName", "baseTypeName": {"type": "ElementaryTypeName", "name": "bytes32"},
						              "length": {"type": "NumberLiteral", "number": "0x10"}}}
					 ]}
				]}
			]}`,
			check: func(t *testing.T, fns []signature.Function) {
				t.Helper()

				require.Len(t, fns, 1)

				display, err := fns[0].Display()
				require.NoError(t, err)
				assert.Equal(t, "f(uint[4] memory a, bytes32[0x10] calldata b)", display)

				minimal, err := fns[0].Minimal()
				require.NoError(t, err)
				assert.Equal(t, "f(uint256[4],bytes32[16])", minimal)
			},
		},
		"non-constant array length": {
			input: `{"type": "SourceUnit", "children": [
				{"type": "ContractDefinition", "name": "C", "subNodes": [
					{"type": "StateVariableDeclaration", "variables": [
						{"type": "VariableDeclaration", "name": "size", "isDeclaredConst": false,
						 "expression": {"type": "NumberLiteral", "number": "3"}}
					]},
					{"type": "FunctionDefinition", "name": "f", "visibility": "external", "loc": {"start": {"line": 3}},
					 "parameters": [
						{"type": "VariableDeclaration", "name": "a", "storageLocation": "calldata",
						 "typeName": {"type": "ArrayTypeName", "baseTypeName": {"type": "ElementaryTypeName", "name": "uint256"},
						              "length": {"type": "Identifier", "name": "size"}}}
					 ]}
				]}
			]}`,
			check: func(t *testing.T, fns []signature.Function) {
				t.Helper()

				require.Len(t, fns, 1)

				_, err := fns[0].Minimal()
				require.ErrorIs(t, err, signature.ErrUnsupportedType)
				assert.Contains(t, err.Error(), `non-constant length "size"`)
			},
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			tree, err := solast.Parse([]byte(tc.input))
			if tc.wantErr != nil && err != nil {
				require.ErrorIs(t, err, tc.wantErr)

				return
			}

			require.NoError(t, err)

			fns, err := tree.Functions()
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)

				return
			}

			require.NoError(t, err)
			tc.check(t, fns)
		})
	}
}

func TestQualify(t *testing.T) {
	t.Parallel()

	input := `{"type": "SourceUnit", "children": [
		{"type": "StructDefinition", "name": "Global"},
		{"type": "ContractDefinition", "name": "A", "subNodes": [{"type": "StructDefinition", "name": "Shared"}, {"type": "EnumDefinition", "name": "OnlyA"}]},
		{"type": "ContractDefinition", "name": "B", "subNodes": [{"type": "StructDefinition", "name": "Shared"}]},
		{"type": "ContractDefinition", "name": "C", "baseContracts": [{"type": "InheritanceSpecifier", "baseName": {"type": "UserDefinedTypeName", "namePath": "B"}}],
		 "subNodes": [
			{"type": "FunctionDefinition", "name": "f", "visibility": "external", "loc": {"start": {"line": 9}},
			 "parameters": [
				{"name": "a", "typeName": {"type": "UserDefinedTypeName", "namePath": "Shared"}},
				{"name": "b", "typeName": {"type": "UserDefinedTypeName", "namePath": "OnlyA"}},
				{"name": "c", "typeName": {"type": "UserDefinedTypeName", "namePath": "Global"}},
				{"name": "d", "typeName": {"type": "UserDefinedTypeName", "namePath": "A.Shared"}},
				{"name": "e", "typeName": {"type": "UserDefinedTypeName", "namePath": "A"}},
				{"name": "f", "typeName": {"type": "UserDefinedTypeName", "namePath": "Unknown"}}
			 ]}
		 ]}
	]}`

	tree, err := solast.Parse([]byte(input))
	require.NoError(t, err)

	fns, err := tree.Functions()
	require.NoError(t, err)
	require.Len(t, fns, 1)

	minimal, err := fns[0].Minimal()
	require.NoError(t, err)
	assert.Equal(t, "f(B.Shared,A.OnlyA,Global,A.Shared,A,Unknown)", minimal)
}

func TestConstantArrayLengths(t *testing.T) {
	t.Parallel()

	input := `{"type": "SourceUnit", "children": [
		{"type": "FileLevelConstant", "name": "N", "isDeclaredConst": true,
		 "typeName": {"type": "ElementaryTypeName", "name": "uint256"},
		 "initialValue": {"type": "NumberLiteral", "number": "3"}},
		{"type": "ContractDefinition", "name": "Limits", "subNodes": [
			{"type": "StateVariableDeclaration", "variables": [
				{"type": "VariableDeclaration", "name": "MAX", "isDeclaredConst": true,
				 "expression": {"type": "BinaryOperation", "operator": "**",
				                "left": {"type": "NumberLiteral", "number": "2"},
				                "right": {"type": "NumberLiteral", "number": "3"}}}
			]}
		]},
		{"type": "ContractDefinition", "name": "Base", "subNodes": [
			{"type": "StateVariableDeclaration", "variables": [
				{"type": "VariableDeclaration", "name": "SLOTS", "isDeclaredConst": true,
				 "expression": {"type": "BinaryOperation", "operator": "*",
				                "left": {"type": "Identifier", "name": "N"},
				                "right": {"type": "TupleExpression", "isArray": false,
				                          "components": [{"type": "BinaryOperation", "operator": "+",
				                                          "left": {"type": "NumberLiteral", "number": "1"},
				                                          "right": {"type": "NumberLiteral", "number": "1"}}]}}}
			]}
		]},
		{"type": "ContractDefinition", "name": "Registry",
		 "baseContracts": [{"type": "InheritanceSpecifier", "baseName": {"type": "UserDefinedTypeName", "namePath": "Base"}}],
		 "subNodes": [
			{"type": "FunctionDefinition", "name": "set", "visibility": "external", "loc": {"start": {"line": 12}},
			 "parameters": [
				{"name": "values", "storageLocation": "calldata",
				 "typeName": {"type": "ArrayTypeName", "baseTypeName": {"type": "ElementaryTypeName", "name": "uint256"},
				              "length": {"type": "Identifier", "name": "N"}}},
				{"name": "slots", "storageLocation": "memory",
				 "typeName": {"type": "ArrayTypeName", "baseTypeName": {"type": "ElementaryTypeName", "name": "bytes32"},
				              "length": {"type": "Identifier", "name": "SLOTS"}}},
				{"name": "caps",
				 "typeName": {"type": "ArrayTypeName", "baseTypeName": {"type": "ElementaryTypeName", "name": "uint8"},
				              "length": {"type": "MemberAccess", "memberName": "MAX",
				                         "expression": {"type": "Identifier", "name": "Limits"}}}}
			 ]}
		 ]}
	]}`

	tree, err := solast.Parse([]byte(input))
	require.NoError(t, err)

	fns, err := tree.Functions()
	require.NoError(t, err)
	require.Len(t, fns, 1)

	display, err := fns[0].Display()
	require.NoError(t, err)
	assert.Equal(t, "set(uint256[N] calldata values, bytes32[SLOTS] memory slots, uint8[Limits.MAX] caps)", display)

	minimal, err := fns[0].Minimal()
	require.NoError(t, err)
	assert.Equal(t, "set(uint256[3],bytes32[6],uint8[8])", minimal)
}

func TestEncodings(t *testing.T) {
	t.Parallel()

	tree := loadFixture(t)

	fns, err := tree.Functions()
	require.NoError(t, err)

	got := make([]string, 0, len(fns))

	for _, fn := range fns {
		encoded, err := fn.Encoded()
		require.NoError(t, err)

		got = append(got, encoded)
	}

	assert.Equal(t, []string{
		"transfer(address,uint256)",
		"transfer(address,uint256)",
		"pay((address,uint256)[],uint8)",
		"balanceOf(address)",
		"burn(uint256)",
	}, got)
}

func TestEncodingsOfUserDefinedTypes(t *testing.T) {
	t.Parallel()

	input := `{"type": "SourceUnit", "children": [
		{"type": "TypeDefinition", "name": "Price", "definition": {"type": "ElementaryTypeName", "name": "uint128"}},
		{"type": "StructDefinition", "name": "Node", "members": [
			{"name": "value", "typeName": {"type": "ElementaryTypeName", "name": "uint"}},
			{"name": "children", "typeName": {"type": "ArrayTypeName", "baseTypeName": {"type": "UserDefinedTypeName", "namePath": "Node"}}}
		]},
		{"type": "ContractDefinition", "name": "Market", "subNodes": [
			{"type": "StructDefinition", "name": "Order", "members": [
				{"name": "maker", "typeName": {"type": "UserDefinedTypeName", "namePath": "Market"}},
				{"name": "price", "typeName": {"type": "UserDefinedTypeName", "namePath": "Price"}},
				{"name": "legs", "typeName": {"type": "ArrayTypeName", "baseTypeName": {"type": "ElementaryTypeName", "name": "bool"},
				                              "length": {"type": "NumberLiteral", "number": "2"}}}
			]},
			{"type": "FunctionDefinition", "name": "place", "visibility": "external", "loc": {"start": {"line": 4}},
			 "parameters": [{"name": "o", "storageLocation": "calldata", "typeName": {"type": "UserDefinedTypeName", "namePath": "Order"}}]},
			{"type": "FunctionDefinition", "name": "walk", "visibility": "external", "loc": {"start": {"line": 5}},
			 "parameters": [{"name": "n", "storageLocation": "memory", "typeName": {"type": "UserDefinedTypeName", "namePath": "Node"}}]}
		]}
	]}`

	tree, err := solast.Parse([]byte(input))
	require.NoError(t, err)

	fns, err := tree.Functions()
	require.NoError(t, err)
	require.Len(t, fns, 2)

	encoded, err := fns[0].Encoded()
	require.NoError(t, err)
	assert.Equal(t, "place((address,uint128,bool[2]))", encoded)

	minimal, err := fns[0].Minimal()
	require.NoError(t, err)
	assert.Equal(t, "place(Market.Order)", minimal)

	_, err = fns[1].Encoded()
	require.ErrorIs(t, err, signature.ErrUnsupportedType)
}
