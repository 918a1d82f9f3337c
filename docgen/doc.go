// Package docgen renders Markdown interface references from NatSpec
// comments.
//
// Each [Unit] pairs a flattened Solidity source, its syntax tree and the
// compiled ABI. Functions from the tree are documented by scanning the
// comment block above their declaration ([Candidates]), reconciled with the
// ABI by minimal signature ([Match]) and formatted in display-signature
// order ([Render]). Documentation problems never stop a run: they are
// collected in a [Report] and surface as [ErrViolations] once every unit has
// been written.
//
// Units are usually declared in a YAML [Manifest]; [Config] binds the CLI
// flags that override it.
package docgen
