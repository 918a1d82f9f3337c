// Package signature canonicalizes Solidity function signatures so that
// functions recovered from a parse tree can be compared with the entries of
// a compiled ABI.
//
// Two forms are produced. The minimal form ([Minimal]) is the function name
// followed by its normalized parameter types, e.g. "transfer(address,uint256)",
// and is the matching key between parsed candidates and the ABI. The display
// form ([Display]) keeps storage locations, parameter names and return
// parameters, e.g. "balanceOf(address owner):uint256 balance", and is used
// for headings and as the document sort key.
package signature
