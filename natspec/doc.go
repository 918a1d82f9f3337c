// Package natspec recovers NatSpec documentation from the "///" comment
// block that precedes a Solidity function declaration.
//
// Four tags are recognized: @notice, @dev, @param and @return. A
// [Scanner] walks upward from the declaration to the @notice line, skipping
// tooling directives such as "// slither-disable-next-line", then reads the
// block forward. Comment lines that carry no tag continue the text of the
// tag above them.
//
//	/// @notice Transfers tokens
//	///  to another account.
//	/// @param to Recipient
//	// slither-disable-next-line reentrancy-eth
//	function transfer(address to) external;
package natspec
