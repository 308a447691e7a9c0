// Copyright 2025 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

package params

const (
	StackLimit      uint64 = 1024 // Maximum size of VM stack allowed.
	CallCreateDepth uint64 = 1024 // Maximum depth of call/create stack.

	// MemoryLimit is the largest memory, in bytes, a single frame may address
	// before execution is reported as unsupported by the host.
	MemoryLimit uint64 = 0x1FFFFFFFE0

	GasQuickStep   uint64 = 2
	GasFastestStep uint64 = 3
	GasFastStep    uint64 = 5
	GasMidStep     uint64 = 8
	GasSlowStep    uint64 = 10
	GasExtStep     uint64 = 20

	ExpGas           uint64 = 10  // Once per EXP instruction
	Keccak256Gas     uint64 = 30  // Once per KECCAK256 operation.
	Keccak256WordGas uint64 = 6   // Once per word of the KECCAK256 operation's data.
	CopyGas          uint64 = 3   // Multiplied by the number of 32-byte words that are copied (round up) for any *COPY operation and added.
	JumpdestGas      uint64 = 1   // Once per JUMPDEST operation.
	LogGas           uint64 = 375 // Per LOG* operation.
	LogDataGas       uint64 = 8   // Per byte in a LOG* operation's data.
	LogTopicGas      uint64 = 375 // Multiplied by the * of the LOG*, per LOG transaction. e.g. LOG0 incurs 0 * c_txLogTopicGas, LOG4 incurs 4 * c_txLogTopicGas.
	MemoryGas        uint64 = 3   // Times the address of the (highest referenced byte in memory + 1). NOTE: referencing happens on read, write and in instructions such as RETURN and CALL.
	QuadCoeffDiv     uint64 = 512 // Divisor for the quadratic particle of the memory cost equation.
	BlockhashGas     uint64 = 20  // Once per BLOCKHASH operation.

	SstoreSetGas      uint64 = 20000 // Once per SSTORE operation that sets a zero slot to non-zero.
	SstoreResetGas    uint64 = 5000  // Once per SSTORE operation if the zeroness does not change from zero.
	SstoreClearRefund uint64 = 15000 // Refunded once per SSTORE operation if the zeroness changes to zero.
	SuicideRefundGas  uint64 = 24000 // Refunded following a suicide operation.

	CreateGas            uint64 = 32000 // Once per CREATE operation & contract-creation transaction.
	CreateDataGas        uint64 = 200   // Per byte of deposited contract code.
	CallValueTransferGas uint64 = 9000  // Paid for CALL when the value transfer is non-zero.
	CallNewAccountGas    uint64 = 25000 // Paid for CALL when the destination address didn't exist prior.
	CallStipend          uint64 = 2300  // Free gas given at beginning of call.

	// Precompiled contract gas prices

	EcrecoverGas        uint64 = 3000 // Elliptic curve sender recovery gas price
	Sha256BaseGas       uint64 = 60   // Base price for a SHA256 operation
	Sha256PerWordGas    uint64 = 12   // Per-word price for a SHA256 operation
	Ripemd160BaseGas    uint64 = 600  // Base price for a RIPEMD160 operation
	Ripemd160PerWordGas uint64 = 120  // Per-word price for a RIPEMD160 operation
	IdentityBaseGas     uint64 = 15   // Base price for a data copy operation
	IdentityPerWordGas  uint64 = 3    // Per-work price for a data copy operation

	// BlockhashWindow is how many ancestors BLOCKHASH can see.
	BlockhashWindow uint64 = 256
)
