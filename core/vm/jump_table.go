// Copyright 2015 The go-ethereum Authors
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

package vm

import (
	"github.com/bnb-chain/stepvm/params"
	"github.com/holiman/uint256"
)

type (
	executionFunc func(in *Instruction, f *frame) *control
	// gasFunc computes the patch dependent part of an instruction's price.
	// It may only read facts already required by the instruction's check.
	gasFunc func(patch Patch, in *Instruction, st *State) (uint64, error)
	// checkFunc reports the facts an instruction needs and, for jumps, the
	// destination to validate.
	checkFunc func(in *Instruction, st *State) (*uint256.Int, error)
	// memoryFunc returns the memory ranges an instruction touches, read
	// from its stack operands.
	memoryFunc func(stack *Stack) []memRange
)

// memRange is an (offset, size) pair of stack operands.
type memRange struct {
	offset *uint256.Int
	size   *uint256.Int
}

type operation struct {
	// execute is the operation function
	execute     executionFunc
	constantGas uint64
	dynamicGas  gasFunc
	check       checkFunc
	memory      memoryFunc

	// minStack tells how many stack items are required
	minStack int
	// maxStack specifies the max length the stack can have for this operation
	// to not overflow the stack.
	maxStack int
}

// JumpTable contains the operations of the instruction set.
type JumpTable [256]*operation

var jumpTable = newInstructionSet()

func minStack(pops, push int) int {
	return pops
}

func maxStack(pop, push int) int {
	return int(params.StackLimit) + pop - push
}

func minDupStack(n int) int {
	return n
}

func maxDupStack(n int) int {
	return int(params.StackLimit) + n - (n + 1)
}

func minSwapStack(n int) int {
	return minStack(n, n)
}

func maxSwapStack(n int) int {
	return maxStack(n, n)
}

// stackRange describes a range whose offset and size are the stack items at
// depth offset and size.
func stackRange(offset, size int) memoryFunc {
	return func(stack *Stack) []memRange {
		return []memRange{{offset: stack.back(offset), size: stack.back(size)}}
	}
}

// fixedRange describes a range of a constant size at the offset found at
// stack depth offset.
func fixedRange(offset int, size uint64) memoryFunc {
	length := uint256.NewInt(size)
	return func(stack *Stack) []memRange {
		return []memRange{{offset: stack.back(offset), size: length}}
	}
}

// callRanges describes the input and output ranges of a CALL-family
// instruction whose input offset lies at stack depth in.
func callRanges(in int) memoryFunc {
	return func(stack *Stack) []memRange {
		return []memRange{
			{offset: stack.back(in), size: stack.back(in + 1)},
			{offset: stack.back(in + 2), size: stack.back(in + 3)},
		}
	}
}

// newInstructionSet returns every instruction the machine knows. Whether an
// instruction may run is decided by the active Patch.
func newInstructionSet() JumpTable {
	tbl := JumpTable{
		STOP: {
			execute:     opStop,
			constantGas: 0,
			minStack:    minStack(0, 0),
			maxStack:    maxStack(0, 0),
		},
		ADD: {
			execute:     opAdd,
			constantGas: params.GasFastestStep,
			minStack:    minStack(2, 1),
			maxStack:    maxStack(2, 1),
		},
		MUL: {
			execute:     opMul,
			constantGas: params.GasFastStep,
			minStack:    minStack(2, 1),
			maxStack:    maxStack(2, 1),
		},
		SUB: {
			execute:     opSub,
			constantGas: params.GasFastestStep,
			minStack:    minStack(2, 1),
			maxStack:    maxStack(2, 1),
		},
		DIV: {
			execute:     opDiv,
			constantGas: params.GasFastStep,
			minStack:    minStack(2, 1),
			maxStack:    maxStack(2, 1),
		},
		SDIV: {
			execute:     opSdiv,
			constantGas: params.GasFastStep,
			minStack:    minStack(2, 1),
			maxStack:    maxStack(2, 1),
		},
		MOD: {
			execute:     opMod,
			constantGas: params.GasFastStep,
			minStack:    minStack(2, 1),
			maxStack:    maxStack(2, 1),
		},
		SMOD: {
			execute:     opSmod,
			constantGas: params.GasFastStep,
			minStack:    minStack(2, 1),
			maxStack:    maxStack(2, 1),
		},
		ADDMOD: {
			execute:     opAddmod,
			constantGas: params.GasMidStep,
			minStack:    minStack(3, 1),
			maxStack:    maxStack(3, 1),
		},
		MULMOD: {
			execute:     opMulmod,
			constantGas: params.GasMidStep,
			minStack:    minStack(3, 1),
			maxStack:    maxStack(3, 1),
		},
		EXP: {
			execute:     opExp,
			constantGas: params.ExpGas,
			dynamicGas:  gasExp,
			minStack:    minStack(2, 1),
			maxStack:    maxStack(2, 1),
		},
		SIGNEXTEND: {
			execute:     opSignExtend,
			constantGas: params.GasFastStep,
			minStack:    minStack(2, 1),
			maxStack:    maxStack(2, 1),
		},
		LT: {
			execute:     opLt,
			constantGas: params.GasFastestStep,
			minStack:    minStack(2, 1),
			maxStack:    maxStack(2, 1),
		},
		GT: {
			execute:     opGt,
			constantGas: params.GasFastestStep,
			minStack:    minStack(2, 1),
			maxStack:    maxStack(2, 1),
		},
		SLT: {
			execute:     opSlt,
			constantGas: params.GasFastestStep,
			minStack:    minStack(2, 1),
			maxStack:    maxStack(2, 1),
		},
		SGT: {
			execute:     opSgt,
			constantGas: params.GasFastestStep,
			minStack:    minStack(2, 1),
			maxStack:    maxStack(2, 1),
		},
		EQ: {
			execute:     opEq,
			constantGas: params.GasFastestStep,
			minStack:    minStack(2, 1),
			maxStack:    maxStack(2, 1),
		},
		ISZERO: {
			execute:     opIszero,
			constantGas: params.GasFastestStep,
			minStack:    minStack(1, 1),
			maxStack:    maxStack(1, 1),
		},
		AND: {
			execute:     opAnd,
			constantGas: params.GasFastestStep,
			minStack:    minStack(2, 1),
			maxStack:    maxStack(2, 1),
		},
		XOR: {
			execute:     opXor,
			constantGas: params.GasFastestStep,
			minStack:    minStack(2, 1),
			maxStack:    maxStack(2, 1),
		},
		OR: {
			execute:     opOr,
			constantGas: params.GasFastestStep,
			minStack:    minStack(2, 1),
			maxStack:    maxStack(2, 1),
		},
		NOT: {
			execute:     opNot,
			constantGas: params.GasFastestStep,
			minStack:    minStack(1, 1),
			maxStack:    maxStack(1, 1),
		},
		BYTE: {
			execute:     opByte,
			constantGas: params.GasFastestStep,
			minStack:    minStack(2, 1),
			maxStack:    maxStack(2, 1),
		},
		SHL: {
			execute:     opSHL,
			constantGas: params.GasFastestStep,
			minStack:    minStack(2, 1),
			maxStack:    maxStack(2, 1),
		},
		SHR: {
			execute:     opSHR,
			constantGas: params.GasFastestStep,
			minStack:    minStack(2, 1),
			maxStack:    maxStack(2, 1),
		},
		SAR: {
			execute:     opSAR,
			constantGas: params.GasFastestStep,
			minStack:    minStack(2, 1),
			maxStack:    maxStack(2, 1),
		},
		KECCAK256: {
			execute:     opKeccak256,
			constantGas: params.Keccak256Gas,
			dynamicGas:  gasKeccak256,
			memory:      stackRange(0, 1),
			minStack:    minStack(2, 1),
			maxStack:    maxStack(2, 1),
		},
		ADDRESS: {
			execute:     opAddress,
			constantGas: params.GasQuickStep,
			minStack:    minStack(0, 1),
			maxStack:    maxStack(0, 1),
		},
		BALANCE: {
			execute:    opBalance,
			dynamicGas: gasBalance,
			check:      checkBalance,
			minStack:   minStack(1, 1),
			maxStack:   maxStack(1, 1),
		},
		ORIGIN: {
			execute:     opOrigin,
			constantGas: params.GasQuickStep,
			minStack:    minStack(0, 1),
			maxStack:    maxStack(0, 1),
		},
		CALLER: {
			execute:     opCaller,
			constantGas: params.GasQuickStep,
			minStack:    minStack(0, 1),
			maxStack:    maxStack(0, 1),
		},
		CALLVALUE: {
			execute:     opCallValue,
			constantGas: params.GasQuickStep,
			minStack:    minStack(0, 1),
			maxStack:    maxStack(0, 1),
		},
		CALLDATALOAD: {
			execute:     opCallDataLoad,
			constantGas: params.GasFastestStep,
			minStack:    minStack(1, 1),
			maxStack:    maxStack(1, 1),
		},
		CALLDATASIZE: {
			execute:     opCallDataSize,
			constantGas: params.GasQuickStep,
			minStack:    minStack(0, 1),
			maxStack:    maxStack(0, 1),
		},
		CALLDATACOPY: {
			execute:     opCallDataCopy,
			constantGas: params.GasFastestStep,
			dynamicGas:  gasCopy,
			memory:      stackRange(0, 2),
			minStack:    minStack(3, 0),
			maxStack:    maxStack(3, 0),
		},
		CODESIZE: {
			execute:     opCodeSize,
			constantGas: params.GasQuickStep,
			minStack:    minStack(0, 1),
			maxStack:    maxStack(0, 1),
		},
		CODECOPY: {
			execute:     opCodeCopy,
			constantGas: params.GasFastestStep,
			dynamicGas:  gasCopy,
			memory:      stackRange(0, 2),
			minStack:    minStack(3, 0),
			maxStack:    maxStack(3, 0),
		},
		GASPRICE: {
			execute:     opGasprice,
			constantGas: params.GasQuickStep,
			minStack:    minStack(0, 1),
			maxStack:    maxStack(0, 1),
		},
		EXTCODESIZE: {
			execute:    opExtCodeSize,
			dynamicGas: gasExtCodeSize,
			check:      checkExtCode,
			minStack:   minStack(1, 1),
			maxStack:   maxStack(1, 1),
		},
		EXTCODECOPY: {
			execute:    opExtCodeCopy,
			dynamicGas: gasExtCodeCopy,
			check:      checkExtCode,
			memory:     stackRange(1, 3),
			minStack:   minStack(4, 0),
			maxStack:   maxStack(4, 0),
		},
		BLOCKHASH: {
			execute:     opBlockhash,
			constantGas: params.BlockhashGas,
			check:       checkBlockhash,
			minStack:    minStack(1, 1),
			maxStack:    maxStack(1, 1),
		},
		COINBASE: {
			execute:     opCoinbase,
			constantGas: params.GasQuickStep,
			minStack:    minStack(0, 1),
			maxStack:    maxStack(0, 1),
		},
		TIMESTAMP: {
			execute:     opTimestamp,
			constantGas: params.GasQuickStep,
			minStack:    minStack(0, 1),
			maxStack:    maxStack(0, 1),
		},
		NUMBER: {
			execute:     opNumber,
			constantGas: params.GasQuickStep,
			minStack:    minStack(0, 1),
			maxStack:    maxStack(0, 1),
		},
		DIFFICULTY: {
			execute:     opDifficulty,
			constantGas: params.GasQuickStep,
			minStack:    minStack(0, 1),
			maxStack:    maxStack(0, 1),
		},
		GASLIMIT: {
			execute:     opGasLimit,
			constantGas: params.GasQuickStep,
			minStack:    minStack(0, 1),
			maxStack:    maxStack(0, 1),
		},
		POP: {
			execute:     opPop,
			constantGas: params.GasQuickStep,
			minStack:    minStack(1, 0),
			maxStack:    maxStack(1, 0),
		},
		MLOAD: {
			execute:     opMload,
			constantGas: params.GasFastestStep,
			memory:      fixedRange(0, 32),
			minStack:    minStack(1, 1),
			maxStack:    maxStack(1, 1),
		},
		MSTORE: {
			execute:     opMstore,
			constantGas: params.GasFastestStep,
			memory:      fixedRange(0, 32),
			minStack:    minStack(2, 0),
			maxStack:    maxStack(2, 0),
		},
		MSTORE8: {
			execute:     opMstore8,
			constantGas: params.GasFastestStep,
			memory:      fixedRange(0, 1),
			minStack:    minStack(2, 0),
			maxStack:    maxStack(2, 0),
		},
		SLOAD: {
			execute:    opSload,
			dynamicGas: gasSLoad,
			check:      checkStorage,
			minStack:   minStack(1, 1),
			maxStack:   maxStack(1, 1),
		},
		SSTORE: {
			execute:    opSstore,
			dynamicGas: gasSStore,
			check:      checkStorage,
			minStack:   minStack(2, 0),
			maxStack:   maxStack(2, 0),
		},
		JUMP: {
			execute:     opJump,
			constantGas: params.GasMidStep,
			check:       checkJump,
			minStack:    minStack(1, 0),
			maxStack:    maxStack(1, 0),
		},
		JUMPI: {
			execute:     opJumpi,
			constantGas: params.GasSlowStep,
			check:       checkJumpi,
			minStack:    minStack(2, 0),
			maxStack:    maxStack(2, 0),
		},
		PC: {
			execute:     opPc,
			constantGas: params.GasQuickStep,
			minStack:    minStack(0, 1),
			maxStack:    maxStack(0, 1),
		},
		MSIZE: {
			execute:     opMsize,
			constantGas: params.GasQuickStep,
			minStack:    minStack(0, 1),
			maxStack:    maxStack(0, 1),
		},
		GAS: {
			execute:     opGas,
			constantGas: params.GasQuickStep,
			minStack:    minStack(0, 1),
			maxStack:    maxStack(0, 1),
		},
		JUMPDEST: {
			execute:     opJumpdest,
			constantGas: params.JumpdestGas,
			minStack:    minStack(0, 0),
			maxStack:    maxStack(0, 0),
		},
		CREATE: {
			execute:     opCreate,
			constantGas: params.CreateGas,
			check:       checkCreate,
			memory:      stackRange(1, 2),
			minStack:    minStack(3, 1),
			maxStack:    maxStack(3, 1),
		},
		CALL: {
			execute:    opCall,
			dynamicGas: gasCall,
			check:      checkCall,
			memory:     callRanges(3),
			minStack:   minStack(7, 1),
			maxStack:   maxStack(7, 1),
		},
		CALLCODE: {
			execute:    opCallCode,
			dynamicGas: gasCallCode,
			check:      checkCallCode,
			memory:     callRanges(3),
			minStack:   minStack(7, 1),
			maxStack:   maxStack(7, 1),
		},
		RETURN: {
			execute:  opReturn,
			memory:   stackRange(0, 1),
			minStack: minStack(2, 0),
			maxStack: maxStack(2, 0),
		},
		DELEGATECALL: {
			execute:    opDelegateCall,
			dynamicGas: gasDelegateCall,
			check:      checkDelegateCall,
			memory:     callRanges(2),
			minStack:   minStack(6, 1),
			maxStack:   maxStack(6, 1),
		},
		SELFDESTRUCT: {
			execute:    opSelfdestruct,
			dynamicGas: gasSelfdestruct,
			check:      checkSelfdestruct,
			minStack:   minStack(1, 0),
			maxStack:   maxStack(1, 0),
		},
	}
	for i := 0; i < 32; i++ {
		tbl[PUSH1+OpCode(i)] = &operation{
			execute:     opPush,
			constantGas: params.GasFastestStep,
			minStack:    minStack(0, 1),
			maxStack:    maxStack(0, 1),
		}
	}
	for i := 1; i <= 16; i++ {
		tbl[DUP1+OpCode(i-1)] = &operation{
			execute:     makeDup(i),
			constantGas: params.GasFastestStep,
			minStack:    minDupStack(i),
			maxStack:    maxDupStack(i),
		}
		tbl[SWAP1+OpCode(i-1)] = &operation{
			execute:     makeSwap(i),
			constantGas: params.GasFastestStep,
			minStack:    minSwapStack(i + 1),
			maxStack:    maxSwapStack(i + 1),
		}
	}
	for i := 0; i <= 4; i++ {
		tbl[LOG0+OpCode(i)] = &operation{
			execute:    makeLog(i),
			dynamicGas: makeGasLog(uint64(i)),
			memory:     stackRange(0, 1),
			minStack:   minStack(i+2, 0),
			maxStack:   maxStack(i+2, 0),
		}
	}
	return tbl
}
