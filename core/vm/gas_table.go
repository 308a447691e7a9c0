// Copyright 2017 The go-ethereum Authors
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
	"math"
	"slices"

	"github.com/bnb-chain/stepvm/params"
	"github.com/ethereum/go-ethereum/common"
	cmath "github.com/ethereum/go-ethereum/common/math"
	"github.com/holiman/uint256"
)

// maxMemorySize is the largest memory, in bytes, whose price still fits in
// a uint64.
const maxMemorySize = 0x1FFFFFFFE0

// toWordSize returns the ceiled word size required for memory expansion.
func toWordSize(size uint64) uint64 {
	if size > math.MaxUint64-31 {
		return math.MaxUint64/32 + 1
	}
	return (size + 31) / 32
}

// memoryGas returns the price of a memory of the given number of words.
// The caller guarantees words*32 <= maxMemorySize.
func memoryGas(words uint64) uint64 {
	return words*params.MemoryGas + words*words/params.QuadCoeffDiv
}

// memoryCost returns the memory size, in words, once the instruction has
// run. Memory never shrinks, and a zero-length range never grows it.
func memoryCost(op *operation, st *State) (uint64, error) {
	words := st.MemoryCost
	if op.memory == nil {
		return words, nil
	}
	for _, r := range op.memory(st.Stack) {
		if r.size.IsZero() {
			continue
		}
		end, overflow := new(uint256.Int).AddOverflow(r.offset, r.size)
		if overflow || !end.IsUint64() || end.Uint64() > maxMemorySize {
			return 0, ErrEmptyGas
		}
		if w := toWordSize(end.Uint64()); w > words {
			words = w
		}
	}
	return words, nil
}

// gasCost returns the price of the instruction, excluding memory growth.
func gasCost(patch Patch, op *operation, in *Instruction, st *State) (uint64, error) {
	gas := op.constantGas
	if op.dynamicGas == nil {
		return gas, nil
	}
	dynamic, err := op.dynamicGas(patch, in, st)
	if err != nil {
		return 0, err
	}
	var overflow bool
	if gas, overflow = cmath.SafeAdd(gas, dynamic); overflow {
		return 0, ErrEmptyGas
	}
	return gas, nil
}

// gasStipend returns the gas given to a callee for free on top of what the
// caller forwards.
func gasStipend(in *Instruction, st *State) uint64 {
	switch in.Op {
	case CALL, CALLCODE:
		if !st.Stack.back(2).IsZero() {
			return params.CallStipend
		}
	}
	return 0
}

// gasRefund returns the gas credited back to the transaction at its end.
func gasRefund(in *Instruction, st *State) (uint64, error) {
	switch in.Op {
	case SSTORE:
		current, err := st.AccountState.StorageAt(st.Context.Address, st.Stack.back(0))
		if err != nil {
			return 0, err
		}
		if st.Stack.back(1).IsZero() && !current.IsZero() {
			return params.SstoreClearRefund, nil
		}
	case SELFDESTRUCT:
		if !slices.Contains(st.Removed, st.Context.Address) {
			return params.SuicideRefundGas, nil
		}
	}
	return 0, nil
}

// wordGas returns the per-word price of size bytes.
func wordGas(size *uint256.Int, perWord uint64) (uint64, error) {
	if !size.IsUint64() {
		return 0, ErrEmptyGas
	}
	gas, overflow := cmath.SafeMul(toWordSize(size.Uint64()), perWord)
	if overflow {
		return 0, ErrEmptyGas
	}
	return gas, nil
}

func gasExp(patch Patch, in *Instruction, st *State) (uint64, error) {
	expByteLen := uint64((st.Stack.back(1).BitLen() + 7) / 8)
	return expByteLen * patch.GasTable().ExpByte, nil
}

func gasKeccak256(patch Patch, in *Instruction, st *State) (uint64, error) {
	return wordGas(st.Stack.back(1), params.Keccak256WordGas)
}

func gasCopy(patch Patch, in *Instruction, st *State) (uint64, error) {
	return wordGas(st.Stack.back(2), params.CopyGas)
}

func gasExtCodeCopy(patch Patch, in *Instruction, st *State) (uint64, error) {
	gas, err := wordGas(st.Stack.back(3), params.CopyGas)
	if err != nil {
		return 0, err
	}
	var overflow bool
	if gas, overflow = cmath.SafeAdd(gas, patch.GasTable().ExtcodeCopy); overflow {
		return 0, ErrEmptyGas
	}
	return gas, nil
}

func gasExtCodeSize(patch Patch, in *Instruction, st *State) (uint64, error) {
	return patch.GasTable().ExtcodeSize, nil
}

func gasBalance(patch Patch, in *Instruction, st *State) (uint64, error) {
	return patch.GasTable().Balance, nil
}

func gasSLoad(patch Patch, in *Instruction, st *State) (uint64, error) {
	return patch.GasTable().SLoad, nil
}

func gasSStore(patch Patch, in *Instruction, st *State) (uint64, error) {
	current, err := st.AccountState.StorageAt(st.Context.Address, st.Stack.back(0))
	if err != nil {
		return 0, err
	}
	// The legacy gas metering only takes into consideration the current state
	if current.IsZero() && !st.Stack.back(1).IsZero() {
		return params.SstoreSetGas, nil
	}
	return params.SstoreResetGas, nil
}

func makeGasLog(n uint64) gasFunc {
	return func(patch Patch, in *Instruction, st *State) (uint64, error) {
		requestedSize := st.Stack.back(1)
		if !requestedSize.IsUint64() {
			return 0, ErrEmptyGas
		}
		gas := params.LogGas + n*params.LogTopicGas
		dataGas, overflow := cmath.SafeMul(requestedSize.Uint64(), params.LogDataGas)
		if overflow {
			return 0, ErrEmptyGas
		}
		if gas, overflow = cmath.SafeAdd(gas, dataGas); overflow {
			return 0, ErrEmptyGas
		}
		return gas, nil
	}
}

func gasCall(patch Patch, in *Instruction, st *State) (uint64, error) {
	gas := patch.GasTable().Calls
	if !st.Stack.back(2).IsZero() {
		gas += params.CallValueTransferGas
	}
	exists, err := st.AccountState.Exists(common.Address(st.Stack.back(1).Bytes20()))
	if err != nil {
		return 0, err
	}
	if !exists {
		gas += params.CallNewAccountGas
	}
	return gas, nil
}

func gasCallCode(patch Patch, in *Instruction, st *State) (uint64, error) {
	gas := patch.GasTable().Calls
	if !st.Stack.back(2).IsZero() {
		gas += params.CallValueTransferGas
	}
	return gas, nil
}

func gasDelegateCall(patch Patch, in *Instruction, st *State) (uint64, error) {
	return patch.GasTable().Calls, nil
}

func gasSelfdestruct(patch Patch, in *Instruction, st *State) (uint64, error) {
	gt := patch.GasTable()
	gas := gt.Suicide
	if gt.CreateBySuicide > 0 {
		exists, err := st.AccountState.Exists(common.Address(st.Stack.back(0).Bytes20()))
		if err != nil {
			return 0, err
		}
		if !exists {
			gas += gt.CreateBySuicide
		}
	}
	return gas, nil
}
