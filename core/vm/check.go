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

package vm

import (
	"github.com/bnb-chain/stepvm/params"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// checkOpcode validates an instruction against the current state without
// modifying it. It fails with an OnChainError when the instruction cannot
// run, or with a *RequireError when a fact it reads is missing. For a jump
// that will be taken the unvalidated destination is returned.
func checkOpcode(op *operation, in *Instruction, st *State) (*uint256.Int, error) {
	if sLen := st.Stack.Len(); sLen < op.minStack {
		return nil, ErrStackUnderflow
	} else if sLen > op.maxStack {
		return nil, ErrStackOverflow
	}
	if op.memory != nil {
		for _, r := range op.memory(st.Stack) {
			if r.size.IsZero() {
				continue
			}
			if _, overflow := new(uint256.Int).AddOverflow(r.offset, r.size); overflow {
				return nil, ErrInvalidRange
			}
		}
	}
	if op.check == nil {
		return nil, nil
	}
	return op.check(in, st)
}

// checkSupport rejects instructions the patch does not enable and memory
// beyond what the host supports.
func checkSupport(patch Patch, in *Instruction, words uint64) error {
	if !patch.Enabled(in.Op) {
		return ErrOpcodeNotSupported
	}
	if words*32 > patch.MemoryLimit() {
		return ErrMemoryIndexNotSupported
	}
	return nil
}

// extraCheckOpcode validates what depends on the gas left once the
// instruction is paid for.
func extraCheckOpcode(patch Patch, in *Instruction, st *State, afterGas uint64) error {
	switch in.Op {
	case CALL, CALLCODE, DELEGATECALL:
		if patch.ErrOnCallWithMoreGas() {
			if gas := st.Stack.back(0); !gas.IsUint64() || gas.Uint64() > afterGas {
				return ErrEmptyGas
			}
		}
	}
	return nil
}

func stackAddress(st *State, n int) common.Address {
	return common.Address(st.Stack.back(n).Bytes20())
}

func checkBalance(in *Instruction, st *State) (*uint256.Int, error) {
	return nil, st.AccountState.Require(stackAddress(st, 0))
}

func checkExtCode(in *Instruction, st *State) (*uint256.Int, error) {
	return nil, st.AccountState.RequireCode(stackAddress(st, 0))
}

// blockhashWindow reports whether number is one of the ancestors visible to
// BLOCKHASH from the current block.
func blockhashWindow(number *uint256.Int, current uint64) (uint64, bool) {
	num, overflow := number.Uint64WithOverflow()
	if overflow {
		return 0, false
	}
	var lower uint64
	if current > params.BlockhashWindow {
		lower = current - params.BlockhashWindow
	}
	return num, num >= lower && num < current
}

func checkBlockhash(in *Instruction, st *State) (*uint256.Int, error) {
	if num, ok := blockhashWindow(st.Stack.back(0), st.Block.Number); ok {
		if _, err := st.BlockhashState.Get(num); err != nil {
			return nil, err
		}
	}
	return nil, nil
}

func checkStorage(in *Instruction, st *State) (*uint256.Int, error) {
	return nil, st.AccountState.RequireStorage(st.Context.Address, st.Stack.back(0))
}

func checkJump(in *Instruction, st *State) (*uint256.Int, error) {
	return new(uint256.Int).Set(st.Stack.back(0)), nil
}

func checkJumpi(in *Instruction, st *State) (*uint256.Int, error) {
	if st.Stack.back(1).IsZero() {
		return nil, nil
	}
	return new(uint256.Int).Set(st.Stack.back(0)), nil
}

func checkCreate(in *Instruction, st *State) (*uint256.Int, error) {
	return nil, st.AccountState.Require(st.Context.Address)
}

func checkCall(in *Instruction, st *State) (*uint256.Int, error) {
	if err := st.AccountState.Require(st.Context.Address); err != nil {
		return nil, err
	}
	return nil, st.AccountState.Require(stackAddress(st, 1))
}

func checkCallCode(in *Instruction, st *State) (*uint256.Int, error) {
	if err := st.AccountState.Require(st.Context.Address); err != nil {
		return nil, err
	}
	return nil, st.AccountState.RequireCode(stackAddress(st, 1))
}

func checkDelegateCall(in *Instruction, st *State) (*uint256.Int, error) {
	return nil, st.AccountState.RequireCode(stackAddress(st, 1))
}

func checkSelfdestruct(in *Instruction, st *State) (*uint256.Int, error) {
	if err := st.AccountState.Require(st.Context.Address); err != nil {
		return nil, err
	}
	return nil, st.AccountState.Require(stackAddress(st, 0))
}
