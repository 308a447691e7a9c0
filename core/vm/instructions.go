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
	"math"
	"slices"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
)

// frame is what an instruction sees while it executes.
type frame struct {
	state    *State
	patch    Patch
	pc       uint64 // position of the executing instruction
	afterGas uint64 // gas left once the instruction is paid for
	stipend  uint64
}

type controlKind uint8

const (
	controlStop controlKind = iota
	controlJump
	controlInvokeCreate
	controlInvokeCall
)

// control is how an instruction asks the machine to leave the straight
// line of execution.
type control struct {
	kind      controlKind
	dest      uint64
	context   *Context
	outOffset uint64
	outLength uint64
}

var stopControl = &control{kind: controlStop}

func opAdd(in *Instruction, f *frame) *control {
	x, y := f.state.Stack.pop(), f.state.Stack.peek()
	y.Add(&x, y)
	return nil
}

func opSub(in *Instruction, f *frame) *control {
	x, y := f.state.Stack.pop(), f.state.Stack.peek()
	y.Sub(&x, y)
	return nil
}

func opMul(in *Instruction, f *frame) *control {
	x, y := f.state.Stack.pop(), f.state.Stack.peek()
	y.Mul(&x, y)
	return nil
}

func opDiv(in *Instruction, f *frame) *control {
	x, y := f.state.Stack.pop(), f.state.Stack.peek()
	y.Div(&x, y)
	return nil
}

func opSdiv(in *Instruction, f *frame) *control {
	x, y := f.state.Stack.pop(), f.state.Stack.peek()
	y.SDiv(&x, y)
	return nil
}

func opMod(in *Instruction, f *frame) *control {
	x, y := f.state.Stack.pop(), f.state.Stack.peek()
	y.Mod(&x, y)
	return nil
}

func opSmod(in *Instruction, f *frame) *control {
	x, y := f.state.Stack.pop(), f.state.Stack.peek()
	y.SMod(&x, y)
	return nil
}

func opExp(in *Instruction, f *frame) *control {
	base, exponent := f.state.Stack.pop(), f.state.Stack.peek()
	exponent.Exp(&base, exponent)
	return nil
}

func opSignExtend(in *Instruction, f *frame) *control {
	back, num := f.state.Stack.pop(), f.state.Stack.peek()
	num.ExtendSign(num, &back)
	return nil
}

func opNot(in *Instruction, f *frame) *control {
	x := f.state.Stack.peek()
	x.Not(x)
	return nil
}

func opLt(in *Instruction, f *frame) *control {
	x, y := f.state.Stack.pop(), f.state.Stack.peek()
	if x.Lt(y) {
		y.SetOne()
	} else {
		y.Clear()
	}
	return nil
}

func opGt(in *Instruction, f *frame) *control {
	x, y := f.state.Stack.pop(), f.state.Stack.peek()
	if x.Gt(y) {
		y.SetOne()
	} else {
		y.Clear()
	}
	return nil
}

func opSlt(in *Instruction, f *frame) *control {
	x, y := f.state.Stack.pop(), f.state.Stack.peek()
	if x.Slt(y) {
		y.SetOne()
	} else {
		y.Clear()
	}
	return nil
}

func opSgt(in *Instruction, f *frame) *control {
	x, y := f.state.Stack.pop(), f.state.Stack.peek()
	if x.Sgt(y) {
		y.SetOne()
	} else {
		y.Clear()
	}
	return nil
}

func opEq(in *Instruction, f *frame) *control {
	x, y := f.state.Stack.pop(), f.state.Stack.peek()
	if x.Eq(y) {
		y.SetOne()
	} else {
		y.Clear()
	}
	return nil
}

func opIszero(in *Instruction, f *frame) *control {
	x := f.state.Stack.peek()
	if x.IsZero() {
		x.SetOne()
	} else {
		x.Clear()
	}
	return nil
}

func opAnd(in *Instruction, f *frame) *control {
	x, y := f.state.Stack.pop(), f.state.Stack.peek()
	y.And(&x, y)
	return nil
}

func opOr(in *Instruction, f *frame) *control {
	x, y := f.state.Stack.pop(), f.state.Stack.peek()
	y.Or(&x, y)
	return nil
}

func opXor(in *Instruction, f *frame) *control {
	x, y := f.state.Stack.pop(), f.state.Stack.peek()
	y.Xor(&x, y)
	return nil
}

func opByte(in *Instruction, f *frame) *control {
	th, val := f.state.Stack.pop(), f.state.Stack.peek()
	val.Byte(&th)
	return nil
}

func opAddmod(in *Instruction, f *frame) *control {
	x, y, z := f.state.Stack.pop(), f.state.Stack.pop(), f.state.Stack.peek()
	if z.IsZero() {
		z.Clear()
	} else {
		z.AddMod(&x, &y, z)
	}
	return nil
}

func opMulmod(in *Instruction, f *frame) *control {
	x, y, z := f.state.Stack.pop(), f.state.Stack.pop(), f.state.Stack.peek()
	z.MulMod(&x, &y, z)
	return nil
}

// opSHL implements Shift Left
// The SHL instruction (shift left) pops 2 values from the stack, first arg1 and then arg2,
// and pushes on the stack arg2 shifted to the left by arg1 number of bits.
func opSHL(in *Instruction, f *frame) *control {
	// Note, second operand is left in the stack; accumulate result into it, and no need to push it afterwards
	shift, value := f.state.Stack.pop(), f.state.Stack.peek()
	if shift.LtUint64(256) {
		value.Lsh(value, uint(shift.Uint64()))
	} else {
		value.Clear()
	}
	return nil
}

// opSHR implements Logical Shift Right
// The SHR instruction (logical shift right) pops 2 values from the stack, first arg1 and then arg2,
// and pushes on the stack arg2 shifted to the right by arg1 number of bits with zero fill.
func opSHR(in *Instruction, f *frame) *control {
	// Note, second operand is left in the stack; accumulate result into it, and no need to push it afterwards
	shift, value := f.state.Stack.pop(), f.state.Stack.peek()
	if shift.LtUint64(256) {
		value.Rsh(value, uint(shift.Uint64()))
	} else {
		value.Clear()
	}
	return nil
}

// opSAR implements Arithmetic Shift Right
// The SAR instruction (arithmetic shift right) pops 2 values from the stack, first arg1 and then arg2,
// and pushes on the stack arg2 shifted to the right by arg1 number of bits with sign extension.
func opSAR(in *Instruction, f *frame) *control {
	shift, value := f.state.Stack.pop(), f.state.Stack.peek()
	if shift.GtUint64(255) {
		if value.Sign() >= 0 {
			value.Clear()
		} else {
			// Max negative shift: all bits set
			value.SetAllOne()
		}
		return nil
	}
	n := uint(shift.Uint64())
	value.SRsh(value, n)
	return nil
}

func opKeccak256(in *Instruction, f *frame) *control {
	offset, size := f.state.Stack.pop(), f.state.Stack.peek()
	data := f.state.Memory.GetPtr(offset.Uint64(), size.Uint64())
	size.SetBytes(crypto.Keccak256(data))
	return nil
}

func opAddress(in *Instruction, f *frame) *control {
	f.state.Stack.push(new(uint256.Int).SetBytes(f.state.Context.Address.Bytes()))
	return nil
}

func opBalance(in *Instruction, f *frame) *control {
	slot := f.state.Stack.peek()
	address := common.Address(slot.Bytes20())
	balance, _ := f.state.AccountState.Balance(address)
	slot.Set(&balance)
	return nil
}

func opOrigin(in *Instruction, f *frame) *control {
	f.state.Stack.push(new(uint256.Int).SetBytes(f.state.Context.Origin.Bytes()))
	return nil
}

func opCaller(in *Instruction, f *frame) *control {
	f.state.Stack.push(new(uint256.Int).SetBytes(f.state.Context.Caller.Bytes()))
	return nil
}

func opCallValue(in *Instruction, f *frame) *control {
	f.state.Stack.push(&f.state.Context.ApparentValue)
	return nil
}

func opCallDataLoad(in *Instruction, f *frame) *control {
	x := f.state.Stack.peek()
	if offset, overflow := x.Uint64WithOverflow(); !overflow {
		data := getData(f.state.Context.Data, offset, 32)
		x.SetBytes(data)
	} else {
		x.Clear()
	}
	return nil
}

func opCallDataSize(in *Instruction, f *frame) *control {
	f.state.Stack.push(new(uint256.Int).SetUint64(uint64(len(f.state.Context.Data))))
	return nil
}

func opCallDataCopy(in *Instruction, f *frame) *control {
	var (
		memOffset  = f.state.Stack.pop()
		dataOffset = f.state.Stack.pop()
		length     = f.state.Stack.pop()
	)
	dataOffset64, overflow := dataOffset.Uint64WithOverflow()
	if overflow {
		dataOffset64 = math.MaxUint64
	}
	// These values are checked for validity during the gas cost calculation
	memOffset64 := memOffset.Uint64()
	length64 := length.Uint64()
	f.state.Memory.Set(memOffset64, length64, getData(f.state.Context.Data, dataOffset64, length64))
	return nil
}

func opCodeSize(in *Instruction, f *frame) *control {
	f.state.Stack.push(new(uint256.Int).SetUint64(uint64(len(f.state.Context.Code))))
	return nil
}

func opCodeCopy(in *Instruction, f *frame) *control {
	var (
		memOffset  = f.state.Stack.pop()
		codeOffset = f.state.Stack.pop()
		length     = f.state.Stack.pop()
	)
	uint64CodeOffset, overflow := codeOffset.Uint64WithOverflow()
	if overflow {
		uint64CodeOffset = math.MaxUint64
	}
	codeCopy := getData(f.state.Context.Code, uint64CodeOffset, length.Uint64())
	f.state.Memory.Set(memOffset.Uint64(), length.Uint64(), codeCopy)
	return nil
}

func opGasprice(in *Instruction, f *frame) *control {
	f.state.Stack.push(&f.state.Context.GasPrice)
	return nil
}

func opExtCodeSize(in *Instruction, f *frame) *control {
	slot := f.state.Stack.peek()
	code, _ := f.state.AccountState.Code(common.Address(slot.Bytes20()))
	slot.SetUint64(uint64(len(code)))
	return nil
}

func opExtCodeCopy(in *Instruction, f *frame) *control {
	var (
		stack      = f.state.Stack
		a          = stack.pop()
		memOffset  = stack.pop()
		codeOffset = stack.pop()
		length     = stack.pop()
	)
	uint64CodeOffset, overflow := codeOffset.Uint64WithOverflow()
	if overflow {
		uint64CodeOffset = math.MaxUint64
	}
	code, _ := f.state.AccountState.Code(common.Address(a.Bytes20()))
	codeCopy := getData(code, uint64CodeOffset, length.Uint64())
	f.state.Memory.Set(memOffset.Uint64(), length.Uint64(), codeCopy)
	return nil
}

func opBlockhash(in *Instruction, f *frame) *control {
	num := f.state.Stack.peek()
	if num64, ok := blockhashWindow(num, f.state.Block.Number); ok {
		hash, _ := f.state.BlockhashState.Get(num64)
		num.SetBytes(hash[:])
	} else {
		num.Clear()
	}
	return nil
}

func opCoinbase(in *Instruction, f *frame) *control {
	f.state.Stack.push(new(uint256.Int).SetBytes(f.state.Block.Coinbase.Bytes()))
	return nil
}

func opTimestamp(in *Instruction, f *frame) *control {
	f.state.Stack.push(new(uint256.Int).SetUint64(f.state.Block.Timestamp))
	return nil
}

func opNumber(in *Instruction, f *frame) *control {
	f.state.Stack.push(new(uint256.Int).SetUint64(f.state.Block.Number))
	return nil
}

func opDifficulty(in *Instruction, f *frame) *control {
	f.state.Stack.push(&f.state.Block.Difficulty)
	return nil
}

func opGasLimit(in *Instruction, f *frame) *control {
	f.state.Stack.push(new(uint256.Int).SetUint64(f.state.Block.GasLimit))
	return nil
}

func opPop(in *Instruction, f *frame) *control {
	f.state.Stack.pop()
	return nil
}

func opMload(in *Instruction, f *frame) *control {
	v := f.state.Stack.peek()
	offset := v.Uint64()
	v.SetBytes(f.state.Memory.GetPtr(offset, 32))
	return nil
}

func opMstore(in *Instruction, f *frame) *control {
	mStart, val := f.state.Stack.pop(), f.state.Stack.pop()
	f.state.Memory.Set32(mStart.Uint64(), &val)
	return nil
}

func opMstore8(in *Instruction, f *frame) *control {
	off, val := f.state.Stack.pop(), f.state.Stack.pop()
	f.state.Memory.SetByte(off.Uint64(), byte(val.Uint64()))
	return nil
}

func opSload(in *Instruction, f *frame) *control {
	loc := f.state.Stack.peek()
	val, _ := f.state.AccountState.StorageAt(f.state.Context.Address, loc)
	loc.Set(&val)
	return nil
}

func opSstore(in *Instruction, f *frame) *control {
	loc, val := f.state.Stack.pop(), f.state.Stack.pop()
	if err := f.state.AccountState.SetStorage(f.state.Context.Address, &loc, &val); err != nil {
		panic(err) // the slot was required by checkStorage
	}
	return nil
}

func opJump(in *Instruction, f *frame) *control {
	pos := f.state.Stack.pop()
	return &control{kind: controlJump, dest: pos.Uint64()}
}

func opJumpi(in *Instruction, f *frame) *control {
	pos, cond := f.state.Stack.pop(), f.state.Stack.pop()
	if !cond.IsZero() {
		return &control{kind: controlJump, dest: pos.Uint64()}
	}
	return nil
}

func opJumpdest(in *Instruction, f *frame) *control {
	return nil
}

func opPc(in *Instruction, f *frame) *control {
	f.state.Stack.push(new(uint256.Int).SetUint64(f.pc))
	return nil
}

func opMsize(in *Instruction, f *frame) *control {
	f.state.Stack.push(new(uint256.Int).SetUint64(uint64(f.state.Memory.Len())))
	return nil
}

func opGas(in *Instruction, f *frame) *control {
	f.state.Stack.push(new(uint256.Int).SetUint64(f.afterGas))
	return nil
}

func opPush(in *Instruction, f *frame) *control {
	f.state.Stack.push(&in.Data)
	return nil
}

// make dup instruction function
func makeDup(size int) executionFunc {
	return func(in *Instruction, f *frame) *control {
		f.state.Stack.dup(size)
		return nil
	}
}

// make swap instruction function
func makeSwap(size int) executionFunc {
	// switch n + 1 otherwise n would be swapped with n
	size++
	return func(in *Instruction, f *frame) *control {
		f.state.Stack.swap(size)
		return nil
	}
}

// make log instruction function
func makeLog(size int) executionFunc {
	return func(in *Instruction, f *frame) *control {
		topics := make([]common.Hash, size)
		stack := f.state.Stack
		mStart, mSize := stack.pop(), stack.pop()
		for i := 0; i < size; i++ {
			addr := stack.pop()
			topics[i] = addr.Bytes32()
		}
		f.state.Logs = append(f.state.Logs, Log{
			Address: f.state.Context.Address,
			Topics:  topics,
			Data:    f.state.Memory.GetCopy(mStart.Uint64(), mSize.Uint64()),
		})
		return nil
	}
}

// canTransfer checks whether there are enough funds in the address' account
// to make a transfer. The account was required by the instruction's check.
func canTransfer(st *State, addr common.Address, amount *uint256.Int) bool {
	balance, _ := st.AccountState.Balance(addr)
	return !balance.Lt(amount)
}

// callGas returns the gas a child frame may use, excluding the stipend.
func callGas(patch Patch, afterGas uint64, requested *uint256.Int) uint64 {
	if patch.CallCreateL64AfterGas() {
		available := afterGas - afterGas/64
		if !requested.IsUint64() || requested.Uint64() > available {
			return available
		}
		return requested.Uint64()
	}
	// Without the cap the requested gas was checked against afterGas.
	return requested.Uint64()
}

func opCreate(in *Instruction, f *frame) *control {
	var (
		st     = f.state
		value  = st.Stack.pop()
		offset = st.Stack.pop()
		size   = st.Stack.pop()
		input  = st.Memory.GetCopy(offset.Uint64(), size.Uint64())
		caller = st.Context.Address
	)
	if st.Depth >= f.patch.CallStackLimit() || !canTransfer(st, caller, &value) {
		st.Stack.push(new(uint256.Int))
		return nil
	}
	nonce, _ := st.AccountState.Nonce(caller)
	if err := st.AccountState.SetNonce(caller, nonce+1); err != nil {
		panic(err) // the account was required by checkCreate
	}
	gas := f.afterGas
	if f.patch.CallCreateL64AfterGas() {
		gas -= gas / 64
	}
	address := crypto.CreateAddress(caller, nonce)
	return &control{
		kind: controlInvokeCreate,
		context: &Context{
			Address:       address,
			Caller:        caller,
			CodeAddress:   address,
			Value:         value,
			ApparentValue: value,
			Code:          input,
			GasLimit:      gas,
			GasPrice:      st.Context.GasPrice,
			Origin:        st.Context.Origin,
		},
	}
}

func opCall(in *Instruction, f *frame) *control {
	st := f.state
	stack := st.Stack
	gas := stack.pop()
	addr, value, inOffset, inSize, retOffset, retSize := stack.pop(), stack.pop(), stack.pop(), stack.pop(), stack.pop(), stack.pop()
	toAddr := common.Address(addr.Bytes20())
	// Get the arguments from the memory.
	args := st.Memory.GetCopy(inOffset.Uint64(), inSize.Uint64())

	if st.Depth >= f.patch.CallStackLimit() || !canTransfer(st, st.Context.Address, &value) {
		stack.push(new(uint256.Int))
		return nil
	}
	code, _ := st.AccountState.Code(toAddr)
	return &control{
		kind: controlInvokeCall,
		context: &Context{
			Address:       toAddr,
			Caller:        st.Context.Address,
			CodeAddress:   toAddr,
			Value:         value,
			ApparentValue: value,
			Data:          args,
			Code:          code,
			GasLimit:      callGas(f.patch, f.afterGas, &gas) + f.stipend,
			GasPrice:      st.Context.GasPrice,
			Origin:        st.Context.Origin,
		},
		outOffset: retOffset.Uint64(),
		outLength: retSize.Uint64(),
	}
}

func opCallCode(in *Instruction, f *frame) *control {
	st := f.state
	stack := st.Stack
	gas := stack.pop()
	addr, value, inOffset, inSize, retOffset, retSize := stack.pop(), stack.pop(), stack.pop(), stack.pop(), stack.pop(), stack.pop()
	toAddr := common.Address(addr.Bytes20())
	args := st.Memory.GetCopy(inOffset.Uint64(), inSize.Uint64())

	if st.Depth >= f.patch.CallStackLimit() || !canTransfer(st, st.Context.Address, &value) {
		stack.push(new(uint256.Int))
		return nil
	}
	code, _ := st.AccountState.Code(toAddr)
	return &control{
		kind: controlInvokeCall,
		context: &Context{
			Address:       st.Context.Address,
			Caller:        st.Context.Address,
			CodeAddress:   toAddr,
			Value:         value,
			ApparentValue: value,
			Data:          args,
			Code:          code,
			GasLimit:      callGas(f.patch, f.afterGas, &gas) + f.stipend,
			GasPrice:      st.Context.GasPrice,
			Origin:        st.Context.Origin,
		},
		outOffset: retOffset.Uint64(),
		outLength: retSize.Uint64(),
	}
}

func opDelegateCall(in *Instruction, f *frame) *control {
	st := f.state
	stack := st.Stack
	gas := stack.pop()
	addr, inOffset, inSize, retOffset, retSize := stack.pop(), stack.pop(), stack.pop(), stack.pop(), stack.pop()
	toAddr := common.Address(addr.Bytes20())
	args := st.Memory.GetCopy(inOffset.Uint64(), inSize.Uint64())

	if st.Depth >= f.patch.CallStackLimit() {
		stack.push(new(uint256.Int))
		return nil
	}
	code, _ := st.AccountState.Code(toAddr)
	return &control{
		kind: controlInvokeCall,
		context: &Context{
			Address:       st.Context.Address,
			Caller:        st.Context.Caller,
			CodeAddress:   toAddr,
			ApparentValue: st.Context.ApparentValue,
			Data:          args,
			Code:          code,
			GasLimit:      callGas(f.patch, f.afterGas, &gas),
			GasPrice:      st.Context.GasPrice,
			Origin:        st.Context.Origin,
		},
		outOffset: retOffset.Uint64(),
		outLength: retSize.Uint64(),
	}
}

func opReturn(in *Instruction, f *frame) *control {
	offset, size := f.state.Stack.pop(), f.state.Stack.pop()
	f.state.Out = f.state.Memory.GetCopy(offset.Uint64(), size.Uint64())
	return stopControl
}

func opStop(in *Instruction, f *frame) *control {
	return stopControl
}

func opSelfdestruct(in *Instruction, f *frame) *control {
	var (
		st          = f.state
		self        = st.Context.Address
		beneficiary = st.Stack.pop()
	)
	balance, _ := st.AccountState.Balance(self)
	st.AccountState.IncreaseBalance(common.Address(beneficiary.Bytes20()), &balance)
	st.AccountState.DecreaseBalance(self, &balance)
	if !slices.Contains(st.Removed, self) {
		st.Removed = append(st.Removed, self)
	}
	return stopControl
}

// getData returns a slice from the data based on the start and size and pads
// up to size with zero's. This function is overflow safe.
func getData(data []byte, start uint64, size uint64) []byte {
	length := uint64(len(data))
	if start > length {
		start = length
	}
	end := start + size
	if end > length {
		end = length
	}
	return common.RightPadBytes(data[start:end], int(size))
}
