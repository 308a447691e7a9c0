// Copyright 2014 The go-ethereum Authors
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

// Stack is the value stack of a frame, limited to params.StackLimit words.
// The checked methods never modify the stack when they fail.
type Stack struct {
	data []uint256.Int
}

func newstack() *Stack {
	return &Stack{data: make([]uint256.Int, 0, 16)}
}

// Data returns the underlying uint256.Int array, bottom first.
func (st *Stack) Data() []uint256.Int {
	return st.data
}

// Len returns the number of words on the stack.
func (st *Stack) Len() int {
	return len(st.data)
}

// Push pushes a copy of d, failing with ErrStackOverflow on a full stack.
func (st *Stack) Push(d *uint256.Int) error {
	if uint64(len(st.data)) >= params.StackLimit {
		return ErrStackOverflow
	}
	st.data = append(st.data, *d)
	return nil
}

// Pop removes and returns the top word.
func (st *Stack) Pop() (uint256.Int, error) {
	if len(st.data) == 0 {
		return uint256.Int{}, ErrStackUnderflow
	}
	ret := st.data[len(st.data)-1]
	st.data = st.data[:len(st.data)-1]
	return ret, nil
}

// Peek returns the word n positions below the top, n = 0 being the top.
func (st *Stack) Peek(n int) (*uint256.Int, error) {
	if n < 0 || n >= len(st.data) {
		return nil, ErrStackUnderflow
	}
	return &st.data[len(st.data)-1-n], nil
}

// Copy returns an independent copy of the stack.
func (st *Stack) Copy() *Stack {
	data := make([]uint256.Int, len(st.data), cap(st.data))
	copy(data, st.data)
	return &Stack{data: data}
}

// The unchecked accessors below are used by instructions, whose stack
// requirements have already been validated by checkOpcode.

func (st *Stack) push(d *uint256.Int) {
	// NOTE push limit (1024) is checked in checkOpcode
	st.data = append(st.data, *d)
}

func (st *Stack) pop() (ret uint256.Int) {
	ret = st.data[len(st.data)-1]
	st.data = st.data[:len(st.data)-1]
	return
}

func (st *Stack) peek() *uint256.Int {
	return &st.data[len(st.data)-1]
}

// back returns the n'th item in stack
func (st *Stack) back(n int) *uint256.Int {
	return &st.data[len(st.data)-n-1]
}

func (st *Stack) swap(n int) {
	st.data[len(st.data)-n], st.data[len(st.data)-1] = st.data[len(st.data)-1], st.data[len(st.data)-n]
}

func (st *Stack) dup(n int) {
	st.data = append(st.data, st.data[len(st.data)-n])
}
