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
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Instruction is a decoded instruction. Data holds the immediate of a PUSHn,
// right-padded with zeroes when the code ends inside it.
type Instruction struct {
	Op   OpCode
	Data uint256.Int
}

// Size returns the number of code bytes the instruction occupies.
func (in Instruction) Size() uint64 {
	if in.Op.IsPush() {
		return uint64(in.Op-PUSH1) + 2
	}
	return 1
}

func (in Instruction) String() string {
	if in.Op.IsPush() {
		return in.Op.String() + " " + in.Data.Hex()
	}
	return in.Op.String()
}

// Cursor is a position in a program together with the program's jump
// analysis. The analysis is computed once from the code the cursor was
// created with.
type Cursor struct {
	code     []byte
	pos      uint64
	analysis bitvec
}

// NewCursor creates a cursor at the start of code.
func NewCursor(code []byte) *Cursor {
	return &Cursor{code: code, analysis: analyse(code)}
}

// Code returns the program the cursor walks.
func (c *Cursor) Code() []byte { return c.code }

// Position returns the offset of the next instruction.
func (c *Cursor) Position() uint64 { return c.pos }

// IsEnd reports whether the cursor ran past the last byte of code.
func (c *Cursor) IsEnd() bool { return c.pos >= uint64(len(c.code)) }

// Peek decodes the instruction at the cursor without advancing. Past the
// end of code it yields STOP.
func (c *Cursor) Peek() (Instruction, error) {
	if c.IsEnd() {
		return Instruction{Op: STOP}, nil
	}
	op := OpCode(c.code[c.pos])
	if !op.Defined() {
		return Instruction{}, ErrInvalidOpcode
	}
	in := Instruction{Op: op}
	if op.IsPush() {
		size := uint64(op-PUSH1) + 1
		start := c.pos + 1
		end := start + size
		if start > uint64(len(c.code)) {
			start = uint64(len(c.code))
		}
		if end > uint64(len(c.code)) {
			end = uint64(len(c.code))
		}
		in.Data.SetBytes(common.RightPadBytes(c.code[start:end], int(size)))
	}
	return in, nil
}

// Read decodes the instruction at the cursor and advances past it.
func (c *Cursor) Read() (Instruction, error) {
	in, err := c.Peek()
	if err != nil {
		return in, err
	}
	c.pos += in.Size()
	return in, nil
}

// IsValid reports whether dest is a JUMPDEST opcode, as opposed to a byte
// inside push data.
func (c *Cursor) IsValid(dest uint64) bool {
	if dest >= uint64(len(c.code)) {
		return false
	}
	if OpCode(c.code[dest]) != JUMPDEST {
		return false
	}
	return c.analysis.codeSegment(dest)
}

// Jump moves the cursor to dest, which must have passed IsValid.
func (c *Cursor) Jump(dest uint64) {
	if !c.IsValid(dest) {
		panic("vm: jump to unvalidated destination")
	}
	c.pos = dest
}
