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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursorRead(t *testing.T) {
	code := []byte{byte(PUSH2), 0x01, 0x02, byte(ADD), byte(JUMPDEST)}
	c := NewCursor(code)

	in, err := c.Read()
	require.NoError(t, err)
	assert.Equal(t, PUSH2, in.Op)
	assert.Equal(t, uint64(0x0102), in.Data.Uint64())
	assert.Equal(t, uint64(3), c.Position())

	in, err = c.Read()
	require.NoError(t, err)
	assert.Equal(t, ADD, in.Op)
	assert.Equal(t, "ADD", in.String())

	in, err = c.Read()
	require.NoError(t, err)
	assert.Equal(t, JUMPDEST, in.Op)
	assert.True(t, c.IsEnd())

	// Past the end of code the program stops.
	in, err = c.Peek()
	require.NoError(t, err)
	assert.Equal(t, STOP, in.Op)
}

func TestCursorTruncatedPush(t *testing.T) {
	c := NewCursor([]byte{byte(PUSH3), 0xaa})

	in, err := c.Peek()
	require.NoError(t, err)
	assert.Equal(t, uint64(0xaa0000), in.Data.Uint64())
	assert.Equal(t, uint64(4), in.Size())

	_, err = c.Read()
	require.NoError(t, err)
	assert.True(t, c.IsEnd())
}

func TestCursorInvalidOpcode(t *testing.T) {
	for _, b := range []byte{0x0c, 0x21, 0xa5, 0xfe} {
		c := NewCursor([]byte{b})
		_, err := c.Peek()
		assert.Equal(t, ErrInvalidOpcode, err, "opcode %#x", b)
		assert.Equal(t, uint64(0), c.Position())
	}
}

func TestCursorJumpdest(t *testing.T) {
	// PUSH1 0x5b JUMPDEST PUSH2 0x5b5b STOP
	code := []byte{byte(PUSH1), byte(JUMPDEST), byte(JUMPDEST), byte(PUSH2), byte(JUMPDEST), byte(JUMPDEST), byte(STOP)}
	c := NewCursor(code)

	assert.False(t, c.IsValid(0), "not a JUMPDEST")
	assert.False(t, c.IsValid(1), "push data")
	assert.True(t, c.IsValid(2))
	assert.False(t, c.IsValid(4), "push data")
	assert.False(t, c.IsValid(5), "push data")
	assert.False(t, c.IsValid(7), "out of code")
	assert.False(t, c.IsValid(1<<40), "out of code")

	c.Jump(2)
	assert.Equal(t, uint64(2), c.Position())
	assert.Panics(t, func() { c.Jump(1) })
}
