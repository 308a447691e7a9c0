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

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryGas(t *testing.T) {
	for words, want := range map[uint64]uint64{
		0:    0,
		1:    3,
		32:   98,
		1024: 5120,
	} {
		assert.Equal(t, want, memoryGas(words), "%d words", words)
	}
}

func TestMemoryCostRanges(t *testing.T) {
	st := &State{Stack: newstack()}
	op := jumpTable[MSTORE]

	st.Stack.push(uint256.NewInt(1))
	st.Stack.push(uint256.NewInt(33)) // offset
	words, err := memoryCost(op, st)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), words)

	// Memory never shrinks.
	st.MemoryCost = 5
	words, err = memoryCost(op, st)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), words)

	// Ranges beyond the addressable memory cannot be paid for.
	st.Stack.peek().SetUint64(maxMemorySize)
	_, err = memoryCost(op, st)
	assert.Equal(t, ErrEmptyGas, err)
}

func TestMemoryCostZeroSize(t *testing.T) {
	st := &State{Stack: newstack()}
	st.Stack.push(new(uint256.Int))             // size
	st.Stack.push(new(uint256.Int).SetAllOne()) // offset

	words, err := memoryCost(jumpTable[RETURN], st)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), words)
}

func TestMemorySet(t *testing.T) {
	m := NewMemory()
	m.Resize(64)
	m.Set32(0, uint256.NewInt(0x0102))
	m.SetByte(63, 0xff)
	m.Set(32, 2, []byte{0xaa, 0xbb})

	assert.Equal(t, []byte{0x01, 0x02}, m.GetCopy(30, 2))
	assert.Equal(t, []byte{0xaa, 0xbb}, m.GetPtr(32, 2))
	assert.Equal(t, byte(0xff), m.Data()[63])
	assert.Nil(t, m.GetCopy(1000, 0))

	cpy := m.Copy()
	m.SetByte(0, 0x01)
	assert.Equal(t, byte(0x00), cpy.Data()[0])
	assert.Panics(t, func() { m.Set32(40, uint256.NewInt(1)) })
}

func BenchmarkResize(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		m := NewMemory()
		m.Resize(1024)
	}
}
