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

func TestStackBounds(t *testing.T) {
	st := newstack()

	_, err := st.Pop()
	assert.Equal(t, ErrStackUnderflow, err)
	_, err = st.Peek(0)
	assert.Equal(t, ErrStackUnderflow, err)

	for i := 0; i < 1024; i++ {
		require.NoError(t, st.Push(uint256.NewInt(uint64(i))))
	}
	assert.Equal(t, ErrStackOverflow, st.Push(uint256.NewInt(1)))
	assert.Equal(t, 1024, st.Len())

	top, err := st.Peek(0)
	require.NoError(t, err)
	assert.Equal(t, uint64(1023), top.Uint64())
	bottom, err := st.Peek(1023)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), bottom.Uint64())
	_, err = st.Peek(1024)
	assert.Equal(t, ErrStackUnderflow, err)

	v, err := st.Pop()
	require.NoError(t, err)
	assert.Equal(t, uint64(1023), v.Uint64())
	assert.Equal(t, 1023, st.Len())
}

func TestStackCopy(t *testing.T) {
	st := newstack()
	st.push(uint256.NewInt(1))
	cpy := st.Copy()
	st.peek().SetUint64(2)
	cpy.push(uint256.NewInt(3))

	assert.Equal(t, uint64(1), cpy.Data()[0].Uint64())
	assert.Equal(t, 1, st.Len())
}
