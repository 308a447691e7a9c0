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
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestJumpDestAnalysis(t *testing.T) {
	tests := []struct {
		code  []byte
		exp   byte
		which int
	}{
		{[]byte{byte(PUSH1), 0x01, 0x01, 0x01}, 0b0000_0010, 0},
		{[]byte{byte(PUSH1), byte(PUSH1), byte(PUSH1), byte(PUSH1)}, 0b0000_1010, 0},
		{[]byte{0x00, byte(PUSH1), 0x00, byte(PUSH1), 0x00, byte(PUSH1), 0x00, byte(PUSH1)}, 0b0101_0100, 0},
		{[]byte{0x00, byte(PUSH1), 0x00, byte(PUSH1), 0x00, byte(PUSH1), 0x00, byte(PUSH1), 0x01}, 0b0000_0001, 1},
		{append([]byte{byte(PUSH8)}, bytes.Repeat([]byte{0x01}, 8)...), 0b1111_1110, 0},
		{append([]byte{byte(PUSH8)}, bytes.Repeat([]byte{0x01}, 8)...), 0b0000_0001, 1},
		{append([]byte{byte(PUSH32)}, bytes.Repeat([]byte{0x01}, 32)...), 0b1111_1110, 0},
		{append([]byte{byte(PUSH32)}, bytes.Repeat([]byte{0x01}, 32)...), 0b1111_1111, 2},
		{append([]byte{byte(PUSH32)}, bytes.Repeat([]byte{0x01}, 32)...), 0b0000_0001, 4},
	}
	for i, test := range tests {
		ret := codeBitmap(test.code)
		if ret[test.which] != test.exp {
			t.Fatalf("test %d: expected %x, got %02x", i, test.exp, ret[test.which])
		}
	}
}

func TestAnalysisCache(t *testing.T) {
	// PUSH32 of JUMPDEST bytes, repeated past the caching threshold.
	push := append([]byte{byte(PUSH32)}, bytes.Repeat([]byte{byte(JUMPDEST)}, 32)...)
	code := append(bytes.Repeat(push, 5), byte(JUMPDEST))
	require.GreaterOrEqual(t, len(code), analysisCacheThreshold)

	first := analyse(code)
	second := analyse(code)
	require.Equal(t, first, second)
	require.Equal(t, codeBitmap(code), first)

	c := NewCursor(code)
	for pos := uint64(0); pos < uint64(len(code))-1; pos++ {
		require.False(t, c.IsValid(pos), "position %d is push data or a push", pos)
	}
	require.True(t, c.IsValid(uint64(len(code))-1))
}

const analysisCodeSize = 1200 * 1024

func BenchmarkJumpdestAnalysis_1200k(bench *testing.B) {
	// 1.4 ms
	code := make([]byte, analysisCodeSize)
	bench.SetBytes(analysisCodeSize)
	bench.ResetTimer()
	for i := 0; i < bench.N; i++ {
		codeBitmap(code)
	}
	bench.StopTimer()
}
