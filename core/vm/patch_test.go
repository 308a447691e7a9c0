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

	"github.com/bnb-chain/stepvm/params"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPatchByName(t *testing.T) {
	for _, name := range PatchNames() {
		p, err := PatchByName(name)
		require.NoError(t, err)
		assert.Equal(t, name, p.Name())
	}

	p, err := PatchByName("EIP160+145")
	require.NoError(t, err)
	assert.Equal(t, "eip160+145", p.Name())
	assert.True(t, p.Enabled(SHL))
	assert.Equal(t, uint64(50), p.GasTable().ExpByte)
	assert.False(t, EIP160Patch.Enabled(SHL), "enabling an EIP must not touch the base rules")

	_, err = PatchByName("istanbul")
	assert.Error(t, err)
	_, err = PatchByName("frontier+7")
	assert.Error(t, err)
	_, err = PatchByName("frontier+abc")
	assert.Error(t, err)
}

func TestPatchRules(t *testing.T) {
	assert.False(t, FrontierPatch.Enabled(DELEGATECALL))
	assert.True(t, HomesteadPatch.Enabled(DELEGATECALL))
	assert.False(t, FrontierPatch.Enabled(OpCode(0x0c)), "undefined opcode")

	assert.True(t, FrontierPatch.ErrOnCallWithMoreGas())
	assert.False(t, EIP150Patch.ErrOnCallWithMoreGas())
	assert.True(t, EIP150Patch.CallCreateL64AfterGas())
	assert.False(t, FrontierPatch.ForceCodeDeposit())
	assert.True(t, HomesteadPatch.ForceCodeDeposit())

	assert.Equal(t, uint64(params.CallCreateDepth), EIP160Patch.CallStackLimit())
	assert.Equal(t, uint64(700), EIP150Patch.GasTable().Calls)
	assert.Len(t, HomesteadPatch.Precompileds(), 4)

	limited := HomesteadPatch.WithMemoryLimit(1024)
	assert.Equal(t, uint64(1024), limited.MemoryLimit())
	assert.Equal(t, uint64(params.MemoryLimit), HomesteadPatch.MemoryLimit())

	assert.True(t, ValidEip(145))
	assert.False(t, ValidEip(2929))
	assert.Equal(t, []string{"145"}, ActivateableEips())
}

func TestOpCodeStrings(t *testing.T) {
	assert.Equal(t, "KECCAK256", KECCAK256.String())
	assert.Equal(t, "PUSH32", PUSH32.String())
	assert.False(t, OpCode(0xef).Defined())
	assert.True(t, PUSH1.IsPush())
	assert.False(t, DUP1.IsPush())
}
