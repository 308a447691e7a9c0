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

package runtime

import (
	"context"
	"math"
	"testing"

	"github.com/bnb-chain/stepvm/core/state"
	"github.com/bnb-chain/stepvm/core/vm"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethdb/memorydb"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	origin = common.HexToAddress("0x00000000000000000000000000000000000000ee")
	caller = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	callee = common.HexToAddress("0x00000000000000000000000000000000000000cc")
)

func TestDefaults(t *testing.T) {
	cfg := new(Config)
	setDefaults(cfg)

	assert.Equal(t, vm.EIP160Patch, cfg.Patch)
	assert.NotNil(t, cfg.Difficulty)
	assert.NotZero(t, cfg.Time)
	assert.Equal(t, uint64(math.MaxUint64), cfg.GasLimit)
	assert.NotNil(t, cfg.GasPrice)
	assert.NotNil(t, cfg.Value)
	assert.NotNil(t, cfg.Source)
}

func TestExecute(t *testing.T) {
	code := []byte{
		byte(vm.PUSH1), 10,
		byte(vm.PUSH1), 0,
		byte(vm.MSTORE),
		byte(vm.PUSH1), 32,
		byte(vm.PUSH1), 0,
		byte(vm.RETURN),
	}
	res, err := Execute(context.Background(), code, nil, &Config{GasLimit: 100000})
	require.NoError(t, err)
	require.False(t, res.Failed(), "status %v", res.Status)

	assert.Equal(t, uint64(10), new(uint256.Int).SetBytes(res.Output).Uint64())
	assert.Equal(t, uint64(3+3+3+3+3+3), res.UsedGas)
	assert.Contains(t, res.Touched, common.BytesToAddress([]byte("contract")))
}

func TestExecuteNotSupported(t *testing.T) {
	code := []byte{byte(vm.PUSH1), 1, byte(vm.PUSH1), 1, byte(vm.SHL)}
	res, err := Execute(context.Background(), code, nil, nil)
	require.NoError(t, err)
	assert.True(t, res.Failed())
	assert.Equal(t, vm.ExitedNotSupported, res.Status.Kind)
	assert.Nil(t, res.Changes)

	patch, err := vm.PatchByName("eip160+145")
	require.NoError(t, err)
	res, err = Execute(context.Background(), code, nil, &Config{Patch: patch})
	require.NoError(t, err)
	assert.False(t, res.Failed())
}

func newSource(t *testing.T) *state.Database {
	db := state.NewDatabase(memorydb.New(), 0)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestCall(t *testing.T) {
	src := newSource(t)
	calleeCode := []byte{
		byte(vm.PUSH1), 0, byte(vm.SLOAD),
		byte(vm.PUSH1), 0, byte(vm.MSTORE),
		byte(vm.PUSH1), 32, byte(vm.PUSH1), 0, byte(vm.RETURN),
	}
	callerCode := []byte{
		byte(vm.PUSH1), 32, byte(vm.PUSH1), 0, // out
		byte(vm.PUSH1), 0, byte(vm.PUSH1), 0, // in
		byte(vm.PUSH1), 0, // value
		byte(vm.PUSH1), 0xcc,
		byte(vm.PUSH2), 0xff, 0xff,
		byte(vm.CALL),
		byte(vm.PUSH1), 0, byte(vm.MLOAD),
		byte(vm.PUSH1), 1, byte(vm.SSTORE),
	}
	require.NoError(t, src.WriteAccount(callee, 0, new(uint256.Int), calleeCode))
	require.NoError(t, src.WriteStorage(callee, common.Hash{}, common.HexToHash("0x05")))
	require.NoError(t, src.WriteAccount(caller, 0, new(uint256.Int), callerCode))

	res, err := Call(context.Background(), caller, nil, &Config{Origin: origin, GasLimit: 100000, Source: src})
	require.NoError(t, err)
	require.False(t, res.Failed(), "status %v", res.Status)

	assert.Equal(t, []common.Address{caller, callee, origin}, res.Touched)

	var found bool
	for _, change := range res.Changes {
		if full, ok := change.(*vm.FullChange); ok && full.Address == caller {
			found = true
			slot := full.Storage[*uint256.NewInt(1)]
			assert.Equal(t, uint64(5), slot.Uint64())
		}
	}
	assert.True(t, found, "no change for the caller")
}

func TestCallValue(t *testing.T) {
	src := newSource(t)
	_, err := Call(context.Background(), callee, nil, &Config{Origin: origin, Value: uint256.NewInt(1), Source: src})
	assert.ErrorIs(t, err, ErrInsufficientBalance)

	require.NoError(t, src.WriteAccount(origin, 0, uint256.NewInt(10), nil))
	res, err := Call(context.Background(), callee, nil, &Config{Origin: origin, Value: uint256.NewInt(4), Source: src})
	require.NoError(t, err)
	require.False(t, res.Failed())
	for _, change := range res.Changes {
		switch change := change.(type) {
		case *vm.FullChange:
			assert.Equal(t, origin, change.Address)
			assert.Equal(t, uint64(6), change.Balance.Uint64())
		case *vm.CreateChange:
			assert.Equal(t, callee, change.Address)
			assert.Equal(t, uint64(4), change.Balance.Uint64())
		default:
			t.Errorf("unexpected change %T", change)
		}
	}
}

func TestCreate(t *testing.T) {
	src := newSource(t)
	require.NoError(t, src.WriteAccount(origin, 3, new(uint256.Int), nil))

	// Deploys the two byte runtime code 0x6000.
	initCode := []byte{
		byte(vm.PUSH2), 0x60, 0x00, byte(vm.PUSH1), 0, byte(vm.MSTORE),
		byte(vm.PUSH1), 2, byte(vm.PUSH1), 30, byte(vm.RETURN),
	}
	res, err := Create(context.Background(), initCode, &Config{Origin: origin, GasLimit: 100000, Source: src})
	require.NoError(t, err)
	require.False(t, res.Failed(), "status %v", res.Status)

	assert.Equal(t, crypto.CreateAddress(origin, 3), res.Address)
	assert.Equal(t, []byte{0x60, 0x00}, res.Output)
	assert.Equal(t, uint64(3+3+6+3+3+400), res.UsedGas)

	for _, change := range res.Changes {
		switch change := change.(type) {
		case *vm.FullChange:
			assert.Equal(t, uint64(4), change.Nonce)
		case *vm.CreateChange:
			assert.Equal(t, res.Address, change.Address)
			assert.Equal(t, []byte{0x60, 0x00}, change.Code)
		}
	}
}

func TestCreateDepositOutOfGas(t *testing.T) {
	initCode := []byte{byte(vm.PUSH1), 2, byte(vm.PUSH1), 0, byte(vm.RETURN)}
	res, err := Create(context.Background(), initCode, &Config{GasLimit: 100, Patch: vm.HomesteadPatch})
	require.NoError(t, err)
	assert.True(t, res.Failed())
	assert.Equal(t, uint64(100), res.UsedGas)

	res, err = Create(context.Background(), initCode, &Config{GasLimit: 100, Patch: vm.FrontierPatch})
	require.NoError(t, err)
	assert.False(t, res.Failed())
}

func TestCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// JUMPDEST PUSH1 0 JUMP
	loop := []byte{byte(vm.JUMPDEST), byte(vm.PUSH1), 0, byte(vm.JUMP)}
	_, err := Execute(ctx, loop, nil, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTracer(t *testing.T) {
	tracer := vm.NewStructLogger(nil)
	code := []byte{byte(vm.PUSH1), 1, byte(vm.PUSH1), 2, byte(vm.ADD)}
	res, err := Execute(context.Background(), code, nil, &Config{Tracer: tracer})
	require.NoError(t, err)

	assert.Len(t, tracer.StructLogs(), 3)
	assert.Equal(t, res.UsedGas, tracer.UsedGas())
	assert.Equal(t, vm.ExitedOk, tracer.Status().Kind)
}
