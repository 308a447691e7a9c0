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

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	addrA = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	addrB = common.HexToAddress("0x00000000000000000000000000000000000000bb")
)

func requireKind(t *testing.T, err error, kind RequireKind) *RequireError {
	t.Helper()
	var req *RequireError
	require.True(t, errors.As(err, &req), "expected a requirement, got %v", err)
	require.Equal(t, kind, req.Kind)
	return req
}

func TestAccountStateRequire(t *testing.T) {
	s := NewAccountState()

	_, err := s.Balance(addrA)
	req := requireKind(t, err, RequireAccount)
	assert.Equal(t, addrA, req.Address)

	_, err = s.Code(addrA)
	requireKind(t, err, RequireAccountCode)

	require.NoError(t, s.Commit(&FullCommitment{Address: addrA, Nonce: 3, Balance: *uint256.NewInt(100), Code: []byte{0x00}}))
	balance, err := s.Balance(addrA)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), balance.Uint64())
	nonce, err := s.Nonce(addrA)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), nonce)

	_, err = s.StorageAt(addrA, uint256.NewInt(7))
	req = requireKind(t, err, RequireAccountStorage)
	assert.Equal(t, uint64(7), req.Index.Uint64())
}

func TestAccountStateCommitConflicts(t *testing.T) {
	s := NewAccountState()
	full := &FullCommitment{Address: addrA, Balance: *uint256.NewInt(1)}
	require.NoError(t, s.Commit(full))

	// Supplying the same fact twice is harmless.
	require.NoError(t, s.Commit(&FullCommitment{Address: addrA, Balance: *uint256.NewInt(1)}))
	assert.Equal(t, ErrAlreadyCommitted, s.Commit(&FullCommitment{Address: addrA, Balance: *uint256.NewInt(2)}))
	assert.Equal(t, ErrAlreadyCommitted, s.Commit(&NonexistCommitment{Address: addrA}))
	assert.Equal(t, ErrAlreadyCommitted, s.Commit(&CodeCommitment{Address: addrA, Code: []byte{0x01}}))

	require.NoError(t, s.Commit(&StorageCommitment{Address: addrA, Index: *uint256.NewInt(1), Value: *uint256.NewInt(5)}))
	require.NoError(t, s.Commit(&StorageCommitment{Address: addrA, Index: *uint256.NewInt(1), Value: *uint256.NewInt(5)}))
	assert.Equal(t, ErrAlreadyCommitted, s.Commit(&StorageCommitment{Address: addrA, Index: *uint256.NewInt(1), Value: *uint256.NewInt(6)}))

	// Storage can only be committed on top of a full account.
	assert.Equal(t, ErrInvalidCommitment, s.Commit(&StorageCommitment{Address: addrB, Index: *uint256.NewInt(1)}))

	require.NoError(t, s.Commit(&CodeCommitment{Address: addrB, Code: []byte{0x01}}))
	assert.Equal(t, ErrAlreadyCommitted, s.Commit(&FullCommitment{Address: addrB, Code: []byte{0x02}}))
	require.NoError(t, s.Commit(&FullCommitment{Address: addrB, Code: []byte{0x01}}))
}

func TestAccountStateBalanceDeltas(t *testing.T) {
	s := NewAccountState()

	// Balance changes of unknown accounts are kept as deltas.
	s.IncreaseBalance(addrA, uint256.NewInt(10))
	s.DecreaseBalance(addrA, uint256.NewInt(4))
	_, err := s.Balance(addrA)
	requireKind(t, err, RequireAccount)

	require.NoError(t, s.Commit(&FullCommitment{Address: addrA, Balance: *uint256.NewInt(100)}))
	balance, err := s.Balance(addrA)
	require.NoError(t, err)
	assert.Equal(t, uint64(106), balance.Uint64())

	s.DecreaseBalance(addrB, uint256.NewInt(50))
	assert.Equal(t, ErrInvalidCommitment, s.Commit(&FullCommitment{Address: addrB, Balance: *uint256.NewInt(49)}))
	assert.Equal(t, ErrInvalidCommitment, s.Commit(&NonexistCommitment{Address: addrB}))
	require.NoError(t, s.Commit(&FullCommitment{Address: addrB, Balance: *uint256.NewInt(50)}))
	balance, _ = s.Balance(addrB)
	assert.True(t, balance.IsZero())
}

func TestAccountStateNonexist(t *testing.T) {
	s := NewAccountState()
	require.NoError(t, s.Commit(&NonexistCommitment{Address: addrA}))

	exists, err := s.Exists(addrA)
	require.NoError(t, err)
	assert.False(t, exists)

	// Storage of a missing account reads as zero without any commitment.
	value, err := s.StorageAt(addrA, uint256.NewInt(1))
	require.NoError(t, err)
	assert.True(t, value.IsZero())

	s.IncreaseBalance(addrA, uint256.NewInt(3))
	exists, _ = s.Exists(addrA)
	assert.True(t, exists)

	// A credit of a missing account brings it to life.
	s.IncreaseBalance(addrB, uint256.NewInt(8))
	require.NoError(t, s.Commit(&NonexistCommitment{Address: addrB}))
	balance, err := s.Balance(addrB)
	require.NoError(t, err)
	assert.Equal(t, uint64(8), balance.Uint64())
}

func TestAccountStateCreate(t *testing.T) {
	s := NewAccountState()
	require.NoError(t, s.Commit(&FullCommitment{Address: addrA, Balance: *uint256.NewInt(5), Code: []byte{0x00}}))
	require.NoError(t, s.Create(addrA, uint256.NewInt(2)))

	balance, _ := s.Balance(addrA)
	assert.Equal(t, uint64(7), balance.Uint64())
	code, _ := s.Code(addrA)
	assert.Empty(t, code)

	// A created account starts with empty storage.
	value, err := s.StorageAt(addrA, uint256.NewInt(9))
	require.NoError(t, err)
	assert.True(t, value.IsZero())
	assert.Equal(t, ErrInvalidCommitment, s.Commit(&StorageCommitment{Address: addrA, Index: *uint256.NewInt(9)}))

	require.NoError(t, s.SetStorage(addrA, uint256.NewInt(9), uint256.NewInt(1)))
	changes := s.Changes()
	require.Len(t, changes, 1)
	created, ok := changes[0].(*CreateChange)
	require.True(t, ok, "got %T", changes[0])
	slot := created.Storage[*uint256.NewInt(9)]
	assert.Equal(t, uint64(1), slot.Uint64())
}

func TestAccountStateChanges(t *testing.T) {
	s := NewAccountState()
	require.NoError(t, s.Commit(&FullCommitment{Address: addrB, Balance: *uint256.NewInt(5)}))
	require.NoError(t, s.Commit(&StorageCommitment{Address: addrB, Index: *uint256.NewInt(1), Value: *uint256.NewInt(1)}))
	require.NoError(t, s.SetStorage(addrB, uint256.NewInt(1), uint256.NewInt(2)))
	s.IncreaseBalance(addrA, uint256.NewInt(1))

	changes := s.Changes()
	require.Len(t, changes, 2)
	assert.Equal(t, addrA, changes[0].ChangeAddress())
	assert.IsType(t, &IncreaseBalanceChange{}, changes[0])

	full, ok := changes[1].(*FullChange)
	require.True(t, ok, "got %T", changes[1])
	assert.Equal(t, map[uint256.Int]uint256.Int{*uint256.NewInt(1): *uint256.NewInt(2)}, full.Storage)
}

func TestAccountStateCopy(t *testing.T) {
	s := NewAccountState()
	require.NoError(t, s.Commit(&FullCommitment{Address: addrA, Balance: *uint256.NewInt(5)}))

	cpy := s.Copy()
	cpy.IncreaseBalance(addrA, uint256.NewInt(1))
	require.NoError(t, cpy.Commit(&NonexistCommitment{Address: addrB}))

	balance, _ := s.Balance(addrA)
	assert.Equal(t, uint64(5), balance.Uint64())
	assert.Error(t, s.Require(addrB))
}

func TestBlockhashState(t *testing.T) {
	s := NewBlockhashState()
	_, err := s.Get(10)
	req := requireKind(t, err, RequireBlockhash)
	assert.Equal(t, uint64(10), req.Number)

	hash := common.HexToHash("0x01")
	require.NoError(t, s.Commit(10, hash))
	require.NoError(t, s.Commit(10, hash))
	assert.Equal(t, ErrAlreadyCommitted, s.Commit(10, common.HexToHash("0x02")))

	cpy := s.Copy()
	require.NoError(t, cpy.Commit(11, hash))
	_, err = s.Get(11)
	assert.Error(t, err)

	s.merge(cpy)
	got, err := s.Get(11)
	require.NoError(t, err)
	assert.Equal(t, hash, got)
}
