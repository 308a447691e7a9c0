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

// AccountCommitment is a fact about an account supplied by the host in
// response to a RequireError. The set of implementations is closed:
// FullCommitment, CodeCommitment, StorageCommitment and NonexistCommitment.
type AccountCommitment interface {
	CommitAddress() common.Address
	commitment()
}

// FullCommitment describes an existing account. The account's storage is
// committed separately, one slot at a time.
type FullCommitment struct {
	Address common.Address
	Nonce   uint64
	Balance uint256.Int
	Code    []byte
}

// CodeCommitment supplies only the code of an account.
type CodeCommitment struct {
	Address common.Address
	Code    []byte
}

// StorageCommitment supplies a single storage slot of an account that has
// already been committed in full.
type StorageCommitment struct {
	Address common.Address
	Index   uint256.Int
	Value   uint256.Int
}

// NonexistCommitment states that no account lives at Address.
type NonexistCommitment struct {
	Address common.Address
}

func (c *FullCommitment) CommitAddress() common.Address { return c.Address }
func (c *CodeCommitment) CommitAddress() common.Address { return c.Address }
func (c *StorageCommitment) CommitAddress() common.Address { return c.Address }
func (c *NonexistCommitment) CommitAddress() common.Address { return c.Address }

func (*FullCommitment) commitment() {}
func (*CodeCommitment) commitment() {}
func (*StorageCommitment) commitment() {}
func (*NonexistCommitment) commitment() {}

// AccountChange is the effect a frame had on one account, as reported by
// AccountState.Changes. The set of implementations is closed: FullChange,
// CreateChange, IncreaseBalanceChange, DecreaseBalanceChange and
// NonexistChange.
type AccountChange interface {
	ChangeAddress() common.Address
	change()
}

// FullChange is an existing account after execution. Storage holds the
// slots written during execution.
type FullChange struct {
	Address common.Address
	Nonce   uint64
	Balance uint256.Int
	Code    []byte
	Storage map[uint256.Int]uint256.Int
}

// CreateChange is an account (re)created during execution. Its storage
// starts empty, so Storage holds every slot that is non-zero.
type CreateChange struct {
	Address common.Address
	Nonce   uint64
	Balance uint256.Int
	Code    []byte
	Storage map[uint256.Int]uint256.Int
}

// IncreaseBalanceChange credits an account that was never read.
type IncreaseBalanceChange struct {
	Address common.Address
	Amount  uint256.Int
}

// DecreaseBalanceChange debits an account that was never read.
type DecreaseBalanceChange struct {
	Address common.Address
	Amount  uint256.Int
}

// NonexistChange reports an account observed not to exist and left alone.
type NonexistChange struct {
	Address common.Address
}

func (c *FullChange) ChangeAddress() common.Address { return c.Address }
func (c *CreateChange) ChangeAddress() common.Address { return c.Address }
func (c *IncreaseBalanceChange) ChangeAddress() common.Address { return c.Address }
func (c *DecreaseBalanceChange) ChangeAddress() common.Address { return c.Address }
func (c *NonexistChange) ChangeAddress() common.Address { return c.Address }

func (*FullChange) change() {}
func (*CreateChange) change() {}
func (*IncreaseBalanceChange) change() {}
func (*DecreaseBalanceChange) change() {}
func (*NonexistChange) change() {}
