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

package state

import (
	"github.com/bnb-chain/stepvm/core/vm"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
)

// FactSource supplies the facts a machine asks for while it runs.
type FactSource interface {
	// Account returns a FullCommitment, or a NonexistCommitment for an
	// address without an account.
	Account(addr common.Address) (vm.AccountCommitment, error)
	Storage(addr common.Address, key *uint256.Int) (uint256.Int, error)
	Blockhash(number uint64) (common.Hash, error)
}

// Resolve looks up the fact req asks for and commits it to m.
func Resolve(m *vm.Machine, req *vm.RequireError, src FactSource) error {
	switch req.Kind {
	case vm.RequireAccount, vm.RequireAccountCode:
		c, err := src.Account(req.Address)
		if err != nil {
			return errors.Wrapf(err, "resolve %v", req.Kind)
		}
		return errors.Wrapf(m.CommitAccount(c), "commit account %x", req.Address)

	case vm.RequireAccountStorage:
		value, err := src.Storage(req.Address, &req.Index)
		if err != nil {
			return errors.Wrap(err, "resolve storage")
		}
		c := &vm.StorageCommitment{Address: req.Address, Index: req.Index, Value: value}
		return errors.Wrapf(m.CommitAccount(c), "commit storage %x", req.Address)

	case vm.RequireBlockhash:
		hash, err := src.Blockhash(req.Number)
		if err != nil {
			return errors.Wrap(err, "resolve blockhash")
		}
		return errors.Wrapf(m.CommitBlockhash(req.Number, hash), "commit blockhash %d", req.Number)
	}
	return errors.Errorf("unknown requirement %v", req.Kind)
}
