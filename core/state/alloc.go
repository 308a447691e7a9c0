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
	"bytes"
	"encoding/json"
	"math/big"
	"os"

	"github.com/bnb-chain/stepvm/core/vm"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
)

// Alloc is a set of accounts, in the JSON layout of a genesis allocation.
type Alloc map[common.Address]AllocAccount

// AllocAccount is an account in the state of the genesis block.
type AllocAccount struct {
	Code    hexutil.Bytes               `json:"code,omitempty"`
	Storage map[common.Hash]common.Hash `json:"storage,omitempty"`
	Balance *math.HexOrDecimal256       `json:"balance"`
	Nonce   math.HexOrDecimal64         `json:"nonce,omitempty"`
}

// LoadAlloc reads an allocation from a JSON file.
func LoadAlloc(file string) (Alloc, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, errors.Wrap(err, "read alloc")
	}
	var alloc Alloc
	if err := json.Unmarshal(data, &alloc); err != nil {
		return nil, errors.Wrapf(err, "invalid alloc file %s", file)
	}
	return alloc, nil
}

// Write stores every account of the allocation in db.
func (a Alloc) Write(db *Database) error {
	for addr, acc := range a {
		balance := new(uint256.Int)
		if acc.Balance != nil {
			if overflow := balance.SetFromBig((*big.Int)(acc.Balance)); overflow {
				return errors.Errorf("balance of %x overflows", addr)
			}
		}
		if err := db.WriteAccount(addr, uint64(acc.Nonce), balance, acc.Code); err != nil {
			return err
		}
		for key, value := range acc.Storage {
			if err := db.WriteStorage(addr, key, value); err != nil {
				return err
			}
		}
	}
	return nil
}

// Apply returns a copy of the allocation with the effect of an execution
// applied: first the account changes, then the removal of the self
// destructed accounts. Zero storage slots are dropped.
func (a Alloc) Apply(changes []vm.AccountChange, removed []common.Address) Alloc {
	post := make(Alloc, len(a))
	for addr, acc := range a {
		post[addr] = acc.copy()
	}
	for _, change := range changes {
		switch c := change.(type) {
		case *vm.FullChange:
			acc := post[c.Address]
			acc.Nonce = math.HexOrDecimal64(c.Nonce)
			acc.Balance = (*math.HexOrDecimal256)(c.Balance.ToBig())
			acc.Code = common.CopyBytes(c.Code)
			acc.setStorage(c.Storage)
			post[c.Address] = acc
		case *vm.CreateChange:
			acc := AllocAccount{
				Nonce:   math.HexOrDecimal64(c.Nonce),
				Balance: (*math.HexOrDecimal256)(c.Balance.ToBig()),
				Code:    common.CopyBytes(c.Code),
			}
			acc.setStorage(c.Storage)
			post[c.Address] = acc
		case *vm.IncreaseBalanceChange:
			acc := post[c.Address]
			acc.Balance = (*math.HexOrDecimal256)(new(big.Int).Add(acc.balance(), c.Amount.ToBig()))
			post[c.Address] = acc
		case *vm.DecreaseBalanceChange:
			acc := post[c.Address]
			acc.Balance = (*math.HexOrDecimal256)(new(big.Int).Sub(acc.balance(), c.Amount.ToBig()))
			post[c.Address] = acc
		}
	}
	for _, addr := range removed {
		delete(post, addr)
	}
	return post
}

func (acc AllocAccount) copy() AllocAccount {
	cpy := acc
	cpy.Code = common.CopyBytes(acc.Code)
	if acc.Storage != nil {
		cpy.Storage = make(map[common.Hash]common.Hash, len(acc.Storage))
		for k, v := range acc.Storage {
			cpy.Storage[k] = v
		}
	}
	return cpy
}

func (acc AllocAccount) balance() *big.Int {
	if acc.Balance == nil {
		return new(big.Int)
	}
	return (*big.Int)(acc.Balance)
}

// setStorage writes the given slots over the account storage.
func (acc *AllocAccount) setStorage(slots map[uint256.Int]uint256.Int) {
	for k, v := range slots {
		key := common.Hash(k.Bytes32())
		if v.IsZero() {
			delete(acc.Storage, key)
			continue
		}
		if acc.Storage == nil {
			acc.Storage = make(map[common.Hash]common.Hash)
		}
		acc.Storage[key] = common.Hash(v.Bytes32())
	}
	if len(acc.Storage) == 0 {
		acc.Storage = nil
	}
}

// Dump reads every account stored in db.
func Dump(db *Database) (Alloc, error) {
	alloc := make(Alloc)
	it := db.db.NewIterator(accountPrefix, nil)
	defer it.Release()

	for it.Next() {
		key := it.Key()
		if len(key) != len(accountPrefix)+common.AddressLength {
			continue
		}
		addr := common.BytesToAddress(key[len(accountPrefix):])
		var stored storedAccount
		if err := rlp.DecodeBytes(it.Value(), &stored); err != nil {
			return nil, errors.Wrapf(err, "decode account %x", addr)
		}
		code, err := db.Code(common.BytesToHash(stored.CodeHash))
		if err != nil {
			return nil, err
		}
		acc := AllocAccount{
			Code:    code,
			Balance: (*math.HexOrDecimal256)(stored.Balance.ToBig()),
			Nonce:   math.HexOrDecimal64(stored.Nonce),
		}
		if acc.Storage, err = dumpStorage(db, addr); err != nil {
			return nil, err
		}
		alloc[addr] = acc
	}
	if err := it.Error(); err != nil {
		return nil, errors.Wrap(err, "iterate accounts")
	}
	return alloc, nil
}

func dumpStorage(db *Database, addr common.Address) (map[common.Hash]common.Hash, error) {
	prefix := storagePrefixKey(addr)
	it := db.db.NewIterator(prefix, nil)
	defer it.Release()

	var storage map[common.Hash]common.Hash
	for it.Next() {
		key := it.Key()
		if len(key) != len(prefix)+common.HashLength || !bytes.HasPrefix(key, prefix) {
			continue
		}
		if storage == nil {
			storage = make(map[common.Hash]common.Hash)
		}
		storage[common.BytesToHash(key[len(prefix):])] = common.BytesToHash(it.Value())
	}
	return storage, errors.Wrap(it.Error(), "iterate storage")
}
