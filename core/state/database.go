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
	"io"
	"strconv"
	"time"

	"github.com/VictoriaMetrics/fastcache"
	"github.com/bnb-chain/stepvm/core/vm"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethdb"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/metrics"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
)

var (
	cacheHitMeter    = metrics.NewRegisteredMeter("state/cache/hit", nil)
	cacheMissMeter   = metrics.NewRegisteredMeter("state/cache/miss", nil)
	accountReadTimer = metrics.NewRegisteredTimer("state/read/account", nil)
	storageReadTimer = metrics.NewRegisteredTimer("state/read/storage", nil)

	emptyCodeHash = crypto.Keccak256Hash(nil)
)

// Store is the key-value storage backing a Database.
type Store interface {
	ethdb.KeyValueReader
	ethdb.KeyValueWriter
	ethdb.Iteratee
	io.Closer
}

// storedAccount is the consensus representation of accounts.
// These objects are stored in the database.
type storedAccount struct {
	Nonce    uint64
	Balance  *uint256.Int
	CodeHash []byte
}

// Database is a FactSource reading accounts, storage and block hashes from
// a key-value store. Reads are served from an in-memory cache when possible.
type Database struct {
	db    Store
	cache *fastcache.Cache // nil if caching is disabled
}

// NewDatabase wraps db. cacheSize is the size of the read cache in
// megabytes; zero disables caching.
func NewDatabase(db Store, cacheSize int) *Database {
	d := &Database{db: db}
	if cacheSize > 0 {
		d.cache = fastcache.New(cacheSize * 1024 * 1024)
	}
	return d
}

// get reads key, reporting whether it exists.
func (d *Database) get(key []byte) ([]byte, bool, error) {
	if d.cache != nil {
		if v, ok := d.cache.HasGet(nil, key); ok {
			cacheHitMeter.Mark(1)
			return v, true, nil
		}
		cacheMissMeter.Mark(1)
	}
	has, err := d.db.Has(key)
	if err != nil {
		return nil, false, errors.Wrapf(err, "lookup key %x", key)
	}
	if !has {
		return nil, false, nil
	}
	v, err := d.db.Get(key)
	if err != nil {
		return nil, false, errors.Wrapf(err, "read key %x", key)
	}
	if d.cache != nil {
		d.cache.Set(key, v)
	}
	return v, true, nil
}

func (d *Database) put(key, value []byte) error {
	if err := d.db.Put(key, value); err != nil {
		return errors.Wrapf(err, "write key %x", key)
	}
	if d.cache != nil {
		d.cache.Set(key, value)
	}
	return nil
}

// Account returns the account at addr as a Full commitment, or a Nonexist
// commitment if the database does not hold it.
func (d *Database) Account(addr common.Address) (vm.AccountCommitment, error) {
	defer accountReadTimer.UpdateSince(time.Now())

	enc, ok, err := d.get(accountKey(addr))
	if err != nil {
		return nil, err
	}
	if !ok {
		return &vm.NonexistCommitment{Address: addr}, nil
	}
	var acc storedAccount
	if err := rlp.DecodeBytes(enc, &acc); err != nil {
		return nil, errors.Wrapf(err, "decode account %x", addr)
	}
	code, err := d.Code(common.BytesToHash(acc.CodeHash))
	if err != nil {
		return nil, errors.Wrapf(err, "account %x", addr)
	}
	c := &vm.FullCommitment{Address: addr, Nonce: acc.Nonce, Code: code}
	if acc.Balance != nil {
		c.Balance = *acc.Balance
	}
	log.Trace("Loaded account", "address", addr, "nonce", acc.Nonce, "code", len(code))
	return c, nil
}

// Code returns the code with the given hash.
func (d *Database) Code(hash common.Hash) ([]byte, error) {
	if hash == emptyCodeHash || hash == (common.Hash{}) {
		return nil, nil
	}
	code, ok, err := d.get(codeKey(hash))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.Errorf("missing code %x", hash)
	}
	return code, nil
}

// Storage returns the value of a storage slot. Slots that were never
// written hold zero.
func (d *Database) Storage(addr common.Address, key *uint256.Int) (uint256.Int, error) {
	defer storageReadTimer.UpdateSince(time.Now())

	var value uint256.Int
	enc, ok, err := d.get(storageKey(addr, common.Hash(key.Bytes32())))
	if err != nil || !ok {
		return value, err
	}
	value.SetBytes(enc)
	return value, nil
}

// Blockhash returns the hash of block number. Blocks the database knows
// nothing about hash to the keccak256 of their decimal number.
func (d *Database) Blockhash(number uint64) (common.Hash, error) {
	enc, ok, err := d.get(blockhashKey(number))
	if err != nil {
		return common.Hash{}, err
	}
	if !ok {
		return crypto.Keccak256Hash([]byte(strconv.FormatUint(number, 10))), nil
	}
	return common.BytesToHash(enc), nil
}

// WriteAccount stores an account together with its code.
func (d *Database) WriteAccount(addr common.Address, nonce uint64, balance *uint256.Int, code []byte) error {
	hash := crypto.Keccak256Hash(code)
	if len(code) > 0 {
		if err := d.put(codeKey(hash), code); err != nil {
			return err
		}
	}
	enc, err := rlp.EncodeToBytes(&storedAccount{Nonce: nonce, Balance: balance, CodeHash: hash.Bytes()})
	if err != nil {
		return errors.Wrapf(err, "encode account %x", addr)
	}
	return d.put(accountKey(addr), enc)
}

// WriteStorage stores the value of a storage slot.
func (d *Database) WriteStorage(addr common.Address, key, value common.Hash) error {
	return d.put(storageKey(addr, key), value.Bytes())
}

// WriteBlockhash stores the hash of block number.
func (d *Database) WriteBlockhash(number uint64, hash common.Hash) error {
	return d.put(blockhashKey(number), hash.Bytes())
}

// Close closes the underlying store.
func (d *Database) Close() error {
	if d.cache != nil {
		d.cache.Reset()
	}
	return d.db.Close()
}
