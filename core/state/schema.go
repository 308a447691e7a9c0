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
	"encoding/binary"

	"github.com/ethereum/go-ethereum/common"
)

// The fields below define the low level database schema prefixing.
var (
	accountPrefix   = []byte("a") // accountPrefix + address -> rlp(storedAccount)
	codePrefix      = []byte("c") // codePrefix + code hash -> code
	storagePrefix   = []byte("s") // storagePrefix + address + slot -> 32 byte value
	blockhashPrefix = []byte("h") // blockhashPrefix + num (uint64 big endian) -> hash
)

// accountKey = accountPrefix + address
func accountKey(addr common.Address) []byte {
	return append(accountPrefix, addr.Bytes()...)
}

// codeKey = codePrefix + hash
func codeKey(hash common.Hash) []byte {
	return append(codePrefix, hash.Bytes()...)
}

// storagePrefixKey = storagePrefix + address
func storagePrefixKey(addr common.Address) []byte {
	return append(storagePrefix, addr.Bytes()...)
}

// storageKey = storagePrefix + address + slot
func storageKey(addr common.Address, slot common.Hash) []byte {
	return append(storagePrefixKey(addr), slot.Bytes()...)
}

// encodeBlockNumber encodes a block number as big endian uint64
func encodeBlockNumber(number uint64) []byte {
	enc := make([]byte, 8)
	binary.BigEndian.PutUint64(enc, number)
	return enc
}

// blockhashKey = blockhashPrefix + num (uint64 big endian)
func blockhashKey(number uint64) []byte {
	return append(blockhashPrefix, encodeBlockNumber(number)...)
}
