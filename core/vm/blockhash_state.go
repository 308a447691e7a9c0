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
	"maps"

	"github.com/ethereum/go-ethereum/common"
)

// BlockhashState holds the ancestor block hashes committed by the host.
type BlockhashState struct {
	hashes map[uint64]common.Hash
}

// NewBlockhashState returns an empty blockhash state.
func NewBlockhashState() *BlockhashState {
	return &BlockhashState{hashes: make(map[uint64]common.Hash)}
}

// Commit records the hash of block number. Committing a different hash for
// a number already known fails with ErrAlreadyCommitted.
func (s *BlockhashState) Commit(number uint64, hash common.Hash) error {
	if prev, ok := s.hashes[number]; ok {
		if prev != hash {
			return ErrAlreadyCommitted
		}
		return nil
	}
	s.hashes[number] = hash
	return nil
}

// Get returns the hash of block number.
func (s *BlockhashState) Get(number uint64) (common.Hash, error) {
	if hash, ok := s.hashes[number]; ok {
		return hash, nil
	}
	return common.Hash{}, requireBlockhash(number)
}

// Copy returns an independent copy of the state.
func (s *BlockhashState) Copy() *BlockhashState {
	return &BlockhashState{hashes: maps.Clone(s.hashes)}
}

// merge adopts every hash known to other.
func (s *BlockhashState) merge(other *BlockhashState) {
	maps.Copy(s.hashes, other.hashes)
}
