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

// Context provides the inputs of a single execution frame.
type Context struct {
	Address     common.Address // Account whose storage and balance the frame acts on
	Caller      common.Address // CALLER
	CodeAddress common.Address // Account the executed code was loaded from

	// Value is moved from Caller to Address when the frame starts.
	// ApparentValue is what CALLVALUE observes; it differs from Value
	// only for DELEGATECALL frames.
	Value         uint256.Int
	ApparentValue uint256.Int

	Data     []byte
	Code     []byte
	GasLimit uint64
	GasPrice uint256.Int
	Origin   common.Address
}

// HeaderParams are the block header fields observable by a program.
type HeaderParams struct {
	Coinbase   common.Address
	Timestamp  uint64
	Number     uint64
	Difficulty uint256.Int
	GasLimit   uint64
}

// Log is an event emitted by a LOGn instruction.
type Log struct {
	Address common.Address
	Topics  []common.Hash
	Data    []byte
}
