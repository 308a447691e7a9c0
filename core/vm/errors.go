// Copyright 2014 The go-ethereum Authors
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
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
)

// OnChainError is an execution failure defined by the protocol. A frame that
// hits one exits with all of its gas consumed.
type OnChainError string

func (e OnChainError) Error() string { return string(e) }

// List of protocol defined execution errors.
const (
	ErrStackUnderflow OnChainError = "stack underflow"
	ErrStackOverflow  OnChainError = "stack overflow"
	ErrInvalidOpcode  OnChainError = "invalid opcode"
	ErrBadJumpDest    OnChainError = "invalid jump destination"
	ErrEmptyGas       OnChainError = "out of gas"
	ErrInvalidRange   OnChainError = "memory range overflows 256 bits"
)

// NotSupportedError reports a program that is valid on chain but cannot be
// executed by this machine under the active rule set or host limits.
type NotSupportedError string

func (e NotSupportedError) Error() string { return string(e) }

const (
	ErrOpcodeNotSupported      NotSupportedError = "opcode not supported"
	ErrMemoryIndexNotSupported NotSupportedError = "memory index not supported"
	ErrPrecompiledNotSupported NotSupportedError = "precompiled contract not supported"
)

// CommitError is returned when a host supplied fact cannot be accepted.
type CommitError string

func (e CommitError) Error() string { return string(e) }

const (
	ErrAlreadyCommitted  CommitError = "already committed"
	ErrInvalidCommitment CommitError = "invalid commitment"
)

// IsOnChain reports whether err is a protocol defined execution error.
func IsOnChain(err error) bool {
	var e OnChainError
	return errors.As(err, &e)
}

// IsNotSupported reports whether err signals an unsupported execution.
func IsNotSupported(err error) bool {
	var e NotSupportedError
	return errors.As(err, &e)
}

// RequireKind identifies the class of fact a machine is waiting for.
type RequireKind uint8

const (
	RequireAccount RequireKind = iota
	RequireAccountCode
	RequireAccountStorage
	RequireBlockhash
)

func (k RequireKind) String() string {
	switch k {
	case RequireAccount:
		return "account"
	case RequireAccountCode:
		return "code"
	case RequireAccountStorage:
		return "storage"
	case RequireBlockhash:
		return "blockhash"
	default:
		return fmt.Sprintf("RequireKind(%d)", uint8(k))
	}
}

// RequireError is returned by Step when the instruction under the cursor
// needs a fact the machine has not been given. The machine is left exactly as
// it was; commit the fact and step again.
type RequireError struct {
	Kind    RequireKind
	Address common.Address // Account, AccountCode and AccountStorage
	Index   uint256.Int    // AccountStorage
	Number  uint64         // Blockhash
}

func (e *RequireError) Error() string {
	switch e.Kind {
	case RequireAccountStorage:
		return fmt.Sprintf("require %v %x at %s", e.Kind, e.Address, e.Index.Hex())
	case RequireBlockhash:
		return fmt.Sprintf("require %v %d", e.Kind, e.Number)
	default:
		return fmt.Sprintf("require %v %x", e.Kind, e.Address)
	}
}

func requireAccount(addr common.Address) *RequireError {
	return &RequireError{Kind: RequireAccount, Address: addr}
}

func requireCode(addr common.Address) *RequireError {
	return &RequireError{Kind: RequireAccountCode, Address: addr}
}

func requireStorage(addr common.Address, index *uint256.Int) *RequireError {
	return &RequireError{Kind: RequireAccountStorage, Address: addr, Index: *index}
}

func requireBlockhash(number uint64) *RequireError {
	return &RequireError{Kind: RequireBlockhash, Number: number}
}
