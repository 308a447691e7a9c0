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
	"bytes"
	"fmt"
	"maps"
	"slices"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

type accountKind uint8

const (
	accountFull     accountKind = iota // committed by the host
	accountCreate                      // created or revived during execution, storage starts empty
	accountNonexist                    // committed as nonexistent and untouched since
	accountIncrease                    // never read, credited by balance
	accountDecrease                    // never read, debited by balance
)

// storage is the view of one account's storage slots. Slots committed by the
// host live in committed; writes made by execution live in dirty. Reading a
// slot found in neither is a requirement unless the storage is fresh.
type storage struct {
	committed map[uint256.Int]uint256.Int
	dirty     map[uint256.Int]uint256.Int
	fresh     bool
}

func newStorage(fresh bool) *storage {
	return &storage{
		committed: make(map[uint256.Int]uint256.Int),
		dirty:     make(map[uint256.Int]uint256.Int),
		fresh:     fresh,
	}
}

func (s *storage) get(index *uint256.Int) (uint256.Int, bool) {
	if v, ok := s.dirty[*index]; ok {
		return v, true
	}
	if v, ok := s.committed[*index]; ok {
		return v, true
	}
	return uint256.Int{}, s.fresh
}

func (s *storage) set(index, value *uint256.Int) bool {
	if _, ok := s.get(index); !ok {
		return false
	}
	s.dirty[*index] = *value
	return true
}

func (s *storage) commit(index, value *uint256.Int) error {
	if s.fresh {
		return ErrInvalidCommitment
	}
	if v, ok := s.committed[*index]; ok {
		if v != *value {
			return ErrAlreadyCommitted
		}
		return nil
	}
	s.committed[*index] = *value
	return nil
}

func (s *storage) copy() *storage {
	return &storage{
		committed: maps.Clone(s.committed),
		dirty:     maps.Clone(s.dirty),
		fresh:     s.fresh,
	}
}

type account struct {
	kind    accountKind
	nonce   uint64
	balance uint256.Int // the delta for accountIncrease and accountDecrease
	code    []byte
	storage *storage
	origin  AccountCommitment // fact the account was built from
}

// known reports whether the account's balance, nonce and code are readable.
func (a *account) known() bool {
	return a.kind == accountFull || a.kind == accountCreate || a.kind == accountNonexist
}

func (a *account) copy() *account {
	cpy := *a
	if a.storage != nil {
		cpy.storage = a.storage.copy()
	}
	return &cpy
}

// revive turns a nonexistent account into an empty created account.
func (a *account) revive() {
	if a.kind == accountNonexist {
		a.kind = accountCreate
		a.storage = newStorage(true)
	}
}

// AccountState is the set of account facts a frame has been given, together
// with the writes execution has made on top of them. Every read of a fact
// that was not committed fails with a *RequireError.
type AccountState struct {
	accounts map[common.Address]*account
	codes    map[common.Address][]byte // code-only commitments
}

// NewAccountState returns an empty account state.
func NewAccountState() *AccountState {
	return &AccountState{
		accounts: make(map[common.Address]*account),
		codes:    make(map[common.Address][]byte),
	}
}

// Copy returns an independent deep copy of the state.
func (s *AccountState) Copy() *AccountState {
	cpy := &AccountState{
		accounts: make(map[common.Address]*account, len(s.accounts)),
		codes:    maps.Clone(s.codes),
	}
	for addr, acc := range s.accounts {
		cpy.accounts[addr] = acc.copy()
	}
	return cpy
}

func sameCommitment(a, b AccountCommitment) bool {
	switch a := a.(type) {
	case *FullCommitment:
		b, ok := b.(*FullCommitment)
		return ok && a.Nonce == b.Nonce && a.Balance == b.Balance && bytes.Equal(a.Code, b.Code)
	case *NonexistCommitment:
		_, ok := b.(*NonexistCommitment)
		return ok
	}
	return false
}

// Commit records a host supplied fact.
func (s *AccountState) Commit(c AccountCommitment) error {
	addr := c.CommitAddress()
	switch c := c.(type) {
	case *FullCommitment:
		if code, ok := s.codes[addr]; ok && !bytes.Equal(code, c.Code) {
			return ErrAlreadyCommitted
		}
		acc := &account{
			kind:    accountFull,
			nonce:   c.Nonce,
			balance: c.Balance,
			code:    c.Code,
			storage: newStorage(false),
			origin:  c,
		}
		if prev, ok := s.accounts[addr]; ok {
			switch prev.kind {
			case accountIncrease:
				acc.balance.Add(&acc.balance, &prev.balance)
			case accountDecrease:
				if acc.balance.Lt(&prev.balance) {
					return ErrInvalidCommitment
				}
				acc.balance.Sub(&acc.balance, &prev.balance)
			default:
				if !sameCommitment(prev.origin, c) {
					return ErrAlreadyCommitted
				}
				return nil
			}
		}
		delete(s.codes, addr)
		s.accounts[addr] = acc

	case *CodeCommitment:
		if prev, ok := s.accounts[addr]; ok && prev.known() {
			if !bytes.Equal(prev.code, c.Code) {
				return ErrAlreadyCommitted
			}
			return nil
		}
		if code, ok := s.codes[addr]; ok {
			if !bytes.Equal(code, c.Code) {
				return ErrAlreadyCommitted
			}
			return nil
		}
		s.codes[addr] = c.Code

	case *StorageCommitment:
		acc, ok := s.accounts[addr]
		if !ok || acc.kind != accountFull {
			return ErrInvalidCommitment
		}
		return acc.storage.commit(&c.Index, &c.Value)

	case *NonexistCommitment:
		if code, ok := s.codes[addr]; ok && len(code) != 0 {
			return ErrAlreadyCommitted
		}
		acc := &account{kind: accountNonexist, origin: c}
		if prev, ok := s.accounts[addr]; ok {
			switch prev.kind {
			case accountIncrease:
				acc.revive()
				acc.balance = prev.balance
			case accountDecrease:
				return ErrInvalidCommitment
			default:
				if !sameCommitment(prev.origin, c) {
					return ErrAlreadyCommitted
				}
				return nil
			}
		}
		delete(s.codes, addr)
		s.accounts[addr] = acc

	default:
		panic(fmt.Sprintf("vm: unknown account commitment %T", c))
	}
	return nil
}

func (s *AccountState) knownAccount(addr common.Address) (*account, error) {
	if acc, ok := s.accounts[addr]; ok && acc.known() {
		return acc, nil
	}
	return nil, requireAccount(addr)
}

// Require checks that the balance, nonce and code of addr can be read.
func (s *AccountState) Require(addr common.Address) error {
	_, err := s.knownAccount(addr)
	return err
}

// RequireCode checks that the code of addr can be read.
func (s *AccountState) RequireCode(addr common.Address) error {
	_, err := s.Code(addr)
	return err
}

// RequireStorage checks that the given storage slot of addr can be read.
func (s *AccountState) RequireStorage(addr common.Address, index *uint256.Int) error {
	_, err := s.StorageAt(addr, index)
	return err
}

// Exists reports whether an account lives at addr.
func (s *AccountState) Exists(addr common.Address) (bool, error) {
	acc, err := s.knownAccount(addr)
	if err != nil {
		return false, err
	}
	return acc.kind != accountNonexist, nil
}

// Balance returns the balance of addr.
func (s *AccountState) Balance(addr common.Address) (uint256.Int, error) {
	acc, err := s.knownAccount(addr)
	if err != nil {
		return uint256.Int{}, err
	}
	return acc.balance, nil
}

// Nonce returns the nonce of addr.
func (s *AccountState) Nonce(addr common.Address) (uint64, error) {
	acc, err := s.knownAccount(addr)
	if err != nil {
		return 0, err
	}
	return acc.nonce, nil
}

// Code returns the code of addr.
func (s *AccountState) Code(addr common.Address) ([]byte, error) {
	if acc, ok := s.accounts[addr]; ok && acc.known() {
		return acc.code, nil
	}
	if code, ok := s.codes[addr]; ok {
		return code, nil
	}
	return nil, requireCode(addr)
}

// StorageAt returns the value of a storage slot of addr.
func (s *AccountState) StorageAt(addr common.Address, index *uint256.Int) (uint256.Int, error) {
	acc, err := s.knownAccount(addr)
	if err != nil {
		return uint256.Int{}, err
	}
	if acc.kind == accountNonexist {
		return uint256.Int{}, nil
	}
	v, ok := acc.storage.get(index)
	if !ok {
		return uint256.Int{}, requireStorage(addr, index)
	}
	return v, nil
}

// SetStorage writes a storage slot of addr. The slot must be readable.
func (s *AccountState) SetStorage(addr common.Address, index, value *uint256.Int) error {
	acc, err := s.knownAccount(addr)
	if err != nil {
		return err
	}
	acc.revive()
	if !acc.storage.set(index, value) {
		return requireStorage(addr, index)
	}
	return nil
}

// Create (re)creates the account at addr with empty code and storage. The
// existing balance is kept and value is added to it.
func (s *AccountState) Create(addr common.Address, value *uint256.Int) error {
	prev, err := s.knownAccount(addr)
	if err != nil {
		return err
	}
	acc := &account{
		kind:    accountCreate,
		balance: prev.balance,
		storage: newStorage(true),
		origin:  prev.origin,
	}
	acc.balance.Add(&acc.balance, value)
	s.accounts[addr] = acc
	return nil
}

// IncreaseBalance credits addr with amount. The account does not have to
// be known.
func (s *AccountState) IncreaseBalance(addr common.Address, amount *uint256.Int) {
	acc, ok := s.accounts[addr]
	if !ok {
		s.accounts[addr] = &account{kind: accountIncrease, balance: *amount}
		return
	}
	switch acc.kind {
	case accountFull, accountCreate:
		acc.balance.Add(&acc.balance, amount)
	case accountNonexist:
		acc.revive()
		acc.balance = *amount
	case accountIncrease:
		acc.balance.Add(&acc.balance, amount)
	case accountDecrease:
		if acc.balance.Lt(amount) {
			acc.kind = accountIncrease
			acc.balance.Sub(amount, &acc.balance)
		} else {
			acc.balance.Sub(&acc.balance, amount)
		}
	}
}

// DecreaseBalance debits addr by amount. A known account must hold at least
// amount; an unknown one is recorded as a pending debit.
func (s *AccountState) DecreaseBalance(addr common.Address, amount *uint256.Int) {
	acc, ok := s.accounts[addr]
	if !ok {
		s.accounts[addr] = &account{kind: accountDecrease, balance: *amount}
		return
	}
	switch acc.kind {
	case accountFull, accountCreate:
		if acc.balance.Lt(amount) {
			panic(fmt.Sprintf("vm: insufficient balance for debit of %x", addr))
		}
		acc.balance.Sub(&acc.balance, amount)
	case accountNonexist:
		if !amount.IsZero() {
			panic(fmt.Sprintf("vm: debit of nonexistent account %x", addr))
		}
	case accountIncrease:
		if acc.balance.Lt(amount) {
			acc.kind = accountDecrease
			acc.balance.Sub(amount, &acc.balance)
		} else {
			acc.balance.Sub(&acc.balance, amount)
		}
	case accountDecrease:
		acc.balance.Add(&acc.balance, amount)
	}
}

// SetNonce sets the nonce of addr.
func (s *AccountState) SetNonce(addr common.Address, nonce uint64) error {
	acc, err := s.knownAccount(addr)
	if err != nil {
		return err
	}
	acc.revive()
	acc.nonce = nonce
	return nil
}

// SetCode replaces the code of addr.
func (s *AccountState) SetCode(addr common.Address, code []byte) error {
	acc, err := s.knownAccount(addr)
	if err != nil {
		return err
	}
	acc.revive()
	acc.code = code
	return nil
}

// Changes returns the effect of execution on every account the state
// knows about, ordered by address.
func (s *AccountState) Changes() []AccountChange {
	changes := make([]AccountChange, 0, len(s.accounts))
	for addr, acc := range s.accounts {
		switch acc.kind {
		case accountFull:
			changes = append(changes, &FullChange{
				Address: addr,
				Nonce:   acc.nonce,
				Balance: acc.balance,
				Code:    acc.code,
				Storage: maps.Clone(acc.storage.dirty),
			})
		case accountCreate:
			written := make(map[uint256.Int]uint256.Int)
			for k, v := range acc.storage.dirty {
				if !v.IsZero() {
					written[k] = v
				}
			}
			changes = append(changes, &CreateChange{
				Address: addr,
				Nonce:   acc.nonce,
				Balance: acc.balance,
				Code:    acc.code,
				Storage: written,
			})
		case accountNonexist:
			changes = append(changes, &NonexistChange{Address: addr})
		case accountIncrease:
			changes = append(changes, &IncreaseBalanceChange{Address: addr, Amount: acc.balance})
		case accountDecrease:
			changes = append(changes, &DecreaseBalanceChange{Address: addr, Amount: acc.balance})
		}
	}
	slices.SortFunc(changes, func(a, b AccountChange) int {
		return a.ChangeAddress().Cmp(b.ChangeAddress())
	})
	return changes
}
