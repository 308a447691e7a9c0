// Copyright 2015 The go-ethereum Authors
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

// Package runtime runs programs on the step machine to completion, answering
// every fact the machine asks for from a state.FactSource.
package runtime

import (
	"context"
	"math"
	"time"

	"github.com/bnb-chain/stepvm/core/state"
	"github.com/bnb-chain/stepvm/core/vm"
	"github.com/bnb-chain/stepvm/params"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethdb/memorydb"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
)

// ErrInsufficientBalance is returned when the origin cannot pay the value
// of the outermost frame.
var ErrInsufficientBalance = errors.New("insufficient balance for transfer")

// Config is a basic type specifying certain configuration flags for running
// the machine.
type Config struct {
	Patch       vm.Patch
	Difficulty  *uint256.Int
	Origin      common.Address
	Caller      common.Address // Caller of the outermost frame, Origin if zero
	Coinbase    common.Address
	BlockNumber uint64
	Time        uint64
	GasLimit    uint64
	GasPrice    *uint256.Int
	Value       *uint256.Int
	Tracer      vm.Tracer

	Source state.FactSource
}

// sets defaults on the config
func setDefaults(cfg *Config) {
	if cfg.Patch == nil {
		cfg.Patch = vm.EIP160Patch
	}
	if cfg.Difficulty == nil {
		cfg.Difficulty = new(uint256.Int)
	}
	if cfg.Time == 0 {
		cfg.Time = uint64(time.Now().Unix())
	}
	if cfg.GasLimit == 0 {
		cfg.GasLimit = math.MaxUint64
	}
	if cfg.GasPrice == nil {
		cfg.GasPrice = new(uint256.Int)
	}
	if cfg.Value == nil {
		cfg.Value = new(uint256.Int)
	}
	if cfg.Caller == (common.Address{}) {
		cfg.Caller = cfg.Origin
	}
	if cfg.Source == nil {
		cfg.Source = state.NewDatabase(memorydb.New(), 0)
	}
}

func (cfg *Config) header() vm.HeaderParams {
	return vm.HeaderParams{
		Coinbase:   cfg.Coinbase,
		Timestamp:  cfg.Time,
		Number:     cfg.BlockNumber,
		Difficulty: *cfg.Difficulty,
		GasLimit:   cfg.GasLimit,
	}
}

func (cfg *Config) frame(address common.Address, input, code []byte) vm.Context {
	return vm.Context{
		Address:       address,
		Caller:        cfg.Caller,
		CodeAddress:   address,
		Value:         *cfg.Value,
		ApparentValue: *cfg.Value,
		Data:          input,
		Code:          code,
		GasLimit:      cfg.GasLimit,
		GasPrice:      *cfg.GasPrice,
		Origin:        cfg.Origin,
	}
}

// Execute executes the code using the input as call data during the execution.
// It returns the result of the execution, including the account changes it
// made, or an error if the execution could not be completed.
//
// Execute sets up an in-memory, temporary, environment for the execution of
// the given code. It makes sure that it's restored to its original state afterwards.
func Execute(ctx context.Context, code, input []byte, cfg *Config) (*Result, error) {
	if cfg == nil {
		cfg = new(Config)
	}
	setDefaults(cfg)

	address := common.BytesToAddress([]byte("contract"))
	m := vm.NewMachine(cfg.Patch, cfg.frame(address, input, code), cfg.header(), 0)

	// The contract runs the given code whatever the source holds.
	acc, err := cfg.Source.Account(address)
	if err != nil {
		return nil, errors.Wrap(err, "load contract account")
	}
	contract := &vm.FullCommitment{Address: address, Code: code}
	if full, ok := acc.(*vm.FullCommitment); ok {
		contract.Nonce, contract.Balance = full.Nonce, full.Balance
	}
	if err := m.CommitAccount(contract); err != nil {
		return nil, err
	}
	return call(ctx, m, cfg)
}

// Call executes the code of the account at address with the given input.
func Call(ctx context.Context, address common.Address, input []byte, cfg *Config) (*Result, error) {
	if cfg == nil {
		cfg = new(Config)
	}
	setDefaults(cfg)

	acc, err := cfg.Source.Account(address)
	if err != nil {
		return nil, errors.Wrapf(err, "load account %x", address)
	}
	var code []byte
	if full, ok := acc.(*vm.FullCommitment); ok {
		code = full.Code
	}
	m := vm.NewMachine(cfg.Patch, cfg.frame(address, input, code), cfg.header(), 0)
	if err := m.CommitAccount(acc); err != nil {
		return nil, err
	}
	return call(ctx, m, cfg)
}

// Create executes the code as init code, deploying whatever it returns to the
// address derived from the caller and its nonce.
func Create(ctx context.Context, code []byte, cfg *Config) (*Result, error) {
	if cfg == nil {
		cfg = new(Config)
	}
	setDefaults(cfg)

	creator, err := cfg.Source.Account(cfg.Caller)
	if err != nil {
		return nil, errors.Wrapf(err, "load creator %x", cfg.Caller)
	}
	var nonce uint64
	if full, ok := creator.(*vm.FullCommitment); ok {
		nonce = full.Nonce
	}
	address := crypto.CreateAddress(cfg.Caller, nonce)
	m := vm.NewMachine(cfg.Patch, cfg.frame(address, nil, code), cfg.header(), 0)
	if err := m.CommitAccount(creator); err != nil {
		return nil, err
	}

	d := newDriver(ctx, cfg.Source)
	if err := d.checkBalance(m); err != nil {
		return nil, err
	}
	if err := m.State().AccountState.SetNonce(cfg.Caller, nonce+1); err != nil {
		return nil, err
	}
	for err := m.InitializeCreate(); err != nil; err = m.InitializeCreate() {
		if err := d.resolve(m, err); err != nil {
			return nil, err
		}
	}
	m.SetTracer(cfg.Tracer)
	if err := d.run(m); err != nil {
		return nil, err
	}
	res := d.result(m)
	res.Address = address
	if res.Status.Kind == vm.ExitedOk {
		deposit(m, res)
	}
	return res, nil
}

// call runs a prepared call frame.
func call(ctx context.Context, m *vm.Machine, cfg *Config) (*Result, error) {
	d := newDriver(ctx, cfg.Source)
	if err := d.checkBalance(m); err != nil {
		return nil, err
	}
	m.InitializeCall()
	m.SetTracer(cfg.Tracer)
	if err := d.run(m); err != nil {
		return nil, err
	}
	return d.result(m), nil
}

// deposit stores the output of a successful outermost create frame as the
// code of the new account.
func deposit(m *vm.Machine, res *Result) {
	st := m.State()
	cost := uint64(len(res.Output)) * params.CreateDataGas
	if cost > st.AvailableGas() {
		if m.Patch().ForceCodeDeposit() {
			res.Status = vm.MachineStatus{Kind: vm.ExitedErr, Err: vm.ErrEmptyGas}
			res.UsedGas = st.Context.GasLimit
			res.Changes = nil
		}
		return
	}
	if err := st.AccountState.SetCode(res.Address, res.Output); err != nil {
		panic(err) // created by InitializeCreate
	}
	res.UsedGas += cost
	res.Changes = st.AccountState.Changes()
}
