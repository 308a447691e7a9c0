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
	"fmt"

	"github.com/bnb-chain/stepvm/params"
	"github.com/holiman/uint256"
)

// InitializeCall moves the frame's value from its caller to its address.
// It is called once, before the first Step of a call frame.
func (m *Machine) InitializeCall() {
	ctx := &m.state.Context
	m.state.AccountState.DecreaseBalance(ctx.Caller, &ctx.Value)
	m.state.AccountState.IncreaseBalance(ctx.Address, &ctx.Value)
}

// InitializeCreate creates the account the frame's code is deployed to and
// funds it. Like Step, it fails with a *RequireError leaving the machine
// untouched when the account at the new address is not known.
func (m *Machine) InitializeCreate() error {
	ctx := &m.state.Context
	if err := m.state.AccountState.Require(ctx.Address); err != nil {
		requireMeter.Mark(1)
		return err
	}
	if err := m.state.AccountState.Create(ctx.Address, &ctx.Value); err != nil {
		return err
	}
	m.state.AccountState.DecreaseBalance(ctx.Caller, &ctx.Value)
	return nil
}

// ApplySub merges the result of an exited child machine, created by Derive
// from the context of the pending InvokeCall or InvokeCreate, back into m
// and resumes m.
func (m *Machine) ApplySub(sub *Machine) {
	invoke := m.status
	if invoke.Kind != InvokeCall && invoke.Kind != InvokeCreate {
		panic(fmt.Sprintf("vm: apply sub machine to a machine that is %v", invoke.Kind))
	}
	if !sub.status.Exited() {
		panic(fmt.Sprintf("vm: apply sub machine that is %v", sub.status.Kind))
	}
	m.status = MachineStatus{Kind: Running}

	switch sub.status.Kind {
	case ExitedOk:
		if invoke.Kind == InvokeCreate && !m.depositCode(sub) {
			m.applyFailedSub(sub)
			return
		}
		m.state.AccountState = sub.state.AccountState
		m.state.BlockhashState = sub.state.BlockhashState
		m.state.Logs = sub.state.Logs
		m.state.Removed = sub.state.Removed
		m.state.UsedGas += sub.state.TotalUsedGas()
		m.state.RefundedGas += sub.state.RefundedGas

		if invoke.Kind == InvokeCreate {
			address := sub.state.Context.Address
			m.state.Stack.push(new(uint256.Int).SetBytes(address.Bytes()))
			return
		}
		out := sub.state.Out
		if uint64(len(out)) > invoke.OutLength {
			out = out[:invoke.OutLength]
		}
		m.state.Memory.Set(invoke.OutOffset, uint64(len(out)), out)
		m.state.Stack.push(new(uint256.Int).SetOne())

	case ExitedErr:
		m.applyFailedSub(sub)

	case ExitedNotSupported:
		m.exit(ExitedNotSupported, sub.status.Err)
	}
}

// applyFailedSub charges the whole gas of a failed child and signals the
// failure to the program. Facts about ancestor blocks remain valid.
func (m *Machine) applyFailedSub(sub *Machine) {
	m.state.UsedGas += sub.state.Context.GasLimit
	m.state.BlockhashState.merge(sub.state.BlockhashState)
	m.state.Stack.push(new(uint256.Int))
}

// depositCode stores the output of a successful create frame as the code of
// the new account, charging the deposit to the child. It reports false if
// the deposit cannot be paid for and the patch turns that into a failure.
func (m *Machine) depositCode(sub *Machine) bool {
	code := sub.state.Out
	cost := uint64(len(code)) * params.CreateDataGas
	if cost > sub.state.AvailableGas() {
		return !m.patch.ForceCodeDeposit()
	}
	sub.state.UsedGas += cost
	if err := sub.state.AccountState.SetCode(sub.state.Context.Address, code); err != nil {
		panic(err) // the account was created by InitializeCreate
	}
	return true
}
