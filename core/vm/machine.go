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
	"slices"

	"github.com/ethereum/go-ethereum/common"
	cmath "github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/log"
	"github.com/pkg/errors"
)

// StatusKind enumerates the states of a Machine.
type StatusKind uint8

const (
	Running StatusKind = iota
	ExitedOk
	ExitedErr
	ExitedNotSupported
	InvokeCreate
	InvokeCall
)

func (k StatusKind) String() string {
	switch k {
	case Running:
		return "running"
	case ExitedOk:
		return "exited ok"
	case ExitedErr:
		return "exited err"
	case ExitedNotSupported:
		return "exited not supported"
	case InvokeCreate:
		return "invoke create"
	case InvokeCall:
		return "invoke call"
	default:
		return fmt.Sprintf("StatusKind(%d)", uint8(k))
	}
}

// MachineStatus is the state of a Machine. Only a Running machine can be
// stepped.
type MachineStatus struct {
	Kind StatusKind
	Err  error // ExitedErr and ExitedNotSupported

	// Context is the frame to run next, for InvokeCreate and InvokeCall.
	Context *Context
	// OutOffset and OutLength locate the memory receiving the output of an
	// InvokeCall.
	OutOffset uint64
	OutLength uint64
}

// Exited reports whether the machine finished running.
func (s MachineStatus) Exited() bool {
	return s.Kind == ExitedOk || s.Kind == ExitedErr || s.Kind == ExitedNotSupported
}

func (s MachineStatus) String() string {
	if s.Err != nil {
		return fmt.Sprintf("%v: %v", s.Kind, s.Err)
	}
	return s.Kind.String()
}

// State is the full runtime state of a frame.
type State struct {
	Memory  *Memory
	Stack   *Stack
	Context Context
	Block   HeaderParams

	// Out is the output of the frame, set by RETURN or a precompiled contract.
	Out []byte

	MemoryCost  uint64 // Active memory in words
	UsedGas     uint64 // Gas used, excluding memory growth
	RefundedGas uint64

	AccountState   *AccountState
	BlockhashState *BlockhashState
	Logs           []Log
	Removed        []common.Address
	Depth          uint64
}

// MemoryGas returns the price of the memory used so far.
func (s *State) MemoryGas() uint64 {
	return memoryGas(s.MemoryCost)
}

// AvailableGas returns the gas left in the frame.
func (s *State) AvailableGas() uint64 {
	return s.Context.GasLimit - s.TotalUsedGas()
}

// TotalUsedGas returns the gas used including memory growth.
func (s *State) TotalUsedGas() uint64 {
	return s.MemoryGas() + s.UsedGas
}

// Machine executes one frame, one instruction per Step.
type Machine struct {
	state  State
	pc     *Cursor
	status MachineStatus
	patch  Patch
	tracer Tracer
}

// NewMachine creates a machine for the given frame without any facts.
func NewMachine(patch Patch, ctx Context, block HeaderParams, depth uint64) *Machine {
	return NewMachineWithState(patch, ctx, block, depth, NewAccountState(), NewBlockhashState())
}

// NewMachineWithState creates a machine for the given frame on top of
// existing facts. The machine takes ownership of the states.
func NewMachineWithState(patch Patch, ctx Context, block HeaderParams, depth uint64, accounts *AccountState, blockhashes *BlockhashState) *Machine {
	return &Machine{
		state: State{
			Memory:         NewMemory(),
			Stack:          newstack(),
			Context:        ctx,
			Block:          block,
			AccountState:   accounts,
			BlockhashState: blockhashes,
			Depth:          depth,
		},
		pc:     NewCursor(ctx.Code),
		status: MachineStatus{Kind: Running},
		patch:  patch,
	}
}

// Derive creates the machine of a child frame. The child starts from a copy
// of the facts, logs and removed accounts of m, with empty memory, stack and
// output. Effects of the child reach m only through ApplySub.
func (m *Machine) Derive(ctx Context) *Machine {
	child := NewMachineWithState(m.patch, ctx, m.state.Block, m.state.Depth+1,
		m.state.AccountState.Copy(), m.state.BlockhashState.Copy())
	child.state.Logs = slices.Clone(m.state.Logs)
	child.state.Removed = slices.Clone(m.state.Removed)
	child.tracer = m.tracer
	return child
}

// SetTracer installs a tracer, inherited by derived machines.
func (m *Machine) SetTracer(t Tracer) { m.tracer = t }

// CommitAccount supplies an account fact.
func (m *Machine) CommitAccount(c AccountCommitment) error {
	return m.state.AccountState.Commit(c)
}

// CommitBlockhash supplies the hash of an ancestor block.
func (m *Machine) CommitBlockhash(number uint64, hash common.Hash) error {
	return m.state.BlockhashState.Commit(number, hash)
}

// Status returns the current status.
func (m *Machine) Status() MachineStatus { return m.status }

// State returns the state of the frame. It must not be modified.
func (m *Machine) State() *State { return &m.state }

// PC returns the cursor of the frame.
func (m *Machine) PC() *Cursor { return m.pc }

// Patch returns the rule set the machine runs under.
func (m *Machine) Patch() Patch { return m.patch }

func (m *Machine) exit(kind StatusKind, err error) {
	if kind == ExitedErr {
		// A failing frame forfeits all of its gas.
		m.state.UsedGas = m.state.Context.GasLimit - m.state.MemoryGas()
		exitErrCounter.Inc(1)
	}
	m.status = MachineStatus{Kind: kind, Err: err}
	log.Trace("Machine exited", "depth", m.state.Depth, "status", kind, "err", err, "gas", m.state.TotalUsedGas())
	if m.tracer != nil {
		m.tracer.CaptureExit(m.state.Depth, m.status, m.state.TotalUsedGas(), m.state.Out)
	}
}

// fail classifies err. A *RequireError is handed back to the caller of
// Step with the machine untouched; every other error ends the frame.
func (m *Machine) fail(err error) error {
	var req *RequireError
	switch {
	case errors.As(err, &req):
		requireMeter.Mark(1)
		return err
	case IsNotSupported(err):
		m.exit(ExitedNotSupported, err)
	default:
		m.exit(ExitedErr, err)
	}
	return nil
}

// Step runs a single instruction. It returns a *RequireError when the
// instruction needs a fact that has not been committed, in which case the
// machine is unchanged and Step can be retried once the fact is committed.
// Every other outcome is reported through Status.
func (m *Machine) Step() error {
	if m.status.Kind != Running {
		panic(fmt.Sprintf("vm: step on a machine that is %v", m.status.Kind))
	}
	stepCounter.Inc(1)

	if m.stepPrecompiled() {
		return nil
	}
	if m.pc.IsEnd() {
		m.exit(ExitedOk, nil)
		return nil
	}
	in, err := m.pc.Peek()
	if err != nil {
		return m.fail(err)
	}
	var (
		st = &m.state
		op = jumpTable[in.Op]
	)
	dest, err := checkOpcode(op, &in, st)
	if err == nil && dest != nil && (!dest.IsUint64() || !m.pc.IsValid(dest.Uint64())) {
		err = ErrBadJumpDest
	}
	if err != nil {
		return m.fail(err)
	}
	words, err := memoryCost(op, st)
	if err != nil {
		return m.fail(err)
	}
	cost, err := gasCost(m.patch, op, &in, st)
	if err != nil {
		return m.fail(err)
	}
	refund, err := gasRefund(&in, st)
	if err != nil {
		return m.fail(err)
	}
	stipend := gasStipend(&in, st)

	allGas, overflow := cmath.SafeAdd(memoryGas(words), st.UsedGas)
	if !overflow {
		allGas, overflow = cmath.SafeAdd(allGas, cost)
	}
	if overflow || allGas > st.Context.GasLimit {
		return m.fail(ErrEmptyGas)
	}
	if err := checkSupport(m.patch, &in, words); err != nil {
		return m.fail(err)
	}
	afterGas := st.Context.GasLimit - allGas
	if err := extraCheckOpcode(m.patch, &in, st, afterGas); err != nil {
		return m.fail(err)
	}

	pc := m.pc.Position()
	if m.tracer != nil {
		m.tracer.CaptureState(pc, in.Op, st.AvailableGas(), cost, st)
	}
	if _, err := m.pc.Read(); err != nil {
		panic(err) // the instruction was decoded by Peek
	}
	if words > st.MemoryCost {
		st.Memory.Resize(words * 32)
	}
	ctrl := op.execute(&in, &frame{
		state:    st,
		patch:    m.patch,
		pc:       pc,
		afterGas: afterGas,
		stipend:  stipend,
	})
	st.UsedGas += cost - stipend
	st.MemoryCost = words
	st.RefundedGas += refund

	if ctrl == nil {
		return nil
	}
	switch ctrl.kind {
	case controlStop:
		m.exit(ExitedOk, nil)
	case controlJump:
		m.pc.Jump(ctrl.dest)
	case controlInvokeCreate:
		m.status = MachineStatus{Kind: InvokeCreate, Context: ctrl.context}
	case controlInvokeCall:
		m.status = MachineStatus{
			Kind:      InvokeCall,
			Context:   ctrl.context,
			OutOffset: ctrl.outOffset,
			OutLength: ctrl.outLength,
		}
	}
	return nil
}

// stepPrecompiled runs the frame as a native contract if its code address
// is bound to one. It reports whether it did.
func (m *Machine) stepPrecompiled() bool {
	ctx := &m.state.Context
	for _, p := range m.patch.Precompileds() {
		if ctx.CodeAddress != p.Address {
			continue
		}
		if p.Code != nil && !bytes.Equal(p.Code, ctx.Code) {
			continue
		}
		precompiledCounter.Inc(1)
		ret, gas, err := RunPrecompiledContract(p.Contract, ctx.Data, ctx.GasLimit)
		switch {
		case err == nil:
			m.state.UsedGas = gas
			m.state.Out = ret
			m.exit(ExitedOk, nil)
		case IsNotSupported(err):
			m.exit(ExitedNotSupported, err)
		default:
			m.exit(ExitedErr, err)
		}
		return true
	}
	return false
}
