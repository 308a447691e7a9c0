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

package runtime

import (
	"context"
	"slices"
	"time"

	"github.com/bnb-chain/stepvm/core/state"
	"github.com/bnb-chain/stepvm/core/vm"
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/metrics"
	"github.com/pkg/errors"
)

var (
	executionTimer = metrics.NewRegisteredTimer("runtime/execution", nil)
	frameCounter   = metrics.NewRegisteredCounter("runtime/frames", nil)
)

// Result is the outcome of running a program to completion.
type Result struct {
	Status      vm.MachineStatus
	Output      []byte
	UsedGas     uint64 // Total gas used, refunds not applied
	RefundedGas uint64
	Logs        []vm.Log
	Removed     []common.Address
	Changes     []vm.AccountChange // Effect on the accounts, nil unless the run succeeded
	Touched     []common.Address   // Accounts read or invoked, sorted
	Address     common.Address     // Created contract, Create only
}

// Failed reports whether the outermost frame did not exit normally.
func (r *Result) Failed() bool {
	return r.Status.Kind != vm.ExitedOk
}

// driver runs a stack of frames, answering requirements from a FactSource.
type driver struct {
	ctx     context.Context
	src     state.FactSource
	touched mapset.Set[common.Address]
	start   time.Time
}

func newDriver(ctx context.Context, src state.FactSource) *driver {
	return &driver{
		ctx:     ctx,
		src:     src,
		touched: mapset.NewThreadUnsafeSet[common.Address](),
		start:   time.Now(),
	}
}

// resolve answers the requirement carried by err.
func (d *driver) resolve(m *vm.Machine, err error) error {
	var req *vm.RequireError
	if !errors.As(err, &req) {
		return err
	}
	if req.Kind != vm.RequireBlockhash {
		d.touched.Add(req.Address)
	}
	return state.Resolve(m, req, d.src)
}

// checkBalance makes sure the caller of the outermost frame can pay its value.
func (d *driver) checkBalance(m *vm.Machine) error {
	ctx := m.State().Context
	for {
		balance, err := m.State().AccountState.Balance(ctx.Caller)
		if err == nil {
			if balance.Lt(&ctx.Value) {
				return ErrInsufficientBalance
			}
			return nil
		}
		if err := d.resolve(m, err); err != nil {
			return err
		}
	}
}

// run steps root and every frame it invokes until root exits.
func (d *driver) run(root *vm.Machine) error {
	d.touched.Add(root.State().Context.Address)
	frames := []*vm.Machine{root}
	for len(frames) > 0 {
		select {
		case <-d.ctx.Done():
			return d.ctx.Err()
		default:
		}
		m := frames[len(frames)-1]
		switch status := m.Status(); status.Kind {
		case vm.Running:
			if err := m.Step(); err != nil {
				if err := d.resolve(m, err); err != nil {
					return err
				}
			}
		case vm.InvokeCall, vm.InvokeCreate:
			frameCounter.Inc(1)
			child := m.Derive(*status.Context)
			d.touched.Add(status.Context.Address)
			if status.Kind == vm.InvokeCall {
				child.InitializeCall()
			} else {
				for err := child.InitializeCreate(); err != nil; err = child.InitializeCreate() {
					if err := d.resolve(child, err); err != nil {
						return err
					}
				}
			}
			log.Trace("Entering frame", "depth", child.State().Depth, "kind", status.Kind, "address", status.Context.Address)
			frames = append(frames, child)
		default:
			frames = frames[:len(frames)-1]
			if len(frames) > 0 {
				frames[len(frames)-1].ApplySub(m)
			}
		}
	}
	return nil
}

// result collects the outcome of the exited root frame.
func (d *driver) result(root *vm.Machine) *Result {
	st := root.State()
	res := &Result{
		Status:      root.Status(),
		Output:      st.Out,
		UsedGas:     st.TotalUsedGas(),
		RefundedGas: st.RefundedGas,
		Logs:        st.Logs,
		Removed:     st.Removed,
		Touched:     d.touched.ToSlice(),
	}
	slices.SortFunc(res.Touched, func(a, b common.Address) int { return a.Cmp(b) })
	if !res.Failed() {
		res.Changes = st.AccountState.Changes()
	}
	executionTimer.UpdateSince(d.start)
	log.Debug("Execution finished", "status", res.Status, "gas", res.UsedGas, "touched", len(res.Touched))
	return res
}
