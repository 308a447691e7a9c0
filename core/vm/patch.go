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
	"sort"
	"strings"

	"github.com/bnb-chain/stepvm/params"
	"github.com/pkg/errors"
)

// Patch is the rule set of a protocol revision: its prices, its instruction
// set, its native contracts and the limits the host enforces.
type Patch interface {
	Name() string
	GasTable() *params.GasTable
	// Enabled reports whether op is part of the instruction set.
	Enabled(op OpCode) bool
	Precompileds() []Precompiled
	CallStackLimit() uint64
	// MemoryLimit is the largest memory size in bytes the host supports.
	MemoryLimit() uint64
	// ErrOnCallWithMoreGas fails a CALL-family instruction that asks for
	// more gas than remains after paying for it.
	ErrOnCallWithMoreGas() bool
	// CallCreateL64AfterGas caps the gas handed to a child frame to all but
	// one 64th of the gas remaining.
	CallCreateL64AfterGas() bool
	// ForceCodeDeposit fails a CREATE whose code deposit cannot be paid for,
	// instead of leaving an empty contract behind.
	ForceCodeDeposit() bool
}

// RuleSet is the Patch implementation used by the named revisions.
type RuleSet struct {
	name         string
	gasTable     params.GasTable
	disabled     [256]bool
	precompileds []Precompiled

	callStackLimit uint64
	memoryLimit    uint64

	errOnCallWithMoreGas  bool
	callCreateL64AfterGas bool
	forceCodeDeposit      bool
}

func (r *RuleSet) Name() string { return r.name }
func (r *RuleSet) GasTable() *params.GasTable { return &r.gasTable }
func (r *RuleSet) Enabled(op OpCode) bool { return op.Defined() && !r.disabled[op] }
func (r *RuleSet) Precompileds() []Precompiled { return r.precompileds }
func (r *RuleSet) CallStackLimit() uint64 { return r.callStackLimit }
func (r *RuleSet) MemoryLimit() uint64 { return r.memoryLimit }
func (r *RuleSet) ErrOnCallWithMoreGas() bool { return r.errOnCallWithMoreGas }
func (r *RuleSet) CallCreateL64AfterGas() bool { return r.callCreateL64AfterGas }
func (r *RuleSet) ForceCodeDeposit() bool { return r.forceCodeDeposit }

func (r *RuleSet) copy() *RuleSet {
	cpy := *r
	return &cpy
}

// WithMemoryLimit returns a copy of the rule set supporting at most limit
// bytes of memory per frame.
func (r *RuleSet) WithMemoryLimit(limit uint64) *RuleSet {
	cpy := r.copy()
	cpy.memoryLimit = limit
	return cpy
}

// WithPrecompileds returns a copy of the rule set using the given native
// contracts.
func (r *RuleSet) WithPrecompileds(precompileds []Precompiled) *RuleSet {
	cpy := r.copy()
	cpy.precompileds = precompileds
	return cpy
}

var (
	FrontierPatch  = newFrontierRuleSet()
	HomesteadPatch = newHomesteadRuleSet()
	EIP150Patch    = newEIP150RuleSet()
	EIP160Patch    = newEIP160RuleSet()
)

// newFrontierRuleSet returns the frontier rules, the base every later
// revision is derived from.
func newFrontierRuleSet() *RuleSet {
	r := &RuleSet{
		name:                 "frontier",
		gasTable:             params.GasTableFrontier,
		precompileds:         PrecompiledContractsFrontier,
		callStackLimit:       params.CallCreateDepth,
		memoryLimit:          params.MemoryLimit,
		errOnCallWithMoreGas: true,
	}
	for _, op := range []OpCode{DELEGATECALL, SHL, SHR, SAR} {
		r.disabled[op] = true
	}
	return r
}

// newHomesteadRuleSet adds DELEGATECALL (EIP-7) and failing code deposits
// (EIP-2) to frontier.
func newHomesteadRuleSet() *RuleSet {
	r := newFrontierRuleSet()
	r.name = "homestead"
	r.disabled[DELEGATECALL] = false
	r.forceCodeDeposit = true
	return r
}

// newEIP150RuleSet reprices IO-heavy instructions and caps child gas to all
// but one 64th.
func newEIP150RuleSet() *RuleSet {
	r := newHomesteadRuleSet()
	r.name = "eip150"
	r.gasTable = params.GasTableEIP150
	r.errOnCallWithMoreGas = false
	r.callCreateL64AfterGas = true
	return r
}

// newEIP160RuleSet reprices EXP.
func newEIP160RuleSet() *RuleSet {
	r := newEIP150RuleSet()
	r.name = "eip160"
	r.gasTable = params.GasTableEIP160
	return r
}

var activators = map[int]func(*RuleSet){
	145: enable145,
}

// EnableEIP returns a copy of the rule set with the given EIP enabled.
func EnableEIP(eip int, r *RuleSet) (*RuleSet, error) {
	enablerFn, ok := activators[eip]
	if !ok {
		return nil, errors.Errorf("undefined eip %d", eip)
	}
	cpy := r.copy()
	enablerFn(cpy)
	cpy.name = fmt.Sprintf("%s+%d", cpy.name, eip)
	return cpy, nil
}

// ValidEip reports whether the EIP can be enabled on a rule set.
func ValidEip(eip int) bool {
	_, ok := activators[eip]
	return ok
}

// ActivateableEips returns the EIPs EnableEIP accepts.
func ActivateableEips() []string {
	var nums []string
	for k := range activators {
		nums = append(nums, fmt.Sprintf("%d", k))
	}
	sort.Strings(nums)
	return nums
}

// enable145 applies EIP-145 (SHL, SHR, SAR).
func enable145(r *RuleSet) {
	r.disabled[SHL] = false
	r.disabled[SHR] = false
	r.disabled[SAR] = false
}

var patches = map[string]*RuleSet{
	FrontierPatch.name:  FrontierPatch,
	HomesteadPatch.name: HomesteadPatch,
	EIP150Patch.name:    EIP150Patch,
	EIP160Patch.name:    EIP160Patch,
}

// PatchByName looks up a rule set by name. A name may carry extra EIPs,
// e.g. "eip160+145".
func PatchByName(name string) (*RuleSet, error) {
	parts := strings.Split(strings.ToLower(name), "+")
	r, ok := patches[parts[0]]
	if !ok {
		return nil, errors.Errorf("unknown patch %q", parts[0])
	}
	for _, part := range parts[1:] {
		var eip int
		if _, err := fmt.Sscanf(part, "%d", &eip); err != nil {
			return nil, errors.Errorf("invalid eip %q in patch %q", part, name)
		}
		var err error
		if r, err = EnableEIP(eip, r); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// PatchNames returns the names of the known rule sets.
func PatchNames() []string {
	return []string{FrontierPatch.name, HomesteadPatch.name, EIP150Patch.name, EIP160Patch.name}
}
