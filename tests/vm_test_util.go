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

// Package tests implements execution of VM JSON tests.
package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"math/big"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bnb-chain/stepvm/common/gopool"
	"github.com/bnb-chain/stepvm/core/state"
	"github.com/bnb-chain/stepvm/core/vm"
	"github.com/bnb-chain/stepvm/core/vm/runtime"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/ethdb/memorydb"
	"github.com/ethereum/go-ethereum/log"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
)

// VMTest checks program execution against a known post state.
type VMTest struct {
	json vmJSON
}

func (t *VMTest) UnmarshalJSON(data []byte) error {
	return json.Unmarshal(data, &t.json)
}

type vmJSON struct {
	Env   stEnv                `json:"env"`
	Exec  vmExec               `json:"exec"`
	Patch string               `json:"patch"`
	Pre   state.Alloc          `json:"pre"`
	Post  state.Alloc          `json:"post"`
	Out   hexutil.Bytes        `json:"out"`
	Gas   *math.HexOrDecimal64 `json:"gas"`
}

type stEnv struct {
	Coinbase   common.Address        `json:"currentCoinbase"`
	Difficulty *math.HexOrDecimal256 `json:"currentDifficulty"`
	GasLimit   math.HexOrDecimal64   `json:"currentGasLimit"`
	Number     math.HexOrDecimal64   `json:"currentNumber"`
	Timestamp  math.HexOrDecimal64   `json:"currentTimestamp"`
}

type vmExec struct {
	Address  common.Address        `json:"address"`
	Value    *math.HexOrDecimal256 `json:"value"`
	GasLimit math.HexOrDecimal64   `json:"gas"`
	Caller   common.Address        `json:"caller"`
	Origin   common.Address        `json:"origin"`
	Code     hexutil.Bytes         `json:"code"`
	Data     hexutil.Bytes         `json:"data"`
	GasPrice *math.HexOrDecimal256 `json:"gasPrice"`
}

// Run executes the test. Code run by the test is the exec code, installed
// at the exec address on top of the pre state.
func (t *VMTest) Run(ctx context.Context, tracer vm.Tracer) error {
	var patch vm.Patch = vm.EIP160Patch
	if t.json.Patch != "" {
		p, err := vm.PatchByName(t.json.Patch)
		if err != nil {
			return err
		}
		patch = p
	}
	pre := t.json.Pre.Apply(nil, nil)
	contract := pre[t.json.Exec.Address]
	contract.Code = t.json.Exec.Code
	pre[t.json.Exec.Address] = contract

	db := state.NewDatabase(memorydb.New(), 0)
	defer db.Close()
	if err := pre.Write(db); err != nil {
		return err
	}
	cfg := &runtime.Config{
		Patch:       patch,
		Difficulty:  toUint256(t.json.Env.Difficulty),
		Origin:      t.json.Exec.Origin,
		Caller:      t.json.Exec.Caller,
		Coinbase:    t.json.Env.Coinbase,
		BlockNumber: uint64(t.json.Env.Number),
		Time:        uint64(t.json.Env.Timestamp),
		GasLimit:    uint64(t.json.Exec.GasLimit),
		GasPrice:    toUint256(t.json.Exec.GasPrice),
		Value:       toUint256(t.json.Exec.Value),
		Tracer:      tracer,
		Source:      db,
	}
	res, err := runtime.Call(ctx, t.json.Exec.Address, t.json.Exec.Data, cfg)
	if err != nil {
		return err
	}
	if res.Status.Kind == vm.ExitedNotSupported {
		return errors.Errorf("execution not supported: %v", res.Status.Err)
	}
	if t.json.Gas == nil {
		if !res.Failed() {
			return errors.New("execution succeeded but should have failed")
		}
		return nil
	}
	if res.Failed() {
		return errors.Errorf("execution failed: %v", res.Status.Err)
	}
	if remaining := uint64(t.json.Exec.GasLimit) - res.UsedGas; remaining != uint64(*t.json.Gas) {
		return errors.Errorf("remaining gas %v, want %v", remaining, uint64(*t.json.Gas))
	}
	if !bytes.Equal(res.Output, t.json.Out) {
		return errors.Errorf("output mismatch: got %x, want %x", res.Output, t.json.Out)
	}
	return checkPost(pre.Apply(res.Changes, res.Removed), t.json.Post)
}

func checkPost(got, want state.Alloc) error {
	for addr, acc := range want {
		have, ok := got[addr]
		if !ok {
			return errors.Errorf("account %x missing from post state", addr)
		}
		if err := checkAccount(have, acc); err != nil {
			return errors.Wrapf(err, "account %x", addr)
		}
	}
	for addr := range got {
		if _, ok := want[addr]; !ok {
			return errors.Errorf("unexpected account %x in post state", addr)
		}
	}
	return nil
}

func checkAccount(have, want state.AllocAccount) error {
	if have.Nonce != want.Nonce {
		return errors.Errorf("nonce %d, want %d", have.Nonce, want.Nonce)
	}
	if balanceOf(have).Cmp(balanceOf(want)) != 0 {
		return errors.Errorf("balance %v, want %v", balanceOf(have), balanceOf(want))
	}
	if !bytes.Equal(have.Code, want.Code) {
		return errors.Errorf("code %x, want %x", have.Code, want.Code)
	}
	for key, value := range want.Storage {
		if have.Storage[key] != value {
			return errors.Errorf("storage %x: %x, want %x", key, have.Storage[key], value)
		}
	}
	for key, value := range have.Storage {
		if _, ok := want.Storage[key]; !ok && value != (common.Hash{}) {
			return errors.Errorf("unexpected storage %x: %x", key, value)
		}
	}
	return nil
}

func balanceOf(acc state.AllocAccount) *big.Int {
	if acc.Balance == nil {
		return new(big.Int)
	}
	return (*big.Int)(acc.Balance)
}

func toUint256(v *math.HexOrDecimal256) *uint256.Int {
	if v == nil {
		return nil
	}
	u, _ := uint256.FromBig((*big.Int)(v))
	return u
}

// LoadVMTests reads the tests of a JSON file, or of every JSON file below a
// directory. Tests are named by file and key.
func LoadVMTests(path string) (map[string]*VMTest, error) {
	tests := make(map[string]*VMTest)
	err := filepath.Walk(path, func(file string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || filepath.Ext(file) != ".json" {
			return nil
		}
		var set map[string]*VMTest
		if err := readJSONFile(file, &set); err != nil {
			return err
		}
		name := filepath.Base(file)
		if rel, err := filepath.Rel(path, file); err == nil && rel != "." {
			name = filepath.ToSlash(rel)
		}
		for key, test := range set {
			tests[name+"/"+key] = test
		}
		return nil
	})
	return tests, err
}

func readJSONFile(file string, value interface{}) error {
	data, err := os.ReadFile(file)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, value); err != nil {
		if syntaxerr, ok := err.(*json.SyntaxError); ok {
			line := findLine(data, syntaxerr.Offset)
			return errors.Errorf("JSON syntax error at line %v in file %s: %v", line, file, err)
		}
		return errors.Wrapf(err, "in file %s", file)
	}
	return nil
}

func findLine(data []byte, offset int64) (line int) {
	line = 1
	for i, r := range string(data) {
		if int64(i) >= offset {
			return
		}
		if r == '\n' {
			line++
		}
	}
	return
}

// TestResult is the outcome of one test run by RunVMTests.
type TestResult struct {
	Name string
	Err  error
}

// RunVMTests runs the tests concurrently on the shared goroutine pool and
// reports their results sorted by name. Test failures are reported in the
// results; the returned error is set when the run itself was interrupted.
func RunVMTests(ctx context.Context, tests map[string]*VMTest) ([]TestResult, error) {
	names := make([]string, 0, len(tests))
	for name := range tests {
		names = append(names, name)
	}
	slices.SortFunc(names, strings.Compare)

	log.Debug("Scheduling VM tests", "count", len(names), "workers", gopool.Threads(len(names)),
		"running", gopool.Running(), "free", gopool.Free(), "cap", gopool.Cap())

	results := make([]TestResult, len(names))
	err := gopool.Each(len(names), func(i int) error {
		results[i].Name = names[i]
		if err := ctx.Err(); err != nil {
			results[i].Err = err
			return err
		}
		results[i].Err = tests[names[i]].Run(ctx, nil)
		return nil
	})
	if err != nil {
		return results, errors.Wrap(err, "run VM tests")
	}
	return results, nil
}
