// Copyright 2017 The go-ethereum Authors
// This file is part of go-ethereum.
//
// go-ethereum is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// go-ethereum is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with go-ethereum. If not, see <http://www.gnu.org/licenses/>.
package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	app := newApp()
	var out bytes.Buffer
	app.Writer = &out
	app.ErrWriter = &out
	err := app.Run(append([]string{"stepvm", "--verbosity", "0"}, args...))
	return out.String(), err
}

func TestRunCode(t *testing.T) {
	// PUSH1 0x42 PUSH1 0 MSTORE PUSH1 32 PUSH1 0 RETURN
	out, err := runApp(t, "run", "--code", "0x604260005260206000f3")
	require.NoError(t, err)
	assert.Contains(t, out, "exited ok")
	assert.Regexp(t, `Gas used\s*\|\s*18\s*\|`, out)
	assert.Contains(t, out, "0x0000000000000000000000000000000000000000000000000000000000000042")

	out, err = runApp(t, "run", "--trace", "604260005260206000f3")
	require.NoError(t, err)
	assert.Contains(t, out, "MSTORE")
	assert.Contains(t, out, "pc=00000004")
}

func TestRunNotSupported(t *testing.T) {
	code := "0x600160011b"
	out, err := runApp(t, "run", "--code", code)
	require.NoError(t, err)
	assert.Contains(t, out, "exited not supported")

	out, err = runApp(t, "run", "--code", code, "--eips", "145")
	require.NoError(t, err)
	assert.Contains(t, out, "exited ok")
}

func TestRunCreate(t *testing.T) {
	// Deploys the code 0x6000.
	out, err := runApp(t, "run", "--create", "--code", "0x6160006000526002601ef3", "--origin", "0x00000000000000000000000000000000000000ee")
	require.NoError(t, err)
	assert.Contains(t, out, "exited ok")
	assert.Contains(t, out, "Contract")
	assert.Contains(t, out, "create")
}

func TestRunErrors(t *testing.T) {
	_, err := runApp(t, "run")
	assert.Error(t, err)
	_, err = runApp(t, "run", "--code", "0xzz")
	assert.ErrorContains(t, err, "invalid hex")
	_, err = runApp(t, "run", "--code", "00", "--patch", "london")
	assert.Error(t, err)
	_, err = runApp(t, "run", "--code", "00", "--value", "1")
	assert.Error(t, err)
}

func TestImportDumpRun(t *testing.T) {
	var (
		dir   = t.TempDir()
		alloc = filepath.Join(dir, "alloc.json")
		data  = filepath.Join(dir, "data")
	)
	// The receiver stores 1 in slot 0.
	require.NoError(t, os.WriteFile(alloc, []byte(`{
		"0x00000000000000000000000000000000000000cc": {"balance": "0x10", "code": "0x6001600055"},
		"0x00000000000000000000000000000000000000ee": {"balance": "1000", "nonce": "0x01"}
	}`), 0644))

	_, err := runApp(t, "import", alloc)
	assert.Error(t, err, "import without datadir")
	_, err = runApp(t, "import", "--datadir", data, alloc)
	require.NoError(t, err)

	out, err := runApp(t, "dump", "--datadir", data)
	require.NoError(t, err)
	assert.Contains(t, out, `"0x00000000000000000000000000000000000000cc"`)
	assert.Contains(t, out, `"code": "0x6001600055"`)

	out, err = runApp(t, "run", "--datadir", data, "--receiver", "0xcc", "--origin", "0xee", "--value", "10")
	require.NoError(t, err)
	assert.Contains(t, out, "exited ok")
	assert.Regexp(t, `Gas used\s*\|\s*20006\s*\|`, out)
	assert.Contains(t, out, "full")
}

func TestDumpConfig(t *testing.T) {
	var (
		dir  = t.TempDir()
		file = filepath.Join(dir, "config.toml")
		data = filepath.Join(dir, "data")
	)
	_, err := runApp(t, "dumpconfig", "--gas", "100000", "--datadir", data, "--patch", "homestead", file)
	require.NoError(t, err)

	var cfg stepvmConfig
	require.NoError(t, loadConfig(file, &cfg))
	assert.Equal(t, uint64(100000), cfg.Environment.GasLimit)
	assert.Equal(t, "homestead", cfg.Environment.Patch)
	assert.Equal(t, data, cfg.Database.DataDir)
	assert.Equal(t, "pebble", cfg.Database.Engine)

	out, err := runApp(t, "run", "--config", file, "--code", "0x6001600101")
	require.NoError(t, err)
	assert.Contains(t, out, "exited ok")
	assert.Regexp(t, `Gas used\s*\|\s*9\s*\|`, out)

	require.NoError(t, os.WriteFile(file, []byte("[Environment]\nGas = 1\n"), 0644))
	_, err = runApp(t, "run", "--config", file, "--code", "00")
	assert.Error(t, err)
}

func TestTestCommand(t *testing.T) {
	out, err := runApp(t, "test", "--all", filepath.Join("..", "..", "tests", "testdata", "VMTests"))
	require.NoError(t, err)
	assert.Contains(t, out, "26 tests passed, 0 failed")
	assert.Contains(t, out, "calls.json/call")

	_, err = runApp(t, "test")
	assert.Error(t, err)
}
