// Copyright 2019 The go-ethereum Authors
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
package utils

import (
	"flag"
	"reflect"
	"testing"

	"github.com/bnb-chain/stepvm/core/state"
	"github.com/bnb-chain/stepvm/core/vm"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func newContext(t *testing.T, args ...string) *cli.Context {
	set := flag.NewFlagSet("test", flag.ContinueOnError)
	for _, f := range append(DatabaseFlags, PatchFlag, EIPsFlag) {
		require.NoError(t, f.Apply(set))
	}
	require.NoError(t, set.Parse(args))
	return cli.NewContext(cli.NewApp(), set, nil)
}

func Test_SplitAndTrim(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		args string
		want []string
	}{
		{"2 entries", "145, 160", []string{"145", "160"}},
		{"blanks", " ,145,, ", []string{"145"}},
		{"empty case", "", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := SplitAndTrim(tt.args); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SplitAndTrim() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMakePatch(t *testing.T) {
	patch, err := MakePatch(PatchFlag.Value, "")
	require.NoError(t, err)
	assert.Equal(t, vm.EIP160Patch.Name(), patch.Name())
	assert.False(t, patch.Enabled(vm.SHL))

	patch, err = MakePatch("homestead", "145")
	require.NoError(t, err)
	assert.True(t, patch.Enabled(vm.SHL))
	assert.True(t, patch.Enabled(vm.DELEGATECALL))

	_, err = MakePatch("london", "")
	assert.Error(t, err)
	_, err = MakePatch("eip160", "x")
	assert.Error(t, err)
	_, err = MakePatch("eip160", "2929")
	assert.ErrorContains(t, err, "available: 145")
}

func TestPatchFlagUsage(t *testing.T) {
	for _, name := range vm.PatchNames() {
		assert.Contains(t, PatchFlag.Usage, name)
	}
	assert.Contains(t, EIPsFlag.Usage, "145")
}

func openDatabase(t *testing.T, readonly bool, args ...string) (*state.Database, error) {
	cfg := DefaultDatabaseConfig
	SetDatabaseConfig(newContext(t, args...), &cfg)
	return OpenDatabase(&cfg, readonly)
}

func TestSetDatabaseConfig(t *testing.T) {
	cfg := DatabaseConfig{DataDir: "/data", Engine: dbLeveldb, Cache: 16}
	SetDatabaseConfig(newContext(t, "--cache", "32"), &cfg)
	assert.Equal(t, DatabaseConfig{DataDir: "/data", Engine: dbLeveldb, Cache: 32}, cfg)
}

func TestOpenDatabase(t *testing.T) {
	addr := common.HexToAddress("0x01")
	for _, engine := range []string{dbPebble, dbLeveldb} {
		t.Run(engine, func(t *testing.T) {
			dir := t.TempDir()
			db, err := openDatabase(t, false, "--datadir", dir, "--db.engine", engine)
			require.NoError(t, err)
			require.NoError(t, db.WriteAccount(addr, 1, uint256.NewInt(2), nil))
			require.NoError(t, db.Close())

			db, err = openDatabase(t, true, "--datadir", dir, "--db.engine", engine)
			require.NoError(t, err)
			defer db.Close()
			acc, err := db.Account(addr)
			require.NoError(t, err)
			full, ok := acc.(*vm.FullCommitment)
			require.True(t, ok)
			assert.Equal(t, uint64(1), full.Nonce)
		})
	}
	_, err := openDatabase(t, false, "--datadir", t.TempDir(), "--db.engine", "rocksdb")
	assert.Error(t, err)

	db, err := openDatabase(t, false)
	require.NoError(t, err)
	assert.NoError(t, db.Close())
}
