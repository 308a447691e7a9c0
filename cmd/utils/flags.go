// Copyright 2015 The go-ethereum Authors
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
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/bnb-chain/stepvm/core/state"
	"github.com/bnb-chain/stepvm/core/vm"
	"github.com/bnb-chain/stepvm/ethdb/leveldb"
	"github.com/bnb-chain/stepvm/ethdb/pebble"
	"github.com/ethereum/go-ethereum/common/fdlimit"
	"github.com/ethereum/go-ethereum/ethdb/memorydb"
	"github.com/ethereum/go-ethereum/log"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
)

const (
	dbPebble  = "pebble"
	dbLeveldb = "leveldb"
)

var (
	DataDirFlag = &cli.StringFlag{
		Name:  "datadir",
		Usage: "Data directory of the state database, state is kept in memory if empty",
	}
	DBEngineFlag = &cli.StringFlag{
		Name:  "db.engine",
		Usage: "Backing database implementation to use ('pebble' or 'leveldb')",
		Value: DefaultDatabaseConfig.Engine,
	}
	CacheFlag = &cli.IntFlag{
		Name:  "cache",
		Usage: "Megabytes of memory allocated to internal caching",
		Value: DefaultDatabaseConfig.Cache,
	}
	FDLimitFlag = &cli.IntFlag{
		Name:  "fdlimit",
		Usage: "Raise the open file descriptor resource limit (default = system fd limit)",
	}
	PatchFlag = &cli.StringFlag{
		Name:  "patch",
		Usage: fmt.Sprintf("Rule set to execute with (%s), EIPs may be added as in 'eip160+145'", strings.Join(vm.PatchNames(), ", ")),
		Value: vm.EIP160Patch.Name(),
	}
	EIPsFlag = &cli.StringFlag{
		Name:  "eips",
		Usage: fmt.Sprintf("Comma separated list of extra EIPs to enable on top of the patch (%s)", strings.Join(vm.ActivateableEips(), ", ")),
	}
)

// DatabaseFlags are the flags selecting the state database.
var DatabaseFlags = []cli.Flag{
	DataDirFlag,
	DBEngineFlag,
	CacheFlag,
	FDLimitFlag,
}

// SplitAndTrim splits input separated by a comma
// and trims excessive white space from the substrings.
func SplitAndTrim(input string) (ret []string) {
	l := strings.Split(input, ",")
	for _, r := range l {
		if r = strings.TrimSpace(r); r != "" {
			ret = append(ret, r)
		}
	}
	return ret
}

// MakePatch returns the named rule set with the comma separated list of
// EIPs enabled on top of it.
func MakePatch(name, eips string) (vm.Patch, error) {
	patch, err := vm.PatchByName(name)
	if err != nil {
		return nil, err
	}
	for _, s := range SplitAndTrim(eips) {
		eip, err := strconv.Atoi(s)
		if err != nil {
			return nil, errors.Errorf("invalid EIP %q", s)
		}
		if !vm.ValidEip(eip) {
			return nil, errors.Errorf("EIP %d cannot be enabled, available: %s", eip, strings.Join(vm.ActivateableEips(), ", "))
		}
		if patch, err = vm.EnableEIP(eip, patch); err != nil {
			return nil, err
		}
	}
	return patch, nil
}

// MakeDatabaseHandles raises out the number of allowed file handles per process
// for the state database and returns half of the allowance to assign to the database.
func MakeDatabaseHandles(max int) int {
	limit, err := fdlimit.Maximum()
	if err != nil {
		Fatalf("Failed to retrieve file descriptor allowance: %v", err)
	}
	switch {
	case max == 0:
		// User didn't specify a meaningful value, use system limits
	case max < 128:
		// User specified something unhealthy, just use system defaults
		log.Error("File descriptor limit invalid (<128)", "had", max, "updated", limit)
	case max > limit:
		// User requested more than the OS allows, notify that we can't allocate it
		log.Warn("Requested file descriptors denied by OS", "req", max, "limit", limit)
	default:
		// User limit is meaningful and within allowed range, use that
		limit = max
	}
	raised, err := fdlimit.Raise(uint64(limit))
	if err != nil {
		Fatalf("Failed to raise file descriptor allowance: %v", err)
	}
	return int(raised / 2) // Leave half for other file descriptors
}

// DatabaseConfig selects the state database.
type DatabaseConfig struct {
	DataDir string `toml:",omitempty"` // State is kept in memory if empty
	Engine  string
	Cache   int
	FDLimit int `toml:",omitempty"`
}

// DefaultDatabaseConfig keeps the state in memory.
var DefaultDatabaseConfig = DatabaseConfig{
	Engine: dbPebble,
	Cache:  64,
}

// SetDatabaseConfig applies the database flags set on the command line to cfg.
func SetDatabaseConfig(ctx *cli.Context, cfg *DatabaseConfig) {
	if ctx.IsSet(DataDirFlag.Name) {
		cfg.DataDir = ctx.String(DataDirFlag.Name)
	}
	if ctx.IsSet(DBEngineFlag.Name) {
		cfg.Engine = ctx.String(DBEngineFlag.Name)
	}
	if ctx.IsSet(CacheFlag.Name) {
		cfg.Cache = ctx.Int(CacheFlag.Name)
	}
	if ctx.IsSet(FDLimitFlag.Name) {
		cfg.FDLimit = ctx.Int(FDLimitFlag.Name)
	}
}

// OpenDatabase opens the state database described by cfg.
func OpenDatabase(cfg *DatabaseConfig, readonly bool) (*state.Database, error) {
	if cfg.DataDir == "" {
		return state.NewDatabase(memorydb.New(), cfg.Cache), nil
	}
	var (
		handles   = MakeDatabaseHandles(cfg.FDLimit)
		file      = filepath.Join(cfg.DataDir, "state")
		namespace = "stepvm/db/state/"
		store     state.Store
		err       error
	)
	// Half the cache goes to the database, half to the fact cache above it.
	switch cfg.Engine {
	case dbPebble:
		store, err = pebble.New(file, cfg.Cache/2, handles, namespace, readonly)
	case dbLeveldb:
		store, err = leveldb.New(file, cfg.Cache/2, handles, namespace, readonly)
	default:
		return nil, errors.Errorf("unknown database engine %q", cfg.Engine)
	}
	if err != nil {
		return nil, err
	}
	log.Info("Opened state database", "engine", cfg.Engine, "path", file, "cache", cfg.Cache, "handles", handles, "readonly", readonly)
	return state.NewDatabase(store, cfg.Cache/2), nil
}
