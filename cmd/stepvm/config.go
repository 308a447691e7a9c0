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
	"bufio"
	"fmt"
	"math/big"
	"os"
	"reflect"
	"unicode"

	"github.com/bnb-chain/stepvm/cmd/utils"
	"github.com/bnb-chain/stepvm/core/vm"
	"github.com/bnb-chain/stepvm/core/vm/runtime"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/naoina/toml"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
)

var (
	dumpConfigCommand = &cli.Command{
		Action:      dumpConfig,
		Name:        "dumpconfig",
		Usage:       "Export configuration values in a TOML format",
		ArgsUsage:   "<dumpfile (optional)>",
		Flags:       append([]cli.Flag{configFileFlag}, append(utils.DatabaseFlags, runtimeFlags...)...),
		Description: `Export configuration values in TOML format (to stdout by default).`,
	}

	configFileFlag = &cli.StringFlag{
		Name:  "config",
		Usage: "TOML configuration file",
	}
)

// These settings ensure that TOML keys use the same names as Go struct fields.
var tomlSettings = toml.Config{
	NormFieldName: func(rt reflect.Type, key string) string {
		return key
	},
	FieldToKey: func(rt reflect.Type, field string) string {
		return field
	},
	MissingField: func(rt reflect.Type, field string) error {
		link := ""
		if unicode.IsUpper(rune(rt.Name()[0])) && rt.PkgPath() != "main" {
			link = fmt.Sprintf(", see https://godoc.org/%s#%s for available fields", rt.PkgPath(), rt.Name())
		}
		return errors.Errorf("field '%s' is not defined in %s%s", field, rt.String(), link)
	},
}

// environmentConfig describes the block and the transaction programs are
// executed in.
type environmentConfig struct {
	Patch       string
	Origin      common.Address
	Coinbase    common.Address
	BlockNumber uint64
	Time        uint64 `toml:",omitempty"`
	GasLimit    uint64
	GasPrice    *big.Int
	Difficulty  *big.Int
}

type stepvmConfig struct {
	Environment environmentConfig
	Database    utils.DatabaseConfig
}

var defaultConfig = stepvmConfig{
	Environment: environmentConfig{
		Patch:       vm.EIP160Patch.Name(),
		BlockNumber: 0,
		GasLimit:    10000000,
		GasPrice:    new(big.Int),
		Difficulty:  new(big.Int),
	},
	Database: utils.DefaultDatabaseConfig,
}

func loadConfig(file string, cfg *stepvmConfig) error {
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()

	err = tomlSettings.NewDecoder(bufio.NewReader(f)).Decode(cfg)
	// Add file name to errors that have a line number.
	if _, ok := err.(*toml.LineError); ok {
		err = errors.New(file + ", " + err.Error())
	}
	return err
}

// makeConfig loads the configuration file, if any, and applies the command
// line flags on top of it.
func makeConfig(ctx *cli.Context) (stepvmConfig, error) {
	cfg := defaultConfig
	cfg.Environment.GasPrice = new(big.Int).Set(defaultConfig.Environment.GasPrice)
	cfg.Environment.Difficulty = new(big.Int).Set(defaultConfig.Environment.Difficulty)

	if file := ctx.String(configFileFlag.Name); file != "" {
		if err := loadConfig(file, &cfg); err != nil {
			return cfg, err
		}
	}
	utils.SetDatabaseConfig(ctx, &cfg.Database)
	setEnvironmentConfig(ctx, &cfg.Environment)
	return cfg, nil
}

func setEnvironmentConfig(ctx *cli.Context, cfg *environmentConfig) {
	if ctx.IsSet(utils.PatchFlag.Name) {
		cfg.Patch = ctx.String(utils.PatchFlag.Name)
	}
	if ctx.IsSet(originFlag.Name) {
		cfg.Origin = common.HexToAddress(ctx.String(originFlag.Name))
	}
	if ctx.IsSet(coinbaseFlag.Name) {
		cfg.Coinbase = common.HexToAddress(ctx.String(coinbaseFlag.Name))
	}
	if ctx.IsSet(blockNumberFlag.Name) {
		cfg.BlockNumber = ctx.Uint64(blockNumberFlag.Name)
	}
	if ctx.IsSet(gasFlag.Name) {
		cfg.GasLimit = ctx.Uint64(gasFlag.Name)
	}
	if ctx.IsSet(priceFlag.Name) {
		cfg.GasPrice = new(big.Int).SetUint64(ctx.Uint64(priceFlag.Name))
	}
}

// runtimeConfig turns the environment into the configuration of a run.
func (cfg *environmentConfig) runtimeConfig(ctx *cli.Context) (*runtime.Config, error) {
	patch, err := utils.MakePatch(cfg.Patch, ctx.String(utils.EIPsFlag.Name))
	if err != nil {
		return nil, err
	}
	rcfg := &runtime.Config{
		Patch:       patch,
		Origin:      cfg.Origin,
		Coinbase:    cfg.Coinbase,
		BlockNumber: cfg.BlockNumber,
		Time:        cfg.Time,
		GasLimit:    cfg.GasLimit,
	}
	var overflow bool
	if cfg.GasPrice != nil {
		if rcfg.GasPrice, overflow = uint256.FromBig(cfg.GasPrice); overflow {
			return nil, errors.New("gas price overflows 256 bits")
		}
	}
	if cfg.Difficulty != nil {
		if rcfg.Difficulty, overflow = uint256.FromBig(cfg.Difficulty); overflow {
			return nil, errors.New("difficulty overflows 256 bits")
		}
	}
	return rcfg, nil
}

// dumpConfig is the dumpconfig command.
func dumpConfig(ctx *cli.Context) error {
	cfg, err := makeConfig(ctx)
	if err != nil {
		return err
	}
	out, err := tomlSettings.Marshal(&cfg)
	if err != nil {
		return err
	}

	dump := ctx.App.Writer
	if ctx.NArg() > 0 {
		f, err := os.OpenFile(ctx.Args().Get(0), os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
		if err != nil {
			return err
		}
		defer f.Close()
		dump = f
	}
	_, err = dump.Write(out)
	return err
}
