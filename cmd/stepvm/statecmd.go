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
package main

import (
	"encoding/json"
	"fmt"

	"github.com/bnb-chain/stepvm/cmd/utils"
	"github.com/bnb-chain/stepvm/core/state"
	"github.com/ethereum/go-ethereum/log"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
)

var (
	importCommand = &cli.Command{
		Action:    importAlloc,
		Name:      "import",
		Usage:     "Import accounts into the state database",
		ArgsUsage: "<allocFile>",
		Flags:     append([]cli.Flag{configFileFlag}, utils.DatabaseFlags...),
		Description: `
The import command stores the accounts of a JSON allocation, in the format of
the genesis alloc section, into the state database in --datadir.`,
	}
	dumpCommand = &cli.Command{
		Action: dumpState,
		Name:   "dump",
		Usage:  "Dump the accounts of the state database as JSON",
		Flags:  append([]cli.Flag{configFileFlag}, utils.DatabaseFlags...),
	}
)

func importAlloc(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return errors.Errorf("required arguments: %v", ctx.Command.ArgsUsage)
	}
	cfg, err := makeConfig(ctx)
	if err != nil {
		return err
	}
	if cfg.Database.DataDir == "" {
		return errors.New("import needs a --datadir")
	}
	alloc, err := state.LoadAlloc(ctx.Args().First())
	if err != nil {
		return err
	}
	db, err := utils.OpenDatabase(&cfg.Database, false)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := alloc.Write(db); err != nil {
		return err
	}
	log.Info("Imported accounts", "count", len(alloc), "datadir", cfg.Database.DataDir)
	return nil
}

func dumpState(ctx *cli.Context) error {
	cfg, err := makeConfig(ctx)
	if err != nil {
		return err
	}
	db, err := utils.OpenDatabase(&cfg.Database, true)
	if err != nil {
		return err
	}
	defer db.Close()

	alloc, err := state.Dump(db)
	if err != nil {
		return err
	}
	out, err := json.MarshalIndent(alloc, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(ctx.App.Writer, string(out))
	return nil
}
