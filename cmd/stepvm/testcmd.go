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
	"fmt"
	"maps"

	"github.com/bnb-chain/stepvm/cmd/utils"
	"github.com/bnb-chain/stepvm/tests"
	"github.com/ethereum/go-ethereum/log"
	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
)

var testCommand = &cli.Command{
	Action:    runTests,
	Name:      "test",
	Usage:     "Execute VM tests",
	ArgsUsage: "<path>...",
	Flags: []cli.Flag{
		verboseTestsFlag,
	},
	Description: `
The test command runs the VM tests of the given JSON files or directories and
reports the failing ones.`,
}

var verboseTestsFlag = &cli.BoolFlag{
	Name:  "all",
	Usage: "Report passing tests as well",
}

func runTests(ctx *cli.Context) error {
	if ctx.NArg() == 0 {
		return errors.Errorf("required arguments: %v", ctx.Command.ArgsUsage)
	}
	all := make(map[string]*tests.VMTest)
	for _, path := range ctx.Args().Slice() {
		loaded, err := tests.LoadVMTests(path)
		if err != nil {
			return err
		}
		maps.Copy(all, loaded)
	}
	log.Info("Running VM tests", "count", len(all))

	runCtx, cancel := utils.SignalContext()
	defer cancel()
	results, err := tests.RunVMTests(runCtx, all)
	if err != nil {
		return err
	}

	var (
		failed int
		table  = tablewriter.NewWriter(ctx.App.Writer)
	)
	table.SetHeader([]string{"Test", "Result"})
	for _, res := range results {
		switch {
		case res.Err != nil:
			failed++
			table.Append([]string{res.Name, res.Err.Error()})
		case ctx.Bool(verboseTestsFlag.Name):
			table.Append([]string{res.Name, "pass"})
		}
	}
	if table.NumLines() > 0 {
		table.Render()
	}
	fmt.Fprintf(ctx.App.Writer, "%d tests passed, %d failed\n", len(results)-failed, failed)
	if failed > 0 {
		return errors.Errorf("%d of %d tests failed", failed, len(results))
	}
	return nil
}
