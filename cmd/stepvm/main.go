// Copyright 2014 The go-ethereum Authors
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
// stepvm executes EVM code one instruction at a time, answering the facts
// the machine asks for from a state database.
package main

import (
	"fmt"
	"os"

	"github.com/bnb-chain/stepvm/internal/debug"
	"github.com/urfave/cli/v2"
	_ "go.uber.org/automaxprocs"
)

var app = newApp()

func newApp() *cli.App {
	app := &cli.App{
		Name:                 "stepvm",
		Usage:                "the step-by-step EVM command line interface",
		Copyright:            "Copyright 2013-2025 The go-ethereum Authors",
		EnableBashCompletion: true,
		Flags:                debug.Flags,
		Commands: []*cli.Command{
			runCommand,
			importCommand,
			dumpCommand,
			testCommand,
			dumpConfigCommand,
		},
		Before: func(ctx *cli.Context) error {
			return debug.Setup(ctx)
		},
		After: func(ctx *cli.Context) error {
			debug.Exit()
			return nil
		},
	}
	return app
}

func main() {
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
