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
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/bnb-chain/stepvm/cmd/utils"
	"github.com/bnb-chain/stepvm/core/state"
	"github.com/bnb-chain/stepvm/core/vm"
	"github.com/bnb-chain/stepvm/core/vm/runtime"
	"github.com/bnb-chain/stepvm/internal/debug"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/holiman/uint256"
	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
)

var (
	codeFlag = &cli.StringFlag{
		Name:  "code",
		Usage: "Hex code to execute",
	}
	codeFileFlag = &cli.StringFlag{
		Name:  "codefile",
		Usage: "File containing hex code to execute, '-' reads standard input",
	}
	inputFlag = &cli.StringFlag{
		Name:  "input",
		Usage: "Hex input of the execution",
	}
	receiverFlag = &cli.StringFlag{
		Name:  "receiver",
		Usage: "Execute the code stored at this address instead of --code",
	}
	createFlag = &cli.BoolFlag{
		Name:  "create",
		Usage: "Execute the code as init code and deploy its output",
	}
	valueFlag = &cli.StringFlag{
		Name:  "value",
		Usage: "Value transferred to the executed code",
	}
	allocFlag = &cli.StringFlag{
		Name:  "alloc",
		Usage: "JSON file of accounts to store before executing",
	}
	traceFlag = &cli.BoolFlag{
		Name:  "trace",
		Usage: "Print every executed instruction to standard error",
	}
	traceMemoryFlag = &cli.BoolFlag{
		Name:  "trace.memory",
		Usage: "Include the memory in the trace",
	}
	traceLimitFlag = &cli.IntFlag{
		Name:  "trace.limit",
		Usage: "Maximum number of traced instructions, 0 is unlimited",
	}

	originFlag = &cli.StringFlag{
		Name:  "origin",
		Usage: "Origin and caller of the execution",
	}
	coinbaseFlag = &cli.StringFlag{
		Name:  "coinbase",
		Usage: "Coinbase of the block",
	}
	blockNumberFlag = &cli.Uint64Flag{
		Name:  "block.number",
		Usage: "Number of the block",
	}
	gasFlag = &cli.Uint64Flag{
		Name:  "gas",
		Usage: "Gas limit of the execution",
	}
	priceFlag = &cli.Uint64Flag{
		Name:  "price",
		Usage: "Gas price of the execution",
	}
)

// runtimeFlags describe the environment of an execution.
var runtimeFlags = []cli.Flag{
	utils.PatchFlag,
	utils.EIPsFlag,
	originFlag,
	coinbaseFlag,
	blockNumberFlag,
	gasFlag,
	priceFlag,
}

var runCommand = &cli.Command{
	Action:    runCmd,
	Name:      "run",
	Usage:     "Run arbitrary code to completion",
	ArgsUsage: "<code>",
	Flags: append([]cli.Flag{
		configFileFlag,
		codeFlag,
		codeFileFlag,
		inputFlag,
		receiverFlag,
		createFlag,
		valueFlag,
		allocFlag,
		traceFlag,
		traceMemoryFlag,
		traceLimitFlag,
	}, append(utils.DatabaseFlags, runtimeFlags...)...),
	Description: `
The run command executes code, given as argument or with --code or --codefile,
until it exits. Every fact the execution asks for is read from the state
database, or from the accounts of --alloc. With --receiver the code stored at
that address runs instead.`,
}

// readCode returns the code selected by the code flags or the argument.
func readCode(ctx *cli.Context) ([]byte, error) {
	var text string
	switch {
	case ctx.IsSet(codeFlag.Name):
		text = ctx.String(codeFlag.Name)
	case ctx.IsSet(codeFileFlag.Name):
		var (
			data []byte
			err  error
		)
		if file := ctx.String(codeFileFlag.Name); file == "-" {
			data, err = io.ReadAll(os.Stdin)
		} else {
			data, err = os.ReadFile(file)
		}
		if err != nil {
			return nil, err
		}
		text = string(data)
	case ctx.NArg() > 0:
		text = ctx.Args().First()
	}
	return decodeHex(text)
}

func decodeHex(text string) ([]byte, error) {
	text = strings.TrimPrefix(strings.TrimSpace(text), "0x")
	code, err := hex.DecodeString(text)
	if err != nil {
		return nil, errors.Wrap(err, "invalid hex")
	}
	return code, nil
}

func runCmd(ctx *cli.Context) error {
	cfg, err := makeConfig(ctx)
	if err != nil {
		return err
	}
	rcfg, err := cfg.Environment.runtimeConfig(ctx)
	if err != nil {
		return err
	}
	if ctx.IsSet(valueFlag.Name) {
		v, ok := math.ParseBig256(ctx.String(valueFlag.Name))
		if !ok {
			return errors.Errorf("invalid --%s %q", valueFlag.Name, ctx.String(valueFlag.Name))
		}
		rcfg.Value, _ = uint256.FromBig(v)
	}
	code, err := readCode(ctx)
	if err != nil {
		return err
	}
	input, err := decodeHex(ctx.String(inputFlag.Name))
	if err != nil {
		return err
	}

	db, err := utils.OpenDatabase(&cfg.Database, false)
	if err != nil {
		return err
	}
	defer db.Close()
	if file := ctx.String(allocFlag.Name); file != "" {
		alloc, err := state.LoadAlloc(file)
		if err != nil {
			return err
		}
		if err := alloc.Write(db); err != nil {
			return err
		}
	}
	rcfg.Source = db

	var tracer *vm.StructLogger
	if ctx.Bool(traceFlag.Name) {
		tracer = vm.NewStructLogger(&vm.LogConfig{
			EnableMemory: ctx.Bool(traceMemoryFlag.Name),
			Limit:        ctx.Int(traceLimitFlag.Name),
		})
		rcfg.Tracer = tracer
	}

	runCtx, cancel := utils.SignalContext()
	defer cancel()
	defer debug.Handler.StartRegion("execute")()

	var (
		res   *runtime.Result
		start = time.Now()
	)
	switch {
	case ctx.IsSet(receiverFlag.Name):
		res, err = runtime.Call(runCtx, common.HexToAddress(ctx.String(receiverFlag.Name)), input, rcfg)
	case len(code) == 0:
		return errors.New("no code to execute, use --code, --codefile or --receiver")
	case ctx.Bool(createFlag.Name):
		res, err = runtime.Create(runCtx, append(code, input...), rcfg)
	default:
		res, err = runtime.Execute(runCtx, code, input, rcfg)
	}
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	if tracer != nil {
		vm.WriteTrace(ctx.App.ErrWriter, tracer.StructLogs())
	}
	printResult(ctx.App.Writer, res, elapsed)
	return nil
}

// printResult renders the outcome of an execution as tables.
func printResult(w io.Writer, res *runtime.Result, elapsed time.Duration) {
	data := [][]string{
		{"Status", res.Status.String()},
		{"Output", fmt.Sprintf("%#x", res.Output)},
		{"Gas used", fmt.Sprintf("%d", res.UsedGas)},
		{"Gas refunded", fmt.Sprintf("%d", res.RefundedGas)},
		{"Touched", fmt.Sprintf("%d", len(res.Touched))},
		{"Elapsed", common.PrettyDuration(elapsed).String()},
	}
	if res.Address != (common.Address{}) {
		data = append(data, []string{"Contract", res.Address.Hex()})
	}
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Field", "Value"})
	table.AppendBulk(data)
	table.Render()

	if len(res.Changes) > 0 {
		table = tablewriter.NewWriter(w)
		table.SetHeader([]string{"Account", "Change", "Nonce", "Balance", "Code", "Slots"})
		for _, change := range res.Changes {
			table.Append(changeRow(change))
		}
		table.Render()
	}
	if len(res.Logs) > 0 {
		table = tablewriter.NewWriter(w)
		table.SetHeader([]string{"Address", "Topics", "Data"})
		for _, l := range res.Logs {
			topics := make([]string, len(l.Topics))
			for i, topic := range l.Topics {
				topics[i] = topic.TerminalString()
			}
			table.Append([]string{l.Address.Hex(), strings.Join(topics, " "), fmt.Sprintf("%#x", l.Data)})
		}
		table.Render()
	}
	for _, addr := range res.Removed {
		fmt.Fprintf(w, "Removed %v\n", addr)
	}
}

func changeRow(change vm.AccountChange) []string {
	switch c := change.(type) {
	case *vm.FullChange:
		return []string{c.Address.Hex(), "full", fmt.Sprint(c.Nonce), c.Balance.Dec(), fmt.Sprint(len(c.Code)), fmt.Sprint(len(c.Storage))}
	case *vm.CreateChange:
		return []string{c.Address.Hex(), "create", fmt.Sprint(c.Nonce), c.Balance.Dec(), fmt.Sprint(len(c.Code)), fmt.Sprint(len(c.Storage))}
	case *vm.IncreaseBalanceChange:
		return []string{c.Address.Hex(), "increase", "", "+" + c.Amount.Dec(), "", ""}
	case *vm.DecreaseBalanceChange:
		return []string{c.Address.Hex(), "decrease", "", "-" + c.Amount.Dec(), "", ""}
	case *vm.NonexistChange:
		return []string{c.Address.Hex(), "nonexist", "", "", "", ""}
	}
	return []string{change.ChangeAddress().Hex(), fmt.Sprintf("%T", change), "", "", "", ""}
}
