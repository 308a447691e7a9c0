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

package vm

import (
	"fmt"
	"io"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
)

// Tracer is notified of every executed instruction and every frame exit.
type Tracer interface {
	// CaptureState is called right before an instruction executes, after
	// it passed every check.
	CaptureState(pc uint64, op OpCode, gas, cost uint64, st *State)
	// CaptureExit is called when a frame stops running.
	CaptureExit(depth uint64, status MachineStatus, usedGas uint64, output []byte)
}

// LogConfig are the configuration options for structured logger the EVM
type LogConfig struct {
	EnableMemory bool // enable memory capture
	DisableStack bool // disable stack capture
	Limit        int  // maximum length of output, but zero means unlimited
}

// StructLog is emitted to the EVM each cycle and lists information about the current internal state
// prior to the execution of the statement.
type StructLog struct {
	Pc         uint64        `json:"pc"`
	Op         OpCode        `json:"op"`
	Gas        uint64        `json:"gas"`
	GasCost    uint64        `json:"gasCost"`
	Memory     []byte        `json:"memory,omitempty"`
	MemorySize int           `json:"memSize"`
	Stack      []uint256.Int `json:"stack"`
	Depth      uint64        `json:"depth"`
	Refund     uint64        `json:"refund"`
}

// OpName formats the operand name in a human-readable format.
func (s *StructLog) OpName() string {
	return s.Op.String()
}

// StructLogger is a Tracer which keeps a log of every executed instruction
// and the results of the outermost frame.
type StructLogger struct {
	cfg LogConfig

	logs    []StructLog
	output  []byte
	status  MachineStatus
	usedGas uint64
}

// NewStructLogger returns a new logger
func NewStructLogger(cfg *LogConfig) *StructLogger {
	logger := &StructLogger{}
	if cfg != nil {
		logger.cfg = *cfg
	}
	return logger
}

// CaptureState logs a new structured log message.
func (l *StructLogger) CaptureState(pc uint64, op OpCode, gas, cost uint64, st *State) {
	// check if already accumulated the specified number of logs
	if l.cfg.Limit != 0 && l.cfg.Limit <= len(l.logs) {
		return
	}
	entry := StructLog{
		Pc:         pc,
		Op:         op,
		Gas:        gas,
		GasCost:    cost,
		MemorySize: st.Memory.Len(),
		Depth:      st.Depth,
		Refund:     st.RefundedGas,
	}
	if l.cfg.EnableMemory {
		entry.Memory = common.CopyBytes(st.Memory.Data())
	}
	if !l.cfg.DisableStack {
		entry.Stack = append([]uint256.Int(nil), st.Stack.Data()...)
	}
	l.logs = append(l.logs, entry)
}

// CaptureExit records the result of the outermost frame.
func (l *StructLogger) CaptureExit(depth uint64, status MachineStatus, usedGas uint64, output []byte) {
	if depth != 0 {
		return
	}
	l.status = status
	l.usedGas = usedGas
	l.output = common.CopyBytes(output)
}

// StructLogs returns the captured log entries.
func (l *StructLogger) StructLogs() []StructLog { return l.logs }

// Status returns the exit status of the outermost frame.
func (l *StructLogger) Status() MachineStatus { return l.status }

// Output returns the output of the outermost frame.
func (l *StructLogger) Output() []byte { return l.output }

// UsedGas returns the gas used by the outermost frame.
func (l *StructLogger) UsedGas() uint64 { return l.usedGas }

// WriteTrace writes a formatted trace to the given writer
func WriteTrace(writer io.Writer, logs []StructLog) {
	for _, log := range logs {
		fmt.Fprintf(writer, "%-16spc=%08d gas=%v cost=%v", log.OpName(), log.Pc, log.Gas, log.GasCost)
		fmt.Fprintf(writer, " depth=%d", log.Depth)
		fmt.Fprintln(writer)

		if len(log.Stack) > 0 {
			fmt.Fprintln(writer, "Stack:")
			for i := len(log.Stack) - 1; i >= 0; i-- {
				fmt.Fprintf(writer, "%08d  %s\n", len(log.Stack)-i-1, log.Stack[i].Hex())
			}
		}
		if len(log.Memory) > 0 {
			fmt.Fprintln(writer, "Memory:")
			fmt.Fprint(writer, hexDump(log.Memory))
		}
		fmt.Fprintln(writer)
	}
}

// hexDump renders memory as rows of 32 bytes.
func hexDump(data []byte) string {
	var b strings.Builder
	for i := 0; i < len(data); i += 32 {
		end := min(i+32, len(data))
		fmt.Fprintf(&b, "%08x  %s\n", i, hexutil.Encode(data[i:end]))
	}
	return b.String()
}
