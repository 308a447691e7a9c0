// Copyright 2016 The go-ethereum Authors
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

// Package debug interfaces Go runtime debugging facilities.
package debug

import (
	"context"
	"os"
	"os/user"
	"path/filepath"
	"runtime/trace"
	"strings"
	"sync"
)

// Handler is the global debugging handler.
var Handler = new(HandlerT)

// HandlerT implements the debugging facilities used by the command line
// tools.
type HandlerT struct {
	mu        sync.Mutex
	traceW    *os.File
	traceFile string
	ctx       context.Context
	task      *trace.Task
}

// Tracing reports whether a Go execution trace is being written.
func (h *HandlerT) Tracing() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.traceW != nil
}

// expands home directory in file paths.
// ~someuser/tmp will not be expanded.
func expandHome(p string) string {
	if strings.HasPrefix(p, "~/") || strings.HasPrefix(p, "~\\") {
		home := os.Getenv("HOME")
		if home == "" {
			if usr, err := user.Current(); err == nil {
				home = usr.HomeDir
			}
		}
		if home != "" {
			p = home + p[1:]
		}
	}
	return filepath.Clean(p)
}
