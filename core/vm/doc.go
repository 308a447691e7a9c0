// Copyright 2014 The go-ethereum Authors
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

/*
Package vm implements a single-step Ethereum Virtual Machine.

A Machine executes one frame, one instruction per call to Step. It never
reads account or block data on its own: when an instruction needs a fact it
was not given, Step returns a *RequireError naming the fact and leaves the
machine untouched. The host commits the fact with CommitAccount or
CommitBlockhash and steps again.

Calls and creates are not executed recursively. The machine stops in the
InvokeCall or InvokeCreate status; the host runs a child machine obtained
from Derive to completion and merges it back with ApplySub.
*/
package vm
