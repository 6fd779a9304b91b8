// This file is part of ape - https://github.com/duongddinh/apelang
//
// Copyright 2016 Denis Bernard <db047h@gmail.com>
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

//go:build !windows

package main

import (
	"os"
	"syscall"
	"unsafe"
)

type winsize struct {
	row, col, xpixel, ypixel uint16
}

// consoleSize reports f's terminal width and height, or (0, 0) if f isn't
// a terminal. Used to size the disassemble table's operand column; the
// REPL's line editing and raw-mode handling is peterh/liner's job, not
// this package's, so this is the only terminal-geometry code ape needs.
func consoleSize(f *os.File) (cols, rows int) {
	var w winsize
	_, _, errno := syscall.Syscall(syscall.SYS_IOCTL, f.Fd(), syscall.TIOCGWINSZ, uintptr(unsafe.Pointer(&w)))
	if errno != 0 {
		return 0, 0
	}
	return int(w.col), int(w.row)
}
