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

package bytecode

import (
	"encoding/binary"
	"math"

	"github.com/pkg/errors"
)

// Chunk is the compiler's output sink: a growable byte buffer that also
// supports overwriting bytes already written, which back-patching forward
// jumps requires. There is no header; a Chunk's bytes are exactly the wire
// format described in the package doc.
type Chunk struct {
	Code []byte
}

// New returns an empty Chunk ready for writing.
func New() *Chunk {
	return &Chunk{}
}

// Tell returns the offset the next write will land at.
func (c *Chunk) Tell() int {
	return len(c.Code)
}

// WriteUint8 appends a single byte and returns its offset.
func (c *Chunk) WriteUint8(b byte) int {
	off := len(c.Code)
	c.Code = append(c.Code, b)
	return off
}

// WriteOp appends an opcode byte and returns its offset.
func (c *Chunk) WriteOp(op Op) int {
	return c.WriteUint8(byte(op))
}

// WriteUint16 appends a little-endian u16 and returns its offset.
func (c *Chunk) WriteUint16(v uint16) int {
	off := len(c.Code)
	c.Code = append(c.Code, 0, 0)
	binary.LittleEndian.PutUint16(c.Code[off:], v)
	return off
}

// WriteUint32 appends a little-endian u32 and returns its offset.
func (c *Chunk) WriteUint32(v uint32) int {
	off := len(c.Code)
	c.Code = append(c.Code, 0, 0, 0, 0)
	binary.LittleEndian.PutUint32(c.Code[off:], v)
	return off
}

// WriteFloat64 appends a little-endian IEEE-754 double and returns its
// offset.
func (c *Chunk) WriteFloat64(v float64) int {
	return int(c.WriteUint64(math.Float64bits(v)))
}

// WriteUint64 appends a little-endian u64 and returns its offset.
func (c *Chunk) WriteUint64(v uint64) uint64 {
	off := len(c.Code)
	c.Code = append(c.Code, 0, 0, 0, 0, 0, 0, 0, 0)
	binary.LittleEndian.PutUint64(c.Code[off:], v)
	return uint64(off)
}

// WriteString appends a one-byte length prefix followed by s's bytes. It
// errors if s is longer than 255 bytes, the wire format's limit.
func (c *Chunk) WriteString(s string) (int, error) {
	if len(s) > 255 {
		return 0, errors.Errorf("string constant %q exceeds 255-byte wire limit", s)
	}
	off := c.WriteUint8(byte(len(s)))
	c.Code = append(c.Code, s...)
	return off, nil
}

// OverwriteUint16 patches a previously-written u16 placeholder at off. Used
// to back-patch forward jump targets once they are known.
func (c *Chunk) OverwriteUint16(off int, v uint16) {
	binary.LittleEndian.PutUint16(c.Code[off:], v)
}

// OverwriteUint32 patches a previously-written u32 placeholder at off.
func (c *Chunk) OverwriteUint32(off int, v uint32) {
	binary.LittleEndian.PutUint32(c.Code[off:], v)
}

// ReadUint16 decodes a little-endian u16 at off.
func ReadUint16(code []byte, off int) uint16 {
	return binary.LittleEndian.Uint16(code[off:])
}

// ReadUint32 decodes a little-endian u32 at off.
func ReadUint32(code []byte, off int) uint32 {
	return binary.LittleEndian.Uint32(code[off:])
}

// ReadFloat64 decodes a little-endian IEEE-754 double at off.
func ReadFloat64(code []byte, off int) float64 {
	return math.Float64frombits(binary.LittleEndian.Uint64(code[off:]))
}

// Finish appends the terminator byte, producing the final flat stream ready
// to be written to a `.apb` file or fed straight to the VM.
func (c *Chunk) Finish() []byte {
	c.Code = append(c.Code, byte(Terminator))
	return c.Code
}
