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

package value

// ObjKind tags which of the four heap object kinds an Object is.
type ObjKind int

const (
	ObjStringKind ObjKind = iota
	ObjFunctionKind
	ObjBunchKind
	ObjCanopyKind
)

// Header is the common prefix every heap object carries: its kind, the
// mark-sweep collector's mark bit, and the intrusive link into the heap's
// singly-linked object list. Object kinds embed Header so a single `match`
// on the concrete Go type (rather than a virtual method table) covers
// marking, printing, and freeing everywhere in this module.
type Header struct {
	Kind   ObjKind
	Marked bool
	Next   Object
	Size   int // bytes charged against the heap's allocation total
}

// header satisfies the Object interface via Go's promotion of embedded
// methods, so every concrete object kind is an Object for free.
func (h *Header) header() *Header { return h }

// Object is a non-owning handle to a heap allocation. The heap package walks
// the Next chain through this interface; everything else narrows it with a
// type switch against the four concrete kinds below.
type Object interface {
	header() *Header
}

// ObjHeader exposes an Object's Header for the heap package, which lives in
// a different package and cannot call the unexported header() method.
func ObjHeader(o Object) *Header {
	return o.header()
}

// String is Ape's immutable, content-addressed string object. Strings are
// NOT interned: two different String objects may hold equal Chars, and
// equality between them is by content (see Equal), not by identity.
type String struct {
	Header
	Chars string
	Hash  uint32
}

// NewString allocates a String with its hash precomputed.
func NewString(s string) *String {
	str := &String{Chars: s, Hash: FNV1a(s)}
	str.Kind = ObjStringKind
	str.Size = 24 + len(s)
	return str
}

// FNV1a computes the 32-bit FNV-1a hash of s, used for Canopy key hashing.
func FNV1a(s string) uint32 {
	const (
		offsetBasis uint32 = 2166136261
		prime       uint32 = 16777619
	)
	h := offsetBasis
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= prime
	}
	return h
}

// Function is either a module/script function that owns a contiguous
// bytecode buffer, or a nested function that borrows its owner's buffer.
// IsModule distinguishes the two; Owner always refers to the Function whose
// Code field is authoritative (an owning Function is its own Owner), and
// Entry is the byte offset within Owner.Code where the function body
// begins. Jumps and instruction pointers for any Function are always
// resolved against Owner.Code, never against the VM's top-level buffer.
type Function struct {
	Header
	Arity    int
	Name     *String
	IsModule bool
	Code     []byte // valid only when IsModule is true
	Owner    *Function
	Entry    int
}

// Bytecode returns the buffer jumps and the instruction pointer for f are
// resolved against.
func (f *Function) Bytecode() []byte {
	return f.Owner.Code
}

// NewOwnerFunction allocates a Function that owns code, e.g. a top-level
// script or a summoned module. It is its own Owner.
func NewOwnerFunction(name *String, arity int, code []byte) *Function {
	f := &Function{IsModule: true, Name: name, Arity: arity, Code: code}
	f.Owner = f
	f.Kind = ObjFunctionKind
	f.Size = 48 + len(code)
	return f
}

// NewNestedFunction allocates a Function that borrows owner's buffer,
// beginning execution at entry.
func NewNestedFunction(name *String, arity int, owner *Function, entry int) *Function {
	f := &Function{Name: name, Arity: arity, Owner: owner, Entry: entry}
	f.Kind = ObjFunctionKind
	f.Size = 48
	return f
}

// Bunch is Ape's mutable, ordered array.
type Bunch struct {
	Header
	Items []Value
}

// NewBunch allocates a Bunch from items (items is taken by reference, not
// copied).
func NewBunch(items []Value) *Bunch {
	b := &Bunch{Items: items}
	b.Kind = ObjBunchKind
	b.Size = 24 + len(items)*24
	return b
}

// Get returns the element at i, or Nil if i is out of range; Bunch
// subscript-get never errors.
func (b *Bunch) Get(i int) Value {
	if i < 0 || i >= len(b.Items) {
		return Nil
	}
	return b.Items[i]
}

// Set assigns the element at i. It reports false if i is out of range,
// which the VM surfaces as a runtime error (subscript-set does error, unlike
// get).
func (b *Bunch) Set(i int, v Value) bool {
	if i < 0 || i >= len(b.Items) {
		return false
	}
	b.Items[i] = v
	return true
}

const canopyMinCapacity = 8
const canopyMaxLoadFactor = 0.75

type canopyEntry struct {
	Key   Value
	Value Value
}

// Canopy is Ape's mutable, string-keyed map: an open-addressed table with
// linear probing. An entry whose Key is Nil and whose Value is also Nil is
// an empty slot; Nil key with a non-Nil value is a tombstone left behind by
// a deletion. Count tracks the number of live (non-Nil-key) entries and
// drives the load-factor growth that the original implementation lacked.
type Canopy struct {
	Header
	entries []canopyEntry
	Count   int
}

// NewCanopy allocates an empty Canopy with at least capacity slots (rounded
// up to the table's minimum).
func NewCanopy(capacity int) *Canopy {
	if capacity < canopyMinCapacity {
		capacity = canopyMinCapacity
	}
	capacity = nextPowerOfTwo(capacity)
	c := &Canopy{entries: make([]canopyEntry, capacity)}
	c.Kind = ObjCanopyKind
	c.Size = 24 + capacity*48
	return c
}

func nextPowerOfTwo(n int) int {
	p := canopyMinCapacity
	for p < n {
		p *= 2
	}
	return p
}

func (c *Canopy) findSlot(key *String) int {
	mask := uint32(len(c.entries) - 1)
	idx := key.Hash & mask
	var firstTombstone = -1
	for {
		e := &c.entries[idx]
		if e.Key.IsNil() {
			if e.Value.IsNil() {
				if firstTombstone != -1 {
					return firstTombstone
				}
				return int(idx)
			}
			if firstTombstone == -1 {
				firstTombstone = int(idx)
			}
		} else if es, ok := e.Key.Obj.(*String); ok && es.Chars == key.Chars {
			return int(idx)
		}
		idx = (idx + 1) & mask
	}
}

// Get looks up key, returning Nil if it is absent.
func (c *Canopy) Get(key *String) Value {
	if len(c.entries) == 0 {
		return Nil
	}
	idx := c.findSlot(key)
	e := c.entries[idx]
	if e.Key.IsNil() {
		return Nil
	}
	return e.Value
}

// Set inserts or overwrites key's value, growing the table first if the
// load factor would exceed canopyMaxLoadFactor.
func (c *Canopy) Set(key *String, v Value) {
	if float64(c.Count+1) > canopyMaxLoadFactor*float64(len(c.entries)) {
		c.grow()
	}
	idx := c.findSlot(key)
	e := &c.entries[idx]
	isNewKey := e.Key.IsNil()
	e.Key = Obj(key)
	e.Value = v
	if isNewKey {
		c.Count++
	}
}

// Delete removes key if present, leaving a tombstone behind so later probes
// still find entries that collided with it.
func (c *Canopy) Delete(key *String) bool {
	if len(c.entries) == 0 {
		return false
	}
	idx := c.findSlot(key)
	e := &c.entries[idx]
	if e.Key.IsNil() {
		return false
	}
	e.Key = Nil
	e.Value = Bool(true) // tombstone marker: Nil key, non-Nil value
	c.Count--
	return true
}

func (c *Canopy) grow() {
	old := c.entries
	c.entries = make([]canopyEntry, len(old)*2)
	c.Size = 24 + len(c.entries)*48
	c.Count = 0
	for _, e := range old {
		if e.Key.IsNil() {
			continue
		}
		c.Set(e.Key.Obj.(*String), e.Value)
	}
}

// CanopyEntry is one live (key, value) pair reported by Canopy.Entries.
type CanopyEntry struct {
	Key   Value
	Value Value
}

// Entries returns the live (key, value) pairs, for GC tracing and for
// rendering a Canopy with tree/print.
func (c *Canopy) Entries() []CanopyEntry {
	out := make([]CanopyEntry, 0, c.Count)
	for _, e := range c.entries {
		if e.Key.IsNil() {
			continue
		}
		out = append(out, CanopyEntry{e.Key, e.Value})
	}
	return out
}
