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

// Package heap is Ape's allocator and mark-and-sweep collector. Every heap
// object passes through Heap.Register, which is the "reallocate" primitive:
// it charges the object's size against a running total, runs a full
// stop-the-world collection first if that total crosses an adaptive,
// doubling threshold, and links the object into the heap's object list.
//
// The heap has no notion of VM state (value stack, globals, call frames);
// the caller supplies a RootFunc that pushes every root onto the collector
// at the start of a collection. This keeps heap free of a dependency on the
// vm package while letting the VM decide exactly what counts as a root.
package heap

import "github.com/duongddinh/apelang/value"

const initialThreshold = 1 << 20 // 1 MiB, per spec

// RootFunc is called once per collection; it must call mark for every root
// value reachable from the VM (stack slots below stackTop, globals, live
// call frames' functions, the reserved pending-error slot).
type RootFunc func(mark func(value.Value))

// Heap owns the object list and the allocation-pressure bookkeeping that
// decides when to collect.
type Heap struct {
	head      value.Object
	allocated int
	threshold int

	// Stats, exposed for diagnostics/tests; not part of the collection
	// algorithm itself.
	Collections int
	Freed       int
}

// New returns an empty Heap with the spec's initial 1 MiB threshold.
func New() *Heap {
	return &Heap{threshold: initialThreshold}
}

// Register is the reallocate primitive: every heap object must be passed
// through it exactly once, right after construction. roots is consulted
// only if the new total crosses the threshold, in which case a collection
// runs before o is linked into the object list; o itself can never be
// swept by the collection its own registration triggers. Anything o
// references must still be reachable from roots at that point, exactly as
// the VM's OP_ADD string-concat path keeps its operands on the stack until
// the freshly allocated string replaces them.
func (h *Heap) Register(o value.Object, roots RootFunc) {
	hdr := value.ObjHeader(o)
	h.allocated += hdr.Size

	if h.allocated > h.threshold {
		h.Collect(roots)
	}

	hdr.Next = h.head
	h.head = o
}

// Collect runs a full mark-and-sweep cycle unconditionally. Register calls
// this automatically on allocation pressure; callers may also invoke it
// directly (e.g. a host "force GC" facility).
func (h *Heap) Collect(roots RootFunc) {
	h.Collections++
	if roots != nil {
		roots(h.markValue)
	}
	h.sweep()
	h.threshold *= 2
}

func (h *Heap) markValue(v value.Value) {
	if v.Kind != value.KObj || v.Obj == nil {
		return
	}
	h.mark(v.Obj)
}

// mark marks o and, recursively, everything it references. Already-marked
// objects return immediately, which is what breaks cycles between Bunches
// and Canopies.
func (h *Heap) mark(o value.Object) {
	hdr := value.ObjHeader(o)
	if hdr.Marked {
		return
	}
	hdr.Marked = true

	switch obj := o.(type) {
	case *value.String:
		// no outgoing references
	case *value.Function:
		if obj.Name != nil {
			h.mark(obj.Name)
		}
		if obj.Owner != nil && obj.Owner != obj {
			h.mark(obj.Owner)
		}
	case *value.Bunch:
		for _, item := range obj.Items {
			h.markValue(item)
		}
	case *value.Canopy:
		for _, e := range obj.Entries() {
			h.markValue(e.Key)
			h.markValue(e.Value)
		}
	}
}

// sweep unlinks and frees every unmarked object, and clears the mark bit on
// every survivor so the next cycle starts clean.
func (h *Heap) sweep() {
	var prev value.Object
	obj := h.head
	for obj != nil {
		hdr := value.ObjHeader(obj)
		next := hdr.Next
		if hdr.Marked {
			hdr.Marked = false
			prev = obj
			obj = next
			continue
		}

		if prev == nil {
			h.head = next
		} else {
			value.ObjHeader(prev).Next = next
		}
		h.free(obj, hdr)
		obj = next
	}
}

// free releases whatever inline storage obj's kind owns and deducts its
// charged size from the running total. Go's own garbage collector reclaims
// the memory; what this collector manages is Ape-level reachability, not
// host memory; free exists to drop references promptly (e.g. a module
// Function's owned bytecode buffer) rather than to call libc free.
func (h *Heap) free(obj value.Object, hdr *value.Header) {
	h.allocated -= hdr.Size
	h.Freed++

	switch o := obj.(type) {
	case *value.Function:
		if o.IsModule {
			o.Code = nil
		}
	case *value.Bunch:
		o.Items = nil
	case *value.Canopy:
		// unexported entries field is dropped along with the object itself;
		// nothing further to release from outside the value package.
	}
}

// Allocated reports the current running total of bytes charged to live
// objects, for diagnostics and tests.
func (h *Heap) Allocated() int {
	return h.allocated
}

// Threshold reports the next collection trigger, for diagnostics and tests.
func (h *Heap) Threshold() int {
	return h.threshold
}
