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

package heap

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/duongddinh/apelang/value"
)

func TestRegisterNoRootsSweepsEverything(t *testing.T) {
	h := New()
	s := value.NewString("garbage")
	h.Register(s, nil)

	h.Collect(func(mark func(value.Value)) {})

	assert.Equal(t, 0, h.Allocated())
	assert.Equal(t, 1, h.Freed)
}

func TestRegisterRootedObjectSurvives(t *testing.T) {
	h := New()
	s := value.NewString("kept")
	h.Register(s, nil)

	h.Collect(func(mark func(value.Value)) {
		mark(value.Obj(s))
	})

	assert.Equal(t, s.Size, h.Allocated())
	assert.Equal(t, 0, h.Freed)
	assert.False(t, value.ObjHeader(s).Marked, "survivors must be unmarked after sweep")
}

func TestMarkIsCycleSafe(t *testing.T) {
	h := New()
	a := value.NewBunch(nil)
	b := value.NewBunch(nil)
	a.Items = []value.Value{value.Obj(b)}
	b.Items = []value.Value{value.Obj(a)}
	h.Register(a, nil)
	h.Register(b, nil)

	h.Collect(func(mark func(value.Value)) {
		mark(value.Obj(a))
	})

	assert.Equal(t, 1, h.Collections)
	assert.Equal(t, 0, h.Freed, "both bunches are reachable from the root via the cycle")
}

func TestFunctionMarkingTracesNameAndOwner(t *testing.T) {
	h := New()
	ownerName := value.NewString("main")
	owner := value.NewOwnerFunction(ownerName, 0, []byte{0})
	nestedName := value.NewString("helper")
	nested := value.NewNestedFunction(nestedName, 1, owner, 0)

	h.Register(ownerName, nil)
	h.Register(owner, nil)
	h.Register(nestedName, nil)
	h.Register(nested, nil)

	h.Collect(func(mark func(value.Value)) {
		mark(value.Obj(nested))
	})

	assert.Equal(t, 0, h.Freed, "marking nested must also keep its name and owner (and the owner's name) alive")
}

func TestCollectDoublesThreshold(t *testing.T) {
	h := New()
	before := h.Threshold()
	h.Collect(func(mark func(value.Value)) {})
	assert.Equal(t, before*2, h.Threshold())
}

func TestRegisterTriggersCollectionPastThreshold(t *testing.T) {
	h := New()
	h.threshold = 10

	s := value.NewString("01234567890123456789") // Size well past 10
	called := false
	h.Register(s, func(mark func(value.Value)) { called = true })

	assert.True(t, called, "crossing the threshold must trigger a collection")
}

func TestFreeDropsModuleOwnedCode(t *testing.T) {
	h := New()
	fn := value.NewOwnerFunction(value.NewString("m"), 0, []byte{1, 2, 3})
	h.Register(fn, nil)

	h.Collect(func(mark func(value.Value)) {})

	assert.Nil(t, fn.Code)
}
