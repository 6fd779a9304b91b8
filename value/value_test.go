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

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTruthy(t *testing.T) {
	assert.False(t, Nil.Truthy())
	assert.False(t, Bool(false).Truthy())
	assert.True(t, Bool(true).Truthy())
	assert.True(t, Num(0).Truthy())
	assert.True(t, Obj(NewString("")).Truthy())
}

func TestEqualStringsByContent(t *testing.T) {
	a := Obj(NewString("hi"))
	b := Obj(NewString("hi"))
	assert.True(t, Equal(a, b), "distinct String objects with equal content must compare equal")
}

func TestEqualObjectsByIdentity(t *testing.T) {
	bunch := NewBunch(nil)
	a := Obj(bunch)
	b := Obj(bunch)
	c := Obj(NewBunch(nil))
	assert.True(t, Equal(a, b))
	assert.False(t, Equal(a, c))
}

func TestEqualAcrossKinds(t *testing.T) {
	assert.False(t, Equal(Nil, Bool(false)))
	assert.False(t, Equal(Num(0), Bool(false)))
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "nil", Format(Nil))
	assert.Equal(t, "true", Format(Bool(true)))
	assert.Equal(t, "42", Format(Num(42)))
	assert.Equal(t, "3.5", Format(Num(3.5)))
	assert.Equal(t, "hello", Format(Obj(NewString("hello"))))
}

func TestBunchGetOutOfRangeReturnsNil(t *testing.T) {
	b := NewBunch([]Value{Num(1), Num(2)})
	assert.Equal(t, Nil, b.Get(9))
	assert.True(t, b.Get(0).Kind == KNumber)
}

func TestBunchSetOutOfRangeFails(t *testing.T) {
	b := NewBunch([]Value{Num(1)})
	assert.False(t, b.Set(5, Num(2)))
	assert.True(t, b.Set(0, Num(9)))
	assert.Equal(t, 9.0, b.Get(0).Number)
}

func TestCanopyGetMissingKeyReturnsNil(t *testing.T) {
	c := NewCanopy(8)
	assert.Equal(t, Nil, c.Get(NewString("missing")))
}

func TestCanopySetAndGet(t *testing.T) {
	c := NewCanopy(8)
	k := NewString("k")
	c.Set(k, Num(1))
	assert.Equal(t, Num(1), c.Get(NewString("k")))
	assert.Equal(t, 1, c.Count)
}

func TestCanopyOverwriteSameKeyDoesNotDoubleCount(t *testing.T) {
	c := NewCanopy(8)
	c.Set(NewString("k"), Num(1))
	c.Set(NewString("k"), Num(2))
	assert.Equal(t, 1, c.Count)
	assert.Equal(t, Num(2), c.Get(NewString("k")))
}

func TestCanopyCountEqualsNonNilKeys(t *testing.T) {
	c := NewCanopy(8)
	for i := 0; i < 5; i++ {
		c.Set(NewString(string(rune('a'+i))), Num(float64(i)))
	}
	assert.Equal(t, 5, c.Count)
	assert.Equal(t, 5, len(c.Entries()))
}

func TestCanopyGrowsPastLoadFactorWithoutLoopingForever(t *testing.T) {
	c := NewCanopy(8)
	for i := 0; i < 200; i++ {
		c.Set(NewString(string(rune(i))), Num(float64(i)))
	}
	assert.Equal(t, 200, c.Count)
	for i := 0; i < 200; i++ {
		assert.Equal(t, Num(float64(i)), c.Get(NewString(string(rune(i)))))
	}
}

func TestCanopyDeleteLeavesTombstoneAndStaysFindable(t *testing.T) {
	c := NewCanopy(8)
	a, b := NewString("a"), NewString("b")
	c.Set(a, Num(1))
	c.Set(b, Num(2))
	assert.True(t, c.Delete(a))
	assert.Equal(t, Nil, c.Get(NewString("a")))
	assert.Equal(t, Num(2), c.Get(NewString("b")))
	assert.Equal(t, 1, c.Count)
}

func TestFunctionOwnerIsSelfForOwningFunction(t *testing.T) {
	f := NewOwnerFunction(NewString("main"), 0, []byte{1, 2, 3})
	assert.Same(t, f, f.Owner)
	assert.Equal(t, f.Code, f.Bytecode())
}

func TestNestedFunctionBorrowsOwnerBytecode(t *testing.T) {
	owner := NewOwnerFunction(NewString("main"), 0, []byte{9, 9, 9})
	nested := NewNestedFunction(NewString("helper"), 1, owner, 2)
	assert.Same(t, owner, nested.Owner)
	assert.Equal(t, owner.Code, nested.Bytecode())
}

func TestFNV1aIsStableAndDiscriminating(t *testing.T) {
	assert.Equal(t, FNV1a("abc"), FNV1a("abc"))
	assert.NotEqual(t, FNV1a("abc"), FNV1a("abd"))
}
