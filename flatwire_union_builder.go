// Copyright (c) 2024 John Millikin <john@john-millikin.com>
//
// Permission to use, copy, modify, and/or distribute this software for any
// purpose with or without fee is hereby granted.
//
// THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH
// REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY
// AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT,
// INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM
// LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR
// OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR
// PERFORMANCE OF THIS SOFTWARE.
//
// SPDX-License-Identifier: 0BSD

package flatwire

// UnionVectorBuilder {{{

// A UnionVectorBuilder accumulates the elements of a vector-of-unions
// field and emits its two parallel vectors together, so their lengths
// cannot diverge.
//
// Element tables must already be written to the Builder before Finish is
// called.
type UnionVectorBuilder struct {
	tags   []uint8
	values []UOffset
}

// Add appends an element. A zero tag must pair with a zero value; use
// AddNone for the NONE element.
func (b *UnionVectorBuilder) Add(tag uint8, value UOffset) {
	if (tag == 0) != (value == 0) {
		panic("flatwire: union type tag and value must be set together")
	}
	b.tags = append(b.tags, tag)
	b.values = append(b.values, value)
}

// AddNone appends a NONE element: type byte 0, zero offset in the value
// slot.
func (b *UnionVectorBuilder) AddNone() {
	b.tags = append(b.tags, 0)
	b.values = append(b.values, 0)
}

// Len returns the number of elements added so far.
func (b *UnionVectorBuilder) Len() int {
	return len(b.tags)
}

// Finish writes the value vector then the type vector and returns both
// offsets. Record them with UnionVectorSlots.
func (b *UnionVectorBuilder) Finish(bld *Builder) (typeVec, valueVec UOffset) {
	n := len(b.values)
	bld.StartVector(SizeUOffset, n, SizeUOffset)
	for i := n - 1; i >= 0; i-- {
		if b.values[i] == 0 {
			bld.PrependUint32(0)
		} else {
			bld.PrependUOffset(b.values[i])
		}
	}
	valueVec = bld.EndVector(n)

	bld.StartVector(1, n, 1)
	for i := n - 1; i >= 0; i-- {
		bld.PrependUint8(b.tags[i])
	}
	typeVec = bld.EndVector(n)
	return typeVec, valueVec
}

// }}}

// UnionVectorSlots records a vector-of-unions field: the type vector at
// slot-1 and the value vector at slot. Both offsets must be set, or
// neither.
func (b *Builder) UnionVectorSlots(slot uint16, typeVec, valueVec UOffset) {
	if slot == 0 {
		panic("flatwire: union vector value slot 0 has no room for its type vector")
	}
	if (typeVec == 0) != (valueVec == 0) {
		panic("flatwire: union vector slots must be set together")
	}
	b.UOffsetSlot(slot-1, typeVec)
	b.UOffsetSlot(slot, valueVec)
}
