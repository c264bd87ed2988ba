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

import (
	"encoding/binary"
	"math"
)

// A Builder assembles an encoded buffer back to front: a value's final
// position is fixed before any offset to it is written. UOffset values
// returned while building are measured from the end of the written
// region.
//
// The zero Builder is ready to use. A Builder is not safe for concurrent
// use.
type Builder struct {
	buf       []byte
	head      UOffset
	minalign  int
	vtable    []UOffset
	objectEnd UOffset
	vtables   []UOffset
	nested    bool
	finished  bool
}

// NewBuilder returns a Builder with an initial buffer capacity.
func NewBuilder(initialSize int) *Builder {
	if initialSize <= 0 {
		initialSize = 64
	}
	b := &Builder{
		buf:      make([]byte, initialSize),
		minalign: 1,
	}
	b.head = UOffset(initialSize)
	return b
}

// Reset discards all written data, retaining the allocated buffer.
func (b *Builder) Reset() {
	b.head = UOffset(len(b.buf))
	b.minalign = 1
	b.vtable = b.vtable[:0]
	b.objectEnd = 0
	b.vtables = b.vtables[:0]
	b.nested = false
	b.finished = false
}

// Offset returns the offset of the most recently written value, measured
// from the end of the written region.
func (b *Builder) Offset() UOffset {
	return UOffset(len(b.buf)) - b.head
}

// FinishedBytes returns the encoded buffer. It panics if Finish has not
// been called.
func (b *Builder) FinishedBytes() []byte {
	if !b.finished {
		panic("flatwire: FinishedBytes called before Finish")
	}
	return b.buf[b.head:]
}

func (b *Builder) grow() {
	oldSize := len(b.buf)
	if oldSize&0xC0000000 != 0 {
		panic("flatwire: cannot grow buffer beyond 2^31-1 bytes")
	}
	newSize := oldSize * 2
	if newSize == 0 {
		newSize = 64
	}
	newBuf := make([]byte, newSize)
	copy(newBuf[newSize-oldSize:], b.buf)
	b.buf = newBuf
}

// Pad writes n zero bytes.
func (b *Builder) Pad(n int) {
	for i := 0; i < n; i++ {
		b.PlaceUint8(0)
	}
}

// Prep aligns the write head so that a value of the given size, written
// after the next additionalBytes bytes and so preceding them in the
// buffer, lands on an address divisible by its size. Padding bytes are
// zero.
func (b *Builder) Prep(size, additionalBytes int) {
	if size > b.minalign {
		b.minalign = size
	}
	alignSize := (^(len(b.buf) - int(b.head) + additionalBytes) + 1) & (size - 1)
	for int(b.head) <= alignSize+size+additionalBytes {
		oldSize := len(b.buf)
		b.grow()
		b.head += UOffset(len(b.buf) - oldSize)
	}
	b.Pad(alignSize)
}

// Place writes {{{

func (b *Builder) PlaceUint8(v uint8) {
	b.head -= 1
	b.buf[b.head] = v
}

func (b *Builder) PlaceUint16(v uint16) {
	b.head -= 2
	binary.LittleEndian.PutUint16(b.buf[b.head:], v)
}

func (b *Builder) PlaceUint32(v uint32) {
	b.head -= 4
	binary.LittleEndian.PutUint32(b.buf[b.head:], v)
}

func (b *Builder) PlaceUint64(v uint64) {
	b.head -= 8
	binary.LittleEndian.PutUint64(b.buf[b.head:], v)
}

func (b *Builder) PlaceVOffset(v VOffset) {
	b.head -= SizeVOffset
	binary.LittleEndian.PutUint16(b.buf[b.head:], uint16(v))
}

func (b *Builder) PlaceSOffset(v SOffset) {
	b.head -= SizeSOffset
	binary.LittleEndian.PutUint32(b.buf[b.head:], uint32(v))
}

// }}}

// Prepend writes {{{

func (b *Builder) PrependBool(v bool) {
	b.PrependUint8(boolByte(v))
}

func (b *Builder) PrependUint8(v uint8) {
	b.Prep(1, 0)
	b.PlaceUint8(v)
}

func (b *Builder) PrependUint16(v uint16) {
	b.Prep(2, 0)
	b.PlaceUint16(v)
}

func (b *Builder) PrependUint32(v uint32) {
	b.Prep(4, 0)
	b.PlaceUint32(v)
}

func (b *Builder) PrependUint64(v uint64) {
	b.Prep(8, 0)
	b.PlaceUint64(v)
}

func (b *Builder) PrependInt8(v int8) {
	b.PrependUint8(uint8(v))
}

func (b *Builder) PrependInt16(v int16) {
	b.PrependUint16(uint16(v))
}

func (b *Builder) PrependInt32(v int32) {
	b.PrependUint32(uint32(v))
}

func (b *Builder) PrependInt64(v int64) {
	b.PrependUint64(uint64(v))
}

func (b *Builder) PrependFloat32(v float32) {
	b.PrependUint32(math.Float32bits(v))
}

func (b *Builder) PrependFloat64(v float64) {
	b.PrependUint64(math.Float64bits(v))
}

// PrependUOffset writes a forward reference to a value written earlier.
func (b *Builder) PrependUOffset(off UOffset) {
	b.Prep(SizeUOffset, 0)
	if off > b.Offset() {
		panic("flatwire: offset points past the written region")
	}
	b.PlaceUint32(uint32(b.Offset() - off + SizeUOffset))
}

// }}}

// CreateString writes a length-prefixed, NUL-terminated string and
// returns its offset. The terminator is not included in the recorded
// length.
func (b *Builder) CreateString(s string) UOffset {
	b.assertNotNested()
	b.Prep(SizeUOffset, len(s)+1)
	b.PlaceUint8(0)
	b.head -= UOffset(len(s))
	copy(b.buf[b.head:], s)
	b.PlaceUint32(uint32(len(s)))
	return b.Offset()
}

// CreateByteVector writes a [ubyte] vector in one call and returns its
// offset.
func (b *Builder) CreateByteVector(v []byte) UOffset {
	b.assertNotNested()
	b.Prep(SizeUOffset, len(v))
	b.head -= UOffset(len(v))
	copy(b.buf[b.head:], v)
	b.PlaceUint32(uint32(len(v)))
	return b.Offset()
}

// Vectors {{{

// StartVector begins a vector of numElems elements of elemSize bytes,
// each aligned to alignment. Elements are then written with Prepend
// calls, last element first, followed by EndVector.
func (b *Builder) StartVector(elemSize, numElems, alignment int) {
	b.assertNotNested()
	b.nested = true
	b.Prep(SizeUOffset, elemSize*numElems)
	b.Prep(alignment, elemSize*numElems)
}

// EndVector writes the length prefix and returns the vector's offset.
func (b *Builder) EndVector(numElems int) UOffset {
	b.assertNested()
	b.PlaceUint32(uint32(numElems))
	b.nested = false
	return b.Offset()
}

// }}}

// Tables {{{

// StartTable begins a table with the given number of field slots. A
// union-typed field consumes two slots (type tag, then value).
func (b *Builder) StartTable(numSlots int) {
	b.assertNotNested()
	b.nested = true
	if cap(b.vtable) >= numSlots {
		b.vtable = b.vtable[:numSlots]
		for i := range b.vtable {
			b.vtable[i] = 0
		}
	} else {
		b.vtable = make([]UOffset, numSlots)
	}
	b.objectEnd = b.Offset()
}

func (b *Builder) slot(slot uint16) {
	b.vtable[slot] = b.Offset()
}

// Scalar slot setters elide the write when the value equals the field's
// schema default, leaving the slot absent.

func (b *Builder) BoolSlot(slot uint16, v, def bool) {
	if v != def {
		b.PrependBool(v)
		b.slot(slot)
	}
}

func (b *Builder) Uint8Slot(slot uint16, v, def uint8) {
	if v != def {
		b.PrependUint8(v)
		b.slot(slot)
	}
}

func (b *Builder) Uint16Slot(slot uint16, v, def uint16) {
	if v != def {
		b.PrependUint16(v)
		b.slot(slot)
	}
}

func (b *Builder) Uint32Slot(slot uint16, v, def uint32) {
	if v != def {
		b.PrependUint32(v)
		b.slot(slot)
	}
}

func (b *Builder) Uint64Slot(slot uint16, v, def uint64) {
	if v != def {
		b.PrependUint64(v)
		b.slot(slot)
	}
}

func (b *Builder) Int8Slot(slot uint16, v, def int8) {
	b.Uint8Slot(slot, uint8(v), uint8(def))
}

func (b *Builder) Int16Slot(slot uint16, v, def int16) {
	b.Uint16Slot(slot, uint16(v), uint16(def))
}

func (b *Builder) Int32Slot(slot uint16, v, def int32) {
	b.Uint32Slot(slot, uint32(v), uint32(def))
}

func (b *Builder) Int64Slot(slot uint16, v, def int64) {
	b.Uint64Slot(slot, uint64(v), uint64(def))
}

func (b *Builder) Float32Slot(slot uint16, v, def float32) {
	if v != def {
		b.PrependFloat32(v)
		b.slot(slot)
	}
}

func (b *Builder) Float64Slot(slot uint16, v, def float64) {
	if v != def {
		b.PrependFloat64(v)
		b.slot(slot)
	}
}

// UOffsetSlot records a reference field (string, vector, table, or union
// value). A zero offset leaves the slot absent.
func (b *Builder) UOffsetSlot(slot uint16, off UOffset) {
	if off != 0 {
		b.PrependUOffset(off)
		b.slot(slot)
	}
}

// StructSlot records an inline struct field. Structs must be written
// immediately before the slot is recorded, so off must be the current
// offset.
func (b *Builder) StructSlot(slot uint16, off UOffset) {
	if off == 0 {
		return
	}
	if off != b.Offset() {
		panic("flatwire: struct must be written inline in its table")
	}
	b.slot(slot)
}

// UnionSlot records a union field: the type tag at slot-1 and the value
// at slot. A zero tag with a nonzero value, or the reverse, panics.
func (b *Builder) UnionSlot(slot uint16, tag uint8, value UOffset) {
	if slot == 0 {
		panic("flatwire: union value slot 0 has no room for its type tag")
	}
	if (tag == 0) != (value == 0) {
		panic("flatwire: union type tag and value must be set together")
	}
	b.Uint8Slot(slot-1, tag, 0)
	b.UOffsetSlot(slot, value)
}

// EndTable writes the table body's vtable offset and its vtable,
// reusing an earlier vtable whose field entries match. The table-size
// entry is not compared, so a reused vtable keeps the table size of the
// table it was first written for. It returns the table's offset.
func (b *Builder) EndTable() UOffset {
	b.assertNested()

	b.Prep(SizeSOffset, 0)
	b.PlaceSOffset(0)
	objectOffset := b.Offset()

	trimmed := b.vtable
	for len(trimmed) > 0 && trimmed[len(trimmed)-1] == 0 {
		trimmed = trimmed[:len(trimmed)-1]
	}

	existing := UOffset(0)
	for i := len(b.vtables) - 1; i >= 0; i-- {
		vtStart := len(b.buf) - int(b.vtables[i])
		vtSize := binary.LittleEndian.Uint16(b.buf[vtStart:])
		slots := b.buf[vtStart+2*SizeVOffset : vtStart+int(vtSize)]
		if vtableEqual(trimmed, objectOffset, slots) {
			existing = b.vtables[i]
			break
		}
	}

	if existing == 0 {
		// Reserve room for the vtable; growing the buffer moves the
		// written data, so the table's position is taken afterwards.
		b.Prep(SizeVOffset, (len(trimmed)+1)*SizeVOffset)
	}
	objectStart := UOffset(len(b.buf)) - objectOffset
	if existing == 0 {
		for i := len(trimmed) - 1; i >= 0; i-- {
			var off VOffset
			if trimmed[i] != 0 {
				off = VOffset(objectOffset - trimmed[i])
			}
			b.PlaceVOffset(off)
		}
		b.PlaceVOffset(VOffset(objectOffset - b.objectEnd))
		b.PlaceVOffset(VOffset((len(trimmed) + 2) * SizeVOffset))
		binary.LittleEndian.PutUint32(
			b.buf[objectStart:],
			uint32(SOffset(b.Offset())-SOffset(objectOffset)),
		)
		b.vtables = append(b.vtables, b.Offset())
	} else {
		b.head = objectStart
		binary.LittleEndian.PutUint32(
			b.buf[b.head:],
			uint32(SOffset(existing)-SOffset(objectOffset)),
		)
	}

	b.vtable = b.vtable[:0]
	b.nested = false
	return objectOffset
}

func vtableEqual(slots []UOffset, objectOffset UOffset, written []byte) bool {
	if len(slots)*SizeVOffset != len(written) {
		return false
	}
	for i, off := range slots {
		w := VOffset(binary.LittleEndian.Uint16(written[i*SizeVOffset:]))
		if w == 0 && off == 0 {
			continue
		}
		if VOffset(objectOffset-off) != w {
			return false
		}
	}
	return true
}

// Required reports whether the given slot of an already-written table is
// present, failing with MissingRequired if not. Call it after EndTable
// for every schema-required reference field.
func (b *Builder) Required(table UOffset, slot uint16, fieldPath string) error {
	tablePos := UOffset(len(b.buf)) - table
	soffset := SOffset(binary.LittleEndian.Uint32(b.buf[tablePos:]))
	vtPos := int64(tablePos) - int64(soffset)
	vtSize := binary.LittleEndian.Uint16(b.buf[vtPos:])
	slotOff := fieldSlot(slot)
	if uint16(slotOff) >= vtSize {
		return &MissingRequiredError{FieldPath: fieldPath}
	}
	if binary.LittleEndian.Uint16(b.buf[vtPos+int64(slotOff):]) == 0 {
		return &MissingRequiredError{FieldPath: fieldPath}
	}
	return nil
}

// }}}

// Finish writes the root table offset as the buffer's first 4 bytes.
func (b *Builder) Finish(root UOffset) {
	b.assertNotNested()
	b.Prep(b.minalign, SizeUOffset)
	b.PrependUOffset(root)
	b.finished = true
}

// FinishWithIdentifier writes the root offset followed by a 4-byte file
// identifier.
func (b *Builder) FinishWithIdentifier(root UOffset, ident string) {
	if len(ident) != FileIdentifierLen {
		panic("flatwire: file identifier must be exactly 4 bytes")
	}
	b.assertNotNested()
	b.Prep(b.minalign, SizeUOffset+FileIdentifierLen)
	for i := FileIdentifierLen - 1; i >= 0; i-- {
		b.PlaceUint8(ident[i])
	}
	b.PrependUOffset(root)
	b.finished = true
}

func (b *Builder) assertNested() {
	if !b.nested {
		panic("flatwire: end of table or vector without matching start")
	}
}

func (b *Builder) assertNotNested() {
	if b.nested {
		panic("flatwire: value written while a table or vector is open")
	}
}
