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
	"unicode/utf8"
)

// Decode returns a handle to the root table of an encoded buffer.
//
// The returned Table borrows buf and must not outlive it. Decode reads
// only the root offset; field data is not touched until it is accessed.
func Decode(buf []byte) (Table, error) {
	if uint64(len(buf)) > MaxBufferSize {
		return Table{}, errMalformed("buffer exceeds %d bytes", MaxBufferSize)
	}
	if len(buf) < SizeUOffset {
		return Table{}, errMalformed("buffer too short for root offset")
	}
	root := UOffset(binary.LittleEndian.Uint32(buf[0:SizeUOffset]))
	if uint64(root)+SizeSOffset > uint64(len(buf)) {
		return Table{}, errMalformed("root offset %d outside buffer", root)
	}
	return Table{buf: buf, pos: root}, nil
}

// CheckFileIdentifier reports whether the 4 bytes following the root
// offset equal the given identifier. Decoding does not require the check
// to pass.
func CheckFileIdentifier(buf []byte, ident string) bool {
	if len(ident) != FileIdentifierLen {
		return false
	}
	if len(buf) < SizeUOffset+FileIdentifierLen {
		return false
	}
	return string(buf[SizeUOffset:SizeUOffset+FileIdentifierLen]) == ident
}

func readUint8(buf []byte, pos UOffset) (uint8, error) {
	if uint64(pos)+1 > uint64(len(buf)) {
		return 0, errMalformed("read of 1 byte at %d past end of buffer", pos)
	}
	return buf[pos], nil
}

func readUint16(buf []byte, pos UOffset) (uint16, error) {
	if uint64(pos)+2 > uint64(len(buf)) {
		return 0, errMalformed("read of 2 bytes at %d past end of buffer", pos)
	}
	return binary.LittleEndian.Uint16(buf[pos:]), nil
}

func readUint32(buf []byte, pos UOffset) (uint32, error) {
	if uint64(pos)+4 > uint64(len(buf)) {
		return 0, errMalformed("read of 4 bytes at %d past end of buffer", pos)
	}
	return binary.LittleEndian.Uint32(buf[pos:]), nil
}

func readUint64(buf []byte, pos UOffset) (uint64, error) {
	if uint64(pos)+8 > uint64(len(buf)) {
		return 0, errMalformed("read of 8 bytes at %d past end of buffer", pos)
	}
	return binary.LittleEndian.Uint64(buf[pos:]), nil
}

// readUOffset reads a forward offset at pos and returns the position it
// points at.
func readUOffset(buf []byte, pos UOffset) (UOffset, error) {
	off, err := readUint32(buf, pos)
	if err != nil {
		return 0, err
	}
	target := uint64(pos) + uint64(off)
	if target > uint64(len(buf)) {
		return 0, errMalformed("offset at %d points past end of buffer", pos)
	}
	return UOffset(target), nil
}

// readString reads the string whose uoffset is stored at pos.
func readString(buf []byte, pos UOffset) ([]byte, error) {
	strPos, err := readUOffset(buf, pos)
	if err != nil {
		return nil, err
	}
	strLen, err := readUint32(buf, strPos)
	if err != nil {
		return nil, err
	}
	start := uint64(strPos) + SizeUOffset
	end := start + uint64(strLen)
	if end > uint64(len(buf)) {
		return nil, errMalformed("string of length %d at %d past end of buffer", strLen, strPos)
	}
	return buf[start:end], nil
}

func checkUtf8(raw []byte) error {
	for off := 0; off < len(raw); {
		r, size := utf8.DecodeRune(raw[off:])
		if r == utf8.RuneError && size <= 1 {
			return &Utf8Error{
				Reason: "invalid byte sequence",
				Byte:   raw[off],
			}
		}
		off += size
	}
	return nil
}

// Table {{{

// A Table is a handle to an encoded table. Its position is rooted: the
// offset from the buffer start is retained so vtable lookup can rebase
// the table's signed vtable offset.
type Table struct {
	buf []byte
	pos UOffset
}

// IsNil reports whether the handle is the zero Table.
func (t Table) IsNil() bool {
	return t.buf == nil
}

// vtable returns the position of the table's vtable and the vtable's
// recorded byte size.
func (t Table) vtable() (UOffset, uint16, error) {
	soffset, err := readUint32(t.buf, t.pos)
	if err != nil {
		return 0, 0, err
	}
	vtPos := int64(t.pos) - int64(SOffset(soffset))
	if vtPos < 0 || uint64(vtPos)+2*SizeVOffset > uint64(len(t.buf)) {
		return 0, 0, errMalformed("vtable offset at %d points outside buffer", t.pos)
	}
	vtSize, err := readUint16(t.buf, UOffset(vtPos))
	if err != nil {
		return 0, 0, err
	}
	if vtSize < 2*SizeVOffset {
		return 0, 0, errMalformed("vtable at %d shorter than its header", vtPos)
	}
	if uint64(vtPos)+uint64(vtSize) > uint64(len(t.buf)) {
		return 0, 0, errMalformed("vtable at %d extends past end of buffer", vtPos)
	}
	return UOffset(vtPos), vtSize, nil
}

// Offset returns the byte offset of a field slot from the table position,
// or 0 if the slot is absent.
func (t Table) Offset(slot uint16) (VOffset, error) {
	vtPos, vtSize, err := t.vtable()
	if err != nil {
		return 0, err
	}
	slotOff := fieldSlot(slot)
	if uint16(slotOff) >= vtSize {
		return 0, nil
	}
	off, err := readUint16(t.buf, vtPos+UOffset(slotOff))
	if err != nil {
		return 0, err
	}
	return VOffset(off), nil
}

// Bool returns the bool field at slot, or def if the slot is absent.
func (t Table) Bool(slot uint16, def bool) (bool, error) {
	v, err := t.Uint8(slot, boolByte(def))
	return v != 0, err
}

func boolByte(v bool) uint8 {
	if v {
		return 1
	}
	return 0
}

// Uint8 returns the uint8 field at slot, or def if the slot is absent.
func (t Table) Uint8(slot uint16, def uint8) (uint8, error) {
	off, err := t.Offset(slot)
	if err != nil || off == 0 {
		return def, err
	}
	return readUint8(t.buf, t.pos+UOffset(off))
}

// Uint16 returns the uint16 field at slot, or def if the slot is absent.
func (t Table) Uint16(slot uint16, def uint16) (uint16, error) {
	off, err := t.Offset(slot)
	if err != nil || off == 0 {
		return def, err
	}
	return readUint16(t.buf, t.pos+UOffset(off))
}

// Uint32 returns the uint32 field at slot, or def if the slot is absent.
func (t Table) Uint32(slot uint16, def uint32) (uint32, error) {
	off, err := t.Offset(slot)
	if err != nil || off == 0 {
		return def, err
	}
	return readUint32(t.buf, t.pos+UOffset(off))
}

// Uint64 returns the uint64 field at slot, or def if the slot is absent.
func (t Table) Uint64(slot uint16, def uint64) (uint64, error) {
	off, err := t.Offset(slot)
	if err != nil || off == 0 {
		return def, err
	}
	return readUint64(t.buf, t.pos+UOffset(off))
}

// Int8 returns the int8 field at slot, or def if the slot is absent.
func (t Table) Int8(slot uint16, def int8) (int8, error) {
	v, err := t.Uint8(slot, uint8(def))
	return int8(v), err
}

// Int16 returns the int16 field at slot, or def if the slot is absent.
func (t Table) Int16(slot uint16, def int16) (int16, error) {
	v, err := t.Uint16(slot, uint16(def))
	return int16(v), err
}

// Int32 returns the int32 field at slot, or def if the slot is absent.
func (t Table) Int32(slot uint16, def int32) (int32, error) {
	v, err := t.Uint32(slot, uint32(def))
	return int32(v), err
}

// Int64 returns the int64 field at slot, or def if the slot is absent.
func (t Table) Int64(slot uint16, def int64) (int64, error) {
	v, err := t.Uint64(slot, uint64(def))
	return int64(v), err
}

// Float32 returns the float field at slot, or def if the slot is absent.
func (t Table) Float32(slot uint16, def float32) (float32, error) {
	v, err := t.Uint32(slot, math.Float32bits(def))
	return math.Float32frombits(v), err
}

// Float64 returns the double field at slot, or def if the slot is absent.
func (t Table) Float64(slot uint16, def float64) (float64, error) {
	v, err := t.Uint64(slot, math.Float64bits(def))
	return math.Float64frombits(v), err
}

// StringBytes returns the raw bytes of the string field at slot without
// copying or UTF-8 validation. The second return is false if the slot is
// absent.
func (t Table) StringBytes(slot uint16) ([]byte, bool, error) {
	off, err := t.Offset(slot)
	if err != nil || off == 0 {
		return nil, false, err
	}
	raw, err := readString(t.buf, t.pos+UOffset(off))
	if err != nil {
		return nil, false, err
	}
	return raw, true, nil
}

// String returns the string field at slot as an owned string, validating
// UTF-8. The second return is false if the slot is absent.
func (t Table) String(slot uint16) (string, bool, error) {
	raw, ok, err := t.StringBytes(slot)
	if err != nil || !ok {
		return "", ok, err
	}
	if err := checkUtf8(raw); err != nil {
		return "", false, err
	}
	return string(raw), true, nil
}

// Struct returns a handle to the inline struct field at slot. The second
// return is false if the slot is absent.
func (t Table) Struct(slot uint16) (Struct, bool, error) {
	off, err := t.Offset(slot)
	if err != nil || off == 0 {
		return Struct{}, false, err
	}
	return Struct{buf: t.buf, pos: t.pos + UOffset(off)}, true, nil
}

// Table returns a handle to the table field at slot. The second return is
// false if the slot is absent.
func (t Table) Table(slot uint16) (Table, bool, error) {
	off, err := t.Offset(slot)
	if err != nil || off == 0 {
		return Table{}, false, err
	}
	pos, err := readUOffset(t.buf, t.pos+UOffset(off))
	if err != nil {
		return Table{}, false, err
	}
	return Table{buf: t.buf, pos: pos}, true, nil
}

// Union returns the union field whose value lives at slot. The paired
// type tag lives at slot-1. A zero tag decodes as the NONE union; a
// nonzero tag with an absent value slot is a malformed buffer. The second
// return is false if both slots are absent.
func (t Table) Union(slot uint16) (Union, bool, error) {
	if slot == 0 {
		panic("flatwire: union value slot 0 has no room for its type tag")
	}
	tag, err := t.Uint8(slot-1, 0)
	if err != nil {
		return Union{}, false, err
	}
	value, ok, err := t.Table(slot)
	if err != nil {
		return Union{}, false, err
	}
	if tag == 0 {
		return Union{}, ok, nil
	}
	if !ok {
		return Union{}, false, errMalformed("union type tag %d has no value", tag)
	}
	return Union{Tag: tag, Value: value}, true, nil
}

// }}}

// Union {{{

// A Union is a decoded union field: a type tag and the table it selects.
// The zero Union is NONE.
//
// A tag greater than the highest tag in the reader's schema is not an
// error; the value is carried so that readers can skip variants added by
// newer schemas.
type Union struct {
	Tag   uint8
	Value Table
}

// None reports whether the union holds no value.
func (u Union) None() bool {
	return u.Tag == 0
}

// Known reports whether the tag is one the reader's schema defines,
// given the schema's highest declared tag.
func (u Union) Known(maxTag uint8) bool {
	return u.Tag <= maxTag
}

// }}}

// Struct {{{

// A Struct is a handle to fixed-layout inline data. Field access is by
// byte offset relative to the struct position; offsets and sizes come
// from the validated schema.
type Struct struct {
	buf []byte
	pos UOffset
}

// IsNil reports whether the handle is the zero Struct.
func (s Struct) IsNil() bool {
	return s.buf == nil
}

// Bool returns the bool at off.
func (s Struct) Bool(off VOffset) (bool, error) {
	v, err := readUint8(s.buf, s.pos+UOffset(off))
	return v != 0, err
}

// Uint8 returns the uint8 at off.
func (s Struct) Uint8(off VOffset) (uint8, error) {
	return readUint8(s.buf, s.pos+UOffset(off))
}

// Uint16 returns the uint16 at off.
func (s Struct) Uint16(off VOffset) (uint16, error) {
	return readUint16(s.buf, s.pos+UOffset(off))
}

// Uint32 returns the uint32 at off.
func (s Struct) Uint32(off VOffset) (uint32, error) {
	return readUint32(s.buf, s.pos+UOffset(off))
}

// Uint64 returns the uint64 at off.
func (s Struct) Uint64(off VOffset) (uint64, error) {
	return readUint64(s.buf, s.pos+UOffset(off))
}

// Int8 returns the int8 at off.
func (s Struct) Int8(off VOffset) (int8, error) {
	v, err := s.Uint8(off)
	return int8(v), err
}

// Int16 returns the int16 at off.
func (s Struct) Int16(off VOffset) (int16, error) {
	v, err := s.Uint16(off)
	return int16(v), err
}

// Int32 returns the int32 at off.
func (s Struct) Int32(off VOffset) (int32, error) {
	v, err := s.Uint32(off)
	return int32(v), err
}

// Int64 returns the int64 at off.
func (s Struct) Int64(off VOffset) (int64, error) {
	v, err := s.Uint64(off)
	return int64(v), err
}

// Float32 returns the float at off.
func (s Struct) Float32(off VOffset) (float32, error) {
	v, err := s.Uint32(off)
	return math.Float32frombits(v), err
}

// Float64 returns the double at off.
func (s Struct) Float64(off VOffset) (float64, error) {
	v, err := s.Uint64(off)
	return math.Float64frombits(v), err
}

// Struct returns a handle to the nested struct at off.
func (s Struct) Struct(off VOffset) Struct {
	return Struct{buf: s.buf, pos: s.pos + UOffset(off)}
}

// }}}
