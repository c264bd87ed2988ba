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
	"math"
)

// Vector {{{

// A Vector is a handle to an encoded vector: a u32 length followed by
// that many contiguous elements. Element width depends on the schema
// type; the accessor methods select it.
//
// Indexing is zero-based. A negative or out-of-range index is a
// programming error and panics; truncated element data is a data error
// and is returned as MalformedBuffer.
type Vector struct {
	buf []byte
	pos UOffset
	len uint32
}

// Vector returns a handle to the vector field at slot. The second return
// is false if the slot is absent.
func (t Table) Vector(slot uint16) (Vector, bool, error) {
	off, err := t.Offset(slot)
	if err != nil || off == 0 {
		return Vector{}, false, err
	}
	return vectorAt(t.buf, t.pos+UOffset(off))
}

// UnionVector returns the paired type and value vectors of the
// vector-of-unions field whose value slot is slot. The type vector lives
// at slot-1; the two must have equal length. The second return is false
// if the field is absent.
func (t Table) UnionVector(slot uint16) (UnionVector, bool, error) {
	if slot == 0 {
		panic("flatwire: union vector value slot 0 has no room for its type vector")
	}
	types, typesOk, err := t.Vector(slot - 1)
	if err != nil {
		return UnionVector{}, false, err
	}
	values, valuesOk, err := t.Vector(slot)
	if err != nil {
		return UnionVector{}, false, err
	}
	if typesOk != valuesOk {
		return UnionVector{}, false, errMalformed("union vector at slot %d present without its pair", slot)
	}
	if !typesOk {
		return UnionVector{}, false, nil
	}
	if types.Len() != values.Len() {
		return UnionVector{}, false, errMalformed(
			"union vector length mismatch: %d type tags, %d values",
			types.Len(), values.Len(),
		)
	}
	return UnionVector{types: types, values: values}, true, nil
}

func vectorAt(buf []byte, pos UOffset) (Vector, bool, error) {
	vecPos, err := readUOffset(buf, pos)
	if err != nil {
		return Vector{}, false, err
	}
	vecLen, err := readUint32(buf, vecPos)
	if err != nil {
		return Vector{}, false, err
	}
	return Vector{buf: buf, pos: vecPos + SizeUOffset, len: vecLen}, true, nil
}

// Len returns the number of elements.
func (v Vector) Len() int {
	return int(v.len)
}

func (v Vector) elem(i int, size uint16) UOffset {
	if i < 0 || uint32(i) >= v.len {
		panic("flatwire: vector index out of range")
	}
	return v.pos + UOffset(i)*UOffset(size)
}

// BoolAt returns element i of a bool vector.
func (v Vector) BoolAt(i int) (bool, error) {
	b, err := readUint8(v.buf, v.elem(i, 1))
	return b != 0, err
}

// Uint8At returns element i of a uint8 vector.
func (v Vector) Uint8At(i int) (uint8, error) {
	return readUint8(v.buf, v.elem(i, 1))
}

// Uint16At returns element i of a uint16 vector.
func (v Vector) Uint16At(i int) (uint16, error) {
	return readUint16(v.buf, v.elem(i, 2))
}

// Uint32At returns element i of a uint32 vector.
func (v Vector) Uint32At(i int) (uint32, error) {
	return readUint32(v.buf, v.elem(i, 4))
}

// Uint64At returns element i of a uint64 vector.
func (v Vector) Uint64At(i int) (uint64, error) {
	return readUint64(v.buf, v.elem(i, 8))
}

// Int8At returns element i of an int8 vector.
func (v Vector) Int8At(i int) (int8, error) {
	b, err := v.Uint8At(i)
	return int8(b), err
}

// Int16At returns element i of an int16 vector.
func (v Vector) Int16At(i int) (int16, error) {
	b, err := v.Uint16At(i)
	return int16(b), err
}

// Int32At returns element i of an int32 vector.
func (v Vector) Int32At(i int) (int32, error) {
	b, err := v.Uint32At(i)
	return int32(b), err
}

// Int64At returns element i of an int64 vector.
func (v Vector) Int64At(i int) (int64, error) {
	b, err := v.Uint64At(i)
	return int64(b), err
}

// Float32At returns element i of a float vector.
func (v Vector) Float32At(i int) (float32, error) {
	b, err := v.Uint32At(i)
	return math.Float32frombits(b), err
}

// Float64At returns element i of a double vector.
func (v Vector) Float64At(i int) (float64, error) {
	b, err := v.Uint64At(i)
	return math.Float64frombits(b), err
}

// StringAt returns element i of a string vector, validating UTF-8.
func (v Vector) StringAt(i int) (string, error) {
	raw, err := v.StringBytesAt(i)
	if err != nil {
		return "", err
	}
	if err := checkUtf8(raw); err != nil {
		return "", err
	}
	return string(raw), nil
}

// StringBytesAt returns the raw bytes of element i of a string vector.
func (v Vector) StringBytesAt(i int) ([]byte, error) {
	return readString(v.buf, v.elem(i, SizeUOffset))
}

// TableAt returns a handle to element i of a table vector.
func (v Vector) TableAt(i int) (Table, error) {
	pos, err := readUOffset(v.buf, v.elem(i, SizeUOffset))
	if err != nil {
		return Table{}, err
	}
	return Table{buf: v.buf, pos: pos}, nil
}

// StructAt returns a handle to element i of a vector of inline structs
// of the given size.
func (v Vector) StructAt(i int, size uint16) Struct {
	return Struct{buf: v.buf, pos: v.elem(i, size)}
}

// }}}

// UnionVector {{{

// A UnionVector is the paired view over a vector-of-unions field: a u8
// type vector and a uoffset value vector of equal length, read together.
type UnionVector struct {
	types  Vector
	values Vector
}

// Len returns the number of elements.
func (uv UnionVector) Len() int {
	return uv.types.Len()
}

// At returns element i. A zero type tag yields the NONE union.
func (uv UnionVector) At(i int) (Union, error) {
	tag, err := uv.types.Uint8At(i)
	if err != nil {
		return Union{}, err
	}
	if tag == 0 {
		return Union{}, nil
	}
	value, err := uv.values.TableAt(i)
	if err != nil {
		return Union{}, err
	}
	return Union{Tag: tag, Value: value}, nil
}

// }}}
