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

package compiler

import (
	"math"
	"strings"
)

// Namespace is an ordered sequence of identifier segments. The empty
// sequence is the root namespace.
type Namespace []string

func (ns Namespace) String() string {
	return strings.Join(ns, ".")
}

// Qualify joins the namespace and an identifier with a dot.
func (ns Namespace) Qualify(name string) string {
	if len(ns) == 0 {
		return name
	}
	return ns.String() + "." + name
}

// Equal reports whether two namespaces have the same segments.
func (ns Namespace) Equal(other Namespace) bool {
	if len(ns) != len(other) {
		return false
	}
	for i, seg := range ns {
		if other[i] != seg {
			return false
		}
	}
	return true
}

// BaseType is a scalar primitive.
type BaseType uint8

const (
	TypeBool BaseType = iota + 1
	TypeInt8
	TypeUint8
	TypeInt16
	TypeUint16
	TypeInt32
	TypeUint32
	TypeInt64
	TypeUint64
	TypeFloat32
	TypeFloat64
)

var builtinTypes = map[string]BaseType{
	"bool":   TypeBool,
	"int8":   TypeInt8,
	"uint8":  TypeUint8,
	"int16":  TypeInt16,
	"uint16": TypeUint16,
	"int32":  TypeInt32,
	"uint32": TypeUint32,
	"int64":  TypeInt64,
	"uint64": TypeUint64,
	"float":  TypeFloat32,
	"double": TypeFloat64,
}

func (t BaseType) String() string {
	switch t {
	case TypeBool:
		return "bool"
	case TypeInt8:
		return "int8"
	case TypeUint8:
		return "uint8"
	case TypeInt16:
		return "int16"
	case TypeUint16:
		return "uint16"
	case TypeInt32:
		return "int32"
	case TypeUint32:
		return "uint32"
	case TypeInt64:
		return "int64"
	case TypeUint64:
		return "uint64"
	case TypeFloat32:
		return "float"
	case TypeFloat64:
		return "double"
	}
	return "<invalid>"
}

// Size returns the wire width in bytes.
func (t BaseType) Size() uint16 {
	switch t {
	case TypeBool, TypeInt8, TypeUint8:
		return 1
	case TypeInt16, TypeUint16:
		return 2
	case TypeInt32, TypeUint32, TypeFloat32:
		return 4
	case TypeInt64, TypeUint64, TypeFloat64:
		return 8
	}
	return 0
}

// Alignment returns the natural alignment, equal to the wire width.
func (t BaseType) Alignment() uint16 {
	return t.Size()
}

// IsInteger reports whether the type is one of the eight integer
// primitives.
func (t BaseType) IsInteger() bool {
	switch t {
	case TypeInt8, TypeUint8, TypeInt16, TypeUint16,
		TypeInt32, TypeUint32, TypeInt64, TypeUint64:
		return true
	}
	return false
}

// Signed reports whether the type is a signed integer.
func (t BaseType) Signed() bool {
	switch t {
	case TypeInt8, TypeInt16, TypeInt32, TypeInt64:
		return true
	}
	return false
}

// FitsSigned reports whether v is representable in the type.
func (t BaseType) FitsSigned(v int64) bool {
	switch t {
	case TypeInt8:
		return v >= math.MinInt8 && v <= math.MaxInt8
	case TypeInt16:
		return v >= math.MinInt16 && v <= math.MaxInt16
	case TypeInt32:
		return v >= math.MinInt32 && v <= math.MaxInt32
	case TypeInt64:
		return true
	}
	return false
}

// FitsUnsigned reports whether v is representable in the type.
func (t BaseType) FitsUnsigned(v uint64) bool {
	switch t {
	case TypeUint8:
		return v <= math.MaxUint8
	case TypeUint16:
		return v <= math.MaxUint16
	case TypeUint32:
		return v <= math.MaxUint32
	case TypeUint64:
		return true
	}
	return false
}

// TypeKind discriminates the closed set of field types.
type TypeKind uint8

const (
	KindScalar TypeKind = iota + 1
	KindEnum
	KindStruct
	KindTable
	KindUnion
	KindString
	KindVector
)

// Type is a validated field type. Kind selects which member is set;
// Scalar doubles as the underlying type of a KindEnum.
type Type struct {
	Kind    TypeKind
	Scalar  BaseType
	Enum    *Enum
	Struct  *Struct
	Table   *Table
	Union   *Union
	Element *Type
}

// InlineSize returns the number of bytes the type occupies inline:
// scalars and enums their width, structs their full size, reference
// types the width of a uoffset.
func (t Type) InlineSize() uint16 {
	switch t.Kind {
	case KindScalar, KindEnum:
		return t.Scalar.Size()
	case KindStruct:
		return t.Struct.Size
	}
	return 4
}

// Alignment returns the type's inline alignment.
func (t Type) Alignment() uint16 {
	switch t.Kind {
	case KindScalar, KindEnum:
		return t.Scalar.Alignment()
	case KindStruct:
		return t.Struct.Align
	}
	return 4
}

// IsScalarLike reports whether the type carries a scalar default:
// integers, floats, bool, and enums.
func (t Type) IsScalarLike() bool {
	return t.Kind == KindScalar || t.Kind == KindEnum
}

// IsUnionLike reports whether the type occupies two table slots: a
// union, or a vector of unions.
func (t Type) IsUnionLike() bool {
	if t.Kind == KindUnion {
		return true
	}
	return t.Kind == KindVector && t.Element.Kind == KindUnion
}

// Enum is a validated enum: an integer underlying type and a strictly
// ascending, non-empty variant list.
type Enum struct {
	Name      string
	Namespace Namespace
	Base      BaseType
	Variants  []EnumVariant
}

// EnumVariant pairs a variant name with its value, stored as the bit
// pattern of the value in the underlying type's width (sign-extended
// for signed bases).
type EnumVariant struct {
	Name  string
	Value uint64
}

// Variant returns the variant with the given name.
func (e *Enum) Variant(name string) (EnumVariant, bool) {
	for _, v := range e.Variants {
		if v.Name == name {
			return v, true
		}
	}
	return EnumVariant{}, false
}

// VariantByValue returns the variant with the given value bits.
func (e *Enum) VariantByValue(value uint64) (EnumVariant, bool) {
	for _, v := range e.Variants {
		if v.Value == value {
			return v, true
		}
	}
	return EnumVariant{}, false
}

// Struct is a validated struct: fixed layout, naturally aligned fields,
// total size a multiple of the alignment.
type Struct struct {
	Name      string
	Namespace Namespace
	Align     uint16
	Size      uint16
	Fields    []StructField
}

// StructField is one struct field with its layout: byte offset from the
// struct start and trailing padding.
type StructField struct {
	Name    string
	Type    Type
	Offset  uint16
	Padding uint16
}

// Table is a validated table. Fields are ordered by ascending value
// slot id; a union-typed field's type tag occupies the preceding slot.
type Table struct {
	Name      string
	Namespace Namespace
	Fields    []TableField
	SlotCount uint16
}

// Field returns the field with the given name.
func (t *Table) Field(name string) (TableField, bool) {
	for _, f := range t.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return TableField{}, false
}

// TableField is one table field. Slot is the field's value slot id.
type TableField struct {
	Name       string
	Slot       uint16
	Type       Type
	Deprecated bool
	Required   bool
	Default    Default
}

// Default is a scalar field's default value: integer, bool, and enum
// defaults as value bits, float defaults as a float64.
type Default struct {
	Bits  uint64
	Float float64
}

// Union is a validated union. Tag 0 is the implicit NONE; declared
// variants take tags 1..len(Variants) in declaration order.
type Union struct {
	Name      string
	Namespace Namespace
	Variants  []UnionVariant
}

// UnionVariant pairs a variant name with its payload table.
type UnionVariant struct {
	Name  string
	Table *Table
}

// MaxTag returns the highest declared tag.
func (u *Union) MaxTag() uint8 {
	return uint8(len(u.Variants))
}

// Schema is the validator's output: every declaration of the file tree,
// fully typed and layout-resolved.
type Schema struct {
	Enums   []*Enum
	Structs []*Struct
	Tables  []*Table
	Unions  []*Union

	Root           *Table
	FileIdentifier string
	FileExtension  string
	Attributes     []string
}
