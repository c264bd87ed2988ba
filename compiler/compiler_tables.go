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
	"sort"
	"strconv"

	"go.flatwire.org/flatwire/syntax"
)

func (c *compiler) validateTables() error {
	for _, sym := range c.tables {
		if err := c.validateTable(sym); err != nil {
			return err
		}
		sym.done = true
	}
	return nil
}

func (c *compiler) validateTable(sym *tableSymbol) error {
	node := sym.raw
	ctx := sym.ns.Qualify(sym.name)

	names := make([]string, len(node.Fields))
	for i, field := range node.Fields {
		names[i] = field.Name
	}
	if dupes := duplicateNames(names); len(dupes) > 0 {
		return errDuplicateIdents(ctx, dupes)
	}

	fields := make([]TableField, 0, len(node.Fields))
	for _, field := range node.Fields {
		fctx := path(ctx, field.Name)
		validated, err := c.validateTableField(fctx, sym.ns, field)
		if err != nil {
			return err
		}
		fields = append(fields, validated)
	}

	fields, slotCount, err := assignSlots(ctx, node.Fields, fields)
	if err != nil {
		return err
	}
	sym.out.Fields = fields
	sym.out.SlotCount = slotCount
	return nil
}

func (c *compiler) validateTableField(
	ctx string,
	ns Namespace,
	field *syntax.Field,
) (TableField, error) {
	fieldType, err := c.tableFieldType(ctx, ns, field.Type)
	if err != nil {
		return TableField{}, err
	}

	validated := TableField{
		Name: field.Name,
		Type: fieldType,
	}
	if _, ok := field.Metadata.Get("deprecated"); ok {
		validated.Deprecated = true
	}
	if _, ok := field.Metadata.Get("required"); ok {
		if fieldType.IsScalarLike() {
			return TableField{}, errRequiredOnScalar(ctx)
		}
		validated.Required = true
	}

	def, err := fieldDefault(ctx, fieldType, field.Default)
	if err != nil {
		return TableField{}, err
	}
	validated.Default = def
	return validated, nil
}

func (c *compiler) tableFieldType(
	ctx string,
	ns Namespace,
	ref *syntax.TypeRef,
) (Type, error) {
	if ref.IsVector() {
		elem, err := c.tableFieldType(ctx, ns, ref.Element)
		if err != nil {
			return Type{}, err
		}
		if elem.Kind == KindVector {
			return Type{}, errVectorElementType(ctx, ref.Element.String())
		}
		return Type{Kind: KindVector, Element: &elem}, nil
	}
	if len(ref.Name) == 1 {
		if ref.Name[0] == "string" {
			return Type{Kind: KindString}, nil
		}
		if base, ok := builtinTypes[ref.Name[0]]; ok {
			return Type{Kind: KindScalar, Scalar: base}, nil
		}
	}
	resolved, err := c.resolve(ctx, ns, ref.Name)
	if err != nil {
		return Type{}, err
	}
	switch {
	case resolved.enum != nil:
		return Type{
			Kind:   KindEnum,
			Scalar: resolved.enum.out.Base,
			Enum:   resolved.enum.out,
		}, nil
	case resolved.struct_ != nil:
		return Type{Kind: KindStruct, Struct: resolved.struct_.out}, nil
	case resolved.table != nil:
		return Type{Kind: KindTable, Table: resolved.table.out}, nil
	case resolved.union != nil:
		return Type{Kind: KindUnion, Union: resolved.union.out}, nil
	}
	return Type{}, errTableFieldType(ctx, ref.String())
}

// fieldDefault interprets a field's default value literal. Scalar
// fields without an explicit default take zero; enum fields take the
// variant with value 0, which must exist.
func fieldDefault(ctx string, fieldType Type, lit *syntax.Literal) (Default, error) {
	if !fieldType.IsScalarLike() {
		if lit != nil {
			return Default{}, errDefaultOnNonScalar(ctx)
		}
		return Default{}, nil
	}

	if fieldType.Kind == KindEnum {
		return enumDefault(ctx, fieldType.Enum, lit)
	}

	base := fieldType.Scalar
	if lit == nil {
		return Default{}, nil
	}
	switch {
	case base == TypeBool:
		if lit.Ref != nil && *lit.Ref == "true" {
			return Default{Bits: 1}, nil
		}
		if lit.Ref != nil && *lit.Ref == "false" {
			return Default{}, nil
		}
		return Default{}, errDefaultType(ctx, "a boolean")
	case base == TypeFloat32 || base == TypeFloat64:
		if lit.Float != nil {
			return Default{Float: *lit.Float}, nil
		}
		if lit.Int != nil {
			if v, ok := lit.Int.Int64(); ok {
				return Default{Float: float64(v)}, nil
			}
			if v, ok := lit.Int.Uint64(); ok {
				return Default{Float: float64(v)}, nil
			}
		}
		return Default{}, errDefaultType(ctx, "a number")
	case base.Signed():
		if lit.Int == nil {
			return Default{}, errDefaultType(ctx, "an integer")
		}
		v, ok := lit.Int.Int64()
		if !ok || !base.FitsSigned(v) {
			return Default{}, errOutOfRange(ctx, lit.Int.Text, base)
		}
		return Default{Bits: uint64(v)}, nil
	default:
		if lit.Int == nil {
			return Default{}, errDefaultType(ctx, "an integer")
		}
		v, ok := lit.Int.Uint64()
		if !ok || !base.FitsUnsigned(v) {
			return Default{}, errOutOfRange(ctx, lit.Int.Text, base)
		}
		return Default{Bits: v}, nil
	}
}

func enumDefault(ctx string, enum *Enum, lit *syntax.Literal) (Default, error) {
	if lit == nil {
		if _, ok := enum.VariantByValue(0); !ok {
			return Default{}, errNoZeroVariant(ctx)
		}
		return Default{}, nil
	}
	if lit.Ref != nil {
		variant, ok := enum.Variant(*lit.Ref)
		if !ok {
			return Default{}, errUnknownDefaultVariant(ctx, strconv.Quote(*lit.Ref))
		}
		return Default{Bits: variant.Value}, nil
	}
	if lit.Int != nil {
		var bits uint64
		if enum.Base.Signed() {
			v, ok := lit.Int.Int64()
			if !ok || !enum.Base.FitsSigned(v) {
				return Default{}, errOutOfRange(ctx, lit.Int.Text, enum.Base)
			}
			bits = uint64(v)
		} else {
			v, ok := lit.Int.Uint64()
			if !ok || !enum.Base.FitsUnsigned(v) {
				return Default{}, errOutOfRange(ctx, lit.Int.Text, enum.Base)
			}
			bits = v
		}
		if _, ok := enum.VariantByValue(bits); !ok {
			return Default{}, errUnknownDefaultVariant(ctx, lit.Int.Text)
		}
		return Default{Bits: bits}, nil
	}
	return Default{}, errDefaultType(ctx, "an enum variant or its value")
}

// assignSlots gives every field its value slot id. With explicit id
// attributes the ids must form a contiguous sequence in which a union
// or vector-of-unions field skips one id for its type slot; without
// them, slots are assigned in source order with the same rule.
func assignSlots(
	ctx string,
	nodes []*syntax.Field,
	fields []TableField,
) ([]TableField, uint16, error) {
	withId := 0
	for _, node := range nodes {
		if _, ok := node.Metadata.Get("id"); ok {
			withId++
		}
	}

	if withId == 0 {
		next := uint16(0)
		for i := range fields {
			if fields[i].Type.IsUnionLike() {
				next++
			}
			fields[i].Slot = next
			next++
		}
		return fields, next, nil
	}

	if withId != len(nodes) {
		for _, node := range nodes {
			if _, ok := node.Metadata.Get("id"); !ok {
				return nil, 0, errMissingId(ctx, node.Name)
			}
		}
	}

	for i, node := range nodes {
		entry, _ := node.Metadata.Get("id")
		id, ok := idValue(entry)
		if !ok {
			return nil, 0, errInvalidId(ctx, node.Name)
		}
		fields[i].Slot = id
	}

	sorted := make([]TableField, len(fields))
	copy(sorted, fields)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Slot < sorted[j].Slot
	})

	next := uint16(0)
	for _, field := range sorted {
		if field.Type.IsUnionLike() {
			// The type byte lives in the preceding slot, so the id
			// must leave a gap of two.
			if field.Slot != next+1 {
				return nil, 0, errUnionIdGap(ctx, field.Name, next+1, field.Slot)
			}
			next = field.Slot + 1
			continue
		}
		if field.Slot != next {
			return nil, 0, errIdGap(ctx, field.Name, next, field.Slot)
		}
		next = field.Slot + 1
	}
	return sorted, next, nil
}

func idValue(entry *syntax.MetadataEntry) (uint16, bool) {
	if entry.Value == nil || entry.Value.Int == nil {
		return 0, false
	}
	v, ok := entry.Value.Int.Uint64()
	if !ok || v > math.MaxUint16 {
		return 0, false
	}
	return uint16(v), true
}
