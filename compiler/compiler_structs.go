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
	"slices"

	"go.flatwire.org/flatwire/syntax"
)

// Struct validation is two-phase: a cycle check over the raw
// declarations first, because sizes cannot be computed for a cyclic
// struct graph, then memoised emission so mutually referencing structs
// are each validated once.

func (c *compiler) validateStructs() error {
	for _, sym := range c.structs {
		if err := c.checkStructCycles(sym, nil); err != nil {
			return err
		}
	}
	memo := make(map[string]*structSymbol)
	for _, sym := range c.structs {
		if err := c.validateStruct(sym, memo); err != nil {
			return err
		}
	}
	return nil
}

// checkStructCycles walks struct-typed fields depth-first with a stack
// of qualified names. Enum fields terminate the traversal.
func (c *compiler) checkStructCycles(sym *structSymbol, stack []string) error {
	qualified := sym.ns.Qualify(sym.name)
	if i := slices.Index(stack, qualified); i >= 0 {
		chain := append(slices.Clone(stack[i:]), qualified)
		return errCyclicStruct(qualified, chain)
	}
	stack = append(stack, qualified)
	for _, field := range sym.raw.Fields {
		if field.Type.IsVector() {
			continue
		}
		ref, err := c.resolve("", sym.ns, field.Type.Name)
		if err != nil {
			// An unresolvable or builtin-typed field cannot extend a
			// cycle; phase B reports it in full context.
			continue
		}
		if ref.struct_ == nil {
			continue
		}
		if err := c.checkStructCycles(ref.struct_, stack); err != nil {
			return err
		}
	}
	return nil
}

func (c *compiler) validateStruct(
	sym *structSymbol,
	memo map[string]*structSymbol,
) error {
	qualified := sym.ns.Qualify(sym.name)
	if _, ok := memo[qualified]; ok {
		return nil
	}
	memo[qualified] = sym

	node := sym.raw
	ctx := qualified

	if len(node.Fields) == 0 {
		return errStructEmpty(ctx)
	}

	names := make([]string, len(node.Fields))
	for i, field := range node.Fields {
		names[i] = field.Name
	}
	if dupes := duplicateNames(names); len(dupes) > 0 {
		return errDuplicateIdents(ctx, dupes)
	}

	var naturalAlign uint16 = 1
	fields := make([]StructField, 0, len(node.Fields))
	for _, field := range node.Fields {
		fctx := path(ctx, field.Name)
		for _, attr := range []string{"deprecated", "required", "id"} {
			if _, ok := field.Metadata.Get(attr); ok {
				return errStructFieldAttr(fctx, attr)
			}
		}
		if field.Default != nil {
			return errDefaultOnNonScalar(fctx)
		}
		fieldType, err := c.structFieldType(fctx, sym.ns, field, memo)
		if err != nil {
			return err
		}
		if align := fieldType.Alignment(); align > naturalAlign {
			naturalAlign = align
		}
		fields = append(fields, StructField{Name: field.Name, Type: fieldType})
	}

	align := naturalAlign
	if entry, ok := node.Metadata.Get("force_align"); ok {
		forced, ok := forceAlignValue(entry)
		if !ok || forced < naturalAlign || forced > 16 || forced&(forced-1) != 0 {
			return errInvalidForceAlign(ctx, forceAlignText(entry), naturalAlign)
		}
		align = forced
	}

	// Padding pass: each field is padded so the next one lands on its
	// own alignment; the last is padded so the total size is a multiple
	// of the struct alignment.
	size := 0
	for i := range fields {
		fields[i].Offset = uint16(size)
		size += int(fields[i].Type.InlineSize())
		var target int
		if i+1 < len(fields) {
			target = roundUp(size, int(fields[i+1].Type.Alignment()))
		} else {
			target = roundUp(size, int(align))
		}
		fields[i].Padding = uint16(target - size)
		size = target
		if size > math.MaxUint16 {
			return errStructTooLarge(ctx)
		}
	}

	sym.out.Align = align
	sym.out.Size = uint16(size)
	sym.out.Fields = fields
	sym.done = true
	return nil
}

func (c *compiler) structFieldType(
	ctx string,
	ns Namespace,
	field *syntax.Field,
	memo map[string]*structSymbol,
) (Type, error) {
	if field.Type.IsVector() {
		return Type{}, errStructFieldType(ctx, field.Type.String())
	}
	if len(field.Type.Name) == 1 {
		if field.Type.Name[0] == "string" {
			return Type{}, errStructFieldType(ctx, "string")
		}
		if base, ok := builtinTypes[field.Type.Name[0]]; ok {
			return Type{Kind: KindScalar, Scalar: base}, nil
		}
	}
	ref, err := c.resolve(ctx, ns, field.Type.Name)
	if err != nil {
		return Type{}, err
	}
	switch {
	case ref.enum != nil:
		return Type{Kind: KindEnum, Scalar: ref.enum.out.Base, Enum: ref.enum.out}, nil
	case ref.struct_ != nil:
		// Nested structs are validated first so their size and
		// alignment are available.
		if err := c.validateStruct(ref.struct_, memo); err != nil {
			return Type{}, err
		}
		return Type{Kind: KindStruct, Struct: ref.struct_.out}, nil
	}
	return Type{}, errStructFieldType(ctx, field.Type.String())
}

func forceAlignValue(entry *syntax.MetadataEntry) (uint16, bool) {
	if entry.Value == nil || entry.Value.Int == nil {
		return 0, false
	}
	v, ok := entry.Value.Int.Uint64()
	if !ok || v > 16 {
		return 0, false
	}
	return uint16(v), true
}

func forceAlignText(entry *syntax.MetadataEntry) string {
	if entry.Value == nil {
		return "<none>"
	}
	if entry.Value.Int != nil {
		return entry.Value.Int.Text
	}
	return "<non-integer>"
}

func roundUp(n, align int) int {
	return (n + align - 1) / align * align
}
