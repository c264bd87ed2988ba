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
	"go.flatwire.org/flatwire/syntax"
)

func (c *compiler) validateEnums() error {
	for _, sym := range c.enums {
		if err := c.validateEnum(sym); err != nil {
			return err
		}
		sym.done = true
	}
	return nil
}

func (c *compiler) validateEnum(sym *enumSymbol) error {
	node := sym.raw
	ctx := sym.ns.Qualify(sym.name)

	if _, ok := node.Metadata.Get("bit_flags"); ok {
		return errBitFlagsUnsupported(ctx)
	}

	base, ok := enumBase(node.Base)
	if !ok {
		return errEnumBaseInvalid(ctx, node.Base.String())
	}
	sym.out.Base = base

	if len(node.Variants) == 0 {
		return errEnumEmpty(ctx)
	}

	names := make([]string, len(node.Variants))
	for i, variant := range node.Variants {
		names[i] = variant.Name
	}
	if dupes := duplicateNames(names); len(dupes) > 0 {
		return errDuplicateIdents(ctx, dupes)
	}

	// Variants are validated left to right, threading the previous
	// value: an explicit literal takes it, otherwise previous+1, or 0
	// for the first variant.
	var last uint64
	haveLast := false
	for _, variant := range node.Variants {
		vctx := path(ctx, variant.Name)
		value, err := enumVariantValue(vctx, base, variant, last, haveLast)
		if err != nil {
			return err
		}
		if haveLast && !valueLess(base, last, value) {
			return errNotAscending(ctx, variant.Name)
		}
		sym.out.Variants = append(sym.out.Variants, EnumVariant{
			Name:  variant.Name,
			Value: value,
		})
		last = value
		haveLast = true
	}
	return nil
}

func enumBase(ref *syntax.TypeRef) (BaseType, bool) {
	if ref.IsVector() || len(ref.Name) != 1 {
		return 0, false
	}
	base, ok := builtinTypes[ref.Name[0]]
	if !ok || !base.IsInteger() {
		return 0, false
	}
	return base, true
}

func enumVariantValue(
	ctx string,
	base BaseType,
	variant *syntax.EnumVariant,
	last uint64,
	haveLast bool,
) (uint64, error) {
	if variant.Value == nil {
		if !haveLast {
			return 0, nil
		}
		next := last + 1
		if err := checkEnumRange(ctx, base, next, variant.Value); err != nil {
			return 0, err
		}
		return next, nil
	}

	if base.Signed() {
		v, ok := variant.Value.Int64()
		if !ok || !base.FitsSigned(v) {
			return 0, errOutOfRange(ctx, variant.Value.Text, base)
		}
		return uint64(v), nil
	}
	v, ok := variant.Value.Uint64()
	if !ok || !base.FitsUnsigned(v) {
		return 0, errOutOfRange(ctx, variant.Value.Text, base)
	}
	return v, nil
}

// checkEnumRange verifies an implicitly assigned value still fits the
// underlying type. lit is nil for implicit values.
func checkEnumRange(ctx string, base BaseType, value uint64, lit *syntax.IntLit) error {
	var fits bool
	if base.Signed() {
		fits = base.FitsSigned(int64(value))
	} else {
		fits = base.FitsUnsigned(value)
	}
	if !fits {
		text := "<implicit>"
		if lit != nil {
			text = lit.Text
		}
		return errOutOfRange(ctx, text, base)
	}
	return nil
}

// valueLess compares two variant values under the base type's
// signedness.
func valueLess(base BaseType, a, b uint64) bool {
	if base.Signed() {
		return int64(a) < int64(b)
	}
	return a < b
}
