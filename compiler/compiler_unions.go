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
	"strings"
)

func (c *compiler) validateUnions() error {
	for _, sym := range c.unions {
		if err := c.validateUnion(sym); err != nil {
			return err
		}
		sym.done = true
	}
	// Populate the output schema in pass order now that every cell is
	// validated.
	for _, sym := range c.enums {
		c.schema.Enums = append(c.schema.Enums, sym.out)
	}
	for _, sym := range c.structs {
		c.schema.Structs = append(c.schema.Structs, sym.out)
	}
	for _, sym := range c.tables {
		c.schema.Tables = append(c.schema.Tables, sym.out)
	}
	for _, sym := range c.unions {
		c.schema.Unions = append(c.schema.Unions, sym.out)
	}
	return nil
}

func (c *compiler) validateUnion(sym *unionSymbol) error {
	node := sym.raw
	ctx := sym.ns.Qualify(sym.name)

	if len(node.Variants) == 0 {
		return errUnionEmpty(ctx)
	}
	if len(node.Variants) > 255 {
		return errUnionTooLarge(ctx)
	}

	// Tag 0 is reserved for the implicit NONE variant.
	names := []string{"NONE"}
	for _, variant := range node.Variants {
		vctx := path(ctx, variant.Type.String())
		if variant.Type.IsVector() {
			return errUnionOfNonTable(vctx, variant.Type.String())
		}
		ref, err := c.resolve(vctx, sym.ns, variant.Type.Name)
		if err != nil {
			return err
		}
		if ref.table == nil {
			return errUnionOfNonTable(vctx, variant.Type.String())
		}

		name := variant.Alias
		if name == "" {
			qualified := ref.table.ns.Qualify(ref.table.name)
			name = strings.ReplaceAll(qualified, ".", "_")
		}
		names = append(names, name)
		sym.out.Variants = append(sym.out.Variants, UnionVariant{
			Name:  name,
			Table: ref.table.out,
		})
	}
	if dupes := duplicateNames(names); len(dupes) > 0 {
		return errDuplicateIdents(ctx, dupes)
	}
	return nil
}
