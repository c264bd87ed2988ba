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

// Package compiler validates a parsed schema tree into a fully typed,
// layout-resolved schema.
//
// Validation runs as four ordered passes over the file tree's
// declarations: enums, then structs, then tables, then unions. Each
// pass refines one cell of the symbol table from its raw syntax node to
// its validated form; the pass order is load-bearing, because struct
// layout needs enum widths, table fields need struct sizes, and union
// variants need validated tables.
//
// The compiler is pure: the same file tree produces the same schema or
// the same first error, and nothing is read from the environment.
package compiler

import (
	"go.flatwire.org/flatwire/loader"
	"go.flatwire.org/flatwire/syntax"
)

// symbol pairs a raw declaration with its declaring namespace and the
// validated value its pass will fill in.
type symbol[Raw any, Validated any] struct {
	file string
	ns   Namespace
	name string
	raw  Raw
	out  Validated
	done bool
}

type (
	enumSymbol   = symbol[*syntax.Enum, *Enum]
	structSymbol = symbol[*syntax.Struct, *Struct]
	tableSymbol  = symbol[*syntax.Table, *Table]
	unionSymbol  = symbol[*syntax.Union, *Union]
)

type compiler struct {
	enums   []*enumSymbol
	structs []*structSymbol
	tables  []*tableSymbol
	unions  []*unionSymbol

	rootRef   *syntax.TypeRef
	rootNS    Namespace
	schema    *Schema
	declNames map[string]struct{}
}

// Compile validates every declaration of a loaded file tree.
func Compile(tree *loader.FileTree[*syntax.Schema]) (*Schema, error) {
	c := &compiler{
		schema:    &Schema{},
		declNames: make(map[string]struct{}),
	}
	if err := c.collect(tree); err != nil {
		return nil, err
	}
	if err := c.validateEnums(); err != nil {
		return nil, err
	}
	if err := c.validateStructs(); err != nil {
		return nil, err
	}
	if err := c.validateTables(); err != nil {
		return nil, err
	}
	if err := c.validateUnions(); err != nil {
		return nil, err
	}
	if err := c.resolveRoot(); err != nil {
		return nil, err
	}
	return c.schema, nil
}

// collect walks the tree in load order, assigning each declaration to
// the namespace most recently declared before it in its file.
func (c *compiler) collect(tree *loader.FileTree[*syntax.Schema]) error {
	for _, file := range tree.Paths {
		parsed := tree.Files[file]
		var ns Namespace
		for _, decl := range parsed.Decls {
			switch {
			case decl.Namespace != nil:
				ns = Namespace(decl.Namespace.Segments)
			case decl.Enum != nil:
				node := decl.Enum
				if err := c.declare(ns, node.Name); err != nil {
					return err
				}
				c.enums = append(c.enums, &enumSymbol{
					file: file, ns: ns, name: node.Name,
					raw: node, out: &Enum{Name: node.Name, Namespace: ns},
				})
			case decl.Struct != nil:
				node := decl.Struct
				if err := c.declare(ns, node.Name); err != nil {
					return err
				}
				c.structs = append(c.structs, &structSymbol{
					file: file, ns: ns, name: node.Name,
					raw: node, out: &Struct{Name: node.Name, Namespace: ns},
				})
			case decl.Table != nil:
				node := decl.Table
				if err := c.declare(ns, node.Name); err != nil {
					return err
				}
				c.tables = append(c.tables, &tableSymbol{
					file: file, ns: ns, name: node.Name,
					raw: node, out: &Table{Name: node.Name, Namespace: ns},
				})
			case decl.Union != nil:
				node := decl.Union
				if err := c.declare(ns, node.Name); err != nil {
					return err
				}
				c.unions = append(c.unions, &unionSymbol{
					file: file, ns: ns, name: node.Name,
					raw: node, out: &Union{Name: node.Name, Namespace: ns},
				})
			case decl.RootType != nil:
				if c.rootRef != nil {
					return errMultipleRootTypes("")
				}
				c.rootRef = decl.RootType.Type
				c.rootNS = ns
			case decl.FileIdentifier != nil:
				value := decl.FileIdentifier.Value
				if !isFileIdentifier(value) {
					return errInvalidFileIdentifier("", value)
				}
				c.schema.FileIdentifier = value
			case decl.FileExtension != nil:
				c.schema.FileExtension = decl.FileExtension.Value
			case decl.Attribute != nil:
				c.schema.Attributes = append(
					c.schema.Attributes, decl.Attribute.Name,
				)
			}
		}
	}
	return nil
}

func (c *compiler) declare(ns Namespace, name string) error {
	qualified := ns.Qualify(name)
	if _, conflict := c.declNames[qualified]; conflict {
		return errDuplicateDecl("", qualified)
	}
	c.declNames[qualified] = struct{}{}
	return nil
}

func isFileIdentifier(value string) bool {
	if len(value) != 4 {
		return false
	}
	for i := 0; i < len(value); i++ {
		if value[i] > 0x7F {
			return false
		}
	}
	return true
}

func (c *compiler) resolveRoot() error {
	if c.rootRef == nil {
		return nil
	}
	if c.rootRef.IsVector() {
		return errRootTypeNotTable("", c.rootRef.String())
	}
	ref, err := c.resolve("", c.rootNS, c.rootRef.Name)
	if err != nil {
		return err
	}
	if ref.table == nil {
		return errRootTypeNotTable("", c.rootRef.String())
	}
	c.schema.Root = ref.table.out
	return nil
}

// declRef is the result of name resolution: exactly one member is set.
type declRef struct {
	enum   *enumSymbol
	struct_ *structSymbol
	table  *tableSymbol
	union  *unionSymbol
}

// resolve looks up a possibly-qualified reference from inside namespace
// ns. Candidate namespaces are enumerated by prefix-shortening ns down
// to the root; within each candidate, enums are searched first, then
// structs, tables, and unions, across every file of the tree. The first
// match wins.
func (c *compiler) resolve(ctx string, ns Namespace, ref []string) (declRef, error) {
	name := ref[len(ref)-1]
	prefix := ref[:len(ref)-1]

	candidates := make([]string, 0, len(ns)+1)
	for i := len(ns); i >= 0; i-- {
		candidate := make(Namespace, 0, i+len(prefix))
		candidate = append(candidate, ns[:i]...)
		candidate = append(candidate, prefix...)
		candidates = append(candidates, candidate.String())

		for _, sym := range c.enums {
			if sym.name == name && sym.ns.Equal(candidate) {
				return declRef{enum: sym}, nil
			}
		}
		for _, sym := range c.structs {
			if sym.name == name && sym.ns.Equal(candidate) {
				return declRef{struct_: sym}, nil
			}
		}
		for _, sym := range c.tables {
			if sym.name == name && sym.ns.Equal(candidate) {
				return declRef{table: sym}, nil
			}
		}
		for _, sym := range c.unions {
			if sym.name == name && sym.ns.Equal(candidate) {
				return declRef{union: sym}, nil
			}
		}
	}
	refStr := (&syntax.TypeRef{Name: ref}).String()
	return declRef{}, errTypeNotFound(ctx, refStr, candidates)
}

// duplicateNames returns, in first-appearance order, every name that
// occurs more than once.
func duplicateNames(names []string) []string {
	seen := make(map[string]int, len(names))
	var dupes []string
	for _, name := range names {
		seen[name]++
		if seen[name] == 2 {
			dupes = append(dupes, name)
		}
	}
	return dupes
}
