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

package syntax

import (
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
)

// Schema is a parsed schema file: declarations in source order.
type Schema struct {
	Pos   lexer.Position
	Decls []*Decl `parser:"@@*"`
}

// Includes returns the file's include declarations in source order.
func (s *Schema) Includes() []*Include {
	var includes []*Include
	for _, decl := range s.Decls {
		if decl.Include != nil {
			includes = append(includes, decl.Include)
		}
	}
	return includes
}

// Decl is one top-level declaration. Exactly one member is non-nil.
type Decl struct {
	Include        *Include        `parser:"@@"`
	Namespace      *Namespace      `parser:"| @@"`
	Attribute      *Attribute      `parser:"| @@"`
	Enum           *Enum           `parser:"| @@"`
	Struct         *Struct         `parser:"| @@"`
	Table          *Table          `parser:"| @@"`
	Union          *Union          `parser:"| @@"`
	RootType       *RootType       `parser:"| @@"`
	FileIdentifier *FileIdentifier `parser:"| @@"`
	FileExtension  *FileExtension  `parser:"| @@"`
}

type Include struct {
	Pos  lexer.Position
	Path string `parser:"'include' @String ';'"`
}

type Namespace struct {
	Pos      lexer.Position
	Segments []string `parser:"'namespace' @Ident ('.' @Ident)* ';'"`
}

type Attribute struct {
	Pos  lexer.Position
	Name string `parser:"'attribute' @String ';'"`
}

type RootType struct {
	Pos  lexer.Position
	Type *TypeRef `parser:"'root_type' @@ ';'"`
}

type FileIdentifier struct {
	Pos   lexer.Position
	Value string `parser:"'file_identifier' @String ';'"`
}

type FileExtension struct {
	Pos   lexer.Position
	Value string `parser:"'file_extension' @String ';'"`
}

type Enum struct {
	Pos      lexer.Position
	Name     string         `parser:"'enum' @Ident"`
	Base     *TypeRef       `parser:"':' @@"`
	Metadata *Metadata      `parser:"@@?"`
	Variants []*EnumVariant `parser:"'{' (@@ (',' @@)* ','?)? '}'"`
}

type EnumVariant struct {
	Pos   lexer.Position
	Name  string  `parser:"@Ident"`
	Value *IntLit `parser:"('=' @@)?"`
}

type Struct struct {
	Pos      lexer.Position
	Name     string    `parser:"'struct' @Ident"`
	Metadata *Metadata `parser:"@@?"`
	Fields   []*Field  `parser:"'{' @@* '}'"`
}

type Table struct {
	Pos      lexer.Position
	Name     string    `parser:"'table' @Ident"`
	Metadata *Metadata `parser:"@@?"`
	Fields   []*Field  `parser:"'{' @@* '}'"`
}

type Field struct {
	Pos      lexer.Position
	Name     string    `parser:"@Ident ':'"`
	Type     *TypeRef  `parser:"@@"`
	Default  *Literal  `parser:"('=' @@)?"`
	Metadata *Metadata `parser:"@@? ';'"`
}

type Union struct {
	Pos      lexer.Position
	Name     string          `parser:"'union' @Ident"`
	Metadata *Metadata       `parser:"@@?"`
	Variants []*UnionVariant `parser:"'{' (@@ (',' @@)* ','?)? '}'"`
}

type UnionVariant struct {
	Pos   lexer.Position
	Alias string   `parser:"(@Ident ':')?"`
	Type  *TypeRef `parser:"@@"`
}

// TypeRef is a type spelling: a vector element in brackets, or a
// possibly-qualified name. Builtin type names are single-segment.
type TypeRef struct {
	Pos     lexer.Position
	Element *TypeRef `parser:"'[' @@ ']'"`
	Name    []string `parser:"| @Ident ('.' @Ident)*"`
}

// IsVector reports whether the reference is a vector spelling.
func (t *TypeRef) IsVector() bool {
	return t.Element != nil
}

func (t *TypeRef) String() string {
	if t.Element != nil {
		return "[" + t.Element.String() + "]"
	}
	return strings.Join(t.Name, ".")
}

// Metadata is a parenthesised attribute list on a declaration or field.
type Metadata struct {
	Pos     lexer.Position
	Entries []*MetadataEntry `parser:"'(' (@@ (',' @@)*)? ')'"`
}

type MetadataEntry struct {
	Pos   lexer.Position
	Key   string   `parser:"(@Ident | @String)"`
	Value *Literal `parser:"(':' @@)?"`
}

// Get returns the entry with the given key. It is safe to call on a nil
// Metadata.
func (m *Metadata) Get(key string) (*MetadataEntry, bool) {
	if m == nil {
		return nil, false
	}
	for _, entry := range m.Entries {
		if entry.Key == key {
			return entry, true
		}
	}
	return nil, false
}

// Literal is a default value or attribute value: a number, a string, or
// an identifier reference (including `true` and `false`).
type Literal struct {
	Pos   lexer.Position
	Float *float64 `parser:"@Float"`
	Int   *IntLit  `parser:"| @@"`
	Str   *string  `parser:"| @String"`
	Ref   *string  `parser:"| @Ident"`
}

// IntLit is an integer literal, decimal or hexadecimal, kept as source
// text so that range checking can be done against the destination type.
type IntLit struct {
	Pos  lexer.Position
	Text string `parser:"@Int | @HexInt"`
}

// Int64 returns the literal's value if it is representable as int64.
func (l *IntLit) Int64() (int64, bool) {
	v, err := strconv.ParseInt(l.Text, intLitBase(l.Text), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// Uint64 returns the literal's value if it is non-negative and
// representable as uint64.
func (l *IntLit) Uint64() (uint64, bool) {
	text := strings.TrimPrefix(l.Text, "+")
	v, err := strconv.ParseUint(text, intLitBase(text), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// intLitBase lets strconv read the 0x prefix of a hexadecimal literal
// and reads every other literal as decimal, leading zeros included.
func intLitBase(text string) int {
	if strings.ContainsAny(text, "xX") {
		return 0
	}
	return 10
}
