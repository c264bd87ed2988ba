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

// Package syntax defines the schema language's syntax tree and its
// parser.
//
// A parsed Schema is a flat list of declarations in source order.
// Namespace declarations are positional: each declaration belongs to the
// most recent preceding namespace. The parser performs no name
// resolution or validation; that is the compiler's job.
package syntax

import (
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

var schemaLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `//[^\n]*`},
	{Name: "BlockComment", Pattern: `/\*([^*]|\*+[^*/])*\*+/`},
	{Name: "Float", Pattern: `[-+]?\d+\.\d+([eE][-+]?\d+)?`},
	{Name: "HexInt", Pattern: `[-+]?0[xX][0-9a-fA-F]+`},
	{Name: "Int", Pattern: `[-+]?\d+`},
	{Name: "String", Pattern: `"(\\"|[^"])*"`},
	{Name: "Ident", Pattern: `[a-zA-Z_]\w*`},
	{Name: "Punct", Pattern: `[;:{}().,=\[\]]`},
	{Name: "Whitespace", Pattern: `[ \r\n\t]+`},
})

var schemaParser = participle.MustBuild[Schema](
	participle.Lexer(schemaLexer),
	participle.Elide("Whitespace", "Comment", "BlockComment"),
	participle.Unquote("String"),
	participle.UseLookahead(2),
)

// Parse parses a single schema file. The filename is used only in error
// positions.
func Parse(filename string, src []byte) (*Schema, error) {
	return schemaParser.ParseBytes(filename, src)
}
