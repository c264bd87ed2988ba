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

package syntax_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"go.flatwire.org/flatwire/syntax"
)

func parse(t *testing.T, src string) *syntax.Schema {
	t.Helper()
	parsed, err := syntax.Parse("test.fws", []byte(src))
	require.NoError(t, err)
	return parsed
}

func TestParseFullSchema(t *testing.T) {
	parsed := parse(t, `
// Monster schema.
include "common.fws";

namespace game.example;

attribute "priority";

enum Color : uint8 { Red = 0, Green, Blue = 5 }

struct Vec3 {
	x: float;
	y: float;
	z: float;
}

table Monster {
	pos: Vec3;
	hp: int32 = 100;
	name: string (required);
	inventory: [uint8] (id: 3);
}

union Any { Monster, Alias: other.Thing }

root_type Monster;
file_identifier "MONS";
file_extension "mon";
`)
	require.Len(t, parsed.Decls, 10)

	includes := parsed.Includes()
	require.Len(t, includes, 1)
	require.Equal(t, "common.fws", includes[0].Path)

	ns := parsed.Decls[1].Namespace
	require.NotNil(t, ns)
	require.Equal(t, []string{"game", "example"}, ns.Segments)

	attr := parsed.Decls[2].Attribute
	require.NotNil(t, attr)
	require.Equal(t, "priority", attr.Name)

	enum := parsed.Decls[3].Enum
	require.NotNil(t, enum)
	require.Equal(t, "Color", enum.Name)
	require.Equal(t, []string{"uint8"}, enum.Base.Name)
	require.Len(t, enum.Variants, 3)
	require.Equal(t, "Red", enum.Variants[0].Name)
	v, ok := enum.Variants[0].Value.Int64()
	require.True(t, ok)
	require.Equal(t, int64(0), v)
	require.Nil(t, enum.Variants[1].Value)

	table := parsed.Decls[5].Table
	require.NotNil(t, table)
	require.Len(t, table.Fields, 4)

	hp := table.Fields[1]
	require.Equal(t, "hp", hp.Name)
	require.NotNil(t, hp.Default)
	require.NotNil(t, hp.Default.Int)

	name := table.Fields[2]
	_, ok = name.Metadata.Get("required")
	require.True(t, ok)

	inventory := table.Fields[3]
	require.True(t, inventory.Type.IsVector())
	require.Equal(t, []string{"uint8"}, inventory.Type.Element.Name)
	id, ok := inventory.Metadata.Get("id")
	require.True(t, ok)
	idValue, ok := id.Value.Int.Uint64()
	require.True(t, ok)
	require.Equal(t, uint64(3), idValue)

	union := parsed.Decls[6].Union
	require.NotNil(t, union)
	require.Len(t, union.Variants, 2)
	require.Equal(t, "", union.Variants[0].Alias)
	require.Equal(t, []string{"Monster"}, union.Variants[0].Type.Name)
	require.Equal(t, "Alias", union.Variants[1].Alias)
	require.Equal(t, []string{"other", "Thing"}, union.Variants[1].Type.Name)

	root := parsed.Decls[7].RootType
	require.NotNil(t, root)
	require.Equal(t, "Monster", root.Type.String())

	require.Equal(t, "MONS", parsed.Decls[8].FileIdentifier.Value)
	require.Equal(t, "mon", parsed.Decls[9].FileExtension.Value)
}

func TestParseLiterals(t *testing.T) {
	parsed := parse(t, `
table Literals {
	a: int32 = -42;
	b: uint64 = 0xFF;
	c: double = 1.25;
	d: bool = true;
	e: Color = Green;
}
`)
	fields := parsed.Decls[0].Table.Fields

	a, ok := fields[0].Default.Int.Int64()
	require.True(t, ok)
	require.Equal(t, int64(-42), a)

	hex, ok := fields[1].Default.Int.Uint64()
	require.True(t, ok)
	require.Equal(t, uint64(0xFF), hex)

	require.NotNil(t, fields[2].Default.Float)
	require.Equal(t, 1.25, *fields[2].Default.Float)

	require.NotNil(t, fields[3].Default.Ref)
	require.Equal(t, "true", *fields[3].Default.Ref)

	require.NotNil(t, fields[4].Default.Ref)
	require.Equal(t, "Green", *fields[4].Default.Ref)
}

func TestParseBlockComment(t *testing.T) {
	parsed := parse(t, `
/* a block
   comment */
table T { x: int32; }
`)
	require.Len(t, parsed.Decls, 1)
}

func TestParseStructMetadata(t *testing.T) {
	parsed := parse(t, `struct Aligned (force_align: 16) { x: float; }`)
	entry, ok := parsed.Decls[0].Struct.Metadata.Get("force_align")
	require.True(t, ok)
	v, ok := entry.Value.Int.Uint64()
	require.True(t, ok)
	require.Equal(t, uint64(16), v)
}

func TestParseError(t *testing.T) {
	_, err := syntax.Parse("broken.fws", []byte(`table { }`))
	require.Error(t, err)
	require.Contains(t, err.Error(), "broken.fws")
}

func TestMetadataNilSafe(t *testing.T) {
	parsed := parse(t, `table T { x: int32; }`)
	_, ok := parsed.Decls[0].Table.Fields[0].Metadata.Get("id")
	require.False(t, ok)
}
