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

package flatwire_test

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"go.flatwire.org/flatwire"
	"go.flatwire.org/flatwire/internal/testutil"
)

// The tests build tables for this schema by hand:
//
//	table Monster {
//		hp:     int32 = 100;  // slot 0
//		name:   string;       // slot 1
//		mana:   float;        // slot 2
//	}
const (
	monsterSlotHp   = 0
	monsterSlotName = 1
	monsterSlotMana = 2
	monsterSlots    = 3
)

func buildMonster(b *flatwire.Builder, hp int32, name string, mana float32) flatwire.UOffset {
	var nameOff flatwire.UOffset
	if name != "" {
		nameOff = b.CreateString(name)
	}
	b.StartTable(monsterSlots)
	b.Int32Slot(monsterSlotHp, hp, 100)
	b.UOffsetSlot(monsterSlotName, nameOff)
	b.Float32Slot(monsterSlotMana, mana, 0)
	return b.EndTable()
}

func TestRoundTripScalarsAndString(t *testing.T) {
	b := flatwire.NewBuilder(0)
	b.Finish(buildMonster(b, 42, "orc", 1.5))

	decoded, err := flatwire.Decode(b.FinishedBytes())
	require.NoError(t, err)

	hp, err := decoded.Int32(monsterSlotHp, 100)
	require.NoError(t, err)
	require.Equal(t, int32(42), hp)

	name, ok, err := decoded.String(monsterSlotName)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "orc", name)

	mana, err := decoded.Float32(monsterSlotMana, 0)
	require.NoError(t, err)
	require.Equal(t, float32(1.5), mana)
}

func TestDefaultElision(t *testing.T) {
	withDefault := flatwire.NewBuilder(0)
	withDefault.Finish(buildMonster(withDefault, 100, "orc", 0))

	omitted := flatwire.NewBuilder(0)
	nameOff := omitted.CreateString("orc")
	omitted.StartTable(monsterSlots)
	omitted.UOffsetSlot(monsterSlotName, nameOff)
	omitted.Finish(omitted.EndTable())

	// Encoding a field equal to its default produces the same bytes as
	// omitting it.
	testutil.AssertBytesEqual(t, omitted.FinishedBytes(), withDefault.FinishedBytes())

	decoded, err := flatwire.Decode(withDefault.FinishedBytes())
	require.NoError(t, err)

	off, err := decoded.Offset(monsterSlotHp)
	require.NoError(t, err)
	require.Equal(t, flatwire.VOffset(0), off)

	hp, err := decoded.Int32(monsterSlotHp, 100)
	require.NoError(t, err)
	require.Equal(t, int32(100), hp)
}

func TestMissingStringIsAbsent(t *testing.T) {
	b := flatwire.NewBuilder(0)
	b.Finish(buildMonster(b, 7, "", 0))

	decoded, err := flatwire.Decode(b.FinishedBytes())
	require.NoError(t, err)

	_, ok, err := decoded.String(monsterSlotName)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRequiredField(t *testing.T) {
	b := flatwire.NewBuilder(0)
	table := buildMonster(b, 7, "", 0)
	err := b.Required(table, monsterSlotName, "Monster.name")

	var missing *flatwire.MissingRequiredError
	require.ErrorAs(t, err, &missing)
	require.Equal(t, "Monster.name", missing.FieldPath)

	b = flatwire.NewBuilder(0)
	table = buildMonster(b, 7, "orc", 0)
	require.NoError(t, b.Required(table, monsterSlotName, "Monster.name"))
}

func TestVtableDeduplication(t *testing.T) {
	b := flatwire.NewBuilder(0)
	first := buildMonster(b, 42, "", 0)
	second := buildMonster(b, 43, "", 0)
	b.Finish(second)
	buf := b.FinishedBytes()

	vtablePos := func(table flatwire.UOffset) int64 {
		pos := int64(len(buf)) - int64(table)
		soffset := int32(binary.LittleEndian.Uint32(buf[pos:]))
		return pos - int64(soffset)
	}
	require.Equal(t, vtablePos(first), vtablePos(second))
}

func TestNestedTables(t *testing.T) {
	b := flatwire.NewBuilder(0)
	child := buildMonster(b, 5, "imp", 0)
	b.StartTable(1)
	b.UOffsetSlot(0, child)
	b.Finish(b.EndTable())

	parent, err := flatwire.Decode(b.FinishedBytes())
	require.NoError(t, err)

	decoded, ok, err := parent.Table(0)
	require.NoError(t, err)
	require.True(t, ok)

	hp, err := decoded.Int32(monsterSlotHp, 100)
	require.NoError(t, err)
	require.Equal(t, int32(5), hp)

	name, ok, err := decoded.String(monsterSlotName)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "imp", name)
}

// struct M { a:bool; b:double; } has alignment 8, size 16, and 7 bytes
// of padding after a.
func writeStructM(b *flatwire.Builder, a bool, v float64) flatwire.UOffset {
	b.Prep(8, 16)
	b.PrependFloat64(v)
	b.Pad(7)
	b.PrependBool(a)
	return b.Offset()
}

func TestInlineStruct(t *testing.T) {
	b := flatwire.NewBuilder(0)
	b.StartTable(1)
	off := writeStructM(b, true, 2.25)
	b.StructSlot(0, off)
	b.Finish(b.EndTable())

	decoded, err := flatwire.Decode(b.FinishedBytes())
	require.NoError(t, err)

	m, ok, err := decoded.Struct(0)
	require.NoError(t, err)
	require.True(t, ok)

	a, err := m.Bool(0)
	require.NoError(t, err)
	require.True(t, a)

	v, err := m.Float64(8)
	require.NoError(t, err)
	require.Equal(t, 2.25, v)
}

func TestStructAlignmentOnWire(t *testing.T) {
	b := flatwire.NewBuilder(0)
	b.StartTable(1)
	off := writeStructM(b, true, 2.25)
	b.StructSlot(0, off)
	b.Finish(b.EndTable())
	buf := b.FinishedBytes()

	decoded, err := flatwire.Decode(buf)
	require.NoError(t, err)
	m, _, err := decoded.Struct(0)
	require.NoError(t, err)

	// The double inside the struct must land on an 8-aligned address.
	v, err := m.Float64(8)
	require.NoError(t, err)
	require.Equal(t, 2.25, v)
	for pos := 0; pos+8 <= len(buf); pos++ {
		if binary.LittleEndian.Uint64(buf[pos:]) == math.Float64bits(2.25) {
			require.Zero(t, pos%8, "double at unaligned position %d", pos)
		}
	}
}

func TestFileIdentifier(t *testing.T) {
	b := flatwire.NewBuilder(0)
	b.FinishWithIdentifier(buildMonster(b, 1, "", 0), "MONS")
	buf := b.FinishedBytes()

	require.True(t, flatwire.CheckFileIdentifier(buf, "MONS"))
	require.False(t, flatwire.CheckFileIdentifier(buf, "XXXX"))
	require.False(t, flatwire.CheckFileIdentifier(buf, "MO"))

	decoded, err := flatwire.Decode(buf)
	require.NoError(t, err)
	hp, err := decoded.Int32(monsterSlotHp, 100)
	require.NoError(t, err)
	require.Equal(t, int32(1), hp)
}

func TestDecodeMalformed(t *testing.T) {
	var malformed *flatwire.MalformedBufferError

	_, err := flatwire.Decode(nil)
	require.ErrorAs(t, err, &malformed)

	_, err = flatwire.Decode([]byte{0x01, 0x02})
	require.ErrorAs(t, err, &malformed)

	// Root offset pointing past the end of the buffer.
	_, err = flatwire.Decode([]byte{0xFF, 0x00, 0x00, 0x00})
	require.ErrorAs(t, err, &malformed)
}

func TestTruncatedTable(t *testing.T) {
	b := flatwire.NewBuilder(0)
	b.Finish(buildMonster(b, 42, "orc", 0))
	buf := b.FinishedBytes()

	// Chop the buffer so the table body is cut off: the last 8 bytes hold
	// the string (length, "orc", NUL) and the 4 before them hold hp.
	truncated := buf[:len(buf)-12]
	decoded, err := flatwire.Decode(truncated)
	if err == nil {
		_, err = decoded.Int32(monsterSlotHp, 100)
	}
	var malformed *flatwire.MalformedBufferError
	require.ErrorAs(t, err, &malformed)
}

func TestInvalidUtf8(t *testing.T) {
	b := flatwire.NewBuilder(0)
	nameOff := b.CreateString("bad\xff\xfe")
	b.StartTable(monsterSlots)
	b.UOffsetSlot(monsterSlotName, nameOff)
	b.Finish(b.EndTable())

	decoded, err := flatwire.Decode(b.FinishedBytes())
	require.NoError(t, err)

	_, _, err = decoded.String(monsterSlotName)
	var utf8Err *flatwire.Utf8Error
	require.ErrorAs(t, err, &utf8Err)
	require.Equal(t, uint8(0xFF), utf8Err.Byte)

	// The raw bytes are still reachable.
	raw, ok, err := decoded.StringBytes(monsterSlotName)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("bad\xff\xfe"), raw)
}

func TestStringNulTerminator(t *testing.T) {
	b := flatwire.NewBuilder(0)
	off := b.CreateString("hi")
	b.StartTable(1)
	b.UOffsetSlot(0, off)
	b.Finish(b.EndTable())
	buf := b.FinishedBytes()

	decoded, err := flatwire.Decode(buf)
	require.NoError(t, err)
	s, ok, err := decoded.String(0)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "hi", s)

	// A terminator byte follows the string data but is not included in
	// the recorded length.
	for pos := 0; pos+4 <= len(buf); pos++ {
		if binary.LittleEndian.Uint32(buf[pos:]) == 2 && pos+7 <= len(buf) {
			if string(buf[pos+4:pos+6]) == "hi" {
				require.Equal(t, byte(0), buf[pos+6])
				return
			}
		}
	}
	t.Fatal("string data not found in buffer")
}
