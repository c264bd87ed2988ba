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
	"testing"

	"github.com/stretchr/testify/require"

	"go.flatwire.org/flatwire"
)

func finishVectorTable(b *flatwire.Builder, vec flatwire.UOffset) []byte {
	b.StartTable(1)
	b.UOffsetSlot(0, vec)
	b.Finish(b.EndTable())
	return b.FinishedBytes()
}

func decodeVector(t *testing.T, buf []byte) flatwire.Vector {
	t.Helper()
	table, err := flatwire.Decode(buf)
	require.NoError(t, err)
	vec, ok, err := table.Vector(0)
	require.NoError(t, err)
	require.True(t, ok)
	return vec
}

func TestScalarVector(t *testing.T) {
	values := []int32{3, -1, 4, -1, 5}

	b := flatwire.NewBuilder(0)
	b.StartVector(4, len(values), 4)
	for i := len(values) - 1; i >= 0; i-- {
		b.PrependInt32(values[i])
	}
	vec := decodeVector(t, finishVectorTable(b, b.EndVector(len(values))))

	require.Equal(t, len(values), vec.Len())
	for i, want := range values {
		got, err := vec.Int32At(i)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}
}

func TestFloat64Vector(t *testing.T) {
	values := []float64{0.5, -2.25, 1e10}

	b := flatwire.NewBuilder(0)
	b.StartVector(8, len(values), 8)
	for i := len(values) - 1; i >= 0; i-- {
		b.PrependFloat64(values[i])
	}
	vec := decodeVector(t, finishVectorTable(b, b.EndVector(len(values))))

	require.Equal(t, len(values), vec.Len())
	for i, want := range values {
		got, err := vec.Float64At(i)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}
}

func TestBoolVector(t *testing.T) {
	values := []bool{true, false, true}

	b := flatwire.NewBuilder(0)
	b.StartVector(1, len(values), 1)
	for i := len(values) - 1; i >= 0; i-- {
		b.PrependBool(values[i])
	}
	vec := decodeVector(t, finishVectorTable(b, b.EndVector(len(values))))

	require.Equal(t, len(values), vec.Len())
	for i, want := range values {
		got, err := vec.BoolAt(i)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}
}

func TestStringVector(t *testing.T) {
	values := []string{"moe", "larry", "curly"}

	b := flatwire.NewBuilder(0)
	offs := make([]flatwire.UOffset, len(values))
	for i, s := range values {
		offs[i] = b.CreateString(s)
	}
	b.StartVector(flatwire.SizeUOffset, len(offs), flatwire.SizeUOffset)
	for i := len(offs) - 1; i >= 0; i-- {
		b.PrependUOffset(offs[i])
	}
	vec := decodeVector(t, finishVectorTable(b, b.EndVector(len(offs))))

	require.Equal(t, len(values), vec.Len())
	for i, want := range values {
		got, err := vec.StringAt(i)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}
}

func TestTableVector(t *testing.T) {
	hps := []int32{1, 2, 3}

	b := flatwire.NewBuilder(0)
	offs := make([]flatwire.UOffset, len(hps))
	for i, hp := range hps {
		offs[i] = buildMonster(b, hp, "", 0)
	}
	b.StartVector(flatwire.SizeUOffset, len(offs), flatwire.SizeUOffset)
	for i := len(offs) - 1; i >= 0; i-- {
		b.PrependUOffset(offs[i])
	}
	vec := decodeVector(t, finishVectorTable(b, b.EndVector(len(offs))))

	require.Equal(t, len(hps), vec.Len())
	for i, want := range hps {
		table, err := vec.TableAt(i)
		require.NoError(t, err)
		hp, err := table.Int32(monsterSlotHp, 100)
		require.NoError(t, err)
		require.Equal(t, want, hp)
	}
}

func TestStructVector(t *testing.T) {
	// struct M { a:bool; b:double; } is 16 bytes, aligned to 8.
	type m struct {
		a bool
		b float64
	}
	values := []m{{true, 1.5}, {false, -0.25}}

	b := flatwire.NewBuilder(0)
	b.StartVector(16, len(values), 8)
	for i := len(values) - 1; i >= 0; i-- {
		writeStructM(b, values[i].a, values[i].b)
	}
	vec := decodeVector(t, finishVectorTable(b, b.EndVector(len(values))))

	require.Equal(t, len(values), vec.Len())
	for i, want := range values {
		got := vec.StructAt(i, 16)
		a, err := got.Bool(0)
		require.NoError(t, err)
		require.Equal(t, want.a, a)
		v, err := got.Float64(8)
		require.NoError(t, err)
		require.Equal(t, want.b, v)
	}
}

func TestVectorIndexPanics(t *testing.T) {
	b := flatwire.NewBuilder(0)
	b.StartVector(4, 1, 4)
	b.PrependInt32(7)
	vec := decodeVector(t, finishVectorTable(b, b.EndVector(1)))

	require.Panics(t, func() { _, _ = vec.Int32At(-1) })
	require.Panics(t, func() { _, _ = vec.Int32At(1) })
}

func TestUnionField(t *testing.T) {
	b := flatwire.NewBuilder(0)
	payload := buildMonster(b, 9, "", 0)
	b.StartTable(2)
	b.UnionSlot(1, 1, payload)
	b.Finish(b.EndTable())

	table, err := flatwire.Decode(b.FinishedBytes())
	require.NoError(t, err)

	u, ok, err := table.Union(1)
	require.NoError(t, err)
	require.True(t, ok)
	require.False(t, u.None())
	require.True(t, u.Known(1))
	require.False(t, u.Known(0))
	require.Equal(t, uint8(1), u.Tag)

	hp, err := u.Value.Int32(monsterSlotHp, 100)
	require.NoError(t, err)
	require.Equal(t, int32(9), hp)
}

func TestUnionNone(t *testing.T) {
	b := flatwire.NewBuilder(0)
	b.StartTable(2)
	b.Finish(b.EndTable())

	table, err := flatwire.Decode(b.FinishedBytes())
	require.NoError(t, err)

	u, ok, err := table.Union(1)
	require.NoError(t, err)
	require.False(t, ok)
	require.True(t, u.None())
}

func TestUnionTagWithoutValue(t *testing.T) {
	b := flatwire.NewBuilder(0)
	b.StartTable(2)
	b.Uint8Slot(0, 1, 0)
	b.Finish(b.EndTable())

	table, err := flatwire.Decode(b.FinishedBytes())
	require.NoError(t, err)

	_, _, err = table.Union(1)
	var malformed *flatwire.MalformedBufferError
	require.ErrorAs(t, err, &malformed)
}

func TestUnionSlotCoupling(t *testing.T) {
	b := flatwire.NewBuilder(0)
	payload := buildMonster(b, 9, "", 0)
	b.StartTable(2)
	require.Panics(t, func() { b.UnionSlot(1, 0, payload) })
	require.Panics(t, func() { b.UnionSlot(1, 1, 0) })
}

func TestUnionVector(t *testing.T) {
	b := flatwire.NewBuilder(0)
	first := buildMonster(b, 1, "", 0)
	second := buildMonster(b, 2, "", 0)

	var uv flatwire.UnionVectorBuilder
	uv.Add(1, first)
	uv.AddNone()
	uv.Add(1, second)
	require.Equal(t, 3, uv.Len())

	typeVec, valueVec := uv.Finish(b)
	b.StartTable(2)
	b.UnionVectorSlots(1, typeVec, valueVec)
	b.Finish(b.EndTable())

	table, err := flatwire.Decode(b.FinishedBytes())
	require.NoError(t, err)

	decoded, ok, err := table.UnionVector(1)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 3, decoded.Len())

	u, err := decoded.At(0)
	require.NoError(t, err)
	require.Equal(t, uint8(1), u.Tag)
	hp, err := u.Value.Int32(monsterSlotHp, 100)
	require.NoError(t, err)
	require.Equal(t, int32(1), hp)

	u, err = decoded.At(1)
	require.NoError(t, err)
	require.True(t, u.None())

	u, err = decoded.At(2)
	require.NoError(t, err)
	require.Equal(t, uint8(1), u.Tag)
	hp, err = u.Value.Int32(monsterSlotHp, 100)
	require.NoError(t, err)
	require.Equal(t, int32(2), hp)
}

func TestUnionVectorLengthMismatch(t *testing.T) {
	b := flatwire.NewBuilder(0)

	b.StartVector(1, 2, 1)
	b.PrependUint8(0)
	b.PrependUint8(0)
	typeVec := b.EndVector(2)

	b.StartVector(4, 1, 4)
	b.PrependUint32(0)
	valueVec := b.EndVector(1)

	b.StartTable(2)
	b.UOffsetSlot(0, typeVec)
	b.UOffsetSlot(1, valueVec)
	b.Finish(b.EndTable())

	table, err := flatwire.Decode(b.FinishedBytes())
	require.NoError(t, err)

	_, _, err = table.UnionVector(1)
	var malformed *flatwire.MalformedBufferError
	require.ErrorAs(t, err, &malformed)
}
