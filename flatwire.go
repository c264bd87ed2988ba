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

// Package flatwire implements the flatwire binary encoding.
//
// An encoded buffer begins with a 4-byte unsigned offset to its root table.
// Tables dispatch field access through a per-table virtual table of 16-bit
// offsets, so fields may be absent (taking their schema default) and new
// fields may be appended without breaking old readers. Structs are
// fixed-layout and stored inline. Unions pair a one-byte type tag with a
// table offset. All multi-byte values are little-endian.
//
// Decoding is zero-copy: a Table, Struct, Vector, or Union handle borrows
// the caller's byte buffer and must not outlive it. Handles over the same
// buffer may be read from multiple goroutines concurrently as long as the
// buffer itself is not mutated.
//
// Encoding uses a Builder, which writes the buffer back to front so that
// every value's final address is known before any offset to it is written.
// A Builder must not be shared between goroutines.
package flatwire

// UOffset is an unsigned 32-bit offset, pointing forward from its own
// address toward the end of the buffer.
//
// While a Builder is under construction, UOffset values returned by its
// methods are measured from the end of the written region instead. The two
// views coincide once the buffer is finished.
type UOffset uint32

// SOffset is a signed 32-bit offset from a table to its vtable.
type SOffset int32

// VOffset is an unsigned 16-bit offset from a table to one of its fields.
type VOffset uint16

const (
	SizeUOffset = 4
	SizeSOffset = 4
	SizeVOffset = 2
)

// MaxBufferSize is the largest buffer the codec will read or write.
//
// Wire offsets are nominally unsigned, but confining buffers to 2^31-1
// bytes lets offset arithmetic use signed 32-bit integers without
// overflow.
const MaxBufferSize = 1<<31 - 1

// FileIdentifierLen is the exact length of a file identifier.
const FileIdentifierLen = 4

// fieldSlot converts a zero-based field slot id to its byte offset within
// a vtable. Slots start after the vtable size and table size entries.
func fieldSlot(slot uint16) VOffset {
	return VOffset(2*SizeVOffset + 2*slot)
}
