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

package flatwire

import (
	"fmt"
)

// MalformedBufferError reports a buffer that cannot be decoded: it is
// truncated, an offset points outside the buffer, or a union carries a
// nonzero type tag without a value.
type MalformedBufferError struct {
	Reason string
}

var _ error = (*MalformedBufferError)(nil)

func (err *MalformedBufferError) Error() string {
	return "malformed buffer: " + err.Reason
}

func errMalformed(format string, args ...any) error {
	return &MalformedBufferError{Reason: fmt.Sprintf(format, args...)}
}

// MissingFieldError reports that a field the schema marks as required was
// absent from a decoded table.
type MissingFieldError struct {
	Name string
}

var _ error = (*MissingFieldError)(nil)

func (err *MissingFieldError) Error() string {
	return fmt.Sprintf("missing required field %q", err.Name)
}

// MissingField returns the error a reader reports when a required
// reference field is absent. Exported for use by generated accessors.
func MissingField(name string) error {
	return &MissingFieldError{Name: name}
}

// Utf8Error reports invalid UTF-8 in a decoded string.
type Utf8Error struct {
	Reason string
	Byte   uint8
}

var _ error = (*Utf8Error)(nil)

func (err *Utf8Error) Error() string {
	return fmt.Sprintf("invalid UTF-8: %s (byte 0x%02X)", err.Reason, err.Byte)
}

// MissingRequiredError reports an attempt to finish a buffer in which a
// schema-required reference field was never set.
type MissingRequiredError struct {
	FieldPath string
}

var _ error = (*MissingRequiredError)(nil)

func (err *MissingRequiredError) Error() string {
	return fmt.Sprintf("required field %q is not set", err.FieldPath)
}
