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

// Package testutil has helpers for tests of the wire codec.
package testutil

import (
	"encoding/hex"
	"testing"

	"github.com/pmezard/go-difflib/difflib"
)

// Hexdump formats a buffer as `hexdump -C` style lines.
func Hexdump(buf []byte) string {
	return hex.Dump(buf)
}

// AssertBytesEqual fails the test with a unified hexdump diff when two
// buffers differ.
func AssertBytesEqual(t *testing.T, want, got []byte) {
	t.Helper()
	if string(want) == string(got) {
		return
	}
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(Hexdump(want)),
		B:        difflib.SplitLines(Hexdump(got)),
		FromFile: "want",
		ToFile:   "got",
		Context:  3,
	})
	if err != nil {
		t.Fatalf("diff: %v", err)
	}
	t.Fatalf("buffers differ:\n%s", diff)
}
