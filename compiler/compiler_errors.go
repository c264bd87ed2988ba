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
	"fmt"
	"strings"
)

// Error is a validation failure. Context is the dotted path of the
// entity being validated when the failure was found; it may be empty
// for file-level declarations.
type Error struct {
	Context string
	Message string
}

var _ error = (*Error)(nil)

func (err *Error) Error() string {
	if err.Context == "" {
		return err.Message
	}
	return "[" + err.Context + "]: " + err.Message
}

// path extends an error-context path by one element.
func path(ctx, elem string) string {
	if ctx == "" {
		return elem
	}
	return ctx + "." + elem
}

func errDuplicateDecl(ctx, name string) error {
	return &Error{
		Context: ctx,
		Message: fmt.Sprintf("duplicate declaration of %q", name),
	}
}

func errDuplicateIdents(ctx string, names []string) error {
	return &Error{
		Context: ctx,
		Message: "duplicate identifiers: " + strings.Join(names, ", "),
	}
}

func errTypeNotFound(ctx string, ref string, candidates []string) error {
	searched := make([]string, len(candidates))
	for i, c := range candidates {
		if c == "" {
			c = "<root>"
		}
		searched[i] = c
	}
	return &Error{
		Context: ctx,
		Message: fmt.Sprintf(
			"type %q not found (searched namespaces: %s)",
			ref, strings.Join(searched, ", "),
		),
	}
}

func errEnumBaseInvalid(ctx, spelling string) error {
	return &Error{
		Context: ctx,
		Message: fmt.Sprintf(
			"enum underlying type must be an integer primitive, not %q",
			spelling,
		),
	}
}

func errEnumEmpty(ctx string) error {
	return &Error{Context: ctx, Message: "enum must declare at least one variant"}
}

func errBitFlagsUnsupported(ctx string) error {
	return &Error{Context: ctx, Message: "bit_flags enums are not supported"}
}

func errNotAscending(ctx, variant string) error {
	return &Error{
		Context: ctx,
		Message: fmt.Sprintf("enum values must be ascending (at variant %q)", variant),
	}
}

func errOutOfRange(ctx, what string, base BaseType) error {
	return &Error{
		Context: ctx,
		Message: fmt.Sprintf("value %s is out of range for %s", what, base),
	}
}

func errCyclicStruct(ctx string, chain []string) error {
	return &Error{
		Context: ctx,
		Message: "cyclic dependency [" + strings.Join(chain, " -> ") + "]",
	}
}

func errStructEmpty(ctx string) error {
	return &Error{Context: ctx, Message: "struct must declare at least one field"}
}

func errStructFieldType(ctx, spelling string) error {
	return &Error{
		Context: ctx,
		Message: fmt.Sprintf(
			"struct fields must be scalars, enums, or structs, not %q",
			spelling,
		),
	}
}

func errStructFieldAttr(ctx, attr string) error {
	return &Error{
		Context: ctx,
		Message: fmt.Sprintf("attribute %q is not allowed on struct fields", attr),
	}
}

func errStructTooLarge(ctx string) error {
	return &Error{Context: ctx, Message: "struct exceeds the maximum size of 65535 bytes"}
}

func errInvalidForceAlign(ctx, value string, natural uint16) error {
	return &Error{
		Context: ctx,
		Message: fmt.Sprintf(
			"force_align must be a power of two between %d and 16, got %s",
			natural, value,
		),
	}
}

func errRequiredOnScalar(ctx string) error {
	return &Error{
		Context: ctx,
		Message: "only non-scalar fields (string, vector, table, struct, union) may be required",
	}
}

func errDefaultOnNonScalar(ctx string) error {
	return &Error{
		Context: ctx,
		Message: "default values are only supported for scalar, bool, float, and enum fields",
	}
}

func errDefaultType(ctx, expected string) error {
	return &Error{
		Context: ctx,
		Message: fmt.Sprintf("default value must be %s", expected),
	}
}

func errUnknownDefaultVariant(ctx, value string) error {
	return &Error{
		Context: ctx,
		Message: fmt.Sprintf("default %s does not name an enum variant", value),
	}
}

func errNoZeroVariant(ctx string) error {
	return &Error{
		Context: ctx,
		Message: "enum has no variant with value 0; an explicit default is required",
	}
}

func errMissingId(ctx, field string) error {
	return &Error{
		Context: ctx,
		Message: fmt.Sprintf(
			"field %q has no id attribute; ids must be set on all fields or none",
			field,
		),
	}
}

func errInvalidId(ctx, field string) error {
	return &Error{
		Context: ctx,
		Message: fmt.Sprintf("field %q has an invalid id attribute", field),
	}
}

func errIdGap(ctx, field string, expected, got uint16) error {
	return &Error{
		Context: ctx,
		Message: fmt.Sprintf(
			"field %q has id %d, expected %d (ids must be consecutive)",
			field, got, expected,
		),
	}
}

func errUnionIdGap(ctx, field string, expected, got uint16) error {
	return &Error{
		Context: ctx,
		Message: fmt.Sprintf(
			"union field %q has id %d, expected %d (a union leaves a gap for its type slot)",
			field, got, expected,
		),
	}
}

func errTableFieldType(ctx, spelling string) error {
	return &Error{
		Context: ctx,
		Message: fmt.Sprintf("%q is not a valid table field type", spelling),
	}
}

func errVectorElementType(ctx, spelling string) error {
	return &Error{
		Context: ctx,
		Message: fmt.Sprintf("%q is not a valid vector element type", spelling),
	}
}

func errUnionOfNonTable(ctx, ref string) error {
	return &Error{
		Context: ctx,
		Message: fmt.Sprintf("union variant %q must reference a table", ref),
	}
}

func errUnionEmpty(ctx string) error {
	return &Error{Context: ctx, Message: "union must declare at least one variant"}
}

func errUnionTooLarge(ctx string) error {
	return &Error{Context: ctx, Message: "union has more than 255 variants"}
}

func errRootTypeNotTable(ctx, ref string) error {
	return &Error{
		Context: ctx,
		Message: fmt.Sprintf("root_type %q must reference a table", ref),
	}
}

func errMultipleRootTypes(ctx string) error {
	return &Error{Context: ctx, Message: "a root type is already declared"}
}

func errInvalidFileIdentifier(ctx, value string) error {
	return &Error{
		Context: ctx,
		Message: fmt.Sprintf(
			"file identifier %q must be exactly 4 ASCII characters",
			value,
		),
	}
}
