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

package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"go.flatwire.org/flatwire/compiler"
	"go.flatwire.org/flatwire/loader"
)

type cmdCheck struct {
	includeDirs []string
	verbose     bool
}

func (*cmdCheck) help() *commandHelp {
	return &commandHelp{
		usage:   "check SCHEMA",
		summary: "Parse and validate a schema and its includes",
	}
}

func (cmd *cmdCheck) flags(flags *pflag.FlagSet) {
	flags.StringArrayVarP(&cmd.includeDirs, "include-dir", "I", nil,
		"Directory to search for included schemas (repeatable)")
	flags.BoolVarP(&cmd.verbose, "verbose", "v", false,
		"Trace schema loading and validation progress")
}

func (cmd *cmdCheck) run(ctx context.Context, argv []string) int {
	if len(argv) != 1 {
		fmt.Fprintln(os.Stderr, "usage: flatwirec check SCHEMA [-I DIR]...")
		return 1
	}

	logLevel := zerolog.Disabled
	if cmd.verbose {
		logLevel = zerolog.DebugLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(logLevel).
		With().Timestamp().Logger()

	loadStart := time.Now()
	tree, err := loader.Load(argv[0], cmd.includeDirs)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	log.Debug().
		Int("files", tree.Len()).
		Dur("elapsed", time.Since(loadStart)).
		Msg("schema tree loaded")
	for _, path := range tree.Paths {
		log.Debug().Str("path", path).Msg("loaded file")
	}

	compileStart := time.Now()
	schema, err := compiler.Compile(tree)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	log.Debug().
		Int("enums", len(schema.Enums)).
		Int("structs", len(schema.Structs)).
		Int("tables", len(schema.Tables)).
		Int("unions", len(schema.Unions)).
		Dur("elapsed", time.Since(compileStart)).
		Msg("schema validated")

	return 0
}
