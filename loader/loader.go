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

// Package loader resolves a schema file's include graph into a FileTree.
//
// Includes are searched first in the directory of the including file,
// then in the caller's include directories, and are deduplicated by
// canonical path: a file reached through two different include strings,
// a diamond, or a self-include is parsed exactly once.
package loader

import (
	"fmt"
	"os"
	"path/filepath"

	"go.flatwire.org/flatwire/syntax"
)

// A FileTree holds one value per transitively included file, keyed by
// canonical path. Paths preserves load order: the root first, then
// includes depth-first in declaration order.
type FileTree[T any] struct {
	RootPath string
	Root     T
	Files    map[string]T
	Paths    []string
}

// Len returns the number of distinct files in the tree.
func (t *FileTree[T]) Len() int {
	return len(t.Files)
}

// FileNotFoundError reports an include string that matched no file on
// the include path.
type FileNotFoundError struct {
	Path         string
	SearchedDirs []string
}

var _ error = (*FileNotFoundError)(nil)

func (err *FileNotFoundError) Error() string {
	return fmt.Sprintf(
		"include %q not found (searched %v)",
		err.Path, err.SearchedDirs,
	)
}

// ParseError reports a file that failed to parse. Err is the parser's
// error and carries the source position.
type ParseError struct {
	File string
	Err  error
}

var _ error = (*ParseError)(nil)

func (err *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", err.File, err.Err)
}

func (err *ParseError) Unwrap() error {
	return err.Err
}

// Load parses the root schema file and every file it transitively
// includes.
func Load(rootPath string, includeDirs []string) (*FileTree[*syntax.Schema], error) {
	canonRoot, err := canonicalize(rootPath)
	if err != nil {
		return nil, err
	}
	root, err := parseFile(canonRoot)
	if err != nil {
		return nil, err
	}

	tree := &FileTree[*syntax.Schema]{
		RootPath: canonRoot,
		Root:     root,
		Files:    map[string]*syntax.Schema{canonRoot: root},
		Paths:    []string{canonRoot},
	}
	if err := loadIncludes(tree, canonRoot, root, includeDirs); err != nil {
		return nil, err
	}
	return tree, nil
}

func loadIncludes(
	tree *FileTree[*syntax.Schema],
	fromPath string,
	from *syntax.Schema,
	includeDirs []string,
) error {
	for _, include := range from.Includes() {
		canon, err := resolveInclude(include.Path, filepath.Dir(fromPath), includeDirs)
		if err != nil {
			return err
		}
		if _, loaded := tree.Files[canon]; loaded {
			continue
		}
		parsed, err := parseFile(canon)
		if err != nil {
			return err
		}
		tree.Files[canon] = parsed
		tree.Paths = append(tree.Paths, canon)
		if err := loadIncludes(tree, canon, parsed, includeDirs); err != nil {
			return err
		}
	}
	return nil
}

// resolveInclude searches the candidate directories in order and returns
// the canonical path of the first existing match.
func resolveInclude(include, fromDir string, includeDirs []string) (string, error) {
	searched := make([]string, 0, len(includeDirs)+1)
	for _, dir := range append([]string{fromDir}, includeDirs...) {
		candidate := filepath.Join(dir, include)
		if _, err := os.Stat(candidate); err == nil {
			return canonicalize(candidate)
		}
		searched = append(searched, dir)
	}
	return "", &FileNotFoundError{Path: include, SearchedDirs: searched}
}

// canonicalize returns an absolute, symlink-free path, so that two
// spellings of the same file compare equal.
func canonicalize(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", err
	}
	return resolved, nil
}

func parseFile(canonPath string) (*syntax.Schema, error) {
	src, err := os.ReadFile(canonPath)
	if err != nil {
		return nil, err
	}
	parsed, err := syntax.Parse(canonPath, src)
	if err != nil {
		return nil, &ParseError{File: canonPath, Err: err}
	}
	return parsed, nil
}
