// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 JamHost Contributors

// Package scan enumerates candidate plugin libraries next to the host
// executable.
package scan

import (
	"iter"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gobwas/glob"
	"github.com/samber/oops"

	"github.com/jamhost/jamhost/internal/logging"
)

// Error codes returned by Open.
const (
	CodeExecutableUnresolved = "SCAN_EXECUTABLE_UNRESOLVED"
	CodeDirectoryUnreadable  = "SCAN_DIRECTORY_UNREADABLE"
)

// pattern matches file names following the platform's shared library
// convention.
var pattern = glob.MustCompile(LibraryPrefix + "*" + LibrarySuffix)

// Matches reports whether name follows the platform's shared library naming
// convention.
func Matches(name string) bool {
	return pattern.Match(name)
}

// Candidate is a file that looks like a loadable library by name.
type Candidate struct {
	Name string
	Path string
}

// Scanner walks the directory holding the host executable.
type Scanner struct {
	dir     string
	entries []os.DirEntry
	next    int
	logger  *slog.Logger
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithLogger sets the logger for skipped entries.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scanner) {
		s.logger = l
	}
}

// Open resolves exePath to an absolute, symlink-free path and lists the
// directory containing it. Entries are visited in file name order.
func Open(exePath string, opts ...Option) (*Scanner, error) {
	abs, err := filepath.Abs(exePath)
	if err != nil {
		return nil, oops.Code(CodeExecutableUnresolved).With("path", exePath).Wrapf(err, "resolve executable path")
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, oops.Code(CodeExecutableUnresolved).With("path", abs).Wrapf(err, "resolve executable symlinks")
	}

	dir := filepath.Dir(resolved)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, oops.Code(CodeDirectoryUnreadable).With("dir", dir).Wrapf(err, "list plugin directory")
	}

	s := &Scanner{dir: dir, entries: entries, logger: logging.Discard()}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Dir returns the directory being scanned.
func (s *Scanner) Dir() string {
	return s.dir
}

// Candidates returns the candidate libraries in the directory. The listing is
// taken once by Open; classifying an entry happens only when the sequence
// reaches it. An entry is never yielded twice: iterating again resumes where
// the previous iteration stopped.
func (s *Scanner) Candidates() iter.Seq[Candidate] {
	return func(yield func(Candidate) bool) {
		for s.next < len(s.entries) {
			entry := s.entries[s.next]
			s.next++

			c, ok := s.candidate(entry)
			if !ok {
				continue
			}
			if !yield(c) {
				return
			}
		}
	}
}

func (s *Scanner) candidate(entry os.DirEntry) (Candidate, bool) {
	name := entry.Name()
	if !Matches(name) {
		return Candidate{}, false
	}

	path := filepath.Join(s.dir, name)
	mode := entry.Type()
	if mode&os.ModeSymlink != 0 {
		info, err := os.Stat(path)
		if err != nil {
			s.logger.Debug("skipping unreadable entry", "path", path, "error", err)
			return Candidate{}, false
		}
		mode = info.Mode()
	}
	if !mode.IsRegular() {
		return Candidate{}, false
	}

	return Candidate{Name: name, Path: path}, true
}
