// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 JamHost Contributors

package scan

import (
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"pgregory.net/rapid"

	"github.com/jamhost/jamhost/pkg/errutil"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func lib(name string) string {
	return LibraryPrefix + name + LibrarySuffix
}

func writeFile(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))
}

// hostDir creates a directory holding a fake host executable and returns the
// resolved directory and the executable path.
func hostDir(t *testing.T) (string, string) {
	t.Helper()
	dir, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	exe := filepath.Join(dir, "jamhost")
	writeFile(t, exe)
	return dir, exe
}

func collect(s *Scanner) []string {
	var names []string
	for c := range s.Candidates() {
		names = append(names, c.Name)
	}
	return names
}

func TestScanner_EmptyDirectory(t *testing.T) {
	_, exe := hostDir(t)

	s, err := Open(exe)
	require.NoError(t, err)
	assert.Empty(t, collect(s))
}

func TestScanner_FiltersByNameAndType(t *testing.T) {
	dir, exe := hostDir(t)
	writeFile(t, filepath.Join(dir, lib("control")))
	writeFile(t, filepath.Join(dir, lib("storage")))
	writeFile(t, filepath.Join(dir, "control.txt"))
	writeFile(t, filepath.Join(dir, lib("notes")+".bak"))
	require.NoError(t, os.Mkdir(filepath.Join(dir, lib("dir")), 0o750))

	s, err := Open(exe)
	require.NoError(t, err)

	assert.Equal(t, []string{lib("control"), lib("storage")}, collect(s))
}

func TestScanner_NameOrder(t *testing.T) {
	dir, exe := hostDir(t)
	for _, name := range []string{"zeta", "alpha", "mid"} {
		writeFile(t, filepath.Join(dir, lib(name)))
	}

	s, err := Open(exe)
	require.NoError(t, err)

	got := collect(s)
	assert.True(t, slices.IsSorted(got), "candidates not in name order: %v", got)
	assert.Len(t, got, 3)
}

func TestScanner_CandidatePaths(t *testing.T) {
	dir, exe := hostDir(t)
	writeFile(t, filepath.Join(dir, lib("control")))

	s, err := Open(exe)
	require.NoError(t, err)
	assert.Equal(t, dir, s.Dir())

	for c := range s.Candidates() {
		assert.Equal(t, filepath.Join(dir, lib("control")), c.Path)
		assert.True(t, filepath.IsAbs(c.Path))
	}
}

func TestScanner_NotRestartable(t *testing.T) {
	dir, exe := hostDir(t)
	writeFile(t, filepath.Join(dir, lib("a")))
	writeFile(t, filepath.Join(dir, lib("b")))

	s, err := Open(exe)
	require.NoError(t, err)

	for range s.Candidates() {
		break
	}
	assert.Equal(t, []string{lib("b")}, collect(s), "second iteration resumes after the first")
	assert.Empty(t, collect(s), "exhausted sequence yields nothing")
}

func TestScanner_ListsAtOpenClassifiesLazily(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on windows")
	}
	dir, exe := hostDir(t)
	writeFile(t, filepath.Join(dir, lib("a")))
	target := filepath.Join(dir, "target")
	writeFile(t, target)
	require.NoError(t, os.Symlink(target, filepath.Join(dir, lib("b"))))

	s, err := Open(exe)
	require.NoError(t, err)

	writeFile(t, filepath.Join(dir, lib("c")))
	require.NoError(t, os.Remove(target))

	assert.Equal(t, []string{lib("a")}, collect(s),
		"files added after Open are not listed and links broken after Open are skipped")
}

func TestScanner_FollowsExecutableSymlink(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on windows")
	}
	dir, exe := hostDir(t)
	writeFile(t, filepath.Join(dir, lib("control")))

	elsewhere := t.TempDir()
	link := filepath.Join(elsewhere, "jamhost")
	require.NoError(t, os.Symlink(exe, link))
	writeFile(t, filepath.Join(elsewhere, lib("decoy")))

	s, err := Open(link)
	require.NoError(t, err)

	assert.Equal(t, dir, s.Dir())
	assert.Equal(t, []string{lib("control")}, collect(s))
}

func TestScanner_SymlinkedLibraries(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on windows")
	}
	dir, exe := hostDir(t)
	target := filepath.Join(dir, lib("control")+".1")
	writeFile(t, target)
	require.NoError(t, os.Symlink(target, filepath.Join(dir, lib("control"))))
	require.NoError(t, os.Symlink(filepath.Join(dir, "absent"), filepath.Join(dir, lib("dangling"))))
	require.NoError(t, os.Symlink(t.TempDir(), filepath.Join(dir, lib("subdir"))))

	s, err := Open(exe)
	require.NoError(t, err)

	assert.Equal(t, []string{lib("control")}, collect(s), "dangling and directory links are skipped")
}

func TestScanner_UnresolvableExecutable(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing", "jamhost"))
	errutil.AssertErrorCode(t, err, CodeExecutableUnresolved)
}

func TestScanner_UnreadableDirectory(t *testing.T) {
	if runtime.GOOS == "windows" || os.Getuid() == 0 {
		t.Skip("permission bits are not enforced")
	}
	dir, exe := hostDir(t)
	require.NoError(t, os.Chmod(dir, 0o300))
	t.Cleanup(func() { _ = os.Chmod(dir, 0o700) })

	_, err := Open(exe)
	errutil.AssertErrorCode(t, err, CodeDirectoryUnreadable)
	errutil.AssertErrorContext(t, err, "dir", dir)
}

func TestMatches(t *testing.T) {
	assert.True(t, Matches(lib("control")))
	assert.True(t, Matches(lib("")))
	assert.False(t, Matches("control.txt"))
	assert.False(t, Matches(lib("control")+".1"))
}

func TestMatches_Property(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		name := rapid.OneOf(
			rapid.String(),
			rapid.Map(rapid.String(), lib),
		).Draw(t, "name")

		want := strings.HasPrefix(name, LibraryPrefix) &&
			strings.HasSuffix(name, LibrarySuffix) &&
			len(name) >= len(LibraryPrefix)+len(LibrarySuffix)
		if got := Matches(name); got != want {
			t.Fatalf("Matches(%q) = %v, want %v", name, got, want)
		}
	})
}
