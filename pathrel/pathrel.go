// Package pathrel normalizes filesystem paths and classifies the
// relationship between a query path and a candidate path. It is the sole
// matching primitive shared by the state store and the lock registry, so
// both signal sources agree on what "same project" means.
package pathrel

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// Relation classifies a candidate path against a base path.
type Relation int

const (
	// None means the paths share no ancestry in either direction.
	None Relation = iota
	// Exact means the normalized paths are identical.
	Exact
	// Child means the candidate is the base extended by one or more path
	// segments (e.g. the agent cd'd into a subdirectory of the project).
	Child
	// Parent means the base is an extension of the candidate (the candidate
	// is an ancestor, e.g. a session started at the filesystem root).
	Parent
)

func (r Relation) String() string {
	switch r {
	case Exact:
		return "exact"
	case Child:
		return "child"
	case Parent:
		return "parent"
	}
	return "none"
}

// Normalize produces a canonical form of path suitable for comparisons:
// home shorthand expanded, made absolute, symlinks resolved where the path
// exists, trailing separator stripped (except for the root path itself),
// and case folded on case-insensitive filesystems.
func Normalize(path string) (string, error) {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		path = filepath.Join(home, strings.TrimPrefix(path, "~"))
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}

	// Resolve symlinks when possible. The path may describe a directory
	// that no longer exists (session ended, project deleted); fall back to
	// the cleaned absolute path in that case.
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		resolved = abs
	}

	resolved = filepath.Clean(resolved)

	if runtime.GOOS == "darwin" || runtime.GOOS == "windows" {
		resolved = strings.ToLower(resolved)
	}

	return resolved, nil
}

// Relate classifies candidate against base. Both inputs must already be
// normalized; Relate performs only structural comparison.
func Relate(base, candidate string) Relation {
	if base == candidate {
		return Exact
	}
	if isBelow(base, candidate) {
		return Child
	}
	if isBelow(candidate, base) {
		return Parent
	}
	return None
}

// isBelow reports whether path is strictly inside root.
func isBelow(root, path string) bool {
	sep := string(filepath.Separator)
	if root == sep {
		return strings.HasPrefix(path, sep) && path != sep
	}
	return strings.HasPrefix(path, root+sep)
}

// Depth returns the number of path segments, used to rank competing
// matches: among several related candidates the one closest to the query
// (deepest common root) wins.
func Depth(path string) int {
	path = filepath.Clean(path)
	if path == string(filepath.Separator) {
		return 0
	}
	return strings.Count(path, string(filepath.Separator))
}

// Closer reports whether relation a beats relation b under the tie-break
// rule: Exact over Child over Parent over None.
func Closer(a, b Relation) bool {
	return rank(a) < rank(b)
}

func rank(r Relation) int {
	switch r {
	case Exact:
		return 0
	case Child:
		return 1
	case Parent:
		return 2
	}
	return 3
}
