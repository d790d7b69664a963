// Package snapshot discovers files created in a directory by comparing two
// listings of it.
//
// Diffing assumes a single writer per directory. Two workers sharing a
// directory would pick up each other's files.
package snapshot

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// Snapshot is the sorted set of absolute regular-file paths in one directory
// at one instant.
type Snapshot struct {
	dir   string
	paths []string
	index map[string]struct{}
}

// Take lists the regular files directly inside dir. Subdirectories are not
// descended into.
func Take(dir string) (Snapshot, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return Snapshot{}, fmt.Errorf("resolve %s: %w", dir, err)
	}

	entries, err := os.ReadDir(abs)
	if err != nil {
		return Snapshot{}, fmt.Errorf("list %s: %w", abs, err)
	}

	paths := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		paths = append(paths, filepath.Join(abs, entry.Name()))
	}
	return New(abs, paths), nil
}

// New builds a snapshot from an explicit path list.
func New(dir string, paths []string) Snapshot {
	s := Snapshot{
		dir:   dir,
		paths: make([]string, 0, len(paths)),
		index: make(map[string]struct{}, len(paths)),
	}
	for _, p := range paths {
		if _, dup := s.index[p]; dup {
			continue
		}
		s.index[p] = struct{}{}
		s.paths = append(s.paths, p)
	}
	sort.Strings(s.paths)
	return s
}

// Dir returns the directory the snapshot was taken of.
func (s Snapshot) Dir() string { return s.dir }

// Paths returns a copy of the sorted paths.
func (s Snapshot) Paths() []string {
	out := make([]string, len(s.paths))
	copy(out, s.paths)
	return out
}

// Len returns the number of paths.
func (s Snapshot) Len() int { return len(s.paths) }

// Contains reports whether path is in the snapshot.
func (s Snapshot) Contains(path string) bool {
	_, ok := s.index[path]
	return ok
}

// Diff returns the sorted paths present in after but not in before.
func Diff(before, after Snapshot) []string {
	var added []string
	for _, p := range after.paths {
		if !before.Contains(p) {
			added = append(added, p)
		}
	}
	return added
}
