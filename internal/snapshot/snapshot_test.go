package snapshot

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiff(t *testing.T) {
	tests := []struct {
		name   string
		before []string
		after  []string
		want   []string
	}{
		{
			name:   "new files",
			before: []string{"/w/a", "/w/b"},
			after:  []string{"/w/a", "/w/b", "/w/c", "/w/d"},
			want:   []string{"/w/c", "/w/d"},
		},
		{
			name:   "enumeration order does not matter",
			before: []string{"/w/b", "/w/a"},
			after:  []string{"/w/d", "/w/a", "/w/c", "/w/b"},
			want:   []string{"/w/c", "/w/d"},
		},
		{
			name:   "nothing new",
			before: []string{"/w/a"},
			after:  []string{"/w/a"},
			want:   nil,
		},
		{
			name:   "removed files are not reported",
			before: []string{"/w/a", "/w/b"},
			after:  []string{"/w/b", "/w/c"},
			want:   []string{"/w/c"},
		},
		{
			name:   "empty baseline",
			before: nil,
			after:  []string{"/w/x"},
			want:   []string{"/w/x"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Diff(New("/w", tt.before), New("/w", tt.after))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNew_DeduplicatesAndSorts(t *testing.T) {
	s := New("/w", []string{"/w/b", "/w/a", "/w/b"})
	assert.Equal(t, []string{"/w/a", "/w/b"}, s.Paths())
	assert.Equal(t, 2, s.Len())
	assert.True(t, s.Contains("/w/a"))
	assert.False(t, s.Contains("/w/c"))
}

func TestTake(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.mp4"), []byte("b"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.mp4"), []byte("a"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "nested", "c.mp4"), []byte("c"), 0o644))

	s, err := Take(dir)
	require.NoError(t, err)

	abs, err := filepath.Abs(dir)
	require.NoError(t, err)
	assert.Equal(t, abs, s.Dir())
	assert.Equal(t, []string{
		filepath.Join(abs, "a.mp4"),
		filepath.Join(abs, "b.mp4"),
	}, s.Paths())
}

func TestTake_ThenDiff(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "leftover.part"), nil, 0o644))

	before, err := Take(dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "clip.mp4"), []byte("video"), 0o644))

	after, err := Take(dir)
	require.NoError(t, err)

	assert.Equal(t, []string{filepath.Join(before.Dir(), "clip.mp4")}, Diff(before, after))
}

func TestTake_MissingDir(t *testing.T) {
	_, err := Take(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestPaths_ReturnsCopy(t *testing.T) {
	s := New("/w", []string{"/w/a"})
	p := s.Paths()
	p[0] = "/w/z"
	assert.Equal(t, []string{"/w/a"}, s.Paths())
}
