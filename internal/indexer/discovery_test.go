package indexer

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for FileDiscovery:
// - With no include patterns every known extension is discovered
// - Ignore patterns prune whole directories, .symdex is always ignored
// - Include patterns restrict results; "**/" patterns also match root files
// - Results are absolute and sorted
// - Invalid glob patterns are rejected at construction

func relAll(t *testing.T, root string, files []string) []string {
	t.Helper()
	out := make([]string, len(files))
	for i, f := range files {
		require.True(t, filepath.IsAbs(f))
		out[i] = relativePath(root, f)
	}
	return out
}

func TestFileDiscovery_DefaultIncludes(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeTree(t, root, sampleTree)

	fd, err := NewFileDiscovery(root, nil, []string{"node_modules/**"})
	require.NoError(t, err)
	files, err := fd.DiscoverFiles()
	require.NoError(t, err)

	assert.Equal(t, []string{
		"config.toml",
		"docs/guide.md",
		"internal/broken.toml",
		"src/lib.rs",
		"src/util.py",
		"web/App.vue",
	}, relAll(t, root, files))
}

func TestFileDiscovery_IncludePatterns(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeTree(t, root, sampleTree)

	fd, err := NewFileDiscovery(root, []string{"**/*.rs", "**/*.toml"}, []string{"internal/**"})
	require.NoError(t, err)
	files, err := fd.DiscoverFiles()
	require.NoError(t, err)

	assert.Equal(t, []string{"config.toml", "src/lib.rs"}, relAll(t, root, files))
}

func TestFileDiscovery_Matches(t *testing.T) {
	t.Parallel()

	fd, err := NewFileDiscovery("/repo", []string{"**/*.go"}, []string{"vendor/**", "*.pb.go"})
	require.NoError(t, err)

	tests := []struct {
		path string
		want bool
	}{
		{"main.go", true},
		{"cmd/tool/main.go", true},
		{"vendor/x/y.go", false},
		{"api.pb.go", false},
		{".symdex/cache.go", false},
		{"README.md", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, fd.Matches(tt.path), tt.path)
	}
}

func TestNewFileDiscovery_InvalidPattern(t *testing.T) {
	t.Parallel()

	_, err := NewFileDiscovery(t.TempDir(), []string{"[unclosed"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid glob pattern")
}
