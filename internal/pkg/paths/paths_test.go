package paths

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetDataDirOverride(t *testing.T) {
	assert.Equal(t, "/srv/ava", GetDataDir("/srv/ava"))
	assert.NotEmpty(t, GetDataDir(""))
}

func TestResolve(t *testing.T) {
	assert.Equal(t, filepath.Join("/data", "companies.csv"), Resolve("/data", "companies.csv"))
	assert.Equal(t, "/tmp/t.csv", Resolve("/data", "/tmp/t.csv"))
	assert.Empty(t, Resolve("/data", ""))
}

func TestEnsureDir(t *testing.T) {
	dir, err := EnsureDir(GetExportDir(t.TempDir()))
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.Equal(t, "exports", filepath.Base(dir))
}
