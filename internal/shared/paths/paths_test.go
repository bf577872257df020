package paths

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigLocationsShareOneDirectory(t *testing.T) {
	dir, err := ConfigDir()
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(dir))
	assert.Equal(t, "storeappx", filepath.Base(dir))

	file, err := ConfigFile()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "config.toml"), file)

	catalog, err := UserCatalog()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "apps.yaml"), catalog)
}

func TestDownloadRootNamesTheTool(t *testing.T) {
	root := DownloadRoot()
	assert.NotEmpty(t, root)
	assert.Equal(t, "storeappx", filepath.Base(root))
}
