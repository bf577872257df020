package pkgfile

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schrebra/storeappx/internal/catalog"
)

const sampleManifest = `<?xml version="1.0" encoding="UTF-8"?>
<Package xmlns="http://schemas.microsoft.com/appx/manifest/foundation/windows10">
  <Identity Name="Microsoft.VCLibs.140.00" Publisher="CN=Microsoft Corporation" Version="14.0.30704.0" ProcessorArchitecture="X64"/>
</Package>`

const sampleBundleManifest = `<?xml version="1.0" encoding="UTF-8"?>
<Bundle xmlns="http://schemas.microsoft.com/appx/2013/bundle">
  <Identity Name="Microsoft.WindowsStore" Publisher="CN=Microsoft Corporation" Version="22110.1401.2.0"/>
</Bundle>`

func writeContainer(t *testing.T, path string, entries map[string]string) {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range entries {
		f, err := zw.Create(name)
		require.NoError(t, err)
		_, err = f.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

func TestInspectPackage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vclibs_x64.appx")
	writeContainer(t, path, map[string]string{
		"AppxManifest.xml": sampleManifest,
		"vclibs.dll":       "binary",
	})

	info, err := Inspect(path)
	require.NoError(t, err)
	assert.Equal(t, catalog.ClassAppx, info.Class)
	assert.False(t, info.Bundle)
	assert.Equal(t, 2, info.Entries)
	assert.Positive(t, info.Size)
	assert.Equal(t, "Microsoft.VCLibs.140.00", info.Identity.Name)
	assert.Equal(t, "CN=Microsoft Corporation", info.Identity.Publisher)
	assert.Equal(t, "14.0.30704.0", info.Identity.Version)
	assert.Equal(t, "x64", info.Identity.Architecture)
}

func TestInspectBundle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.appxbundle")
	writeContainer(t, path, map[string]string{
		"AppxMetadata/AppxBundleManifest.xml": sampleBundleManifest,
		"store_neutral.appx":                  "inner",
	})

	info, err := Inspect(path)
	require.NoError(t, err)
	assert.Equal(t, catalog.ClassAppxBundle, info.Class)
	assert.True(t, info.Bundle)
	assert.Equal(t, "Microsoft.WindowsStore", info.Identity.Name)
	assert.Empty(t, info.Identity.Architecture)
}

func TestInspectMissingManifest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bare.msix")
	writeContainer(t, path, map[string]string{"data.bin": "x"})

	info, err := Inspect(path)
	require.NoError(t, err)
	assert.Empty(t, info.Identity.Name)
	assert.Equal(t, 1, info.Entries)
}

func TestInspectRejectsNonZip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fake.appx")
	require.NoError(t, os.WriteFile(path, []byte("<html>not a package</html>"), 0o644))

	_, err := Inspect(path)
	assert.ErrorContains(t, err, "not a package container")
}

func TestInspectRejectsUnknownExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	_, err := Inspect(path)
	assert.ErrorContains(t, err, "not a recognized package extension")
}

func TestDiscover(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "Paint"), 0o755))
	for _, p := range []string{
		filepath.Join(root, "Paint", "paint.msix"),
		filepath.Join(root, "loose.appxbundle"),
		filepath.Join(root, "readme.md"),
	} {
		require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))
	}

	got, err := Discover(root)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(root, "Paint", "paint.msix"),
		filepath.Join(root, "loose.appxbundle"),
	}, got)
}
