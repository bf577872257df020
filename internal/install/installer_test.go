package install

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePrimitive records install order and fails for configured names.
type fakePrimitive struct {
	installed []string
	failFor   map[string]bool
}

func (f *fakePrimitive) Install(ctx context.Context, path string) error {
	name := filepath.Base(path)
	if f.failFor[name] {
		return errors.New("deployment rejected")
	}
	f.installed = append(f.installed, name)
	return nil
}

func writeFiles(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}
}

func TestInstallDirectoryPlainBeforeBundles(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir,
		"zz_store.appxbundle",
		"aa_vclibs.appx",
		"mm_frame.msixbundle",
		"bb_paint.msix",
		"notes.txt",
		"pkg.appx.BlockMap",
	)

	fake := &fakePrimitive{}
	res, err := New(fake, nil).InstallDirectory(context.Background(), dir)

	require.NoError(t, err)
	assert.Equal(t, 4, res.Installed)
	assert.Zero(t, res.Failed)
	assert.Equal(t, []string{
		"aa_vclibs.appx",
		"bb_paint.msix",
		"mm_frame.msixbundle",
		"zz_store.appxbundle",
	}, fake.installed)
}

func TestInstallDirectoryIsolatesFailures(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "a.appx", "b.appx", "c.appxbundle")

	fake := &fakePrimitive{failFor: map[string]bool{"b.appx": true}}
	res, err := New(fake, nil).InstallDirectory(context.Background(), dir)

	require.NoError(t, err)
	assert.Equal(t, 2, res.Installed)
	assert.Equal(t, 1, res.Failed)
	require.Len(t, res.Errors, 1)
	assert.True(t, IsInstallError(res.Errors[0]))
	assert.Equal(t, []string{"a.appx", "c.appxbundle"}, fake.installed)
}

func TestInstallDirectoryEmpty(t *testing.T) {
	res, err := New(&fakePrimitive{}, nil).InstallDirectory(context.Background(), t.TempDir())

	require.NoError(t, err)
	assert.Zero(t, res.Installed)
	assert.Zero(t, res.Failed)
}

func TestInstallTreeWalksSubdirectories(t *testing.T) {
	base := t.TempDir()
	writeFiles(t, base, "loose.appx")
	for dir, names := range map[string][]string{
		"Microsoft Paint": {"paint.msix", "vclibs.appx"},
		"Notepad":         {"notepad.appxbundle"},
		"Empty":           {},
	} {
		require.NoError(t, os.MkdirAll(filepath.Join(base, dir), 0o755))
		writeFiles(t, filepath.Join(base, dir), names...)
	}

	fake := &fakePrimitive{}
	results, err := New(fake, nil).InstallTree(context.Background(), base)

	require.NoError(t, err)
	// Loose files first, then subdirectories in name order.
	require.Len(t, results, 4)
	assert.Equal(t, base, results[0].Dir)
	assert.Equal(t, 1, results[0].Installed)
	assert.Equal(t, filepath.Join(base, "Empty"), results[1].Dir)
	assert.Zero(t, results[1].Installed)
	assert.Equal(t, filepath.Join(base, "Microsoft Paint"), results[2].Dir)
	assert.Equal(t, 2, results[2].Installed)
	assert.Equal(t, filepath.Join(base, "Notepad"), results[3].Dir)
	assert.Equal(t, 1, results[3].Installed)

	assert.Equal(t, []string{
		"loose.appx",
		"vclibs.appx", "paint.msix",
		"notepad.appxbundle",
	}, fake.installed)
}

func TestInstallTreeSkipsBaseEntryWithoutLooseFiles(t *testing.T) {
	base := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(base, "App"), 0o755))
	writeFiles(t, filepath.Join(base, "App"), "app.msix")

	results, err := New(&fakePrimitive{}, nil).InstallTree(context.Background(), base)

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, filepath.Join(base, "App"), results[0].Dir)
}

func TestInstallDirectoryStopsOnCancel(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "a.appx")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(&fakePrimitive{}, nil).InstallDirectory(ctx, dir)

	assert.ErrorIs(t, err, context.Canceled)
}

func TestPowerShellRefusesNonWindows(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("only meaningful off Windows")
	}
	err := NewPowerShell("powershell", nil).Install(context.Background(), "/tmp/pkg.appx")
	assert.ErrorIs(t, err, ErrUnsupportedPlatform)
}

func TestPSQuote(t *testing.T) {
	assert.Equal(t, `'C:\p\a.appx'`, psQuote(`C:\p\a.appx`))
	assert.Equal(t, `'it''s here.appx'`, psQuote(`it's here.appx`))
}
