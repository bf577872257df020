package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore plays the catalog service and the delivery CDN at once.
func newFakeStore(t *testing.T, names ...string) *httptest.Server {
	t.Helper()
	files := make(map[string][]byte)
	for _, n := range names {
		files[n] = append([]byte("PK\x03\x04"), []byte(n)...)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/GetFiles", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html><body><table>")
		for _, name := range names {
			fmt.Fprintf(w, `<tr><td><a href="http://%s/pkg/%s">%s</a></td></tr>`, r.Host, name, name)
		}
		fmt.Fprint(w, "</table></body></html>")
	})
	mux.HandleFunc("/pkg/", func(w http.ResponseWriter, r *http.Request) {
		name := path.Base(r.URL.Path)
		payload, ok := files[name]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Disposition", "attachment; filename="+name)
		w.Header().Set("Content-Length", strconv.Itoa(len(payload)))
		if r.Method == http.MethodHead {
			return
		}
		w.Write(payload)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestDownloadCustomURLEndToEnd(t *testing.T) {
	srv := newFakeStore(t, "App_1.0_x64.appx", "Deps_2.0_neutral.appxbundle")
	dest := t.TempDir()

	out, err := runCLI(t, "download",
		"--url", "https://apps.microsoft.com/detail/9nblggh5fv99",
		"--dest", dest,
		"--arch", "x64",
		"--endpoint", srv.URL+"/api/GetFiles",
	)
	require.NoError(t, err)
	assert.Contains(t, out, "completed:")
	assert.Contains(t, out, "2 downloaded")

	assert.FileExists(t, filepath.Join(dest, "App_1.0_x64.appx"))
	assert.FileExists(t, filepath.Join(dest, "Deps_2.0_neutral.appxbundle"))

	// The default report path lands next to the downloads.
	reports, err := filepath.Glob(filepath.Join(dest, "storeappx-run-*.json"))
	require.NoError(t, err)
	require.Len(t, reports, 1)

	raw, err := os.ReadFile(reports[0])
	require.NoError(t, err)
	var rep struct {
		State           string `json:"state"`
		FilesDownloaded int    `json:"files_downloaded"`
		Files           []struct {
			File string `json:"file"`
		} `json:"files"`
	}
	require.NoError(t, json.Unmarshal(raw, &rep))
	assert.Equal(t, "completed", rep.State)
	assert.Equal(t, 2, rep.FilesDownloaded)
	assert.Len(t, rep.Files, 2)
}

func TestDownloadSecondPassReportsNothingToDo(t *testing.T) {
	srv := newFakeStore(t, "App_1.0_x64.appx")
	dest := t.TempDir()
	args := []string{"download",
		"--url", "https://apps.microsoft.com/detail/9nblggh5fv99",
		"--dest", dest,
		"--arch", "x64",
		"--endpoint", srv.URL + "/api/GetFiles",
		"--no-report",
	}

	_, err := runCLI(t, args...)
	require.NoError(t, err)

	out, err := runCLI(t, args...)
	require.NoError(t, err)
	assert.Contains(t, out, "nothing to do")
	assert.Contains(t, out, "1 already present")

	// --no-report leaves the destination free of report files.
	reports, err := filepath.Glob(filepath.Join(dest, "storeappx-run-*.json"))
	require.NoError(t, err)
	assert.Empty(t, reports)
}

func TestDownloadAppTargetWritesPerTargetDirectory(t *testing.T) {
	srv := newFakeStore(t, "Terminal_1.18_x64.msixbundle")
	dest := t.TempDir()

	out, err := runCLI(t, "download", "windows-terminal",
		"--dest", dest,
		"--arch", "x64",
		"--endpoint", srv.URL+"/api/GetFiles",
		"--no-report",
	)
	require.NoError(t, err)
	assert.Contains(t, out, "completed:")
	assert.FileExists(t, filepath.Join(dest, "Windows Terminal", "Terminal_1.18_x64.msixbundle"))
}

func TestDownloadUnreachableCatalogFails(t *testing.T) {
	// Keep the failure fast; retries are config-driven.
	t.Setenv("STOREAPPX_HTTP_RETRY_MAX", "0")
	dead := httptest.NewServer(http.NotFoundHandler())
	dead.Close()
	dest := t.TempDir()

	out, err := runCLI(t, "download",
		"--url", "https://apps.microsoft.com/detail/9nblggh5fv99",
		"--dest", dest,
		"--endpoint", dead.URL+"/api/GetFiles",
		"--no-report",
	)
	assert.Equal(t, exitFailed, exitCodeOf(err))
	assert.Contains(t, out, "failed:")
}
