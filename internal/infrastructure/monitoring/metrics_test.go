package monitoring

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndependentCollectorsDoNotCollide(t *testing.T) {
	// Two collectors in one process must not panic on registration.
	a := NewMetrics()
	b := NewMetrics()
	a.RecordSkips(1)
	b.RecordSkips(2)
}

func TestSnapshotTracksActivity(t *testing.T) {
	m := NewMetrics()

	m.RecordHTTPRequest("POST", "/api/runs", "201", 5*time.Millisecond)
	m.RecordHTTPRequest("GET", "/api/runs/x", "404", time.Millisecond)
	m.RunStarted()
	m.RecordDownload(true, 2048)
	m.RecordDownload(false, 100)

	snap := m.GetSnapshot()
	assert.Equal(t, int64(2), snap.TotalRequests)
	assert.Equal(t, int64(1), snap.TotalErrors)
	assert.Equal(t, int64(1), snap.RunsStarted)
	assert.Equal(t, int64(1), snap.FilesDownloaded)
	assert.Equal(t, int64(2148), snap.BytesDownloaded)
}

func TestHandlerExposesDomainMetrics(t *testing.T) {
	m := NewMetrics()
	m.RecordResolution(true, 3)
	m.RecordInstalls(0, 1)
	m.RunStarted()
	m.RunFinished("completed")

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/metrics", nil)
	m.Handler().ServeHTTP(rec, req)

	require.Equal(t, 200, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "storeappx_resolutions_total")
	assert.Contains(t, body, "storeappx_links_resolved_total 3")
	assert.Contains(t, body, `storeappx_installs_total{status="failed"} 1`)
	assert.Contains(t, body, `storeappx_runs_total{state="completed"} 1`)
}
