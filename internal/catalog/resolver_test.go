package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schrebra/storeappx/internal/arch"
	"github.com/schrebra/storeappx/internal/client"
	"github.com/schrebra/storeappx/internal/infrastructure/logging"
	"github.com/schrebra/storeappx/internal/infrastructure/resilience"
)

const sampleCatalogHTML = `<!DOCTYPE html>
<html>
<head><title>Lookup results</title></head>
<body>
<p>The links were successfully received.</p>
<table class="tftable" border="1">
<tr><th>FileName</th><th>Expire</th><th>Size</th></tr>
<tr><td><a href="http://tlu.dl.delivery.mp.microsoft.com/files/vclibs-x64?P1=1">Microsoft.VCLibs.140.00_14.0.30704.0_x64__8wekyb3d8bbwe.appx</a></td><td>soon</td><td>1 MB</td></tr>
<tr><td><a href="http://tlu.dl.delivery.mp.microsoft.com/files/vclibs-x86?P1=1">Microsoft.VCLibs.140.00_14.0.30704.0_x86__8wekyb3d8bbwe.appx</a></td><td>soon</td><td>1 MB</td></tr>
<tr><td><a href="http://tlu.dl.delivery.mp.microsoft.com/files/store-bundle?P1=1">Microsoft.WindowsStore_12107.1001.15.0_neutral_~_8wekyb3d8bbwe.appxbundle</a></td><td>soon</td><td>24 MB</td></tr>
<tr><td><a href="http://tlu.dl.delivery.mp.microsoft.com/files/paint-msix?P1=1">Microsoft.Paint_11.2404.1020.0_x64__8wekyb3d8bbwe.msix</a></td><td>soon</td><td>9 MB</td></tr>
<tr><td><a href="http://tlu.dl.delivery.mp.microsoft.com/files/blockmap?P1=1">Microsoft.Paint_11.2404.1020.0_x64__8wekyb3d8bbwe.BlockMap</a></td><td>soon</td><td>12 KB</td></tr>
<tr><td><a href="http://tlu.dl.delivery.mp.microsoft.com/files/vclibs-x64?P1=1">Microsoft.VCLibs.140.00_14.0.30704.0_x64__8wekyb3d8bbwe.appx</a></td><td>duplicate row</td><td>1 MB</td></tr>
</table>
<a href="#">back to top</a>
<a href="/relative/page.appx">relative link</a>
<a href="mailto:admin@example.com">contact</a>
</body>
</html>`

func newTestClient() *client.Client {
	return client.New(client.Options{
		UserAgent: "storeappx-test",
		Timeout:   5 * time.Second,
		RetryMax:  0,
	})
}

func TestClassifyName(t *testing.T) {
	tests := []struct {
		name    string
		want    Class
		matches bool
	}{
		{"app_1.0_x64__abc.appx", ClassAppx, true},
		{"app_1.0_neutral_~_abc.appxbundle", ClassAppxBundle, true},
		{"app_1.0_x64__abc.msix", ClassMsix, true},
		{"app_1.0_neutral_~_abc.msixbundle", ClassMsixBundle, true},
		{"APP_1.0_X64__ABC.APPX", ClassAppx, true},
		{"App.AppxBundle", ClassAppxBundle, true},
		{"app_1.0_x64__abc.BlockMap", "", false},
		{"app_1.0_x64__abc.eappx", "", false},
		{"app.appx.sig", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ClassifyName(tt.name)
			assert.Equal(t, tt.matches, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractLinks(t *testing.T) {
	links, err := extractLinks([]byte(sampleCatalogHTML))
	require.NoError(t, err)

	// Five package anchors minus one duplicate URL; the BlockMap, relative,
	// fragment, and mailto anchors are all excluded.
	require.Len(t, links, 4)

	assert.Equal(t, "Microsoft.VCLibs.140.00_14.0.30704.0_x64__8wekyb3d8bbwe.appx", links[0].Name)
	assert.Equal(t, ClassAppx, links[0].Ext)
	assert.Equal(t, arch.X64, links[0].Arch)

	assert.Equal(t, arch.X86, links[1].Arch)

	assert.Equal(t, ClassAppxBundle, links[2].Ext)
	assert.Equal(t, arch.Neutral, links[2].Arch)

	assert.Equal(t, ClassMsix, links[3].Ext)

	// Order follows document order.
	assert.Equal(t, "http://tlu.dl.delivery.mp.microsoft.com/files/vclibs-x64?P1=1", links[0].URL)
	assert.Equal(t, "http://tlu.dl.delivery.mp.microsoft.com/files/store-bundle?P1=1", links[2].URL)
}

func TestExtractLinksNameFallback(t *testing.T) {
	// Anchor text without an extension falls back to the href path base.
	html := `<html><body>
<a href="https://cdn.example.com/packages/App_1.0_x64__abc.appx?token=1">download here</a>
</body></html>`

	links, err := extractLinks([]byte(html))
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.Equal(t, "App_1.0_x64__abc.appx", links[0].Name)
	assert.Equal(t, arch.X64, links[0].Arch)
}

func TestResolverResolve(t *testing.T) {
	var gotMethod string
	var gotForm map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		require.NoError(t, r.ParseForm())
		gotForm = map[string]string{
			"type": r.FormValue("type"),
			"url":  r.FormValue("url"),
			"ring": r.FormValue("ring"),
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(sampleCatalogHTML))
	}))
	defer server.Close()

	resolver := NewResolver(newTestClient(), server.URL, "Retail", logging.NewNop())

	links, err := resolver.Resolve(context.Background(), "https://apps.example.com/store/detail/9WZDNCRFJBMP")
	require.NoError(t, err)
	assert.Len(t, links, 4)

	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "url", gotForm["type"])
	assert.Equal(t, "https://apps.example.com/store/detail/9WZDNCRFJBMP", gotForm["url"])
	assert.Equal(t, "Retail", gotForm["ring"])
}

func TestResolverResolveNoLinks(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><body><p>The product was not found.</p></body></html>`))
	}))
	defer server.Close()

	resolver := NewResolver(newTestClient(), server.URL, "Retail", logging.NewNop())

	// Zero links is a valid result, not an error.
	links, err := resolver.Resolve(context.Background(), "https://apps.example.com/store/detail/unknown")
	require.NoError(t, err)
	assert.Empty(t, links)
}

func TestResolverResolveServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	resolver := NewResolver(newTestClient(), server.URL, "Retail", logging.NewNop())

	_, err := resolver.Resolve(context.Background(), "https://apps.example.com/store/detail/9WZDNCRFJBMP")
	require.Error(t, err)
	assert.True(t, IsResolutionError(err))

	var re *ResolutionError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, http.StatusInternalServerError, re.Status)
}

func TestResolverResolveUnreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	endpoint := server.URL
	server.Close()

	resolver := NewResolver(newTestClient(), endpoint, "Retail", logging.NewNop())

	_, err := resolver.Resolve(context.Background(), "https://apps.example.com/store/detail/9WZDNCRFJBMP")
	require.Error(t, err)
	assert.True(t, IsResolutionError(err))
}

func TestResolverBreakerTripsAfterRepeatedFailures(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	resolver := NewResolver(newTestClient(), server.URL, "Retail", logging.NewNop())

	for i := 0; i < 5; i++ {
		_, err := resolver.Resolve(context.Background(), "https://apps.example.com/store/detail/9WZDNCRFJBMP")
		require.Error(t, err)
		assert.True(t, IsResolutionError(err))
	}
	require.Equal(t, int32(5), hits.Load())

	// The sixth lookup is refused without reaching the service.
	_, err := resolver.Resolve(context.Background(), "https://apps.example.com/store/detail/9WZDNCRFJBMP")
	require.Error(t, err)
	assert.True(t, IsResolutionError(err))
	assert.ErrorIs(t, err, resilience.ErrOpen)
	assert.Equal(t, int32(5), hits.Load())
}
