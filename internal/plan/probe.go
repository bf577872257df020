package plan

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/schrebra/storeappx/internal/client"
)

// Metadata is what a probe learns about a remote package without
// transferring its body.
type Metadata struct {
	FileName string
	Size     int64 // 0 when the service does not report a length
}

// Loose fallback for Content-Disposition values mime.ParseMediaType
// rejects. Some delivery CDNs emit unquoted filenames with spaces.
var filenamePattern = regexp.MustCompile(`filename[^;=\n]*=['"]?([^'";\n]*)`)

// probe issues a header-only request for the candidate's true filename and
// size. HEAD first; services that reject HEAD get one ranged GET whose body
// is discarded unread.
func probe(ctx context.Context, c *client.Client, rawURL string) (Metadata, error) {
	req, err := c.Request(ctx)
	if err != nil {
		return Metadata{}, err
	}
	resp, err := req.Head(rawURL)
	if err == nil && resp.StatusCode() >= 200 && resp.StatusCode() < 300 {
		name, ok := filenameFromHeader(resp.Header().Get("Content-Disposition"))
		if !ok {
			// A GET would see the same headers, so there is no point
			// falling back when HEAD itself was accepted.
			return Metadata{}, fmt.Errorf("response carries no filename header")
		}
		return Metadata{FileName: name, Size: parseSize(resp.Header().Get("Content-Length"))}, nil
	}

	greq, gerr := c.Request(ctx)
	if gerr != nil {
		return Metadata{}, gerr
	}
	gresp, gerr := greq.
		SetHeader("Range", "bytes=0-0").
		SetDoNotParseResponse(true).
		Get(rawURL)
	if gerr != nil {
		return Metadata{}, fmt.Errorf("probe request failed: %w", gerr)
	}
	defer gresp.RawBody().Close()
	if gresp.StatusCode() < 200 || gresp.StatusCode() >= 300 {
		return Metadata{}, fmt.Errorf("probe returned status %d", gresp.StatusCode())
	}
	name, ok := filenameFromHeader(gresp.Header().Get("Content-Disposition"))
	if !ok {
		return Metadata{}, fmt.Errorf("response carries no filename header")
	}
	size := totalFromContentRange(gresp.Header().Get("Content-Range"))
	if size == 0 && gresp.StatusCode() == http.StatusOK {
		// Server ignored the range request, so Content-Length is the
		// full size rather than the single requested byte.
		size = parseSize(gresp.Header().Get("Content-Length"))
	}
	return Metadata{FileName: name, Size: size}, nil
}

// filenameFromHeader extracts a bare filename from a Content-Disposition
// value. Path components are stripped so a hostile header cannot steer the
// destination outside the target directory.
func filenameFromHeader(header string) (string, bool) {
	if header == "" {
		return "", false
	}
	var name string
	if _, params, err := mime.ParseMediaType(header); err == nil {
		name = params["filename"]
	}
	if name == "" {
		if m := filenamePattern.FindStringSubmatch(header); len(m) == 2 {
			name = m[1]
		}
	}
	name = strings.Trim(strings.TrimSpace(name), `"'`)
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "" || name == "." || name == string(filepath.Separator) {
		return "", false
	}
	return name, true
}

func parseSize(value string) int64 {
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// totalFromContentRange reads the total length out of a "bytes 0-0/12345"
// style header. An unknown total ("*") yields 0.
func totalFromContentRange(value string) int64 {
	idx := strings.LastIndex(value, "/")
	if idx < 0 {
		return 0
	}
	return parseSize(value[idx+1:])
}
