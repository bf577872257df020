package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilenameFromHeader(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
		ok     bool
	}{
		{"plain", "attachment; filename=Microsoft.VCLibs.x64.appx", "Microsoft.VCLibs.x64.appx", true},
		{"quoted", `attachment; filename="Paint_3.5_x64.msix"`, "Paint_3.5_x64.msix", true},
		{"rfc5987", "attachment; filename*=UTF-8''App%20Installer.msixbundle", "App Installer.msixbundle", true},
		{"unquoted with spaces", "attachment;filename=My App 1.0.appx", "My App 1.0.appx", true},
		{"path traversal stripped", `attachment; filename="..\..\evil.appx"`, "evil.appx", true},
		{"unix path stripped", `attachment; filename="/tmp/evil.appx"`, "evil.appx", true},
		{"empty header", "", "", false},
		{"no filename param", "attachment", "", false},
		{"empty filename", `attachment; filename=""`, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := filenameFromHeader(tt.header)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestTotalFromContentRange(t *testing.T) {
	assert.Equal(t, int64(7340032), totalFromContentRange("bytes 0-0/7340032"))
	assert.Equal(t, int64(0), totalFromContentRange("bytes 0-0/*"))
	assert.Equal(t, int64(0), totalFromContentRange(""))
}

func TestParseSize(t *testing.T) {
	assert.Equal(t, int64(123), parseSize("123"))
	assert.Equal(t, int64(0), parseSize(""))
	assert.Equal(t, int64(0), parseSize("-5"))
	assert.Equal(t, int64(0), parseSize("garbage"))
}
