// Package pkgfile inspects appx/msix containers without extracting them.
// Both package flavors are zip archives carrying an XML manifest; bundles
// keep theirs under AppxMetadata/.
package pkgfile

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/klauspost/compress/flate"

	"github.com/schrebra/storeappx/internal/catalog"
	"github.com/schrebra/storeappx/internal/shared/fsx"
)

const (
	packageManifest = "AppxManifest.xml"
	bundleManifest  = "AppxMetadata/AppxBundleManifest.xml"
)

// Identity is the package identity declared in the manifest.
type Identity struct {
	Name         string `json:"name"`
	Publisher    string `json:"publisher"`
	Version      string `json:"version"`
	Architecture string `json:"architecture,omitempty"`
}

// Info describes one package container.
type Info struct {
	Path     string        `json:"path"`
	Class    catalog.Class `json:"class"`
	Bundle   bool          `json:"bundle"`
	Size     int64         `json:"size"`
	Entries  int           `json:"entries"`
	Identity Identity      `json:"identity"`
}

type manifestDoc struct {
	Identity struct {
		Name                  string `xml:"Name,attr"`
		Publisher             string `xml:"Publisher,attr"`
		Version               string `xml:"Version,attr"`
		ProcessorArchitecture string `xml:"ProcessorArchitecture,attr"`
	} `xml:"Identity"`
}

// Inspect validates that path is a real package container and reads its
// manifest identity.
func Inspect(path string) (Info, error) {
	class, ok := catalog.ClassifyName(path)
	if !ok {
		return Info{}, fmt.Errorf("%q is not a recognized package extension", path)
	}
	st, err := os.Stat(path)
	if err != nil {
		return Info{}, err
	}
	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		return Info{}, fmt.Errorf("cannot read %q: %w", path, err)
	}
	if !mtype.Is("application/zip") {
		return Info{}, fmt.Errorf("%q is not a package container (detected %s)", path, mtype.String())
	}

	zr, err := zip.OpenReader(path)
	if err != nil {
		return Info{}, fmt.Errorf("cannot open container %q: %w", path, err)
	}
	defer zr.Close()
	zr.RegisterDecompressor(zip.Deflate, func(r io.Reader) io.ReadCloser {
		return flate.NewReader(r)
	})

	info := Info{
		Path:    path,
		Class:   class,
		Bundle:  class == catalog.ClassAppxBundle || class == catalog.ClassMsixBundle,
		Size:    st.Size(),
		Entries: len(zr.File),
	}
	if doc, ok := readManifest(&zr.Reader, info.Bundle); ok {
		info.Identity = Identity{
			Name:         doc.Identity.Name,
			Publisher:    doc.Identity.Publisher,
			Version:      doc.Identity.Version,
			Architecture: strings.ToLower(doc.Identity.ProcessorArchitecture),
		}
	}
	return info, nil
}

func readManifest(zr *zip.Reader, bundle bool) (manifestDoc, bool) {
	want := packageManifest
	if bundle {
		want = bundleManifest
	}
	var doc manifestDoc
	for _, f := range zr.File {
		if f.Name != want {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return doc, false
		}
		defer rc.Close()
		if err := xml.NewDecoder(rc).Decode(&doc); err != nil {
			return doc, false
		}
		return doc, true
	}
	return doc, false
}

// Discover walks root recursively and returns every package file under
// it, sorted by path.
func Discover(root string) ([]string, error) {
	return fsx.FindFiles(root, func(name string) bool {
		_, ok := catalog.ClassifyName(name)
		return ok
	})
}
