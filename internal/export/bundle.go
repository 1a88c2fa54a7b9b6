package export

import (
	"archive/tar"
	"encoding/json"
	"io"
	"time"

	"github.com/ulikunitz/xz"

	"github.com/machenxing/bionic/core/errors"
	"github.com/machenxing/bionic/internal/library"
	"github.com/machenxing/bionic/internal/settings"
	"github.com/machenxing/bionic/internal/sources"
)

// Bundle member names.
const (
	BundleManifestName = "manifest.json"
	BundleHTMLName     = "document.html"
	BundleSourceName   = "source.txt"
)

// BundleManifest describes a bundle's contents. It travels inside the
// archive as manifest.json.
type BundleManifest struct {
	Title       string            `json:"title"`
	SourcePath  string            `json:"source_path,omitempty"`
	Format      string            `json:"format"`
	ContentHash string            `json:"content_hash"`
	SizeBytes   int64             `json:"size_bytes"`
	Settings    settings.Settings `json:"settings"`
	CreatedAt   time.Time         `json:"created_at"`
}

// WriteBundle writes doc to w as a tar.xz archive holding the manifest, the
// rendered HTML and the untransformed source text.
func WriteBundle(w io.Writer, doc *sources.Document, st settings.Settings) error {
	if doc == nil {
		return errors.NewValidation("document", "nil document")
	}
	st.Clamp()

	html, err := HTML(doc, st)
	if err != nil {
		return err
	}

	manifest := BundleManifest{
		Title:       doc.Title,
		SourcePath:  doc.Path,
		Format:      doc.Format,
		ContentHash: library.ContentHash(doc.Text),
		SizeBytes:   int64(len(doc.Text)),
		Settings:    st,
		CreatedAt:   time.Now().UTC(),
	}
	manifestJSON, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encoding bundle manifest")
	}

	xw, err := xz.NewWriter(w)
	if err != nil {
		return errors.Wrap(err, "creating xz writer")
	}
	tw := tar.NewWriter(xw)

	members := []struct {
		name string
		data []byte
	}{
		{BundleManifestName, manifestJSON},
		{BundleHTMLName, html},
		{BundleSourceName, []byte(doc.Text)},
	}
	for _, m := range members {
		hdr := &tar.Header{
			Name:    m.name,
			Mode:    0644,
			Size:    int64(len(m.data)),
			ModTime: manifest.CreatedAt,
		}
		if err := tw.WriteHeader(hdr); err != nil {
			return errors.Wrapf(err, "writing tar header for %s", m.name)
		}
		if _, err := tw.Write(m.data); err != nil {
			return errors.Wrapf(err, "writing %s", m.name)
		}
	}

	if err := tw.Close(); err != nil {
		return errors.Wrap(err, "closing tar writer")
	}
	if err := xw.Close(); err != nil {
		return errors.Wrap(err, "closing xz writer")
	}
	return nil
}

// ReadBundleManifest extracts the manifest from a bundle stream.
func ReadBundleManifest(r io.Reader) (*BundleManifest, error) {
	xr, err := xz.NewReader(r)
	if err != nil {
		return nil, errors.NewParse("bundle", "", "not an xz stream: "+err.Error())
	}
	tr := tar.NewReader(xr)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.NewParse("bundle", "", err.Error())
		}
		if hdr.Name != BundleManifestName {
			continue
		}
		data, err := io.ReadAll(tr)
		if err != nil {
			return nil, errors.NewParse("bundle", "", err.Error())
		}
		var m BundleManifest
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, errors.NewParse("bundle", "", "invalid manifest: "+err.Error())
		}
		return &m, nil
	}
	return nil, errors.NewNotFound("bundle manifest", BundleManifestName)
}
