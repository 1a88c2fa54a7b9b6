// Package sources turns input files into plain text for the transform.
// Each supported format registers an Extractor; callers ask the registry to
// detect and extract in one step. Decoding is the extractor's job; the
// transform layer only ever sees a character sequence.
package sources

import (
	"path/filepath"
	"strings"
	"sync"

	"github.com/machenxing/bionic/core/errors"
	"github.com/machenxing/bionic/core/pagerange"
)

// Document is extracted source text plus provenance.
type Document struct {
	Title  string
	Path   string
	Format string
	Text   string
}

// Options carries extraction options. Pages restricts paged formats; a nil
// set selects everything.
type Options struct {
	Pages *pagerange.Set
}

// Extractor converts one source format into a Document.
type Extractor interface {
	// Format returns the short format name ("txt", "pdf", "html").
	Format() string

	// Detect reports whether this extractor handles the given path.
	Detect(path string) bool

	// Extract reads the file and returns its text.
	Extract(path string, opts Options) (*Document, error)
}

var (
	registryMu sync.RWMutex
	registry   []Extractor
)

// Register adds an extractor to the registry. Format packages call this
// from init.
func Register(e Extractor) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = append(registry, e)
}

// Formats lists the registered format names.
func Formats() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, len(registry))
	for i, e := range registry {
		names[i] = e.Format()
	}
	return names
}

// Lookup returns the extractor claiming the given path.
func Lookup(path string) (Extractor, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	for _, e := range registry {
		if e.Detect(path) {
			return e, nil
		}
	}
	return nil, errors.NewUnsupported("format "+filepath.Ext(path), "no extractor registered")
}

// Extract detects the format of path and extracts its text.
func Extract(path string, opts Options) (*Document, error) {
	e, err := Lookup(path)
	if err != nil {
		return nil, err
	}
	return e.Extract(path, opts)
}

// TitleFromPath derives a document title from a file name.
func TitleFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
