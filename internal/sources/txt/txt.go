// Package txt provides the plain text source extractor.
package txt

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/machenxing/bionic/core/encoding"
	"github.com/machenxing/bionic/core/errors"
	"github.com/machenxing/bionic/internal/logging"
	"github.com/machenxing/bionic/internal/sources"
)

// Extractor handles .txt and .text files.
type Extractor struct{}

func init() {
	sources.Register(&Extractor{})
}

// Format implements sources.Extractor.
func (e *Extractor) Format() string { return "txt" }

// Detect implements sources.Extractor.
func (e *Extractor) Detect(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".txt" || ext == ".text"
}

// Extract implements sources.Extractor. The file must already be UTF-8; a
// leading byte order mark is dropped.
func (e *Extractor) Extract(path string, _ sources.Options) (*sources.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewIO("read", path, err)
	}

	text := encoding.StripBOM(string(data))
	logging.DocumentLoaded(path, "txt", len(text))

	return &sources.Document{
		Title:  sources.TitleFromPath(path),
		Path:   path,
		Format: "txt",
		Text:   text,
	}, nil
}
