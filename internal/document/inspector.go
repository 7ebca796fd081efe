// Package document checks upload files before they reach the portal.
package document

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/gen2brain/go-fitz"
	"go.uber.org/zap"

	"github.com/garyjia/classwallet-submitter/internal/application/port"
)

// Document kinds reported by Inspect
const (
	KindPDF   = "pdf"
	KindImage = "image"
	KindOther = "other"
)

// Inspector opens PDFs with mupdf and decodes image headers. Other file
// types are accepted as they are.
type Inspector struct {
	logger *zap.Logger
}

// NewInspector creates an Inspector
func NewInspector(logger *zap.Logger) *Inspector {
	return &Inspector{logger: logger}
}

// Inspect returns an error wrapping os.ErrNotExist for a missing file, or a
// descriptive error when the document cannot be opened.
func (i *Inspector) Inspect(path string) (*port.DocumentInfo, error) {
	st, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if st.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}
	if st.Size() == 0 {
		return nil, fmt.Errorf("%s is empty", path)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".pdf":
		return i.inspectPDF(path)
	case ".jpg", ".jpeg", ".png":
		return i.inspectImage(path)
	default:
		i.logger.Debug("Document type not inspected", zap.String("path", path), zap.String("ext", ext))
		return &port.DocumentInfo{Path: path, Kind: KindOther}, nil
	}
}

func (i *Inspector) inspectPDF(path string) (*port.DocumentInfo, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	pages := doc.NumPage()
	if pages == 0 {
		return nil, fmt.Errorf("PDF %s has no pages", filepath.Base(path))
	}

	i.logger.Debug("PDF inspected", zap.String("path", path), zap.Int("pages", pages))
	return &port.DocumentInfo{Path: path, Kind: KindPDF, Pages: pages}, nil
}

func (i *Inspector) inspectImage(path string) (*port.DocumentInfo, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer file.Close()

	cfg, format, err := image.DecodeConfig(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	i.logger.Debug("Image inspected",
		zap.String("path", path),
		zap.String("format", format),
		zap.Int("width", cfg.Width),
		zap.Int("height", cfg.Height))
	return &port.DocumentInfo{Path: path, Kind: KindImage, Pages: 1}, nil
}

var _ port.DocumentInspector = (*Inspector)(nil)
