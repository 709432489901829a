// Package cv reads resume documents and extracts searchable fields from them.
package cv

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"code.sajari.com/docconv"

	"github.com/spigell/hr-assistant/internal/hr"
)

var ErrUnsupportedFormat = errors.New("unsupported file type")

// Adapter extracts text from one family of document formats.
type Adapter func(path string) (string, error)

// Extractor dispatches on file extension. Plain text is always supported.
type Extractor struct {
	adapters map[string]Adapter
}

type Option func(*Extractor)

// WithAdapter registers an adapter for the given extensions (with leading dot).
func WithAdapter(a Adapter, exts ...string) Option {
	return func(e *Extractor) {
		for _, ext := range exts {
			e.adapters[strings.ToLower(ext)] = a
		}
	}
}

// WithDocuments enables PDF and Word extraction through docconv.
func WithDocuments() Option {
	return WithAdapter(convertDocument, ".pdf", ".docx", ".doc")
}

func NewExtractor(opts ...Option) *Extractor {
	e := &Extractor{adapters: map[string]Adapter{".txt": readText}}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Supported returns the registered extensions, sorted.
func (e *Extractor) Supported() []string {
	exts := make([]string, 0, len(e.adapters))
	for ext := range e.adapters {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

func (e *Extractor) IsSupported(path string) bool {
	_, ok := e.adapters[strings.ToLower(filepath.Ext(path))]
	return ok
}

// ExtractText returns the document text. Failures are reported as *hr.ExtractionError.
func (e *Extractor) ExtractText(path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	adapter, ok := e.adapters[ext]
	if !ok {
		return "", &hr.ExtractionError{Path: path, Err: fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)}
	}

	text, err := adapter(path)
	if err != nil {
		return "", &hr.ExtractionError{Path: path, Err: err}
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", &hr.ExtractionError{Path: path, Err: errors.New("document contains no text")}
	}
	return text, nil
}

func readText(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read text file: %w", err)
	}
	return string(content), nil
}

func convertDocument(path string) (string, error) {
	res, err := docconv.ConvertPath(path)
	if err != nil {
		return "", fmt.Errorf("parse document: %w", err)
	}
	return res.Body, nil
}
