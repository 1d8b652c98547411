// Package convert implements the converter contract the indexing pipeline
// consumes: each supported source format exposes a Converter that turns
// source bytes into Markdown text, and a Registry dispatches on file
// extension. The core never depends on a concrete converter, only on this
// interface.
package convert

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/ksysoev/searchmix/pkg/core"
)

// Converter turns source bytes of one format into Markdown text. A
// converter may fail on malformed input; the caller tolerates failure by
// skipping the file.
type Converter interface {
	Convert(r io.Reader) ([]byte, error)
}

// Registry maps file extensions to the Converter handling them.
type Registry struct {
	byExt map[string]Converter
}

// NewRegistry builds a Registry with every built-in converter registered
// for its extensions: md/markdown pass through, txt/srt/pdf/epub are
// converted.
func NewRegistry() *Registry {
	md := Markdown{}

	return &Registry{byExt: map[string]Converter{
		".md":       md,
		".markdown": md,
		".txt":      Text{},
		".srt":      SRT{},
		".pdf":      PDF{},
		".epub":     EPUB{},
	}}
}

// ForPath returns the Converter for path's extension, or
// core.ErrUnsupportedFormat when no converter handles it.
func (r *Registry) ForPath(path string) (Converter, error) {
	ext := strings.ToLower(filepath.Ext(path))

	c, ok := r.byExt[ext]
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrUnsupportedFormat, ext)
	}

	return c, nil
}

// Supported reports whether path's extension has a registered converter.
func (r *Registry) Supported(path string) bool {
	_, ok := r.byExt[strings.ToLower(filepath.Ext(path))]
	return ok
}

// Extensions returns the registered extensions (with leading dot), in no
// particular order.
func (r *Registry) Extensions() []string {
	out := make([]string, 0, len(r.byExt))
	for ext := range r.byExt {
		out = append(out, ext)
	}

	return out
}

// FormatForPath maps path's extension to its SourceFormat token, defaulting
// to Markdown for unknown extensions (the registry has already vetted the
// path by the time this is consulted).
func FormatForPath(path string) core.SourceFormat {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".epub":
		return core.FormatEPUB
	case ".pdf":
		return core.FormatPDF
	case ".srt":
		return core.FormatSRT
	case ".txt":
		return core.FormatTXT
	default:
		return core.FormatMarkdown
	}
}

// Markdown is the identity converter: md/markdown sources are already in
// the target format.
type Markdown struct{}

// Convert returns the source bytes unchanged.
func (Markdown) Convert(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: read markdown: %w", core.ErrConverterFailure, err)
	}

	return data, nil
}
