package convert

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/ksysoev/searchmix/pkg/core"
)

// PDF converts a PDF document to Markdown: the plain text of each page
// becomes one paragraph, pages separated by blank lines. Layout, fonts,
// and images are discarded.
type PDF struct{}

// Convert implements Converter.
func (PDF) Convert(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: read pdf: %w", core.ErrConverterFailure, err)
	}

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: parse pdf: %w", core.ErrConverterFailure, err)
	}

	var pages []string

	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			// A single unreadable page does not fail the document.
			continue
		}

		text = strings.TrimSpace(text)
		if text != "" {
			pages = append(pages, text)
		}
	}

	if len(pages) == 0 {
		return nil, fmt.Errorf("%w: pdf contains no extractable text", core.ErrConverterFailure)
	}

	return []byte(strings.Join(pages, "\n\n")), nil
}
