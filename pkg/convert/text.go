package convert

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/ksysoev/searchmix/pkg/core"
)

// Text converts plain text to Markdown. The content is kept as-is except
// that lines which would otherwise be parsed as Markdown block syntax
// (headings, fences) are escaped, so a text file never grows a spurious
// section tree.
type Text struct{}

// Convert implements Converter.
func (Text) Convert(r io.Reader) ([]byte, error) {
	var b strings.Builder

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	first := true
	for scanner.Scan() {
		if !first {
			b.WriteByte('\n')
		}

		first = false

		b.WriteString(escapeLine(scanner.Text()))
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: read text: %w", core.ErrConverterFailure, err)
	}

	return []byte(b.String()), nil
}

// escapeLine neutralizes leading characters goldmark would interpret as
// block-level Markdown syntax.
func escapeLine(line string) string {
	trimmed := strings.TrimLeft(line, " \t")

	if strings.HasPrefix(trimmed, "#") || strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~") {
		return "\\" + line
	}

	return line
}
