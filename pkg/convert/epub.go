package convert

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/ksysoev/searchmix/pkg/core"
)

// EPUB converts an EPUB container to Markdown. An EPUB is a zip of an OPF
// manifest plus XHTML chapters: the container.xml is read to locate the
// OPF, the OPF's spine gives the chapter order, and each chapter's XHTML
// is reduced to Markdown text with heading levels preserved.
type EPUB struct{}

// containerXML mirrors META-INF/container.xml, which points at the OPF.
type containerXML struct {
	Rootfiles []struct {
		FullPath string `xml:"full-path,attr"`
	} `xml:"rootfiles>rootfile"`
}

// opfPackage mirrors the parts of an OPF package document needed to order
// the chapters: the manifest (id → href) and the spine (ordered idrefs).
type opfPackage struct {
	Manifest []struct {
		ID   string `xml:"id,attr"`
		Href string `xml:"href,attr"`
	} `xml:"manifest>item"`
	Spine []struct {
		IDRef string `xml:"idref,attr"`
	} `xml:"spine>itemref"`
}

// Convert implements Converter.
func (EPUB) Convert(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: read epub: %w", core.ErrConverterFailure, err)
	}

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: open epub container: %w", core.ErrConverterFailure, err)
	}

	chapters, err := chapterFiles(zr)
	if err != nil {
		return nil, err
	}

	var parts []string

	for _, f := range chapters {
		text, err := chapterMarkdown(f)
		if err != nil {
			// One malformed chapter does not fail the book.
			continue
		}

		if text != "" {
			parts = append(parts, text)
		}
	}

	if len(parts) == 0 {
		return nil, fmt.Errorf("%w: epub contains no readable chapters", core.ErrConverterFailure)
	}

	return []byte(strings.Join(parts, "\n\n")), nil
}

// chapterFiles resolves the spine-ordered chapter list via container.xml
// and the OPF. When either is missing or unparsable it falls back to every
// .xhtml/.html entry in archive order.
func chapterFiles(zr *zip.Reader) ([]*zip.File, error) {
	byName := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		byName[f.Name] = f
	}

	opfPath := locateOPF(byName)
	if opfPath == "" {
		return fallbackChapters(zr), nil
	}

	opfData, err := readZipFile(byName[opfPath])
	if err != nil {
		return fallbackChapters(zr), nil
	}

	var pkg opfPackage
	if err := xml.Unmarshal(opfData, &pkg); err != nil {
		return fallbackChapters(zr), nil
	}

	hrefByID := make(map[string]string, len(pkg.Manifest))
	for _, item := range pkg.Manifest {
		hrefByID[item.ID] = item.Href
	}

	opfDir := path.Dir(opfPath)

	var chapters []*zip.File

	for _, ref := range pkg.Spine {
		href, ok := hrefByID[ref.IDRef]
		if !ok {
			continue
		}

		name := href
		if opfDir != "." {
			name = path.Join(opfDir, href)
		}

		if f, ok := byName[name]; ok {
			chapters = append(chapters, f)
		}
	}

	if len(chapters) == 0 {
		return fallbackChapters(zr), nil
	}

	return chapters, nil
}

func locateOPF(byName map[string]*zip.File) string {
	f, ok := byName["META-INF/container.xml"]
	if !ok {
		return ""
	}

	data, err := readZipFile(f)
	if err != nil {
		return ""
	}

	var c containerXML
	if err := xml.Unmarshal(data, &c); err != nil {
		return ""
	}

	for _, rf := range c.Rootfiles {
		if rf.FullPath != "" {
			return rf.FullPath
		}
	}

	return ""
}

func fallbackChapters(zr *zip.Reader) []*zip.File {
	var out []*zip.File

	for _, f := range zr.File {
		ext := strings.ToLower(path.Ext(f.Name))
		if ext == ".xhtml" || ext == ".html" || ext == ".htm" {
			out = append(out, f)
		}
	}

	return out
}

func readZipFile(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}

	defer rc.Close()

	return io.ReadAll(rc)
}

// chapterMarkdown reduces one XHTML chapter to Markdown: h1…h6 become
// heading lines at the same depth, other block elements become paragraphs,
// scripts and styles are dropped.
func chapterMarkdown(f *zip.File) (string, error) {
	data, err := readZipFile(f)
	if err != nil {
		return "", err
	}

	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Strict = false
	dec.AutoClose = xml.HTMLAutoClose
	dec.Entity = xml.HTMLEntity

	var blocks []string

	var text strings.Builder

	headingDepth := 0
	skipDepth := 0

	flush := func() {
		s := strings.Join(strings.Fields(text.String()), " ")
		text.Reset()

		if s == "" {
			return
		}

		if headingDepth > 0 {
			s = strings.Repeat("#", headingDepth) + " " + s
		}

		blocks = append(blocks, s)
	}

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}

		if err != nil {
			return "", err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			name := strings.ToLower(t.Name.Local)

			switch {
			case name == "script" || name == "style" || name == "head":
				skipDepth++
			case headingLevel(name) > 0:
				flush()

				headingDepth = headingLevel(name)
			case name == "p" || name == "div" || name == "li" || name == "blockquote" || name == "td":
				flush()
			}
		case xml.EndElement:
			name := strings.ToLower(t.Name.Local)

			switch {
			case name == "script" || name == "style" || name == "head":
				if skipDepth > 0 {
					skipDepth--
				}
			case headingLevel(name) > 0:
				flush()

				headingDepth = 0
			case name == "p" || name == "div" || name == "li" || name == "blockquote" || name == "td" || name == "body":
				flush()
			}
		case xml.CharData:
			if skipDepth == 0 {
				text.Write(t)
			}
		}
	}

	flush()

	return strings.Join(blocks, "\n\n"), nil
}

func headingLevel(name string) int {
	if len(name) == 2 && name[0] == 'h' && name[1] >= '1' && name[1] <= '6' {
		return int(name[1] - '0')
	}

	return 0
}
