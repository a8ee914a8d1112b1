package letters

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"regexp"
	"strings"
)

// ContentType is the MIME type of rendered letters.
const ContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

var blankLine = regexp.MustCompile(`\n[ \t]*\n`)

// Paragraphs splits letter text on blank lines, trimming and dropping empty parts.
func Paragraphs(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	var out []string
	for _, p := range blankLine.Split(text, -1) {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// justified reports whether paragraph i of n is justified. The salutation block
// (first two) and the sign-off (last) keep the default alignment.
func justified(i, n int) bool {
	return i >= 2 && i != n-1
}

const contentTypesXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
<Default Extension="xml" ContentType="application/xml"/>
<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
</Types>`

const relsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>
</Relationships>`

const (
	documentHead = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`
	// A4 with 2cm margins
	documentTail = `<w:sectPr><w:pgSz w:w="11906" w:h="16838"/><w:pgMar w:top="1134" w:right="1134" w:bottom="1134" w:left="1134" w:header="709" w:footer="709" w:gutter="0"/></w:sectPr></w:body></w:document>`
)

// RenderDOCX lays out text as a Word document, one paragraph per blank-line block.
// Single newlines inside a paragraph become line breaks.
func RenderDOCX(text string) ([]byte, error) {
	paras := Paragraphs(text)

	var doc bytes.Buffer
	doc.WriteString(documentHead)
	for i, p := range paras {
		doc.WriteString("<w:p>")
		if justified(i, len(paras)) {
			doc.WriteString(`<w:pPr><w:jc w:val="both"/></w:pPr>`)
		}
		doc.WriteString("<w:r>")
		for j, line := range strings.Split(p, "\n") {
			if j > 0 {
				doc.WriteString("<w:br/>")
			}
			doc.WriteString(`<w:t xml:space="preserve">`)
			if err := xml.EscapeText(&doc, []byte(strings.TrimRight(line, " \t"))); err != nil {
				return nil, err
			}
			doc.WriteString("</w:t>")
		}
		doc.WriteString("</w:r></w:p>")
	}
	doc.WriteString(documentTail)

	var out bytes.Buffer
	zw := zip.NewWriter(&out)
	parts := []struct {
		name string
		body []byte
	}{
		{"[Content_Types].xml", []byte(contentTypesXML)},
		{"_rels/.rels", []byte(relsXML)},
		{"word/document.xml", doc.Bytes()},
	}
	for _, part := range parts {
		w, err := zw.Create(part.name)
		if err != nil {
			return nil, err
		}
		if _, err := w.Write(part.body); err != nil {
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}
