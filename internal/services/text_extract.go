package services

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"

	contextutils "tutoria/internal/utils"
)

// extractDocumentText pulls plain text out of an upload based on its
// extension. PDF and DOCX files are parsed; everything else is treated as
// plain text.
func extractDocumentText(ext string, content []byte) (string, error) {
	switch ext {
	case ".pdf":
		return extractPDFText(content)
	case ".docx":
		return extractDOCXText(content)
	default:
		return extractPlainText(content), nil
	}
}

// extractPlainText decodes the upload as UTF-8 text, falling back to Latin-1
// for legacy encodings.
func extractPlainText(content []byte) string {
	if utf8.Valid(content) {
		return strings.TrimSpace(string(content))
	}
	// Latin-1 bytes map one-to-one onto code points.
	runes := make([]rune, len(content))
	for i, b := range content {
		runes[i] = rune(b)
	}
	return strings.TrimSpace(string(runes))
}

// extractPDFText reads every page of the PDF and joins the extracted text.
func extractPDFText(content []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", contextutils.WrapErrorf(contextutils.ErrUnsupportedContentType, "failed to open PDF: %v", err)
	}
	plain, err := reader.GetPlainText()
	if err != nil {
		return "", contextutils.WrapErrorf(contextutils.ErrUnsupportedContentType, "failed to extract PDF text: %v", err)
	}
	text, err := io.ReadAll(plain)
	if err != nil {
		return "", contextutils.WrapErrorf(contextutils.ErrUnsupportedContentType, "failed to read PDF text: %v", err)
	}
	return strings.TrimSpace(string(text)), nil
}

// extractDOCXText reads word/document.xml from the DOCX zip container and
// joins the paragraphs with newlines.
func extractDOCXText(content []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", contextutils.WrapErrorf(contextutils.ErrUnsupportedContentType, "failed to open DOCX container: %v", err)
	}
	for _, f := range zr.File {
		if f.Name != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", contextutils.WrapErrorf(contextutils.ErrUnsupportedContentType, "failed to read DOCX body: %v", err)
		}
		body, err := io.ReadAll(rc)
		_ = rc.Close()
		if err != nil {
			return "", contextutils.WrapErrorf(contextutils.ErrUnsupportedContentType, "failed to read DOCX body: %v", err)
		}
		return docxParagraphs(body), nil
	}
	return "", contextutils.WrapError(contextutils.ErrUnsupportedContentType, "DOCX container has no document body")
}

// docxParagraphs walks the WordprocessingML body collecting the text runs
// (<w:t> elements), one line per paragraph (<w:p>).
func docxParagraphs(body []byte) string {
	dec := xml.NewDecoder(bytes.NewReader(body))
	var out strings.Builder
	var paragraph strings.Builder
	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		switch el := tok.(type) {
		case xml.StartElement:
			if el.Name.Local == "t" {
				var run string
				if err := dec.DecodeElement(&run, &el); err == nil {
					paragraph.WriteString(run)
				}
			}
		case xml.EndElement:
			if el.Name.Local == "p" && paragraph.Len() > 0 {
				out.WriteString(paragraph.String())
				out.WriteString("\n")
				paragraph.Reset()
			}
		}
	}
	if paragraph.Len() > 0 {
		out.WriteString(paragraph.String())
	}
	return strings.TrimSpace(out.String())
}
