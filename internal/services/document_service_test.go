package services

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	contextutils "tutoria/internal/utils"
)

func TestExtractPlainText(t *testing.T) {
	t.Run("utf8 is trimmed", func(t *testing.T) {
		assert.Equal(t, "La célula.", extractPlainText([]byte("  La célula.\n\n")))
	})

	t.Run("latin1 fallback", func(t *testing.T) {
		// "célula" with a Latin-1 encoded é (0xE9), invalid as UTF-8.
		assert.Equal(t, "célula", extractPlainText([]byte{'c', 0xE9, 'l', 'u', 'l', 'a'}))
	})
}

// buildDOCX assembles a minimal WordprocessingML container in memory.
func buildDOCX(t *testing.T, documentXML string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(documentXML))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestExtractDocumentText_DOCX(t *testing.T) {
	t.Run("paragraphs join with newlines", func(t *testing.T) {
		docx := buildDOCX(t, `<?xml version="1.0"?>
			<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
			  <w:body>
			    <w:p><w:r><w:t>La fotosíntesis</w:t></w:r><w:r><w:t> convierte luz en energía.</w:t></w:r></w:p>
			    <w:p><w:r><w:t>Ocurre en los cloroplastos.</w:t></w:r></w:p>
			  </w:body>
			</w:document>`)

		text, err := extractDocumentText(".docx", docx)
		require.NoError(t, err)
		assert.Equal(t, "La fotosíntesis convierte luz en energía.\nOcurre en los cloroplastos.", text)
	})

	t.Run("container without a body is rejected", func(t *testing.T) {
		var buf bytes.Buffer
		zw := zip.NewWriter(&buf)
		_, err := zw.Create("word/styles.xml")
		require.NoError(t, err)
		require.NoError(t, zw.Close())

		_, err = extractDocumentText(".docx", buf.Bytes())
		require.Error(t, err)
		assert.Equal(t, contextutils.ErrorCodeUnsupportedContentType, contextutils.GetErrorCode(err))
	})

	t.Run("non-zip bytes are rejected", func(t *testing.T) {
		_, err := extractDocumentText(".docx", []byte("not a zip"))
		require.Error(t, err)
		assert.Equal(t, contextutils.ErrorCodeUnsupportedContentType, contextutils.GetErrorCode(err))
	})
}

func TestExtractDocumentText_PDF(t *testing.T) {
	t.Run("corrupt pdf is rejected", func(t *testing.T) {
		_, err := extractDocumentText(".pdf", []byte("%PDF-1.4 truncated garbage"))
		require.Error(t, err)
		assert.Equal(t, contextutils.ErrorCodeUnsupportedContentType, contextutils.GetErrorCode(err))
	})
}

func TestExtractDocumentText_PlainFallback(t *testing.T) {
	text, err := extractDocumentText(".txt", []byte("Roma fue un imperio.\n"))
	require.NoError(t, err)
	assert.Equal(t, "Roma fue un imperio.", text)
}
