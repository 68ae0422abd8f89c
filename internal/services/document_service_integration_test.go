//go:build integration

package services

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	contextutils "tutoria/internal/utils"
)

func TestDocumentService_UploadDocument(t *testing.T) {
	db := SharedTestDBSetup(t)
	defer CleanupTestDatabase(db, t)

	documents := NewDocumentService(db, testLogger())
	ctx := context.Background()

	student := createTestStudent(t, db, "ana", "ana@example.com")

	t.Run("plain text upload", func(t *testing.T) {
		content := []byte("La célula es la unidad básica de la vida.\n")
		doc, err := documents.UploadDocument(ctx, student.ID, "apuntes.txt", content, 0)
		require.NoError(t, err)
		assert.NotEmpty(t, doc.ID)
		assert.Equal(t, "apuntes.txt", doc.Filename)
		assert.Equal(t, "text/plain", doc.MimeType)
		assert.Equal(t, int64(len(content)), doc.SizeBytes)
		assert.Equal(t, "La célula es la unidad básica de la vida.", doc.Text)
	})

	t.Run("path is stripped from the filename", func(t *testing.T) {
		doc, err := documents.UploadDocument(ctx, student.ID, "../../etc/notas.md", []byte("# Notas"), 0)
		require.NoError(t, err)
		assert.Equal(t, "notas.md", doc.Filename)
		assert.Equal(t, "text/markdown", doc.MimeType)
	})

	t.Run("docx upload extracts paragraphs", func(t *testing.T) {
		docx := buildDOCX(t, `<?xml version="1.0"?>
			<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
			  <w:body><w:p><w:r><w:t>Apuntes de historia.</w:t></w:r></w:p></w:body>
			</w:document>`)
		doc, err := documents.UploadDocument(ctx, student.ID, "apuntes.docx", docx, 0)
		require.NoError(t, err)
		assert.Equal(t, "application/vnd.openxmlformats-officedocument.wordprocessingml.document", doc.MimeType)
		assert.Equal(t, "Apuntes de historia.", doc.Text)
	})

	t.Run("unsupported extension", func(t *testing.T) {
		_, err := documents.UploadDocument(ctx, student.ID, "foto.png", []byte{0x89, 0x50}, 0)
		require.Error(t, err)
		assert.Equal(t, contextutils.ErrorCodeUnsupportedContentType, contextutils.GetErrorCode(err))
	})

	t.Run("over the size limit", func(t *testing.T) {
		big := bytes.Repeat([]byte("a"), 100)
		_, err := documents.UploadDocument(ctx, student.ID, "grande.txt", big, 99)
		require.Error(t, err)
		assert.Equal(t, contextutils.ErrorCodeDocumentTooLarge, contextutils.GetErrorCode(err))
	})

	t.Run("empty content rejected", func(t *testing.T) {
		_, err := documents.UploadDocument(ctx, student.ID, "vacio.txt", nil, 0)
		require.Error(t, err)
		assert.Equal(t, contextutils.ErrorCodeMissingRequired, contextutils.GetErrorCode(err))
	})
}

func TestDocumentService_GetAndDelete(t *testing.T) {
	db := SharedTestDBSetup(t)
	defer CleanupTestDatabase(db, t)

	documents := NewDocumentService(db, testLogger())
	ctx := context.Background()

	owner := createTestStudent(t, db, "ana", "ana@example.com")
	other := createTestStudent(t, db, "beto", "beto@example.com")

	doc, err := documents.UploadDocument(ctx, owner.ID, "apuntes.txt", []byte("Texto de prueba"), 0)
	require.NoError(t, err)

	t.Run("owner gets the text back", func(t *testing.T) {
		loaded, err := documents.GetDocument(ctx, owner.ID, doc.ID)
		require.NoError(t, err)
		assert.Equal(t, "Texto de prueba", loaded.Text)
	})

	t.Run("other user cannot see it", func(t *testing.T) {
		_, err := documents.GetDocument(ctx, other.ID, doc.ID)
		require.Error(t, err)
		assert.Equal(t, contextutils.ErrorCodeForbidden, contextutils.GetErrorCode(err))
	})

	t.Run("listing stays per user", func(t *testing.T) {
		mine, err := documents.GetDocumentsByUser(ctx, owner.ID)
		require.NoError(t, err)
		assert.Len(t, mine, 1)

		theirs, err := documents.GetDocumentsByUser(ctx, other.ID)
		require.NoError(t, err)
		assert.Empty(t, theirs)
	})

	t.Run("delete is owner-only", func(t *testing.T) {
		err := documents.DeleteDocument(ctx, other.ID, doc.ID)
		require.Error(t, err)
		assert.Equal(t, contextutils.ErrorCodeRecordNotFound, contextutils.GetErrorCode(err))

		require.NoError(t, documents.DeleteDocument(ctx, owner.ID, doc.ID))

		_, err = documents.GetDocument(ctx, owner.ID, doc.ID)
		require.Error(t, err)
		assert.Equal(t, contextutils.ErrorCodeRecordNotFound, contextutils.GetErrorCode(err))
	})
}

func TestDocumentService_Sharing(t *testing.T) {
	db := SharedTestDBSetup(t)
	defer CleanupTestDatabase(db, t)

	documents := NewDocumentService(db, testLogger())
	classes := NewClassService(db, testLogger())
	ctx := context.Background()

	teacher := createTestTeacher(t, db, "prof", "prof@example.com")
	student := createTestStudent(t, db, "ana", "ana@example.com")
	outsider := createTestStudent(t, db, "leo", "leo@example.com")

	class, err := classes.CreateClass(ctx, teacher.ID, "Historia 3B", "Historia")
	require.NoError(t, err)
	_, err = classes.JoinClass(ctx, student.ID, class.JoinCode)
	require.NoError(t, err)

	shared, err := documents.UploadDocument(ctx, teacher.ID, "temario.txt", []byte("La Revolución Francesa"), 0)
	require.NoError(t, err)
	_, err = documents.UploadDocument(ctx, teacher.ID, "privado.txt", []byte("Notas personales"), 0)
	require.NoError(t, err)

	t.Run("uploads start private", func(t *testing.T) {
		assert.False(t, shared.IsShared)
	})

	t.Run("owner toggles sharing", func(t *testing.T) {
		updated, err := documents.ShareDocument(ctx, teacher.ID, shared.ID, true)
		require.NoError(t, err)
		assert.True(t, updated.IsShared)
	})

	t.Run("sharing is owner-only", func(t *testing.T) {
		_, err := documents.ShareDocument(ctx, student.ID, shared.ID, true)
		require.Error(t, err)
		assert.Equal(t, contextutils.ErrorCodeForbidden, contextutils.GetErrorCode(err))
	})

	t.Run("class members see only shared documents", func(t *testing.T) {
		docs, err := documents.GetClassSharedDocuments(ctx, student.ID, class.ID)
		require.NoError(t, err)
		require.Len(t, docs, 1)
		assert.Equal(t, "temario.txt", docs[0].Filename)
		assert.Equal(t, "La Revolución Francesa", docs[0].Text)
	})

	t.Run("non-members are rejected", func(t *testing.T) {
		_, err := documents.GetClassSharedDocuments(ctx, outsider.ID, class.ID)
		require.Error(t, err)
		assert.Equal(t, contextutils.ErrorCodeForbidden, contextutils.GetErrorCode(err))
	})

	t.Run("unsharing hides the document again", func(t *testing.T) {
		_, err := documents.ShareDocument(ctx, teacher.ID, shared.ID, false)
		require.NoError(t, err)

		docs, err := documents.GetClassSharedDocuments(ctx, student.ID, class.ID)
		require.NoError(t, err)
		assert.Empty(t, docs)
	})
}
