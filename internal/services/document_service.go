package services

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"tutoria/internal/models"
	"tutoria/internal/observability"
	contextutils "tutoria/internal/utils"
)

// Upload types we can extract text from.
var allowedDocumentExtensions = map[string]string{
	".txt":  "text/plain",
	".md":   "text/markdown",
	".csv":  "text/csv",
	".pdf":  "application/pdf",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

// DocumentServiceInterface defines document upload, retrieval and sharing.
type DocumentServiceInterface interface {
	UploadDocument(ctx context.Context, userID int, filename string, content []byte, maxBytes int64) (*models.Document, error)
	GetDocument(ctx context.Context, userID int, documentID string) (*models.Document, error)
	GetDocumentsByUser(ctx context.Context, userID int) ([]models.Document, error)
	DeleteDocument(ctx context.Context, userID int, documentID string) error
	ShareDocument(ctx context.Context, teacherID int, documentID string, shared bool) (*models.Document, error)
	GetClassSharedDocuments(ctx context.Context, userID int, classID string) ([]models.Document, error)
}

// DocumentService stores uploaded study material and its extracted text,
// which grounds card and quiz generation.
type DocumentService struct {
	db     *sql.DB
	logger *observability.Logger
}

// NewDocumentService creates a new DocumentService instance.
func NewDocumentService(db *sql.DB, logger *observability.Logger) *DocumentService {
	return &DocumentService{
		db:     db,
		logger: logger,
	}
}

// UploadDocument validates the file, extracts its text and persists both.
// Formats outside the allowed set fail with an unsupported content type
// error.
func (s *DocumentService) UploadDocument(ctx context.Context, userID int, filename string, content []byte, maxBytes int64) (result0 *models.Document, err error) {
	ctx, span := observability.TraceDocumentFunction(ctx, "upload_document",
		observability.AttributeUserID(userID),
		attribute.Int("document.size", len(content)),
	)
	defer observability.FinishSpan(span, &err)

	if filename == "" || len(content) == 0 {
		return nil, contextutils.WrapError(contextutils.ErrMissingRequired, "filename and content are required")
	}
	if maxBytes > 0 && int64(len(content)) > maxBytes {
		return nil, contextutils.WrapErrorf(contextutils.ErrDocumentTooLarge, "document exceeds the %d byte limit", maxBytes)
	}

	ext := strings.ToLower(filepath.Ext(filename))
	mimeType, ok := allowedDocumentExtensions[ext]
	if !ok {
		return nil, contextutils.WrapErrorf(contextutils.ErrUnsupportedContentType, "unsupported document format: %s", ext)
	}

	text, err := extractDocumentText(ext, content)
	if err != nil {
		return nil, err
	}

	doc := &models.Document{
		ID:        uuid.NewString(),
		UserID:    userID,
		Filename:  filepath.Base(filename),
		MimeType:  mimeType,
		SizeBytes: int64(len(content)),
		Text:      text,
	}

	err = s.db.QueryRowContext(ctx,
		`INSERT INTO documents (id, user_id, filename, mime_type, size_bytes, text_content)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING created_at`,
		doc.ID, userID, doc.Filename, doc.MimeType, doc.SizeBytes, text,
	).Scan(&doc.CreatedAt)
	if err != nil {
		return nil, contextutils.WrapError(contextutils.ErrDatabaseQuery, "failed to insert document")
	}

	span.SetAttributes(attribute.String("document.id", doc.ID))
	s.logger.Info(ctx, "Document uploaded", map[string]interface{}{
		"document_id": doc.ID,
		"user_id":     userID,
		"size_bytes":  doc.SizeBytes,
	})
	return doc, nil
}

// GetDocument returns a document with its extracted text.
func (s *DocumentService) GetDocument(ctx context.Context, userID int, documentID string) (result0 *models.Document, err error) {
	ctx, span := observability.TraceDocumentFunction(ctx, "get_document",
		observability.AttributeUserID(userID),
		attribute.String("document.id", documentID),
	)
	defer observability.FinishSpan(span, &err)

	doc := &models.Document{}
	err = s.db.QueryRowContext(ctx,
		`SELECT id, user_id, filename, mime_type, size_bytes, is_shared, text_content, created_at
		 FROM documents WHERE id = $1`, documentID,
	).Scan(&doc.ID, &doc.UserID, &doc.Filename, &doc.MimeType, &doc.SizeBytes, &doc.IsShared, &doc.Text, &doc.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, contextutils.WrapErrorf(contextutils.ErrRecordNotFound, "document %s not found", documentID)
		}
		return nil, contextutils.WrapError(contextutils.ErrDatabaseQuery, "failed to query document")
	}
	if doc.UserID != userID {
		return nil, contextutils.WrapError(contextutils.ErrForbidden, "document belongs to another user")
	}
	return doc, nil
}

// GetDocumentsByUser lists a user's documents without their text, newest
// first.
func (s *DocumentService) GetDocumentsByUser(ctx context.Context, userID int) (result0 []models.Document, err error) {
	ctx, span := observability.TraceDocumentFunction(ctx, "get_documents_by_user",
		observability.AttributeUserID(userID),
	)
	defer observability.FinishSpan(span, &err)

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, filename, mime_type, size_bytes, is_shared, created_at
		 FROM documents WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, contextutils.WrapError(contextutils.ErrDatabaseQuery, "failed to query documents")
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			s.logger.Warn(ctx, "Failed to close rows", map[string]interface{}{"error": closeErr.Error()})
		}
	}()

	var docs []models.Document
	for rows.Next() {
		var doc models.Document
		if err := rows.Scan(&doc.ID, &doc.UserID, &doc.Filename, &doc.MimeType, &doc.SizeBytes, &doc.IsShared, &doc.CreatedAt); err != nil {
			return nil, contextutils.WrapError(contextutils.ErrDatabaseQuery, "failed to scan document row")
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, contextutils.WrapError(contextutils.ErrDatabaseQuery, "failed to iterate document rows")
	}
	span.SetAttributes(attribute.Int("documents.count", len(docs)))
	return docs, nil
}

// ShareDocument toggles the shared flag on a document the teacher owns.
// Shared documents become readable by every student in the teacher's classes.
func (s *DocumentService) ShareDocument(ctx context.Context, teacherID int, documentID string, shared bool) (result0 *models.Document, err error) {
	ctx, span := observability.TraceDocumentFunction(ctx, "share_document",
		observability.AttributeUserID(teacherID),
		attribute.String("document.id", documentID),
		attribute.Bool("document.shared", shared),
	)
	defer observability.FinishSpan(span, &err)

	doc, err := s.GetDocument(ctx, teacherID, documentID)
	if err != nil {
		return nil, err
	}

	_, err = s.db.ExecContext(ctx,
		`UPDATE documents SET is_shared = $1 WHERE id = $2`, shared, documentID)
	if err != nil {
		return nil, contextutils.WrapError(contextutils.ErrDatabaseQuery, "failed to update document share flag")
	}
	doc.IsShared = shared

	s.logger.Info(ctx, "Document share flag updated", map[string]interface{}{
		"document_id": documentID,
		"teacher_id":  teacherID,
		"shared":      shared,
	})
	return doc, nil
}

// GetClassSharedDocuments lists the class teacher's shared documents with
// their text. The caller must own the class or be on its roster.
func (s *DocumentService) GetClassSharedDocuments(ctx context.Context, userID int, classID string) (result0 []models.Document, err error) {
	ctx, span := observability.TraceDocumentFunction(ctx, "get_class_shared_documents",
		observability.AttributeUserID(userID),
		attribute.String("class.id", classID),
	)
	defer observability.FinishSpan(span, &err)

	var teacherID int
	err = s.db.QueryRowContext(ctx,
		`SELECT teacher_id FROM classes WHERE id = $1`, classID).Scan(&teacherID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, contextutils.WrapErrorf(contextutils.ErrRecordNotFound, "class %s not found", classID)
		}
		return nil, contextutils.WrapError(contextutils.ErrDatabaseQuery, "failed to query class")
	}

	if userID != teacherID {
		var member bool
		err = s.db.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM class_members WHERE class_id = $1 AND user_id = $2)`,
			classID, userID).Scan(&member)
		if err != nil {
			return nil, contextutils.WrapError(contextutils.ErrDatabaseQuery, "failed to query class membership")
		}
		if !member {
			return nil, contextutils.WrapError(contextutils.ErrForbidden, "not a member of this class")
		}
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, filename, mime_type, size_bytes, is_shared, text_content, created_at
		 FROM documents WHERE user_id = $1 AND is_shared = TRUE ORDER BY created_at DESC`, teacherID)
	if err != nil {
		return nil, contextutils.WrapError(contextutils.ErrDatabaseQuery, "failed to query shared documents")
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			s.logger.Warn(ctx, "Failed to close rows", map[string]interface{}{"error": closeErr.Error()})
		}
	}()

	var docs []models.Document
	for rows.Next() {
		var doc models.Document
		if err := rows.Scan(&doc.ID, &doc.UserID, &doc.Filename, &doc.MimeType, &doc.SizeBytes, &doc.IsShared, &doc.Text, &doc.CreatedAt); err != nil {
			return nil, contextutils.WrapError(contextutils.ErrDatabaseQuery, "failed to scan document row")
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, contextutils.WrapError(contextutils.ErrDatabaseQuery, "failed to iterate document rows")
	}
	span.SetAttributes(attribute.Int("documents.count", len(docs)))
	return docs, nil
}

// DeleteDocument removes a document the user owns.
func (s *DocumentService) DeleteDocument(ctx context.Context, userID int, documentID string) (err error) {
	ctx, span := observability.TraceDocumentFunction(ctx, "delete_document",
		observability.AttributeUserID(userID),
		attribute.String("document.id", documentID),
	)
	defer observability.FinishSpan(span, &err)

	res, err := s.db.ExecContext(ctx,
		`DELETE FROM documents WHERE id = $1 AND user_id = $2`, documentID, userID)
	if err != nil {
		return contextutils.WrapError(contextutils.ErrDatabaseQuery, "failed to delete document")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return contextutils.WrapError(contextutils.ErrDatabaseQuery, "failed to read delete result")
	}
	if affected == 0 {
		return contextutils.WrapErrorf(contextutils.ErrRecordNotFound, "document %s not found", documentID)
	}
	return nil
}
