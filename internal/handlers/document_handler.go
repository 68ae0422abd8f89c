package handlers

import (
	"io"
	"net/http"

	"tutoria/internal/config"
	"tutoria/internal/observability"
	"tutoria/internal/services"
	contextutils "tutoria/internal/utils"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

// DocumentHandler handles document upload and retrieval endpoints
type DocumentHandler struct {
	documentService services.DocumentServiceInterface
	config          *config.Config
	logger          *observability.Logger
}

// NewDocumentHandler creates a new DocumentHandler instance
func NewDocumentHandler(documentService services.DocumentServiceInterface, cfg *config.Config, logger *observability.Logger) *DocumentHandler {
	return &DocumentHandler{
		documentService: documentService,
		config:          cfg,
		logger:          logger,
	}
}

// UploadDocument accepts a multipart file upload and stores its text
func (h *DocumentHandler) UploadDocument(c *gin.Context) {
	_, span := observability.TraceHandlerFunction(c.Request.Context(), "upload_document")
	defer observability.FinishSpan(span, nil)

	userID, ok := currentUserID(c)
	if !ok {
		HandleAppError(c, contextutils.ErrUnauthorized)
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		HandleAppError(c, contextutils.NewAppErrorWithCause(
			contextutils.ErrorCodeMissingRequired,
			contextutils.SeverityWarn,
			"Missing file upload",
			"expected multipart field 'file'",
			err,
		))
		return
	}

	maxBytes := h.config.Server.MaxUploadBytes
	span.SetAttributes(
		attribute.Int("user.id", userID),
		attribute.String("document.filename", fileHeader.Filename),
		attribute.Int64("document.size_bytes", fileHeader.Size),
	)

	if fileHeader.Size > maxBytes {
		HandleAppError(c, contextutils.ErrDocumentTooLarge)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		HandleAppError(c, contextutils.WrapError(err, "failed to open upload"))
		return
	}
	defer func() { _ = file.Close() }()

	// LimitReader guards against a lying Content-Length.
	content, err := io.ReadAll(io.LimitReader(file, maxBytes+1))
	if err != nil {
		HandleAppError(c, contextutils.WrapError(err, "failed to read upload"))
		return
	}

	doc, err := h.documentService.UploadDocument(c.Request.Context(), userID, fileHeader.Filename, content, maxBytes)
	if err != nil {
		h.logger.Warn(c.Request.Context(), "Document upload rejected", map[string]interface{}{
			"user_id":  userID,
			"filename": fileHeader.Filename,
			"error":    err.Error(),
		})
		HandleAppError(c, err)
		return
	}

	c.JSON(http.StatusCreated, doc)
}

// GetDocuments lists the current user's documents without their text
func (h *DocumentHandler) GetDocuments(c *gin.Context) {
	_, span := observability.TraceHandlerFunction(c.Request.Context(), "get_documents")
	defer observability.FinishSpan(span, nil)

	userID, ok := currentUserID(c)
	if !ok {
		HandleAppError(c, contextutils.ErrUnauthorized)
		return
	}
	span.SetAttributes(attribute.Int("user.id", userID))

	docs, err := h.documentService.GetDocumentsByUser(c.Request.Context(), userID)
	if err != nil {
		HandleAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"documents": docs})
}

// GetDocument returns one document with its extracted text
func (h *DocumentHandler) GetDocument(c *gin.Context) {
	_, span := observability.TraceHandlerFunction(c.Request.Context(), "get_document")
	defer observability.FinishSpan(span, nil)

	userID, ok := currentUserID(c)
	if !ok {
		HandleAppError(c, contextutils.ErrUnauthorized)
		return
	}
	span.SetAttributes(
		attribute.Int("user.id", userID),
		attribute.String("document.id", c.Param("id")),
	)

	doc, err := h.documentService.GetDocument(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		HandleAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":         doc.ID,
		"filename":   doc.Filename,
		"mime_type":  doc.MimeType,
		"size_bytes": doc.SizeBytes,
		"text":       doc.Text,
		"created_at": doc.CreatedAt,
	})
}

// ShareDocumentRequest toggles whether a document is visible to the
// teacher's classes.
type ShareDocumentRequest struct {
	Shared *bool `json:"is_shared" binding:"required"`
}

// ShareDocument marks one of the teacher's documents as shared or private
func (h *DocumentHandler) ShareDocument(c *gin.Context) {
	_, span := observability.TraceHandlerFunction(c.Request.Context(), "share_document")
	defer observability.FinishSpan(span, nil)

	teacherID, ok := currentUserID(c)
	if !ok {
		HandleAppError(c, contextutils.ErrUnauthorized)
		return
	}

	var req ShareDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleAppError(c, contextutils.NewAppErrorWithCause(
			contextutils.ErrorCodeInvalidInput,
			contextutils.SeverityWarn,
			"Invalid request body",
			"expected boolean field 'is_shared'",
			err,
		))
		return
	}

	span.SetAttributes(
		attribute.Int("user.id", teacherID),
		attribute.String("document.id", c.Param("id")),
		attribute.Bool("document.shared", *req.Shared),
	)

	doc, err := h.documentService.ShareDocument(c.Request.Context(), teacherID, c.Param("id"), *req.Shared)
	if err != nil {
		HandleAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, doc)
}

// GetClassDocuments lists the documents the class teacher has shared
func (h *DocumentHandler) GetClassDocuments(c *gin.Context) {
	_, span := observability.TraceHandlerFunction(c.Request.Context(), "get_class_documents")
	defer observability.FinishSpan(span, nil)

	userID, ok := currentUserID(c)
	if !ok {
		HandleAppError(c, contextutils.ErrUnauthorized)
		return
	}
	span.SetAttributes(
		attribute.Int("user.id", userID),
		attribute.String("class.id", c.Param("id")),
	)

	docs, err := h.documentService.GetClassSharedDocuments(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		HandleAppError(c, err)
		return
	}

	// Shared documents carry their text so students can study from them.
	payload := make([]gin.H, 0, len(docs))
	for _, doc := range docs {
		payload = append(payload, gin.H{
			"id":         doc.ID,
			"filename":   doc.Filename,
			"mime_type":  doc.MimeType,
			"size_bytes": doc.SizeBytes,
			"is_shared":  doc.IsShared,
			"text":       doc.Text,
			"created_at": doc.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"documents": payload})
}

// DeleteDocument removes one of the user's documents
func (h *DocumentHandler) DeleteDocument(c *gin.Context) {
	_, span := observability.TraceHandlerFunction(c.Request.Context(), "delete_document")
	defer observability.FinishSpan(span, nil)

	userID, ok := currentUserID(c)
	if !ok {
		HandleAppError(c, contextutils.ErrUnauthorized)
		return
	}
	span.SetAttributes(
		attribute.Int("user.id", userID),
		attribute.String("document.id", c.Param("id")),
	)

	if err := h.documentService.DeleteDocument(c.Request.Context(), userID, c.Param("id")); err != nil {
		HandleAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
