package handlers

import (
	"net/http"
	"strconv"

	"tutoria/internal/config"
	"tutoria/internal/models"
	"tutoria/internal/observability"
	"tutoria/internal/services"
	contextutils "tutoria/internal/utils"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

// GenerateQuizRequest is the payload for quiz creation.
type GenerateQuizRequest struct {
	Subject    string `json:"subject" binding:"required"`
	Topic      string `json:"topic" binding:"required"`
	Level      string `json:"level"`
	Difficulty string `json:"difficulty"`
	Count      int    `json:"count"`
	DocumentID string `json:"document_id"`
}

// SubmitQuizRequest is the payload for quiz submission.
type SubmitQuizRequest struct {
	Answers []int `json:"answers" binding:"required"`
}

// QuizHandler handles quiz generation, retrieval and scoring requests
type QuizHandler struct {
	quizService     services.QuizServiceInterface
	documentService services.DocumentServiceInterface
	config          *config.Config
	logger          *observability.Logger
}

// NewQuizHandler creates a new QuizHandler instance
func NewQuizHandler(quizService services.QuizServiceInterface, documentService services.DocumentServiceInterface, cfg *config.Config, logger *observability.Logger) *QuizHandler {
	return &QuizHandler{
		quizService:     quizService,
		documentService: documentService,
		config:          cfg,
		logger:          logger,
	}
}

// CreateQuiz generates a new quiz and persists it for the current user
func (h *QuizHandler) CreateQuiz(c *gin.Context) {
	_, span := observability.TraceHandlerFunction(c.Request.Context(), "create_quiz")
	defer observability.FinishSpan(span, nil)

	userID, ok := currentUserID(c)
	if !ok {
		HandleAppError(c, contextutils.ErrUnauthorized)
		return
	}

	var req GenerateQuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleAppError(c, contextutils.NewAppErrorWithCause(
			contextutils.ErrorCodeInvalidInput,
			contextutils.SeverityWarn,
			"Invalid request body",
			"",
			err,
		))
		return
	}

	span.SetAttributes(
		attribute.Int("user.id", userID),
		observability.AttributeSubject(req.Subject),
		observability.AttributeTopic(req.Topic),
		attribute.Int("quiz.count", req.Count),
	)

	genReq, err := resolveGenerationRequest(c, h.documentService, userID, req.Subject, req.Topic, req.Level, req.Difficulty, req.Count, req.DocumentID)
	if err != nil {
		HandleAppError(c, err)
		return
	}

	quiz, err := h.quizService.CreateQuiz(c.Request.Context(), userID, genReq)
	if err != nil {
		h.logger.Error(c.Request.Context(), "Quiz generation failed", err, map[string]interface{}{
			"user_id": userID,
			"subject": req.Subject,
			"topic":   req.Topic,
		})
		HandleGenerationError(c, models.ContentQuiz, err)
		return
	}

	c.JSON(http.StatusCreated, quiz)
}

// GetQuizzes lists all quizzes belonging to the current user
func (h *QuizHandler) GetQuizzes(c *gin.Context) {
	_, span := observability.TraceHandlerFunction(c.Request.Context(), "get_quizzes")
	defer observability.FinishSpan(span, nil)

	userID, ok := currentUserID(c)
	if !ok {
		HandleAppError(c, contextutils.ErrUnauthorized)
		return
	}
	span.SetAttributes(attribute.Int("user.id", userID))

	quizzes, err := h.quizService.GetQuizzesByUser(c.Request.Context(), userID)
	if err != nil {
		HandleAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"quizzes": quizzes})
}

// GetQuiz returns a single quiz owned by the current user
func (h *QuizHandler) GetQuiz(c *gin.Context) {
	_, span := observability.TraceHandlerFunction(c.Request.Context(), "get_quiz")
	defer observability.FinishSpan(span, nil)

	userID, ok := currentUserID(c)
	if !ok {
		HandleAppError(c, contextutils.ErrUnauthorized)
		return
	}

	quizID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		HandleValidationError(c, "quiz id", c.Param("id"), "must be an integer")
		return
	}
	span.SetAttributes(attribute.Int("user.id", userID), observability.AttributeQuizID(quizID))

	quiz, err := h.quizService.GetQuiz(c.Request.Context(), userID, quizID)
	if err != nil {
		HandleAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, quiz)
}

// SubmitQuiz scores the submitted answers and marks the quiz completed
func (h *QuizHandler) SubmitQuiz(c *gin.Context) {
	_, span := observability.TraceHandlerFunction(c.Request.Context(), "submit_quiz")
	defer observability.FinishSpan(span, nil)

	userID, ok := currentUserID(c)
	if !ok {
		HandleAppError(c, contextutils.ErrUnauthorized)
		return
	}

	quizID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		HandleValidationError(c, "quiz id", c.Param("id"), "must be an integer")
		return
	}

	var req SubmitQuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleAppError(c, contextutils.NewAppErrorWithCause(
			contextutils.ErrorCodeInvalidInput,
			contextutils.SeverityWarn,
			"Invalid request body",
			"",
			err,
		))
		return
	}

	span.SetAttributes(
		attribute.Int("user.id", userID),
		observability.AttributeQuizID(quizID),
		attribute.Int("quiz.answer_count", len(req.Answers)),
	)

	result, err := h.quizService.SubmitQuiz(c.Request.Context(), userID, quizID, req.Answers)
	if err != nil {
		HandleAppError(c, err)
		return
	}

	span.SetAttributes(attribute.Float64("quiz.score", result.Percentage))
	c.JSON(http.StatusOK, result)
}
