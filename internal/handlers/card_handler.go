package handlers

import (
	"net/http"
	"strconv"

	"tutoria/internal/models"
	"tutoria/internal/observability"
	"tutoria/internal/services"
	contextutils "tutoria/internal/utils"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

// GenerateCardsRequest is the payload for flashcard creation.
type GenerateCardsRequest struct {
	Subject    string `json:"subject" binding:"required"`
	Topic      string `json:"topic" binding:"required"`
	Level      string `json:"level"`
	Difficulty string `json:"difficulty"`
	Count      int    `json:"count"`
	DocumentID string `json:"document_id"`
}

// ReviewCardRequest is the payload for recording a card review.
type ReviewCardRequest struct {
	Correct bool `json:"correct"`
}

// CardHandler handles study card generation and review requests
type CardHandler struct {
	cardService     services.CardServiceInterface
	documentService services.DocumentServiceInterface
	logger          *observability.Logger
}

// NewCardHandler creates a new CardHandler instance
func NewCardHandler(cardService services.CardServiceInterface, documentService services.DocumentServiceInterface, logger *observability.Logger) *CardHandler {
	return &CardHandler{
		cardService:     cardService,
		documentService: documentService,
		logger:          logger,
	}
}

// CreateCards generates a batch of flashcards for the current user
func (h *CardHandler) CreateCards(c *gin.Context) {
	_, span := observability.TraceHandlerFunction(c.Request.Context(), "create_cards")
	defer observability.FinishSpan(span, nil)

	userID, ok := currentUserID(c)
	if !ok {
		HandleAppError(c, contextutils.ErrUnauthorized)
		return
	}

	var req GenerateCardsRequest
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
	)

	genReq, err := resolveGenerationRequest(c, h.documentService, userID, req.Subject, req.Topic, req.Level, req.Difficulty, req.Count, req.DocumentID)
	if err != nil {
		HandleAppError(c, err)
		return
	}

	cards, err := h.cardService.CreateCards(c.Request.Context(), userID, genReq)
	if err != nil {
		h.logger.Error(c.Request.Context(), "Card generation failed", err, map[string]interface{}{
			"user_id": userID,
			"subject": req.Subject,
		})
		HandleGenerationError(c, models.ContentCards, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"cards": cards})
}

// GetCards lists the current user's cards, optionally filtered by subject
func (h *CardHandler) GetCards(c *gin.Context) {
	_, span := observability.TraceHandlerFunction(c.Request.Context(), "get_cards")
	defer observability.FinishSpan(span, nil)

	userID, ok := currentUserID(c)
	if !ok {
		HandleAppError(c, contextutils.ErrUnauthorized)
		return
	}
	span.SetAttributes(attribute.Int("user.id", userID))

	cards, err := h.cardService.GetCardsByUser(c.Request.Context(), userID, c.Query("subject"))
	if err != nil {
		HandleAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"cards": cards})
}

// ReviewCard records the outcome of one review round for a card
func (h *CardHandler) ReviewCard(c *gin.Context) {
	_, span := observability.TraceHandlerFunction(c.Request.Context(), "review_card")
	defer observability.FinishSpan(span, nil)

	userID, ok := currentUserID(c)
	if !ok {
		HandleAppError(c, contextutils.ErrUnauthorized)
		return
	}

	cardID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		HandleValidationError(c, "card id", c.Param("id"), "must be an integer")
		return
	}

	var req ReviewCardRequest
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
		attribute.Int("card.id", cardID),
		attribute.Bool("card.correct", req.Correct),
	)

	card, err := h.cardService.ReviewCard(c.Request.Context(), userID, cardID, req.Correct)
	if err != nil {
		HandleAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, card)
}
