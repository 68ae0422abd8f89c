package handlers

import (
	"net/http"

	"tutoria/internal/models"
	"tutoria/internal/observability"
	"tutoria/internal/services"
	contextutils "tutoria/internal/utils"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

// GenerateGameRequest is the payload for game creation.
type GenerateGameRequest struct {
	Subject    string `json:"subject" binding:"required"`
	Topic      string `json:"topic" binding:"required"`
	Level      string `json:"level"`
	Difficulty string `json:"difficulty"`
	DocumentID string `json:"document_id"`
}

// CompleteGameRequest is the payload for recording a finished game round.
type CompleteGameRequest struct {
	Score    float64 `json:"score"`
	MaxScore float64 `json:"max_score"`
}

// GamesHandler handles game generation, retrieval and completion requests
type GamesHandler struct {
	gamesService    services.GamesServiceInterface
	documentService services.DocumentServiceInterface
	logger          *observability.Logger
}

// NewGamesHandler creates a new GamesHandler instance
func NewGamesHandler(gamesService services.GamesServiceInterface, documentService services.DocumentServiceInterface, logger *observability.Logger) *GamesHandler {
	return &GamesHandler{
		gamesService:    gamesService,
		documentService: documentService,
		logger:          logger,
	}
}

// gameTypeParam parses and validates the :type route parameter.
func gameTypeParam(c *gin.Context) (models.ContentType, bool) {
	gameType := models.ContentType(c.Param("type"))
	if !gameType.Valid() || gameType == models.ContentQuiz || gameType == models.ContentCards {
		HandleValidationError(c, "game type", c.Param("type"), "unknown game type")
		return "", false
	}
	return gameType, true
}

// CreateGame generates a new game of the requested type
func (h *GamesHandler) CreateGame(c *gin.Context) {
	_, span := observability.TraceHandlerFunction(c.Request.Context(), "create_game")
	defer observability.FinishSpan(span, nil)

	userID, ok := currentUserID(c)
	if !ok {
		HandleAppError(c, contextutils.ErrUnauthorized)
		return
	}

	gameType, ok := gameTypeParam(c)
	if !ok {
		return
	}

	var req GenerateGameRequest
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
		observability.AttributeContentType(string(gameType)),
		observability.AttributeSubject(req.Subject),
		observability.AttributeTopic(req.Topic),
	)

	genReq, err := resolveGenerationRequest(c, h.documentService, userID, req.Subject, req.Topic, req.Level, req.Difficulty, 0, req.DocumentID)
	if err != nil {
		HandleAppError(c, err)
		return
	}

	game, err := h.gamesService.CreateGame(c.Request.Context(), userID, gameType, genReq)
	if err != nil {
		h.logger.Error(c.Request.Context(), "Game generation failed", err, map[string]interface{}{
			"user_id":   userID,
			"game_type": string(gameType),
			"subject":   req.Subject,
		})
		HandleGenerationError(c, gameType, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"game":    string(gameType),
		"data":    game,
	})
}

// DemoGame returns the canned demo payload for the requested game type
func (h *GamesHandler) DemoGame(c *gin.Context) {
	_, span := observability.TraceHandlerFunction(c.Request.Context(), "demo_game")
	defer observability.FinishSpan(span, nil)

	gameType, ok := gameTypeParam(c)
	if !ok {
		return
	}
	span.SetAttributes(observability.AttributeContentType(string(gameType)))

	payload, err := h.gamesService.DemoGame(c.Request.Context(), gameType)
	if err != nil {
		HandleAppError(c, err)
		return
	}

	c.Data(http.StatusOK, "application/json; charset=utf-8", payload)
}

// GetGames lists the current user's games without their payloads
func (h *GamesHandler) GetGames(c *gin.Context) {
	_, span := observability.TraceHandlerFunction(c.Request.Context(), "get_games")
	defer observability.FinishSpan(span, nil)

	userID, ok := currentUserID(c)
	if !ok {
		HandleAppError(c, contextutils.ErrUnauthorized)
		return
	}
	span.SetAttributes(attribute.Int("user.id", userID))

	games, err := h.gamesService.GetGamesByUser(c.Request.Context(), userID)
	if err != nil {
		HandleAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"games": games})
}

// GetGame returns one game, payload included
func (h *GamesHandler) GetGame(c *gin.Context) {
	_, span := observability.TraceHandlerFunction(c.Request.Context(), "get_game")
	defer observability.FinishSpan(span, nil)

	userID, ok := currentUserID(c)
	if !ok {
		HandleAppError(c, contextutils.ErrUnauthorized)
		return
	}
	span.SetAttributes(attribute.Int("user.id", userID), attribute.String("game.id", c.Param("id")))

	game, err := h.gamesService.GetGame(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		HandleAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, game)
}

// CompleteGame records a finished round for the given game type
func (h *GamesHandler) CompleteGame(c *gin.Context) {
	_, span := observability.TraceHandlerFunction(c.Request.Context(), "complete_game")
	defer observability.FinishSpan(span, nil)

	userID, ok := currentUserID(c)
	if !ok {
		HandleAppError(c, contextutils.ErrUnauthorized)
		return
	}

	gameType, ok := gameTypeParam(c)
	if !ok {
		return
	}

	var req CompleteGameRequest
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
		observability.AttributeContentType(string(gameType)),
		attribute.Float64("game.score", req.Score),
	)

	completion, err := h.gamesService.CompleteGame(c.Request.Context(), userID, gameType, req.Score, req.MaxScore)
	if err != nil {
		HandleAppError(c, err)
		return
	}

	c.JSON(http.StatusCreated, completion)
}
