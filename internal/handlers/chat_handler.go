package handlers

import (
	"net/http"

	"tutoria/internal/observability"
	"tutoria/internal/services"
	contextutils "tutoria/internal/utils"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

// ChatRequest is the payload for sending a tutor chat message.
type ChatRequest struct {
	ConversationID string `json:"conversation_id"`
	Message        string `json:"message" binding:"required"`
}

// ChatHandler handles tutor conversation endpoints
type ChatHandler struct {
	conversationService services.ConversationServiceInterface
	logger              *observability.Logger
}

// NewChatHandler creates a new ChatHandler instance
func NewChatHandler(conversationService services.ConversationServiceInterface, logger *observability.Logger) *ChatHandler {
	return &ChatHandler{
		conversationService: conversationService,
		logger:              logger,
	}
}

// SendMessage runs one chat turn and returns both stored messages
func (h *ChatHandler) SendMessage(c *gin.Context) {
	_, span := observability.TraceHandlerFunction(c.Request.Context(), "send_message")
	defer observability.FinishSpan(span, nil)

	userID, ok := currentUserID(c)
	if !ok {
		HandleAppError(c, contextutils.ErrUnauthorized)
		return
	}

	var req ChatRequest
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
		attribute.Bool("chat.new_conversation", req.ConversationID == ""),
	)

	result, err := h.conversationService.Chat(c.Request.Context(), userID, req.ConversationID, req.Message)
	if err != nil {
		h.logger.Error(c.Request.Context(), "Chat turn failed", err, map[string]interface{}{"user_id": userID})
		HandleAppError(c, err)
		return
	}

	span.SetAttributes(attribute.String("chat.conversation_id", result.ConversationID))
	c.JSON(http.StatusOK, result)
}

// GetConversations lists the current user's conversations
func (h *ChatHandler) GetConversations(c *gin.Context) {
	_, span := observability.TraceHandlerFunction(c.Request.Context(), "get_conversations")
	defer observability.FinishSpan(span, nil)

	userID, ok := currentUserID(c)
	if !ok {
		HandleAppError(c, contextutils.ErrUnauthorized)
		return
	}
	span.SetAttributes(attribute.Int("user.id", userID))

	conversations, err := h.conversationService.GetConversationsByUser(c.Request.Context(), userID)
	if err != nil {
		HandleAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"conversations": conversations})
}

// GetMessages returns the full message history of one conversation
func (h *ChatHandler) GetMessages(c *gin.Context) {
	_, span := observability.TraceHandlerFunction(c.Request.Context(), "get_messages")
	defer observability.FinishSpan(span, nil)

	userID, ok := currentUserID(c)
	if !ok {
		HandleAppError(c, contextutils.ErrUnauthorized)
		return
	}
	span.SetAttributes(
		attribute.Int("user.id", userID),
		attribute.String("chat.conversation_id", c.Param("id")),
	)

	messages, err := h.conversationService.GetMessages(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		HandleAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": messages})
}

// DeleteConversation removes one conversation the current user owns
func (h *ChatHandler) DeleteConversation(c *gin.Context) {
	_, span := observability.TraceHandlerFunction(c.Request.Context(), "delete_conversation")
	defer observability.FinishSpan(span, nil)

	userID, ok := currentUserID(c)
	if !ok {
		HandleAppError(c, contextutils.ErrUnauthorized)
		return
	}
	span.SetAttributes(
		attribute.Int("user.id", userID),
		attribute.String("chat.conversation_id", c.Param("id")),
	)

	if err := h.conversationService.DeleteConversation(c.Request.Context(), userID, c.Param("id")); err != nil {
		HandleAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
