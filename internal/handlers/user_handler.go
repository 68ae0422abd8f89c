package handlers

import (
	"net/http"

	"tutoria/internal/observability"
	"tutoria/internal/services"
	contextutils "tutoria/internal/utils"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

// UserHandler handles user profile and progress endpoints
type UserHandler struct {
	userService services.UserServiceInterface
	logger      *observability.Logger
}

// NewUserHandler creates a new UserHandler instance
func NewUserHandler(userService services.UserServiceInterface, logger *observability.Logger) *UserHandler {
	return &UserHandler{
		userService: userService,
		logger:      logger,
	}
}

// StudentStats returns the aggregated progress counters for the current user
func (h *UserHandler) StudentStats(c *gin.Context) {
	_, span := observability.TraceHandlerFunction(c.Request.Context(), "student_stats")
	defer observability.FinishSpan(span, nil)

	userID, ok := currentUserID(c)
	if !ok {
		HandleAppError(c, contextutils.ErrUnauthorized)
		return
	}
	span.SetAttributes(attribute.Int("user.id", userID))

	stats, err := h.userService.GetStudentStats(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error(c.Request.Context(), "Failed to load student stats", err, map[string]interface{}{"user_id": userID})
		HandleAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}
