package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"tutoria/internal/models"
	"tutoria/internal/observability"
	"tutoria/internal/services"
	contextutils "tutoria/internal/utils"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

// CreateActivityRequest is the payload for posting an assignment to a class.
type CreateActivityRequest struct {
	ClassID     string          `json:"class_id" binding:"required"`
	Title       string          `json:"title" binding:"required"`
	Description string          `json:"description"`
	Subject     string          `json:"subject"`
	Type        string          `json:"activity_type"`
	DueDate     *time.Time      `json:"due_date"`
	Content     json.RawMessage `json:"content"`
}

// SubmitActivityRequest is the payload for a student handing in work.
type SubmitActivityRequest struct {
	Content string `json:"content" binding:"required"`
}

// ActivityHandler handles class assignment endpoints
type ActivityHandler struct {
	activityService services.ActivityServiceInterface
	logger          *observability.Logger
}

// NewActivityHandler creates a new ActivityHandler instance
func NewActivityHandler(activityService services.ActivityServiceInterface, logger *observability.Logger) *ActivityHandler {
	return &ActivityHandler{
		activityService: activityService,
		logger:          logger,
	}
}

// CreateActivity posts an assignment to one of the teacher's classes
func (h *ActivityHandler) CreateActivity(c *gin.Context) {
	_, span := observability.TraceHandlerFunction(c.Request.Context(), "create_activity")
	defer observability.FinishSpan(span, nil)

	teacherID, ok := currentUserID(c)
	if !ok {
		HandleAppError(c, contextutils.ErrUnauthorized)
		return
	}

	var req CreateActivityRequest
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
		attribute.Int("user.id", teacherID),
		attribute.String("class.id", req.ClassID),
	)

	activity, err := h.activityService.CreateActivity(c.Request.Context(), teacherID, &models.ActivityInput{
		ClassID:     req.ClassID,
		Title:       req.Title,
		Description: req.Description,
		Subject:     req.Subject,
		Type:        models.ActivityType(req.Type),
		DueDate:     req.DueDate,
		Content:     req.Content,
	})
	if err != nil {
		h.logger.Error(c.Request.Context(), "Activity creation failed", err, map[string]interface{}{"user_id": teacherID})
		HandleAppError(c, err)
		return
	}

	c.JSON(http.StatusCreated, activity)
}

// GetClassActivities lists the assignments posted to a class. Students also
// get their own submission status per assignment.
func (h *ActivityHandler) GetClassActivities(c *gin.Context) {
	_, span := observability.TraceHandlerFunction(c.Request.Context(), "get_class_activities")
	defer observability.FinishSpan(span, nil)

	userID, ok := currentUserID(c)
	if !ok {
		HandleAppError(c, contextutils.ErrUnauthorized)
		return
	}

	studentID := 0
	if currentRole(c) == models.RoleStudent {
		studentID = userID
	}

	span.SetAttributes(
		attribute.Int("user.id", userID),
		attribute.String("class.id", c.Param("id")),
	)

	activities, err := h.activityService.GetClassActivities(c.Request.Context(), userID, c.Param("id"), studentID)
	if err != nil {
		HandleAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"activities": activities})
}

// SubmitActivity records or replaces the current student's submission
func (h *ActivityHandler) SubmitActivity(c *gin.Context) {
	_, span := observability.TraceHandlerFunction(c.Request.Context(), "submit_activity")
	defer observability.FinishSpan(span, nil)

	studentID, ok := currentUserID(c)
	if !ok {
		HandleAppError(c, contextutils.ErrUnauthorized)
		return
	}

	var req SubmitActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleAppError(c, contextutils.NewAppErrorWithCause(
			contextutils.ErrorCodeInvalidInput,
			contextutils.SeverityWarn,
			"Invalid request body",
			"expected field 'content'",
			err,
		))
		return
	}

	span.SetAttributes(
		attribute.Int("user.id", studentID),
		attribute.String("activity.id", c.Param("id")),
	)

	submission, err := h.activityService.SubmitActivity(c.Request.Context(), studentID, c.Param("id"), req.Content)
	if err != nil {
		HandleAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, submission)
}

// GetSubmissions lists the student submissions for one of the teacher's
// assignments
func (h *ActivityHandler) GetSubmissions(c *gin.Context) {
	_, span := observability.TraceHandlerFunction(c.Request.Context(), "get_submissions")
	defer observability.FinishSpan(span, nil)

	teacherID, ok := currentUserID(c)
	if !ok {
		HandleAppError(c, contextutils.ErrUnauthorized)
		return
	}
	span.SetAttributes(
		attribute.Int("user.id", teacherID),
		attribute.String("activity.id", c.Param("id")),
	)

	submissions, err := h.activityService.GetSubmissions(c.Request.Context(), teacherID, c.Param("id"))
	if err != nil {
		HandleAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"submissions": submissions})
}

// DeleteActivity removes one of the teacher's assignments
func (h *ActivityHandler) DeleteActivity(c *gin.Context) {
	_, span := observability.TraceHandlerFunction(c.Request.Context(), "delete_activity")
	defer observability.FinishSpan(span, nil)

	teacherID, ok := currentUserID(c)
	if !ok {
		HandleAppError(c, contextutils.ErrUnauthorized)
		return
	}
	span.SetAttributes(
		attribute.Int("user.id", teacherID),
		attribute.String("activity.id", c.Param("id")),
	)

	if err := h.activityService.DeleteActivity(c.Request.Context(), teacherID, c.Param("id")); err != nil {
		HandleAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
