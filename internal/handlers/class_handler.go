package handlers

import (
	"net/http"
	"strconv"

	"tutoria/internal/observability"
	"tutoria/internal/services"
	contextutils "tutoria/internal/utils"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

// CreateClassRequest is the payload for class creation.
type CreateClassRequest struct {
	Name    string `json:"name" binding:"required"`
	Subject string `json:"subject" binding:"required"`
}

// JoinClassRequest is the payload for joining a class by code.
type JoinClassRequest struct {
	JoinCode string `json:"join_code" binding:"required"`
}

// ClassHandler handles class management endpoints
type ClassHandler struct {
	classService services.ClassServiceInterface
	logger       *observability.Logger
}

// NewClassHandler creates a new ClassHandler instance
func NewClassHandler(classService services.ClassServiceInterface, logger *observability.Logger) *ClassHandler {
	return &ClassHandler{
		classService: classService,
		logger:       logger,
	}
}

// CreateClass creates a class owned by the current teacher
func (h *ClassHandler) CreateClass(c *gin.Context) {
	_, span := observability.TraceHandlerFunction(c.Request.Context(), "create_class")
	defer observability.FinishSpan(span, nil)

	teacherID, ok := currentUserID(c)
	if !ok {
		HandleAppError(c, contextutils.ErrUnauthorized)
		return
	}

	var req CreateClassRequest
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
		observability.AttributeSubject(req.Subject),
	)

	class, err := h.classService.CreateClass(c.Request.Context(), teacherID, req.Name, req.Subject)
	if err != nil {
		h.logger.Error(c.Request.Context(), "Class creation failed", err, map[string]interface{}{"user_id": teacherID})
		HandleAppError(c, err)
		return
	}

	c.JSON(http.StatusCreated, class)
}

// GetClasses lists the classes owned by the current teacher
func (h *ClassHandler) GetClasses(c *gin.Context) {
	_, span := observability.TraceHandlerFunction(c.Request.Context(), "get_classes")
	defer observability.FinishSpan(span, nil)

	teacherID, ok := currentUserID(c)
	if !ok {
		HandleAppError(c, contextutils.ErrUnauthorized)
		return
	}
	span.SetAttributes(attribute.Int("user.id", teacherID))

	classes, err := h.classService.GetClassesByTeacher(c.Request.Context(), teacherID)
	if err != nil {
		HandleAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"classes": classes})
}

// GetClassStudents lists the students enrolled in one of the teacher's classes
func (h *ClassHandler) GetClassStudents(c *gin.Context) {
	_, span := observability.TraceHandlerFunction(c.Request.Context(), "get_class_students")
	defer observability.FinishSpan(span, nil)

	teacherID, ok := currentUserID(c)
	if !ok {
		HandleAppError(c, contextutils.ErrUnauthorized)
		return
	}
	span.SetAttributes(
		attribute.Int("user.id", teacherID),
		attribute.String("class.id", c.Param("id")),
	)

	students, err := h.classService.GetClassStudents(c.Request.Context(), teacherID, c.Param("id"))
	if err != nil {
		HandleAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"students": students})
}

// GetStudentProgress summarizes one enrolled student's work for the teacher
func (h *ClassHandler) GetStudentProgress(c *gin.Context) {
	_, span := observability.TraceHandlerFunction(c.Request.Context(), "get_student_progress")
	defer observability.FinishSpan(span, nil)

	teacherID, ok := currentUserID(c)
	if !ok {
		HandleAppError(c, contextutils.ErrUnauthorized)
		return
	}

	studentID, err := strconv.Atoi(c.Param("studentID"))
	if err != nil {
		HandleAppError(c, contextutils.WrapError(contextutils.ErrInvalidInput, "student id must be numeric"))
		return
	}

	span.SetAttributes(
		attribute.Int("user.id", teacherID),
		attribute.String("class.id", c.Param("id")),
		attribute.Int("student.id", studentID),
	)

	progress, err := h.classService.GetStudentProgress(c.Request.Context(), teacherID, c.Param("id"), studentID)
	if err != nil {
		HandleAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, progress)
}

// JoinClass enrolls the current student into a class by join code
func (h *ClassHandler) JoinClass(c *gin.Context) {
	_, span := observability.TraceHandlerFunction(c.Request.Context(), "join_class")
	defer observability.FinishSpan(span, nil)

	studentID, ok := currentUserID(c)
	if !ok {
		HandleAppError(c, contextutils.ErrUnauthorized)
		return
	}

	var req JoinClassRequest
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

	span.SetAttributes(attribute.Int("user.id", studentID))

	class, err := h.classService.JoinClass(c.Request.Context(), studentID, req.JoinCode)
	if err != nil {
		HandleAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, class)
}

// DeleteClass removes one of the teacher's classes and its memberships
func (h *ClassHandler) DeleteClass(c *gin.Context) {
	_, span := observability.TraceHandlerFunction(c.Request.Context(), "delete_class")
	defer observability.FinishSpan(span, nil)

	teacherID, ok := currentUserID(c)
	if !ok {
		HandleAppError(c, contextutils.ErrUnauthorized)
		return
	}
	span.SetAttributes(
		attribute.Int("user.id", teacherID),
		attribute.String("class.id", c.Param("id")),
	)

	if err := h.classService.DeleteClass(c.Request.Context(), teacherID, c.Param("id")); err != nil {
		HandleAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
