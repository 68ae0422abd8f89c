package handlers

import (
	"fmt"
	"net/http"

	"tutoria/internal/models"
	contextutils "tutoria/internal/utils"

	"github.com/gin-gonic/gin"
)

// User-facing generation failure messages, keyed by content type. The
// frontend shows these verbatim, so they stay in Spanish.
var generationFailureMessages = map[models.ContentType]string{
	models.ContentQuiz:        "No se pudieron generar las preguntas",
	models.ContentCards:       "No se pudieron generar las tarjetas",
	models.ContentPasapalabra: "No se pudo generar el Pasapalabra",
	models.ContentMillion:     "No se pudo generar Atrapa un Millón",
	models.ContentEscapeRoom:  "No se pudo generar el Escape Room",
	models.ContentHangman:     "No se pudo generar el Ahorcado",
}

// GenerationFailureMessage returns the Spanish error message shown when
// generating the given content type fails.
func GenerationFailureMessage(contentType models.ContentType) string {
	if msg, ok := generationFailureMessages[contentType]; ok {
		return msg
	}
	return "No se pudo generar el contenido"
}

// StandardizeHTTPError creates consistent HTTP error responses with structured error information
func StandardizeHTTPError(c *gin.Context, statusCode int, message, details string) {
	var errorCode contextutils.ErrorCode
	var severity contextutils.SeverityLevel

	switch statusCode {
	case http.StatusBadRequest:
		errorCode = contextutils.ErrorCodeInvalidInput
		severity = contextutils.SeverityWarn
	case http.StatusUnauthorized:
		errorCode = contextutils.ErrorCodeUnauthorized
		severity = contextutils.SeverityWarn
	case http.StatusForbidden:
		errorCode = contextutils.ErrorCodeForbidden
		severity = contextutils.SeverityWarn
	case http.StatusNotFound:
		errorCode = contextutils.ErrorCodeRecordNotFound
		severity = contextutils.SeverityInfo
	case http.StatusConflict:
		errorCode = contextutils.ErrorCodeRecordExists
		severity = contextutils.SeverityInfo
	case http.StatusServiceUnavailable:
		errorCode = contextutils.ErrorCodeServiceUnavailable
		severity = contextutils.SeverityError
	default:
		errorCode = contextutils.ErrorCodeInternalError
		severity = contextutils.SeverityError
	}

	appErr := contextutils.NewAppError(
		errorCode,
		severity,
		message,
		details,
	)

	c.JSON(statusCode, appErr.ToJSON())
}

// StandardizeAppError sends a structured error response using AppError
func StandardizeAppError(c *gin.Context, err *contextutils.AppError) {
	statusCode := mapErrorCodeToHTTPStatus(err.Code)

	errorJSON := err.ToJSON()
	errorJSON["retryable"] = contextutils.IsRetryable(err)

	c.JSON(statusCode, errorJSON)
}

// HandleValidationError handles input validation errors consistently
func HandleValidationError(c *gin.Context, field string, value interface{}, reason string) {
	appErr := contextutils.NewAppError(
		contextutils.ErrorCodeInvalidInput,
		contextutils.SeverityWarn,
		fmt.Sprintf("Invalid %s", field),
		fmt.Sprintf("Value '%v' is invalid: %s", value, reason),
	)

	StandardizeAppError(c, appErr)
}

// HandleAppError handles any AppError and sends appropriate HTTP response
func HandleAppError(c *gin.Context, err error) {
	var appErr *contextutils.AppError
	if contextutils.AsError(err, &appErr) {
		StandardizeAppError(c, appErr)
		return
	}
	StandardizeHTTPError(c, http.StatusInternalServerError, "Internal server error", err.Error())
}

// HandleGenerationError sends the Spanish failure message for generation
// failures and falls back to the standard mapping for everything else.
func HandleGenerationError(c *gin.Context, contentType models.ContentType, err error) {
	code := contextutils.GetErrorCode(err)
	switch code {
	case contextutils.ErrorCodeEmptyGeneration,
		contextutils.ErrorCodeAIRequestFailed,
		contextutils.ErrorCodeAIResponseInvalid,
		contextutils.ErrorCodeAIProviderUnavailable:
		appErr := contextutils.NewAppErrorWithCause(
			code,
			contextutils.SeverityError,
			GenerationFailureMessage(contentType),
			"",
			err,
		)
		StandardizeAppError(c, appErr)
	default:
		HandleAppError(c, err)
	}
}

// mapErrorCodeToHTTPStatus maps AppError codes to appropriate HTTP status codes
func mapErrorCodeToHTTPStatus(code contextutils.ErrorCode) int {
	switch code {
	// 4xx Client Errors
	case contextutils.ErrorCodeInvalidInput, contextutils.ErrorCodeMissingRequired,
		contextutils.ErrorCodeInvalidFormat, contextutils.ErrorCodeValidationFailed,
		contextutils.ErrorCodeQuizAlreadyCompleted, contextutils.ErrorCodeUnsupportedContentType:
		return http.StatusBadRequest

	case contextutils.ErrorCodeUnauthorized:
		return http.StatusUnauthorized

	case contextutils.ErrorCodeForbidden:
		return http.StatusForbidden

	case contextutils.ErrorCodeRecordNotFound:
		return http.StatusNotFound

	case contextutils.ErrorCodeRecordExists, contextutils.ErrorCodeConflict:
		return http.StatusConflict

	case contextutils.ErrorCodeSessionExpired, contextutils.ErrorCodeInvalidCredentials:
		return http.StatusUnauthorized

	case contextutils.ErrorCodeDocumentTooLarge:
		return http.StatusRequestEntityTooLarge

	// 5xx Server Errors
	case contextutils.ErrorCodeInternalError:
		return http.StatusInternalServerError

	case contextutils.ErrorCodeServiceUnavailable, contextutils.ErrorCodeDatabaseConnection,
		contextutils.ErrorCodeAIProviderUnavailable:
		return http.StatusServiceUnavailable

	case contextutils.ErrorCodeTimeout:
		return http.StatusRequestTimeout

	case contextutils.ErrorCodeDatabaseQuery, contextutils.ErrorCodeDatabaseTransaction,
		contextutils.ErrorCodeForeignKeyViolation,
		contextutils.ErrorCodeEmptyGeneration, contextutils.ErrorCodeAIRequestFailed,
		contextutils.ErrorCodeAIResponseInvalid, contextutils.ErrorCodeAIConfigInvalid:
		return http.StatusInternalServerError

	// Default to internal server error for unknown codes
	default:
		return http.StatusInternalServerError
	}
}
