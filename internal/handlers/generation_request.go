package handlers

import (
	"tutoria/internal/models"
	"tutoria/internal/services"
	contextutils "tutoria/internal/utils"

	"github.com/gin-gonic/gin"
)

// resolveGenerationRequest assembles the GenerationRequest shared by the
// quiz, cards and games handlers, loading the optional document context.
func resolveGenerationRequest(c *gin.Context, documents services.DocumentServiceInterface, userID int, subject, topic, level, difficulty string, count int, documentID string) (*models.GenerationRequest, error) {
	req := &models.GenerationRequest{
		Subject:    subject,
		Topic:      topic,
		Level:      models.EducationLevel(level),
		Difficulty: models.Difficulty(difficulty),
		Count:      count,
	}
	if documentID == "" {
		return req, nil
	}

	doc, err := documents.GetDocument(c.Request.Context(), userID, documentID)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to resolve document context")
	}
	req.Context = doc.Text
	return req, nil
}
