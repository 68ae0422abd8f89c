package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"tutoria/internal/config"
	"tutoria/internal/middleware"
	"tutoria/internal/models"
	"tutoria/internal/observability"
	contextutils "tutoria/internal/utils"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockQuizService for testing
type MockQuizService struct {
	mock.Mock
}

func (m *MockQuizService) CreateQuiz(ctx context.Context, userID int, req *models.GenerationRequest) (*models.Quiz, error) {
	args := m.Called(ctx, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Quiz), args.Error(1)
}

func (m *MockQuizService) GetQuiz(ctx context.Context, userID, quizID int) (*models.Quiz, error) {
	args := m.Called(ctx, userID, quizID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Quiz), args.Error(1)
}

func (m *MockQuizService) GetQuizzesByUser(ctx context.Context, userID int) ([]models.Quiz, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Quiz), args.Error(1)
}

func (m *MockQuizService) SubmitQuiz(ctx context.Context, userID, quizID int, answers []int) (*models.ScoreResult, error) {
	args := m.Called(ctx, userID, quizID, answers)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ScoreResult), args.Error(1)
}

// MockDocumentService for testing
type MockDocumentService struct {
	mock.Mock
}

func (m *MockDocumentService) UploadDocument(ctx context.Context, userID int, filename string, content []byte, maxBytes int64) (*models.Document, error) {
	args := m.Called(ctx, userID, filename, content, maxBytes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Document), args.Error(1)
}

func (m *MockDocumentService) GetDocument(ctx context.Context, userID int, documentID string) (*models.Document, error) {
	args := m.Called(ctx, userID, documentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Document), args.Error(1)
}

func (m *MockDocumentService) GetDocumentsByUser(ctx context.Context, userID int) ([]models.Document, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Document), args.Error(1)
}

func (m *MockDocumentService) DeleteDocument(ctx context.Context, userID int, documentID string) error {
	args := m.Called(ctx, userID, documentID)
	return args.Error(0)
}

func (m *MockDocumentService) ShareDocument(ctx context.Context, teacherID int, documentID string, shared bool) (*models.Document, error) {
	args := m.Called(ctx, teacherID, documentID, shared)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Document), args.Error(1)
}

func (m *MockDocumentService) GetClassSharedDocuments(ctx context.Context, userID int, classID string) ([]models.Document, error) {
	args := m.Called(ctx, userID, classID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Document), args.Error(1)
}

// setupQuizTestRouter wires the quiz routes behind a stub identity middleware
// so tests can exercise handlers without a login round trip.
func setupQuizTestRouter(quizService *MockQuizService, documentService *MockDocumentService, userID int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()

	store := cookie.NewStore([]byte("test-secret"))
	router.Use(sessions.Sessions("test-session", store))
	if userID != 0 {
		router.Use(func(c *gin.Context) {
			c.Set(middleware.UserIDKey, userID)
			c.Next()
		})
	}

	logger := observability.NewLogger(&config.OpenTelemetryConfig{EnableLogging: false})
	handler := NewQuizHandler(quizService, documentService, &config.Config{}, logger)

	router.POST("/quizzes", handler.CreateQuiz)
	router.GET("/quizzes", handler.GetQuizzes)
	router.GET("/quizzes/:id", handler.GetQuiz)
	router.POST("/quizzes/:id/submit", handler.SubmitQuiz)

	return router
}

func testQuiz() *models.Quiz {
	return &models.Quiz{
		ID:         42,
		UserID:     1,
		Subject:    "Historia",
		Topic:      "La Reconquista",
		Difficulty: models.DifficultyMedio,
		Questions: []models.QuizQuestion{
			{
				Question:      "¿En qué año terminó la Reconquista?",
				Options:       []string{"1492", "1512", "1469", "1481"},
				CorrectAnswer: 0,
			},
		},
	}
}

func TestQuizHandler_CreateQuiz_Success(t *testing.T) {
	mockQuizService := new(MockQuizService)
	mockDocumentService := new(MockDocumentService)
	router := setupQuizTestRouter(mockQuizService, mockDocumentService, 1)

	mockQuizService.On("CreateQuiz", mock.Anything, 1, mock.MatchedBy(func(req *models.GenerationRequest) bool {
		return req.Subject == "Historia" && req.Topic == "La Reconquista" && req.Count == 5
	})).Return(testQuiz(), nil)

	reqBody, _ := json.Marshal(GenerateQuizRequest{
		Subject:    "Historia",
		Topic:      "La Reconquista",
		Level:      "secundaria",
		Difficulty: "medio",
		Count:      5,
	})
	req, _ := http.NewRequest("POST", "/quizzes", bytes.NewBuffer(reqBody))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "Historia", response["subject"])
	assert.Equal(t, float64(42), response["id"])

	mockQuizService.AssertExpectations(t)
	mockDocumentService.AssertNotCalled(t, "GetDocument")
}

func TestQuizHandler_CreateQuiz_WithDocumentContext(t *testing.T) {
	mockQuizService := new(MockQuizService)
	mockDocumentService := new(MockDocumentService)
	router := setupQuizTestRouter(mockQuizService, mockDocumentService, 1)

	doc := &models.Document{ID: "doc-1", UserID: 1, Filename: "apuntes.txt", Text: "La Reconquista terminó en 1492."}
	mockDocumentService.On("GetDocument", mock.Anything, 1, "doc-1").Return(doc, nil)
	mockQuizService.On("CreateQuiz", mock.Anything, 1, mock.MatchedBy(func(req *models.GenerationRequest) bool {
		return req.Context == doc.Text
	})).Return(testQuiz(), nil)

	reqBody, _ := json.Marshal(GenerateQuizRequest{
		Subject:    "Historia",
		Topic:      "La Reconquista",
		DocumentID: "doc-1",
	})
	req, _ := http.NewRequest("POST", "/quizzes", bytes.NewBuffer(reqBody))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)

	mockQuizService.AssertExpectations(t)
	mockDocumentService.AssertExpectations(t)
}

func TestQuizHandler_CreateQuiz_GenerationFailure(t *testing.T) {
	mockQuizService := new(MockQuizService)
	mockDocumentService := new(MockDocumentService)
	router := setupQuizTestRouter(mockQuizService, mockDocumentService, 1)

	mockQuizService.On("CreateQuiz", mock.Anything, 1, mock.Anything).
		Return(nil, contextutils.ErrEmptyGeneration)

	reqBody, _ := json.Marshal(GenerateQuizRequest{
		Subject: "Historia",
		Topic:   "La Reconquista",
	})
	req, _ := http.NewRequest("POST", "/quizzes", bytes.NewBuffer(reqBody))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "EMPTY_GENERATION", response["code"])
	assert.Equal(t, "No se pudieron generar las preguntas", response["message"])

	mockQuizService.AssertExpectations(t)
}

func TestQuizHandler_CreateQuiz_Unauthenticated(t *testing.T) {
	mockQuizService := new(MockQuizService)
	mockDocumentService := new(MockDocumentService)
	router := setupQuizTestRouter(mockQuizService, mockDocumentService, 0)

	reqBody, _ := json.Marshal(GenerateQuizRequest{Subject: "Historia", Topic: "La Reconquista"})
	req, _ := http.NewRequest("POST", "/quizzes", bytes.NewBuffer(reqBody))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	mockQuizService.AssertNotCalled(t, "CreateQuiz")
}

func TestQuizHandler_CreateQuiz_MissingFields(t *testing.T) {
	mockQuizService := new(MockQuizService)
	mockDocumentService := new(MockDocumentService)
	router := setupQuizTestRouter(mockQuizService, mockDocumentService, 1)

	req, _ := http.NewRequest("POST", "/quizzes", bytes.NewBufferString(`{"subject":"Historia"}`))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockQuizService.AssertNotCalled(t, "CreateQuiz")
}

func TestQuizHandler_GetQuiz_InvalidID(t *testing.T) {
	mockQuizService := new(MockQuizService)
	mockDocumentService := new(MockDocumentService)
	router := setupQuizTestRouter(mockQuizService, mockDocumentService, 1)

	req, _ := http.NewRequest("GET", "/quizzes/abc", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "INVALID_INPUT", response["code"])

	mockQuizService.AssertNotCalled(t, "GetQuiz")
}

func TestQuizHandler_GetQuiz_NotFound(t *testing.T) {
	mockQuizService := new(MockQuizService)
	mockDocumentService := new(MockDocumentService)
	router := setupQuizTestRouter(mockQuizService, mockDocumentService, 1)

	mockQuizService.On("GetQuiz", mock.Anything, 1, 99).Return(nil, contextutils.ErrRecordNotFound)

	req, _ := http.NewRequest("GET", "/quizzes/99", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	mockQuizService.AssertExpectations(t)
}

func TestQuizHandler_GetQuizzes(t *testing.T) {
	mockQuizService := new(MockQuizService)
	mockDocumentService := new(MockDocumentService)
	router := setupQuizTestRouter(mockQuizService, mockDocumentService, 1)

	mockQuizService.On("GetQuizzesByUser", mock.Anything, 1).Return([]models.Quiz{*testQuiz()}, nil)

	req, _ := http.NewRequest("GET", "/quizzes", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	quizzes := response["quizzes"].([]interface{})
	assert.Len(t, quizzes, 1)

	mockQuizService.AssertExpectations(t)
}

func TestQuizHandler_SubmitQuiz_Success(t *testing.T) {
	mockQuizService := new(MockQuizService)
	mockDocumentService := new(MockDocumentService)
	router := setupQuizTestRouter(mockQuizService, mockDocumentService, 1)

	mockQuizService.On("SubmitQuiz", mock.Anything, 1, 42, []int{0, 1, 2, 3}).
		Return(&models.ScoreResult{CorrectCount: 3, Total: 4, Percentage: 75.0}, nil)

	reqBody, _ := json.Marshal(SubmitQuizRequest{Answers: []int{0, 1, 2, 3}})
	req, _ := http.NewRequest("POST", "/quizzes/42/submit", bytes.NewBuffer(reqBody))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var result models.ScoreResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, 3, result.CorrectCount)
	assert.Equal(t, 4, result.Total)
	assert.InDelta(t, 75.0, result.Percentage, 0.001)

	mockQuizService.AssertExpectations(t)
}

func TestQuizHandler_SubmitQuiz_AlreadyCompleted(t *testing.T) {
	mockQuizService := new(MockQuizService)
	mockDocumentService := new(MockDocumentService)
	router := setupQuizTestRouter(mockQuizService, mockDocumentService, 1)

	mockQuizService.On("SubmitQuiz", mock.Anything, 1, 42, []int{0}).
		Return(nil, contextutils.ErrQuizAlreadyCompleted)

	reqBody, _ := json.Marshal(SubmitQuizRequest{Answers: []int{0}})
	req, _ := http.NewRequest("POST", "/quizzes/42/submit", bytes.NewBuffer(reqBody))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "QUIZ_ALREADY_COMPLETED", response["code"])

	mockQuizService.AssertExpectations(t)
}
