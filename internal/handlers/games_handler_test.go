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

// MockGamesService for testing
type MockGamesService struct {
	mock.Mock
}

func (m *MockGamesService) CreateGame(ctx context.Context, userID int, gameType models.ContentType, req *models.GenerationRequest) (*models.Game, error) {
	args := m.Called(ctx, userID, gameType, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Game), args.Error(1)
}

func (m *MockGamesService) DemoGame(ctx context.Context, gameType models.ContentType) (json.RawMessage, error) {
	args := m.Called(ctx, gameType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(json.RawMessage), args.Error(1)
}

func (m *MockGamesService) GetGame(ctx context.Context, userID int, gameID string) (*models.Game, error) {
	args := m.Called(ctx, userID, gameID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Game), args.Error(1)
}

func (m *MockGamesService) GetGamesByUser(ctx context.Context, userID int) ([]models.Game, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Game), args.Error(1)
}

func (m *MockGamesService) CompleteGame(ctx context.Context, userID int, gameType models.ContentType, score, maxScore float64) (*models.GameCompletion, error) {
	args := m.Called(ctx, userID, gameType, score, maxScore)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.GameCompletion), args.Error(1)
}

func setupGamesTestRouter(gamesService *MockGamesService, documentService *MockDocumentService, userID int) *gin.Engine {
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
	handler := NewGamesHandler(gamesService, documentService, logger)

	router.GET("/games", handler.GetGames)
	router.GET("/games/demo/:type", handler.DemoGame)
	router.GET("/games/:id", handler.GetGame)
	router.POST("/games/:type", handler.CreateGame)
	router.POST("/games/:type/complete", handler.CompleteGame)

	return router
}

func TestGamesHandler_CreateGame_Success(t *testing.T) {
	mockGamesService := new(MockGamesService)
	mockDocumentService := new(MockDocumentService)
	router := setupGamesTestRouter(mockGamesService, mockDocumentService, 1)

	game := &models.Game{
		ID:      "c6a1f1d0-0000-0000-0000-000000000001",
		UserID:  1,
		Type:    models.ContentPasapalabra,
		Subject: "Ciencias",
		Topic:   "El cuerpo humano",
		Payload: json.RawMessage(`{"letters":[]}`),
	}
	mockGamesService.On("CreateGame", mock.Anything, 1, models.ContentPasapalabra, mock.Anything).
		Return(game, nil)

	reqBody, _ := json.Marshal(GenerateGameRequest{Subject: "Ciencias", Topic: "El cuerpo humano"})
	req, _ := http.NewRequest("POST", "/games/pasapalabra", bytes.NewBuffer(reqBody))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, true, response["success"])
	assert.Equal(t, "pasapalabra", response["game"])
	data := response["data"].(map[string]interface{})
	assert.Equal(t, "pasapalabra", data["type"])
	assert.Contains(t, data["payload"], "letters")

	mockGamesService.AssertExpectations(t)
}

func TestGamesHandler_CreateGame_InvalidType(t *testing.T) {
	tests := []struct {
		name     string
		gameType string
	}{
		{"unknown type", "tetris"},
		{"quiz is not a game", "quiz"},
		{"cards is not a game", "cards"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockGamesService := new(MockGamesService)
			mockDocumentService := new(MockDocumentService)
			router := setupGamesTestRouter(mockGamesService, mockDocumentService, 1)

			reqBody, _ := json.Marshal(GenerateGameRequest{Subject: "Ciencias", Topic: "El cuerpo humano"})
			req, _ := http.NewRequest("POST", "/games/"+tt.gameType, bytes.NewBuffer(reqBody))
			req.Header.Set("Content-Type", "application/json")

			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			mockGamesService.AssertNotCalled(t, "CreateGame")
		})
	}
}

func TestGamesHandler_CreateGame_GenerationFailure(t *testing.T) {
	mockGamesService := new(MockGamesService)
	mockDocumentService := new(MockDocumentService)
	router := setupGamesTestRouter(mockGamesService, mockDocumentService, 1)

	mockGamesService.On("CreateGame", mock.Anything, 1, models.ContentHangman, mock.Anything).
		Return(nil, contextutils.ErrEmptyGeneration)

	reqBody, _ := json.Marshal(GenerateGameRequest{Subject: "Lengua", Topic: "Vocabulario"})
	req, _ := http.NewRequest("POST", "/games/ahorcado", bytes.NewBuffer(reqBody))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "No se pudo generar el Ahorcado", response["message"])

	mockGamesService.AssertExpectations(t)
}

func TestGamesHandler_DemoGame(t *testing.T) {
	mockGamesService := new(MockGamesService)
	mockDocumentService := new(MockDocumentService)
	router := setupGamesTestRouter(mockGamesService, mockDocumentService, 0)

	payload := json.RawMessage(`{"letters":[{"letter":"A","type":"starts","definition":"...","answer":"Átomo"}]}`)
	mockGamesService.On("DemoGame", mock.Anything, models.ContentPasapalabra).Return(payload, nil)

	req, _ := http.NewRequest("GET", "/games/demo/pasapalabra", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))
	assert.JSONEq(t, string(payload), w.Body.String())

	mockGamesService.AssertExpectations(t)
}

func TestGamesHandler_DemoGame_InvalidType(t *testing.T) {
	mockGamesService := new(MockGamesService)
	mockDocumentService := new(MockDocumentService)
	router := setupGamesTestRouter(mockGamesService, mockDocumentService, 0)

	req, _ := http.NewRequest("GET", "/games/demo/quiz", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockGamesService.AssertNotCalled(t, "DemoGame")
}

func TestGamesHandler_GetGames(t *testing.T) {
	mockGamesService := new(MockGamesService)
	mockDocumentService := new(MockDocumentService)
	router := setupGamesTestRouter(mockGamesService, mockDocumentService, 1)

	games := []models.Game{
		{ID: "c6a1f1d0-0000-0000-0000-000000000001", UserID: 1, Type: models.ContentMillion, Subject: "Ciencias", Topic: "El cuerpo humano"},
	}
	mockGamesService.On("GetGamesByUser", mock.Anything, 1).Return(games, nil)

	req, _ := http.NewRequest("GET", "/games", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Len(t, response["games"], 1)

	mockGamesService.AssertExpectations(t)
}

func TestGamesHandler_GetGame_Forbidden(t *testing.T) {
	mockGamesService := new(MockGamesService)
	mockDocumentService := new(MockDocumentService)
	router := setupGamesTestRouter(mockGamesService, mockDocumentService, 1)

	gameID := "c6a1f1d0-0000-0000-0000-000000000002"
	mockGamesService.On("GetGame", mock.Anything, 1, gameID).Return(nil, contextutils.ErrForbidden)

	req, _ := http.NewRequest("GET", "/games/"+gameID, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	mockGamesService.AssertExpectations(t)
}

func TestGamesHandler_CompleteGame(t *testing.T) {
	mockGamesService := new(MockGamesService)
	mockDocumentService := new(MockDocumentService)
	router := setupGamesTestRouter(mockGamesService, mockDocumentService, 1)

	completion := &models.GameCompletion{ID: 1, UserID: 1, GameType: models.ContentEscapeRoom, Score: 3, MaxScore: 5}
	mockGamesService.On("CompleteGame", mock.Anything, 1, models.ContentEscapeRoom, 3.0, 5.0).
		Return(completion, nil)

	reqBody, _ := json.Marshal(CompleteGameRequest{Score: 3, MaxScore: 5})
	req, _ := http.NewRequest("POST", "/games/escape-room/complete", bytes.NewBuffer(reqBody))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "escape-room", response["game_type"])
	assert.Equal(t, 3.0, response["score"])

	mockGamesService.AssertExpectations(t)
}

func TestGamesHandler_CompleteGame_Unauthenticated(t *testing.T) {
	mockGamesService := new(MockGamesService)
	mockDocumentService := new(MockDocumentService)
	router := setupGamesTestRouter(mockGamesService, mockDocumentService, 0)

	reqBody, _ := json.Marshal(CompleteGameRequest{Score: 3, MaxScore: 5})
	req, _ := http.NewRequest("POST", "/games/escape-room/complete", bytes.NewBuffer(reqBody))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	mockGamesService.AssertNotCalled(t, "CompleteGame")
}
