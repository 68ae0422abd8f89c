package services

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"tutoria/internal/models"
	"tutoria/internal/observability"
	contextutils "tutoria/internal/utils"
)

//go:embed demo/*.json
var demoPayloadsFS embed.FS

// demoPayloadFiles maps a game type to its canned payload. Quiz and cards
// have no demo variant.
var demoPayloadFiles = map[models.ContentType]string{
	models.ContentPasapalabra: "demo/pasapalabra_demo.json",
	models.ContentMillion:     "demo/million_demo.json",
	models.ContentEscapeRoom:  "demo/escape_room_demo.json",
	models.ContentHangman:     "demo/hangman_demo.json",
}

// GamesServiceInterface defines game generation, retrieval and completion
// tracking.
type GamesServiceInterface interface {
	CreateGame(ctx context.Context, userID int, gameType models.ContentType, req *models.GenerationRequest) (*models.Game, error)
	DemoGame(ctx context.Context, gameType models.ContentType) (json.RawMessage, error)
	GetGame(ctx context.Context, userID int, gameID string) (*models.Game, error)
	GetGamesByUser(ctx context.Context, userID int) ([]models.Game, error)
	CompleteGame(ctx context.Context, userID int, gameType models.ContentType, score, maxScore float64) (*models.GameCompletion, error)
}

// GamesService orchestrates game generation and persists the resulting
// payloads. A generation failure degrades to an empty payload error for the
// caller instead of a raw upstream error.
type GamesService struct {
	db        *sql.DB
	generator GenerationServiceInterface
	logger    *observability.Logger
}

// NewGamesService creates a new GamesService instance.
func NewGamesService(db *sql.DB, generator GenerationServiceInterface, logger *observability.Logger) *GamesService {
	return &GamesService{
		db:        db,
		generator: generator,
		logger:    logger,
	}
}

// CreateGame generates a payload for the game type and persists it. The
// payload keeps the same envelope shape the frontend consumes, one array
// field per game type plus title/theme for escape rooms.
func (s *GamesService) CreateGame(ctx context.Context, userID int, gameType models.ContentType, req *models.GenerationRequest) (result0 *models.Game, err error) {
	ctx, span := observability.TraceGameFunction(ctx, "create_game",
		observability.AttributeUserID(userID),
		observability.AttributeContentType(string(gameType)),
		observability.AttributeSubject(req.Subject),
		observability.AttributeTopic(req.Topic),
	)
	defer observability.FinishSpan(span, &err)

	payload, err := s.generatePayload(ctx, gameType, req)
	if err != nil {
		// The caller maps an empty generation to a user-visible domain
		// message; everything else stays an upstream failure.
		s.logger.Warn(ctx, "Game generation failed", map[string]interface{}{
			"game_type": string(gameType),
			"user_id":   userID,
			"error":     err.Error(),
		})
		return nil, err
	}

	game := &models.Game{
		ID:      uuid.NewString(),
		UserID:  userID,
		Type:    gameType,
		Subject: req.Subject,
		Topic:   req.Topic,
		Payload: payload,
	}

	err = s.db.QueryRowContext(ctx,
		`INSERT INTO games (id, user_id, type, subject, topic, payload)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING created_at`,
		game.ID, userID, string(gameType), req.Subject, req.Topic, payload,
	).Scan(&game.CreatedAt)
	if err != nil {
		return nil, contextutils.WrapError(contextutils.ErrDatabaseQuery, "failed to insert game")
	}

	span.SetAttributes(attribute.String("game.id", game.ID))
	s.logger.Info(ctx, "Game created", map[string]interface{}{
		"game_id":   game.ID,
		"game_type": string(gameType),
		"user_id":   userID,
	})
	return game, nil
}

// generatePayload dispatches to the per-type generator and re-wraps the
// result in its envelope shape.
func (s *GamesService) generatePayload(ctx context.Context, gameType models.ContentType, req *models.GenerationRequest) (json.RawMessage, error) {
	switch gameType {
	case models.ContentPasapalabra:
		letters, err := s.generator.GeneratePasapalabra(ctx, req)
		if err != nil {
			return nil, err
		}
		return json.Marshal(map[string]interface{}{"letters": letters})
	case models.ContentMillion:
		questions, err := s.generator.GenerateMillion(ctx, req)
		if err != nil {
			return nil, err
		}
		return json.Marshal(map[string]interface{}{"questions": questions})
	case models.ContentEscapeRoom:
		room, err := s.generator.GenerateEscapeRoom(ctx, req)
		if err != nil {
			return nil, err
		}
		return json.Marshal(room)
	case models.ContentHangman:
		words, err := s.generator.GenerateHangman(ctx, req)
		if err != nil {
			return nil, err
		}
		return json.Marshal(map[string]interface{}{"words": words})
	}
	return nil, contextutils.WrapErrorf(contextutils.ErrUnsupportedContentType, "unsupported game type: %s", gameType)
}

// DemoGame returns the canned payload for a game type, for trying a game
// without an AI round-trip.
func (s *GamesService) DemoGame(ctx context.Context, gameType models.ContentType) (result0 json.RawMessage, err error) {
	_, span := observability.TraceGameFunction(ctx, "demo_game",
		observability.AttributeContentType(string(gameType)),
	)
	defer observability.FinishSpan(span, &err)

	path, ok := demoPayloadFiles[gameType]
	if !ok {
		return nil, contextutils.WrapErrorf(contextutils.ErrUnsupportedContentType, "no demo payload for game type: %s", gameType)
	}
	payload, err := demoPayloadsFS.ReadFile(path)
	if err != nil {
		return nil, contextutils.WrapErrorf(err, "failed to load demo payload for %s", gameType)
	}
	return payload, nil
}

// GetGame returns a stored game owned by the user.
func (s *GamesService) GetGame(ctx context.Context, userID int, gameID string) (result0 *models.Game, err error) {
	ctx, span := observability.TraceGameFunction(ctx, "get_game",
		observability.AttributeUserID(userID),
		attribute.String("game.id", gameID),
	)
	defer observability.FinishSpan(span, &err)

	game := &models.Game{}
	err = s.db.QueryRowContext(ctx,
		`SELECT id, user_id, type, subject, topic, payload, created_at FROM games WHERE id = $1`, gameID,
	).Scan(&game.ID, &game.UserID, &game.Type, &game.Subject, &game.Topic, &game.Payload, &game.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, contextutils.WrapErrorf(contextutils.ErrRecordNotFound, "game %s not found", gameID)
		}
		return nil, contextutils.WrapError(contextutils.ErrDatabaseQuery, "failed to query game")
	}
	if game.UserID != userID {
		return nil, contextutils.WrapError(contextutils.ErrForbidden, "game belongs to another user")
	}
	return game, nil
}

// GetGamesByUser lists a user's stored games without payloads, newest first.
func (s *GamesService) GetGamesByUser(ctx context.Context, userID int) (result0 []models.Game, err error) {
	ctx, span := observability.TraceGameFunction(ctx, "get_games_by_user",
		observability.AttributeUserID(userID),
	)
	defer observability.FinishSpan(span, &err)

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, type, subject, topic, created_at FROM games WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, contextutils.WrapError(contextutils.ErrDatabaseQuery, "failed to query games")
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			s.logger.Warn(ctx, "Failed to close rows", map[string]interface{}{"error": closeErr.Error()})
		}
	}()

	var games []models.Game
	for rows.Next() {
		var game models.Game
		if err := rows.Scan(&game.ID, &game.UserID, &game.Type, &game.Subject, &game.Topic, &game.CreatedAt); err != nil {
			return nil, contextutils.WrapError(contextutils.ErrDatabaseQuery, "failed to scan game row")
		}
		games = append(games, game)
	}
	if err := rows.Err(); err != nil {
		return nil, contextutils.WrapError(contextutils.ErrDatabaseQuery, "failed to iterate game rows")
	}
	span.SetAttributes(attribute.Int("games.count", len(games)))
	return games, nil
}

// CompleteGame records a finished game session and its score.
func (s *GamesService) CompleteGame(ctx context.Context, userID int, gameType models.ContentType, score, maxScore float64) (result0 *models.GameCompletion, err error) {
	ctx, span := observability.TraceGameFunction(ctx, "complete_game",
		observability.AttributeUserID(userID),
		observability.AttributeContentType(string(gameType)),
		attribute.Float64("game.score", score),
	)
	defer observability.FinishSpan(span, &err)

	if !gameType.Valid() {
		return nil, contextutils.WrapErrorf(contextutils.ErrUnsupportedContentType, "unsupported game type: %s", gameType)
	}

	completion := &models.GameCompletion{
		UserID:   userID,
		GameType: gameType,
		Score:    score,
		MaxScore: maxScore,
	}
	err = s.db.QueryRowContext(ctx,
		`INSERT INTO game_completions (user_id, game_type, score, max_score)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, completed_at`,
		userID, string(gameType), score, maxScore,
	).Scan(&completion.ID, &completion.CompletedAt)
	if err != nil {
		return nil, contextutils.WrapError(contextutils.ErrDatabaseQuery, "failed to insert game completion")
	}

	s.logger.Info(ctx, "Game completion recorded", map[string]interface{}{
		"user_id":   userID,
		"game_type": string(gameType),
		"score":     score,
	})
	return completion, nil
}
