package services

import (
	"context"
	"database/sql"
	"errors"

	"go.opentelemetry.io/otel/attribute"

	"tutoria/internal/models"
	"tutoria/internal/observability"
	contextutils "tutoria/internal/utils"
)

// CardServiceInterface defines study card generation and review tracking.
type CardServiceInterface interface {
	CreateCards(ctx context.Context, userID int, req *models.GenerationRequest) ([]models.StudyCard, error)
	GetCardsByUser(ctx context.Context, userID int, subject string) ([]models.StudyCard, error)
	ReviewCard(ctx context.Context, userID, cardID int, correct bool) (*models.StudyCard, error)
}

// CardService generates flashcards from content and tracks review counts.
type CardService struct {
	db        *sql.DB
	generator GenerationServiceInterface
	logger    *observability.Logger
}

const cardSelectFields = `id, user_id, subject, topic, question, answer, difficulty, times_reviewed, times_correct, created_at`

// NewCardService creates a new CardService instance.
func NewCardService(db *sql.DB, generator GenerationServiceInterface, logger *observability.Logger) *CardService {
	return &CardService{
		db:        db,
		generator: generator,
		logger:    logger,
	}
}

// CreateCards generates flashcards grounded on the request's content and
// persists them for the user in a single transaction.
func (s *CardService) CreateCards(ctx context.Context, userID int, req *models.GenerationRequest) (result0 []models.StudyCard, err error) {
	ctx, span := observability.TraceCardFunction(ctx, "create_cards",
		observability.AttributeUserID(userID),
		observability.AttributeSubject(req.Subject),
		observability.AttributeCount(req.Count),
	)
	defer observability.FinishSpan(span, &err)

	generated, err := s.generator.GenerateCards(ctx, req)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, contextutils.WrapError(contextutils.ErrDatabaseTransaction, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				s.logger.Warn(ctx, "Failed to rollback transaction", map[string]interface{}{"error": rbErr.Error()})
			}
		}
	}()

	cards := make([]models.StudyCard, 0, len(generated))
	for _, g := range generated {
		card := models.StudyCard{
			UserID:     userID,
			Subject:    req.Subject,
			Topic:      req.Topic,
			Question:   g.Question,
			Answer:     g.Answer,
			Difficulty: models.Difficulty(g.Difficulty),
		}
		err = tx.QueryRowContext(ctx,
			`INSERT INTO study_cards (user_id, subject, topic, question, answer, difficulty)
			 VALUES ($1, $2, $3, $4, $5, $6)
			 RETURNING id, created_at`,
			userID, req.Subject, req.Topic, g.Question, g.Answer, g.Difficulty,
		).Scan(&card.ID, &card.CreatedAt)
		if err != nil {
			return nil, contextutils.WrapError(contextutils.ErrDatabaseQuery, "failed to insert study card")
		}
		cards = append(cards, card)
	}

	if err = tx.Commit(); err != nil {
		return nil, contextutils.WrapError(contextutils.ErrDatabaseTransaction, "failed to commit transaction")
	}

	span.SetAttributes(attribute.Int("cards.count", len(cards)))
	s.logger.Info(ctx, "Study cards created", map[string]interface{}{
		"user_id": userID,
		"count":   len(cards),
	})
	return cards, nil
}

// GetCardsByUser lists a user's cards, optionally filtered by subject.
func (s *CardService) GetCardsByUser(ctx context.Context, userID int, subject string) (result0 []models.StudyCard, err error) {
	ctx, span := observability.TraceCardFunction(ctx, "get_cards_by_user",
		observability.AttributeUserID(userID),
		observability.AttributeSubject(subject),
	)
	defer observability.FinishSpan(span, &err)

	query := `SELECT ` + cardSelectFields + ` FROM study_cards WHERE user_id = $1`
	args := []interface{}{userID}
	if subject != "" {
		query += ` AND subject = $2`
		args = append(args, subject)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, contextutils.WrapError(contextutils.ErrDatabaseQuery, "failed to query study cards")
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			s.logger.Warn(ctx, "Failed to close rows", map[string]interface{}{"error": closeErr.Error()})
		}
	}()

	var cards []models.StudyCard
	for rows.Next() {
		var card models.StudyCard
		if err := rows.Scan(
			&card.ID, &card.UserID, &card.Subject, &card.Topic, &card.Question,
			&card.Answer, &card.Difficulty, &card.TimesReviewed, &card.TimesCorrect, &card.CreatedAt,
		); err != nil {
			return nil, contextutils.WrapError(contextutils.ErrDatabaseQuery, "failed to scan study card row")
		}
		cards = append(cards, card)
	}
	if err := rows.Err(); err != nil {
		return nil, contextutils.WrapError(contextutils.ErrDatabaseQuery, "failed to iterate study card rows")
	}
	span.SetAttributes(attribute.Int("cards.count", len(cards)))
	return cards, nil
}

// ReviewCard increments the review counters for a card the user owns and
// returns the updated card.
func (s *CardService) ReviewCard(ctx context.Context, userID, cardID int, correct bool) (result0 *models.StudyCard, err error) {
	ctx, span := observability.TraceCardFunction(ctx, "review_card",
		observability.AttributeUserID(userID),
		attribute.Int("card.id", cardID),
		attribute.Bool("review.correct", correct),
	)
	defer observability.FinishSpan(span, &err)

	correctIncrement := 0
	if correct {
		correctIncrement = 1
	}

	card := &models.StudyCard{}
	err = s.db.QueryRowContext(ctx,
		`UPDATE study_cards
		 SET times_reviewed = times_reviewed + 1, times_correct = times_correct + $1
		 WHERE id = $2 AND user_id = $3
		 RETURNING `+cardSelectFields,
		correctIncrement, cardID, userID,
	).Scan(
		&card.ID, &card.UserID, &card.Subject, &card.Topic, &card.Question,
		&card.Answer, &card.Difficulty, &card.TimesReviewed, &card.TimesCorrect, &card.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, contextutils.WrapErrorf(contextutils.ErrRecordNotFound, "study card %d not found", cardID)
		}
		return nil, contextutils.WrapError(contextutils.ErrDatabaseQuery, "failed to update study card")
	}
	return card, nil
}
