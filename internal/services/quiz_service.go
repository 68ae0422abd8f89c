package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"go.opentelemetry.io/otel/attribute"

	"tutoria/internal/models"
	"tutoria/internal/observability"
	contextutils "tutoria/internal/utils"
)

// QuizServiceInterface defines quiz generation, retrieval and grading.
type QuizServiceInterface interface {
	CreateQuiz(ctx context.Context, userID int, req *models.GenerationRequest) (*models.Quiz, error)
	GetQuiz(ctx context.Context, userID, quizID int) (*models.Quiz, error)
	GetQuizzesByUser(ctx context.Context, userID int) ([]models.Quiz, error)
	SubmitQuiz(ctx context.Context, userID, quizID int, answers []int) (*models.ScoreResult, error)
}

// QuizService persists quizzes and grades submissions. Generation is
// delegated to the generation service.
type QuizService struct {
	db        *sql.DB
	generator GenerationServiceInterface
	logger    *observability.Logger
}

const quizSelectFields = `id, user_id, subject, topic, difficulty, questions, score, completed, completed_at, created_at`

// NewQuizService creates a new QuizService instance.
func NewQuizService(db *sql.DB, generator GenerationServiceInterface, logger *observability.Logger) *QuizService {
	return &QuizService{
		db:        db,
		generator: generator,
		logger:    logger,
	}
}

// CalculateScore grades answers against the question key and returns the
// percentage of correct answers. An empty question list or empty answer list
// scores zero. Extra answers beyond the question count are ignored; missing
// answers count as wrong.
func CalculateScore(questions []models.QuizQuestion, answers []int) float64 {
	if len(questions) == 0 || len(answers) == 0 {
		return 0.0
	}

	correct := 0
	total := len(questions)

	for i, question := range questions {
		if i < len(answers) && answers[i] == question.CorrectAnswer {
			correct++
		}
	}

	return float64(correct) / float64(total) * 100
}

// CreateQuiz generates questions for the request and persists the quiz for
// the user.
func (s *QuizService) CreateQuiz(ctx context.Context, userID int, req *models.GenerationRequest) (result0 *models.Quiz, err error) {
	ctx, span := observability.TraceQuizFunction(ctx, "create_quiz",
		observability.AttributeUserID(userID),
		observability.AttributeSubject(req.Subject),
		observability.AttributeTopic(req.Topic),
		observability.AttributeCount(req.Count),
	)
	defer observability.FinishSpan(span, &err)

	questions, err := s.generator.GenerateQuiz(ctx, req)
	if err != nil {
		return nil, err
	}

	questionsJSON, err := json.Marshal(questions)
	if err != nil {
		return nil, contextutils.WrapErrorf(err, "failed to marshal questions")
	}

	quiz := &models.Quiz{
		UserID:     userID,
		Subject:    req.Subject,
		Topic:      req.Topic,
		Difficulty: req.Difficulty,
		Questions:  questions,
	}

	err = s.db.QueryRowContext(ctx,
		`INSERT INTO quizzes (user_id, subject, topic, difficulty, questions)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at`,
		userID, req.Subject, req.Topic, string(req.Difficulty), questionsJSON,
	).Scan(&quiz.ID, &quiz.CreatedAt)
	if err != nil {
		return nil, contextutils.WrapError(contextutils.ErrDatabaseQuery, "failed to insert quiz")
	}

	span.SetAttributes(observability.AttributeQuizID(quiz.ID), attribute.Int("questions.count", len(questions)))
	s.logger.Info(ctx, "Quiz created", map[string]interface{}{
		"quiz_id":   quiz.ID,
		"user_id":   userID,
		"questions": len(questions),
	})
	return quiz, nil
}

// GetQuiz returns a quiz owned by the user. Missing quizzes return a
// not-found error; quizzes owned by someone else return forbidden.
func (s *QuizService) GetQuiz(ctx context.Context, userID, quizID int) (result0 *models.Quiz, err error) {
	ctx, span := observability.TraceQuizFunction(ctx, "get_quiz",
		observability.AttributeUserID(userID),
		observability.AttributeQuizID(quizID),
	)
	defer observability.FinishSpan(span, &err)

	quiz, err := s.scanQuiz(s.db.QueryRowContext(ctx,
		`SELECT `+quizSelectFields+` FROM quizzes WHERE id = $1`, quizID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, contextutils.WrapErrorf(contextutils.ErrRecordNotFound, "quiz %d not found", quizID)
		}
		return nil, contextutils.WrapError(contextutils.ErrDatabaseQuery, "failed to query quiz")
	}
	if quiz.UserID != userID {
		return nil, contextutils.WrapError(contextutils.ErrForbidden, "quiz belongs to another user")
	}
	return quiz, nil
}

// GetQuizzesByUser lists the user's quizzes, newest first.
func (s *QuizService) GetQuizzesByUser(ctx context.Context, userID int) (result0 []models.Quiz, err error) {
	ctx, span := observability.TraceQuizFunction(ctx, "get_quizzes_by_user",
		observability.AttributeUserID(userID),
	)
	defer observability.FinishSpan(span, &err)

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+quizSelectFields+` FROM quizzes WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, contextutils.WrapError(contextutils.ErrDatabaseQuery, "failed to query quizzes")
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			s.logger.Warn(ctx, "Failed to close rows", map[string]interface{}{"error": closeErr.Error()})
		}
	}()

	var quizzes []models.Quiz
	for rows.Next() {
		quiz, scanErr := s.scanQuizFromRows(rows)
		if scanErr != nil {
			return nil, contextutils.WrapError(contextutils.ErrDatabaseQuery, "failed to scan quiz row")
		}
		quizzes = append(quizzes, *quiz)
	}
	if err := rows.Err(); err != nil {
		return nil, contextutils.WrapError(contextutils.ErrDatabaseQuery, "failed to iterate quiz rows")
	}
	span.SetAttributes(attribute.Int("quizzes.count", len(quizzes)))
	return quizzes, nil
}

// SubmitQuiz grades the answers, marks the quiz completed and stores the
// score. A quiz can only be submitted once; the update is conditional on
// completed being false so concurrent submissions cannot both succeed.
func (s *QuizService) SubmitQuiz(ctx context.Context, userID, quizID int, answers []int) (result0 *models.ScoreResult, err error) {
	ctx, span := observability.TraceQuizFunction(ctx, "submit_quiz",
		observability.AttributeUserID(userID),
		observability.AttributeQuizID(quizID),
		attribute.Int("answers.count", len(answers)),
	)
	defer observability.FinishSpan(span, &err)

	quiz, err := s.GetQuiz(ctx, userID, quizID)
	if err != nil {
		return nil, err
	}
	if quiz.Completed {
		return nil, contextutils.WrapErrorf(contextutils.ErrQuizAlreadyCompleted, "quiz %d was already submitted", quizID)
	}

	percentage := CalculateScore(quiz.Questions, answers)
	correct := 0
	for i, q := range quiz.Questions {
		if i < len(answers) && answers[i] == q.CorrectAnswer {
			correct++
		}
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE quizzes SET score = $1, completed = TRUE, completed_at = NOW()
		 WHERE id = $2 AND user_id = $3 AND completed = FALSE`,
		percentage, quizID, userID)
	if err != nil {
		return nil, contextutils.WrapError(contextutils.ErrDatabaseQuery, "failed to update quiz")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, contextutils.WrapError(contextutils.ErrDatabaseQuery, "failed to read update result")
	}
	if affected == 0 {
		// Lost the race against another submission.
		return nil, contextutils.WrapErrorf(contextutils.ErrQuizAlreadyCompleted, "quiz %d was already submitted", quizID)
	}

	span.SetAttributes(attribute.Float64("score.percentage", percentage), attribute.Int("score.correct", correct))
	s.logger.Info(ctx, "Quiz submitted", map[string]interface{}{
		"quiz_id": quizID,
		"user_id": userID,
		"score":   percentage,
	})

	return &models.ScoreResult{
		CorrectCount: correct,
		Total:        len(quiz.Questions),
		Percentage:   percentage,
	}, nil
}

// scanQuiz scans a single quiz row, decoding the questions JSON column.
func (s *QuizService) scanQuiz(row *sql.Row) (result0 *models.Quiz, err error) {
	quiz := &models.Quiz{}
	var questionsJSON []byte
	err = row.Scan(
		&quiz.ID, &quiz.UserID, &quiz.Subject, &quiz.Topic, &quiz.Difficulty,
		&questionsJSON, &quiz.Score, &quiz.Completed, &quiz.CompletedAt, &quiz.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(questionsJSON, &quiz.Questions); err != nil {
		return nil, contextutils.WrapErrorf(err, "failed to decode questions for quiz %d", quiz.ID)
	}
	return quiz, nil
}

func (s *QuizService) scanQuizFromRows(rows *sql.Rows) (result0 *models.Quiz, err error) {
	quiz := &models.Quiz{}
	var questionsJSON []byte
	err = rows.Scan(
		&quiz.ID, &quiz.UserID, &quiz.Subject, &quiz.Topic, &quiz.Difficulty,
		&questionsJSON, &quiz.Score, &quiz.Completed, &quiz.CompletedAt, &quiz.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(questionsJSON, &quiz.Questions); err != nil {
		return nil, contextutils.WrapErrorf(err, "failed to decode questions for quiz %d", quiz.ID)
	}
	return quiz, nil
}
