//go:build integration

package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tutoria/internal/models"
	contextutils "tutoria/internal/utils"
)

func TestUserService_Register(t *testing.T) {
	db := SharedTestDBSetup(t)
	defer CleanupTestDatabase(db, t)

	users := NewUserService(db, testLogger())
	ctx := context.Background()

	t.Run("student with level", func(t *testing.T) {
		user, err := users.Register(ctx, "ana", "ana@example.com", "secret123", models.RoleStudent, models.LevelPrimaria)
		require.NoError(t, err)
		assert.NotZero(t, user.ID)
		assert.Equal(t, models.RoleStudent, user.Role)
		require.True(t, user.Level.Valid)
		assert.Equal(t, "primaria", user.Level.String)
	})

	t.Run("teacher without level", func(t *testing.T) {
		user, err := users.Register(ctx, "prof", "prof@example.com", "secret123", models.RoleTeacher, "")
		require.NoError(t, err)
		assert.Equal(t, models.RoleTeacher, user.Role)
		assert.False(t, user.Level.Valid)
	})

	t.Run("duplicate email conflicts", func(t *testing.T) {
		_, err := users.Register(ctx, "ana2", "ana@example.com", "secret123", models.RoleStudent, "")
		require.Error(t, err)
		assert.Equal(t, contextutils.ErrorCodeRecordExists, contextutils.GetErrorCode(err))
	})

	t.Run("duplicate username conflicts", func(t *testing.T) {
		_, err := users.Register(ctx, "ana", "otra@example.com", "secret123", models.RoleStudent, "")
		require.Error(t, err)
		assert.Equal(t, contextutils.ErrorCodeRecordExists, contextutils.GetErrorCode(err))
	})

	t.Run("email case is normalized", func(t *testing.T) {
		_, err := users.Register(ctx, "ana3", "ANA@example.com", "secret123", models.RoleStudent, "")
		require.Error(t, err)
		assert.Equal(t, contextutils.ErrorCodeRecordExists, contextutils.GetErrorCode(err))
	})

	t.Run("missing fields", func(t *testing.T) {
		_, err := users.Register(ctx, "", "x@example.com", "secret123", models.RoleStudent, "")
		require.Error(t, err)
		assert.Equal(t, contextutils.ErrorCodeMissingRequired, contextutils.GetErrorCode(err))
	})

	t.Run("invalid email format", func(t *testing.T) {
		_, err := users.Register(ctx, "bad", "not-an-email", "secret123", models.RoleStudent, "")
		require.Error(t, err)
		assert.Equal(t, contextutils.ErrorCodeInvalidFormat, contextutils.GetErrorCode(err))
	})

	t.Run("invalid role", func(t *testing.T) {
		_, err := users.Register(ctx, "bad", "role@example.com", "secret123", models.Role("admin"), "")
		require.Error(t, err)
		assert.Equal(t, contextutils.ErrorCodeInvalidInput, contextutils.GetErrorCode(err))
	})
}

func TestUserService_Authenticate(t *testing.T) {
	db := SharedTestDBSetup(t)
	defer CleanupTestDatabase(db, t)

	users := NewUserService(db, testLogger())
	ctx := context.Background()

	registered, err := users.Register(ctx, "ana", "ana@example.com", "secret123", models.RoleStudent, models.LevelSecundaria)
	require.NoError(t, err)

	t.Run("correct credentials", func(t *testing.T) {
		user, err := users.Authenticate(ctx, "ana@example.com", "secret123")
		require.NoError(t, err)
		assert.Equal(t, registered.ID, user.ID)
	})

	t.Run("uppercase email accepted", func(t *testing.T) {
		user, err := users.Authenticate(ctx, "  ANA@example.com ", "secret123")
		require.NoError(t, err)
		assert.Equal(t, registered.ID, user.ID)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := users.Authenticate(ctx, "ana@example.com", "wrong")
		require.Error(t, err)
		assert.Equal(t, contextutils.ErrorCodeInvalidCredentials, contextutils.GetErrorCode(err))
	})

	t.Run("unknown email gets the same error", func(t *testing.T) {
		_, err := users.Authenticate(ctx, "nobody@example.com", "secret123")
		require.Error(t, err)
		assert.Equal(t, contextutils.ErrorCodeInvalidCredentials, contextutils.GetErrorCode(err))
	})
}

func TestUserService_UpdateUserPassword(t *testing.T) {
	db := SharedTestDBSetup(t)
	defer CleanupTestDatabase(db, t)

	users := NewUserService(db, testLogger())
	ctx := context.Background()

	user := createTestStudent(t, db, "ana", "ana@example.com")

	require.NoError(t, users.UpdateUserPassword(ctx, user.ID, "brand-new"))

	_, err := users.Authenticate(ctx, "ana@example.com", "test-password")
	require.Error(t, err)

	authed, err := users.Authenticate(ctx, "ana@example.com", "brand-new")
	require.NoError(t, err)
	assert.Equal(t, user.ID, authed.ID)

	err = users.UpdateUserPassword(ctx, 999999, "whatever")
	require.Error(t, err)
	assert.Equal(t, contextutils.ErrorCodeRecordNotFound, contextutils.GetErrorCode(err))
}

func TestUserService_GetStudentStats(t *testing.T) {
	db := SharedTestDBSetup(t)
	defer CleanupTestDatabase(db, t)

	logger := testLogger()
	users := NewUserService(db, logger)
	ctx := context.Background()

	student := createTestStudent(t, db, "ana", "ana@example.com")

	t.Run("empty activity", func(t *testing.T) {
		stats, err := users.GetStudentStats(ctx, student.ID)
		require.NoError(t, err)
		assert.Zero(t, stats.QuizzesTaken)
		assert.Zero(t, stats.AverageScore)
		assert.Zero(t, stats.CardsReviewed)
		assert.Zero(t, stats.GamesPlayed)
	})

	t.Run("aggregates across features", func(t *testing.T) {
		generator := &fakeGenerator{
			questions: []models.QuizQuestion{
				{Question: "q1", Options: []string{"a", "b", "c", "d"}, CorrectAnswer: 0},
				{Question: "q2", Options: []string{"a", "b", "c", "d"}, CorrectAnswer: 1},
			},
			cards: []models.GeneratedCard{{Question: "p", Answer: "r"}},
		}
		quizzes := NewQuizService(db, generator, logger)
		cards := NewCardService(db, generator, logger)
		games := NewGamesService(db, generator, logger)

		req := &models.GenerationRequest{Subject: "Historia", Topic: "Roma", Count: 2}
		quiz, err := quizzes.CreateQuiz(ctx, student.ID, req)
		require.NoError(t, err)
		_, err = quizzes.SubmitQuiz(ctx, student.ID, quiz.ID, []int{0, 0})
		require.NoError(t, err)

		created, err := cards.CreateCards(ctx, student.ID, req)
		require.NoError(t, err)
		_, err = cards.ReviewCard(ctx, student.ID, created[0].ID, true)
		require.NoError(t, err)

		_, err = games.CompleteGame(ctx, student.ID, models.ContentHangman, 8, 10)
		require.NoError(t, err)

		stats, err := users.GetStudentStats(ctx, student.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, stats.QuizzesTaken)
		assert.InDelta(t, 50.0, stats.AverageScore, 0.001)
		assert.Equal(t, 1, stats.CardsReviewed)
		assert.Equal(t, 1, stats.GamesPlayed)
	})
}
