//go:build integration

package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"tutoria/internal/config"
	"tutoria/internal/database"
	"tutoria/internal/models"
	"tutoria/internal/observability"
)

// SharedTestDBSetup provides a clean, isolated database for each integration
// test. Requires TEST_DATABASE_URL to point at a disposable database.
func SharedTestDBSetup(t *testing.T) *sql.DB {
	t.Helper()
	logger := observability.NewLogger(&config.OpenTelemetryConfig{EnableLogging: false})
	dbManager := database.NewManager(logger)

	databaseURL := os.Getenv("TEST_DATABASE_URL")
	if databaseURL == "" {
		t.Fatal("TEST_DATABASE_URL environment variable must be set for integration tests")
	}

	db, err := dbManager.InitDB(databaseURL)
	require.NoError(t, err)

	CleanupTestDatabase(db, t)
	return db
}

// CleanupTestDatabase truncates all tables so tests start from an empty
// database.
func CleanupTestDatabase(db *sql.DB, t *testing.T) {
	t.Helper()
	cleanupDatabase(db)
}

func cleanupDatabase(db *sql.DB) {
	ctx := context.Background()

	cleanupQueries := []string{
		"TRUNCATE TABLE activity_submissions CASCADE",
		"TRUNCATE TABLE activities CASCADE",
		"TRUNCATE TABLE messages CASCADE",
		"TRUNCATE TABLE conversations CASCADE",
		"TRUNCATE TABLE game_completions CASCADE",
		"TRUNCATE TABLE games CASCADE",
		"TRUNCATE TABLE study_cards CASCADE",
		"TRUNCATE TABLE quizzes CASCADE",
		"TRUNCATE TABLE documents CASCADE",
		"TRUNCATE TABLE class_members CASCADE",
		"TRUNCATE TABLE classes CASCADE",
		"TRUNCATE TABLE users CASCADE",
	}
	for _, query := range cleanupQueries {
		_, _ = db.ExecContext(ctx, query)
	}

	sequenceQueries := []string{
		"ALTER SEQUENCE users_id_seq RESTART WITH 1",
		"ALTER SEQUENCE quizzes_id_seq RESTART WITH 1",
		"ALTER SEQUENCE study_cards_id_seq RESTART WITH 1",
		"ALTER SEQUENCE game_completions_id_seq RESTART WITH 1",
		"ALTER SEQUENCE messages_id_seq RESTART WITH 1",
	}
	for _, query := range sequenceQueries {
		_, _ = db.ExecContext(ctx, query)
	}
}

// testLogger returns a logger that stays quiet during tests.
func testLogger() *observability.Logger {
	return observability.NewLogger(&config.OpenTelemetryConfig{EnableLogging: false})
}

// createTestStudent registers a student account and returns it.
func createTestStudent(t *testing.T, db *sql.DB, username, email string) *models.User {
	t.Helper()
	users := NewUserService(db, testLogger())
	user, err := users.Register(context.Background(), username, email, "test-password", models.RoleStudent, models.LevelSecundaria)
	require.NoError(t, err)
	return user
}

// createTestTeacher registers a teacher account and returns it.
func createTestTeacher(t *testing.T, db *sql.DB, username, email string) *models.User {
	t.Helper()
	users := NewUserService(db, testLogger())
	user, err := users.Register(context.Background(), username, email, "test-password", models.RoleTeacher, "")
	require.NoError(t, err)
	return user
}

// fakeGenerator returns canned content so service tests never hit the AI
// endpoint. Unset fields make the corresponding method fail.
type fakeGenerator struct {
	questions   []models.QuizQuestion
	cards       []models.GeneratedCard
	pasapalabra []models.PasapalabraEntry
	million     []models.MillionQuestion
	escapeRoom  *models.EscapeRoom
	hangman     []models.HangmanWord
	chatReply   string
	summary     string
	err         error
}

func (f *fakeGenerator) GenerateQuiz(context.Context, *models.GenerationRequest) ([]models.QuizQuestion, error) {
	return f.questions, f.err
}

func (f *fakeGenerator) GenerateCards(context.Context, *models.GenerationRequest) ([]models.GeneratedCard, error) {
	return f.cards, f.err
}

func (f *fakeGenerator) GeneratePasapalabra(context.Context, *models.GenerationRequest) ([]models.PasapalabraEntry, error) {
	return f.pasapalabra, f.err
}

func (f *fakeGenerator) GenerateMillion(context.Context, *models.GenerationRequest) ([]models.MillionQuestion, error) {
	return f.million, f.err
}

func (f *fakeGenerator) GenerateEscapeRoom(context.Context, *models.GenerationRequest) (*models.EscapeRoom, error) {
	return f.escapeRoom, f.err
}

func (f *fakeGenerator) GenerateHangman(context.Context, *models.GenerationRequest) ([]models.HangmanWord, error) {
	return f.hangman, f.err
}

func (f *fakeGenerator) ChatReply(context.Context, models.EducationLevel, []Message, string) (string, error) {
	return f.chatReply, f.err
}

func (f *fakeGenerator) Summarize(context.Context, models.EducationLevel, string) (string, error) {
	return f.summary, f.err
}

func (f *fakeGenerator) TemplateManager() *PromptTemplateManager {
	return nil
}

// mustJSON marshals a value for test payload comparisons.
func mustJSON(t *testing.T, v interface{}) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}
