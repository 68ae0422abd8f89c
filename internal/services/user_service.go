package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/crypto/bcrypt"

	"tutoria/internal/models"
	"tutoria/internal/observability"
	contextutils "tutoria/internal/utils"
)

// UserServiceInterface defines the interface for user-related operations.
// This allows for easier mocking in tests.
type UserServiceInterface interface {
	Register(ctx context.Context, username, email, password string, role models.Role, level models.EducationLevel) (*models.User, error)
	Authenticate(ctx context.Context, email, password string) (*models.User, error)
	GetUserByID(ctx context.Context, id int) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateLastActive(ctx context.Context, userID int) error
	GetStudentStats(ctx context.Context, userID int) (*models.StudentStats, error)
	GetDB() *sql.DB
}

// UserService provides methods for user management.
type UserService struct {
	db     *sql.DB
	logger *observability.Logger
}

const userSelectFields = `id, username, email, password_hash, role, level, last_active, created_at, updated_at`

// NewUserService creates a new UserService instance.
func NewUserService(db *sql.DB, logger *observability.Logger) *UserService {
	return &UserService{
		db:     db,
		logger: logger,
	}
}

// GetDB returns the underlying database handle.
func (s *UserService) GetDB() *sql.DB {
	return s.db
}

// scanUserFromRow scans a database row into a models.User struct
func (s *UserService) scanUserFromRow(row *sql.Row) (result0 *models.User, err error) {
	user := &models.User{}
	err = row.Scan(
		&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.Role,
		&user.Level, &user.LastActive, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Register creates a new student or teacher account. Registering an email
// that already exists fails with a conflict error.
func (s *UserService) Register(ctx context.Context, username, email, password string, role models.Role, level models.EducationLevel) (result0 *models.User, err error) {
	ctx, span := observability.TraceUserFunction(ctx, "register",
		attribute.String("user.username", username),
		attribute.String("user.role", string(role)),
	)
	defer observability.FinishSpan(span, &err)

	email = strings.ToLower(strings.TrimSpace(email))
	if username == "" || email == "" || password == "" {
		return nil, contextutils.WrapError(contextutils.ErrMissingRequired, "username, email and password are required")
	}
	if !contextutils.IsValidEmail(email) {
		return nil, contextutils.WrapError(contextutils.ErrInvalidFormat, "invalid email address")
	}
	if !role.Valid() {
		return nil, contextutils.WrapErrorf(contextutils.ErrInvalidInput, "invalid role: %s", role)
	}
	if level != "" && !level.Valid() {
		return nil, contextutils.WrapErrorf(contextutils.ErrInvalidInput, "invalid education level: %s", level)
	}

	existing, err := s.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, contextutils.WrapError(contextutils.ErrRecordExists, "email is already registered")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, contextutils.WrapErrorf(err, "failed to hash password")
	}

	user := &models.User{
		Username: username,
		Email:    sql.NullString{String: email, Valid: true},
		Role:     role,
	}
	if level != "" {
		user.Level = sql.NullString{String: string(level), Valid: true}
	}

	err = s.db.QueryRowContext(ctx,
		`INSERT INTO users (username, email, password_hash, role, level)
		 VALUES ($1, $2, $3, $4, NULLIF($5, ''))
		 RETURNING id, created_at, updated_at`,
		username, email, string(hash), string(role), string(level),
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, contextutils.WrapError(contextutils.ErrRecordExists, "username is already taken")
		}
		return nil, contextutils.WrapError(contextutils.ErrDatabaseQuery, "failed to insert user")
	}

	span.SetAttributes(observability.AttributeUserID(user.ID))
	s.logger.Info(ctx, "User registered", map[string]interface{}{
		"user_id": user.ID,
		"role":    string(role),
	})
	return user, nil
}

// Authenticate checks an email/password pair and returns the user on
// success. Unknown emails and wrong passwords both fail with the same
// credentials error.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (result0 *models.User, err error) {
	ctx, span := observability.TraceUserFunction(ctx, "authenticate")
	defer observability.FinishSpan(span, &err)

	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.PasswordHash.Valid {
		span.SetAttributes(attribute.String("auth.result", "unknown_email"))
		return nil, contextutils.WrapError(contextutils.ErrInvalidCredentials, "invalid email or password")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash.String), []byte(password)); err != nil {
		span.SetAttributes(attribute.String("auth.result", "wrong_password"))
		return nil, contextutils.WrapError(contextutils.ErrInvalidCredentials, "invalid email or password")
	}

	if err := s.UpdateLastActive(ctx, user.ID); err != nil {
		// Login still succeeds when the activity timestamp update fails.
		s.logger.Warn(ctx, "Failed to update last active", map[string]interface{}{
			"user_id": user.ID,
			"error":   err.Error(),
		})
	}

	span.SetAttributes(observability.AttributeUserID(user.ID), attribute.String("auth.result", "success"))
	return user, nil
}

// GetUserByID returns a user by ID, or a not-found error.
func (s *UserService) GetUserByID(ctx context.Context, id int) (result0 *models.User, err error) {
	ctx, span := observability.TraceUserFunction(ctx, "get_user_by_id", observability.AttributeUserID(id))
	defer observability.FinishSpan(span, &err)

	user, err := s.scanUserFromRow(s.db.QueryRowContext(ctx,
		`SELECT `+userSelectFields+` FROM users WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, contextutils.WrapErrorf(contextutils.ErrRecordNotFound, "user %d not found", id)
		}
		return nil, contextutils.WrapError(contextutils.ErrDatabaseQuery, "failed to query user")
	}
	return user, nil
}

// GetUserByEmail returns a user by email, or nil when no user has it.
func (s *UserService) GetUserByEmail(ctx context.Context, email string) (result0 *models.User, err error) {
	ctx, span := observability.TraceUserFunction(ctx, "get_user_by_email")
	defer observability.FinishSpan(span, &err)

	user, err := s.scanUserFromRow(s.db.QueryRowContext(ctx,
		`SELECT `+userSelectFields+` FROM users WHERE email = $1`, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found is not an error here
		}
		return nil, contextutils.WrapError(contextutils.ErrDatabaseQuery, "failed to query user")
	}
	return user, nil
}

// UpdateLastActive stamps the user's last activity time.
func (s *UserService) UpdateLastActive(ctx context.Context, userID int) (err error) {
	ctx, span := observability.TraceUserFunction(ctx, "update_last_active", observability.AttributeUserID(userID))
	defer observability.FinishSpan(span, &err)

	_, err = s.db.ExecContext(ctx,
		`UPDATE users SET last_active = NOW(), updated_at = NOW() WHERE id = $1`, userID)
	if err != nil {
		return contextutils.WrapError(contextutils.ErrDatabaseQuery, "failed to update last active")
	}
	return nil
}

// GetStudentStats aggregates quiz, card and game activity for the dashboard.
func (s *UserService) GetStudentStats(ctx context.Context, userID int) (result0 *models.StudentStats, err error) {
	ctx, span := observability.TraceUserFunction(ctx, "get_student_stats", observability.AttributeUserID(userID))
	defer observability.FinishSpan(span, &err)

	stats := &models.StudentStats{}

	err = s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(AVG(score), 0)
		 FROM quizzes WHERE user_id = $1 AND completed = TRUE`, userID,
	).Scan(&stats.QuizzesTaken, &stats.AverageScore)
	if err != nil {
		return nil, contextutils.WrapError(contextutils.ErrDatabaseQuery, "failed to query quiz stats")
	}

	err = s.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(times_reviewed), 0) FROM study_cards WHERE user_id = $1`, userID,
	).Scan(&stats.CardsReviewed)
	if err != nil {
		return nil, contextutils.WrapError(contextutils.ErrDatabaseQuery, "failed to query card stats")
	}

	err = s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM game_completions WHERE user_id = $1`, userID,
	).Scan(&stats.GamesPlayed)
	if err != nil {
		return nil, contextutils.WrapError(contextutils.ErrDatabaseQuery, "failed to query game stats")
	}

	span.SetAttributes(
		attribute.Int("stats.quizzes", stats.QuizzesTaken),
		attribute.Int("stats.games", stats.GamesPlayed),
	)
	return stats, nil
}

// GetAllUsers returns every user account, ordered by creation time. Used by
// the admin CLI.
func (s *UserService) GetAllUsers(ctx context.Context) (result0 []models.User, err error) {
	ctx, span := observability.TraceUserFunction(ctx, "get_all_users")
	defer observability.FinishSpan(span, &err)

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+userSelectFields+` FROM users ORDER BY created_at`)
	if err != nil {
		return nil, contextutils.WrapError(contextutils.ErrDatabaseQuery, "failed to query users")
	}
	defer func() { _ = rows.Close() }()

	var users []models.User
	for rows.Next() {
		user := models.User{}
		if err := rows.Scan(
			&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.Role,
			&user.Level, &user.LastActive, &user.CreatedAt, &user.UpdatedAt,
		); err != nil {
			return nil, contextutils.WrapError(contextutils.ErrDatabaseQuery, "failed to scan user")
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, contextutils.WrapError(contextutils.ErrDatabaseQuery, "failed to iterate users")
	}

	span.SetAttributes(attribute.Int("users.count", len(users)))
	return users, nil
}

// UpdateUserPassword replaces the stored password hash for a user.
func (s *UserService) UpdateUserPassword(ctx context.Context, userID int, newPassword string) (err error) {
	ctx, span := observability.TraceUserFunction(ctx, "update_user_password", observability.AttributeUserID(userID))
	defer observability.FinishSpan(span, &err)

	if newPassword == "" {
		return contextutils.WrapError(contextutils.ErrMissingRequired, "password is required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return contextutils.WrapError(err, "failed to hash password")
	}

	result, err := s.db.ExecContext(ctx,
		`UPDATE users SET password_hash = $1, updated_at = NOW() WHERE id = $2`,
		string(hash), userID)
	if err != nil {
		return contextutils.WrapError(contextutils.ErrDatabaseQuery, "failed to update password")
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return contextutils.WrapError(contextutils.ErrDatabaseQuery, "failed to check update result")
	}
	if affected == 0 {
		return contextutils.WrapErrorf(contextutils.ErrRecordNotFound, "user %d not found", userID)
	}
	return nil
}
