package services

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"math"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.opentelemetry.io/otel/attribute"

	"tutoria/internal/models"
	"tutoria/internal/observability"
	contextutils "tutoria/internal/utils"
)

// joinCodeAlphabet excludes easily confused characters.
const (
	joinCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	joinCodeLength   = 8
)

// ClassServiceInterface defines class management for teachers and students.
type ClassServiceInterface interface {
	CreateClass(ctx context.Context, teacherID int, name, subject string) (*models.Class, error)
	GetClassesByTeacher(ctx context.Context, teacherID int) ([]models.Class, error)
	GetClassStudents(ctx context.Context, teacherID int, classID string) ([]models.User, error)
	JoinClass(ctx context.Context, studentID int, joinCode string) (*models.Class, error)
	DeleteClass(ctx context.Context, teacherID int, classID string) error
	GetStudentProgress(ctx context.Context, teacherID int, classID string, studentID int) (*models.StudentProgress, error)
}

// ClassService manages classes and their rosters. Students join with a short
// code the teacher shares.
type ClassService struct {
	db     *sql.DB
	logger *observability.Logger
}

// NewClassService creates a new ClassService instance.
func NewClassService(db *sql.DB, logger *observability.Logger) *ClassService {
	return &ClassService{
		db:     db,
		logger: logger,
	}
}

// generateJoinCode produces a random code from the unambiguous alphabet.
func generateJoinCode() (string, error) {
	buf := make([]byte, joinCodeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", contextutils.WrapErrorf(err, "failed to read random bytes")
	}
	for i, b := range buf {
		buf[i] = joinCodeAlphabet[int(b)%len(joinCodeAlphabet)]
	}
	return string(buf), nil
}

// CreateClass creates a class owned by the teacher with a fresh join code.
// Retries on the rare join code collision.
func (s *ClassService) CreateClass(ctx context.Context, teacherID int, name, subject string) (result0 *models.Class, err error) {
	ctx, span := observability.TraceClassFunction(ctx, "create_class",
		observability.AttributeUserID(teacherID),
		observability.AttributeSubject(subject),
	)
	defer observability.FinishSpan(span, &err)

	if name == "" {
		return nil, contextutils.WrapError(contextutils.ErrMissingRequired, "class name is required")
	}

	class := &models.Class{
		ID:        uuid.NewString(),
		TeacherID: teacherID,
		Name:      name,
		Subject:   subject,
	}

	for attempt := 0; attempt < 5; attempt++ {
		code, codeErr := generateJoinCode()
		if codeErr != nil {
			return nil, codeErr
		}
		err = s.db.QueryRowContext(ctx,
			`INSERT INTO classes (id, teacher_id, name, subject, join_code)
			 VALUES ($1, $2, $3, $4, $5)
			 RETURNING created_at`,
			class.ID, teacherID, name, subject, code,
		).Scan(&class.CreatedAt)
		if err == nil {
			class.JoinCode = code
			break
		}
		if !isUniqueViolation(err) {
			return nil, contextutils.WrapError(contextutils.ErrDatabaseQuery, "failed to insert class")
		}
	}
	if class.JoinCode == "" {
		return nil, contextutils.WrapError(contextutils.ErrDatabaseQuery, "failed to allocate a unique join code")
	}

	span.SetAttributes(attribute.String("class.id", class.ID))
	s.logger.Info(ctx, "Class created", map[string]interface{}{
		"class_id":   class.ID,
		"teacher_id": teacherID,
	})
	return class, nil
}

// GetClassesByTeacher lists classes owned by the teacher.
func (s *ClassService) GetClassesByTeacher(ctx context.Context, teacherID int) (result0 []models.Class, err error) {
	ctx, span := observability.TraceClassFunction(ctx, "get_classes_by_teacher",
		observability.AttributeUserID(teacherID),
	)
	defer observability.FinishSpan(span, &err)

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, teacher_id, name, subject, join_code, created_at
		 FROM classes WHERE teacher_id = $1 ORDER BY created_at DESC`, teacherID)
	if err != nil {
		return nil, contextutils.WrapError(contextutils.ErrDatabaseQuery, "failed to query classes")
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			s.logger.Warn(ctx, "Failed to close rows", map[string]interface{}{"error": closeErr.Error()})
		}
	}()

	var classes []models.Class
	for rows.Next() {
		var class models.Class
		if err := rows.Scan(&class.ID, &class.TeacherID, &class.Name, &class.Subject, &class.JoinCode, &class.CreatedAt); err != nil {
			return nil, contextutils.WrapError(contextutils.ErrDatabaseQuery, "failed to scan class row")
		}
		classes = append(classes, class)
	}
	if err := rows.Err(); err != nil {
		return nil, contextutils.WrapError(contextutils.ErrDatabaseQuery, "failed to iterate class rows")
	}
	span.SetAttributes(attribute.Int("classes.count", len(classes)))
	return classes, nil
}

// GetClassStudents lists the roster of a class the teacher owns.
func (s *ClassService) GetClassStudents(ctx context.Context, teacherID int, classID string) (result0 []models.User, err error) {
	ctx, span := observability.TraceClassFunction(ctx, "get_class_students",
		observability.AttributeUserID(teacherID),
		attribute.String("class.id", classID),
	)
	defer observability.FinishSpan(span, &err)

	if err := s.checkOwnership(ctx, teacherID, classID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT u.id, u.username, u.email, u.role, u.level, u.last_active, u.created_at, u.updated_at
		 FROM users u
		 JOIN class_members cm ON cm.user_id = u.id
		 WHERE cm.class_id = $1 AND u.role = 'student'
		 ORDER BY u.username`, classID)
	if err != nil {
		return nil, contextutils.WrapError(contextutils.ErrDatabaseQuery, "failed to query class students")
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			s.logger.Warn(ctx, "Failed to close rows", map[string]interface{}{"error": closeErr.Error()})
		}
	}()

	var students []models.User
	for rows.Next() {
		var user models.User
		if err := rows.Scan(&user.ID, &user.Username, &user.Email, &user.Role, &user.Level, &user.LastActive, &user.CreatedAt, &user.UpdatedAt); err != nil {
			return nil, contextutils.WrapError(contextutils.ErrDatabaseQuery, "failed to scan student row")
		}
		students = append(students, user)
	}
	if err := rows.Err(); err != nil {
		return nil, contextutils.WrapError(contextutils.ErrDatabaseQuery, "failed to iterate student rows")
	}
	span.SetAttributes(attribute.Int("students.count", len(students)))
	return students, nil
}

// JoinClass enrolls a student via join code. Joining a class twice is a
// no-op.
func (s *ClassService) JoinClass(ctx context.Context, studentID int, joinCode string) (result0 *models.Class, err error) {
	ctx, span := observability.TraceClassFunction(ctx, "join_class",
		observability.AttributeUserID(studentID),
	)
	defer observability.FinishSpan(span, &err)

	class := &models.Class{}
	err = s.db.QueryRowContext(ctx,
		`SELECT id, teacher_id, name, subject, join_code, created_at
		 FROM classes WHERE join_code = $1`, joinCode,
	).Scan(&class.ID, &class.TeacherID, &class.Name, &class.Subject, &class.JoinCode, &class.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, contextutils.WrapError(contextutils.ErrRecordNotFound, "invalid class code")
		}
		return nil, contextutils.WrapError(contextutils.ErrDatabaseQuery, "failed to query class by code")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO class_members (class_id, user_id) VALUES ($1, $2)
		 ON CONFLICT (class_id, user_id) DO NOTHING`,
		class.ID, studentID)
	if err != nil {
		return nil, contextutils.WrapError(contextutils.ErrDatabaseQuery, "failed to add class member")
	}

	span.SetAttributes(attribute.String("class.id", class.ID))
	s.logger.Info(ctx, "Student joined class", map[string]interface{}{
		"class_id":   class.ID,
		"student_id": studentID,
	})
	return class, nil
}

// DeleteClass removes a class the teacher owns along with its memberships.
func (s *ClassService) DeleteClass(ctx context.Context, teacherID int, classID string) (err error) {
	ctx, span := observability.TraceClassFunction(ctx, "delete_class",
		observability.AttributeUserID(teacherID),
		attribute.String("class.id", classID),
	)
	defer observability.FinishSpan(span, &err)

	if err := s.checkOwnership(ctx, teacherID, classID); err != nil {
		return err
	}

	// class_members rows go with the class via ON DELETE CASCADE.
	_, err = s.db.ExecContext(ctx, `DELETE FROM classes WHERE id = $1`, classID)
	if err != nil {
		return contextutils.WrapError(contextutils.ErrDatabaseQuery, "failed to delete class")
	}

	s.logger.Info(ctx, "Class deleted", map[string]interface{}{
		"class_id":   classID,
		"teacher_id": teacherID,
	})
	return nil
}

// GetStudentProgress aggregates one class member's activity for the teacher's
// progress view.
func (s *ClassService) GetStudentProgress(ctx context.Context, teacherID int, classID string, studentID int) (result0 *models.StudentProgress, err error) {
	ctx, span := observability.TraceClassFunction(ctx, "get_student_progress",
		observability.AttributeUserID(teacherID),
		attribute.String("class.id", classID),
		attribute.Int("student.id", studentID),
	)
	defer observability.FinishSpan(span, &err)

	if err := s.checkOwnership(ctx, teacherID, classID); err != nil {
		return nil, err
	}

	var member bool
	err = s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM class_members WHERE class_id = $1 AND user_id = $2)`,
		classID, studentID).Scan(&member)
	if err != nil {
		return nil, contextutils.WrapError(contextutils.ErrDatabaseQuery, "failed to query class membership")
	}
	if !member {
		return nil, contextutils.WrapError(contextutils.ErrRecordNotFound, "student is not a member of this class")
	}

	progress := &models.StudentProgress{RecentActivity: []string{}}

	err = s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM conversations WHERE user_id = $1`, studentID,
	).Scan(&progress.TotalConversations)
	if err != nil {
		return nil, contextutils.WrapError(contextutils.ErrDatabaseQuery, "failed to query conversation count")
	}

	err = s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM messages m
		 JOIN conversations c ON c.id = m.conversation_id
		 WHERE c.user_id = $1 AND m.role = 'user'`, studentID,
	).Scan(&progress.TotalQuestions)
	if err != nil {
		return nil, contextutils.WrapError(contextutils.ErrDatabaseQuery, "failed to query question count")
	}

	err = s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(AVG(score), 0)
		 FROM quizzes WHERE user_id = $1 AND completed = TRUE`, studentID,
	).Scan(&progress.QuizzesCompleted, &progress.AverageQuizScore)
	if err != nil {
		return nil, contextutils.WrapError(contextutils.ErrDatabaseQuery, "failed to query quiz progress")
	}
	progress.AverageQuizScore = math.Round(progress.AverageQuizScore*100) / 100

	err = s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM study_cards WHERE user_id = $1`, studentID,
	).Scan(&progress.StudyCardsCreated)
	if err != nil {
		return nil, contextutils.WrapError(contextutils.ErrDatabaseQuery, "failed to query card count")
	}

	err = s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM documents WHERE user_id = $1`, studentID,
	).Scan(&progress.DocumentsUploaded)
	if err != nil {
		return nil, contextutils.WrapError(contextutils.ErrDatabaseQuery, "failed to query document count")
	}

	span.SetAttributes(
		attribute.Int("progress.conversations", progress.TotalConversations),
		attribute.Int("progress.quizzes", progress.QuizzesCompleted),
	)
	return progress, nil
}

// isUniqueViolation reports whether the error is a PostgreSQL unique
// constraint violation (code 23505).
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}

// checkOwnership verifies the class exists and belongs to the teacher.
func (s *ClassService) checkOwnership(ctx context.Context, teacherID int, classID string) error {
	var ownerID int
	err := s.db.QueryRowContext(ctx,
		`SELECT teacher_id FROM classes WHERE id = $1`, classID).Scan(&ownerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return contextutils.WrapErrorf(contextutils.ErrRecordNotFound, "class %s not found", classID)
		}
		return contextutils.WrapError(contextutils.ErrDatabaseQuery, "failed to query class")
	}
	if ownerID != teacherID {
		return contextutils.WrapError(contextutils.ErrForbidden, "class belongs to another teacher")
	}
	return nil
}
