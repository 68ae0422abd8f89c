package services

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"tutoria/internal/models"
	"tutoria/internal/observability"
	contextutils "tutoria/internal/utils"
)

// ActivityServiceInterface defines class assignments and their submissions.
type ActivityServiceInterface interface {
	CreateActivity(ctx context.Context, teacherID int, input *models.ActivityInput) (*models.Activity, error)
	GetClassActivities(ctx context.Context, userID int, classID string, studentID int) ([]models.Activity, error)
	SubmitActivity(ctx context.Context, studentID int, activityID, content string) (*models.ActivitySubmission, error)
	GetSubmissions(ctx context.Context, teacherID int, activityID string) ([]models.ActivitySubmission, error)
	DeleteActivity(ctx context.Context, teacherID int, activityID string) error
}

// ActivityService manages the assignments teachers post to their classes and
// the submissions students hand in.
type ActivityService struct {
	db     *sql.DB
	logger *observability.Logger
}

// NewActivityService creates a new ActivityService instance.
func NewActivityService(db *sql.DB, logger *observability.Logger) *ActivityService {
	return &ActivityService{
		db:     db,
		logger: logger,
	}
}

const activitySelectFields = `id, class_id, teacher_id, title, description, subject, activity_type, due_date, content, created_at`

// CreateActivity posts an assignment to a class the teacher owns.
func (s *ActivityService) CreateActivity(ctx context.Context, teacherID int, input *models.ActivityInput) (result0 *models.Activity, err error) {
	ctx, span := observability.TraceActivityFunction(ctx, "create_activity",
		observability.AttributeUserID(teacherID),
		attribute.String("class.id", input.ClassID),
	)
	defer observability.FinishSpan(span, &err)

	if input.ClassID == "" || input.Title == "" {
		return nil, contextutils.WrapError(contextutils.ErrMissingRequired, "class_id and title are required")
	}
	activityType := input.Type
	if activityType == "" {
		activityType = models.ActivityExercise
	}
	if !activityType.Valid() {
		return nil, contextutils.WrapErrorf(contextutils.ErrInvalidInput, "invalid activity type: %s", activityType)
	}

	if err := s.checkClassOwnership(ctx, teacherID, input.ClassID); err != nil {
		return nil, err
	}

	activity := &models.Activity{
		ID:          uuid.NewString(),
		ClassID:     input.ClassID,
		TeacherID:   teacherID,
		Title:       input.Title,
		Description: input.Description,
		Subject:     input.Subject,
		Type:        activityType,
		Content:     input.Content,
	}
	if input.DueDate != nil {
		activity.DueDate = sql.NullTime{Time: *input.DueDate, Valid: true}
	}

	err = s.db.QueryRowContext(ctx,
		`INSERT INTO activities (id, class_id, teacher_id, title, description, subject, activity_type, due_date, content)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING created_at`,
		activity.ID, activity.ClassID, teacherID, activity.Title, activity.Description,
		activity.Subject, string(activityType), activity.DueDate, nullableJSON(activity.Content),
	).Scan(&activity.CreatedAt)
	if err != nil {
		return nil, contextutils.WrapError(contextutils.ErrDatabaseQuery, "failed to insert activity")
	}

	span.SetAttributes(attribute.String("activity.id", activity.ID))
	s.logger.Info(ctx, "Activity created", map[string]interface{}{
		"activity_id": activity.ID,
		"class_id":    activity.ClassID,
		"teacher_id":  teacherID,
	})
	return activity, nil
}

// nullableJSON stores empty JSON content as NULL rather than an empty string,
// which JSONB would reject.
func nullableJSON(raw []byte) interface{} {
	if len(raw) == 0 {
		return nil
	}
	return raw
}

// GetClassActivities lists a class's activities, newest first. The caller
// must own the class or be on its roster. When studentID is non-zero each
// activity carries that student's submission status, with not_submitted for
// students who have no submission row yet.
func (s *ActivityService) GetClassActivities(ctx context.Context, userID int, classID string, studentID int) (result0 []models.Activity, err error) {
	ctx, span := observability.TraceActivityFunction(ctx, "get_class_activities",
		observability.AttributeUserID(userID),
		attribute.String("class.id", classID),
	)
	defer observability.FinishSpan(span, &err)

	if err := s.checkClassAccess(ctx, userID, classID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+activitySelectFields+` FROM activities
		 WHERE class_id = $1 ORDER BY created_at DESC`, classID)
	if err != nil {
		return nil, contextutils.WrapError(contextutils.ErrDatabaseQuery, "failed to query activities")
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			s.logger.Warn(ctx, "Failed to close rows", map[string]interface{}{"error": closeErr.Error()})
		}
	}()

	var activities []models.Activity
	for rows.Next() {
		var activity models.Activity
		var content sql.NullString
		if err := rows.Scan(&activity.ID, &activity.ClassID, &activity.TeacherID, &activity.Title,
			&activity.Description, &activity.Subject, &activity.Type, &activity.DueDate,
			&content, &activity.CreatedAt); err != nil {
			return nil, contextutils.WrapError(contextutils.ErrDatabaseQuery, "failed to scan activity row")
		}
		if content.Valid {
			activity.Content = []byte(content.String)
		}
		activities = append(activities, activity)
	}
	if err := rows.Err(); err != nil {
		return nil, contextutils.WrapError(contextutils.ErrDatabaseQuery, "failed to iterate activity rows")
	}

	if studentID != 0 {
		if err := s.attachSubmissionStatus(ctx, activities, studentID); err != nil {
			return nil, err
		}
	}

	span.SetAttributes(attribute.Int("activities.count", len(activities)))
	return activities, nil
}

// attachSubmissionStatus fills each activity's submission status for one
// student.
func (s *ActivityService) attachSubmissionStatus(ctx context.Context, activities []models.Activity, studentID int) error {
	for i := range activities {
		var status models.SubmissionStatus
		err := s.db.QueryRowContext(ctx,
			`SELECT status FROM activity_submissions WHERE activity_id = $1 AND student_id = $2`,
			activities[i].ID, studentID).Scan(&status)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				activities[i].SubmissionStatus = models.SubmissionNotSubmitted
				continue
			}
			return contextutils.WrapError(contextutils.ErrDatabaseQuery, "failed to query submission status")
		}
		activities[i].SubmissionStatus = status
	}
	return nil
}

// SubmitActivity records the student's answer. Submitting again replaces the
// previous content and refreshes the submission time.
func (s *ActivityService) SubmitActivity(ctx context.Context, studentID int, activityID, content string) (result0 *models.ActivitySubmission, err error) {
	ctx, span := observability.TraceActivityFunction(ctx, "submit_activity",
		observability.AttributeUserID(studentID),
		attribute.String("activity.id", activityID),
	)
	defer observability.FinishSpan(span, &err)

	var classID string
	err = s.db.QueryRowContext(ctx,
		`SELECT class_id FROM activities WHERE id = $1`, activityID).Scan(&classID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, contextutils.WrapErrorf(contextutils.ErrRecordNotFound, "activity %s not found", activityID)
		}
		return nil, contextutils.WrapError(contextutils.ErrDatabaseQuery, "failed to query activity")
	}

	var member bool
	err = s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM class_members WHERE class_id = $1 AND user_id = $2)`,
		classID, studentID).Scan(&member)
	if err != nil {
		return nil, contextutils.WrapError(contextutils.ErrDatabaseQuery, "failed to query class membership")
	}
	if !member {
		return nil, contextutils.WrapError(contextutils.ErrForbidden, "not a member of this class")
	}

	submission := &models.ActivitySubmission{
		ActivityID: activityID,
		StudentID:  studentID,
		Content:    content,
		Status:     models.SubmissionSubmitted,
	}
	err = s.db.QueryRowContext(ctx,
		`INSERT INTO activity_submissions (id, activity_id, student_id, content, status)
		 VALUES ($1, $2, $3, $4, 'submitted')
		 ON CONFLICT (activity_id, student_id) DO UPDATE
		 SET content = EXCLUDED.content, status = 'submitted', submitted_at = NOW()
		 RETURNING id, submitted_at`,
		uuid.NewString(), activityID, studentID, content,
	).Scan(&submission.ID, &submission.SubmittedAt)
	if err != nil {
		return nil, contextutils.WrapError(contextutils.ErrDatabaseQuery, "failed to upsert submission")
	}

	span.SetAttributes(attribute.String("submission.id", submission.ID))
	s.logger.Info(ctx, "Activity submitted", map[string]interface{}{
		"activity_id": activityID,
		"student_id":  studentID,
	})
	return submission, nil
}

// GetSubmissions lists an activity's submissions, with student names, for the
// teacher who created the activity.
func (s *ActivityService) GetSubmissions(ctx context.Context, teacherID int, activityID string) (result0 []models.ActivitySubmission, err error) {
	ctx, span := observability.TraceActivityFunction(ctx, "get_submissions",
		observability.AttributeUserID(teacherID),
		attribute.String("activity.id", activityID),
	)
	defer observability.FinishSpan(span, &err)

	if err := s.checkActivityOwnership(ctx, teacherID, activityID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT s.id, s.activity_id, s.student_id, u.username, s.content, s.score, s.feedback, s.status, s.submitted_at, s.graded_at
		 FROM activity_submissions s
		 JOIN users u ON u.id = s.student_id
		 WHERE s.activity_id = $1
		 ORDER BY s.submitted_at`, activityID)
	if err != nil {
		return nil, contextutils.WrapError(contextutils.ErrDatabaseQuery, "failed to query submissions")
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			s.logger.Warn(ctx, "Failed to close rows", map[string]interface{}{"error": closeErr.Error()})
		}
	}()

	var submissions []models.ActivitySubmission
	for rows.Next() {
		var sub models.ActivitySubmission
		if err := rows.Scan(&sub.ID, &sub.ActivityID, &sub.StudentID, &sub.StudentName,
			&sub.Content, &sub.Score, &sub.Feedback, &sub.Status, &sub.SubmittedAt, &sub.GradedAt); err != nil {
			return nil, contextutils.WrapError(contextutils.ErrDatabaseQuery, "failed to scan submission row")
		}
		submissions = append(submissions, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, contextutils.WrapError(contextutils.ErrDatabaseQuery, "failed to iterate submission rows")
	}
	span.SetAttributes(attribute.Int("submissions.count", len(submissions)))
	return submissions, nil
}

// DeleteActivity removes an activity the teacher created. Submissions go
// with it via the FK cascade.
func (s *ActivityService) DeleteActivity(ctx context.Context, teacherID int, activityID string) (err error) {
	ctx, span := observability.TraceActivityFunction(ctx, "delete_activity",
		observability.AttributeUserID(teacherID),
		attribute.String("activity.id", activityID),
	)
	defer observability.FinishSpan(span, &err)

	if err := s.checkActivityOwnership(ctx, teacherID, activityID); err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `DELETE FROM activities WHERE id = $1`, activityID)
	if err != nil {
		return contextutils.WrapError(contextutils.ErrDatabaseQuery, "failed to delete activity")
	}

	s.logger.Info(ctx, "Activity deleted", map[string]interface{}{
		"activity_id": activityID,
		"teacher_id":  teacherID,
	})
	return nil
}

// checkClassOwnership verifies the class exists and belongs to the teacher.
func (s *ActivityService) checkClassOwnership(ctx context.Context, teacherID int, classID string) error {
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

// checkClassAccess verifies the caller owns the class or is on its roster.
func (s *ActivityService) checkClassAccess(ctx context.Context, userID int, classID string) error {
	var ownerID int
	err := s.db.QueryRowContext(ctx,
		`SELECT teacher_id FROM classes WHERE id = $1`, classID).Scan(&ownerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return contextutils.WrapErrorf(contextutils.ErrRecordNotFound, "class %s not found", classID)
		}
		return contextutils.WrapError(contextutils.ErrDatabaseQuery, "failed to query class")
	}
	if ownerID == userID {
		return nil
	}
	var member bool
	err = s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM class_members WHERE class_id = $1 AND user_id = $2)`,
		classID, userID).Scan(&member)
	if err != nil {
		return contextutils.WrapError(contextutils.ErrDatabaseQuery, "failed to query class membership")
	}
	if !member {
		return contextutils.WrapError(contextutils.ErrForbidden, "not a member of this class")
	}
	return nil
}

// checkActivityOwnership verifies the activity exists and was created by the
// teacher.
func (s *ActivityService) checkActivityOwnership(ctx context.Context, teacherID int, activityID string) error {
	var creatorID int
	err := s.db.QueryRowContext(ctx,
		`SELECT teacher_id FROM activities WHERE id = $1`, activityID).Scan(&creatorID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return contextutils.WrapErrorf(contextutils.ErrRecordNotFound, "activity %s not found", activityID)
		}
		return contextutils.WrapError(contextutils.ErrDatabaseQuery, "failed to query activity")
	}
	if creatorID != teacherID {
		return contextutils.WrapError(contextutils.ErrForbidden, "activity belongs to another teacher")
	}
	return nil
}
