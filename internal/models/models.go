// Package models defines data structures used throughout the TutorIA backend.
package models

import (
	"database/sql"
	"encoding/json"
	"time"
)

// Role distinguishes the two account kinds.
type Role string

const (
	// RoleStudent is the default account role.
	RoleStudent Role = "student"
	// RoleTeacher can create classes and see their rosters.
	RoleTeacher Role = "teacher"
)

// Valid reports whether the role is one of the supported values.
func (r Role) Valid() bool {
	return r == RoleStudent || r == RoleTeacher
}

// EducationLevel biases prompt phrasing during generation.
type EducationLevel string

// Supported education levels.
const (
	LevelPrimaria     EducationLevel = "primaria"
	LevelSecundaria   EducationLevel = "secundaria"
	LevelBachillerato EducationLevel = "bachillerato"
	LevelUniversidad  EducationLevel = "universidad"
)

// Valid reports whether the level is one of the supported values.
func (l EducationLevel) Valid() bool {
	switch l {
	case LevelPrimaria, LevelSecundaria, LevelBachillerato, LevelUniversidad:
		return true
	}
	return false
}

// Difficulty applies to quiz and card generation only.
type Difficulty string

// Supported difficulties.
const (
	DifficultyFacil   Difficulty = "facil"
	DifficultyMedio   Difficulty = "medio"
	DifficultyDificil Difficulty = "dificil"
)

// Valid reports whether the difficulty is one of the supported values.
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyFacil, DifficultyMedio, DifficultyDificil:
		return true
	}
	return false
}

// User represents a student or teacher account
type User struct {
	ID           int            `json:"id"`
	Username     string         `json:"username"`
	Email        sql.NullString `json:"email"`
	PasswordHash sql.NullString `json:"-"` // Omit from JSON responses
	Role         Role           `json:"role"`
	Level        sql.NullString `json:"level"`
	LastActive   sql.NullTime   `json:"last_active"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// MarshalJSON customizes JSON marshaling for User to handle sql.Null* fields
func (u User) MarshalJSON() (result0 []byte, err error) {
	return json.Marshal(&struct {
		ID         int        `json:"id"`
		Username   string     `json:"username"`
		Email      *string    `json:"email"`
		Role       Role       `json:"role"`
		Level      *string    `json:"level"`
		LastActive *time.Time `json:"last_active"`
		CreatedAt  time.Time  `json:"created_at"`
		UpdatedAt  time.Time  `json:"updated_at"`
	}{
		ID:         u.ID,
		Username:   u.Username,
		Email:      nullStringToPointer(u.Email),
		Role:       u.Role,
		Level:      nullStringToPointer(u.Level),
		LastActive: nullTimeToPointer(u.LastActive),
		CreatedAt:  u.CreatedAt,
		UpdatedAt:  u.UpdatedAt,
	})
}

// Helper functions for converting sql.Null types to pointers
func nullStringToPointer(ns sql.NullString) *string {
	if ns.Valid {
		return &ns.String
	}
	return nil
}

func nullTimeToPointer(nt sql.NullTime) *time.Time {
	if nt.Valid {
		return &nt.Time
	}
	return nil
}

func nullFloat64ToPointer(nf sql.NullFloat64) *float64 {
	if nf.Valid {
		return &nf.Float64
	}
	return nil
}

// Class groups students under a teacher, joined via a short code.
type Class struct {
	ID        string    `json:"id"`
	TeacherID int       `json:"teacher_id"`
	Name      string    `json:"name"`
	Subject   string    `json:"subject"`
	JoinCode  string    `json:"join_code"`
	CreatedAt time.Time `json:"created_at"`
}

// ClassMember links a student to a class.
type ClassMember struct {
	ClassID  string    `json:"class_id"`
	UserID   int       `json:"user_id"`
	JoinedAt time.Time `json:"joined_at"`
}

// ActivityType categorizes work a teacher assigns to a class.
type ActivityType string

// Supported activity types.
const (
	ActivityQuiz     ActivityType = "quiz"
	ActivityReading  ActivityType = "reading"
	ActivityExercise ActivityType = "exercise"
	ActivityProject  ActivityType = "project"
)

// Valid reports whether the activity type is one of the supported values.
func (a ActivityType) Valid() bool {
	switch a {
	case ActivityQuiz, ActivityReading, ActivityExercise, ActivityProject:
		return true
	}
	return false
}

// SubmissionStatus tracks a student's progress on an activity.
type SubmissionStatus string

// Submission lifecycle states. NotSubmitted is synthetic: it marks students
// with no submission row yet when listing activities.
const (
	SubmissionPending      SubmissionStatus = "pending"
	SubmissionSubmitted    SubmissionStatus = "submitted"
	SubmissionGraded       SubmissionStatus = "graded"
	SubmissionNotSubmitted SubmissionStatus = "not_submitted"
)

// ActivityInput carries the fields a teacher sets when posting an activity.
type ActivityInput struct {
	ClassID     string          `json:"class_id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Subject     string          `json:"subject"`
	Type        ActivityType    `json:"activity_type"`
	DueDate     *time.Time      `json:"due_date"`
	Content     json.RawMessage `json:"content"`
}

// Activity is an assignment a teacher posts to one of their classes.
type Activity struct {
	ID          string          `json:"id"`
	ClassID     string          `json:"class_id"`
	TeacherID   int             `json:"teacher_id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Subject     string          `json:"subject"`
	Type        ActivityType    `json:"activity_type"`
	DueDate     sql.NullTime    `json:"due_date"`
	Content     json.RawMessage `json:"content,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	// SubmissionStatus is filled per student when listing class activities.
	SubmissionStatus SubmissionStatus `json:"submission_status,omitempty"`
}

// MarshalJSON customizes JSON marshaling for Activity to handle sql.Null* fields
func (a Activity) MarshalJSON() (result0 []byte, err error) {
	return json.Marshal(&struct {
		ID               string           `json:"id"`
		ClassID          string           `json:"class_id"`
		TeacherID        int              `json:"teacher_id"`
		Title            string           `json:"title"`
		Description      string           `json:"description"`
		Subject          string           `json:"subject"`
		Type             ActivityType     `json:"activity_type"`
		DueDate          *time.Time       `json:"due_date"`
		Content          json.RawMessage  `json:"content,omitempty"`
		CreatedAt        time.Time        `json:"created_at"`
		SubmissionStatus SubmissionStatus `json:"submission_status,omitempty"`
	}{
		ID:               a.ID,
		ClassID:          a.ClassID,
		TeacherID:        a.TeacherID,
		Title:            a.Title,
		Description:      a.Description,
		Subject:          a.Subject,
		Type:             a.Type,
		DueDate:          nullTimeToPointer(a.DueDate),
		Content:          a.Content,
		CreatedAt:        a.CreatedAt,
		SubmissionStatus: a.SubmissionStatus,
	})
}

// ActivitySubmission is a student's answer to an activity. StudentName is
// joined in when the teacher reviews submissions.
type ActivitySubmission struct {
	ID          string           `json:"id"`
	ActivityID  string           `json:"activity_id"`
	StudentID   int              `json:"student_id"`
	StudentName string           `json:"student_name,omitempty"`
	Content     string           `json:"content"`
	Score       sql.NullFloat64  `json:"score"`
	Feedback    sql.NullString   `json:"feedback"`
	Status      SubmissionStatus `json:"status"`
	SubmittedAt time.Time        `json:"submitted_at"`
	GradedAt    sql.NullTime     `json:"graded_at"`
}

// MarshalJSON customizes JSON marshaling for ActivitySubmission to handle sql.Null* fields
func (s ActivitySubmission) MarshalJSON() (result0 []byte, err error) {
	return json.Marshal(&struct {
		ID          string           `json:"id"`
		ActivityID  string           `json:"activity_id"`
		StudentID   int              `json:"student_id"`
		StudentName string           `json:"student_name,omitempty"`
		Content     string           `json:"content"`
		Score       *float64         `json:"score"`
		Feedback    *string          `json:"feedback"`
		Status      SubmissionStatus `json:"status"`
		SubmittedAt time.Time        `json:"submitted_at"`
		GradedAt    *time.Time       `json:"graded_at"`
	}{
		ID:          s.ID,
		ActivityID:  s.ActivityID,
		StudentID:   s.StudentID,
		StudentName: s.StudentName,
		Content:     s.Content,
		Score:       nullFloat64ToPointer(s.Score),
		Feedback:    nullStringToPointer(s.Feedback),
		Status:      s.Status,
		SubmittedAt: s.SubmittedAt,
		GradedAt:    nullTimeToPointer(s.GradedAt),
	})
}

// Quiz is a generated set of questions owned by a student. Questions are
// stored as a JSON document; Score is set exactly once, on submit.
type Quiz struct {
	ID          int             `json:"id"`
	UserID      int             `json:"user_id"`
	Subject     string          `json:"subject"`
	Topic       string          `json:"topic"`
	Difficulty  Difficulty      `json:"difficulty"`
	Questions   []QuizQuestion  `json:"questions"`
	Score       sql.NullFloat64 `json:"score"`
	Completed   bool            `json:"completed"`
	CompletedAt sql.NullTime    `json:"completed_at"`
	CreatedAt   time.Time       `json:"created_at"`
}

// MarshalJSON customizes JSON marshaling for Quiz to handle sql.Null* fields
func (q Quiz) MarshalJSON() (result0 []byte, err error) {
	return json.Marshal(&struct {
		ID          int            `json:"id"`
		UserID      int            `json:"user_id"`
		Subject     string         `json:"subject"`
		Topic       string         `json:"topic"`
		Difficulty  Difficulty     `json:"difficulty"`
		Questions   []QuizQuestion `json:"questions"`
		Score       *float64       `json:"score"`
		Completed   bool           `json:"completed"`
		CompletedAt *time.Time     `json:"completed_at"`
		CreatedAt   time.Time      `json:"created_at"`
	}{
		ID:          q.ID,
		UserID:      q.UserID,
		Subject:     q.Subject,
		Topic:       q.Topic,
		Difficulty:  q.Difficulty,
		Questions:   q.Questions,
		Score:       nullFloat64ToPointer(q.Score),
		Completed:   q.Completed,
		CompletedAt: nullTimeToPointer(q.CompletedAt),
		CreatedAt:   q.CreatedAt,
	})
}

// StudyCard is a flashcard with simple review counters.
type StudyCard struct {
	ID            int        `json:"id"`
	UserID        int        `json:"user_id"`
	Subject       string     `json:"subject"`
	Topic         string     `json:"topic"`
	Question      string     `json:"question"`
	Answer        string     `json:"answer"`
	Difficulty    Difficulty `json:"difficulty"`
	TimesReviewed int        `json:"times_reviewed"`
	TimesCorrect  int        `json:"times_correct"`
	CreatedAt     time.Time  `json:"created_at"`
}

// Game is a persisted generated game payload. Payload holds the
// content-type-specific JSON document.
type Game struct {
	ID        string          `json:"id"`
	UserID    int             `json:"user_id"`
	Type      ContentType     `json:"type"`
	Subject   string          `json:"subject"`
	Topic     string          `json:"topic"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}

// GameCompletion records a finished game session and its score.
type GameCompletion struct {
	ID          int         `json:"id"`
	UserID      int         `json:"user_id"`
	GameType    ContentType `json:"game_type"`
	Score       float64     `json:"score"`
	MaxScore    float64     `json:"max_score"`
	CompletedAt time.Time   `json:"completed_at"`
}

// Conversation is a chat thread between a student and the tutor.
type Conversation struct {
	ID        string    `json:"id"`
	UserID    int       `json:"user_id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Messages  []Message `json:"messages,omitempty"`
}

// Message is a single turn in a conversation.
type Message struct {
	ID             int       `json:"id"`
	ConversationID string    `json:"conversation_id"`
	Role           string    `json:"role"` // "user" or "assistant"
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"created_at"`
}

// Document is an uploaded file with its extracted text. Teachers can mark a
// document as shared so their class rosters can read it.
type Document struct {
	ID        string    `json:"id"`
	UserID    int       `json:"user_id"`
	Filename  string    `json:"filename"`
	MimeType  string    `json:"mime_type"`
	SizeBytes int64     `json:"size_bytes"`
	IsShared  bool      `json:"is_shared"`
	Text      string    `json:"-"` // Extracted text, returned only on detail requests
	CreatedAt time.Time `json:"created_at"`
}

// StudentProgress summarizes one student's work inside a class for their
// teacher.
type StudentProgress struct {
	TotalConversations int      `json:"total_conversations"`
	TotalQuestions     int      `json:"total_questions"`
	QuizzesCompleted   int      `json:"quizzes_completed"`
	AverageQuizScore   float64  `json:"average_quiz_score"`
	StudyCardsCreated  int      `json:"study_cards_created"`
	DocumentsUploaded  int      `json:"documents_uploaded"`
	RecentActivity     []string `json:"recent_activity"`
}

// StudentStats aggregates a student's activity for the dashboard.
type StudentStats struct {
	QuizzesTaken  int     `json:"quizzes_taken"`
	AverageScore  float64 `json:"average_score"`
	CardsReviewed int     `json:"cards_reviewed"`
	GamesPlayed   int     `json:"games_played"`
}
