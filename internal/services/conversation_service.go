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

// chatHistoryLimit caps how many prior turns are replayed to the model.
const chatHistoryLimit = 10

// ChatResult is the outcome of one chat turn.
type ChatResult struct {
	ConversationID string         `json:"conversation_id"`
	UserMessage    models.Message `json:"message"`
	Assistant      models.Message `json:"assistant_response"`
}

// ConversationServiceInterface defines tutor chat operations.
type ConversationServiceInterface interface {
	Chat(ctx context.Context, userID int, conversationID, message string) (*ChatResult, error)
	GetConversationsByUser(ctx context.Context, userID int) ([]models.Conversation, error)
	GetMessages(ctx context.Context, userID int, conversationID string) ([]models.Message, error)
	DeleteConversation(ctx context.Context, userID int, conversationID string) error
}

// ConversationService persists chat threads and delegates replies to the
// generation service.
type ConversationService struct {
	db        *sql.DB
	generator GenerationServiceInterface
	users     UserServiceInterface
	logger    *observability.Logger
}

// NewConversationService creates a new ConversationService instance.
func NewConversationService(db *sql.DB, generator GenerationServiceInterface, users UserServiceInterface, logger *observability.Logger) *ConversationService {
	return &ConversationService{
		db:        db,
		generator: generator,
		users:     users,
		logger:    logger,
	}
}

// Chat stores the user message, asks the tutor for a reply with the last
// turns as context and stores the reply. An empty conversation ID starts a
// new thread titled after the first message.
func (s *ConversationService) Chat(ctx context.Context, userID int, conversationID, message string) (result0 *ChatResult, err error) {
	ctx, span := observability.TraceChatFunction(ctx, "chat",
		observability.AttributeUserID(userID),
		attribute.Bool("conversation.new", conversationID == ""),
	)
	defer observability.FinishSpan(span, &err)

	if message == "" {
		return nil, contextutils.WrapError(contextutils.ErrMissingRequired, "message is required")
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	level := models.LevelSecundaria
	if user.Level.Valid {
		level = models.EducationLevel(user.Level.String)
	}

	conversation, err := s.getConversationOrCreate(ctx, userID, conversationID, message)
	if err != nil {
		return nil, err
	}

	userMessage := models.Message{
		ConversationID: conversation.ID,
		Role:           "user",
		Content:        message,
	}
	err = s.db.QueryRowContext(ctx,
		`INSERT INTO messages (conversation_id, role, content) VALUES ($1, 'user', $2)
		 RETURNING id, created_at`,
		conversation.ID, message,
	).Scan(&userMessage.ID, &userMessage.CreatedAt)
	if err != nil {
		return nil, contextutils.WrapError(contextutils.ErrDatabaseQuery, "failed to insert user message")
	}

	history, err := s.recentHistory(ctx, conversation.ID, userMessage.ID)
	if err != nil {
		return nil, err
	}

	reply, err := s.generator.ChatReply(ctx, level, history, message)
	if err != nil {
		return nil, err
	}

	assistant := models.Message{
		ConversationID: conversation.ID,
		Role:           "assistant",
		Content:        reply,
	}
	err = s.db.QueryRowContext(ctx,
		`INSERT INTO messages (conversation_id, role, content) VALUES ($1, 'assistant', $2)
		 RETURNING id, created_at`,
		conversation.ID, reply,
	).Scan(&assistant.ID, &assistant.CreatedAt)
	if err != nil {
		return nil, contextutils.WrapError(contextutils.ErrDatabaseQuery, "failed to insert assistant message")
	}

	if _, err := s.db.ExecContext(ctx,
		`UPDATE conversations SET updated_at = NOW() WHERE id = $1`, conversation.ID); err != nil {
		s.logger.Warn(ctx, "Failed to bump conversation timestamp", map[string]interface{}{
			"conversation_id": conversation.ID,
			"error":           err.Error(),
		})
	}

	span.SetAttributes(attribute.String("conversation.id", conversation.ID))
	return &ChatResult{
		ConversationID: conversation.ID,
		UserMessage:    userMessage,
		Assistant:      assistant,
	}, nil
}

// getConversation loads a thread and checks ownership.
func (s *ConversationService) getConversation(ctx context.Context, userID int, conversationID string) (*models.Conversation, error) {
	conversation := &models.Conversation{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, title, created_at, updated_at FROM conversations WHERE id = $1`,
		conversationID,
	).Scan(&conversation.ID, &conversation.UserID, &conversation.Title, &conversation.CreatedAt, &conversation.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, contextutils.WrapErrorf(contextutils.ErrRecordNotFound, "conversation %s not found", conversationID)
		}
		return nil, contextutils.WrapError(contextutils.ErrDatabaseQuery, "failed to query conversation")
	}
	if conversation.UserID != userID {
		return nil, contextutils.WrapError(contextutils.ErrForbidden, "conversation belongs to another user")
	}
	return conversation, nil
}

// getConversationOrCreate loads an existing thread or starts a new one
// titled after the first message.
func (s *ConversationService) getConversationOrCreate(ctx context.Context, userID int, conversationID, firstMessage string) (*models.Conversation, error) {
	if conversationID != "" {
		return s.getConversation(ctx, userID, conversationID)
	}

	conversation := &models.Conversation{
		ID:     uuid.NewString(),
		UserID: userID,
		Title:  conversationTitle(firstMessage),
	}
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO conversations (id, user_id, title) VALUES ($1, $2, $3)
		 RETURNING created_at, updated_at`,
		conversation.ID, userID, conversation.Title,
	).Scan(&conversation.CreatedAt, &conversation.UpdatedAt)
	if err != nil {
		return nil, contextutils.WrapError(contextutils.ErrDatabaseQuery, "failed to insert conversation")
	}
	return conversation, nil
}

// conversationTitle derives a thread title from the first message.
func conversationTitle(message string) string {
	runes := []rune(message)
	if len(runes) > 50 {
		return string(runes[:50]) + "..."
	}
	return message
}

// recentHistory returns the last turns before the given message, oldest
// first, shaped for the completion API.
func (s *ConversationService) recentHistory(ctx context.Context, conversationID string, beforeMessageID int) ([]Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT role, content FROM (
			SELECT id, role, content FROM messages
			WHERE conversation_id = $1 AND id < $2
			ORDER BY id DESC LIMIT $3
		 ) recent ORDER BY id ASC`,
		conversationID, beforeMessageID, chatHistoryLimit)
	if err != nil {
		return nil, contextutils.WrapError(contextutils.ErrDatabaseQuery, "failed to query message history")
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			s.logger.Warn(ctx, "Failed to close rows", map[string]interface{}{"error": closeErr.Error()})
		}
	}()

	var history []Message
	for rows.Next() {
		var msg Message
		if err := rows.Scan(&msg.Role, &msg.Content); err != nil {
			return nil, contextutils.WrapError(contextutils.ErrDatabaseQuery, "failed to scan message row")
		}
		history = append(history, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, contextutils.WrapError(contextutils.ErrDatabaseQuery, "failed to iterate message rows")
	}
	return history, nil
}

// GetConversationsByUser lists the user's threads, most recently active
// first.
func (s *ConversationService) GetConversationsByUser(ctx context.Context, userID int) (result0 []models.Conversation, err error) {
	ctx, span := observability.TraceChatFunction(ctx, "get_conversations_by_user",
		observability.AttributeUserID(userID),
	)
	defer observability.FinishSpan(span, &err)

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, title, created_at, updated_at
		 FROM conversations WHERE user_id = $1 ORDER BY updated_at DESC`, userID)
	if err != nil {
		return nil, contextutils.WrapError(contextutils.ErrDatabaseQuery, "failed to query conversations")
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			s.logger.Warn(ctx, "Failed to close rows", map[string]interface{}{"error": closeErr.Error()})
		}
	}()

	var conversations []models.Conversation
	for rows.Next() {
		var c models.Conversation
		if err := rows.Scan(&c.ID, &c.UserID, &c.Title, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, contextutils.WrapError(contextutils.ErrDatabaseQuery, "failed to scan conversation row")
		}
		conversations = append(conversations, c)
	}
	if err := rows.Err(); err != nil {
		return nil, contextutils.WrapError(contextutils.ErrDatabaseQuery, "failed to iterate conversation rows")
	}
	span.SetAttributes(attribute.Int("conversations.count", len(conversations)))
	return conversations, nil
}

// GetMessages returns all turns of a conversation the user owns, oldest
// first.
func (s *ConversationService) GetMessages(ctx context.Context, userID int, conversationID string) (result0 []models.Message, err error) {
	ctx, span := observability.TraceChatFunction(ctx, "get_messages",
		observability.AttributeUserID(userID),
		attribute.String("conversation.id", conversationID),
	)
	defer observability.FinishSpan(span, &err)

	if _, err := s.getConversation(ctx, userID, conversationID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, conversation_id, role, content, created_at
		 FROM messages WHERE conversation_id = $1 ORDER BY id ASC`, conversationID)
	if err != nil {
		return nil, contextutils.WrapError(contextutils.ErrDatabaseQuery, "failed to query messages")
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			s.logger.Warn(ctx, "Failed to close rows", map[string]interface{}{"error": closeErr.Error()})
		}
	}()

	var messages []models.Message
	for rows.Next() {
		var msg models.Message
		if err := rows.Scan(&msg.ID, &msg.ConversationID, &msg.Role, &msg.Content, &msg.CreatedAt); err != nil {
			return nil, contextutils.WrapError(contextutils.ErrDatabaseQuery, "failed to scan message row")
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, contextutils.WrapError(contextutils.ErrDatabaseQuery, "failed to iterate message rows")
	}
	span.SetAttributes(attribute.Int("messages.count", len(messages)))
	return messages, nil
}

// DeleteConversation removes a thread the user owns. Messages go with it via
// the FK cascade.
func (s *ConversationService) DeleteConversation(ctx context.Context, userID int, conversationID string) (err error) {
	ctx, span := observability.TraceChatFunction(ctx, "delete_conversation",
		observability.AttributeUserID(userID),
		attribute.String("conversation.id", conversationID),
	)
	defer observability.FinishSpan(span, &err)

	if _, err := s.getConversation(ctx, userID, conversationID); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx,
		`DELETE FROM conversations WHERE id = $1 AND user_id = $2`, conversationID, userID)
	if err != nil {
		return contextutils.WrapError(contextutils.ErrDatabaseQuery, "failed to delete conversation")
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return contextutils.WrapError(contextutils.ErrDatabaseQuery, "failed to read delete result")
	}
	if rows == 0 {
		return contextutils.WrapErrorf(contextutils.ErrRecordNotFound, "conversation %s not found", conversationID)
	}
	return nil
}
