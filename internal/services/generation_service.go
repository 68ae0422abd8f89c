// Package services contains the business logic for content generation,
// quizzes, games, study cards, users, classes, conversations and documents.
package services

import (
	"context"
	"encoding/json"
	"strings"
	"unicode"

	"github.com/xeipuuv/gojsonschema"
	"go.opentelemetry.io/otel/attribute"

	"tutoria/internal/config"
	"tutoria/internal/models"
	"tutoria/internal/observability"
	contextutils "tutoria/internal/utils"
)

// JSON schemas for each generation payload. The model is asked for a JSON
// object with a single array field; these re-check the shape before the typed
// unmarshal so malformed responses are caught at the boundary.
const (
	QuizPayloadSchema = `{
		"type": "object",
		"properties": {
			"questions": {
				"type": "array",
				"items": {
					"type": "object",
					"properties": {
						"question": {"type": "string"},
						"options": {"type": "array", "items": {"type": "string"}, "minItems": 4, "maxItems": 4},
						"correct_answer": {"type": "integer"},
						"explanation": {"type": "string"}
					},
					"required": ["question", "options", "correct_answer"]
				}
			}
		},
		"required": ["questions"]
	}`

	CardsPayloadSchema = `{
		"type": "object",
		"properties": {
			"cards": {
				"type": "array",
				"items": {
					"type": "object",
					"properties": {
						"question": {"type": "string"},
						"answer": {"type": "string"},
						"difficulty": {"type": "string"}
					},
					"required": ["question", "answer"]
				}
			}
		},
		"required": ["cards"]
	}`

	PasapalabraPayloadSchema = `{
		"type": "object",
		"properties": {
			"letters": {
				"type": "array",
				"items": {
					"type": "object",
					"properties": {
						"letter": {"type": "string", "minLength": 1},
						"definition": {"type": "string"},
						"answer": {"type": "string"},
						"type": {"type": "string"}
					},
					"required": ["letter", "definition", "answer"]
				}
			}
		},
		"required": ["letters"]
	}`

	MillionPayloadSchema = `{
		"type": "object",
		"properties": {
			"questions": {
				"type": "array",
				"items": {
					"type": "object",
					"properties": {
						"number": {"type": "integer"},
						"difficulty": {"type": "string"},
						"question": {"type": "string"},
						"options": {"type": "array", "items": {"type": "string"}, "minItems": 4, "maxItems": 4},
						"correct_answer": {"type": "integer"}
					},
					"required": ["question", "options", "correct_answer"]
				}
			}
		},
		"required": ["questions"]
	}`

	EscapeRoomPayloadSchema = `{
		"type": "object",
		"properties": {
			"title": {"type": "string"},
			"theme": {"type": "string"},
			"rooms": {
				"type": "array",
				"items": {
					"type": "object",
					"properties": {
						"number": {"type": "integer"},
						"name": {"type": "string"},
						"description": {"type": "string"},
						"enigma": {
							"type": "object",
							"properties": {
								"type": {"type": "string"},
								"question": {"type": "string"},
								"options": {"type": "array", "items": {"type": "string"}},
								"answer": {"type": "string"},
								"hint": {"type": "string"}
							},
							"required": ["question", "answer"]
						}
					},
					"required": ["name", "enigma"]
				}
			}
		},
		"required": ["rooms"]
	}`

	HangmanPayloadSchema = `{
		"type": "object",
		"properties": {
			"words": {
				"type": "array",
				"items": {
					"type": "object",
					"properties": {
						"word": {"type": "string", "minLength": 1},
						"hint": {"type": "string"},
						"category": {"type": "string"},
						"difficulty": {"type": "string"}
					},
					"required": ["word", "hint"]
				}
			}
		},
		"required": ["words"]
	}`
)

// GenerationServiceInterface defines the AI-backed content generation API.
type GenerationServiceInterface interface {
	GenerateQuiz(ctx context.Context, req *models.GenerationRequest) ([]models.QuizQuestion, error)
	GenerateCards(ctx context.Context, req *models.GenerationRequest) ([]models.GeneratedCard, error)
	GeneratePasapalabra(ctx context.Context, req *models.GenerationRequest) ([]models.PasapalabraEntry, error)
	GenerateMillion(ctx context.Context, req *models.GenerationRequest) ([]models.MillionQuestion, error)
	GenerateEscapeRoom(ctx context.Context, req *models.GenerationRequest) (*models.EscapeRoom, error)
	GenerateHangman(ctx context.Context, req *models.GenerationRequest) ([]models.HangmanWord, error)
	ChatReply(ctx context.Context, level models.EducationLevel, history []Message, userMessage string) (string, error)
	Summarize(ctx context.Context, level models.EducationLevel, text string) (string, error)

	// TemplateManager exposes prompt rendering for callers that build
	// prompts directly.
	TemplateManager() *PromptTemplateManager
}

// GenerationService builds prompts, calls the completion endpoint and
// validates what comes back. The completion client is injected so tests can
// substitute a fake.
type GenerationService struct {
	client    CompletionClient
	templates *PromptTemplateManager
	logger    *observability.Logger
}

// NewGenerationService creates the generation service with its prompt templates.
func NewGenerationService(client CompletionClient, logger *observability.Logger) (result0 *GenerationService, err error) {
	templates, err := NewPromptTemplateManager()
	if err != nil {
		return nil, contextutils.WrapErrorf(err, "failed to parse prompt templates")
	}
	return &GenerationService{
		client:    client,
		templates: templates,
		logger:    logger,
	}, nil
}

// TemplateManager returns the prompt template manager.
func (s *GenerationService) TemplateManager() *PromptTemplateManager {
	return s.templates
}

// GenerateQuiz produces multiple-choice questions for a subject and topic.
// Questions with a malformed option set are dropped; an empty result is an
// error because quiz generation has no fallback.
func (s *GenerationService) GenerateQuiz(ctx context.Context, req *models.GenerationRequest) (result0 []models.QuizQuestion, err error) {
	ctx, span := observability.TraceGenerationFunction(ctx, "generate_quiz",
		observability.AttributeSubject(req.Subject),
		observability.AttributeTopic(req.Topic),
		observability.AttributeCount(req.Count),
	)
	defer observability.FinishSpan(span, &err)

	prompt, err := s.templates.RenderTemplate(QuizPromptTemplate, PromptData{
		Subject:        req.Subject,
		Topic:          req.Topic,
		Level:          string(req.Level),
		Difficulty:     string(req.Difficulty),
		DifficultyDesc: DifficultyDescription(string(req.Difficulty)),
		Count:          req.Count,
		Context:        truncateContext(req.Context),
	})
	if err != nil {
		return nil, contextutils.WrapErrorf(err, "failed to render quiz prompt")
	}

	raw, err := s.complete(ctx, prompt, CompletionOptions{
		MaxTokens:    config.QuizMaxTokens,
		Temperature:  config.QuizTemperature,
		JSONResponse: true,
	})
	if err != nil {
		return nil, err
	}

	payload, err := parsePayload(raw, QuizPayloadSchema)
	if err != nil {
		return nil, err
	}

	var envelope struct {
		Questions []models.QuizQuestion `json:"questions"`
	}
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return nil, contextutils.WrapErrorf(contextutils.ErrAIResponseInvalid, "failed to decode quiz payload: %v", err)
	}

	questions := filterQuizQuestions(envelope.Questions)
	span.SetAttributes(attribute.Int("questions.generated", len(envelope.Questions)), attribute.Int("questions.valid", len(questions)))
	if len(questions) == 0 {
		return nil, contextutils.WrapError(contextutils.ErrEmptyGeneration, "model returned no usable questions")
	}
	return questions, nil
}

// GenerateCards produces flashcards grounded on the given content.
func (s *GenerationService) GenerateCards(ctx context.Context, req *models.GenerationRequest) (result0 []models.GeneratedCard, err error) {
	ctx, span := observability.TraceGenerationFunction(ctx, "generate_cards",
		observability.AttributeSubject(req.Subject),
		observability.AttributeCount(req.Count),
	)
	defer observability.FinishSpan(span, &err)

	prompt, err := s.templates.RenderTemplate(CardsPromptTemplate, PromptData{
		Subject: req.Subject,
		Level:   string(req.Level),
		Count:   req.Count,
		Context: truncateContext(req.Context),
	})
	if err != nil {
		return nil, contextutils.WrapErrorf(err, "failed to render cards prompt")
	}

	raw, err := s.complete(ctx, prompt, CompletionOptions{
		MaxTokens:    config.CardsMaxTokens,
		Temperature:  config.CardsTemperature,
		JSONResponse: true,
	})
	if err != nil {
		return nil, err
	}

	payload, err := parsePayload(raw, CardsPayloadSchema)
	if err != nil {
		return nil, err
	}

	var envelope struct {
		Cards []models.GeneratedCard `json:"cards"`
	}
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return nil, contextutils.WrapErrorf(contextutils.ErrAIResponseInvalid, "failed to decode cards payload: %v", err)
	}

	cards := make([]models.GeneratedCard, 0, len(envelope.Cards))
	for _, card := range envelope.Cards {
		if strings.TrimSpace(card.Question) == "" || strings.TrimSpace(card.Answer) == "" {
			continue
		}
		cards = append(cards, card)
	}
	span.SetAttributes(attribute.Int("cards.valid", len(cards)))
	if len(cards) == 0 {
		return nil, contextutils.WrapError(contextutils.ErrEmptyGeneration, "model returned no usable cards")
	}
	return cards, nil
}

// GeneratePasapalabra produces the letter wheel for a topic. Entries whose
// answer does not start with the target letter are dropped rather than
// failing the whole wheel.
func (s *GenerationService) GeneratePasapalabra(ctx context.Context, req *models.GenerationRequest) (result0 []models.PasapalabraEntry, err error) {
	ctx, span := observability.TraceGenerationFunction(ctx, "generate_pasapalabra",
		observability.AttributeSubject(req.Subject),
		observability.AttributeTopic(req.Topic),
	)
	defer observability.FinishSpan(span, &err)

	prompt, err := s.templates.RenderTemplate(PasapalabraPromptTemplate, PromptData{
		Subject: req.Subject,
		Topic:   req.Topic,
		Level:   string(req.Level),
		Count:   config.PasapalabraLetterCount,
	})
	if err != nil {
		return nil, contextutils.WrapErrorf(err, "failed to render pasapalabra prompt")
	}

	raw, err := s.complete(ctx, prompt, CompletionOptions{
		MaxTokens:    config.PasapalabraMaxTokens,
		Temperature:  config.PasapalabraTemp,
		JSONResponse: true,
	})
	if err != nil {
		return nil, err
	}

	payload, err := parsePayload(raw, PasapalabraPayloadSchema)
	if err != nil {
		return nil, err
	}

	var envelope struct {
		Letters []models.PasapalabraEntry `json:"letters"`
	}
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return nil, contextutils.WrapErrorf(contextutils.ErrAIResponseInvalid, "failed to decode pasapalabra payload: %v", err)
	}

	entries := ValidatePasapalabraEntries(envelope.Letters)
	dropped := len(envelope.Letters) - len(entries)
	if dropped > 0 {
		s.logger.Warn(ctx, "Dropped pasapalabra entries with mismatched first letter", map[string]interface{}{
			"dropped": dropped,
			"kept":    len(entries),
		})
	}
	span.SetAttributes(attribute.Int("letters.generated", len(envelope.Letters)), attribute.Int("letters.valid", len(entries)))
	if len(entries) == 0 {
		return nil, contextutils.WrapError(contextutils.ErrEmptyGeneration, "model returned no usable letters")
	}
	return entries, nil
}

// GenerateMillion produces the ten-question betting game with progressive
// difficulty.
func (s *GenerationService) GenerateMillion(ctx context.Context, req *models.GenerationRequest) (result0 []models.MillionQuestion, err error) {
	ctx, span := observability.TraceGenerationFunction(ctx, "generate_million",
		observability.AttributeSubject(req.Subject),
		observability.AttributeTopic(req.Topic),
	)
	defer observability.FinishSpan(span, &err)

	prompt, err := s.templates.RenderTemplate(MillionPromptTemplate, PromptData{
		Subject: req.Subject,
		Topic:   req.Topic,
		Level:   string(req.Level),
		Count:   config.MillionQuestionCount,
	})
	if err != nil {
		return nil, contextutils.WrapErrorf(err, "failed to render million prompt")
	}

	raw, err := s.complete(ctx, prompt, CompletionOptions{
		MaxTokens:    config.MillionMaxTokens,
		Temperature:  config.MillionTemperature,
		JSONResponse: true,
	})
	if err != nil {
		return nil, err
	}

	payload, err := parsePayload(raw, MillionPayloadSchema)
	if err != nil {
		return nil, err
	}

	var envelope struct {
		Questions []models.MillionQuestion `json:"questions"`
	}
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return nil, contextutils.WrapErrorf(contextutils.ErrAIResponseInvalid, "failed to decode million payload: %v", err)
	}

	questions := make([]models.MillionQuestion, 0, len(envelope.Questions))
	for _, q := range envelope.Questions {
		if strings.TrimSpace(q.Question) == "" || len(q.Options) != 4 || q.CorrectAnswer < 0 || q.CorrectAnswer > 3 {
			continue
		}
		questions = append(questions, q)
	}
	span.SetAttributes(attribute.Int("questions.valid", len(questions)))
	if len(questions) == 0 {
		return nil, contextutils.WrapError(contextutils.ErrEmptyGeneration, "model returned no usable questions")
	}
	return questions, nil
}

// GenerateEscapeRoom produces a themed escape room with sequential rooms.
func (s *GenerationService) GenerateEscapeRoom(ctx context.Context, req *models.GenerationRequest) (result0 *models.EscapeRoom, err error) {
	ctx, span := observability.TraceGenerationFunction(ctx, "generate_escape_room",
		observability.AttributeSubject(req.Subject),
		observability.AttributeTopic(req.Topic),
	)
	defer observability.FinishSpan(span, &err)

	prompt, err := s.templates.RenderTemplate(EscapeRoomPromptTemplate, PromptData{
		Subject: req.Subject,
		Topic:   req.Topic,
		Level:   string(req.Level),
		Count:   config.EscapeRoomCount,
	})
	if err != nil {
		return nil, contextutils.WrapErrorf(err, "failed to render escape room prompt")
	}

	raw, err := s.complete(ctx, prompt, CompletionOptions{
		MaxTokens:    config.EscapeRoomMaxTokens,
		Temperature:  config.EscapeRoomTemp,
		JSONResponse: true,
	})
	if err != nil {
		return nil, err
	}

	payload, err := parsePayload(raw, EscapeRoomPayloadSchema)
	if err != nil {
		return nil, err
	}

	var room models.EscapeRoom
	if err := json.Unmarshal(payload, &room); err != nil {
		return nil, contextutils.WrapErrorf(contextutils.ErrAIResponseInvalid, "failed to decode escape room payload: %v", err)
	}

	rooms := make([]models.EscapeRoomStage, 0, len(room.Rooms))
	for _, stage := range room.Rooms {
		if strings.TrimSpace(stage.Enigma.Question) == "" || strings.TrimSpace(stage.Enigma.Answer) == "" {
			continue
		}
		rooms = append(rooms, stage)
	}
	room.Rooms = rooms
	span.SetAttributes(attribute.Int("rooms.valid", len(room.Rooms)))
	if len(room.Rooms) == 0 {
		return nil, contextutils.WrapError(contextutils.ErrEmptyGeneration, "model returned no usable rooms")
	}
	return &room, nil
}

// GenerateHangman produces words with hints for the hangman game. Words are
// normalized to uppercase without diacritics; anything that still contains a
// non-letter is dropped.
func (s *GenerationService) GenerateHangman(ctx context.Context, req *models.GenerationRequest) (result0 []models.HangmanWord, err error) {
	ctx, span := observability.TraceGenerationFunction(ctx, "generate_hangman",
		observability.AttributeSubject(req.Subject),
		observability.AttributeTopic(req.Topic),
	)
	defer observability.FinishSpan(span, &err)

	prompt, err := s.templates.RenderTemplate(HangmanPromptTemplate, PromptData{
		Subject: req.Subject,
		Topic:   req.Topic,
		Level:   string(req.Level),
		Count:   config.HangmanWordCount,
	})
	if err != nil {
		return nil, contextutils.WrapErrorf(err, "failed to render hangman prompt")
	}

	raw, err := s.complete(ctx, prompt, CompletionOptions{
		MaxTokens:    config.HangmanMaxTokens,
		Temperature:  config.HangmanTemperature,
		JSONResponse: true,
	})
	if err != nil {
		return nil, err
	}

	payload, err := parsePayload(raw, HangmanPayloadSchema)
	if err != nil {
		return nil, err
	}

	var envelope struct {
		Words []models.HangmanWord `json:"words"`
	}
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return nil, contextutils.WrapErrorf(contextutils.ErrAIResponseInvalid, "failed to decode hangman payload: %v", err)
	}

	words := make([]models.HangmanWord, 0, len(envelope.Words))
	for _, w := range envelope.Words {
		normalized, ok := NormalizeHangmanWord(w.Word)
		if !ok {
			continue
		}
		w.Word = normalized
		words = append(words, w)
	}
	span.SetAttributes(attribute.Int("words.valid", len(words)))
	if len(words) == 0 {
		return nil, contextutils.WrapError(contextutils.ErrEmptyGeneration, "model returned no usable words")
	}
	return words, nil
}

// ChatReply answers a student message in the tutor persona, carrying the
// conversation history and adapting tone to the education level.
func (s *GenerationService) ChatReply(ctx context.Context, level models.EducationLevel, history []Message, userMessage string) (result0 string, err error) {
	ctx, span := observability.TraceGenerationFunction(ctx, "chat_reply",
		observability.AttributeLevel(string(level)),
		attribute.Int("history.length", len(history)),
	)
	defer observability.FinishSpan(span, &err)

	if strings.TrimSpace(userMessage) == "" {
		return "", contextutils.WrapError(contextutils.ErrInvalidInput, "message cannot be empty")
	}

	systemPrompt, err := s.templates.RenderTemplate(ChatSystemPromptTemplate, PromptData{
		Level:         string(level),
		LevelGuidance: LevelGuidance(string(level)),
	})
	if err != nil {
		return "", contextutils.WrapErrorf(err, "failed to render chat system prompt")
	}

	messages := make([]Message, 0, len(history)+2)
	messages = append(messages, Message{Role: "system", Content: systemPrompt})
	messages = append(messages, history...)
	messages = append(messages, Message{Role: "user", Content: userMessage})

	return s.client.Complete(ctx, messages, CompletionOptions{
		MaxTokens:   config.ChatMaxTokens,
		Temperature: config.ChatTemperature,
	})
}

// Summarize produces a study summary of the given text, phrased for the
// education level.
func (s *GenerationService) Summarize(ctx context.Context, level models.EducationLevel, text string) (result0 string, err error) {
	ctx, span := observability.TraceGenerationFunction(ctx, "summarize",
		observability.AttributeLevel(string(level)),
		attribute.Int("text.length", len(text)),
	)
	defer observability.FinishSpan(span, &err)

	systemPrompt, err := s.templates.RenderTemplate(ChatSystemPromptTemplate, PromptData{
		Level:         string(level),
		LevelGuidance: LevelGuidance(string(level)),
	})
	if err != nil {
		return "", contextutils.WrapErrorf(err, "failed to render chat system prompt")
	}

	prompt, err := s.templates.RenderTemplate(SummaryPromptTemplate, PromptData{
		Level:   string(level),
		Context: text,
	})
	if err != nil {
		return "", contextutils.WrapErrorf(err, "failed to render summary prompt")
	}

	return s.client.Complete(ctx, []Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: prompt},
	}, CompletionOptions{
		MaxTokens:   config.SummaryMaxTokens,
		Temperature: config.SummaryTemperature,
	})
}

// complete sends a single-user-message prompt and returns the raw content.
func (s *GenerationService) complete(ctx context.Context, prompt string, opts CompletionOptions) (string, error) {
	return s.client.Complete(ctx, []Message{{Role: "user", Content: prompt}}, opts)
}

// parsePayload strips markdown fences, validates the raw text against the
// schema and returns the JSON bytes for the typed unmarshal.
func parsePayload(raw, schema string) ([]byte, error) {
	cleaned := StripJSONFences(raw)
	payload := []byte(cleaned)

	if !json.Valid(payload) {
		return nil, contextutils.WrapError(contextutils.ErrAIResponseInvalid, "response is not valid JSON")
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(schema),
		gojsonschema.NewBytesLoader(payload),
	)
	if err != nil {
		return nil, contextutils.WrapErrorf(contextutils.ErrAIResponseInvalid, "schema validation failed: %v", err)
	}
	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			details = append(details, desc.String())
		}
		return nil, contextutils.WrapErrorf(contextutils.ErrAIResponseInvalid, "response does not match expected shape: %s", strings.Join(details, "; "))
	}
	return payload, nil
}

// StripJSONFences removes a surrounding markdown code fence from a model
// response, tolerating a "json" language tag.
func StripJSONFences(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}

// filterQuizQuestions drops questions with a malformed option set or an
// out-of-range answer index.
func filterQuizQuestions(questions []models.QuizQuestion) []models.QuizQuestion {
	valid := make([]models.QuizQuestion, 0, len(questions))
	for _, q := range questions {
		if strings.TrimSpace(q.Question) == "" || len(q.Options) != 4 || q.CorrectAnswer < 0 || q.CorrectAnswer > 3 {
			continue
		}
		valid = append(valid, q)
	}
	return valid
}

// ValidatePasapalabraEntries keeps only entries whose answer starts with the
// target letter. The comparison folds case and diacritics so "Átomo" counts
// as starting with "A". Entries of type "contains" only need the letter
// somewhere in the answer.
func ValidatePasapalabraEntries(entries []models.PasapalabraEntry) []models.PasapalabraEntry {
	valid := make([]models.PasapalabraEntry, 0, len(entries))
	for _, entry := range entries {
		letter := []rune(strings.TrimSpace(entry.Letter))
		answer := []rune(strings.TrimSpace(entry.Answer))
		if len(letter) == 0 || len(answer) == 0 {
			continue
		}
		target := foldLetter(letter[0])
		if entry.Type == models.PasapalabraContains {
			if answerContainsLetter(answer, target) {
				valid = append(valid, entry)
			}
			continue
		}
		if foldLetter(answer[0]) == target {
			valid = append(valid, entry)
		}
	}
	return valid
}

func answerContainsLetter(answer []rune, target rune) bool {
	for _, r := range answer {
		if foldLetter(r) == target {
			return true
		}
	}
	return false
}

// foldLetter uppercases a rune and strips the Spanish diacritics so accented
// vowels compare equal to their base letter.
func foldLetter(r rune) rune {
	r = unicode.ToUpper(r)
	switch r {
	case 'Á', 'À', 'Â', 'Ä':
		return 'A'
	case 'É', 'È', 'Ê', 'Ë':
		return 'E'
	case 'Í', 'Ì', 'Î', 'Ï':
		return 'I'
	case 'Ó', 'Ò', 'Ô', 'Ö':
		return 'O'
	case 'Ú', 'Ù', 'Û', 'Ü':
		return 'U'
	}
	return r
}

// NormalizeHangmanWord uppercases a word, strips diacritics and rejects
// anything containing a non-letter. Returns the normalized word and whether
// it is usable.
func NormalizeHangmanWord(word string) (string, bool) {
	trimmed := strings.TrimSpace(word)
	if trimmed == "" {
		return "", false
	}
	var b strings.Builder
	for _, r := range trimmed {
		folded := foldLetter(r)
		if folded == 'Ñ' {
			b.WriteRune(folded)
			continue
		}
		if folded < 'A' || folded > 'Z' {
			return "", false
		}
		b.WriteRune(folded)
	}
	return b.String(), true
}

// truncateContext caps document text embedded into prompts.
func truncateContext(text string) string {
	if len(text) <= config.DocumentContextLimit {
		return text
	}
	runes := []rune(text)
	if len(runes) <= config.DocumentContextLimit {
		return text
	}
	return string(runes[:config.DocumentContextLimit])
}
