package models

// ContentType identifies what kind of content a generation call produces.
// Each type has its own output shape and its own array field in the model's
// JSON response.
type ContentType string

// Generation content types.
const (
	ContentQuiz        ContentType = "quiz"
	ContentCards       ContentType = "cards"
	ContentPasapalabra ContentType = "pasapalabra"
	ContentMillion     ContentType = "atrapa-millon"
	ContentEscapeRoom  ContentType = "escape-room"
	ContentHangman     ContentType = "ahorcado"
)

// Valid reports whether the content type is one of the supported values.
func (c ContentType) Valid() bool {
	switch c {
	case ContentQuiz, ContentCards, ContentPasapalabra, ContentMillion, ContentEscapeRoom, ContentHangman:
		return true
	}
	return false
}

// PayloadField names the JSON array field that carries the items for this
// content type in the model's response.
func (c ContentType) PayloadField() string {
	switch c {
	case ContentQuiz, ContentMillion:
		return "questions"
	case ContentCards:
		return "cards"
	case ContentPasapalabra:
		return "letters"
	case ContentEscapeRoom:
		return "rooms"
	case ContentHangman:
		return "words"
	}
	return ""
}

// GenerationRequest describes one generation call. Immutable once built;
// Count only applies to quiz and cards, the game types have fixed counts.
type GenerationRequest struct {
	Subject    string         `json:"subject"`
	Topic      string         `json:"topic"`
	Level      EducationLevel `json:"level"`
	Difficulty Difficulty     `json:"difficulty,omitempty"`
	Count      int            `json:"count,omitempty"`
	// Context carries extracted document text to ground the generation.
	Context string `json:"context,omitempty"`
}

// QuizQuestion is one multiple-choice question. Options always has exactly
// four entries and CorrectAnswer indexes into it.
type QuizQuestion struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correct_answer"`
	Explanation   string   `json:"explanation"`
}

// GeneratedCard is one flashcard as produced by the model, before persistence.
type GeneratedCard struct {
	Question   string `json:"question"`
	Answer     string `json:"answer"`
	Difficulty string `json:"difficulty"`
}

// Pasapalabra answer kinds: the answer either starts with or contains the
// target letter.
const (
	PasapalabraStarts   = "starts"
	PasapalabraContains = "contains"
)

// PasapalabraEntry is one letter of the rosco. For type "starts" the answer
// must start with Letter.
type PasapalabraEntry struct {
	Letter     string `json:"letter"`
	Definition string `json:"definition"`
	Answer     string `json:"answer"`
	Type       string `json:"type"`
}

// MillionQuestion is one Atrapa-un-Millón question. Number orders the
// questions; difficulty ramps up with it.
type MillionQuestion struct {
	Number        int      `json:"number"`
	Difficulty    string   `json:"difficulty"`
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correct_answer"`
}

// Enigma is the puzzle inside an escape room.
type Enigma struct {
	Type     string   `json:"type"`
	Question string   `json:"question"`
	Options  []string `json:"options,omitempty"`
	Answer   string   `json:"answer"`
	Hint     string   `json:"hint"`
}

// EscapeRoomStage is one room in sequence.
type EscapeRoomStage struct {
	Number      int    `json:"number"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Enigma      Enigma `json:"enigma"`
}

// EscapeRoom is the full generated escape room.
type EscapeRoom struct {
	Title string            `json:"title"`
	Theme string            `json:"theme"`
	Rooms []EscapeRoomStage `json:"rooms"`
}

// ScoreResult is the outcome of grading a quiz submission. Percentage is
// always in [0,100].
type ScoreResult struct {
	CorrectCount int     `json:"correct_count"`
	Total        int     `json:"total"`
	Percentage   float64 `json:"percentage"`
}

// HangmanWord is one word for the ahorcado game. Word is uppercase with no
// spaces or diacritics.
type HangmanWord struct {
	Word       string `json:"word"`
	Hint       string `json:"hint"`
	Category   string `json:"category"`
	Difficulty string `json:"difficulty"`
}
