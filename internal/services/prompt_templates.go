// Package services provides embedded templates for AI prompt construction
package services

import (
	"embed"
	"strings"
	"text/template"
)

//go:embed templates/*.tmpl
var promptTemplatesFS embed.FS

// Template names as constants
const (
	QuizPromptTemplate        = "quiz_prompt.tmpl"
	CardsPromptTemplate       = "cards_prompt.tmpl"
	PasapalabraPromptTemplate = "pasapalabra_prompt.tmpl"
	MillionPromptTemplate     = "million_prompt.tmpl"
	EscapeRoomPromptTemplate  = "escape_room_prompt.tmpl"
	HangmanPromptTemplate     = "hangman_prompt.tmpl"
	ChatSystemPromptTemplate  = "chat_system_prompt.tmpl"
	SummaryPromptTemplate     = "summary_prompt.tmpl"
)

// PromptData holds data for rendering prompt templates
type PromptData struct {
	Subject        string
	Topic          string
	Level          string
	Difficulty     string
	DifficultyDesc string
	Count          int
	Context        string
	LevelGuidance  string
}

// difficultyDescriptions maps a difficulty to the phrasing used in prompts.
var difficultyDescriptions = map[string]string{
	"facil":   "fáciles, conceptuales y directas",
	"medio":   "de dificultad moderada que requieren comprensión",
	"dificil": "desafiantes que requieren análisis profundo",
}

// DifficultyDescription returns the prompt phrasing for a difficulty,
// falling back to "moderada" for unknown values.
func DifficultyDescription(difficulty string) string {
	if desc, ok := difficultyDescriptions[difficulty]; ok {
		return desc
	}
	return "moderada"
}

// levelGuidance maps an education level to the tutoring guidance injected
// into the chat system prompt.
var levelGuidance = map[string]string{
	"primaria":     "Usa lenguaje muy simple y ejemplos del día a día. Sé especialmente entusiasta y usa muchos ejemplos visuales y comparaciones con cosas que los niños conocen.",
	"secundaria":   "Explica conceptos de forma clara pero completa. Usa ejemplos que los jóvenes puedan relacionar con su vida diaria.",
	"bachillerato": "Proporciona explicaciones detalladas cuando sea necesario. Conecta conceptos entre diferentes áreas del conocimiento.",
	"universidad":  "Ofrece explicaciones profundas y rigurosas. Incluye referencias académicas cuando sea apropiado.",
}

// LevelGuidance returns the tutoring guidance for an education level,
// defaulting to secundaria.
func LevelGuidance(level string) string {
	if guidance, ok := levelGuidance[level]; ok {
		return guidance
	}
	return levelGuidance["secundaria"]
}

// PromptTemplateManager renders the embedded prompt templates. The templates
// use [[ ]] delimiters so that the literal JSON examples inside them do not
// collide with template syntax.
type PromptTemplateManager struct {
	templates *template.Template
}

// NewPromptTemplateManager creates a new template manager
func NewPromptTemplateManager() (result0 *PromptTemplateManager, err error) {
	templates, err := template.New("").Delims("[[", "]]").ParseFS(promptTemplatesFS, "templates/*.tmpl")
	if err != nil {
		return nil, err
	}

	return &PromptTemplateManager{
		templates: templates,
	}, nil
}

// RenderTemplate renders a template with the given data
func (tm *PromptTemplateManager) RenderTemplate(templateName string, data PromptData) (result0 string, err error) {
	var buf strings.Builder
	err = tm.templates.ExecuteTemplate(&buf, templateName, data)
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}
