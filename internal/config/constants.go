package config

import "time"

// EnvPrefix is prepended to every environment override key
// (e.g. TUTORIA_SERVER_PORT, TUTORIA_DATABASE_URL).
const EnvPrefix = "TUTORIA"

// Timeout constants
const (
	// HTTP timeouts
	DefaultHTTPTimeout = 60 * time.Second
	AIRequestTimeout   = 2 * time.Minute
	TestTimeout        = 100 * time.Millisecond

	// Database timeouts
	DatabaseConnMaxLifetime = 5 * time.Minute

	// Session timeouts
	SessionMaxAge = 7 * 24 * time.Hour // 7 days
)

// Generation defaults
const (
	// DefaultAIModel is the completion model used when none is configured.
	DefaultAIModel = "llama-3.3-70b-versatile"

	// Per-content-type sampling parameters. The escape room runs hotter so
	// enigmas vary between generations.
	QuizMaxTokens        = 2000
	QuizTemperature      = 0.7
	CardsMaxTokens       = 2000
	CardsTemperature     = 0.7
	PasapalabraMaxTokens = 3000
	PasapalabraTemp      = 0.7
	MillionMaxTokens     = 4000
	MillionTemperature   = 0.7
	EscapeRoomMaxTokens  = 3500
	EscapeRoomTemp       = 0.8
	HangmanMaxTokens     = 2500
	HangmanTemperature   = 0.7
	ChatMaxTokens        = 1500
	ChatTemperature      = 0.7
	SummaryMaxTokens     = 800
	SummaryTemperature   = 0.5

	// Fixed item counts per game type.
	PasapalabraLetterCount = 26
	MillionQuestionCount   = 10
	EscapeRoomCount        = 5
	HangmanWordCount       = 10

	// DocumentContextLimit is how much extracted document text is embedded
	// into a generation prompt.
	DocumentContextLimit = 3000
)

// Upload limits
const (
	DefaultMaxUploadBytes int64 = 10 << 20 // 10 MiB
)

// Session configuration constants
const (
	SessionPath     = "/"
	SessionHTTPOnly = true
	SessionSecure   = false // Set to true in production with HTTPS

	SessionName = "tutoria-session"
)

// Security configuration constants
const (
	// Content Security Policy
	DefaultCSP = "default-src 'self'; style-src 'self' 'unsafe-inline'; script-src 'self' 'unsafe-inline'; img-src 'self' data:; media-src 'self' blob: data:;"
)
