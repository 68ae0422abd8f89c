//go:build integration

package services

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tutoria/internal/models"
	contextutils "tutoria/internal/utils"
)

func TestGamesService_CreateGame(t *testing.T) {
	db := SharedTestDBSetup(t)
	defer CleanupTestDatabase(db, t)

	generator := &fakeGenerator{
		pasapalabra: []models.PasapalabraEntry{
			{Letter: "A", Definition: "Partícula", Answer: "Átomo", Type: models.PasapalabraStarts},
		},
		escapeRoom: &models.EscapeRoom{
			Title: "El laboratorio perdido",
			Theme: "ciencia",
			Rooms: []models.EscapeRoomStage{
				{Number: 1, Name: "Entrada", Enigma: models.Enigma{Question: "¿Símbolo del oro?", Answer: "Au"}},
			},
		},
		hangman: []models.HangmanWord{{Word: "FOTOSINTESIS", Hint: "Plantas"}},
	}
	games := NewGamesService(db, generator, testLogger())
	ctx := context.Background()

	student := createTestStudent(t, db, "ana", "ana@example.com")
	req := &models.GenerationRequest{Subject: "Ciencias", Topic: "Química", Level: models.LevelSecundaria}

	t.Run("pasapalabra payload keeps the letters envelope", func(t *testing.T) {
		game, err := games.CreateGame(ctx, student.ID, models.ContentPasapalabra, req)
		require.NoError(t, err)
		assert.NotEmpty(t, game.ID)
		assert.Equal(t, models.ContentPasapalabra, game.Type)

		var payload struct {
			Letters []models.PasapalabraEntry `json:"letters"`
		}
		require.NoError(t, json.Unmarshal(game.Payload, &payload))
		require.Len(t, payload.Letters, 1)
		assert.Equal(t, "Átomo", payload.Letters[0].Answer)
	})

	t.Run("escape room payload keeps title and rooms", func(t *testing.T) {
		game, err := games.CreateGame(ctx, student.ID, models.ContentEscapeRoom, req)
		require.NoError(t, err)

		var payload models.EscapeRoom
		require.NoError(t, json.Unmarshal(game.Payload, &payload))
		assert.Equal(t, "El laboratorio perdido", payload.Title)
		require.Len(t, payload.Rooms, 1)
	})

	t.Run("quiz is not a game type", func(t *testing.T) {
		_, err := games.CreateGame(ctx, student.ID, models.ContentQuiz, req)
		require.Error(t, err)
		assert.Equal(t, contextutils.ErrorCodeUnsupportedContentType, contextutils.GetErrorCode(err))
	})

	t.Run("generation failure propagates", func(t *testing.T) {
		failing := NewGamesService(db, &fakeGenerator{err: contextutils.WrapError(contextutils.ErrEmptyGeneration, "nothing usable")}, testLogger())
		_, err := failing.CreateGame(ctx, student.ID, models.ContentHangman, req)
		require.Error(t, err)
		assert.Equal(t, contextutils.ErrorCodeEmptyGeneration, contextutils.GetErrorCode(err))
	})
}

func TestGamesService_GetGame(t *testing.T) {
	db := SharedTestDBSetup(t)
	defer CleanupTestDatabase(db, t)

	generator := &fakeGenerator{hangman: []models.HangmanWord{{Word: "AGUA", Hint: "H2O"}}}
	games := NewGamesService(db, generator, testLogger())
	ctx := context.Background()

	owner := createTestStudent(t, db, "ana", "ana@example.com")
	other := createTestStudent(t, db, "beto", "beto@example.com")

	game, err := games.CreateGame(ctx, owner.ID, models.ContentHangman, &models.GenerationRequest{Subject: "Química", Topic: "Agua"})
	require.NoError(t, err)

	t.Run("owner loads it with payload", func(t *testing.T) {
		loaded, err := games.GetGame(ctx, owner.ID, game.ID)
		require.NoError(t, err)
		assert.Equal(t, game.ID, loaded.ID)
		assert.NotEmpty(t, loaded.Payload)
	})

	t.Run("other user is forbidden", func(t *testing.T) {
		_, err := games.GetGame(ctx, other.ID, game.ID)
		require.Error(t, err)
		assert.Equal(t, contextutils.ErrorCodeForbidden, contextutils.GetErrorCode(err))
	})

	t.Run("unknown id not found", func(t *testing.T) {
		_, err := games.GetGame(ctx, owner.ID, "00000000-0000-0000-0000-000000000000")
		require.Error(t, err)
		assert.Equal(t, contextutils.ErrorCodeRecordNotFound, contextutils.GetErrorCode(err))
	})

	t.Run("listing omits payloads", func(t *testing.T) {
		list, err := games.GetGamesByUser(ctx, owner.ID)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Empty(t, list[0].Payload)
	})
}

func TestGamesService_CompleteGame(t *testing.T) {
	db := SharedTestDBSetup(t)
	defer CleanupTestDatabase(db, t)

	games := NewGamesService(db, &fakeGenerator{}, testLogger())
	ctx := context.Background()

	student := createTestStudent(t, db, "ana", "ana@example.com")

	completion, err := games.CompleteGame(ctx, student.ID, models.ContentPasapalabra, 18, 27)
	require.NoError(t, err)
	assert.NotZero(t, completion.ID)
	assert.Equal(t, models.ContentPasapalabra, completion.GameType)
	assert.InDelta(t, 18.0, completion.Score, 0.001)
	assert.False(t, completion.CompletedAt.IsZero())

	t.Run("invalid type rejected", func(t *testing.T) {
		_, err := games.CompleteGame(ctx, student.ID, models.ContentType("tetris"), 1, 1)
		require.Error(t, err)
		assert.Equal(t, contextutils.ErrorCodeUnsupportedContentType, contextutils.GetErrorCode(err))
	})
}
