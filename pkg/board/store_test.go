package board

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "boards.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestBoards(t *testing.T) {
	store := newTestStore(t)

	t.Run("create and load", func(t *testing.T) {
		board, err := store.CreateBoard("Planning", "Quarterly planning")
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(board.ID, "board-"))

		loaded, err := store.GetBoard(board.ID)
		require.NoError(t, err)
		assert.Equal(t, board, loaded)
	})

	t.Run("empty name rejected", func(t *testing.T) {
		_, err := store.CreateBoard("", "")
		assert.Error(t, err)
	})

	t.Run("missing board", func(t *testing.T) {
		_, err := store.GetBoard("board-missing")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("list all", func(t *testing.T) {
		fresh := newTestStore(t)
		_, err := fresh.CreateBoard("One", "")
		require.NoError(t, err)
		_, err = fresh.CreateBoard("Two", "")
		require.NoError(t, err)

		boards, err := fresh.Boards()
		require.NoError(t, err)
		assert.Len(t, boards, 2)
	})
}

func TestLists(t *testing.T) {
	store := newTestStore(t)
	board, err := store.CreateBoard("Planning", "")
	require.NoError(t, err)

	t.Run("positions are sequential", func(t *testing.T) {
		todo, err := store.CreateList(board.ID, "To Do")
		require.NoError(t, err)
		done, err := store.CreateList(board.ID, "Done")
		require.NoError(t, err)

		assert.Equal(t, 0, todo.Position)
		assert.Equal(t, 1, done.Position)

		lists, err := store.Lists(board.ID)
		require.NoError(t, err)
		require.Len(t, lists, 2)
		assert.Equal(t, "To Do", lists[0].Name)
		assert.Equal(t, "Done", lists[1].Name)
	})

	t.Run("unknown board rejected", func(t *testing.T) {
		_, err := store.CreateList("board-missing", "To Do")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestCards(t *testing.T) {
	store := newTestStore(t)
	board, err := store.CreateBoard("Planning", "")
	require.NoError(t, err)
	todo, err := store.CreateList(board.ID, "To Do")
	require.NoError(t, err)
	done, err := store.CreateList(board.ID, "Done")
	require.NoError(t, err)

	t.Run("create with due date", func(t *testing.T) {
		due := time.Date(2026, 9, 15, 17, 0, 0, 0, time.UTC)
		card, err := store.CreateCard(todo.ID, "Write report", "Q3 numbers", &due)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(card.ID, "card-"))

		cards, err := store.Cards(todo.ID)
		require.NoError(t, err)
		require.Len(t, cards, 1)
		require.NotNil(t, cards[0].Due)
		assert.Equal(t, due, *cards[0].Due)
	})

	t.Run("move between lists", func(t *testing.T) {
		card, err := store.CreateCard(todo.ID, "Review draft", "", nil)
		require.NoError(t, err)

		require.NoError(t, store.MoveCard(card.ID, done.ID))

		moved, err := store.Cards(done.ID)
		require.NoError(t, err)
		require.Len(t, moved, 1)
		assert.Equal(t, "Review draft", moved[0].Name)
		assert.Nil(t, moved[0].Due)
	})

	t.Run("move to unknown list rejected", func(t *testing.T) {
		card, err := store.CreateCard(todo.ID, "Orphan", "", nil)
		require.NoError(t, err)
		assert.ErrorIs(t, store.MoveCard(card.ID, "list-missing"), ErrNotFound)
	})

	t.Run("delete", func(t *testing.T) {
		card, err := store.CreateCard(todo.ID, "Temporary", "", nil)
		require.NoError(t, err)
		require.NoError(t, store.DeleteCard(card.ID))
		assert.ErrorIs(t, store.DeleteCard(card.ID), ErrNotFound)
	})

	t.Run("search across boards", func(t *testing.T) {
		other, err := store.CreateBoard("Support", "")
		require.NoError(t, err)
		inbox, err := store.CreateList(other.ID, "Inbox")
		require.NoError(t, err)
		_, err = store.CreateCard(inbox.ID, "Triage REPORTED bugs", "", nil)
		require.NoError(t, err)
		_, err = store.CreateCard(inbox.ID, "Plan offsite", "compile the report", nil)
		require.NoError(t, err)

		matches, err := store.SearchCards("report")
		require.NoError(t, err)
		require.Len(t, matches, 3)
		for _, match := range matches {
			assert.NotEmpty(t, match.ListName)
			assert.NotEmpty(t, match.BoardName)
		}

		none, err := store.SearchCards("nonexistent")
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("empty query rejected", func(t *testing.T) {
		_, err := store.SearchCards("")
		assert.Error(t, err)
	})

	t.Run("deleting the board cascades", func(t *testing.T) {
		require.NoError(t, store.DeleteBoard(board.ID))

		cards, err := store.Cards(todo.ID)
		require.NoError(t, err)
		assert.Empty(t, cards)
	})
}
