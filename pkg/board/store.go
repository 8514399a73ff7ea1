// Package board persists the task boards the assistant operates on. It is a
// small sqlite-backed store of boards, their lists, and the cards on them,
// used both as the assistant's working state and as ground truth when
// reviewing escalated conversations.
package board

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
)

// ErrNotFound is returned when a board, list, or card does not exist.
var ErrNotFound = errors.New("not found")

const idAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

func newID(prefix string) string {
	id, err := gonanoid.Generate(idAlphabet, 12)
	if err != nil {
		// gonanoid only fails when the system entropy source is broken
		panic(fmt.Sprintf("id generation failed: %v", err))
	}
	return prefix + "-" + id
}

// Board is a top-level container of lists.
type Board struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// List is a named column on a board.
type List struct {
	ID       string `json:"id"`
	BoardID  string `json:"board_id"`
	Name     string `json:"name"`
	Position int    `json:"position"`
}

// Card is a single task on a list.
type Card struct {
	ID          string     `json:"id"`
	ListID      string     `json:"list_id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Due         *time.Time `json:"due,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Store is the sqlite-backed board database.
type Store struct {
	db     *sql.DB
	logger zerolog.Logger
}

// NewStore opens (or creates) the board database at path.
func NewStore(path string, logger zerolog.Logger) (*Store, error) {
	if path == "" {
		return nil, errors.New("database path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s := &Store{db: db, logger: logger.With().Str("component", "board_store").Logger()}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

func (s *Store) initSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS boards (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			created_at INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS lists (
			id TEXT PRIMARY KEY,
			board_id TEXT NOT NULL,
			name TEXT NOT NULL,
			position INTEGER NOT NULL,
			FOREIGN KEY (board_id) REFERENCES boards(id) ON DELETE CASCADE
		);
		CREATE INDEX IF NOT EXISTS idx_lists_board ON lists(board_id);

		CREATE TABLE IF NOT EXISTS cards (
			id TEXT PRIMARY KEY,
			list_id TEXT NOT NULL,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			due INTEGER,
			created_at INTEGER NOT NULL,
			FOREIGN KEY (list_id) REFERENCES lists(id) ON DELETE CASCADE
		);
		CREATE INDEX IF NOT EXISTS idx_cards_list ON cards(list_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// CreateBoard inserts a new board.
func (s *Store) CreateBoard(name, description string) (*Board, error) {
	if name == "" {
		return nil, errors.New("board name is required")
	}
	board := &Board{
		ID:          newID("board"),
		Name:        name,
		Description: description,
		CreatedAt:   time.Now().UTC().Truncate(time.Second),
	}
	_, err := s.db.Exec(
		"INSERT INTO boards (id, name, description, created_at) VALUES (?, ?, ?, ?)",
		board.ID, board.Name, board.Description, board.CreatedAt.Unix(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create board: %w", err)
	}
	s.logger.Debug().Str("board_id", board.ID).Str("name", name).Msg("Board created")
	return board, nil
}

// GetBoard loads one board by id.
func (s *Store) GetBoard(id string) (*Board, error) {
	var board Board
	var createdAt int64
	err := s.db.QueryRow(
		"SELECT id, name, description, created_at FROM boards WHERE id = ?", id,
	).Scan(&board.ID, &board.Name, &board.Description, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("board %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load board: %w", err)
	}
	board.CreatedAt = time.Unix(createdAt, 0).UTC()
	return &board, nil
}

// Boards lists all boards, oldest first.
func (s *Store) Boards() ([]Board, error) {
	rows, err := s.db.Query("SELECT id, name, description, created_at FROM boards ORDER BY created_at, id")
	if err != nil {
		return nil, fmt.Errorf("failed to list boards: %w", err)
	}
	defer rows.Close()

	var boards []Board
	for rows.Next() {
		var board Board
		var createdAt int64
		if err := rows.Scan(&board.ID, &board.Name, &board.Description, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan board: %w", err)
		}
		board.CreatedAt = time.Unix(createdAt, 0).UTC()
		boards = append(boards, board)
	}
	return boards, rows.Err()
}

// DeleteBoard removes a board and, via cascade, its lists and cards.
func (s *Store) DeleteBoard(id string) error {
	result, err := s.db.Exec("DELETE FROM boards WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete board: %w", err)
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("board %s: %w", id, ErrNotFound)
	}
	return nil
}

// CreateList appends a list to a board, positioned after existing lists.
func (s *Store) CreateList(boardID, name string) (*List, error) {
	if name == "" {
		return nil, errors.New("list name is required")
	}
	if _, err := s.GetBoard(boardID); err != nil {
		return nil, err
	}

	var position int
	if err := s.db.QueryRow(
		"SELECT COALESCE(MAX(position), -1) + 1 FROM lists WHERE board_id = ?", boardID,
	).Scan(&position); err != nil {
		return nil, fmt.Errorf("failed to determine list position: %w", err)
	}

	list := &List{ID: newID("list"), BoardID: boardID, Name: name, Position: position}
	_, err := s.db.Exec(
		"INSERT INTO lists (id, board_id, name, position) VALUES (?, ?, ?, ?)",
		list.ID, list.BoardID, list.Name, list.Position,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create list: %w", err)
	}
	return list, nil
}

// Lists returns a board's lists in position order.
func (s *Store) Lists(boardID string) ([]List, error) {
	rows, err := s.db.Query(
		"SELECT id, board_id, name, position FROM lists WHERE board_id = ? ORDER BY position", boardID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list lists: %w", err)
	}
	defer rows.Close()

	var lists []List
	for rows.Next() {
		var list List
		if err := rows.Scan(&list.ID, &list.BoardID, &list.Name, &list.Position); err != nil {
			return nil, fmt.Errorf("failed to scan list: %w", err)
		}
		lists = append(lists, list)
	}
	return lists, rows.Err()
}

// CreateCard adds a card to a list.
func (s *Store) CreateCard(listID, name, description string, due *time.Time) (*Card, error) {
	if name == "" {
		return nil, errors.New("card name is required")
	}

	var exists int
	err := s.db.QueryRow("SELECT COUNT(*) FROM lists WHERE id = ?", listID).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("failed to check list: %w", err)
	}
	if exists == 0 {
		return nil, fmt.Errorf("list %s: %w", listID, ErrNotFound)
	}

	card := &Card{
		ID:          newID("card"),
		ListID:      listID,
		Name:        name,
		Description: description,
		CreatedAt:   time.Now().UTC().Truncate(time.Second),
	}
	var dueUnix interface{}
	if due != nil {
		d := due.UTC().Truncate(time.Second)
		card.Due = &d
		dueUnix = d.Unix()
	}
	_, err = s.db.Exec(
		"INSERT INTO cards (id, list_id, name, description, due, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		card.ID, card.ListID, card.Name, card.Description, dueUnix, card.CreatedAt.Unix(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create card: %w", err)
	}
	s.logger.Debug().Str("card_id", card.ID).Str("list_id", listID).Msg("Card created")
	return card, nil
}

// Cards returns a list's cards, oldest first.
func (s *Store) Cards(listID string) ([]Card, error) {
	rows, err := s.db.Query(
		"SELECT id, list_id, name, description, due, created_at FROM cards WHERE list_id = ? ORDER BY created_at, id",
		listID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list cards: %w", err)
	}
	defer rows.Close()

	var cards []Card
	for rows.Next() {
		var card Card
		var due sql.NullInt64
		var createdAt int64
		if err := rows.Scan(&card.ID, &card.ListID, &card.Name, &card.Description, &due, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan card: %w", err)
		}
		card.CreatedAt = time.Unix(createdAt, 0).UTC()
		if due.Valid {
			d := time.Unix(due.Int64, 0).UTC()
			card.Due = &d
		}
		cards = append(cards, card)
	}
	return cards, rows.Err()
}

// CardMatch is a search hit with the names of the list and board holding it.
type CardMatch struct {
	Card      Card   `json:"card"`
	ListName  string `json:"list_name"`
	BoardName string `json:"board_name"`
}

// SearchCards matches cards across all boards whose name or description
// contains the query, case-insensitively.
func (s *Store) SearchCards(query string) ([]CardMatch, error) {
	if query == "" {
		return nil, errors.New("search query is required")
	}
	pattern := "%" + strings.ToLower(query) + "%"
	rows, err := s.db.Query(`
		SELECT c.id, c.list_id, c.name, c.description, c.due, c.created_at, l.name, b.name
		FROM cards c
		JOIN lists l ON l.id = c.list_id
		JOIN boards b ON b.id = l.board_id
		WHERE lower(c.name) LIKE ? OR lower(c.description) LIKE ?
		ORDER BY c.created_at, c.id`,
		pattern, pattern,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search cards: %w", err)
	}
	defer rows.Close()

	var matches []CardMatch
	for rows.Next() {
		var match CardMatch
		var due sql.NullInt64
		var createdAt int64
		if err := rows.Scan(
			&match.Card.ID, &match.Card.ListID, &match.Card.Name, &match.Card.Description,
			&due, &createdAt, &match.ListName, &match.BoardName,
		); err != nil {
			return nil, fmt.Errorf("failed to scan search result: %w", err)
		}
		match.Card.CreatedAt = time.Unix(createdAt, 0).UTC()
		if due.Valid {
			d := time.Unix(due.Int64, 0).UTC()
			match.Card.Due = &d
		}
		matches = append(matches, match)
	}
	return matches, rows.Err()
}

// MoveCard reassigns a card to another list.
func (s *Store) MoveCard(cardID, listID string) error {
	var exists int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM lists WHERE id = ?", listID).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check list: %w", err)
	}
	if exists == 0 {
		return fmt.Errorf("list %s: %w", listID, ErrNotFound)
	}

	result, err := s.db.Exec("UPDATE cards SET list_id = ? WHERE id = ?", listID, cardID)
	if err != nil {
		return fmt.Errorf("failed to move card: %w", err)
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("card %s: %w", cardID, ErrNotFound)
	}
	return nil
}

// DeleteCard removes a card.
func (s *Store) DeleteCard(cardID string) error {
	result, err := s.db.Exec("DELETE FROM cards WHERE id = ?", cardID)
	if err != nil {
		return fmt.Errorf("failed to delete card: %w", err)
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("card %s: %w", cardID, ErrNotFound)
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
