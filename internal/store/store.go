package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/colmryan/memora/internal/domain"
	"github.com/colmryan/memora/internal/srs"
	_ "modernc.org/sqlite" // Registers the sqlite driver
)

// DB wraps the SQL database connection.
type DB struct {
	conn *sql.DB
}

// Open creates a new database connection and ensures the schema exists.
func Open(dsn string) (*DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &DB{conn: db}, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Card is a stored flashcard together with its scheduling state.
type Card struct {
	domain.Card
	State    srs.CardState
	SourceID sql.NullInt64
}

// cardColumns is the select list matching scanCard.
const cardColumns = `hash, front, back, context, topic,
	easiness, repetitions, interval_days, last_rating, last_reviewed, due, source_id`

func scanCard(row interface{ Scan(...any) error }) (*Card, error) {
	var (
		c          Card
		lastRating sql.NullInt64
		lastReview sql.NullTime
	)
	err := row.Scan(
		&c.Hash, &c.Front, &c.Back, &c.Context, &c.Topic,
		&c.State.EasinessFactor, &c.State.Repetitions, &c.State.IntervalDays,
		&lastRating, &lastReview, &c.State.Due, &c.SourceID,
	)
	if err != nil {
		return nil, err
	}
	if lastRating.Valid {
		c.State.LastRating = srs.Rating(lastRating.Int64)
	}
	if lastReview.Valid {
		t := lastReview.Time
		c.State.LastReviewedAt = &t
	}
	return &c, nil
}

func stateArgs(state srs.CardState) (lastRating sql.NullInt64, lastReview sql.NullTime) {
	if state.LastReviewedAt != nil {
		lastRating = sql.NullInt64{Int64: int64(state.LastRating), Valid: true}
		lastReview = sql.NullTime{Time: *state.LastReviewedAt, Valid: true}
	}
	return lastRating, lastReview
}

// InsertCard inserts a new card with its initial scheduling state.
func (db *DB) InsertCard(card domain.Card, state srs.CardState, sourceID int64) error {
	lastRating, lastReview := stateArgs(state)
	_, err := db.conn.Exec(`
		INSERT INTO cards (hash, front, back, context, topic,
			easiness, repetitions, interval_days, last_rating, last_reviewed, due, source_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		card.Hash, card.Front, card.Back, card.Context, card.Topic,
		state.EasinessFactor, state.Repetitions, state.IntervalDays,
		lastRating, lastReview, state.Due, sourceID,
	)
	if err != nil {
		return fmt.Errorf("failed to insert card %s: %w", card.Hash, err)
	}
	return nil
}

// FindCardByHash retrieves a card by its content hash. A missing card
// is (nil, nil), not an error.
func (db *DB) FindCardByHash(hash string) (*Card, error) {
	row := db.conn.QueryRow(`SELECT `+cardColumns+` FROM cards WHERE hash = ?`, hash)
	c, err := scanCard(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find card by hash %s: %w", hash, err)
	}
	return c, nil
}

// UpdateCardState stores a card's scheduling state after a review.
func (db *DB) UpdateCardState(hash string, state srs.CardState) error {
	lastRating, lastReview := stateArgs(state)
	_, err := db.conn.Exec(`
		UPDATE cards
		SET easiness = ?, repetitions = ?, interval_days = ?,
			last_rating = ?, last_reviewed = ?, due = ?
		WHERE hash = ?
	`,
		state.EasinessFactor, state.Repetitions, state.IntervalDays,
		lastRating, lastReview, state.Due, hash,
	)
	if err != nil {
		return fmt.Errorf("failed to update card state for hash %s: %w", hash, err)
	}
	return nil
}

// UpdateCardTopic re-tags a card without touching its scheduling state.
func (db *DB) UpdateCardTopic(hash, topic string) error {
	_, err := db.conn.Exec(`UPDATE cards SET topic = ? WHERE hash = ?`, topic, hash)
	if err != nil {
		return fmt.Errorf("failed to update topic for hash %s: %w", hash, err)
	}
	return nil
}

// DeleteCardByHash removes a card and its review history.
func (db *DB) DeleteCardByHash(hash string) error {
	if _, err := db.conn.Exec(`DELETE FROM reviews WHERE card_hash = ?`, hash); err != nil {
		return fmt.Errorf("failed to delete reviews for hash %s: %w", hash, err)
	}
	if _, err := db.conn.Exec(`DELETE FROM cards WHERE hash = ?`, hash); err != nil {
		return fmt.Errorf("failed to delete card with hash %s: %w", hash, err)
	}
	return nil
}

// DueCards returns all cards due at or before now, most overdue first.
func (db *DB) DueCards(now time.Time) ([]Card, error) {
	rows, err := db.conn.Query(`
		SELECT `+cardColumns+` FROM cards WHERE due <= ? ORDER BY due ASC
	`, now)
	if err != nil {
		return nil, fmt.Errorf("failed to get due cards: %w", err)
	}
	defer rows.Close()
	return collectCards(rows)
}

// CardsByTopic returns all cards tagged with the given topic.
func (db *DB) CardsByTopic(topic string) ([]Card, error) {
	rows, err := db.conn.Query(`SELECT `+cardColumns+` FROM cards WHERE topic = ?`, topic)
	if err != nil {
		return nil, fmt.Errorf("failed to get cards for topic %s: %w", topic, err)
	}
	defer rows.Close()
	return collectCards(rows)
}

// CardsBySourceID returns all cards that came from a specific source.
func (db *DB) CardsBySourceID(sourceID int64) ([]Card, error) {
	rows, err := db.conn.Query(`SELECT `+cardColumns+` FROM cards WHERE source_id = ?`, sourceID)
	if err != nil {
		return nil, fmt.Errorf("failed to get cards for source ID %d: %w", sourceID, err)
	}
	defer rows.Close()
	return collectCards(rows)
}

// Topics returns the distinct topics with at least one card.
func (db *DB) Topics() ([]string, error) {
	rows, err := db.conn.Query(`SELECT DISTINCT topic FROM cards ORDER BY topic`)
	if err != nil {
		return nil, fmt.Errorf("failed to get topics: %w", err)
	}
	defer rows.Close()

	var topics []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("failed to scan topic row: %w", err)
		}
		topics = append(topics, t)
	}
	return topics, rows.Err()
}

func collectCards(rows *sql.Rows) ([]Card, error) {
	var cards []Card
	for rows.Next() {
		c, err := scanCard(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan card row: %w", err)
		}
		cards = append(cards, *c)
	}
	return cards, rows.Err()
}

// AppendReview records one review event in the history log.
func (db *DB) AppendReview(ev domain.ReviewEvent) error {
	_, err := db.conn.Exec(`
		INSERT INTO reviews (card_hash, rating, reviewed_at) VALUES (?, ?, ?)
	`, ev.CardHash, int(ev.Rating), ev.OccurredAt)
	if err != nil {
		return fmt.Errorf("failed to append review for hash %s: %w", ev.CardHash, err)
	}
	return nil
}

// ReviewsByCard returns a card's review history, oldest first.
func (db *DB) ReviewsByCard(hash string) ([]domain.ReviewEvent, error) {
	rows, err := db.conn.Query(`
		SELECT card_hash, rating, reviewed_at FROM reviews
		WHERE card_hash = ? ORDER BY reviewed_at ASC
	`, hash)
	if err != nil {
		return nil, fmt.Errorf("failed to get reviews for hash %s: %w", hash, err)
	}
	defer rows.Close()

	var events []domain.ReviewEvent
	for rows.Next() {
		var (
			ev     domain.ReviewEvent
			rating int
		)
		if err := rows.Scan(&ev.CardHash, &rating, &ev.OccurredAt); err != nil {
			return nil, fmt.Errorf("failed to scan review row: %w", err)
		}
		ev.Rating = srs.Rating(rating)
		events = append(events, ev)
	}
	return events, rows.Err()
}

// Source is a deck source, either a local directory or a git URL.
type Source struct {
	ID          int64
	Path        string
	Type        string // "local" or "git"
	LastScanned sql.NullTime
}

// InsertSource registers a new deck source and returns its ID.
func (db *DB) InsertSource(path, sourceType string) (int64, error) {
	res, err := db.conn.Exec(`
		INSERT INTO sources (path, type) VALUES (?, ?)
	`, path, sourceType)
	if err != nil {
		return 0, fmt.Errorf("failed to insert source %s: %w", path, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for source %s: %w", path, err)
	}
	return id, nil
}

// FindSourceByPath retrieves a source by its path; (nil, nil) if absent.
func (db *DB) FindSourceByPath(path string) (*Source, error) {
	var s Source
	row := db.conn.QueryRow(`
		SELECT id, path, type, last_scanned FROM sources WHERE path = ?
	`, path)

	err := row.Scan(&s.ID, &s.Path, &s.Type, &s.LastScanned)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find source by path %s: %w", path, err)
	}
	return &s, nil
}

// GetAllSources retrieves all registered deck sources.
func (db *DB) GetAllSources() ([]Source, error) {
	rows, err := db.conn.Query(`SELECT id, path, type, last_scanned FROM sources`)
	if err != nil {
		return nil, fmt.Errorf("failed to get all sources: %w", err)
	}
	defer rows.Close()

	var sources []Source
	for rows.Next() {
		var s Source
		if err := rows.Scan(&s.ID, &s.Path, &s.Type, &s.LastScanned); err != nil {
			return nil, fmt.Errorf("failed to scan source row: %w", err)
		}
		sources = append(sources, s)
	}
	return sources, rows.Err()
}

// DeleteSource removes a source and all of its cards.
func (db *DB) DeleteSource(id int64) error {
	cards, err := db.CardsBySourceID(id)
	if err != nil {
		return err
	}
	for _, c := range cards {
		if err := db.DeleteCardByHash(c.Hash); err != nil {
			return err
		}
	}
	if _, err := db.conn.Exec(`DELETE FROM sources WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete source %d: %w", id, err)
	}
	return nil
}

// UpdateSourceLastScanned stamps a source with the current time.
func (db *DB) UpdateSourceLastScanned(sourceID int64) error {
	_, err := db.conn.Exec(`
		UPDATE sources SET last_scanned = ? WHERE id = ?
	`, time.Now(), sourceID)
	if err != nil {
		return fmt.Errorf("failed to update last scanned for source ID %d: %w", sourceID, err)
	}
	return nil
}
