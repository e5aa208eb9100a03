package note

import (
	"database/sql"
	"errors"

	"github.com/sirupsen/logrus"
)

var ErrNoteNotFound = errors.New("note not found")

type NoteRepository struct{}

type NoteRepositoryInterface interface {
	Create(tx *sql.Tx, note *Note) (int, error)
	GetByID(db *sql.DB, id int) (*Note, error)
	ListByUser(db *sql.DB, userID int) ([]*Note, error)
	Update(tx *sql.Tx, id int, patch Patch) error
	Delete(tx *sql.Tx, id int) error
	SearchByTitle(db *sql.DB, userID int, query string) ([]*Note, error)
}

func NewNoteRepository() NoteRepositoryInterface {
	return &NoteRepository{}
}

func (r *NoteRepository) Create(tx *sql.Tx, note *Note) (int, error) {
	query := `
		INSERT INTO notes (
			user_id, title, text, created_at, updated_at
		)
		VALUES ($1, $2, $3, NOW(), NOW())
		RETURNING id
	`

	var id int
	err := tx.QueryRow(
		query,
		note.UserID,
		note.Title,
		note.Text,
	).Scan(&id)

	if err != nil {
		return 0, err
	}

	return id, nil
}

func (r *NoteRepository) GetByID(db *sql.DB, id int) (*Note, error) {
	query := `
		SELECT id, user_id, title, text, created_at, updated_at
		FROM notes
		WHERE id = $1
	`

	var n Note
	err := db.QueryRow(query, id).Scan(
		&n.ID,
		&n.UserID,
		&n.Title,
		&n.Text,
		&n.CreatedAt,
		&n.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoteNotFound
		}
		return nil, err
	}

	return &n, nil
}

// ListByUser returns the user's notes most-recent-first.
func (r *NoteRepository) ListByUser(db *sql.DB, userID int) ([]*Note, error) {
	query := `
		SELECT id, user_id, title, text, created_at, updated_at
		FROM notes
		WHERE user_id = $1
		ORDER BY id DESC
	`

	return scanNotes(db.Query(query, userID))
}

// Update applies only the supplied patch fields and refreshes updated_at.
func (r *NoteRepository) Update(tx *sql.Tx, id int, patch Patch) error {
	query := `
		UPDATE notes
		SET title = COALESCE($1, title),
		    text = COALESCE($2, text),
		    updated_at = NOW()
		WHERE id = $3
	`

	result, err := tx.Exec(query, patch.Title, patch.Text, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrNoteNotFound
	}

	return nil
}

func (r *NoteRepository) Delete(tx *sql.Tx, id int) error {
	result, err := tx.Exec(`DELETE FROM notes WHERE id = $1`, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrNoteNotFound
	}

	return nil
}

// SearchByTitle returns the user's notes whose title contains query as a
// substring. Case sensitivity follows the store's collation.
func (r *NoteRepository) SearchByTitle(db *sql.DB, userID int, query string) ([]*Note, error) {
	stmt := `
		SELECT id, user_id, title, text, created_at, updated_at
		FROM notes
		WHERE user_id = $1 AND title LIKE '%' || $2 || '%'
		ORDER BY id DESC
	`

	return scanNotes(db.Query(stmt, userID, query))
}

func scanNotes(rows *sql.Rows, err error) ([]*Note, error) {
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notes []*Note
	for rows.Next() {
		var n Note
		err := rows.Scan(
			&n.ID,
			&n.UserID,
			&n.Title,
			&n.Text,
			&n.CreatedAt,
			&n.UpdatedAt,
		)
		if err != nil {
			logrus.Error("Error scanning note row: ", err)
			continue
		}
		notes = append(notes, &n)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return notes, nil
}
