package note

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/sirupsen/logrus"

	"webnotes/internal/cache"
	"webnotes/internal/observability"
	"webnotes/internal/utils"
)

var (
	// ErrNotOwner marks a mutation attempt on someone else's note.
	ErrNotOwner = errors.New("not the owner of this note")
	// ErrValidation marks malformed input that survived request binding.
	ErrValidation = errors.New("invalid note input")
)

type NoteServiceInterface interface {
	List(ctx context.Context, userID int) ([]*Note, error)
	Create(ctx context.Context, userID int, title string, texts []string) ([]int, error)
	Update(ctx context.Context, noteID, userID int, patch Patch) error
	Delete(ctx context.Context, noteID, userID int) error
	Search(ctx context.Context, userID int, query string) ([]*Note, error)
}

type NoteService struct {
	repo  NoteRepositoryInterface
	db    *sql.DB
	cache *cache.Cache
}

func NewNoteService(repo NoteRepositoryInterface, db *sql.DB, noteCache *cache.Cache) NoteServiceInterface {
	return &NoteService{
		repo:  repo,
		db:    db,
		cache: noteCache,
	}
}

// List returns the user's notes most-recent-first, read through the cache.
func (s *NoteService) List(ctx context.Context, userID int) ([]*Note, error) {
	cacheKey := cache.UserNotesKey(userID)
	cachedData, err := s.cache.Get(ctx, cacheKey)
	if err != nil {
		logrus.WithError(err).Warn("Note list cache read failed, falling back to store")
	}
	if cachedData != nil {
		var notes []*Note
		if json.Unmarshal(cachedData, &notes) == nil {
			observability.RecordCacheHit("notes")
			return notes, nil
		}
	}
	observability.RecordCacheMiss("notes")

	notes, err := s.repo.ListByUser(s.db, userID)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, cacheKey, notes, cache.NoteListCacheTTL); err != nil {
		logrus.WithError(err).Warn("Failed to cache note list")
	}

	return notes, nil
}

// Create inserts one note per supplied body, all under the same title, in
// a single transaction.
func (s *NoteService) Create(ctx context.Context, userID int, title string, texts []string) ([]int, error) {
	if title == "" || len(texts) == 0 {
		return nil, ErrValidation
	}

	var ids []int
	if err := utils.WithTransaction(s.db, func(tx *sql.Tx) error {
		for _, text := range texts {
			id, err := s.repo.Create(tx, &Note{
				UserID: userID,
				Title:  title,
				Text:   text,
			})
			if err != nil {
				return err
			}
			ids = append(ids, id)
		}
		return nil
	}); err != nil {
		return nil, err
	}

	for range ids {
		observability.RecordNoteCreated()
	}
	s.invalidate(ctx, userID)

	return ids, nil
}

// Update applies a partial update after the owner check. A foreign note
// is reported as ErrNotOwner, distinct from ErrNoteNotFound.
func (s *NoteService) Update(ctx context.Context, noteID, userID int, patch Patch) error {
	existing, err := s.repo.GetByID(s.db, noteID)
	if err != nil {
		return err
	}
	if existing.UserID != userID {
		return ErrNotOwner
	}

	if err := utils.WithTransaction(s.db, func(tx *sql.Tx) error {
		return s.repo.Update(tx, noteID, patch)
	}); err != nil {
		return err
	}

	s.invalidate(ctx, userID)
	return nil
}

// Delete removes an owned note. A foreign note is reported as
// ErrNoteNotFound, hiding its existence from non-owners.
func (s *NoteService) Delete(ctx context.Context, noteID, userID int) error {
	existing, err := s.repo.GetByID(s.db, noteID)
	if err != nil {
		return err
	}
	if existing.UserID != userID {
		return ErrNoteNotFound
	}

	if err := utils.WithTransaction(s.db, func(tx *sql.Tx) error {
		return s.repo.Delete(tx, noteID)
	}); err != nil {
		return err
	}

	observability.RecordNoteDeleted()
	s.invalidate(ctx, userID)
	return nil
}

// Search bypasses the cache: query results are too varied to be worth
// caching under a single key.
func (s *NoteService) Search(ctx context.Context, userID int, query string) ([]*Note, error) {
	return s.repo.SearchByTitle(s.db, userID, query)
}

func (s *NoteService) invalidate(ctx context.Context, userID int) {
	if err := s.cache.Delete(ctx, cache.UserNotesKey(userID)); err != nil {
		logrus.WithError(err).Warn("Failed to invalidate note list cache")
	}
}
