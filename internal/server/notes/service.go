package notes

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/minkvault/mink/internal/logging"
	"github.com/minkvault/mink/internal/validation"
	"github.com/minkvault/mink/internal/vault"
)

// Service implements note operations. Every method takes the caller's
// ephemeral encryption key; the service never stores or logs it.
type Service struct {
	repo   Repository
	logger logging.Logger
}

func NewService(repo Repository, logger logging.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// List returns the user's notes, pinned first then most recently updated.
// Records whose ciphertext no longer authenticates are returned as
// placeholder entries instead of failing the whole listing.
func (s *Service) List(ctx context.Context, userID string, key []byte, archived bool) ([]*vault.Note, error) {
	rows, err := s.repo.ListByUser(ctx, userID, archived)
	if err != nil {
		return nil, err
	}

	notes := make([]*vault.Note, 0, len(rows))
	for _, row := range rows {
		note := vault.SafeDecryptNote(row, key)
		if note.DecryptionError {
			s.logger.Warn(ctx, "note failed decryption", "note_id", row.ID)
		}
		notes = append(notes, note)
	}
	return notes, nil
}

func (s *Service) Get(ctx context.Context, userID, id string, key []byte) (*vault.Note, error) {
	row, err := s.repo.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	return vault.DecryptNote(row, key)
}

// Create encrypts and stores a new note under a fresh IV.
func (s *Service) Create(ctx context.Context, userID string, key []byte, note *vault.Note) (*vault.Note, error) {
	if err := validation.Note(note.Title, note.Content, note.Color, note.Labels); err != nil {
		return nil, err
	}

	now := time.Now().Unix()
	note.ID = uuid.NewString()
	note.CreatedAt = now
	note.UpdatedAt = now

	row, err := vault.EncryptNote(note, key)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt note: %w", err)
	}
	row.UserID = userID

	if err := s.repo.Create(ctx, row); err != nil {
		return nil, err
	}
	return vault.DecryptNote(row, key)
}

// Update re-encrypts the full record under a fresh IV; partial updates are
// resolved against the stored plaintext first.
func (s *Service) Update(ctx context.Context, userID string, key []byte, note *vault.Note) (*vault.Note, error) {
	if err := validation.Note(note.Title, note.Content, note.Color, note.Labels); err != nil {
		return nil, err
	}

	existing, err := s.repo.GetByID(ctx, userID, note.ID)
	if err != nil {
		return nil, err
	}

	note.CreatedAt = existing.CreatedAt
	note.UpdatedAt = time.Now().Unix()

	row, err := vault.EncryptNote(note, key)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt note: %w", err)
	}
	row.UserID = userID

	if err := s.repo.Update(ctx, row); err != nil {
		return nil, err
	}
	return vault.DecryptNote(row, key)
}

func (s *Service) Delete(ctx context.Context, userID, id string) error {
	return s.repo.Delete(ctx, userID, id)
}
