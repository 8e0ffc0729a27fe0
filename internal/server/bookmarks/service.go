package bookmarks

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/minkvault/mink/internal/common"
	"github.com/minkvault/mink/internal/dbx"
	"github.com/minkvault/mink/internal/logging"
	"github.com/minkvault/mink/internal/netscape"
	"github.com/minkvault/mink/internal/validation"
	"github.com/minkvault/mink/internal/vault"
)

// Service implements bookmark and folder operations. Like the notes service
// it receives the caller's ephemeral key per call and never retains it.
// Multi-row operations (folder delete, import confirm) run inside one
// transaction on db.
type Service struct {
	db        *sql.DB
	folders   FolderRepository
	bookmarks BookmarkRepository
	logger    logging.Logger
}

func NewService(db *sql.DB, folders FolderRepository, bookmarks BookmarkRepository, logger logging.Logger) *Service {
	return &Service{db: db, folders: folders, bookmarks: bookmarks, logger: logger}
}

// ListFolders returns the user's folder tree as a flat list ordered by
// sort_order. Undecryptable folders come back as placeholders.
func (s *Service) ListFolders(ctx context.Context, userID string, key []byte) ([]*vault.Folder, error) {
	rows, err := s.folders.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make([]*vault.Folder, 0, len(rows))
	for _, row := range rows {
		f := vault.SafeDecryptFolder(row, key)
		if f.DecryptionError {
			s.logger.Warn(ctx, "folder failed decryption", "folder_id", row.ID)
		}
		out = append(out, f)
	}
	return out, nil
}

// CreateFolder encrypts and stores a folder. A non-empty parent must exist
// and belong to the same user.
func (s *Service) CreateFolder(ctx context.Context, userID string, key []byte, folder *vault.Folder) (*vault.Folder, error) {
	if err := validation.FolderName(folder.Name); err != nil {
		return nil, err
	}
	if folder.ParentID != "" {
		if _, err := s.folders.GetByID(ctx, userID, folder.ParentID); err != nil {
			return nil, fmt.Errorf("parent folder: %w", err)
		}
	}

	now := time.Now().Unix()
	folder.ID = uuid.NewString()
	folder.CreatedAt = now
	folder.UpdatedAt = now

	row, err := vault.EncryptFolder(folder, key)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt folder: %w", err)
	}
	row.UserID = userID

	if err := s.folders.Create(ctx, row); err != nil {
		return nil, err
	}
	return vault.DecryptFolder(row, key)
}

// UpdateFolder re-encrypts a folder under a fresh IV. Moving a folder under
// itself or any of its descendants is rejected, keeping the tree acyclic.
func (s *Service) UpdateFolder(ctx context.Context, userID string, key []byte, folder *vault.Folder) (*vault.Folder, error) {
	if err := validation.FolderName(folder.Name); err != nil {
		return nil, err
	}

	existing, err := s.folders.GetByID(ctx, userID, folder.ID)
	if err != nil {
		return nil, err
	}

	if folder.ParentID != "" {
		if folder.ParentID == folder.ID {
			return nil, fmt.Errorf("%w: folder cannot be its own parent", common.ErrValidation)
		}
		if err := s.checkNoCycle(ctx, userID, folder.ID, folder.ParentID); err != nil {
			return nil, err
		}
	}

	folder.CreatedAt = existing.CreatedAt
	folder.UpdatedAt = time.Now().Unix()

	row, err := vault.EncryptFolder(folder, key)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt folder: %w", err)
	}
	row.UserID = userID

	if err := s.folders.Update(ctx, row); err != nil {
		return nil, err
	}
	return vault.DecryptFolder(row, key)
}

// checkNoCycle walks from the proposed parent up to the root and fails if it
// passes through folderID. The walk carries a visited set so a pre-existing
// corrupt cycle terminates with an error instead of spinning.
func (s *Service) checkNoCycle(ctx context.Context, userID, folderID, parentID string) error {
	rows, err := s.folders.ListByUser(ctx, userID)
	if err != nil {
		return err
	}
	parents := make(map[string]string, len(rows))
	known := make(map[string]bool, len(rows))
	for _, r := range rows {
		parents[r.ID] = r.ParentID
		known[r.ID] = true
	}
	if !known[parentID] {
		return fmt.Errorf("parent folder: %w", common.ErrNotFound)
	}

	visited := map[string]bool{}
	for cur := parentID; cur != ""; cur = parents[cur] {
		if cur == folderID {
			return fmt.Errorf("%w: folder cannot be moved under its own descendant", common.ErrValidation)
		}
		if visited[cur] {
			return fmt.Errorf("%w: folder tree contains a cycle", common.ErrValidation)
		}
		visited[cur] = true
	}
	return nil
}

// DeleteFolder removes the folder, its whole subtree, and every bookmark
// stored anywhere in that subtree, atomically.
func (s *Service) DeleteFolder(ctx context.Context, userID, id string) error {
	if _, err := s.folders.GetByID(ctx, userID, id); err != nil {
		return err
	}

	rows, err := s.folders.ListByUser(ctx, userID)
	if err != nil {
		return err
	}
	children := make(map[string][]string, len(rows))
	for _, r := range rows {
		if r.ParentID != "" {
			children[r.ParentID] = append(children[r.ParentID], r.ID)
		}
	}

	// Breadth-first subtree collection with a visited set, so corrupt data
	// cannot loop the walk.
	subtree := []string{id}
	visited := map[string]bool{id: true}
	for i := 0; i < len(subtree); i++ {
		for _, child := range children[subtree[i]] {
			if !visited[child] {
				visited[child] = true
				subtree = append(subtree, child)
			}
		}
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.bookmarks.WithTx(tx).DeleteByFolders(ctx, userID, subtree); err != nil {
			return err
		}
		return s.folders.WithTx(tx).DeleteMany(ctx, userID, subtree)
	})
	if err != nil {
		return &common.TransactionError{Op: "folder delete", Err: err}
	}
	return nil
}

// ListBookmarks returns all of the user's bookmarks. Undecryptable records
// come back as placeholders with their folder link intact.
func (s *Service) ListBookmarks(ctx context.Context, userID string, key []byte) ([]*vault.Bookmark, error) {
	rows, err := s.bookmarks.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make([]*vault.Bookmark, 0, len(rows))
	for _, row := range rows {
		b := vault.SafeDecryptBookmark(row, key)
		if b.DecryptionError {
			s.logger.Warn(ctx, "bookmark failed decryption", "bookmark_id", row.ID)
		}
		out = append(out, b)
	}
	return out, nil
}

func (s *Service) GetBookmark(ctx context.Context, userID, id string, key []byte) (*vault.Bookmark, error) {
	row, err := s.bookmarks.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	return vault.DecryptBookmark(row, key)
}

// CreateBookmark encrypts and stores a bookmark under a fresh IV.
func (s *Service) CreateBookmark(ctx context.Context, userID string, key []byte, b *vault.Bookmark) (*vault.Bookmark, error) {
	if err := validation.Bookmark(b.Title, b.URL, b.Description); err != nil {
		return nil, err
	}
	if b.FolderID != "" {
		if _, err := s.folders.GetByID(ctx, userID, b.FolderID); err != nil {
			return nil, fmt.Errorf("folder: %w", err)
		}
	}
	if b.Title == "" {
		b.Title = b.URL
	}

	now := time.Now().Unix()
	b.ID = uuid.NewString()
	b.CreatedAt = now
	b.UpdatedAt = now

	row, err := vault.EncryptBookmark(b, key)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt bookmark: %w", err)
	}
	row.UserID = userID

	if err := s.bookmarks.Create(ctx, row); err != nil {
		return nil, err
	}
	return vault.DecryptBookmark(row, key)
}

// UpdateBookmark re-encrypts the full record under a fresh IV. Moves between
// folders and favorite toggles go through here as well.
func (s *Service) UpdateBookmark(ctx context.Context, userID string, key []byte, b *vault.Bookmark) (*vault.Bookmark, error) {
	if err := validation.Bookmark(b.Title, b.URL, b.Description); err != nil {
		return nil, err
	}

	existing, err := s.bookmarks.GetByID(ctx, userID, b.ID)
	if err != nil {
		return nil, err
	}
	if b.FolderID != "" {
		if _, err := s.folders.GetByID(ctx, userID, b.FolderID); err != nil {
			return nil, fmt.Errorf("folder: %w", err)
		}
	}

	b.CreatedAt = existing.CreatedAt
	b.UpdatedAt = time.Now().Unix()

	row, err := vault.EncryptBookmark(b, key)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt bookmark: %w", err)
	}
	row.UserID = userID

	if err := s.bookmarks.Update(ctx, row); err != nil {
		return nil, err
	}
	return vault.DecryptBookmark(row, key)
}

func (s *Service) DeleteBookmark(ctx context.Context, userID, id string) error {
	return s.bookmarks.Delete(ctx, userID, id)
}

// Export renders the user's folders and bookmarks as a Netscape bookmark
// file. Records that no longer decrypt are left out of the export.
func (s *Service) Export(ctx context.Context, userID string, key []byte) (string, error) {
	folderRows, err := s.folders.ListByUser(ctx, userID)
	if err != nil {
		return "", err
	}
	bookmarkRows, err := s.bookmarks.ListByUser(ctx, userID)
	if err != nil {
		return "", err
	}

	var folders []*vault.Folder
	for _, row := range folderRows {
		f := vault.SafeDecryptFolder(row, key)
		if f.DecryptionError {
			continue
		}
		folders = append(folders, f)
	}
	var marks []*vault.Bookmark
	for _, row := range bookmarkRows {
		b := vault.SafeDecryptBookmark(row, key)
		if b.DecryptionError {
			continue
		}
		marks = append(marks, b)
	}

	return netscape.Export(folders, marks), nil
}
