// Package vault defines the plaintext domain records (note, bookmark,
// folder), their encrypted row counterparts, and the record cipher that maps
// between the two. Field order within each record is part of the storage
// contract: auth tags are colon-joined in that order, and decryption
// re-associates them positionally.
package vault

// Note is a decrypted note. DecryptionError marks a record whose ciphertext
// failed authentication on a read path; only identifiers are populated then.
type Note struct {
	ID              string   `json:"id"`
	Title           string   `json:"title"`
	Content         string   `json:"content"`
	Color           string   `json:"color"`
	Labels          []string `json:"labels"`
	IsPinned        bool     `json:"is_pinned"`
	IsArchived      bool     `json:"is_archived"`
	CreatedAt       int64    `json:"created_at"`
	UpdatedAt       int64    `json:"updated_at"`
	DecryptionError bool     `json:"decryption_error,omitempty"`
}

// NoteRow is the persisted encrypted form of a Note. All ciphertext columns
// are hex; AuthTag holds four colon-joined tags (title:content:color:labels).
type NoteRow struct {
	ID               string
	UserID           string
	EncryptedTitle   string
	EncryptedContent string
	EncryptedColor   string
	EncryptedLabels  string
	IV               string
	AuthTag          string
	IsPinned         bool
	IsArchived       bool
	CreatedAt        int64
	UpdatedAt        int64
}

// Bookmark is a decrypted bookmark. FolderID is empty for root bookmarks.
type Bookmark struct {
	ID              string `json:"id"`
	FolderID        string `json:"folder_id,omitempty"`
	Title           string `json:"title"`
	URL             string `json:"url"`
	Description     string `json:"description"`
	IsFavorite      bool   `json:"is_favorite"`
	SortOrder       int    `json:"sort_order"`
	CreatedAt       int64  `json:"created_at"`
	UpdatedAt       int64  `json:"updated_at"`
	DecryptionError bool   `json:"decryption_error,omitempty"`
}

// BookmarkRow is the persisted encrypted form of a Bookmark.
// AuthTag holds three colon-joined tags (title:url:description).
type BookmarkRow struct {
	ID                   string
	UserID               string
	FolderID             string
	EncryptedTitle       string
	EncryptedURL         string
	EncryptedDescription string
	IV                   string
	AuthTag              string
	IsFavorite           bool
	SortOrder            int
	CreatedAt            int64
	UpdatedAt            int64
}

// Folder is a decrypted bookmark folder. ParentID is empty at the root.
// The folder tree must stay acyclic; services enforce that on update.
type Folder struct {
	ID              string `json:"id"`
	ParentID        string `json:"parent_id,omitempty"`
	Name            string `json:"name"`
	SortOrder       int    `json:"sort_order"`
	CreatedAt       int64  `json:"created_at"`
	UpdatedAt       int64  `json:"updated_at"`
	DecryptionError bool   `json:"decryption_error,omitempty"`
}

// FolderRow is the persisted encrypted form of a Folder. A folder has a
// single encrypted field, so AuthTag holds one tag, not a joined list.
type FolderRow struct {
	ID            string
	UserID        string
	ParentID      string
	EncryptedName string
	IV            string
	AuthTag       string
	SortOrder     int
	CreatedAt     int64
	UpdatedAt     int64
}
