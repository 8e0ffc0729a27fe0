package vault

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/minkvault/mink/internal/cryptox"
)

// tagSeparator joins per-field auth tags into the single stored column.
const tagSeparator = ":"

// encryptFields encrypts values in their fixed order under one fresh IV and
// returns the hex ciphertexts, the joined tag list and the hex IV.
func encryptFields(values []string, key []byte) (ciphertexts []string, joinedTags, ivHex string, err error) {
	iv := cryptox.GenerateIV()
	tags := make([]string, 0, len(values))
	ciphertexts = make([]string, 0, len(values))

	for _, v := range values {
		ct, tag, err := cryptox.EncryptField(v, key, iv)
		if err != nil {
			return nil, "", "", err
		}
		ciphertexts = append(ciphertexts, ct)
		tags = append(tags, tag)
	}
	return ciphertexts, strings.Join(tags, tagSeparator), hex.EncodeToString(iv), nil
}

// decryptFields reverses encryptFields. The stored tag list must contain
// exactly one tag per ciphertext, in the same field order used at encrypt
// time; any mismatch is an authentication failure.
func decryptFields(ciphertexts []string, joinedTags, ivHex string, key []byte) ([]string, error) {
	iv, err := hex.DecodeString(ivHex)
	if err != nil {
		return nil, fmt.Errorf("invalid iv encoding: %w", err)
	}
	tags := strings.Split(joinedTags, tagSeparator)
	if len(tags) != len(ciphertexts) {
		return nil, cryptox.ErrAuthentication
	}

	out := make([]string, 0, len(ciphertexts))
	for i, ct := range ciphertexts {
		plain, err := cryptox.DecryptField(ct, tags[i], key, iv)
		if err != nil {
			return nil, err
		}
		out = append(out, plain)
	}
	return out, nil
}

// EncryptNote encrypts a note's sensitive fields under a fresh IV.
// Field order title, content, color, labels is fixed by the storage contract.
// Labels are canonicalized to a JSON array before encryption.
func EncryptNote(n *Note, key []byte) (*NoteRow, error) {
	labels := n.Labels
	if labels == nil {
		labels = []string{}
	}
	labelsJSON, err := json.Marshal(labels)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize labels: %w", err)
	}

	color := n.Color
	if color == "" {
		color = "default"
	}

	cts, tags, iv, err := encryptFields([]string{n.Title, n.Content, color, string(labelsJSON)}, key)
	if err != nil {
		return nil, err
	}

	return &NoteRow{
		ID:               n.ID,
		EncryptedTitle:   cts[0],
		EncryptedContent: cts[1],
		EncryptedColor:   cts[2],
		EncryptedLabels:  cts[3],
		IV:               iv,
		AuthTag:          tags,
		IsPinned:         n.IsPinned,
		IsArchived:       n.IsArchived,
		CreatedAt:        n.CreatedAt,
		UpdatedAt:        n.UpdatedAt,
	}, nil
}

// DecryptNote decrypts a stored note row. Malformed labels JSON after a
// successful decrypt is reported as an error, never silently defaulted.
func DecryptNote(row *NoteRow, key []byte) (*Note, error) {
	plains, err := decryptFields(
		[]string{row.EncryptedTitle, row.EncryptedContent, row.EncryptedColor, row.EncryptedLabels},
		row.AuthTag, row.IV, key)
	if err != nil {
		return nil, err
	}

	var labels []string
	if err := json.Unmarshal([]byte(plains[3]), &labels); err != nil {
		return nil, fmt.Errorf("failed to parse labels: %w", err)
	}

	return &Note{
		ID:         row.ID,
		Title:      plains[0],
		Content:    plains[1],
		Color:      plains[2],
		Labels:     labels,
		IsPinned:   row.IsPinned,
		IsArchived: row.IsArchived,
		CreatedAt:  row.CreatedAt,
		UpdatedAt:  row.UpdatedAt,
	}, nil
}

// EncryptBookmark encrypts a bookmark under a fresh IV.
// Field order title, url, description is fixed by the storage contract.
func EncryptBookmark(b *Bookmark, key []byte) (*BookmarkRow, error) {
	cts, tags, iv, err := encryptFields([]string{b.Title, b.URL, b.Description}, key)
	if err != nil {
		return nil, err
	}

	return &BookmarkRow{
		ID:                   b.ID,
		FolderID:             b.FolderID,
		EncryptedTitle:       cts[0],
		EncryptedURL:         cts[1],
		EncryptedDescription: cts[2],
		IV:                   iv,
		AuthTag:              tags,
		IsFavorite:           b.IsFavorite,
		SortOrder:            b.SortOrder,
		CreatedAt:            b.CreatedAt,
		UpdatedAt:            b.UpdatedAt,
	}, nil
}

// DecryptBookmark decrypts a stored bookmark row.
func DecryptBookmark(row *BookmarkRow, key []byte) (*Bookmark, error) {
	plains, err := decryptFields(
		[]string{row.EncryptedTitle, row.EncryptedURL, row.EncryptedDescription},
		row.AuthTag, row.IV, key)
	if err != nil {
		return nil, err
	}

	return &Bookmark{
		ID:          row.ID,
		FolderID:    row.FolderID,
		Title:       plains[0],
		URL:         plains[1],
		Description: plains[2],
		IsFavorite:  row.IsFavorite,
		SortOrder:   row.SortOrder,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}, nil
}

// EncryptFolder encrypts a folder name under a fresh IV. A folder has a
// single encrypted field, so the tag column holds one tag.
func EncryptFolder(f *Folder, key []byte) (*FolderRow, error) {
	cts, tags, iv, err := encryptFields([]string{f.Name}, key)
	if err != nil {
		return nil, err
	}

	return &FolderRow{
		ID:            f.ID,
		ParentID:      f.ParentID,
		EncryptedName: cts[0],
		IV:            iv,
		AuthTag:       tags,
		SortOrder:     f.SortOrder,
		CreatedAt:     f.CreatedAt,
		UpdatedAt:     f.UpdatedAt,
	}, nil
}

// DecryptFolder decrypts a stored folder row.
func DecryptFolder(row *FolderRow, key []byte) (*Folder, error) {
	plains, err := decryptFields([]string{row.EncryptedName}, row.AuthTag, row.IV, key)
	if err != nil {
		return nil, err
	}

	return &Folder{
		ID:        row.ID,
		ParentID:  row.ParentID,
		Name:      plains[0],
		SortOrder: row.SortOrder,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}, nil
}
