package bookmarks

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/minkvault/mink/internal/common"
	"github.com/minkvault/mink/internal/dbx"
	"github.com/minkvault/mink/internal/netscape"
	"github.com/minkvault/mink/internal/validation"
	"github.com/minkvault/mink/internal/vault"
)

// Import statuses assigned during preview.
const (
	StatusNew            = "new"
	StatusExactDuplicate = "exact_duplicate"
	StatusConflict       = "conflict"
)

// Conflict resolutions accepted by ConfirmImport. Anything else falls back to
// the default ResolutionKeepBoth.
const (
	ResolutionKeepExisting = "keep_existing"
	ResolutionKeepIncoming = "keep_incoming"
	ResolutionKeepBoth     = "keep_both"
)

// pathSeparator joins folder names into the display path used for matching
// incoming folders against the existing tree.
const pathSeparator = " / "

// incoming is one bookmark pulled out of the uploaded file, positioned by its
// folder path.
type incoming struct {
	Title      string
	URL        string
	FolderPath string
}

// Differences flags which fields diverge between an incoming bookmark and its
// primary existing match. Descriptions are deliberately not compared; browser
// exports never carry them.
type Differences struct {
	Title  bool `json:"title"`
	Folder bool `json:"folder"`
}

// ExistingMatch is a stored bookmark sharing an incoming URL, decrypted so
// the caller can show the side-by-side comparison.
type ExistingMatch struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	FolderPath string `json:"folder_path,omitempty"`
}

// PreviewItem is the per-bookmark verdict of a dry-run import. Existing holds
// every stored bookmark with the same normalized URL; the first entry is the
// primary comparison target.
type PreviewItem struct {
	Title       string           `json:"title"`
	URL         string           `json:"url"`
	FolderPath  string           `json:"folder_path,omitempty"`
	Status      string           `json:"status"`
	Existing    []*ExistingMatch `json:"existing,omitempty"`
	Differences *Differences     `json:"differences,omitempty"`
}

// Summary carries the preview counts.
type Summary struct {
	New             int `json:"new"`
	ExactDuplicates int `json:"exact_duplicates"`
	Conflicts       int `json:"conflicts"`
	NewFolders      int `json:"new_folders"`
	MergedFolders   int `json:"merged_folders"`
}

// Preview summarizes what an import would do, without writing anything. Items
// are split by verdict so the caller can render each group directly.
type Preview struct {
	Summary         Summary        `json:"summary"`
	NewItems        []*PreviewItem `json:"new_items"`
	ExactDuplicates []*PreviewItem `json:"exact_duplicates"`
	Conflicts       []*PreviewItem `json:"conflicts"`
}

// ImportResult reports what a confirmed import actually did.
type ImportResult struct {
	Imported       int `json:"imported"`
	Skipped        int `json:"skipped"`
	Updated        int `json:"updated"`
	FoldersCreated int `json:"folders_created"`
}

// normalizeURL produces the canonical form used for duplicate matching and
// for the keys of the resolutions map: lowercased scheme, host and path, a
// single trailing slash stripped, query preserved. Strings that do not parse
// as absolute URLs fall back to a trimmed, lowercased comparison.
func normalizeURL(raw string) string {
	trimmed := strings.TrimSpace(raw)
	u, err := url.Parse(trimmed)
	if err != nil || u.Host == "" {
		return strings.ToLower(trimmed)
	}

	path := strings.ToLower(u.Path)
	path = strings.TrimSuffix(path, "/")

	normalized := strings.ToLower(u.Scheme) + "://" + strings.ToLower(u.Host) + path
	if u.RawQuery != "" {
		normalized += "?" + u.RawQuery
	}
	return normalized
}

// sameTitle compares titles the way duplicate detection requires: trimmed and
// case-insensitive.
func sameTitle(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// flatten walks the parsed tree depth-first and returns bookmarks annotated
// with their folder path, plus every folder path seen (in walk order, so a
// parent always precedes its children).
func flatten(nodes []*netscape.Node) (items []incoming, folderPaths []string) {
	seen := map[string]bool{}

	var walk func(nodes []*netscape.Node, path []string)
	walk = func(nodes []*netscape.Node, path []string) {
		for _, n := range nodes {
			switch n.Type {
			case netscape.NodeFolder:
				sub := append(append([]string{}, path...), n.Name)
				p := strings.Join(sub, pathSeparator)
				if !seen[strings.ToLower(p)] {
					seen[strings.ToLower(p)] = true
					folderPaths = append(folderPaths, p)
				}
				walk(n.Children, sub)
			case netscape.NodeBookmark:
				items = append(items, incoming{
					Title:      n.Title,
					URL:        n.URL,
					FolderPath: strings.Join(path, pathSeparator),
				})
			}
		}
	}
	walk(nodes, nil)
	return items, folderPaths
}

// dedupe drops repeated URLs inside the uploaded file itself, keeping the
// first occurrence.
func dedupe(items []incoming) []incoming {
	seen := map[string]bool{}
	out := make([]incoming, 0, len(items))
	for _, it := range items {
		key := normalizeURL(it.URL)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, it)
	}
	return out
}

// existingState is the decrypted snapshot an import is reconciled against.
type existingState struct {
	// byURL maps normalized URL to existing bookmarks, in listing order.
	byURL map[string][]*vault.Bookmark
	// folderPaths maps lowercased folder path to folder ID.
	folderPaths map[string]string
	// pathsByID is the reverse mapping for locating a bookmark's folder path.
	pathsByID map[string]string
}

func (st *existingState) matchOf(b *vault.Bookmark) *ExistingMatch {
	return &ExistingMatch{ID: b.ID, Title: b.Title, FolderPath: st.pathsByID[b.FolderID]}
}

// loadExisting decrypts the user's bookmarks and folder tree. Records that
// fail decryption are left out: they cannot be matched by URL anyway.
// Folder paths are assembled by walking parent links with a visited set, so a
// corrupt cycle yields truncated paths instead of hanging.
func (s *Service) loadExisting(ctx context.Context, userID string, key []byte) (*existingState, error) {
	folderRows, err := s.folders.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	bookmarkRows, err := s.bookmarks.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	names := make(map[string]string, len(folderRows))
	parents := make(map[string]string, len(folderRows))
	for _, row := range folderRows {
		f := vault.SafeDecryptFolder(row, key)
		if f.DecryptionError {
			continue
		}
		names[f.ID] = f.Name
		parents[f.ID] = f.ParentID
	}

	state := &existingState{
		byURL:       map[string][]*vault.Bookmark{},
		folderPaths: map[string]string{},
		pathsByID:   map[string]string{},
	}

	for id := range names {
		var segments []string
		visited := map[string]bool{}
		ok := true
		for cur := id; cur != ""; cur = parents[cur] {
			if visited[cur] {
				ok = false
				break
			}
			visited[cur] = true
			name, known := names[cur]
			if !known {
				ok = false
				break
			}
			segments = append([]string{name}, segments...)
		}
		if !ok {
			continue
		}
		path := strings.Join(segments, pathSeparator)
		state.pathsByID[id] = path
		state.folderPaths[strings.ToLower(path)] = id
	}

	for _, row := range bookmarkRows {
		b := vault.SafeDecryptBookmark(row, key)
		if b.DecryptionError {
			continue
		}
		key := normalizeURL(b.URL)
		state.byURL[key] = append(state.byURL[key], b)
	}

	return state, nil
}

// classify produces the preview verdict for one incoming bookmark. Any
// existing match with the same title (trimmed, case-insensitive) and folder
// path makes it an exact duplicate; otherwise every match is attached and the
// first is the primary comparison target for the differences flags.
func classify(it incoming, state *existingState) *PreviewItem {
	item := &PreviewItem{Title: it.Title, URL: it.URL, FolderPath: it.FolderPath}

	matches := state.byURL[normalizeURL(it.URL)]
	if len(matches) == 0 {
		item.Status = StatusNew
		return item
	}

	for _, match := range matches {
		if sameTitle(it.Title, match.Title) &&
			strings.EqualFold(it.FolderPath, state.pathsByID[match.FolderID]) {
			item.Status = StatusExactDuplicate
			item.Existing = []*ExistingMatch{state.matchOf(match)}
			return item
		}
	}

	item.Status = StatusConflict
	for _, match := range matches {
		item.Existing = append(item.Existing, state.matchOf(match))
	}
	primary := matches[0]
	item.Differences = &Differences{
		Title:  !sameTitle(it.Title, primary.Title),
		Folder: !strings.EqualFold(it.FolderPath, state.pathsByID[primary.FolderID]),
	}
	return item
}

// PreviewImport parses the uploaded Netscape bookmark file and reports, per
// bookmark, whether it is new, an exact duplicate of an existing record, or a
// conflict needing a resolution. Nothing is written.
func (s *Service) PreviewImport(ctx context.Context, userID string, key []byte, source string) (*Preview, error) {
	if err := validation.ImportSource(source); err != nil {
		return nil, err
	}
	nodes, err := netscape.Parse(source)
	if err != nil {
		return nil, err
	}
	items, folderPaths := flatten(nodes)
	items = dedupe(items)

	state, err := s.loadExisting(ctx, userID, key)
	if err != nil {
		return nil, err
	}

	preview := &Preview{}
	for _, it := range items {
		item := classify(it, state)
		switch item.Status {
		case StatusNew:
			preview.NewItems = append(preview.NewItems, item)
			preview.Summary.New++
		case StatusExactDuplicate:
			preview.ExactDuplicates = append(preview.ExactDuplicates, item)
			preview.Summary.ExactDuplicates++
		case StatusConflict:
			preview.Conflicts = append(preview.Conflicts, item)
			preview.Summary.Conflicts++
		}
	}

	for _, p := range folderPaths {
		if _, ok := state.folderPaths[strings.ToLower(p)]; ok {
			preview.Summary.MergedFolders++
		} else {
			preview.Summary.NewFolders++
		}
	}

	return preview, nil
}

// ConfirmImport applies the import in a single transaction. Every folder node
// in the file is created or reused, even when it holds no bookmarks.
// Resolutions are keyed by normalized URL; conflicts without a resolution (or
// with an unrecognized one) default to keeping both records. Exact duplicates
// are always skipped.
func (s *Service) ConfirmImport(ctx context.Context, userID string, key []byte, source string, resolutions map[string]string) (*ImportResult, error) {
	if err := validation.ImportSource(source); err != nil {
		return nil, err
	}
	nodes, err := netscape.Parse(source)
	if err != nil {
		return nil, err
	}
	items, folderPaths := flatten(nodes)
	items = dedupe(items)

	state, err := s.loadExisting(ctx, userID, key)
	if err != nil {
		return nil, err
	}

	result := &ImportResult{}
	now := time.Now().Unix()

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		folders := s.folders.WithTx(tx)
		bookmarks := s.bookmarks.WithTx(tx)

		// ensurePath creates missing folders along the path, registering each
		// new ID so later items in the same run reuse it.
		ensurePath := func(path string) (string, error) {
			if path == "" {
				return "", nil
			}
			segments := strings.Split(path, pathSeparator)
			parentID := ""
			prefix := ""
			for _, seg := range segments {
				if prefix == "" {
					prefix = seg
				} else {
					prefix += pathSeparator + seg
				}
				if id, ok := state.folderPaths[strings.ToLower(prefix)]; ok {
					parentID = id
					continue
				}

				folder := &vault.Folder{
					ID:        uuid.NewString(),
					ParentID:  parentID,
					Name:      seg,
					CreatedAt: now,
					UpdatedAt: now,
				}
				row, err := vault.EncryptFolder(folder, key)
				if err != nil {
					return "", fmt.Errorf("failed to encrypt folder: %w", err)
				}
				row.UserID = userID
				if err := folders.Create(ctx, row); err != nil {
					return "", err
				}

				state.folderPaths[strings.ToLower(prefix)] = folder.ID
				state.pathsByID[folder.ID] = prefix
				result.FoldersCreated++
				parentID = folder.ID
			}
			return parentID, nil
		}

		// Every folder in the file exists afterwards, bookmarks or not. The
		// walk order guarantees parents come before children.
		for _, p := range folderPaths {
			if _, err := ensurePath(p); err != nil {
				return err
			}
		}

		insert := func(it incoming) error {
			folderID, err := ensurePath(it.FolderPath)
			if err != nil {
				return err
			}
			b := &vault.Bookmark{
				ID:        uuid.NewString(),
				FolderID:  folderID,
				Title:     it.Title,
				URL:       it.URL,
				CreatedAt: now,
				UpdatedAt: now,
			}
			row, err := vault.EncryptBookmark(b, key)
			if err != nil {
				return fmt.Errorf("failed to encrypt bookmark: %w", err)
			}
			row.UserID = userID
			if err := bookmarks.Create(ctx, row); err != nil {
				return err
			}
			result.Imported++
			return nil
		}

		for _, it := range items {
			if err := validation.Bookmark(it.Title, it.URL, ""); err != nil {
				result.Skipped++
				continue
			}

			item := classify(it, state)
			switch item.Status {
			case StatusNew:
				if err := insert(it); err != nil {
					return err
				}

			case StatusExactDuplicate:
				result.Skipped++

			case StatusConflict:
				switch resolutions[normalizeURL(it.URL)] {
				case ResolutionKeepExisting:
					result.Skipped++
				case ResolutionKeepIncoming:
					match := state.byURL[normalizeURL(it.URL)][0]
					folderID, err := ensurePath(it.FolderPath)
					if err != nil {
						return err
					}
					updated := &vault.Bookmark{
						ID:          match.ID,
						FolderID:    folderID,
						Title:       it.Title,
						URL:         it.URL,
						Description: match.Description,
						IsFavorite:  match.IsFavorite,
						SortOrder:   match.SortOrder,
						CreatedAt:   match.CreatedAt,
						UpdatedAt:   now,
					}
					row, err := vault.EncryptBookmark(updated, key)
					if err != nil {
						return fmt.Errorf("failed to encrypt bookmark: %w", err)
					}
					row.UserID = userID
					if err := bookmarks.Update(ctx, row); err != nil {
						return err
					}
					result.Updated++
				default:
					if err := insert(it); err != nil {
						return err
					}
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, &common.TransactionError{Op: "bookmark import", Err: err}
	}

	s.logger.Info(ctx, "bookmark import applied",
		"imported", result.Imported, "skipped", result.Skipped,
		"updated", result.Updated, "folders_created", result.FoldersCreated)
	return result, nil
}
