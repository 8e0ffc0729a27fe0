// Package validation holds the input rules enforced before any cryptographic
// or storage work happens. Rules return errors wrapping common.ErrValidation
// so transports can map them uniformly.
package validation

import (
	"fmt"
	"net/mail"
	"regexp"

	"github.com/minkvault/mink/internal/common"
)

const (
	UsernameMinLen = 3
	UsernameMaxLen = 32
	PasswordMinLen = 12
	PasswordMaxLen = 128
	EmailMaxLen    = 255

	NoteTitleMaxLen   = 500
	NoteContentMaxLen = 100000
	NoteColorMaxLen   = 50
	NoteLabelMaxLen   = 50
	NoteMaxLabels     = 20

	BookmarkTitleMaxLen       = 500
	BookmarkURLMaxLen         = 2000
	BookmarkDescriptionMaxLen = 5000
	FolderNameMaxLen          = 200

	// ImportMaxSize bounds the accepted bookmark file size (10 MB).
	ImportMaxSize = 10_000_000
)

var usernameRe = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", common.ErrValidation, fmt.Sprintf(format, args...))
}

// Username requires 3-32 characters from [a-zA-Z0-9_-].
func Username(username string) error {
	if len(username) < UsernameMinLen || len(username) > UsernameMaxLen {
		return invalid("username must be %d-%d characters", UsernameMinLen, UsernameMaxLen)
	}
	if !usernameRe.MatchString(username) {
		return invalid("username may only contain letters, digits, '_' and '-'")
	}
	return nil
}

// Email requires an RFC 5322 addr-spec of bounded length.
func Email(email string) error {
	if email == "" || len(email) > EmailMaxLen {
		return invalid("email must be 1-%d characters", EmailMaxLen)
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return invalid("invalid email address")
	}
	return nil
}

// Password enforces the minimum strength policy shared by registration and
// password change: length only, no composition rules.
func Password(password string) error {
	if len(password) < PasswordMinLen || len(password) > PasswordMaxLen {
		return invalid("password must be %d-%d characters", PasswordMinLen, PasswordMaxLen)
	}
	return nil
}

// Note checks the plaintext note limits before encryption.
func Note(title, content, color string, labels []string) error {
	if len(title) > NoteTitleMaxLen {
		return invalid("title exceeds %d characters", NoteTitleMaxLen)
	}
	if len(content) > NoteContentMaxLen {
		return invalid("content exceeds %d characters", NoteContentMaxLen)
	}
	if len(color) > NoteColorMaxLen {
		return invalid("color exceeds %d characters", NoteColorMaxLen)
	}
	if len(labels) > NoteMaxLabels {
		return invalid("at most %d labels allowed", NoteMaxLabels)
	}
	for _, l := range labels {
		if len(l) > NoteLabelMaxLen {
			return invalid("label exceeds %d characters", NoteLabelMaxLen)
		}
	}
	return nil
}

// Bookmark checks the plaintext bookmark limits before encryption.
func Bookmark(title, url, description string) error {
	if url == "" || len(url) > BookmarkURLMaxLen {
		return invalid("url must be 1-%d characters", BookmarkURLMaxLen)
	}
	if len(title) > BookmarkTitleMaxLen {
		return invalid("title exceeds %d characters", BookmarkTitleMaxLen)
	}
	if len(description) > BookmarkDescriptionMaxLen {
		return invalid("description exceeds %d characters", BookmarkDescriptionMaxLen)
	}
	return nil
}

// FolderName requires a non-empty name of bounded length.
func FolderName(name string) error {
	if name == "" || len(name) > FolderNameMaxLen {
		return invalid("folder name must be 1-%d characters", FolderNameMaxLen)
	}
	return nil
}

// ImportSource bounds the accepted bookmark file size.
func ImportSource(source string) error {
	if len(source) > ImportMaxSize {
		return invalid("import file exceeds %d bytes", ImportMaxSize)
	}
	return nil
}
