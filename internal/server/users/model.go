package users

// Roles assignable to an account. The first registered account becomes the
// admin.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// User is an account row. PasswordHash is a one-way argon2id hash;
// EncryptionSalt feeds per-request key derivation and is not secret.
// The salt changes if and only if the password changes.
type User struct {
	ID             string
	Username       string
	Email          string
	PasswordHash   string
	EncryptionSalt string
	Role           string
	IsActive       bool
	CreatedAt      int64
	UpdatedAt      int64
}

// Info is the admin-facing listing projection: account metadata plus the
// number of notes, never anything derived from ciphertext.
type Info struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	IsActive  bool   `json:"is_active"`
	NoteCount int    `json:"note_count"`
	CreatedAt int64  `json:"created_at"`
	UpdatedAt int64  `json:"updated_at"`
}
