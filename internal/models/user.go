package models

import (
	"time"

	"github.com/google/uuid"
)

// User owns conversations and API keys.
type User struct {
	ID           uuid.UUID `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	DisplayName  string    `db:"display_name" json:"displayName"`
	IsAdmin      bool      `db:"is_admin" json:"isAdmin"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
}

// APIKey is an issued access credential. Only the SHA-256 hash of the key
// is stored; the plaintext is shown once at creation.
type APIKey struct {
	ID        uuid.UUID  `db:"id" json:"id"`
	UserID    uuid.UUID  `db:"user_id" json:"userId"`
	Name      string     `db:"name" json:"name"`
	KeyHash   string     `db:"key_hash" json:"-"`
	KeyPrefix string     `db:"key_prefix" json:"keyPrefix"`
	CreatedAt time.Time  `db:"created_at" json:"createdAt"`
	RevokedAt *time.Time `db:"revoked_at" json:"revokedAt,omitempty"`
}
