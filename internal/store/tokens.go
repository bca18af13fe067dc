package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ErrTokenExpired is returned when a validation token exists but is past its
// expiry.
var ErrTokenExpired = errors.New("validation token expired")

// InsertValidationToken persists the token → validation mapping embedded in
// an outbound email link. ttl bounds how long the recipient may respond.
func (s *Store) InsertValidationToken(ctx context.Context, token string, validationID uuid.UUID, ttl time.Duration) error {
	if token == "" {
		return fmt.Errorf("token is required")
	}
	_, err := s.db.Exec(ctx,
		`INSERT INTO validation_tokens (token, validation_id, expires_at)
		 VALUES ($1, $2, now() + $3)`,
		token, validationID, ttl,
	)
	if err != nil {
		return fmt.Errorf("inserting validation token: %w", err)
	}
	return nil
}

// LookupValidationToken resolves a token back to its validation request ID.
// Returns ErrNotFound for unknown tokens and ErrTokenExpired for stale ones.
func (s *Store) LookupValidationToken(ctx context.Context, token string) (uuid.UUID, error) {
	var validationID uuid.UUID
	var expiresAt time.Time
	err := s.db.QueryRow(ctx,
		`SELECT validation_id, expires_at FROM validation_tokens WHERE token = $1`,
		token,
	).Scan(&validationID, &expiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, fmt.Errorf("validation token: %w", ErrNotFound)
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("looking up validation token: %w", err)
	}

	if time.Now().After(expiresAt) {
		return uuid.Nil, ErrTokenExpired
	}
	return validationID, nil
}
