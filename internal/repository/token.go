package repository

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/tonggak/milestones/internal/model"
)

var (
	ErrTokenNotFound = errors.New("token not found")
)

type TokenRepository interface {
	Create(token *model.Token) error
	ActiveByUserAndType(userID, tokenType string) (*model.Token, error)
	Consume(id string) error
	DeleteByUserAndType(userID, tokenType string) error
}

type tokenRepository struct {
	db *sqlx.DB
}

func NewTokenRepository(db *sqlx.DB) TokenRepository {
	return &tokenRepository{db: db}
}

func (r *tokenRepository) Create(token *model.Token) error {
	if token.ID == "" {
		token.ID = uuid.New().String()
	}
	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO tokens (id, user_id, type, code_hash, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.Exec(query,
		token.ID,
		token.UserID,
		token.Type,
		token.CodeHash,
		token.ExpiresAt,
		token.CreatedAt,
	)
	return err
}

// ActiveByUserAndType returns the most recent unused, unexpired token for
// the user. The code hash must still be compared by the caller.
func (r *tokenRepository) ActiveByUserAndType(userID, tokenType string) (*model.Token, error) {
	var t model.Token
	query := `
		SELECT * FROM tokens
		WHERE user_id = $1 AND type = $2 AND used_at IS NULL AND expires_at > $3
		ORDER BY created_at DESC
		LIMIT 1
	`

	err := r.db.Get(&t, query, userID, tokenType, time.Now())
	if err == sql.ErrNoRows {
		return nil, ErrTokenNotFound
	}
	if err != nil {
		return nil, err
	}

	return &t, nil
}

// Consume atomically marks the token as used. Only one request can succeed;
// a concurrent second consume gets ErrTokenNotFound.
func (r *tokenRepository) Consume(id string) error {
	now := time.Now()
	query := `
		UPDATE tokens
		SET used_at = $1
		WHERE id = $2 AND used_at IS NULL AND expires_at > $3
	`

	result, err := r.db.Exec(query, now, id, now)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return ErrTokenNotFound
	}

	return nil
}

// DeleteByUserAndType removes unused tokens so that a fresh code request
// supersedes any earlier one.
func (r *tokenRepository) DeleteByUserAndType(userID, tokenType string) error {
	query := `DELETE FROM tokens WHERE user_id = $1 AND type = $2 AND used_at IS NULL`
	_, err := r.db.Exec(query, userID, tokenType)
	return err
}
