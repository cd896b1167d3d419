package repository

import (
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// AdminRepository answers the membership question "is this user an admin".
// The check is a live query on every call so that a revoked admin loses
// access on their next write attempt.
type AdminRepository interface {
	IsAdmin(userID string) (bool, error)
	Grant(userID string) error
	Revoke(userID string) error
}

type adminRepository struct {
	db *sqlx.DB
}

func NewAdminRepository(db *sqlx.DB) AdminRepository {
	return &adminRepository{db: db}
}

func (r *adminRepository) IsAdmin(userID string) (bool, error) {
	var count int
	query := `SELECT COUNT(*) FROM admins WHERE user_id = $1`

	err := r.db.QueryRow(query, userID).Scan(&count)
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

func (r *adminRepository) Grant(userID string) error {
	query := `INSERT INTO admins (id, user_id, created_at) VALUES ($1, $2, $3)`

	_, err := r.db.Exec(query, uuid.New().String(), userID, time.Now())
	return err
}

func (r *adminRepository) Revoke(userID string) error {
	query := `DELETE FROM admins WHERE user_id = $1`

	_, err := r.db.Exec(query, userID)
	return err
}
