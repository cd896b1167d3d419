package repository

import (
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/tonggak/milestones/internal/model"
)

var (
	ErrMilestoneNotFound = errors.New("milestone not found")
)

type MilestoneRepository interface {
	Create(m *model.Milestone) error
	ByID(id string) (*model.Milestone, error)
	All() ([]*model.Milestone, error)
	Update(m *model.Milestone) error
	Delete(id string) error
}

type milestoneRepository struct {
	db *sqlx.DB
}

func NewMilestoneRepository(db *sqlx.DB) MilestoneRepository {
	return &milestoneRepository{db: db}
}

func (r *milestoneRepository) Create(m *model.Milestone) error {
	query := `INSERT INTO milestones (id, title, description, event_date, image_url, created_by, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.db.Exec(query,
		m.ID,
		m.Title,
		m.Description,
		m.EventDate,
		m.ImageURL,
		m.CreatedBy,
		m.CreatedAt,
		m.UpdatedAt,
	)

	return err
}

func (r *milestoneRepository) ByID(id string) (*model.Milestone, error) {
	m := &model.Milestone{}
	query := `SELECT * FROM milestones WHERE id = $1`

	err := r.db.Get(m, query, id)
	if err == sql.ErrNoRows {
		return nil, ErrMilestoneNotFound
	}

	return m, err
}

// All returns every milestone, newest event first.
func (r *milestoneRepository) All() ([]*model.Milestone, error) {
	var milestones []*model.Milestone
	query := `SELECT * FROM milestones ORDER BY event_date DESC`

	err := r.db.Select(&milestones, query)
	if err != nil {
		return nil, err
	}

	return milestones, nil
}

func (r *milestoneRepository) Update(m *model.Milestone) error {
	query := `UPDATE milestones
	          SET title = $1, description = $2, event_date = $3, image_url = $4, updated_at = $5
	          WHERE id = $6`

	result, err := r.db.Exec(query,
		m.Title,
		m.Description,
		m.EventDate,
		m.ImageURL,
		time.Now(),
		m.ID,
	)

	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return ErrMilestoneNotFound
	}

	return nil
}

func (r *milestoneRepository) Delete(id string) error {
	query := `DELETE FROM milestones WHERE id = $1`
	result, err := r.db.Exec(query, id)

	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return ErrMilestoneNotFound
	}

	return nil
}
