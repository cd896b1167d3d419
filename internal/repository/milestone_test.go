package repository_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tonggak/milestones/internal/model"
	"github.com/tonggak/milestones/internal/repository"
	"github.com/tonggak/milestones/internal/testutil"
)

func newMilestone(title, eventDate string) *model.Milestone {
	now := time.Now()
	return &model.Milestone{
		ID:        uuid.New().String(),
		Title:     title,
		EventDate: eventDate,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestMilestoneCreateAndByID(t *testing.T) {
	database := testutil.NewTestDB(t)
	repo := repository.NewMilestoneRepository(database)

	m := newMilestone("Launch", "2024-06-15")
	desc := "first public release"
	m.Description = &desc

	require.NoError(t, repo.Create(m))

	got, err := repo.ByID(m.ID)
	require.NoError(t, err)
	assert.Equal(t, m.ID, got.ID)
	assert.Equal(t, "Launch", got.Title)
	assert.Equal(t, "2024-06-15", got.EventDate)
	require.NotNil(t, got.Description)
	assert.Equal(t, desc, *got.Description)
	assert.Nil(t, got.ImageURL)
	assert.Nil(t, got.CreatedBy)
}

func TestMilestoneByID_NotFound(t *testing.T) {
	database := testutil.NewTestDB(t)
	repo := repository.NewMilestoneRepository(database)

	_, err := repo.ByID(uuid.New().String())
	assert.ErrorIs(t, err, repository.ErrMilestoneNotFound)
}

func TestMilestoneAll_OrderedByEventDateDesc(t *testing.T) {
	database := testutil.NewTestDB(t)
	repo := repository.NewMilestoneRepository(database)

	require.NoError(t, repo.Create(newMilestone("middle", "2023-05-01")))
	require.NoError(t, repo.Create(newMilestone("newest", "2024-12-31")))
	require.NoError(t, repo.Create(newMilestone("oldest", "2020-01-01")))

	all, err := repo.All()
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "newest", all[0].Title)
	assert.Equal(t, "middle", all[1].Title)
	assert.Equal(t, "oldest", all[2].Title)
}

func TestMilestoneUpdate(t *testing.T) {
	database := testutil.NewTestDB(t)
	repo := repository.NewMilestoneRepository(database)

	m := newMilestone("Before", "2024-01-01")
	require.NoError(t, repo.Create(m))

	m.Title = "After"
	m.EventDate = "2024-02-02"
	require.NoError(t, repo.Update(m))

	got, err := repo.ByID(m.ID)
	require.NoError(t, err)
	assert.Equal(t, "After", got.Title)
	assert.Equal(t, "2024-02-02", got.EventDate)
}

func TestMilestoneUpdate_NotFound(t *testing.T) {
	database := testutil.NewTestDB(t)
	repo := repository.NewMilestoneRepository(database)

	err := repo.Update(newMilestone("ghost", "2024-01-01"))
	assert.ErrorIs(t, err, repository.ErrMilestoneNotFound)
}

func TestMilestoneDelete(t *testing.T) {
	database := testutil.NewTestDB(t)
	repo := repository.NewMilestoneRepository(database)

	m := newMilestone("gone soon", "2024-01-01")
	require.NoError(t, repo.Create(m))

	require.NoError(t, repo.Delete(m.ID))

	_, err := repo.ByID(m.ID)
	assert.ErrorIs(t, err, repository.ErrMilestoneNotFound)

	assert.ErrorIs(t, repo.Delete(m.ID), repository.ErrMilestoneNotFound)
}
