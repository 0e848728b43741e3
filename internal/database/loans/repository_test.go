package loans

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/pranshh/library-management-mad2/internal/config"
	"github.com/pranshh/library-management-mad2/internal/database"
	"github.com/pranshh/library-management-mad2/internal/entities"
)

type fixture struct {
	db     *gorm.DB
	repo   *Repository
	user   *entities.User
	ebooks []*entities.Ebook
}

func setupTestDB(t *testing.T) *fixture {
	t.Helper()
	db, err := database.NewDatabase(config.Database{
		Driver: config.DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "loans.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	user := &entities.User{
		Username: "reader", Email: "reader@example.com", PasswordHash: "hash",
		Active: true, FsUniquifier: uuid.NewString(),
	}
	require.NoError(t, db.DB.Create(user).Error)

	section := &entities.Section{Name: "Fiction", DateCreated: time.Now()}
	require.NoError(t, db.DB.Create(section).Error)

	f := &fixture{db: db.DB, repo: NewRepository(db.DB), user: user}
	for _, name := range []string{"Dune", "Emma", "Ulysses"} {
		ebook := &entities.Ebook{Name: name, Author: "Author", SectionID: section.ID}
		require.NoError(t, db.DB.Create(ebook).Error)
		f.ebooks = append(f.ebooks, ebook)
	}
	return f
}

func (f *fixture) addRequest(t *testing.T, ebookID uint, status entities.RequestStatus, due *time.Time) *entities.Request {
	t.Helper()
	now := time.Now().UTC()
	req := &entities.Request{UserID: f.user.ID, EbookID: ebookID, Status: status, DateRequested: now}
	if status != entities.RequestStatusRequested {
		req.DateGranted = &now
		req.ReturnDate = due
	}
	require.NoError(t, f.repo.Create(req))
	return req
}

func TestRepository_CountAndSyncLoanCount(t *testing.T) {
	f := setupTestDB(t)
	due := time.Now().UTC().Add(time.Hour)
	f.addRequest(t, f.ebooks[0].ID, entities.RequestStatusGranted, &due)
	f.addRequest(t, f.ebooks[1].ID, entities.RequestStatusGranted, &due)
	f.addRequest(t, f.ebooks[2].ID, entities.RequestStatusRequested, nil)

	count, err := f.repo.CountGranted(f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	synced, err := f.repo.SyncLoanCount(f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, synced)

	user, err := f.repo.LockUser(f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, user.NoOfBooks)
}

func TestRepository_HasOutstanding(t *testing.T) {
	f := setupTestDB(t)
	f.addRequest(t, f.ebooks[0].ID, entities.RequestStatusRequested, nil)

	ok, err := f.repo.HasOutstanding(f.user.ID, f.ebooks[0].ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = f.repo.HasOutstanding(f.user.ID, f.ebooks[1].ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRepository_HasBeenGranted_IncludesReturned(t *testing.T) {
	f := setupTestDB(t)
	due := time.Now().UTC()
	f.addRequest(t, f.ebooks[0].ID, entities.RequestStatusReturned, &due)
	f.addRequest(t, f.ebooks[1].ID, entities.RequestStatusRequested, nil)

	ok, err := f.repo.HasBeenGranted(f.user.ID, f.ebooks[0].ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = f.repo.HasBeenGranted(f.user.ID, f.ebooks[1].ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRepository_ListOverdueIDs(t *testing.T) {
	f := setupTestDB(t)
	now := time.Now().UTC()
	past := now.Add(-24 * time.Hour)
	future := now.Add(24 * time.Hour)

	overdue := f.addRequest(t, f.ebooks[0].ID, entities.RequestStatusGranted, &past)
	f.addRequest(t, f.ebooks[1].ID, entities.RequestStatusGranted, &future)
	f.addRequest(t, f.ebooks[2].ID, entities.RequestStatusRevoked, &past)

	ids, err := f.repo.ListOverdueIDs(now)
	require.NoError(t, err)
	assert.Equal(t, []uint{overdue.ID}, ids)
}

func TestRepository_ListPreloadsRelations(t *testing.T) {
	f := setupTestDB(t)
	f.addRequest(t, f.ebooks[0].ID, entities.RequestStatusRequested, nil)

	reqs, err := f.repo.List(f.user.ID)
	require.NoError(t, err)
	require.Len(t, reqs, 1)
	require.NotNil(t, reqs[0].User)
	require.NotNil(t, reqs[0].Ebook)
	assert.Equal(t, "reader", reqs[0].User.Username)
	assert.Equal(t, "Dune", reqs[0].Ebook.Name)

	all, err := f.repo.List(0)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	none, err := f.repo.List(f.user.ID + 100)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestRepository_ListActiveLoans(t *testing.T) {
	f := setupTestDB(t)
	due := time.Now().UTC().Add(48 * time.Hour)
	f.addRequest(t, f.ebooks[0].ID, entities.RequestStatusGranted, &due)
	f.addRequest(t, f.ebooks[1].ID, entities.RequestStatusReturned, &due)

	loans, err := f.repo.ListActiveLoans(0)
	require.NoError(t, err)
	require.Len(t, loans, 1)
	assert.Equal(t, f.ebooks[0].ID, loans[0].EbookID)

	loans, err = f.repo.ListActiveLoans(f.user.ID + 1)
	require.NoError(t, err)
	assert.Empty(t, loans)
}

func TestRepository_GetForUpdate_NotFound(t *testing.T) {
	f := setupTestDB(t)

	_, err := f.repo.GetForUpdate(404)

	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
