package sqlite

import (
	"context"
	"database/sql"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"imagecompare/internal/database"
	"imagecompare/internal/models"
	"imagecompare/internal/repository"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	ctx := context.Background()
	db, err := database.OpenSQLite(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.MigrateSQLite(ctx, db))
	return db
}

func seedAdmin(t *testing.T, db *sql.DB) models.Admin {
	t.Helper()
	admin, err := NewAdminRepository(db).Create(context.Background(), []byte("hash"))
	require.NoError(t, err)
	return admin
}

func TestComparisonInsertIfAbsent(t *testing.T) {
	db := openTestDB(t)
	admin := seedAdmin(t, db)
	repo := NewComparisonRepository(db)
	ctx := context.Background()

	first := models.Comparison{
		ID:        uuid.New(),
		Dirname:   "folder_a",
		Images:    [2]string{"folder_a/1.png", "folder_a/2.png"},
		CreatedBy: admin.ID,
	}
	stored, inserted, err := repo.InsertIfAbsent(ctx, first)
	require.NoError(t, err)
	assert.True(t, inserted)
	assert.Equal(t, first.ID, stored.ID)
	assert.Equal(t, first.Images, stored.Images)
	assert.False(t, stored.CreatedAt.IsZero())

	exists, err := repo.Exists(ctx, first.ID)
	require.NoError(t, err)
	assert.True(t, exists)

	t.Run("same content keeps existing row", func(t *testing.T) {
		again := first
		again.ID = uuid.New()
		got, inserted, err := repo.InsertIfAbsent(ctx, again)
		require.NoError(t, err)
		assert.False(t, inserted)
		assert.Equal(t, stored, got)
	})

	t.Run("same id different content", func(t *testing.T) {
		clash := first
		clash.Images = [2]string{"folder_a/2.png", "folder_a/1.png"}
		_, _, err := repo.InsertIfAbsent(ctx, clash)
		assert.ErrorIs(t, err, repository.ErrIDTaken)

		got, err := repo.GetByID(ctx, first.ID)
		require.NoError(t, err)
		assert.Equal(t, stored, got)
	})
}

func TestComparisonGetByIDNotFound(t *testing.T) {
	db := openTestDB(t)
	_, err := NewComparisonRepository(db).GetByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, repository.ErrComparisonNotFound)
}

func TestRandomUnvotedSkipsVotedComparisons(t *testing.T) {
	db := openTestDB(t)
	admin := seedAdmin(t, db)
	ctx := context.Background()
	comparisons := NewComparisonRepository(db)
	votes := NewVoteRepository(db)
	user, err := NewUserRepository(db).Create(ctx, uuid.New())
	require.NoError(t, err)

	var ids []uuid.UUID
	for _, images := range [][2]string{{"a", "b"}, {"b", "a"}} {
		c, _, err := comparisons.InsertIfAbsent(ctx, models.Comparison{
			ID: uuid.New(), Dirname: "set", Images: images, CreatedBy: admin.ID,
		})
		require.NoError(t, err)
		ids = append(ids, c.ID)
	}
	_, _, err = comparisons.InsertIfAbsent(ctx, models.Comparison{
		ID: uuid.New(), Dirname: "other", Images: [2]string{"x", "y"}, CreatedBy: admin.ID,
	})
	require.NoError(t, err)

	_, err = votes.Insert(ctx, models.Vote{ID: "v1", ComparisonID: ids[0], UserID: user.ID, Value: models.Equal{}})
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		got, err := comparisons.RandomUnvoted(ctx, user.ID, "set")
		require.NoError(t, err)
		assert.Equal(t, ids[1], got.ID)
	}

	_, err = votes.Insert(ctx, models.Vote{ID: "v2", ComparisonID: ids[1], UserID: user.ID, Value: models.Different{}})
	require.NoError(t, err)

	_, err = comparisons.RandomUnvoted(ctx, user.ID, "set")
	assert.ErrorIs(t, err, repository.ErrComparisonNotFound)

	// another user still sees everything
	other, err := NewUserRepository(db).Create(ctx, uuid.New())
	require.NoError(t, err)
	_, err = comparisons.RandomUnvoted(ctx, other.ID, "set")
	assert.NoError(t, err)

	dirnames, err := comparisons.Dirnames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"other", "set"}, dirnames)
}

func TestVoteUpsert(t *testing.T) {
	db := openTestDB(t)
	admin := seedAdmin(t, db)
	ctx := context.Background()
	users := NewUserRepository(db)
	votes := NewVoteRepository(db)

	user, err := users.Create(ctx, uuid.New())
	require.NoError(t, err)
	c, _, err := NewComparisonRepository(db).InsertIfAbsent(ctx, models.Comparison{
		ID: uuid.New(), Dirname: "", Images: [2]string{"a.png", "b.png"}, CreatedBy: admin.ID,
	})
	require.NoError(t, err)

	ip := "10.0.0.1"
	first, created, err := votes.Upsert(ctx, models.Vote{
		ID: "v1", ComparisonID: c.ID, UserID: user.ID, Value: models.Equal{}, ClientIP: &ip,
	})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, models.Equal{}, first.Value)
	require.NotNil(t, first.ClientIP)
	assert.Equal(t, ip, *first.ClientIP)

	second, created, err := votes.Upsert(ctx, models.Vote{
		ID: "v2", ComparisonID: c.ID, UserID: user.ID, Value: models.Preferred{Image: "b.png"},
	})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "v1", second.ID)
	assert.Equal(t, models.Preferred{Image: "b.png"}, second.Value)
	assert.Nil(t, second.ClientIP)

	summary, err := users.Summary(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), summary.Comparisons)
}

func TestUserNotFound(t *testing.T) {
	db := openTestDB(t)
	users := NewUserRepository(db)

	_, err := users.GetByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, repository.ErrUserNotFound)
	_, err = users.Summary(context.Background(), uuid.New())
	assert.ErrorIs(t, err, repository.ErrUserNotFound)
}

func TestAdminRepository(t *testing.T) {
	db := openTestDB(t)
	repo := NewAdminRepository(db)
	ctx := context.Background()

	created, err := repo.Create(ctx, []byte("h1"))
	require.NoError(t, err)
	_, err = repo.Create(ctx, []byte("h2"))
	require.NoError(t, err)

	got, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, []byte("h1"), got.CapabilityKey)

	admins, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, admins, 2)

	_, err = repo.GetByID(ctx, 999)
	assert.ErrorIs(t, err, repository.ErrAdminNotFound)
}
