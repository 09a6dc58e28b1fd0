package service

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"imagecompare/internal/catalog"
	"imagecompare/internal/database"
	"imagecompare/internal/models"
	"imagecompare/internal/repository/sqlite"
)

type fixture struct {
	db          *sql.DB
	comparisons *sqlite.ComparisonRepository
	users       *sqlite.UserRepository
	votes       *sqlite.VoteRepository
	admins      *sqlite.AdminRepository
	admin       models.Admin
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	db, err := database.OpenSQLite(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.MigrateSQLite(ctx, db))

	f := &fixture{
		db:          db,
		comparisons: sqlite.NewComparisonRepository(db),
		users:       sqlite.NewUserRepository(db),
		votes:       sqlite.NewVoteRepository(db),
		admins:      sqlite.NewAdminRepository(db),
	}
	f.admin, err = f.admins.Create(ctx, []byte("unused"))
	require.NoError(t, err)
	return f
}

func (f *fixture) generation(root string) *GenerationService {
	return NewGenerationService(catalog.NewDirSource(root), f.comparisons, zerolog.Nop())
}

func writeTree(t *testing.T, files ...string) string {
	t.Helper()
	root := t.TempDir()
	for _, rel := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(rel), 0o644))
	}
	return root
}

func imagesOf(comparisons []models.Comparison) [][2]string {
	out := make([][2]string, len(comparisons))
	for i, c := range comparisons {
		out[i] = c.Images
	}
	return out
}
