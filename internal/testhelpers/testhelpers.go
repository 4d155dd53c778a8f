package testhelpers

import (
	"context"
	"database/sql"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/johnwards/dashgate/internal/api"
	"github.com/johnwards/dashgate/internal/database"
	"github.com/johnwards/dashgate/internal/seed"
	"github.com/johnwards/dashgate/internal/store"
)

// DefaultTenant is the tenant the seed data belongs to.
const DefaultTenant = seed.Tenant

// NewTestDB returns an in-memory SQLite database configured the same way as
// the stub server. The database is closed when the test completes.
func NewTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}

	t.Cleanup(func() {
		_ = db.Close()
	})

	return db
}

// NewTestStore returns a migrated, empty store over an in-memory database.
func NewTestStore(t *testing.T) *store.Store {
	t.Helper()

	db := NewTestDB(t)
	if err := database.Migrate(context.Background(), db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return store.New(db)
}

// NewSeededStore returns a migrated store holding the standard fixtures.
func NewSeededStore(t *testing.T) *store.Store {
	t.Helper()

	s := NewTestStore(t)
	if err := seed.Seed(context.Background(), s.DB); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return s
}

// NewAPIServer mounts register under /api/v1 behind the tenant middleware,
// the way the stub binary does, and serves it over a seeded store. The
// server is closed when the test completes.
func NewAPIServer(t *testing.T, register func(chi.Router, *store.Store)) (*httptest.Server, *store.Store) {
	t.Helper()

	s := NewSeededStore(t)
	r := chi.NewRouter()
	r.Route("/api/v1", func(v1 chi.Router) {
		register(v1, s)
	})

	srv := httptest.NewServer(api.Chain(r,
		api.RequestIDs(),
		api.Tenant("/api/"),
		api.JSONContentType(),
	))
	t.Cleanup(srv.Close)
	return srv, s
}
