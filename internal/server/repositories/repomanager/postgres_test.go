package repomanager

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/pressly/goose/v3"

	"github.com/dmitrijs2005/authkeeper/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/authkeeper/internal/server/repositories/onetimetokens"
)

func newDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return db, mock
}

func TestNewPostgresRepositoryManager_ReturnsInterface(t *testing.T) {
	db, _ := newDB(t)
	defer db.Close()

	m, err := NewPostgresRepositoryManager(db)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var _ RepositoryManager = m
}

func TestFactories_ReturnConcreteRepos(t *testing.T) {
	db, _ := newDB(t)
	defer db.Close()

	m := &PostgresRepositoryManager{}

	if a := m.Accounts(db); a == nil {
		t.Fatal("Accounts() nil")
	}
	if tk := m.OneTimeTokens(db); tk == nil {
		t.Fatal("OneTimeTokens() nil")
	}

	var _ accounts.Repository = m.Accounts(db)
	var _ onetimetokens.Repository = m.OneTimeTokens(db)
}

func TestRunMigrations_PropagatesError(t *testing.T) {
	db, _ := newDB(t)
	defer db.Close()

	orig := gooseUpContext
	defer func() { gooseUpContext = orig }()

	want := errors.New("migration failed")
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		return want
	}

	m := &PostgresRepositoryManager{}
	if err := m.RunMigrations(context.Background(), db); !errors.Is(err, want) {
		t.Fatalf("want %v, got %v", want, err)
	}
}
