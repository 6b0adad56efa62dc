package accounts

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/server/models"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

const insertQuery = `(?s)^\s*INSERT\s+INTO\s+auth_accounts\s*\(email,\s*password_hash,\s*status,\s*roles\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4\)\s*RETURNING\s+id,\s*created_at,\s*updated_at\s*$`

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow("acc-1", now, now)
	mock.ExpectQuery(insertQuery).
		WithArgs("a@x.com", "digest", "PENDING_EMAIL_VERIFICATION", "USER").
		WillReturnRows(rows)

	acc := &models.Account{
		Email:        "a@x.com",
		PasswordHash: "digest",
		Status:       models.StatusPendingVerification,
		Roles:        []string{models.RoleUser},
	}
	got, err := repo.Create(context.Background(), acc)
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if got.ID != "acc-1" {
		t.Fatalf("unexpected account: %+v", got)
	}
}

func TestCreate_DuplicateEmail(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(insertQuery).
		WithArgs("a@x.com", "digest", "PENDING_EMAIL_VERIFICATION", "USER").
		WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "auth_accounts_email_key"})

	_, err := repo.Create(context.Background(), &models.Account{
		Email:        "a@x.com",
		PasswordHash: "digest",
		Status:       models.StatusPendingVerification,
		Roles:        []string{models.RoleUser},
	})
	if !errors.Is(err, common.ErrorConflict) {
		t.Fatalf("want common.ErrorConflict, got %v", err)
	}
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(insertQuery).
		WithArgs("a@x.com", "digest", "PENDING_EMAIL_VERIFICATION", "USER").
		WillReturnError(errors.New("db down"))

	_, err := repo.Create(context.Background(), &models.Account{
		Email:        "a@x.com",
		PasswordHash: "digest",
		Status:       models.StatusPendingVerification,
		Roles:        []string{models.RoleUser},
	})
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

const selectByEmailQuery = `(?s)^\s*SELECT\s+id,\s*email,\s*password_hash,\s*status,\s*roles,\s*created_at,\s*updated_at\s+FROM\s+auth_accounts\s+WHERE\s+email\s*=\s*\$1\s*$`

func TestGetByEmail_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "email", "password_hash", "status", "roles", "created_at", "updated_at"}).
		AddRow("acc-1", "a@x.com", "digest", "ACTIVE", "USER,ADMIN", now, now)
	mock.ExpectQuery(selectByEmailQuery).WithArgs("a@x.com").WillReturnRows(rows)

	got, err := repo.GetByEmail(context.Background(), "a@x.com")
	if err != nil {
		t.Fatalf("GetByEmail error: %v", err)
	}
	if got.ID != "acc-1" || got.Status != models.StatusActive {
		t.Fatalf("unexpected account: %+v", got)
	}
	if len(got.Roles) != 2 || got.Roles[1] != "ADMIN" {
		t.Fatalf("roles not split: %v", got.Roles)
	}
}

func TestGetByEmail_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(selectByEmailQuery).WithArgs("ghost@x.com").WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByEmail(context.Background(), "ghost@x.com")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
}

func TestExistsByEmail(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^\s*SELECT\s+EXISTS\s*\(SELECT\s+1\s+FROM\s+auth_accounts\s+WHERE\s+email\s*=\s*\$1\)\s*$`
	mock.ExpectQuery(q).WithArgs("a@x.com").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.ExistsByEmail(context.Background(), "a@x.com")
	if err != nil {
		t.Fatalf("ExistsByEmail error: %v", err)
	}
	if !exists {
		t.Fatalf("expected exists=true")
	}
}

const updateStatusQuery = `(?s)^\s*UPDATE\s+auth_accounts\s+SET\s+status\s*=\s*\$2,\s*updated_at\s*=\s*now\(\)\s+WHERE\s+id\s*=\s*\$1\s*$`

func TestUpdateStatus_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(updateStatusQuery).
		WithArgs("acc-1", "ACTIVE").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.UpdateStatus(context.Background(), "acc-1", models.StatusActive); err != nil {
		t.Fatalf("UpdateStatus error: %v", err)
	}
}

func TestUpdateStatus_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(updateStatusQuery).
		WithArgs("missing", "ACTIVE").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateStatus(context.Background(), "missing", models.StatusActive)
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
}

func TestUpdatePasswordHash_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^\s*UPDATE\s+auth_accounts\s+SET\s+password_hash\s*=\s*\$2,\s*updated_at\s*=\s*now\(\)\s+WHERE\s+id\s*=\s*\$1\s*$`
	mock.ExpectExec(q).
		WithArgs("acc-1", "new-digest").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.UpdatePasswordHash(context.Background(), "acc-1", "new-digest"); err != nil {
		t.Fatalf("UpdatePasswordHash error: %v", err)
	}
}
