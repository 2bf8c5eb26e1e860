package repository

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/diacare/diacare-api/internal/model"
)

var selectByEmailQuery = `(?s)^SELECT\s+id,\s*email,\s*password,\s*first_name,\s*last_name,\s*gender,\s*age,\s*nationality,\s*created_at\s+FROM\s+users\s+WHERE\s+email\s*=\s*`

var userRowColumns = []string{"id", "email", "password", "first_name", "last_name", "gender", "age", "nationality", "created_at"}

func newRepoWithMock(t *testing.T, d Dialect) (*UserRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() {
		db.Close()
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
	})
	return NewUserRepository(db, d), mock
}

func strPtr(s string) *string { return &s }

func TestSentinelErrors(t *testing.T) {
	if ErrUserNotFound.Error() != "user not found" {
		t.Fatalf("unexpected error message: %s", ErrUserNotFound.Error())
	}
	if ErrDuplicateEmail.Error() != "email already exists" {
		t.Fatalf("unexpected error message: %s", ErrDuplicateEmail.Error())
	}
}

func TestEnsureSchema(t *testing.T) {
	repo, mock := newRepoWithMock(t, Postgres)

	mock.ExpectExec(`(?s)CREATE\s+TABLE\s+IF\s+NOT\s+EXISTS\s+users.*email\s+VARCHAR\(120\)\s+UNIQUE\s+NOT\s+NULL`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("EnsureSchema error: %v", err)
	}
}

func TestEnsureSchema_Error(t *testing.T) {
	repo, mock := newRepoWithMock(t, Postgres)

	mock.ExpectExec(`CREATE TABLE`).WillReturnError(errors.New("connection refused"))

	err := repo.EnsureSchema(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestFindByEmail_Found(t *testing.T) {
	repo, mock := newRepoWithMock(t, Postgres)
	created := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows(userRowColumns).
		AddRow(int64(3), "a@x.com", "hash", "Ada", nil, "female", int64(36), nil, created)
	mock.ExpectQuery(selectByEmailQuery + `\$1$`).WithArgs("a@x.com").WillReturnRows(rows)

	got, err := repo.FindByEmail(context.Background(), "a@x.com")
	if err != nil {
		t.Fatalf("FindByEmail error: %v", err)
	}
	if got.ID != 3 || got.Email != "a@x.com" || got.PasswordHash != "hash" {
		t.Fatalf("unexpected user: %+v", got)
	}
	if got.FirstName == nil || *got.FirstName != "Ada" {
		t.Errorf("FirstName = %v, want Ada", got.FirstName)
	}
	if got.LastName != nil || got.Nationality != nil {
		t.Errorf("expected nil optional fields, got %v %v", got.LastName, got.Nationality)
	}
	if got.Age == nil || *got.Age != 36 {
		t.Errorf("Age = %v, want 36", got.Age)
	}
	if !got.CreatedAt.Equal(created) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, created)
	}
}

func TestFindByEmail_NotFound(t *testing.T) {
	repo, mock := newRepoWithMock(t, Postgres)

	mock.ExpectQuery(selectByEmailQuery).WithArgs("nobody@x.com").WillReturnRows(sqlmock.NewRows(userRowColumns))

	_, err := repo.FindByEmail(context.Background(), "nobody@x.com")
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestFindByEmail_DBError(t *testing.T) {
	repo, mock := newRepoWithMock(t, Postgres)

	mock.ExpectQuery(selectByEmailQuery).WithArgs("a@x.com").WillReturnError(sql.ErrConnDone)

	_, err := repo.FindByEmail(context.Background(), "a@x.com")
	if !errors.Is(err, sql.ErrConnDone) || errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestInsert_PostgresReturning(t *testing.T) {
	repo, mock := newRepoWithMock(t, Postgres)
	fixed := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	repo.now = func() time.Time { return fixed }

	mock.ExpectQuery(selectByEmailQuery).WithArgs("a@x.com").WillReturnRows(sqlmock.NewRows(userRowColumns))
	mock.ExpectQuery(`(?s)^INSERT\s+INTO\s+users\s*\(email,.*created_at\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4,\s*\$5,\s*\$6,\s*\$7,\s*\$8\)\s*RETURNING\s+id$`).
		WithArgs("a@x.com", "hash", "Ada", nil, nil, int64(36), nil, fixed).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(42)))

	age := 36
	u := &model.User{Email: "a@x.com", PasswordHash: "hash", FirstName: strPtr("Ada"), Age: &age}
	if err := repo.Insert(context.Background(), u); err != nil {
		t.Fatalf("Insert error: %v", err)
	}
	if u.ID != 42 {
		t.Errorf("ID = %d, want 42", u.ID)
	}
	if !u.CreatedAt.Equal(fixed) {
		t.Errorf("CreatedAt = %v, want %v", u.CreatedAt, fixed)
	}
}

func TestInsert_MySQLLastInsertID(t *testing.T) {
	repo, mock := newRepoWithMock(t, MySQL)

	mock.ExpectQuery(selectByEmailQuery + `\?$`).WithArgs("b@x.com").WillReturnRows(sqlmock.NewRows(userRowColumns))
	mock.ExpectExec(`(?s)^INSERT\s+INTO\s+users.*VALUES\s*\(\?,\s*\?,\s*\?,\s*\?,\s*\?,\s*\?,\s*\?,\s*\?\)$`).
		WithArgs("b@x.com", "hash", nil, nil, nil, nil, nil, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(9, 1))

	u := &model.User{Email: "b@x.com", PasswordHash: "hash"}
	if err := repo.Insert(context.Background(), u); err != nil {
		t.Fatalf("Insert error: %v", err)
	}
	if u.ID != 9 {
		t.Errorf("ID = %d, want 9", u.ID)
	}
}

func TestInsert_ExistingEmail(t *testing.T) {
	repo, mock := newRepoWithMock(t, Postgres)

	rows := sqlmock.NewRows(userRowColumns).
		AddRow(int64(1), "a@x.com", "hash", nil, nil, nil, nil, nil, time.Now())
	mock.ExpectQuery(selectByEmailQuery).WithArgs("a@x.com").WillReturnRows(rows)

	err := repo.Insert(context.Background(), &model.User{Email: "a@x.com", PasswordHash: "hash"})
	if !errors.Is(err, ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}
}

func TestInsert_UniqueViolationRace(t *testing.T) {
	tests := []struct {
		name    string
		dialect Dialect
		err     error
		query   bool
	}{
		{"postgres", Postgres, &pgconn.PgError{Code: "23505"}, true},
		{"mysql", MySQL, &mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newRepoWithMock(t, tt.dialect)

			mock.ExpectQuery(selectByEmailQuery).WithArgs("a@x.com").WillReturnRows(sqlmock.NewRows(userRowColumns))
			if tt.query {
				mock.ExpectQuery(`INSERT INTO users`).WillReturnError(tt.err)
			} else {
				mock.ExpectExec(`INSERT INTO users`).WillReturnError(tt.err)
			}

			err := repo.Insert(context.Background(), &model.User{Email: "a@x.com", PasswordHash: "hash"})
			if !errors.Is(err, ErrDuplicateEmail) {
				t.Fatalf("expected ErrDuplicateEmail, got %v", err)
			}
		})
	}
}

func TestInsert_OtherError(t *testing.T) {
	repo, mock := newRepoWithMock(t, Postgres)

	mock.ExpectQuery(selectByEmailQuery).WithArgs("a@x.com").WillReturnRows(sqlmock.NewRows(userRowColumns))
	mock.ExpectQuery(`INSERT INTO users`).WillReturnError(&pgconn.PgError{Code: "22001"})

	err := repo.Insert(context.Background(), &model.User{Email: "a@x.com", PasswordHash: "hash"})
	if err == nil || errors.Is(err, ErrDuplicateEmail) {
		t.Fatalf("expected generic db error, got %v", err)
	}
}

func newSQLiteRepo(t *testing.T) *UserRepository {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "users.db")
	db, err := NewDB(context.Background(), SQLite, dsn, PoolConfig{MaxOpenConns: 1, MaxIdleConns: 1})
	if err != nil {
		t.Fatalf("NewDB error: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	repo := NewUserRepository(db, SQLite)
	if err := repo.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("EnsureSchema error: %v", err)
	}
	return repo
}

func TestSQLite_RoundTrip(t *testing.T) {
	repo := newSQLiteRepo(t)
	ctx := context.Background()

	// Idempotent.
	if err := repo.EnsureSchema(ctx); err != nil {
		t.Fatalf("second EnsureSchema error: %v", err)
	}

	age := 41
	u := &model.User{
		Email:        "a@x.com",
		PasswordHash: "hash",
		LastName:     strPtr("Lovelace"),
		Age:          &age,
		Nationality:  strPtr("GB"),
	}
	if err := repo.Insert(ctx, u); err != nil {
		t.Fatalf("Insert error: %v", err)
	}
	if u.ID == 0 {
		t.Fatal("expected generated ID")
	}

	got, err := repo.FindByEmail(ctx, "a@x.com")
	if err != nil {
		t.Fatalf("FindByEmail error: %v", err)
	}
	if got.ID != u.ID || got.PasswordHash != "hash" {
		t.Fatalf("unexpected user: %+v", got)
	}
	if got.FirstName != nil || got.Gender != nil {
		t.Errorf("expected nil optional fields")
	}
	if got.LastName == nil || *got.LastName != "Lovelace" || got.Age == nil || *got.Age != 41 {
		t.Errorf("optional fields not round-tripped: %+v", got)
	}
	if !got.CreatedAt.Equal(u.CreatedAt) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, u.CreatedAt)
	}

	byID, err := repo.FindByID(ctx, u.ID)
	if err != nil || byID.Email != "a@x.com" {
		t.Fatalf("FindByID = %+v, %v", byID, err)
	}

	if _, err := repo.FindByEmail(ctx, "A@X.COM"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("lookup must be case sensitive, got %v", err)
	}

	err = repo.Insert(ctx, &model.User{Email: "a@x.com", PasswordHash: "other"})
	if !errors.Is(err, ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}
}

func TestSQLite_UniqueConstraint(t *testing.T) {
	repo := newSQLiteRepo(t)
	ctx := context.Background()

	if err := repo.Insert(ctx, &model.User{Email: "race@x.com", PasswordHash: "hash"}); err != nil {
		t.Fatalf("Insert error: %v", err)
	}

	// Skip the pre-check to hit the constraint directly.
	_, err := repo.db.ExecContext(ctx, `INSERT INTO users (email, password) VALUES (?, ?)`, "race@x.com", "hash")
	if err == nil {
		t.Fatal("expected unique violation")
	}
	if !SQLite.isUniqueViolation(err) {
		t.Fatalf("isUniqueViolation(%v) = false", err)
	}
}
