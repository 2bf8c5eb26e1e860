package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/diacare/diacare-api/internal/model"
)

var (
	ErrUserNotFound   = errors.New("user not found")
	ErrDuplicateEmail = errors.New("email already exists")
)

const userColumns = `id, email, password, first_name, last_name, gender, age, nationality, created_at`

// UserRepository handles user persistence operations.
type UserRepository struct {
	db      *sql.DB
	dialect Dialect
	now     func() time.Time
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db *sql.DB, d Dialect) *UserRepository {
	return &UserRepository{
		db:      db,
		dialect: d,
		now:     func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
	}
}

// EnsureSchema creates the users table if it does not exist.
func (r *UserRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, r.dialect.createUsers); err != nil {
		return fmt.Errorf("create users table: %w", err)
	}
	return nil
}

// Insert stores a new user and sets its ID and CreatedAt.
// It returns ErrDuplicateEmail when the email is already registered.
func (r *UserRepository) Insert(ctx context.Context, user *model.User) error {
	_, err := r.FindByEmail(ctx, user.Email)
	switch {
	case err == nil:
		return ErrDuplicateEmail
	case !errors.Is(err, ErrUserNotFound):
		return err
	}

	createdAt := r.now()
	query := `INSERT INTO users (email, password, first_name, last_name, gender, age, nationality, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	args := []any{
		user.Email, user.PasswordHash,
		nullString(user.FirstName), nullString(user.LastName), nullString(user.Gender),
		nullInt(user.Age), nullString(user.Nationality), createdAt,
	}

	var id int64
	if r.dialect.returningID {
		err = r.db.QueryRowContext(ctx, r.dialect.Rebind(query+` RETURNING id`), args...).Scan(&id)
	} else {
		var result sql.Result
		result, err = r.db.ExecContext(ctx, r.dialect.Rebind(query), args...)
		if err == nil {
			id, err = result.LastInsertId()
		}
	}
	if err != nil {
		// The unique constraint is authoritative when two signups race past the check above.
		if r.dialect.isUniqueViolation(err) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("db error: %w", err)
	}

	user.ID = id
	user.CreatedAt = createdAt
	return nil
}

// FindByEmail retrieves a user by exact email match.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = ?`
	return r.scanOne(r.db.QueryRowContext(ctx, r.dialect.Rebind(query), email))
}

// FindByID retrieves a user by ID.
func (r *UserRepository) FindByID(ctx context.Context, id int64) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ?`
	return r.scanOne(r.db.QueryRowContext(ctx, r.dialect.Rebind(query), id))
}

func (r *UserRepository) scanOne(row *sql.Row) (*model.User, error) {
	var (
		user                                     model.User
		firstName, lastName, gender, nationality sql.NullString
		age                                      sql.NullInt64
		createdAt                                dbTime
	)

	err := row.Scan(
		&user.ID, &user.Email, &user.PasswordHash,
		&firstName, &lastName, &gender, &age, &nationality, &createdAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	user.FirstName = stringPtr(firstName)
	user.LastName = stringPtr(lastName)
	user.Gender = stringPtr(gender)
	user.Nationality = stringPtr(nationality)
	if age.Valid {
		v := int(age.Int64)
		user.Age = &v
	}
	user.CreatedAt = createdAt.Time

	return &user, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullInt(n *int) sql.NullInt64 {
	if n == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*n), Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
