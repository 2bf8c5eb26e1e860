package repository

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
)

// Dialect captures the per-database differences of the users table.
type Dialect struct {
	Name   string
	Driver string

	createUsers       string
	numberedParams    bool
	returningID       bool
	isUniqueViolation func(error) bool
}

// Rebind rewrites ? placeholders into the dialect's parameter syntax.
func (d Dialect) Rebind(query string) string {
	if !d.numberedParams {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

var Postgres = Dialect{
	Name:   "postgres",
	Driver: "pgx",
	createUsers: `
		CREATE TABLE IF NOT EXISTS users (
			id SERIAL PRIMARY KEY,
			email VARCHAR(120) UNIQUE NOT NULL,
			password VARCHAR(128) NOT NULL,
			first_name VARCHAR(50),
			last_name VARCHAR(50),
			gender VARCHAR(10),
			age INTEGER,
			nationality VARCHAR(50),
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
	numberedParams: true,
	returningID:    true,
	isUniqueViolation: func(err error) bool {
		var pgErr *pgconn.PgError
		return errors.As(err, &pgErr) && pgErr.Code == "23505"
	},
}

var MySQL = Dialect{
	Name:   "mysql",
	Driver: "mysql",
	createUsers: `
		CREATE TABLE IF NOT EXISTS users (
			id INT AUTO_INCREMENT PRIMARY KEY,
			email VARCHAR(120) NOT NULL UNIQUE,
			password VARCHAR(128) NOT NULL,
			first_name VARCHAR(50),
			last_name VARCHAR(50),
			gender VARCHAR(10),
			age INT,
			nationality VARCHAR(50),
			created_at DATETIME(6) DEFAULT CURRENT_TIMESTAMP(6)
		)`,
	isUniqueViolation: func(err error) bool {
		var myErr *mysql.MySQLError
		return errors.As(err, &myErr) && myErr.Number == 1062
	},
}

var SQLite = Dialect{
	Name:   "sqlite",
	Driver: "sqlite",
	createUsers: `
		CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			email TEXT NOT NULL UNIQUE,
			password TEXT NOT NULL,
			first_name TEXT,
			last_name TEXT,
			gender TEXT,
			age INTEGER,
			nationality TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
	returningID: true,
	isUniqueViolation: func(err error) bool {
		var liteErr *sqlite.Error
		if !errors.As(err, &liteErr) {
			return false
		}
		// SQLITE_CONSTRAINT_UNIQUE, SQLITE_CONSTRAINT_PRIMARYKEY
		return liteErr.Code() == 2067 || liteErr.Code() == 1555
	},
}

// DialectFor returns the dialect registered under name.
func DialectFor(name string) (Dialect, error) {
	switch name {
	case Postgres.Name:
		return Postgres, nil
	case MySQL.Name:
		return MySQL, nil
	case SQLite.Name:
		return SQLite, nil
	}
	return Dialect{}, fmt.Errorf("unsupported database driver %q", name)
}
