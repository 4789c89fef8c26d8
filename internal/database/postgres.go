package database

import (
	"database/sql"
	"fmt"

	"github.com/campushub/campushub/internal/types"
)

type PgRepository struct {
	conn *sql.DB
}

func NewPgRepository(dsn string) (*PgRepository, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	return &PgRepository{conn: db}, nil
}

func (db *PgRepository) Ping() error {
	return db.conn.Ping()
}

func (db *PgRepository) Close() error {
	if db.conn != nil {
		return db.conn.Close()
	}
	return nil
}

// tableForRole maps a role to its credential table. Accounts live in three
// separate tables rather than one table with a role column.
func tableForRole(role types.Role) (string, error) {
	switch role {
	case types.RoleStudent:
		return "students", nil
	case types.RoleFaculty:
		return "faculty", nil
	case types.RoleAdmin:
		return "admins", nil
	default:
		return "", fmt.Errorf("unknown role %q", role)
	}
}
