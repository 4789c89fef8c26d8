// Package directory resolves accounts across the three credential tables
// (students, faculty, admins) behind a single lookup capability with a
// fixed precedence order.
package directory

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/campushub/campushub/internal/database"
	"github.com/campushub/campushub/internal/types"
)

// lookupOrder is the precedence rule: the first table with a matching row
// determines the owning role.
var lookupOrder = []types.Role{types.RoleStudent, types.RoleFaculty, types.RoleAdmin}

type Directory struct {
	db database.Repository
}

func NewDirectory(db database.Repository) *Directory {
	return &Directory{db: db}
}

// FindByEmail returns the account owning the address, checking students,
// then faculty, then admins. Returns sql.ErrNoRows if no table matches.
func (d *Directory) FindByEmail(email string) (database.Account, error) {
	for _, role := range lookupOrder {
		account, err := d.db.GetAccountByEmail(role, email)
		if err == nil {
			return account, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return database.Account{}, fmt.Errorf("lookup %s account: %w", role, err)
		}
	}

	return database.Account{}, sql.ErrNoRows
}

func (d *Directory) DisplayName(id int, role types.Role) (string, error) {
	account, err := d.db.GetAccountById(role, id)
	if err != nil {
		return "", err
	}

	return account.Name, nil
}

func (d *Directory) UpdatePassword(id int, role types.Role, passwordHash string) error {
	return d.db.UpdateAccountPassword(role, id, passwordHash)
}
