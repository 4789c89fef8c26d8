package directory

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/campushub/campushub/internal/database"
	"github.com/campushub/campushub/internal/types"
	"github.com/stretchr/testify/assert"
)

func TestFindByEmail(t *testing.T) {
	email := "someone@campushub.edu"

	t.Run("student account takes precedence", func(t *testing.T) {
		mockRepo := &database.MockRepository{}
		defer mockRepo.AssertExpectations(t)

		expected := database.Account{Id: 1, Role: types.RoleStudent, Email: email}
		mockRepo.On("GetAccountByEmail", types.RoleStudent, email).Return(expected, nil).Once()

		d := NewDirectory(mockRepo)
		account, err := d.FindByEmail(email)
		assert.NoError(t, err, "expected lookup to succeed")
		assert.Equal(t, expected, account, "expected the student account")
		mockRepo.AssertNotCalled(t, "GetAccountByEmail", types.RoleFaculty, email)
	})

	t.Run("falls through to faculty", func(t *testing.T) {
		mockRepo := &database.MockRepository{}
		defer mockRepo.AssertExpectations(t)

		expected := database.Account{Id: 7, Role: types.RoleFaculty, Email: email}
		mockRepo.On("GetAccountByEmail", types.RoleStudent, email).Return(database.Account{}, sql.ErrNoRows).Once()
		mockRepo.On("GetAccountByEmail", types.RoleFaculty, email).Return(expected, nil).Once()

		d := NewDirectory(mockRepo)
		account, err := d.FindByEmail(email)
		assert.NoError(t, err, "expected lookup to succeed")
		assert.Equal(t, expected, account, "expected the faculty account")
	})

	t.Run("falls through to admin", func(t *testing.T) {
		mockRepo := &database.MockRepository{}
		defer mockRepo.AssertExpectations(t)

		expected := database.Account{Id: 3, Role: types.RoleAdmin, Email: email}
		mockRepo.On("GetAccountByEmail", types.RoleStudent, email).Return(database.Account{}, sql.ErrNoRows).Once()
		mockRepo.On("GetAccountByEmail", types.RoleFaculty, email).Return(database.Account{}, sql.ErrNoRows).Once()
		mockRepo.On("GetAccountByEmail", types.RoleAdmin, email).Return(expected, nil).Once()

		d := NewDirectory(mockRepo)
		account, err := d.FindByEmail(email)
		assert.NoError(t, err, "expected lookup to succeed")
		assert.Equal(t, expected, account, "expected the admin account")
	})

	t.Run("no table matches", func(t *testing.T) {
		mockRepo := &database.MockRepository{}
		defer mockRepo.AssertExpectations(t)

		for _, role := range []types.Role{types.RoleStudent, types.RoleFaculty, types.RoleAdmin} {
			mockRepo.On("GetAccountByEmail", role, email).Return(database.Account{}, sql.ErrNoRows).Once()
		}

		d := NewDirectory(mockRepo)
		_, err := d.FindByEmail(email)
		assert.ErrorIs(t, err, sql.ErrNoRows, "expected sql.ErrNoRows when no account exists")
	})

	t.Run("store error stops the lookup", func(t *testing.T) {
		mockRepo := &database.MockRepository{}
		defer mockRepo.AssertExpectations(t)

		storeErr := errors.New("connection refused")
		mockRepo.On("GetAccountByEmail", types.RoleStudent, email).Return(database.Account{}, storeErr).Once()

		d := NewDirectory(mockRepo)
		_, err := d.FindByEmail(email)
		assert.ErrorIs(t, err, storeErr, "expected the store error to surface")
		mockRepo.AssertNotCalled(t, "GetAccountByEmail", types.RoleFaculty, email)
	})
}

func TestDisplayName(t *testing.T) {
	mockRepo := &database.MockRepository{}
	defer mockRepo.AssertExpectations(t)

	mockRepo.On("GetAccountById", types.RoleFaculty, 7).
		Return(database.Account{Id: 7, Name: "Prof. Moody"}, nil).Once()

	d := NewDirectory(mockRepo)
	name, err := d.DisplayName(7, types.RoleFaculty)
	assert.NoError(t, err, "expected lookup to succeed")
	assert.Equal(t, "Prof. Moody", name, "expected display name to match")
}

func TestUpdatePassword(t *testing.T) {
	mockRepo := &database.MockRepository{}
	defer mockRepo.AssertExpectations(t)

	mockRepo.On("UpdateAccountPassword", types.RoleStudent, 1, "new-hash").Return(nil).Once()

	d := NewDirectory(mockRepo)
	err := d.UpdatePassword(1, types.RoleStudent, "new-hash")
	assert.NoError(t, err, "expected update to succeed")
}
