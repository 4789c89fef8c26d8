package database

import (
	"github.com/campushub/campushub/internal/types"
	"github.com/stretchr/testify/mock"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Ping() error {
	args := m.Called()
	return args.Error(0)
}
func (m *MockRepository) CreateAccount(params CreateAccountParams) (Account, error) {
	args := m.Called(params)
	return args.Get(0).(Account), args.Error(1)
}
func (m *MockRepository) GetAccountById(role types.Role, id int) (Account, error) {
	args := m.Called(role, id)
	return args.Get(0).(Account), args.Error(1)
}
func (m *MockRepository) GetAccountByEmail(role types.Role, email string) (Account, error) {
	args := m.Called(role, email)
	return args.Get(0).(Account), args.Error(1)
}
func (m *MockRepository) UpdateAccountProfile(params UpdateProfileParams) (Account, error) {
	args := m.Called(params)
	return args.Get(0).(Account), args.Error(1)
}
func (m *MockRepository) UpdateAccountPassword(role types.Role, id int, passwordHash string) error {
	args := m.Called(role, id, passwordHash)
	return args.Error(0)
}
func (m *MockRepository) CreateTask(params CreateTaskParams) (Task, error) {
	args := m.Called(params)
	return args.Get(0).(Task), args.Error(1)
}
func (m *MockRepository) ListTasks() ([]Task, error) {
	args := m.Called()
	return args.Get(0).([]Task), args.Error(1)
}
func (m *MockRepository) ListTasksForFaculty(facultyId int) ([]Task, error) {
	args := m.Called(facultyId)
	return args.Get(0).([]Task), args.Error(1)
}
func (m *MockRepository) UpdateTaskStatus(taskId int, status string) (Task, error) {
	args := m.Called(taskId, status)
	return args.Get(0).(Task), args.Error(1)
}
func (m *MockRepository) CreateTicket(params CreateTicketParams) (Ticket, error) {
	args := m.Called(params)
	return args.Get(0).(Ticket), args.Error(1)
}
func (m *MockRepository) ListTickets() ([]Ticket, error) {
	args := m.Called()
	return args.Get(0).([]Ticket), args.Error(1)
}
func (m *MockRepository) ListTicketsForStudent(studentId int) ([]Ticket, error) {
	args := m.Called(studentId)
	return args.Get(0).([]Ticket), args.Error(1)
}
func (m *MockRepository) UpdateTicketStatus(ticketId int, status string) (Ticket, error) {
	args := m.Called(ticketId, status)
	return args.Get(0).(Ticket), args.Error(1)
}
func (m *MockRepository) GetRoom(roomId int) (Room, error) {
	args := m.Called(roomId)
	return args.Get(0).(Room), args.Error(1)
}
func (m *MockRepository) GetOrCreateRoom(studentId, facultyId int) (Room, error) {
	args := m.Called(studentId, facultyId)
	return args.Get(0).(Room), args.Error(1)
}
func (m *MockRepository) ListRoomsForUser(id int, role types.Role) ([]Room, error) {
	args := m.Called(id, role)
	return args.Get(0).([]Room), args.Error(1)
}
func (m *MockRepository) CreateMessage(params CreateMessageParams) (Message, error) {
	args := m.Called(params)
	return args.Get(0).(Message), args.Error(1)
}
func (m *MockRepository) TouchRoom(roomId int) error {
	args := m.Called(roomId)
	return args.Error(0)
}
func (m *MockRepository) GetMessages(roomId, limit int) ([]Message, error) {
	args := m.Called(roomId, limit)
	return args.Get(0).([]Message), args.Error(1)
}
func (m *MockRepository) MarkMessagesRead(roomId int, reader types.Role) error {
	args := m.Called(roomId, reader)
	return args.Error(0)
}
