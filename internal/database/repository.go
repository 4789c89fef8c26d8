package database

import "github.com/campushub/campushub/internal/types"

type Repository interface {
	Ping() error
	CreateAccount(params CreateAccountParams) (Account, error)
	GetAccountById(role types.Role, id int) (Account, error)
	GetAccountByEmail(role types.Role, email string) (Account, error)
	UpdateAccountProfile(params UpdateProfileParams) (Account, error)
	UpdateAccountPassword(role types.Role, id int, passwordHash string) error
	CreateTask(params CreateTaskParams) (Task, error)
	ListTasks() ([]Task, error)
	ListTasksForFaculty(facultyId int) ([]Task, error)
	UpdateTaskStatus(taskId int, status string) (Task, error)
	CreateTicket(params CreateTicketParams) (Ticket, error)
	ListTickets() ([]Ticket, error)
	ListTicketsForStudent(studentId int) ([]Ticket, error)
	UpdateTicketStatus(ticketId int, status string) (Ticket, error)
	GetRoom(roomId int) (Room, error)
	GetOrCreateRoom(studentId, facultyId int) (Room, error)
	ListRoomsForUser(id int, role types.Role) ([]Room, error)
	CreateMessage(params CreateMessageParams) (Message, error)
	TouchRoom(roomId int) error
	GetMessages(roomId, limit int) ([]Message, error)
	MarkMessagesRead(roomId int, reader types.Role) error
}
