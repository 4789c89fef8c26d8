package database

import (
	"database/sql"
	"time"

	"github.com/campushub/campushub/internal/types"
)

type Account struct {
	Id           int
	Role         types.Role
	Name         string
	Email        string
	PasswordHash string
	Department   sql.NullString
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Task struct {
	Id          int
	Title       string
	Description string
	AssignedTo  int
	AssignedBy  int
	Status      string
	DueDate     time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Ticket struct {
	Id        int
	Reference string
	StudentId int
	Subject   string
	Body      string
	Status    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Room struct {
	Id        int
	StudentId int
	FacultyId int
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Message struct {
	Id         int
	RoomId     int
	SenderId   int
	SenderRole types.Role
	Body       string
	Kind       string
	IsRead     bool
	CreatedAt  time.Time
}

type CreateAccountParams struct {
	Role         types.Role
	Name         string
	Email        string
	PasswordHash string
	Department   string
}

type UpdateProfileParams struct {
	Role         types.Role
	Id           int
	Name         string
	Department   string
	PasswordHash string
}

type CreateTaskParams struct {
	Title       string
	Description string
	AssignedTo  int
	AssignedBy  int
	DueDate     time.Time
}

type CreateTicketParams struct {
	Reference string
	StudentId int
	Subject   string
	Body      string
}

type CreateMessageParams struct {
	RoomId     int
	SenderId   int
	SenderRole types.Role
	Body       string
	Kind       string
}
