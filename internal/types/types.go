package types

import (
	"fmt"
	"time"
)

type Role string

const (
	RoleStudent Role = "student"
	RoleFaculty Role = "faculty"
	RoleAdmin   Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleFaculty, RoleAdmin:
		return true
	}
	return false
}

// Identity is the authenticated (id, role) pair issued by the token
// service. It keys the connection registry and room ownership checks.
type Identity struct {
	Id   int  `json:"id"`
	Role Role `json:"role"`
}

func (i Identity) String() string {
	return fmt.Sprintf("%s/%d", i.Role, i.Id)
}

type User struct {
	Id         int       `json:"id"`
	Role       Role      `json:"role"`
	Name       string    `json:"name"`
	Email      string    `json:"email,omitempty"`
	Department string    `json:"department,omitempty"`
	Password   string    `json:"-"`
	CreatedAt  time.Time `json:"created_at,omitempty"`
	UpdatedAt  time.Time `json:"updated_at,omitempty"`
}

type Task struct {
	Id          int       `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	AssignedTo  int       `json:"assigned_to"`
	AssignedBy  int       `json:"assigned_by"`
	Status      string    `json:"status"`
	DueDate     time.Time `json:"due_date"`
	CreatedAt   time.Time `json:"created_at,omitempty"`
	UpdatedAt   time.Time `json:"updated_at,omitempty"`
}

type Ticket struct {
	Id        int       `json:"id"`
	Reference string    `json:"reference"`
	StudentId int       `json:"student_id"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

type Room struct {
	Id        int       `json:"id"`
	StudentId int       `json:"student_id"`
	FacultyId int       `json:"faculty_id"`
	CreatedAt time.Time `json:"created_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

type Message struct {
	Id         int       `json:"id"`
	RoomId     int       `json:"room_id"`
	SenderId   int       `json:"sender_id"`
	SenderRole Role      `json:"sender_type"`
	SenderName string    `json:"sender_name,omitempty"`
	Body       string    `json:"message"`
	Kind       string    `json:"message_type"`
	IsRead     bool      `json:"is_read"`
	CreatedAt  time.Time `json:"created_at"`
}
