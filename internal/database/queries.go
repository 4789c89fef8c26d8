package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/campushub/campushub/internal/types"
)

func (db *PgRepository) CreateAccount(params CreateAccountParams) (Account, error) {
	table, err := tableForRole(params.Role)
	if err != nil {
		return Account{}, err
	}

	res := db.conn.QueryRow(
		"INSERT INTO "+table+" (name, email, password_hash, department, created_at, updated_at) "+
			"VALUES ($1, $2, $3, NULLIF($4, ''), $5, $5) RETURNING id, name, email, created_at, updated_at",
		params.Name,
		params.Email,
		params.PasswordHash,
		params.Department,
		time.Now().UTC(),
	)

	a := Account{Role: params.Role}
	err = res.Scan(
		&a.Id,
		&a.Name,
		&a.Email,
		&a.CreatedAt,
		&a.UpdatedAt,
	)

	return a, err
}

func (db *PgRepository) GetAccountById(role types.Role, id int) (Account, error) {
	table, err := tableForRole(role)
	if err != nil {
		return Account{}, err
	}

	row := db.conn.QueryRow(
		"SELECT id, name, email, password_hash, department, created_at, updated_at FROM "+table+" "+
			"WHERE id = $1 LIMIT 1",
		id,
	)

	a := Account{Role: role}
	err = row.Scan(
		&a.Id,
		&a.Name,
		&a.Email,
		&a.PasswordHash,
		&a.Department,
		&a.CreatedAt,
		&a.UpdatedAt,
	)

	return a, err
}

func (db *PgRepository) GetAccountByEmail(role types.Role, email string) (Account, error) {
	table, err := tableForRole(role)
	if err != nil {
		return Account{}, err
	}

	row := db.conn.QueryRow(
		"SELECT id, name, email, password_hash, department, created_at, updated_at FROM "+table+" "+
			"WHERE email = $1 LIMIT 1",
		email,
	)

	a := Account{Role: role}
	err = row.Scan(
		&a.Id,
		&a.Name,
		&a.Email,
		&a.PasswordHash,
		&a.Department,
		&a.CreatedAt,
		&a.UpdatedAt,
	)

	return a, err
}

func (db *PgRepository) UpdateAccountProfile(params UpdateProfileParams) (Account, error) {
	table, err := tableForRole(params.Role)
	if err != nil {
		return Account{}, err
	}

	res := db.conn.QueryRow(
		"UPDATE "+table+" SET name = $2, department = NULLIF($3, ''), "+
			"password_hash = COALESCE(NULLIF($4, ''), password_hash), updated_at = $5 "+
			"WHERE id = $1 RETURNING id, name, email, department, created_at, updated_at",
		params.Id,
		params.Name,
		params.Department,
		params.PasswordHash,
		time.Now().UTC(),
	)

	a := Account{Role: params.Role}
	err = res.Scan(
		&a.Id,
		&a.Name,
		&a.Email,
		&a.Department,
		&a.CreatedAt,
		&a.UpdatedAt,
	)

	return a, err
}

func (db *PgRepository) UpdateAccountPassword(role types.Role, id int, passwordHash string) error {
	table, err := tableForRole(role)
	if err != nil {
		return err
	}

	res, err := db.conn.Exec(
		"UPDATE "+table+" SET password_hash = $2, updated_at = $3 WHERE id = $1",
		id,
		passwordHash,
		time.Now().UTC(),
	)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}

	return nil
}

func (db *PgRepository) CreateTask(params CreateTaskParams) (Task, error) {
	res := db.conn.QueryRow(
		"INSERT INTO tasks (title, description, assigned_to, assigned_by, status, due_date, created_at, updated_at) "+
			"VALUES ($1, $2, $3, $4, 'pending', $5, $6, $6) "+
			"RETURNING id, title, description, assigned_to, assigned_by, status, due_date, created_at, updated_at",
		params.Title,
		params.Description,
		params.AssignedTo,
		params.AssignedBy,
		params.DueDate,
		time.Now().UTC(),
	)

	var t Task
	err := res.Scan(
		&t.Id,
		&t.Title,
		&t.Description,
		&t.AssignedTo,
		&t.AssignedBy,
		&t.Status,
		&t.DueDate,
		&t.CreatedAt,
		&t.UpdatedAt,
	)

	return t, err
}

func (db *PgRepository) ListTasks() ([]Task, error) {
	return db.listTasks("SELECT id, title, description, assigned_to, assigned_by, status, due_date, created_at, updated_at "+
		"FROM tasks ORDER BY due_date ASC", nil)
}

func (db *PgRepository) ListTasksForFaculty(facultyId int) ([]Task, error) {
	return db.listTasks("SELECT id, title, description, assigned_to, assigned_by, status, due_date, created_at, updated_at "+
		"FROM tasks WHERE assigned_to = $1 ORDER BY due_date ASC", []any{facultyId})
}

func (db *PgRepository) listTasks(query string, args []any) ([]Task, error) {
	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []Task
	for rows.Next() {
		var t Task
		if err := rows.Scan(
			&t.Id,
			&t.Title,
			&t.Description,
			&t.AssignedTo,
			&t.AssignedBy,
			&t.Status,
			&t.DueDate,
			&t.CreatedAt,
			&t.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, t)
	}

	return tasks, rows.Err()
}

func (db *PgRepository) UpdateTaskStatus(taskId int, status string) (Task, error) {
	res := db.conn.QueryRow(
		"UPDATE tasks SET status = $2, updated_at = $3 WHERE id = $1 "+
			"RETURNING id, title, description, assigned_to, assigned_by, status, due_date, created_at, updated_at",
		taskId,
		status,
		time.Now().UTC(),
	)

	var t Task
	err := res.Scan(
		&t.Id,
		&t.Title,
		&t.Description,
		&t.AssignedTo,
		&t.AssignedBy,
		&t.Status,
		&t.DueDate,
		&t.CreatedAt,
		&t.UpdatedAt,
	)

	return t, err
}

func (db *PgRepository) CreateTicket(params CreateTicketParams) (Ticket, error) {
	res := db.conn.QueryRow(
		"INSERT INTO tickets (reference, student_id, subject, body, status, created_at, updated_at) "+
			"VALUES ($1, $2, $3, $4, 'open', $5, $5) "+
			"RETURNING id, reference, student_id, subject, body, status, created_at, updated_at",
		params.Reference,
		params.StudentId,
		params.Subject,
		params.Body,
		time.Now().UTC(),
	)

	var tk Ticket
	err := res.Scan(
		&tk.Id,
		&tk.Reference,
		&tk.StudentId,
		&tk.Subject,
		&tk.Body,
		&tk.Status,
		&tk.CreatedAt,
		&tk.UpdatedAt,
	)

	return tk, err
}

func (db *PgRepository) ListTickets() ([]Ticket, error) {
	return db.listTickets("SELECT id, reference, student_id, subject, body, status, created_at, updated_at "+
		"FROM tickets ORDER BY created_at DESC", nil)
}

func (db *PgRepository) ListTicketsForStudent(studentId int) ([]Ticket, error) {
	return db.listTickets("SELECT id, reference, student_id, subject, body, status, created_at, updated_at "+
		"FROM tickets WHERE student_id = $1 ORDER BY created_at DESC", []any{studentId})
}

func (db *PgRepository) listTickets(query string, args []any) ([]Ticket, error) {
	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tickets: %w", err)
	}
	defer rows.Close()

	var tickets []Ticket
	for rows.Next() {
		var tk Ticket
		if err := rows.Scan(
			&tk.Id,
			&tk.Reference,
			&tk.StudentId,
			&tk.Subject,
			&tk.Body,
			&tk.Status,
			&tk.CreatedAt,
			&tk.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan ticket: %w", err)
		}
		tickets = append(tickets, tk)
	}

	return tickets, rows.Err()
}

func (db *PgRepository) UpdateTicketStatus(ticketId int, status string) (Ticket, error) {
	res := db.conn.QueryRow(
		"UPDATE tickets SET status = $2, updated_at = $3 WHERE id = $1 "+
			"RETURNING id, reference, student_id, subject, body, status, created_at, updated_at",
		ticketId,
		status,
		time.Now().UTC(),
	)

	var tk Ticket
	err := res.Scan(
		&tk.Id,
		&tk.Reference,
		&tk.StudentId,
		&tk.Subject,
		&tk.Body,
		&tk.Status,
		&tk.CreatedAt,
		&tk.UpdatedAt,
	)

	return tk, err
}

func (db *PgRepository) GetRoom(roomId int) (Room, error) {
	row := db.conn.QueryRow(
		"SELECT id, student_id, faculty_id, created_at, updated_at FROM chat_rooms "+
			"WHERE id = $1 LIMIT 1",
		roomId,
	)

	var r Room
	err := row.Scan(
		&r.Id,
		&r.StudentId,
		&r.FacultyId,
		&r.CreatedAt,
		&r.UpdatedAt,
	)

	return r, err
}

// GetOrCreateRoom returns the room for a student/faculty pair, creating it
// on first use. Lookup happens before insert so at most one room exists
// per pair.
func (db *PgRepository) GetOrCreateRoom(studentId, facultyId int) (Room, error) {
	row := db.conn.QueryRow(
		"SELECT id, student_id, faculty_id, created_at, updated_at FROM chat_rooms "+
			"WHERE student_id = $1 AND faculty_id = $2 LIMIT 1",
		studentId,
		facultyId,
	)

	var r Room
	err := row.Scan(
		&r.Id,
		&r.StudentId,
		&r.FacultyId,
		&r.CreatedAt,
		&r.UpdatedAt,
	)
	if err == nil {
		return r, nil
	}
	if err != sql.ErrNoRows {
		return Room{}, err
	}

	res := db.conn.QueryRow(
		"INSERT INTO chat_rooms (student_id, faculty_id, created_at, updated_at) "+
			"VALUES ($1, $2, $3, $3) RETURNING id, student_id, faculty_id, created_at, updated_at",
		studentId,
		facultyId,
		time.Now().UTC(),
	)

	err = res.Scan(
		&r.Id,
		&r.StudentId,
		&r.FacultyId,
		&r.CreatedAt,
		&r.UpdatedAt,
	)

	return r, err
}

func (db *PgRepository) ListRoomsForUser(id int, role types.Role) ([]Room, error) {
	col := "student_id"
	if role == types.RoleFaculty {
		col = "faculty_id"
	}

	rows, err := db.conn.Query(
		"SELECT id, student_id, faculty_id, created_at, updated_at FROM chat_rooms "+
			"WHERE "+col+" = $1 ORDER BY updated_at DESC",
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	defer rows.Close()

	var rooms []Room
	for rows.Next() {
		var r Room
		if err := rows.Scan(
			&r.Id,
			&r.StudentId,
			&r.FacultyId,
			&r.CreatedAt,
			&r.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan room: %w", err)
		}
		rooms = append(rooms, r)
	}

	return rooms, rows.Err()
}

func (db *PgRepository) CreateMessage(params CreateMessageParams) (Message, error) {
	res := db.conn.QueryRow(
		"INSERT INTO chat_messages (room_id, sender_id, sender_role, body, kind, is_read, created_at) "+
			"VALUES ($1, $2, $3, $4, $5, FALSE, $6) RETURNING id, created_at",
		params.RoomId,
		params.SenderId,
		params.SenderRole,
		params.Body,
		params.Kind,
		time.Now().UTC(),
	)

	m := Message{
		RoomId:     params.RoomId,
		SenderId:   params.SenderId,
		SenderRole: params.SenderRole,
		Body:       params.Body,
		Kind:       params.Kind,
	}
	err := res.Scan(&m.Id, &m.CreatedAt)

	return m, err
}

func (db *PgRepository) TouchRoom(roomId int) error {
	_, err := db.conn.Exec(
		"UPDATE chat_rooms SET updated_at = $2 WHERE id = $1",
		roomId,
		time.Now().UTC(),
	)
	return err
}

func (db *PgRepository) GetMessages(roomId, limit int) ([]Message, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := db.conn.Query(
		"SELECT id, room_id, sender_id, sender_role, body, kind, is_read, created_at FROM chat_messages "+
			"WHERE room_id = $1 ORDER BY created_at ASC LIMIT $2",
		roomId,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("get messages: %w", err)
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(
			&m.Id,
			&m.RoomId,
			&m.SenderId,
			&m.SenderRole,
			&m.Body,
			&m.Kind,
			&m.IsRead,
			&m.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, m)
	}

	return messages, rows.Err()
}

// MarkMessagesRead flags every message in the room not sent by the reader
// as read. A room holds exactly one student and one faculty member, so the
// sender role is enough to identify the counterpart.
func (db *PgRepository) MarkMessagesRead(roomId int, reader types.Role) error {
	_, err := db.conn.Exec(
		"UPDATE chat_messages SET is_read = TRUE WHERE room_id = $1 AND sender_role <> $2 AND is_read = FALSE",
		roomId,
		reader,
	)
	return err
}
