package chat

import (
	"github.com/campushub/campushub/internal/types"
)

// ClientMessage is the envelope for events sent by a client. Exactly one
// of the event fields is set.
type ClientMessage struct {
	Join        *Join        `json:"join,omitempty"`
	JoinChat    *JoinChat    `json:"join_chat,omitempty"`
	SendMessage *SendMessage `json:"send_message,omitempty"`

	client *Client
}

// Join authenticates the connection. The token must decode to exactly
// (UserId, UserType).
type Join struct {
	UserId   int        `json:"user_id"`
	UserType types.Role `json:"user_type"`
	Token    string     `json:"token"`
}

// JoinChat subscribes the bound identity to a room's broadcasts.
type JoinChat struct {
	RoomId   int        `json:"room_id"`
	UserId   int        `json:"user_id"`
	UserType types.Role `json:"user_type"`
}

type SendMessage struct {
	RoomId     int        `json:"room_id"`
	SenderId   int        `json:"sender_id"`
	SenderType types.Role `json:"sender_type"`
	Message    string     `json:"message"`
	Kind       string     `json:"message_type"`
}

// ServerMessage is the envelope for events sent to a client. Exactly one
// field is set.
type ServerMessage struct {
	Joined     *Joined        `json:"joined,omitempty"`
	NewMessage *types.Message `json:"new_message,omitempty"`
	Error      *ErrorPayload  `json:"error,omitempty"`
}

type Joined struct {
	UserId   int        `json:"user_id"`
	UserType types.Role `json:"user_type"`
}

type ErrorPayload struct {
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}
