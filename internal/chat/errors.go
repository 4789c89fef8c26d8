package chat

// Error events are only ever sent to the originating connection, never
// broadcast.

func ErrAuthRequired() *ServerMessage {
	return &ServerMessage{
		Error: &ErrorPayload{Message: "authentication required"},
	}
}

func ErrAuthInvalid() *ServerMessage {
	return &ServerMessage{
		Error: &ErrorPayload{Message: "authentication failed"},
	}
}

func ErrUnauthenticated() *ServerMessage {
	return &ServerMessage{
		Error: &ErrorPayload{Message: "not authenticated"},
	}
}

func ErrIdentityMismatch() *ServerMessage {
	return &ServerMessage{
		Error: &ErrorPayload{Message: "identity mismatch"},
	}
}

func ErrMissingFields() *ServerMessage {
	return &ServerMessage{
		Error: &ErrorPayload{Message: "missing required fields"},
	}
}

func ErrRoomNotFound() *ServerMessage {
	return &ServerMessage{
		Error: &ErrorPayload{Message: "room not found"},
	}
}

func ErrStoreUnavailable(details string) *ServerMessage {
	return &ServerMessage{
		Error: &ErrorPayload{Message: "store unavailable", Details: details},
	}
}

func ErrInvalidMessage() *ServerMessage {
	return &ServerMessage{
		Error: &ErrorPayload{Message: "invalid message format"},
	}
}

func ErrServerBusy() *ServerMessage {
	return &ServerMessage{
		Error: &ErrorPayload{Message: "server busy"},
	}
}
