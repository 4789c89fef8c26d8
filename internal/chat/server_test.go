package chat

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/campushub/campushub/internal/database"
	"github.com/campushub/campushub/internal/stats"
	"github.com/campushub/campushub/internal/testutil"
	"github.com/campushub/campushub/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockVerifier struct {
	mock.Mock
}

func (m *mockVerifier) Verify(token string) (types.Identity, error) {
	args := m.Called(token)
	return args.Get(0).(types.Identity), args.Error(1)
}

type mockResolver struct {
	mock.Mock
}

func (m *mockResolver) DisplayName(id int, role types.Role) (string, error) {
	args := m.Called(id, role)
	return args.String(0), args.Error(1)
}

func newTestServer(t *testing.T, db database.Repository, tokens TokenVerifier, names NameResolver) *ChatServer {
	statsMock := &stats.MockStatsUpdater{}
	statsMock.On("Incr", mock.Anything).Return().Maybe()
	statsMock.On("Decr", mock.Anything).Return().Maybe()

	cs, err := NewChatServer(testutil.TestLogger(t), db, tokens, names, statsMock)
	require.NoError(t, err, "expected chat server to be created")
	return cs
}

func newTestClient(t *testing.T) *Client {
	return &Client{
		send: make(chan *ServerMessage, 16),
		stop: make(chan struct{}),
		log:  testutil.TestLogger(t),
	}
}

// receive pops one queued message or fails the test.
func receive(t *testing.T, c *Client) *ServerMessage {
	t.Helper()
	select {
	case msg := <-c.send:
		return msg
	default:
		t.Fatal("expected a message queued for the client")
		return nil
	}
}

func assertNoMessage(t *testing.T, c *Client) {
	t.Helper()
	select {
	case msg := <-c.send:
		t.Fatalf("expected no message for the client, got %+v", msg)
	default:
	}
}

func join(t *testing.T, cs *ChatServer, c *Client, identity types.Identity) {
	t.Helper()

	token := fmt.Sprintf("token-%s-%d", identity.Role, identity.Id)
	cs.tokens.(*mockVerifier).On("Verify", token).Return(identity, nil).Once()

	cs.handleJoin(&ClientMessage{
		Join:   &Join{UserId: identity.Id, UserType: identity.Role, Token: token},
		client: c,
	})

	msg := receive(t, c)
	require.NotNil(t, msg.Joined, "expected a joined event, got %+v", msg)
}

func TestHandleJoin(t *testing.T) {
	identity := types.Identity{Id: 1, Role: types.RoleStudent}

	t.Run("missing token", func(t *testing.T) {
		cs := newTestServer(t, &database.MockRepository{}, &mockVerifier{}, &mockResolver{})
		c := newTestClient(t)

		cs.handleJoin(&ClientMessage{
			Join:   &Join{UserId: 1, UserType: types.RoleStudent},
			client: c,
		})

		msg := receive(t, c)
		require.NotNil(t, msg.Error, "expected an error event")
		assert.Equal(t, "authentication required", msg.Error.Message, "expected auth required")
		assert.Nil(t, c.identity, "expected no identity bound")
	})

	t.Run("invalid token", func(t *testing.T) {
		tokens := &mockVerifier{}
		tokens.On("Verify", "bad-token").Return(types.Identity{}, errors.New("invalid token")).Once()
		defer tokens.AssertExpectations(t)

		cs := newTestServer(t, &database.MockRepository{}, tokens, &mockResolver{})
		c := newTestClient(t)

		cs.handleJoin(&ClientMessage{
			Join:   &Join{UserId: 1, UserType: types.RoleStudent, Token: "bad-token"},
			client: c,
		})

		msg := receive(t, c)
		require.NotNil(t, msg.Error, "expected an error event")
		assert.Equal(t, "authentication failed", msg.Error.Message, "expected auth failed")
	})

	t.Run("claims do not match the declared identity", func(t *testing.T) {
		tokens := &mockVerifier{}
		tokens.On("Verify", "stolen-token").Return(types.Identity{Id: 2, Role: types.RoleStudent}, nil).Once()
		defer tokens.AssertExpectations(t)

		cs := newTestServer(t, &database.MockRepository{}, tokens, &mockResolver{})
		c := newTestClient(t)

		cs.handleJoin(&ClientMessage{
			Join:   &Join{UserId: 1, UserType: types.RoleStudent, Token: "stolen-token"},
			client: c,
		})

		msg := receive(t, c)
		require.NotNil(t, msg.Error, "expected an error event")
		assert.Equal(t, "authentication failed", msg.Error.Message, "expected auth failed")
		assert.Empty(t, cs.registry, "expected no registry entry")
	})

	t.Run("successful join binds identity and registers the connection", func(t *testing.T) {
		cs := newTestServer(t, &database.MockRepository{}, &mockVerifier{}, &mockResolver{})
		c := newTestClient(t)

		join(t, cs, c, identity)

		require.NotNil(t, c.identity, "expected identity bound to the connection")
		assert.Equal(t, identity, *c.identity, "expected the decoded identity")

		rec, ok := cs.registry[identity]
		require.True(t, ok, "expected a registry record")
		assert.Same(t, c, rec.client, "expected the record to reference the client")
		assert.True(t, rec.online, "expected the record to be online")
		assert.WithinDuration(t, time.Now(), rec.lastSeen, time.Second, "expected a fresh lastSeen")
	})

	t.Run("reconnect replaces the prior record", func(t *testing.T) {
		cs := newTestServer(t, &database.MockRepository{}, &mockVerifier{}, &mockResolver{})
		c1 := newTestClient(t)
		c2 := newTestClient(t)

		join(t, cs, c1, identity)
		join(t, cs, c2, identity)

		rec, ok := cs.registry[identity]
		require.True(t, ok, "expected a registry record")
		assert.Same(t, c2, rec.client, "expected the new connection to own the record")

		select {
		case <-c1.stop:
		default:
			t.Error("expected the prior connection to be stopped")
		}
	})
}

func TestHandleJoinChat(t *testing.T) {
	identity := types.Identity{Id: 1, Role: types.RoleStudent}
	room := database.Room{Id: 10, StudentId: 1, FacultyId: 7}

	t.Run("unauthenticated", func(t *testing.T) {
		cs := newTestServer(t, &database.MockRepository{}, &mockVerifier{}, &mockResolver{})
		c := newTestClient(t)

		cs.handleJoinChat(&ClientMessage{
			JoinChat: &JoinChat{RoomId: 10, UserId: 1, UserType: types.RoleStudent},
			client:   c,
		})

		msg := receive(t, c)
		require.NotNil(t, msg.Error, "expected an error event")
		assert.Equal(t, "not authenticated", msg.Error.Message, "expected unauthenticated")
	})

	t.Run("declared identity does not match the bound one", func(t *testing.T) {
		cs := newTestServer(t, &database.MockRepository{}, &mockVerifier{}, &mockResolver{})
		c := newTestClient(t)
		join(t, cs, c, identity)

		cs.handleJoinChat(&ClientMessage{
			JoinChat: &JoinChat{RoomId: 10, UserId: 99, UserType: types.RoleStudent},
			client:   c,
		})

		msg := receive(t, c)
		require.NotNil(t, msg.Error, "expected an error event")
		assert.Equal(t, "identity mismatch", msg.Error.Message, "expected identity mismatch")
	})

	t.Run("room not found", func(t *testing.T) {
		mockRepo := &database.MockRepository{}
		mockRepo.On("GetRoom", 10).Return(database.Room{}, sql.ErrNoRows).Once()
		defer mockRepo.AssertExpectations(t)

		cs := newTestServer(t, mockRepo, &mockVerifier{}, &mockResolver{})
		c := newTestClient(t)
		join(t, cs, c, identity)

		cs.handleJoinChat(&ClientMessage{
			JoinChat: &JoinChat{RoomId: 10, UserId: 1, UserType: types.RoleStudent},
			client:   c,
		})

		msg := receive(t, c)
		require.NotNil(t, msg.Error, "expected an error event")
		assert.Equal(t, "room not found", msg.Error.Message, "expected room not found")
	})

	t.Run("not a member of the room", func(t *testing.T) {
		mockRepo := &database.MockRepository{}
		mockRepo.On("GetRoom", 10).Return(database.Room{Id: 10, StudentId: 99, FacultyId: 7}, nil).Once()
		defer mockRepo.AssertExpectations(t)

		cs := newTestServer(t, mockRepo, &mockVerifier{}, &mockResolver{})
		c := newTestClient(t)
		join(t, cs, c, identity)

		cs.handleJoinChat(&ClientMessage{
			JoinChat: &JoinChat{RoomId: 10, UserId: 1, UserType: types.RoleStudent},
			client:   c,
		})

		msg := receive(t, c)
		require.NotNil(t, msg.Error, "expected an error event")
		assert.Equal(t, "identity mismatch", msg.Error.Message, "expected identity mismatch")
		assert.Empty(t, cs.rooms, "expected no membership entry")
	})

	t.Run("join is idempotent", func(t *testing.T) {
		mockRepo := &database.MockRepository{}
		mockRepo.On("GetRoom", 10).Return(room, nil).Twice()
		defer mockRepo.AssertExpectations(t)

		cs := newTestServer(t, mockRepo, &mockVerifier{}, &mockResolver{})
		c := newTestClient(t)
		join(t, cs, c, identity)

		joinChat := &ClientMessage{
			JoinChat: &JoinChat{RoomId: 10, UserId: 1, UserType: types.RoleStudent},
			client:   c,
		}
		cs.handleJoinChat(joinChat)
		cs.handleJoinChat(joinChat)

		assertNoMessage(t, c)
		require.Contains(t, cs.rooms, 10, "expected a membership entry for the room")
		assert.Len(t, cs.rooms[10], 1, "expected set semantics for repeated joins")
		assert.Contains(t, cs.rooms[10], identity, "expected the identity in the room set")
	})
}

func TestHandleSendMessage(t *testing.T) {
	student := types.Identity{Id: 1, Role: types.RoleStudent}
	faculty := types.Identity{Id: 7, Role: types.RoleFaculty}
	room := database.Room{Id: 10, StudentId: 1, FacultyId: 7}

	sendMsg := func(c *Client) *ClientMessage {
		return &ClientMessage{
			SendMessage: &SendMessage{
				RoomId:     10,
				SenderId:   7,
				SenderType: types.RoleFaculty,
				Message:    "office hours moved to 3pm",
				Kind:       "text",
			},
			client: c,
		}
	}

	t.Run("send before authentication persists nothing", func(t *testing.T) {
		mockRepo := &database.MockRepository{}
		cs := newTestServer(t, mockRepo, &mockVerifier{}, &mockResolver{})
		c := newTestClient(t)

		cs.handleSendMessage(sendMsg(c))

		msg := receive(t, c)
		require.NotNil(t, msg.Error, "expected an error event")
		assert.Equal(t, "not authenticated", msg.Error.Message, "expected unauthenticated")
		mockRepo.AssertNotCalled(t, "CreateMessage", mock.Anything)
	})

	t.Run("missing fields", func(t *testing.T) {
		cs := newTestServer(t, &database.MockRepository{}, &mockVerifier{}, &mockResolver{})
		c := newTestClient(t)
		join(t, cs, c, faculty)

		cs.handleSendMessage(&ClientMessage{
			SendMessage: &SendMessage{RoomId: 10, SenderId: 7, SenderType: types.RoleFaculty},
			client:      c,
		})

		msg := receive(t, c)
		require.NotNil(t, msg.Error, "expected an error event")
		assert.Equal(t, "missing required fields", msg.Error.Message, "expected missing fields")
	})

	t.Run("declared sender does not match the bound identity", func(t *testing.T) {
		mockRepo := &database.MockRepository{}
		cs := newTestServer(t, mockRepo, &mockVerifier{}, &mockResolver{})
		c := newTestClient(t)
		join(t, cs, c, student)

		cs.handleSendMessage(sendMsg(c))

		msg := receive(t, c)
		require.NotNil(t, msg.Error, "expected an error event")
		assert.Equal(t, "identity mismatch", msg.Error.Message, "expected identity mismatch")
		mockRepo.AssertNotCalled(t, "CreateMessage", mock.Anything)
	})

	t.Run("store failure reaches the sender only", func(t *testing.T) {
		mockRepo := &database.MockRepository{}
		mockRepo.On("GetRoom", 10).Return(room, nil).Twice()
		mockRepo.On("CreateMessage", mock.Anything).Return(database.Message{}, errors.New("db down")).Once()
		defer mockRepo.AssertExpectations(t)

		cs := newTestServer(t, mockRepo, &mockVerifier{}, &mockResolver{})

		sender := newTestClient(t)
		join(t, cs, sender, faculty)
		cs.handleJoinChat(&ClientMessage{
			JoinChat: &JoinChat{RoomId: 10, UserId: 7, UserType: types.RoleFaculty},
			client:   sender,
		})

		peer := newTestClient(t)
		join(t, cs, peer, student)
		cs.handleJoinChat(&ClientMessage{
			JoinChat: &JoinChat{RoomId: 10, UserId: 1, UserType: types.RoleStudent},
			client:   peer,
		})

		cs.handleSendMessage(sendMsg(sender))

		msg := receive(t, sender)
		require.NotNil(t, msg.Error, "expected an error event for the sender")
		assert.Equal(t, "store unavailable", msg.Error.Message, "expected store unavailable")
		assertNoMessage(t, peer)
	})

	t.Run("broadcasts the persisted message to connected members", func(t *testing.T) {
		stored := database.Message{
			Id:         55,
			RoomId:     10,
			SenderId:   7,
			SenderRole: types.RoleFaculty,
			Body:       "office hours moved to 3pm",
			Kind:       "text",
			CreatedAt:  time.Now().UTC(),
		}

		mockRepo := &database.MockRepository{}
		mockRepo.On("GetRoom", 10).Return(room, nil).Twice()
		mockRepo.On("CreateMessage", database.CreateMessageParams{
			RoomId:     10,
			SenderId:   7,
			SenderRole: types.RoleFaculty,
			Body:       "office hours moved to 3pm",
			Kind:       "text",
		}).Return(stored, nil).Once()
		mockRepo.On("TouchRoom", 10).Return(nil).Once()
		defer mockRepo.AssertExpectations(t)

		names := &mockResolver{}
		names.On("DisplayName", 7, types.RoleFaculty).Return("Prof. Moody", nil).Once()
		defer names.AssertExpectations(t)

		cs := newTestServer(t, mockRepo, &mockVerifier{}, names)

		sender := newTestClient(t)
		join(t, cs, sender, faculty)
		cs.handleJoinChat(&ClientMessage{
			JoinChat: &JoinChat{RoomId: 10, UserId: 7, UserType: types.RoleFaculty},
			client:   sender,
		})

		peer := newTestClient(t)
		join(t, cs, peer, student)
		cs.handleJoinChat(&ClientMessage{
			JoinChat: &JoinChat{RoomId: 10, UserId: 1, UserType: types.RoleStudent},
			client:   peer,
		})

		// a member that joined the room but has since disconnected
		cs.rooms[10][types.Identity{Id: 2, Role: types.RoleStudent}] = struct{}{}

		cs.handleSendMessage(sendMsg(sender))

		for _, c := range []*Client{sender, peer} {
			msg := receive(t, c)
			require.NotNil(t, msg.NewMessage, "expected a new_message event")
			assert.Equal(t, 55, msg.NewMessage.Id, "expected the persisted id")
			assert.Equal(t, "Prof. Moody", msg.NewMessage.SenderName, "expected the resolved sender name")
			assert.False(t, msg.NewMessage.IsRead, "expected the message to start unread")
			assertNoMessage(t, c)
		}
	})
}

func TestHandleDisconnect(t *testing.T) {
	identity := types.Identity{Id: 1, Role: types.RoleStudent}
	room := database.Room{Id: 10, StudentId: 1, FacultyId: 7}

	t.Run("removes the record and prunes room membership", func(t *testing.T) {
		mockRepo := &database.MockRepository{}
		mockRepo.On("GetRoom", 10).Return(room, nil).Once()
		defer mockRepo.AssertExpectations(t)

		cs := newTestServer(t, mockRepo, &mockVerifier{}, &mockResolver{})
		c := newTestClient(t)
		join(t, cs, c, identity)
		cs.handleJoinChat(&ClientMessage{
			JoinChat: &JoinChat{RoomId: 10, UserId: 1, UserType: types.RoleStudent},
			client:   c,
		})

		cs.handleDisconnect(c)

		assert.Empty(t, cs.registry, "expected the registry record to be removed")
		assert.Empty(t, cs.rooms, "expected room membership to be pruned")
	})

	t.Run("a replaced connection does not remove the new record", func(t *testing.T) {
		cs := newTestServer(t, &database.MockRepository{}, &mockVerifier{}, &mockResolver{})
		c1 := newTestClient(t)
		c2 := newTestClient(t)

		join(t, cs, c1, identity)
		join(t, cs, c2, identity)

		cs.handleDisconnect(c1)

		rec, ok := cs.registry[identity]
		require.True(t, ok, "expected the new record to remain")
		assert.Same(t, c2, rec.client, "expected the new connection to own the record")
	})

	t.Run("unauthenticated connection is a no-op", func(t *testing.T) {
		cs := newTestServer(t, &database.MockRepository{}, &mockVerifier{}, &mockResolver{})
		c := newTestClient(t)
		cs.clients[c] = struct{}{}

		cs.handleDisconnect(c)
		assert.Empty(t, cs.registry, "expected the registry to stay empty")
	})
}

func TestRunAndShutdown(t *testing.T) {
	cs := newTestServer(t, &database.MockRepository{}, &mockVerifier{}, &mockResolver{})
	go cs.Run()

	c := newTestClient(t)
	c.chatServer = cs
	cs.RegisterClient(c)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	err := cs.Shutdown(ctx)
	assert.NoError(t, err, "expected shutdown to complete before the deadline")

	select {
	case <-c.stop:
	case <-time.After(time.Second):
		t.Error("expected the client to be stopped on shutdown")
	}
}
