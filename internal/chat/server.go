// Package chat implements the realtime messaging coordinator: it
// authenticates inbound connections, tracks live connections and room
// membership, and persists and broadcasts chat messages. All registry and
// membership state is owned by the coordinator goroutine; client pumps
// only hand events to it over channels.
package chat

import (
	"context"
	"log"
	"time"

	"github.com/campushub/campushub/internal/database"
	"github.com/campushub/campushub/internal/stats"
	"github.com/campushub/campushub/internal/types"
)

// TokenVerifier is the opaque signed-token collaborator.
type TokenVerifier interface {
	Verify(token string) (types.Identity, error)
}

// NameResolver resolves a display name for a message sender.
type NameResolver interface {
	DisplayName(id int, role types.Role) (string, error)
}

// connRecord is a live connection's registry entry. Exactly one record
// exists per connected identity; a reconnect replaces the prior record.
type connRecord struct {
	client   *Client
	online   bool
	lastSeen time.Time
}

type ChatServer struct {
	log    *log.Logger
	db     database.Repository
	tokens TokenVerifier
	names  NameResolver
	stats  stats.StatsProvider

	RegisterChan   chan *Client
	deRegisterChan chan *Client
	eventChan      chan *ClientMessage

	// coordinator-goroutine state: the set of raw connections, the
	// connection registry keyed by identity, and the room membership index
	clients  map[*Client]struct{}
	registry map[types.Identity]*connRecord
	rooms    map[int]map[types.Identity]struct{}

	stop chan struct{}
	done chan struct{}
}

func NewChatServer(logger *log.Logger, db database.Repository, tokens TokenVerifier, names NameResolver, statsUpdater stats.StatsProvider) (*ChatServer, error) {
	return &ChatServer{
		log:            logger,
		db:             db,
		tokens:         tokens,
		names:          names,
		stats:          statsUpdater,
		RegisterChan:   make(chan *Client),
		deRegisterChan: make(chan *Client, 64),
		eventChan:      make(chan *ClientMessage, 256),
		clients:        make(map[*Client]struct{}),
		registry:       make(map[types.Identity]*connRecord),
		rooms:          make(map[int]map[types.Identity]struct{}),
		stop:           make(chan struct{}),
		done:           make(chan struct{}),
	}, nil
}

// Run processes connection events to completion, one at a time, so the
// registry and membership index never observe partial updates.
func (cs *ChatServer) Run() {
	for {
		select {
		case client := <-cs.RegisterChan:
			cs.clients[client] = struct{}{}
		case client := <-cs.deRegisterChan:
			cs.handleDisconnect(client)
		case msg := <-cs.eventChan:
			switch {
			case msg.Join != nil:
				cs.handleJoin(msg)
			case msg.JoinChat != nil:
				cs.handleJoinChat(msg)
			case msg.SendMessage != nil:
				cs.handleSendMessage(msg)
			default:
				msg.client.queueMessage(ErrInvalidMessage())
			}
		case <-cs.stop:
			cs.log.Println("closing client connections")
			for client := range cs.clients {
				client.stopClient()
			}

			close(cs.done)
			return
		}
	}
}

// handleJoin authenticates the connection. On success the identity is
// bound to the connection for the remainder of its life and becomes the
// sole authorization basis for every subsequent event.
func (cs *ChatServer) handleJoin(msg *ClientMessage) {
	c := msg.client

	if msg.Join.Token == "" {
		c.queueMessage(ErrAuthRequired())
		return
	}

	identity, err := cs.tokens.Verify(msg.Join.Token)
	if err != nil {
		cs.log.Printf("token verification failed: %v", err)
		c.queueMessage(ErrAuthInvalid())
		return
	}

	// the decoded identity must exactly match the claimed one
	if identity.Id != msg.Join.UserId || identity.Role != msg.Join.UserType {
		c.queueMessage(ErrAuthInvalid())
		return
	}

	// a reconnecting user replaces the prior record
	if prior, ok := cs.registry[identity]; ok && prior.client != c {
		cs.log.Printf("replacing connection for %s", identity)
		prior.client.stopClient()
		delete(cs.clients, prior.client)
	} else if !ok {
		cs.stats.Incr(stats.ActiveConnections)
	}

	cs.registry[identity] = &connRecord{
		client:   c,
		online:   true,
		lastSeen: time.Now(),
	}
	c.identity = &identity

	cs.log.Printf("authenticated connection for %s", identity)
	c.queueMessage(&ServerMessage{
		Joined: &Joined{UserId: identity.Id, UserType: identity.Role},
	})
}

// handleJoinChat subscribes the bound identity to a room after checking
// that the room exists and the identity is one of its two members.
func (cs *ChatServer) handleJoinChat(msg *ClientMessage) {
	c := msg.client

	if c.identity == nil {
		c.queueMessage(ErrUnauthenticated())
		return
	}

	if msg.JoinChat.UserId != c.identity.Id || msg.JoinChat.UserType != c.identity.Role {
		c.queueMessage(ErrIdentityMismatch())
		return
	}

	room, err := cs.db.GetRoom(msg.JoinChat.RoomId)
	if err != nil {
		cs.log.Printf("GetRoom %d: %v", msg.JoinChat.RoomId, err)
		c.queueMessage(ErrRoomNotFound())
		return
	}

	if !cs.isRoomMember(room, *c.identity) {
		c.queueMessage(ErrIdentityMismatch())
		return
	}

	members, ok := cs.rooms[room.Id]
	if !ok {
		members = make(map[types.Identity]struct{})
		cs.rooms[room.Id] = members
	}
	members[*c.identity] = struct{}{}

	cs.touchRecord(*c.identity)
	cs.log.Printf("%s joined room %d", c.identity, room.Id)
}

func (cs *ChatServer) isRoomMember(room database.Room, identity types.Identity) bool {
	switch identity.Role {
	case types.RoleStudent:
		return room.StudentId == identity.Id
	case types.RoleFaculty:
		return room.FacultyId == identity.Id
	}
	return false
}

// handleSendMessage persists the message, bumps the room's updated_at,
// and broadcasts the stored payload to every currently connected member
// of the room. Delivery is best effort: offline members are not queued.
func (cs *ChatServer) handleSendMessage(msg *ClientMessage) {
	c := msg.client
	sm := msg.SendMessage

	if c.identity == nil {
		c.queueMessage(ErrUnauthenticated())
		return
	}

	if sm.RoomId == 0 || sm.Message == "" {
		c.queueMessage(ErrMissingFields())
		return
	}

	if sm.SenderId != c.identity.Id || sm.SenderType != c.identity.Role {
		c.queueMessage(ErrIdentityMismatch())
		return
	}

	kind := sm.Kind
	if kind == "" {
		kind = "text"
	}

	stored, err := cs.db.CreateMessage(database.CreateMessageParams{
		RoomId:     sm.RoomId,
		SenderId:   c.identity.Id,
		SenderRole: c.identity.Role,
		Body:       sm.Message,
		Kind:       kind,
	})
	if err != nil {
		cs.log.Printf("CreateMessage: %v", err)
		c.queueMessage(ErrStoreUnavailable("message not saved"))
		return
	}

	if err := cs.db.TouchRoom(sm.RoomId); err != nil {
		cs.log.Printf("TouchRoom %d: %v", sm.RoomId, err)
	}

	senderName, err := cs.names.DisplayName(c.identity.Id, c.identity.Role)
	if err != nil {
		cs.log.Printf("DisplayName %s: %v", c.identity, err)
	}

	payload := &ServerMessage{
		NewMessage: &types.Message{
			Id:         stored.Id,
			RoomId:     stored.RoomId,
			SenderId:   stored.SenderId,
			SenderRole: stored.SenderRole,
			SenderName: senderName,
			Body:       stored.Body,
			Kind:       stored.Kind,
			IsRead:     false,
			CreatedAt:  stored.CreatedAt,
		},
	}

	cs.touchRecord(*c.identity)
	cs.broadcast(sm.RoomId, payload)
	cs.stats.Incr(stats.MessagesSent)
}

// broadcast delivers msg to every member of the room that currently has a
// registry entry.
func (cs *ChatServer) broadcast(roomId int, msg *ServerMessage) {
	for identity := range cs.rooms[roomId] {
		rec, ok := cs.registry[identity]
		if !ok {
			continue
		}

		if !rec.client.queueMessage(msg) {
			cs.log.Printf("dropping message for %s, send queue full", identity)
		}
	}
}

// handleDisconnect removes the connection's registry record and prunes
// its identity from every room membership set, keeping both structures
// bounded by the number of live connections.
func (cs *ChatServer) handleDisconnect(c *Client) {
	delete(cs.clients, c)

	if c.identity == nil {
		return
	}

	rec, ok := cs.registry[*c.identity]
	if !ok || rec.client != c {
		// a reconnect already replaced this record
		return
	}

	delete(cs.registry, *c.identity)
	for roomId, members := range cs.rooms {
		delete(members, *c.identity)
		if len(members) == 0 {
			delete(cs.rooms, roomId)
		}
	}

	cs.stats.Decr(stats.ActiveConnections)
	cs.log.Printf("removed connection for %s", c.identity)
}

func (cs *ChatServer) touchRecord(identity types.Identity) {
	if rec, ok := cs.registry[identity]; ok {
		rec.lastSeen = time.Now()
	}
}

// RegisterClient adds a freshly upgraded, not yet authenticated
// connection.
func (cs *ChatServer) RegisterClient(c *Client) {
	cs.RegisterChan <- c
}

func (cs *ChatServer) Shutdown(ctx context.Context) error {
	close(cs.stop)

	select {
	case <-cs.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
