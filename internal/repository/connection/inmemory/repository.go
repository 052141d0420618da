package inmemory

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"golang.org/x/exp/maps"

	"github.com/flatclass/classroom/internal/repository/connection"
)

// conn serializes writes, a websocket allows one writer at a time.
type conn struct {
	mu sync.Mutex
	ws connection.Conn
}

type repo struct {
	rooms  map[string]map[string]*conn
	mu     sync.RWMutex
	logger *slog.Logger
}

func NewRepo(logger *slog.Logger) *repo {
	return &repo{
		rooms:  make(map[string]map[string]*conn),
		logger: logger,
	}
}

func (r *repo) Add(ctx context.Context, roomID, memberID string, ws connection.Conn) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.logger.DebugContext(ctx, "called", "room_id", roomID, "member_id", memberID)
	members, ok := r.rooms[roomID]
	if !ok {
		members = make(map[string]*conn)
		r.rooms[roomID] = members
	}

	if _, ok := members[memberID]; ok {
		r.logger.DebugContext(ctx, "returned", "error", connection.ErrAlreadyExists)
		return connection.ErrAlreadyExists
	}

	members[memberID] = &conn{ws: ws}
	return nil
}

func (r *repo) Remove(ctx context.Context, roomID, memberID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.logger.DebugContext(ctx, "called", "room_id", roomID, "member_id", memberID)
	members := r.rooms[roomID]
	if _, ok := members[memberID]; !ok {
		r.logger.DebugContext(ctx, "returned", "error", connection.ErrNotFound)
		return connection.ErrNotFound
	}

	delete(members, memberID)
	if len(members) == 0 {
		delete(r.rooms, roomID)
	}

	return nil
}

// GetMemberIDs lists the connected members of roomID in ascending order.
func (r *repo) GetMemberIDs(ctx context.Context, roomID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := maps.Keys(r.rooms[roomID])
	slices.Sort(ids)
	return ids
}

func (r *repo) Send(ctx context.Context, roomID, memberID string, v any) error {
	r.mu.RLock()
	c, ok := r.rooms[roomID][memberID]
	r.mu.RUnlock()

	if !ok {
		r.logger.DebugContext(ctx, "returned", "error", connection.ErrNotFound, "member_id", memberID)
		return connection.ErrNotFound
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	return c.ws.WriteJSON(v)
}
