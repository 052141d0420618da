package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/flatclass/classroom/internal/domain"
	"github.com/flatclass/classroom/internal/rtm"
	"github.com/flatclass/classroom/pkg/ctxlogger"
)

// Store is this client's view of one room: the session, the roster of
// present participants and the local device config. All state changes go
// through s.mu; directory, persistence and transport calls never hold it.
type Store struct {
	directory Directory
	messenger Messenger
	devices   DeviceConfigRepo
	recording Recording
	logger    *slog.Logger

	// serializes the device config read-copy-write across its persistence
	deviceMu sync.Mutex

	mu      sync.Mutex
	gen     uint64
	cancel  context.CancelFunc
	joined  bool
	session domain.RoomSession
	roster  map[string]domain.Participant
	cache   map[string]domain.Participant
	device  domain.DeviceConfig

	// bumped by every removal; a lookup only adds ids whose count is unchanged
	removals map[string]uint64
	// set once a channel status or the owner decided the room status
	statusSynced bool

	version uint64
	last    Snapshot
	subs    map[int]chan Snapshot
	nextSub int
}

// NewStore wires a store to its collaborators. recording may be nil.
func NewStore(directory Directory, messenger Messenger, devices DeviceConfigRepo, recording Recording, logger *slog.Logger) *Store {
	return &Store{
		directory: directory,
		messenger: messenger,
		devices:   devices,
		recording: recording,
		logger:    logger,
		roster:    make(map[string]domain.Participant),
		cache:     make(map[string]domain.Participant),
		removals:  make(map[string]uint64),
		subs:      make(map[int]chan Snapshot),
	}
}

// Join starts a session for currentUserID in roomID, superseding any
// previous one. Room info, the own profile and the stored device config
// are fetched in the background.
func (s *Store) Join(ctx context.Context, roomID, currentUserID string) error {
	if roomID == "" || currentUserID == "" {
		return errors.New("room id and user id are required")
	}

	s.mu.Lock()
	s.resetLocked()
	s.gen++
	gen := s.gen

	sessionCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	sessionCtx = ctxlogger.AppendCtx(sessionCtx, slog.String("room_id", roomID))
	s.cancel = cancel
	s.joined = true
	s.session = domain.NewRoomSession(roomID, currentUserID)
	s.device = domain.DeviceConfig{RoomID: roomID}
	s.publishLocked()
	s.mu.Unlock()

	s.logger.InfoContext(sessionCtx, "joined room", "user_id", currentUserID)

	if s.recording != nil {
		s.recording.Reset(sessionCtx, roomID, s.Participants)
	}

	go s.loadRoomInfo(sessionCtx, gen, roomID)
	go s.loadDeviceConfig(sessionCtx, gen, roomID)
	go func() {
		if err := s.ResolveParticipants(sessionCtx, []string{currentUserID}); err != nil {
			s.logger.WarnContext(sessionCtx, "failed to resolve own profile", "error", err)
		}
	}()

	return nil
}

// Leave cancels pending lookups and the record timer and clears the state.
// Results of work started before Leave are discarded.
func (s *Store) Leave() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.joined {
		return
	}
	s.resetLocked()
	s.publishLocked()
}

func (s *Store) resetLocked() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.gen++
	s.joined = false
	s.session = domain.RoomSession{}
	s.roster = make(map[string]domain.Participant)
	s.cache = make(map[string]domain.Participant)
	s.removals = make(map[string]uint64)
	s.statusSynced = false
	s.device = domain.DeviceConfig{}
}

// current reports whether gen is still the live session, s.mu must be held.
func (s *Store) currentLocked(gen uint64) bool {
	return s.joined && s.gen == gen
}

func (s *Store) loadRoomInfo(ctx context.Context, gen uint64, roomID string) {
	info, err := s.directory.GetRoomInfo(ctx, roomID)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to get room info", "error", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.currentLocked(gen) || ctx.Err() != nil {
		return
	}

	status := s.session.Status
	s.session.ApplyInfo(info)
	if s.statusSynced {
		s.session.Status = status
	}
	for id, p := range s.roster {
		p.SetOwner(info.OwnerID)
		s.roster[id] = p
	}
	for id, p := range s.cache {
		p.SetOwner(info.OwnerID)
		s.cache[id] = p
	}
	s.publishLocked()
}

func (s *Store) loadDeviceConfig(ctx context.Context, gen uint64, roomID string) {
	s.deviceMu.Lock()
	defer s.deviceMu.Unlock()

	cfg, err := s.devices.GetDeviceConfig(ctx, roomID)
	if err != nil {
		if !errors.Is(err, domain.ErrDeviceConfigNotFound) {
			s.logger.WarnContext(ctx, "failed to get device config", "error", err)
		}
		return
	}
	cfg.RoomID = roomID

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.currentLocked(gen) || ctx.Err() != nil {
		return
	}

	s.device = cfg
	s.applyOwnDeviceLocked()
	s.publishLocked()
}

func (s *Store) applyOwnDeviceLocked() {
	if p, ok := s.roster[s.session.CurrentUserID]; ok {
		p.AudioOpen = s.device.EnableAudio
		p.VideoOpen = s.device.EnableVideo
		s.roster[p.UserID] = p
	}
}

// ResolveParticipants adds ids to the roster. Uncached ids are looked up
// in a single directory call and the roster changes once, after the lookup.
// Ids removed while the lookup runs are cached but stay out of the roster.
// A failed lookup leaves those ids out; the error is returned and not retried.
func (s *Store) ResolveParticipants(ctx context.Context, ids []string) error {
	s.mu.Lock()
	if !s.joined {
		s.mu.Unlock()
		return domain.ErrNotJoined
	}
	gen := s.gen
	roomID := s.session.RoomID

	seen := make(map[string]uint64, len(ids))
	var hits, missing []string
	for _, id := range ids {
		if _, dup := seen[id]; id == "" || dup {
			continue
		}
		seen[id] = s.removals[id]
		if _, ok := s.cache[id]; ok {
			hits = append(hits, id)
		} else {
			missing = append(missing, id)
		}
	}

	if len(missing) == 0 {
		if s.addToRosterLocked(hits, seen) {
			s.applyOwnDeviceLocked()
			s.publishLocked()
		}
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	profiles, lookupErr := s.directory.GetRoomUsers(ctx, roomID, missing)
	if lookupErr != nil {
		lookupErr = fmt.Errorf("failed to get room users: %w", lookupErr)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.currentLocked(gen) {
		return lookupErr
	}

	for _, id := range missing {
		profile, ok := profiles[id]
		if !ok {
			if lookupErr == nil {
				s.logger.DebugContext(ctx, "user not found in directory", "user_id", id)
			}
			continue
		}
		p := domain.NewParticipant(id, profile)
		p.SetOwner(s.session.OwnerID)
		s.cache[id] = p
		hits = append(hits, id)
	}

	if s.addToRosterLocked(hits, seen) {
		s.applyOwnDeviceLocked()
		s.publishLocked()
	}

	return lookupErr
}

// addToRosterLocked copies cached ids into the roster unless they were
// removed since seen was taken.
func (s *Store) addToRosterLocked(ids []string, seen map[string]uint64) bool {
	added := false
	for _, id := range ids {
		if _, present := s.roster[id]; present {
			continue
		}
		if s.removals[id] != seen[id] {
			continue
		}
		p, ok := s.cache[id]
		if !ok {
			continue
		}
		s.roster[id] = p
		added = true
	}
	return added
}

// RemoveParticipant drops userID from the roster, the cache keeps it.
func (s *Store) RemoveParticipant(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.joined {
		return
	}
	s.removals[userID]++

	if _, ok := s.roster[userID]; !ok {
		return
	}
	delete(s.roster, userID)
	s.publishLocked()
}

// Participants returns the roster sorted by user id.
func (s *Store) Participants() []domain.Participant {
	s.mu.Lock()
	defer s.mu.Unlock()

	return sortedRoster(s.roster)
}

// SetDeviceEnabled persists the new device config first. If that fails
// nothing changes in memory and the error is returned. Otherwise the own
// roster entry is updated and a DeviceState is broadcast.
func (s *Store) SetDeviceEnabled(ctx context.Context, kind domain.DeviceKind, enabled bool) error {
	s.deviceMu.Lock()
	defer s.deviceMu.Unlock()

	s.mu.Lock()
	if !s.joined {
		s.mu.Unlock()
		return domain.ErrNotJoined
	}
	gen := s.gen
	current := s.device
	userID := s.session.CurrentUserID
	s.mu.Unlock()

	next, err := current.With(kind, enabled)
	if err != nil {
		return err
	}

	if err := s.devices.UpsertDeviceConfig(ctx, next); err != nil {
		return fmt.Errorf("failed to persist device config: %w", err)
	}

	s.mu.Lock()
	if !s.currentLocked(gen) {
		s.mu.Unlock()
		return domain.ErrNotJoined
	}
	s.device = next
	s.applyOwnDeviceLocked()
	s.publishLocked()
	s.mu.Unlock()

	if err := s.messenger.Send(ctx, rtm.DeviceState{
		UserID: userID,
		Camera: next.EnableVideo,
		Mic:    next.EnableAudio,
	}, Broadcast()); err != nil {
		s.logger.WarnContext(ctx, "failed to send device state", "error", err)
		return fmt.Errorf("failed to send device state: %w", err)
	}

	return nil
}

// RequestChannelStatusSync asks one peer, the lowest user id other than
// self, for a full channel status. domain.ErrNoPeer means the roster has
// nobody to ask.
func (s *Store) RequestChannelStatusSync(ctx context.Context) error {
	s.mu.Lock()
	if !s.joined {
		s.mu.Unlock()
		return domain.ErrNotJoined
	}

	self := s.session.CurrentUserID
	var peer string
	for _, p := range sortedRoster(s.roster) {
		if p.UserID != self {
			peer = p.UserID
			break
		}
	}
	if peer == "" {
		s.mu.Unlock()
		return domain.ErrNoPeer
	}

	own := s.roster[self]
	req := rtm.RequestChannelStatus{
		RoomID:  s.session.RoomID,
		UserIDs: []string{peer},
		User: rtm.UserState{
			Name:    own.Name,
			Camera:  s.device.EnableVideo,
			Mic:     s.device.EnableAudio,
			IsSpeak: own.IsSpeaking || s.session.CurrentIsOwner(),
		},
	}
	s.mu.Unlock()

	if err := s.messenger.Send(ctx, req, Peer(peer)); err != nil {
		return fmt.Errorf("failed to request channel status: %w", err)
	}

	return nil
}
