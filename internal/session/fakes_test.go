package session

import (
	"context"
	"slices"
	"sync"

	"github.com/flatclass/classroom/internal/domain"
	"github.com/flatclass/classroom/internal/rtm"
	"golang.org/x/exp/maps"
)

type fakeDirectory struct {
	mu       sync.Mutex
	info     domain.RoomInfo
	profiles map[string]domain.Profile
	usersErr error
	calls    [][]string
	// when set, GetRoomUsers signals entered and waits for gate
	entered chan struct{}
	gate    chan struct{}
	// when set, GetRoomInfo waits for it
	infoGate chan struct{}
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{
		info: domain.RoomInfo{RoomID: "room", OwnerID: "A", OwnerName: "Alice", Title: "Physics", Status: domain.RoomStatusIdle},
		profiles: map[string]domain.Profile{
			"A": {Name: "Alice", RTCUID: 1},
			"B": {Name: "Bob", RTCUID: 2},
			"C": {Name: "Carol", RTCUID: 3},
			"X": {Name: "Xavier", RTCUID: 24},
			"Y": {Name: "Yana", RTCUID: 25},
		},
	}
}

func (d *fakeDirectory) GetRoomInfo(_ context.Context, _ string) (domain.RoomInfo, error) {
	d.mu.Lock()
	gate := d.infoGate
	d.mu.Unlock()

	if gate != nil {
		<-gate
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	return d.info, nil
}

func (d *fakeDirectory) GetRoomUsers(_ context.Context, _ string, ids []string) (map[string]domain.Profile, error) {
	d.mu.Lock()
	d.calls = append(d.calls, slices.Clone(ids))
	entered, gate := d.entered, d.gate
	d.mu.Unlock()

	if gate != nil {
		entered <- struct{}{}
		<-gate
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.usersErr != nil {
		return nil, d.usersErr
	}
	out := make(map[string]domain.Profile, len(ids))
	for _, id := range ids {
		if p, ok := d.profiles[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func (d *fakeDirectory) Calls() [][]string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Clone(d.calls)
}

func (d *fakeDirectory) ResetCalls() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = nil
}

type sentEvent struct {
	event rtm.Event
	to    Recipient
}

type fakeMessenger struct {
	mu   sync.Mutex
	sent []sentEvent
	err  error
}

func (m *fakeMessenger) Send(_ context.Context, e rtm.Event, to Recipient) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentEvent{event: e, to: to})
	return nil
}

func (m *fakeMessenger) Sent() []sentEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.sent)
}

type fakeDevices struct {
	mu        sync.Mutex
	configs   map[string]domain.DeviceConfig
	upsertErr error
}

func newFakeDevices() *fakeDevices {
	return &fakeDevices{configs: make(map[string]domain.DeviceConfig)}
}

func (d *fakeDevices) GetDeviceConfig(_ context.Context, roomID string) (domain.DeviceConfig, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	cfg, ok := d.configs[roomID]
	if !ok {
		return domain.DeviceConfig{}, domain.ErrDeviceConfigNotFound
	}
	return cfg, nil
}

func (d *fakeDevices) UpsertDeviceConfig(_ context.Context, cfg domain.DeviceConfig) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.upsertErr != nil {
		return d.upsertErr
	}
	d.configs[cfg.RoomID] = cfg
	return nil
}

func (d *fakeDevices) Get(roomID string) (domain.DeviceConfig, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	cfg, ok := d.configs[roomID]
	return cfg, ok
}

type fakeRecording struct {
	mu      sync.Mutex
	ctx     context.Context
	roomID  string
	users   func() []domain.Participant
	started int
	stopped int
}

func (r *fakeRecording) Reset(ctx context.Context, roomID string, users func() []domain.Participant) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ctx, r.roomID, r.users = ctx, roomID, users
}

func (r *fakeRecording) Start(context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started++
	return nil
}

func (r *fakeRecording) Stop(context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopped++
	return nil
}

func rosterIDs(s Snapshot) []string {
	ids := make(map[string]struct{}, len(s.Roster))
	for _, p := range s.Roster {
		ids[p.UserID] = struct{}{}
	}
	out := maps.Keys(ids)
	slices.Sort(out)
	return out
}
