package record

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/flatclass/classroom/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRecorder struct {
	mu      sync.Mutex
	started []TranscodingConfig
	updates []LayoutUpdate
	stopped int
	stopErr error
	// runs once the remote record has started
	onStart func()
}

func (r *fakeRecorder) Acquire(context.Context, string) (string, error) {
	return "res-1", nil
}

func (r *fakeRecorder) Start(_ context.Context, _, resourceID string, cfg TranscodingConfig) (Started, error) {
	r.mu.Lock()
	r.started = append(r.started, cfg)
	onStart := r.onStart
	r.mu.Unlock()

	if onStart != nil {
		onStart()
	}
	return Started{ResourceID: resourceID, SID: "sid-1"}, nil
}

func (r *fakeRecorder) UpdateLayout(_ context.Context, _, _, _ string, update LayoutUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates = append(r.updates, update)
	return nil
}

func (r *fakeRecorder) Stop(context.Context, string, string, string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopped++
	return r.stopErr
}

func (r *fakeRecorder) Updates() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.updates)
}

func stage() []domain.Participant {
	return []domain.Participant{
		{UserID: "C", RTCUID: 3, IsSpeaking: true, IsOnStage: true},
		{UserID: "B", RTCUID: 2},
		{UserID: "A", RTCUID: 9, IsOwner: true, IsOnStage: true, AvatarURL: "a.png"},
		{UserID: "D", RTCUID: 1, IsSpeaking: true, IsOnStage: true},
	}
}

func TestFilterOnStage(t *testing.T) {
	got := FilterOnStage(stage())

	ids := make([]string, 0, len(got))
	for _, p := range got {
		ids = append(ids, p.UserID)
	}
	assert.Equal(t, []string{"A", "D", "C"}, ids)
}

func TestFilterOnStageCapsAtMaxUsers(t *testing.T) {
	users := make([]domain.Participant, 0, 20)
	for i := range 20 {
		users = append(users, domain.Participant{RTCUID: int64(20 - i), IsOnStage: true})
	}

	got := FilterOnStage(users)
	require.Len(t, got, MaxUsers)
	assert.Equal(t, int64(1), got[0].RTCUID)
	assert.Equal(t, int64(MaxUsers), got[MaxUsers-1].RTCUID)
}

func TestLayout(t *testing.T) {
	update := Layout(stage())

	require.Len(t, update.LayoutConfig, 3)
	first, second := update.LayoutConfig[0], update.LayoutConfig[1]
	assert.Equal(t, "9", first.UID)
	assert.Zero(t, first.X)
	assert.InDelta(t, 1.0/MaxUsers, first.Width, 1e-9)
	assert.InDelta(t, 1.0, first.Height, 1e-9)
	assert.InDelta(t, 1.0/MaxUsers, second.X, 1e-9)

	assert.Equal(t, BackgroundConfig{UID: "9", ImageURL: "a.png"}, update.BackgroundConfig[0])
}

func TestManagerStartTicksAndStops(t *testing.T) {
	rec := &fakeRecorder{}
	m := NewManager(rec, 5*time.Millisecond, slog.Default())
	m.Reset(context.Background(), "room", stage)

	require.NoError(t, m.Start(context.Background()))

	rec.mu.Lock()
	require.Len(t, rec.started, 1)
	assert.Equal(t, CanvasWidth, rec.started[0].Width)
	assert.Equal(t, 15, rec.started[0].FPS)
	assert.Len(t, rec.started[0].LayoutConfig, 3)
	rec.mu.Unlock()

	assert.ErrorIs(t, m.Start(context.Background()), domain.ErrRecordAlreadyStarted)

	assert.Eventually(t, func() bool {
		st, ok := m.State()
		return ok && st.RecordTime >= 2 && rec.Updates() >= 2
	}, time.Second, 5*time.Millisecond)

	st, _ := m.State()
	assert.Equal(t, "res-1", st.ResourceID)
	assert.Equal(t, "sid-1", st.SID)

	require.NoError(t, m.Stop(context.Background()))
	_, ok := m.State()
	assert.False(t, ok)
	assert.ErrorIs(t, m.Stop(context.Background()), domain.ErrRecordNotStarted)
}

func TestManagerStopFailureKeepsState(t *testing.T) {
	rec := &fakeRecorder{stopErr: errors.New("boom")}
	m := NewManager(rec, time.Hour, slog.Default())
	m.Reset(context.Background(), "room", stage)
	require.NoError(t, m.Start(context.Background()))

	assert.Error(t, m.Stop(context.Background()))
	_, ok := m.State()
	assert.True(t, ok)
}

func TestManagerSessionEndsWhileStarting(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	rec := &fakeRecorder{onStart: cancel}
	m := NewManager(rec, 5*time.Millisecond, slog.Default())
	m.Reset(ctx, "room", stage)

	assert.ErrorIs(t, m.Start(context.Background()), context.Canceled)

	_, ok := m.State()
	assert.False(t, ok)
	rec.mu.Lock()
	assert.Equal(t, 1, rec.stopped, "the started record must be stopped again")
	rec.mu.Unlock()
}

func TestManagerStartUnbound(t *testing.T) {
	m := NewManager(&fakeRecorder{}, time.Second, slog.Default())
	assert.ErrorIs(t, m.Start(context.Background()), ErrNotBound)
}

func TestManagerSessionCancelStopsTimer(t *testing.T) {
	rec := &fakeRecorder{}
	m := NewManager(rec, 5*time.Millisecond, slog.Default())
	ctx, cancel := context.WithCancel(context.Background())
	m.Reset(ctx, "room", stage)
	require.NoError(t, m.Start(context.Background()))

	assert.Eventually(t, func() bool { return rec.Updates() >= 1 }, time.Second, 5*time.Millisecond)
	cancel()
	time.Sleep(20 * time.Millisecond)

	n := rec.Updates()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, n, rec.Updates())
}

func TestManagerResetClearsState(t *testing.T) {
	m := NewManager(&fakeRecorder{}, time.Hour, slog.Default())
	m.Reset(context.Background(), "room", stage)
	require.NoError(t, m.Start(context.Background()))

	m.Reset(context.Background(), "other", stage)
	_, ok := m.State()
	assert.False(t, ok)
}
