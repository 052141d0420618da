package record

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/flatclass/classroom/internal/domain"
)

var ErrNotBound = errors.New("record manager is not bound to a room")

type Started struct {
	ResourceID string
	SID        string
}

// Recorder is the cloud recording API.
type Recorder interface {
	Acquire(ctx context.Context, roomID string) (string, error)
	Start(ctx context.Context, roomID, resourceID string, cfg TranscodingConfig) (Started, error)
	UpdateLayout(ctx context.Context, roomID, resourceID, sid string, update LayoutUpdate) error
	Stop(ctx context.Context, roomID, resourceID, sid string) error
}

type State struct {
	ResourceID string `json:"resource_id"`
	SID        string `json:"sid"`
	RecordTime int64  `json:"record_time"`
}

type Manager struct {
	recorder Recorder
	interval time.Duration
	logger   *slog.Logger

	mu        sync.Mutex
	ctx       context.Context
	roomID    string
	users     func() []domain.Participant
	state     *State
	stopTimer context.CancelFunc
}

func NewManager(recorder Recorder, interval time.Duration, logger *slog.Logger) *Manager {
	return &Manager{
		recorder: recorder,
		interval: interval,
		logger:   logger,
	}
}

// Reset binds m to a room session. The timer stops once ctx is done.
func (m *Manager) Reset(ctx context.Context, roomID string, users func() []domain.Participant) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.cancelTimerLocked()
	m.ctx = ctx
	m.roomID = roomID
	m.users = users
	m.state = nil
}

// State returns the running record, if any.
func (m *Manager) State() (State, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == nil {
		return State{}, false
	}
	return *m.state, true
}

func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.ctx == nil {
		m.mu.Unlock()
		return ErrNotBound
	}
	if m.state != nil {
		m.mu.Unlock()
		return domain.ErrRecordAlreadyStarted
	}
	sessionCtx, roomID, users := m.ctx, m.roomID, m.users
	m.mu.Unlock()

	resourceID, err := m.recorder.Acquire(ctx, roomID)
	if err != nil {
		return fmt.Errorf("failed to acquire record resource: %w", err)
	}

	started, err := m.recorder.Start(ctx, roomID, resourceID, transcoding(users()))
	if err != nil {
		return fmt.Errorf("failed to start record: %w", err)
	}

	m.mu.Lock()
	if m.ctx != sessionCtx || sessionCtx.Err() != nil {
		m.mu.Unlock()
		// the session ended while starting, nobody will stop this record later
		if err := m.recorder.Stop(ctx, roomID, started.ResourceID, started.SID); err != nil {
			m.logger.WarnContext(ctx, "failed to stop abandoned record", "error", err)
		}
		return context.Canceled
	}
	defer m.mu.Unlock()

	m.state = &State{ResourceID: started.ResourceID, SID: started.SID}
	m.cancelTimerLocked()
	timerCtx, cancel := context.WithCancel(sessionCtx)
	m.stopTimer = cancel
	go m.tick(timerCtx, roomID)

	m.logger.InfoContext(ctx, "record started", "resource_id", started.ResourceID, "sid", started.SID)
	return nil
}

// Stop ends the record. The state is cleared only when the recorder
// confirms, the timer stops either way.
func (m *Manager) Stop(ctx context.Context) error {
	m.mu.Lock()
	if m.state == nil {
		m.mu.Unlock()
		return domain.ErrRecordNotStarted
	}
	st, roomID := *m.state, m.roomID
	m.cancelTimerLocked()
	m.mu.Unlock()

	if err := m.recorder.Stop(ctx, roomID, st.ResourceID, st.SID); err != nil {
		return fmt.Errorf("failed to stop record: %w", err)
	}

	m.mu.Lock()
	m.state = nil
	m.mu.Unlock()

	m.logger.InfoContext(ctx, "record stopped", "record_time", st.RecordTime)
	return nil
}

func (m *Manager) cancelTimerLocked() {
	if m.stopTimer != nil {
		m.stopTimer()
		m.stopTimer = nil
	}
}

func (m *Manager) tick(ctx context.Context, roomID string) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		m.mu.Lock()
		if m.state == nil || ctx.Err() != nil {
			m.mu.Unlock()
			return
		}
		m.state.RecordTime++
		st, users := *m.state, m.users
		m.mu.Unlock()

		if err := m.recorder.UpdateLayout(ctx, roomID, st.ResourceID, st.SID, Layout(users())); err != nil {
			m.logger.WarnContext(ctx, "failed to update record layout", "error", err)
		}
	}
}
