package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/flatclass/classroom/internal/domain"
	"github.com/flatclass/classroom/internal/rtm"
)

var ErrRecordingDisabled = errors.New("recording is not configured")

// act applies e locally as if the current user had sent it, then
// broadcasts it to the room.
func (s *Store) act(ctx context.Context, e rtm.Event, ownerOnly bool) error {
	s.mu.Lock()
	if !s.joined {
		s.mu.Unlock()
		return domain.ErrNotJoined
	}
	if ownerOnly && !s.session.CurrentIsOwner() {
		s.mu.Unlock()
		return domain.ErrPermissionDenied
	}

	if applied, _ := s.reconcileLocked(ctx, e, s.session.CurrentUserID); applied {
		s.publishLocked()
	}
	s.mu.Unlock()

	if err := s.messenger.Send(ctx, e, Broadcast()); err != nil {
		return fmt.Errorf("failed to send %s: %w", e.Kind(), err)
	}

	return nil
}

func (s *Store) RaiseHand(ctx context.Context, raised bool) error {
	return s.act(ctx, rtm.RaiseHand{Value: raised}, false)
}

func (s *Store) Speak(ctx context.Context, speaking bool) error {
	return s.act(ctx, rtm.Speak{Value: speaking}, false)
}

func (s *Store) AcceptRaiseHand(ctx context.Context, userID string, accept bool) error {
	return s.act(ctx, rtm.AcceptRaiseHand{UserID: userID, Accept: accept}, true)
}

func (s *Store) CancelAllHandRaising(ctx context.Context) error {
	return s.act(ctx, rtm.CancelAllHandRaising{}, true)
}

func (s *Store) SetClassMode(ctx context.Context, mode domain.ClassMode) error {
	if !mode.Valid() {
		return fmt.Errorf("invalid class mode %q", mode)
	}
	return s.act(ctx, rtm.ClassModeChange{Mode: mode}, true)
}

func (s *Store) SetRoomStatus(ctx context.Context, status domain.RoomStatus) error {
	if !status.Valid() {
		return fmt.Errorf("invalid room status %q", status)
	}
	return s.act(ctx, rtm.RoomStatusChange{Status: status}, true)
}

func (s *Store) SetBan(ctx context.Context, ban bool) error {
	return s.act(ctx, rtm.BanText{Value: ban}, true)
}

func (s *Store) checkOwner() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.joined {
		return domain.ErrNotJoined
	}
	if !s.session.CurrentIsOwner() {
		return domain.ErrPermissionDenied
	}
	return nil
}

func (s *Store) StartRecord(ctx context.Context) error {
	if s.recording == nil {
		return ErrRecordingDisabled
	}
	if err := s.checkOwner(); err != nil {
		return err
	}
	return s.recording.Start(ctx)
}

func (s *Store) StopRecord(ctx context.Context) error {
	if s.recording == nil {
		return ErrRecordingDisabled
	}
	if err := s.checkOwner(); err != nil {
		return err
	}
	return s.recording.Stop(ctx)
}
