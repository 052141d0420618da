package session

import (
	"context"
	"slices"

	"github.com/flatclass/classroom/internal/domain"
	"github.com/flatclass/classroom/internal/rtm"
)

// ApplyInboundEvent reconciles an event received from senderID. Events
// whose preconditions fail are dropped; nothing is returned to the caller.
func (s *Store) ApplyInboundEvent(ctx context.Context, e rtm.Event, senderID string) {
	s.mu.Lock()
	if !s.joined {
		s.mu.Unlock()
		s.logger.DebugContext(ctx, "event ignored, not joined", "kind", e.Kind())
		return
	}

	applied, reply := s.reconcileLocked(ctx, e, senderID)
	if applied {
		s.publishLocked()
	}
	s.mu.Unlock()

	if !applied && reply == nil {
		s.logger.DebugContext(ctx, "event dropped", "kind", e.Kind(), "sender_id", senderID)
	}

	if reply != nil {
		if err := s.messenger.Send(ctx, *reply, Peer(senderID)); err != nil {
			s.logger.WarnContext(ctx, "failed to send channel status", "error", err, "peer_id", senderID)
		}
	}
}

// reconcileLocked applies e as sent by senderID. It reports whether state
// changed and, for a status request addressed to us, the reply to send.
func (s *Store) reconcileLocked(ctx context.Context, e rtm.Event, senderID string) (bool, *rtm.ChannelStatus) {
	isOwner := s.session.IsOwner(senderID)

	switch e := e.(type) {
	case rtm.DeviceState:
		return s.updateLocked(e.UserID, func(p *domain.Participant) {
			p.AudioOpen = e.Mic
			p.VideoOpen = e.Camera
		}), nil

	case rtm.ChannelStatus:
		s.session.Ban = e.Ban
		if e.RoomStatus.Valid() {
			s.session.Status = e.RoomStatus
			s.statusSynced = true
		}
		if e.ClassMode.Valid() {
			s.session.ClassMode = e.ClassMode
		}
		for id, raw := range e.UserStates {
			flags := rtm.ParseUserFlags(raw)
			s.updateLocked(id, func(p *domain.Participant) {
				p.AudioOpen = flags.Mic
				p.VideoOpen = flags.Camera
				p.IsRaisedHand = flags.IsRaisedHand
				p.SetSpeaking(flags.IsSpeaking)
			})
		}
		return true, nil

	case rtm.RequestChannelStatus:
		if senderID == s.session.CurrentUserID || !slices.Contains(e.UserIDs, s.session.CurrentUserID) {
			return false, nil
		}
		applied := s.updateLocked(senderID, func(p *domain.Participant) {
			p.AudioOpen = e.User.Mic
			p.VideoOpen = e.User.Camera
			if e.User.Name != "" {
				p.Name = e.User.Name
			}
			p.SetSpeaking(e.User.IsSpeak)
		})
		reply := s.channelStatusLocked()
		return applied, &reply

	case rtm.AcceptRaiseHand:
		if !isOwner {
			return false, nil
		}
		return s.updateLocked(e.UserID, func(p *domain.Participant) {
			p.SetSpeaking(e.Accept)
		}), nil

	case rtm.CancelAllHandRaising:
		if !isOwner {
			return false, nil
		}
		for id, p := range s.roster {
			p.IsRaisedHand = false
			s.roster[id] = p
		}
		return true, nil

	case rtm.ClassModeChange:
		if !isOwner || !e.Mode.Valid() {
			return false, nil
		}
		s.session.ClassMode = e.Mode
		return true, nil

	case rtm.RaiseHand:
		return s.updateLocked(senderID, func(p *domain.Participant) {
			p.IsRaisedHand = e.Value
		}), nil

	case rtm.Speak:
		return s.updateLocked(senderID, func(p *domain.Participant) {
			p.SetSpeaking(e.Value)
		}), nil

	case rtm.RoomStatusChange:
		if !isOwner || !e.Status.Valid() {
			return false, nil
		}
		s.session.Status = e.Status
		s.statusSynced = true
		return true, nil

	case rtm.BanText:
		s.session.Ban = e.Value
		return true, nil

	case rtm.Notice, rtm.ChannelMessage:
		s.logger.InfoContext(ctx, "channel message received", "kind", e.Kind(), "sender_id", senderID)
		return false, nil

	default:
		s.logger.WarnContext(ctx, "unknown event", "kind", e.Kind(), "sender_id", senderID)
		return false, nil
	}
}

// updateLocked changes an existing roster entry. Unknown ids are ignored.
func (s *Store) updateLocked(userID string, update func(*domain.Participant)) bool {
	p, ok := s.roster[userID]
	if !ok {
		return false
	}
	update(&p)
	s.roster[userID] = p
	return true
}

func (s *Store) channelStatusLocked() rtm.ChannelStatus {
	states := make(map[string]string, len(s.roster))
	for id, p := range s.roster {
		states[id] = rtm.UserFlags{
			IsSpeaking:   p.IsSpeaking,
			IsRaisedHand: p.IsRaisedHand,
			Camera:       p.VideoOpen,
			Mic:          p.AudioOpen,
		}.String()
	}

	return rtm.ChannelStatus{
		Ban:        s.session.Ban,
		RoomStatus: s.session.Status,
		ClassMode:  s.session.ClassMode,
		UserStates: states,
	}
}
