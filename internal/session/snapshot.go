package session

import (
	"slices"

	"github.com/flatclass/classroom/internal/domain"
	"golang.org/x/exp/maps"
)

// Snapshot is an immutable copy of the store state. Version grows by one
// with every published mutation.
type Snapshot struct {
	Version      uint64               `json:"version"`
	Joined       bool                 `json:"joined"`
	Session      domain.RoomSession   `json:"session"`
	Roster       []domain.Participant `json:"roster"`
	DeviceConfig domain.DeviceConfig  `json:"device_config"`
}

func (s Snapshot) Participant(userID string) (domain.Participant, bool) {
	for _, p := range s.Roster {
		if p.UserID == userID {
			return p, true
		}
	}
	return domain.Participant{}, false
}

func sortedRoster(roster map[string]domain.Participant) []domain.Participant {
	ids := maps.Keys(roster)
	slices.Sort(ids)

	out := make([]domain.Participant, 0, len(ids))
	for _, id := range ids {
		out = append(out, roster[id])
	}
	return out
}

// publishLocked must be called with s.mu held.
func (s *Store) publishLocked() {
	s.version++
	snap := Snapshot{
		Version:      s.version,
		Joined:       s.joined,
		Session:      s.session,
		Roster:       sortedRoster(s.roster),
		DeviceConfig: s.device,
	}
	s.last = snap

	for _, ch := range s.subs {
		// latest wins for slow subscribers
		select {
		case ch <- snap:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snap:
			default:
			}
		}
	}
}

// Snapshot returns the last published state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.last
}

// Subscribe returns a channel that receives the current snapshot and then
// every published one. A subscriber that falls behind only sees the latest.
func (s *Store) Subscribe() (<-chan Snapshot, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSub
	s.nextSub++

	ch := make(chan Snapshot, 1)
	ch <- s.last
	s.subs[id] = ch

	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		if c, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(c)
		}
	}
}
