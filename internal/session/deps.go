package session

import (
	"context"

	"github.com/flatclass/classroom/internal/domain"
	"github.com/flatclass/classroom/internal/rtm"
)

type Directory interface {
	GetRoomInfo(ctx context.Context, roomID string) (domain.RoomInfo, error)
	GetRoomUsers(ctx context.Context, roomID string, ids []string) (map[string]domain.Profile, error)
}

// Recipient addresses an outbound event. The zero value is a broadcast.
type Recipient struct {
	PeerID string
}

func Broadcast() Recipient {
	return Recipient{}
}

func Peer(id string) Recipient {
	return Recipient{PeerID: id}
}

func (r Recipient) IsBroadcast() bool {
	return r.PeerID == ""
}

type Messenger interface {
	Send(ctx context.Context, e rtm.Event, to Recipient) error
}

type DeviceConfigRepo interface {
	// GetDeviceConfig returns domain.ErrDeviceConfigNotFound when nothing
	// was stored for roomID.
	GetDeviceConfig(ctx context.Context, roomID string) (domain.DeviceConfig, error)
	UpsertDeviceConfig(ctx context.Context, cfg domain.DeviceConfig) error
}

// Recording is bound to a session on Join and stops ticking when the
// session context is cancelled.
type Recording interface {
	Reset(ctx context.Context, roomID string, users func() []domain.Participant)
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}
