package room

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/flatclass/classroom/internal/repository/connection"
	"github.com/flatclass/classroom/internal/repository/room"
)

var (
	ErrPermissionDenied     = errors.New("permission denied")
	ErrRoomNotFound         = errors.New("room not found")
	ErrMemberNotFound       = errors.New("member not found")
	ErrMemberNotConnected   = errors.New("member is not connected")
	ErrMembersLimitReached  = errors.New("members limit reached")
	ErrAlreadyConnected     = errors.New("member already connected")
	ErrInvalidAuthToken     = errors.New("invalid auth token")
)

type iRoomRepo interface {
	// room
	SetRoom(context.Context, *room.SetRoomParams) error
	GetRoom(context.Context, string) (room.Room, error)
	NextRTCUID(context.Context, string) (int64, error)
	// member
	SetMember(context.Context, *room.SetMemberParams) error
	GetMember(context.Context, string) (room.Member, error)
	GetMembers(ctx context.Context, roomID string, memberIDs []string) (map[string]room.Member, error)
	GetMembersCount(context.Context, string) (int, error)
}

type iConnRepo interface {
	Add(ctx context.Context, roomID, memberID string, conn connection.Conn) error
	Remove(ctx context.Context, roomID, memberID string) error
	GetMemberIDs(ctx context.Context, roomID string) []string
	Send(ctx context.Context, roomID, memberID string, v any) error
}

type Config struct {
	MembersLimit int
	Secret       string
	// LiveKitAPIKey and LiveKitAPISecret sign rtc tokens. Both empty
	// disables rtc tokens.
	LiveKitAPIKey    string
	LiveKitAPISecret string
	RTCTokenTTL      time.Duration
}

type service struct {
	roomRepo         iRoomRepo
	connRepo         iConnRepo
	membersLimit     int
	secret           []byte
	liveKitAPIKey    string
	liveKitAPISecret string
	rtcTokenTTL      time.Duration
	logger           *slog.Logger
}

func NewService(roomRepo iRoomRepo, connRepo iConnRepo, cfg *Config, logger *slog.Logger) *service {
	return &service{
		roomRepo:         roomRepo,
		connRepo:         connRepo,
		membersLimit:     cfg.MembersLimit,
		secret:           []byte(cfg.Secret),
		liveKitAPIKey:    cfg.LiveKitAPIKey,
		liveKitAPISecret: cfg.LiveKitAPISecret,
		rtcTokenTTL:      cfg.RTCTokenTTL,
		logger:           logger,
	}
}
