package controller

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/flatclass/classroom/internal/domain"
	"github.com/flatclass/classroom/internal/service/room"
	"github.com/flatclass/classroom/pkg/validator"
	"github.com/flatclass/classroom/pkg/wsrouter"
)

type iRoomService interface {
	CreateRoom(context.Context, *room.CreateRoomParams) (room.Credentials, error)
	JoinRoom(context.Context, *room.JoinRoomParams) (room.Credentials, error)
	GetRoomInfo(ctx context.Context, roomID string) (domain.RoomInfo, error)
	GetRoomUsers(ctx context.Context, roomID string, memberIDs []string) (map[string]domain.Profile, error)
	ParseAuthToken(string) (room.Claims, error)
	ConnectMember(context.Context, *room.ConnectMemberParams) (room.ConnectMemberResponse, error)
	DisconnectMember(ctx context.Context, roomID, memberID string) error
	Broadcast(ctx context.Context, roomID, senderID string, v any) error
	SendToMember(ctx context.Context, roomID, memberID string, v any) error
}

type controller struct {
	roomService iRoomService
	upgrader    websocket.Upgrader
	validate    *validator.Validator
	wsRouter    *wsrouter.WSRouter
	logger      *slog.Logger
}

func NewController(roomService iRoomService, logger *slog.Logger) *controller {
	c := &controller{
		roomService: roomService,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		validate: validator.NewValidator(),
		logger:   logger,
	}
	c.wsRouter = c.getWSRouter()

	return c
}
