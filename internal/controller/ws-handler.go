package controller

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/flatclass/classroom/internal/service/room"
	"github.com/flatclass/classroom/pkg/ctxlogger"
)

type Output struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

func (c controller) connectRoom(w http.ResponseWriter, r *http.Request) {
	roomId := chi.URLParam(r, "room-id")

	claims, err := c.roomService.ParseAuthToken(r.URL.Query().Get("auth-token"))
	if err != nil {
		c.writeError(w, r, err)
		return
	}

	if claims.RoomID != roomId {
		c.writeError(w, r, room.ErrPermissionDenied)
		return
	}

	conn, err := c.upgrader.Upgrade(w, r, nil)
	if err != nil {
		c.logger.WarnContext(r.Context(), "failed to upgrade to websocket", "error", err)
		return
	}
	defer conn.Close()

	memberId := claims.MemberID
	ctx := c.withMember(r.Context(), roomId, memberId)
	ctx = ctxlogger.AppendCtx(ctx, slog.String("room_id", roomId))
	ctx = ctxlogger.AppendCtx(ctx, slog.String("member_id", memberId))

	connectResp, err := c.roomService.ConnectMember(ctx, &room.ConnectMemberParams{
		Conn:     conn,
		RoomID:   roomId,
		MemberID: memberId,
	})
	if err != nil {
		c.logger.InfoContext(ctx, "failed to connect member", "error", err)
		conn.WriteJSON(&Output{
			Type:    "ERROR",
			Payload: map[string]any{"message": err.Error()},
		})
		return
	}
	defer c.disconnect(ctx, roomId, memberId)

	if err := c.roomService.SendToMember(ctx, roomId, memberId, &Output{
		Type: "JOINED_ROOM",
		Payload: map[string]any{
			"member_id":  memberId,
			"member_ids": connectResp.MemberIDs,
		},
	}); err != nil {
		c.logger.WarnContext(ctx, "failed to write joined room", "error", err)
		return
	}

	if err := c.roomService.Broadcast(ctx, roomId, memberId, &Output{
		Type:    "MEMBER_JOINED",
		Payload: map[string]any{"member_id": memberId},
	}); err != nil {
		c.logger.InfoContext(ctx, "failed to broadcast member joined", "error", err)
	}

	c.logger.InfoContext(ctx, "member connected")
	if err := c.wsRouter.ServeConn(ctx, conn); err != nil {
		c.logger.InfoContext(ctx, "connection closed", "error", err)
	}
}

func (c controller) disconnect(ctx context.Context, roomId, memberId string) {
	if err := c.roomService.DisconnectMember(ctx, roomId, memberId); err != nil {
		c.logger.WarnContext(ctx, "failed to disconnect member", "error", err)
		return
	}

	if err := c.roomService.Broadcast(ctx, roomId, memberId, &Output{
		Type:    "MEMBER_LEFT",
		Payload: map[string]any{"member_id": memberId},
	}); err != nil {
		c.logger.InfoContext(ctx, "failed to broadcast member left", "error", err)
	}
}

func (c controller) handleWSError(ctx context.Context, _ *websocket.Conn, err error) {
	c.logger.InfoContext(ctx, "websocket message failed", "error", err)

	if err := c.roomService.SendToMember(ctx, c.getRoomIdFromCtx(ctx), c.getMemberIdFromCtx(ctx), &Output{
		Type:    "ERROR",
		Payload: map[string]any{"message": err.Error()},
	}); err != nil {
		c.logger.WarnContext(ctx, "failed to write error", "error", err)
	}
}

type EmptyInput struct{}

func (c controller) handleAlive(_ context.Context, _ *websocket.Conn, _ EmptyInput) error {
	return nil
}

type BroadcastInput struct {
	Data json.RawMessage `json:"data" validate:"required"`
}

type eventOutput struct {
	SenderID string          `json:"sender_id"`
	Data     json.RawMessage `json:"data"`
}

// The relay never looks inside data.
func (c controller) handleBroadcast(ctx context.Context, _ *websocket.Conn, input BroadcastInput) error {
	if err := c.validate.Check(input); err != nil {
		return err
	}

	roomId := c.getRoomIdFromCtx(ctx)
	memberId := c.getMemberIdFromCtx(ctx)

	if err := c.roomService.Broadcast(ctx, roomId, memberId, &Output{
		Type:    "EVENT",
		Payload: eventOutput{SenderID: memberId, Data: input.Data},
	}); err != nil {
		return fmt.Errorf("failed to broadcast event: %w", err)
	}

	return nil
}

type PeerInput struct {
	To   string          `json:"to" validate:"required"`
	Data json.RawMessage `json:"data" validate:"required"`
}

func (c controller) handlePeer(ctx context.Context, _ *websocket.Conn, input PeerInput) error {
	if err := c.validate.Check(input); err != nil {
		return err
	}

	roomId := c.getRoomIdFromCtx(ctx)
	memberId := c.getMemberIdFromCtx(ctx)

	if err := c.roomService.SendToMember(ctx, roomId, input.To, &Output{
		Type:    "EVENT",
		Payload: eventOutput{SenderID: memberId, Data: input.Data},
	}); err != nil {
		return fmt.Errorf("failed to send event to %s: %w", input.To, err)
	}

	return nil
}
