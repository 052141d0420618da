package redis

import (
	"context"

	"github.com/flatclass/classroom/internal/repository/room"
)

func (r repo) getRoomKey(roomID string) string {
	return r.key("room", roomID)
}

func (r repo) getRTCUIDCounterKey(roomID string) string {
	return r.key("room", roomID, "rtc-uid")
}

func (r repo) SetRoom(ctx context.Context, params *room.SetRoomParams) error {
	r.logger.DebugContext(ctx, "called", "params", params)
	pipe := r.rc.TxPipeline()

	roomKey := r.getRoomKey(params.RoomID)
	r.HSetStruct(ctx, pipe, roomKey, room.Room{
		Title:     params.Title,
		OwnerID:   params.OwnerID,
		Status:    params.Status,
		BeginTime: params.BeginTime,
		EndTime:   params.EndTime,
	})
	pipe.Expire(ctx, roomKey, r.expire)

	if err := r.executePipe(ctx, pipe); err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return err
	}

	return nil
}

func (r repo) GetRoom(ctx context.Context, roomID string) (room.Room, error) {
	r.logger.DebugContext(ctx, "called", "room_id", roomID)
	var rm room.Room
	if err := r.rc.HGetAll(ctx, r.getRoomKey(roomID)).Scan(&rm); err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return room.Room{}, err
	}

	if rm.OwnerID == "" {
		r.logger.DebugContext(ctx, "returned", "error", room.ErrRoomNotFound)
		return room.Room{}, room.ErrRoomNotFound
	}

	return rm, nil
}

func (r repo) UpdateRoomStatus(ctx context.Context, params *room.UpdateRoomStatusParams) error {
	r.logger.DebugContext(ctx, "called", "params", params)
	key := r.getRoomKey(params.RoomID)
	cmd := r.rc.Exists(ctx, key)
	if err := cmd.Err(); err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return err
	}

	if cmd.Val() == 0 {
		r.logger.DebugContext(ctx, "returned", "error", room.ErrRoomNotFound)
		return room.ErrRoomNotFound
	}

	if err := r.rc.HSet(ctx, key, "status", params.Status).Err(); err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return err
	}

	return nil
}

// NextRTCUID hands out rtc uids in join order, starting at 1.
func (r repo) NextRTCUID(ctx context.Context, roomID string) (int64, error) {
	r.logger.DebugContext(ctx, "called", "room_id", roomID)
	key := r.getRTCUIDCounterKey(roomID)
	pipe := r.rc.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, r.expire)

	if err := r.executePipe(ctx, pipe); err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return 0, err
	}

	return incr.Val(), nil
}
