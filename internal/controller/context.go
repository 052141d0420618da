package controller

import "context"

type contextKey int

const (
	roomIdCtxKey contextKey = iota
	memberIdCtxKey
)

func (c controller) getRoomIdFromCtx(ctx context.Context) string {
	roomId, ok := ctx.Value(roomIdCtxKey).(string)
	if !ok {
		return ""
	}

	return roomId
}

func (c controller) getMemberIdFromCtx(ctx context.Context) string {
	memberId, ok := ctx.Value(memberIdCtxKey).(string)
	if !ok {
		return ""
	}

	return memberId
}

func (c controller) withMember(ctx context.Context, roomId, memberId string) context.Context {
	ctx = context.WithValue(ctx, roomIdCtxKey, roomId)
	return context.WithValue(ctx, memberIdCtxKey, memberId)
}
