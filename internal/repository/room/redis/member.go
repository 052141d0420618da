package redis

import (
	"context"

	"github.com/redis/go-redis/v9"

	"github.com/flatclass/classroom/internal/repository/room"
)

func (r repo) getMemberKey(memberID string) string {
	return r.key("member", memberID)
}

func (r repo) getMemberListKey(roomID string) string {
	return r.key("room", roomID, "memberlist")
}

// SetMember stores the member profile and appends the member to the room
// list.
func (r repo) SetMember(ctx context.Context, params *room.SetMemberParams) error {
	r.logger.DebugContext(ctx, "called", "params", params)
	pipe := r.rc.TxPipeline()

	memberKey := r.getMemberKey(params.MemberID)
	r.HSetStruct(ctx, pipe, memberKey, room.Member{
		RoomID:    params.RoomID,
		Name:      params.Name,
		AvatarURL: params.AvatarURL,
		RTCUID:    params.RTCUID,
	})
	pipe.Expire(ctx, memberKey, r.expire)

	memberListKey := r.getMemberListKey(params.RoomID)
	r.addWithIncrement(ctx, pipe, memberListKey, params.MemberID)
	pipe.Expire(ctx, memberListKey, r.expire)

	if err := r.executePipe(ctx, pipe); err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return err
	}

	return nil
}

func (r repo) GetMember(ctx context.Context, memberID string) (room.Member, error) {
	r.logger.DebugContext(ctx, "called", "member_id", memberID)
	var member room.Member
	if err := r.rc.HGetAll(ctx, r.getMemberKey(memberID)).Scan(&member); err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return room.Member{}, err
	}

	if member.RoomID == "" {
		r.logger.DebugContext(ctx, "returned", "error", room.ErrMemberNotFound)
		return room.Member{}, room.ErrMemberNotFound
	}

	return member, nil
}

// GetMembers returns the members of roomID among memberIDs. Unknown ids and
// members of other rooms are left out.
func (r repo) GetMembers(ctx context.Context, roomID string, memberIDs []string) (map[string]room.Member, error) {
	r.logger.DebugContext(ctx, "called", "room_id", roomID, "member_ids", memberIDs)
	pipe := r.rc.Pipeline()
	cmds := make(map[string]*redis.MapStringStringCmd, len(memberIDs))
	for _, id := range memberIDs {
		cmds[id] = pipe.HGetAll(ctx, r.getMemberKey(id))
	}

	if len(cmds) > 0 {
		if err := r.executePipe(ctx, pipe); err != nil {
			r.logger.DebugContext(ctx, "returned", "error", err)
			return nil, err
		}
	}

	members := make(map[string]room.Member, len(cmds))
	for id, cmd := range cmds {
		var member room.Member
		if err := cmd.Scan(&member); err != nil {
			r.logger.DebugContext(ctx, "returned", "error", err)
			return nil, err
		}

		if member.RoomID != roomID {
			continue
		}

		members[id] = member
	}

	return members, nil
}

// GetMemberIDs lists the room members in join order.
func (r repo) GetMemberIDs(ctx context.Context, roomID string) ([]string, error) {
	r.logger.DebugContext(ctx, "called", "room_id", roomID)
	memberIDs, err := r.rc.ZRange(ctx, r.getMemberListKey(roomID), 0, -1).Result()
	if err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return nil, err
	}

	return memberIDs, nil
}

func (r repo) GetMembersCount(ctx context.Context, roomID string) (int, error) {
	r.logger.DebugContext(ctx, "called", "room_id", roomID)
	count, err := r.rc.ZCard(ctx, r.getMemberListKey(roomID)).Result()
	if err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return 0, err
	}

	return int(count), nil
}

func (r repo) RemoveMemberFromList(ctx context.Context, params *room.RemoveMemberFromListParams) error {
	r.logger.DebugContext(ctx, "called", "params", params)
	res, err := r.rc.ZRem(ctx, r.getMemberListKey(params.RoomID), params.MemberID).Result()
	if err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return err
	}

	if res == 0 {
		r.logger.DebugContext(ctx, "returned", "error", room.ErrMemberNotFound)
		return room.ErrMemberNotFound
	}

	return nil
}
