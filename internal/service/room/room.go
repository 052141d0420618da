package room

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/flatclass/classroom/internal/domain"
	"github.com/flatclass/classroom/internal/repository/room"
)

type CreateRoomParams struct {
	Title     string
	Name      string
	AvatarURL string
	BeginTime int64
	EndTime   int64
}

// CreateRoom stores a new idle room owned by a new member.
func (s service) CreateRoom(ctx context.Context, params *CreateRoomParams) (Credentials, error) {
	roomID := uuid.NewString()
	memberID := uuid.NewString()

	if err := s.roomRepo.SetRoom(ctx, &room.SetRoomParams{
		RoomID:    roomID,
		Title:     params.Title,
		OwnerID:   memberID,
		Status:    string(domain.RoomStatusIdle),
		BeginTime: params.BeginTime,
		EndTime:   params.EndTime,
	}); err != nil {
		s.logger.InfoContext(ctx, "failed to set room", "error", err)
		return Credentials{}, fmt.Errorf("failed to set room: %w", err)
	}

	creds, err := s.addMember(ctx, roomID, memberID, params.Name, params.AvatarURL)
	if err != nil {
		return Credentials{}, err
	}

	s.logger.InfoContext(ctx, "room created", "room_id", roomID, "member_id", memberID)
	return creds, nil
}

type JoinRoomParams struct {
	RoomID    string
	Name      string
	AvatarURL string
}

func (s service) JoinRoom(ctx context.Context, params *JoinRoomParams) (Credentials, error) {
	if _, err := s.getRoom(ctx, params.RoomID); err != nil {
		return Credentials{}, err
	}

	count, err := s.roomRepo.GetMembersCount(ctx, params.RoomID)
	if err != nil {
		s.logger.InfoContext(ctx, "failed to get members count", "error", err)
		return Credentials{}, fmt.Errorf("failed to get members count: %w", err)
	}

	if count >= s.membersLimit {
		return Credentials{}, ErrMembersLimitReached
	}

	return s.addMember(ctx, params.RoomID, uuid.NewString(), params.Name, params.AvatarURL)
}

func (s service) addMember(ctx context.Context, roomID, memberID, name, avatarURL string) (Credentials, error) {
	rtcUID, err := s.roomRepo.NextRTCUID(ctx, roomID)
	if err != nil {
		s.logger.InfoContext(ctx, "failed to get rtc uid", "error", err)
		return Credentials{}, fmt.Errorf("failed to get rtc uid: %w", err)
	}

	if err := s.roomRepo.SetMember(ctx, &room.SetMemberParams{
		MemberID:  memberID,
		RoomID:    roomID,
		Name:      name,
		AvatarURL: avatarURL,
		RTCUID:    rtcUID,
	}); err != nil {
		s.logger.InfoContext(ctx, "failed to set member", "error", err)
		return Credentials{}, fmt.Errorf("failed to set member: %w", err)
	}

	authToken, err := s.generateJWT(roomID, memberID)
	if err != nil {
		return Credentials{}, fmt.Errorf("failed to generate auth token: %w", err)
	}

	rtcToken, err := s.generateRTCToken(roomID, memberID, name)
	if err != nil {
		return Credentials{}, fmt.Errorf("failed to generate rtc token: %w", err)
	}

	return Credentials{
		RoomID:    roomID,
		MemberID:  memberID,
		RTCUID:    rtcUID,
		AuthToken: authToken,
		RTCToken:  rtcToken,
	}, nil
}

func (s service) getRoom(ctx context.Context, roomID string) (room.Room, error) {
	rm, err := s.roomRepo.GetRoom(ctx, roomID)
	if err != nil {
		if errors.Is(err, room.ErrRoomNotFound) {
			return room.Room{}, ErrRoomNotFound
		}
		s.logger.InfoContext(ctx, "failed to get room", "error", err)
		return room.Room{}, fmt.Errorf("failed to get room: %w", err)
	}

	return rm, nil
}

func (s service) GetRoomInfo(ctx context.Context, roomID string) (domain.RoomInfo, error) {
	rm, err := s.getRoom(ctx, roomID)
	if err != nil {
		return domain.RoomInfo{}, err
	}

	info := domain.RoomInfo{
		RoomID:    roomID,
		Title:     rm.Title,
		OwnerID:   rm.OwnerID,
		Status:    domain.RoomStatus(rm.Status),
		BeginTime: rm.BeginTime,
		EndTime:   rm.EndTime,
	}

	owner, err := s.roomRepo.GetMember(ctx, rm.OwnerID)
	switch {
	case err == nil:
		info.OwnerName = owner.Name
	case errors.Is(err, room.ErrMemberNotFound):
		s.logger.WarnContext(ctx, "room owner not found", "owner_id", rm.OwnerID)
	default:
		return domain.RoomInfo{}, fmt.Errorf("failed to get owner: %w", err)
	}

	return info, nil
}

// GetRoomUsers returns the profiles of the given room members. Ids that
// are not members of the room are left out.
func (s service) GetRoomUsers(ctx context.Context, roomID string, memberIDs []string) (map[string]domain.Profile, error) {
	if _, err := s.getRoom(ctx, roomID); err != nil {
		return nil, err
	}

	members, err := s.roomRepo.GetMembers(ctx, roomID, memberIDs)
	if err != nil {
		s.logger.InfoContext(ctx, "failed to get members", "error", err)
		return nil, fmt.Errorf("failed to get members: %w", err)
	}

	profiles := make(map[string]domain.Profile, len(members))
	for id, m := range members {
		profiles[id] = domain.Profile{
			Name:      m.Name,
			AvatarURL: m.AvatarURL,
			RTCUID:    m.RTCUID,
		}
	}

	return profiles, nil
}
