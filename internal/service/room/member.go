package room

import (
	"context"
	"errors"
	"fmt"

	"github.com/flatclass/classroom/internal/repository/connection"
	"github.com/flatclass/classroom/internal/repository/room"
)

type ConnectMemberParams struct {
	Conn     connection.Conn
	RoomID   string
	MemberID string
}

type ConnectMemberResponse struct {
	Member Member
	// MemberIDs are the connected members, the new one included.
	MemberIDs []string
}

func (s service) ConnectMember(ctx context.Context, params *ConnectMemberParams) (ConnectMemberResponse, error) {
	member, err := s.roomRepo.GetMember(ctx, params.MemberID)
	if err != nil {
		if errors.Is(err, room.ErrMemberNotFound) {
			return ConnectMemberResponse{}, ErrMemberNotFound
		}
		return ConnectMemberResponse{}, fmt.Errorf("failed to get member: %w", err)
	}

	if member.RoomID != params.RoomID {
		return ConnectMemberResponse{}, ErrPermissionDenied
	}

	if err := s.connRepo.Add(ctx, params.RoomID, params.MemberID, params.Conn); err != nil {
		if errors.Is(err, connection.ErrAlreadyExists) {
			return ConnectMemberResponse{}, ErrAlreadyConnected
		}
		return ConnectMemberResponse{}, fmt.Errorf("failed to add conn: %w", err)
	}

	return ConnectMemberResponse{
		Member: Member{
			ID:        params.MemberID,
			Name:      member.Name,
			AvatarURL: member.AvatarURL,
			RTCUID:    member.RTCUID,
		},
		MemberIDs: s.connRepo.GetMemberIDs(ctx, params.RoomID),
	}, nil
}

func (s service) DisconnectMember(ctx context.Context, roomID, memberID string) error {
	if err := s.connRepo.Remove(ctx, roomID, memberID); err != nil {
		if errors.Is(err, connection.ErrNotFound) {
			return ErrMemberNotConnected
		}
		return err
	}

	return nil
}

// Broadcast sends v to every connected member of roomID except senderID.
// Every recipient is tried, the errors are joined.
func (s service) Broadcast(ctx context.Context, roomID, senderID string, v any) error {
	var errs []error
	for _, memberID := range s.connRepo.GetMemberIDs(ctx, roomID) {
		if memberID == senderID {
			continue
		}

		if err := s.connRepo.Send(ctx, roomID, memberID, v); err != nil {
			s.logger.InfoContext(ctx, "failed to send", "member_id", memberID, "error", err)
			errs = append(errs, fmt.Errorf("send to %s: %w", memberID, err))
		}
	}

	return errors.Join(errs...)
}

func (s service) SendToMember(ctx context.Context, roomID, memberID string, v any) error {
	if err := s.connRepo.Send(ctx, roomID, memberID, v); err != nil {
		if errors.Is(err, connection.ErrNotFound) {
			return ErrMemberNotConnected
		}
		return err
	}

	return nil
}
