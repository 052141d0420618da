package room

type SetRoomParams struct {
	RoomID    string
	Title     string
	OwnerID   string
	Status    string
	BeginTime int64
	EndTime   int64
}

type UpdateRoomStatusParams struct {
	RoomID string
	Status string
}

type SetMemberParams struct {
	MemberID  string
	RoomID    string
	Name      string
	AvatarURL string
	RTCUID    int64
}

type RemoveMemberFromListParams struct {
	MemberID string
	RoomID   string
}
