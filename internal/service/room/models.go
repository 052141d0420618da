package room

type Member struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url"`
	RTCUID    int64  `json:"rtc_uid"`
}

// Credentials are handed to a member once, on create or join.
type Credentials struct {
	RoomID    string `json:"room_id"`
	MemberID  string `json:"member_id"`
	RTCUID    int64  `json:"rtc_uid"`
	AuthToken string `json:"auth_token"`
	RTCToken  string `json:"rtc_token,omitempty"`
}
