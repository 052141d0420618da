package room

type Room struct {
	Title     string `redis:"title" json:"title"`
	OwnerID   string `redis:"owner_id" json:"owner_id"`
	Status    string `redis:"status" json:"status"`
	BeginTime int64  `redis:"begin_time" json:"begin_time"`
	EndTime   int64  `redis:"end_time" json:"end_time"`
}

type Member struct {
	RoomID    string  `redis:"room_id" json:"room_id"`
	Name      string  `redis:"name" json:"name"`
	AvatarURL string `redis:"avatar_url" json:"avatar_url"`
	RTCUID    int64   `redis:"rtc_uid" json:"rtc_uid"`
}
