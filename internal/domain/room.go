package domain

type RoomStatus string

const (
	RoomStatusIdle    RoomStatus = "Idle"
	RoomStatusStarted RoomStatus = "Started"
	RoomStatusPaused  RoomStatus = "Paused"
)

func (s RoomStatus) Valid() bool {
	switch s {
	case RoomStatusIdle, RoomStatusStarted, RoomStatusPaused:
		return true
	}
	return false
}

type ClassMode string

const (
	ClassModeLecture     ClassMode = "Lecture"
	ClassModeInteraction ClassMode = "Interaction"
)

func (m ClassMode) Valid() bool {
	return m == ClassModeLecture || m == ClassModeInteraction
}

// RoomInfo is what the directory knows about a room.
type RoomInfo struct {
	RoomID    string     `json:"room_id"`
	Title     string     `json:"title"`
	OwnerID   string     `json:"owner_id"`
	OwnerName string     `json:"owner_name"`
	Status    RoomStatus `json:"status"`
	BeginTime int64      `json:"begin_time"`
	EndTime   int64      `json:"end_time"`
}

// RoomSession is one membership of the current user in a room.
type RoomSession struct {
	RoomID        string     `json:"room_id"`
	CurrentUserID string     `json:"current_user_id"`
	OwnerID       string     `json:"owner_id"`
	OwnerName     string     `json:"owner_name"`
	Title         string     `json:"title"`
	Status        RoomStatus `json:"status"`
	ClassMode     ClassMode  `json:"class_mode"`
	Ban           bool       `json:"ban"`
	BeginTime     int64      `json:"begin_time"`
	EndTime       int64      `json:"end_time"`
}

// NewRoomSession returns a session with text banned, lecture mode and an
// idle room until the room info or a channel status says otherwise.
func NewRoomSession(roomID, currentUserID string) RoomSession {
	return RoomSession{
		RoomID:        roomID,
		CurrentUserID: currentUserID,
		Status:        RoomStatusIdle,
		ClassMode:     ClassModeLecture,
		Ban:           true,
	}
}

func (s RoomSession) IsOwner(userID string) bool {
	return s.OwnerID != "" && s.OwnerID == userID
}

func (s RoomSession) CurrentIsOwner() bool {
	return s.IsOwner(s.CurrentUserID)
}

func (s *RoomSession) ApplyInfo(info RoomInfo) {
	s.OwnerID = info.OwnerID
	s.OwnerName = info.OwnerName
	s.Title = info.Title
	s.BeginTime = info.BeginTime
	s.EndTime = info.EndTime
	if info.Status.Valid() {
		s.Status = info.Status
	}
}
