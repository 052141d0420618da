package domain

// Profile is the directory view of a room member.
type Profile struct {
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url"`
	RTCUID    int64  `json:"rtc_uid"`
}

type Participant struct {
	UserID       string `json:"user_id"`
	Name         string `json:"name"`
	AvatarURL    string `json:"avatar_url"`
	RTCUID       int64  `json:"rtc_uid"`
	AudioOpen    bool   `json:"audio_open"`
	VideoOpen    bool   `json:"video_open"`
	IsSpeaking   bool   `json:"is_speaking"`
	IsRaisedHand bool   `json:"is_raised_hand"`
	IsOnStage    bool   `json:"is_on_stage"`
	IsOwner      bool   `json:"is_owner"`
}

func NewParticipant(userID string, profile Profile) Participant {
	return Participant{
		UserID:    userID,
		Name:      profile.Name,
		AvatarURL: profile.AvatarURL,
		RTCUID:    profile.RTCUID,
	}
}

// SetOwner marks p as owner of the room owned by ownerID.
func (p *Participant) SetOwner(ownerID string) {
	p.IsOwner = ownerID != "" && p.UserID == ownerID
	p.syncStage()
}

func (p *Participant) SetSpeaking(v bool) {
	p.IsSpeaking = v
	p.syncStage()
}

// The owner is always on stage, everyone else only while speaking.
func (p *Participant) syncStage() {
	p.IsOnStage = p.IsOwner || p.IsSpeaking
}
