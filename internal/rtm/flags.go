package rtm

import "strings"

const (
	FlagSpeak     = "S"
	FlagRaiseHand = "R"
	FlagCamera    = "C"
	FlagMic       = "M"
)

// UserFlags is the per-user part of a ChannelStatus.
type UserFlags struct {
	IsSpeaking   bool
	IsRaisedHand bool
	Camera       bool
	Mic          bool
}

func (f UserFlags) String() string {
	var b strings.Builder
	if f.IsSpeaking {
		b.WriteString(FlagSpeak)
	}
	if f.IsRaisedHand {
		b.WriteString(FlagRaiseHand)
	}
	if f.Camera {
		b.WriteString(FlagCamera)
	}
	if f.Mic {
		b.WriteString(FlagMic)
	}
	return b.String()
}

// ParseUserFlags is case-insensitive and ignores unknown characters.
func ParseUserFlags(s string) UserFlags {
	s = strings.ToUpper(s)
	return UserFlags{
		IsSpeaking:   strings.Contains(s, FlagSpeak),
		IsRaisedHand: strings.Contains(s, FlagRaiseHand),
		Camera:       strings.Contains(s, FlagCamera),
		Mic:          strings.Contains(s, FlagMic),
	}
}
