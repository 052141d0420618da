package domain

import "fmt"

type DeviceKind string

const (
	DeviceAudio DeviceKind = "audio"
	DeviceVideo DeviceKind = "video"
)

func ParseDeviceKind(s string) (DeviceKind, error) {
	switch DeviceKind(s) {
	case DeviceAudio, DeviceVideo:
		return DeviceKind(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidDeviceKind, s)
}

// DeviceConfig is the local user's device preference for one room.
type DeviceConfig struct {
	RoomID      string `json:"room_id" redis:"room_id"`
	EnableAudio bool   `json:"enable_audio" redis:"enable_audio"`
	EnableVideo bool   `json:"enable_video" redis:"enable_video"`
}

// With returns a copy of c with kind set to enabled.
func (c DeviceConfig) With(kind DeviceKind, enabled bool) (DeviceConfig, error) {
	switch kind {
	case DeviceAudio:
		c.EnableAudio = enabled
	case DeviceVideo:
		c.EnableVideo = enabled
	default:
		return c, fmt.Errorf("%w: %q", ErrInvalidDeviceKind, kind)
	}
	return c, nil
}
