package record

import (
	"slices"
	"strconv"

	"github.com/flatclass/classroom/internal/domain"
)

const (
	MaxUsers     = 15
	TileWidth    = 144
	TileHeight   = 108
	CanvasWidth  = TileWidth * MaxUsers
	CanvasHeight = TileHeight

	fps              = 15
	bitrate          = 500
	mixedVideoLayout = 3
)

type LayoutConfig struct {
	UID    string  `json:"uid"`
	X      float64 `json:"x_axis"`
	Y      float64 `json:"y_axis"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type BackgroundConfig struct {
	UID      string `json:"uid"`
	ImageURL string `json:"image_url"`
}

type LayoutUpdate struct {
	LayoutConfig     []LayoutConfig     `json:"layoutConfig"`
	BackgroundConfig []BackgroundConfig `json:"backgroundConfig"`
}

type TranscodingConfig struct {
	Width            int `json:"width"`
	Height           int `json:"height"`
	FPS              int `json:"fps"`
	Bitrate          int `json:"bitrate"`
	MixedVideoLayout int `json:"mixedVideoLayout"`
	LayoutUpdate
}

// FilterOnStage keeps on-stage users, the owner first and the rest by
// ascending rtc uid, at most MaxUsers of them.
func FilterOnStage(users []domain.Participant) []domain.Participant {
	out := make([]domain.Participant, 0, len(users))
	for _, u := range users {
		if u.IsOnStage {
			out = append(out, u)
		}
	}

	slices.SortStableFunc(out, func(a, b domain.Participant) int {
		ka, kb := a.RTCUID, b.RTCUID
		if a.IsOwner {
			ka = -1
		}
		if b.IsOwner {
			kb = -1
		}
		switch {
		case ka < kb:
			return -1
		case ka > kb:
			return 1
		}
		return 0
	})

	if len(out) > MaxUsers {
		out = out[:MaxUsers]
	}
	return out
}

// Layout places the on-stage users in one row of equal tiles.
func Layout(users []domain.Participant) LayoutUpdate {
	stage := FilterOnStage(users)

	update := LayoutUpdate{
		LayoutConfig:     make([]LayoutConfig, 0, len(stage)),
		BackgroundConfig: make([]BackgroundConfig, 0, len(stage)),
	}
	for i, u := range stage {
		uid := strconv.FormatInt(u.RTCUID, 10)
		update.LayoutConfig = append(update.LayoutConfig, LayoutConfig{
			UID:    uid,
			X:      float64(i*TileWidth) / CanvasWidth,
			Y:      0,
			Width:  float64(TileWidth) / CanvasWidth,
			Height: float64(TileHeight) / CanvasHeight,
		})
		update.BackgroundConfig = append(update.BackgroundConfig, BackgroundConfig{
			UID:      uid,
			ImageURL: u.AvatarURL,
		})
	}
	return update
}

func transcoding(users []domain.Participant) TranscodingConfig {
	return TranscodingConfig{
		Width:            CanvasWidth,
		Height:           CanvasHeight,
		FPS:              fps,
		Bitrate:          bitrate,
		MixedVideoLayout: mixedVideoLayout,
		LayoutUpdate:     Layout(users),
	}
}
