package redis

import (
	"context"

	"github.com/flatclass/classroom/internal/domain"
)

func (r repo) getDeviceConfigKey(roomID string) string {
	return r.key("device-config", roomID)
}

// GetDeviceConfig returns domain.ErrDeviceConfigNotFound when nothing was
// stored for roomID.
func (r repo) GetDeviceConfig(ctx context.Context, roomID string) (domain.DeviceConfig, error) {
	r.logger.DebugContext(ctx, "called", "room_id", roomID)
	res := r.rc.HGetAll(ctx, r.getDeviceConfigKey(roomID))
	if err := res.Err(); err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return domain.DeviceConfig{}, err
	}

	if len(res.Val()) == 0 {
		r.logger.DebugContext(ctx, "returned", "error", domain.ErrDeviceConfigNotFound)
		return domain.DeviceConfig{}, domain.ErrDeviceConfigNotFound
	}

	var cfg domain.DeviceConfig
	if err := res.Scan(&cfg); err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return domain.DeviceConfig{}, err
	}
	cfg.RoomID = roomID

	return cfg, nil
}

// UpsertDeviceConfig keeps the config without expiry.
func (r repo) UpsertDeviceConfig(ctx context.Context, cfg domain.DeviceConfig) error {
	r.logger.DebugContext(ctx, "called", "config", cfg)
	if err := r.HSetStruct(ctx, r.rc, r.getDeviceConfigKey(cfg.RoomID), cfg); err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return err
	}

	return nil
}
