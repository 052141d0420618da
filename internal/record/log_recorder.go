package record

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// LogRecorder stands in for a cloud recording backend: it hands out ids and
// logs every call.
type LogRecorder struct {
	logger *slog.Logger
}

func NewLogRecorder(logger *slog.Logger) *LogRecorder {
	return &LogRecorder{logger: logger}
}

func (r *LogRecorder) Acquire(ctx context.Context, roomID string) (string, error) {
	resourceID := uuid.NewString()
	r.logger.DebugContext(ctx, "record acquire", "room_id", roomID, "resource_id", resourceID)
	return resourceID, nil
}

func (r *LogRecorder) Start(ctx context.Context, roomID, resourceID string, cfg TranscodingConfig) (Started, error) {
	sid := uuid.NewString()
	r.logger.InfoContext(ctx, "record start", "room_id", roomID, "resource_id", resourceID, "sid", sid, "tiles", len(cfg.LayoutConfig))
	return Started{ResourceID: resourceID, SID: sid}, nil
}

func (r *LogRecorder) UpdateLayout(ctx context.Context, roomID, resourceID, sid string, update LayoutUpdate) error {
	r.logger.DebugContext(ctx, "record layout", "room_id", roomID, "sid", sid, "layout", update.LayoutConfig)
	return nil
}

func (r *LogRecorder) Stop(ctx context.Context, roomID, resourceID, sid string) error {
	r.logger.InfoContext(ctx, "record stop", "room_id", roomID, "resource_id", resourceID, "sid", sid)
	return nil
}
