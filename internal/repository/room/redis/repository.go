package redis

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

type Config struct {
	// KeyPrefix namespaces every key written by the repo.
	KeyPrefix string
	// Expire is the lifetime of room and member keys.
	Expire time.Duration
}

type repo struct {
	rc             *redis.Client
	keyPrefix      string
	expire         time.Duration
	maxScoreScript string
	logger         *slog.Logger
}

func NewRepo(rc *redis.Client, cfg *Config, logger *slog.Logger) *repo {
	return &repo{
		rc:        rc,
		keyPrefix: cfg.KeyPrefix,
		expire:    cfg.Expire,
		logger:    logger,
		maxScoreScript: rc.ScriptLoad(context.Background(), `
			local maxScore = redis.call('ZREVRANGE', KEYS[1], 0, 0, 'WITHSCORES')
			local nextScore = 1
			if #maxScore > 0 then
				nextScore = tonumber(maxScore[2]) + 1
			end
			redis.call('ZADD', KEYS[1], nextScore, ARGV[1])
			return nextScore
		`).Val(),
	}
}

func (r repo) key(parts ...string) string {
	return r.keyPrefix + strings.Join(parts, ":")
}
