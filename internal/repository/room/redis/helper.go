package redis

import (
	"context"

	"github.com/redis/go-redis/v9"

	"github.com/flatclass/classroom/pkg/redishash"
)

func (r repo) addWithIncrement(ctx context.Context, c redis.Scripter, key string, value any) *redis.Cmd {
	return c.EvalSha(ctx, r.maxScoreScript, []string{key}, value)
}

// HSetStruct writes the redis-tagged fields of value into the hash at key.
// Nil pointer fields are skipped.
func (r repo) HSetStruct(ctx context.Context, c redis.Cmdable, key string, value any) error {
	return c.HSet(ctx, key, redishash.Fields(value)).Err()
}

func (r repo) executePipe(ctx context.Context, pipe redis.Pipeliner) error {
	cmds, err := pipe.Exec(ctx)
	if err != nil {
		for _, cmd := range cmds {
			if err := cmd.Err(); err != nil {
				return err
			}
		}

		return err
	}

	return nil
}
