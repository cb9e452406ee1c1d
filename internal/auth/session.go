package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const sessionKeyFmt = "session:%s"

func SetSession(rdb *redis.Client, agentID string, token string, duration time.Duration) error {
	ctx := context.Background()
	key := fmt.Sprintf(sessionKeyFmt, agentID)
	return rdb.Set(ctx, key, token, duration).Err()
}

func GetSession(rdb *redis.Client, agentID string) (string, error) {
	ctx := context.Background()
	key := fmt.Sprintf(sessionKeyFmt, agentID)
	return rdb.Get(ctx, key).Result()
}

func DeleteSession(rdb *redis.Client, agentID string) error {
	ctx := context.Background()
	key := fmt.Sprintf(sessionKeyFmt, agentID)
	return rdb.Del(ctx, key).Err()
}

// OnlineAgentCount returns the number of unique agents with an active
// session, used by the operator dashboard to gauge concurrent load.
func OnlineAgentCount(rdb *redis.Client) (int, error) {
	ctx := context.Background()
	var cursor uint64
	agentIDs := make(map[string]struct{})
	for {
		keys, newCursor, err := rdb.Scan(ctx, cursor, "session:*", 100).Result()
		if err != nil {
			return 0, err
		}
		for _, key := range keys {
			parts := strings.SplitN(key, ":", 2)
			if len(parts) == 2 && parts[0] == "session" && parts[1] != "" {
				agentIDs[parts[1]] = struct{}{}
			}
		}
		if newCursor == 0 {
			break
		}
		cursor = newCursor
	}
	return len(agentIDs), nil
}
