package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	vo "github.com/oksasatya/go-hexagonal-users/internal/domain/valueobject"
)

const keyPrefix = "user:by_id:"

func userKey(id vo.UserID) string { return keyPrefix + id.String() }

// cachedUser is the JSON shape stored in Redis.
type cachedUser struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// userCodec reads and writes cachedUser entries.
type userCodec struct {
	rdb *redis.Client
	ttl time.Duration
}

// get reports found=false on a missing key. A corrupt entry is an error.
func (c userCodec) get(ctx context.Context, id vo.UserID) (cachedUser, bool, error) {
	var u cachedUser
	raw, err := c.rdb.Get(ctx, userKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return u, false, nil
	}
	if err != nil {
		return u, false, err
	}
	if err := json.Unmarshal(raw, &u); err != nil {
		return u, false, fmt.Errorf("decode %s: %w", userKey(id), err)
	}
	return u, true, nil
}

func (c userCodec) set(ctx context.Context, u cachedUser) error {
	b, err := json.Marshal(u)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, keyPrefix+strconv.FormatInt(u.ID, 10), b, c.ttl).Err()
}

func (c userCodec) del(ctx context.Context, id vo.UserID) error {
	return c.rdb.Del(ctx, userKey(id)).Err()
}
