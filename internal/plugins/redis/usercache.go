package redis

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/SumukhChakkirala/chatApp/internal/core/domain"
)

// UserCache is a read-through cache over the user repository. Message
// fan-out resolves the same sender for every recipient, so identities
// are kept in Redis with a TTL and concurrent misses for one user are
// collapsed with singleflight.
type UserCache struct {
	rdb   *redis.Client
	users domain.UserRepository
	ttl   time.Duration
	group singleflight.Group
	log   *slog.Logger
}

func NewUserCache(rdb *redis.Client, users domain.UserRepository, ttl time.Duration, log *slog.Logger) *UserCache {
	return &UserCache{
		rdb:   rdb,
		users: users,
		ttl:   ttl,
		log:   log,
	}
}

type cachedUser struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	UserTag  string    `json:"user_tag"`
}

func (c *UserCache) key(id uuid.UUID) string {
	return "user:" + id.String()
}

func (c *UserCache) GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	key := c.key(id)

	// Cache errors degrade to a repository read, they never surface.
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err == nil {
		var cu cachedUser
		if err := json.Unmarshal(raw, &cu); err == nil {
			return &domain.User{ID: cu.ID, Username: cu.Username, UserTag: cu.UserTag}, nil
		}
	} else if err != redis.Nil {
		c.log.Debug("usercache - GetUser - redis read failed", "error", err)
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		user, err := c.users.GetUserByID(ctx, id)
		if err != nil {
			return nil, err
		}
		payload, err := json.Marshal(cachedUser{ID: user.ID, Username: user.Username, UserTag: user.UserTag})
		if err == nil {
			if err := c.rdb.Set(ctx, key, payload, c.ttl).Err(); err != nil {
				c.log.Debug("usercache - GetUser - redis write failed", "error", err)
			}
		}
		return user, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.User), nil
}
