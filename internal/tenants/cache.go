package tenants

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// RoutingCache caches email-to-tenant routing lookups in Redis. The lookup
// runs on every sign-in page load, so concurrent misses for the same email
// are collapsed through singleflight before hitting the directory.
type RoutingCache struct {
	client *redis.Client
	ttl    time.Duration
	group  singleflight.Group
}

// NewRoutingCache instantiates the cache helper. A nil client disables
// caching but keeps the singleflight dedupe.
func NewRoutingCache(client *redis.Client, ttl time.Duration) *RoutingCache {
	return &RoutingCache{client: client, ttl: ttl}
}

func routingKey(email string) string {
	return "tenants:routing:" + email
}

// Fetch loads the routing for an email, populating the cache via loader on a
// miss. Loader errors are never cached.
func (c *RoutingCache) Fetch(ctx context.Context, email string, loader func(context.Context) (Routing, error)) (Routing, error) {
	if loader == nil {
		return Routing{}, errors.New("tenants: loader required")
	}
	if c == nil || c.client == nil {
		return loader(ctx)
	}
	key := routingKey(email)
	payload, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		var routing Routing
		if err := json.Unmarshal(payload, &routing); err == nil {
			return routing, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		return Routing{}, err
	}

	result, err, _ := c.group.Do(key, func() (any, error) {
		routing, err := loader(ctx)
		if err != nil {
			return Routing{}, err
		}
		raw, err := json.Marshal(routing)
		if err != nil {
			return Routing{}, err
		}
		if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
			return Routing{}, err
		}
		return routing, nil
	})
	if err != nil {
		return Routing{}, err
	}
	return result.(Routing), nil
}

// Invalidate drops the cached routing for an email, e.g. after the account
// moved tenants or was deleted.
func (c *RoutingCache) Invalidate(ctx context.Context, email string) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Del(ctx, routingKey(email)).Err()
}
