package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DefaultClaimTTL bounds how long a crashed scan can hold a driver claim.
const DefaultClaimTTL = 10 * time.Second

// Claimer hands out short-lived exclusive claims on a driver id so two
// gates cannot resolve the same driver at once. Claim returns
// ErrDriverClaimed when another holder owns the claim.
type Claimer interface {
	Claim(ctx context.Context, driverID string) (release func(), err error)
}

// NoopClaimer always succeeds. Used when no Redis is configured.
type NoopClaimer struct{}

func (NoopClaimer) Claim(context.Context, string) (func(), error) {
	return func() {}, nil
}

// releaseScript deletes the key only while it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`)

type RedisClaimer struct {
	rdb    redis.UniversalClient
	ttl    time.Duration
	prefix string
	token  func() string
}

func NewRedisClaimer(rdb redis.UniversalClient, ttl time.Duration) *RedisClaimer {
	if ttl <= 0 {
		ttl = DefaultClaimTTL
	}
	return &RedisClaimer{
		rdb:    rdb,
		ttl:    ttl,
		prefix: "vaultpark:claim:driver:",
		token:  newClaimToken,
	}
}

func (c *RedisClaimer) Claim(ctx context.Context, driverID string) (func(), error) {
	key := c.prefix + driverID
	tok := c.token()

	ok, err := c.rdb.SetNX(ctx, key, tok, c.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("claim %s: %w", driverID, err)
	}
	if !ok {
		return nil, ErrDriverClaimed
	}

	release := func() {
		// Runs after the scan context may already be cancelled.
		rctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = releaseScript.Run(rctx, c.rdb, []string{key}, tok).Err()
	}
	return release, nil
}

func newClaimToken() string { return uuid.NewString() }
