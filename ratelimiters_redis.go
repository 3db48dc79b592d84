package rdapstorm

import (
	"context"
	"fmt"
	"strconv"
	"time"

	redis "github.com/go-redis/redis/v7"
)

// redisEndpointLimiter is a distributed token bucket shared across
// every process probing through the same Redis instance, so a fleet of
// probers never collectively exceeds an endpoint's rate even though no
// single process can see the others' traffic. Grounded on
// network-services-operator's redisProviderLimiter: same Lua
// acquire-or-block script, adapted from an Acquire/bool-retry API to
// the blocking Wait the Prober calls.
type redisEndpointLimiter struct {
	client redis.UniversalClient
	prefix string
	rps    float64
	burst  float64

	stateTTL time.Duration
	script   *redis.Script
}

// WithRedisLimiter switches the Prober's rate limiting from the
// default in-memory buckets to a Redis-backed distributed limiter.
func WithRedisLimiter(client redis.UniversalClient, prefix string) ProberOption {
	return func(p *Prober) {
		p.limiter = newRedisEndpointLimiter(client, prefix, p.config.MaxRatePerEndpoint, p.config.MaxRatePerEndpoint)
	}
}

func newRedisEndpointLimiter(client redis.UniversalClient, prefix string, ratePerSec, burst float64) *redisEndpointLimiter {
	return &redisEndpointLimiter{
		client:   client,
		prefix:   prefix,
		rps:      ratePerSec,
		burst:    burst,
		stateTTL: 30 * time.Minute,
		script: redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local rate = tonumber(ARGV[2])
local burst = tonumber(ARGV[3])
local stateTTL = tonumber(ARGV[4])

local tokens = tonumber(redis.call('HGET', key, 'tokens'))
if tokens == nil then tokens = burst end

local lastRefill = tonumber(redis.call('HGET', key, 'last_refill'))
if lastRefill == nil then lastRefill = now end

local delta = now - lastRefill
if delta < 0 then delta = 0 end

tokens = math.min(burst, tokens + (delta * rate / 1000.0))

if tokens >= 1.0 then
  tokens = tokens - 1.0
  redis.call('HSET', key, 'tokens', tokens, 'last_refill', now)
  redis.call('PEXPIRE', key, stateTTL)
  return {1, 0}
else
  local waitMs = math.ceil((1.0 - tokens) * 1000.0 / rate)
  redis.call('HSET', key, 'tokens', tokens, 'last_refill', now)
  redis.call('PEXPIRE', key, stateTTL)
  return {0, waitMs}
end
`),
	}
}

func (l *redisEndpointLimiter) key(endpoint string) string {
	if endpoint == "" {
		endpoint = "default"
	}
	base := "rdapstorm:rl:" + endpoint
	if l.prefix == "" {
		return base
	}
	return l.prefix + base
}

// Wait loops acquire attempts until a token is granted or ctx ends.
// go-redis v7 is context-less, so ctx is polled between attempts.
func (l *redisEndpointLimiter) Wait(ctx context.Context, endpoint string) error {
	for {
		ok, retry, err := l.acquire(endpoint)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		select {
		case <-time.After(retry):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (l *redisEndpointLimiter) acquire(endpoint string) (bool, time.Duration, error) {
	nowMs := time.Now().UnixMilli()
	stateTTLms := l.stateTTL.Milliseconds()
	res, err := l.script.Run(l.client, []string{l.key(endpoint)}, nowMs, l.rps, l.burst, stateTTLms).Result()
	if err != nil {
		return false, 0, err
	}
	arr, ok := res.([]interface{})
	if !ok || len(arr) < 2 {
		return false, 0, fmt.Errorf("unexpected limiter response: %T", res)
	}
	okNum, ok := toInt64(arr[0])
	if !ok {
		return false, 0, fmt.Errorf("unexpected limiter ok type: %T", arr[0])
	}
	if okNum == 0 {
		retryMs, ok := toInt64(arr[1])
		if !ok {
			return false, 0, fmt.Errorf("unexpected limiter retry type: %T", arr[1])
		}
		return false, time.Duration(retryMs) * time.Millisecond, nil
	}
	return true, 0, nil
}

func toInt64(v any) (int64, bool) {
	switch x := v.(type) {
	case int64:
		return x, true
	case int:
		return int64(x), true
	case float64:
		return int64(x), true
	case []byte:
		n, err := strconv.ParseInt(string(x), 10, 64)
		return n, err == nil
	case string:
		n, err := strconv.ParseInt(x, 10, 64)
		return n, err == nil
	default:
		return 0, false
	}
}
