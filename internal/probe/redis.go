package probe

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/rueidis"

	"github.com/hamed0406/statuscheck/internal/domain"
)

// RedisChecker sends PING to the server at Target.Address
// (host:port or a redis:// URL).
type RedisChecker struct {
	Dial func(addr string) (rueidis.Client, error)
}

func NewRedisChecker() *RedisChecker {
	return &RedisChecker{Dial: dialRedis}
}

func dialRedis(addr string) (rueidis.Client, error) {
	opt := rueidis.ClientOption{InitAddress: []string{addr}}
	if strings.Contains(addr, "://") {
		var err error
		if opt, err = rueidis.ParseURL(addr); err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
	}
	opt.DisableCache = true
	return rueidis.NewClient(opt)
}

func (c *RedisChecker) Check(ctx context.Context, t Target) domain.Outcome {
	timeout := t.EffectiveTimeout()
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	client, err := c.Dial(t.Address)
	if err != nil {
		return Classify(err, timeout).WithLatency(time.Since(start))
	}
	defer client.Close()

	reply, err := client.Do(ctx, client.B().Ping().Build()).ToString()
	latency := time.Since(start)
	if err != nil {
		return Classify(err, timeout).WithLatency(latency)
	}
	return domain.Success(reply).WithLatency(latency)
}
