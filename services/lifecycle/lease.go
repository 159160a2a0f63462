package lifecycle

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Leaser grants single-flight leases by name. Acquire reports ok=false when another holder
// has the lease. The returned context is cancelled once the lease is released or lost, and
// release must be called once the work is done.
type Leaser interface {
	Acquire(ctx context.Context, name string, ttl time.Duration) (lease context.Context, release func(), ok bool, err error)
}

// LocalLeaser guards passes within one process. Its leases are never lost.
type LocalLeaser struct {
	mu   sync.Mutex
	held map[string]bool
}

func NewLocalLeaser() *LocalLeaser {
	return &LocalLeaser{held: make(map[string]bool)}
}

func (l *LocalLeaser) Acquire(ctx context.Context, name string, ttl time.Duration) (context.Context, func(), bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[name] {
		return nil, nil, false, nil
	}
	l.held[name] = true
	leaseCtx, cancel := context.WithCancel(ctx)
	var once sync.Once
	return leaseCtx, func() {
		once.Do(func() {
			cancel()
			l.mu.Lock()
			delete(l.held, name)
			l.mu.Unlock()
		})
	}, true, nil
}

// releaseScript deletes the lease only while it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// renewScript extends the lease only while it still holds our token.
var renewScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

// RedisLeaser guards passes across instances sharing one Redis. A held lease is renewed
// every ttl/3; it expires after its ttl once the holder stops renewing.
type RedisLeaser struct {
	Client *redis.Client
	Prefix string
	Logger *zap.Logger
}

func NewRedisLeaser(client *redis.Client, logger *zap.Logger) *RedisLeaser {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisLeaser{Client: client, Prefix: "mindhaven:lease:", Logger: logger}
}

func (r *RedisLeaser) Acquire(ctx context.Context, name string, ttl time.Duration) (context.Context, func(), bool, error) {
	key := r.Prefix + name
	token := uuid.NewString()
	ok, err := r.Client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, nil, false, fmt.Errorf("acquire lease %s: %w", name, err)
	}
	if !ok {
		return nil, nil, false, nil
	}

	leaseCtx, cancel := context.WithCancel(ctx)
	stop := make(chan struct{})
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		r.keepAlive(leaseCtx, cancel, stop, key, token, ttl)
	}()

	var once sync.Once
	return leaseCtx, func() {
		once.Do(func() {
			close(stop)
			<-stopped
			cancel()

			rctx, rcancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer rcancel()
			n, err := releaseScript.Run(rctx, r.Client, []string{key}, token).Int()
			switch {
			case err != nil:
				r.Logger.Warn("lease release failed", zap.String("lease", key), zap.Error(err))
			case n == 0:
				r.Logger.Warn("lease had already expired on release", zap.String("lease", key))
			}
		})
	}, true, nil
}

// keepAlive renews the lease until stop is closed. It cancels the lease context when the key
// no longer holds our token, or when renewals have failed for a whole ttl.
func (r *RedisLeaser) keepAlive(ctx context.Context, cancel context.CancelFunc, stop <-chan struct{}, key, token string, ttl time.Duration) {
	interval := ttl / 3
	if interval <= 0 {
		interval = time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	renewed := time.Now()

	for {
		select {
		case <-stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		rctx, rcancel := context.WithTimeout(context.Background(), interval)
		n, err := renewScript.Run(rctx, r.Client, []string{key}, token, ttl.Milliseconds()).Int()
		rcancel()
		switch {
		case err == nil && n == 1:
			renewed = time.Now()
		case err == nil:
			r.Logger.Warn("lease lost", zap.String("lease", key))
			cancel()
			return
		default:
			r.Logger.Warn("lease renewal failed", zap.String("lease", key), zap.Error(err))
			if time.Since(renewed) >= ttl {
				r.Logger.Warn("lease presumed lost after failed renewals", zap.String("lease", key))
				cancel()
				return
			}
		}
	}
}
