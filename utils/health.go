package utils

import (
	"context"
	"sync"
	"time"
)

// Pinger is any dependency that can report liveness.
type Pinger interface {
	Name() string
	Ping(ctx context.Context) error
}

// HealthStatus represents current status of external services.
type HealthStatus struct {
	Services  map[string]bool `json:"services"`
	CheckedAt time.Time       `json:"checkedAt"`
}

// Healthy is true when every checked dependency answered.
func (h HealthStatus) Healthy() bool {
	for _, ok := range h.Services {
		if !ok {
			return false
		}
	}
	return true
}

var (
	currentHealth HealthStatus
	mu            sync.RWMutex
)

// GetHealthStatus returns latest stored health snapshot.
func GetHealthStatus() HealthStatus {
	mu.RLock()
	defer mu.RUnlock()
	return currentHealth
}

// CheckHealth pings every dependency once and stores the snapshot.
func CheckHealth(ctx context.Context, deps []Pinger) HealthStatus {
	status := HealthStatus{Services: make(map[string]bool, len(deps)), CheckedAt: time.Now()}
	for _, d := range deps {
		pctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		status.Services[d.Name()] = d.Ping(pctx) == nil
		cancel()
	}

	mu.Lock()
	currentHealth = status
	mu.Unlock()
	return status
}

// StartHealthMonitor performs periodic health checks and updates in-memory state.
func StartHealthMonitor(ctx context.Context, deps []Pinger, every time.Duration) {
	go func() {
		CheckHealth(ctx, deps)

		ticker := time.NewTicker(every)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				CheckHealth(ctx, deps)
			}
		}
	}()
}
