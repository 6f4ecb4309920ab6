package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	redislib "github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Pinger is satisfied by *pgxpool.Pool and the bolt store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Monitor probes the task store and Redis on a cron schedule and caches the
// outcome for the health endpoint.
type Monitor struct {
	storage Pinger
	driver  string
	redis   *redislib.Client

	status Status
	mu     sync.RWMutex
	cron   *cron.Cron
	logger *zap.Logger
}

func New(storage Pinger, driver string, redis *redislib.Client, interval time.Duration, logger *zap.Logger) *Monitor {
	if interval < time.Second {
		interval = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Monitor{
		storage: storage,
		driver:  driver,
		redis:   redis,
		cron:    cron.New(cron.WithSeconds()),
		logger:  logger,
	}

	schedule := fmt.Sprintf("@every %ds", int(interval.Seconds()))
	if _, err := m.cron.AddFunc(schedule, m.Refresh); err != nil {
		logger.Error("failed to schedule health checks", zap.Error(err))
	}
	return m
}

// Start probes once synchronously, then keeps probing in the background.
func (m *Monitor) Start() {
	m.Refresh()
	m.cron.Start()
}

// Stop halts the schedule and waits for a running probe to finish.
func (m *Monitor) Stop() {
	<-m.cron.Stop().Done()
}

func (m *Monitor) IsOnline() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status.Healthy()
}

func (m *Monitor) GetStatus() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

// Refresh runs every probe and records the result.
func (m *Monitor) Refresh() {
	status := Status{
		Storage:       m.checkStorage(),
		StorageDriver: m.driver,
		Redis:         m.checkRedis(),
		LastCheck:     time.Now(),
	}

	m.mu.Lock()
	previous := m.status
	m.status = status
	m.mu.Unlock()

	if !previous.LastCheck.IsZero() && previous.Healthy() != status.Healthy() {
		m.logger.Warn("dependency health changed",
			zap.Bool("storage", status.Storage),
			zap.Bool("redis", status.Redis))
	}
}

func (m *Monitor) checkStorage() bool {
	if m.storage == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	return m.storage.Ping(ctx) == nil
}

func (m *Monitor) checkRedis() bool {
	if m.redis == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return m.redis.Ping(ctx).Err() == nil
}
