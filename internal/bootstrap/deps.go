package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/paintpro/appointments/config"
	"github.com/paintpro/appointments/internal/cache"
	"github.com/paintpro/appointments/internal/logger"
	"github.com/paintpro/appointments/internal/repository"
)

type Storage struct {
	Slots    repository.SlotRepository
	Bookings repository.BookingRepository
	Leads    repository.LeadRepository
	close    func()
}

func (s *Storage) Close() {
	if s.close != nil {
		s.close()
	}
}

// OpenStorage connects to Postgres, or builds the in-memory store when database.driver is memory.
func OpenStorage(ctx context.Context, cfg config.DatabaseConfig, log *logger.Logger) (*Storage, error) {
	if cfg.Driver == config.DriverMemory {
		log.Warn("using in-memory storage, data is lost on restart")
		store := repository.NewMemoryStore()
		return &Storage{Slots: store.Slots(), Bookings: store.Bookings(), Leads: store.Leads()}, nil
	}

	pool, err := pgxpool.New(ctx, cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if cfg.Migrate {
		if err := repository.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		log.Info("database schema applied")
	}

	return &Storage{
		Slots:    repository.NewSlotRepository(pool),
		Bookings: repository.NewBookingRepository(pool, cfg.LockTimeout()),
		Leads:    repository.NewLeadRepository(pool),
		close:    pool.Close,
	}, nil
}

// OpenCache returns nil when redis.addr is empty. An unreachable Redis is logged, not fatal.
func OpenCache(ctx context.Context, cfg *config.Config, log *logger.Logger) *cache.RedisCache {
	if cfg.Redis.Addr == "" {
		return nil
	}
	rc := cache.NewRedisCache(cfg.Redis, time.Duration(cfg.Booking.SlotsCacheTTL)*time.Second)
	if err := rc.Ping(ctx); err != nil {
		log.Warn("redis is unreachable, cache calls will fail until it recovers", "addr", cfg.Redis.Addr, "error", err)
	}
	return rc
}
