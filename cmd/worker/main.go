package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	kafkaGo "github.com/segmentio/kafka-go"
	"golang.org/x/sync/errgroup"

	"github.com/paintpro/appointments/config"
	"github.com/paintpro/appointments/internal/bootstrap"
	"github.com/paintpro/appointments/internal/cache"
	"github.com/paintpro/appointments/internal/domain"
	"github.com/paintpro/appointments/internal/email"
	"github.com/paintpro/appointments/internal/kafka"
	"github.com/paintpro/appointments/internal/logger"
	"github.com/paintpro/appointments/internal/service/slots"
)

func main() {
	cfgPath := os.Getenv(config.EnvConfigPath)
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	bootLog := logger.New(logger.Config{Service: "appointments-worker"})
	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		bootLog.Fatal("load config", "path", cfgPath, "error", err)
	}

	log := logger.New(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Service: "appointments-worker"})
	loc, err := cfg.Booking.TimeLocation()
	if err != nil {
		log.Fatal("load timezone", "timezone", cfg.Booking.Timezone, "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	storage, err := bootstrap.OpenStorage(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal("open storage", "error", err)
	}
	defer storage.Close()

	rc := bootstrap.OpenCache(ctx, cfg, log)
	var slotCache slots.SlotCache
	if rc != nil {
		defer rc.Close()
		slotCache = rc
	}
	slotService := slots.NewSlotService(storage.Slots, slotCache, loc, log)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		runSweeper(gctx, slotService, rc, loc, time.Duration(cfg.Worker.CloseSweepMinutes)*time.Minute, log)
		return nil
	})

	if cfg.Kafka.Enabled() && cfg.Email.APIKey != "" {
		sender := email.NewSender(cfg.Email, loc, log)
		consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.NotificationsTopic)
		defer consumer.Close()

		g.Go(func() error {
			log.Info("notification consumer started", "topic", cfg.Kafka.NotificationsTopic)
			return consumer.Consume(gctx, func(ctx context.Context, msg kafkaGo.Message) error {
				return handleNotification(ctx, sender, msg, log)
			})
		})
	} else {
		log.Warn("notification consumer disabled, kafka brokers and email api key are both required")
	}

	if err := g.Wait(); err != nil && ctx.Err() == nil {
		log.Fatal("worker stopped", "error", err)
	}
	log.Info("worker stopped")
}

// handleNotification never fails the consumer. Bad messages and send errors are logged and skipped.
func handleNotification(ctx context.Context, sender *email.Sender, msg kafkaGo.Message, log *logger.Logger) error {
	event, err := kafka.DecodeEvent(msg)
	if err != nil {
		log.Error("skipping malformed notification", "offset", msg.Offset, "error", err)
		return nil
	}
	if event.Type != kafka.EventAppointmentBooked {
		log.Debug("skipping notification", "type", event.Type)
		return nil
	}
	if err := sender.NotifyBooked(ctx, event); err != nil {
		log.Error("failed to send booking emails", "booking_id", event.BookingID, "error", err)
	}
	return nil
}

func runSweeper(ctx context.Context, svc slots.SlotUseCase, rc *cache.RedisCache, loc *time.Location, every time.Duration, log *logger.Logger) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		sweep(ctx, svc, rc, loc, every, log)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// sweep closes open slots dated today or earlier. With Redis, one worker per interval wins the lock.
func sweep(ctx context.Context, svc slots.SlotUseCase, rc *cache.RedisCache, loc *time.Location, every time.Duration, log *logger.Logger) {
	if rc != nil {
		ok, err := rc.AcquireSweepLock(ctx, domain.CalendarDay(time.Now(), loc), every)
		if err != nil {
			log.Warn("sweep lock unavailable, sweeping anyway", "error", err)
		} else if !ok {
			return
		}
	}

	if _, err := svc.CloseExpired(ctx); err != nil {
		log.Error("close expired slots", "error", err)
	}
}
