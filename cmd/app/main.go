package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/paintpro/appointments/config"
	"github.com/paintpro/appointments/internal/bootstrap"
	"github.com/paintpro/appointments/internal/email"
	"github.com/paintpro/appointments/internal/kafka"
	"github.com/paintpro/appointments/internal/logger"
	"github.com/paintpro/appointments/internal/service/booking"
	"github.com/paintpro/appointments/internal/service/slots"
)

func main() {
	cfgPath := os.Getenv(config.EnvConfigPath)
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	bootLog := logger.New(logger.Config{Service: "appointments-api"})
	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		bootLog.Fatal("load config", "path", cfgPath, "error", err)
	}

	log := logger.New(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Service: "appointments-api"})
	loc, err := cfg.Booking.TimeLocation()
	if err != nil {
		log.Fatal("load timezone", "timezone", cfg.Booking.Timezone, "error", err)
	}

	if cfg.HTTP.AdminToken == "" {
		log.Warn("admin routes are open, set http.admin_token to protect them")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	storage, err := bootstrap.OpenStorage(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal("open storage", "error", err)
	}
	defer storage.Close()

	var (
		bookingCache booking.Cache
		slotCache    slots.SlotCache
	)
	if rc := bootstrap.OpenCache(ctx, cfg, log); rc != nil {
		defer rc.Close()
		bookingCache = rc
		slotCache = rc
	}

	var notifier booking.Notifier
	switch {
	case cfg.Kafka.Enabled():
		producer := kafka.NewProducer(cfg.Kafka.Brokers, log)
		defer producer.Close()
		if err := producer.CheckConnection(ctx); err != nil {
			log.Warn("kafka is unreachable, notifications will be retried per booking", "error", err)
		}
		notifier = kafka.NewNotifier(producer, cfg.Kafka.NotificationsTopic)
	case cfg.Email.APIKey != "":
		notifier = email.NewSender(cfg.Email, loc, log)
	default:
		log.Warn("no notifier configured, bookings will not send confirmations")
	}

	bookingService := booking.NewBookingService(
		storage.Bookings,
		storage.Slots,
		storage.Leads,
		bookingCache,
		notifier,
		log,
		booking.WithTimezone(loc),
		booking.WithAppointmentLocation(cfg.Booking.Location),
		booking.WithNotifyTimeout(time.Duration(cfg.Booking.NotifyTimeoutSec)*time.Second),
	)
	slotService := slots.NewSlotService(storage.Slots, slotCache, loc, log)

	err = bootstrap.Run(ctx, cfg, bookingService, slotService, log)
	bookingService.Wait()
	if err != nil {
		log.Fatal("server error", "error", err)
	}
}
