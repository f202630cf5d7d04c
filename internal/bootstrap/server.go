package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"github.com/paintpro/appointments/api"
	"github.com/paintpro/appointments/config"
	appointmentsapi "github.com/paintpro/appointments/internal/api/appointments_service_api"
	"github.com/paintpro/appointments/internal/logger"
	"github.com/paintpro/appointments/internal/service/booking"
	"github.com/paintpro/appointments/internal/service/slots"
)

type Servers struct {
	grpcServer *grpc.Server
	httpServer *http.Server
	grpcAddr   string
	shutdown   time.Duration
	log        *logger.Logger
}

// Run starts the HTTP API with the /v1 gateway and, when an address is configured, the gRPC API.
// It blocks until ctx is cancelled or a server fails, then shuts both down.
func Run(ctx context.Context, cfg *config.Config, bookingSvc booking.BookingUseCase, slotSvc slots.SlotUseCase, log *logger.Logger) error {
	s, err := NewServers(cfg, bookingSvc, slotSvc, log)
	if err != nil {
		return err
	}
	return s.Serve(ctx)
}

func NewServers(cfg *config.Config, bookingSvc booking.BookingUseCase, slotSvc slots.SlotUseCase, log *logger.Logger) (*Servers, error) {
	rpc := appointmentsapi.NewServer(bookingSvc, slotSvc)
	gateway, err := appointmentsapi.NewGateway(rpc)
	if err != nil {
		return nil, fmt.Errorf("build gateway: %w", err)
	}

	router := api.NewRouter(api.RouterConfig{
		AdminToken: cfg.HTTP.AdminToken,
		Bookings:   bookingSvc,
		Slots:      slotSvc,
		Log:        log,
		Gateway:    gateway,
	})

	s := &Servers{
		httpServer: &http.Server{
			Addr:              cfg.HTTP.Address,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		grpcAddr: cfg.GRPC.Address,
		shutdown: time.Duration(cfg.HTTP.ShutdownSeconds) * time.Second,
		log:      log,
	}

	if s.grpcAddr != "" {
		s.grpcServer = grpc.NewServer(grpc.UnaryInterceptor(appointmentsapi.UnaryLogger(log)))
		appointmentsapi.RegisterAppointmentsServiceServer(s.grpcServer, rpc)
	}
	return s, nil
}

func (s *Servers) Serve(ctx context.Context) error {
	var lis net.Listener
	if s.grpcServer != nil {
		var err error
		lis, err = net.Listen("tcp", s.grpcAddr)
		if err != nil {
			return fmt.Errorf("listen gRPC %s: %w", s.grpcAddr, err)
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.log.Info("http server listening", "address", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve http: %w", err)
		}
		return nil
	})

	if lis != nil {
		g.Go(func() error {
			s.log.Info("grpc server listening", "address", lis.Addr().String())
			if err := s.grpcServer.Serve(lis); err != nil {
				return fmt.Errorf("serve grpc: %w", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		s.log.Info("shutting down servers")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdown)
		defer cancel()

		if s.grpcServer != nil {
			s.grpcServer.GracefulStop()
		}
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	})

	return g.Wait()
}
