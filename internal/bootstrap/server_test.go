package bootstrap

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paintpro/appointments/config"
	"github.com/paintpro/appointments/internal/logger"
)

func testConfig(grpcAddr string) *config.Config {
	return &config.Config{
		HTTP: config.HTTPConfig{Address: "127.0.0.1:0", ShutdownSeconds: 2},
		GRPC: config.GRPCConfig{Address: grpcAddr},
	}
}

func TestServers_StopOnCancel(t *testing.T) {
	for _, grpcAddr := range []string{"127.0.0.1:0", ""} {
		t.Run("grpc="+grpcAddr, func(t *testing.T) {
			s, err := NewServers(testConfig(grpcAddr), nil, nil, logger.Nop())
			require.NoError(t, err)
			assert.Equal(t, grpcAddr != "", s.grpcServer != nil)

			ctx, cancel := context.WithCancel(context.Background())
			done := make(chan error, 1)
			go func() { done <- s.Serve(ctx) }()

			time.Sleep(50 * time.Millisecond)
			cancel()

			select {
			case err := <-done:
				require.NoError(t, err)
			case <-time.After(5 * time.Second):
				t.Fatal("servers did not stop")
			}
		})
	}
}

func TestServers_ListenError(t *testing.T) {
	s, err := NewServers(testConfig("256.0.0.1:1"), nil, nil, logger.Nop())
	require.NoError(t, err)
	err = s.Serve(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "listen gRPC")
}
