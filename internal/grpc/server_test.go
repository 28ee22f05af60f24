package grpc

import (
	"context"
	"errors"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/test/bufconn"
)

func startTestServer(t *testing.T, probe Probe) (*Server, healthpb.HealthClient) {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	srv := NewServer(probe)
	go func() { _ = srv.GRPC.Serve(lis) }()
	t.Cleanup(srv.GRPC.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return srv, healthpb.NewHealthClient(conn)
}

func check(t *testing.T, client healthpb.HealthClient) healthpb.HealthCheckResponse_ServingStatus {
	t.Helper()
	res, err := client.Check(context.Background(), &healthpb.HealthCheckRequest{Service: ServiceName})
	require.NoError(t, err)
	return res.Status
}

func TestHealthFollowsProbe(t *testing.T) {
	var probeErr error
	srv, client := startTestServer(t, func() error { return probeErr })

	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, check(t, client))

	srv.Probe()
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, check(t, client))

	probeErr = errors.New("connection refused")
	srv.Probe()
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, check(t, client))
}

func TestStartProbeRejectsBadSpec(t *testing.T) {
	srv := NewServer(func() error { return nil })
	defer srv.GRPC.Stop()

	_, err := srv.StartProbe("every now and then")
	assert.Error(t, err)
}
