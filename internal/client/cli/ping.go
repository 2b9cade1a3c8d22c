package cli

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// HealthChecker reports whether the backend is serving.
type HealthChecker interface {
	Check(ctx context.Context) error
}

type grpcHealth struct {
	addr string
}

func (h *grpcHealth) Check(ctx context.Context) error {
	conn, err := grpc.NewClient(h.addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return err
	}
	defer conn.Close()

	resp, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{})
	if err != nil {
		return err
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		return fmt.Errorf("backend is %s", resp.GetStatus())
	}
	return nil
}

func (a *App) ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if err := a.health.Check(ctx); err != nil {
		fmt.Fprintf(a.out, "Backend %s is unavailable: %v\n", a.config.GRPCAddr, err)
		return err
	}
	fmt.Fprintf(a.out, "Backend %s is serving\n", a.config.GRPCAddr)
	return nil
}
