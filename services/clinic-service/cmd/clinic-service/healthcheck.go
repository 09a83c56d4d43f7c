package main

import (
	"context"
	"fmt"
	"time"

	"github.com/md-rashed-zaman/clinicbook/libs/config"
	"github.com/md-rashed-zaman/clinicbook/libs/grpcx"
	"github.com/spf13/cobra"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// healthcheckCmd probes a running instance over gRPC; it exits non-zero
// unless the service reports SERVING. Used as the container health check.
func healthcheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "healthcheck",
		Short: "Probe the gRPC health endpoint of a running instance",
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, _ := cmd.Flags().GetString("addr")
			if addr == "" {
				addr = "127.0.0.1:" + config.String("GRPC_PORT", "9090")
			}
			service := config.String("SERVICE_NAME", "clinic-service")

			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
			defer cancel()
			status, err := grpcx.Probe(ctx, addr, service)
			if err != nil {
				return fmt.Errorf("health probe %s: %w", addr, err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), status.String())
			if status != healthpb.HealthCheckResponse_SERVING {
				return fmt.Errorf("service %s is %s", service, status)
			}
			return nil
		},
	}
	cmd.Flags().String("addr", "", "gRPC address (default 127.0.0.1:$GRPC_PORT)")
	return cmd
}
