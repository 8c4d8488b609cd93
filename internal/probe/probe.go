/*
 * Copyright (c) 2026 Francesco Biribo'
 *
 * Permission to use, copy, modify, and distribute this software for any purpose with or without fee is hereby granted, provided that the above copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */

// Package probe exposes the standard gRPC health service so orchestrators can tell
// whether the store and the socket surface are up.
package probe

import (
	"context"
	"fmt"
	"net"

	"dmcore/internal/nlog"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Service names reported by the probe. The empty name is the overall status.
const (
	Overall  = ""
	Messages = "dmcore.messages"
	Presence = "dmcore.presence"
)

type Probe struct {
	logger nlog.Logger
	health *health.Server
	server *grpc.Server
}

func NewProbe(logger nlog.Logger) *Probe {
	h := health.NewServer()
	for _, name := range []string{Overall, Messages, Presence} {
		h.SetServingStatus(name, healthpb.HealthCheckResponse_NOT_SERVING)
	}

	server := grpc.NewServer()
	healthpb.RegisterHealthServer(server, h)

	return &Probe{logger: logger, health: h, server: server}
}

// SetServing flips a single service between SERVING and NOT_SERVING
func (p *Probe) SetServing(service string, serving bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		status = healthpb.HealthCheckResponse_SERVING
	}
	p.health.SetServingStatus(service, status)
}

// Serve answers health checks on lis until ctx is done. Every service reports NOT_SERVING while draining.
func (p *Probe) Serve(ctx context.Context, lis net.Listener) error {
	go func() {
		<-ctx.Done()
		p.logger.Logf("Shutting down health probe...")
		p.health.Shutdown()
		p.server.GracefulStop()
	}()

	p.logger.Logf("Health probe listening on %s", lis.Addr())
	if err := p.server.Serve(lis); err != nil && err != grpc.ErrServerStopped {
		return err
	}
	return nil
}

// Listen is Serve on tcp:port
func (p *Probe) Listen(ctx context.Context, port uint16) error {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return err
	}
	return p.Serve(ctx, lis)
}
