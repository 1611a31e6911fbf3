package srv

import (
	"context"
	"time"

	"github.com/sandevgo/tuskbridge/pkg/log"
)

// ShutdownGrace bounds how long each service may take to stop.
const ShutdownGrace = 10 * time.Second

type Service interface {
	// Start may block until the service stops.
	Start(ctx context.Context) error
	Shutdown(ctx context.Context) error
}

func StartServices(ctx context.Context, services []Service) {
	logger := log.FromCtx(ctx)
	for _, service := range services {
		go func(service Service) {
			if err := service.Start(ctx); err != nil {
				logger.Fatal().Err(err).Msgf("%T failed to start", service)
			}
		}(service)
	}
}

// ShutdownServices waits for ctx to end, then stops services in reverse
// order of start, each with its own grace period.
func ShutdownServices(ctx context.Context, services []Service) {
	<-ctx.Done()
	logger := log.FromCtx(ctx)

	for i := len(services) - 1; i >= 0; i-- {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), ShutdownGrace)
		if err := services[i].Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msgf("%T failed to shutdown", services[i])
		}
		cancel()
	}
}
