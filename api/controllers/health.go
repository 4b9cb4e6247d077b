package controllers

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/angelmondragon/photocard-store/api/responses"
	"github.com/angelmondragon/photocard-store/pkg/config"
	pkgerrors "github.com/angelmondragon/photocard-store/pkg/errors"
	"github.com/angelmondragon/photocard-store/pkg/logger"
)

const (
	serviceBanner  = "Photocard Store API"
	serviceVersion = "1.0.0"
	readyTimeout   = 2 * time.Second
)

// Pinger is anything the readiness probe can check.
type Pinger interface {
	Ping(ctx context.Context) error
}

type statusResponse struct {
	Status      string    `json:"status"`
	Message     string    `json:"message,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
	Environment string    `json:"environment,omitempty"`
	Version     string    `json:"version,omitempty"`
}

// Root answers / with the service banner.
func Root(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteOK(w, statusResponse{
			Status:      "running",
			Message:     serviceBanner,
			Timestamp:   time.Now().UTC(),
			Environment: cfg.App.Env,
			Version:     serviceVersion,
		})
	}
}

// HealthInfo serves /api/health.
func HealthInfo(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteOK(w, statusResponse{
			Status:      "OK",
			Message:     serviceBanner + " is running!",
			Timestamp:   time.Now().UTC(),
			Environment: cfg.App.Env,
			Version:     serviceVersion,
		})
	}
}

// HealthLive serves /health and /health/live; it never touches dependencies.
func HealthLive() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteOK(w, statusResponse{Status: "OK", Timestamp: time.Now().UTC()})
	}
}

// HealthReady pings every dependency concurrently. Nil pingers are skipped.
func HealthReady(logg *logger.Logger, checks map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()

		g, gctx := errgroup.WithContext(ctx)
		for name, p := range checks {
			if p == nil {
				continue
			}
			g.Go(func() error {
				if err := p.Ping(gctx); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, name+" unavailable").
						WithDetails(map[string]string{"dependency": name})
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteOK(w, statusResponse{Status: "ready", Timestamp: time.Now().UTC()})
	}
}
