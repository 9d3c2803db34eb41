package api

import (
	"context"

	"go.uber.org/zap"

	"instituto-amostral/internal/app"
	"instituto-amostral/pkg/router"
)

// NewServer builds the router of a. Asynchronous jobs run under jobCtx.
func NewServer(jobCtx context.Context, a *app.App) (*router.Router, *Handler) {
	h := NewHandler(jobCtx, a.Config, a.Datasets, a.Calibrated, a.Builder, a.Logger.Named("api"))
	h.Output = a.Output

	r := router.New(a.Logger.Named("http"))
	r.AllowOrigin = ""
	if origins := a.Config.Server.CORSOrigins; len(origins) > 0 {
		r.AllowOrigin = origins[0]
	}
	RegisterRoutes(r, h)
	return r, h
}

// Serve runs the API until ctx is cancelled, then waits for running jobs.
func Serve(ctx context.Context, a *app.App) error {
	r, h := NewServer(ctx, a)
	err := r.Start(ctx, router.ServerConfig{
		Addr:            a.Config.Server.Addr,
		ReadTimeout:     a.Config.GetReadTimeout(),
		WriteTimeout:    a.Config.GetWriteTimeout(),
		ShutdownTimeout: a.Config.GetShutdownTimeout(),
	})
	a.Logger.Info("waiting for running jobs")
	h.Wait()
	if err != nil {
		a.Logger.Error("server stopped", zap.Error(err))
	}
	return err
}
