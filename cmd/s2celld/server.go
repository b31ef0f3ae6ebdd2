package main

import (
	"context"
	"errors"
	"time"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/golang/glog"
	pkgerrors "github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/segmentio/ksuid"

	"github.com/iwpnd/s2cell"
)

const shutdownTimeout = 10 * time.Second

type server struct {
	coverer       *s2cell.CachedCoverer
	union         *s2cell.UnionSource
	metrics       *metrics
	maxCellsLimit int
}

func run(ctx context.Context, cfg config) error {
	cache, err := s2cell.NewRistrettoCache(s2cell.WithMaxCost(cfg.CacheMaxCells))
	if err != nil {
		return pkgerrors.Wrap(err, "creating covering cache")
	}

	s := &server{
		coverer:       s2cell.NewCachedCoverer(cache),
		maxCellsLimit: cfg.MaxCellsLimit,
	}
	defer s.coverer.Close()

	if cfg.UnionURI != "" {
		var opts []s2cell.SourceConfigOption
		if cfg.UnionNormalize {
			opts = append(opts, s2cell.WithNormalize())
		}
		s.union, err = s2cell.NewUnionSource(ctx, cfg.UnionURI, opts...)
		if err != nil {
			return pkgerrors.Wrapf(err, "loading union from %s", cfg.UnionURI)
		}
		glog.Infof("Loaded union %s from %s with %d cells", s.union.Etag(), cfg.UnionURI, len(s.union.Union()))
	}

	reg := prometheus.NewRegistry()
	app := s.newApp(reg)

	errCh := make(chan error, 1)
	go func() {
		glog.Infof("Listening on %s", cfg.Addr)
		errCh <- app.Listen(cfg.Addr)
	}()

	select {
	case err := <-errCh:
		return pkgerrors.Wrap(err, "serving http")
	case <-ctx.Done():
		glog.Infof("Shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return app.ShutdownWithContext(sctx)
	}
}

func (s *server) newApp(reg *prometheus.Registry) *fiber.App {
	s.metrics = newMetrics(reg)

	app := fiber.New(fiber.Config{
		AppName:               "s2celld",
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler,
	})

	prom := fiberprometheus.NewWithRegistry(reg, "s2celld", "http", "", nil)
	prom.RegisterAt(app, "/metrics")

	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{
		Generator: func() string { return ksuid.New().String() },
	}))
	app.Use(prom.Middleware)

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})

	v1 := app.Group("/v1")
	v1.Get("/cells", s.handleCellAt)
	v1.Get("/cells/:token", s.handleCell)
	v1.Get("/cover", s.handleCover)
	v1.Get("/union/contains", s.handleUnionContains)

	return app
}

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	rid, _ := c.Locals("requestid").(string) //nolint:errcheck
	if code >= fiber.StatusInternalServerError {
		glog.Errorf("request %s %s failed: %v", rid, c.OriginalURL(), err)
	}
	return c.Status(code).JSON(errorResponse{Error: err.Error(), RequestID: rid})
}
