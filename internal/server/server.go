// Package server exposes reports over HTTP.
package server

import (
	"context"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"lifsheet/internal/config"
	"lifsheet/internal/metrics"
	"lifsheet/internal/report"
	"lifsheet/internal/source"
)

type Server struct {
	App  *fiber.App
	addr string
}

func New(cfg config.Server, dir *source.Dir, builder *report.Builder, m *metrics.Metrics) *Server {
	app := fiber.New(fiber.Config{
		AppName:               "lifsheet",
		ReadTimeout:           cfg.ReadTimeout,
		WriteTimeout:          cfg.WriteTimeout,
		IdleTimeout:           cfg.IdleTimeout,
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler,
	})
	app.Use(recover.New())
	app.Use(func(c *fiber.Ctx) error {
		err := c.Next()
		code := c.Response().StatusCode()
		if err != nil {
			code = errorStatus(err)
		}
		m.Request(c.Route().Path, strconv.Itoa(code))
		return err
	})

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	if m != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})))
	}

	api := &EventsAPI{Router: app.Group("/api"), Dir: dir, Builder: builder}
	api.Register()

	return &Server{App: app, addr: cfg.ListenAddress}
}

func (s *Server) Serve() error {
	log.Infof("listening on %s", s.addr)
	return s.App.Listen(s.addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.App.ShutdownWithContext(ctx)
}

// ShutdownTimeout bounds how long in-flight requests may take on exit.
const ShutdownTimeout = 10 * time.Second
