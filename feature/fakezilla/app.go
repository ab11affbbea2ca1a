package fakezilla

import (
	"errors"
	"strconv"
	"time"

	"bugsync/core/loader"
	"bugsync/core/logger"
	"bugsync/core/middleware/rayid"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/swagger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	_ "bugsync/docs/swagger"
)

// @title Fakezilla API
// @version 1.0
// @description In-process stand-in for the bug tracker REST API.
// @host localhost:8080
// @BasePath /

// NewApp builds the fiber app with request tracing, metrics and swagger
// mounted, then loads features.
func NewApp(log *zap.Logger, reg *prometheus.Registry, features ...loader.Feature) (*fiber.App, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          ErrorHandler(log),
	})

	// RayID first so every log line carries it.
	app.Use(rayid.New())
	app.Use(requestLogger(log))
	app.Use(newHTTPMetrics(reg).handler)

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	app.Get("/swagger/*", swagger.HandlerDefault)

	mgr := loader.NewManager()
	for _, f := range features {
		mgr.Register(f)
	}
	if err := mgr.LoadAll(app); err != nil {
		return nil, err
	}
	return app, nil
}

func requestLogger(log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		l := logger.WithRayID(log, c)
		l.Debug("Request started",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.String("ip", c.IP()),
		)
		err := c.Next()
		if err != nil {
			l.Debug("Request error", zap.Error(err))
		}
		return err
	}
}

type httpMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func newHTTPMetrics(reg prometheus.Registerer) *httpMetrics {
	m := &httpMetrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fakezilla_http_requests_total",
			Help: "Requests served by route and status.",
		}, []string{"method", "route", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "fakezilla_http_request_duration_seconds",
			Help:    "Request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
	reg.MustRegister(m.requests, m.duration)
	return m
}

func (m *httpMetrics) handler(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()

	status := c.Response().StatusCode()
	if err != nil {
		// The error handler has not run yet.
		status = fiber.StatusInternalServerError
		var (
			apiErr   *APIError
			fiberErr *fiber.Error
		)
		if errors.As(err, &apiErr) {
			status = apiErr.Status
		} else if errors.As(err, &fiberErr) {
			status = fiberErr.Code
		}
	}
	route := c.Route().Path
	m.requests.WithLabelValues(c.Method(), route, strconv.Itoa(status)).Inc()
	m.duration.WithLabelValues(c.Method(), route).Observe(time.Since(start).Seconds())
	return err
}
