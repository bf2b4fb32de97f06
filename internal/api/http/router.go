package http

import (
	_ "jitsibot/docs"
	"jitsibot/internal/api/http/logger"
	"jitsibot/internal/core/scanner"
	"jitsibot/internal/mastodon"
	"jitsibot/internal/store/hsm"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/chi/v5"
	httpSwagger "github.com/swaggo/http-swagger/v2"
)

// @title JitsiBot Admin API
// @version 1.0
// @description Local admin API for the horn-sounding Mastodon bot
// @BasePath /
// @schemes http

func NewApiRouter(scannerHandler scanner.ScannerHandler, stateHandler hsm.HsmHandler, rateHandler mastodon.RateHandler, auditLogger logger.Logger) *chi.Mux {
	r := chi.NewRouter()
	handler := NewRequestHandler(scannerHandler, stateHandler, rateHandler)

	// middleware
	r.Use(middleware.RequestID)
	r.Use(logger.LoggerMiddleware(auditLogger, "jitsibot", ""))
	r.Use(middleware.Recoverer)

	// == swagger ==
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	// == v1 ==
	r.Get("/v1/status", handler.GetStatus)         // scanner state
	r.Get("/v1/ratelimit", handler.GetRateLimit)   // observed api budget
	r.Get("/v1/deliveries", handler.GetDeliveries) // recent horn fan-outs
	r.Post("/v1/horn", handler.SoundHorn)          // sound the horn now

	return r
}
