package apiapp

import (
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/OzanD26/halk-habercisi/internal/config"
	feedsvc "github.com/OzanD26/halk-habercisi/internal/services/feed"
	modsvc "github.com/OzanD26/halk-habercisi/internal/services/moderation"
	reportsvc "github.com/OzanD26/halk-habercisi/internal/services/report"
	"github.com/OzanD26/halk-habercisi/internal/transport/http/handlers"
	"github.com/OzanD26/halk-habercisi/internal/transport/ws"
)

type Dependencies struct {
	ReportService     *reportsvc.Service
	ModerationService *modsvc.Service
	MediaResolver     handlers.MediaResolver
	FeedStore         feedsvc.Store
	Logger            *zap.Logger
	Config            config.Config
}

func RegisterRoutes(r chi.Router, deps Dependencies) {
	healthHandler := handlers.NewHealthHandler()
	reportHandler := handlers.NewReportHandler(deps.ReportService, deps.Config.Upload.MaxBytes)
	moderationHandler := handlers.NewModerationHandler(deps.ModerationService)
	if deps.MediaResolver != nil {
		moderationHandler.AttachResolver(deps.MediaResolver)
	}
	feedHandler := ws.NewFeedHandler(deps.FeedStore, deps.Logger)

	r.Get("/healthz", healthHandler.Get)
	r.Group(func(r chi.Router) {
		r.Use(RequestTimeout())
		r.Route("/api", func(r chi.Router) {
			r.Post("/reports", reportHandler.Submit)
			r.Route("/moderation/reports", func(r chi.Router) {
				r.Get("/", moderationHandler.List)
				r.Post("/{id}/approve", moderationHandler.ToggleApproved)
				r.Delete("/{id}", moderationHandler.Delete)
			})
		})
	})
	r.Handle("/ws/feed", feedHandler)
}
