package routes

import (
	"net/http"
	"time"

	"github.com/vhu/portal/internal/app"
	"github.com/vhu/portal/internal/handler"
	"github.com/vhu/portal/internal/metrics"
	"github.com/vhu/portal/internal/middleware"
	"github.com/vhu/portal/internal/model"
)

func SetupRoutes(app *app.App) http.Handler {
	// Handlers
	health := handler.NewHealthHandler(app.DB)
	media := handler.NewMediaHandler(app.AssetService, app.Store, app.Cfg.UploadMaxSize)
	articles := handler.NewArticleHandler(app.ArticleService)
	slides := handler.NewSlideHandler(app.SlideService)
	partners := handler.NewPartnerHandler(app.PartnerService)
	links := handler.NewQuickLinkHandler(app.QuickLinkService)

	staff := middleware.RequireRole(model.RoleAdmin, model.RoleEditor)
	uploadLimit := middleware.RateLimit(30, time.Minute)

	mux := http.NewServeMux()

	// ============================================================================
	// OPERATIONS
	// ============================================================================

	mux.HandleFunc("GET /healthz", health.Health)
	if app.Cfg.MetricsEnabled {
		mux.Handle("GET /metrics", metrics.Handler())
	}

	// ============================================================================
	// MEDIA
	// ============================================================================

	mux.HandleFunc("POST /api/media/upload", uploadLimit(staff(media.Upload)))
	mux.HandleFunc("GET /uploads/{path...}", media.Serve)

	// ============================================================================
	// CONTENT (reads are public, mutations need ADMIN or EDITOR)
	// ============================================================================

	// Articles
	mux.HandleFunc("GET /api/articles", articles.List)
	mux.HandleFunc("GET /api/articles/{id}", articles.Get)
	mux.HandleFunc("GET /api/articles/slug/{slug}", articles.BySlug)
	mux.HandleFunc("POST /api/articles", staff(articles.Create))
	mux.HandleFunc("PUT /api/articles/{id}", staff(articles.Update))
	mux.HandleFunc("PATCH /api/articles/{id}/pin", staff(articles.TogglePin))
	mux.HandleFunc("DELETE /api/articles/{id}", staff(articles.Delete))

	// Slides
	mux.HandleFunc("GET /api/slides", slides.List)
	mux.HandleFunc("GET /api/slides/{id}", slides.Get)
	mux.HandleFunc("POST /api/slides", staff(slides.Create))
	mux.HandleFunc("PUT /api/slides/{id}", staff(slides.Update))
	mux.HandleFunc("DELETE /api/slides/{id}", staff(slides.Delete))

	// Partners
	mux.HandleFunc("GET /api/partners", partners.List)
	mux.HandleFunc("GET /api/partners/{id}", partners.Get)
	mux.HandleFunc("POST /api/partners", staff(partners.Create))
	mux.HandleFunc("PUT /api/partners/{id}", staff(partners.Update))
	mux.HandleFunc("DELETE /api/partners/{id}", staff(partners.Delete))

	// Quick links
	mux.HandleFunc("GET /api/quick-links", links.List)
	mux.HandleFunc("GET /api/quick-links/{id}", links.Get)
	mux.HandleFunc("POST /api/quick-links", staff(links.Create))
	mux.HandleFunc("PUT /api/quick-links/{id}", staff(links.Update))
	mux.HandleFunc("DELETE /api/quick-links/{id}", staff(links.Delete))

	// Global middleware - executed in order (top to bottom)
	handler := middleware.Chain(
		mux,
		middleware.AuthMiddleware(app.AuthService),
		middleware.RequestLogging, // Last, so it sees the route pattern the mux matched
	)

	return handler
}
