package app

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/vhu/portal/internal/config"
	"github.com/vhu/portal/internal/db"
	"github.com/vhu/portal/internal/markdown"
	"github.com/vhu/portal/internal/repository"
	"github.com/vhu/portal/internal/service"
	"github.com/vhu/portal/internal/storage"
)

type App struct {
	Cfg              *config.Config
	DB               *sqlx.DB
	Store            storage.Store
	AuthService      *service.AuthService
	AssetService     *service.AssetService
	ArticleService   *service.ArticleService
	SlideService     *service.SlideService
	PartnerService   *service.PartnerService
	QuickLinkService *service.QuickLinkService
	Janitor          *service.Janitor
}

func New(cfg *config.Config) (*App, error) {
	// Initialize database
	database, err := db.Init(cfg.DBDriver, cfg.DBConnection)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %v", err)
	}

	// Run database migrations
	err = db.RunMigrations(database.DB, cfg.DBDriver)
	if err != nil {
		return nil, fmt.Errorf("failed to run migrations: %v", err)
	}

	// Repositories
	assetRepository := repository.NewAssetRepository(database)
	articleRepository := repository.NewArticleRepository(database)
	slideRepository := repository.NewSlideRepository(database)
	partnerRepository := repository.NewPartnerRepository(database)
	quickLinkRepository := repository.NewQuickLinkRepository(database)

	// Storage
	store, err := storage.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %v", err)
	}

	// Asset lifecycle engine
	promoter := service.NewPromoter(assetRepository, store, cfg.AppURL)
	rewriter := service.NewRewriter(assetRepository, promoter, cfg.AppURL)
	reconciler := service.NewReconciler(assetRepository)
	lifecycle := service.NewLifecycle(promoter, rewriter, reconciler)

	// Services
	authService := service.NewAuthService(cfg.JWTSecret, cfg.JWTExpiry)
	assetService := service.NewAssetService(assetRepository, store, cfg.AppURL)
	articleService := service.NewArticleService(articleRepository, lifecycle, markdown.NewParser())
	slideService := service.NewSlideService(slideRepository, lifecycle)
	partnerService := service.NewPartnerService(partnerRepository, lifecycle)
	quickLinkService := service.NewQuickLinkService(quickLinkRepository, lifecycle)
	janitor := service.NewJanitor(assetRepository, store, cfg.JanitorInterval, cfg.OrphanGracePeriod)

	return &App{
		Cfg:              cfg,
		DB:               database,
		Store:            store,
		AuthService:      authService,
		AssetService:     assetService,
		ArticleService:   articleService,
		SlideService:     slideService,
		PartnerService:   partnerService,
		QuickLinkService: quickLinkService,
		Janitor:          janitor,
	}, nil
}

func (a *App) Close() error {
	if a.Janitor != nil {
		a.Janitor.Stop()
	}
	if a.DB != nil {
		return a.DB.Close()
	}
	return nil
}
