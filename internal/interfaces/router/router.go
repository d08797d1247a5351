package router

import (
	"context"
	"time"

	authsvc "myinvestments-backend/internal/application/auth"
	backupsvc "myinvestments-backend/internal/application/backup"
	divestmentsvc "myinvestments-backend/internal/application/divestments"
	dividendsvc "myinvestments-backend/internal/application/dividends"
	healthsvc "myinvestments-backend/internal/application/health"
	holdingsvc "myinvestments-backend/internal/application/holdings"
	portfoliosvc "myinvestments-backend/internal/application/portfolio"
	"myinvestments-backend/internal/config"
	"myinvestments-backend/internal/infrastructure/database"
	"myinvestments-backend/internal/infrastructure/quotes"
	authhandler "myinvestments-backend/internal/interfaces/handlers/auth"
	backuphandler "myinvestments-backend/internal/interfaces/handlers/backup"
	divestmenthandler "myinvestments-backend/internal/interfaces/handlers/divestments"
	dividendhandler "myinvestments-backend/internal/interfaces/handlers/dividends"
	healthhandler "myinvestments-backend/internal/interfaces/handlers/health"
	holdinghandler "myinvestments-backend/internal/interfaces/handlers/holdings"
	portfoliohandler "myinvestments-backend/internal/interfaces/handlers/portfolio"
	"myinvestments-backend/internal/middleware"
	"myinvestments-backend/internal/pkg/userlock"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type gormDBPinger struct {
	db *gorm.DB
}

func (g *gormDBPinger) Ping() error {
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// OpenRedis returns nil when no URL is configured.
func OpenRedis(url string) (*redis.Client, error) {
	if url == "" {
		return nil, nil
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	return rdb, nil
}

func CreateApp(cfg *config.Config) (*fiber.App, *gorm.DB, *redis.Client, error) {
	cfg.ApplyLogLevel()

	rdb, err := OpenRedis(cfg.RedisURL)
	if err != nil {
		return nil, nil, nil, err
	}
	if rdb == nil {
		log.Warn().Msg("REDIS_URL not set: sessions and pending quotes are kept in memory")
	}
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, rdb, err
	}
	if err := database.AutoMigrate(db); err != nil {
		return nil, db, rdb, err
	}
	return NewApp(cfg, db, rdb), db, rdb, nil
}

// NewApp wires every route against an open database. rdb may be nil.
func NewApp(cfg *config.Config, db *gorm.DB, rdb *redis.Client) *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage:   true,
		ErrorHandler:            middleware.ErrorHandler,
		EnableTrustedProxyCheck: true,
		BodyLimit:               8 * 1024 * 1024,
	})

	sessions := middleware.NewSessionStore(rdb)
	app.Use(middleware.CORS(middleware.CORSConfig{
		AllowedSuffix: cfg.FrontendURLEndsWith,
		DevPassword:   cfg.DevPassword,
	}))
	app.Use(middleware.Session(sessions))
	app.Use(middleware.HealthMarker(rdb))
	app.Use(middleware.Tracing())
	app.Use(middleware.RouteLogger())

	hh := &healthhandler.Handlers{Service: &healthsvc.Service{Rdb: rdb, DB: &gormDBPinger{db: db}}}
	app.Get("/", hh.Dashboard)
	app.Get("/reset", middleware.RequireAdminKey(cfg.HealthAdminKey), hh.Reset)
	app.Get("/health/json", hh.JSON)
	app.Get("/health/errors", hh.Errors)

	locks := userlock.New()
	ledger := holdingsvc.NewService(db, locks)
	divestments := divestmentsvc.NewService(db, locks, ledger, quotes.New(rdb, cfg.QuoteTTL))
	dividends := dividendsvc.NewService(db, locks)
	portfolio := portfoliosvc.NewService(db, locks)

	auth := &authsvc.Service{DB: db}
	ah := &authhandler.Handlers{
		Service:    auth,
		UserFinder: auth,
		Sessions:   sessions,
		Config: middleware.SessionConfig{
			Secret:            cfg.SessionSecret,
			AllowCrossSiteDev: cfg.AllowCrossSiteDev,
			IsProduction:      cfg.IsProduction(),
		},
	}
	api := app.Group("/api/v1")
	ag := api.Group("/auth")
	limit := middleware.RateLimit(cfg.LoginRatePerMinute)
	ag.Post("/register", limit, ah.Register)
	ag.Post("/login", limit, ah.Login)
	ag.Get("/me", ah.Me)
	ag.Delete("/logout", ah.Logout)

	// Holdings
	holdh := &holdinghandler.Handlers{Service: ledger, Dividends: dividends, Divestments: divestments}
	hg := api.Group("/holdings", middleware.RequireAuth())
	hg.Get("/", holdh.List)
	hg.Post("/", holdh.Create)
	hg.Get("/eligible-for-dividends", holdh.EligibleForDividends)
	hg.Get("/:id", holdh.Get)
	hg.Put("/:id", holdh.Update)
	hg.Delete("/:id", holdh.Delete)
	hg.Post("/:id/revalue", holdh.Revalue)
	hg.Get("/:id/dividends", holdh.ListDividends)
	hg.Get("/:id/divestments", holdh.ListDivestments)

	// Divestments
	dh := &divestmenthandler.Handlers{Service: divestments, Portfolio: portfolio}
	dg := api.Group("/divestments", middleware.RequireAuth())
	dg.Get("/", dh.List)
	dg.Get("/stats", dh.Stats)
	dg.Post("/quote", dh.Quote)
	dg.Get("/quote", dh.Pending)
	dg.Delete("/quote", dh.Discard)
	dg.Post("/confirm", dh.Confirm)
	dg.Put("/:id", dh.Update)
	dg.Delete("/:id", dh.Delete)

	// Dividends
	dvh := &dividendhandler.Handlers{Service: dividends, Portfolio: portfolio}
	dvg := api.Group("/dividends", middleware.RequireAuth())
	dvg.Get("/", dvh.List)
	dvg.Post("/", dvh.Record)
	dvg.Get("/stats", dvh.Stats)
	dvg.Put("/:id", dvh.Update)
	dvg.Delete("/:id", dvh.Delete)

	ph := &portfoliohandler.Handlers{Service: portfolio}
	api.Get("/portfolio/summary", middleware.RequireAuth(), ph.Summary)

	bh := &backuphandler.Handlers{Service: backupsvc.NewService(db, locks)}
	bg := api.Group("/backup", middleware.RequireAuth())
	bg.Get("/export", bh.Export)
	bg.Post("/import", bh.Import)

	return app
}
