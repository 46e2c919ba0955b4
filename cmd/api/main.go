package main

import (
	"context"
	"fmt"
	"log"
	"time"

	common_api "litterbugs/internal/common/api"
	"litterbugs/internal/config"
	"litterbugs/internal/database"
	"litterbugs/internal/features/audit"
	"litterbugs/internal/features/report"
	"litterbugs/internal/features/storage"
	"litterbugs/internal/features/sweep"
	"litterbugs/internal/logger"
	"litterbugs/internal/middleware"
	"litterbugs/pkg/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

// NewFiberServer creates a new Fiber app instance
func NewFiberServer(cfg *config.Config) *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		BodyLimit:             (cfg.MaxUploadMB + 1) << 20,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	app.Use(middleware.CORSMiddleware(cfg))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	return app
}

// AsRoute tags the constructor so Fx adds it to the "routes" group.
func AsRoute(f any) any {
	return fx.Annotate(
		f,
		fx.As(new(common_api.Route)),
		fx.ResultTags(`group:"routes"`),
	)
}

// RegisterAllRoutes calls Setup() on every member of the "routes" group.
func RegisterAllRoutes(app *fiber.App, routes []common_api.Route, logger *zap.Logger) {
	logger.Info("Registering routes", zap.Int("count", len(routes)))
	for _, route := range routes {
		logger.Debug("Setting up route", zap.String("type", fmt.Sprintf("%T", route)))
		route.Setup(app)
	}
}

var RegisterAllRoutesWithAnnotation = fx.Annotate(
	RegisterAllRoutes,
	fx.ParamTags(``, `group:"routes"`, ``),
)

// StartServer starts Fiber in a goroutine and shuts it down when the app exits.
func StartServer(lc fx.Lifecycle, app *fiber.App, cfg *config.Config) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				port := fmt.Sprintf(":%s", cfg.Port)
				if err := app.Listen(port); err != nil {
					log.Fatalf("Server failed to start: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return app.Shutdown()
		},
	})
}

// InitializeIndexes ensures report indexes (or the postgres schema) exist.
func InitializeIndexes(lc fx.Lifecycle, reportRepo report.ReportRepository, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()

				if err := reportRepo.EnsureIndexes(ctx); err != nil {
					logger.Error("Failed to ensure report indexes", zap.Error(err))
				}
			}()
			return nil
		},
	})
}

func photoRemover(s storage.StorageService) report.PhotoRemover {
	return s
}

// @title           Litterbugs API
// @version         1.0
// @description     Litter report rows, photo objects and signed read URLs.
// @BasePath        /
func main() {
	app := fx.New(
		fx.Provide(
			config.LoadConfig,
			logger.NewLogger,
			NewFiberServer,

			database.NewDatabase,
			database.NewPostgres,

			audit.NewAuditRepository,
			report.NewReportRepository,
			storage.NewObjectRepository,

			audit.NewAuditService,
			storage.NewStorageService,
			photoRemover,
			report.NewReportService,
			sweep.NewSweepService,

			audit.NewAuditController,
			report.NewReportController,
			storage.NewStorageController,

			AsRoute(audit.NewAuditApi),
			AsRoute(report.NewReportApi),
			AsRoute(storage.NewStorageApi),
		),
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log}
		}),
		fx.Invoke(
			func(cfg *config.Config) {
				utils.SetSecret(cfg.JWTSecret)
			},
			InitializeIndexes,
			RegisterAllRoutesWithAnnotation,
			StartServer,
			func(lc fx.Lifecycle, sweepService sweep.SweepService) {
				lc.Append(fx.Hook{
					OnStart: func(ctx context.Context) error {
						return sweepService.InitializeScheduler()
					},
					OnStop: func(ctx context.Context) error {
						return sweepService.StopScheduler()
					},
				})
			},
		),
	)

	app.Run()
}
