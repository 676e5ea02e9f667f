package server

import (
	"context"

	"multimodal-rag-be/internal/bootstrap"
	"multimodal-rag-be/internal/config"
	"multimodal-rag-be/internal/pkg/serverutils"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

// maxUploadBytes bounds multipart uploads (documents and chat images).
const maxUploadBytes = 10 * 1024 * 1024

type Server struct {
	app       *fiber.App
	cfg       *config.Config
	container *bootstrap.Container
}

func New(cfg *config.Config, container *bootstrap.Container) *Server {
	app := fiber.New(fiber.Config{
		AppName:               "multimodal-rag-backend",
		BodyLimit:             maxUploadBytes,
		Immutable:             true,
		DisableStartupMessage: cfg.App.Environment == "production",
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.App.CorsAllowedOrigins,
		AllowCredentials: true,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET, POST, DELETE, OPTIONS",
	}))
	app.Use(otelfiber.Middleware(otelfiber.WithSpanNameFormatter(func(ctx *fiber.Ctx) string {
		return ctx.Method() + " " + ctx.Route().Path
	})))
	app.Use(serverutils.ErrorHandlerMiddleware())

	app.Get("/healthz", func(ctx *fiber.Ctx) error {
		return ctx.JSON(serverutils.SuccessResponse("ok", fiber.Map{"environment": cfg.App.Environment}))
	})

	api := app.Group("/api")
	container.ChatbotController.RegisterRoutes(api)
	container.FileController.RegisterRoutes(api)
	container.AdminController.RegisterRoutes(api)

	return &Server{app: app, cfg: cfg, container: container}
}

func (s *Server) GetApp() *fiber.App {
	return s.app
}

func (s *Server) Run() error {
	s.container.Logger.Info("Server", "listening", map[string]interface{}{"port": s.cfg.App.Port})
	return s.app.Listen(":" + s.cfg.App.Port)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}
