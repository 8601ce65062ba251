package handler

import (
	"context"
	"database/sql"
	"time"

	"github.com/gofiber/fiber/v2"

	"archiveapi/internal/http/middleware"
	"archiveapi/internal/service"
)

// HealthCheck reports readiness by pinging the metadata store.
func HealthCheck(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency unavailable")
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "healthy"})
	}
}

// LivenessProbe is a plain liveness check with no dependencies.
func LivenessProbe(c *fiber.Ctx) error {
	return c.SendStatus(fiber.StatusOK)
}

// RegisterRoutes attaches all HTTP routes to the provided Fiber app. Archive,
// search and dashboard routes sit behind the JWT middleware.
func RegisterRoutes(app *fiber.App, db *sql.DB, archiveSvc service.ArchiveService, authSvc service.AuthService, jwtSecret string) {
	archives := NewArchiveHandler(archiveSvc)
	auth := NewAuthHandler(authSvc)

	app.Get("/health", HealthCheck(db))
	app.Get("/healthz", LivenessProbe)

	app.Post("/auth/register", auth.Register)
	app.Post("/auth/login", auth.Login)
	app.Post("/auth/logout", auth.Logout)

	protected := app.Group("/", middleware.Auth(jwtSecret))

	protected.Post("/archive", archives.Upload)
	protected.Post("/archive/multipart", archives.StartMultipartUpload)
	protected.Post("/archive/multipart/part-url", archives.PresignUploadPart)
	protected.Post("/archive/multipart/complete", archives.CompleteMultipartUpload)
	protected.Post("/archive/multipart/abort", archives.AbortMultipartUpload)
	protected.Get("/archive/:file_id", archives.GetArchive)

	protected.Get("/search", archives.Search)
	protected.Get("/dashboard/stats", archives.Stats)
	protected.Get("/dashboard/recent", archives.Recent)
}
