package handler

import (
	"database/sql"

	"github.com/gofiber/fiber/v2"

	"docflow/internal/library"
	"docflow/internal/pipeline"
	"docflow/internal/storage"
	"docflow/internal/store"
)

// RegisterRoutes attaches all HTTP routes to the provided Fiber app. Handlers
// stay thin; the pipeline and library own the business logic.
func RegisterRoutes(app *fiber.App, db *sql.DB, p *pipeline.Pipeline, lib *library.Engine, docs store.DocumentStore, objects storage.Storage) {
	// Serve OpenAPI spec and Swagger UI
	app.Get("/openapi.yaml", func(c *fiber.Ctx) error {
		c.Type("yaml")
		return c.SendFile("openapi.yaml")
	})
	app.Get("/docs", func(c *fiber.Ctx) error {
		html := `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>API Docs</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    window.ui = SwaggerUIBundle({
      url: '/openapi.yaml',
      dom_id: '#swagger-ui',
      presets: [SwaggerUIBundle.presets.apis],
      layout: 'BaseLayout'
    });
  </script>
</body>
</html>`
		return c.Type("html").SendString(html)
	})

	app.Get("/health", HealthCheck(db))
	app.Get("/healthz", LivenessProbe())

	app.Post("/documents", UploadDocument(p))
	app.Get("/documents", ListDocuments(lib))
	app.Get("/documents/:id", GetDocument(docs))
	app.Get("/documents/:id/download", DownloadDocument(docs, objects))
	app.Post("/documents/:id/distribute", DistributeDocument(p))
	app.Get("/documents/:id/distributions", ListDistributions(docs))

	app.Get("/departments", ListDepartments(lib))
}
