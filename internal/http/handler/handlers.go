package handler

import (
	"context"
	"database/sql"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"docflow/internal/library"
	"docflow/internal/pipeline"
	"docflow/internal/store"
	"docflow/internal/storage"
)

// presignExpiry bounds how long a download link stays valid.
const presignExpiry = 15 * time.Minute

// HealthCheck reports dependency health. A nil db means the service runs on
// the in-memory store and the check passes without a ping.
func HealthCheck(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if db != nil {
			ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
			defer cancel()
			if err := db.PingContext(ctx); err != nil {
				return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency unavailable")
			}
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "healthy"})
	}
}

// LivenessProbe is a bare liveness endpoint.
func LivenessProbe() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	}
}

// UploadDocument accepts a multipart upload (field name: file) and hands it to
// the intake pipeline. Exactly one file per request.
func UploadDocument(p *pipeline.Pipeline) fiber.Handler {
	return func(c *fiber.Ctx) error {
		form, err := c.MultipartForm()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "multipart form with a file field is required")
		}
		files := form.File["file"]
		if len(files) == 0 {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required")
		}
		if len(files) > 1 {
			return writeError(c, fiber.StatusBadRequest, "INVALID_INPUT", "exactly one file per request")
		}

		fh := files[0]
		f, err := fh.Open()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
		}
		defer f.Close()

		ct := fh.Header.Get("Content-Type")
		if ct == "" {
			ct = "application/octet-stream"
		}

		id, err := p.Ingest(c.UserContext(), pipeline.Upload{
			Name:        fh.Filename,
			ContentType: ct,
			SizeBytes:   fh.Size,
			Content:     f,
		})
		if err != nil {
			return writePipelineError(c, err)
		}

		// Analysis continues in the background; the caller polls the document.
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
			"id":     id,
			"status": "analyzing",
		})
	}
}

// ListDocuments runs the library query over the search, urgency and
// department query parameters.
func ListDocuments(lib *library.Engine) fiber.Handler {
	return func(c *fiber.Ctx) error {
		docs, err := lib.Query(c.UserContext(), library.Filter{
			SearchText: c.Query("search"),
			Urgency:    c.Query("urgency"),
			Department: c.Query("department"),
		})
		if err != nil {
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(fiber.Map{
			"items": docs,
			"total": len(docs),
		})
	}
}

// GetDocument returns a single document with its current status and analysis.
func GetDocument(docs store.DocumentStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		doc, err := docs.Get(c.UserContext(), id)
		if err != nil {
			return writePipelineError(c, err)
		}
		return c.JSON(doc)
	}
}

// DownloadDocument returns a time-limited URL for fetching the stored payload.
func DownloadDocument(docs store.DocumentStore, objects storage.Storage) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		doc, err := docs.Get(c.UserContext(), id)
		if err != nil {
			return writePipelineError(c, err)
		}
		url, err := objects.PresignGet(c.UserContext(), doc.StoragePath, presignExpiry)
		if err != nil {
			return writeError(c, fiber.StatusBadGateway, "STORAGE_UNAVAILABLE", "object storage unavailable")
		}
		return c.JSON(fiber.Map{
			"url":        url,
			"expires_in": int(presignExpiry.Seconds()),
		})
	}
}

type distributeRequest struct {
	Recipient string `json:"recipient"`
	Message   string `json:"message"`
}

// DistributeDocument sends an analyzed document to a recipient and records
// the attempt.
func DistributeDocument(p *pipeline.Pipeline) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}

		var body distributeRequest
		if err := c.BodyParser(&body); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_INPUT", "malformed request body")
		}

		outcome, err := p.Distribute(c.UserContext(), id, body.Recipient, body.Message)
		if err != nil {
			return writePipelineError(c, err)
		}
		return c.JSON(outcome)
	}
}

// ListDistributions returns the document's distribution history, oldest first.
func ListDistributions(docs store.DocumentStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		if _, err := docs.Get(c.UserContext(), id); err != nil {
			return writePipelineError(c, err)
		}
		history, err := docs.ListDistributions(c.UserContext(), id)
		if err != nil {
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(fiber.Map{
			"items": history,
			"total": len(history),
		})
	}
}

// ListDepartments returns the sorted union of departments referenced by
// document analyses.
func ListDepartments(lib *library.Engine) fiber.Handler {
	return func(c *fiber.Ctx) error {
		depts, err := lib.Departments(c.UserContext())
		if err != nil {
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(fiber.Map{"departments": depts})
	}
}
