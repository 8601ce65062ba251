package handler

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"archiveapi/internal/http/middleware"
	"archiveapi/internal/model"
	"archiveapi/internal/search"
	"archiveapi/internal/service"
)

var filesArchived = promauto.NewCounter(prometheus.CounterOpts{
	Name: "files_archived_total",
	Help: "Total number of files archived.",
})

// ArchiveHandler exposes the upload, retrieval, search and dashboard endpoints.
type ArchiveHandler struct {
	svc service.ArchiveService
}

// NewArchiveHandler constructs a new ArchiveHandler.
func NewArchiveHandler(svc service.ArchiveService) *ArchiveHandler {
	return &ArchiveHandler{svc: svc}
}

// splitTags parses a comma-separated tag list from a form or query value.
func splitTags(s string) []string {
	if s == "" {
		return nil
	}
	var tags []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// Upload is the small-file path: multipart/form-data with field "file",
// optional "tags" (comma-separated) and "policy".
func (h *ArchiveHandler) Upload(c *fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required")
	}
	if fh.Filename == "" {
		return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "no file selected for uploading")
	}

	f, err := fh.Open()
	if err != nil {
		return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
	}
	defer f.Close()

	ct := fh.Header.Get("Content-Type")
	if ct == "" {
		ct = "application/octet-stream"
	}

	rec, err := h.svc.Archive(
		c.UserContext(),
		middleware.OwnerIDFromCtx(c),
		f,
		fh.Filename,
		ct,
		fh.Size,
		splitTags(c.FormValue("tags")),
		c.FormValue("policy"),
	)
	if err != nil {
		return writeServiceError(c, err)
	}

	filesArchived.Inc()
	return c.Status(fiber.StatusCreated).JSON(rec)
}

type startMultipartRequest struct {
	Filename string `json:"filename"`
}

// StartMultipartUpload opens a multipart session and returns its upload id.
func (h *ArchiveHandler) StartMultipartUpload(c *fiber.Ctx) error {
	var req startMultipartRequest
	if err := c.BodyParser(&req); err != nil {
		return writeError(c, fiber.StatusBadRequest, "BAD_REQUEST", "invalid request body")
	}

	uploadID, err := h.svc.StartMultipartUpload(c.UserContext(), middleware.OwnerIDFromCtx(c), req.Filename)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"upload_id": uploadID,
		"filename":  req.Filename,
	})
}

type partURLRequest struct {
	UploadID   string `json:"upload_id"`
	Filename   string `json:"filename"`
	PartNumber int    `json:"part_number"`
}

// PresignUploadPart mints a time-limited URL for uploading one part directly
// to object storage.
func (h *ArchiveHandler) PresignUploadPart(c *fiber.Ctx) error {
	var req partURLRequest
	if err := c.BodyParser(&req); err != nil {
		return writeError(c, fiber.StatusBadRequest, "BAD_REQUEST", "invalid request body")
	}

	url, err := h.svc.PresignUploadPart(c.UserContext(), middleware.OwnerIDFromCtx(c), req.UploadID, req.Filename, req.PartNumber)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(fiber.Map{
		"url":         url,
		"part_number": req.PartNumber,
	})
}

type completeMultipartRequest struct {
	UploadID    string       `json:"upload_id"`
	Filename    string       `json:"filename"`
	Parts       []model.Part `json:"parts"`
	Size        *int64       `json:"size"`
	ContentType string       `json:"content_type"`
	Tags        []string     `json:"tags"`
	Policy      string       `json:"policy"`
}

// CompleteMultipartUpload assembles the uploaded parts and persists the
// archive record.
func (h *ArchiveHandler) CompleteMultipartUpload(c *fiber.Ctx) error {
	var req completeMultipartRequest
	if err := c.BodyParser(&req); err != nil {
		return writeError(c, fiber.StatusBadRequest, "BAD_REQUEST", "invalid request body")
	}

	rec, err := h.svc.CompleteMultipartUpload(c.UserContext(), middleware.OwnerIDFromCtx(c), service.CompleteUploadInput{
		UploadID:     req.UploadID,
		Filename:     req.Filename,
		Parts:        req.Parts,
		DeclaredSize: req.Size,
		ContentType:  req.ContentType,
		Tags:         req.Tags,
		Policy:       req.Policy,
	})
	if err != nil {
		return writeServiceError(c, err)
	}

	filesArchived.Inc()
	return c.Status(fiber.StatusCreated).JSON(rec)
}

type abortMultipartRequest struct {
	UploadID string `json:"upload_id"`
	Filename string `json:"filename"`
}

// AbortMultipartUpload releases an upload session that will never complete.
// Always answers 204: aborting is best-effort and idempotent.
func (h *ArchiveHandler) AbortMultipartUpload(c *fiber.Ctx) error {
	var req abortMultipartRequest
	if err := c.BodyParser(&req); err != nil {
		return writeError(c, fiber.StatusBadRequest, "BAD_REQUEST", "invalid request body")
	}
	if req.UploadID == "" || req.Filename == "" {
		return writeError(c, fiber.StatusBadRequest, "VALIDATION_ERROR", "upload_id and filename are required")
	}

	h.svc.AbortMultipartUpload(c.UserContext(), req.UploadID, req.Filename)
	return c.SendStatus(fiber.StatusNoContent)
}

// GetArchive returns one archive record, owner-scoped, with a fresh download URL.
func (h *ArchiveHandler) GetArchive(c *fiber.Ctx) error {
	rec, err := h.svc.Get(c.UserContext(), c.Params("file_id"), middleware.OwnerIDFromCtx(c))
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(rec)
}

// parseDate accepts a plain date or a full RFC 3339 timestamp. A plain end
// date is pushed to the end of that day so the range stays inclusive.
func parseDate(s string, endOfDay bool) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		if endOfDay {
			t = t.Add(24*time.Hour - time.Nanosecond)
		}
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Search runs an owner-scoped query. All parameters are optional: q (fuzzy
// text), tags (comma-separated), start_date, end_date, limit.
func (h *ArchiveHandler) Search(c *fiber.Ctx) error {
	from, err := parseDate(c.Query("start_date"), false)
	if err != nil {
		return writeError(c, fiber.StatusBadRequest, "INVALID_DATE", "invalid start_date")
	}
	to, err := parseDate(c.Query("end_date"), true)
	if err != nil {
		return writeError(c, fiber.StatusBadRequest, "INVALID_DATE", "invalid end_date")
	}

	res, err := h.svc.Search(c.UserContext(), search.Query{
		OwnerID: middleware.OwnerIDFromCtx(c),
		Text:    c.Query("q"),
		Tags:    splitTags(c.Query("tags")),
		From:    from,
		To:      to,
		Size:    c.QueryInt("limit", 10),
	})
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(res)
}

// Stats aggregates the caller's archive totals.
func (h *ArchiveHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.svc.Stats(c.UserContext(), middleware.OwnerIDFromCtx(c))
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(stats)
}

// Recent lists the caller's five most recent uploads.
func (h *ArchiveHandler) Recent(c *fiber.Ctx) error {
	res, err := h.svc.Search(c.UserContext(), search.Query{
		OwnerID: middleware.OwnerIDFromCtx(c),
		Size:    5,
	})
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(res)
}
