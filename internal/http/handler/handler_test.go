package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"archiveapi/internal/model"
	"archiveapi/internal/search"
	"archiveapi/internal/service"
	serviceMocks "archiveapi/internal/service/mocks"
)

const testSecret = "test-secret"

type testApp struct {
	app     *fiber.App
	db      sqlmock.Sqlmock
	archive *serviceMocks.MockArchiveService
	auth    *serviceMocks.MockAuthService
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	db, dbMock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	ta := &testApp{
		app:     fiber.New(fiber.Config{ErrorHandler: ErrorHandler()}),
		db:      dbMock,
		archive: new(serviceMocks.MockArchiveService),
		auth:    new(serviceMocks.MockAuthService),
	}
	RegisterRoutes(ta.app, db, ta.archive, ta.auth, testSecret)
	return ta
}

func bearer(t *testing.T, subject string) string {
	t.Helper()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return "Bearer " + token
}

func jsonRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, target, r)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	return req
}

func TestHealthCheck(t *testing.T) {
	ta := newTestApp(t)

	t.Run("healthy", func(t *testing.T) {
		ta.db.ExpectPing().WillReturnError(nil)

		resp, _ := ta.app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]string
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "healthy", body["status"])
	})

	t.Run("unhealthy", func(t *testing.T) {
		ta.db.ExpectPing().WillReturnError(errors.New("db error"))

		resp, _ := ta.app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

		var body errorPayload
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "SERVICE_UNAVAILABLE", body.Error.Code)
	})
}

func TestLivenessProbe(t *testing.T) {
	ta := newTestApp(t)

	resp, _ := ta.app.Test(httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestProtectedRoutesRequireAuth(t *testing.T) {
	ta := newTestApp(t)

	for _, target := range []string{"/archive/some-id", "/search", "/dashboard/stats", "/dashboard/recent"} {
		resp, _ := ta.app.Test(httptest.NewRequest(http.MethodGet, target, nil))
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, target)
	}

	resp, _ := ta.app.Test(jsonRequest(t, http.MethodPost, "/archive/multipart", fiber.Map{"filename": "a"}))
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRegisterEndpoint(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		ta := newTestApp(t)
		ta.auth.On("Register", mock.Anything, "a@b.c", "secret").
			Return(&model.User{ID: "u1", Email: "a@b.c"}, nil)

		resp, _ := ta.app.Test(jsonRequest(t, http.MethodPost, "/auth/register",
			fiber.Map{"email": "a@b.c", "password": "secret"}))

		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		ta.auth.AssertExpectations(t)
	})

	t.Run("duplicate email", func(t *testing.T) {
		ta := newTestApp(t)
		ta.auth.On("Register", mock.Anything, "a@b.c", "secret").
			Return(nil, service.ErrEmailTaken)

		resp, _ := ta.app.Test(jsonRequest(t, http.MethodPost, "/auth/register",
			fiber.Map{"email": "a@b.c", "password": "secret"}))

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

		var body errorPayload
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "EMAIL_TAKEN", body.Error.Code)
	})

	t.Run("missing fields", func(t *testing.T) {
		ta := newTestApp(t)

		resp, _ := ta.app.Test(jsonRequest(t, http.MethodPost, "/auth/register",
			fiber.Map{"email": "a@b.c"}))

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		ta.auth.AssertNotCalled(t, "Register", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestLoginEndpoint(t *testing.T) {
	t.Run("success returns token and cookie", func(t *testing.T) {
		ta := newTestApp(t)
		ta.auth.On("Login", mock.Anything, "a@b.c", "secret").
			Return("signed-token", &model.User{ID: "u1", Email: "a@b.c"}, nil)

		resp, _ := ta.app.Test(jsonRequest(t, http.MethodPost, "/auth/login",
			fiber.Map{"email": "a@b.c", "password": "secret"}))

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]any
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "signed-token", body["access_token"])

		cookies := resp.Header.Values(fiber.HeaderSetCookie)
		require.NotEmpty(t, cookies)
		assert.Contains(t, cookies[0], "access_token=signed-token")
	})

	t.Run("invalid credentials", func(t *testing.T) {
		ta := newTestApp(t)
		ta.auth.On("Login", mock.Anything, "a@b.c", "wrong").
			Return("", nil, service.ErrInvalidCredentials)

		resp, _ := ta.app.Test(jsonRequest(t, http.MethodPost, "/auth/login",
			fiber.Map{"email": "a@b.c", "password": "wrong"}))

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}

func TestUploadEndpoint(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		ta := newTestApp(t)
		ta.archive.On("Archive", mock.Anything, "u1", mock.Anything, "notes.txt",
			mock.Anything, mock.Anything, []string{"work", "q3"}, "standard").
			Return(&model.ArchiveRecord{FileID: "f1", Status: "archived"}, nil)

		var buf bytes.Buffer
		w := multipart.NewWriter(&buf)
		fw, err := w.CreateFormFile("file", "notes.txt")
		require.NoError(t, err)
		fw.Write([]byte("hello"))
		w.WriteField("tags", "work, q3")
		w.WriteField("policy", "standard")
		require.NoError(t, w.Close())

		req := httptest.NewRequest(http.MethodPost, "/archive", &buf)
		req.Header.Set(fiber.HeaderContentType, w.FormDataContentType())
		req.Header.Set(fiber.HeaderAuthorization, bearer(t, "u1"))

		resp, _ := ta.app.Test(req)

		assert.Equal(t, http.StatusCreated, resp.StatusCode)

		var rec model.ArchiveRecord
		json.NewDecoder(resp.Body).Decode(&rec)
		assert.Equal(t, "f1", rec.FileID)
		ta.archive.AssertExpectations(t)
	})

	t.Run("missing file", func(t *testing.T) {
		ta := newTestApp(t)

		req := httptest.NewRequest(http.MethodPost, "/archive", nil)
		req.Header.Set(fiber.HeaderAuthorization, bearer(t, "u1"))

		resp, _ := ta.app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

		var body errorPayload
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "FILE_REQUIRED", body.Error.Code)
	})
}

func TestMultipartEndpoints(t *testing.T) {
	t.Run("start", func(t *testing.T) {
		ta := newTestApp(t)
		ta.archive.On("StartMultipartUpload", mock.Anything, "u1", "video.mp4").
			Return("upload-1", nil)

		req := jsonRequest(t, http.MethodPost, "/archive/multipart", fiber.Map{"filename": "video.mp4"})
		req.Header.Set(fiber.HeaderAuthorization, bearer(t, "u1"))
		resp, _ := ta.app.Test(req)

		assert.Equal(t, http.StatusCreated, resp.StatusCode)

		var body map[string]string
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "upload-1", body["upload_id"])
	})

	t.Run("start without filename", func(t *testing.T) {
		ta := newTestApp(t)
		ta.archive.On("StartMultipartUpload", mock.Anything, "u1", "").
			Return("", &service.ValidationError{Field: "filename", Reason: "required"})

		req := jsonRequest(t, http.MethodPost, "/archive/multipart", fiber.Map{})
		req.Header.Set(fiber.HeaderAuthorization, bearer(t, "u1"))
		resp, _ := ta.app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

		var body errorPayload
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "VALIDATION_ERROR", body.Error.Code)
	})

	t.Run("part url", func(t *testing.T) {
		ta := newTestApp(t)
		ta.archive.On("PresignUploadPart", mock.Anything, "u1", "upload-1", "video.mp4", 3).
			Return("https://storage/video.mp4?uploadId=upload-1&partNumber=3", nil)

		req := jsonRequest(t, http.MethodPost, "/archive/multipart/part-url",
			fiber.Map{"upload_id": "upload-1", "filename": "video.mp4", "part_number": 3})
		req.Header.Set(fiber.HeaderAuthorization, bearer(t, "u1"))
		resp, _ := ta.app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]any
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Contains(t, body["url"], "partNumber=3")
	})

	t.Run("complete", func(t *testing.T) {
		ta := newTestApp(t)
		ta.archive.On("CompleteMultipartUpload", mock.Anything, "u1",
			mock.MatchedBy(func(in service.CompleteUploadInput) bool {
				return in.UploadID == "upload-1" &&
					in.Filename == "video.mp4" &&
					len(in.Parts) == 2 &&
					in.Parts[1] == (model.Part{PartNumber: 2, ETag: "e2"}) &&
					in.DeclaredSize != nil && *in.DeclaredSize == 10485760
			})).
			Return(&model.ArchiveRecord{FileID: "f1", Size: 10485760, Status: "archived"}, nil)

		req := jsonRequest(t, http.MethodPost, "/archive/multipart/complete", fiber.Map{
			"upload_id": "upload-1",
			"filename":  "video.mp4",
			"parts": []fiber.Map{
				{"part_number": 1, "etag": "e1"},
				{"part_number": 2, "etag": "e2"},
			},
			"size":         10485760,
			"content_type": "video/mp4",
			"tags":         []string{"travel"},
		})
		req.Header.Set(fiber.HeaderAuthorization, bearer(t, "u1"))
		resp, _ := ta.app.Test(req)

		assert.Equal(t, http.StatusCreated, resp.StatusCode)

		var rec model.ArchiveRecord
		json.NewDecoder(resp.Body).Decode(&rec)
		assert.Equal(t, "f1", rec.FileID)
		ta.archive.AssertExpectations(t)
	})

	t.Run("complete with invalid parts", func(t *testing.T) {
		ta := newTestApp(t)
		ta.archive.On("CompleteMultipartUpload", mock.Anything, "u1", mock.Anything).
			Return(nil, &service.AssemblyError{UploadID: "upload-1", Err: errors.New("InvalidPart")})

		req := jsonRequest(t, http.MethodPost, "/archive/multipart/complete", fiber.Map{
			"upload_id": "upload-1",
			"filename":  "video.mp4",
			"parts":     []fiber.Map{{"part_number": 1, "etag": "stale"}},
			"size":      100,
		})
		req.Header.Set(fiber.HeaderAuthorization, bearer(t, "u1"))
		resp, _ := ta.app.Test(req)

		assert.Equal(t, http.StatusBadGateway, resp.StatusCode)

		var body errorPayload
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "ASSEMBLY_FAILED", body.Error.Code)
	})

	t.Run("abort", func(t *testing.T) {
		ta := newTestApp(t)
		ta.archive.On("AbortMultipartUpload", mock.Anything, "upload-1", "video.mp4").Return()

		req := jsonRequest(t, http.MethodPost, "/archive/multipart/abort",
			fiber.Map{"upload_id": "upload-1", "filename": "video.mp4"})
		req.Header.Set(fiber.HeaderAuthorization, bearer(t, "u1"))
		resp, _ := ta.app.Test(req)

		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
		ta.archive.AssertExpectations(t)
	})
}

func TestGetArchiveEndpoint(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		ta := newTestApp(t)
		ta.archive.On("Get", mock.Anything, "f1", "u1").
			Return(&service.RetrievedArchive{
				ArchiveRecord: model.ArchiveRecord{FileID: "f1", OwnerID: "u1", Status: "archived"},
				DownloadURL:   "https://dl/f1",
			}, nil)

		req := httptest.NewRequest(http.MethodGet, "/archive/f1", nil)
		req.Header.Set(fiber.HeaderAuthorization, bearer(t, "u1"))
		resp, _ := ta.app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]any
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "https://dl/f1", body["download_url"])
	})

	t.Run("not found", func(t *testing.T) {
		ta := newTestApp(t)
		ta.archive.On("Get", mock.Anything, "f1", "u2").Return(nil, service.ErrNotFound)

		req := httptest.NewRequest(http.MethodGet, "/archive/f1", nil)
		req.Header.Set(fiber.HeaderAuthorization, bearer(t, "u2"))
		resp, _ := ta.app.Test(req)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)

		var body errorPayload
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "NOT_FOUND", body.Error.Code)
	})
}

func TestSearchEndpoint(t *testing.T) {
	t.Run("all filters", func(t *testing.T) {
		ta := newTestApp(t)
		ta.archive.On("Search", mock.Anything, mock.MatchedBy(func(q search.Query) bool {
			return q.OwnerID == "u1" &&
				q.Text == "video" &&
				len(q.Tags) == 2 &&
				q.From != nil && q.From.Format("2006-01-02") == "2026-01-01" &&
				q.To != nil && q.To.After(time.Date(2026, 1, 31, 23, 0, 0, 0, time.UTC)) &&
				q.Size == 25
		})).Return(&search.Result{Total: 1}, nil)

		req := httptest.NewRequest(http.MethodGet,
			"/search?q=video&tags=travel,2026&start_date=2026-01-01&end_date=2026-01-31&limit=25", nil)
		req.Header.Set(fiber.HeaderAuthorization, bearer(t, "u1"))
		resp, _ := ta.app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		ta.archive.AssertExpectations(t)
	})

	t.Run("invalid date", func(t *testing.T) {
		ta := newTestApp(t)

		req := httptest.NewRequest(http.MethodGet, "/search?start_date=not-a-date", nil)
		req.Header.Set(fiber.HeaderAuthorization, bearer(t, "u1"))
		resp, _ := ta.app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		ta.archive.AssertNotCalled(t, "Search", mock.Anything, mock.Anything)
	})
}

func TestDashboardEndpoints(t *testing.T) {
	t.Run("stats", func(t *testing.T) {
		ta := newTestApp(t)
		ta.archive.On("Stats", mock.Anything, "u1").
			Return(&search.Stats{TotalItems: 7, TotalBytes: 12345}, nil)

		req := httptest.NewRequest(http.MethodGet, "/dashboard/stats", nil)
		req.Header.Set(fiber.HeaderAuthorization, bearer(t, "u1"))
		resp, _ := ta.app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var stats search.Stats
		json.NewDecoder(resp.Body).Decode(&stats)
		assert.Equal(t, int64(7), stats.TotalItems)
	})

	t.Run("recent asks for the five newest", func(t *testing.T) {
		ta := newTestApp(t)
		ta.archive.On("Search", mock.Anything, search.Query{OwnerID: "u1", Size: 5}).
			Return(&search.Result{Total: 5}, nil)

		req := httptest.NewRequest(http.MethodGet, "/dashboard/recent", nil)
		req.Header.Set(fiber.HeaderAuthorization, bearer(t, "u1"))
		resp, _ := ta.app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		ta.archive.AssertExpectations(t)
	})
}
