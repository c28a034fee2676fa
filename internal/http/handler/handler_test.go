package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"laporan/internal/export"
	exportMocks "laporan/internal/export/mocks"
	"laporan/internal/http/views"
	"laporan/internal/model"
	"laporan/internal/service"
	serviceMocks "laporan/internal/service/mocks"
	"laporan/internal/upload"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newApp() *fiber.App {
	return fiber.New(fiber.Config{
		Views:        views.New(time.UTC),
		ErrorHandler: ErrorHandler(),
	})
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

func decodeError(t *testing.T, resp *http.Response) errorPayload {
	t.Helper()
	var body errorPayload
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func uploadRequest(t *testing.T, filename string, fields map[string]string) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if filename != "" {
		part, err := writer.CreateFormFile("foto", filename)
		require.NoError(t, err)
		_, _ = part.Write([]byte("fake image"))
	}
	for k, v := range fields {
		require.NoError(t, writer.WriteField(k, v))
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func formRequest(target string, values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestHealthCheck(t *testing.T) {
	db, dbMock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	app := fiber.New()
	app.Get("/health", HealthCheck(db))

	t.Run("healthy", func(t *testing.T) {
		dbMock.ExpectPing().WillReturnError(nil)

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]string
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "healthy", body["status"])
	})

	t.Run("unhealthy", func(t *testing.T) {
		dbMock.ExpectPing().WillReturnError(errors.New("db error"))

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
		assert.Equal(t, "SERVICE_UNAVAILABLE", decodeError(t, resp).Error.Code)
	})
}

func TestLivenessProbe(t *testing.T) {
	app := fiber.New()
	app.Get("/healthz", LivenessProbe())

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	resp, _ := app.Test(req)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestUploadForm(t *testing.T) {
	app := newApp()
	app.Get("/", UploadForm())

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body := readBody(t, resp)
	assert.Contains(t, body, `action="/upload"`)
	assert.Contains(t, body, `name="foto"`)
	assert.Contains(t, body, `<option value="Pending" selected>Pending</option>`)
	assert.Contains(t, body, `<option value="Selesai">Selesai</option>`)
}

func TestCreateReport(t *testing.T) {
	fields := map[string]string{
		"gardu":          "GI Cawang",
		"kerusakan":      "Trafo bocor",
		"waktuKerusakan": "2024-03-01T09:30",
		"perbaikan":      "",
		"selesai":        "",
		"status":         "Proses",
		"by":             "Budi",
	}

	t.Run("success redirects to list", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockReportService)
		app := newApp()
		app.Post("/upload", CreateReport(mockSvc, time.UTC))

		mockSvc.On("Create", mock.Anything, mock.MatchedBy(func(in model.ReportInput) bool {
			return in.Substation == "GI Cawang" &&
				in.Fault == "Trafo bocor" &&
				in.Status == model.StatusInProgress &&
				in.Author == "Budi" &&
				in.FaultAt.Equal(time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)) &&
				in.ResolvedAt.IsZero()
		}), mock.MatchedBy(func(p service.Photo) bool {
			return p.Filename == "trafo.jpg" && p.Size == int64(len("fake image")) && p.Reader != nil
		})).Return(&model.Report{ID: uuid.NewString()}, nil).Once()

		resp, err := app.Test(uploadRequest(t, "trafo.jpg", fields))
		require.NoError(t, err)

		assert.Equal(t, http.StatusFound, resp.StatusCode)
		assert.Equal(t, "/laporan", resp.Header.Get("Location"))
		mockSvc.AssertExpectations(t)
	})

	t.Run("missing photo", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockReportService)
		app := newApp()
		app.Post("/upload", CreateReport(mockSvc, time.UTC))

		resp, _ := app.Test(uploadRequest(t, "", fields))

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "PHOTO_REQUIRED", decodeError(t, resp).Error.Code)
		mockSvc.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("invalid time", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockReportService)
		app := newApp()
		app.Post("/upload", CreateReport(mockSvc, time.UTC))

		bad := map[string]string{"waktuKerusakan": "kemarin"}
		resp, _ := app.Test(uploadRequest(t, "trafo.jpg", bad))

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "INVALID_TIME", decodeError(t, resp).Error.Code)
	})

	errCases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"format rejected", &upload.UploadError{Op: "validate", Err: upload.ErrFormatNotAllowed}, http.StatusBadRequest, "FORMAT_NOT_ALLOWED"},
		{"upload failure", &upload.UploadError{Op: "put", Err: errors.New("minio down")}, http.StatusBadGateway, "UPLOAD_FAILED"},
		{"invalid status", model.ErrInvalidStatus, http.StatusBadRequest, "INVALID_STATUS"},
		{"photo required", service.ErrPhotoRequired, http.StatusBadRequest, "PHOTO_REQUIRED"},
		{"store failure", errors.New("save report failed: db fail"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}
	for _, tc := range errCases {
		t.Run(tc.name, func(t *testing.T) {
			mockSvc := new(serviceMocks.MockReportService)
			app := newApp()
			app.Post("/upload", CreateReport(mockSvc, time.UTC))
			mockSvc.On("Create", mock.Anything, mock.Anything, mock.Anything).Return(nil, tc.err).Once()

			resp, _ := app.Test(uploadRequest(t, "trafo.gif", fields))

			assert.Equal(t, tc.wantStatus, resp.StatusCode)
			assert.Equal(t, tc.wantCode, decodeError(t, resp).Error.Code)
		})
	}
}

func TestListReportsPage(t *testing.T) {
	mockSvc := new(serviceMocks.MockReportService)
	app := newApp()
	app.Get("/laporan", ListReportsPage(mockSvc))

	t.Run("renders rows", func(t *testing.T) {
		reports := []model.Report{
			{
				ID:         "id-1",
				PhotoURL:   "http://minio/laporan_foto/1.jpg",
				Substation: "<b>GI Cawang</b>",
				Fault:      "Trafo bocor",
				FaultAt:    time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC),
				Status:     model.StatusResolved,
				Author:     "Budi",
				UploadedAt: time.Date(2024, 3, 2, 8, 0, 0, 0, time.UTC),
			},
			{ID: "id-2", Substation: "GI Duri", Status: model.StatusPending},
		}
		mockSvc.On("List", mock.Anything).Return(reports, nil).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/laporan", nil))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		body := readBody(t, resp)
		assert.Contains(t, body, "&lt;b&gt;GI Cawang&lt;/b&gt;")
		assert.NotContains(t, body, "<b>GI Cawang</b>")
		assert.Contains(t, body, "01/03/2024 09.30")
		assert.Contains(t, body, `badge bg-success`)
		assert.Contains(t, body, `badge bg-secondary`)
		assert.Contains(t, body, `href="/edit/id-1"`)
		assert.Contains(t, body, `href="/delete/id-2"`)
		assert.Contains(t, body, `href="/export/excel"`)
		assert.Contains(t, body, `href="/export/word"`)
	})

	t.Run("service error", func(t *testing.T) {
		mockSvc.On("List", mock.Anything).Return(nil, errors.New("db down")).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/laporan", nil))

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	})
}

func TestEditForm(t *testing.T) {
	mockSvc := new(serviceMocks.MockReportService)
	app := newApp()
	app.Get("/edit/:id", EditForm(mockSvc))

	t.Run("found", func(t *testing.T) {
		mockSvc.On("Get", mock.Anything, "id-1").Return(&model.Report{
			ID:         "id-1",
			Substation: "GI Cawang",
			FaultAt:    time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC),
			Status:     model.StatusInProgress,
		}, nil).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/edit/id-1", nil))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		body := readBody(t, resp)
		assert.Contains(t, body, `action="/edit/id-1"`)
		assert.Contains(t, body, `value="GI Cawang"`)
		assert.Contains(t, body, `value="2024-03-01T09:30"`)
		assert.Contains(t, body, `<option value="Proses" selected>Proses</option>`)
	})

	t.Run("not found", func(t *testing.T) {
		mockSvc.On("Get", mock.Anything, "missing").Return(nil, service.ErrNotFound).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/edit/missing", nil))

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "Data tidak ditemukan", readBody(t, resp))
	})
}

func TestUpdateReport(t *testing.T) {
	t.Run("applies only non-empty fields", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockReportService)
		app := newApp()
		app.Post("/edit/:id", UpdateReport(mockSvc, time.UTC))

		mockSvc.On("Update", mock.Anything, "id-1", mock.MatchedBy(func(u model.ReportUpdate) bool {
			return u.Substation != nil && *u.Substation == "GI Baru" &&
				u.Status != nil && *u.Status == model.StatusResolved &&
				u.ResolvedAt != nil && u.ResolvedAt.Equal(time.Date(2024, 3, 1, 15, 0, 0, 0, time.UTC)) &&
				u.Fault == nil && u.Repair == nil && u.Author == nil && u.FaultAt == nil
		})).Return(&model.Report{ID: "id-1"}, nil).Once()

		resp, _ := app.Test(formRequest("/edit/id-1", url.Values{
			"gardu":     {"GI Baru"},
			"kerusakan": {""},
			"selesai":   {"2024-03-01T15:00"},
			"status":    {"Selesai"},
		}))

		assert.Equal(t, http.StatusFound, resp.StatusCode)
		assert.Equal(t, "/laporan", resp.Header.Get("Location"))
		mockSvc.AssertExpectations(t)
	})

	t.Run("unknown id redirects", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockReportService)
		app := newApp()
		app.Post("/edit/:id", UpdateReport(mockSvc, time.UTC))
		mockSvc.On("Update", mock.Anything, "missing", mock.Anything).Return(nil, service.ErrNotFound).Once()

		resp, _ := app.Test(formRequest("/edit/missing", url.Values{"gardu": {"X"}}))

		assert.Equal(t, http.StatusFound, resp.StatusCode)
		assert.Equal(t, "/laporan", resp.Header.Get("Location"))
	})

	t.Run("invalid status", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockReportService)
		app := newApp()
		app.Post("/edit/:id", UpdateReport(mockSvc, time.UTC))
		mockSvc.On("Update", mock.Anything, "id-1", mock.Anything).Return(nil, model.ErrInvalidStatus).Once()

		resp, _ := app.Test(formRequest("/edit/id-1", url.Values{"status": {"Done"}}))

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "INVALID_STATUS", decodeError(t, resp).Error.Code)
	})

	t.Run("invalid time", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockReportService)
		app := newApp()
		app.Post("/edit/:id", UpdateReport(mockSvc, time.UTC))

		resp, _ := app.Test(formRequest("/edit/id-1", url.Values{"waktuKerusakan": {"besok"}}))

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		mockSvc.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestDeleteReport(t *testing.T) {
	mockSvc := new(serviceMocks.MockReportService)
	app := newApp()
	app.Get("/delete/:id", DeleteReport(mockSvc))

	tests := []struct {
		name       string
		id         string
		err        error
		wantStatus int
	}{
		{"deleted", "id-1", nil, http.StatusFound},
		{"unknown id is a no-op", "missing", service.ErrNotFound, http.StatusFound},
		{"store failure", "id-2", errors.New("db down"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockSvc.On("Delete", mock.Anything, tt.id).Return(tt.err).Once()

			resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/delete/"+tt.id, nil))

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			if tt.wantStatus == http.StatusFound {
				assert.Equal(t, "/laporan", resp.Header.Get("Location"))
			}
		})
	}
}

func TestExportReports(t *testing.T) {
	mockSvc := new(exportMocks.MockExportService)
	app := newApp()
	app.Get("/export/:format", ExportReports(mockSvc))

	t.Run("excel attachment", func(t *testing.T) {
		mockSvc.On("Export", mock.Anything, export.FormatExcel).Return(&export.Result{
			Format:      export.FormatExcel,
			Data:        []byte("xlsx-bytes"),
			ContentType: export.FormatExcel.ContentType(),
			Filename:    "laporan.xlsx",
			Warnings:    []export.Warning{{Index: 1, ReportID: "r2", Err: errors.New("404")}},
		}, nil).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/export/excel", nil))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, export.FormatExcel.ContentType(), resp.Header.Get("Content-Type"))
		assert.Equal(t, "attachment; filename=laporan.xlsx", resp.Header.Get("Content-Disposition"))
		assert.Equal(t, "1", resp.Header.Get(ExportWarningsHeader))
		assert.Equal(t, "xlsx-bytes", readBody(t, resp))
	})

	t.Run("word attachment", func(t *testing.T) {
		mockSvc.On("Export", mock.Anything, export.FormatWord).Return(&export.Result{
			Format:      export.FormatWord,
			Data:        []byte("docx-bytes"),
			ContentType: export.FormatWord.ContentType(),
			Filename:    "laporan.docx",
		}, nil).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/export/word", nil))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "attachment; filename=laporan.docx", resp.Header.Get("Content-Disposition"))
		assert.Equal(t, "0", resp.Header.Get(ExportWarningsHeader))
	})

	t.Run("unknown format", func(t *testing.T) {
		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/export/pdf", nil))

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "UNKNOWN_FORMAT", decodeError(t, resp).Error.Code)
	})

	t.Run("export failure sends no document", func(t *testing.T) {
		mockSvc.On("Export", mock.Anything, export.FormatWord).Return(nil, export.ErrStoreUnavailable).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/export/word", nil))

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		assert.Empty(t, resp.Header.Get("Content-Disposition"))
		assert.Equal(t, "EXPORT_FAILED", decodeError(t, resp).Error.Code)
	})
	mockSvc.AssertExpectations(t)
}

func TestListReports(t *testing.T) {
	mockSvc := new(serviceMocks.MockReportService)
	app := fiber.New()
	app.Get("/api/reports", ListReports(mockSvc))

	t.Run("success", func(t *testing.T) {
		mockSvc.On("List", mock.Anything).Return([]model.Report{{ID: uuid.NewString(), Substation: "GI Cawang"}}, nil).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/api/reports", nil))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var result reportListResponse
		json.NewDecoder(resp.Body).Decode(&result)
		assert.Len(t, result.Items, 1)
		assert.Equal(t, 1, result.Total)
	})

	t.Run("empty list is an empty array", func(t *testing.T) {
		mockSvc.On("List", mock.Anything).Return(nil, nil).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/api/reports", nil))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.JSONEq(t, `{"data":[],"total":0}`, readBody(t, resp))
	})

	t.Run("service error", func(t *testing.T) {
		mockSvc.On("List", mock.Anything).Return(nil, errors.New("service error")).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/api/reports", nil))

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	})
	mockSvc.AssertExpectations(t)
}

func TestGetReport(t *testing.T) {
	mockSvc := new(serviceMocks.MockReportService)
	app := fiber.New()
	app.Get("/api/reports/:id", GetReport(mockSvc))

	t.Run("success", func(t *testing.T) {
		id := uuid.NewString()
		mockSvc.On("Get", mock.Anything, id).Return(&model.Report{ID: id, Status: model.StatusPending}, nil).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/api/reports/"+id, nil))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var result model.Report
		json.NewDecoder(resp.Body).Decode(&result)
		assert.Equal(t, id, result.ID)
	})

	t.Run("not found", func(t *testing.T) {
		id := uuid.NewString()
		mockSvc.On("Get", mock.Anything, id).Return(nil, service.ErrNotFound).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/api/reports/"+id, nil))

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "NOT_FOUND", decodeError(t, resp).Error.Code)
	})

	t.Run("invalid id", func(t *testing.T) {
		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/api/reports/invalid-uuid", nil))

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "INVALID_ID", decodeError(t, resp).Error.Code)
	})
	mockSvc.AssertExpectations(t)
}

func TestErrorHandler(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler()})
	app.Get("/boom", func(c *fiber.Ctx) error {
		return errors.New("unexpected")
	})
	app.Get("/teapot", func(c *fiber.Ctx) error {
		return fiber.ErrTeapot
	})

	t.Run("unhandled error", func(t *testing.T) {
		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/boom", nil))

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		assert.Equal(t, "INTERNAL_ERROR", decodeError(t, resp).Error.Code)
	})

	t.Run("unknown route", func(t *testing.T) {
		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/nope", nil))

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "NOT_FOUND", decodeError(t, resp).Error.Code)
	})

	t.Run("browser gets plain text", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/nope", nil)
		req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Contains(t, resp.Header.Get("Content-Type"), "text/plain")
		assert.Contains(t, readBody(t, resp), "resource not found")
	})

	t.Run("unmapped status keeps its code", func(t *testing.T) {
		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/teapot", nil))

		assert.Equal(t, http.StatusTeapot, resp.StatusCode)
		assert.Equal(t, "INTERNAL_ERROR", decodeError(t, resp).Error.Code)
	})
}
