package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"laporan/internal/logging"
	"laporan/internal/model"
	"laporan/internal/repository"
	"laporan/internal/upload"
)

var (
	ErrIDRequired    = errors.New("id is required")
	ErrNotFound      = errors.New("report not found")
	ErrPhotoRequired = errors.New("photo is required")
)

// Photo is the binary attached to a new report.
type Photo struct {
	Reader      io.Reader
	Filename    string
	ContentType string
	Size        int64
}

// ReportService defines the use cases for fault reports.
type ReportService interface {
	// Create uploads the photo, then stores the report. When storing fails the uploaded object is removed again.
	Create(ctx context.Context, in model.ReportInput, photo Photo) (*model.Report, error)

	// List returns every report in upload order.
	List(ctx context.Context) ([]model.Report, error)

	// Get returns a single report by its ID.
	Get(ctx context.Context, id string) (*model.Report, error)

	// Update applies a partial update. Photo and upload metadata are never changed.
	Update(ctx context.Context, id string, u model.ReportUpdate) (*model.Report, error)

	// Delete removes the report, then its stored photo.
	Delete(ctx context.Context, id string) error
}

type reportService struct {
	uploader upload.Uploader
	repo     repository.ReportRepository
	log      *slog.Logger
}

// NewReportService constructs a new ReportService.
func NewReportService(uploader upload.Uploader, repo repository.ReportRepository, log *slog.Logger) ReportService {
	if log == nil {
		log = logging.Discard()
	}
	return &reportService{uploader: uploader, repo: repo, log: log}
}

func (s *reportService) Create(ctx context.Context, in model.ReportInput, photo Photo) (*model.Report, error) {
	if photo.Reader == nil || photo.Filename == "" {
		return nil, ErrPhotoRequired
	}
	status, err := model.ParseStatus(string(in.Status))
	if err != nil {
		return nil, err
	}

	up, err := s.uploader.Upload(ctx, photo.Reader, photo.Filename, photo.ContentType, photo.Size)
	if err != nil {
		return nil, fmt.Errorf("upload photo: %w", err)
	}

	r := &model.Report{
		ID:           uuid.NewString(),
		PhotoURL:     up.URL,
		OriginalName: up.OriginalName,
		StoredName:   up.StoredName,
		Substation:   in.Substation,
		Fault:        in.Fault,
		Repair:       in.Repair,
		FaultAt:      in.FaultAt,
		ResolvedAt:   in.ResolvedAt,
		Status:       status,
		Author:       in.Author,
		UploadedAt:   time.Now().UTC(),
	}
	stored, err := s.repo.Create(ctx, r)
	if err != nil {
		// Rollback: remove the uploaded photo
		if rmErr := s.uploader.Remove(ctx, up.StoredName); rmErr != nil {
			return nil, fmt.Errorf("save report failed: %v; rollback remove failed: %v", err, rmErr)
		}
		return nil, fmt.Errorf("save report failed: %w", err)
	}
	return stored, nil
}

func (s *reportService) List(ctx context.Context) ([]model.Report, error) {
	return s.repo.List(ctx)
}

func (s *reportService) Get(ctx context.Context, id string) (*model.Report, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	r, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return r, nil
}

func (s *reportService) Update(ctx context.Context, id string, u model.ReportUpdate) (*model.Report, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	if u.Status != nil && !u.Status.Valid() {
		return nil, model.ErrInvalidStatus
	}
	r, err := s.repo.Update(ctx, id, u)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return r, nil
}

// Delete removes the record first. The stored photo is removed best effort:
// a failure is logged and the delete still succeeds.
func (s *reportService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return ErrIDRequired
	}
	r, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return mapNotFound(err)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return mapNotFound(err)
	}
	if err := s.uploader.Remove(ctx, r.StoredName); err != nil {
		s.log.WarnContext(ctx, "photo_remove_failed",
			slog.String("report_id", id),
			slog.String("stored_name", r.StoredName),
			slog.String("error", err.Error()),
		)
	}
	return nil
}

func mapNotFound(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	return err
}
