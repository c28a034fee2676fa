package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"laporan/internal/model"
	"laporan/internal/repository"
	"laporan/internal/repository/memory"
	repoMocks "laporan/internal/repository/mocks"
	"laporan/internal/upload"
	uploadMocks "laporan/internal/upload/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func validInput() model.ReportInput {
	return model.ReportInput{
		Substation: "GI Cawang",
		Fault:      "Trafo bocor",
		FaultAt:    time.Date(2024, 3, 1, 2, 30, 0, 0, time.UTC),
		Status:     model.StatusInProgress,
		Author:     "Budi",
	}
}

func TestReportService_Create(t *testing.T) {
	ctx := context.Background()
	uploaded := upload.Uploaded{
		URL:          "http://minio:9000/laporan/laporan_foto/abc.jpg",
		StoredName:   "laporan_foto/abc.jpg",
		OriginalName: "trafo.jpg",
	}

	tests := []struct {
		name       string
		input      model.ReportInput
		photo      func() Photo
		setupMocks func(mUp *uploadMocks.MockUploader, mRepo *repoMocks.MockReportRepository, r io.Reader)
		wantErr    error
		wantErrMsg string
	}{
		{
			name:  "happy path",
			input: validInput(),
			photo: func() Photo {
				return Photo{Reader: strings.NewReader("jpeg"), Filename: "trafo.jpg", ContentType: "image/jpeg", Size: 4}
			},
			setupMocks: func(mUp *uploadMocks.MockUploader, mRepo *repoMocks.MockReportRepository, r io.Reader) {
				mUp.On("Upload", ctx, r, "trafo.jpg", "image/jpeg", int64(4)).Return(uploaded, nil)
				mRepo.On("Create", ctx, mock.MatchedBy(func(rep *model.Report) bool {
					return rep.ID != "" &&
						rep.PhotoURL == uploaded.URL &&
						rep.StoredName == uploaded.StoredName &&
						rep.OriginalName == "trafo.jpg" &&
						rep.Status == model.StatusInProgress &&
						!rep.UploadedAt.IsZero()
				})).Return(&model.Report{ID: "gen-id"}, nil)
			},
		},
		{
			name:  "missing photo",
			input: validInput(),
			photo: func() Photo { return Photo{} },
			setupMocks: func(mUp *uploadMocks.MockUploader, mRepo *repoMocks.MockReportRepository, r io.Reader) {
			},
			wantErr: ErrPhotoRequired,
		},
		{
			name: "invalid status",
			input: func() model.ReportInput {
				in := validInput()
				in.Status = "Done"
				return in
			}(),
			photo: func() Photo { return Photo{Reader: strings.NewReader("x"), Filename: "a.jpg"} },
			setupMocks: func(mUp *uploadMocks.MockUploader, mRepo *repoMocks.MockReportRepository, r io.Reader) {
			},
			wantErr: model.ErrInvalidStatus,
		},
		{
			name:  "upload rejected creates no record",
			input: validInput(),
			photo: func() Photo { return Photo{Reader: strings.NewReader("x"), Filename: "a.gif"} },
			setupMocks: func(mUp *uploadMocks.MockUploader, mRepo *repoMocks.MockReportRepository, r io.Reader) {
				mUp.On("Upload", ctx, r, "a.gif", "", int64(0)).
					Return(upload.Uploaded{}, &upload.UploadError{Op: "validate", Err: upload.ErrFormatNotAllowed})
			},
			wantErr: upload.ErrFormatNotAllowed,
		},
		{
			name:  "repository error rolls back upload",
			input: validInput(),
			photo: func() Photo { return Photo{Reader: strings.NewReader("x"), Filename: "a.jpg"} },
			setupMocks: func(mUp *uploadMocks.MockUploader, mRepo *repoMocks.MockReportRepository, r io.Reader) {
				mUp.On("Upload", ctx, r, "a.jpg", "", int64(0)).Return(uploaded, nil)
				mRepo.On("Create", ctx, mock.Anything).Return(nil, errors.New("db fail"))
				mUp.On("Remove", ctx, uploaded.StoredName).Return(nil)
			},
			wantErrMsg: "save report failed: db fail",
		},
		{
			name:  "repository error and rollback error",
			input: validInput(),
			photo: func() Photo { return Photo{Reader: strings.NewReader("x"), Filename: "a.jpg"} },
			setupMocks: func(mUp *uploadMocks.MockUploader, mRepo *repoMocks.MockReportRepository, r io.Reader) {
				mUp.On("Upload", ctx, r, "a.jpg", "", int64(0)).Return(uploaded, nil)
				mRepo.On("Create", ctx, mock.Anything).Return(nil, errors.New("db fail"))
				mUp.On("Remove", ctx, uploaded.StoredName).Return(errors.New("storage fail"))
			},
			wantErrMsg: "save report failed: db fail; rollback remove failed: storage fail",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mUp := new(uploadMocks.MockUploader)
			mRepo := new(repoMocks.MockReportRepository)
			photo := tt.photo()
			tt.setupMocks(mUp, mRepo, photo.Reader)

			svc := NewReportService(mUp, mRepo, nil)
			got, err := svc.Create(ctx, tt.input, photo)

			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)
			case tt.wantErrMsg != "":
				assert.EqualError(t, err, tt.wantErrMsg)
				assert.Nil(t, got)
			default:
				assert.NoError(t, err)
				assert.NotNil(t, got)
			}
			mUp.AssertExpectations(t)
			mRepo.AssertExpectations(t)
		})
	}
}

func TestReportService_Create_DefaultsStatus(t *testing.T) {
	ctx := context.Background()
	mUp := new(uploadMocks.MockUploader)
	mUp.On("Upload", ctx, mock.Anything, "a.png", "image/png", int64(1)).
		Return(upload.Uploaded{URL: "u", StoredName: "laporan_foto/a.png", OriginalName: "a.png"}, nil)

	svc := NewReportService(mUp, memory.NewReportMemory(), nil)
	in := validInput()
	in.Status = ""
	got, err := svc.Create(ctx, in, Photo{Reader: strings.NewReader("x"), Filename: "a.png", ContentType: "image/png", Size: 1})

	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, got.Status)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestReportService_Get(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		id         string
		setupMocks func(mRepo *repoMocks.MockReportRepository)
		wantErr    error
	}{
		{
			name: "found",
			id:   "r1",
			setupMocks: func(mRepo *repoMocks.MockReportRepository) {
				mRepo.On("FindByID", ctx, "r1").Return(&model.Report{ID: "r1"}, nil)
			},
		},
		{
			name:       "empty id",
			id:         "",
			setupMocks: func(mRepo *repoMocks.MockReportRepository) {},
			wantErr:    ErrIDRequired,
		},
		{
			name: "not found",
			id:   "missing",
			setupMocks: func(mRepo *repoMocks.MockReportRepository) {
				mRepo.On("FindByID", ctx, "missing").Return(nil, repository.ErrNotFound)
			},
			wantErr: ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mRepo := new(repoMocks.MockReportRepository)
			tt.setupMocks(mRepo)

			got, err := NewReportService(new(uploadMocks.MockUploader), mRepo, nil).Get(ctx, tt.id)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.id, got.ID)
		})
	}
}

func TestReportService_Update(t *testing.T) {
	ctx := context.Background()
	gardu := "GI Baru"
	bad := model.Status("Done")
	done := model.StatusResolved

	tests := []struct {
		name       string
		id         string
		update     model.ReportUpdate
		setupMocks func(mRepo *repoMocks.MockReportRepository)
		wantErr    error
	}{
		{
			name:   "ok",
			id:     "r1",
			update: model.ReportUpdate{Substation: &gardu, Status: &done},
			setupMocks: func(mRepo *repoMocks.MockReportRepository) {
				mRepo.On("Update", ctx, "r1", model.ReportUpdate{Substation: &gardu, Status: &done}).
					Return(&model.Report{ID: "r1", Substation: gardu, Status: done}, nil)
			},
		},
		{
			name:       "invalid status",
			id:         "r1",
			update:     model.ReportUpdate{Status: &bad},
			setupMocks: func(mRepo *repoMocks.MockReportRepository) {},
			wantErr:    model.ErrInvalidStatus,
		},
		{
			name:       "empty id",
			setupMocks: func(mRepo *repoMocks.MockReportRepository) {},
			wantErr:    ErrIDRequired,
		},
		{
			name:   "not found",
			id:     "missing",
			update: model.ReportUpdate{Substation: &gardu},
			setupMocks: func(mRepo *repoMocks.MockReportRepository) {
				mRepo.On("Update", ctx, "missing", mock.Anything).Return(nil, repository.ErrNotFound)
			},
			wantErr: ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mRepo := new(repoMocks.MockReportRepository)
			tt.setupMocks(mRepo)

			got, err := NewReportService(new(uploadMocks.MockUploader), mRepo, nil).Update(ctx, tt.id, tt.update)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, gardu, got.Substation)
			mRepo.AssertExpectations(t)
		})
	}
}

func TestReportService_Delete(t *testing.T) {
	ctx := context.Background()
	stored := &model.Report{ID: "r1", StoredName: "laporan_foto/abc.jpg"}

	tests := []struct {
		name       string
		id         string
		setupMocks func(mUp *uploadMocks.MockUploader, mRepo *repoMocks.MockReportRepository)
		wantErr    error
		wantErrMsg string
	}{
		{
			name: "deletes record and photo",
			id:   "r1",
			setupMocks: func(mUp *uploadMocks.MockUploader, mRepo *repoMocks.MockReportRepository) {
				mRepo.On("FindByID", ctx, "r1").Return(stored, nil)
				mRepo.On("Delete", ctx, "r1").Return(nil)
				mUp.On("Remove", ctx, "laporan_foto/abc.jpg").Return(nil)
			},
		},
		{
			name: "photo removal failure is not returned",
			id:   "r1",
			setupMocks: func(mUp *uploadMocks.MockUploader, mRepo *repoMocks.MockReportRepository) {
				mRepo.On("FindByID", ctx, "r1").Return(stored, nil)
				mRepo.On("Delete", ctx, "r1").Return(nil)
				mUp.On("Remove", ctx, "laporan_foto/abc.jpg").Return(errors.New("storage fail"))
			},
		},
		{
			name:       "empty id",
			setupMocks: func(mUp *uploadMocks.MockUploader, mRepo *repoMocks.MockReportRepository) {},
			wantErr:    ErrIDRequired,
		},
		{
			name: "not found",
			id:   "missing",
			setupMocks: func(mUp *uploadMocks.MockUploader, mRepo *repoMocks.MockReportRepository) {
				mRepo.On("FindByID", ctx, "missing").Return(nil, repository.ErrNotFound)
			},
			wantErr: ErrNotFound,
		},
		{
			name: "repository delete error keeps photo",
			id:   "r1",
			setupMocks: func(mUp *uploadMocks.MockUploader, mRepo *repoMocks.MockReportRepository) {
				mRepo.On("FindByID", ctx, "r1").Return(stored, nil)
				mRepo.On("Delete", ctx, "r1").Return(errors.New("db fail"))
			},
			wantErrMsg: "db fail",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mUp := new(uploadMocks.MockUploader)
			mRepo := new(repoMocks.MockReportRepository)
			tt.setupMocks(mUp, mRepo)

			err := NewReportService(mUp, mRepo, nil).Delete(ctx, tt.id)
			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.wantErrMsg != "":
				assert.EqualError(t, err, tt.wantErrMsg)
			default:
				assert.NoError(t, err)
			}
			mUp.AssertExpectations(t)
			mRepo.AssertExpectations(t)
		})
	}
}
