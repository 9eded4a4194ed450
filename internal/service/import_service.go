package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/edu-erp-api/internal/dto"
	"github.com/noah-isme/edu-erp-api/internal/models"
	"github.com/noah-isme/edu-erp-api/internal/repository"
	appErrors "github.com/noah-isme/edu-erp-api/pkg/errors"
	"github.com/noah-isme/edu-erp-api/pkg/jobs"
	"github.com/noah-isme/edu-erp-api/pkg/storage"
)

// ImportJobType tags queue jobs carrying lead uploads.
const ImportJobType = "lead_import"

const importUploadDir = "imports/"

var requiredImportHeaders = []string{"name", "email", "phone", "source"}

type importJobStore interface {
	Save(ctx context.Context, job *models.ImportJob) error
	Get(ctx context.Context, id string) (*models.ImportJob, error)
}

type uploadStorage interface {
	SaveStream(name string, r io.Reader, maxBytes int64) (int64, error)
	Open(name string) (*os.File, error)
	Delete(name string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type jobDispatcher interface {
	Enqueue(job jobs.Job) error
}

type leadCreator interface {
	CreateLead(ctx context.Context, req dto.CreateLeadRequest) (*dto.MutationResult, error)
}

// ImportServiceConfig governs upload limits and processing.
type ImportServiceConfig struct {
	MaxFileSize     int64
	ProcessingDelay time.Duration
}

// ImportService accepts bulk lead uploads and exposes their status.
type ImportService struct {
	jobs    importJobStore
	storage uploadStorage
	queue   jobDispatcher
	logger  *zap.Logger
	cfg     ImportServiceConfig
	now     func() time.Time
	newID   func() string
}

// NewImportService constructs the import service.
func NewImportService(store importJobStore, uploads uploadStorage, queue jobDispatcher, cfg ImportServiceConfig, logger *zap.Logger) *ImportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = 5 << 20
	}
	return &ImportService{
		jobs:    store,
		storage: uploads,
		queue:   queue,
		logger:  logger,
		cfg:     cfg,
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

// Enqueue stores the upload and schedules it for processing.
func (s *ImportService) Enqueue(ctx context.Context, filename string, r io.Reader, requestedBy string) (*models.ImportJob, error) {
	if !strings.EqualFold(filepath.Ext(filename), ".csv") {
		fields := appErrors.FieldErrors{}
		fields.Add("file", "must be a CSV file")
		return nil, appErrors.Validation("invalid upload", fields)
	}
	id := s.newID()
	stored := fmt.Sprintf("%s%s.csv", importUploadDir, id)
	if _, err := s.storage.SaveStream(stored, r, s.cfg.MaxFileSize); err != nil {
		if errors.Is(err, storage.ErrTooLarge) {
			return nil, appErrors.Clone(appErrors.ErrTooLarge, fmt.Sprintf("file exceeds %d bytes", s.cfg.MaxFileSize))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store upload")
	}

	job := &models.ImportJob{
		ID:          id,
		Filename:    filepath.Base(filename),
		StoredPath:  stored,
		Status:      models.ImportQueued,
		RequestedBy: requestedBy,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.jobs.Save(ctx, job); err != nil {
		_ = s.storage.Delete(stored)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record import")
	}
	if err := s.queue.Enqueue(jobs.Job{ID: id, Type: ImportJobType}); err != nil {
		finished := s.now().UTC()
		job.Status = models.ImportFailed
		job.Message = "failed to enqueue import"
		job.FinishedAt = &finished
		if saveErr := s.jobs.Save(ctx, job); saveErr != nil {
			s.logger.Warn("failed to mark import failed", zap.String("job_id", id), zap.Error(saveErr))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "import queue unavailable")
	}
	s.logger.Info("import queued", zap.String("job_id", id), zap.String("filename", job.Filename))
	return job, nil
}

// Status returns the import job record.
func (s *ImportService) Status(ctx context.Context, id string) (*models.ImportJob, error) {
	job, err := s.jobs.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrImportJobNotFound) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "import not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load import")
	}
	return job, nil
}

// Sweep removes uploads older than ttl. Their jobs, when still queued or processing, are marked
// failed; this covers jobs dropped from the queue at shutdown. It returns the number of files removed.
func (s *ImportService) Sweep(ctx context.Context, ttl time.Duration) (int, error) {
	removed, err := s.storage.CleanupOlderThan(ttl)
	if err != nil {
		return 0, err
	}
	for _, name := range removed {
		if !strings.HasPrefix(name, importUploadDir) {
			continue
		}
		id := strings.TrimSuffix(strings.TrimPrefix(name, importUploadDir), ".csv")
		job, err := s.jobs.Get(ctx, id)
		if err != nil {
			continue
		}
		if job.Status != models.ImportQueued && job.Status != models.ImportProcessing {
			continue
		}
		finished := s.now().UTC()
		job.Status = models.ImportFailed
		job.Message = "upload expired before processing"
		job.FinishedAt = &finished
		if err := s.jobs.Save(ctx, job); err != nil {
			s.logger.Warn("failed to mark expired import", zap.String("job_id", id), zap.Error(err))
		}
	}
	if len(removed) > 0 {
		s.logger.Info("expired uploads removed", zap.Int("count", len(removed)))
	}
	return len(removed), nil
}

// ImportWorker turns queued uploads into leads.
type ImportWorker struct {
	jobs    importJobStore
	storage uploadStorage
	leads   leadCreator
	logger  *zap.Logger
	delay   time.Duration
	now     func() time.Time
}

// NewImportWorker constructs a worker.
func NewImportWorker(store importJobStore, uploads uploadStorage, leads leadCreator, cfg ImportServiceConfig, logger *zap.Logger) *ImportWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ImportWorker{
		jobs:    store,
		storage: uploads,
		leads:   leads,
		logger:  logger,
		delay:   cfg.ProcessingDelay,
		now:     time.Now,
	}
}

// Handle processes a queue job. Errors returned before any row is imported are retried by
// the queue; once rows are being created the job always runs to a final status.
func (w *ImportWorker) Handle(ctx context.Context, job jobs.Job) error {
	record, err := w.jobs.Get(ctx, job.ID)
	if err != nil {
		return err
	}
	record.Status = models.ImportProcessing
	if err := w.jobs.Save(ctx, record); err != nil {
		return err
	}

	if w.delay > 0 {
		timer := time.NewTimer(w.delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	file, err := w.storage.Open(record.StoredPath)
	if err != nil {
		return err
	}
	rows, parseErr := readImportRows(file)
	_ = file.Close()
	if parseErr != nil {
		w.finish(ctx, record, models.ImportFailed, parseErr.Error())
		return nil
	}

	record.TotalRows = len(rows)
	for i, row := range rows {
		line := i + 2
		res, err := w.leads.CreateLead(ctx, row.CreateLeadRequest())
		if err != nil {
			appErr := appErrors.FromError(err)
			record.Failed++
			record.Errors = append(record.Errors, models.ImportRowError{Row: line, Message: appErr.Message, Fields: appErr.Fields})
			continue
		}
		record.Created++
		record.LeadIDs = append(record.LeadIDs, res.Lead.ID)
	}
	w.finish(ctx, record, models.ImportCompleted, fmt.Sprintf("%d of %d lead(s) imported.", record.Created, record.TotalRows))
	return nil
}

// GiveUp marks a job failed once the queue stops retrying it.
func (w *ImportWorker) GiveUp(ctx context.Context, job jobs.Job, cause error) {
	record, err := w.jobs.Get(context.WithoutCancel(ctx), job.ID)
	if err != nil {
		w.logger.Warn("abandoned import has no record", zap.String("job_id", job.ID), zap.Error(err))
		return
	}
	w.finish(context.WithoutCancel(ctx), record, models.ImportFailed, cause.Error())
}

func (w *ImportWorker) finish(ctx context.Context, record *models.ImportJob, status models.ImportStatus, message string) {
	finished := w.now().UTC()
	record.Status = status
	record.Message = message
	record.FinishedAt = &finished
	if err := w.jobs.Save(ctx, record); err != nil {
		w.logger.Warn("failed to save import status", zap.String("job_id", record.ID), zap.Error(err))
	}
	if err := w.storage.Delete(record.StoredPath); err != nil {
		w.logger.Warn("failed to remove upload", zap.String("job_id", record.ID), zap.Error(err))
	}
	w.logger.Info("import finished",
		zap.String("job_id", record.ID),
		zap.String("status", string(status)),
		zap.Int("created", record.Created),
		zap.Int("failed", record.Failed),
	)
}

// readImportRows parses a lead CSV. Header names are matched case-insensitively.
func readImportRows(r io.Reader) ([]dto.ImportRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("file is empty")
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	var missing []string
	for _, h := range requiredImportHeaders {
		if _, ok := index[h]; !ok {
			missing = append(missing, h)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing column(s): %s", strings.Join(missing, ", "))
	}

	var rows []dto.ImportRow
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		get := func(name string) string {
			i, ok := index[strings.ToLower(name)]
			if !ok || i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}
		rows = append(rows, dto.ImportRow{
			Name:               get("name"),
			Email:              get("email"),
			Phone:              get("phone"),
			Source:             get("source"),
			OtherSource:        get("otherSource"),
			SocialMediaChannel: get("socialMediaChannel"),
			ReferrerName:       get("referrerName"),
			CourseInterest:     get("courseInterest"),
			City:               get("city"),
		})
	}
	return rows, nil
}
