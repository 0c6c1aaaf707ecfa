package service

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-timetable-api/internal/dto"
	"github.com/noah-isme/campus-timetable-api/internal/models"
	appErrors "github.com/noah-isme/campus-timetable-api/pkg/errors"
	"github.com/noah-isme/campus-timetable-api/pkg/jobs"
)

const timetableRunJobType = "timetable.generate"

type timetableGenerator interface {
	Generate(ctx context.Context, req dto.GenerateTimetableRequest) (*dto.GenerateTimetableResponse, error)
}

// TimetableRunConfig governs asynchronous generation.
type TimetableRunConfig struct {
	RunTTL     time.Duration
	Workers    int
	Retries    int
	RetryDelay time.Duration
}

// TimetableRunService accepts generation requests and executes them on a worker pool.
type TimetableRunService struct {
	generator timetableGenerator
	queue     *jobs.Queue
	store     *runStore
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTimetableRunService builds the service and its queue. Call Start before submitting.
func NewTimetableRunService(generator timetableGenerator, validate *validator.Validate, logger *zap.Logger, cfg TimetableRunConfig) *TimetableRunService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.RunTTL <= 0 {
		cfg.RunTTL = 30 * time.Minute
	}
	s := &TimetableRunService{
		generator: generator,
		store:     newRunStore(cfg.RunTTL),
		validator: validate,
		logger:    logger,
	}
	s.queue = jobs.NewQueue("timetable-runs", s.process, jobs.QueueConfig{
		Workers:    cfg.Workers,
		MaxRetries: cfg.Retries,
		RetryDelay: cfg.RetryDelay,
		OnFailure:  s.fail,
		Logger:     logger,
	})
	return s
}

// Start launches the worker pool.
func (s *TimetableRunService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the worker pool.
func (s *TimetableRunService) Stop() {
	s.queue.Stop()
}

// Submit records a queued run and hands it to the worker pool.
func (s *TimetableRunService) Submit(ctx context.Context, req dto.GenerateTimetableRequest, requestedBy string) (*models.TimetableRun, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid generate timetable payload")
	}

	run := models.TimetableRun{
		ID:          uuid.NewString(),
		TermID:      req.TermID,
		Status:      models.TimetableRunQueued,
		RequestedBy: requestedBy,
		QueuedAt:    time.Now().UTC(),
	}
	s.store.Save(runEntry{run: run})

	if err := s.queue.Enqueue(jobs.Job{ID: run.ID, Type: timetableRunJobType, Payload: req}); err != nil {
		s.store.Delete(run.ID)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, http.StatusServiceUnavailable, "timetable run queue unavailable")
	}

	s.logger.Info("timetable run queued", zap.String("run_id", run.ID), zap.String("term_id", run.TermID))
	return &run, nil
}

// Get returns the current state of a run.
func (s *TimetableRunService) Get(ctx context.Context, id string) (*dto.TimetableRunResponse, error) {
	entry, ok := s.store.Get(id)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "timetable run not found or expired")
	}
	return &dto.TimetableRunResponse{TimetableRun: entry.run, Result: entry.result}, nil
}

func (s *TimetableRunService) process(ctx context.Context, job jobs.Job) error {
	req, ok := job.Payload.(dto.GenerateTimetableRequest)
	if !ok {
		s.finish(job.ID, nil, errors.New("unexpected job payload"))
		return nil
	}
	s.store.Update(job.ID, func(e *runEntry) { e.run.Status = models.TimetableRunRunning })

	result, err := s.generator.Generate(ctx, req)
	if err != nil {
		if appErr := appErrors.FromError(err); appErr.Status < http.StatusInternalServerError {
			s.finish(job.ID, nil, err)
			return nil
		}
		return err
	}
	s.finish(job.ID, result, nil)
	return nil
}

func (s *TimetableRunService) fail(ctx context.Context, job jobs.Job, err error) {
	s.finish(job.ID, nil, err)
}

func (s *TimetableRunService) finish(id string, result *dto.GenerateTimetableResponse, err error) {
	finished := time.Now().UTC()
	s.store.Update(id, func(e *runEntry) {
		e.run.FinishedAt = &finished
		e.result = result
		if err != nil {
			e.run.Status = models.TimetableRunFailed
			e.run.Error = err.Error()
			return
		}
		e.run.Status = models.TimetableRunSucceeded
	})
	if err != nil {
		s.logger.Warn("timetable run failed", zap.String("run_id", id), zap.Error(err))
	}
}

type runEntry struct {
	run     models.TimetableRun
	result  *dto.GenerateTimetableResponse
	touched time.Time
}

// runStore keeps run state in memory; entries expire ttl after their last update.
type runStore struct {
	ttl   time.Duration
	now   func() time.Time
	mu    sync.RWMutex
	items map[string]runEntry
}

func newRunStore(ttl time.Duration) *runStore {
	return &runStore{
		ttl:   ttl,
		now:   time.Now,
		items: make(map[string]runEntry),
	}
}

func (s *runStore) Save(entry runEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for id, e := range s.items {
		if now.Sub(e.touched) > s.ttl {
			delete(s.items, id)
		}
	}
	entry.touched = now
	s.items[entry.run.ID] = entry
}

func (s *runStore) Update(id string, fn func(*runEntry)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.items[id]
	if !ok {
		return
	}
	fn(&entry)
	entry.touched = s.now()
	s.items[id] = entry
}

func (s *runStore) Get(id string) (runEntry, bool) {
	s.mu.RLock()
	entry, ok := s.items[id]
	s.mu.RUnlock()
	if !ok {
		return runEntry{}, false
	}
	if s.now().Sub(entry.touched) > s.ttl {
		s.Delete(id)
		return runEntry{}, false
	}
	return entry, true
}

func (s *runStore) Delete(id string) {
	s.mu.Lock()
	delete(s.items, id)
	s.mu.Unlock()
}
