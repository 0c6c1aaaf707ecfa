package service

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-timetable-api/internal/models"
	"github.com/noah-isme/campus-timetable-api/internal/timetable"
	appErrors "github.com/noah-isme/campus-timetable-api/pkg/errors"
)

func newTxProviderMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "sqlmock"), mock
}

type sectionStub struct {
	rows []models.CourseSection
	err  error
}

func (s *sectionStub) ListByTerm(ctx context.Context, termID string) ([]models.CourseSection, error) {
	return s.rows, s.err
}

type classroomStub struct {
	rows []models.Classroom
	err  error
}

func (s *classroomStub) ListActive(ctx context.Context) ([]models.Classroom, error) {
	return s.rows, s.err
}

type scheduleStoreStub struct {
	cleared  []string
	saved    []timetable.Assignment
	saveErr  error
	details  []models.CourseScheduleDetail
	total    int
	filter   models.CourseScheduleFilter
	listErr  error
	termList int
	locked   []string
	lockErr  error
}

func (s *scheduleStoreStub) List(ctx context.Context, filter models.CourseScheduleFilter) ([]models.CourseScheduleDetail, int, error) {
	s.filter = filter
	return s.details, s.total, s.listErr
}

func (s *scheduleStoreStub) ListByTerm(ctx context.Context, termID string) ([]models.CourseScheduleDetail, error) {
	s.termList++
	return s.details, s.listErr
}

func (s *scheduleStoreStub) Writer(exec sqlx.ExtContext) timetable.ScheduleWriter {
	return s
}

func (s *scheduleStoreStub) LockTermWithTx(ctx context.Context, exec sqlx.ExtContext, termID string) error {
	s.locked = append(s.locked, termID)
	return s.lockErr
}

func (s *scheduleStoreStub) ClearAssignments(ctx context.Context, sectionIDs []string) error {
	s.cleared = sectionIDs
	return nil
}

func (s *scheduleStoreStub) SaveAssignments(ctx context.Context, assignments []timetable.Assignment) error {
	s.saved = assignments
	return s.saveErr
}

type enrollmentMap map[string][]string

func (m enrollmentMap) StudentIDs(ctx context.Context, sectionID string) ([]string, error) {
	return m[sectionID], nil
}

// memoryCache is an in-process CacheRepository.
type memoryCache struct {
	mu          sync.Mutex
	items       map[string][]byte
	invalidated []string
	deleted     []string
	getErr      error
	deleteErr   error
}

func newMemoryCache() *memoryCache {
	return &memoryCache{items: map[string][]byte{}}
}

func (m *memoryCache) Get(ctx context.Context, key string, dest interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return m.getErr
	}
	raw, ok := m.items[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.items[key] = raw
	m.mu.Unlock()
	return nil
}

func (m *memoryCache) Delete(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleteErr != nil {
		return m.deleteErr
	}
	for _, key := range keys {
		m.deleted = append(m.deleted, key)
		delete(m.items, key)
	}
	return nil
}

// DeleteByPattern supports trailing-wildcard patterns with backslash escapes.
func (m *memoryCache) DeleteByPattern(ctx context.Context, pattern string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.invalidated = append(m.invalidated, pattern)
	prefix := unescapeGlob(strings.TrimSuffix(pattern, "*"))
	for key := range m.items {
		if strings.HasPrefix(key, prefix) {
			delete(m.items, key)
		}
	}
	return nil
}

func unescapeGlob(pattern string) string {
	var b strings.Builder
	escaped := false
	for _, r := range pattern {
		if r == '\\' && !escaped {
			escaped = true
			continue
		}
		escaped = false
		b.WriteRune(r)
	}
	return b.String()
}
