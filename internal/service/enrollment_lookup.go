package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/campus-timetable-api/internal/timetable"
)

const enrollmentCachePrefix = "timetable:enrollment:"

type studentIDLister interface {
	ListStudentIDsBySection(ctx context.Context, sectionID string) ([]string, error)
}

// EnrollmentLookup resolves the students of a section through a Redis read-through cache.
// Cache failures fall back to the database; database failures are returned.
type EnrollmentLookup struct {
	repo   studentIDLister
	cache  *CacheService
	ttl    time.Duration
	logger *zap.Logger
}

// NewEnrollmentLookup constructs the lookup. A nil cache reads straight from the repository.
func NewEnrollmentLookup(repo studentIDLister, cache *CacheService, ttl time.Duration, logger *zap.Logger) *EnrollmentLookup {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentLookup{repo: repo, cache: cache, ttl: ttl, logger: logger}
}

// StudentIDs returns the students enrolled in sectionID.
func (l *EnrollmentLookup) StudentIDs(ctx context.Context, sectionID string) ([]string, error) {
	key := enrollmentCachePrefix + sectionID

	var cached []string
	hit, err := l.cache.Get(ctx, key, &cached)
	if err != nil {
		l.logger.Debug("enrollment cache unavailable", zap.String("section_id", sectionID), zap.Error(err))
	}
	if hit {
		return cached, nil
	}

	ids, err := l.repo.ListStudentIDsBySection(ctx, sectionID)
	if err != nil {
		return nil, err
	}
	if ids == nil {
		ids = []string{}
	}
	_ = l.cache.Set(ctx, key, ids, l.ttl)
	return ids, nil
}

// ForRun drops the cached sets of sectionIDs so a generation reads current enrollments,
// then caches what it reads for the rest of that run. When the cache cannot be cleared
// the returned source skips the cache entirely.
func (l *EnrollmentLookup) ForRun(ctx context.Context, sectionIDs []string) timetable.EnrollmentSource {
	if !l.cache.Enabled() || len(sectionIDs) == 0 {
		return l
	}
	keys := make([]string, len(sectionIDs))
	for i, id := range sectionIDs {
		keys[i] = enrollmentCachePrefix + id
	}
	if err := l.cache.Delete(ctx, keys...); err != nil {
		l.logger.Warn("enrollment cache not cleared, reading enrollments uncached",
			zap.Int("sections", len(sectionIDs)),
			zap.Error(err),
		)
		return &EnrollmentLookup{repo: l.repo, ttl: l.ttl, logger: l.logger}
	}
	return l
}
